package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/mfenderov/plenar/internal/extract"
	"github.com/mfenderov/plenar/internal/render"
	"github.com/mfenderov/plenar/internal/storage"
	"github.com/spf13/cobra"
)

var (
	extractPeriods  []string
	extractMarkdown bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Re-extract debates from stored protocols",
	Long: `Run the extraction mapper over protocols already stored under the data
root and rewrite the debate JSON. Use this after changing extraction queries.

Examples:
  plenar extract
  plenar extract --period pp19 --markdown`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringSliceVar(&extractPeriods, "period", nil, "Period id to extract (repeatable, default all)")
	extractCmd.Flags().BoolVar(&extractMarkdown, "markdown", false, "Also write Markdown transcripts")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	periods, err := selectPeriods(&cfg, extractPeriods)
	if err != nil {
		return err
	}

	mapper, err := extract.NewMapper(cfg.Extraction.Queries)
	if err != nil {
		return fmt.Errorf("invalid extraction queries: %w", err)
	}

	files, err := storage.NewFiles(cfg.Output.DataRoot)
	if err != nil {
		return err
	}

	var failures []error
	for _, period := range periods {
		written, total, err := extractPeriod(ctx, files, mapper, period.ID, extractMarkdown || cfg.Output.Markdown)
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", period.ID, err))
			fmt.Printf("%s: failed: %v\n", period.ID, err)
			continue
		}
		fmt.Printf("%s: %d of %d protocols extracted\n", period.ID, written, total)
	}

	if len(failures) == len(periods) {
		return fmt.Errorf("all periods failed: %w", errors.Join(failures...))
	}
	return nil
}

var errNothingExtracted = errors.New("no protocol could be extracted")

// extractPeriod re-extracts every stored protocol of a period. A period with
// protocols of which none could be extracted is a failure.
func extractPeriod(ctx context.Context, files *storage.Files, mapper *extract.Mapper, period string, markdown bool) (written, total int, err error) {
	names, err := files.ListXML(ctx, period)
	if err != nil {
		return 0, 0, err
	}

	sources := make([]extract.Source, 0, len(names))
	for _, name := range names {
		content, err := files.GetXML(ctx, period, name)
		if err != nil {
			fmt.Printf("  Warning: %v\n", err)
			continue
		}
		sources = append(sources, extract.Source{Name: name, Content: content})
	}

	results, extractErr := mapper.ExtractAll(ctx, sources, period)

	for _, r := range results {
		if !r.OK() {
			fmt.Printf("  %s: %v\n", r.Label, r.Err)
			continue
		}
		if err := files.PutDebate(ctx, period, r.Label, r.Value); err != nil {
			fmt.Printf("  %s: %v\n", r.Label, err)
			continue
		}
		if markdown {
			md, err := render.Markdown(ctx, r.Value)
			if err == nil {
				err = files.PutMarkdown(ctx, period, r.Label, md)
			}
			if err != nil {
				fmt.Printf("  %s: %v\n", r.Label, err)
			}
		}
		written++
	}

	if len(names) > 0 && written == 0 {
		return 0, len(names), errors.Join(errNothingExtracted, extractErr)
	}
	return written, len(names), nil
}
