package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/mfenderov/plenar/internal/events"
	"github.com/mfenderov/plenar/internal/storage"
	"github.com/spf13/cobra"
)

var (
	ingestPeriods []string
	ingestFrom    string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index stored debates into Elasticsearch",
	Long: `Index previously extracted debates into Elasticsearch, one document per
speech. Debates are read from the local data root or from the S3 mirror.

Examples:
  # Ingest every period found under the data root
  plenar ingest

  # Ingest the 20th period from the MinIO mirror
  plenar ingest --period pp20 --from s3`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringSliceVar(&ingestPeriods, "period", nil, "Period id to ingest (repeatable, default all stored)")
	ingestCmd.Flags().StringVar(&ingestFrom, "from", "files", "Debate source: files or s3")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	slog.Debug("ingest command starting", "periods", ingestPeriods, "from", ingestFrom)

	var source storage.Source
	switch ingestFrom {
	case "files":
		files, err := storage.NewFiles(cfg.Output.DataRoot)
		if err != nil {
			return err
		}
		source = files
	case "s3":
		mirror, err := newMirror(ctx, &cfg)
		if err != nil {
			return err
		}
		if mirror == nil {
			return fmt.Errorf("storage not configured - check config file")
		}
		source = mirror
	default:
		return fmt.Errorf("unknown source %q, want files or s3", ingestFrom)
	}

	periods := ingestPeriods
	if len(periods) == 0 {
		stored, err := source.ListPeriods(ctx)
		if err != nil {
			return err
		}
		periods = stored
	}
	if len(periods) == 0 {
		fmt.Println("Nothing to ingest.")
		return nil
	}

	engine, err := newIngestionEngine(&cfg, source)
	if err != nil {
		return err
	}

	for _, period := range periods {
		fmt.Printf("Ingesting: %s\n", period)

		result, err := engine.Ingest(ctx, period)
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}

		reportIngestion(events.IngestionCompleteEvent{
			Period:      period,
			DocsIndexed: result.DocsIndexed,
			Duration:    result.Duration,
			Errors:      result.Errors,
		})
	}

	return nil
}
