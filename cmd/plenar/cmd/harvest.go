package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/mfenderov/plenar/internal/config"
	"github.com/mfenderov/plenar/internal/events"
	"github.com/mfenderov/plenar/internal/extract"
	"github.com/mfenderov/plenar/internal/fetcher"
	"github.com/mfenderov/plenar/internal/ingestion"
	"github.com/mfenderov/plenar/internal/pipeline"
	"github.com/mfenderov/plenar/internal/sanitize"
	"github.com/mfenderov/plenar/internal/storage"
	"github.com/spf13/cobra"
)

var (
	harvestPeriods  []string
	harvestIngest   bool
	harvestMarkdown bool
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest plenary protocols",
	Long: `Discover, download, sanitize and extract the protocols of every configured
legislative period. Periods run concurrently; a failing period does not stop
the others.

Examples:
  # Harvest all configured periods into ./data
  plenar harvest

  # Harvest the 20th period only and render Markdown transcripts
  plenar harvest --period pp20 --markdown

  # Harvest and index the speeches into Elasticsearch
  plenar harvest --ingest`,
	RunE: runHarvest,
}

func init() {
	rootCmd.AddCommand(harvestCmd)

	harvestCmd.Flags().StringSliceVar(&harvestPeriods, "period", nil, "Period id to harvest (repeatable, default all)")
	harvestCmd.Flags().BoolVar(&harvestIngest, "ingest", false, "Index harvested speeches into Elasticsearch")
	harvestCmd.Flags().BoolVar(&harvestMarkdown, "markdown", false, "Also write Markdown transcripts")
}

func runHarvest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	slog.Debug("harvest command starting", "periods", harvestPeriods, "ingest", harvestIngest)

	periods, err := selectPeriods(&cfg, harvestPeriods)
	if err != nil {
		return err
	}

	crawler, err := newCrawler(&cfg)
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

	var sink storage.Sink = files
	bucket := ""
	mirror, err := newMirror(ctx, &cfg)
	if err != nil {
		return err
	}
	if mirror != nil {
		sink = storage.Multi{files, mirror}
		bucket = mirror.Bucket()
	}

	f := fetcher.New(fetcher.Config{
		Parallelism: cfg.Fetcher.Parallelism,
		Delay:       cfg.Fetcher.Delay,
		Timeout:     cfg.Fetcher.Timeout,
		UserAgent:   cfg.Fetcher.UserAgent,
		MaxBodySize: cfg.Fetcher.MaxBodySize,
	})

	opts := []pipeline.Option{
		pipeline.WithSanitizer(sanitize.New(cfg.Extraction.Declarations...)),
	}

	var (
		harvested chan events.PeriodHarvestedEvent
		done      chan struct{}
	)
	if harvestIngest {
		engine, err := newIngestionEngine(&cfg, files)
		if err != nil {
			return err
		}
		harvested = make(chan events.PeriodHarvestedEvent)
		done = make(chan struct{})
		go consumeHarvests(ctx, engine, harvested, done)
		opts = append(opts, pipeline.WithEvents(harvested))
	}

	p := pipeline.New(pipeline.Config{
		Periods:  periods,
		Markdown: harvestMarkdown || cfg.Output.Markdown,
		Bucket:   bucket,
	}, crawler, f, mapper, sink, opts...)

	results, runErr := p.Run(ctx)

	if harvested != nil {
		close(harvested)
		<-done
	}

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
			fmt.Printf("%s: failed: %v\n", r.Label, r.Err)
			continue
		}
		res := r.Value
		fmt.Printf("%s: %d links, %d fetched, %d debates in %v\n",
			res.Period, res.Links, res.Fetched, res.Debates, res.Duration)
		for _, e := range res.Errors {
			fmt.Printf("  Warning: %v\n", e)
		}
	}

	if failed == len(results) {
		return fmt.Errorf("all periods failed: %w", runErr)
	}
	return nil
}

// consumeHarvests ingests each period as soon as it has been harvested.
func consumeHarvests(ctx context.Context, engine *ingestion.Engine, harvested <-chan events.PeriodHarvestedEvent, done chan<- struct{}) {
	defer close(done)
	for event := range harvested {
		fmt.Printf("Ingesting: %s (%d debates)\n", event.Period, event.Debates)

		result, err := engine.Ingest(ctx, event.Period)
		if err != nil {
			fmt.Printf("  Error: %v\n", err)
			continue
		}

		completed := events.IngestionCompleteEvent{
			Period:      event.Period,
			DocsIndexed: result.DocsIndexed,
			Duration:    result.Duration,
			Errors:      result.Errors,
		}
		reportIngestion(completed)
	}
}

func reportIngestion(e events.IngestionCompleteEvent) {
	fmt.Printf("  %s: %d speeches indexed in %v\n", e.Period, e.DocsIndexed, e.Duration)
	for _, msg := range e.Errors {
		fmt.Printf("  Warning: %s\n", msg)
	}
}

func newIngestionEngine(cfg *config.Config, source storage.Source) (*ingestion.Engine, error) {
	esClient, err := newESClient(cfg)
	if err != nil {
		return nil, err
	}
	embedClient, err := newEmbedClient(cfg)
	if err != nil {
		return nil, err
	}

	var embedder ingestion.Embedder
	if embedClient != nil {
		embedder = embedClient
	}
	return ingestion.New(source, esClient, embedder), nil
}
