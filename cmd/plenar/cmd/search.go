package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/mfenderov/plenar/internal/elasticsearch"
	"github.com/mfenderov/plenar/internal/embeddings"
	"github.com/mfenderov/plenar/internal/render"
	"github.com/mfenderov/plenar/pkg/models"
	"github.com/spf13/cobra"
)

var (
	searchLimit  int
	searchFormat string
	searchPeriod string
	searchParty  string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed speeches",
	Long: `Search the indexed plenary speeches.

Examples:
  # Basic search
  plenar search "Klimaschutz"

  # Restrict to a period and party
  plenar search "Rente" --period pp20 --party SPD

  # JSON output for scripting
  plenar search "Haushalt" --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum number of results")
	searchCmd.Flags().StringVar(&searchFormat, "format", "text", "Output format: text or json")
	searchCmd.Flags().StringVar(&searchPeriod, "period", "", "Restrict to a legislative period")
	searchCmd.Flags().StringVar(&searchParty, "party", "", "Restrict to a parliamentary group")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	query := args[0]
	cfg := GetConfig()

	esClient, err := newESClient(&cfg)
	if err != nil {
		return err
	}

	var vector []float32
	embedClient, err := newEmbedClient(&cfg)
	if err != nil {
		return err
	}
	if embedClient != nil {
		if vector, err = embedClient.Embed(ctx, query); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: query embedding failed, using text search: %v\n", err)
			vector = nil
		}
	}

	filter := elasticsearch.Filter{Period: searchPeriod, Party: searchParty}
	docs, err := esClient.HybridSearch(ctx, query, vector, filter, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(docs) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	if searchFormat == "json" {
		for i := range docs {
			docs[i].Embedding = nil
		}
		output, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Found %d results:\n\n", len(docs))
	for i, doc := range docs {
		fmt.Printf("─── Result %d ───\n", i+1)
		fmt.Printf("Speaker: %s\n", render.SpeakerLine(models.Speaker{Forename: doc.Forename, Surname: doc.Surname, Party: doc.Party}))
		fmt.Printf("Sitting: %s\n", sittingLabel(doc))
		fmt.Printf("ID:      %s\n", doc.ID)
		fmt.Printf("Text:\n%s\n\n", embeddings.Truncate(doc.Text, 500))
	}

	return nil
}

func sittingLabel(doc models.SpeechDocument) string {
	label := doc.Period
	if doc.SittingNumber != nil {
		label += fmt.Sprintf(", Sitzung %d", *doc.SittingNumber)
	}
	if doc.Date != nil {
		label += " (" + *doc.Date + ")"
	}
	return label
}
