package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/mfenderov/plenar/internal/batch"
	"github.com/spf13/cobra"
)

var (
	discoverPeriods []string
	discoverFormat  string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List protocol links",
	Long: `Crawl the portal carousel and print the protocol links of each period,
newest first. Nothing is downloaded.

Examples:
  plenar discover --period pp20
  plenar discover --format json`,
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().StringSliceVar(&discoverPeriods, "period", nil, "Period id to crawl (repeatable, default all)")
	discoverCmd.Flags().StringVar(&discoverFormat, "format", "text", "Output format: text or json")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	periods, err := selectPeriods(&cfg, discoverPeriods)
	if err != nil {
		return err
	}

	crawler, err := newCrawler(&cfg)
	if err != nil {
		return err
	}

	results, err := crawler.DiscoverAll(ctx, periods)
	sets := batch.Values(results)

	if discoverFormat == "json" {
		output, jerr := json.MarshalIndent(sets, "", "  ")
		if jerr != nil {
			return jerr
		}
		fmt.Println(string(output))
	} else {
		for _, set := range sets {
			fmt.Printf("%s (%d links)\n", set.Period, len(set.Links))
			for _, link := range set.Links {
				fmt.Printf("  %s\n", link)
			}
		}
	}

	if len(sets) == 0 && err != nil {
		return err
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
	}
	return nil
}
