package cmd

import (
	"fmt"

	"github.com/mfenderov/plenar/internal/mcp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the MCP server for speech retrieval.

The server communicates via stdio and provides two tools:
  - search_speeches: Search indexed speeches, optionally by period or party
  - get_speech: Get a single speech by ID

Example:
  plenar serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	esClient, err := newESClient(&cfg)
	if err != nil {
		return err
	}

	embedClient, err := newEmbedClient(&cfg)
	if err != nil {
		return err
	}
	var embedder mcp.QueryEmbedder
	if embedClient != nil {
		embedder = embedClient
	}

	server := mcp.NewServer(mcp.Config{
		Name:    cfg.MCP.Name,
		Version: cfg.MCP.Version,
	}, esClient, embedder)

	fmt.Fprintln(cmd.ErrOrStderr(), "Starting MCP server...")

	return server.ServeStdio()
}
