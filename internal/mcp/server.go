package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mfenderov/plenar/internal/elasticsearch"
	"github.com/mfenderov/plenar/pkg/models"
)

// Config holds MCP server configuration.
type Config struct {
	Name    string
	Version string
}

// Index is the speech index the tools read from.
type Index interface {
	HybridSearch(ctx context.Context, query string, queryEmbedding []float32, filter elasticsearch.Filter, limit int) ([]models.SpeechDocument, error)
	GetSpeech(ctx context.Context, id string) (*models.SpeechDocument, error)
}

// QueryEmbedder turns a search query into a vector.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Server exposes the speech index as MCP tools.
type Server struct {
	mcpServer *server.MCPServer
	index     Index
	embedder  QueryEmbedder // nil if embeddings disabled
}

// NewServer creates a new MCP server with search tools. embedder may be nil.
func NewServer(config Config, index Index, embedder QueryEmbedder) *Server {
	mcpServer := server.NewMCPServer(
		config.Name,
		config.Version,
		server.WithToolCapabilities(true),
	)

	s := &Server{
		mcpServer: mcpServer,
		index:     index,
		embedder:  embedder,
	}

	searchTool := mcp.NewTool("search_speeches",
		mcp.WithDescription("Search plenary speeches by topic or speaker. Returns matching speeches with speaker, party, sitting and full text."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query string"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (default: 10)"),
		),
		mcp.WithString("period",
			mcp.Description("Restrict to a legislative period, e.g. pp20"),
		),
		mcp.WithString("party",
			mcp.Description("Restrict to a parliamentary group, e.g. SPD"),
		),
	)
	mcpServer.AddTool(searchTool, s.searchHandler)

	getTool := mcp.NewTool("get_speech",
		mcp.WithDescription("Get a single speech by document ID"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Document ID returned by search_speeches"),
		),
	)
	mcpServer.AddTool(getTool, s.getSpeechHandler)

	return s
}

func (s *Server) searchHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	limit := req.GetInt("limit", 10)
	filter := elasticsearch.Filter{
		Period: req.GetString("period", ""),
		Party:  req.GetString("party", ""),
	}

	docs, err := s.handleSearch(ctx, query, filter, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	result, err := json.Marshal(docs)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}

	return mcp.NewToolResultText(string(result)), nil
}

func (s *Server) getSpeechHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	doc, err := s.index.GetSpeech(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get speech failed: %v", err)), nil
	}

	if doc == nil {
		return mcp.NewToolResultError(fmt.Sprintf("speech not found: %s", id)), nil
	}

	result, err := json.Marshal(doc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal speech: %v", err)), nil
	}

	return mcp.NewToolResultText(string(result)), nil
}

// handleSearch runs a hybrid search when a query embedding can be computed
// and falls back to BM25 otherwise.
func (s *Server) handleSearch(ctx context.Context, query string, filter elasticsearch.Filter, limit int) ([]models.SpeechDocument, error) {
	var vector []float32
	if s.embedder != nil {
		v, err := s.embedder.Embed(ctx, query)
		if err != nil {
			slog.Warn("query embedding failed, using text search", "error", err)
		} else {
			vector = v
		}
	}
	docs, err := s.index.HybridSearch(ctx, query, vector, filter, limit)
	if err != nil {
		return nil, err
	}
	// Vectors are not useful to MCP clients.
	for i := range docs {
		docs[i].Embedding = nil
	}
	return docs, nil
}

// ServeStdio starts the MCP server using stdio transport.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
