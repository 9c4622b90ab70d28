// Package embeddings computes speech vectors through Docker Model Runner's
// OpenAI-compatible embeddings endpoint.
package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"unicode/utf8"

	"github.com/mfenderov/plenar/internal/render"
	"github.com/mfenderov/plenar/pkg/models"
)

// DefaultEndpoint is the Model Runner embeddings route on the Docker socket.
const DefaultEndpoint = "http://localhost/exp/vDD4.40/engines/llama.cpp/v1/embeddings"

// Config holds embeddings client configuration.
type Config struct {
	SocketPath string // Unix socket path for Docker Model Runner
	Model      string // Model name (e.g., "ai/embeddinggemma")
	Endpoint   string // defaults to DefaultEndpoint
}

// Client wraps the Docker Model Runner embeddings API.
type Client struct {
	httpClient *http.Client
	model      string
	endpoint   string
}

// New creates a new embeddings client.
func New(config Config) (*Client, error) {
	if config.SocketPath == "" {
		return nil, fmt.Errorf("socket path is required")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}

	var dialer net.Dialer
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.DialContext(ctx, "unix", config.SocketPath)
		},
	}

	return &Client{
		httpClient: &http.Client{Transport: transport},
		model:      config.Model,
		endpoint:   config.Endpoint,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// MaxInputChars limits input to stay within the model context window.
const MaxInputChars = 20000

// Truncate cuts text to at most max bytes without splitting a UTF-8 sequence.
func Truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// SpeechInput is the text embedded for a speech: the speaker line followed by
// the speech text.
func SpeechInput(doc models.SpeechDocument) string {
	return render.SpeakerLine(models.Speaker{
		Forename: doc.Forename,
		Surname:  doc.Surname,
		Party:    doc.Party,
	}) + ":\n" + doc.Text
}

// Embed generates an embedding vector for the given text.
// Text exceeding MaxInputChars is truncated from the end.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	originalLen := len(text)
	text = Truncate(text, MaxInputChars)
	slog.Debug("generating embedding", "original_len", originalLen, "truncated_len", len(text))

	body, err := json.Marshal(embeddingRequest{Model: c.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(respBody, &embResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if embResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", embResp.Error.Message)
	}

	if len(embResp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	return embResp.Data[0].Embedding, nil
}

// EmbedSpeech sets doc.Embedding from the speaker line and speech text.
func (c *Client) EmbedSpeech(ctx context.Context, doc *models.SpeechDocument) error {
	embedding, err := c.Embed(ctx, SpeechInput(*doc))
	if err != nil {
		return fmt.Errorf("speech %s: %w", doc.SpeechID, err)
	}
	doc.Embedding = embedding
	return nil
}

// Dimensions returns the expected embedding dimensions for common models.
func Dimensions(model string) int {
	switch model {
	case "ai/embeddinggemma":
		return 768
	case "ai/snowflake-arctic-embed":
		return 1024
	case "ai/qwen3-embedding":
		return 2560
	default:
		return 768
	}
}
