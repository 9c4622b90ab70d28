package embeddings

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mfenderov/plenar/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveUnix runs handler on a fresh Unix socket and returns its path.
func serveUnix(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "test.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err, "failed to create Unix socket")

	server := &http.Server{Handler: handler}
	go server.Serve(listener)
	t.Cleanup(func() {
		server.Close()
		listener.Close()
	})
	return socketPath
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "empty socket path",
			config:  Config{SocketPath: "", Model: "test-model"},
			wantErr: true,
		},
		{
			name:    "empty model",
			config:  Config{SocketPath: "/tmp/test.sock", Model: ""},
			wantErr: true,
		},
		{
			name:    "valid config",
			config:  Config{SocketPath: "/tmp/test.sock", Model: "test-model"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDimensions(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"ai/embeddinggemma", 768},
		{"ai/snowflake-arctic-embed", 1024},
		{"ai/qwen3-embedding", 2560},
		{"unknown-model", 768}, // default
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, Dimensions(tt.model))
		})
	}
}

func TestEmbed_Success(t *testing.T) {
	mockEmbedding := []float32{0.1, 0.2, 0.3, 0.4, 0.5}
	mockResponse := embeddingResponse{
		Data: []struct {
			Embedding []float32 `json:"embedding"`
		}{
			{Embedding: mockEmbedding},
		},
	}

	socketPath := serveUnix(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mockResponse)
	})

	client, err := New(Config{SocketPath: socketPath, Model: "test-model"})
	require.NoError(t, err)

	embedding, err := client.Embed(context.Background(), "test text")
	require.NoError(t, err)
	assert.Equal(t, mockEmbedding, embedding)
}

func TestEmbed_ServerError(t *testing.T) {
	socketPath := serveUnix(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal error"))
	})

	client, err := New(Config{SocketPath: socketPath, Model: "test-model"})
	require.NoError(t, err)

	_, err = client.Embed(context.Background(), "test text")
	assert.Error(t, err)
}

func TestEmbed_EmptyResponse(t *testing.T) {
	socketPath := serveUnix(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[]}`))
	})

	client, err := New(Config{SocketPath: socketPath, Model: "test-model"})
	require.NoError(t, err)

	_, err = client.Embed(context.Background(), "test text")
	assert.Error(t, err)
}

// Skip integration test if DMR is not available
func TestEmbed_Integration(t *testing.T) {
	socketPath := os.Getenv("DOCKER_SOCKET")
	if socketPath == "" {
		socketPath = os.ExpandEnv("$HOME/.docker/run/docker.sock")
	}

	if _, err := os.Stat(socketPath); os.IsNotExist(err) {
		t.Skip("Docker socket not available, skipping integration test")
	}

	client, err := New(Config{SocketPath: socketPath, Model: "ai/embeddinggemma"})
	require.NoError(t, err)

	embedding, err := client.Embed(context.Background(), "Hello, this is a test")
	if err != nil {
		t.Skipf("DMR not available or model not pulled: %v", err)
	}

	// embeddinggemma returns 768 dimensions
	assert.Len(t, embedding, 768)
}

func TestTruncate_KeepsRunesIntact(t *testing.T) {
	text := strings.Repeat("ä", 10) // 20 bytes
	got := Truncate(text, 7)

	require.True(t, utf8.ValidString(got), "invalid UTF-8: %q", got)
	assert.Equal(t, "äää", got)
	assert.Equal(t, "kurz", Truncate("kurz", 10))
}

func TestSpeechInput(t *testing.T) {
	party := "SPD"
	got := SpeechInput(models.SpeechDocument{Forename: "Karl", Surname: "Beispiel", Party: &party, Text: "Die Rente ist sicher."})
	assert.Equal(t, "Karl Beispiel (SPD):\nDie Rente ist sicher.", got)
}

func TestEmbedSpeech(t *testing.T) {
	inputs := make(chan string, 1)
	socketPath := serveUnix(t, func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		json.NewDecoder(r.Body).Decode(&req)
		inputs <- req.Input
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"embedding":[1,2]}]}`))
	})

	client, err := New(Config{SocketPath: socketPath, Model: "test-model"})
	require.NoError(t, err)

	doc := models.SpeechDocument{SpeechID: "ID1", Forename: "Anna", Surname: "Muster", Text: "Guten Tag."}
	require.NoError(t, client.EmbedSpeech(context.Background(), &doc))

	assert.Len(t, doc.Embedding, 2)
	assert.Equal(t, "Anna Muster:\nGuten Tag.", <-inputs)
}
