package config

import (
	"slices"
	"time"

	"github.com/mfenderov/plenar/internal/extract"
	"github.com/mfenderov/plenar/internal/sanitize"
)

// Config holds all application configuration.
type Config struct {
	Portal        Portal        `mapstructure:"portal"`
	Fetcher       Fetcher       `mapstructure:"fetcher"`
	Output        Output        `mapstructure:"output"`
	Extraction    Extraction    `mapstructure:"extraction"`
	Storage       Storage       `mapstructure:"storage"`
	Elasticsearch Elasticsearch `mapstructure:"elasticsearch"`
	Embeddings    Embeddings    `mapstructure:"embeddings"`
	MCP           MCP           `mapstructure:"mcp"`
}

// Portal describes the open-data page and its carousel widget.
type Portal struct {
	BaseURL      string        `mapstructure:"base_url"`
	LinkSelector string        `mapstructure:"link_selector"`
	NextSelector string        `mapstructure:"next_selector"`
	SettleDelay  time.Duration `mapstructure:"settle_delay"`
	NextTimeout  time.Duration `mapstructure:"next_timeout"`
	MaxPages     int           `mapstructure:"max_pages"`
	Headless     bool          `mapstructure:"headless"`
	UserAgent    string        `mapstructure:"user_agent"`
	Periods      []Period      `mapstructure:"periods"`
}

// Period maps a legislative period to the container listing its protocols.
type Period struct {
	ID        string `mapstructure:"id"`
	Container string `mapstructure:"container"`
}

// Fetcher holds document download configuration.
type Fetcher struct {
	Parallelism int           `mapstructure:"parallelism"`
	Delay       time.Duration `mapstructure:"delay"`
	Timeout     time.Duration `mapstructure:"timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
	MaxBodySize int           `mapstructure:"max_body_size"`
}

// Output holds local persistence configuration.
type Output struct {
	DataRoot string `mapstructure:"data_root"`
	Markdown bool   `mapstructure:"markdown"`
}

// Extraction holds the structural queries and the declarations stripped
// before parsing.
type Extraction struct {
	Queries      extract.Queries `mapstructure:"queries"`
	Declarations []string        `mapstructure:"declarations"`
}

// Storage holds S3/MinIO mirror configuration. An empty endpoint disables
// the mirror.
type Storage struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// Elasticsearch holds ES connection configuration.
type Elasticsearch struct {
	Addresses []string `mapstructure:"addresses"`
	Index     string   `mapstructure:"index"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

// Embeddings holds embeddings generation configuration.
type Embeddings struct {
	Enabled    bool   `mapstructure:"enabled"`
	SocketPath string `mapstructure:"socket_path"`
	Model      string `mapstructure:"model"`
}

// MCP holds MCP server configuration.
type MCP struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// Defaults returns a Config for the Bundestag open-data portal.
func Defaults() Config {
	return Config{
		Portal: Portal{
			BaseURL:      "https://www.bundestag.de/services/opendata",
			LinkSelector: "a.bt-link-dokument",
			NextSelector: ".slick-next.slick-arrow",
			SettleDelay:  750 * time.Millisecond,
			NextTimeout:  10 * time.Second,
			MaxPages:     500,
			Headless:     true,
			Periods: []Period{
				{ID: "pp20", Container: "#bt-collapse-866354"},
				{ID: "pp19", Container: "#bt-collapse-543410"},
			},
		},
		Fetcher: Fetcher{
			Parallelism: 8,
			Timeout:     60 * time.Second,
			UserAgent:   "plenar/1.0",
			MaxBodySize: 64 << 20,
		},
		Output: Output{
			DataRoot: "data",
		},
		Extraction: Extraction{
			Queries:      extract.DefaultQueries(),
			Declarations: slices.Clone(sanitize.DefaultDeclarations),
		},
		Storage: Storage{
			Endpoint:        "", // Mirror disabled unless configured
			Bucket:          "plenar",
			AccessKeyID:     "minioadmin",
			SecretAccessKey: "minioadmin",
			UseSSL:          false,
		},
		Elasticsearch: Elasticsearch{
			Addresses: []string{"http://localhost:9200"},
			Index:     "plenar-speeches",
		},
		Embeddings: Embeddings{
			Enabled:    false, // Disabled by default, requires DMR setup
			SocketPath: "",    // User must provide their Docker socket path
			Model:      "ai/embeddinggemma",
		},
		MCP: MCP{
			Name:    "plenar",
			Version: "1.0.0",
		},
	}
}
