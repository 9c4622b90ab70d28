package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/mfenderov/plenar/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	cfg     config.Config
)

// GetConfig returns the loaded configuration.
func GetConfig() config.Config {
	return cfg
}

var rootCmd = &cobra.Command{
	Use:   "plenar",
	Short: "plenar: harvest and search parliamentary plenary protocols",
	Long: `plenar discovers plenary protocols on the Bundestag open-data portal,
downloads and sanitizes the XML, extracts one debate per sitting with every
speech and its speaker, and optionally indexes the speeches for search.

Commands:
  harvest   Discover, download, extract and store all configured periods
  discover  List the protocol links of the configured periods
  extract   Re-extract debates from stored protocols
  ingest    Index stored debates into Elasticsearch
  search    Search indexed speeches
  serve     Start the MCP server for speech retrieval`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogger() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func initConfig() {
	cfg = config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/plenar")
		viper.AddConfigPath(".")
	}

	// PLENAR_OUTPUT_DATA_ROOT -> output.data_root
	viper.SetEnvPrefix("PLENAR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Nested keys are only seen by Unmarshal when bound explicitly.
	viper.BindEnv("portal.base_url", "PLENAR_PORTAL_BASE_URL")
	viper.BindEnv("portal.settle_delay", "PLENAR_PORTAL_SETTLE_DELAY")
	viper.BindEnv("portal.next_timeout", "PLENAR_PORTAL_NEXT_TIMEOUT")
	viper.BindEnv("portal.headless", "PLENAR_PORTAL_HEADLESS")
	viper.BindEnv("fetcher.parallelism", "PLENAR_FETCHER_PARALLELISM")
	viper.BindEnv("fetcher.timeout", "PLENAR_FETCHER_TIMEOUT")
	viper.BindEnv("output.data_root", "PLENAR_OUTPUT_DATA_ROOT")
	viper.BindEnv("output.markdown", "PLENAR_OUTPUT_MARKDOWN")
	viper.BindEnv("storage.endpoint", "PLENAR_STORAGE_ENDPOINT")
	viper.BindEnv("storage.bucket", "PLENAR_STORAGE_BUCKET")
	viper.BindEnv("storage.access_key_id", "PLENAR_STORAGE_ACCESS_KEY_ID")
	viper.BindEnv("storage.secret_access_key", "PLENAR_STORAGE_SECRET_ACCESS_KEY")
	viper.BindEnv("elasticsearch.addresses", "PLENAR_ELASTICSEARCH_ADDRESSES")
	viper.BindEnv("elasticsearch.index", "PLENAR_ELASTICSEARCH_INDEX")
	viper.BindEnv("elasticsearch.username", "PLENAR_ELASTICSEARCH_USERNAME")
	viper.BindEnv("elasticsearch.password", "PLENAR_ELASTICSEARCH_PASSWORD")
	viper.BindEnv("embeddings.enabled", "PLENAR_EMBEDDINGS_ENABLED")
	viper.BindEnv("embeddings.socket_path", "PLENAR_EMBEDDINGS_SOCKET_PATH")
	viper.BindEnv("embeddings.model", "PLENAR_EMBEDDINGS_MODEL")
	viper.BindEnv("mcp.name", "PLENAR_MCP_NAME")
	viper.BindEnv("mcp.version", "PLENAR_MCP_VERSION")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("config file error", "error", err)
		}
		// No config file - use defaults + env vars
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Warn("failed to parse config", "error", err)
	}

	// Addresses may arrive as a comma-separated string from env.
	if addrs := os.Getenv("PLENAR_ELASTICSEARCH_ADDRESSES"); addrs != "" {
		cfg.Elasticsearch.Addresses = strings.Split(addrs, ",")
	}
}
