package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/mfenderov/plenar/internal/config"
	"github.com/mfenderov/plenar/internal/discovery"
	"github.com/mfenderov/plenar/internal/elasticsearch"
	"github.com/mfenderov/plenar/internal/embeddings"
	"github.com/mfenderov/plenar/internal/storage"
)

// selectPeriods returns the configured periods, restricted to ids when given.
func selectPeriods(cfg *config.Config, ids []string) ([]discovery.Period, error) {
	var periods []discovery.Period
	for _, p := range cfg.Portal.Periods {
		if len(ids) > 0 && !slices.Contains(ids, p.ID) {
			continue
		}
		periods = append(periods, discovery.Period{ID: p.ID, Container: p.Container})
	}
	if len(periods) == 0 {
		if len(ids) > 0 {
			return nil, fmt.Errorf("periods %v not found in config", ids)
		}
		return nil, fmt.Errorf("no periods configured")
	}
	return periods, nil
}

func newCrawler(cfg *config.Config) (*discovery.Crawler, error) {
	return discovery.New(discovery.Config{
		BaseURL:      cfg.Portal.BaseURL,
		LinkSelector: cfg.Portal.LinkSelector,
		NextSelector: cfg.Portal.NextSelector,
		SettleDelay:  cfg.Portal.SettleDelay,
		NextTimeout:  cfg.Portal.NextTimeout,
		MaxPages:     cfg.Portal.MaxPages,
		Headless:     cfg.Portal.Headless,
		UserAgent:    cfg.Portal.UserAgent,
	})
}

// newMirror returns the MinIO mirror, or nil when no endpoint is configured.
func newMirror(ctx context.Context, cfg *config.Config) (*storage.Client, error) {
	if cfg.Storage.Endpoint == "" {
		return nil, nil
	}
	client, err := storage.New(storage.Config{
		Endpoint:        cfg.Storage.Endpoint,
		Bucket:          cfg.Storage.Bucket,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		UseSSL:          cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	if err := client.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket: %w", err)
	}
	return client, nil
}

func newESClient(cfg *config.Config) (*elasticsearch.Client, error) {
	esClient, err := elasticsearch.New(elasticsearch.Config{
		Addresses: cfg.Elasticsearch.Addresses,
		Index:     cfg.Elasticsearch.Index,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
		Dims:      embeddings.Dimensions(cfg.Embeddings.Model),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ES client: %w", err)
	}
	return esClient, nil
}

// newEmbedClient returns the embeddings client, or nil when disabled.
func newEmbedClient(cfg *config.Config) (*embeddings.Client, error) {
	if !cfg.Embeddings.Enabled {
		return nil, nil
	}
	embedClient, err := embeddings.New(embeddings.Config{
		SocketPath: cfg.Embeddings.SocketPath,
		Model:      cfg.Embeddings.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings client: %w", err)
	}
	slog.Info("embeddings enabled", "model", cfg.Embeddings.Model)
	return embedClient, nil
}
