package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rundberg/ansuz/internal/embed"
	"github.com/rundberg/ansuz/internal/graph"
	"github.com/rundberg/ansuz/internal/index"
	"github.com/rundberg/ansuz/internal/mcpserver"
	"github.com/rundberg/ansuz/internal/noteservice"
	"github.com/rundberg/ansuz/internal/search"
	"github.com/rundberg/ansuz/internal/storage"
)

// RunMCP serves the MCP tools over stdio. Stdout belongs to the protocol,
// so logging is discarded rather than risked on the wire.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	svc := noteservice.NewService(store, db, graph.NewStore())
	if err := svc.SyncVault(logger); err != nil {
		return fmt.Errorf("vault sync: %w", err)
	}
	if err := svc.RebuildGraph(); err != nil {
		return fmt.Errorf("rebuild graph: %w", err)
	}

	// Semantic search is only exposed when a key is configured; the other
	// tools stay usable offline.
	var engine *search.Engine
	provider := app.provider
	if provider == nil && cfg.Embedding.APIKey != "" {
		provider = embed.NewOpenAIProvider(embed.Config{
			BaseURL:      cfg.Embedding.BaseURL,
			APIKey:       cfg.Embedding.APIKey,
			Model:        cfg.Embedding.Model,
			ModelVersion: cfg.Embedding.ModelVersion,
			Timeout:      time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second,
		})
	}
	if provider != nil {
		engine = search.NewEngine(db, provider, logger, time.Duration(cfg.Embedding.TimeoutSeconds)*time.Second)
	}

	return mcpserver.New(svc, engine).ServeStdio()
}
