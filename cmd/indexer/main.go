package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/bootstrap"
	"github.com/kyuwatanabe/hybrid-rag-system/internal/config"
	"github.com/kyuwatanabe/hybrid-rag-system/internal/observability/logging"
)

// The indexer runs the bulk build: chunk and embed every reference
// document, fold in the approved curated records, persist the index,
// and exit.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger := logging.NewJSONLogger("indexer", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "indexer", logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	start := time.Now()
	logger.Info("build_started", "docs_dir", cfg.DocsDir)
	if err := app.Builder.BuildFromDocuments(ctx, cfg.DocsDir); err != nil {
		logger.Error("build_failed", "error", err)
		os.Exit(1)
	}
	logger.Info("documents_indexed", "units", app.Index.Count(), "elapsed", time.Since(start).String())

	records, err := app.RecordStore.ListApproved(ctx)
	if err != nil {
		logger.Error("list_approved_records_failed", "error", err)
		os.Exit(1)
	}
	if err := app.Mutator.Rebuild(ctx, records); err != nil {
		logger.Error("record_rebuild_failed", "error", err)
		os.Exit(1)
	}

	logger.Info("build_finished",
		"units", app.Index.Count(),
		"records", len(records),
		"elapsed", time.Since(start).String(),
	)
}
