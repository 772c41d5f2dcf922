// humidord is the import-core daemon: it serves the catalog-import pipeline
// over HTTP and offers a database health probe for deploy checks.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/humidorhq/humidor-tracker/internal/common"
	"github.com/humidorhq/humidor-tracker/internal/llm/openai"
	"github.com/humidorhq/humidor-tracker/internal/match"
	"github.com/humidorhq/humidor-tracker/internal/ocr"
	"github.com/humidorhq/humidor-tracker/internal/pipeline"
	"github.com/humidorhq/humidor-tracker/internal/quota"
	"github.com/humidorhq/humidor-tracker/internal/reconcile"
	"github.com/humidorhq/humidor-tracker/internal/repository"
	"github.com/humidorhq/humidor-tracker/internal/server"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "humidord",
		Short:         "Catalog-import service for the humidor tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), dbHealthCmd())
	return root
}

func loadConfig() (*common.Config, error) {
	// .env is optional; real deployments set env vars directly
	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	return logger
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP import service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := repository.Open(ctx, repository.Config(cfg.Database), logger)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer repository.Close(pool, logger)

			users := repository.NewUserRepository(pool, logger)
			usage := repository.NewUsageRepository(pool, logger)
			catalog := repository.NewCatalogRepository(pool, logger)
			collection := repository.NewCollectionRepository(pool, logger)
			tx := repository.NewTxRunner(pool, logger)

			ledger := quota.NewLedger(users, usage, logger)
			engine := ocr.NewEngine(ocr.Config{
				Tesseract:   cfg.OCR.Tesseract,
				TessdataDir: cfg.OCR.TessdataDir,
				Language:    cfg.OCR.Language,
				PSM:         6,
				OEM:         1,
			}, logger)
			extractor := openai.NewClient(openai.Config{
				APIKey:      cfg.LLM.APIKey,
				BaseURL:     cfg.LLM.BaseURL,
				TextModel:   cfg.LLM.TextModel,
				VisionModel: cfg.LLM.VisionModel,
				Temperature: cfg.LLM.Temperature,
				Timeout:     cfg.LLM.Timeout,
			}, logger)

			processor := pipeline.NewProcessor(ledger, engine, extractor, usage, logger)
			matcher := match.NewMatcher(catalog, logger)
			reconciler := reconcile.NewReconciler(tx, catalog, collection, nil, logger)

			health := func(ctx context.Context) error {
				return repository.HealthCheck(ctx, pool, 2*time.Second, logger)
			}
			srv := server.NewServer(cfg.Server.HTTPAddr, processor, matcher, reconciler, ledger, health, logger)

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case err := <-errCh:
				return err
			case sig := <-stop:
				logger.Info("shutdown signal received", "signal", sig.String())
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
}

func dbHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dbhealth",
		Short: "Ping the configured database and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			pool, err := repository.Open(cmd.Context(), repository.Config(cfg.Database), logger)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer repository.Close(pool, logger)

			if err := repository.HealthCheck(cmd.Context(), pool, 5*time.Second, logger); err != nil {
				return fmt.Errorf("database health check: %w", err)
			}
			logger.Info("database healthy")
			return nil
		},
	}
}
