package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/lazypower/companion/internal/config"
	"github.com/lazypower/companion/internal/engine"
	"github.com/lazypower/companion/internal/llm"
	"github.com/lazypower/companion/internal/logging"
	"github.com/lazypower/companion/internal/recall"
	"github.com/lazypower/companion/internal/server"
	"github.com/lazypower/companion/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

// newEngine wires the model client and the recall service into an engine.
// The caller must Close it.
func newEngine(cfg config.Config, db *store.DB, logger *log.Logger) (*engine.Engine, error) {
	client, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}

	rc := recall.NewClient(cfg.Recall.URL, cfg.Recall.Timeout)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if !rc.Healthy(ctx) {
		logger.Warn("recall service unreachable, memories will be empty until it is up", "url", cfg.Recall.URL)
	}

	return engine.New(db, client, engine.Options{
		Recall:     rc,
		RecallTopK: cfg.Recall.TopK,
		Worker:     cfg.Worker,
		Logger:     logger,
	}), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	eng, err := newEngine(cfg, db, logger)
	if err != nil {
		return err
	}
	logger.Info("llm configured", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)

	srv := server.New(db, eng, VersionString(), logging.For(logger, "http"), cfg.Server.AllowedOrigins)
	addr := cfg.ListenAddr()
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		logger.Info("companion serving", "addr", addr, "db", db.Path)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-done:
	case err := <-errc:
		eng.Close()
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdownErr := httpServer.Shutdown(ctx)

	// Let queued insight extraction finish before the store closes.
	eng.Close()
	return shutdownErr
}
