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

	"github.com/spf13/cobra"

	"github.com/lazypower/companion/internal/logging"
	"github.com/lazypower/companion/internal/memory"
)

var recallCmd = &cobra.Command{
	Use:   "recall",
	Short: "Start the recall service (semantic memory store)",
	Long: "Serve POST /remember and POST /recall. Uses an Ollama embedding model when one " +
		"is reachable and falls back to TF-IDF vectors otherwise.",
	RunE: runRecall,
}

func runRecall(cmd *cobra.Command, args []string) error {
	cfg, logger, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()
	logger = logging.For(logger, "recall")

	var embedder memory.Embedder
	probeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if memory.ProbeOllama(probeCtx, cfg.Recall.OllamaURL, cfg.Recall.EmbeddingModel) {
		embedder = memory.NewOllamaEmbedder(cfg.Recall.OllamaURL, cfg.Recall.EmbeddingModel)
		logger.Info("embedder: ollama", "model", cfg.Recall.EmbeddingModel)
	} else {
		logger.Info("embedder: tfidf (fallback)")
	}
	cancel()

	svc := memory.NewService(db, embedder, logger)
	addr := cfg.RecallListenAddr()
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           svc.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		logger.Info("recall serving", "addr", addr, "db", db.Path)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-done:
	case err := <-errc:
		return fmt.Errorf("recall server: %w", err)
	}

	ctx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	return httpServer.Shutdown(ctx)
}
