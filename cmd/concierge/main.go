// Concierge server — answers hotel FAQ questions over a retrieval-grounded
// pipeline and serves the HTTP chat API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/seoulstay/concierge/pkg/api"
	"github.com/seoulstay/concierge/pkg/chatlog"
	"github.com/seoulstay/concierge/pkg/config"
	"github.com/seoulstay/concierge/pkg/grounding"
	"github.com/seoulstay/concierge/pkg/llm"
	"github.com/seoulstay/concierge/pkg/pipeline"
	"github.com/seoulstay/concierge/pkg/rerank"
	"github.com/seoulstay/concierge/pkg/session"
	"github.com/seoulstay/concierge/pkg/vector"
	"github.com/seoulstay/concierge/pkg/verify"
	"github.com/seoulstay/concierge/pkg/version"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "concierge.yaml", "Path to configuration file")
	envPath := flag.String("env", ".env", "Path to .env file")
	flag.Parse()

	// Load .env first so config.Load sees its variables.
	if err := godotenv.Load(*envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", *envPath, "error", err)
	}

	setupLogging()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting concierge",
		"version", version.Full(),
		"http_port", cfg.HTTPPort,
		"data_dir", cfg.DataDir)

	ctx := context.Background()

	// 1. Static knowledge tables
	known, err := config.LoadKnownNames(cfg.DataDir)
	if err != nil {
		slog.Error("Failed to load known names", "error", err)
		os.Exit(1)
	}
	forbidden, err := config.LoadForbiddenPatterns(cfg.DataDir)
	if err != nil {
		slog.Error("Failed to load forbidden patterns", "error", err)
		os.Exit(1)
	}

	// 2. LLM client
	llmClient := llm.NewClient(cfg.LLM)
	slog.Info("LLM client initialized", "groq", cfg.LLM.UseGroq)

	// 3. Vector index
	embedder := vector.NewOllamaEmbedder(cfg.Vector)
	index, err := vector.OpenSqvect(cfg.Vector, embedder)
	if err != nil {
		slog.Error("Failed to open vector index", "path", cfg.Vector.Path, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := index.Close(); err != nil {
			slog.Error("Error closing vector index", "error", err)
		}
	}()
	slog.Info("Vector index opened", "path", cfg.Vector.Path)

	// 4. Reranker, verifier, sessions, audit log
	reranker := rerank.New(rerank.NewHTTPScorer(cfg.Rerank), cfg.Rerank)
	verifier := verify.New(known, forbidden, grounding.NewGate(cfg.GroundingThreshold))

	sessions := session.NewStore(cfg.Session)
	sessions.Start(ctx)

	chatLogger, err := chatlog.New(cfg.LogDir)
	if err != nil {
		// A nil logger appends nothing; answering beats auditing.
		slog.Warn("Chat logging disabled", "dir", cfg.LogDir, "error", err)
		chatLogger = nil
	}

	// 5. Pipeline and HTTP server
	pipe := pipeline.New(cfg, llmClient, index, reranker, verifier, sessions, chatLogger)

	server := api.NewServer(cfg, pipe, sessions)
	if !cfg.LLM.UseGroq {
		server.AddHealthCheck("llm", httpPing(cfg.LLM.OllamaURL+"/api/tags"))
	}
	server.AddHealthCheck("reranker", httpPing(cfg.Rerank.ScorerURL+"/health"))
	server.AddHealthCheck("vector_index", func(context.Context) error {
		_, err := os.Stat(cfg.Vector.Path)
		return err
	})

	// 6. Start HTTP server (non-blocking)
	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.HTTPPort
		slog.Info("HTTP server listening", "addr", addr)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	// 7. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 8. Graceful shutdown: drain HTTP, then stop the session janitor. The
	// vector index closes via the deferred handle.
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown incomplete", "error", err)
	}
	sessions.Stop()

	slog.Info("Concierge stopped")
}

// setupLogging honors LOG_LEVEL (debug, info, warn, error) on the default
// slog logger.
func setupLogging() {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// httpPing probes url with a GET and reports non-2xx as an error.
func httpPing(url string) api.HealthPinger {
	client := &http.Client{Timeout: 2 * time.Second}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return nil
	}
}
