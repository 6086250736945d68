package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tributolabs/fiscalis/internal/ai"
	"github.com/tributolabs/fiscalis/internal/api"
	"github.com/tributolabs/fiscalis/internal/audit"
	"github.com/tributolabs/fiscalis/internal/auth"
	"github.com/tributolabs/fiscalis/internal/config"
	"github.com/tributolabs/fiscalis/internal/querylog"
	"github.com/tributolabs/fiscalis/internal/store"
	"github.com/tributolabs/fiscalis/internal/types"
	"github.com/tributolabs/fiscalis/internal/worker"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "fiscalis",
	Short: "Fiscalis - fiscal data exploration API",
	RunE:  run,
}

func run(cmd *cobra.Command, args []string) error {
	// Local development keeps secrets in a .env file; absence is fine.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(newLogHandler(cfg.Log))
	slog.SetDefault(logger)
	slog.Info("configuration loaded", "environment", cfg.Environment)

	backend, err := newBackend(cfg.Database)
	if err != nil {
		return err
	}
	ds := store.NewDocumentStore(backend)
	slog.Info("store initialized", "driver", cfg.Database.Driver, "path", cfg.Database.Path)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenExpiration))
	authSvc := auth.NewService(auth.NewUserRepository(ds), tokens)
	if err := authSvc.Seed(ctx, seedUsers(cfg)); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	queries := querylog.NewService(querylog.NewRepository(ds))
	recorder := audit.NewRecorder(queries)
	gateway := ai.NewGateway(newProvider(cfg.AI))

	metrics := api.NewMetrics()
	handler := api.NewHandler(authSvc, tokens, queries, recorder, gateway, metrics, cfg.Environment, Version)
	router := api.NewRouter(handler)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	var wg sync.WaitGroup
	if cfg.Worker.BackupEnabled {
		backup := worker.NewBackupWorker(ds, cfg.Worker.BackupDir,
			time.Duration(cfg.Worker.BackupInterval), cfg.Worker.BackupKeep)
		startWorker(ctx, &wg, "backup", backup.Run)
	}

	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is the expected error when Shutdown() is called
		// gracefully. Anything else is a real failure.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	wg.Wait()

	if err := ds.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// newBackend builds the configured store backend.
func newBackend(cfg config.DatabaseConfig) (store.Backend, error) {
	switch cfg.Driver {
	case "sqlite":
		return store.NewSQLiteBackend(cfg.Path)
	default:
		return store.NewFileBackend(cfg.Path), nil
	}
}

// newProvider picks the generative provider from the configured keys,
// Gemini first. With no key at all the gateway serves fallback answers.
func newProvider(cfg config.AIConfig) ai.Provider {
	if cfg.GeminiAPIKey != "" {
		slog.Info("ai provider configured", "provider", "gemini", "model", cfg.GeminiModel)
		return ai.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	if cfg.OpenAIAPIKey != "" {
		slog.Info("ai provider configured", "provider", "openai", "model", cfg.OpenAIModel)
		return ai.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	slog.Warn("no ai provider configured, all analyses will use the fallback answer")
	return nil
}

func seedUsers(cfg *config.Config) []auth.SeedUser {
	var out []auth.SeedUser
	for _, account := range cfg.SeedAccounts() {
		out = append(out, auth.SeedUser{
			Email:    account.Email,
			Name:     account.Name,
			Role:     types.Role(account.Role),
			Password: account.Password,
		})
	}
	return out
}

func newLogHandler(cfg config.LogConfig) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.NewJSONHandler(os.Stdout, opts)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startWorker launches a background worker goroutine that respects context
// cancellation. Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
