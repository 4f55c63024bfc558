// Command server starts the AI interview screening HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/talentloop/ai-interviewer/internal/adapter/ai/gemini"
	httpserver "github.com/talentloop/ai-interviewer/internal/adapter/httpserver"
	"github.com/talentloop/ai-interviewer/internal/adapter/observability"
	"github.com/talentloop/ai-interviewer/internal/adapter/repo/postgres"
	"github.com/talentloop/ai-interviewer/internal/adapter/storage/localfs"
	"github.com/talentloop/ai-interviewer/internal/adapter/textextractor/pdfx"
	"github.com/talentloop/ai-interviewer/internal/adapter/voice/elevenlabs"
	"github.com/talentloop/ai-interviewer/internal/app"
	"github.com/talentloop/ai-interviewer/internal/config"
	"github.com/talentloop/ai-interviewer/internal/service/tasks"
	"github.com/talentloop/ai-interviewer/internal/usecase"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	jobRepo := postgres.NewJobRepo(pool)
	candRepo := postgres.NewCandidateRepo(pool)
	ivRepo := postgres.NewInterviewRepo(pool)

	files, err := localfs.New(cfg.UploadDir)
	if err != nil {
		slog.Error("upload dir init failed", slog.Any("error", err))
		os.Exit(1)
	}

	evaluator, err := gemini.New(ctx, cfg)
	if err != nil {
		slog.Error("gemini client init failed", slog.Any("error", err))
		os.Exit(1)
	}
	provider := elevenlabs.New(cfg)
	extractor := pdfx.New()

	// Detached push-path evaluations run here; they drain on shutdown.
	runner := tasks.NewRunner(cfg.EvalTaskTimeout)

	completionSvc := usecase.NewCompletionService(ivRepo, candRepo, jobRepo, provider, evaluator, runner)
	promptSvc := usecase.NewPromptService(ivRepo, candRepo, jobRepo, evaluator)
	uploadSvc := usecase.NewUploadService(candRepo, jobRepo, extractor, files)
	jobSvc := usecase.NewJobService(jobRepo)

	dbCheck := func(ctx context.Context) error { return pool.Ping(ctx) }
	srv := httpserver.NewServer(cfg, completionSvc, promptSvc, uploadSvc, jobSvc, candRepo, files, dbCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)

	// In-flight evaluations finish before the process exits.
	if err := runner.Drain(shutdownCtx); err != nil {
		slog.Warn("background tasks did not drain in time", slog.Any("error", err))
	}
}
