package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/revoicehq/revoice/internal/api"
	"github.com/revoicehq/revoice/internal/audit"
	"github.com/revoicehq/revoice/internal/config"
	"github.com/revoicehq/revoice/internal/domain/sessions"
	"github.com/revoicehq/revoice/internal/engine"
	"github.com/revoicehq/revoice/internal/middleware"
	"github.com/revoicehq/revoice/internal/orchestrator"
	"github.com/revoicehq/revoice/internal/speech"
	"github.com/revoicehq/revoice/pkg/logger"
)

func main() {
	logInstance, err := logger.Init(logger.Config{
		Level:       os.Getenv("LOG_LEVEL"),
		Environment: os.Getenv("ENV"),
		WithSource:  !strings.EqualFold(os.Getenv("ENV"), "production"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	appLogger := logInstance.With("component", "web-server")

	cfg, err := config.LoadConfig()
	if err != nil {
		appLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		appLogger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	appLogger.Info("configuration loaded", "env", cfg.Server.Env, "port", cfg.Server.Port, "provider", cfg.Speech.Provider)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := os.MkdirAll(cfg.Data.AudioDir, 0o755); err != nil {
		appLogger.Error("cannot create audio dir", "path", cfg.Data.AudioDir, "error", err)
		os.Exit(1)
	}

	// ffmpeg toolchain
	runner := &engine.ExecRunner{DefaultTimeout: time.Duration(cfg.Media.TimeoutSeconds) * time.Second}
	tools := engine.NewToolchain(cfg.Media.FFmpegPath, runner)
	if err := tools.Check(); err != nil {
		appLogger.Error("ffmpeg not usable", "path", cfg.Media.FFmpegPath, "error", err)
		os.Exit(1)
	}
	splicer := engine.NewSplicer(tools, cfg.Data.ScratchDir, cfg.Media.MaxConcurrent)
	appLogger.Info("media toolchain ready", "ffmpeg", cfg.Media.FFmpegPath, "max_concurrent", cfg.Media.MaxConcurrent)

	provider, err := buildProvider(cfg)
	if err != nil {
		appLogger.Error("speech provider init failed", "error", err)
		os.Exit(1)
	}
	appLogger.Info("speech provider ready", "provider", provider.Name())

	auditLogger := audit.NewLogger(cfg.Data.AuditLogPath)

	orch := orchestrator.New(
		orchestrator.Config{
			AudioDir:       cfg.Data.AudioDir,
			MeasuredTiming: cfg.Edit.MeasuredTiming,
			SynthRetries:   cfg.Edit.SynthRetries,
		},
		provider,
		splicer,
		sessions.NewRegistry(),
		auditLogger,
		logInstance.With("component", "orchestrator"),
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	r.GET("/healthz", api.HandleHealth(orch, tools))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/api/v1/sessions", api.HandleCreateSession(orch, cfg.Data.AudioDir))
	r.GET("/api/v1/sessions", api.HandleListSessions(orch))
	r.GET("/api/v1/sessions/:id", api.HandleGetSession(orch))
	r.DELETE("/api/v1/sessions/:id", api.HandleDeleteSession(orch))
	r.GET("/api/v1/sessions/:id/transcript", api.HandleGetTranscript(orch))
	r.GET("/api/v1/sessions/:id/audio", api.HandleGetAudio(orch))
	r.POST("/api/v1/sessions/:id/edits", api.HandleCreateEdit(orch, time.Duration(cfg.Edit.TimeoutSeconds)*time.Second))
	r.POST("/api/v1/sessions/:id/undo", api.HandleUndo(orch))

	srv := &http.Server{
		Addr:              cfg.GetServerAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("server starting", "addr", srv.Addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	appLogger.Info("shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	appLogger.Info("server shutdown complete")
}

// buildProvider wires the configured speech backend.
func buildProvider(cfg *config.Config) (speech.Provider, error) {
	switch cfg.Speech.Provider {
	case "elevenlabs":
		p := speech.NewElevenLabs(cfg.Speech.ElevenLabsAPIKey, "")
		if cfg.Speech.Settings.Stability > 0 {
			p.Stability = cfg.Speech.Settings.Stability
		}
		if cfg.Speech.Settings.SimilarityBoost > 0 {
			p.SimilarityBoost = cfg.Speech.Settings.SimilarityBoost
		}
		return p, nil
	case "openai":
		return speech.NewOpenAI(cfg.Speech.OpenAIAPIKey, cfg.Speech.OpenAIBaseURL), nil
	case "mock":
		return speech.NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown speech provider %q", cfg.Speech.Provider)
	}
}
