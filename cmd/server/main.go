package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/id"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/logger"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/otel"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/core/config"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/app"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/http/handler"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/http/middleware"
	httprouter "github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/http/router"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/queue"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "supplier risk api starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	infra, err := app.Connect(ctx, cfg, true)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect infrastructure", "error", err)
		os.Exit(1)
	}
	defer infra.Close()

	if err := infra.DB.Migrate(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to apply migrations", "error", err)
		os.Exit(1)
	}

	evaluator, err := app.NewPipeline(ctx, cfg, infra)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build evaluation pipeline", "error", err)
		os.Exit(1)
	}

	producer := queue.NewRedisProducer(infra.Redis, cfg.Queue.RedisStream, slog.Default())
	defer producer.Close()

	if cfg.APIKey == "" {
		slog.WarnContext(ctx, "API_KEY not set, evaluation endpoints are unauthenticated")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	evaluations := handler.NewEvaluationHandler(evaluator, producer, infra.Stores().Evaluations(), cfg.Queue.TraceHeaderName)
	router := setupRouter(cfg, evaluations)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, evaluations *handler.EvaluationHandler) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, evaluations, httprouter.RouterConfig{
		APIKey: cfg.APIKey,
	})

	return router
}

const banner = `
 ___ _   _ ___ ___ _    ___ ___ ___   ___ ___ ___ _  __    _   ___ ___
/ __| | | | _ \ _ \ |  |_ _| __| _ \ | _ \_ _/ __| |/ /   /_\ | _ \_ _|
\__ \ |_| |  _/  _/ |__ | || _||   / |   /| |\__ \ ' <   / _ \|  _/| |
|___/\___/|_| |_| |____|___|___|_|_\ |_|_\___|___/_|\_\ /_/ \_\_| |___|
`
