package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/id"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/logger"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/otel"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/core/config"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/app"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/pipeline"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/queue"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "supplier risk worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Queue.RedisGroup,
		"consumer_name", cfg.Queue.RedisConsumer)

	// Replicas share a stream, so the node ID is derived from the consumer name.
	if err := id.Init(id.NodeFromName(cfg.Queue.RedisConsumer)); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	infra, err := app.Connect(ctx, cfg, true)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect infrastructure", "error", err)
		os.Exit(1)
	}
	defer infra.Close()

	evaluations := infra.Stores().Evaluations()

	evaluator, err := app.NewPipeline(ctx, cfg, infra,
		pipeline.WithObserver(worker.NewProgressRecorder(evaluations)))
	if err != nil {
		slog.ErrorContext(ctx, "failed to build evaluation pipeline", "error", err)
		os.Exit(1)
	}

	consumer, err := queue.NewRedisConsumer(infra.Redis, queue.ConsumerConfig{
		Stream:       cfg.Queue.RedisStream,
		Group:        cfg.Queue.RedisGroup,
		Consumer:     cfg.Queue.RedisConsumer,
		DLQStream:    cfg.Queue.RedisDLQStream,
		BatchSize:    1, // one evaluation at a time
		Block:        5 * time.Second,
		MaxAttempts:  cfg.Queue.MaxAttempts,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	w := worker.New(consumer, evaluator, evaluations, worker.Config{
		MaxAttempts: cfg.Queue.MaxAttempts,
	})

	reclaimer := worker.NewReclaimer(consumer, w, worker.ReclaimerConfig{
		Consumer:      cfg.Queue.RedisConsumer + "-reclaimer",
		MinIdle:       10 * time.Minute,
		Interval:      1 * time.Minute,
		BatchSize:     10,
		MaxDeliveries: int64(cfg.Queue.MaxAttempts),
	})

	errCh := make(chan error, 2)
	go func() {
		errCh <- w.Run(ctx)
	}()
	go func() {
		reclaimer.Run(ctx)
		errCh <- nil
	}()

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	// Stop reclaimer first (quick)
	reclaimer.Stop()

	// Stop worker (may be mid-evaluation)
	w.Stop()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
 ___ _   _ ___ ___ _    ___ ___ ___   ___ ___ ___ _  __ __      _____  ___ _  _____ ___
/ __| | | | _ \ _ \ |  |_ _| __| _ \ | _ \_ _/ __| |/ / \ \    / / _ \| _ \ |/ / __| _ \
\__ \ |_| |  _/  _/ |__ | || _||   / |   /| |\__ \ ' <   \ \/\/ / (_) |   / ' <| _||   /
|___/\___/|_| |_| |____|___|___|_|_\ |_|_\___|___/_|\_\   \_/\_/ \___/|_|_\_|\_\___|_|_\
`
