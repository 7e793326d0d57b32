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
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/aabdoo23/Protomatic/common/id"
	"github.com/aabdoo23/Protomatic/common/logger"
	"github.com/aabdoo23/Protomatic/common/otel"
	"github.com/aabdoo23/Protomatic/core/config"
	"github.com/aabdoo23/Protomatic/core/db"
	"github.com/aabdoo23/Protomatic/internal/archive"
	"github.com/aabdoo23/Protomatic/internal/capability"
	"github.com/aabdoo23/Protomatic/internal/events"
	"github.com/aabdoo23/Protomatic/internal/http/handler"
	"github.com/aabdoo23/Protomatic/internal/http/middleware"
	httprouter "github.com/aabdoo23/Protomatic/internal/http/router"
	"github.com/aabdoo23/Protomatic/internal/model"
	"github.com/aabdoo23/Protomatic/internal/pipeline"
	"github.com/aabdoo23/Protomatic/internal/planner"
	"github.com/aabdoo23/Protomatic/internal/session"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet — OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "protomatic starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	var hooks []pipeline.TransitionHook

	if cfg.DB.Enabled() {
		database, err := db.New(ctx, cfg.DB)
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer database.Close()
		slog.InfoContext(ctx, "database connected")

		jobArchive := archive.New(database, slog.Default())
		hooks = append(hooks, func(ctx context.Context, job *model.Job) {
			if !job.Status.Terminal() {
				return
			}
			if err := jobArchive.Record(ctx, job); err != nil {
				slog.WarnContext(ctx, "failed to archive job", "job_id", job.ID, "error", err)
			}
		})
	} else {
		slog.InfoContext(ctx, "job archive disabled (no database configured)")
	}

	if cfg.Redis.Enabled() {
		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
			os.Exit(1)
		}

		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "redis connected", "stream", cfg.Redis.StatusStream)

		publisher := events.NewRedisPublisher(redisClient, cfg.Redis.StatusStream, slog.Default())
		defer publisher.Close()
		hooks = append(hooks, func(ctx context.Context, job *model.Job) {
			if err := publisher.PublishStatus(ctx, job); err != nil {
				slog.WarnContext(ctx, "failed to publish job status", "job_id", job.ID, "error", err)
			}
		})
	} else {
		slog.InfoContext(ctx, "status events disabled (no redis configured)")
	}

	store := pipeline.NewStore(hooks...)
	registry := capability.NewRegistry(cfg.Tools)
	executor := pipeline.NewExecutor(store, registry)

	runner := pipeline.NewRunner(store, executor, cfg.Executor)
	defer runner.Close()

	memory := session.NewMemory()

	var controller *pipeline.Controller
	if cfg.Planner.Enabled() {
		plan, err := planner.New(cfg.Planner)
		if err != nil {
			slog.ErrorContext(ctx, "failed to create planner", "error", err)
			os.Exit(1)
		}
		controller = pipeline.NewController(plan, store, memory)
		slog.InfoContext(ctx, "planner enabled", "model", cfg.Planner.Model)
	} else {
		slog.WarnContext(ctx, "planner disabled (no api key configured), chat endpoint unavailable")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, controller, runner, store)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
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

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
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

func setupRouter(cfg config.Config, controller *pipeline.Controller, runner *pipeline.Runner, store *pipeline.Store) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	var chat handler.ChatService
	if controller != nil {
		chat = controller
	}
	pipelineHandler := handler.NewPipelineHandler(chat, runner, store)
	httprouter.SetupRoutes(router, pipelineHandler)

	return router
}

const banner = `
██████╗ ██████╗  ██████╗ ████████╗ ██████╗ ███╗   ███╗ █████╗ ████████╗██╗ ██████╗
██╔══██╗██╔══██╗██╔═══██╗╚══██╔══╝██╔═══██╗████╗ ████║██╔══██╗╚══██╔══╝██║██╔════╝
██████╔╝██████╔╝██║   ██║   ██║   ██║   ██║██╔████╔██║███████║   ██║   ██║██║
██╔═══╝ ██╔══██╗██║   ██║   ██║   ██║   ██║██║╚██╔╝██║██╔══██║   ██║   ██║██║
██║     ██║  ██║╚██████╔╝   ██║   ╚██████╔╝██║ ╚═╝ ██║██║  ██║   ██║   ██║╚██████╗
╚═╝     ╚═╝  ╚═╝ ╚═════╝    ╚═╝    ╚═════╝ ╚═╝     ╚═╝╚═╝  ╚═╝   ╚═╝   ╚═╝ ╚═════╝
`
