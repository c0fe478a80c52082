package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/songmasher/api/internal/analysis"
	"github.com/songmasher/api/internal/config"
	"github.com/songmasher/api/internal/handler"
	"github.com/songmasher/api/internal/middleware"
	"github.com/songmasher/api/internal/mix"
	"github.com/songmasher/api/internal/model"
	"github.com/songmasher/api/internal/planning"
	"github.com/songmasher/api/internal/render"
	"github.com/songmasher/api/internal/separation"
	"github.com/songmasher/api/internal/service"
	"github.com/songmasher/api/internal/storage"
	"github.com/songmasher/api/internal/transform"
	"github.com/songmasher/api/internal/worker"
	ws "github.com/songmasher/api/internal/websocket"
	"github.com/songmasher/api/pkg/logger"
	"github.com/songmasher/api/pkg/response"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	zlog := logger.Must(strings.EqualFold(cfg.Server.Env, "development"))
	defer zlog.Sync()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		zlog.Warn("redis not available", zap.Error(err))
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	store, err := storage.New(&cfg.Storage)
	if err != nil {
		zlog.Fatal("initializing storage", zap.Error(err))
	}
	separator := separation.NewClient(&cfg.Separation)

	validate := validator.New()
	hub := ws.NewHub(zlog)
	go hub.Run()

	// Pipeline components.
	analyzer := analysis.NewAnalyzer(analysis.Config{
		MinDurationSeconds:    cfg.Audio.MinDurationSeconds,
		ChorusEnergyThreshold: cfg.Audio.ChorusEnergyThreshold,
	}, zlog)
	planner := planning.NewPlanner(zlog)
	engine := transform.NewEngine(zlog)
	mixer := mix.NewMixer(zlog)
	masterer := mix.NewMasterer(mix.MasterConfig{
		TargetLUFS: cfg.Audio.TargetLUFS,
		HeadroomDB: cfg.Audio.HeadroomDB,
	}, zlog)

	// Services.
	mixDefaults := model.DefaultMixParameters()
	switch curve := model.CrossfadeCurve(cfg.Audio.CrossfadeCurve); curve {
	case model.CurveEqualPower, model.CurveLinear:
		mixDefaults.CrossfadeCurve = curve
	}

	jobs := service.NewJobStore(redisClient)
	analysisService := service.NewAnalysisService(analyzer, store, zlog)
	planService := service.NewPlanService(planner, zlog)
	renderService := service.NewRenderService(jobs, asynqClient, store, hub, mixDefaults, zlog)

	orchestrator := render.NewOrchestrator(
		store, separator, engine, mixer, masterer,
		renderService, 10*time.Minute, zlog,
	)

	// Handlers.
	analysisHandler := handler.NewAnalysisHandler(analysisService)
	planHandler := handler.NewPlanHandler(planService, validate)
	renderHandler := handler.NewRenderHandler(renderService, validate)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    100 * 1024 * 1024, // 100MB uploads
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		sepOK := separator.HealthCheck(c.Context()) == nil
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"redis":      redisClient.Ping(c.Context()).Err() == nil,
				"separation": sepOK,
			},
		})
	})

	api := app.Group("/api", authMiddleware.Authenticate())
	api.Post("/analyze", rateLimiter.AnalyzeLimit(cfg.RateLimit.AnalyzePerHour), analysisHandler.Analyze)
	api.Post("/plan", rateLimiter.PlanLimit(cfg.RateLimit.PlanPerMin), planHandler.Plan)

	renderGroup := api.Group("/render")
	renderGroup.Post("/", rateLimiter.RenderLimit(cfg.RateLimit.RenderPerHour), renderHandler.Start)
	renderGroup.Get("/:jobId", renderHandler.Progress)
	renderGroup.Post("/:jobId/cancel", renderHandler.Cancel)
	renderGroup.Get("/:jobId/download", renderHandler.Download)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/jobs/:jobId", websocket.New(func(c *websocket.Conn) {
		hub.HandleConnection(c, c.Params("jobId"))
	}))

	go startWorkerServer(cfg, orchestrator, zlog)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		zlog.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			zlog.Error("shutdown error", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Server.Port
	zlog.Info("server starting", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		zlog.Fatal("server error", zap.Error(err))
	}
}

func startWorkerServer(cfg *config.Config, orchestrator *render.Orchestrator, zlog *zap.Logger) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"render": 10,
			},
		},
	)

	renderWorker := worker.NewRenderWorker(orchestrator, zlog)
	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeRender, renderWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		zlog.Error("asynq worker error", zap.Error(err))
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	if code == fiber.StatusNotFound {
		return response.NotFound(c, "Resource not found")
	}
	return response.Error(c, code, response.CodeServiceError, err.Error(), nil)
}
