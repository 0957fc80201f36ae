package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mover-brief/internal/bot"
	"mover-brief/internal/brief"
	"mover-brief/internal/cache"
	"mover-brief/internal/config"
	"mover-brief/internal/db"
	"mover-brief/internal/evaluation"
	"mover-brief/internal/handler"
	"mover-brief/internal/history"
	"mover-brief/internal/job"
	"mover-brief/internal/provider"
	"mover-brief/internal/repository"
	"mover-brief/internal/service"
	"mover-brief/internal/weights"
	"mover-brief/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "mover-brief/docs"
)

var (
	loadEnvFunc          = godotenv.Load
	loadConfigFunc       = config.Load
	initPostgresFunc     = db.InitPostgres
	initRedisFunc        = cache.InitRedis
	initTracerFunc       = tracing.InitTracer
	newHistoryStoreFunc  = history.NewStore
	newStooqProviderFunc = func(tracer trace.Tracer) service.OutcomeProvider {
		return provider.NewStooqProvider(tracer)
	}
	newDailyServiceFunc    = service.NewDailyService
	startEvalJobFunc       = func(j *job.EvaluationJob, ctx context.Context) { go j.Start(ctx) }
	startPollerFunc        = func(p *job.OutcomePoller, ctx context.Context) { go p.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Mover Brief API
// @version         1.0
// @description     Daily prediction evaluation and weight optimization service.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Evaluation history lives on disk; corrupt artifacts are quarantined
	// inside NewStore, so an error here is a hard misconfiguration.
	historyStore, err := newHistoryStoreFunc(cfg.HistoryDir, cfg.HistoryWindow)
	if err != nil {
		log.Fatalf("failed to open history store: %v", err)
	}

	evaluator := evaluation.NewService(tracer, historyStore, evaluation.Config{
		MoveThresholdPct: cfg.MoveThresholdPct,
		LearningRate:     cfg.LearningRate,
	})

	// Postgres-backed repositories; nil pool disables persistence
	var snapshotRepo service.SnapshotStore
	var outcomeRepo service.OutcomeStore
	var briefRepo service.BriefStore
	if db.Pool != nil {
		snapshotRepo = repository.NewSnapshotRepository(db.Pool, tracer)
		outcomeRepo = repository.NewOutcomeRepository(db.Pool, tracer)
		briefRepo = repository.NewBriefRepository(db.Pool, tracer)
	}

	weightStore := weights.NewStore(cache.Client, tracer)

	var generator service.BriefGenerator
	if cfg.OpenAIAPIKey != "" {
		generator = brief.NewGenerator(tracer, brief.NewOpenAIClient(cfg.OpenAIAPIKey), cfg.OpenAIModel)
	}

	stooq := newStooqProviderFunc(tracer)

	daily := newDailyServiceFunc(
		tracer, stooq, snapshotRepo, outcomeRepo, weightStore,
		evaluator, generator, briefRepo, nil, cache.Client,
		service.DailyConfig{
			Universe:         cfg.Tickers,
			MoveThresholdPct: cfg.MoveThresholdPct,
		},
	)

	// Start Telegram bot; its notifier feeds brief pushes back into the service
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	if notifier := startTelegramBotFunc(daily); notifier != nil {
		daily.SetNotifier(notifier)
	}

	// Background jobs (stopped by ctx cancel)
	evalJob := job.NewEvaluationJob(tracer, daily, cfg.EvalHourUTC)
	startEvalJobFunc(evalJob, ctx)

	poller := job.NewOutcomePoller(tracer, daily, cfg.PricePollSecs)
	startPollerFunc(poller, ctx)

	// Create handlers and routes
	h := newHandlerFunc(tracer, daily, historyStore, cfg.APIKey)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("mover-brief"))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
