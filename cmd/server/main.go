package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/mockview-backend/internal/config"
	"github.com/stemsi/mockview-backend/internal/database"
	"github.com/stemsi/mockview-backend/internal/evaluator"
	"github.com/stemsi/mockview-backend/internal/handler"
	"github.com/stemsi/mockview-backend/internal/lock"
	"github.com/stemsi/mockview-backend/internal/logger"
	"github.com/stemsi/mockview-backend/internal/metrics"
	"github.com/stemsi/mockview-backend/internal/questionbank"
	"github.com/stemsi/mockview-backend/internal/report"
	"github.com/stemsi/mockview-backend/internal/repository"
	"github.com/stemsi/mockview-backend/internal/router"
	"github.com/stemsi/mockview-backend/internal/service"
	"github.com/stemsi/mockview-backend/internal/validator"
	"github.com/stemsi/mockview-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, "mockview")
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("ai_provider", cfg.AIProvider).
		Dur("ai_budget", cfg.AIBudget()).
		Dur("session_lock_ttl", cfg.SessionLockTTL).
		Msg("Starting MockView Backend")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Question Bank ─────────────────────────────────────────────────
	bank, err := loadBank(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.QuestionBankPath).Msg("Failed to load question bank")
	}
	validator.Setup(bank.CategoryNames())

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	sessionRepo := repository.NewInterviewSessionRepository(pool)
	attemptRepo := repository.NewEvaluationAttemptRepository(pool)

	// ─── AI Judge ──────────────────────────────────────────────────────
	gen := newGenerator(ctx, cfg, log)
	recorders := evaluator.Recorders{
		metrics.AttemptRecorder{},
		worker.NewQueueRecorder(rdb, log),
	}
	judge := evaluator.NewAIEvaluator(gen, evaluator.AIOptions{
		PrimaryModel:   cfg.AIPrimaryModel,
		FallbackModels: cfg.AIFallbackModels,
		RetryBackoff:   cfg.AIRetryBackoff,
		Timeout:        cfg.AITimeout,
	}, recorders, log)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, userRepo, service.NewRedisTokenStore(rdb))
	interviewService := service.NewInterviewSessionService(
		sessionRepo,
		questionbank.NewSelector(bank, rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
		report.NewAggregator(judge, log),
		lock.NewRedisLocker(rdb, cfg.SessionLockTTL, log),
		cfg.SessionLockTTL,
		log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	health := handler.NewHealthHandler(log,
		handler.Dependency{Name: "postgres", Ping: pool.Ping},
		handler.Dependency{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	)
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(authService, log),
		Interview: handler.NewInterviewHandler(interviewService, log),
		Health:    health,
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	attemptWorker := worker.NewEvaluationAttemptWorker(attemptRepo, rdb, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		attemptWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// WriteTimeout must cover a final answer: the lock wait plus the AI chain.
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout(),
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting requests; in-flight finalizations get the full request budget.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the audit worker and wait for its final flush.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

func loadBank(cfg *config.Config) (*questionbank.Bank, error) {
	if cfg.QuestionBankPath == "" {
		return questionbank.Default()
	}
	return questionbank.Load(cfg.QuestionBankPath)
}

// newGenerator returns nil when no API key is configured, which makes every
// report fall back to local evaluation.
func newGenerator(ctx context.Context, cfg *config.Config, log zerolog.Logger) evaluator.Generator {
	key := cfg.AIAPIKey()
	if key == "" {
		log.Warn().Str("provider", cfg.AIProvider).Msg("No AI API key configured, reports use local evaluation only")
		return nil
	}

	switch cfg.AIProvider {
	case config.AIProviderOpenAI:
		gen, err := evaluator.NewOpenAIGenerator(key, cfg.AIBaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create OpenAI client")
		}
		return gen
	default:
		gen, err := evaluator.NewGeminiGenerator(ctx, key, cfg.AIBaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Gemini client")
		}
		return gen
	}
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
