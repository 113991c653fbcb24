package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/moviemind/moviemind/internal/config"
	"github.com/moviemind/moviemind/internal/db/postgres"
	dbRedis "github.com/moviemind/moviemind/internal/db/redis"
	logpkg "github.com/moviemind/moviemind/internal/logger"
	"github.com/moviemind/moviemind/internal/metrics"
	budgetrepo "github.com/moviemind/moviemind/internal/repository/budget"
	catalogrepo "github.com/moviemind/moviemind/internal/repository/catalog"
	"github.com/moviemind/moviemind/internal/repository/intro"
	chiTransport "github.com/moviemind/moviemind/internal/transport/chi"
	openaiLLM "github.com/moviemind/moviemind/internal/transport/openai"
	"github.com/moviemind/moviemind/internal/usecase/budget"
	cataloguc "github.com/moviemind/moviemind/internal/usecase/catalog"
	healthuc "github.com/moviemind/moviemind/internal/usecase/health"
	"github.com/moviemind/moviemind/internal/usecase/nlsearch"
	usageuc "github.com/moviemind/moviemind/internal/usecase/usage"
	"github.com/moviemind/moviemind/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting moviemind API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("llm_model", cfg.LLM.Model),
		zap.Bool("redis_enabled", cfg.Redis.Enabled()),
	)

	metrics.RegisterLLMMetrics()
	metrics.RegisterSearchMetrics()

	ctx := context.Background()
	queryTimeout := time.Duration(cfg.Database.QueryTimeoutSec) * time.Second

	pg, err := postgres.New(ctx, postgres.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		StatementTimeout: queryTimeout,
	})
	if err != nil {
		logger.Fatal("Failed to connect to catalog database", zap.Error(err))
	}
	defer pg.Close()

	if err := pg.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Catalog database not ready", zap.Error(err))
	}
	logger.Info("Connected to catalog database")

	// Redis only persists budget counters; without it the tracker is in-memory.
	var kv *dbRedis.Store
	if cfg.Redis.Enabled() {
		kv, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Redis.Addrs,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		defer kv.Close()

		if err := kv.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
	}

	var tracker *budget.Tracker
	budgetCfg := cfg.LLM.Budget
	if budgetCfg.DailyTokenLimit > 0 || budgetCfg.MonthlyTokenLimit > 0 {
		tracker = budget.NewTracker(cfg.LLM.Model, budget.Limits{
			Daily:   budgetCfg.DailyTokenLimit,
			Monthly: budgetCfg.MonthlyTokenLimit,
		}, budget.ParseAction(budgetCfg.Action), logger)
		if kv != nil {
			tracker.WithStore(ctx, budgetrepo.New(kv))
		}
	}

	completer := openaiLLM.NewCompleter(&openaiLLM.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		Breaker: openaiLLM.BreakerConfig{
			FailureThreshold: cfg.LLM.Breaker.FailureThreshold,
			OpenTimeout:      time.Duration(cfg.LLM.Breaker.OpenTimeoutSec) * time.Second,
			Interval:         time.Duration(cfg.LLM.Breaker.IntervalSec) * time.Second,
			MaxHalfOpen:      cfg.LLM.Breaker.MaxHalfOpen,
		},
		Logger: logger,
	})
	gate := nlsearch.NewGate(cfg.LLM.APIKey, cfg.LLM.BaseURL)

	// Pass nil interfaces (not typed nil pointers) when the budget is not configured.
	var budgetReader usageuc.BudgetReader
	if tracker != nil {
		completer.WithBudget(tracker)
		gate.WithBudget(tracker)
		budgetReader = tracker
	}
	if !gate.Configured() {
		logger.Warn("Language model not configured, AI search will use keyword search")
	}

	introCache := intro.New(cfg.Catalog.IntroFile, logger)
	catalogRepo := catalogrepo.New(pg).WithStatementTimeout(queryTimeout)

	catalogSvc := cataloguc.New(catalogRepo, introCache).
		WithPageSizes(cfg.Catalog.DefaultPageSize, cfg.Catalog.MaxPageSize)
	searchSvc := nlsearch.New(gate, completer, catalogRepo, catalogRepo)
	usageSvc := usageuc.New(budgetReader)

	var cachePinger healthuc.Pinger
	if kv != nil {
		cachePinger = kv
	}
	var modelChecker healthuc.ModelChecker
	if gate.Configured() {
		modelChecker = completer
	}
	healthSvc := healthuc.New(pg, cachePinger, modelChecker)

	server := chiTransport.NewServer(catalogSvc, searchSvc, usageSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	if !cfg.RateLimit.Disabled {
		window := time.Duration(cfg.RateLimit.WindowSec) * time.Second
		r.Use(httprate.Limit(cfg.RateLimit.Requests, window,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(rateLimited),
		))
		r.Use(aiSearchLimit(cfg.RateLimit.AISearchRequests, window))
	}
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware("/metrics", "/health"))
	chiTransport.HandlerWithOptions(server, chiTransport.ChiServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: chiTransport.ParamErrorHandler,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// aiSearchLimit applies a stricter per-IP limit to POST /api/ai-search, which costs model tokens.
func aiSearchLimit(requests int, window time.Duration) func(next http.Handler) http.Handler {
	limiter := httprate.NewRateLimiter(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rateLimited),
	)
	return func(next http.Handler) http.Handler {
		limited := limiter.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost && r.URL.Path == "/api/ai-search" {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateLimited(w http.ResponseWriter, _ *http.Request) {
	writeEnvelopeError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
}

func writeEnvelopeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					writeEnvelopeError(w, http.StatusInternalServerError, "internal_error", "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
