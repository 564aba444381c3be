// Command server starts the meeting summarizer HTTP server.
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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/meeting-summarizer/internal/adapter/ai/openai"
	aistub "github.com/fairyhunter13/meeting-summarizer/internal/adapter/ai/stub"
	httpserver "github.com/fairyhunter13/meeting-summarizer/internal/adapter/httpserver"
	smtpmail "github.com/fairyhunter13/meeting-summarizer/internal/adapter/mail/smtp"
	"github.com/fairyhunter13/meeting-summarizer/internal/adapter/observability"
	"github.com/fairyhunter13/meeting-summarizer/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/meeting-summarizer/internal/app"
	"github.com/fairyhunter13/meeting-summarizer/internal/cache"
	"github.com/fairyhunter13/meeting-summarizer/internal/config"
	"github.com/fairyhunter13/meeting-summarizer/internal/domain"
	"github.com/fairyhunter13/meeting-summarizer/internal/ratelimit"
	"github.com/fairyhunter13/meeting-summarizer/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
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

	// Shared stores: Redis when configured, in-process memory otherwise.
	var rdb *redis.Client
	var cacheStore cache.Store = cache.NewMemoryStore()
	var rateStore ratelimit.Store = ratelimit.NewMemoryStore()
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", slog.Any("error", err))
			os.Exit(1)
		}
		rdb = redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("redis connect failed", slog.Any("error", err))
			os.Exit(1)
		}
		cacheStore = cache.NewRedisStore(rdb)
		rateStore = ratelimit.NewRedisStore(rdb)
		slog.Info("redis stores enabled")
	}

	respCache := cache.New(cacheStore,
		func() { observability.CacheHitsTotal.Inc() },
		func() { observability.CacheMissesTotal.Inc() },
	)

	limiter := ratelimit.New(rateStore, app.Policies(cfg), func(routeID string) {
		observability.RateLimitDeniedTotal.WithLabelValues(routeID).Inc()
	})

	// Optional summary history.
	var pool *pgxpool.Pool
	var history domain.SummaryRepository
	if cfg.DBURL != "" {
		pool, err = postgres.NewPool(ctx, cfg.DBURL)
		if err != nil {
			slog.Error("db connect failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		history = postgres.NewSummaryRepo(pool)
		slog.Info("summary history enabled")
	}

	prompts, err := config.LoadPromptConfig(cfg.PromptConfigPath)
	if err != nil {
		slog.Error("prompt config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	aiStats := observability.NewCallStats("ai_chat")
	emailStats := observability.NewCallStats("email_send")

	var aiClient domain.AIClient
	if cfg.AIUseStub {
		aiClient = aistub.New()
		slog.Info("AI stub client enabled")
	} else {
		aiClient = openai.New(cfg, prompts, aiStats)
	}

	var mailer domain.Mailer
	if cfg.SMTPHost != "" {
		m, err := smtpmail.New(cfg, emailStats)
		if err != nil {
			slog.Error("smtp mailer init failed", slog.Any("error", err))
			os.Exit(1)
		}
		mailer = m
	} else {
		slog.Warn("SMTP not configured; email delivery disabled")
	}

	summarizeSvc := usecase.NewSummarizeService(aiClient, respCache, history, cfg.SummaryCacheTTL, cfg.TranscriptMinChars, cfg.TranscriptMaxChars)
	emailSvc := usecase.NewEmailService(mailer)

	dbCheck, redisCheck := app.BuildReadinessChecks(pool, rdb)
	srv := httpserver.NewServer(cfg, summarizeSvc, emailSvc, respCache, dbCheck, redisCheck)
	handler := app.BuildRouter(cfg, srv, limiter, aiStats, emailStats)

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
}
