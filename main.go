// main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"retentionloop/internal/archive"
	"retentionloop/internal/auth"
	"retentionloop/internal/config"
	"retentionloop/internal/configstore"
	"retentionloop/internal/eventbus"
	"retentionloop/internal/experiments"
	"retentionloop/internal/feedback"
	"retentionloop/internal/httpapi"
	"retentionloop/internal/jobs"
	"retentionloop/internal/metricsrecorder"
	"retentionloop/internal/observability"
	"retentionloop/internal/prompt"
	"retentionloop/internal/ratelimit"
	"retentionloop/internal/security"
	"retentionloop/internal/suggestions"
)

// main wires every store, service, and the HTTP surface, handing a single
// Dependencies bundle to httpapi.NewEcho (whose routes.go composes the
// registerXEndpoints calls), plus process lifecycle: signal-aware shutdown,
// background loops, and graceful echo shutdown.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	observability.InitLogger(cfg.LogPath, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.InitOTel(ctx, cfg.Obs)
	if err != nil {
		log.Fatal().Err(err).Msg("init otel")
	}
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownOTel(shutCtx)
	}()

	var pool *pgxpool.Pool
	if cfg.Database.DSN != "" {
		pool, err = pgxpool.New(ctx, cfg.Database.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("connect postgres")
		}
		defer pool.Close()
	}

	authStore := auth.NewStore(pool, 24*7)
	if pool != nil {
		if err := authStore.InitSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("init auth schema")
		}
	}

	var oidc *auth.OIDC
	if cfg.OIDC.Issuer != "" {
		oidc, err = auth.NewOIDC(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID, cfg.OIDC.ClientSecret, cfg.OIDC.RedirectURL, authStore, cfg.OIDC.CookieName, 300, cfg.Obs.Environment == "production")
		if err != nil {
			log.Fatal().Err(err).Msg("init oidc")
		}
	}

	configBackend, err := configstore.New(ctx, configstore.BackendConfig{Backend: cfg.Backends.ConfigStore, DSN: cfg.Database.DSN}, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("init config store")
	}

	jobsRepo, err := jobs.New(jobs.BackendConfig{Backend: cfg.Backends.Jobs}, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("init jobs repository")
	}

	configs := configstore.NewService(configBackend, jobsRepo)
	if _, err := configs.EnsureDefault(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure default config version")
	}

	experimentsBackend, err := experiments.New(ctx, experiments.BackendConfig{Backend: cfg.Backends.Experiments}, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("init experiments store")
	}

	metricsBackend, err := metricsrecorder.New(ctx, metricsrecorder.BackendConfig{Backend: cfg.Backends.Metrics}, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("init metrics store")
	}
	metricStore := metricsrecorder.NewDegradingStore(metricsBackend)

	feedbackStore, err := feedback.New(ctx, feedback.BackendConfig{Backend: cfg.Backends.Feedback}, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("init feedback store")
	}

	securityStore, err := security.New(ctx, security.BackendConfig{Backend: cfg.Backends.Security}, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("init security store")
	}
	securityRecorder := security.NewRecorder(securityStore)

	archiveStore, err := archive.New(ctx, archive.BackendConfig{
		Backend: cfg.Archive.Backend,
		Dir:     cfg.Archive.Dir,
		S3: archive.S3Config{
			Bucket:       cfg.Archive.S3.Bucket,
			Region:       cfg.Archive.S3.Region,
			Prefix:       cfg.Archive.S3.Prefix,
			Endpoint:     cfg.Archive.S3.Endpoint,
			AccessKey:    cfg.Archive.S3.AccessKey,
			SecretKey:    cfg.Archive.S3.SecretKey,
			UsePathStyle: cfg.Archive.S3.UsePathStyle,
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init archive store")
	}
	archiver := archive.NewArchiver(archiveStore)

	bus, err := eventbus.New(cfg.Kafka.Brokers)
	if err != nil {
		log.Fatal().Err(err).Msg("init event bus")
	}

	limiter := ratelimit.New(ctx, ratelimit.Config{
		RequestsPerSecond: float64(cfg.RateLimit.RequestsPerSecond),
		BurstSize:         cfg.RateLimit.BurstSize,
		RedisAddr:         cfg.RateLimit.RedisAddr,
	})

	versionResolver := configstore.VersionResolver{Service: configs}
	paramsResolver := configstore.ParamsResolver{Service: configs}

	allocator := experiments.NewAllocator(experimentsBackend, versionResolver, metricStore, versionResolver)
	recorder := metricsrecorder.NewRecorder(metricStore, paramsResolver)
	suggestionsEngine := suggestions.NewEngine(metricStore, paramsResolver)
	feedbackEngine := feedback.NewEngine(feedbackStore, jobsRepo, metricStore, configs)
	promptTranslator := prompt.NewTranslator(suggestionsEngine, prompt.FallbackOptions{Limit: 200})

	deps := &httpapi.Dependencies{
		Configs:     configs,
		Experiments: allocator,
		Metrics:     recorder,
		MetricStore: metricStore,
		Suggestions: suggestionsEngine,
		Feedback:    feedbackEngine,
		Prompt:      promptTranslator,
		Jobs:        jobsRepo,

		AuthStore: authStore,
		OIDC:      oidc,
		Security:  securityRecorder,
		Limiter:   limiter,
		Bus:       bus,
		Archiver:  archiver,

		Owners:            cfg.Operator.Owners,
		DevPasswordHeader: cfg.Operator.DevPasswordHeader,
		DevPassword:       cfg.Operator.DevPassword,
		SessionCookieName: cfg.OIDC.CookieName,
	}

	e := httpapi.NewEcho(deps)

	go pollCompletedRenders(ctx, jobsRepo, recorder, bus)
	go triggerFeedbackLoop(ctx, cfg, feedbackEngine)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("serve http")
		}
	}()
	log.Info().Str("addr", addr).Msg("retentionloop listening")

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// pollCompletedRenders is "new job -> pipeline renders -> C6 records"'s
// concrete trigger: the render pipeline owns the jobs table and never calls
// into this service directly, so this loop polls RecentCompleted, records a
// metric for any job it hasn't seen yet, and publishes render.completed so
// C8's triggerFeedbackLoop below can react without sharing process memory.
func pollCompletedRenders(ctx context.Context, jobsRepo jobs.Repository, recorder *metricsrecorder.Recorder, bus *eventbus.Bus) {
	seen := make(map[string]struct{}, 256)
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		completed, err := jobsRepo.RecentCompleted(ctx, 100)
		if err != nil {
			log.Error().Err(err).Msg("poll completed renders")
			continue
		}
		for _, job := range completed {
			if _, ok := seen[job.ID]; ok {
				continue
			}
			seen[job.ID] = struct{}{}

			metric, err := recorder.Record(ctx, job)
			if err != nil {
				log.Error().Err(err).Str("job_id", job.ID).Msg("record metric for completed render")
				continue
			}
			_ = bus.PublishRenderCompleted(ctx, eventbus.RenderCompleted{
				JobID:           job.ID,
				ConfigVersionID: metric.ConfigVersionID,
				ScoreTotal:      metric.ScoreTotal,
				RecordedAt:      metric.CreatedAt,
			})
		}
	}
}

// triggerFeedbackLoop runs C8 on the render-completed topic when Kafka is
// configured, falling back to a ticker so the feedback loop still runs
// periodically in a single-process deployment with no broker.
func triggerFeedbackLoop(ctx context.Context, cfg config.Config, engine *feedback.Engine) {
	consumer, err := eventbus.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroupID, cfg.Kafka.RenderCompletedTopic)
	if err != nil {
		log.Error().Err(err).Msg("init feedback-loop consumer")
		return
	}
	if consumer == nil {
		runFeedbackTicker(ctx, engine)
		return
	}
	defer consumer.Close()

	for {
		if _, err := consumer.Next(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Msg("consume render-completed event")
			continue
		}
		if _, err := engine.Run(ctx, "render_completed", false); err != nil {
			log.Error().Err(err).Msg("run feedback loop")
		}
	}
}

func runFeedbackTicker(ctx context.Context, engine *feedback.Engine) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if _, err := engine.Run(ctx, "ticker", false); err != nil {
			log.Error().Err(err).Msg("run feedback loop")
		}
	}
}
