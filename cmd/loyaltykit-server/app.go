package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	jsonfileAdapter "loyaltykit/adapters/jsonfile"
	mem "loyaltykit/adapters/memory"
	redisAdapter "loyaltykit/adapters/redis"
	sqlxAdapter "loyaltykit/adapters/sqlx"
	"loyaltykit/analytics"
	"loyaltykit/api/httpapi"
	"loyaltykit/config"
	"loyaltykit/core"
	"loyaltykit/engine"
	"loyaltykit/integrations/webhook"
	"loyaltykit/loyalty"
	"loyaltykit/realtime"
)

// App aggregates the assembled server components.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Hub     *realtime.Hub
	Service *engine.LoyaltyService
	Metrics *analytics.LoyaltyMetrics
	Handler http.Handler
	Server  *http.Server
}

func provideConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Environment == config.EnvProduction {
		if err := cfg.LoadSecretsFromEnv(ctx); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

func provideStorage(ctx context.Context, cfg *config.Config) (engine.Storage, error) {
	return setupStorage(ctx, cfg)
}

func provideMetrics() *analytics.LoyaltyMetrics {
	return analytics.NewLoyaltyMetrics()
}

func provideService(hub *realtime.Hub, storage engine.Storage, metrics *analytics.LoyaltyMetrics, cfg *config.Config) *engine.LoyaltyService {
	svc := loyalty.New(
		loyalty.WithRealtime(hub),
		loyalty.WithStorage(storage),
		loyalty.WithDispatchMode(engine.DispatchAsync),
	)

	// Feed the daily KPI aggregates from the event stream.
	for _, typ := range []core.EventType{core.EventXPAdded, core.EventOrderRecorded, core.EventLevelUp, core.EventQuizRecommended} {
		svc.Subscribe(typ, func(_ context.Context, e core.Event) { metrics.OnEvent(e) })
	}

	// Deliver level ups and recommendations to the shop's marketing hooks.
	if len(cfg.Webhooks.Endpoints) > 0 {
		opts := []webhook.Option{webhook.WithEventTypes(core.EventLevelUp, core.EventQuizRecommended)}
		if cfg.Webhooks.Secret != "" {
			opts = append(opts, webhook.WithHeader("X-Shop-Secret", cfg.Webhooks.Secret))
		}
		sink := webhook.New(cfg.Webhooks.Endpoints, opts...)
		for _, typ := range []core.EventType{core.EventLevelUp, core.EventQuizRecommended} {
			svc.Subscribe(typ, func(_ context.Context, e core.Event) { sink.OnEvent(e) })
		}
	}

	return svc
}

func provideConfigSource(cfg *config.Config) (httpapi.ConfigSource, error) {
	quiz, err := loadQuiz(cfg)
	if err != nil {
		return nil, err
	}
	return config.NewStaticSource(cfg.Settings, quiz), nil
}

func provideHandler(svc *engine.LoyaltyService, src httpapi.ConfigSource, hub *realtime.Hub, cfg *config.Config) http.Handler {
	return httpapi.NewMux(svc, src, hub, httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		APIKeys:          cfg.Security.APIKeys,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
	})
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// loadQuiz reads the quiz content file; a missing file yields an empty
// quiz so the loyalty program can run without the recommendation flow.
func loadQuiz(cfg *config.Config) (core.QuizConfig, error) {
	if cfg.Quiz.Path == "" {
		return core.QuizConfig{}, nil
	}
	if _, err := os.Stat(cfg.Quiz.Path); err != nil {
		slog.Warn("quiz content file not found, recommendations disabled", "path", cfg.Quiz.Path)
		return core.QuizConfig{}, nil
	}
	return config.LoadQuizConfig(cfg.Quiz.Path)
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// convertAttributes converts map[string]string to []slog.Attr.
func convertAttributes(attrs map[string]string) []slog.Attr {
	var result []slog.Attr
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}

// setupStorage creates the appropriate storage adapter based on configuration.
func setupStorage(ctx context.Context, cfg *config.Config) (engine.Storage, error) {
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.New(), nil
	case "redis":
		return redisAdapter.New(cfg.Storage.Redis)
	case "sql":
		return sqlxAdapter.New(cfg.Storage.SQL)
	case "file":
		return jsonfileAdapter.New(cfg.Storage.File.Path)
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}
