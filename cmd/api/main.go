// Package main is the entrypoint for the Folio API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"

	"github.com/folio/folio/internal/activity"
	"github.com/folio/folio/internal/auth"
	"github.com/folio/folio/internal/cache"
	"github.com/folio/folio/internal/config"
	"github.com/folio/folio/internal/handler"
	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/middleware"
	"github.com/folio/folio/internal/repository"
	"github.com/folio/folio/internal/server"
	"github.com/folio/folio/internal/service"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL, cfg.ProjectCacheTTL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	verifier := auth.NewVerifier(auth.VerifierConfig{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.TokenTTL,
	})
	recorder := metrics.NewInMemory()

	events := repository.NewProjectEventRepository(repo)
	publisher := activity.NewPublisher(cacheClient.Client(), logger, recorder)

	projectService := service.NewProjectService(repo, cacheClient, publisher, events, logger, recorder)
	accountService := service.NewAccountService(repo, verifier, logger)

	respond := handler.NewResponder(logger, handler.ResponderConfig{
		ExposeErrors:    !cfg.IsProduction(),
		ExposeAuthCause: cfg.IsDevelopment(),
	})

	handlers := handler.Handlers{
		Root:     handler.New(),
		Health:   handler.NewHealthHandler(repo, cacheClient, logger, !cfg.IsProduction()),
		Projects: handler.NewProjectHandler(projectService, respond),
		Accounts: handler.NewAccountHandler(accountService, respond),
	}
	if cfg.MetricsEnabled {
		handlers.Metrics = handler.NewMetricsHandler(recorder)
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	router := handler.NewRouter(handler.RouterConfig{
		Logger: logger,
		Auth: middleware.AuthConfig{
			Logger:      logger,
			Verifier:    verifier,
			Metrics:     recorder,
			ExposeCause: cfg.IsDevelopment(),
		},
		Security:    middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()},
		CORS:        corsCfg,
		MaxBodySize: cfg.MaxRequestBodySize,
	}, handlers)

	srv := server.New(router, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	if cfg.ActivityWorkerEnabled {
		worker := activity.NewWorker(cacheClient.Client(), events, logger, activity.NewConsumerID(), recorder)
		go func() {
			if err := worker.Run(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("activity worker stopped", "error", err)
			}
		}()
		srv.OnShutdown("activity_worker", worker.Shutdown)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"activity_worker", cfg.ActivityWorkerEnabled,
		"metrics", cfg.MetricsEnabled,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

// redactURL strips the password from a connection URL before it is logged.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
