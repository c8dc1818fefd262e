// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package app is the composition root shared by the server and the admin CLI.

It opens the stores named by the configuration and wires every domain
service with explicit constructor injection. No business logic lives here.
*/
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/shopfront/internal/api"
	"github.com/taibuivan/shopfront/internal/platform/config"
	"github.com/taibuivan/shopfront/internal/platform/cookie"
	"github.com/taibuivan/shopfront/internal/platform/database"
	"github.com/taibuivan/shopfront/internal/platform/dbx"
	"github.com/taibuivan/shopfront/internal/platform/migration"
	platformredis "github.com/taibuivan/shopfront/internal/platform/redis"
	"github.com/taibuivan/shopfront/internal/platform/render"
	"github.com/taibuivan/shopfront/internal/platform/scheduler"
	"github.com/taibuivan/shopfront/internal/platform/sec"
	"github.com/taibuivan/shopfront/internal/shop/cart"
	"github.com/taibuivan/shopfront/internal/shop/catalog"
	"github.com/taibuivan/shopfront/internal/shop/review"
	"github.com/taibuivan/shopfront/internal/users/actiontoken"
	"github.com/taibuivan/shopfront/internal/users/auth"
	"github.com/taibuivan/shopfront/internal/users/newsletter"
)

// App holds the wired services of one process.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *dbx.DB
	// Redis is nil when REDIS_URL is empty.
	Redis *redis.Client

	Renderer      *render.Renderer
	Sessions      *auth.SessionStore
	Authenticator *auth.Authenticator
	Accounts      *auth.Service
	ActionTokens  *actiontoken.Service
	Newsletter    *newsletter.Service
	Catalog       *catalog.Service
	Cart          *cart.Service
	Reviews       *review.Service
}

// Open connects to the configured stores, applies migrations and wires the services.
func Open(context context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := database.Open(context, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("open_database_failed: %w", err)
	}

	if err := migration.RunUp(db, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate_failed: %w", err)
	}

	client, err := platformredis.Optional(context, cfg.RedisURL, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open_redis_failed: %w", err)
	}

	application, err := New(cfg, logger, db, client)
	if err != nil {
		_ = db.Close()
		if client != nil {
			_ = client.Close()
		}
		return nil, err
	}
	return application, nil
}

/*
New wires the services over already opened stores.

Parameters:
  - cfg: *config.Config
  - logger: *slog.Logger
  - db: *dbx.DB (Migrated)
  - client: *redis.Client (Optional, selects the action-token backend)

Returns:
  - *App: The wired application
  - error: Invalid password hashing parameters or templates
*/
func New(cfg *config.Config, logger *slog.Logger, db *dbx.DB, client *redis.Client) (*App, error) {
	hasher, err := sec.NewPasswordHasher(cfg.Hasher())
	if err != nil {
		return nil, err
	}

	renderer, err := render.New()
	if err != nil {
		return nil, err
	}

	sessions := auth.NewSessionStore(auth.NewSessionRepository(db), auth.SessionConfig{
		TTL:             cfg.SessionTTL,
		RenewThreshold:  cfg.RenewThreshold,
		SingleSession:   cfg.SingleSessionPerUser,
		BindFingerprint: cfg.FingerprintBinding,
	}, nil)

	users := auth.NewUserRepository(db)

	var tokenRepository actiontoken.Repository = actiontoken.NewSQLRepository(db)
	if client != nil {
		tokenRepository = actiontoken.NewRedisRepository(client)
	}
	tokens := actiontoken.NewService(tokenRepository, cfg.ActionTokenTTL, nil)

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            db,
		Redis:         client,
		Renderer:      renderer,
		Sessions:      sessions,
		Authenticator: auth.NewAuthenticator(sessions, users),
		Accounts:      auth.NewService(users, sessions, hasher, auth.PasswordPolicy{MinLength: cfg.PasswordMinLength}),
		ActionTokens:  tokens,
		Newsletter:    newsletter.NewService(db, newsletter.NewRepository(), tokens, cfg.PublicBaseURL),
		Catalog:       catalog.NewService(catalog.NewRepository(db)),
		Cart:          cart.NewService(db, cart.MockGateway{}, cfg.ShippingFeeCents),
		Reviews:       review.NewService(db, review.NewRepository()),
	}, nil
}

// Handler builds the HTTP handler serving every route.
func (application *App) Handler() http.Handler {
	jar := cookie.Jar{Secure: application.Config.CookieSecure || application.Config.IsProduction(), TTL: application.Config.SessionTTL}

	liveness, readiness := api.NewHealthHandlers(application.healthChecks(), application.Logger)

	return api.NewRouter(application.Config, application.Logger, api.Handlers{
		Liveness:      liveness,
		Readiness:     readiness,
		Authenticator: application.Authenticator,
		Jar:           jar,
		Renderer:      application.Renderer,
		Auth:          auth.NewHandler(application.Accounts, application.Renderer, jar, application.Cart),
		Newsletter:    newsletter.NewHandler(application.Newsletter, application.Renderer),
		Catalog:       catalog.NewHandler(application.Catalog, application.Renderer, application.Reviews),
		Cart:          cart.NewHandler(application.Cart, application.Renderer),
		Review:        review.NewHandler(application.Reviews, application.Renderer),
	})
}

func (application *App) healthChecks() api.HealthDependencies {
	deps := api.HealthDependencies{
		CheckDatabase: func(context context.Context) error {
			return database.Ping(context, application.DB)
		},
	}
	if application.Redis != nil {
		deps.CheckCache = func(context context.Context) error {
			return platformredis.Ping(context, application.Redis)
		}
	}
	return deps
}

// Scheduler builds the housekeeping runner purging expired sessions and action tokens.
func (application *App) Scheduler() (*scheduler.Scheduler, error) {
	return scheduler.New(application.Config.PurgeSchedule, application.Logger,
		scheduler.Job{Name: "purge_sessions", Run: application.Sessions.PurgeExpired},
		scheduler.Job{Name: "purge_action_tokens", Run: application.ActionTokens.PurgeExpired},
	)
}

// Close releases the stores.
func (application *App) Close() error {
	var errs []error
	if application.Redis != nil {
		errs = append(errs, application.Redis.Close())
	}
	errs = append(errs, application.DB.Close())
	return errors.Join(errs...)
}
