package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/erazemk/inventaris/internal/api"
	"github.com/erazemk/inventaris/internal/auth"
	"github.com/erazemk/inventaris/internal/cache"
	"github.com/erazemk/inventaris/internal/config"
	"github.com/erazemk/inventaris/internal/db"
	"github.com/erazemk/inventaris/internal/logging"
	"github.com/erazemk/inventaris/internal/observability"
	"github.com/erazemk/inventaris/internal/store"
)

// app holds everything with a lifecycle that serve owns.
type app struct {
	db      *db.DB
	redis   *redis.Client
	handler http.Handler
}

// newApp opens storage, prepares the schema and wires the HTTP handler.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	storeLog := logging.Named(logger, "store")

	database, err := db.Open(ctx, cfg.DBOptions())
	if err != nil {
		return nil, err
	}
	a := &app{db: database}

	if err := database.EnsureSchema(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	storeLog.Info("database ready", zap.String("driver", string(database.Dialect)))

	items := store.NewItemStore(database, store.WithTimeout(cfg.DB.AcquireTimeout))
	if cfg.Seed {
		n, err := items.SeedIfEmpty(ctx)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("seeding items: %w", err)
		}
		if n > 0 {
			storeLog.Info("seeded sample items", zap.Int("count", n))
		}
	}

	gate, err := a.newGate(ctx, cfg, logging.Named(logger, "auth"))
	if err != nil {
		a.Close()
		return nil, err
	}

	metrics := observability.NewMetrics()
	metrics.WatchDB(database.DB.DB, string(database.Dialect))

	a.handler = api.NewRouter(api.Deps{
		Items:              items,
		Gate:               gate,
		Logger:             logger,
		Metrics:            metrics,
		CORSOrigins:        cfg.CORSOrigins,
		LoginRatePerMinute: cfg.LoginRate,
	})
	return a, nil
}

func (a *app) newGate(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*auth.Gate, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		var err error
		if secret, err = store.GetJWTSecret(ctx, a.db); err != nil {
			return nil, err
		}
		logger.Info("using persisted jwt secret")
	}

	var creds auth.CredentialVerifier
	if cfg.AdminPasswordHash != "" {
		hashed, err := auth.NewHashedCredentials(cfg.AdminUsername, cfg.AdminPasswordHash)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_PASSWORD_HASH: %w", err)
		}
		creds = hashed
	} else {
		fixed, err := auth.FixedCredentials()
		if err != nil {
			return nil, err
		}
		creds = fixed
		logger.Warn("using built-in admin credentials, set ADMIN_PASSWORD_HASH to replace them",
			zap.String("username", auth.DefaultUsername))
	}

	var opts []auth.GateOption
	switch cfg.TokenRevocation {
	case config.RevocationSQL:
		opts = append(opts, auth.WithRevocations(store.NewTokenStore(a.db)))
	case config.RevocationRedis:
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		a.redis = client
		opts = append(opts, auth.WithRevocations(cache.NewRevocations(client)))
	}
	logger.Info("token revocation", zap.String("backend", cfg.TokenRevocation))

	return auth.NewGate(secret, creds, opts...), nil
}

// Close releases the Redis client and the database pool, database last.
func (a *app) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
