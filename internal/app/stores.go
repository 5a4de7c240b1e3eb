package app

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/smartcity/access-platform/internal/api/handler"
	"github.com/smartcity/access-platform/internal/core/ports"
	"github.com/smartcity/access-platform/internal/infrastructure/config"
	"github.com/smartcity/access-platform/internal/infrastructure/db/mongo"
	"github.com/smartcity/access-platform/internal/infrastructure/db/postgres"
	"github.com/smartcity/access-platform/internal/infrastructure/db/redis"
)

// stores bundles the persistence adapters selected by STORE_DRIVER.
type stores struct {
	users    ports.UserRepository
	audit    ports.AuditRepository
	settings ports.SettingRepository

	health  map[string]handler.Pinger
	closers []func(context.Context) error
}

func (s *stores) close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i](ctx))
	}
	return errors.Join(errs...)
}

func openStores(ctx context.Context, service string, cfg config.StoreConfig, log zerolog.Logger) (*stores, error) {
	s := &stores{health: map[string]handler.Pinger{}}

	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.PostgresDSN, Timeout: cfg.ConnectTimeout})
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func(context.Context) error { return postgres.Close(db) })
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			_ = s.close(ctx)
			return nil, err
		}
		s.users = postgres.NewUserRepository(db)
		s.audit = postgres.NewAuditRepository(db)
		s.settings = postgres.NewSettingRepository(db)
		s.health["postgres"] = pingGorm(db)

	default:
		client, db, err := mongo.Connect(ctx, mongo.Config{
			URI:            cfg.MongoURI,
			Database:       cfg.MongoDB,
			AppName:        "smartcity-" + service,
			ConnectTimeout: cfg.ConnectTimeout,
		})
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, client.Disconnect)

		users := mongo.NewUserRepository(db)
		audit := mongo.NewAuditRepository(db)
		settings := mongo.NewSettingRepository(db)
		for name, ensure := range map[string]func(context.Context) error{
			"users":    users.EnsureIndexes,
			"audit":    audit.EnsureIndexes,
			"settings": settings.EnsureIndexes,
		} {
			if err := ensure(ctx); err != nil {
				_ = s.close(ctx)
				return nil, fmt.Errorf("ensure %s indexes: %w", name, err)
			}
		}
		s.users, s.audit, s.settings = users, audit, settings
		s.health["mongo"] = handler.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		})
	}

	log.Info().Str("driver", cfg.Driver).Msg("stores ready")
	return s, nil
}

func pingGorm(db *gorm.DB) handler.PingFunc {
	return func(ctx context.Context) error { return postgres.Ping(ctx, db) }
}

// openRevocations connects Redis. Startup fails when Redis is unreachable;
// once running, lookup failures are tolerated by the auth middleware.
func openRevocations(ctx context.Context, cfg config.RedisConfig, s *stores) (*redis.RevocationStore, error) {
	client, err := redis.Connect(ctx, redis.Config{Addr: cfg.Addr, DB: cfg.DB, Timeout: cfg.Timeout})
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, func(context.Context) error { return client.Close() })
	s.health["redis"] = redisPinger(client)
	return redis.NewRevocationStore(client), nil
}

func redisPinger(client *goredis.Client) handler.PingFunc {
	return func(ctx context.Context) error { return client.Ping(ctx).Err() }
}
