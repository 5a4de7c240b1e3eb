// Package app assembles the identity and admin services from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartcity/access-platform/internal/api"
	"github.com/smartcity/access-platform/internal/core/security"
	"github.com/smartcity/access-platform/internal/core/service"
	"github.com/smartcity/access-platform/internal/infrastructure/config"
	"github.com/smartcity/access-platform/internal/infrastructure/queue"
	"github.com/smartcity/access-platform/internal/infrastructure/upstream"
)

const shutdownTimeout = 15 * time.Second

// App is one running service: an Echo server plus the resources it owns.
type App struct {
	name   string
	addr   string
	log    zerolog.Logger
	echo   *echo.Echo
	stores *stores
	// onStop runs after the server drains and before stores close.
	onStop func(context.Context) error
}

// NewIdentity wires the identity service.
func NewIdentity(ctx context.Context, cfg *config.IdentityConfig, log zerolog.Logger) (*App, error) {
	s, err := openStores(ctx, "identity", cfg.Store, log)
	if err != nil {
		return nil, fmt.Errorf("open stores: %w", err)
	}
	revocations, err := openRevocations(ctx, cfg.Redis, s)
	if err != nil {
		_ = s.close(ctx)
		return nil, fmt.Errorf("open redis: %w", err)
	}

	proxies, err := cfg.TrustedProxyNets()
	if err != nil {
		_ = s.close(ctx)
		return nil, err
	}

	tokens := cfg.JWT.TokenConfig()
	svc := service.NewIdentityService(
		s.users,
		security.NewPasswordHasher(bcrypt.DefaultCost),
		security.NewTokenIssuer(tokens, nil),
		revocations,
		log,
	)

	e := api.NewIdentityRouter(svc, api.RouterDeps{
		Log:         log,
		Tokens:      security.NewTokenValidator(tokens, nil),
		Revocations: revocations,
		Health:      s.health,
		Subsystem:   "identity",

		TrustedProxies: proxies,
	})

	return &App{name: "identity", addr: ":" + cfg.Port, log: log, echo: e, stores: s}, nil
}

// NewAdmin wires the admin service. User data is reached only through the
// identity service; the admin store holds audit entries and settings.
func NewAdmin(ctx context.Context, cfg *config.AdminConfig, log zerolog.Logger) (*App, error) {
	s, err := openStores(ctx, "admin", cfg.Store, log)
	if err != nil {
		return nil, fmt.Errorf("open stores: %w", err)
	}
	revocations, err := openRevocations(ctx, cfg.Redis, s)
	if err != nil {
		_ = s.close(ctx)
		return nil, fmt.Errorf("open redis: %w", err)
	}

	proxies, err := cfg.TrustedProxyNets()
	if err != nil {
		_ = s.close(ctx)
		return nil, err
	}

	dispatcher := queue.NewAuditDispatcher(s.audit, cfg.AuditBuffer, cfg.AuditWorkers, log)
	dispatcher.Start(ctx)

	client := upstream.NewIdentityClient(cfg.IdentityServiceURL, cfg.UpstreamTimeout, log)
	svc := service.NewAdminService(client, dispatcher, s.audit, s.settings, log)

	e := api.NewAdminRouter(svc, api.RouterDeps{
		Log:         log,
		Tokens:      security.NewTokenValidator(cfg.JWT.TokenConfig(), nil),
		Revocations: revocations,
		Health:      s.health,
		Subsystem:   "admin",

		TrustedProxies: proxies,
	})

	return &App{
		name:   "admin",
		addr:   ":" + cfg.Port,
		log:    log,
		echo:   e,
		stores: s,
		onStop: dispatcher.Close,
	}, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests and
// releases resources.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("service", a.name).Str("addr", a.addr).Msg("http server starting")
		errCh <- a.echo.Start(a.addr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info().Str("service", a.name).Msg("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server exited: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := []error{runErr}
	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown server: %w", err))
	}
	if a.onStop != nil {
		if err := a.onStop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("drain audit queue: %w", err))
		}
	}
	if err := a.stores.close(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("close stores: %w", err))
	}
	return errors.Join(errs...)
}
