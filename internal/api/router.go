package api

import (
	"net"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/smartcity/access-platform/internal/api/handler"
	"github.com/smartcity/access-platform/internal/api/httperror"
	"github.com/smartcity/access-platform/internal/api/middleware"
	"github.com/smartcity/access-platform/internal/core/domain"
	"github.com/smartcity/access-platform/internal/core/ports"
)

// RouterDeps carries what every router needs besides its service.
type RouterDeps struct {
	Log         zerolog.Logger
	Tokens      middleware.TokenValidator
	Revocations middleware.RevocationChecker
	Health      map[string]handler.Pinger
	// Subsystem labels the HTTP metrics, e.g. "identity".
	Subsystem string
	// Registerer receives the HTTP metrics; nil means the default registry.
	Registerer prometheus.Registerer
	// TrustedProxies are the peers whose X-Forwarded-For is believed. Empty
	// means the client address is always the direct peer.
	TrustedProxies []*net.IPNet
}

// NewIdentityRouter builds the identity service's Echo instance.
func NewIdentityRouter(svc ports.IdentityService, deps RouterDeps) *echo.Echo {
	e := newEcho(deps)

	authHandler := handler.NewAuthHandler(svc)
	userHandler := handler.NewUserHandler(svc)
	auth := middleware.Auth(deps.Tokens, deps.Revocations, deps.Log)

	// --- Public routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Authenticated routes ---
	g := e.Group("/auth", auth)
	g.GET("/me", authHandler.Me, middleware.Require(domain.CapabilityAuthenticated))
	g.GET("/users", userHandler.List, middleware.Require(domain.CapabilityAdmin))
	g.GET("/users/:id", userHandler.Get, middleware.Require(domain.CapabilityAdmin))
	g.PUT("/users/:id", userHandler.Update, middleware.Require(domain.CapabilityAuthenticated))
	g.DELETE("/users/:id", userHandler.Delete, middleware.Require(domain.CapabilityAdmin))

	return e
}

// NewAdminRouter builds the admin service's Echo instance. Every /admin route
// requires an admin caller.
func NewAdminRouter(svc ports.AdminService, deps RouterDeps) *echo.Echo {
	e := newEcho(deps)

	adminHandler := handler.NewAdminHandler(svc)
	g := e.Group("/admin",
		middleware.Auth(deps.Tokens, deps.Revocations, deps.Log),
		middleware.Require(domain.CapabilityAdmin),
	)
	g.GET("/users", adminHandler.ListUsers)
	g.GET("/users/:id", adminHandler.GetUser)
	g.PUT("/users/:id", adminHandler.UpdateUser)
	g.DELETE("/users/:id", adminHandler.DeleteUser)
	g.GET("/logs", adminHandler.ListLogs)
	g.GET("/settings", adminHandler.ListSettings)
	g.POST("/settings", adminHandler.UpsertSetting)

	return e
}

func newEcho(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = httperror.NewHTTPErrorHandler(deps.Log)
	e.IPExtractor = clientIPExtractor(deps.TrustedProxies)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  deps.Subsystem,
		Registerer: deps.Registerer,
	}))

	// --- Operational routes (no auth required) ---
	health := handler.NewHealthHandler(deps.Health)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

// clientIPExtractor decides the source address recorded in audit entries.
// Forwarding headers are only honoured when the direct peer is a trusted
// proxy; echo's default loopback and private-network trust is disabled.
func clientIPExtractor(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}
