// Package config loads process configuration from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/smartcity/access-platform/internal/core/security"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"

	minSecretBytes = 32
)

// Base holds the settings shared by both services.
type Base struct {
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// TrustedProxies lists CIDRs whose X-Forwarded-For header is believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	JWT   JWTConfig
	Redis RedisConfig
}

type JWTConfig struct {
	Secret   string `env:"JWT_SECRET, required"`
	Issuer   string `env:"JWT_ISSUER,   default=smartcity-identity"`
	Audience string `env:"JWT_AUDIENCE, default=smartcity-platform"`
}

// TokenConfig converts the JWT settings into the signing configuration.
func (j JWTConfig) TokenConfig() security.TokenConfig {
	return security.TokenConfig{
		Secret:   []byte(j.Secret),
		Issuer:   j.Issuer,
		Audience: j.Audience,
	}
}

type StoreConfig struct {
	Driver      string `env:"STORE_DRIVER, default=mongo"`
	MongoURI    string `env:"MONGO_URI,    default=mongodb://localhost:27017"`
	MongoDB     string `env:"MONGO_DB,     default=smartcity"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	// ConnectTimeout bounds the startup connect and ping of either driver.
	ConnectTimeout time.Duration `env:"STORE_CONNECT_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
	// Timeout bounds dialing and each command, including revocation lookups.
	Timeout time.Duration `env:"REDIS_TIMEOUT, default=2s"`
}

// IdentityConfig configures the identity service.
type IdentityConfig struct {
	Base
	Port  string `env:"PORT, default=8081"`
	Store StoreConfig
}

// AdminConfig configures the admin service.
type AdminConfig struct {
	Base
	Port  string `env:"PORT, default=8082"`
	Store StoreConfig

	IdentityServiceURL string        `env:"IDENTITY_SERVICE_URL, default=http://localhost:8081"`
	UpstreamTimeout    time.Duration `env:"UPSTREAM_TIMEOUT,     default=5s"`
	AuditBuffer        int           `env:"AUDIT_BUFFER,         default=256"`
	AuditWorkers       int           `env:"AUDIT_WORKERS,        default=2"`
}

// LoadIdentity reads the identity service configuration. A nil lookuper
// reads the process environment.
func LoadIdentity(ctx context.Context, l envconfig.Lookuper) (*IdentityConfig, error) {
	var cfg IdentityConfig
	if err := process(ctx, l, &cfg); err != nil {
		return nil, err
	}
	if err := errors.Join(cfg.Base.validate(), cfg.Store.validate()); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadAdmin reads the admin service configuration.
func LoadAdmin(ctx context.Context, l envconfig.Lookuper) (*AdminConfig, error) {
	var cfg AdminConfig
	if err := process(ctx, l, &cfg); err != nil {
		return nil, err
	}
	errs := []error{cfg.Base.validate(), cfg.Store.validate()}
	if strings.TrimSpace(cfg.IdentityServiceURL) == "" {
		errs = append(errs, errors.New("IDENTITY_SERVICE_URL is required"))
	}
	if cfg.UpstreamTimeout <= 0 {
		errs = append(errs, errors.New("UPSTREAM_TIMEOUT must be positive"))
	}
	if cfg.AuditBuffer <= 0 || cfg.AuditWorkers <= 0 {
		errs = append(errs, errors.New("AUDIT_BUFFER and AUDIT_WORKERS must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	cfg.IdentityServiceURL = strings.TrimRight(cfg.IdentityServiceURL, "/")
	return &cfg, nil
}

func process(ctx context.Context, l envconfig.Lookuper, target any) error {
	if l == nil {
		l = envconfig.OsLookuper()
	}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: target, Lookuper: l}); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (b Base) validate() error {
	if len(b.JWT.Secret) < minSecretBytes {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretBytes)
	}
	if _, err := b.TrustedProxyNets(); err != nil {
		return err
	}
	if b.Redis.Timeout <= 0 {
		return errors.New("REDIS_TIMEOUT must be positive")
	}
	return nil
}

// TrustedProxyNets parses TRUSTED_PROXIES. A bare address is treated as a
// single-host range.
func (b Base) TrustedProxyNets() ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(b.TrustedProxies))
	for _, raw := range b.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			ip := net.ParseIP(raw)
			if ip == nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: invalid address %q", raw)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

func (s StoreConfig) validate() error {
	if s.ConnectTimeout <= 0 {
		return errors.New("STORE_CONNECT_TIMEOUT must be positive")
	}
	switch s.Driver {
	case DriverMongo:
		if s.MongoURI == "" || s.MongoDB == "" {
			return errors.New("MONGO_URI and MONGO_DB are required for the mongo driver")
		}
	case DriverPostgres:
		if s.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", s.Driver)
	}
	return nil
}

// IsProduction reports whether ENV selects production behaviour.
func (b Base) IsProduction() bool {
	return strings.EqualFold(b.Env, "production")
}
