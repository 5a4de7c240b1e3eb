// @title           SmartCity Identity Service
// @version         1.0
// @description     Registration, login, token issuance and user management.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/smartcity/access-platform/docs/identity"
	"github.com/smartcity/access-platform/internal/app"
	"github.com/smartcity/access-platform/internal/infrastructure/config"
	"github.com/smartcity/access-platform/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadIdentity(ctx, nil)
	if err != nil {
		logger.Init(logger.Options{Service: "identity"}).Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Output:  os.Stdout,
		Service: "identity",
	})

	a, err := app.NewIdentity(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create app")
	}
	if err := a.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("run app")
	}
}
