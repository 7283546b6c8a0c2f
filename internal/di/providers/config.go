// Package providers contains dependency injection providers for the tracker client.
package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-tracker/internal/config"
	"github.com/listenupapp/listenup-tracker/internal/logger"
	"github.com/listenupapp/listenup-tracker/internal/validation"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.Load(os.Args[1:])
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.IsDevelopment(),
		Environment: cfg.App.Environment,
	})

	log.Info("Starting ListenUp Tracker",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Storage.DataPath,
		"tracker_url", cfg.Tracker.BaseURL,
		"tracker_user_id", cfg.Tracker.UserID,
	)

	return log, nil
}

// ProvideValidator provides the shared request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}
