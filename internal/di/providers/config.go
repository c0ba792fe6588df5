// Package providers contains dependency injection providers for the Askboard server.
package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/askboard/askboard-server/internal/config"
	"github.com/askboard/askboard-server/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Askboard Server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Data.BasePath,
		"anonymous_answers", cfg.Forum.AllowAnonymousAnswers,
	)

	return log, nil
}

// EnvWatcherHandle wraps the .env watcher for lifecycle management.
type EnvWatcherHandle struct {
	*config.EnvWatcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *EnvWatcherHandle) Shutdown() error {
	if h.EnvWatcher == nil {
		return nil
	}
	h.cancel()
	return h.Stop()
}

// ProvideEnvWatcher watches the .env file and applies LOG_LEVEL changes
// without a restart. Other settings need a restart to take effect.
func ProvideEnvWatcher(i do.Injector) (*EnvWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	w, err := config.NewEnvWatcher(cfg.App.EnvFile, log.Logger, func(values map[string]string) {
		raw, ok := values["LOG_LEVEL"]
		if !ok {
			return
		}
		level := logger.ParseLevel(raw)
		if level == log.Level() {
			return
		}
		log.SetLevel(level)
		log.Info("Log level changed", "level", level.String())
	})
	if err != nil {
		// Non-fatal: the server runs fine with static config.
		log.Warn("Env file watcher unavailable", "path", cfg.App.EnvFile, "error", err)
		return &EnvWatcherHandle{cancel: func() {}}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	return &EnvWatcherHandle{EnvWatcher: w, cancel: cancel}, nil
}
