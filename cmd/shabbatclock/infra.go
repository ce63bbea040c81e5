package main

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/nerrad567/shabbat-clock/internal/api"
	"github.com/nerrad567/shabbat-clock/internal/infrastructure/config"
	"github.com/nerrad567/shabbat-clock/internal/infrastructure/database"
	"github.com/nerrad567/shabbat-clock/internal/infrastructure/logging"
	"github.com/nerrad567/shabbat-clock/internal/radio"
	"github.com/nerrad567/shabbat-clock/internal/schedule"
	"github.com/nerrad567/shabbat-clock/internal/storage"

	_ "github.com/nerrad567/shabbat-clock/migrations"
)

// openStorage builds the schedule persister for the configured backend and
// registers its health check. The returned func releases it.
func openStorage(ctx context.Context, cfg *config.Config, log *logging.Logger, checks map[string]api.HealthChecker) (schedule.Persister, func(), error) {
	switch cfg.Storage.Backend {
	case "", "sqlite":
		db, err := database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		closeDB := func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}
		if err := db.Migrate(ctx); err != nil {
			closeDB()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		checks["database"] = db
		log.Info("database ready", "path", cfg.Database.Path)
		return storage.NewSQLiteStore(db.DB, cfg.Storage.Namespace), closeDB, nil

	case "file":
		log.Info("file storage ready", "path", cfg.Storage.FilePath)
		return storage.NewFileStore(afero.NewOsFs(), cfg.Storage.FilePath), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", storage.ErrUnknownBackend, cfg.Storage.Backend)
	}
}

// openRadio connects the lock-sync link and wraps it in the protocol.
func openRadio(ctx context.Context, cfg config.RadioConfig, log *logging.Logger) (*radio.Protocol, *radio.StreamTransport, error) {
	link, err := radio.Open(ctx, radio.LinkConfig{
		URL:         cfg.Connection,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening radio link: %w", err)
	}

	proto := radio.New(link, radio.Config{
		AckTimeout:   cfg.AckTimeout,
		SettleDelay:  cfg.SettleDelay,
		PollInterval: cfg.PollInterval,
		AckToken:     cfg.AckToken,
		MaxResponse:  cfg.MaxResponse,
	})
	proto.SetLogger(log.With("component", "radio"))
	log.Info("radio link open", "connection", cfg.Connection, "ack_timeout", proto.Config().AckTimeout)
	return proto, link, nil
}

// linkCheck adapts the radio link's health to api.HealthChecker.
type linkCheck struct {
	link *radio.StreamTransport
}

func (c linkCheck) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.link.Healthy()
}
