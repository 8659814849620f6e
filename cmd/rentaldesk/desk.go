package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/example/equipment-rental/internal/application"
	"github.com/example/equipment-rental/internal/config"
	"github.com/example/equipment-rental/internal/metrics"
	"github.com/example/equipment-rental/internal/persistence"
	"github.com/example/equipment-rental/internal/persistence/filestore"
	"github.com/example/equipment-rental/internal/persistence/memory"
	"github.com/example/equipment-rental/internal/persistence/sqlite"
	"github.com/example/equipment-rental/internal/repository"
)

// desk is the wired service graph behind one CLI invocation.
type desk struct {
	store    *persistence.Store
	recorder *metrics.Recorder

	sessions      *application.SessionService
	notifications *application.NotificationService
	equipment     *application.EquipmentService
	rentals       *application.RentalService
	maintenance   *application.MaintenanceService
	dashboard     *application.DashboardService
	calendar      *application.CalendarService
}

func openDesk(ctx context.Context, cfg config.Config, now func() time.Time, logger *slog.Logger) (*desk, error) {
	if now == nil {
		now = time.Now
	}

	backend, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	opts := []persistence.Option{persistence.WithLogger(logger)}
	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder, err = metrics.NewRecorder()
		if err != nil {
			_ = backend.Close()
			return nil, err
		}
		opts = append(opts, persistence.WithRecorder(recorder))
	}
	store := persistence.NewStore(backend, opts...)

	hasher, err := application.PasswordHasherFor(cfg.Auth.PasswordScheme)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	verifier, err := application.PasswordVerifierFor(cfg.Auth.PasswordScheme)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	refire, err := application.ParseRefireMode(cfg.Notifications.Refire)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	seeded, err := store.Bootstrap(ctx, persistence.BootstrapOptions{
		Mode:         persistence.SeedMode(cfg.Seed),
		Now:          now,
		HashPassword: hasher,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("bootstrap storage: %w", err)
	}
	logger.Debug("storage ready", "driver", store.Driver(), "seeded", seeded)

	repos := repository.New(store)
	policy := application.NotificationPolicy{Refire: refire}
	notifications := application.NewNotificationServiceWithLogger(repos, now, logger)

	return &desk{
		store:         store,
		recorder:      recorder,
		sessions:      application.NewSessionServiceWithLogger(repos, repos, verifier, logger),
		notifications: notifications,
		equipment:     application.NewEquipmentServiceWithLogger(repos, notifications, policy, nil, logger),
		rentals: application.NewRentalServiceWithLogger(repos, repos, repos, notifications, now, application.RentalOptions{
			DailyRate: cfg.Rentals.DailyRate,
			Policy:    policy,
		}, logger),
		maintenance: application.NewMaintenanceServiceWithLogger(repos, repos, notifications, policy, nil, now, logger),
		dashboard: application.NewDashboardServiceWithLogger(repos, repos, repos, repos, now, application.DashboardOptions{
			DueAfterDays:       cfg.Maintenance.DueAfterDays,
			UpcomingWindowDays: cfg.Maintenance.UpcomingWindowDays,
			CacheTTL:           cfg.Dashboard.CacheTTL,
		}, logger),
		calendar: application.NewCalendarServiceWithLogger(repos, now, logger),
	}, nil
}

func openBackend(ctx context.Context, storage config.StorageConfig) (persistence.Backend, error) {
	switch storage.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverFile:
		backend, err := filestore.New(storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open file storage: %w", err)
		}
		return backend, nil
	case config.DriverSQLite:
		if dir := filepath.Dir(storage.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		backend, err := sqlite.Open(ctx, storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		return backend, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", storage.Driver)
}

// Close releases the storage backend.
func (d *desk) Close() error {
	if d == nil || d.store == nil {
		return nil
	}
	return d.store.Close()
}

// dumpMetrics writes the store collectors in the Prometheus text format when metrics are on.
func (d *desk) dumpMetrics(w io.Writer, logger *slog.Logger) {
	if d == nil || d.recorder == nil {
		return
	}
	if err := d.recorder.WriteText(w); err != nil {
		logger.Error("failed to write metrics", "error", err)
	}
}
