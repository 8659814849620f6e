package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/example/equipment-rental/internal/application"
	"github.com/example/equipment-rental/internal/persistence"
	"github.com/example/equipment-rental/internal/persistence/memory"
	"github.com/example/equipment-rental/internal/repository"
)

// ServiceFactory assists tests with constructing the full service graph over an in-memory
// store, deterministic identifiers and a controllable clock.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Policy      application.NotificationPolicy
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(ReferenceTime()),
		IDGenerator: NewIDGenerator("id"),
		Policy:      application.DefaultNotificationPolicy(),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(ReferenceTime())
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithPolicy overrides the notification policy.
func WithPolicy(policy application.NotificationPolicy) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Policy = policy
	}
}

// Services is a wired service graph.
type Services struct {
	Backend       persistence.Backend
	Store         *persistence.Store
	Repositories  *repository.Adapter
	Sessions      *application.SessionService
	Notifications *application.NotificationService
	Equipment     *application.EquipmentService
	Rentals       *application.RentalService
	Maintenance   *application.MaintenanceService
	Dashboard     *application.DashboardService
	Calendar      *application.CalendarService
}

// NewMemoryServices wires services over a fresh in-memory backend seeded with the demo dataset.
func (f *ServiceFactory) NewMemoryServices(tb testing.TB) *Services {
	tb.Helper()
	return f.NewServices(tb, memory.New(), persistence.SeedDemo)
}

// NewServices wires services over backend, bootstrapping it with mode.
func (f *ServiceFactory) NewServices(tb testing.TB, backend persistence.Backend, mode persistence.SeedMode) *Services {
	tb.Helper()

	store := persistence.NewStore(backend,
		persistence.WithIDGenerator(f.IDGenerator.NextFunc()),
		persistence.WithLogger(f.Logger),
	)
	if _, err := store.Bootstrap(context.Background(), persistence.BootstrapOptions{Mode: mode, Now: f.Clock.NowFunc()}); err != nil {
		tb.Fatalf("bootstrap store: %v", err)
	}
	return f.wire(backend, store)
}

func (f *ServiceFactory) wire(backend persistence.Backend, store *persistence.Store) *Services {
	repos := repository.New(store)
	now := f.Clock.NowFunc()
	notifications := application.NewNotificationServiceWithLogger(repos, now, f.Logger)
	return &Services{
		Backend:       backend,
		Store:         store,
		Repositories:  repos,
		Sessions:      application.NewSessionServiceWithLogger(repos, repos, nil, f.Logger),
		Notifications: notifications,
		Equipment:     application.NewEquipmentServiceWithLogger(repos, notifications, f.Policy, nil, f.Logger),
		Rentals:       application.NewRentalServiceWithLogger(repos, repos, repos, notifications, now, application.RentalOptions{Policy: f.Policy}, f.Logger),
		Maintenance:   application.NewMaintenanceServiceWithLogger(repos, repos, notifications, f.Policy, nil, now, f.Logger),
		Dashboard:     application.NewDashboardServiceWithLogger(repos, repos, repos, repos, now, application.DashboardOptions{}, f.Logger),
		Calendar:      application.NewCalendarServiceWithLogger(repos, now, f.Logger),
	}
}

// SignIn signs in with the given credentials and returns the principal.
func (s *Services) SignIn(tb testing.TB, email, password string) application.Principal {
	tb.Helper()
	session, err := s.Sessions.SignIn(context.Background(), email, password)
	if err != nil {
		tb.Fatalf("sign in %s: %v", email, err)
	}
	return session.Principal()
}
