package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/equipment-rental/internal/calendar"
	"github.com/example/equipment-rental/internal/persistence"
)

var (
	adminPrincipal    = Principal{UserID: "1", Role: RoleAdmin}
	staffPrincipal    = Principal{UserID: "2", Role: RoleStaff}
	customerPrincipal = Principal{UserID: "3", Role: RoleCustomer}
	otherCustomer     = Principal{UserID: "4", Role: RoleCustomer}
)

var errWriteFailed = errors.New("disk full")

// fakeStore implements every repository interface over plain slices.
type fakeStore struct {
	users         []UserAccount
	equipment     []Equipment
	rentals       []Rental
	maintenance   []Maintenance
	notifications []Notification
	session       *Identity

	seq       int
	revision  uint64
	writes    int
	failWrite bool
	listErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: []UserAccount{
			{ID: "1", Email: "admin@example.com", Password: "admin123", Role: RoleAdmin},
			{ID: "2", Email: "staff@example.com", Password: "staff123", Role: RoleStaff},
			{ID: "3", Email: "customer@example.com", Password: "customer123", Role: RoleCustomer},
			{ID: "4", Email: "other@example.com", Password: "other123", Role: RoleCustomer},
		},
	}
}

func (f *fakeStore) Revision() uint64 { return f.revision }

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeStore) write(key string) error {
	if f.failWrite {
		return &persistence.StorageError{Op: "write", Key: key, Err: errWriteFailed}
	}
	f.writes++
	f.revision++
	return nil
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]UserAccount, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]UserAccount(nil), f.users...), nil
}

func (f *fakeStore) ListEquipment(ctx context.Context) ([]Equipment, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]Equipment(nil), f.equipment...), nil
}

func (f *fakeStore) GetEquipment(ctx context.Context, id string) (Equipment, error) {
	for _, e := range f.equipment {
		if e.ID == id {
			return e, nil
		}
	}
	return Equipment{}, persistence.ErrNotFound
}

func (f *fakeStore) CreateEquipment(ctx context.Context, e Equipment) (Equipment, error) {
	if err := f.write(persistence.KeyEquipment); err != nil {
		return Equipment{}, err
	}
	e.ID = f.nextID("eq")
	f.equipment = append(f.equipment, e)
	return e, nil
}

func (f *fakeStore) UpdateEquipment(ctx context.Context, e Equipment) (Equipment, bool, error) {
	for i := range f.equipment {
		if f.equipment[i].ID == e.ID {
			if err := f.write(persistence.KeyEquipment); err != nil {
				return Equipment{}, true, err
			}
			f.equipment[i] = e
			return e, true, nil
		}
	}
	return e, false, nil
}

func (f *fakeStore) DeleteEquipment(ctx context.Context, id string) (bool, error) {
	for i := range f.equipment {
		if f.equipment[i].ID == id {
			if err := f.write(persistence.KeyEquipment); err != nil {
				return false, err
			}
			f.equipment = append(f.equipment[:i], f.equipment[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListRentals(ctx context.Context) ([]Rental, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]Rental(nil), f.rentals...), nil
}

func (f *fakeStore) GetRental(ctx context.Context, id string) (Rental, error) {
	for _, r := range f.rentals {
		if r.ID == id {
			return r, nil
		}
	}
	return Rental{}, persistence.ErrNotFound
}

func (f *fakeStore) CreateRental(ctx context.Context, r Rental) (Rental, error) {
	if err := f.write(persistence.KeyRentals); err != nil {
		return Rental{}, err
	}
	r.ID = f.nextID("r")
	f.rentals = append(f.rentals, r)
	return r, nil
}

func (f *fakeStore) UpdateRental(ctx context.Context, r Rental) (Rental, bool, error) {
	for i := range f.rentals {
		if f.rentals[i].ID == r.ID {
			if err := f.write(persistence.KeyRentals); err != nil {
				return Rental{}, true, err
			}
			f.rentals[i] = r
			return r, true, nil
		}
	}
	return r, false, nil
}

func (f *fakeStore) DeleteRental(ctx context.Context, id string) (bool, error) {
	for i := range f.rentals {
		if f.rentals[i].ID == id {
			if err := f.write(persistence.KeyRentals); err != nil {
				return false, err
			}
			f.rentals = append(f.rentals[:i], f.rentals[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListMaintenance(ctx context.Context) ([]Maintenance, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]Maintenance(nil), f.maintenance...), nil
}

func (f *fakeStore) GetMaintenance(ctx context.Context, id string) (Maintenance, error) {
	for _, m := range f.maintenance {
		if m.ID == id {
			return m, nil
		}
	}
	return Maintenance{}, persistence.ErrNotFound
}

func (f *fakeStore) CreateMaintenance(ctx context.Context, m Maintenance) (Maintenance, error) {
	if err := f.write(persistence.KeyMaintenance); err != nil {
		return Maintenance{}, err
	}
	m.ID = f.nextID("m")
	f.maintenance = append(f.maintenance, m)
	return m, nil
}

func (f *fakeStore) UpdateMaintenance(ctx context.Context, m Maintenance) (Maintenance, bool, error) {
	for i := range f.maintenance {
		if f.maintenance[i].ID == m.ID {
			if err := f.write(persistence.KeyMaintenance); err != nil {
				return Maintenance{}, true, err
			}
			f.maintenance[i] = m
			return m, true, nil
		}
	}
	return m, false, nil
}

func (f *fakeStore) DeleteMaintenance(ctx context.Context, id string) (bool, error) {
	for i := range f.maintenance {
		if f.maintenance[i].ID == id {
			if err := f.write(persistence.KeyMaintenance); err != nil {
				return false, err
			}
			f.maintenance = append(f.maintenance[:i], f.maintenance[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListNotifications(ctx context.Context) ([]Notification, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]Notification(nil), f.notifications...), nil
}

func (f *fakeStore) PrependNotification(ctx context.Context, n Notification) (Notification, error) {
	if err := f.write(persistence.KeyNotifications); err != nil {
		return Notification{}, err
	}
	n.ID = f.nextID("n")
	f.notifications = append([]Notification{n}, f.notifications...)
	return n, nil
}

func (f *fakeStore) ReplaceNotifications(ctx context.Context, items []Notification) error {
	if err := f.write(persistence.KeyNotifications); err != nil {
		return err
	}
	f.notifications = append([]Notification(nil), items...)
	return nil
}

func (f *fakeStore) LoadCurrentUser(ctx context.Context) (Identity, bool, error) {
	if f.session == nil {
		return Identity{}, false, nil
	}
	return *f.session, true, nil
}

func (f *fakeStore) SaveCurrentUser(ctx context.Context, identity Identity) error {
	if err := f.write(persistence.KeyCurrentUser); err != nil {
		return err
	}
	f.session = &identity
	return nil
}

func (f *fakeStore) ClearCurrentUser(ctx context.Context) error {
	f.session = nil
	f.revision++
	return nil
}

// failingNotifier always rejects new entries.
type failingNotifier struct{ calls int }

func (n *failingNotifier) Add(ctx context.Context, t NotificationType, message, relatedID string) (Notification, error) {
	n.calls++
	return Notification{}, &StorageFailureError{Operation: "add notification", Err: errWriteFailed}
}

// fixedClock returns a clock frozen at the given local time.
func fixedClock(value string) func() time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", value, time.Local)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func date(value string) calendar.Date {
	return calendar.MustParse(value)
}

func amount(v float64) *float64 {
	return &v
}

type services struct {
	store         *fakeStore
	notifications *NotificationService
	equipment     *EquipmentService
	rentals       *RentalService
	maintenance   *MaintenanceService
	dashboard     *DashboardService
	calendar      *CalendarService
	sessions      *SessionService
}

func newServices(store *fakeStore, now func() time.Time, policy NotificationPolicy) services {
	notifications := NewNotificationService(store, now)
	return services{
		store:         store,
		notifications: notifications,
		equipment:     NewEquipmentService(store, notifications, policy, nil),
		rentals:       NewRentalService(store, store, store, notifications, now, RentalOptions{Policy: policy}),
		maintenance:   NewMaintenanceService(store, store, notifications, policy, nil, now),
		dashboard:     NewDashboardService(store, store, store, store, now, DashboardOptions{CacheTTL: time.Minute}),
		calendar:      NewCalendarService(store, now),
		sessions:      NewSessionService(store, store, nil),
	}
}
