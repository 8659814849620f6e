// Package repository adapts the persistence collections to the repository interfaces of the
// application layer.
package repository

import (
	"context"
	"time"

	"github.com/example/equipment-rental/internal/application"
	"github.com/example/equipment-rental/internal/calendar"
	"github.com/example/equipment-rental/internal/persistence"
)

// Adapter exposes a persistence.Store through every application repository interface.
type Adapter struct {
	store *persistence.Store
}

var (
	_ application.UserRepository         = (*Adapter)(nil)
	_ application.SessionStore           = (*Adapter)(nil)
	_ application.EquipmentRepository    = (*Adapter)(nil)
	_ application.RentalRepository       = (*Adapter)(nil)
	_ application.MaintenanceRepository  = (*Adapter)(nil)
	_ application.NotificationRepository = (*Adapter)(nil)
	_ application.RevisionSource         = (*Adapter)(nil)
)

// New wraps store.
func New(store *persistence.Store) *Adapter {
	return &Adapter{store: store}
}

// Revision reports the store's write counter.
func (a *Adapter) Revision() uint64 {
	return a.store.Revision()
}

func (a *Adapter) ListUsers(ctx context.Context) ([]application.UserAccount, error) {
	models, err := a.store.Users().List(ctx)
	if err != nil {
		return nil, err
	}
	return mapAll(models, toApplicationUser), nil
}

func (a *Adapter) LoadCurrentUser(ctx context.Context) (application.Identity, bool, error) {
	stored, ok, err := a.store.LoadCurrentUser(ctx)
	if err != nil || !ok {
		return application.Identity{}, ok, err
	}
	return application.Identity{ID: stored.ID, Email: stored.Email, Role: application.Role(stored.Role)}, true, nil
}

func (a *Adapter) SaveCurrentUser(ctx context.Context, identity application.Identity) error {
	return a.store.SaveCurrentUser(ctx, persistence.SessionUser{
		ID:    identity.ID,
		Email: identity.Email,
		Role:  string(identity.Role),
	})
}

func (a *Adapter) ClearCurrentUser(ctx context.Context) error {
	return a.store.ClearCurrentUser(ctx)
}

func (a *Adapter) ListEquipment(ctx context.Context) ([]application.Equipment, error) {
	models, err := a.store.Equipment().List(ctx)
	if err != nil {
		return nil, err
	}
	return mapAll(models, toApplicationEquipment), nil
}

func (a *Adapter) GetEquipment(ctx context.Context, id string) (application.Equipment, error) {
	stored, err := a.store.Equipment().Get(ctx, id)
	if err != nil {
		return application.Equipment{}, err
	}
	return toApplicationEquipment(stored), nil
}

func (a *Adapter) CreateEquipment(ctx context.Context, equipment application.Equipment) (application.Equipment, error) {
	stored, err := a.store.Equipment().Create(ctx, toPersistenceEquipment(equipment))
	if err != nil {
		return application.Equipment{}, err
	}
	return toApplicationEquipment(stored), nil
}

func (a *Adapter) UpdateEquipment(ctx context.Context, equipment application.Equipment) (application.Equipment, bool, error) {
	stored, found, err := a.store.Equipment().Update(ctx, toPersistenceEquipment(equipment))
	return toApplicationEquipment(stored), found, err
}

func (a *Adapter) DeleteEquipment(ctx context.Context, id string) (bool, error) {
	return a.store.Equipment().Delete(ctx, id)
}

func (a *Adapter) ListRentals(ctx context.Context) ([]application.Rental, error) {
	models, err := a.store.Rentals().List(ctx)
	if err != nil {
		return nil, err
	}
	return mapAll(models, toApplicationRental), nil
}

func (a *Adapter) GetRental(ctx context.Context, id string) (application.Rental, error) {
	stored, err := a.store.Rentals().Get(ctx, id)
	if err != nil {
		return application.Rental{}, err
	}
	return toApplicationRental(stored), nil
}

func (a *Adapter) CreateRental(ctx context.Context, rental application.Rental) (application.Rental, error) {
	stored, err := a.store.Rentals().Create(ctx, toPersistenceRental(rental))
	if err != nil {
		return application.Rental{}, err
	}
	return toApplicationRental(stored), nil
}

func (a *Adapter) UpdateRental(ctx context.Context, rental application.Rental) (application.Rental, bool, error) {
	stored, found, err := a.store.Rentals().Update(ctx, toPersistenceRental(rental))
	return toApplicationRental(stored), found, err
}

func (a *Adapter) DeleteRental(ctx context.Context, id string) (bool, error) {
	return a.store.Rentals().Delete(ctx, id)
}

func (a *Adapter) ListMaintenance(ctx context.Context) ([]application.Maintenance, error) {
	models, err := a.store.Maintenance().List(ctx)
	if err != nil {
		return nil, err
	}
	return mapAll(models, toApplicationMaintenance), nil
}

func (a *Adapter) GetMaintenance(ctx context.Context, id string) (application.Maintenance, error) {
	stored, err := a.store.Maintenance().Get(ctx, id)
	if err != nil {
		return application.Maintenance{}, err
	}
	return toApplicationMaintenance(stored), nil
}

func (a *Adapter) CreateMaintenance(ctx context.Context, record application.Maintenance) (application.Maintenance, error) {
	stored, err := a.store.Maintenance().Create(ctx, toPersistenceMaintenance(record))
	if err != nil {
		return application.Maintenance{}, err
	}
	return toApplicationMaintenance(stored), nil
}

func (a *Adapter) UpdateMaintenance(ctx context.Context, record application.Maintenance) (application.Maintenance, bool, error) {
	stored, found, err := a.store.Maintenance().Update(ctx, toPersistenceMaintenance(record))
	return toApplicationMaintenance(stored), found, err
}

func (a *Adapter) DeleteMaintenance(ctx context.Context, id string) (bool, error) {
	return a.store.Maintenance().Delete(ctx, id)
}

func (a *Adapter) ListNotifications(ctx context.Context) ([]application.Notification, error) {
	models, err := a.store.Notifications().List(ctx)
	if err != nil {
		return nil, err
	}
	return mapAll(models, toApplicationNotification), nil
}

// PrependNotification stores n ahead of the existing entries under a fresh id.
func (a *Adapter) PrependNotification(ctx context.Context, n application.Notification) (application.Notification, error) {
	notifications := a.store.Notifications()
	existing, err := notifications.List(ctx)
	if err != nil {
		return application.Notification{}, err
	}
	n.ID = a.store.NewID()
	items := make([]persistence.Notification, 0, len(existing)+1)
	items = append(items, toPersistenceNotification(n))
	items = append(items, existing...)
	if err := notifications.Replace(ctx, items); err != nil {
		return application.Notification{}, err
	}
	return n, nil
}

func (a *Adapter) ReplaceNotifications(ctx context.Context, notifications []application.Notification) error {
	return a.store.Notifications().Replace(ctx, mapAll(notifications, toPersistenceNotification))
}

func mapAll[From, To any](items []From, convert func(From) To) []To {
	out := make([]To, 0, len(items))
	for _, item := range items {
		out = append(out, convert(item))
	}
	return out
}

func toApplicationUser(model persistence.User) application.UserAccount {
	return application.UserAccount{
		ID:       model.ID,
		Email:    model.Email,
		Password: model.Password,
		Role:     application.Role(model.Role),
	}
}

func toApplicationEquipment(model persistence.Equipment) application.Equipment {
	return application.Equipment{
		ID:              model.ID,
		Name:            model.Name,
		Category:        model.Category,
		Condition:       application.EquipmentCondition(model.Condition),
		Status:          application.EquipmentStatus(model.Status),
		Description:     model.Description,
		AcquisitionDate: parseDate(model.AcquisitionDate),
		Image:           model.Image,
	}
}

func toPersistenceEquipment(equipment application.Equipment) persistence.Equipment {
	return persistence.Equipment{
		ID:              equipment.ID,
		Name:            equipment.Name,
		Category:        equipment.Category,
		Condition:       string(equipment.Condition),
		Status:          string(equipment.Status),
		Description:     equipment.Description,
		AcquisitionDate: equipment.AcquisitionDate.String(),
		Image:           equipment.Image,
	}
}

func toApplicationRental(model persistence.Rental) application.Rental {
	return application.Rental{
		ID:          model.ID,
		EquipmentID: model.EquipmentID,
		CustomerID:  model.CustomerID,
		StartDate:   parseDate(model.StartDate),
		EndDate:     parseDate(model.EndDate),
		Status:      application.RentalStatus(model.Status),
		Notes:       model.Notes,
		TotalAmount: cloneAmount(model.TotalAmount),
		CreatedAt:   parseInstant(model.CreatedAt),
	}
}

func toPersistenceRental(rental application.Rental) persistence.Rental {
	return persistence.Rental{
		ID:          rental.ID,
		EquipmentID: rental.EquipmentID,
		CustomerID:  rental.CustomerID,
		StartDate:   rental.StartDate.String(),
		EndDate:     rental.EndDate.String(),
		Status:      string(rental.Status),
		Notes:       rental.Notes,
		TotalAmount: cloneAmount(rental.TotalAmount),
		CreatedAt:   formatInstant(rental.CreatedAt),
	}
}

func toApplicationMaintenance(model persistence.Maintenance) application.Maintenance {
	return application.Maintenance{
		ID:          model.ID,
		EquipmentID: model.EquipmentID,
		Date:        parseDate(model.Date),
		Type:        application.MaintenanceType(model.Type),
		Notes:       model.Notes,
		CompletedBy: model.CompletedBy,
		Status:      application.MaintenanceStatus(model.Status),
	}
}

func toPersistenceMaintenance(record application.Maintenance) persistence.Maintenance {
	return persistence.Maintenance{
		ID:          record.ID,
		EquipmentID: record.EquipmentID,
		Date:        record.Date.String(),
		Type:        string(record.Type),
		Notes:       record.Notes,
		CompletedBy: record.CompletedBy,
		Status:      string(record.Status),
	}
}

func toApplicationNotification(model persistence.Notification) application.Notification {
	return application.Notification{
		ID:        model.ID,
		Type:      application.NotificationType(model.Type),
		Message:   model.Message,
		Timestamp: parseInstant(model.Timestamp),
		Read:      model.Read,
		RelatedID: model.RelatedID,
	}
}

func toPersistenceNotification(n application.Notification) persistence.Notification {
	return persistence.Notification{
		ID:        n.ID,
		Type:      string(n.Type),
		Message:   n.Message,
		Timestamp: formatInstant(n.Timestamp),
		Read:      n.Read,
		RelatedID: n.RelatedID,
	}
}

// parseDate keeps the date part of either stored form. Unreadable values become the zero date.
func parseDate(value string) calendar.Date {
	d, err := calendar.Parse(value)
	if err != nil {
		return calendar.Date{}
	}
	return d
}

// parseInstant reads an RFC 3339 instant, falling back to midnight UTC of a bare date.
func parseInstant(value string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	if d, err := calendar.Parse(value); err == nil {
		return d.Time()
	}
	return time.Time{}
}

func formatInstant(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(persistence.TimestampLayout)
}

func cloneAmount(value *float64) *float64 {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
