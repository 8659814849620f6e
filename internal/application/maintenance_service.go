package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/equipment-rental/internal/calendar"
)

// MaintenanceRepository captures the persistence operations needed by the maintenance service.
type MaintenanceRepository interface {
	ListMaintenance(ctx context.Context) ([]Maintenance, error)
	GetMaintenance(ctx context.Context, id string) (Maintenance, error)
	CreateMaintenance(ctx context.Context, record Maintenance) (Maintenance, error)
	UpdateMaintenance(ctx context.Context, record Maintenance) (Maintenance, bool, error)
	DeleteMaintenance(ctx context.Context, id string) (bool, error)
}

// MaintenanceService manages maintenance records for Admin and Staff.
type MaintenanceService struct {
	records     MaintenanceRepository
	equipment   EquipmentRepository
	notifier    Notifier
	policy      NotificationPolicy
	transitions Transitions
	now         func() time.Time
	logger      *slog.Logger
}

// NewMaintenanceService constructs a maintenance service.
func NewMaintenanceService(records MaintenanceRepository, equipment EquipmentRepository, notifier Notifier, policy NotificationPolicy, transitions Transitions, now func() time.Time) *MaintenanceService {
	return NewMaintenanceServiceWithLogger(records, equipment, notifier, policy, transitions, now, nil)
}

// NewMaintenanceServiceWithLogger constructs a maintenance service with a specified logger.
func NewMaintenanceServiceWithLogger(records MaintenanceRepository, equipment EquipmentRepository, notifier Notifier, policy NotificationPolicy, transitions Transitions, now func() time.Time, logger *slog.Logger) *MaintenanceService {
	if transitions == nil {
		transitions = UnrestrictedTransitions{}
	}
	if now == nil {
		now = time.Now
	}
	return &MaintenanceService{
		records:     records,
		equipment:   equipment,
		notifier:    notifier,
		policy:      policy,
		transitions: transitions,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *MaintenanceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "MaintenanceService", operation, attrs...)
}

// List returns the records matching filter, latest date first.
func (s *MaintenanceService) List(ctx context.Context, principal Principal, filter MaintenanceFilter) ([]Maintenance, error) {
	all, err := s.all(ctx, principal)
	if err != nil {
		return nil, err
	}
	out := make([]Maintenance, 0, len(all))
	for _, m := range all {
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		if !containsFold(m.Notes, filter.Search) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

// Get returns one record or ErrNotFound.
func (s *MaintenanceService) Get(ctx context.Context, principal Principal, id string) (Maintenance, error) {
	if s == nil {
		return Maintenance{}, fmt.Errorf("MaintenanceService is nil")
	}
	if err := authorize(principal, CapManageMaintenance); err != nil {
		return Maintenance{}, err
	}
	if s.records == nil {
		return Maintenance{}, ErrNotFound
	}
	m, err := s.records.GetMaintenance(ctx, id)
	if err != nil {
		return Maintenance{}, mapStoreError("get maintenance", err)
	}
	return m, nil
}

// ByEquipment returns the records of one equipment item in stored order.
func (s *MaintenanceService) ByEquipment(ctx context.Context, principal Principal, equipmentID string) ([]Maintenance, error) {
	all, err := s.all(ctx, principal)
	if err != nil {
		return nil, err
	}
	out := make([]Maintenance, 0)
	for _, m := range all {
		if m.EquipmentID == equipmentID {
			out = append(out, m)
		}
	}
	return out, nil
}

// Upcoming returns records dated today or later that are not completed, in stored order.
func (s *MaintenanceService) Upcoming(ctx context.Context, principal Principal) ([]Maintenance, error) {
	all, err := s.all(ctx, principal)
	if err != nil {
		return nil, err
	}
	today := calendar.DateOf(s.now())
	out := make([]Maintenance, 0)
	for _, m := range all {
		if IsUpcomingMaintenance(m, today) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Create validates input and stores a new record.
func (s *MaintenanceService) Create(ctx context.Context, params CreateMaintenanceParams) (record Maintenance, err error) {
	if s == nil {
		err = fmt.Errorf("MaintenanceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Create",
		"principal_id", params.Principal.UserID,
		"equipment_id", params.Input.EquipmentID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create maintenance", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("maintenance_id", record.ID).InfoContext(ctx, "maintenance created")
	}()

	if err = authorize(params.Principal, CapManageMaintenance); err != nil {
		return
	}

	input := normalizeMaintenanceInput(params.Input, MaintenanceScheduled)
	if vErr := validateMaintenanceInput(input); vErr.HasErrors() {
		err = vErr
		return
	}
	if err = s.checkEquipment(ctx, input.EquipmentID); err != nil {
		return
	}

	status, tErr := s.transitions.TransitionMaintenance("", input.Status)
	if tErr != nil {
		err = transitionError("status", tErr)
		return
	}

	record = maintenanceFromInput("", input)
	record.Status = status
	if s.records == nil {
		return
	}

	record, err = s.records.CreateMaintenance(ctx, record)
	if err != nil {
		err = mapStoreError("create maintenance", err)
		return
	}

	event, fire := s.policy.MaintenanceCreated(record)
	emit(ctx, s.notifier, logger, event, fire)
	return
}

// Update replaces a record's fields. An unknown id is a silent no-op.
func (s *MaintenanceService) Update(ctx context.Context, params UpdateMaintenanceParams) (record Maintenance, err error) {
	if s == nil {
		err = fmt.Errorf("MaintenanceService is nil")
		return
	}
	if err = authorize(params.Principal, CapManageMaintenance); err != nil {
		return
	}
	if s.records == nil {
		err = fmt.Errorf("maintenance repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Update",
		"principal_id", params.Principal.UserID,
		"maintenance_id", params.MaintenanceID,
	)
	found := true
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update maintenance", "error", err, "error_kind", ErrorKind(err))
			return
		}
		if !found {
			logger.InfoContext(ctx, "maintenance update skipped: no such record")
			return
		}
		logger.With("status", record.Status).InfoContext(ctx, "maintenance updated")
	}()

	existing, getErr := s.records.GetMaintenance(ctx, params.MaintenanceID)
	getErr = mapStoreError("update maintenance", getErr)
	if errors.Is(getErr, ErrNotFound) {
		found = false
		record = maintenanceFromInput(params.MaintenanceID, normalizeMaintenanceInput(params.Input, MaintenanceScheduled))
		return
	}
	if getErr != nil {
		err = getErr
		return
	}

	input := normalizeMaintenanceInput(params.Input, existing.Status)
	if vErr := validateMaintenanceInput(input); vErr.HasErrors() {
		err = vErr
		return
	}
	if input.EquipmentID != existing.EquipmentID {
		if err = s.checkEquipment(ctx, input.EquipmentID); err != nil {
			return
		}
	}

	status, tErr := s.transitions.TransitionMaintenance(existing.Status, input.Status)
	if tErr != nil {
		err = transitionError("status", tErr)
		return
	}

	updated := maintenanceFromInput(existing.ID, input)
	updated.Status = status

	record, found, err = s.records.UpdateMaintenance(ctx, updated)
	if err != nil {
		err = mapStoreError("update maintenance", err)
		return
	}
	if !found {
		return
	}

	event, fire := s.policy.MaintenanceUpdated(existing, record)
	emit(ctx, s.notifier, logger, event, fire)
	return
}

// Delete removes a record. Deleting an unknown id is a no-op.
func (s *MaintenanceService) Delete(ctx context.Context, principal Principal, id string) error {
	if s == nil {
		return fmt.Errorf("MaintenanceService is nil")
	}
	if err := authorize(principal, CapManageMaintenance); err != nil {
		return err
	}
	if s.records == nil {
		return fmt.Errorf("maintenance repository not configured")
	}

	logger := s.loggerWith(ctx, "Delete",
		"principal_id", principal.UserID,
		"maintenance_id", id,
	)

	removed, err := s.records.DeleteMaintenance(ctx, id)
	if err != nil {
		err = mapStoreError("delete maintenance", err)
		logger.ErrorContext(ctx, "failed to delete maintenance", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "maintenance deleted", "removed", removed)
	return nil
}

func (s *MaintenanceService) all(ctx context.Context, principal Principal) ([]Maintenance, error) {
	if s == nil {
		return nil, fmt.Errorf("MaintenanceService is nil")
	}
	if err := authorize(principal, CapManageMaintenance); err != nil {
		return nil, err
	}
	if s.records == nil {
		return nil, nil
	}
	all, err := s.records.ListMaintenance(ctx)
	if err != nil {
		return nil, mapStoreError("list maintenance", err)
	}
	return all, nil
}

func (s *MaintenanceService) checkEquipment(ctx context.Context, equipmentID string) error {
	if s.equipment == nil {
		return nil
	}
	_, err := s.equipment.GetEquipment(ctx, equipmentID)
	err = mapStoreError("check maintenance equipment", err)
	if errors.Is(err, ErrNotFound) {
		vErr := &ValidationError{}
		vErr.add("equipmentId", "equipment does not exist")
		return vErr
	}
	return err
}

func maintenanceFromInput(id string, input MaintenanceInput) Maintenance {
	return Maintenance{
		ID:          id,
		EquipmentID: input.EquipmentID,
		Date:        input.Date,
		Type:        input.Type,
		Notes:       input.Notes,
		CompletedBy: input.CompletedBy,
		Status:      input.Status,
	}
}

func normalizeMaintenanceInput(input MaintenanceInput, defaultStatus MaintenanceStatus) MaintenanceInput {
	input.EquipmentID = strings.TrimSpace(input.EquipmentID)
	input.Notes = strings.TrimSpace(input.Notes)
	input.CompletedBy = strings.TrimSpace(input.CompletedBy)
	if input.Type == "" {
		input.Type = MaintenanceRoutineCheck
	}
	if input.Status == "" {
		input.Status = defaultStatus
	}
	return input
}

func validateMaintenanceInput(input MaintenanceInput) *ValidationError {
	vErr := &ValidationError{}
	if input.EquipmentID == "" {
		vErr.add("equipmentId", "equipment is required")
	}
	if input.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	if input.Notes == "" {
		vErr.add("notes", "notes are required")
	}
	if !isMember(input.Type, maintenanceTypes) {
		vErr.add("type", fmt.Sprintf("unknown type %q", input.Type))
	}
	if !isMember(input.Status, maintenanceStatuses) {
		vErr.add("status", fmt.Sprintf("unknown status %q", input.Status))
	}
	return vErr
}
