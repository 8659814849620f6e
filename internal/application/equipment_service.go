package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// EquipmentRepository captures the persistence operations needed by the equipment service.
type EquipmentRepository interface {
	ListEquipment(ctx context.Context) ([]Equipment, error)
	GetEquipment(ctx context.Context, id string) (Equipment, error)
	CreateEquipment(ctx context.Context, equipment Equipment) (Equipment, error)
	UpdateEquipment(ctx context.Context, equipment Equipment) (Equipment, bool, error)
	DeleteEquipment(ctx context.Context, id string) (bool, error)
}

// EquipmentService orchestrates validation, authorization, and persistence for equipment.
type EquipmentService struct {
	equipment   EquipmentRepository
	notifier    Notifier
	policy      NotificationPolicy
	transitions Transitions
	logger      *slog.Logger
}

// NewEquipmentService constructs an equipment service.
func NewEquipmentService(equipment EquipmentRepository, notifier Notifier, policy NotificationPolicy, transitions Transitions) *EquipmentService {
	return NewEquipmentServiceWithLogger(equipment, notifier, policy, transitions, nil)
}

// NewEquipmentServiceWithLogger constructs an equipment service with a specified logger.
func NewEquipmentServiceWithLogger(equipment EquipmentRepository, notifier Notifier, policy NotificationPolicy, transitions Transitions, logger *slog.Logger) *EquipmentService {
	if transitions == nil {
		transitions = UnrestrictedTransitions{}
	}
	return &EquipmentService{
		equipment:   equipment,
		notifier:    notifier,
		policy:      policy,
		transitions: transitions,
		logger:      defaultLogger(logger),
	}
}

func (s *EquipmentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EquipmentService", operation, attrs...)
}

// List returns the equipment matching filter in stored order.
func (s *EquipmentService) List(ctx context.Context, principal Principal, filter EquipmentFilter) ([]Equipment, error) {
	if s == nil {
		return nil, fmt.Errorf("EquipmentService is nil")
	}
	if err := authorize(principal, CapReadCatalog); err != nil {
		return nil, err
	}
	if s.equipment == nil {
		return nil, nil
	}

	items, err := s.equipment.ListEquipment(ctx)
	if err != nil {
		return nil, mapStoreError("list equipment", err)
	}
	out := make([]Equipment, 0, len(items))
	for _, item := range items {
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if !containsFold(item.Name, filter.Search) && !containsFold(item.Description, filter.Search) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// Get returns one item or ErrNotFound.
func (s *EquipmentService) Get(ctx context.Context, principal Principal, id string) (Equipment, error) {
	if s == nil {
		return Equipment{}, fmt.Errorf("EquipmentService is nil")
	}
	if err := authorize(principal, CapReadCatalog); err != nil {
		return Equipment{}, err
	}
	if s.equipment == nil {
		return Equipment{}, ErrNotFound
	}
	item, err := s.equipment.GetEquipment(ctx, id)
	if err != nil {
		return Equipment{}, mapStoreError("get equipment", err)
	}
	return item, nil
}

// Categories returns the distinct categories in use, sorted.
func (s *EquipmentService) Categories(ctx context.Context, principal Principal) ([]string, error) {
	items, err := s.List(ctx, principal, EquipmentFilter{})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.Category]; ok || item.Category == "" {
			continue
		}
		seen[item.Category] = struct{}{}
		out = append(out, item.Category)
	}
	sort.Strings(out)
	return out, nil
}

// Create validates input and stores a new item for Admin or Staff.
func (s *EquipmentService) Create(ctx context.Context, params CreateEquipmentParams) (equipment Equipment, err error) {
	if s == nil {
		err = fmt.Errorf("EquipmentService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Create", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create equipment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("equipment_id", equipment.ID).InfoContext(ctx, "equipment created")
	}()

	if err = authorize(params.Principal, CapManageEquipment); err != nil {
		return
	}

	input := normalizeEquipmentInput(params.Input)
	if vErr := validateEquipmentInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	status, tErr := s.transitions.TransitionEquipment("", input.Status)
	if tErr != nil {
		err = transitionError("status", tErr)
		return
	}

	equipment = Equipment{
		Name:            input.Name,
		Category:        input.Category,
		Condition:       input.Condition,
		Status:          status,
		Description:     input.Description,
		AcquisitionDate: input.AcquisitionDate,
		Image:           input.Image,
	}
	if s.equipment == nil {
		return
	}

	equipment, err = s.equipment.CreateEquipment(ctx, equipment)
	if err != nil {
		err = mapStoreError("create equipment", err)
		return
	}

	event, fire := s.policy.EquipmentCreated(equipment)
	emit(ctx, s.notifier, logger, event, fire)
	return
}

// Update replaces an item's fields for Admin or Staff. An unknown id is a silent no-op that
// returns the would-be record.
func (s *EquipmentService) Update(ctx context.Context, params UpdateEquipmentParams) (equipment Equipment, err error) {
	if s == nil {
		err = fmt.Errorf("EquipmentService is nil")
		return
	}
	if err = authorize(params.Principal, CapManageEquipment); err != nil {
		return
	}
	if s.equipment == nil {
		err = fmt.Errorf("equipment repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Update",
		"principal_id", params.Principal.UserID,
		"equipment_id", params.EquipmentID,
	)
	found := true
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update equipment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		if !found {
			logger.InfoContext(ctx, "equipment update skipped: no such record")
			return
		}
		logger.InfoContext(ctx, "equipment updated")
	}()

	input := normalizeEquipmentInput(params.Input)
	if vErr := validateEquipmentInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	existing, getErr := s.equipment.GetEquipment(ctx, params.EquipmentID)
	getErr = mapStoreError("update equipment", getErr)
	switch {
	case errors.Is(getErr, ErrNotFound):
		existing = Equipment{ID: params.EquipmentID}
	case getErr != nil:
		err = getErr
		return
	}

	status, tErr := s.transitions.TransitionEquipment(existing.Status, input.Status)
	if tErr != nil {
		err = transitionError("status", tErr)
		return
	}

	equipment = existing
	equipment.Name = input.Name
	equipment.Category = input.Category
	equipment.Condition = input.Condition
	equipment.Status = status
	equipment.Description = input.Description
	equipment.AcquisitionDate = input.AcquisitionDate
	equipment.Image = input.Image

	equipment, found, err = s.equipment.UpdateEquipment(ctx, equipment)
	if err != nil {
		err = mapStoreError("update equipment", err)
	}
	return
}

// Delete removes an item for Admin or Staff. Deleting an unknown id is a no-op.
func (s *EquipmentService) Delete(ctx context.Context, principal Principal, id string) error {
	if s == nil {
		return fmt.Errorf("EquipmentService is nil")
	}
	if err := authorize(principal, CapManageEquipment); err != nil {
		return err
	}
	if s.equipment == nil {
		return fmt.Errorf("equipment repository not configured")
	}

	logger := s.loggerWith(ctx, "Delete",
		"principal_id", principal.UserID,
		"equipment_id", id,
	)

	removed, err := s.equipment.DeleteEquipment(ctx, id)
	if err != nil {
		err = mapStoreError("delete equipment", err)
		logger.ErrorContext(ctx, "failed to delete equipment", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "equipment deleted", "removed", removed)
	return nil
}

func normalizeEquipmentInput(input EquipmentInput) EquipmentInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Category = strings.TrimSpace(input.Category)
	input.Description = strings.TrimSpace(input.Description)
	input.Image = strings.TrimSpace(input.Image)
	if input.Condition == "" {
		input.Condition = ConditionGood
	}
	if input.Status == "" {
		input.Status = EquipmentAvailable
	}
	return input
}

func validateEquipmentInput(input EquipmentInput) *ValidationError {
	vErr := &ValidationError{}
	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if input.Category == "" {
		vErr.add("category", "category is required")
	}
	if !isMember(input.Condition, equipmentConditions) {
		vErr.add("condition", fmt.Sprintf("unknown condition %q", input.Condition))
	}
	if !isMember(input.Status, EquipmentStatuses) {
		vErr.add("status", fmt.Sprintf("unknown status %q", input.Status))
	}
	return vErr
}
