package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/equipment-rental/internal/booking"
	"github.com/example/equipment-rental/internal/calendar"
)

// DefaultDailyRate is the flat price per chargeable rental day.
const DefaultDailyRate = 50.0

// RentalRepository captures the persistence operations needed by the rental service.
type RentalRepository interface {
	ListRentals(ctx context.Context) ([]Rental, error)
	GetRental(ctx context.Context, id string) (Rental, error)
	CreateRental(ctx context.Context, rental Rental) (Rental, error)
	UpdateRental(ctx context.Context, rental Rental) (Rental, bool, error)
	DeleteRental(ctx context.Context, id string) (bool, error)
}

// RentalOptions tunes pricing, notifications and status handling.
type RentalOptions struct {
	DailyRate   float64
	Policy      NotificationPolicy
	Transitions Transitions
}

// RentalService orchestrates validation, authorization, pricing and persistence for rentals.
type RentalService struct {
	rentals     RentalRepository
	equipment   EquipmentRepository
	users       UserRepository
	notifier    Notifier
	policy      NotificationPolicy
	transitions Transitions
	dailyRate   float64
	now         func() time.Time
	logger      *slog.Logger
}

// NewRentalService constructs a rental service.
func NewRentalService(rentals RentalRepository, equipment EquipmentRepository, users UserRepository, notifier Notifier, now func() time.Time, opts RentalOptions) *RentalService {
	return NewRentalServiceWithLogger(rentals, equipment, users, notifier, now, opts, nil)
}

// NewRentalServiceWithLogger constructs a rental service with a specified logger.
func NewRentalServiceWithLogger(rentals RentalRepository, equipment EquipmentRepository, users UserRepository, notifier Notifier, now func() time.Time, opts RentalOptions, logger *slog.Logger) *RentalService {
	if now == nil {
		now = time.Now
	}
	if opts.Transitions == nil {
		opts.Transitions = UnrestrictedTransitions{}
	}
	if opts.DailyRate <= 0 {
		opts.DailyRate = DefaultDailyRate
	}
	return &RentalService{
		rentals:     rentals,
		equipment:   equipment,
		users:       users,
		notifier:    notifier,
		policy:      opts.Policy,
		transitions: opts.Transitions,
		dailyRate:   opts.DailyRate,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *RentalService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RentalService", operation, attrs...)
}

// TotalAmount prices a rental span at the service's daily rate.
func (s *RentalService) TotalAmount(start, end calendar.Date) float64 {
	return float64(calendar.ChargeableDays(start, end)) * s.dailyRate
}

// List returns the rentals visible to principal that match filter, newest first.
func (s *RentalService) List(ctx context.Context, principal Principal, filter RentalFilter) ([]Rental, error) {
	visible, err := s.visible(ctx, principal)
	if err != nil {
		return nil, err
	}

	var names map[string]string
	if strings.TrimSpace(filter.Search) != "" {
		if names, err = s.equipmentNames(ctx); err != nil {
			return nil, err
		}
	}

	out := make([]Rental, 0, len(visible))
	for _, r := range visible {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if names != nil && !containsFold(names[r.EquipmentID], filter.Search) {
			continue
		}
		out = append(out, r)
	}
	sortRentalsByCreatedDesc(out)
	return out, nil
}

// Get returns one rental. Customers may only read their own.
func (s *RentalService) Get(ctx context.Context, principal Principal, id string) (Rental, error) {
	if s == nil {
		return Rental{}, fmt.Errorf("RentalService is nil")
	}
	if err := authorize(principal, CapReadCatalog); err != nil {
		return Rental{}, err
	}
	if s.rentals == nil {
		return Rental{}, ErrNotFound
	}
	r, err := s.rentals.GetRental(ctx, id)
	if err != nil {
		return Rental{}, mapStoreError("get rental", err)
	}
	if !principal.Can(CapManageRentals) && r.CustomerID != principal.UserID {
		return Rental{}, ErrUnauthorized
	}
	return r, nil
}

// ByEquipment returns the visible rentals of one equipment item in stored order.
func (s *RentalService) ByEquipment(ctx context.Context, principal Principal, equipmentID string) ([]Rental, error) {
	return s.filtered(ctx, principal, func(r Rental) bool { return r.EquipmentID == equipmentID })
}

// ByCustomer returns one customer's rentals in stored order. Customers may only ask for themselves.
func (s *RentalService) ByCustomer(ctx context.Context, principal Principal, customerID string) ([]Rental, error) {
	if principal.UserID != "" && !principal.Can(CapManageRentals) && customerID != principal.UserID {
		return nil, ErrUnauthorized
	}
	return s.filtered(ctx, principal, func(r Rental) bool { return r.CustomerID == customerID })
}

// ByStatus returns the visible rentals with the given stored status.
func (s *RentalService) ByStatus(ctx context.Context, principal Principal, status RentalStatus) ([]Rental, error) {
	return s.filtered(ctx, principal, func(r Rental) bool { return r.Status == status })
}

// Overdue returns the visible rentals whose end date has passed while still out.
func (s *RentalService) Overdue(ctx context.Context, principal Principal) ([]Rental, error) {
	today := calendar.DateOf(s.now())
	return s.filtered(ctx, principal, func(r Rental) bool { return IsOverdue(r, today) })
}

// EquipmentOptions returns the equipment a rental form may offer: every available item plus
// the rental's current item, if any.
func (s *RentalService) EquipmentOptions(ctx context.Context, principal Principal, currentEquipmentID string) ([]Equipment, error) {
	if s == nil {
		return nil, fmt.Errorf("RentalService is nil")
	}
	if err := authorize(principal, CapCreateRental); err != nil {
		return nil, err
	}
	if s.equipment == nil {
		return nil, nil
	}
	items, err := s.equipment.ListEquipment(ctx)
	if err != nil {
		return nil, mapStoreError("list equipment options", err)
	}
	out := make([]Equipment, 0, len(items))
	for _, item := range items {
		if item.Status == EquipmentAvailable || (currentEquipmentID != "" && item.ID == currentEquipmentID) {
			out = append(out, item)
		}
	}
	return out, nil
}

// Customers returns the users a rental may be booked for. A customer only sees themselves.
func (s *RentalService) Customers(ctx context.Context, principal Principal) ([]Identity, error) {
	if s == nil {
		return nil, fmt.Errorf("RentalService is nil")
	}
	if err := authorize(principal, CapCreateRental); err != nil {
		return nil, err
	}
	if s.users == nil {
		return nil, nil
	}
	accounts, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, mapStoreError("list customers", err)
	}
	out := make([]Identity, 0, len(accounts))
	for _, account := range accounts {
		if account.Role != RoleCustomer {
			continue
		}
		if !principal.Can(CapManageRentals) && account.ID != principal.UserID {
			continue
		}
		out = append(out, account.Identity())
	}
	return out, nil
}

// Create validates, prices and stores a new rental. Customers may only book for themselves.
func (s *RentalService) Create(ctx context.Context, params CreateRentalParams) (result RentalResult, err error) {
	if s == nil {
		err = fmt.Errorf("RentalService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Create",
		"principal_id", params.Principal.UserID,
		"equipment_id", params.Input.EquipmentID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create rental", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"rental_id", result.Rental.ID,
			"overlaps", len(result.Warnings),
		).InfoContext(ctx, "rental created")
	}()

	if err = authorize(params.Principal, CapCreateRental); err != nil {
		return
	}

	input := normalizeRentalInput(params.Input, RentalReserved)
	if !params.Principal.Can(CapManageRentals) {
		if input.CustomerID == "" {
			input.CustomerID = params.Principal.UserID
		}
		if input.CustomerID != params.Principal.UserID || input.Status != RentalReserved {
			err = ErrUnauthorized
			return
		}
	}

	vErr := validateRentalInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if err = s.checkReferences(ctx, input, ""); err != nil {
		return
	}

	status, tErr := s.transitions.TransitionRental("", input.Status)
	if tErr != nil {
		err = transitionError("status", tErr)
		return
	}

	amount := s.TotalAmount(input.StartDate, input.EndDate)
	rental := Rental{
		EquipmentID: input.EquipmentID,
		CustomerID:  input.CustomerID,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Status:      status,
		Notes:       input.Notes,
		TotalAmount: &amount,
		CreatedAt:   s.now(),
	}
	if s.rentals == nil {
		result.Rental = rental
		return
	}

	rental, err = s.rentals.CreateRental(ctx, rental)
	if err != nil {
		err = mapStoreError("create rental", err)
		return
	}
	result.Rental = rental

	event, fire := s.policy.RentalCreated(rental)
	emit(ctx, s.notifier, logger, event, fire)

	result.Warnings = s.overlapWarnings(ctx, logger, rental)
	return
}

// Update replaces a rental's fields and reprices it. Customers may only edit their own rentals
// and may not change status, equipment or customer. An unknown id is a silent no-op.
func (s *RentalService) Update(ctx context.Context, params UpdateRentalParams) (result RentalResult, err error) {
	if s == nil {
		err = fmt.Errorf("RentalService is nil")
		return
	}
	if err = authorize(params.Principal, CapCreateRental); err != nil {
		return
	}
	if s.rentals == nil {
		err = fmt.Errorf("rental repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Update",
		"principal_id", params.Principal.UserID,
		"rental_id", params.RentalID,
	)
	found := true
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update rental", "error", err, "error_kind", ErrorKind(err))
			return
		}
		if !found {
			logger.InfoContext(ctx, "rental update skipped: no such record")
			return
		}
		logger.With("status", result.Rental.Status, "overlaps", len(result.Warnings)).InfoContext(ctx, "rental updated")
	}()

	existing, getErr := s.rentals.GetRental(ctx, params.RentalID)
	getErr = mapStoreError("update rental", getErr)
	if errors.Is(getErr, ErrNotFound) {
		found = false
		result.Rental = rentalFromInput(params.RentalID, normalizeRentalInput(params.Input, RentalReserved))
		return
	}
	if getErr != nil {
		err = getErr
		return
	}

	input := normalizeRentalInput(params.Input, existing.Status)
	if !params.Principal.Can(CapManageRentals) {
		if existing.CustomerID != params.Principal.UserID {
			err = ErrUnauthorized
			return
		}
		if input.Status != existing.Status || input.EquipmentID != existing.EquipmentID || input.CustomerID != existing.CustomerID {
			err = ErrUnauthorized
			return
		}
	}

	vErr := validateRentalInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if err = s.checkReferences(ctx, input, existing.EquipmentID); err != nil {
		return
	}

	status, tErr := s.transitions.TransitionRental(existing.Status, input.Status)
	if tErr != nil {
		err = transitionError("status", tErr)
		return
	}

	amount := s.TotalAmount(input.StartDate, input.EndDate)
	updated := existing
	updated.EquipmentID = input.EquipmentID
	updated.CustomerID = input.CustomerID
	updated.StartDate = input.StartDate
	updated.EndDate = input.EndDate
	updated.Status = status
	updated.Notes = input.Notes
	updated.TotalAmount = &amount

	updated, found, err = s.rentals.UpdateRental(ctx, updated)
	if err != nil {
		err = mapStoreError("update rental", err)
		return
	}
	result.Rental = updated
	if !found {
		return
	}

	event, fire := s.policy.RentalUpdated(existing, updated)
	emit(ctx, s.notifier, logger, event, fire)

	result.Warnings = s.overlapWarnings(ctx, logger, updated)
	return
}

// Delete removes a rental for Admin or Staff. Deleting an unknown id is a no-op.
func (s *RentalService) Delete(ctx context.Context, principal Principal, id string) error {
	if s == nil {
		return fmt.Errorf("RentalService is nil")
	}
	if err := authorize(principal, CapManageRentals); err != nil {
		return err
	}
	if s.rentals == nil {
		return fmt.Errorf("rental repository not configured")
	}

	logger := s.loggerWith(ctx, "Delete",
		"principal_id", principal.UserID,
		"rental_id", id,
	)

	removed, err := s.rentals.DeleteRental(ctx, id)
	if err != nil {
		err = mapStoreError("delete rental", err)
		logger.ErrorContext(ctx, "failed to delete rental", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "rental deleted", "removed", removed)
	return nil
}

// visible returns every rental the principal may see in stored order.
func (s *RentalService) visible(ctx context.Context, principal Principal) ([]Rental, error) {
	if s == nil {
		return nil, fmt.Errorf("RentalService is nil")
	}
	if err := authorize(principal, CapReadCatalog); err != nil {
		return nil, err
	}
	if s.rentals == nil {
		return nil, nil
	}
	all, err := s.rentals.ListRentals(ctx)
	if err != nil {
		return nil, mapStoreError("list rentals", err)
	}
	return scopeRentals(all, principal), nil
}

func (s *RentalService) filtered(ctx context.Context, principal Principal, keep func(Rental) bool) ([]Rental, error) {
	visible, err := s.visible(ctx, principal)
	if err != nil {
		return nil, err
	}
	out := make([]Rental, 0, len(visible))
	for _, r := range visible {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *RentalService) equipmentNames(ctx context.Context) (map[string]string, error) {
	names := make(map[string]string)
	if s.equipment == nil {
		return names, nil
	}
	items, err := s.equipment.ListEquipment(ctx)
	if err != nil {
		return nil, mapStoreError("list equipment", err)
	}
	for _, item := range items {
		names[item.ID] = item.Name
	}
	return names, nil
}

// checkReferences verifies the equipment is bookable and the customer is a Customer.
// currentEquipmentID is the item already assigned to the rental being edited.
func (s *RentalService) checkReferences(ctx context.Context, input RentalInput, currentEquipmentID string) error {
	vErr := &ValidationError{}

	if s.equipment != nil {
		item, err := s.equipment.GetEquipment(ctx, input.EquipmentID)
		err = mapStoreError("check rental equipment", err)
		switch {
		case errors.Is(err, ErrNotFound):
			vErr.add("equipmentId", "equipment does not exist")
		case err != nil:
			return err
		case item.Status != EquipmentAvailable && item.ID != currentEquipmentID:
			vErr.add("equipmentId", fmt.Sprintf("equipment is %s", item.Status))
		}
	}

	if s.users != nil {
		accounts, err := s.users.ListUsers(ctx)
		if err != nil {
			return mapStoreError("check rental customer", err)
		}
		isCustomer := false
		for _, account := range accounts {
			if account.ID == input.CustomerID && account.Role == RoleCustomer {
				isCustomer = true
				break
			}
		}
		if !isCustomer {
			vErr.add("customerId", "customer does not exist")
		}
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// overlapWarnings reports other active rentals of the same equipment sharing days with rental.
// A failed lookup only drops the warnings.
func (s *RentalService) overlapWarnings(ctx context.Context, logger *slog.Logger, rental Rental) []OverlapWarning {
	all, err := s.rentals.ListRentals(ctx)
	if err != nil {
		logger.WarnContext(ctx, "overlap check skipped", "error", err)
		return nil
	}
	existing := make([]booking.Booking, 0, len(all))
	for _, r := range all {
		existing = append(existing, toBooking(r))
	}
	overlaps := booking.DetectOverlaps(existing, toBooking(rental))
	if len(overlaps) == 0 {
		return nil
	}
	out := make([]OverlapWarning, 0, len(overlaps))
	for _, o := range overlaps {
		out = append(out, OverlapWarning{RentalID: o.WithBookingID, EquipmentID: o.EquipmentID, From: o.From, To: o.To})
	}
	return out
}

func toBooking(r Rental) booking.Booking {
	return booking.Booking{
		ID:          r.ID,
		EquipmentID: r.EquipmentID,
		Span:        r.Span(),
		Active:      r.Status.holdsEquipment(),
	}
}

func rentalFromInput(id string, input RentalInput) Rental {
	return Rental{
		ID:          id,
		EquipmentID: input.EquipmentID,
		CustomerID:  input.CustomerID,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Status:      input.Status,
		Notes:       input.Notes,
	}
}

func normalizeRentalInput(input RentalInput, defaultStatus RentalStatus) RentalInput {
	input.EquipmentID = strings.TrimSpace(input.EquipmentID)
	input.CustomerID = strings.TrimSpace(input.CustomerID)
	input.Notes = strings.TrimSpace(input.Notes)
	if input.Status == "" {
		input.Status = defaultStatus
	}
	return input
}

func validateRentalInput(input RentalInput) *ValidationError {
	vErr := &ValidationError{}
	if input.EquipmentID == "" {
		vErr.add("equipmentId", "equipment is required")
	}
	if input.CustomerID == "" {
		vErr.add("customerId", "customer is required")
	}
	if input.StartDate.IsZero() {
		vErr.add("startDate", "start date is required")
	}
	if input.EndDate.IsZero() {
		vErr.add("endDate", "end date is required")
	}
	if !input.StartDate.IsZero() && !input.EndDate.IsZero() && input.EndDate.Before(input.StartDate) {
		vErr.add("endDate", "end date must not be before start date")
	}
	if !isMember(input.Status, rentalStatuses) {
		vErr.add("status", fmt.Sprintf("unknown status %q", input.Status))
	}
	return vErr
}
