package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/equipment-rental/internal/calendar"
)

// CalendarDay is one cell of a calendar grid.
type CalendarDay struct {
	Date      calendar.Date `json:"date"`
	RentalIDs []string      `json:"rentalIds"`
}

// CalendarService projects rentals onto days.
type CalendarService struct {
	rentals RentalRepository
	now     func() time.Time
	logger  *slog.Logger
}

// NewCalendarService constructs a calendar service.
func NewCalendarService(rentals RentalRepository, now func() time.Time) *CalendarService {
	return NewCalendarServiceWithLogger(rentals, now, nil)
}

// NewCalendarServiceWithLogger constructs a calendar service with a specified logger.
func NewCalendarServiceWithLogger(rentals RentalRepository, now func() time.Time, logger *slog.Logger) *CalendarService {
	if now == nil {
		now = time.Now
	}
	return &CalendarService{rentals: rentals, now: now, logger: defaultLogger(logger)}
}

// Today returns the current local date.
func (s *CalendarService) Today() calendar.Date {
	if s == nil || s.now == nil {
		return calendar.DateOf(time.Now())
	}
	return calendar.DateOf(s.now())
}

// RentalsOn returns the visible rentals occupying day, earliest start first.
func (s *CalendarService) RentalsOn(ctx context.Context, principal Principal, day calendar.Date) ([]Rental, error) {
	visible, err := s.visible(ctx, principal)
	if err != nil {
		return nil, err
	}
	out := make([]Rental, 0)
	for _, r := range visible {
		if Occupies(r, day) {
			out = append(out, r)
		}
	}
	sortRentalsByStart(out)
	return out, nil
}

// Month returns every day of the month containing day.
func (s *CalendarService) Month(ctx context.Context, principal Principal, day calendar.Date) ([]CalendarDay, error) {
	return s.grid(ctx, principal, calendar.MonthGrid(day))
}

// Week returns the Sunday-to-Saturday week containing day.
func (s *CalendarService) Week(ctx context.Context, principal Principal, day calendar.Date) ([]CalendarDay, error) {
	return s.grid(ctx, principal, calendar.WeekGrid(day))
}

func (s *CalendarService) grid(ctx context.Context, principal Principal, days []calendar.Date) ([]CalendarDay, error) {
	visible, err := s.visible(ctx, principal)
	if err != nil {
		return nil, err
	}
	sortRentalsByStart(visible)

	out := make([]CalendarDay, 0, len(days))
	for _, day := range days {
		cell := CalendarDay{Date: day, RentalIDs: []string{}}
		for _, r := range visible {
			if Occupies(r, day) {
				cell.RentalIDs = append(cell.RentalIDs, r.ID)
			}
		}
		out = append(out, cell)
	}
	s.loggerWith(ctx, "grid", "principal_id", principal.UserID).
		DebugContext(ctx, "calendar grid built", "days", len(out), "rentals", len(visible))
	return out, nil
}

func (s *CalendarService) visible(ctx context.Context, principal Principal) ([]Rental, error) {
	if s == nil {
		return nil, fmt.Errorf("CalendarService is nil")
	}
	if err := authorize(principal, CapReadCatalog); err != nil {
		return nil, err
	}
	if s.rentals == nil {
		return nil, nil
	}
	all, err := s.rentals.ListRentals(ctx)
	if err != nil {
		return nil, mapStoreError("list calendar rentals", err)
	}
	return append([]Rental(nil), scopeRentals(all, principal)...), nil
}

func (s *CalendarService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CalendarService", operation, attrs...)
}
