package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/equipment-rental/internal/calendar"
)

// DefaultUpcomingWindowDays bounds the "upcoming maintenance" KPI.
const DefaultUpcomingWindowDays = 7

const dashboardListSize = 5

// DashboardOptions tunes thresholds and caching.
type DashboardOptions struct {
	DueAfterDays       int
	UpcomingWindowDays int
	CacheTTL           time.Duration
}

// KPIs are the headline dashboard numbers.
type KPIs struct {
	TotalEquipment      int     `json:"totalEquipment"`
	AvailableEquipment  int     `json:"availableEquipment"`
	RentedEquipment     int     `json:"rentedEquipment"`
	OverdueRentals      int     `json:"overdueRentals"`
	UpcomingMaintenance int     `json:"upcomingMaintenance"`
	RentalRevenue       float64 `json:"rentalRevenue"`
}

// Overview bundles every dashboard view.
type Overview struct {
	Date                calendar.Date `json:"date"`
	KPIs                KPIs          `json:"kpis"`
	StatusTally         []StatusCount `json:"statusTally"`
	MonthlyHistogram    []MonthBucket `json:"monthlyHistogram"`
	RecentRentals       []Rental      `json:"recentRentals"`
	UpcomingMaintenance []Maintenance `json:"upcomingMaintenance"`
	MaintenanceDue      []DueItem     `json:"maintenanceDue"`
}

type dashboardSnapshot struct {
	today       calendar.Date
	equipment   []Equipment
	rentals     []Rental
	maintenance []Maintenance
	// history is every maintenance record. It only feeds MaintenanceDue, which every viewer
	// may see even when the records themselves are hidden.
	history []Maintenance
}

func (s dashboardSnapshot) clone() dashboardSnapshot {
	return dashboardSnapshot{
		today:       s.today,
		equipment:   append([]Equipment(nil), s.equipment...),
		rentals:     append([]Rental(nil), s.rentals...),
		maintenance: append([]Maintenance(nil), s.maintenance...),
		history:     append([]Maintenance(nil), s.history...),
	}
}

// DashboardService computes read-only views over the three domain collections.
type DashboardService struct {
	equipment   EquipmentRepository
	rentals     RentalRepository
	maintenance MaintenanceRepository
	revisions   RevisionSource
	cache       *viewCache
	options     DashboardOptions
	now         func() time.Time
	logger      *slog.Logger
}

// NewDashboardService constructs a dashboard service. Caching is enabled when revisions is
// non-nil and the TTL is positive.
func NewDashboardService(equipment EquipmentRepository, rentals RentalRepository, maintenance MaintenanceRepository, revisions RevisionSource, now func() time.Time, opts DashboardOptions) *DashboardService {
	return NewDashboardServiceWithLogger(equipment, rentals, maintenance, revisions, now, opts, nil)
}

// NewDashboardServiceWithLogger constructs a dashboard service with a specified logger.
func NewDashboardServiceWithLogger(equipment EquipmentRepository, rentals RentalRepository, maintenance MaintenanceRepository, revisions RevisionSource, now func() time.Time, opts DashboardOptions, logger *slog.Logger) *DashboardService {
	if now == nil {
		now = time.Now
	}
	if opts.DueAfterDays <= 0 {
		opts.DueAfterDays = DefaultMaintenanceDueDays
	}
	if opts.UpcomingWindowDays <= 0 {
		opts.UpcomingWindowDays = DefaultUpcomingWindowDays
	}
	svc := &DashboardService{
		equipment:   equipment,
		rentals:     rentals,
		maintenance: maintenance,
		revisions:   revisions,
		options:     opts,
		now:         now,
		logger:      defaultLogger(logger),
	}
	if revisions != nil {
		svc.cache = newViewCache(opts.CacheTTL)
	}
	return svc
}

func (s *DashboardService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DashboardService", operation, attrs...)
}

// Overview computes every dashboard view in one pass.
func (s *DashboardService) Overview(ctx context.Context, principal Principal) (Overview, error) {
	snap, err := s.snapshot(ctx, principal)
	if err != nil {
		return Overview{}, err
	}
	return Overview{
		Date:                snap.today,
		KPIs:                s.kpis(snap),
		StatusTally:         StatusTally(snap.equipment),
		MonthlyHistogram:    MonthlyHistogram(snap.rentals, snap.today),
		RecentRentals:       recentRentals(snap.rentals, dashboardListSize),
		UpcomingMaintenance: upcomingMaintenance(snap.maintenance, snap.today, dashboardListSize),
		MaintenanceDue:      limit(MaintenanceDue(snap.equipment, snap.history, snap.today, s.options.DueAfterDays), dashboardListSize),
	}, nil
}

// KPIs returns the headline numbers.
func (s *DashboardService) KPIs(ctx context.Context, principal Principal) (KPIs, error) {
	snap, err := s.snapshot(ctx, principal)
	if err != nil {
		return KPIs{}, err
	}
	return s.kpis(snap), nil
}

// StatusTally counts equipment per status.
func (s *DashboardService) StatusTally(ctx context.Context, principal Principal) ([]StatusCount, error) {
	snap, err := s.snapshot(ctx, principal)
	if err != nil {
		return nil, err
	}
	return StatusTally(snap.equipment), nil
}

// MonthlyHistogram buckets the visible rentals over the trailing six months.
func (s *DashboardService) MonthlyHistogram(ctx context.Context, principal Principal) ([]MonthBucket, error) {
	snap, err := s.snapshot(ctx, principal)
	if err != nil {
		return nil, err
	}
	return MonthlyHistogram(snap.rentals, snap.today), nil
}

// RecentRentals returns the n most recently created visible rentals.
func (s *DashboardService) RecentRentals(ctx context.Context, principal Principal, n int) ([]Rental, error) {
	snap, err := s.snapshot(ctx, principal)
	if err != nil {
		return nil, err
	}
	return recentRentals(snap.rentals, n), nil
}

// UpcomingMaintenance returns the next n open maintenance records, soonest first.
func (s *DashboardService) UpcomingMaintenance(ctx context.Context, principal Principal, n int) ([]Maintenance, error) {
	snap, err := s.snapshot(ctx, principal)
	if err != nil {
		return nil, err
	}
	return upcomingMaintenance(snap.maintenance, snap.today, n), nil
}

// DueForMaintenance returns up to n items due for maintenance; n <= 0 returns all of them.
func (s *DashboardService) DueForMaintenance(ctx context.Context, principal Principal, n int) ([]DueItem, error) {
	snap, err := s.snapshot(ctx, principal)
	if err != nil {
		return nil, err
	}
	return limit(MaintenanceDue(snap.equipment, snap.history, snap.today, s.options.DueAfterDays), n), nil
}

func (s *DashboardService) kpis(snap dashboardSnapshot) KPIs {
	k := KPIs{TotalEquipment: len(snap.equipment)}
	for _, item := range snap.equipment {
		switch item.Status {
		case EquipmentAvailable:
			k.AvailableEquipment++
		case EquipmentRented:
			k.RentedEquipment++
		}
	}
	for _, r := range snap.rentals {
		if IsOverdue(r, snap.today) {
			k.OverdueRentals++
		}
		if r.TotalAmount != nil {
			k.RentalRevenue += *r.TotalAmount
		}
	}
	windowEnd := snap.today.AddDays(s.options.UpcomingWindowDays)
	for _, m := range snap.maintenance {
		if IsUpcomingMaintenance(m, snap.today) && !m.Date.After(windowEnd) {
			k.UpcomingMaintenance++
		}
	}
	return k
}

// snapshot loads the collections the principal may see. Customers see the catalog and their
// own rentals but no maintenance records; the due list still reflects the full history.
func (s *DashboardService) snapshot(ctx context.Context, principal Principal) (snap dashboardSnapshot, err error) {
	if s == nil {
		err = fmt.Errorf("DashboardService is nil")
		return
	}
	if err = authorize(principal, CapReadCatalog); err != nil {
		return
	}

	today := calendar.DateOf(s.now())
	key := ""
	if s.cache != nil {
		key = buildViewCacheKey(s.revisions.Revision(), today, principal)
		if cached, ok := s.cache.Get(key); ok {
			return cached, nil
		}
	}

	snap.today = today
	if s.equipment != nil {
		if snap.equipment, err = s.equipment.ListEquipment(ctx); err != nil {
			err = mapStoreError("load dashboard equipment", err)
			return
		}
	}
	if s.rentals != nil {
		var all []Rental
		if all, err = s.rentals.ListRentals(ctx); err != nil {
			err = mapStoreError("load dashboard rentals", err)
			return
		}
		snap.rentals = scopeRentals(all, principal)
	}
	if s.maintenance != nil {
		if snap.history, err = s.maintenance.ListMaintenance(ctx); err != nil {
			err = mapStoreError("load dashboard maintenance", err)
			return
		}
		if principal.Can(CapManageMaintenance) {
			snap.maintenance = snap.history
		}
	}

	if s.cache != nil {
		s.cache.Store(key, snap)
		s.loggerWith(ctx, "snapshot").DebugContext(ctx, "dashboard snapshot cached", "key", key)
	}
	return snap, nil
}

func recentRentals(rentals []Rental, n int) []Rental {
	out := append([]Rental(nil), rentals...)
	sortRentalsByCreatedDesc(out)
	return limit(out, n)
}

func upcomingMaintenance(records []Maintenance, today calendar.Date, n int) []Maintenance {
	out := make([]Maintenance, 0, len(records))
	for _, m := range records {
		if IsUpcomingMaintenance(m, today) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return limit(out, n)
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
