package application

import (
	"sort"

	"github.com/example/equipment-rental/internal/calendar"
)

// DefaultMaintenanceDueDays is how old the latest maintenance record may get before equipment
// is due again.
const DefaultMaintenanceDueDays = 30

// IsOverdue reports whether a rental is past its end date while still out. It is a read-time
// classification and never changes the stored status.
func IsOverdue(r Rental, today calendar.Date) bool {
	if r.Status != RentalRented && r.Status != RentalOverdue {
		return false
	}
	return r.EndDate.Before(today)
}

// Occupies reports whether day falls inside the rental's inclusive date range.
func Occupies(r Rental, day calendar.Date) bool {
	if day.Equal(r.StartDate) || day.Equal(r.EndDate) {
		return true
	}
	return r.Span().Contains(day)
}

// IsUpcomingMaintenance reports whether a record is scheduled for today or later and not done.
func IsUpcomingMaintenance(m Maintenance, today calendar.Date) bool {
	return !m.Date.Before(today) && m.Status != MaintenanceCompleted
}

// StatusCount is one bar of the equipment status tally.
type StatusCount struct {
	Status EquipmentStatus `json:"status"`
	Count  int             `json:"count"`
}

// StatusTally counts equipment per status over every known status, zero-filled.
func StatusTally(items []Equipment) []StatusCount {
	counts := make(map[EquipmentStatus]int, len(EquipmentStatuses))
	for _, item := range items {
		counts[item.Status]++
	}
	out := make([]StatusCount, 0, len(EquipmentStatuses))
	for _, status := range EquipmentStatuses {
		out = append(out, StatusCount{Status: status, Count: counts[status]})
	}
	return out
}

// MonthBucket is one month of the rental histogram.
type MonthBucket struct {
	Month    string `json:"month"`
	Reserved int    `json:"reserved"`
	Active   int    `json:"active"`
	Returned int    `json:"returned"`
}

// HistogramMonths is the length of the trailing rental histogram window.
const HistogramMonths = 6

// MonthlyHistogram buckets rentals by the month of their start date over the trailing window
// ending with today's month. Rented and Overdue share the Active bucket; Cancelled rentals and
// rentals starting outside the window are not counted.
func MonthlyHistogram(rentals []Rental, today calendar.Date) []MonthBucket {
	months := calendar.TrailingMonths(today, HistogramMonths)
	index := make(map[calendar.Month]int, len(months))
	out := make([]MonthBucket, len(months))
	for i, m := range months {
		index[m] = i
		out[i] = MonthBucket{Month: m.Label()}
	}
	for _, r := range rentals {
		i, ok := index[calendar.MonthOf(r.StartDate)]
		if !ok {
			continue
		}
		switch r.Status {
		case RentalReserved:
			out[i].Reserved++
		case RentalRented, RentalOverdue:
			out[i].Active++
		case RentalReturned:
			out[i].Returned++
		}
	}
	return out
}

// DueItem is equipment that needs maintenance.
type DueItem struct {
	Equipment Equipment `json:"equipment"`
	// LastMaintenance is zero when the equipment has never been serviced.
	LastMaintenance calendar.Date `json:"lastMaintenance"`
}

// MaintenanceDue lists equipment that is not retired and has no maintenance record, or whose
// latest record is more than dueAfterDays before today. Among records with the same latest date
// the first one scanned is kept. Output follows the equipment order.
func MaintenanceDue(items []Equipment, records []Maintenance, today calendar.Date, dueAfterDays int) []DueItem {
	latest := make(map[string]Maintenance, len(records))
	for _, m := range records {
		current, ok := latest[m.EquipmentID]
		if !ok || m.Date.After(current.Date) {
			latest[m.EquipmentID] = m
		}
	}
	threshold := today.AddDays(-dueAfterDays)

	out := make([]DueItem, 0)
	for _, item := range items {
		if item.Status == EquipmentRetired {
			continue
		}
		last, ok := latest[item.ID]
		if !ok {
			out = append(out, DueItem{Equipment: item})
			continue
		}
		if last.Date.Before(threshold) {
			out = append(out, DueItem{Equipment: item, LastMaintenance: last.Date})
		}
	}
	return out
}

// scopeRentals keeps the rentals principal may see: all of them for Admin and Staff, only their
// own for a Customer.
func scopeRentals(all []Rental, principal Principal) []Rental {
	if principal.Can(CapManageRentals) {
		return all
	}
	own := make([]Rental, 0, len(all))
	for _, r := range all {
		if r.CustomerID == principal.UserID {
			own = append(own, r)
		}
	}
	return own
}

// sortRentalsByCreatedDesc orders rentals newest first, keeping stored order for ties.
func sortRentalsByCreatedDesc(rentals []Rental) {
	sort.SliceStable(rentals, func(i, j int) bool {
		return rentals[i].CreatedAt.After(rentals[j].CreatedAt)
	})
}

// sortRentalsByStart orders rentals by start date, keeping stored order for ties.
func sortRentalsByStart(rentals []Rental) {
	sort.SliceStable(rentals, func(i, j int) bool {
		return rentals[i].StartDate.Before(rentals[j].StartDate)
	})
}
