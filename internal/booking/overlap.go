package booking

import (
	"sort"

	"github.com/example/equipment-rental/internal/calendar"
)

// Booking is the slice of a rental that matters for double-booking detection.
type Booking struct {
	ID          string
	EquipmentID string
	Span        calendar.Span
	// Active is false for bookings that no longer hold the equipment (returned or cancelled).
	Active bool
}

// Overlap describes an existing booking that shares days with a candidate.
type Overlap struct {
	WithBookingID string
	EquipmentID   string
	From          calendar.Date
	To            calendar.Date
}

// DetectOverlaps returns the active bookings of the candidate's equipment whose spans intersect
// the candidate's span, ordered by the start of the shared range. The candidate itself is skipped
// when it appears in existing.
func DetectOverlaps(existing []Booking, candidate Booking) []Overlap {
	if candidate.EquipmentID == "" || !candidate.Active {
		return nil
	}
	var out []Overlap
	for _, other := range existing {
		if !other.Active || other.EquipmentID != candidate.EquipmentID {
			continue
		}
		if candidate.ID != "" && other.ID == candidate.ID {
			continue
		}
		if !candidate.Span.Overlaps(other.Span) {
			continue
		}
		out = append(out, Overlap{
			WithBookingID: other.ID,
			EquipmentID:   other.EquipmentID,
			From:          later(candidate.Span.Start, other.Span.Start),
			To:            earlier(candidate.Span.End, other.Span.End),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].From.Equal(out[j].From) {
			return out[i].From.Before(out[j].From)
		}
		return out[i].WithBookingID < out[j].WithBookingID
	})
	return out
}

func later(a, b calendar.Date) calendar.Date {
	if a.After(b) {
		return a
	}
	return b
}

func earlier(a, b calendar.Date) calendar.Date {
	if a.Before(b) {
		return a
	}
	return b
}
