package application

import (
	"context"
	"reflect"
	"testing"
)

func TestCalendarService_RentalsOn(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	seedRentals(store)
	svc := NewCalendarService(store, fixedClock("2024-06-15 09:30"))

	day, err := svc.RentalsOn(ctx, staffPrincipal, date("2024-06-11"))
	if err != nil {
		t.Fatalf("rentals on: %v", err)
	}
	if len(day) != 2 || day[0].ID != "r3" || day[1].ID != "r1" {
		t.Fatalf("expected start-date order, got %+v", day)
	}

	other, _ := svc.RentalsOn(ctx, otherCustomer, date("2024-06-11"))
	if len(other) != 0 {
		t.Fatalf("expected other customer to see nothing, got %+v", other)
	}

	if !svc.Today().Equal(date("2024-06-15")) {
		t.Fatalf("unexpected today %v", svc.Today())
	}
}

func TestCalendarService_Grids(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	seedRentals(store)
	svc := NewCalendarService(store, nil)

	week, err := svc.Week(ctx, staffPrincipal, date("2024-06-12"))
	if err != nil {
		t.Fatalf("week: %v", err)
	}
	if len(week) != 7 || !week[0].Date.Equal(date("2024-06-09")) || !week[6].Date.Equal(date("2024-06-15")) {
		t.Fatalf("expected Sunday-to-Saturday week, got %v..%v", week[0].Date, week[len(week)-1].Date)
	}
	if !reflect.DeepEqual(week[0].RentalIDs, []string{"r3"}) {
		t.Fatalf("unexpected Sunday cell %+v", week[0])
	}
	if !reflect.DeepEqual(week[1].RentalIDs, []string{"r3", "r1"}) {
		t.Fatalf("unexpected Monday cell %+v", week[1])
	}
	if !reflect.DeepEqual(week[4].RentalIDs, []string{"r1"}) {
		t.Fatalf("unexpected Thursday cell %+v", week[4])
	}

	month, err := svc.Month(ctx, customerPrincipal, date("2024-05-20"))
	if err != nil {
		t.Fatalf("month: %v", err)
	}
	if len(month) != 31 {
		t.Fatalf("expected 31 days in May, got %d", len(month))
	}
	for _, cell := range month {
		for _, id := range cell.RentalIDs {
			if id == "r2" {
				t.Fatalf("customer saw another customer's rental on %v", cell.Date)
			}
		}
	}
	if len(month[0].RentalIDs) != 0 || dayCell(month, "2024-05-31") == nil {
		t.Fatalf("unexpected month grid")
	}
}

func dayCell(days []CalendarDay, value string) *CalendarDay {
	for i := range days {
		if days[i].Date.Equal(date(value)) {
			return &days[i]
		}
	}
	return nil
}
