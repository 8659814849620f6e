package application

import (
	"context"
	"errors"
	"testing"
)

func seedRentals(store *fakeStore) {
	store.rentals = []Rental{
		{ID: "r1", EquipmentID: "2", CustomerID: "3", StartDate: date("2024-06-10"), EndDate: date("2024-06-20"), Status: RentalRented, TotalAmount: amount(500), CreatedAt: fixedClock("2024-06-05 09:30")()},
		{ID: "r2", EquipmentID: "1", CustomerID: "4", StartDate: date("2024-05-01"), EndDate: date("2024-05-25"), Status: RentalReturned, TotalAmount: amount(1200), CreatedAt: fixedClock("2024-04-28 09:30")()},
		{ID: "r3", EquipmentID: "1", CustomerID: "3", StartDate: date("2024-06-01"), EndDate: date("2024-06-12"), Status: RentalRented, CreatedAt: fixedClock("2024-05-30 09:30")()},
	}
}

func TestRentalService_TotalAmount(t *testing.T) {
	t.Parallel()

	svc := NewRentalService(nil, nil, nil, nil, nil, RentalOptions{})
	cases := []struct {
		start, end string
		want       float64
	}{
		{"2024-06-10", "2024-06-10", 0},
		{"2024-06-10", "2024-06-11", 50},
		{"2024-06-10", "2024-06-20", 500},
		{"2024-02-28", "2024-03-01", 100},
	}
	for _, tc := range cases {
		if got := svc.TotalAmount(date(tc.start), date(tc.end)); got != tc.want {
			t.Fatalf("TotalAmount(%s, %s) = %v, want %v", tc.start, tc.end, got, tc.want)
		}
	}

	custom := NewRentalService(nil, nil, nil, nil, nil, RentalOptions{DailyRate: 80})
	if got := custom.TotalAmount(date("2024-06-10"), date("2024-06-13")); got != 240 {
		t.Fatalf("expected configured rate to apply, got %v", got)
	}
}

func TestRentalService_Create(t *testing.T) {
	now := fixedClock("2024-06-15 09:30")

	t.Run("customer books for themselves", func(t *testing.T) {
		store := newFakeStore()
		seedEquipment(store)
		svc := newServices(store, now, DefaultNotificationPolicy()).rentals

		result, err := svc.Create(context.Background(), CreateRentalParams{
			Principal: customerPrincipal,
			Input:     RentalInput{EquipmentID: "1", StartDate: date("2024-07-01"), EndDate: date("2024-07-04")},
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		r := result.Rental
		if r.ID == "" || r.CustomerID != "3" || r.Status != RentalReserved || !r.CreatedAt.Equal(now()) {
			t.Fatalf("unexpected rental %+v", r)
		}
		if r.TotalAmount == nil || *r.TotalAmount != 150 {
			t.Fatalf("expected amount 150, got %v", r.TotalAmount)
		}
		if len(store.notifications) != 1 {
			t.Fatalf("expected one notification, got %d", len(store.notifications))
		}
		n := store.notifications[0]
		if n.Type != NotificationRental || n.Message != "New rental created for equipment ID: 1" || n.RelatedID != r.ID {
			t.Fatalf("unexpected notification %+v", n)
		}
	})

	t.Run("customer cannot book for others or preset status", func(t *testing.T) {
		store := newFakeStore()
		seedEquipment(store)
		svc := newServices(store, now, DefaultNotificationPolicy()).rentals

		inputs := []RentalInput{
			{EquipmentID: "1", CustomerID: "4", StartDate: date("2024-07-01"), EndDate: date("2024-07-02")},
			{EquipmentID: "1", Status: RentalRented, StartDate: date("2024-07-01"), EndDate: date("2024-07-02")},
		}
		for _, input := range inputs {
			if _, err := svc.Create(context.Background(), CreateRentalParams{Principal: customerPrincipal, Input: input}); !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized for %+v, got %v", input, err)
			}
		}
		if len(store.rentals) != 0 {
			t.Fatalf("expected nothing stored")
		}
	})

	t.Run("rejects inverted range and unavailable equipment", func(t *testing.T) {
		store := newFakeStore()
		seedEquipment(store)
		svc := newServices(store, now, DefaultNotificationPolicy()).rentals

		_, err := svc.Create(context.Background(), CreateRentalParams{
			Principal: staffPrincipal,
			Input:     RentalInput{EquipmentID: "1", CustomerID: "3", StartDate: date("2024-07-05"), EndDate: date("2024-07-01")},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["endDate"] == "" {
			t.Fatalf("expected endDate validation error, got %v", err)
		}

		_, err = svc.Create(context.Background(), CreateRentalParams{
			Principal: staffPrincipal,
			Input:     RentalInput{EquipmentID: "2", CustomerID: "1", StartDate: date("2024-07-01"), EndDate: date("2024-07-02")},
		})
		if !errors.As(err, &vErr) || vErr.FieldErrors["equipmentId"] == "" || vErr.FieldErrors["customerId"] == "" {
			t.Fatalf("expected equipment and customer errors, got %v", err)
		}
		if len(store.rentals) != 0 || len(store.notifications) != 0 {
			t.Fatalf("expected nothing stored")
		}
	})

	t.Run("overlap is a warning", func(t *testing.T) {
		store := newFakeStore()
		seedEquipment(store)
		store.rentals = []Rental{
			{ID: "held", EquipmentID: "1", CustomerID: "4", StartDate: date("2024-07-01"), EndDate: date("2024-07-05"), Status: RentalReserved},
			{ID: "done", EquipmentID: "1", CustomerID: "4", StartDate: date("2024-07-01"), EndDate: date("2024-07-05"), Status: RentalCancelled},
		}
		svc := newServices(store, now, DefaultNotificationPolicy()).rentals

		result, err := svc.Create(context.Background(), CreateRentalParams{
			Principal: staffPrincipal,
			Input:     RentalInput{EquipmentID: "1", CustomerID: "3", StartDate: date("2024-07-04"), EndDate: date("2024-07-08")},
		})
		if err != nil {
			t.Fatalf("expected overlap not to block, got %v", err)
		}
		if len(result.Warnings) != 1 {
			t.Fatalf("expected one warning, got %+v", result.Warnings)
		}
		w := result.Warnings[0]
		if w.RentalID != "held" || !w.From.Equal(date("2024-07-04")) || !w.To.Equal(date("2024-07-05")) {
			t.Fatalf("unexpected warning %+v", w)
		}
		if len(store.rentals) != 3 {
			t.Fatalf("expected rental stored, got %d", len(store.rentals))
		}
	})
}

func TestRentalService_Update(t *testing.T) {
	now := fixedClock("2024-06-15 09:30")

	t.Run("returning notifies and reprices", func(t *testing.T) {
		store := newFakeStore()
		seedEquipment(store)
		seedRentals(store)
		svc := newServices(store, now, DefaultNotificationPolicy()).rentals

		result, err := svc.Update(context.Background(), UpdateRentalParams{
			Principal: staffPrincipal,
			RentalID:  "r1",
			Input:     RentalInput{EquipmentID: "2", CustomerID: "3", StartDate: date("2024-06-10"), EndDate: date("2024-06-14"), Status: RentalReturned},
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		r := result.Rental
		if r.Status != RentalReturned || *r.TotalAmount != 200 || !r.CreatedAt.Equal(store.rentals[0].CreatedAt) {
			t.Fatalf("unexpected rental %+v", r)
		}
		if len(store.notifications) != 1 || store.notifications[0].Message != "Rental for equipment ID: 2 has been returned" || store.notifications[0].RelatedID != "r1" {
			t.Fatalf("unexpected notifications %+v", store.notifications)
		}

		// saving again re-fires under the default policy
		if _, err := svc.Update(context.Background(), UpdateRentalParams{Principal: staffPrincipal, RentalID: "r1", Input: RentalInput{EquipmentID: "2", CustomerID: "3", StartDate: date("2024-06-10"), EndDate: date("2024-06-14"), Status: RentalReturned}}); err != nil {
			t.Fatalf("update: %v", err)
		}
		if len(store.notifications) != 2 {
			t.Fatalf("expected re-fire, got %d notifications", len(store.notifications))
		}
	})

	t.Run("transition policy fires once", func(t *testing.T) {
		store := newFakeStore()
		seedEquipment(store)
		seedRentals(store)
		svc := newServices(store, now, NotificationPolicy{Refire: RefireOnTransition}).rentals
		input := RentalInput{EquipmentID: "2", CustomerID: "3", StartDate: date("2024-06-10"), EndDate: date("2024-06-20"), Status: RentalReturned}

		for i := 0; i < 2; i++ {
			if _, err := svc.Update(context.Background(), UpdateRentalParams{Principal: staffPrincipal, RentalID: "r1", Input: input}); err != nil {
				t.Fatalf("update: %v", err)
			}
		}
		if len(store.notifications) != 1 {
			t.Fatalf("expected a single notification, got %d", len(store.notifications))
		}
	})

	t.Run("customer restrictions", func(t *testing.T) {
		store := newFakeStore()
		seedEquipment(store)
		seedRentals(store)
		svc := newServices(store, now, DefaultNotificationPolicy()).rentals

		own := RentalInput{EquipmentID: "2", CustomerID: "3", StartDate: date("2024-06-10"), EndDate: date("2024-06-20"), Status: RentalRented, Notes: "call first"}
		if _, err := svc.Update(context.Background(), UpdateRentalParams{Principal: customerPrincipal, RentalID: "r1", Input: own}); err != nil {
			t.Fatalf("expected customer to edit own notes, got %v", err)
		}
		if store.rentals[0].Notes != "call first" {
			t.Fatalf("expected notes stored, got %+v", store.rentals[0])
		}

		returned := own
		returned.Status = RentalReturned
		if _, err := svc.Update(context.Background(), UpdateRentalParams{Principal: customerPrincipal, RentalID: "r1", Input: returned}); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected status change to be refused, got %v", err)
		}
		if _, err := svc.Update(context.Background(), UpdateRentalParams{Principal: otherCustomer, RentalID: "r1", Input: own}); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected other customer to be refused, got %v", err)
		}
		if err := svc.Delete(context.Background(), customerPrincipal, "r1"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected customer delete to be refused, got %v", err)
		}
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		store := newFakeStore()
		seedEquipment(store)
		seedRentals(store)
		svc := newServices(store, now, DefaultNotificationPolicy()).rentals
		writes := store.writes

		result, err := svc.Update(context.Background(), UpdateRentalParams{
			Principal: staffPrincipal,
			RentalID:  "missing",
			Input:     RentalInput{EquipmentID: "1", CustomerID: "3", StartDate: date("2024-06-10"), EndDate: date("2024-06-11"), Status: RentalReturned},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Rental.ID != "missing" || store.writes != writes || len(store.notifications) != 0 {
			t.Fatalf("expected nothing written, got %+v", result)
		}
	})
}

func TestRentalService_Queries(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	seedEquipment(store)
	seedRentals(store)
	svc := newServices(store, fixedClock("2024-06-15 09:30"), DefaultNotificationPolicy()).rentals

	all, err := svc.List(ctx, staffPrincipal, RentalFilter{})
	if err != nil || len(all) != 3 || all[0].ID != "r1" || all[2].ID != "r2" {
		t.Fatalf("expected createdAt descending, got %+v %v", all, err)
	}

	own, _ := svc.List(ctx, customerPrincipal, RentalFilter{})
	if len(own) != 2 {
		t.Fatalf("expected customer to see 2 rentals, got %d", len(own))
	}
	for _, r := range own {
		if r.CustomerID != "3" {
			t.Fatalf("customer saw foreign rental %+v", r)
		}
	}

	bySearch, _ := svc.List(ctx, staffPrincipal, RentalFilter{Search: "excav", Status: RentalReturned})
	if len(bySearch) != 1 || bySearch[0].ID != "r2" {
		t.Fatalf("expected search by equipment name, got %+v", bySearch)
	}

	if _, err := svc.Get(ctx, customerPrincipal, "r2"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected foreign rental to be refused, got %v", err)
	}
	if _, err := svc.Get(ctx, staffPrincipal, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	overdue, _ := svc.Overdue(ctx, staffPrincipal)
	if len(overdue) != 1 || overdue[0].ID != "r3" {
		t.Fatalf("expected r3 overdue, got %+v", overdue)
	}
	if store.rentals[2].Status != RentalRented {
		t.Fatalf("expected stored status untouched")
	}

	byEquipment, _ := svc.ByEquipment(ctx, staffPrincipal, "1")
	if len(byEquipment) != 2 || byEquipment[0].ID != "r2" {
		t.Fatalf("expected stored order, got %+v", byEquipment)
	}
	if _, err := svc.ByCustomer(ctx, customerPrincipal, "4"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	byStatus, _ := svc.ByStatus(ctx, staffPrincipal, RentalRented)
	if len(byStatus) != 2 {
		t.Fatalf("expected 2 rented, got %d", len(byStatus))
	}

	options, _ := svc.EquipmentOptions(ctx, staffPrincipal, "2")
	if len(options) != 2 || options[0].ID != "1" || options[1].ID != "2" {
		t.Fatalf("expected available items plus current, got %+v", options)
	}

	customers, _ := svc.Customers(ctx, staffPrincipal)
	if len(customers) != 2 {
		t.Fatalf("expected 2 customers, got %+v", customers)
	}
	self, _ := svc.Customers(ctx, customerPrincipal)
	if len(self) != 1 || self[0].ID != "3" {
		t.Fatalf("expected customer to see only themselves, got %+v", self)
	}

	store.listErr = errWriteFailed
	if _, err := svc.List(ctx, staffPrincipal, RentalFilter{}); !errors.Is(err, errWriteFailed) {
		t.Fatalf("expected list error to surface, got %v", err)
	}
}
