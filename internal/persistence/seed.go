package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// SeedMode selects what Bootstrap writes into an empty store.
type SeedMode string

const (
	// SeedDemo writes the fixed demonstration dataset.
	SeedDemo SeedMode = "demo"
	// SeedEmpty writes five empty collections.
	SeedEmpty SeedMode = "empty"
)

// BootstrapOptions controls first-run initialisation.
type BootstrapOptions struct {
	Mode SeedMode
	// Now anchors the relative dates of the demo dataset.
	Now func() time.Time
	// HashPassword, when set, transforms demo passwords before they are stored.
	HashPassword func(password string) (string, error)
}

// Bootstrap initialises the store when the users collection has never been written.
// It reports whether anything was written.
func (s *Store) Bootstrap(ctx context.Context, opts BootstrapOptions) (bool, error) {
	started := time.Now()
	_, err := s.backend.Read(ctx, KeyUsers)
	s.observe(KeyUsers, "read", started, err)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, ErrKeyNotFound):
		return false, storageError("read", KeyUsers, err)
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	var data Dataset
	switch opts.Mode {
	case SeedEmpty:
		data = Dataset{}
	case SeedDemo, "":
		data = DemoDataset(now())
	default:
		return false, fmt.Errorf("persistence: unknown seed mode %q", opts.Mode)
	}

	if opts.HashPassword != nil {
		for i := range data.Users {
			hashed, err := opts.HashPassword(data.Users[i].Password)
			if err != nil {
				return false, fmt.Errorf("persistence: hash seed password for %s: %w", data.Users[i].Email, err)
			}
			data.Users[i].Password = hashed
		}
	}

	payloads, err := data.encode(s.codec)
	if err != nil {
		return false, err
	}
	if err := s.writeBatch(ctx, payloads); err != nil {
		return false, err
	}
	s.refreshAll()
	s.logger.InfoContext(ctx, "store bootstrapped",
		"mode", string(opts.Mode), "driver", s.Driver(),
		"users", len(data.Users), "equipment", len(data.Equipment), "rentals", len(data.Rentals))
	return true, nil
}

// Dataset is the content of all five collections.
type Dataset struct {
	Users         []User
	Equipment     []Equipment
	Rentals       []Rental
	Maintenance   []Maintenance
	Notifications []Notification
}

func (d Dataset) encode(codec Codec) (map[string][]byte, error) {
	out := make(map[string][]byte, 5)
	parts := []struct {
		key   string
		value any
	}{
		{KeyUsers, nonNil(d.Users)},
		{KeyEquipment, nonNil(d.Equipment)},
		{KeyRentals, nonNil(d.Rentals)},
		{KeyMaintenance, nonNil(d.Maintenance)},
		{KeyNotifications, nonNil(d.Notifications)},
	}
	for _, part := range parts {
		payload, err := codec.Marshal(part.value)
		if err != nil {
			return nil, storageError("encode", part.key, err)
		}
		out[part.key] = payload
	}
	return out, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// DemoDataset returns the demonstration records with dates relative to now.
func DemoDataset(now time.Time) Dataset {
	day := func(offset int) string {
		return now.AddDate(0, 0, offset).Format("2006-01-02")
	}
	instant := func(offset int) string {
		return now.AddDate(0, 0, offset).UTC().Format(TimestampLayout)
	}
	amount := func(v float64) *float64 { return &v }

	return Dataset{
		Users: []User{
			{ID: "1", Email: "admin@entnt.in", Password: "admin123", Role: "Admin"},
			{ID: "2", Email: "staff@entnt.in", Password: "staff123", Role: "Staff"},
			{ID: "3", Email: "customer@entnt.in", Password: "cust123", Role: "Customer"},
		},
		Equipment: []Equipment{
			{
				ID: "eq1", Name: "Excavator XL2000", Category: "Heavy Machinery",
				Condition: "Good", Status: "Available",
				Description:     "Large excavator ideal for major construction projects",
				AcquisitionDate: "2023-01-15",
				Image:           "https://images.pexels.com/photos/2602538/pexels-photo-2602538.jpeg",
			},
			{
				ID: "eq2", Name: "Concrete Mixer CM500", Category: "Construction",
				Condition: "Excellent", Status: "Rented",
				Description:     "Medium-sized concrete mixer with 500L capacity",
				AcquisitionDate: "2023-03-22",
				Image:           "https://images.pexels.com/photos/2760289/pexels-photo-2760289.jpeg",
			},
			{
				ID: "eq3", Name: "Electric Generator G3000", Category: "Power Equipment",
				Condition: "Good", Status: "Available",
				Description:     "3000W portable generator for construction sites",
				AcquisitionDate: "2023-05-10",
				Image:           "https://images.pexels.com/photos/3855962/pexels-photo-3855962.jpeg",
			},
			{
				ID: "eq4", Name: "Jackhammer J45", Category: "Hand Tools",
				Condition: "Fair", Status: "Maintenance",
				Description:     "Pneumatic jackhammer for breaking concrete",
				AcquisitionDate: "2022-11-05",
				Image:           "https://images.pexels.com/photos/159358/construction-site-build-construction-work-159358.jpeg",
			},
			{
				ID: "eq5", Name: "Boom Lift 30ft", Category: "Aerial Equipment",
				Condition: "Excellent", Status: "Available",
				Description:     "30ft articulating boom lift for high access",
				AcquisitionDate: "2024-01-10",
				Image:           "https://images.pexels.com/photos/2068339/pexels-photo-2068339.jpeg",
			},
		},
		Rentals: []Rental{
			{
				ID: "r1", EquipmentID: "eq2", CustomerID: "3",
				StartDate: day(-5), EndDate: day(5), Status: "Rented",
				Notes: "Customer requested delivery", TotalAmount: amount(450), CreatedAt: instant(-10),
			},
			{
				ID: "r2", EquipmentID: "eq1", CustomerID: "3",
				StartDate: day(10), EndDate: day(20), Status: "Reserved",
				TotalAmount: amount(1200), CreatedAt: instant(-2),
			},
			{
				ID: "r3", EquipmentID: "eq3", CustomerID: "3",
				StartDate: day(-15), EndDate: day(-10), Status: "Returned",
				Notes: "Returned in good condition", TotalAmount: amount(250), CreatedAt: instant(-20),
			},
		},
		Maintenance: []Maintenance{
			{
				ID: "m1", EquipmentID: "eq4", Date: day(-2), Type: "Repair",
				Notes: "Replacing worn parts and general servicing", CompletedBy: "Tech Team", Status: "In Progress",
			},
			{
				ID: "m2", EquipmentID: "eq1", Date: day(5), Type: "Routine Check",
				Notes: "Scheduled inspection and oil change", Status: "Scheduled",
			},
			{
				ID: "m3", EquipmentID: "eq3", Date: day(-10), Type: "Inspection",
				Notes: "Annual safety inspection completed", CompletedBy: "Safety Inspector", Status: "Completed",
			},
		},
		Notifications: []Notification{
			{ID: "n1", Type: "rental", Message: "New rental order created for Concrete Mixer", Timestamp: instant(-10), Read: false, RelatedID: "r1"},
			{ID: "n2", Type: "maintenance", Message: "Maintenance scheduled for Jackhammer J45", Timestamp: instant(-3), Read: true, RelatedID: "m1"},
			{ID: "n3", Type: "equipment", Message: "Electric Generator G3000 has been returned", Timestamp: instant(-10), Read: false, RelatedID: "eq3"},
		},
	}
}
