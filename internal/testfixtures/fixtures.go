package testfixtures

import (
	"fmt"
	"sync/atomic"

	"github.com/example/equipment-rental/internal/persistence"
)

var (
	equipmentCounter   uint64
	rentalCounter      uint64
	maintenanceCounter uint64
)

// Demo account credentials as written by the demo seed.
const (
	AdminEmail       = "admin@entnt.in"
	AdminPassword    = "admin123"
	StaffEmail       = "staff@entnt.in"
	StaffPassword    = "staff123"
	CustomerEmail    = "customer@entnt.in"
	CustomerPassword = "cust123"
	CustomerID       = "3"
)

// Users returns one account per role, matching the demo seed.
func Users() []persistence.User {
	return []persistence.User{
		{ID: "1", Email: AdminEmail, Password: AdminPassword, Role: "Admin"},
		{ID: "2", Email: StaffEmail, Password: StaffPassword, Role: "Staff"},
		{ID: CustomerID, Email: CustomerEmail, Password: CustomerPassword, Role: "Customer"},
	}
}

// ----------------------------- Equipment fixtures -----------------------------

// EquipmentOption configures a generated equipment record.
type EquipmentOption func(*persistence.Equipment)

// NewEquipment returns an available equipment record with a unique id.
func NewEquipment(opts ...EquipmentOption) persistence.Equipment {
	idx := atomic.AddUint64(&equipmentCounter, 1)
	record := persistence.Equipment{
		ID:              fmt.Sprintf("eq-%03d", idx),
		Name:            fmt.Sprintf("Equipment %03d", idx),
		Category:        "General",
		Condition:       "Good",
		Status:          "Available",
		AcquisitionDate: "2023-01-01",
	}
	for _, opt := range opts {
		opt(&record)
	}
	return record
}

// WithEquipmentID overrides the identifier.
func WithEquipmentID(id string) EquipmentOption {
	return func(e *persistence.Equipment) { e.ID = id }
}

// WithEquipmentName overrides the name.
func WithEquipmentName(name string) EquipmentOption {
	return func(e *persistence.Equipment) { e.Name = name }
}

// WithEquipmentStatus overrides the status.
func WithEquipmentStatus(status string) EquipmentOption {
	return func(e *persistence.Equipment) { e.Status = status }
}

// WithCategory overrides the category.
func WithCategory(category string) EquipmentOption {
	return func(e *persistence.Equipment) { e.Category = category }
}

// ----------------------------- Rental fixtures -----------------------------

// RentalOption configures a generated rental record.
type RentalOption func(*persistence.Rental)

// NewRental returns a reserved rental for the demo customer spanning the reference week.
func NewRental(equipmentID string, opts ...RentalOption) persistence.Rental {
	idx := atomic.AddUint64(&rentalCounter, 1)
	record := persistence.Rental{
		ID:          fmt.Sprintf("rental-%03d", idx),
		EquipmentID: equipmentID,
		CustomerID:  CustomerID,
		StartDate:   "2024-06-16",
		EndDate:     "2024-06-22",
		Status:      "Reserved",
		TotalAmount: amount(300),
		CreatedAt:   ReferenceTime().Format(persistence.TimestampLayout),
	}
	for _, opt := range opts {
		opt(&record)
	}
	return record
}

// WithRentalID overrides the identifier.
func WithRentalID(id string) RentalOption {
	return func(r *persistence.Rental) { r.ID = id }
}

// WithRentalDates overrides the start and end dates (YYYY-MM-DD).
func WithRentalDates(start, end string) RentalOption {
	return func(r *persistence.Rental) {
		r.StartDate = start
		r.EndDate = end
	}
}

// WithRentalStatus overrides the status.
func WithRentalStatus(status string) RentalOption {
	return func(r *persistence.Rental) { r.Status = status }
}

// WithCustomer overrides the customer.
func WithCustomer(customerID string) RentalOption {
	return func(r *persistence.Rental) { r.CustomerID = customerID }
}

// ----------------------------- Maintenance fixtures -----------------------------

// MaintenanceOption configures a generated maintenance record.
type MaintenanceOption func(*persistence.Maintenance)

// NewMaintenance returns a scheduled routine check on the reference date.
func NewMaintenance(equipmentID string, opts ...MaintenanceOption) persistence.Maintenance {
	idx := atomic.AddUint64(&maintenanceCounter, 1)
	record := persistence.Maintenance{
		ID:          fmt.Sprintf("maint-%03d", idx),
		EquipmentID: equipmentID,
		Date:        "2024-06-15",
		Type:        "Routine Check",
		Notes:       fmt.Sprintf("Check %03d", idx),
		Status:      "Scheduled",
	}
	for _, opt := range opts {
		opt(&record)
	}
	return record
}

// WithMaintenanceDate overrides the date (YYYY-MM-DD).
func WithMaintenanceDate(date string) MaintenanceOption {
	return func(m *persistence.Maintenance) { m.Date = date }
}

// WithMaintenanceStatus overrides the status.
func WithMaintenanceStatus(status string) MaintenanceOption {
	return func(m *persistence.Maintenance) { m.Status = status }
}

func amount(v float64) *float64 {
	return &v
}
