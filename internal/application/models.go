package application

import (
	"time"

	"github.com/example/equipment-rental/internal/calendar"
)

// Role is the access level of a user.
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleStaff    Role = "Staff"
	RoleCustomer Role = "Customer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleCustomer:
		return true
	}
	return false
}

// EquipmentStatus is the availability state of an equipment item.
type EquipmentStatus string

const (
	EquipmentAvailable   EquipmentStatus = "Available"
	EquipmentRented      EquipmentStatus = "Rented"
	EquipmentMaintenance EquipmentStatus = "Maintenance"
	EquipmentRetired     EquipmentStatus = "Retired"
)

// EquipmentStatuses lists every status in display order.
var EquipmentStatuses = []EquipmentStatus{EquipmentAvailable, EquipmentRented, EquipmentMaintenance, EquipmentRetired}

// EquipmentCondition grades the physical state of an item.
type EquipmentCondition string

const (
	ConditionExcellent EquipmentCondition = "Excellent"
	ConditionGood      EquipmentCondition = "Good"
	ConditionFair      EquipmentCondition = "Fair"
	ConditionPoor      EquipmentCondition = "Poor"
)

var equipmentConditions = []EquipmentCondition{ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor}

// RentalStatus is the stored state of a rental order.
type RentalStatus string

const (
	RentalReserved  RentalStatus = "Reserved"
	RentalRented    RentalStatus = "Rented"
	RentalReturned  RentalStatus = "Returned"
	RentalCancelled RentalStatus = "Cancelled"
	RentalOverdue   RentalStatus = "Overdue"
)

var rentalStatuses = []RentalStatus{RentalReserved, RentalRented, RentalReturned, RentalCancelled, RentalOverdue}

// holdsEquipment reports whether a rental in this status still claims its equipment.
func (s RentalStatus) holdsEquipment() bool {
	return s == RentalReserved || s == RentalRented || s == RentalOverdue
}

// MaintenanceType classifies a maintenance record.
type MaintenanceType string

const (
	MaintenanceRoutineCheck MaintenanceType = "Routine Check"
	MaintenanceRepair       MaintenanceType = "Repair"
	MaintenanceInspection   MaintenanceType = "Inspection"
	MaintenanceCalibration  MaintenanceType = "Calibration"
)

var maintenanceTypes = []MaintenanceType{MaintenanceRoutineCheck, MaintenanceRepair, MaintenanceInspection, MaintenanceCalibration}

// MaintenanceStatus is the progress of a maintenance record.
type MaintenanceStatus string

const (
	MaintenanceScheduled  MaintenanceStatus = "Scheduled"
	MaintenanceInProgress MaintenanceStatus = "In Progress"
	MaintenanceCompleted  MaintenanceStatus = "Completed"
)

var maintenanceStatuses = []MaintenanceStatus{MaintenanceScheduled, MaintenanceInProgress, MaintenanceCompleted}

// NotificationType names the collection an event originated from.
type NotificationType string

const (
	NotificationRental      NotificationType = "rental"
	NotificationMaintenance NotificationType = "maintenance"
	NotificationEquipment   NotificationType = "equipment"
)

func isMember[T comparable](value T, set []T) bool {
	for _, candidate := range set {
		if candidate == value {
			return true
		}
	}
	return false
}

// Identity is a signed-in user without the password.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// UserAccount is a stored user including the password value.
type UserAccount struct {
	ID       string
	Email    string
	Password string
	Role     Role
}

// Identity strips the password.
func (u UserAccount) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Role: u.Role}
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   Role
}

// Equipment is an item that can be rented out.
type Equipment struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Category        string             `json:"category"`
	Condition       EquipmentCondition `json:"condition"`
	Status          EquipmentStatus    `json:"status"`
	Description     string             `json:"description,omitempty"`
	AcquisitionDate calendar.Date      `json:"acquisitionDate"`
	Image           string             `json:"image,omitempty"`
}

// EquipmentInput captures caller provided equipment fields.
type EquipmentInput struct {
	Name            string
	Category        string
	Condition       EquipmentCondition
	Status          EquipmentStatus
	Description     string
	AcquisitionDate calendar.Date
	Image           string
}

// EquipmentFilter narrows an equipment listing. Empty fields match everything.
type EquipmentFilter struct {
	Search   string
	Category string
	Status   EquipmentStatus
}

// CreateEquipmentParams wraps the data required to create equipment.
type CreateEquipmentParams struct {
	Principal Principal
	Input     EquipmentInput
}

// UpdateEquipmentParams wraps the data required to update equipment.
type UpdateEquipmentParams struct {
	Principal   Principal
	EquipmentID string
	Input       EquipmentInput
}

// Rental is a rental order of one equipment item by one customer.
type Rental struct {
	ID          string        `json:"id"`
	EquipmentID string        `json:"equipmentId"`
	CustomerID  string        `json:"customerId"`
	StartDate   calendar.Date `json:"startDate"`
	EndDate     calendar.Date `json:"endDate"`
	Status      RentalStatus  `json:"status"`
	Notes       string        `json:"notes,omitempty"`
	TotalAmount *float64      `json:"totalAmount,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// Span returns the inclusive date range of the rental.
func (r Rental) Span() calendar.Span {
	return calendar.Span{Start: r.StartDate, End: r.EndDate}
}

// RentalInput captures caller provided rental fields.
type RentalInput struct {
	EquipmentID string
	CustomerID  string
	StartDate   calendar.Date
	EndDate     calendar.Date
	Status      RentalStatus
	Notes       string
}

// RentalFilter narrows a rental listing. Search matches the equipment name.
type RentalFilter struct {
	Status RentalStatus
	Search string
}

// CreateRentalParams wraps the data required to create a rental.
type CreateRentalParams struct {
	Principal Principal
	Input     RentalInput
}

// UpdateRentalParams wraps the data required to update a rental.
type UpdateRentalParams struct {
	Principal Principal
	RentalID  string
	Input     RentalInput
}

// OverlapWarning flags another active rental of the same equipment sharing days with the
// rental just written. It never blocks the write.
type OverlapWarning struct {
	RentalID    string        `json:"rentalId"`
	EquipmentID string        `json:"equipmentId"`
	From        calendar.Date `json:"from"`
	To          calendar.Date `json:"to"`
}

// RentalResult is a written rental with its overlap warnings.
type RentalResult struct {
	Rental   Rental           `json:"rental"`
	Warnings []OverlapWarning `json:"warnings,omitempty"`
}

// Maintenance is a service record for one equipment item.
type Maintenance struct {
	ID          string            `json:"id"`
	EquipmentID string            `json:"equipmentId"`
	Date        calendar.Date     `json:"date"`
	Type        MaintenanceType   `json:"type"`
	Notes       string            `json:"notes"`
	CompletedBy string            `json:"completedBy,omitempty"`
	Status      MaintenanceStatus `json:"status"`
}

// MaintenanceInput captures caller provided maintenance fields.
type MaintenanceInput struct {
	EquipmentID string
	Date        calendar.Date
	Type        MaintenanceType
	Notes       string
	CompletedBy string
	Status      MaintenanceStatus
}

// MaintenanceFilter narrows a maintenance listing. Search matches the notes.
type MaintenanceFilter struct {
	Status MaintenanceStatus
	Type   MaintenanceType
	Search string
}

// CreateMaintenanceParams wraps the data required to create a maintenance record.
type CreateMaintenanceParams struct {
	Principal Principal
	Input     MaintenanceInput
}

// UpdateMaintenanceParams wraps the data required to update a maintenance record.
type UpdateMaintenanceParams struct {
	Principal     Principal
	MaintenanceID string
	Input         MaintenanceInput
}

// Notification is one entry of the notification feed.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Read      bool             `json:"read"`
	RelatedID string           `json:"relatedId,omitempty"`
}
