package persistence

// Collection keys as laid out in storage.
const (
	KeyUsers         = "users"
	KeyEquipment     = "equipment"
	KeyRentals       = "rentals"
	KeyMaintenance   = "maintenance"
	KeyNotifications = "notifications"
	KeyCurrentUser   = "currentUser"
)

// TimestampLayout matches the millisecond UTC instants written by the seed and services.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// User is a stored account. Password holds either plaintext or an argon2id hash.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// SessionUser is the password-stripped identity kept under KeyCurrentUser.
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Equipment is a stored rentable item.
type Equipment struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Category        string `json:"category"`
	Condition       string `json:"condition"`
	Status          string `json:"status"`
	Description     string `json:"description,omitempty"`
	AcquisitionDate string `json:"acquisitionDate,omitempty"`
	Image           string `json:"image,omitempty"`
}

// Rental is a stored rental order.
type Rental struct {
	ID          string   `json:"id"`
	EquipmentID string   `json:"equipmentId"`
	CustomerID  string   `json:"customerId"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Status      string   `json:"status"`
	Notes       string   `json:"notes,omitempty"`
	TotalAmount *float64 `json:"totalAmount,omitempty"`
	CreatedAt   string   `json:"createdAt"`
}

// Maintenance is a stored maintenance record.
type Maintenance struct {
	ID          string `json:"id"`
	EquipmentID string `json:"equipmentId"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	Notes       string `json:"notes"`
	CompletedBy string `json:"completedBy,omitempty"`
	Status      string `json:"status"`
}

// Notification is a stored feed entry.
type Notification struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Read      bool   `json:"read"`
	RelatedID string `json:"relatedId,omitempty"`
}
