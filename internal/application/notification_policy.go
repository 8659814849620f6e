package application

import (
	"fmt"
	"strings"
)

// RefireMode controls whether re-saving a finished record notifies again.
type RefireMode string

const (
	// RefireAlways notifies on every update whose resulting status is Returned or Completed.
	RefireAlways RefireMode = "always"
	// RefireOnTransition notifies only when the status changes into Returned or Completed.
	RefireOnTransition RefireMode = "transition"
)

// ParseRefireMode maps a configuration value to a RefireMode.
func ParseRefireMode(value string) (RefireMode, error) {
	switch RefireMode(strings.ToLower(strings.TrimSpace(value))) {
	case RefireAlways, "":
		return RefireAlways, nil
	case RefireOnTransition:
		return RefireOnTransition, nil
	}
	return "", fmt.Errorf("unknown refire mode %q", value)
}

// NotificationEvent is a feed entry a mutation should produce.
type NotificationEvent struct {
	Type      NotificationType
	Message   string
	RelatedID string
}

// NotificationPolicy decides which domain events notify and with what text.
type NotificationPolicy struct {
	Refire RefireMode
}

// DefaultNotificationPolicy re-fires on every finished update.
func DefaultNotificationPolicy() NotificationPolicy {
	return NotificationPolicy{Refire: RefireAlways}
}

func (p NotificationPolicy) EquipmentCreated(e Equipment) (NotificationEvent, bool) {
	return NotificationEvent{
		Type:      NotificationEquipment,
		Message:   fmt.Sprintf("New equipment added: %s", e.Name),
		RelatedID: e.ID,
	}, true
}

func (p NotificationPolicy) RentalCreated(r Rental) (NotificationEvent, bool) {
	return NotificationEvent{
		Type:      NotificationRental,
		Message:   fmt.Sprintf("New rental created for equipment ID: %s", r.EquipmentID),
		RelatedID: r.ID,
	}, true
}

func (p NotificationPolicy) RentalUpdated(before, after Rental) (NotificationEvent, bool) {
	if !p.fires(string(before.Status), string(after.Status), string(RentalReturned)) {
		return NotificationEvent{}, false
	}
	return NotificationEvent{
		Type:      NotificationRental,
		Message:   fmt.Sprintf("Rental for equipment ID: %s has been returned", after.EquipmentID),
		RelatedID: after.ID,
	}, true
}

func (p NotificationPolicy) MaintenanceCreated(m Maintenance) (NotificationEvent, bool) {
	return NotificationEvent{
		Type:      NotificationMaintenance,
		Message:   fmt.Sprintf("Maintenance scheduled for equipment ID: %s", m.EquipmentID),
		RelatedID: m.ID,
	}, true
}

func (p NotificationPolicy) MaintenanceUpdated(before, after Maintenance) (NotificationEvent, bool) {
	if !p.fires(string(before.Status), string(after.Status), string(MaintenanceCompleted)) {
		return NotificationEvent{}, false
	}
	return NotificationEvent{
		Type:      NotificationMaintenance,
		Message:   fmt.Sprintf("Maintenance completed for equipment ID: %s", after.EquipmentID),
		RelatedID: after.ID,
	}, true
}

func (p NotificationPolicy) fires(before, after, finished string) bool {
	if after != finished {
		return false
	}
	if p.Refire == RefireOnTransition {
		return before != finished
	}
	return true
}
