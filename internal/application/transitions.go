package application

import "fmt"

// Transitions decides whether a status field may move from one value to another. Services
// write status fields only through it. from is empty when the record is being created.
type Transitions interface {
	TransitionRental(from, to RentalStatus) (RentalStatus, error)
	TransitionMaintenance(from, to MaintenanceStatus) (MaintenanceStatus, error)
	TransitionEquipment(from, to EquipmentStatus) (EquipmentStatus, error)
}

// UnrestrictedTransitions accepts any move between known statuses.
type UnrestrictedTransitions struct{}

var _ Transitions = UnrestrictedTransitions{}

func (UnrestrictedTransitions) TransitionRental(_, to RentalStatus) (RentalStatus, error) {
	if !isMember(to, rentalStatuses) {
		return "", fmt.Errorf("unknown rental status %q", to)
	}
	return to, nil
}

func (UnrestrictedTransitions) TransitionMaintenance(_, to MaintenanceStatus) (MaintenanceStatus, error) {
	if !isMember(to, maintenanceStatuses) {
		return "", fmt.Errorf("unknown maintenance status %q", to)
	}
	return to, nil
}

func (UnrestrictedTransitions) TransitionEquipment(_, to EquipmentStatus) (EquipmentStatus, error) {
	if !isMember(to, EquipmentStatuses) {
		return "", fmt.Errorf("unknown equipment status %q", to)
	}
	return to, nil
}

// transitionError reports a rejected transition as a validation failure on field.
func transitionError(field string, err error) *ValidationError {
	vErr := &ValidationError{}
	vErr.add(field, err.Error())
	return vErr
}
