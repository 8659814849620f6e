package application

// Capability names an operation class gated by role.
type Capability string

const (
	CapReadCatalog       Capability = "read_catalog"
	CapManageEquipment   Capability = "manage_equipment"
	CapCreateRental      Capability = "create_rental"
	CapManageRentals     Capability = "manage_rentals"
	CapManageMaintenance Capability = "manage_maintenance"
	CapReadNotifications Capability = "read_notifications"
)

var capabilityRoles = map[Capability][]Role{
	CapReadCatalog:       {RoleAdmin, RoleStaff, RoleCustomer},
	CapManageEquipment:   {RoleAdmin, RoleStaff},
	CapCreateRental:      {RoleAdmin, RoleStaff, RoleCustomer},
	CapManageRentals:     {RoleAdmin, RoleStaff},
	CapManageMaintenance: {RoleAdmin, RoleStaff},
	CapReadNotifications: {RoleAdmin, RoleStaff, RoleCustomer},
}

// RolesFor returns the roles granted a capability.
func RolesFor(capability Capability) []Role {
	roles := capabilityRoles[capability]
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// Can reports whether the principal holds the capability. A principal without a user id never does.
func (p Principal) Can(capability Capability) bool {
	if p.UserID == "" {
		return false
	}
	return isMember(p.Role, capabilityRoles[capability])
}

// authorize returns ErrUnauthorized unless the principal holds the capability.
func authorize(principal Principal, capability Capability) error {
	if !principal.Can(capability) {
		return ErrUnauthorized
	}
	return nil
}
