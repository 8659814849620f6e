package application

import "testing"

func TestCapabilityTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		capability Capability
		admin      bool
		staff      bool
		customer   bool
	}{
		{CapReadCatalog, true, true, true},
		{CapManageEquipment, true, true, false},
		{CapCreateRental, true, true, true},
		{CapManageRentals, true, true, false},
		{CapManageMaintenance, true, true, false},
		{CapReadNotifications, true, true, true},
	}
	for _, tc := range cases {
		if got := adminPrincipal.Can(tc.capability); got != tc.admin {
			t.Fatalf("admin %s: got %v", tc.capability, got)
		}
		if got := staffPrincipal.Can(tc.capability); got != tc.staff {
			t.Fatalf("staff %s: got %v", tc.capability, got)
		}
		if got := customerPrincipal.Can(tc.capability); got != tc.customer {
			t.Fatalf("customer %s: got %v", tc.capability, got)
		}
	}
}

func TestAnonymousPrincipalHoldsNothing(t *testing.T) {
	t.Parallel()

	anon := Principal{Role: RoleAdmin}
	if anon.Can(CapReadCatalog) {
		t.Fatalf("expected a principal without user id to be denied")
	}
	if err := authorize(anon, CapReadCatalog); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRolesForReturnsCopy(t *testing.T) {
	t.Parallel()

	roles := RolesFor(CapManageEquipment)
	if len(roles) != 2 {
		t.Fatalf("expected two roles, got %v", roles)
	}
	roles[0] = RoleCustomer
	if RolesFor(CapManageEquipment)[0] != RoleAdmin {
		t.Fatalf("expected table to be unaffected by caller mutation")
	}
}

func TestSessionHasRole(t *testing.T) {
	t.Parallel()

	var signedOut *Session
	if signedOut.HasRole(RoleAdmin, RoleStaff, RoleCustomer) {
		t.Fatalf("expected signed-out session to hold no role")
	}
	if signedOut.Principal() != (Principal{}) {
		t.Fatalf("expected empty principal for signed-out session")
	}

	staff := &Session{Identity: Identity{ID: "2", Email: "staff@example.com", Role: RoleStaff}}
	if !staff.HasRole(RoleAdmin, RoleStaff) {
		t.Fatalf("expected staff to match Admin or Staff")
	}
	if staff.HasRole(RoleCustomer) {
		t.Fatalf("expected staff not to match Customer")
	}
	if staff.Principal() != staffPrincipal {
		t.Fatalf("unexpected principal %+v", staff.Principal())
	}
}
