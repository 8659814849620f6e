package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/example/equipment-rental/internal/application"
	"github.com/example/equipment-rental/internal/calendar"
)

var errUsage = errors.New("usage")

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// command dispatches one CLI invocation to the services of a desk.
type command struct {
	desk     *desk
	out      io.Writer
	email    string
	password string
}

func (c *command) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}
	name, rest := args[0], args[1:]
	switch name {
	case "login":
		return c.login(ctx)
	case "logout":
		if err := c.desk.sessions.ClearCurrent(ctx); err != nil {
			return err
		}
		return c.print(map[string]bool{"signedOut": true})
	case "whoami":
		session, err := c.desk.sessions.Current(ctx)
		if err != nil {
			return err
		}
		return c.print(session.Identity)
	case "equipment":
		return c.equipmentCommand(ctx, rest)
	case "rentals":
		return c.rentalsCommand(ctx, rest)
	case "maintenance":
		return c.maintenanceCommand(ctx, rest)
	case "notifications":
		return c.notificationsCommand(ctx, rest)
	case "dashboard":
		principal, err := c.principal(ctx)
		if err != nil {
			return err
		}
		overview, err := c.desk.dashboard.Overview(ctx, principal)
		if err != nil {
			return err
		}
		return c.print(overview)
	case "calendar":
		return c.calendarCommand(ctx, rest)
	}
	return usageError("unknown command %q", name)
}

func (c *command) login(ctx context.Context) error {
	if strings.TrimSpace(c.email) == "" {
		return usageError("login needs -email and -password")
	}
	session, err := c.desk.sessions.SignIn(ctx, c.email, c.password)
	if err != nil {
		return err
	}
	return c.print(session.Identity)
}

// principal authenticates -email/-password for this invocation only, or falls back to the
// stored session.
func (c *command) principal(ctx context.Context) (application.Principal, error) {
	if strings.TrimSpace(c.email) != "" {
		identity, err := c.desk.sessions.Authenticate(ctx, c.email, c.password)
		if err != nil {
			return application.Principal{}, err
		}
		session := application.Session{Identity: identity}
		return session.Principal(), nil
	}
	session, err := c.desk.sessions.Current(ctx)
	if err != nil {
		return application.Principal{}, err
	}
	return session.Principal(), nil
}

func (c *command) print(v any) error {
	encoder := json.NewEncoder(c.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (c *command) printDeleted(id string) error {
	return c.print(map[string]string{"deleted": id})
}

// ----------------------------- equipment -----------------------------

func (c *command) equipmentCommand(ctx context.Context, args []string) error {
	action, args, err := splitAction("equipment", args)
	if err != nil {
		return err
	}
	principal, err := c.principal(ctx)
	if err != nil {
		return err
	}
	svc := c.desk.equipment

	switch action {
	case "list":
		var filter application.EquipmentFilter
		fs := newFlagSet("equipment list")
		fs.StringVar(&filter.Search, "search", "", "match name or description")
		fs.StringVar(&filter.Category, "category", "", "exact category")
		fs.Var(enumValue[application.EquipmentStatus]{&filter.Status}, "status", "exact status")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		items, err := svc.List(ctx, principal, filter)
		if err != nil {
			return err
		}
		return c.print(items)
	case "get":
		id, _, err := requireID(action, args)
		if err != nil {
			return err
		}
		item, err := svc.Get(ctx, principal, id)
		if err != nil {
			return err
		}
		return c.print(item)
	case "categories":
		categories, err := svc.Categories(ctx, principal)
		if err != nil {
			return err
		}
		return c.print(categories)
	case "add":
		input := application.EquipmentInput{}
		if err := parseFlags(equipmentFlags("equipment add", &input), args); err != nil {
			return err
		}
		item, err := svc.Create(ctx, application.CreateEquipmentParams{Principal: principal, Input: input})
		if err != nil {
			return err
		}
		return c.print(item)
	case "update":
		id, rest, err := requireID(action, args)
		if err != nil {
			return err
		}
		input := application.EquipmentInput{}
		if current, gErr := svc.Get(ctx, principal, id); gErr == nil {
			input = equipmentInputOf(current)
		} else if !errors.Is(gErr, application.ErrNotFound) {
			return gErr
		}
		if err := parseFlags(equipmentFlags("equipment update", &input), rest); err != nil {
			return err
		}
		item, err := svc.Update(ctx, application.UpdateEquipmentParams{Principal: principal, EquipmentID: id, Input: input})
		if err != nil {
			return err
		}
		return c.print(item)
	case "delete":
		id, _, err := requireID(action, args)
		if err != nil {
			return err
		}
		if err := svc.Delete(ctx, principal, id); err != nil {
			return err
		}
		return c.printDeleted(id)
	}
	return usageError("unknown equipment action %q", action)
}

func equipmentFlags(name string, input *application.EquipmentInput) *flag.FlagSet {
	fs := newFlagSet(name)
	fs.StringVar(&input.Name, "name", input.Name, "equipment name")
	fs.StringVar(&input.Category, "category", input.Category, "category")
	fs.Var(enumValue[application.EquipmentCondition]{&input.Condition}, "condition", "Excellent, Good, Fair or Poor")
	fs.Var(enumValue[application.EquipmentStatus]{&input.Status}, "status", "Available, Rented, Maintenance or Retired")
	fs.StringVar(&input.Description, "description", input.Description, "free text")
	fs.Var(dateValue{&input.AcquisitionDate}, "acquired", "acquisition date (YYYY-MM-DD)")
	fs.StringVar(&input.Image, "image", input.Image, "image reference")
	return fs
}

func equipmentInputOf(e application.Equipment) application.EquipmentInput {
	return application.EquipmentInput{
		Name:            e.Name,
		Category:        e.Category,
		Condition:       e.Condition,
		Status:          e.Status,
		Description:     e.Description,
		AcquisitionDate: e.AcquisitionDate,
		Image:           e.Image,
	}
}

// ----------------------------- rentals -----------------------------

func (c *command) rentalsCommand(ctx context.Context, args []string) error {
	action, args, err := splitAction("rentals", args)
	if err != nil {
		return err
	}
	principal, err := c.principal(ctx)
	if err != nil {
		return err
	}
	svc := c.desk.rentals

	switch action {
	case "list":
		var filter application.RentalFilter
		fs := newFlagSet("rentals list")
		fs.Var(enumValue[application.RentalStatus]{&filter.Status}, "status", "exact status")
		fs.StringVar(&filter.Search, "search", "", "match equipment name")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		return c.printResult(svc.List(ctx, principal, filter))
	case "get":
		id, _, err := requireID(action, args)
		if err != nil {
			return err
		}
		return c.printResult(svc.Get(ctx, principal, id))
	case "create":
		input := application.RentalInput{}
		if err := parseFlags(rentalFlags("rentals create", &input), args); err != nil {
			return err
		}
		return c.printResult(svc.Create(ctx, application.CreateRentalParams{Principal: principal, Input: input}))
	case "update":
		id, rest, err := requireID(action, args)
		if err != nil {
			return err
		}
		input := application.RentalInput{}
		if current, gErr := svc.Get(ctx, principal, id); gErr == nil {
			input = rentalInputOf(current)
		} else if !errors.Is(gErr, application.ErrNotFound) {
			return gErr
		}
		if err := parseFlags(rentalFlags("rentals update", &input), rest); err != nil {
			return err
		}
		return c.printResult(svc.Update(ctx, application.UpdateRentalParams{Principal: principal, RentalID: id, Input: input}))
	case "delete":
		id, _, err := requireID(action, args)
		if err != nil {
			return err
		}
		if err := svc.Delete(ctx, principal, id); err != nil {
			return err
		}
		return c.printDeleted(id)
	case "overdue":
		return c.printResult(svc.Overdue(ctx, principal))
	case "by-equipment":
		id, _, err := requireID(action, args)
		if err != nil {
			return err
		}
		return c.printResult(svc.ByEquipment(ctx, principal, id))
	case "by-customer":
		id, _, err := requireID(action, args)
		if err != nil {
			return err
		}
		return c.printResult(svc.ByCustomer(ctx, principal, id))
	case "by-status":
		status, _, err := requireID(action, args)
		if err != nil {
			return err
		}
		return c.printResult(svc.ByStatus(ctx, principal, application.RentalStatus(status)))
	case "options":
		var current string
		fs := newFlagSet("rentals options")
		fs.StringVar(&current, "current", "", "equipment already on the rental being edited")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		return c.printResult(svc.EquipmentOptions(ctx, principal, current))
	case "customers":
		return c.printResult(svc.Customers(ctx, principal))
	}
	return usageError("unknown rentals action %q", action)
}

func rentalFlags(name string, input *application.RentalInput) *flag.FlagSet {
	fs := newFlagSet(name)
	fs.StringVar(&input.EquipmentID, "equipment", input.EquipmentID, "equipment id")
	fs.StringVar(&input.CustomerID, "customer", input.CustomerID, "customer id (defaults to the signed-in customer)")
	fs.Var(dateValue{&input.StartDate}, "start", "first rental day (YYYY-MM-DD)")
	fs.Var(dateValue{&input.EndDate}, "end", "last rental day (YYYY-MM-DD)")
	fs.Var(enumValue[application.RentalStatus]{&input.Status}, "status", "Reserved, Rented, Returned, Cancelled or Overdue")
	fs.StringVar(&input.Notes, "notes", input.Notes, "free text")
	return fs
}

func rentalInputOf(r application.Rental) application.RentalInput {
	return application.RentalInput{
		EquipmentID: r.EquipmentID,
		CustomerID:  r.CustomerID,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Status:      r.Status,
		Notes:       r.Notes,
	}
}

// ----------------------------- maintenance -----------------------------

func (c *command) maintenanceCommand(ctx context.Context, args []string) error {
	action, args, err := splitAction("maintenance", args)
	if err != nil {
		return err
	}
	principal, err := c.principal(ctx)
	if err != nil {
		return err
	}
	svc := c.desk.maintenance

	switch action {
	case "list":
		var filter application.MaintenanceFilter
		fs := newFlagSet("maintenance list")
		fs.Var(enumValue[application.MaintenanceStatus]{&filter.Status}, "status", "exact status")
		fs.Var(enumValue[application.MaintenanceType]{&filter.Type}, "type", "exact type")
		fs.StringVar(&filter.Search, "search", "", "match notes")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		return c.printResult(svc.List(ctx, principal, filter))
	case "get":
		id, _, err := requireID(action, args)
		if err != nil {
			return err
		}
		return c.printResult(svc.Get(ctx, principal, id))
	case "create":
		input := application.MaintenanceInput{}
		if err := parseFlags(maintenanceFlags("maintenance create", &input), args); err != nil {
			return err
		}
		return c.printResult(svc.Create(ctx, application.CreateMaintenanceParams{Principal: principal, Input: input}))
	case "update":
		id, rest, err := requireID(action, args)
		if err != nil {
			return err
		}
		input := application.MaintenanceInput{}
		if current, gErr := svc.Get(ctx, principal, id); gErr == nil {
			input = maintenanceInputOf(current)
		} else if !errors.Is(gErr, application.ErrNotFound) {
			return gErr
		}
		if err := parseFlags(maintenanceFlags("maintenance update", &input), rest); err != nil {
			return err
		}
		return c.printResult(svc.Update(ctx, application.UpdateMaintenanceParams{Principal: principal, MaintenanceID: id, Input: input}))
	case "delete":
		id, _, err := requireID(action, args)
		if err != nil {
			return err
		}
		if err := svc.Delete(ctx, principal, id); err != nil {
			return err
		}
		return c.printDeleted(id)
	case "upcoming":
		return c.printResult(svc.Upcoming(ctx, principal))
	case "by-equipment":
		id, _, err := requireID(action, args)
		if err != nil {
			return err
		}
		return c.printResult(svc.ByEquipment(ctx, principal, id))
	}
	return usageError("unknown maintenance action %q", action)
}

func maintenanceFlags(name string, input *application.MaintenanceInput) *flag.FlagSet {
	fs := newFlagSet(name)
	fs.StringVar(&input.EquipmentID, "equipment", input.EquipmentID, "equipment id")
	fs.Var(dateValue{&input.Date}, "date", "service date (YYYY-MM-DD)")
	fs.Var(enumValue[application.MaintenanceType]{&input.Type}, "type", "Routine Check, Repair, Inspection or Calibration")
	fs.StringVar(&input.Notes, "notes", input.Notes, "work description")
	fs.StringVar(&input.CompletedBy, "completed-by", input.CompletedBy, "technician")
	fs.Var(enumValue[application.MaintenanceStatus]{&input.Status}, "status", "Scheduled, In Progress or Completed")
	return fs
}

func maintenanceInputOf(m application.Maintenance) application.MaintenanceInput {
	return application.MaintenanceInput{
		EquipmentID: m.EquipmentID,
		Date:        m.Date,
		Type:        m.Type,
		Notes:       m.Notes,
		CompletedBy: m.CompletedBy,
		Status:      m.Status,
	}
}

// ----------------------------- notifications -----------------------------

func (c *command) notificationsCommand(ctx context.Context, args []string) error {
	action, args, err := splitAction("notifications", args)
	if err != nil {
		return err
	}
	principal, err := c.principal(ctx)
	if err != nil {
		return err
	}
	svc := c.desk.notifications

	switch action {
	case "list":
		return c.printResult(svc.List(ctx, principal))
	case "read":
		id, _, err := requireID(action, args)
		if err != nil {
			return err
		}
		if err := svc.MarkRead(ctx, principal, id); err != nil {
			return err
		}
		return c.print(map[string]string{"read": id})
	case "read-all":
		if err := svc.MarkAllRead(ctx, principal); err != nil {
			return err
		}
		return c.print(map[string]bool{"allRead": true})
	case "unread":
		count, err := svc.UnreadCount(ctx, principal)
		if err != nil {
			return err
		}
		return c.print(map[string]int{"unread": count})
	}
	return usageError("unknown notifications action %q", action)
}

// ----------------------------- calendar -----------------------------

func (c *command) calendarCommand(ctx context.Context, args []string) error {
	action, args, err := splitAction("calendar", args)
	if err != nil {
		return err
	}
	principal, err := c.principal(ctx)
	if err != nil {
		return err
	}
	svc := c.desk.calendar

	day := svc.Today()
	fs := newFlagSet("calendar " + action)
	fs.Var(dateValue{&day}, "date", "reference day (YYYY-MM-DD), defaults to today")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	switch action {
	case "day":
		return c.printResult(svc.RentalsOn(ctx, principal, day))
	case "week":
		return c.printResult(svc.Week(ctx, principal, day))
	case "month":
		return c.printResult(svc.Month(ctx, principal, day))
	}
	return usageError("unknown calendar action %q", action)
}

// ----------------------------- helpers -----------------------------

func (c *command) printResult(value any, err error) error {
	if err != nil {
		return err
	}
	return c.print(value)
}

func splitAction(group string, args []string) (string, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", nil, usageError("%s needs an action", group)
	}
	return args[0], args[1:], nil
}

// requireID takes the leading positional argument; the remainder is left for flag parsing.
func requireID(action string, args []string) (string, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") || strings.TrimSpace(args[0]) == "" {
		return "", nil, usageError("%s needs an id", action)
	}
	return args[0], args[1:], nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return usageError("%s: %v", fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return usageError("%s: unexpected argument %q", fs.Name(), fs.Arg(0))
	}
	return nil
}

// enumValue binds a flag to a string-backed domain type.
type enumValue[T ~string] struct{ p *T }

func (v enumValue[T]) String() string {
	if v.p == nil {
		return ""
	}
	return string(*v.p)
}

func (v enumValue[T]) Set(s string) error {
	*v.p = T(strings.TrimSpace(s))
	return nil
}

type dateValue struct{ p *calendar.Date }

func (v dateValue) String() string {
	if v.p == nil {
		return ""
	}
	return v.p.String()
}

func (v dateValue) Set(s string) error {
	d, err := calendar.Parse(s)
	if err != nil {
		return err
	}
	*v.p = d
	return nil
}
