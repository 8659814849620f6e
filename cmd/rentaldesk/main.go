package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/equipment-rental/internal/config"
	"github.com/example/equipment-rental/internal/logging"
)

const usage = `usage: rentaldesk [-config file] [-email address -password secret] <command> [args]

commands:
  login | logout | whoami
  equipment     list|get|add|update|delete|categories
  rentals       list|get|create|update|delete|overdue|by-equipment|by-customer|by-status|options|customers
  maintenance   list|get|create|update|delete|upcoming|by-equipment
  notifications list|read|read-all|unread
  dashboard
  calendar      day|week|month
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, time.Now))
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, now func() time.Time) int {
	flags := flag.NewFlagSet("rentaldesk", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := flags.String("config", "", "path to a YAML configuration file")
	email := flags.String("email", "", "sign in for this command only")
	password := flags.String("password", "", "password for -email")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "rentaldesk: %v\n", err)
		return 1
	}
	logger := logging.New(stderr, cfg.Log.Level, cfg.Log.Format)
	ctx = logging.ContextWithLogger(ctx, logger)

	desk, err := openDesk(ctx, cfg, now, logger)
	if err != nil {
		logger.Error("failed to open rental desk", "error", err)
		fmt.Fprintf(stderr, "rentaldesk: %v\n", err)
		return 1
	}
	defer func() {
		if cerr := desk.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	cmd := &command{
		desk:     desk,
		out:      stdout,
		email:    *email,
		password: *password,
	}
	err = cmd.dispatch(ctx, flags.Args())
	desk.dumpMetrics(stderr, logger)
	if err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "rentaldesk: %v\n", err)
			fmt.Fprint(stderr, usage)
			return 2
		}
		fmt.Fprintf(stderr, "rentaldesk: %v\n", err)
		return 1
	}
	return 0
}
