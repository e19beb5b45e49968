// busctl is the operator console for the bus reservation ledger. It works
// directly on a file store directory, the same one the server uses with
// STORAGE_DRIVER=file.
//
// Usage:
//
//	busctl [--data-dir DIR] [--codec json|cbor] [--max-seats N] <command> [flags]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-reservation/internal/config"
	"github.com/smarttransit/bus-reservation/internal/database"
	"github.com/smarttransit/bus-reservation/internal/services"
	"github.com/spf13/pflag"
)

// errUsage is returned after usage text has been printed
var errUsage = errors.New("invalid usage")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

// env carries what every command needs
type env struct {
	dataDir string
	codec   string
	ledger  config.LedgerConfig
	stdout  io.Writer
	stderr  io.Writer
	logger  *logrus.Logger
}

// service opens the ledger in the data directory
func (e *env) service(ctx context.Context) (*services.ReservationService, error) {
	codec, err := database.NewCodec(e.codec)
	if err != nil {
		return nil, err
	}
	store, err := database.NewFileStore(e.dataDir, codec)
	if err != nil {
		return nil, err
	}
	rules := services.LedgerConfig{
		MinTravelYear:        e.ledger.MinTravelYear,
		MaxSeatsPerBus:       e.ledger.MaxSeatsPerBus,
		RejectOversizedSeats: e.ledger.RejectOversizedSeats,
	}
	return services.LoadReservationService(ctx, store, rules, nil, e.logger)
}

type command struct {
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"add-bus":       {"Add a bus", runAddBus},
	"list-buses":    {"List active buses", runListBuses},
	"search":        {"Search buses by number, route, or route and date", runSearch},
	"update-price":  {"Change the ticket price of a bus", runUpdatePrice},
	"delete-bus":    {"Delete a bus", runDeleteBus},
	"book":          {"Book a seat", runBook},
	"view-ticket":   {"Show an active ticket", runViewTicket},
	"cancel":        {"Cancel a ticket", runCancel},
	"bookings":      {"List all tickets", runBookings},
	"bills":         {"Show the bill history", runBills},
	"bill-pdf":      {"Write a bill as PDF", runBillPDF},
	"hash-password": {"Hash an operator password for OPERATOR_PASSWORD_HASH", runHashPassword},
	"gen-secret":    {"Generate a JWT_SECRET value", runGenSecret},
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	e := &env{stdout: stdout, stderr: stderr}

	// Ledger rules default to the server's environment settings
	ledger, err := config.LoadLedger()
	if err != nil {
		return err
	}

	flagSet := pflag.NewFlagSet("busctl", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&e.dataDir, "data-dir", envOr("DATA_DIR", "data"), "ledger directory")
	flagSet.StringVar(&e.codec, "codec", envOr("LEDGER_CODEC", "json"), "ledger file codec (json or cbor)")
	flagSet.IntVar(&e.ledger.MinTravelYear, "min-travel-year", ledger.MinTravelYear, "earliest accepted travel year")
	flagSet.IntVar(&e.ledger.MaxSeatsPerBus, "max-seats", ledger.MaxSeatsPerBus, "seat cap per bus")
	flagSet.BoolVar(&e.ledger.RejectOversizedSeats, "reject-oversized-seats", ledger.RejectOversizedSeats, "reject seat counts above the cap instead of clamping")
	verbose := flagSet.BoolP("verbose", "v", false, "log engine activity to stderr")
	flagSet.SetInterspersed(false)
	flagSet.Usage = func() { printUsage(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return errUsage
	}
	if err := e.ledger.Validate(); err != nil {
		return err
	}

	e.logger = logrus.New()
	e.logger.SetOutput(stderr)
	e.logger.SetLevel(logrus.WarnLevel)
	if *verbose {
		e.logger.SetLevel(logrus.DebugLevel)
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printUsage(stderr, flagSet)
		return errUsage
	}

	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", rest[0])
		printUsage(stderr, flagSet)
		return errUsage
	}
	if err := cmd.run(ctx, e, rest[1:]); err != nil && !errors.Is(err, errHelp) {
		return err
	}
	return nil
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintln(w, "Usage: busctl [global flags] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-14s %s\n", name, commands[name].summary)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global flags:")
	fmt.Fprint(w, flagSet.FlagUsages())
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
