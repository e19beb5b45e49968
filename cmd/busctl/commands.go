package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/smarttransit/bus-reservation/internal/models"
	"github.com/smarttransit/bus-reservation/internal/services"
	"github.com/smarttransit/bus-reservation/internal/utils"
	"github.com/smarttransit/bus-reservation/pkg/validator"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

// errHelp is returned when a command printed its own help
var errHelp = errors.New("help requested")

func newFlags(e *env, name, usage string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.Usage = func() {
		fmt.Fprintf(e.stderr, "Usage: busctl %s %s\n\n", name, usage)
		fmt.Fprint(e.stderr, fs.FlagUsages())
	}
	return fs
}

// parseFlags parses args and checks that every required flag was given
func parseFlags(e *env, fs *pflag.FlagSet, args []string, required ...string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errHelp
		}
		return errUsage
	}
	for _, name := range required {
		if !fs.Changed(name) {
			fmt.Fprintf(e.stderr, "missing required flag --%s\n", name)
			fs.Usage()
			return errUsage
		}
	}
	return nil
}

func table(e *env) *tabwriter.Writer {
	return tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
}

// ============================================================================
// BUSES
// ============================================================================

func runAddBus(ctx context.Context, e *env, args []string) error {
	var req models.AddBusRequest
	fs := newFlags(e, "add-bus", "--number N --source S --destination D --date DD/MM/YYYY --seats N [flags]")
	fs.StringVar(&req.BusNumber, "number", "", "bus number")
	fs.StringVar(&req.Source, "source", "", "departure city")
	fs.StringVar(&req.Destination, "destination", "", "arrival city")
	fs.StringVar(&req.DepartureTime, "departure", "", "departure time, e.g. 08:00")
	fs.StringVar(&req.ArrivalTime, "arrival", "", "arrival time, e.g. 11:30")
	fs.StringVar(&req.TravelDate, "date", "", "travel date (DD/MM/YYYY)")
	fs.IntVar(&req.TotalSeats, "seats", 0, "number of seats")
	fs.Float64Var(&req.TicketPrice, "price", 0, "ticket price")
	if err := parseFlags(e, fs, args, "number", "source", "destination", "date", "seats"); err != nil {
		return err
	}

	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	bus, err := svc.AddBus(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "Bus added successfully with ID %d (%d seats)\n", bus.ID, bus.TotalSeats)
	return nil
}

func runListBuses(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "list-buses", "")
	if err := parseFlags(e, fs, args); err != nil {
		return err
	}

	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	return printBuses(e, svc.ListBuses())
}

func runSearch(ctx context.Context, e *env, args []string) error {
	var req models.SearchBusRequest
	fs := newFlags(e, "search", "--number N | --source S --destination D [--date DD/MM/YYYY]")
	fs.StringVar(&req.BusNumber, "number", "", "bus number")
	fs.StringVar(&req.Source, "source", "", "departure city")
	fs.StringVar(&req.Destination, "destination", "", "arrival city")
	fs.StringVar(&req.TravelDate, "date", "", "travel date (DD/MM/YYYY)")
	if err := parseFlags(e, fs, args); err != nil {
		return err
	}

	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	buses, err := svc.Search(req)
	if err != nil {
		return err
	}
	return printBuses(e, buses)
}

func runUpdatePrice(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "update-price", "--bus ID --price P")
	busID := fs.Int("bus", 0, "bus ID")
	price := fs.Float64("price", 0, "new ticket price")
	if err := parseFlags(e, fs, args, "bus", "price"); err != nil {
		return err
	}

	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	bus, err := svc.UpdatePrice(ctx, *busID, *price)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "Ticket price of bus %d set to %.2f\n", bus.ID, bus.TicketPrice)
	return nil
}

func runDeleteBus(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "delete-bus", "--bus ID")
	busID := fs.Int("bus", 0, "bus ID")
	if err := parseFlags(e, fs, args, "bus"); err != nil {
		return err
	}

	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	bill, err := svc.DeleteBus(ctx, *busID)
	if err != nil {
		return err
	}

	if bill != nil {
		fmt.Fprintf(e.stdout, "Bill %d generated, total revenue %.2f\n", bill.ID, bill.TotalRevenue)
	}
	fmt.Fprintf(e.stdout, "Bus %d deleted successfully\n", *busID)
	return nil
}

func printBuses(e *env, buses []models.BusSummary) error {
	if len(buses) == 0 {
		fmt.Fprintln(e.stdout, "No buses found.")
		return nil
	}

	w := table(e)
	fmt.Fprintln(w, "ID\tNUMBER\tROUTE\tDATE\tDEPARTS\tARRIVES\tSEATS\tAVAILABLE\tPRICE")
	for _, b := range buses {
		fmt.Fprintf(w, "%d\t%s\t%s -> %s\t%s\t%s\t%s\t%d\t%d\t%.2f\n",
			b.ID, b.BusNumber, b.Source, b.Destination, b.TravelDate,
			b.DepartureTime, b.ArrivalTime, b.TotalSeats, b.AvailableSeats, b.TicketPrice)
	}
	return w.Flush()
}

// ============================================================================
// TICKETS
// ============================================================================

func runBook(ctx context.Context, e *env, args []string) error {
	var req models.BookTicketRequest
	fs := newFlags(e, "book", "--bus ID --date DD/MM/YYYY --source S --destination D --seat N --name NAME --gender G [flags]")
	fs.IntVar(&req.BusID, "bus", 0, "bus ID")
	fs.StringVar(&req.TravelDate, "date", "", "travel date (DD/MM/YYYY)")
	fs.StringVar(&req.Source, "source", "", "departure city")
	fs.StringVar(&req.Destination, "destination", "", "arrival city")
	fs.IntVar(&req.SeatNumber, "seat", 0, "seat number")
	fs.StringVar(&req.Passenger.Name, "name", "", "passenger name")
	fs.StringVar(&req.Passenger.ContactNumber, "contact", "", "passenger contact number")
	fs.IntVar(&req.Passenger.Age, "age", 0, "passenger age")
	fs.StringVar(&req.Passenger.Gender, "gender", "", "passenger gender (M/F)")
	if err := parseFlags(e, fs, args, "bus", "date", "source", "destination", "seat", "name", "gender"); err != nil {
		return err
	}

	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	result, err := svc.BookTicket(ctx, req)
	if err != nil {
		return err
	}

	t := result.Ticket
	fmt.Fprintf(e.stdout, "Ticket booked successfully! Ticket ID: %d\n", t.ID)
	fmt.Fprintf(e.stdout, "Bus %s, %s -> %s on %s, seat %d, fare %.2f\n",
		t.BusNumber, t.Source, t.Destination, t.TravelDate, t.SeatNumber, t.Fare)
	fmt.Fprintf(e.stdout, "Seats remaining: %d\n", result.AvailableSeats)
	if result.Bill != nil {
		fmt.Fprintf(e.stdout, "Bus is now fully booked. Bill %d generated, total revenue %.2f\n",
			result.Bill.ID, result.Bill.TotalRevenue)
	}
	return nil
}

func runViewTicket(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "view-ticket", "--ticket ID")
	ticketID := fs.Int("ticket", 0, "ticket ID")
	if err := parseFlags(e, fs, args, "ticket"); err != nil {
		return err
	}

	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	t, err := svc.ViewTicket(*ticketID)
	if err != nil {
		return err
	}

	w := table(e)
	fmt.Fprintf(w, "Ticket ID:\t%d\n", t.ID)
	fmt.Fprintf(w, "Passenger:\t%s (%d, %s)\n", t.Passenger.Name, t.Passenger.Age, t.Passenger.Gender)
	fmt.Fprintf(w, "Contact:\t%s\n", t.Passenger.ContactNumber)
	fmt.Fprintf(w, "Bus:\t%s (#%d)\n", t.BusNumber, t.BusID)
	fmt.Fprintf(w, "Route:\t%s -> %s\n", t.Source, t.Destination)
	fmt.Fprintf(w, "Travel date:\t%s %s\n", t.TravelDate, t.DepartureTime)
	fmt.Fprintf(w, "Seat:\t%d\n", t.SeatNumber)
	fmt.Fprintf(w, "Fare:\t%.2f\n", t.Fare)
	fmt.Fprintf(w, "Booked:\t%s\n", t.BookingDate.Format(validator.TravelDateLayout + " 15:04"))
	fmt.Fprintf(w, "Status:\t%s\n", t.Status())
	return w.Flush()
}

func runCancel(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "cancel", "--ticket ID")
	ticketID := fs.Int("ticket", 0, "ticket ID")
	if err := parseFlags(e, fs, args, "ticket"); err != nil {
		return err
	}

	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	result, err := svc.CancelTicket(ctx, *ticketID)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "Ticket %d cancelled successfully. Refund amount: %.2f\n", result.TicketID, result.Refund)
	return nil
}

func runBookings(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "bookings", "")
	if err := parseFlags(e, fs, args); err != nil {
		return err
	}

	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	items := svc.ListBookings()
	if len(items) == 0 {
		fmt.Fprintln(e.stdout, "No bookings found.")
		return nil
	}

	w := table(e)
	fmt.Fprintln(w, "TICKET\tPASSENGER\tBUS\tROUTE\tDATE\tSEAT\tFARE\tSTATUS")
	for _, t := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s -> %s\t%s\t%d\t%.2f\t%s\n",
			t.ID, t.Passenger.Name, t.BusNumber, t.Source, t.Destination,
			t.TravelDate, t.SeatNumber, t.Fare, t.Status)
	}
	return w.Flush()
}

// ============================================================================
// BILLS
// ============================================================================

func runBills(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "bills", "")
	if err := parseFlags(e, fs, args); err != nil {
		return err
	}

	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	bills := svc.ListBills()
	if len(bills) == 0 {
		fmt.Fprintln(e.stdout, "No bills found.")
		return nil
	}

	for _, b := range bills {
		fmt.Fprintf(e.stdout, "Bill %d for bus %s (#%d), %s -> %s on %s\n",
			b.ID, b.BusNumber, b.BusID, b.Source, b.Destination, b.TravelDate)
		fmt.Fprintf(e.stdout, "Generated %s, %d passengers, total revenue %.2f\n",
			b.GeneratedDate.Format(validator.TravelDateLayout + " 15:04"), b.PassengerCount, b.TotalRevenue)

		w := table(e)
		fmt.Fprintln(w, "  TICKET\tPASSENGER\tCONTACT\tSEAT")
		for _, p := range b.Passengers {
			fmt.Fprintf(w, "  %d\t%s\t%s\t%d\n", p.TicketID, p.Name, p.ContactNumber, p.SeatNumber)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(e.stdout)
	}
	return nil
}

func runBillPDF(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "bill-pdf", "--bill ID [--out FILE]")
	billID := fs.Int("bill", 0, "bill ID")
	out := fs.String("out", "", "output file (default bill-<id>-<bus>.pdf)")
	if err := parseFlags(e, fs, args, "bill"); err != nil {
		return err
	}

	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	bill, err := svc.GetBill(*billID)
	if err != nil {
		return err
	}

	docs := services.NewBillDocumentService(e.logger)
	pdf, err := docs.Render(bill)
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = docs.FileName(bill.BusBill)
	}
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(e.stdout, "Bill %d written to %s\n", bill.ID, path)
	return nil
}

// ============================================================================
// SETUP
// ============================================================================

func runHashPassword(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "hash-password", "[--password P] [--cost N]")
	password := fs.String("password", "", "password to hash (read from stdin when omitted)")
	cost := fs.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	if err := parseFlags(e, fs, args); err != nil {
		return err
	}

	if *password == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read password: %w", err)
		}
		*password = strings.TrimRight(line, "\r\n")
	}

	hash, err := services.HashPassword(*password, *cost)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "OPERATOR_PASSWORD_HASH=%s\n", hash)
	return nil
}

func runGenSecret(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "gen-secret", "[--bytes N]")
	size := fs.Int("bytes", 32, "secret length in bytes")
	if err := parseFlags(e, fs, args); err != nil {
		return err
	}

	secret, err := utils.GenerateSecret(*size)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "JWT_SECRET=%s\n", secret)
	return nil
}
