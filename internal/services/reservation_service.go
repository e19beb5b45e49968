package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-reservation/internal/database"
	"github.com/smarttransit/bus-reservation/internal/metrics"
	"github.com/smarttransit/bus-reservation/internal/models"
	"github.com/smarttransit/bus-reservation/pkg/validator"
)

// ReservationService composes the inventory, booking and billing engines
// into the operations exposed to the HTTP API and the CLI.
//
// Every mutating call saves the full ledger; if the save fails the
// in-memory ledger is restored to its state before the call.
type ReservationService struct {
	mu        sync.Mutex
	ledger    *models.Ledger
	store     database.LedgerStore
	inventory *InventoryStore
	bookings  *BookingEngine
	billing   *BillingEngine
	dates     *validator.TravelDateValidator
	logger    *logrus.Logger
}

// NewReservationService builds the engines over an already loaded ledger.
// A nil store keeps the ledger in memory only.
func NewReservationService(
	ledger *models.Ledger,
	store database.LedgerStore,
	config LedgerConfig,
	now func() time.Time,
	logger *logrus.Logger,
) *ReservationService {
	if now == nil {
		now = time.Now
	}
	ledger.Normalize()

	dates := validator.NewTravelDateValidator(config.MinTravelYear, now)
	inventory := NewInventoryStore(&ledger.Buses, dates, config, logger)
	billing := NewBillingEngine(&ledger.Bills, now, logger)
	bookings := NewBookingEngine(&ledger.Tickets, inventory, billing, dates, now, logger)

	s := &ReservationService{
		ledger:    ledger,
		store:     store,
		inventory: inventory,
		bookings:  bookings,
		billing:   billing,
		dates:     dates,
		logger:    logger,
	}
	s.refreshGauges()
	return s
}

// LoadReservationService loads the ledger from the store and builds the service
func LoadReservationService(
	ctx context.Context,
	store database.LedgerStore,
	config LedgerConfig,
	now func() time.Time,
	logger *logrus.Logger,
) (*ReservationService, error) {
	ledger, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"buses":   len(ledger.Buses.Records),
		"tickets": len(ledger.Tickets.Records),
		"bills":   len(ledger.Bills.Records),
	}).Info("Ledger loaded")

	return NewReservationService(ledger, store, config, now, logger), nil
}

// ============================================================================
// BUSES
// ============================================================================

// AddBus registers a new bus
func (s *ReservationService) AddBus(ctx context.Context, req models.AddBusRequest) (models.Bus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var bus models.Bus
	err := s.mutate(ctx, "add_bus", func() error {
		var err error
		bus, err = s.inventory.AddBus(req)
		return err
	})
	if err != nil {
		return models.Bus{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"bus_id":     bus.ID,
		"bus_number": bus.BusNumber,
		"seats":      bus.TotalSeats,
	}).Info("Bus added")

	return bus, nil
}

// ListBuses returns all active buses with their open seat counts
func (s *ReservationService) ListBuses() []models.BusSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return summarize(s.inventory.ListActive())
}

// GetBus returns an active bus
func (s *ReservationService) GetBus(busID int) (models.BusSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bus, ok := s.inventory.FindActiveBus(busID)
	if !ok {
		return models.BusSummary{}, newError(ErrBusNotFound, "bus with ID %d not found", busID)
	}
	return models.NewBusSummary(bus), nil
}

// SearchByRoute finds active buses by exact source and destination
func (s *ReservationService) SearchByRoute(source, destination string) []models.BusSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return summarize(s.inventory.SearchByRoute(source, destination))
}

// SearchByNumber finds active buses by exact bus number
func (s *ReservationService) SearchByNumber(busNumber string) []models.BusSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return summarize(s.inventory.SearchByNumber(busNumber))
}

// SearchBookable finds active buses for a travel date and route. The date
// must be valid and not in the past.
func (s *ReservationService) SearchBookable(travelDate, source, destination string) ([]models.BusSummary, error) {
	if err := s.dates.Validate(travelDate); err != nil {
		return nil, newError(ErrInvalidTravelDate, "%s", err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return summarize(s.inventory.SearchBookable(travelDate, source, destination)), nil
}

// Search dispatches to the search mode selected by the request fields
func (s *ReservationService) Search(req models.SearchBusRequest) ([]models.BusSummary, error) {
	switch {
	case req.BusNumber != "":
		return s.SearchByNumber(req.BusNumber), nil
	case req.TravelDate != "":
		return s.SearchBookable(req.TravelDate, req.Source, req.Destination)
	case req.Source != "" && req.Destination != "":
		return s.SearchByRoute(req.Source, req.Destination), nil
	default:
		return nil, newError(ErrInvalidBus, "search requires a bus number or a source and destination")
	}
}

// UpdatePrice changes the fare for future bookings on a bus
func (s *ReservationService) UpdatePrice(ctx context.Context, busID int, price float64) (models.Bus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var bus models.Bus
	err := s.mutate(ctx, "update_price", func() error {
		var err error
		bus, err = s.inventory.UpdatePrice(busID, price)
		return err
	})
	if err != nil {
		return models.Bus{}, err
	}
	return bus, nil
}

// DeleteBus soft-deletes a bus. A bus with active bookings can only be
// deleted once it is fully booked; in that case its bill is generated
// first if it does not exist yet. The generated bill, if any, is returned.
func (s *ReservationService) DeleteBus(ctx context.Context, busID int) (*models.BusBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var bill *models.BusBill
	err := s.mutate(ctx, "delete_bus", func() error {
		bus, ok := s.inventory.FindActiveBus(busID)
		if !ok {
			return newError(ErrBusNotFound, "bus with ID %d not found", busID)
		}

		fullyBooked := s.inventory.IsFullyBooked(bus)
		if s.bookings.HasActiveBookings(busID) && !fullyBooked {
			return newError(ErrBusHasBookings,
				"cannot delete bus %d with active bookings that is not fully booked, cancel all tickets first", busID)
		}

		if fullyBooked && !s.billing.HasBill(busID) {
			generated := s.billing.GenerateBill(bus, s.bookings.TicketsForBus(busID))
			bill = &generated
		}

		return s.inventory.Deactivate(busID)
	})
	if err != nil {
		return nil, err
	}

	if bill != nil {
		metrics.RecordBill(metrics.TriggerDeletion)
	}
	s.logger.WithField("bus_id", busID).Info("Bus deleted")

	return bill, nil
}

// ============================================================================
// TICKETS
// ============================================================================

// BookTicket books one seat and echoes the ticket back
func (s *ReservationService) BookTicket(ctx context.Context, req models.BookTicketRequest) (*models.BookingResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result models.BookingResult
	err := s.mutate(ctx, "book_ticket", func() error {
		ticket, bill, err := s.bookings.Book(req)
		if err != nil {
			return err
		}
		bus, _ := s.inventory.FindActiveBus(ticket.BusID)
		result = models.BookingResult{
			Ticket:         ticket,
			AvailableSeats: s.inventory.CountAvailable(bus),
			Bill:           bill,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Bill != nil {
		metrics.RecordBill(metrics.TriggerFullyBooked)
	}
	return &result, nil
}

// ViewTicket returns an active ticket
func (s *ReservationService) ViewTicket(ticketID int) (models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, err := s.bookings.View(ticketID)
	metrics.RecordOperation("view_ticket", err)
	return ticket, err
}

// CancelTicket cancels an active ticket and reports the refund
func (s *ReservationService) CancelTicket(ctx context.Context, ticketID int) (*models.CancellationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var refund float64
	err := s.mutate(ctx, "cancel_ticket", func() error {
		var err error
		refund, err = s.bookings.Cancel(ticketID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &models.CancellationResult{TicketID: ticketID, Refund: refund}, nil
}

// ListBookings returns every ticket with its status, in booking order
func (s *ReservationService) ListBookings() []models.TicketListItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	tickets := s.bookings.ListAll()
	items := make([]models.TicketListItem, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, models.NewTicketListItem(t))
	}
	return items
}

// ============================================================================
// BILLS
// ============================================================================

// ListBills returns the bill history with passenger details
func (s *ReservationService) ListBills() []models.BillDetail {
	s.mu.Lock()
	defer s.mu.Unlock()

	bills := s.billing.ListHistory()
	details := make([]models.BillDetail, 0, len(bills))
	for _, bill := range bills {
		details = append(details, s.billing.Resolve(bill, s.bookings.FindTicket))
	}
	return details
}

// GetBill returns one bill with passenger details
func (s *ReservationService) GetBill(billID int) (models.BillDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bill, ok := s.billing.FindBill(billID)
	if !ok {
		return models.BillDetail{}, newError(ErrBillNotFound, "bill with ID %d not found", billID)
	}
	return s.billing.Resolve(bill, s.bookings.FindTicket), nil
}

// ============================================================================
// PERSISTENCE
// ============================================================================

// Flush saves the current ledger, e.g. at shutdown
func (s *ReservationService) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(ctx)
}

// Snapshot returns a deep copy of the current ledger
func (s *ReservationService) Snapshot() *models.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ledger.Clone()
}

// mutate runs fn and persists the result. Callers hold s.mu.
func (s *ReservationService) mutate(ctx context.Context, operation string, fn func() error) error {
	before := s.ledger.Clone()

	if err := fn(); err != nil {
		*s.ledger = *before
		metrics.RecordOperation(operation, err)
		return err
	}

	if err := s.save(ctx); err != nil {
		*s.ledger = *before
		s.logger.WithError(err).WithField("operation", operation).Error("Failed to save ledger, changes rolled back")
		metrics.RecordOperation(operation, err)
		return fmt.Errorf("failed to save ledger: %w", err)
	}

	metrics.RecordOperation(operation, nil)
	s.refreshGauges()
	return nil
}

func (s *ReservationService) save(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	start := time.Now()
	err := s.store.Save(ctx, s.ledger)
	metrics.ObserveSave(time.Since(start).Seconds())
	return err
}

func (s *ReservationService) refreshGauges() {
	buses, seats, tickets := 0, 0, 0
	for i := range s.ledger.Buses.Records {
		if s.ledger.Buses.Records[i].IsActive {
			buses++
			seats += s.ledger.Buses.Records[i].AvailableSeats()
		}
	}
	for i := range s.ledger.Tickets.Records {
		if s.ledger.Tickets.Records[i].IsBooked {
			tickets++
		}
	}
	metrics.SetInventory(buses, tickets, seats)
}

func summarize(buses []models.Bus) []models.BusSummary {
	out := make([]models.BusSummary, 0, len(buses))
	for _, b := range buses {
		out = append(out, models.NewBusSummary(b))
	}
	return out
}
