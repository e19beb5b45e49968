package services

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-reservation/internal/models"
	"github.com/smarttransit/bus-reservation/pkg/validator"
)

// BookingEngine owns the ticket records and keeps them consistent with
// the seat maps in the inventory store
type BookingEngine struct {
	table     *models.TicketTable
	inventory *InventoryStore
	billing   *BillingEngine
	dates     *validator.TravelDateValidator
	now       func() time.Time
	logger    *logrus.Logger
}

// NewBookingEngine creates a booking engine over the given ticket table
func NewBookingEngine(
	table *models.TicketTable,
	inventory *InventoryStore,
	billing *BillingEngine,
	dates *validator.TravelDateValidator,
	now func() time.Time,
	logger *logrus.Logger,
) *BookingEngine {
	if now == nil {
		now = time.Now
	}
	return &BookingEngine{
		table:     table,
		inventory: inventory,
		billing:   billing,
		dates:     dates,
		now:       now,
		logger:    logger,
	}
}

// Book reserves a seat and issues a ticket. Every booking that fills the
// bus generates a bill and returns it.
func (e *BookingEngine) Book(req models.BookTicketRequest) (models.Ticket, *models.BusBill, error) {
	// 1. Bus must exist and be active
	bus, ok := e.inventory.FindActiveBus(req.BusID)
	if !ok {
		return models.Ticket{}, nil, newError(ErrBusNotFound, "bus with ID %d not found", req.BusID)
	}

	// 2. The caller's travel details must match the selected bus
	if bus.TravelDate != req.TravelDate || bus.Source != req.Source || bus.Destination != req.Destination {
		return models.Ticket{}, nil, newError(ErrRouteMismatch,
			"bus %d runs %s to %s on %s, not %s to %s on %s",
			bus.ID, bus.Source, bus.Destination, bus.TravelDate,
			req.Source, req.Destination, req.TravelDate)
	}

	// 3. Seat must be in range
	if req.SeatNumber < 1 || req.SeatNumber > bus.TotalSeats {
		return models.Ticket{}, nil, newError(ErrSeatOutOfRange, "seat number must be between 1 and %d", bus.TotalSeats)
	}

	// 4. Seat must be open
	if !bus.SeatOpen(req.SeatNumber) {
		return models.Ticket{}, nil, newError(ErrSeatAlreadyBooked, "seat %d is already booked", req.SeatNumber)
	}

	if err := e.dates.Validate(req.TravelDate); err != nil {
		return models.Ticket{}, nil, newError(ErrInvalidTravelDate, "%s", err.Error())
	}
	if err := req.Passenger.Validate(); err != nil {
		return models.Ticket{}, nil, newError(ErrInvalidPassenger, "%s", err.Error())
	}

	if err := e.inventory.reserveSeat(bus.ID, req.SeatNumber); err != nil {
		return models.Ticket{}, nil, err
	}

	ticket := models.Ticket{
		ID:            e.table.NextID,
		BusID:         bus.ID,
		Passenger:     req.Passenger,
		SeatNumber:    req.SeatNumber,
		BookingDate:   e.now(),
		TravelDate:    bus.TravelDate,
		Source:        bus.Source,
		Destination:   bus.Destination,
		BusNumber:     bus.BusNumber,
		DepartureTime: bus.DepartureTime,
		Fare:          bus.TicketPrice,
		IsBooked:      true,
	}
	e.table.NextID++
	e.table.Records = append(e.table.Records, ticket)

	e.logger.WithFields(logrus.Fields{
		"ticket_id":   ticket.ID,
		"bus_id":      ticket.BusID,
		"seat_number": ticket.SeatNumber,
		"fare":        ticket.Fare,
	}).Info("Ticket booked")

	updated, _ := e.inventory.FindActiveBus(bus.ID)
	if !updated.IsFullyBooked() {
		return ticket, nil, nil
	}

	bill := e.billing.GenerateBill(updated, e.TicketsForBus(bus.ID))
	return ticket, &bill, nil
}

// Cancel releases the ticket's seat and returns the original fare as refund
func (e *BookingEngine) Cancel(ticketID int) (float64, error) {
	ticket := e.activeTicket(ticketID)
	if ticket == nil {
		return 0, newError(ErrTicketNotFound, "ticket with ID %d not found or has already been cancelled", ticketID)
	}

	// The owning bus must still be resolvable
	if _, ok := e.inventory.FindActiveBus(ticket.BusID); !ok {
		return 0, newError(ErrBusNotFound, "bus information not found for ticket %d", ticketID)
	}

	if err := e.inventory.releaseSeat(ticket.BusID, ticket.SeatNumber); err != nil {
		return 0, err
	}
	ticket.IsBooked = false

	e.logger.WithFields(logrus.Fields{
		"ticket_id":   ticket.ID,
		"bus_id":      ticket.BusID,
		"seat_number": ticket.SeatNumber,
		"refund":      ticket.Fare,
	}).Info("Ticket cancelled")

	return ticket.Fare, nil
}

// View returns an active ticket. Cancelled and unknown tickets are both
// reported as not found.
func (e *BookingEngine) View(ticketID int) (models.Ticket, error) {
	ticket := e.activeTicket(ticketID)
	if ticket == nil {
		return models.Ticket{}, newError(ErrTicketNotFound, "ticket with ID %d not found or has been cancelled", ticketID)
	}
	return *ticket, nil
}

// ListAll returns every ticket, cancelled ones included, in booking order
func (e *BookingEngine) ListAll() []models.Ticket {
	return append([]models.Ticket{}, e.table.Records...)
}

// HasActiveBookings reports whether any active ticket holds a seat on the bus
func (e *BookingEngine) HasActiveBookings(busID int) bool {
	for i := range e.table.Records {
		if e.table.Records[i].BusID == busID && e.table.Records[i].IsBooked {
			return true
		}
	}
	return false
}

// TicketsForBus returns all tickets issued against the bus, in order
func (e *BookingEngine) TicketsForBus(busID int) []models.Ticket {
	tickets := []models.Ticket{}
	for _, t := range e.table.Records {
		if t.BusID == busID {
			tickets = append(tickets, t)
		}
	}
	return tickets
}

// FindTicket returns a ticket regardless of status
func (e *BookingEngine) FindTicket(ticketID int) (models.Ticket, bool) {
	for _, t := range e.table.Records {
		if t.ID == ticketID {
			return t, true
		}
	}
	return models.Ticket{}, false
}

func (e *BookingEngine) activeTicket(ticketID int) *models.Ticket {
	for i := range e.table.Records {
		if e.table.Records[i].ID == ticketID && e.table.Records[i].IsBooked {
			return &e.table.Records[i]
		}
	}
	return nil
}
