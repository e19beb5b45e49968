package services

import (
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-reservation/internal/models"
	"github.com/smarttransit/bus-reservation/pkg/validator"
)

// LedgerConfig holds the tunable rules of the reservation engine
type LedgerConfig struct {
	MinTravelYear        int  // Earliest accepted travel year
	MaxSeatsPerBus       int  // Seat cap per bus
	RejectOversizedSeats bool // Reject instead of clamping seat counts above the cap
}

// DefaultLedgerConfig returns the default engine rules
func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		MinTravelYear:        validator.DefaultMinYear,
		MaxSeatsPerBus:       50,
		RejectOversizedSeats: false,
	}
}

// InventoryStore owns the bus records and their seat maps
type InventoryStore struct {
	table  *models.BusTable
	dates  *validator.TravelDateValidator
	config LedgerConfig
	logger *logrus.Logger
}

// NewInventoryStore creates an inventory store over the given bus table
func NewInventoryStore(table *models.BusTable, dates *validator.TravelDateValidator, config LedgerConfig, logger *logrus.Logger) *InventoryStore {
	return &InventoryStore{
		table:  table,
		dates:  dates,
		config: config,
		logger: logger,
	}
}

// AddBus validates and registers a new bus with all seats available
func (s *InventoryStore) AddBus(req models.AddBusRequest) (models.Bus, error) {
	if err := req.Validate(); err != nil {
		return models.Bus{}, newError(ErrInvalidBus, "%s", err.Error())
	}

	for i := range s.table.Records {
		if s.table.Records[i].IsActive && s.table.Records[i].BusNumber == req.BusNumber {
			return models.Bus{}, newError(ErrDuplicateBusNumber, "bus number %s already exists", req.BusNumber)
		}
	}

	if err := s.dates.Validate(req.TravelDate); err != nil {
		return models.Bus{}, newError(ErrInvalidTravelDate, "%s", err.Error())
	}

	seats := req.TotalSeats
	if seats > s.config.MaxSeatsPerBus {
		if s.config.RejectOversizedSeats {
			return models.Bus{}, newError(ErrTooManySeats, "maximum seat limit is %d", s.config.MaxSeatsPerBus)
		}
		s.logger.WithFields(logrus.Fields{
			"bus_number":      req.BusNumber,
			"requested_seats": seats,
			"max_seats":       s.config.MaxSeatsPerBus,
		}).Warn("Seat count above limit, clamping")
		seats = s.config.MaxSeatsPerBus
	}

	availability := make([]bool, seats)
	for i := range availability {
		availability[i] = true
	}

	bus := models.Bus{
		ID:               s.table.NextID,
		BusNumber:        req.BusNumber,
		Source:           req.Source,
		Destination:      req.Destination,
		DepartureTime:    req.DepartureTime,
		ArrivalTime:      req.ArrivalTime,
		TravelDate:       req.TravelDate,
		TotalSeats:       seats,
		TicketPrice:      req.TicketPrice,
		SeatAvailability: availability,
		IsActive:         true,
	}
	s.table.NextID++
	s.table.Records = append(s.table.Records, bus)

	return copyBus(bus), nil
}

// FindActiveBus returns the bus only if it has not been deleted
func (s *InventoryStore) FindActiveBus(busID int) (models.Bus, bool) {
	bus := s.activeBus(busID)
	if bus == nil {
		return models.Bus{}, false
	}
	return copyBus(*bus), true
}

// FindBus returns the bus regardless of status
func (s *InventoryStore) FindBus(busID int) (models.Bus, bool) {
	for i := range s.table.Records {
		if s.table.Records[i].ID == busID {
			return copyBus(s.table.Records[i]), true
		}
	}
	return models.Bus{}, false
}

// CountAvailable counts open seats on the bus
func (s *InventoryStore) CountAvailable(bus models.Bus) int {
	return bus.AvailableSeats()
}

// IsFullyBooked reports whether the bus has no open seats
func (s *InventoryStore) IsFullyBooked(bus models.Bus) bool {
	return bus.IsFullyBooked()
}

// Deactivate soft-deletes the bus. Seats and tickets are left untouched.
func (s *InventoryStore) Deactivate(busID int) error {
	bus := s.activeBus(busID)
	if bus == nil {
		return newError(ErrBusNotFound, "bus with ID %d not found", busID)
	}
	bus.IsActive = false
	return nil
}

// UpdatePrice changes the fare charged by future bookings
func (s *InventoryStore) UpdatePrice(busID int, price float64) (models.Bus, error) {
	if price < 0 {
		return models.Bus{}, newError(ErrInvalidBus, "ticket_price cannot be negative")
	}
	bus := s.activeBus(busID)
	if bus == nil {
		return models.Bus{}, newError(ErrBusNotFound, "bus with ID %d not found", busID)
	}
	bus.TicketPrice = price
	return copyBus(*bus), nil
}

// ListActive returns all active buses in insertion order
func (s *InventoryStore) ListActive() []models.Bus {
	return s.filter(func(b *models.Bus) bool { return true })
}

// SearchByRoute returns active buses with the exact source and destination
func (s *InventoryStore) SearchByRoute(source, destination string) []models.Bus {
	return s.filter(func(b *models.Bus) bool {
		return b.Source == source && b.Destination == destination
	})
}

// SearchByNumber returns active buses with the exact bus number
func (s *InventoryStore) SearchByNumber(busNumber string) []models.Bus {
	return s.filter(func(b *models.Bus) bool {
		return b.BusNumber == busNumber
	})
}

// SearchBookable returns active buses running the route on the travel date
func (s *InventoryStore) SearchBookable(travelDate, source, destination string) []models.Bus {
	return s.filter(func(b *models.Bus) bool {
		return b.TravelDate == travelDate && b.Source == source && b.Destination == destination
	})
}

// reserveSeat marks an open seat as taken
func (s *InventoryStore) reserveSeat(busID, seatNumber int) error {
	bus := s.activeBus(busID)
	if bus == nil {
		return newError(ErrBusNotFound, "bus with ID %d not found", busID)
	}
	if seatNumber < 1 || seatNumber > bus.TotalSeats {
		return newError(ErrSeatOutOfRange, "seat number must be between 1 and %d", bus.TotalSeats)
	}
	if !bus.SeatAvailability[seatNumber-1] {
		return newError(ErrSeatAlreadyBooked, "seat %d is already booked", seatNumber)
	}
	bus.SeatAvailability[seatNumber-1] = false
	return nil
}

// releaseSeat reopens a seat on an active bus
func (s *InventoryStore) releaseSeat(busID, seatNumber int) error {
	bus := s.activeBus(busID)
	if bus == nil {
		return newError(ErrBusNotFound, "bus information not found for bus %d", busID)
	}
	if seatNumber < 1 || seatNumber > bus.TotalSeats {
		return newError(ErrSeatOutOfRange, "seat number must be between 1 and %d", bus.TotalSeats)
	}
	bus.SeatAvailability[seatNumber-1] = true
	return nil
}

func (s *InventoryStore) activeBus(busID int) *models.Bus {
	for i := range s.table.Records {
		if s.table.Records[i].ID == busID && s.table.Records[i].IsActive {
			return &s.table.Records[i]
		}
	}
	return nil
}

func (s *InventoryStore) filter(match func(b *models.Bus) bool) []models.Bus {
	buses := []models.Bus{}
	for i := range s.table.Records {
		bus := &s.table.Records[i]
		if bus.IsActive && match(bus) {
			buses = append(buses, copyBus(*bus))
		}
	}
	return buses
}

// copyBus detaches the seat map so callers cannot mutate the store
func copyBus(bus models.Bus) models.Bus {
	bus.SeatAvailability = append([]bool(nil), bus.SeatAvailability...)
	return bus
}
