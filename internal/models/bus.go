package models

import (
	"errors"
	"strings"
)

// Bus represents a scheduled bus run and its seat inventory
type Bus struct {
	ID               int     `json:"id" db:"id" cbor:"id"`
	BusNumber        string  `json:"bus_number" db:"bus_number" cbor:"bus_number"`
	Source           string  `json:"source" db:"source" cbor:"source"`
	Destination      string  `json:"destination" db:"destination" cbor:"destination"`
	DepartureTime    string  `json:"departure_time" db:"departure_time" cbor:"departure_time"`
	ArrivalTime      string  `json:"arrival_time" db:"arrival_time" cbor:"arrival_time"`
	TravelDate       string  `json:"travel_date" db:"travel_date" cbor:"travel_date"` // DD/MM/YYYY
	TotalSeats       int     `json:"total_seats" db:"total_seats" cbor:"total_seats"`
	TicketPrice      float64 `json:"ticket_price" db:"ticket_price" cbor:"ticket_price"`
	SeatAvailability []bool  `json:"seat_availability" db:"seat_availability" cbor:"seat_availability"` // index i is seat i+1
	IsActive         bool    `json:"is_active" db:"is_active" cbor:"is_active"`
}

// AvailableSeats counts seats still open for booking
func (b *Bus) AvailableSeats() int {
	count := 0
	for _, open := range b.SeatAvailability {
		if open {
			count++
		}
	}
	return count
}

// IsFullyBooked reports whether no seat is open. A bus without seats is
// considered fully booked.
func (b *Bus) IsFullyBooked() bool {
	return b.AvailableSeats() == 0
}

// SeatOpen reports whether the 1-based seat is in range and available
func (b *Bus) SeatOpen(seatNumber int) bool {
	if seatNumber < 1 || seatNumber > len(b.SeatAvailability) {
		return false
	}
	return b.SeatAvailability[seatNumber-1]
}

// BusSummary is a bus as listed to callers, with the derived seat count
type BusSummary struct {
	Bus
	AvailableSeats int `json:"available_seats"`
}

// NewBusSummary builds the listing view of a bus
func NewBusSummary(b Bus) BusSummary {
	return BusSummary{Bus: b, AvailableSeats: b.AvailableSeats()}
}

// AddBusRequest represents the request to add a new bus
type AddBusRequest struct {
	BusNumber     string  `json:"bus_number" binding:"required"`
	Source        string  `json:"source" binding:"required"`
	Destination   string  `json:"destination" binding:"required"`
	DepartureTime string  `json:"departure_time"`
	ArrivalTime   string  `json:"arrival_time"`
	TravelDate    string  `json:"travel_date" binding:"required"` // Format: DD/MM/YYYY
	TotalSeats    int     `json:"total_seats" binding:"required"`
	TicketPrice   float64 `json:"ticket_price"`
}

// Validate checks the fields that do not depend on ledger state
func (req *AddBusRequest) Validate() error {
	if strings.TrimSpace(req.BusNumber) == "" {
		return errors.New("bus_number is required")
	}
	if strings.TrimSpace(req.Source) == "" || strings.TrimSpace(req.Destination) == "" {
		return errors.New("source and destination are required")
	}
	if req.TotalSeats < 1 {
		return errors.New("total_seats must be greater than 0")
	}
	if req.TicketPrice < 0 {
		return errors.New("ticket_price cannot be negative")
	}
	return nil
}

// UpdatePriceRequest changes the fare charged for future bookings
type UpdatePriceRequest struct {
	TicketPrice float64 `json:"ticket_price"`
}

// SearchBusRequest selects one of the three search modes. Route search
// uses Source and Destination, number search uses BusNumber, bookable
// search adds TravelDate to the route.
type SearchBusRequest struct {
	Source      string `form:"source"`
	Destination string `form:"destination"`
	BusNumber   string `form:"number"`
	TravelDate  string `form:"date"`
}
