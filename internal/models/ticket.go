package models

import (
	"errors"
	"strings"
	"time"
)

// TicketStatus is the display status of a ticket
type TicketStatus string

const (
	TicketStatusActive    TicketStatus = "Active"
	TicketStatusCancelled TicketStatus = "Cancelled"
)

// Passenger holds the traveller details embedded in a ticket
type Passenger struct {
	Name          string `json:"name" db:"passenger_name" cbor:"name"`
	ContactNumber string `json:"contact_number" db:"passenger_contact" cbor:"contact_number"`
	Age           int    `json:"age" db:"passenger_age" cbor:"age"`
	Gender        string `json:"gender" db:"passenger_gender" cbor:"gender"` // single character, e.g. M or F
}

// Validate checks the passenger details
func (p *Passenger) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("passenger name is required")
	}
	if p.Age < 0 {
		return errors.New("passenger age cannot be negative")
	}
	if len([]rune(p.Gender)) != 1 {
		return errors.New("passenger gender must be a single character")
	}
	return nil
}

// Ticket is a seat booking. Route, date, fare and bus details are copied
// from the bus at booking time and never change afterwards.
type Ticket struct {
	ID            int       `json:"id" db:"id" cbor:"id"`
	BusID         int       `json:"bus_id" db:"bus_id" cbor:"bus_id"`
	Passenger     Passenger `json:"passenger" cbor:"passenger"`
	SeatNumber    int       `json:"seat_number" db:"seat_number" cbor:"seat_number"`
	BookingDate   time.Time `json:"booking_date" db:"booking_date" cbor:"booking_date"`
	TravelDate    string    `json:"travel_date" db:"travel_date" cbor:"travel_date"`
	Source        string    `json:"source" db:"source" cbor:"source"`
	Destination   string    `json:"destination" db:"destination" cbor:"destination"`
	BusNumber     string    `json:"bus_number" db:"bus_number" cbor:"bus_number"`
	DepartureTime string    `json:"departure_time" db:"departure_time" cbor:"departure_time"`
	Fare          float64   `json:"fare" db:"fare" cbor:"fare"`
	IsBooked      bool      `json:"is_booked" db:"is_booked" cbor:"is_booked"`
}

// Status returns the display status
func (t *Ticket) Status() TicketStatus {
	if t.IsBooked {
		return TicketStatusActive
	}
	return TicketStatusCancelled
}

// BookTicketRequest represents the request to book one seat
type BookTicketRequest struct {
	BusID       int       `json:"bus_id" binding:"required"`
	TravelDate  string    `json:"travel_date" binding:"required"` // Format: DD/MM/YYYY
	Source      string    `json:"source" binding:"required"`
	Destination string    `json:"destination" binding:"required"`
	SeatNumber  int       `json:"seat_number" binding:"required"`
	Passenger   Passenger `json:"passenger"`
}

// BookingResult is returned after a successful booking. Bill is set when
// the booking filled the bus and a bill was generated.
type BookingResult struct {
	Ticket         Ticket   `json:"ticket"`
	AvailableSeats int      `json:"available_seats"`
	Bill           *BusBill `json:"bill,omitempty"`
}

// TicketListItem is a ticket as shown in the bookings list
type TicketListItem struct {
	Ticket
	Status TicketStatus `json:"status"`
}

// NewTicketListItem builds the list view of a ticket
func NewTicketListItem(t Ticket) TicketListItem {
	return TicketListItem{Ticket: t, Status: t.Status()}
}

// CancellationResult reports a cancelled ticket and the amount refunded
type CancellationResult struct {
	TicketID int     `json:"ticket_id"`
	Refund   float64 `json:"refund"`
}
