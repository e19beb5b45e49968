package models

import "time"

// BusBill is the revenue snapshot of a bus, taken once when the bus
// fills up or is deleted while full
type BusBill struct {
	ID             int       `json:"id" db:"id" cbor:"id"`
	BusID          int       `json:"bus_id" db:"bus_id" cbor:"bus_id"`
	BusNumber      string    `json:"bus_number" db:"bus_number" cbor:"bus_number"`
	Source         string    `json:"source" db:"source" cbor:"source"`
	Destination    string    `json:"destination" db:"destination" cbor:"destination"`
	TravelDate     string    `json:"travel_date" db:"travel_date" cbor:"travel_date"`
	DepartureTime  string    `json:"departure_time" db:"departure_time" cbor:"departure_time"`
	ArrivalTime    string    `json:"arrival_time" db:"arrival_time" cbor:"arrival_time"`
	TotalSeats     int       `json:"total_seats" db:"total_seats" cbor:"total_seats"`
	TotalRevenue   float64   `json:"total_revenue" db:"total_revenue" cbor:"total_revenue"`
	GeneratedDate  time.Time `json:"generated_date" db:"generated_date" cbor:"generated_date"`
	IsActive       bool      `json:"is_active" db:"is_active" cbor:"is_active"`
	PassengerCount int       `json:"passenger_count" db:"passenger_count" cbor:"passenger_count"`
	PassengerIDs   []int     `json:"passenger_ids" db:"passenger_ids" cbor:"passenger_ids"` // ticket IDs
}

// BillPassenger is one passenger line of a rendered bill
type BillPassenger struct {
	TicketID      int    `json:"ticket_id"`
	Name          string `json:"name"`
	ContactNumber string `json:"contact_number"`
	SeatNumber    int    `json:"seat_number"`
}

// BillDetail is a bill with its passenger IDs resolved against tickets
type BillDetail struct {
	BusBill
	Passengers []BillPassenger `json:"passengers"`
}
