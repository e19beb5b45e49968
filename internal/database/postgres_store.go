package database

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/smarttransit/bus-reservation/internal/models"
)

// Sequence names stored in ledger_sequences
const (
	sequenceBuses   = "buses"
	sequenceTickets = "tickets"
	sequenceBills   = "bus_bills"
)

const schema = `
CREATE TABLE IF NOT EXISTS buses (
	id                INTEGER PRIMARY KEY,
	bus_number        TEXT NOT NULL,
	source            TEXT NOT NULL,
	destination       TEXT NOT NULL,
	departure_time    TEXT NOT NULL DEFAULT '',
	arrival_time      TEXT NOT NULL DEFAULT '',
	travel_date       TEXT NOT NULL,
	total_seats       INTEGER NOT NULL,
	ticket_price      DOUBLE PRECISION NOT NULL,
	seat_availability BOOLEAN[] NOT NULL,
	is_active         BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS tickets (
	id                INTEGER PRIMARY KEY,
	bus_id            INTEGER NOT NULL,
	passenger_name    TEXT NOT NULL,
	passenger_contact TEXT NOT NULL DEFAULT '',
	passenger_age     INTEGER NOT NULL,
	passenger_gender  TEXT NOT NULL,
	seat_number       INTEGER NOT NULL,
	booking_date      TIMESTAMPTZ NOT NULL,
	travel_date       TEXT NOT NULL,
	source            TEXT NOT NULL,
	destination       TEXT NOT NULL,
	bus_number        TEXT NOT NULL DEFAULT '',
	departure_time    TEXT NOT NULL DEFAULT '',
	fare              DOUBLE PRECISION NOT NULL,
	is_booked         BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS bus_bills (
	id              INTEGER PRIMARY KEY,
	bus_id          INTEGER NOT NULL,
	bus_number      TEXT NOT NULL,
	source          TEXT NOT NULL,
	destination     TEXT NOT NULL,
	travel_date     TEXT NOT NULL,
	departure_time  TEXT NOT NULL DEFAULT '',
	arrival_time    TEXT NOT NULL DEFAULT '',
	total_seats     INTEGER NOT NULL,
	total_revenue   DOUBLE PRECISION NOT NULL,
	generated_date  TIMESTAMPTZ NOT NULL,
	is_active       BOOLEAN NOT NULL,
	passenger_count INTEGER NOT NULL,
	passenger_ids   BIGINT[] NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger_sequences (
	name    TEXT PRIMARY KEY,
	next_id INTEGER NOT NULL
);
`

type busRow struct {
	ID               int          `db:"id"`
	BusNumber        string       `db:"bus_number"`
	Source           string       `db:"source"`
	Destination      string       `db:"destination"`
	DepartureTime    string       `db:"departure_time"`
	ArrivalTime      string       `db:"arrival_time"`
	TravelDate       string       `db:"travel_date"`
	TotalSeats       int          `db:"total_seats"`
	TicketPrice      float64      `db:"ticket_price"`
	SeatAvailability pq.BoolArray `db:"seat_availability"`
	IsActive         bool         `db:"is_active"`
}

type ticketRow struct {
	ID               int       `db:"id"`
	BusID            int       `db:"bus_id"`
	PassengerName    string    `db:"passenger_name"`
	PassengerContact string    `db:"passenger_contact"`
	PassengerAge     int       `db:"passenger_age"`
	PassengerGender  string    `db:"passenger_gender"`
	SeatNumber       int       `db:"seat_number"`
	BookingDate      time.Time `db:"booking_date"`
	TravelDate       string    `db:"travel_date"`
	Source           string    `db:"source"`
	Destination      string    `db:"destination"`
	BusNumber        string    `db:"bus_number"`
	DepartureTime    string    `db:"departure_time"`
	Fare             float64   `db:"fare"`
	IsBooked         bool      `db:"is_booked"`
}

type billRow struct {
	ID             int           `db:"id"`
	BusID          int           `db:"bus_id"`
	BusNumber      string        `db:"bus_number"`
	Source         string        `db:"source"`
	Destination    string        `db:"destination"`
	TravelDate     string        `db:"travel_date"`
	DepartureTime  string        `db:"departure_time"`
	ArrivalTime    string        `db:"arrival_time"`
	TotalSeats     int           `db:"total_seats"`
	TotalRevenue   float64       `db:"total_revenue"`
	GeneratedDate  time.Time     `db:"generated_date"`
	IsActive       bool          `db:"is_active"`
	PassengerCount int           `db:"passenger_count"`
	PassengerIDs   pq.Int64Array `db:"passenger_ids"`
}

type sequenceRow struct {
	Name   string `db:"name"`
	NextID int    `db:"next_id"`
}

// PostgresStore keeps the ledger in PostgreSQL
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the ledger tables if they do not exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create ledger schema: %w", err)
	}
	return nil
}

// Load reads every table in ID order
func (s *PostgresStore) Load(ctx context.Context) (*models.Ledger, error) {
	ledger := models.NewLedger()

	var buses []busRow
	if err := s.db.Select(&buses, `
		SELECT id, bus_number, source, destination, departure_time, arrival_time,
			travel_date, total_seats, ticket_price, seat_availability, is_active
		FROM buses
		ORDER BY id
	`); err != nil {
		return nil, fmt.Errorf("failed to load buses: %w", err)
	}
	for _, r := range buses {
		ledger.Buses.Records = append(ledger.Buses.Records, models.Bus{
			ID:               r.ID,
			BusNumber:        r.BusNumber,
			Source:           r.Source,
			Destination:      r.Destination,
			DepartureTime:    r.DepartureTime,
			ArrivalTime:      r.ArrivalTime,
			TravelDate:       r.TravelDate,
			TotalSeats:       r.TotalSeats,
			TicketPrice:      r.TicketPrice,
			SeatAvailability: []bool(r.SeatAvailability),
			IsActive:         r.IsActive,
		})
	}

	var tickets []ticketRow
	if err := s.db.Select(&tickets, `
		SELECT id, bus_id, passenger_name, passenger_contact, passenger_age, passenger_gender,
			seat_number, booking_date, travel_date, source, destination, bus_number,
			departure_time, fare, is_booked
		FROM tickets
		ORDER BY id
	`); err != nil {
		return nil, fmt.Errorf("failed to load tickets: %w", err)
	}
	for _, r := range tickets {
		ledger.Tickets.Records = append(ledger.Tickets.Records, models.Ticket{
			ID:    r.ID,
			BusID: r.BusID,
			Passenger: models.Passenger{
				Name:          r.PassengerName,
				ContactNumber: r.PassengerContact,
				Age:           r.PassengerAge,
				Gender:        r.PassengerGender,
			},
			SeatNumber:    r.SeatNumber,
			BookingDate:   r.BookingDate,
			TravelDate:    r.TravelDate,
			Source:        r.Source,
			Destination:   r.Destination,
			BusNumber:     r.BusNumber,
			DepartureTime: r.DepartureTime,
			Fare:          r.Fare,
			IsBooked:      r.IsBooked,
		})
	}

	var bills []billRow
	if err := s.db.Select(&bills, `
		SELECT id, bus_id, bus_number, source, destination, travel_date, departure_time,
			arrival_time, total_seats, total_revenue, generated_date, is_active,
			passenger_count, passenger_ids
		FROM bus_bills
		ORDER BY id
	`); err != nil {
		return nil, fmt.Errorf("failed to load bus bills: %w", err)
	}
	for _, r := range bills {
		ids := make([]int, 0, len(r.PassengerIDs))
		for _, id := range r.PassengerIDs {
			ids = append(ids, int(id))
		}
		ledger.Bills.Records = append(ledger.Bills.Records, models.BusBill{
			ID:             r.ID,
			BusID:          r.BusID,
			BusNumber:      r.BusNumber,
			Source:         r.Source,
			Destination:    r.Destination,
			TravelDate:     r.TravelDate,
			DepartureTime:  r.DepartureTime,
			ArrivalTime:    r.ArrivalTime,
			TotalSeats:     r.TotalSeats,
			TotalRevenue:   r.TotalRevenue,
			GeneratedDate:  r.GeneratedDate,
			IsActive:       r.IsActive,
			PassengerCount: r.PassengerCount,
			PassengerIDs:   ids,
		})
	}

	var sequences []sequenceRow
	if err := s.db.Select(&sequences, `SELECT name, next_id FROM ledger_sequences`); err != nil {
		return nil, fmt.Errorf("failed to load ledger sequences: %w", err)
	}
	for _, seq := range sequences {
		switch seq.Name {
		case sequenceBuses:
			ledger.Buses.NextID = seq.NextID
		case sequenceTickets:
			ledger.Tickets.NextID = seq.NextID
		case sequenceBills:
			ledger.Bills.NextID = seq.NextID
		}
	}

	ledger.Normalize()
	return ledger, nil
}

// Save upserts every record and counter in a single transaction
func (s *PostgresStore) Save(ctx context.Context, ledger *models.Ledger) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, b := range ledger.Buses.Records {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO buses (
				id, bus_number, source, destination, departure_time, arrival_time,
				travel_date, total_seats, ticket_price, seat_availability, is_active
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO UPDATE SET
				ticket_price = EXCLUDED.ticket_price,
				seat_availability = EXCLUDED.seat_availability,
				is_active = EXCLUDED.is_active
		`,
			b.ID, b.BusNumber, b.Source, b.Destination, b.DepartureTime, b.ArrivalTime,
			b.TravelDate, b.TotalSeats, b.TicketPrice, pq.BoolArray(b.SeatAvailability), b.IsActive,
		); err != nil {
			return fmt.Errorf("failed to save bus %d: %w", b.ID, err)
		}
	}

	for _, t := range ledger.Tickets.Records {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tickets (
				id, bus_id, passenger_name, passenger_contact, passenger_age, passenger_gender,
				seat_number, booking_date, travel_date, source, destination, bus_number,
				departure_time, fare, is_booked
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (id) DO UPDATE SET
				is_booked = EXCLUDED.is_booked
		`,
			t.ID, t.BusID, t.Passenger.Name, t.Passenger.ContactNumber, t.Passenger.Age, t.Passenger.Gender,
			t.SeatNumber, t.BookingDate, t.TravelDate, t.Source, t.Destination, t.BusNumber,
			t.DepartureTime, t.Fare, t.IsBooked,
		); err != nil {
			return fmt.Errorf("failed to save ticket %d: %w", t.ID, err)
		}
	}

	// Bills are immutable, existing rows are left as they are
	for _, b := range ledger.Bills.Records {
		ids := make(pq.Int64Array, 0, len(b.PassengerIDs))
		for _, id := range b.PassengerIDs {
			ids = append(ids, int64(id))
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bus_bills (
				id, bus_id, bus_number, source, destination, travel_date, departure_time,
				arrival_time, total_seats, total_revenue, generated_date, is_active,
				passenger_count, passenger_ids
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (id) DO NOTHING
		`,
			b.ID, b.BusID, b.BusNumber, b.Source, b.Destination, b.TravelDate, b.DepartureTime,
			b.ArrivalTime, b.TotalSeats, b.TotalRevenue, b.GeneratedDate, b.IsActive,
			b.PassengerCount, ids,
		); err != nil {
			return fmt.Errorf("failed to save bill %d: %w", b.ID, err)
		}
	}

	sequences := []sequenceRow{
		{Name: sequenceBuses, NextID: ledger.Buses.NextID},
		{Name: sequenceTickets, NextID: ledger.Tickets.NextID},
		{Name: sequenceBills, NextID: ledger.Bills.NextID},
	}
	for _, seq := range sequences {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ledger_sequences (name, next_id) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET next_id = EXCLUDED.next_id
		`, seq.Name, seq.NextID); err != nil {
			return fmt.Errorf("failed to save sequence %s: %w", seq.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger: %w", err)
	}
	return nil
}
