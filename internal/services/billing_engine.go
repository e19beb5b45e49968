package services

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-reservation/internal/models"
)

// BillingEngine derives bus bills from booking history. It does not
// prevent duplicate bills; callers check HasBill first.
type BillingEngine struct {
	table  *models.BillTable
	now    func() time.Time
	logger *logrus.Logger
}

// NewBillingEngine creates a billing engine over the given bill table
func NewBillingEngine(table *models.BillTable, now func() time.Time, logger *logrus.Logger) *BillingEngine {
	if now == nil {
		now = time.Now
	}
	return &BillingEngine{
		table:  table,
		now:    now,
		logger: logger,
	}
}

// GenerateBill snapshots the bus and sums the fares of every ticket
// issued against it, cancelled tickets included
func (e *BillingEngine) GenerateBill(bus models.Bus, tickets []models.Ticket) models.BusBill {
	revenue := decimal.Zero
	passengerIDs := []int{}
	for _, t := range tickets {
		if t.BusID != bus.ID {
			continue
		}
		revenue = revenue.Add(decimal.NewFromFloat(t.Fare))
		passengerIDs = append(passengerIDs, t.ID)
	}

	bill := models.BusBill{
		ID:             e.table.NextID,
		BusID:          bus.ID,
		BusNumber:      bus.BusNumber,
		Source:         bus.Source,
		Destination:    bus.Destination,
		TravelDate:     bus.TravelDate,
		DepartureTime:  bus.DepartureTime,
		ArrivalTime:    bus.ArrivalTime,
		TotalSeats:     bus.TotalSeats,
		TotalRevenue:   revenue.InexactFloat64(),
		GeneratedDate:  e.now(),
		IsActive:       true,
		PassengerCount: len(passengerIDs),
		PassengerIDs:   passengerIDs,
	}
	e.table.NextID++
	e.table.Records = append(e.table.Records, bill)

	e.logger.WithFields(logrus.Fields{
		"bill_id":         bill.ID,
		"bus_id":          bill.BusID,
		"total_revenue":   bill.TotalRevenue,
		"passenger_count": bill.PassengerCount,
	}).Info("Bus bill generated")

	return copyBill(bill)
}

// HasBill reports whether an active bill exists for the bus
func (e *BillingEngine) HasBill(busID int) bool {
	for i := range e.table.Records {
		if e.table.Records[i].IsActive && e.table.Records[i].BusID == busID {
			return true
		}
	}
	return false
}

// FindBill returns an active bill by ID
func (e *BillingEngine) FindBill(billID int) (models.BusBill, bool) {
	for i := range e.table.Records {
		if e.table.Records[i].ID == billID && e.table.Records[i].IsActive {
			return copyBill(e.table.Records[i]), true
		}
	}
	return models.BusBill{}, false
}

// ListHistory returns active bills in generation order
func (e *BillingEngine) ListHistory() []models.BusBill {
	bills := []models.BusBill{}
	for i := range e.table.Records {
		if e.table.Records[i].IsActive {
			bills = append(bills, copyBill(e.table.Records[i]))
		}
	}
	return bills
}

// Resolve attaches passenger details from the ticket lookup. IDs with no
// matching ticket are skipped.
func (e *BillingEngine) Resolve(bill models.BusBill, lookup func(ticketID int) (models.Ticket, bool)) models.BillDetail {
	detail := models.BillDetail{BusBill: bill, Passengers: []models.BillPassenger{}}
	for _, id := range bill.PassengerIDs {
		t, ok := lookup(id)
		if !ok {
			continue
		}
		detail.Passengers = append(detail.Passengers, models.BillPassenger{
			TicketID:      t.ID,
			Name:          t.Passenger.Name,
			ContactNumber: t.Passenger.ContactNumber,
			SeatNumber:    t.SeatNumber,
		})
	}
	return detail
}

func copyBill(bill models.BusBill) models.BusBill {
	bill.PassengerIDs = append([]int{}, bill.PassengerIDs...)
	return bill
}
