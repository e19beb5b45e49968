package models

// First IDs handed out by an empty ledger
const (
	FirstBusID    = 101
	FirstTicketID = 1001
	FirstBillID   = 501
)

// BusTable is the ordered bus collection and its ID counter
type BusTable struct {
	NextID  int   `json:"next_id" cbor:"next_id"`
	Records []Bus `json:"records" cbor:"records"`
}

// TicketTable is the ordered ticket collection and its ID counter
type TicketTable struct {
	NextID  int      `json:"next_id" cbor:"next_id"`
	Records []Ticket `json:"records" cbor:"records"`
}

// BillTable is the ordered bill collection and its ID counter
type BillTable struct {
	NextID  int       `json:"next_id" cbor:"next_id"`
	Records []BusBill `json:"records" cbor:"records"`
}

// Ledger is the full persisted state of the reservation system
type Ledger struct {
	Buses   BusTable
	Tickets TicketTable
	Bills   BillTable
}

// NewLedger returns an empty ledger with the initial ID counters
func NewLedger() *Ledger {
	return &Ledger{
		Buses:   BusTable{NextID: FirstBusID, Records: []Bus{}},
		Tickets: TicketTable{NextID: FirstTicketID, Records: []Ticket{}},
		Bills:   BillTable{NextID: FirstBillID, Records: []BusBill{}},
	}
}

// Normalize fills zero counters and nil collections, e.g. after loading
// partial data
func (l *Ledger) Normalize() {
	if l.Buses.NextID == 0 {
		l.Buses.NextID = FirstBusID
	}
	if l.Tickets.NextID == 0 {
		l.Tickets.NextID = FirstTicketID
	}
	if l.Bills.NextID == 0 {
		l.Bills.NextID = FirstBillID
	}
	if l.Buses.Records == nil {
		l.Buses.Records = []Bus{}
	}
	if l.Tickets.Records == nil {
		l.Tickets.Records = []Ticket{}
	}
	if l.Bills.Records == nil {
		l.Bills.Records = []BusBill{}
	}
}

// Clone returns a deep copy of the ledger
func (l *Ledger) Clone() *Ledger {
	out := &Ledger{
		Buses:   BusTable{NextID: l.Buses.NextID, Records: make([]Bus, len(l.Buses.Records))},
		Tickets: TicketTable{NextID: l.Tickets.NextID, Records: make([]Ticket, len(l.Tickets.Records))},
		Bills:   BillTable{NextID: l.Bills.NextID, Records: make([]BusBill, len(l.Bills.Records))},
	}

	for i, bus := range l.Buses.Records {
		bus.SeatAvailability = append([]bool(nil), bus.SeatAvailability...)
		out.Buses.Records[i] = bus
	}
	copy(out.Tickets.Records, l.Tickets.Records)
	for i, bill := range l.Bills.Records {
		bill.PassengerIDs = append([]int(nil), bill.PassengerIDs...)
		out.Bills.Records[i] = bill
	}

	return out
}
