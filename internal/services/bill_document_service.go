package services

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-reservation/internal/models"
	"github.com/smarttransit/bus-reservation/pkg/validator"
)

// BillDocumentService renders bus bills as printable PDF documents
type BillDocumentService struct {
	logger *logrus.Logger
}

// NewBillDocumentService creates a new bill document service
func NewBillDocumentService(logger *logrus.Logger) *BillDocumentService {
	return &BillDocumentService{logger: logger}
}

// FileName returns the download name for a bill document
func (s *BillDocumentService) FileName(bill models.BusBill) string {
	return fmt.Sprintf("bill-%d-%s.pdf", bill.ID, safeFilenamePart(bill.BusNumber))
}

// Render builds the PDF for a bill and its resolved passengers
func (s *BillDocumentService) Render(detail models.BillDetail) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Bus Bill %d", detail.ID), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BUS BILL")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Bill ID        : %d", detail.ID),
		fmt.Sprintf("Bus            : %s (#%d)", safe(detail.BusNumber, "-"), detail.BusID),
		fmt.Sprintf("Route          : %s -> %s", safe(detail.Source, "-"), safe(detail.Destination, "-")),
		fmt.Sprintf("Travel Date    : %s", safe(detail.TravelDate, "-")),
		fmt.Sprintf("Departure      : %s", safe(detail.DepartureTime, "-")),
		fmt.Sprintf("Arrival        : %s", safe(detail.ArrivalTime, "-")),
		fmt.Sprintf("Total Seats    : %d", detail.TotalSeats),
		fmt.Sprintf("Passengers     : %d", detail.PassengerCount),
		fmt.Sprintf("Generated      : %s", detail.GeneratedDate.Format(validator.TravelDateLayout + " 15:04")),
	}
	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	widths := []float64{25, 70, 50, 25}
	for i, header := range []string{"Ticket", "Passenger", "Contact", "Seat"} {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	for _, p := range detail.Passengers {
		pdf.CellFormat(widths[0], 7, fmt.Sprintf("%d", p.TicketID), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, safe(p.Name, "-"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, safe(p.ContactNumber, "-"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 7, seatLabel(p.SeatNumber), "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, fmt.Sprintf("TOTAL REVENUE: Rs. %.2f", detail.TotalRevenue))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Revenue includes every ticket issued for this bus, cancelled tickets included.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render bill %d: %w", detail.ID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"bill_id": detail.ID,
		"bytes":   buf.Len(),
	}).Debug("Bill document rendered")

	return buf.Bytes(), nil
}

func seatLabel(seat int) string {
	if seat <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d", seat)
}

func safe(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func safeFilenamePart(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "bus"
	}
	return string(out)
}
