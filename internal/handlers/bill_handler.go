package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-reservation/internal/services"
)

type BillHandler struct {
	reservations *services.ReservationService
	documents    *services.BillDocumentService
	logger       *logrus.Logger
}

func NewBillHandler(reservations *services.ReservationService, documents *services.BillDocumentService, logger *logrus.Logger) *BillHandler {
	return &BillHandler{
		reservations: reservations,
		documents:    documents,
		logger:       logger,
	}
}

// ListBills returns the bill history
// GET /api/v1/bills
func (h *BillHandler) ListBills(c *gin.Context) {
	c.JSON(http.StatusOK, h.reservations.ListBills())
}

// GetBill returns one bill with its passengers
// GET /api/v1/bills/:id
func (h *BillHandler) GetBill(c *gin.Context) {
	billID, ok := idParam(c, "id")
	if !ok {
		return
	}

	bill, err := h.reservations.GetBill(billID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, bill)
}

// DownloadBill renders a bill as PDF
// GET /api/v1/bills/:id/pdf
func (h *BillHandler) DownloadBill(c *gin.Context) {
	billID, ok := idParam(c, "id")
	if !ok {
		return
	}

	bill, err := h.reservations.GetBill(billID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	pdf, err := h.documents.Render(bill)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, h.documents.FileName(bill.BusBill)))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
