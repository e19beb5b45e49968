package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-reservation/internal/models"
	"github.com/smarttransit/bus-reservation/internal/services"
)

type TicketHandler struct {
	reservations *services.ReservationService
	logger       *logrus.Logger
}

func NewTicketHandler(reservations *services.ReservationService, logger *logrus.Logger) *TicketHandler {
	return &TicketHandler{
		reservations: reservations,
		logger:       logger,
	}
}

// BookTicket books a seat
// POST /api/v1/tickets
func (h *TicketHandler) BookTicket(c *gin.Context) {
	var req models.BookTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.reservations.BookTicket(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListTickets returns every ticket including cancelled ones
// GET /api/v1/tickets
func (h *TicketHandler) ListTickets(c *gin.Context) {
	c.JSON(http.StatusOK, h.reservations.ListBookings())
}

// GetTicket returns an active ticket
// GET /api/v1/tickets/:id
func (h *TicketHandler) GetTicket(c *gin.Context) {
	ticketID, ok := idParam(c, "id")
	if !ok {
		return
	}

	ticket, err := h.reservations.ViewTicket(ticketID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, models.NewTicketListItem(ticket))
}

// CancelTicket cancels an active ticket
// POST /api/v1/tickets/:id/cancel
func (h *TicketHandler) CancelTicket(c *gin.Context) {
	ticketID, ok := idParam(c, "id")
	if !ok {
		return
	}

	result, err := h.reservations.CancelTicket(c.Request.Context(), ticketID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
