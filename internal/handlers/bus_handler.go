package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-reservation/internal/models"
	"github.com/smarttransit/bus-reservation/internal/services"
)

type BusHandler struct {
	reservations *services.ReservationService
	logger       *logrus.Logger
}

func NewBusHandler(reservations *services.ReservationService, logger *logrus.Logger) *BusHandler {
	return &BusHandler{
		reservations: reservations,
		logger:       logger,
	}
}

// ListBuses returns all active buses
// GET /api/v1/buses
func (h *BusHandler) ListBuses(c *gin.Context) {
	c.JSON(http.StatusOK, h.reservations.ListBuses())
}

// GetBus returns one active bus
// GET /api/v1/buses/:id
func (h *BusHandler) GetBus(c *gin.Context) {
	busID, ok := idParam(c, "id")
	if !ok {
		return
	}

	bus, err := h.reservations.GetBus(busID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, bus)
}

// CreateBus adds a new bus
// POST /api/v1/buses
func (h *BusHandler) CreateBus(c *gin.Context) {
	var req models.AddBusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	bus, err := h.reservations.AddBus(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, models.NewBusSummary(bus))
}

// SearchBuses finds buses by number, by route, or by route and travel date
// GET /api/v1/buses/search?number=... | ?source=...&destination=...[&date=DD/MM/YYYY]
func (h *BusHandler) SearchBuses(c *gin.Context) {
	var req models.SearchBusRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	buses, err := h.reservations.Search(req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, buses)
}

// UpdatePrice changes the ticket price for future bookings
// PATCH /api/v1/buses/:id/price
func (h *BusHandler) UpdatePrice(c *gin.Context) {
	busID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	bus, err := h.reservations.UpdatePrice(c.Request.Context(), busID, req.TicketPrice)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, models.NewBusSummary(bus))
}

// DeleteBus soft-deletes a bus
// DELETE /api/v1/buses/:id
func (h *BusHandler) DeleteBus(c *gin.Context) {
	busID, ok := idParam(c, "id")
	if !ok {
		return
	}

	bill, err := h.reservations.DeleteBus(c.Request.Context(), busID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response := gin.H{
		"message": "Bus deleted successfully",
		"bus_id":  busID,
	}
	if bill != nil {
		response["bill"] = bill
	}
	c.JSON(http.StatusOK, response)
}
