package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-reservation/internal/middleware"
	"github.com/smarttransit/bus-reservation/internal/services"
	"github.com/smarttransit/bus-reservation/pkg/jwt"
)

// Handlers groups the HTTP handlers served under /api/v1
type Handlers struct {
	Auth   *AuthHandler
	Bus    *BusHandler
	Ticket *TicketHandler
	Bill   *BillHandler
	Admin  *AdminHandler // optional
}

// RegisterRoutes mounts the public and operator routes on api
func RegisterRoutes(api *gin.RouterGroup, h Handlers, jwtService *jwt.Service, logger *logrus.Logger) {
	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(jwtService, logger))
	protected.Use(middleware.RequireRole(services.OperatorRole))
	{
		buses := protected.Group("/buses")
		{
			buses.GET("", h.Bus.ListBuses)
			buses.POST("", h.Bus.CreateBus)
			buses.GET("/search", h.Bus.SearchBuses)
			buses.GET("/:id", h.Bus.GetBus)
			buses.PATCH("/:id/price", h.Bus.UpdatePrice)
			buses.DELETE("/:id", h.Bus.DeleteBus)
		}

		tickets := protected.Group("/tickets")
		{
			tickets.POST("", h.Ticket.BookTicket)
			tickets.GET("", h.Ticket.ListTickets)
			tickets.GET("/:id", h.Ticket.GetTicket)
			tickets.POST("/:id/cancel", h.Ticket.CancelTicket)
		}

		bills := protected.Group("/bills")
		{
			bills.GET("", h.Bill.ListBills)
			bills.GET("/:id", h.Bill.GetBill)
			bills.GET("/:id/pdf", h.Bill.DownloadBill)
		}

		if h.Admin != nil {
			admin := protected.Group("/admin")
			{
				admin.POST("/backups", h.Admin.CreateBackup)
				admin.GET("/cron/status", h.Admin.GetCronStatus)
			}
		}
	}
}
