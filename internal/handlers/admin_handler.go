package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-reservation/internal/services"
)

// AdminHandler exposes ledger maintenance endpoints
type AdminHandler struct {
	cron   *services.CronService
	logger *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(cron *services.CronService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		cron:   cron,
		logger: logger,
	}
}

// CreateBackup snapshots the ledger immediately
// POST /api/v1/admin/backups
func (h *AdminHandler) CreateBackup(c *gin.Context) {
	dir, err := h.cron.RunBackupNow(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Ledger backup written",
		"dir":     dir,
	})
}

// GetCronStatus returns the backup schedule and last result
// GET /api/v1/admin/cron/status
func (h *AdminHandler) GetCronStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.cron.GetJobStatus())
}
