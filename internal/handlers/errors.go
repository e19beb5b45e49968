package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-reservation/internal/middleware"
	"github.com/smarttransit/bus-reservation/internal/services"
)

// statusForKind maps reservation error kinds to HTTP status codes
var statusForKind = map[services.ErrorKind]int{
	services.KindValidation: http.StatusBadRequest,
	services.KindNotFound:   http.StatusNotFound,
	services.KindConflict:   http.StatusConflict,
}

// respondError writes the JSON error body for err
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var resErr *services.ReservationError
	if errors.As(err, &resErr) {
		c.JSON(statusForKind[resErr.Kind], gin.H{
			"error":   string(resErr.Kind),
			"code":    resErr.Code,
			"message": resErr.Message,
		})
		return
	}

	var locked *services.LoginLockedError
	if errors.As(err, &locked) {
		retry := int(time.Until(locked.RetryAfter).Seconds())
		if retry < 1 {
			retry = 1
		}
		c.Header("Retry-After", strconv.Itoa(retry))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "login_locked",
			"code":        "LOGIN_LOCKED",
			"message":     locked.Message,
			"retry_after": locked.RetryAfter.Unix(),
		})
		return
	}

	if errors.Is(err, services.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"code":    "INVALID_CREDENTIALS",
			"message": err.Error(),
		})
		return
	}

	logger.WithError(err).WithField("request_id", middleware.GetRequestID(c)).Error("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "internal_error",
		"code":    "INTERNAL_ERROR",
		"message": "An internal error occurred",
	})
}

// respondBindError reports a malformed request body or query
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "validation",
		"code":    "INVALID_REQUEST",
		"message": err.Error(),
	})
}

// idParam parses a positive integer path parameter
func idParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		respondBindError(c, fmt.Errorf("%s must be a positive integer", name))
		return 0, false
	}
	return id, true
}
