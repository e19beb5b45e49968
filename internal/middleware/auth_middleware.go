package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-reservation/pkg/jwt"
)

// OperatorContextKey is the key used to store operator information in Gin context
const OperatorContextKey = "operator"

// OperatorContext represents the authenticated operator's session
type OperatorContext struct {
	SessionID uuid.UUID `json:"session_id"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
}

// AuthMiddleware creates a middleware that validates JWT tokens
func AuthMiddleware(jwtService *jwt.Service, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry := logger.WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"ip":         c.ClientIP(),
			"request_id": GetRequestID(c),
		})

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			entry.Warn("Auth failed: missing authorization header")
			abortUnauthorized(c, "unauthorized", "Authorization header is required", "MISSING_AUTH_HEADER")
			return
		}

		// Check Bearer token format
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			entry.Warn("Auth failed: invalid authorization format")
			abortUnauthorized(c, "unauthorized", "Invalid authorization header format. Expected: Bearer <token>", "INVALID_AUTH_FORMAT")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			entry.Warn("Auth failed: empty token")
			abortUnauthorized(c, "unauthorized", "Token cannot be empty", "INVALID_AUTH_FORMAT")
			return
		}

		claims, err := jwtService.ValidateAccessToken(tokenString)
		if err != nil {
			if jwtService.IsTokenExpired(tokenString) {
				entry.WithError(err).Warn("Auth failed: token expired")
				abortUnauthorized(c, "token_expired", "Access token has expired. Please log in again.", "TOKEN_EXPIRED")
			} else {
				entry.WithError(err).Warn("Auth failed: invalid token")
				abortUnauthorized(c, "invalid_token", "Invalid access token", "INVALID_TOKEN")
			}
			return
		}

		c.Set(OperatorContextKey, OperatorContext{
			SessionID: claims.SessionID,
			Username:  claims.Username,
			Roles:     claims.Roles,
		})
		c.Set("username", claims.Username)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, errType, message, code string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   errType,
		"message": message,
		"code":    code,
	})
}

// RequireRole creates a middleware that checks if the operator has one of the roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		opCtx, exists := GetOperatorContext(c)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Operator context not found. Auth middleware may not be applied.",
				"code":    "MISSING_OPERATOR_CONTEXT",
			})
			return
		}

		for _, required := range roles {
			for _, role := range opCtx.Roles {
				if role == required {
					c.Next()
					return
				}
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "You don't have permission to access this resource",
			"code":    "INSUFFICIENT_PERMISSIONS",
		})
	}
}

// GetOperatorContext retrieves the operator context from Gin context
func GetOperatorContext(c *gin.Context) (OperatorContext, bool) {
	value, exists := c.Get(OperatorContextKey)
	if !exists {
		return OperatorContext{}, false
	}

	opCtx, ok := value.(OperatorContext)
	if !ok {
		return OperatorContext{}, false
	}

	return opCtx, true
}
