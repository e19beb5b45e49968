package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGetRealIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		headers  map[string]string
		remote   string
		expected string
	}{
		{
			name:     "public X-Real-IP wins",
			headers:  map[string]string{"X-Real-IP": "203.0.113.7", "X-Forwarded-For": "198.51.100.2"},
			remote:   "10.0.0.1:1234",
			expected: "203.0.113.7",
		},
		{
			name:     "first public forwarded address",
			headers:  map[string]string{"X-Forwarded-For": "10.0.0.5, 198.51.100.2, 203.0.113.9"},
			remote:   "10.0.0.1:1234",
			expected: "198.51.100.2",
		},
		{
			name:     "all private forwarded addresses",
			headers:  map[string]string{"X-Forwarded-For": "192.168.1.4, 10.0.0.5"},
			remote:   "10.0.0.1:1234",
			expected: "192.168.1.4",
		},
		{
			name:     "direct connection",
			remote:   "198.51.100.20:5555",
			expected: "198.51.100.20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/", nil)
			c.Request.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}

			assert.Equal(t, tt.expected, GetRealIP(c))
		})
	}
}

func TestIsLocalhost(t *testing.T) {
	assert.True(t, IsLocalhost("127.0.0.1"))
	assert.True(t, IsLocalhost("::1"))
	assert.False(t, IsLocalhost("198.51.100.20"))
}
