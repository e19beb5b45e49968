package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-reservation/internal/database"
	"github.com/smarttransit/bus-reservation/internal/models"
	"github.com/smarttransit/bus-reservation/internal/services"
	"github.com/smarttransit/bus-reservation/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testUsername   = "admin"
	testPassword   = "s3cret-pass"
	testTravelDate = "20/12/2030"
)

type testServer struct {
	router     *gin.Engine
	jwtService *jwt.Service
	token      string
}

func fixedNow() time.Time {
	return time.Date(2030, time.January, 1, 10, 0, 0, 0, time.UTC)
}

// setupTestServer wires in-memory services behind the real routes
func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	reservations := services.NewReservationService(models.NewLedger(), nil, services.DefaultLedgerConfig(), fixedNow, logger)

	hash, err := services.HashPassword(testPassword, bcrypt.MinCost)
	require.NoError(t, err)
	jwtService := jwt.NewService("test-secret", time.Hour)
	auth := services.NewOperatorAuthService(services.NewBcryptVerifier(testUsername, hash), jwtService, 3, 5*time.Minute, fixedNow, logger)

	codec, err := database.NewCodec("json")
	require.NoError(t, err)
	backups := services.NewCronService(reservations, codec, t.TempDir(), 5, fixedNow, logger)

	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), Handlers{
		Auth:   NewAuthHandler(auth, logger),
		Bus:    NewBusHandler(reservations, logger),
		Ticket: NewTicketHandler(reservations, logger),
		Bill:   NewBillHandler(reservations, services.NewBillDocumentService(logger), logger),
		Admin:  NewAdminHandler(backups, logger),
	}, jwtService, logger)

	token, err := jwtService.GenerateAccessToken(testUsername, []string{services.OperatorRole})
	require.NoError(t, err)

	return &testServer{router: router, jwtService: jwtService, token: token}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), into))
}

func (s *testServer) addBus(t *testing.T, number string, seats int) models.BusSummary {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/buses", gin.H{
		"bus_number":     number,
		"source":         "Colombo",
		"destination":    "Kandy",
		"departure_time": "08:00",
		"arrival_time":   "11:30",
		"travel_date":    testTravelDate,
		"total_seats":    seats,
		"ticket_price":   100,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var bus models.BusSummary
	decode(t, w, &bus)
	return bus
}

func (s *testServer) book(t *testing.T, busID, seat int, name string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, http.MethodPost, "/api/v1/tickets", gin.H{
		"bus_id":      busID,
		"travel_date": testTravelDate,
		"source":      "Colombo",
		"destination": "Kandy",
		"seat_number": seat,
		"passenger": gin.H{
			"name":           name,
			"contact_number": "0771234567",
			"age":            30,
			"gender":         "F",
		},
	})
}

func TestLogin_Success(t *testing.T) {
	s := setupTestServer(t)
	s.token = ""

	w := s.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"username": testUsername, "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.OperatorLoginResponse
	decode(t, w, &resp)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := s.jwtService.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, testUsername, claims.Username)
}

func TestLogin_InvalidCredentialsThenLocked(t *testing.T) {
	s := setupTestServer(t)
	s.token = ""

	for i := 0; i < 3; i++ {
		w := s.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"username": testUsername, "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := s.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"username": testUsername, "password": testPassword})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]interface{}
	decode(t, w, &body)
	assert.Equal(t, "LOGIN_LOCKED", body["code"])
}

func TestLogin_MissingFields(t *testing.T) {
	s := setupTestServer(t)
	s.token = ""

	w := s.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"username": testUsername})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	s := setupTestServer(t)
	s.token = ""

	w := s.do(t, http.MethodGet, "/api/v1/buses", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutes_RequireOperatorRole(t *testing.T) {
	s := setupTestServer(t)
	token, err := s.jwtService.GenerateAccessToken("viewer", []string{"viewer"})
	require.NoError(t, err)
	s.token = token

	w := s.do(t, http.MethodGet, "/api/v1/buses", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateBus_Validation(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/buses", gin.H{"bus_number": "B1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/buses", gin.H{
		"bus_number":  "B1",
		"source":      "Colombo",
		"destination": "Kandy",
		"travel_date": "31/02/2020",
		"total_seats": 10,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]interface{}
	decode(t, w, &body)
	assert.Equal(t, "INVALID_TRAVEL_DATE", body["code"])
	assert.Equal(t, "validation", body["error"])
}

func TestCreateBus_Duplicate(t *testing.T) {
	s := setupTestServer(t)
	s.addBus(t, "B1", 10)

	w := s.do(t, http.MethodPost, "/api/v1/buses", gin.H{
		"bus_number":  "B1",
		"source":      "Galle",
		"destination": "Matara",
		"travel_date": testTravelDate,
		"total_seats": 10,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBusEndpoints(t *testing.T) {
	s := setupTestServer(t)
	bus := s.addBus(t, "NB-1234", 10)
	assert.Equal(t, 101, bus.ID)
	assert.Equal(t, 10, bus.AvailableSeats)

	w := s.do(t, http.MethodGet, "/api/v1/buses", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.BusSummary
	decode(t, w, &list)
	assert.Len(t, list, 1)

	w = s.do(t, http.MethodGet, "/api/v1/buses/101", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/buses/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/buses/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/buses/search?source=Colombo&destination=Kandy", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	assert.Len(t, list, 1)

	w = s.do(t, http.MethodGet, "/api/v1/buses/search?number=NB-1234", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	assert.Len(t, list, 1)

	w = s.do(t, http.MethodGet, "/api/v1/buses/search?source=Colombo&destination=Kandy&date=21/12/2030", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	assert.Empty(t, list)

	w = s.do(t, http.MethodGet, "/api/v1/buses/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPatch, "/api/v1/buses/101/price", gin.H{"ticket_price": 150})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &bus)
	assert.Equal(t, 150.0, bus.TicketPrice)

	w = s.do(t, http.MethodDelete, "/api/v1/buses/101", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var deleted map[string]interface{}
	decode(t, w, &deleted)
	assert.NotContains(t, deleted, "bill")

	w = s.do(t, http.MethodGet, "/api/v1/buses/101", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTicketEndpoints(t *testing.T) {
	s := setupTestServer(t)
	bus := s.addBus(t, "B1", 3)

	w := s.book(t, bus.ID, 1, "Alice")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var booked models.BookingResult
	decode(t, w, &booked)
	assert.Equal(t, 1001, booked.Ticket.ID)
	assert.Equal(t, 2, booked.AvailableSeats)

	w = s.book(t, bus.ID, 1, "Bob")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.book(t, bus.ID, 9, "Bob")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/tickets/1001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var item models.TicketListItem
	decode(t, w, &item)
	assert.Equal(t, models.TicketStatusActive, item.Status)
	assert.Equal(t, "Alice", item.Passenger.Name)

	w = s.do(t, http.MethodPost, "/api/v1/tickets/1001/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cancelled models.CancellationResult
	decode(t, w, &cancelled)
	assert.Equal(t, 100.0, cancelled.Refund)

	w = s.do(t, http.MethodGet, "/api/v1/tickets/1001", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/tickets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []models.TicketListItem
	decode(t, w, &items)
	require.Len(t, items, 1)
	assert.Equal(t, models.TicketStatusCancelled, items[0].Status)
}

func TestBillEndpoints(t *testing.T) {
	s := setupTestServer(t)
	bus := s.addBus(t, "B1", 2)

	require.Equal(t, http.StatusCreated, s.book(t, bus.ID, 1, "Alice").Code)
	w := s.book(t, bus.ID, 2, "Bob")
	require.Equal(t, http.StatusCreated, w.Code)

	var booked models.BookingResult
	decode(t, w, &booked)
	require.NotNil(t, booked.Bill)
	assert.Equal(t, 501, booked.Bill.ID)

	w = s.do(t, http.MethodGet, "/api/v1/bills", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var bills []models.BillDetail
	decode(t, w, &bills)
	require.Len(t, bills, 1)
	assert.Equal(t, 200.0, bills[0].TotalRevenue)
	assert.Len(t, bills[0].Passengers, 2)

	w = s.do(t, http.MethodGet, "/api/v1/bills/501", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/bills/777", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/bills/501/pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "bill-501-B1.pdf")
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))

	// deleting a full bus keeps the single bill
	w = s.do(t, http.MethodDelete, "/api/v1/buses/101", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/bills", nil)
	decode(t, w, &bills)
	assert.Len(t, bills, 1)
}

func TestDeleteBus_WithPartialBookings(t *testing.T) {
	s := setupTestServer(t)
	bus := s.addBus(t, "B1", 2)
	require.Equal(t, http.StatusCreated, s.book(t, bus.ID, 1, "Alice").Code)

	w := s.do(t, http.MethodDelete, "/api/v1/buses/101", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	var body map[string]interface{}
	decode(t, w, &body)
	assert.Equal(t, "BUS_HAS_BOOKINGS", body["code"])
}

func TestAdminEndpoints(t *testing.T) {
	s := setupTestServer(t)
	s.addBus(t, "B1", 2)

	w := s.do(t, http.MethodPost, "/api/v1/admin/backups", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created map[string]interface{}
	decode(t, w, &created)
	assert.Contains(t, created["dir"], "20300101T100000Z")

	w = s.do(t, http.MethodGet, "/api/v1/admin/cron/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status map[string]interface{}
	decode(t, w, &status)
	assert.Equal(t, float64(1), status["runs"])
	assert.Equal(t, false, status["running"])
}
