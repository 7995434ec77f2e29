package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Freeeeeet/delivery_slots/internal/auth"
	"github.com/Freeeeeet/delivery_slots/internal/config"
	"github.com/Freeeeeet/delivery_slots/internal/model"
	"github.com/Freeeeeet/delivery_slots/internal/notify"
	"github.com/Freeeeeet/delivery_slots/internal/service"
	"github.com/Freeeeeet/delivery_slots/internal/service/servicetest"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Sup3r$ecret"

type testEnv struct {
	t      *testing.T
	router *gin.Engine
	stores *servicetest.Stores
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	stores := servicetest.New()
	tokens := auth.NewResetTokens("test-secret", time.Hour)

	identity := service.NewIdentityService(
		stores.Accounts(), stores.Partners(), stores.Bookings(),
		notify.NewLogSender(logger), tokens, "http://localhost:8080/reset_password", logger,
	)
	catalog := service.NewCatalogService(stores.Partners(), stores.Slots(), stores.Bookings(), logger)
	bookings := service.NewBookingService(stores.Partners(), stores.Slots(), stores.Bookings(), true, 3, logger)

	cfg := &config.Config{
		Environment:   "test",
		SessionSecret: "test-session-secret",
	}
	router := New(identity, catalog, bookings, logger).Router(cfg)

	return &testEnv{t: t, router: router, stores: stores}
}

// session carries the cookies of one logged-in client.
type session struct {
	env     *testEnv
	cookies []*http.Cookie
}

func (e *testEnv) anonymous() *session {
	return &session{env: e}
}

func (s *session) do(method, path string, body any) *httptest.ResponseRecorder {
	s.env.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.env.t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range s.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	s.env.router.ServeHTTP(w, req)

	if set := w.Result().Cookies(); len(set) > 0 {
		s.cookies = set
	}
	return w
}

func (e *testEnv) signupAndLogin(username, email, role string) *session {
	e.t.Helper()
	s := e.anonymous()

	w := s.do(http.MethodPost, "/signup", gin.H{
		"username": username,
		"email":    email,
		"password": testPassword,
		"role":     role,
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/login", gin.H{
		"identifier": username,
		"password":   testPassword,
	})
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	require.NotEmpty(e.t, s.cookies)
	return s
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestBookingFlow(t *testing.T) {
	env := newTestEnv(t)

	partner := env.signupAndLogin("amazonhub", "ops@amazonhub.test", "partner")

	w := partner.do(http.MethodPost, "/api/partner/slots", gin.H{
		"day_of_week":  "Monday",
		"start_time":   "9:00 AM",
		"end_time":     "9:30 AM",
		"max_capacity": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var slot struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, w, &slot)

	student := env.signupAndLogin("alice", "alice@example.com", "user")

	w = student.do(http.MethodGet, "/api/partners", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var partners []struct {
		ID           int64  `json:"id"`
		PlatformName string `json:"platform_name"`
	}
	decodeBody(t, w, &partners)
	require.Len(t, partners, 1)
	assert.Equal(t, "amazonhub", partners[0].PlatformName)

	availabilityPath := fmt.Sprintf("/api/partners/%d/slots?date=2024-06-03", partners[0].ID)
	w = student.do(http.MethodGet, availabilityPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var available []model.SlotAvailability
	decodeBody(t, w, &available)
	require.Len(t, available, 1)
	assert.Equal(t, 1, available[0].AvailableCapacity)

	book := gin.H{
		"partner_id":     partners[0].ID,
		"time_slot_id":   slot.ID,
		"date":           "2024-06-03",
		"order_id_text":  "AMZ-1001",
		"college_reg_no": "21BCE1234",
		"name":           "Alice",
		"phone":          "9999999999",
		"type":           "Pickup",
	}
	w = student.do(http.MethodPost, "/api/bookings", book)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var booking struct {
		ID          int64  `json:"id"`
		Status      string `json:"status"`
		BookingDate string `json:"booking_date"`
	}
	decodeBody(t, w, &booking)
	assert.Equal(t, "Booked", booking.Status)
	assert.Equal(t, "2024-06-03", booking.BookingDate)

	// the slot is now full for that date
	book["order_id_text"] = "AMZ-1002"
	w = student.do(http.MethodPost, "/api/bookings", book)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = student.do(http.MethodGet, availabilityPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	available = nil
	decodeBody(t, w, &available)
	assert.Empty(t, available)

	// the student sees the booking
	w = student.do(http.MethodGet, "/api/bookings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var own []json.RawMessage
	decodeBody(t, w, &own)
	assert.Len(t, own, 1)

	// the partner sees it and may complete it
	w = partner.do(http.MethodGet, "/api/partner/bookings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var incoming []json.RawMessage
	decodeBody(t, w, &incoming)
	assert.Len(t, incoming, 1)

	statusPath := fmt.Sprintf("/api/bookings/%d/status", booking.ID)
	w = partner.do(http.MethodPatch, statusPath, gin.H{"status": "Completed"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// a second transition is rejected
	w = partner.do(http.MethodPatch, statusPath, gin.H{"status": "Cancelled"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthenticationRequired(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/partners", "/api/bookings", "/api/partner/slots", "/api/admin/accounts"} {
		w := env.anonymous().do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestRoleGates(t *testing.T) {
	env := newTestEnv(t)
	student := env.signupAndLogin("alice", "alice@example.com", "user")

	w := student.do(http.MethodPost, "/api/partner/slots", gin.H{
		"day_of_week":  "Monday",
		"start_time":   "9:00 AM",
		"end_time":     "9:30 AM",
		"max_capacity": 1,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = student.do(http.MethodGet, "/api/admin/accounts", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminEndpoints(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.stores.Accounts().Create(context.Background(), &model.Account{
		Username:     "root",
		PasswordHash: mustHash(t),
		Role:         model.RoleAdmin,
	}))

	admin := env.anonymous()
	w := admin.do(http.MethodPost, "/login", gin.H{"identifier": "root", "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = admin.do(http.MethodPost, "/api/admin/partners", gin.H{
		"platform_name": "Flipkart",
		"contact_email": "ops@flipkart.test",
		"username":      "flipkart",
		"password":      "hub-secret",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, w, &created)

	w = admin.do(http.MethodGet, "/api/admin/accounts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var accounts []struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	decodeBody(t, w, &accounts)
	assert.Len(t, accounts, 2)

	w = admin.do(http.MethodPut, fmt.Sprintf("/api/admin/accounts/%d/role", created.ID), gin.H{"role": "user"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = admin.do(http.MethodDelete, fmt.Sprintf("/api/admin/accounts/%d", created.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = admin.do(http.MethodDelete, "/api/admin/accounts/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPartnerSlotsEmptyList(t *testing.T) {
	env := newTestEnv(t)
	partner := env.signupAndLogin("amazonhub", "ops@amazonhub.test", "partner")

	w := partner.do(http.MethodGet, "/api/partner/slots", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestSessionEndsOnLogout(t *testing.T) {
	env := newTestEnv(t)
	student := env.signupAndLogin("alice", "alice@example.com", "user")

	w := student.do(http.MethodPost, "/api/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = student.do(http.MethodGet, "/api/bookings", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	w := env.anonymous().do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDEcho(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	// generated when the client sends none
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func mustHash(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}
