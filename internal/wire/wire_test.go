package wire

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tour-booking/internal/data/entity"
	"tour-booking/internal/data/memory"
	"tour-booking/pkg/middleware"
	"tour-booking/pkg/payment"
	"tour-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const operatorKey = "sweep-key"

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t        *testing.T
	app      *App
	clock    *clockwork.FakeClock
	provider *payment.MockProvider
	store    *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(operatorKey), bcrypt.MinCost)
	require.NoError(t, err)

	repo, store := memory.NewRepository(zap.NewNop())
	clk := clockwork.NewFakeClockAt(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))
	provider := payment.NewMockProvider("whsec_test", zap.NewNop())
	config := &utils.Config{
		Booking: utils.BookingConfig{
			HoldDuration:   10 * time.Minute,
			SweepBatchSize: 50,
		},
		Operator: utils.OperatorConfig{KeyHash: string(hash)},
	}

	return &testServer{
		t:        t,
		app:      Wiring(repo, provider, clk, config, zap.NewNop()),
		clock:    clk,
		provider: provider,
		store:    store,
	}
}

// session registers a bearer token for a fresh user and returns it.
func (s *testServer) session() string {
	token := uuid.New()
	s.store.AddSession(&entity.Session{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Token:     token,
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	})
	return token.String()
}

func (s *testServer) do(method, path, token string, body any, headers ...string) (int, envelope) {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	s.app.Router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(s.t, json.NewDecoder(rec.Body).Decode(&env))
	return rec.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type idBody struct {
	ID string `json:"id"`
}

type holdBody struct {
	BookingID string `json:"booking_id"`
}

type intentBody struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

type bookingBody struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

type availabilityBody struct {
	AvailableSlots int `json:"available_slots"`
}

// seedSchedule creates a tour and one schedule through the API.
func (s *testServer) seedSchedule(ownerToken string, capacity int) string {
	s.t.Helper()

	code, env := s.do(http.MethodPost, "/api/tours", ownerToken, map[string]any{
		"name":           "Old Town Food Walk",
		"currency":       "EUR",
		"price_per_seat": 3500,
	})
	require.Equal(s.t, http.StatusCreated, code, env.Message)
	tour := decode[idBody](s.t, env.Data)

	starts := s.clock.Now().Add(48 * time.Hour)
	code, env = s.do(http.MethodPost, "/api/tours/"+tour.ID+"/schedules", ownerToken, map[string]any{
		"starts_at": starts,
		"ends_at":   starts.Add(3 * time.Hour),
		"capacity":  capacity,
	})
	require.Equal(s.t, http.StatusCreated, code, env.Message)
	return decode[idBody](s.t, env.Data).ID
}

func TestBookingFlow_HoldPayConfirm(t *testing.T) {
	s := newTestServer(t)
	owner := s.session()
	traveler := s.session()
	scheduleID := s.seedSchedule(owner, 3)

	code, env := s.do(http.MethodPost, "/api/bookings/holds", traveler, map[string]any{
		"schedule_id": scheduleID,
		"party_size":  2,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	hold := decode[holdBody](t, env.Data)

	code, env = s.do(http.MethodGet, "/api/schedules/"+scheduleID+"/availability", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, decode[availabilityBody](t, env.Data).AvailableSlots)

	code, env = s.do(http.MethodPost, "/api/bookings/holds", s.session(), map[string]any{
		"schedule_id": scheduleID,
		"party_size":  2,
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "insufficient_capacity", env.Code)

	code, env = s.do(http.MethodPost, "/api/bookings/"+hold.BookingID+"/payment", traveler, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	intent := decode[intentBody](t, env.Data)

	code, _ = s.do(http.MethodPost, "/api/bookings/"+hold.BookingID+"/payment/confirm", traveler, intent)
	assert.Equal(t, http.StatusPaymentRequired, code)

	code, env = s.do(http.MethodPost, "/api/dev/payments/"+intent.PaymentIntentID+"/succeed", "", nil)
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = s.do(http.MethodGet, "/api/bookings/"+hold.BookingID, traveler, nil)
	require.Equal(t, http.StatusOK, code)
	booking := decode[bookingBody](t, env.Data)
	assert.Equal(t, "confirmed", booking.Status)
	assert.Equal(t, "succeeded", booking.PaymentStatus)

	code, _ = s.do(http.MethodPost, "/api/bookings/"+hold.BookingID+"/payment/confirm", traveler, intent)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodPost, "/api/bookings/"+hold.BookingID+"/cancel", traveler, nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestBookingFlow_ErrorStatuses(t *testing.T) {
	s := newTestServer(t)
	owner := s.session()
	traveler := s.session()
	scheduleID := s.seedSchedule(owner, 4)

	code, _ := s.do(http.MethodPost, "/api/bookings/holds", "", map[string]any{"schedule_id": scheduleID, "party_size": 1})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(http.MethodPost, "/api/bookings/holds", traveler, map[string]any{"schedule_id": scheduleID, "party_size": 0})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPost, "/api/bookings/holds", traveler, map[string]any{"schedule_id": uuid.NewString(), "party_size": 1})
	assert.Equal(t, http.StatusNotFound, code)

	code, env := s.do(http.MethodPost, "/api/bookings/holds", traveler, map[string]any{"schedule_id": scheduleID, "party_size": 1})
	require.Equal(t, http.StatusCreated, code)
	hold := decode[holdBody](t, env.Data)

	code, _ = s.do(http.MethodGet, "/api/bookings/"+hold.BookingID, s.session(), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodPut, "/api/schedules/"+scheduleID+"/disable", traveler, nil)
	assert.Equal(t, http.StatusForbidden, code)

	s.clock.Advance(10 * time.Minute)

	code, env = s.do(http.MethodPost, "/api/bookings/"+hold.BookingID+"/payment", traveler, nil)
	assert.Equal(t, http.StatusGone, code)
	assert.Equal(t, "hold_expired", env.Code)

	code, env = s.do(http.MethodGet, "/api/bookings/"+hold.BookingID, traveler, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "expired", decode[bookingBody](t, env.Data).Status)
}

func TestWebhook_RejectsBadSignature(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(http.MethodPost, "/api/webhooks/payments", "", map[string]any{"id": "evt_forged"},
		payment.SignatureHeader, "t=1,v1=deadbeef")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAdminRoutes_RequireOperatorKey(t *testing.T) {
	s := newTestServer(t)
	owner := s.session()
	traveler := s.session()
	scheduleID := s.seedSchedule(owner, 4)

	code, _ := s.do(http.MethodPost, "/api/bookings/holds", traveler, map[string]any{"schedule_id": scheduleID, "party_size": 2})
	require.Equal(t, http.StatusCreated, code)

	code, _ = s.do(http.MethodPost, "/api/admin/sweeps", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(http.MethodPost, "/api/admin/sweeps", "", nil, middleware.OperatorKeyHeader, "wrong")
	assert.Equal(t, http.StatusUnauthorized, code)

	s.clock.Advance(11 * time.Minute)

	code, env := s.do(http.MethodPost, "/api/admin/sweeps", "", nil, middleware.OperatorKeyHeader, operatorKey)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"expired":1}`, string(env.Data))

	code, _ = s.do(http.MethodGet, "/api/admin/bookings/refunds", "", nil, middleware.OperatorKeyHeader, operatorKey)
	assert.Equal(t, http.StatusOK, code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Status)
}
