package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "turnstile/internal/errors"
	"turnstile/internal/lock"
	"turnstile/internal/models"
	"turnstile/internal/service"
)

// memStore backs handler tests with the same contracts as the Postgres
// repositories: CommitBooking is atomic under one mutex, GetByID returns
// (nil, nil) for unknown ids.
type memStore struct {
	mu       sync.Mutex
	events   map[int64]*models.Event
	bookings map[int64]*models.Booking
	nextID   int64
}

func newMemStore() *memStore {
	return &memStore{
		events:   make(map[int64]*models.Event),
		bookings: make(map[int64]*models.Booking),
	}
}

func (m *memStore) Create(ctx context.Context, event *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	event.ID = m.nextID
	event.CreatedAt = time.Now()
	copied := *event
	m.events[event.ID] = &copied
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok {
		return nil, nil
	}
	copied := *event
	return &copied, nil
}

func (m *memStore) AvailableCapacity(ctx context.Context, id int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok {
		return 0, apperrors.ErrNotFound
	}
	return event.AvailableCapacity, nil
}

func (m *memStore) CommitBooking(ctx context.Context, booking *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[booking.EventID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if event.AvailableCapacity < booking.Quantity {
		return apperrors.ErrConflict
	}
	event.AvailableCapacity -= booking.Quantity
	m.nextID++
	booking.ID = m.nextID
	booking.CreatedAt = time.Now()
	copied := *booking
	m.bookings[booking.ID] = &copied
	return nil
}

func (m *memStore) Stats(ctx context.Context, id int64) (*models.EventStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok {
		return nil, nil
	}
	return &models.EventStats{
		EventID:   id,
		Total:     event.TotalCapacity,
		Available: event.AvailableCapacity,
		Booked:    event.TotalCapacity - event.AvailableCapacity,
	}, nil
}

func (m *memStore) OverallReport(ctx context.Context) (*models.OverallReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	report := &models.OverallReport{}
	for _, e := range m.events {
		report.TotalCapacity += e.TotalCapacity
		report.TotalReserved += e.TotalCapacity - e.AvailableCapacity
	}
	return report, nil
}

type memBookingStore struct {
	store *memStore
}

func (m *memBookingStore) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	booking, ok := m.store.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *booking
	return &copied, nil
}

type dropQueue struct{}

func (dropQueue) Enqueue(ctx context.Context, req models.FinalizationRequest) error {
	return nil
}

type testEnv struct {
	router *gin.Engine
	store  *memStore
	locker *lock.Memory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	locker := lock.NewMemory(50*time.Millisecond, 2*time.Millisecond)
	services := service.NewServices(store, &memBookingStore{store}, locker, dropQueue{},
		service.AdmissionConfig{LockLease: time.Second})

	h := NewHandlers(services)
	router := gin.New()
	api := router.Group("/api")
	{
		api.POST("/events", h.CreateEvent)
		api.GET("/events/:id/stats", h.EventStats)
		api.POST("/bookings", h.CreateBooking)
		api.GET("/bookings/:id", h.GetBooking)
		api.GET("/report", h.Report)
	}

	return &testEnv{router: router, store: store, locker: locker}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) addEvent(id int64, capacity int) {
	e.store.events[id] = &models.Event{
		ID: id, Name: "test", TotalCapacity: capacity, AvailableCapacity: capacity,
	}
}

func TestCreateEventEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/events", models.CreateEventRequest{
		Name: "Concert", Capacity: 100,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.CreateEventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotZero(t, resp.ID)
}

func TestCreateEventInvalidPayload(t *testing.T) {
	env := newTestEnv(t)

	// Missing required name
	w := env.do(t, http.MethodPost, "/api/events", map[string]any{"capacity": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/events", models.CreateEventRequest{
		Name: "Concert", Capacity: -1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.addEvent(1, 50)

	w := env.do(t, http.MethodGet, "/api/events/1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats models.EventStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 50, stats.Total)
	assert.Equal(t, 50, stats.Available)
	assert.Zero(t, stats.Booked)
}

func TestEventStatsUnknownEvent(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/events/42/stats", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/events/abc/stats", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateBookingEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.addEvent(1, 10)

	w := env.do(t, http.MethodPost, "/api/bookings", models.CreateBookingRequest{
		EventID: 1, UserID: 7, Quantity: 3,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.BookingStatusPending, resp.Status)
	assert.Equal(t, 3, resp.Quantity)
	assert.Nil(t, resp.ConfirmationCode)
}

func TestCreateBookingUnknownEvent(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/bookings", models.CreateBookingRequest{
		EventID: 42, Quantity: 1,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateBookingInvalidQuantity(t *testing.T) {
	env := newTestEnv(t)
	env.addEvent(1, 10)

	w := env.do(t, http.MethodPost, "/api/bookings", models.CreateBookingRequest{
		EventID: 1, Quantity: 0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateBookingInsufficientCapacity(t *testing.T) {
	env := newTestEnv(t)
	env.addEvent(1, 2)

	w := env.do(t, http.MethodPost, "/api/bookings", models.CreateBookingRequest{
		EventID: 1, Quantity: 5,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateBookingLockContention(t *testing.T) {
	env := newTestEnv(t)
	env.addEvent(1, 10)

	// Hold the admission lock for event 1 so the request times out waiting.
	token, err := env.locker.Acquire(context.Background(), "admission:lock:1", time.Minute)
	require.NoError(t, err)
	defer env.locker.Release(context.Background(), "admission:lock:1", token)

	w := env.do(t, http.MethodPost, "/api/bookings", models.CreateBookingRequest{
		EventID: 1, Quantity: 1,
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestGetBookingEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.addEvent(1, 10)

	w := env.do(t, http.MethodPost, "/api/bookings", models.CreateBookingRequest{
		EventID: 1, Quantity: 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/bookings/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched models.BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, models.BookingStatusPending, fetched.Status)
}

func TestGetBookingNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/bookings/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.addEvent(1, 100)
	env.addEvent(2, 50)

	w := env.do(t, http.MethodPost, "/api/bookings", models.CreateBookingRequest{
		EventID: 1, Quantity: 10,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/report", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report models.OverallReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 150, report.TotalCapacity)
	assert.Equal(t, 10, report.TotalReserved)
}
