package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ibook/database/repository"
	"ibook/handlers"
	"ibook/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubScheduler struct {
	commitErr  error
	actionErr  error
	bookings   []models.Booking
	lastStatus string
}

func (s *stubScheduler) Commit(_ context.Context, username string, req models.BookingRequest) (*models.Booking, error) {
	if s.commitErr != nil {
		return nil, s.commitErr
	}
	return &models.Booking{
		ID:           "bk-1",
		ProviderID:   username,
		DateTimeUTC:  req.DateTime.UTC(),
		Status:       models.StatusUpcoming,
		CustomerName: req.CustomerName,
	}, nil
}

func (s *stubScheduler) Reschedule(context.Context, string, string, time.Time) error {
	return s.actionErr
}
func (s *stubScheduler) Cancel(context.Context, string, string) error  { return s.actionErr }
func (s *stubScheduler) Confirm(context.Context, string, string) error { return s.actionErr }
func (s *stubScheduler) SetStatus(_ context.Context, _, _, status string) error {
	s.lastStatus = status
	return s.actionErr
}
func (s *stubScheduler) ListBookings(context.Context, string) ([]models.Booking, error) {
	return s.bookings, nil
}
func (s *stubScheduler) ExpirePending(context.Context, string, string) error { return s.actionErr }

func bookingRouter(stub *stubScheduler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handlers.NewBookingHandler(stub, zap.NewNop())

	r := gin.New()
	grp := r.Group("/api/providers/:username")
	grp.POST("/bookings", h.Create)
	grp.GET("/bookings", h.List)
	grp.POST("/bookings/:id/reschedule", h.Reschedule)
	grp.POST("/bookings/:id/cancel", h.Cancel)
	grp.POST("/bookings/:id/confirm", h.Confirm)
	grp.PATCH("/bookings/:id/status", h.UpdateStatus)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBookingCreate_Success(t *testing.T) {
	r := bookingRouter(&stubScheduler{})

	body := `{"dateTime":"2025-06-02T04:30:00Z","customerName":"Asha"}`
	w := doJSON(t, r, http.MethodPost, "/api/providers/demo/bookings", body)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Booking models.Booking `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "bk-1", resp.Booking.ID)
	assert.Equal(t, "demo", resp.Booking.ProviderID)
	assert.Equal(t, models.StatusUpcoming, resp.Booking.Status)
}

func TestBookingCreate_SlotUnavailableIs409(t *testing.T) {
	stub := &stubScheduler{
		commitErr: fmt.Errorf("slot 2025-06-02T04:30:00Z: %w", repository.ErrSlotUnavailable),
	}
	r := bookingRouter(stub)

	body := `{"dateTime":"2025-06-02T04:30:00Z","customerName":"Asha"}`
	w := doJSON(t, r, http.MethodPost, "/api/providers/demo/bookings", body)

	require.Equal(t, http.StatusConflict, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "slot_unavailable", resp["error"])
}

func TestBookingCreate_MissingFieldsRejected(t *testing.T) {
	r := bookingRouter(&stubScheduler{})

	w := doJSON(t, r, http.MethodPost, "/api/providers/demo/bookings", `{"customerName":"Asha"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingCancel_UnknownBookingIs404(t *testing.T) {
	stub := &stubScheduler{
		actionErr: fmt.Errorf("booking bk-9: %w", repository.ErrNotFound),
	}
	r := bookingRouter(stub)

	w := doJSON(t, r, http.MethodPost, "/api/providers/demo/bookings/bk-9/cancel", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingUpdateStatus_RejectsDerivedStatus(t *testing.T) {
	stub := &stubScheduler{}
	r := bookingRouter(stub)

	w := doJSON(t, r, http.MethodPatch, "/api/providers/demo/bookings/bk-1/status", `{"status":"Not Completed"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, stub.lastStatus)
}

// Countable statuses are only reachable through the commit and confirm
// paths; writing them from the dashboard would occupy a slot without a
// reservation.
func TestBookingUpdateStatus_RejectsCountableStatuses(t *testing.T) {
	for _, status := range []string{"Upcoming", "Pending"} {
		stub := &stubScheduler{}
		r := bookingRouter(stub)

		w := doJSON(t, r, http.MethodPatch, "/api/providers/demo/bookings/bk-1/status", `{"status":"`+status+`"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, stub.lastStatus)
	}
}

func TestBookingUpdateStatus_AcceptsCompleted(t *testing.T) {
	stub := &stubScheduler{}
	r := bookingRouter(stub)

	w := doJSON(t, r, http.MethodPatch, "/api/providers/demo/bookings/bk-1/status", `{"status":"Completed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusCompleted, stub.lastStatus)
}

func TestBookingList_ReturnsBookings(t *testing.T) {
	stub := &stubScheduler{bookings: []models.Booking{
		{ID: "bk-1", ProviderID: "demo", Status: models.StatusUpcoming},
		{ID: "bk-2", ProviderID: "demo", Status: models.StatusCanceled},
	}}
	r := bookingRouter(stub)

	w := doJSON(t, r, http.MethodGet, "/api/providers/demo/bookings", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Bookings []models.Booking `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Bookings, 2)
}
