package scheduling_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ibook/database/repository"
	"ibook/models"
	"ibook/services/availability"
	"ibook/services/scheduling"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProviders struct {
	provider *models.Provider
}

func (f *fakeProviders) GetByUsername(_ context.Context, username string) (*models.Provider, error) {
	if f.provider == nil || f.provider.Username != username {
		return nil, fmt.Errorf("provider %s: %w", username, repository.ErrNotFound)
	}
	return f.provider, nil
}

func (f *fakeProviders) Create(context.Context, *models.Provider) error { return nil }
func (f *fakeProviders) UpdateSchedule(context.Context, string, models.ProviderSchedule) error {
	return nil
}
func (f *fakeProviders) BlockDate(context.Context, string, string) error   { return nil }
func (f *fakeProviders) UnblockDate(context.Context, string, string) error { return nil }
func (f *fakeProviders) BlockSlot(context.Context, string, string) error   { return nil }
func (f *fakeProviders) UnblockSlot(context.Context, string, string) error { return nil }
func (f *fakeProviders) EnsureIndexes() error                              { return nil }

// memBookingRepo mirrors the store's commit semantics in memory: a mutex in
// place of a transaction, a counter map in place of the slot_counters
// collection, with the same capacity-bounded reserve.
type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
	counters map[string]int
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{
		bookings: make(map[string]*models.Booking),
		counters: make(map[string]int),
	}
}

func counterKey(username string, t time.Time) string {
	return username + "|" + t.UTC().Format(time.RFC3339)
}

func (m *memBookingRepo) reserveLocked(username string, t time.Time, capacity int) error {
	key := counterKey(username, t)
	if m.counters[key] >= capacity {
		return repository.ErrSlotUnavailable
	}
	m.counters[key]++
	return nil
}

func (m *memBookingRepo) releaseLocked(username string, t time.Time) {
	key := counterKey(username, t)
	if m.counters[key] > 0 {
		m.counters[key]--
	}
}

func (m *memBookingRepo) GetByID(_ context.Context, username, bookingID string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok || b.ProviderID != username {
		return nil, fmt.Errorf("booking %s: %w", bookingID, repository.ErrNotFound)
	}
	copied := *b
	return &copied, nil
}

func (m *memBookingRepo) ListByProvider(_ context.Context, username string) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for _, b := range m.bookings {
		if b.ProviderID == username {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memBookingRepo) CountableBetween(_ context.Context, username string, from, to time.Time) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for _, b := range m.bookings {
		if b.ProviderID != username || !b.CountsTowardCapacity() {
			continue
		}
		if !b.DateTimeUTC.Before(from) && b.DateTimeUTC.Before(to) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memBookingRepo) Commit(_ context.Context, booking *models.Booking, capacity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.reserveLocked(booking.ProviderID, booking.DateTimeUTC, capacity); err != nil {
		return err
	}
	copied := *booking
	m.bookings[booking.ID] = &copied
	return nil
}

func (m *memBookingRepo) Reschedule(_ context.Context, username, bookingID string, newTime time.Time, capacity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok || b.ProviderID != username {
		return fmt.Errorf("booking %s: %w", bookingID, repository.ErrNotFound)
	}
	if !b.CountsTowardCapacity() {
		return fmt.Errorf("booking %s is %s: %w", bookingID, b.Status, repository.ErrBookingInactive)
	}
	if err := m.reserveLocked(username, newTime, capacity); err != nil {
		return err
	}
	m.releaseLocked(username, b.DateTimeUTC)
	b.DateTimeUTC = newTime.UTC()
	return nil
}

func (m *memBookingRepo) Cancel(_ context.Context, username, bookingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok || b.ProviderID != username {
		return fmt.Errorf("booking %s: %w", bookingID, repository.ErrNotFound)
	}
	if b.Status == models.StatusCanceled {
		return nil
	}
	if b.CountsTowardCapacity() {
		m.releaseLocked(username, b.DateTimeUTC)
	}
	b.Status = models.StatusCanceled
	return nil
}

func (m *memBookingRepo) CancelIfPending(_ context.Context, username, bookingID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok || b.ProviderID != username {
		return false, fmt.Errorf("booking %s: %w", bookingID, repository.ErrNotFound)
	}
	if b.Status != models.StatusPending {
		return false, nil
	}
	m.releaseLocked(username, b.DateTimeUTC)
	b.Status = models.StatusCanceled
	return true, nil
}

func (m *memBookingRepo) ConfirmPending(_ context.Context, username, bookingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok || b.ProviderID != username || b.Status != models.StatusPending {
		return fmt.Errorf("pending booking %s: %w", bookingID, repository.ErrNotFound)
	}
	b.Status = models.StatusUpcoming
	return nil
}

func (m *memBookingRepo) SetStatus(_ context.Context, username, bookingID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok || b.ProviderID != username {
		return fmt.Errorf("booking %s: %w", bookingID, repository.ErrNotFound)
	}
	b.Status = status
	return nil
}

func (m *memBookingRepo) EnsureIndexes() error { return nil }

func (m *memBookingRepo) counterFor(username string, t time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[counterKey(username, t)]
}

type recordingQueue struct {
	mu       sync.Mutex
	payloads []models.ExpirePendingPayload
	delays   []time.Duration
}

func (q *recordingQueue) EnqueuePendingExpiry(payload models.ExpirePendingPayload, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.payloads = append(q.payloads, payload)
	q.delays = append(q.delays, delay)
	return nil
}

func ist(hour, min int) time.Time {
	loc, _ := time.LoadLocation("Asia/Kolkata")
	// 2025-06-02 is a Monday.
	return time.Date(2025, time.June, 2, hour, min, 0, 0, loc)
}

func testProvider(capacity int) *models.Provider {
	schedule := models.ProviderSchedule{
		WorkingHours: map[string]*models.TimeWindow{
			"monday": {Start: "09:00", End: "17:00"},
		},
		SlotDurationMinutes: 30,
		Timezone:            "Asia/Kolkata",
	}
	if capacity > 1 {
		schedule.MultipleBookingsPerSlot = true
		schedule.BookingsPerSlotCapacity = capacity
	}
	return &models.Provider{ID: "p-1", Username: "demo", Schedule: schedule}
}

func newEngine(provider *models.Provider, repo *memBookingRepo, queue scheduling.ExpiryEnqueuer) *scheduling.DefaultSchedulingEngine {
	providers := &fakeProviders{provider: provider}
	return &scheduling.DefaultSchedulingEngine{
		Providers:    providers,
		Bookings:     repo,
		Availability: &availability.Engine{Providers: providers, Bookings: repo},
		Queue:        queue,
		PendingTTL:   30 * time.Minute,
		Clock:        func() time.Time { return ist(8, 0) },
	}
}

func payLaterRequest(at time.Time) models.BookingRequest {
	return models.BookingRequest{
		DateTime:     at,
		CustomerName: "Asha",
	}
}

func TestCommit_CreatesUpcomingBooking(t *testing.T) {
	repo := newMemBookingRepo()
	engine := newEngine(testProvider(1), repo, nil)

	slot := ist(10, 0).UTC()
	booking, err := engine.Commit(context.Background(), "demo", payLaterRequest(slot))
	require.NoError(t, err)

	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, models.StatusUpcoming, booking.Status)
	assert.Equal(t, slot, booking.DateTimeUTC)
	assert.Equal(t, 1, repo.counterFor("demo", slot))
}

func TestCommit_AwaitPaymentStartsPendingAndSchedulesExpiry(t *testing.T) {
	repo := newMemBookingRepo()
	queue := &recordingQueue{}
	engine := newEngine(testProvider(1), repo, queue)

	req := payLaterRequest(ist(10, 0).UTC())
	req.AwaitPayment = true
	booking, err := engine.Commit(context.Background(), "demo", req)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, booking.Status)
	require.Len(t, queue.payloads, 1)
	assert.Equal(t, booking.ID, queue.payloads[0].BookingID)
	assert.Equal(t, "demo", queue.payloads[0].ProviderID)
	assert.Equal(t, 30*time.Minute, queue.delays[0])
}

func TestCommit_RejectsOffGridInstant(t *testing.T) {
	repo := newMemBookingRepo()
	engine := newEngine(testProvider(1), repo, nil)

	_, err := engine.Commit(context.Background(), "demo", payLaterRequest(ist(10, 15).UTC()))
	require.ErrorIs(t, err, repository.ErrSlotUnavailable)
	assert.Empty(t, repo.bookings)
}

func TestCommit_RejectsTakenSlot(t *testing.T) {
	repo := newMemBookingRepo()
	engine := newEngine(testProvider(1), repo, nil)
	ctx := context.Background()
	slot := ist(10, 0).UTC()

	_, err := engine.Commit(ctx, "demo", payLaterRequest(slot))
	require.NoError(t, err)

	_, err = engine.Commit(ctx, "demo", payLaterRequest(slot))
	require.ErrorIs(t, err, repository.ErrSlotUnavailable)
	assert.Equal(t, 1, repo.counterFor("demo", slot))
}

func TestCommit_MultiCapacityFillsThenRejects(t *testing.T) {
	repo := newMemBookingRepo()
	engine := newEngine(testProvider(3), repo, nil)
	ctx := context.Background()
	slot := ist(10, 0).UTC()

	for i := 0; i < 3; i++ {
		_, err := engine.Commit(ctx, "demo", payLaterRequest(slot))
		require.NoError(t, err)
	}

	_, err := engine.Commit(ctx, "demo", payLaterRequest(slot))
	require.ErrorIs(t, err, repository.ErrSlotUnavailable)
	assert.Equal(t, 3, repo.counterFor("demo", slot))
}

// Two customers race for the last opening: exactly one commit succeeds and
// the loser gets ErrSlotUnavailable, never a double booking.
func TestCommit_ConcurrentLastSlot(t *testing.T) {
	repo := newMemBookingRepo()
	engine := newEngine(testProvider(1), repo, nil)
	slot := ist(10, 0).UTC()

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Commit(context.Background(), "demo", payLaterRequest(slot))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var successes, unavailable int
	for err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, repository.ErrSlotUnavailable):
			unavailable++
		default:
			t.Fatalf("unexpected commit error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, unavailable)
	assert.Equal(t, 1, repo.counterFor("demo", slot))
	assert.Len(t, repo.bookings, 1)
}

func TestReschedule_MovesCapacityWithBooking(t *testing.T) {
	repo := newMemBookingRepo()
	engine := newEngine(testProvider(1), repo, nil)
	ctx := context.Background()
	oldSlot := ist(10, 0).UTC()
	newSlot := ist(14, 0).UTC()

	booking, err := engine.Commit(ctx, "demo", payLaterRequest(oldSlot))
	require.NoError(t, err)

	require.NoError(t, engine.Reschedule(ctx, "demo", booking.ID, newSlot))

	moved, err := repo.GetByID(ctx, "demo", booking.ID)
	require.NoError(t, err)
	assert.Equal(t, newSlot, moved.DateTimeUTC)
	assert.Equal(t, 0, repo.counterFor("demo", oldSlot))
	assert.Equal(t, 1, repo.counterFor("demo", newSlot))
	assert.Len(t, repo.bookings, 1)

	// The old instant is bookable again.
	_, err = engine.Commit(ctx, "demo", payLaterRequest(oldSlot))
	require.NoError(t, err)
}

func TestReschedule_SameInstantIsNoOp(t *testing.T) {
	repo := newMemBookingRepo()
	engine := newEngine(testProvider(1), repo, nil)
	ctx := context.Background()
	slot := ist(10, 0).UTC()

	booking, err := engine.Commit(ctx, "demo", payLaterRequest(slot))
	require.NoError(t, err)

	require.NoError(t, engine.Reschedule(ctx, "demo", booking.ID, slot))
	assert.Equal(t, 1, repo.counterFor("demo", slot))
}

func TestReschedule_CanceledBookingRejected(t *testing.T) {
	repo := newMemBookingRepo()
	engine := newEngine(testProvider(1), repo, nil)
	ctx := context.Background()

	booking, err := engine.Commit(ctx, "demo", payLaterRequest(ist(10, 0).UTC()))
	require.NoError(t, err)
	require.NoError(t, engine.Cancel(ctx, "demo", booking.ID))

	err = engine.Reschedule(ctx, "demo", booking.ID, ist(14, 0).UTC())
	require.ErrorIs(t, err, scheduling.ErrNotReschedulable)
}

func TestReschedule_TargetFullKeepsOriginal(t *testing.T) {
	repo := newMemBookingRepo()
	engine := newEngine(testProvider(1), repo, nil)
	ctx := context.Background()
	oldSlot := ist(10, 0).UTC()
	fullSlot := ist(14, 0).UTC()

	booking, err := engine.Commit(ctx, "demo", payLaterRequest(oldSlot))
	require.NoError(t, err)
	_, err = engine.Commit(ctx, "demo", payLaterRequest(fullSlot))
	require.NoError(t, err)

	err = engine.Reschedule(ctx, "demo", booking.ID, fullSlot)
	require.ErrorIs(t, err, repository.ErrSlotUnavailable)

	unchanged, err := repo.GetByID(ctx, "demo", booking.ID)
	require.NoError(t, err)
	assert.Equal(t, oldSlot, unchanged.DateTimeUTC)
	assert.Equal(t, 1, repo.counterFor("demo", oldSlot))
}

// staleReadRepo serves a snapshot from before a concurrent cancel on the
// status read, modeling a cancel that lands between the engine's advisory
// check and the store write. The store-level re-check must still reject.
type staleReadRepo struct {
	*memBookingRepo
	stale models.Booking
}

func (s *staleReadRepo) GetByID(context.Context, string, string) (*models.Booking, error) {
	copied := s.stale
	return &copied, nil
}

func TestReschedule_CancelRacingStatusReadDoesNotLeakCapacity(t *testing.T) {
	repo := newMemBookingRepo()
	engine := newEngine(testProvider(1), repo, nil)
	ctx := context.Background()
	oldSlot := ist(10, 0).UTC()
	newSlot := ist(14, 0).UTC()

	booking, err := engine.Commit(ctx, "demo", payLaterRequest(oldSlot))
	require.NoError(t, err)

	snapshot, err := repo.GetByID(ctx, "demo", booking.ID)
	require.NoError(t, err)
	require.NoError(t, engine.Cancel(ctx, "demo", booking.ID))

	racy := newEngine(testProvider(1), repo, nil)
	racy.Bookings = &staleReadRepo{memBookingRepo: repo, stale: *snapshot}

	err = racy.Reschedule(ctx, "demo", booking.ID, newSlot)
	require.ErrorIs(t, err, scheduling.ErrNotReschedulable)

	assert.Equal(t, 0, repo.counterFor("demo", oldSlot))
	assert.Equal(t, 0, repo.counterFor("demo", newSlot))

	unchanged, err := repo.GetByID(ctx, "demo", booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, unchanged.Status)
	assert.Equal(t, oldSlot, unchanged.DateTimeUTC)
}

func TestCancel_ReleasesCapacityAndIsIdempotent(t *testing.T) {
	repo := newMemBookingRepo()
	engine := newEngine(testProvider(1), repo, nil)
	ctx := context.Background()
	slot := ist(10, 0).UTC()

	booking, err := engine.Commit(ctx, "demo", payLaterRequest(slot))
	require.NoError(t, err)

	require.NoError(t, engine.Cancel(ctx, "demo", booking.ID))
	assert.Equal(t, 0, repo.counterFor("demo", slot))

	require.NoError(t, engine.Cancel(ctx, "demo", booking.ID))
	assert.Equal(t, 0, repo.counterFor("demo", slot))

	_, err = engine.Commit(ctx, "demo", payLaterRequest(slot))
	require.NoError(t, err)
}

func TestConfirm_PromotesPendingBooking(t *testing.T) {
	repo := newMemBookingRepo()
	engine := newEngine(testProvider(1), repo, &recordingQueue{})
	ctx := context.Background()

	req := payLaterRequest(ist(10, 0).UTC())
	req.AwaitPayment = true
	booking, err := engine.Commit(ctx, "demo", req)
	require.NoError(t, err)

	require.NoError(t, engine.Confirm(ctx, "demo", booking.ID))

	confirmed, err := repo.GetByID(ctx, "demo", booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpcoming, confirmed.Status)
}

// A Canceled booking must never come back to life through a status write:
// its capacity unit may already be held by another booking, and resurrecting
// it would put the slot over capacity while a follow-on cancel would release
// a unit it no longer owns.
func TestSetStatus_CannotResurrectCanceledBooking(t *testing.T) {
	repo := newMemBookingRepo()
	engine := newEngine(testProvider(1), repo, nil)
	ctx := context.Background()
	slot := ist(10, 0).UTC()

	first, err := engine.Commit(ctx, "demo", payLaterRequest(slot))
	require.NoError(t, err)
	require.NoError(t, engine.Cancel(ctx, "demo", first.ID))

	second, err := engine.Commit(ctx, "demo", payLaterRequest(slot))
	require.NoError(t, err)

	err = engine.SetStatus(ctx, "demo", first.ID, models.StatusUpcoming)
	require.ErrorIs(t, err, scheduling.ErrStatusNotAllowed)
	err = engine.SetStatus(ctx, "demo", first.ID, models.StatusPending)
	require.ErrorIs(t, err, scheduling.ErrStatusNotAllowed)

	assert.Equal(t, 1, repo.counterFor("demo", slot))

	stillCanceled, err := repo.GetByID(ctx, "demo", first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, stillCanceled.Status)

	// The live booking's cancel releases exactly its own unit.
	require.NoError(t, engine.Cancel(ctx, "demo", second.ID))
	assert.Equal(t, 0, repo.counterFor("demo", slot))
}

func TestSetStatus_CanceledRoutesThroughCancel(t *testing.T) {
	repo := newMemBookingRepo()
	engine := newEngine(testProvider(1), repo, nil)
	ctx := context.Background()
	slot := ist(10, 0).UTC()

	booking, err := engine.Commit(ctx, "demo", payLaterRequest(slot))
	require.NoError(t, err)

	require.NoError(t, engine.SetStatus(ctx, "demo", booking.ID, models.StatusCanceled))
	assert.Equal(t, 0, repo.counterFor("demo", slot))

	canceled, err := repo.GetByID(ctx, "demo", booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, canceled.Status)
}

func TestListBookings_DerivesNotCompleted(t *testing.T) {
	repo := newMemBookingRepo()
	engine := newEngine(testProvider(1), repo, nil)
	ctx := context.Background()

	past := ist(7, 0).UTC() // before the engine clock of 08:00 IST
	repo.bookings["b-past"] = &models.Booking{
		ID: "b-past", ProviderID: "demo", DateTimeUTC: past, Status: models.StatusUpcoming,
	}

	listed, err := engine.ListBookings(ctx, "demo")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, models.StatusNotCompleted, listed[0].Status)

	// Derivation is read-time only; the store still says Upcoming.
	stored, err := repo.GetByID(ctx, "demo", "b-past")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpcoming, stored.Status)
}

func TestExpirePending_CancelsOnlyIfStillPending(t *testing.T) {
	repo := newMemBookingRepo()
	queue := &recordingQueue{}
	engine := newEngine(testProvider(1), repo, queue)
	ctx := context.Background()
	slot := ist(10, 0).UTC()

	req := payLaterRequest(slot)
	req.AwaitPayment = true
	pending, err := engine.Commit(ctx, "demo", req)
	require.NoError(t, err)

	require.NoError(t, engine.ExpirePending(ctx, "demo", pending.ID))
	expired, err := repo.GetByID(ctx, "demo", pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, expired.Status)
	assert.Equal(t, 0, repo.counterFor("demo", slot))

	// A booking confirmed before the TTL fires is left alone and keeps
	// its reservation.
	confirmedSlot := ist(14, 0).UTC()
	req2 := payLaterRequest(confirmedSlot)
	req2.AwaitPayment = true
	confirmed, err := engine.Commit(ctx, "demo", req2)
	require.NoError(t, err)
	require.NoError(t, engine.Confirm(ctx, "demo", confirmed.ID))

	require.NoError(t, engine.ExpirePending(ctx, "demo", confirmed.ID))
	kept, err := repo.GetByID(ctx, "demo", confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpcoming, kept.Status)
	assert.Equal(t, 1, repo.counterFor("demo", confirmedSlot))
}

func TestExpirePending_UnknownBookingIsNotFound(t *testing.T) {
	repo := newMemBookingRepo()
	engine := newEngine(testProvider(1), repo, nil)

	err := engine.ExpirePending(context.Background(), "demo", "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
