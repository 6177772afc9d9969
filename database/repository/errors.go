package repository

import "errors"

// ErrSlotUnavailable is returned when a commit or reschedule loses its slot
// between availability display and write time. Callers should re-query
// availability and let the user pick again; it is never fatal.
var ErrSlotUnavailable = errors.New("slot unavailable")

// ErrNotFound is returned when a provider or booking does not exist.
var ErrNotFound = errors.New("not found")

// ErrBookingInactive is returned when a write requires a booking that still
// occupies its slot, but the booking was canceled or finished in the
// meantime. The transactional re-check catches cancellations that land
// after a caller's advisory status read.
var ErrBookingInactive = errors.New("booking no longer occupies a slot")
