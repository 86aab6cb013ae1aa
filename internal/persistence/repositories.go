package persistence

import (
	"context"
	"time"
)

// BookingRepository is the storage contract for booking records.
type BookingRepository interface {
	// CreateBooking stores a new booking. ErrDuplicate is returned when the
	// id already exists.
	CreateBooking(ctx context.Context, b Booking) error
	// GetBooking retrieves a booking by id.
	GetBooking(ctx context.Context, id string) (Booking, error)
	// ListRecent returns the newest bookings first, at most limit entries.
	ListRecent(ctx context.Context, limit int) ([]Booking, error)
	// ListByEmail returns the newest bookings for an email address,
	// case-insensitively, at most limit entries.
	ListByEmail(ctx context.Context, email string, limit int) ([]Booking, error)
	// UpdateStatus writes the decided status and audit fields for a booking.
	UpdateStatus(ctx context.Context, id, status, decidedBy string, decidedAt time.Time) error
	// SetCalendarEventID records or clears the calendar event attached to a
	// booking.
	SetCalendarEventID(ctx context.Context, id, eventID string) error
	// CountByStatus reports how many bookings exist per status label.
	CountByStatus(ctx context.Context) (map[string]int, error)
}
