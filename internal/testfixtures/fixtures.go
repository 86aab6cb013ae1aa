// Package testfixtures provides deterministic builders shared by persistence
// and service tests: booking fixtures, a controllable clock and a sequential
// identifier generator.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/HenryDev1553/discord-bot-system/internal/booking"
	"github.com/HenryDev1553/discord-bot-system/internal/persistence"
	"github.com/HenryDev1553/discord-bot-system/internal/scheduler"
)

var bookingCounter uint64

var referenceTime = time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// BookingFixture represents a deterministic booking record that can be
// materialised for service or persistence tests.
type BookingFixture struct {
	ID              string
	Name            string
	Email           string
	Phone           string
	PartySize       string
	Date            string
	StartTime       string
	EndTime         string
	Room            string
	Notes           string
	Status          booking.State
	Conflicts       []booking.ConflictNotice
	ConflictSummary string
	CalendarEventID string
	DecidedBy       string
	DecidedAt       *time.Time
	RowNumber       int
	CreatedAt       time.Time
}

// BookingOption configures the generated booking fixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns a deterministic pending booking with optional
// overrides. Each call yields a distinct row number and a creation time one
// minute after the previous fixture.
func NewBookingFixture(opts ...BookingOption) BookingFixture {
	idx := atomic.AddUint64(&bookingCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := BookingFixture{
		ID:        fmt.Sprintf("row-%d", idx),
		Name:      fmt.Sprintf("Guest %03d", idx),
		Email:     fmt.Sprintf("guest-%03d@example.com", idx),
		Phone:     "+84 555 0100",
		PartySize: "2",
		Date:      "05/07/2025",
		StartTime: "18:00",
		EndTime:   "20:00",
		Room:      "Rooftop",
		Status:    booking.StatePending,
		RowNumber: int(idx),
		CreatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBookingID overrides the generated booking ID.
func WithBookingID(id string) BookingOption {
	return func(f *BookingFixture) {
		f.ID = id
	}
}

// WithCustomer sets the customer name and email.
func WithCustomer(name, email string) BookingOption {
	return func(f *BookingFixture) {
		f.Name = name
		f.Email = email
	}
}

// WithPhone sets the contact phone number.
func WithPhone(phone string) BookingOption {
	return func(f *BookingFixture) {
		f.Phone = phone
	}
}

// WithPartySize sets the guest count text.
func WithPartySize(size string) BookingOption {
	return func(f *BookingFixture) {
		f.PartySize = size
	}
}

// WithSlot sets the date and the start/end times.
func WithSlot(date, start, end string) BookingOption {
	return func(f *BookingFixture) {
		f.Date = date
		f.StartTime = start
		f.EndTime = end
	}
}

// WithRoom overrides the room name.
func WithRoom(room string) BookingOption {
	return func(f *BookingFixture) {
		f.Room = room
	}
}

// WithNotes sets the free-form notes field.
func WithNotes(notes string) BookingOption {
	return func(f *BookingFixture) {
		f.Notes = notes
	}
}

// WithStatus sets the lifecycle state.
func WithStatus(state booking.State) BookingOption {
	return func(f *BookingFixture) {
		f.Status = state
	}
}

// WithConflicts records overlap notices and a summary on the fixture.
func WithConflicts(summary string, conflicts ...booking.ConflictNotice) BookingOption {
	return func(f *BookingFixture) {
		f.ConflictSummary = summary
		f.Conflicts = append([]booking.ConflictNotice(nil), conflicts...)
	}
}

// WithCalendarEventID sets the linked calendar event identifier.
func WithCalendarEventID(eventID string) BookingOption {
	return func(f *BookingFixture) {
		f.CalendarEventID = eventID
	}
}

// WithDecision records an operator decision on the fixture.
func WithDecision(decidedBy string, decidedAt time.Time) BookingOption {
	return func(f *BookingFixture) {
		f.DecidedBy = decidedBy
		at := decidedAt
		f.DecidedAt = &at
	}
}

// WithRowNumber overrides the spreadsheet row number. A zero value marks a
// submission that arrived without one.
func WithRowNumber(row int) BookingOption {
	return func(f *BookingFixture) {
		f.RowNumber = row
	}
}

// WithCreatedAt sets the creation timestamp.
func WithCreatedAt(t time.Time) BookingOption {
	return func(f *BookingFixture) {
		f.CreatedAt = t
	}
}

// Booking returns the fixture as a booking.Booking value.
func (f BookingFixture) Booking() booking.Booking {
	var decidedAt *time.Time
	if f.DecidedAt != nil {
		at := *f.DecidedAt
		decidedAt = &at
	}
	return booking.Booking{
		ID: f.ID,
		Customer: booking.Customer{
			Name:      f.Name,
			Email:     f.Email,
			Phone:     f.Phone,
			PartySize: f.PartySize,
		},
		Date:            f.Date,
		StartTime:       f.StartTime,
		EndTime:         f.EndTime,
		Room:            f.Room,
		Notes:           f.Notes,
		RowNumber:       f.RowNumber,
		State:           f.Status,
		Conflicts:       append([]booking.ConflictNotice(nil), f.Conflicts...),
		ConflictSummary: f.ConflictSummary,
		CalendarEventID: f.CalendarEventID,
		DecidedBy:       f.DecidedBy,
		DecidedAt:       decidedAt,
		CreatedAt:       f.CreatedAt,
	}
}

// Persistence returns the fixture as a persistence.Booking value.
func (f BookingFixture) Persistence() persistence.Booking {
	var decidedAt *time.Time
	if f.DecidedAt != nil {
		at := *f.DecidedAt
		decidedAt = &at
	}
	var conflicts []persistence.Conflict
	for _, c := range f.Conflicts {
		conflicts = append(conflicts, persistence.Conflict{
			BookingID: c.BookingID,
			Name:      c.Name,
			Email:     c.Email,
			Room:      c.Room,
			Date:      c.Date,
			StartTime: c.StartTime,
			EndTime:   c.EndTime,
		})
	}
	return persistence.Booking{
		ID:              f.ID,
		Name:            f.Name,
		Email:           f.Email,
		Phone:           f.Phone,
		PartySize:       f.PartySize,
		Date:            f.Date,
		StartTime:       f.StartTime,
		EndTime:         f.EndTime,
		Room:            f.Room,
		Notes:           f.Notes,
		Status:          f.Status.StatusText(),
		Conflicts:       conflicts,
		ConflictSummary: f.ConflictSummary,
		CalendarEventID: f.CalendarEventID,
		DecidedBy:       f.DecidedBy,
		DecidedAt:       decidedAt,
		RowNumber:       f.RowNumber,
		CreatedAt:       f.CreatedAt,
	}
}

// Scheduler returns the fixture as the conflict detector's booking view.
func (f BookingFixture) Scheduler() scheduler.Booking {
	return scheduler.Booking{
		ID:    f.ID,
		Name:  f.Name,
		Email: f.Email,
		Room:  f.Room,
		Date:  f.Date,
		Start: f.StartTime,
		End:   f.EndTime,
		Live:  f.Status.Live(),
	}
}
