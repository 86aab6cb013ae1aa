package booking

import (
	"time"

	"github.com/HenryDev1553/discord-bot-system/internal/normalize"
)

// State enumerates the lifecycle states of a booking. A booking enters the
// system pending and may be decided exactly once into one of the terminal
// states.
type State string

const (
	StatePending   State = "pending"
	StateConfirmed State = "confirmed"
	StateCancelled State = "cancelled"
	StateError     State = "error"
)

// Live reports whether the booking still occupies its time slot for the
// purposes of conflict detection. Cancelled and error-flagged bookings no
// longer block new requests.
func (s State) Live() bool {
	return s == StatePending || s == StateConfirmed
}

// Terminal reports whether the state is the result of a decision.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateCancelled || s == StateError
}

// StatusText is the label persisted to the record store and reported to
// operators.
func (s State) StatusText() string {
	if s == StateError {
		return "error-flagged"
	}
	return string(s)
}

// StateFromStatusText maps a persisted status label back to its state.
// Unrecognised labels pass through unchanged so stored data is never
// silently rewritten.
func StateFromStatusText(text string) State {
	if text == "error-flagged" {
		return StateError
	}
	return State(text)
}

// Action identifies an operator decision applied to a pending booking.
type Action string

const (
	ActionConfirm   Action = "confirm"
	ActionCancel    Action = "cancel"
	ActionFlagError Action = "flag-error"
)

// target returns the state the action drives the booking into.
func (a Action) target() (State, bool) {
	switch a {
	case ActionConfirm:
		return StateConfirmed, true
	case ActionCancel:
		return StateCancelled, true
	case ActionFlagError:
		return StateError, true
	}
	return "", false
}

// Customer holds the contact details captured from a submission.
type Customer struct {
	Name      string
	Email     string
	Phone     string
	PartySize string
}

// Booking is the domain record for a single reservation request. Date is held
// in canonical dd/mm/yyyy form and the times in HH:MM when they could be
// normalized; otherwise the submitted text is preserved verbatim.
type Booking struct {
	ID              string
	Customer        Customer
	Date            string
	StartTime       string
	EndTime         string
	Room            string
	Notes           string
	RowNumber       int
	State           State
	Conflicts       []ConflictNotice
	ConflictSummary string
	CalendarEventID string
	DecidedBy       string
	DecidedAt       *time.Time
	CreatedAt       time.Time
}

// StartMinutes reports the start time as minutes since midnight, ok=false
// when the stored text never normalized to a clock value.
func (b Booking) StartMinutes() (int, bool) {
	return normalize.MinutesOfDay(b.StartTime)
}

// EndMinutes reports the end time as minutes since midnight.
func (b Booking) EndMinutes() (int, bool) {
	return normalize.MinutesOfDay(b.EndTime)
}

// SpansMidnight reports whether the booking's end lies on or before its
// start, which is treated as crossing into the following day.
func (b Booking) SpansMidnight() bool {
	start, okStart := b.StartMinutes()
	end, okEnd := b.EndMinutes()
	return okStart && okEnd && end <= start
}

// ConflictNotice describes an existing live booking that overlaps a new
// submission. The slice recorded on a booking is advisory; it never blocks
// acceptance.
type ConflictNotice struct {
	BookingID string
	Name      string
	Email     string
	Room      string
	Date      string
	StartTime string
	EndTime   string
}

// SubmissionInput carries the raw webhook payload fields prior to
// normalization and validation.
type SubmissionInput struct {
	Email         string
	Name          string
	Phone         string
	CustomerCount string
	Date          string
	StartTime     string
	EndTime       string
	Room          string
	Notes         string
	RowNumber     int
}

// DecisionParams identifies the booking and decision an operator requested.
type DecisionParams struct {
	BookingID string
	Action    Action
	DecidedBy string
}

// EffectResult records the outcome of one side effect attempted during a
// decision.
type EffectResult struct {
	Attempted bool
	OK        bool
	Attempts  int
	Err       error
}

// DecisionOutcome reports what a decision actually did. AlreadyDecided means
// the booking had left the pending state before this request took the gate;
// no status write and no side effects were performed.
type DecisionOutcome struct {
	BookingID       string
	State           State
	AlreadyDecided  bool
	StatusPersisted bool
	CalendarEventID string
	Calendar        EffectResult
	Notification    EffectResult
}

// Stats summarises the record store by lifecycle state.
type Stats struct {
	Total     int
	Pending   int
	Confirmed int
	Cancelled int
	Errored   int
}
