package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrCalendarDisabled is returned when a calendar operation is requested but
// no calendar provider is configured.
var ErrCalendarDisabled = errors.New("booking: calendar integration disabled")

// EventSpec describes a calendar event to create for a confirmed booking.
type EventSpec struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

// CalendarEvent is a calendar entry as reported by the provider.
type CalendarEvent struct {
	ID          string
	Summary     string
	Description string
}

// CalendarProvider is the outbound calendar surface the orchestrator drives.
type CalendarProvider interface {
	CreateEvent(ctx context.Context, spec EventSpec) (string, error)
	DeleteEvent(ctx context.Context, eventID string) error
	ListEvents(ctx context.Context, from, to time.Time) ([]CalendarEvent, error)
}

// NotificationSender delivers customer facing messages for decided bookings.
type NotificationSender interface {
	SendConfirmation(ctx context.Context, b Booking) error
	SendCancellation(ctx context.Context, b Booking) error
}

// RetryPolicy controls how side effect calls are retried. Delay grows by
// Factor after each failed attempt up to MaxDelay.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Factor       float64
	MaxDelay     time.Duration
}

// DefaultRetryPolicy retries twice more after the initial attempt with
// exponential backoff.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:  3,
	InitialDelay: 2 * time.Second,
	Factor:       2.0,
	MaxDelay:     30 * time.Second,
}

// OrchestratorConfig tunes side effect execution.
type OrchestratorConfig struct {
	Retry           RetryPolicy
	ExternalTimeout time.Duration
	Location        *time.Location
}

// Orchestrator performs the side effects of a decision in a fixed order:
// the status write comes first and is fatal on failure, the calendar and
// notification steps follow and only degrade the outcome. Either provider
// may be nil, which skips that step entirely.
type Orchestrator struct {
	store    BookingStore
	calendar CalendarProvider
	notifier NotificationSender
	retry    RetryPolicy
	timeout  time.Duration
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

func NewOrchestrator(store BookingStore, calendar CalendarProvider, notifier NotificationSender, cfg OrchestratorConfig, now func() time.Time) *Orchestrator {
	return NewOrchestratorWithLogger(store, calendar, notifier, cfg, now, nil)
}

func NewOrchestratorWithLogger(store BookingStore, calendar CalendarProvider, notifier NotificationSender, cfg OrchestratorConfig, now func() time.Time, logger *slog.Logger) *Orchestrator {
	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryPolicy
	}
	if retry.Factor <= 1 {
		retry.Factor = DefaultRetryPolicy.Factor
	}
	if retry.InitialDelay <= 0 {
		retry.InitialDelay = DefaultRetryPolicy.InitialDelay
	}
	timeout := cfg.ExternalTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	location := cfg.Location
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		store:    store,
		calendar: calendar,
		notifier: notifier,
		retry:    retry,
		timeout:  timeout,
		location: location,
		now:      now,
		logger:   defaultLogger(logger),
	}
}

// Apply persists the decided state and runs the side effects it implies.
// The returned outcome is non-error even when a side effect exhausted its
// retries; only the status write failing produces an error, wrapped with
// ErrPersistence.
func (o *Orchestrator) Apply(ctx context.Context, b Booking, next State, decidedBy string) (DecisionOutcome, error) {
	logger := serviceLogger(ctx, o.logger, "apply_decision", "booking_id", b.ID, "state", next.StatusText())

	outcome := DecisionOutcome{BookingID: b.ID, State: next}
	decidedAt := o.now()
	if err := o.store.WriteStatus(ctx, b.ID, next, decidedBy, decidedAt); err != nil {
		logger.Error("status write failed, aborting side effects", "error", err)
		return outcome, fmt.Errorf("%w: writing status for %s: %v", ErrPersistence, b.ID, err)
	}
	outcome.StatusPersisted = true

	b.State = next
	b.DecidedBy = decidedBy
	b.DecidedAt = &decidedAt

	switch next {
	case StateConfirmed:
		o.createEvent(ctx, logger, b, &outcome)
		if o.notifier != nil {
			outcome.Notification = o.withRetry(ctx, logger, "notify_confirmation", func(callCtx context.Context) error {
				return o.notifier.SendConfirmation(callCtx, b)
			})
		}
	case StateCancelled:
		if o.notifier != nil {
			outcome.Notification = o.withRetry(ctx, logger, "notify_cancellation", func(callCtx context.Context) error {
				return o.notifier.SendCancellation(callCtx, b)
			})
		}
	case StateError:
		// Flagged bookings are resolved by operators; no outbound messaging.
	}

	return outcome, nil
}

func (o *Orchestrator) createEvent(ctx context.Context, logger *slog.Logger, b Booking, outcome *DecisionOutcome) {
	if o.calendar == nil {
		return
	}

	spec, err := o.buildEventSpec(b)
	if err != nil {
		outcome.Calendar = EffectResult{Attempted: true, Err: err}
		logger.Warn("calendar event skipped", "error", err)
		return
	}

	var eventID string
	outcome.Calendar = o.withRetry(ctx, logger, "calendar_create", func(callCtx context.Context) error {
		id, err := o.calendar.CreateEvent(callCtx, spec)
		if err != nil {
			return err
		}
		eventID = id
		return nil
	})
	if !outcome.Calendar.OK || eventID == "" {
		return
	}

	outcome.CalendarEventID = eventID
	if err := o.store.SetCalendarEvent(ctx, b.ID, eventID); err != nil {
		// The event exists either way; the stored id only speeds up later
		// removal, which falls back to matching.
		logger.Error("recording calendar event id failed", "event_id", eventID, "error", err)
	}
}

// RemoveEventFor deletes the calendar event belonging to a booking. A stored
// event id is used directly; otherwise the booking's day is scanned and an
// event matching at least two of customer name, email and room is removed.
// The boolean reports whether an event was actually deleted.
func (o *Orchestrator) RemoveEventFor(ctx context.Context, b Booking) (bool, error) {
	if o.calendar == nil {
		return false, ErrCalendarDisabled
	}

	eventID := b.CalendarEventID
	if eventID == "" {
		found, err := o.findEventFor(ctx, b)
		if err != nil {
			return false, err
		}
		eventID = found
	}
	if eventID == "" {
		return false, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	if err := o.calendar.DeleteEvent(callCtx, eventID); err != nil {
		return false, err
	}
	return true, nil
}

// findEventFor scans the booking's day, extended to cover events that run
// past midnight, and scores each event against the booking. The match is a
// heuristic and may miss renamed events; callers treat "not found" as a
// clean no-op.
func (o *Orchestrator) findEventFor(ctx context.Context, b Booking) (string, error) {
	day, err := time.ParseInLocation("02/01/2006", b.Date, o.location)
	if err != nil {
		return "", nil
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	events, err := o.calendar.ListEvents(callCtx, day, day.Add(48*time.Hour))
	if err != nil {
		return "", err
	}

	name := strings.ToLower(strings.TrimSpace(b.Customer.Name))
	email := strings.ToLower(strings.TrimSpace(b.Customer.Email))
	room := strings.ToLower(strings.TrimSpace(b.Room))

	for _, event := range events {
		summary := strings.ToLower(event.Summary)
		description := strings.ToLower(event.Description)

		score := 0
		if name != "" && strings.Contains(summary, name) {
			score++
		}
		if email != "" && strings.Contains(description, email) {
			score++
		}
		if room != "" && strings.Contains(description, room) {
			score++
		}
		if score >= 2 {
			return event.ID, nil
		}
	}
	return "", nil
}

// buildEventSpec converts a decided booking into a concrete event. An end on
// or before the start is read as finishing the following day.
func (o *Orchestrator) buildEventSpec(b Booking) (EventSpec, error) {
	day, err := time.ParseInLocation("02/01/2006", b.Date, o.location)
	if err != nil {
		return EventSpec{}, fmt.Errorf("booking %s has no usable date: %q", b.ID, b.Date)
	}

	startMinutes, okStart := b.StartMinutes()
	endMinutes, okEnd := b.EndMinutes()
	if !okStart || !okEnd {
		return EventSpec{}, fmt.Errorf("booking %s has no usable times: %q - %q", b.ID, b.StartTime, b.EndTime)
	}

	start := day.Add(time.Duration(startMinutes) * time.Minute)
	end := day.Add(time.Duration(endMinutes) * time.Minute)
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}

	var description strings.Builder
	fmt.Fprintf(&description, "Room: %s\n", b.Room)
	fmt.Fprintf(&description, "Customer: %s\n", b.Customer.Name)
	fmt.Fprintf(&description, "Email: %s\n", b.Customer.Email)
	if b.Customer.Phone != "" {
		fmt.Fprintf(&description, "Phone: %s\n", b.Customer.Phone)
	}
	if b.Customer.PartySize != "" {
		fmt.Fprintf(&description, "Guests: %s\n", b.Customer.PartySize)
	}
	if b.Notes != "" {
		fmt.Fprintf(&description, "Notes: %s\n", b.Notes)
	}

	return EventSpec{
		Summary:     fmt.Sprintf("Booking: %s (%s)", b.Customer.Name, b.Room),
		Description: description.String(),
		Location:    b.Room,
		Start:       start,
		End:         end,
	}, nil
}

func (o *Orchestrator) withRetry(ctx context.Context, logger *slog.Logger, effect string, fn func(context.Context) error) EffectResult {
	result := EffectResult{Attempted: true}
	delay := o.retry.InitialDelay

	for attempt := 1; attempt <= o.retry.MaxAttempts; attempt++ {
		result.Attempts = attempt

		callCtx, cancel := context.WithTimeout(ctx, o.timeout)
		err := fn(callCtx)
		cancel()
		if err == nil {
			result.OK = true
			result.Err = nil
			return result
		}

		result.Err = err
		logger.Warn("side effect attempt failed", "effect", effect, "attempt", attempt, "error", err)
		if attempt == o.retry.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			result.Err = ctx.Err()
			return result
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * o.retry.Factor)
		if o.retry.MaxDelay > 0 && delay > o.retry.MaxDelay {
			delay = o.retry.MaxDelay
		}
	}

	logger.Error("side effect exhausted retries", "effect", effect, "attempts", result.Attempts, "error", result.Err)
	return result
}
