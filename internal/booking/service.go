package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/HenryDev1553/discord-bot-system/internal/normalize"
	"github.com/HenryDev1553/discord-bot-system/internal/scheduler"
)

// MaxEmailLookupResults caps the bookings returned by a customer email
// lookup.
const MaxEmailLookupResults = 5

// BookingStore is the persistence surface the service depends on.
type BookingStore interface {
	CreateBooking(ctx context.Context, b Booking) (Booking, error)
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListRecent(ctx context.Context, limit int) ([]Booking, error)
	ListByEmail(ctx context.Context, email string, limit int) ([]Booking, error)
	WriteStatus(ctx context.Context, id string, state State, decidedBy string, decidedAt time.Time) error
	SetCalendarEvent(ctx context.Context, id, eventID string) error
	CountByState(ctx context.Context) (map[State]int, error)
}

// ServiceConfig tunes submission handling.
type ServiceConfig struct {
	ConflictWindow  int
	SheetTimeOffset time.Duration
}

// Service implements booking submission and decision handling on top of a
// record store and the side effect orchestrator.
type Service struct {
	store       BookingStore
	effects     *Orchestrator
	gate        *DecisionGate
	window      int
	sheetOffset time.Duration
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

func NewService(store BookingStore, effects *Orchestrator, cfg ServiceConfig, idGenerator func() string, now func() time.Time) *Service {
	return NewServiceWithLogger(store, effects, cfg, idGenerator, now, nil)
}

func NewServiceWithLogger(store BookingStore, effects *Orchestrator, cfg ServiceConfig, idGenerator func() string, now func() time.Time, logger *slog.Logger) *Service {
	window := cfg.ConflictWindow
	if window <= 0 {
		window = 30
	}
	offset := cfg.SheetTimeOffset
	if offset == 0 {
		offset = normalize.DefaultSheetTimeOffset
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:       store,
		effects:     effects,
		gate:        NewDecisionGate(),
		window:      window,
		sheetOffset: offset,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// Ingest validates and normalizes a submission, records overlaps with recent
// live bookings, and persists the result in the pending state. Conflicts are
// advisory: the booking is accepted either way and the overlap details ride
// along on the stored record.
func (s *Service) Ingest(ctx context.Context, input SubmissionInput) (Booking, error) {
	logger := serviceLogger(ctx, s.logger, "ingest", "row_number", input.RowNumber)

	if err := validateSubmission(input); err != nil {
		logger.Info("submission rejected", "error_kind", ErrorKind(err), "fields", err.FieldErrors)
		return Booking{}, err
	}

	b := Booking{
		ID: s.bookingID(input),
		Customer: Customer{
			Name:      strings.TrimSpace(input.Name),
			Email:     strings.TrimSpace(input.Email),
			Phone:     strings.TrimSpace(input.Phone),
			PartySize: partySize(input.CustomerCount),
		},
		Date:      normalize.Date(strings.TrimSpace(input.Date)),
		StartTime: normalize.Time(strings.TrimSpace(input.StartTime), s.sheetOffset),
		EndTime:   normalize.Time(strings.TrimSpace(input.EndTime), s.sheetOffset),
		Room:      strings.TrimSpace(input.Room),
		Notes:     strings.TrimSpace(input.Notes),
		RowNumber: input.RowNumber,
		State:     StatePending,
		CreatedAt: s.now(),
	}

	b.Conflicts = s.detectConflicts(ctx, logger, b)
	b.ConflictSummary = ConflictSummary(b.Conflicts)

	persisted, err := s.store.CreateBooking(ctx, b)
	if err != nil {
		logger.Error("storing booking failed", "booking_id", b.ID, "error", err)
		return Booking{}, fmt.Errorf("%w: storing booking %s: %v", ErrPersistence, b.ID, err)
	}

	logger.Info("booking accepted",
		"booking_id", persisted.ID,
		"room", persisted.Room,
		"date", persisted.Date,
		"conflicts", len(persisted.Conflicts))
	return persisted, nil
}

// detectConflicts loads the recent window and runs overlap detection. A
// failing read degrades to "no conflicts reported" rather than rejecting the
// submission.
func (s *Service) detectConflicts(ctx context.Context, logger *slog.Logger, candidate Booking) []ConflictNotice {
	recent, err := s.store.ListRecent(ctx, s.window)
	if err != nil {
		logger.Error("conflict window read failed", "error", err)
		return nil
	}

	existing := make([]scheduler.Booking, 0, len(recent))
	for _, other := range recent {
		existing = append(existing, scheduler.Booking{
			ID:    other.ID,
			Name:  other.Customer.Name,
			Email: other.Customer.Email,
			Room:  other.Room,
			Date:  other.Date,
			Start: other.StartTime,
			End:   other.EndTime,
			Live:  other.State.Live(),
		})
	}

	conflicts := scheduler.DetectConflicts(existing, scheduler.Booking{
		ID:    candidate.ID,
		Room:  candidate.Room,
		Date:  candidate.Date,
		Start: candidate.StartTime,
		End:   candidate.EndTime,
		Live:  true,
	})
	if len(conflicts) == 0 {
		return nil
	}

	notices := make([]ConflictNotice, 0, len(conflicts))
	for _, c := range conflicts {
		notices = append(notices, ConflictNotice{
			BookingID: c.BookingID,
			Name:      c.Name,
			Email:     c.Email,
			Room:      c.Room,
			Date:      c.Date,
			StartTime: c.Start,
			EndTime:   c.End,
		})
	}
	return notices
}

// Decide applies an operator decision to a pending booking. Requests for the
// same booking are serialized; a booking already out of the pending state
// yields an AlreadyDecided outcome with no writes and no side effects.
func (s *Service) Decide(ctx context.Context, params DecisionParams) (DecisionOutcome, error) {
	logger := serviceLogger(ctx, s.logger, "decide", "booking_id", params.BookingID, "action", string(params.Action))

	next, ok := params.Action.target()
	if !ok {
		vErr := &ValidationError{}
		vErr.add("action", fmt.Sprintf("unknown action %q", params.Action))
		return DecisionOutcome{}, vErr
	}
	if strings.TrimSpace(params.BookingID) == "" {
		vErr := &ValidationError{}
		vErr.add("bookingId", "booking id is required")
		return DecisionOutcome{}, vErr
	}

	release := s.gate.Acquire(params.BookingID)
	defer release()

	b, err := s.store.GetBooking(ctx, params.BookingID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return DecisionOutcome{}, fmt.Errorf("booking %s: %w", params.BookingID, ErrNotFound)
		}
		return DecisionOutcome{}, fmt.Errorf("%w: loading booking %s: %v", ErrPersistence, params.BookingID, err)
	}

	if b.State != StatePending {
		logger.Info("decision skipped, booking already decided", "state", b.State.StatusText())
		return DecisionOutcome{
			BookingID:      b.ID,
			State:          b.State,
			AlreadyDecided: true,
		}, nil
	}

	outcome, err := s.effects.Apply(ctx, b, next, params.DecidedBy)
	if err != nil {
		return outcome, err
	}

	logger.Info("decision applied",
		"state", outcome.State.StatusText(),
		"calendar_ok", outcome.Calendar.OK,
		"notification_ok", outcome.Notification.OK)
	return outcome, nil
}

// RemoveCalendarEvent deletes the calendar event associated with a booking
// and clears the stored event id. It reports whether an event was deleted.
func (s *Service) RemoveCalendarEvent(ctx context.Context, bookingID string) (bool, error) {
	logger := serviceLogger(ctx, s.logger, "remove_calendar_event", "booking_id", bookingID)

	release := s.gate.Acquire(bookingID)
	defer release()

	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
		}
		return false, fmt.Errorf("%w: loading booking %s: %v", ErrPersistence, bookingID, err)
	}

	deleted, err := s.effects.RemoveEventFor(ctx, b)
	if err != nil {
		logger.Error("calendar event removal failed", "error", err)
		return false, err
	}
	if deleted && b.CalendarEventID != "" {
		if err := s.store.SetCalendarEvent(ctx, b.ID, ""); err != nil {
			logger.Error("clearing calendar event id failed", "error", err)
		}
	}

	logger.Info("calendar event removal finished", "deleted", deleted)
	return deleted, nil
}

// FindByEmail returns the most recent bookings submitted under an email
// address, newest first, capped at MaxEmailLookupResults.
func (s *Service) FindByEmail(ctx context.Context, email string) ([]Booking, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		vErr := &ValidationError{}
		vErr.add("email", "email is required")
		return nil, vErr
	}

	bookings, err := s.store.ListByEmail(ctx, email, MaxEmailLookupResults)
	if err != nil {
		return nil, fmt.Errorf("%w: listing bookings for %s: %v", ErrPersistence, email, err)
	}
	return bookings, nil
}

// Stats reports booking counts by lifecycle state.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	counts, err := s.store.CountByState(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: counting bookings: %v", ErrPersistence, err)
	}

	stats := Stats{
		Pending:   counts[StatePending],
		Confirmed: counts[StateConfirmed],
		Cancelled: counts[StateCancelled],
		Errored:   counts[StateError],
	}
	stats.Total = stats.Pending + stats.Confirmed + stats.Cancelled + stats.Errored
	return stats, nil
}

// ConflictSummary renders the overlap notices as operator facing text.
func ConflictSummary(conflicts []ConflictNotice) string {
	if len(conflicts) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Scheduling conflicts detected:")
	for _, c := range conflicts {
		fmt.Fprintf(&sb, "\n- %s booked %s on %s from %s to %s", c.Name, c.Room, c.Date, c.StartTime, c.EndTime)
	}
	return sb.String()
}

func (s *Service) bookingID(input SubmissionInput) string {
	if input.RowNumber > 0 {
		return fmt.Sprintf("row-%d", input.RowNumber)
	}
	if s.idGenerator != nil {
		return s.idGenerator()
	}
	return fmt.Sprintf("booking-%d", s.now().UnixNano())
}

func partySize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "1"
	}
	return raw
}

func validateSubmission(input SubmissionInput) *ValidationError {
	vErr := &ValidationError{}

	email := strings.TrimSpace(input.Email)
	switch {
	case email == "":
		vErr.add("email", "email is required")
	case !strings.Contains(email, "@") || !strings.Contains(email, "."):
		vErr.add("email", "email address is not valid")
	}

	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if strings.TrimSpace(input.Date) == "" {
		vErr.add("date", "date is required")
	}
	if strings.TrimSpace(input.StartTime) == "" {
		vErr.add("startTime", "start time is required")
	}
	if strings.TrimSpace(input.EndTime) == "" {
		vErr.add("endTime", "end time is required")
	}
	if strings.TrimSpace(input.Room) == "" {
		vErr.add("room", "room is required")
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
