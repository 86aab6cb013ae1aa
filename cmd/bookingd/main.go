package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/HenryDev1553/discord-bot-system/internal/booking"
	"github.com/HenryDev1553/discord-bot-system/internal/calendar"
	"github.com/HenryDev1553/discord-bot-system/internal/config"
	httptransport "github.com/HenryDev1553/discord-bot-system/internal/http"
	"github.com/HenryDev1553/discord-bot-system/internal/logging"
	"github.com/HenryDev1553/discord-bot-system/internal/mail"
	"github.com/HenryDev1553/discord-bot-system/internal/persistence"
	"github.com/HenryDev1553/discord-bot-system/internal/persistence/sqlite"
)

func main() {
	logger := logging.New(os.Stdout, slog.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("failed to load timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	store := newStoreAdapter(storage)

	var calendarProvider booking.CalendarProvider
	if cfg.CalendarWebAppURL != "" {
		calendarProvider = newCalendarAdapter(calendar.NewClient(cfg.CalendarWebAppURL, cfg.ExternalTimeout))
	} else {
		logger.Warn("calendar bridge URL not configured; calendar steps are skipped")
	}

	var notifier booking.NotificationSender
	if cfg.MailWebAppURL != "" {
		notifier = newNotifierAdapter(mail.NewClient(cfg.MailWebAppURL, cfg.ExternalTimeout), mail.Identity{
			CompanyName:  cfg.CompanyName,
			CompanyEmail: cfg.CompanyEmail,
			CompanyPhone: cfg.CompanyPhone,
		})
	} else {
		logger.Warn("mail bridge URL not configured; customer notifications are skipped")
	}

	retry := booking.DefaultRetryPolicy
	retry.MaxAttempts = cfg.NotifyMaxAttempts

	effects := booking.NewOrchestratorWithLogger(store, calendarProvider, notifier, booking.OrchestratorConfig{
		Retry:           retry,
		ExternalTimeout: cfg.ExternalTimeout,
		Location:        location,
	}, time.Now, logger)

	service := booking.NewServiceWithLogger(store, effects, booking.ServiceConfig{
		ConflictWindow:  cfg.ConflictWindow,
		SheetTimeOffset: cfg.SheetTimeOffset,
	}, uuid.NewString, time.Now, logger)

	webhookHandler := httptransport.NewWebhookHandler(service, storage, logger)
	bookingHandler := httptransport.NewBookingHandler(service, logger)

	var adminMiddleware []func(http.Handler) http.Handler
	if cfg.AdminTokenHash != "" {
		adminMiddleware = append(adminMiddleware, httptransport.RequireToken(cfg.AdminTokenHash, logger))
	} else {
		logger.Warn("admin token hash not configured; operator endpoints are unauthenticated")
	}

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Webhooks:        webhookHandler,
		Bookings:        bookingHandler,
		Middleware:      []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
		AdminMiddleware: adminMiddleware,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("booking API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// storeAdapter implements booking.BookingStore over the SQLite repository,
// translating between the domain record and its stored shape.
type storeAdapter struct {
	repo persistence.BookingRepository
}

func newStoreAdapter(repo persistence.BookingRepository) *storeAdapter {
	return &storeAdapter{repo: repo}
}

func (a *storeAdapter) CreateBooking(ctx context.Context, b booking.Booking) (booking.Booking, error) {
	if err := a.repo.CreateBooking(ctx, toPersistenceBooking(b)); err != nil {
		return booking.Booking{}, mapStoreError(err)
	}
	stored, err := a.repo.GetBooking(ctx, b.ID)
	if err != nil {
		return booking.Booking{}, mapStoreError(err)
	}
	return toDomainBooking(stored), nil
}

func (a *storeAdapter) GetBooking(ctx context.Context, id string) (booking.Booking, error) {
	stored, err := a.repo.GetBooking(ctx, id)
	if err != nil {
		return booking.Booking{}, mapStoreError(err)
	}
	return toDomainBooking(stored), nil
}

func (a *storeAdapter) ListRecent(ctx context.Context, limit int) ([]booking.Booking, error) {
	models, err := a.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return toDomainBookings(models), nil
}

func (a *storeAdapter) ListByEmail(ctx context.Context, email string, limit int) ([]booking.Booking, error) {
	models, err := a.repo.ListByEmail(ctx, email, limit)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return toDomainBookings(models), nil
}

func (a *storeAdapter) WriteStatus(ctx context.Context, id string, state booking.State, decidedBy string, decidedAt time.Time) error {
	if err := a.repo.UpdateStatus(ctx, id, state.StatusText(), decidedBy, decidedAt); err != nil {
		return mapStoreError(err)
	}
	return nil
}

func (a *storeAdapter) SetCalendarEvent(ctx context.Context, id, eventID string) error {
	if err := a.repo.SetCalendarEventID(ctx, id, eventID); err != nil {
		return mapStoreError(err)
	}
	return nil
}

func (a *storeAdapter) CountByState(ctx context.Context) (map[booking.State]int, error) {
	counts, err := a.repo.CountByStatus(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	states := make(map[booking.State]int, len(counts))
	for status, count := range counts {
		states[booking.StateFromStatusText(status)] += count
	}
	return states, nil
}

func mapStoreError(err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return booking.ErrNotFound
	}
	return err
}

func toPersistenceBooking(b booking.Booking) persistence.Booking {
	var decidedAt *time.Time
	if b.DecidedAt != nil {
		at := *b.DecidedAt
		decidedAt = &at
	}
	var conflicts []persistence.Conflict
	for _, c := range b.Conflicts {
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
		ID:              b.ID,
		Name:            b.Customer.Name,
		Email:           b.Customer.Email,
		Phone:           b.Customer.Phone,
		PartySize:       b.Customer.PartySize,
		Date:            b.Date,
		StartTime:       b.StartTime,
		EndTime:         b.EndTime,
		Room:            b.Room,
		Notes:           b.Notes,
		Status:          b.State.StatusText(),
		Conflicts:       conflicts,
		ConflictSummary: b.ConflictSummary,
		CalendarEventID: b.CalendarEventID,
		DecidedBy:       b.DecidedBy,
		DecidedAt:       decidedAt,
		RowNumber:       b.RowNumber,
		CreatedAt:       b.CreatedAt,
	}
}

func toDomainBooking(model persistence.Booking) booking.Booking {
	var decidedAt *time.Time
	if model.DecidedAt != nil {
		at := *model.DecidedAt
		decidedAt = &at
	}
	var conflicts []booking.ConflictNotice
	for _, c := range model.Conflicts {
		conflicts = append(conflicts, booking.ConflictNotice{
			BookingID: c.BookingID,
			Name:      c.Name,
			Email:     c.Email,
			Room:      c.Room,
			Date:      c.Date,
			StartTime: c.StartTime,
			EndTime:   c.EndTime,
		})
	}
	return booking.Booking{
		ID: model.ID,
		Customer: booking.Customer{
			Name:      model.Name,
			Email:     model.Email,
			Phone:     model.Phone,
			PartySize: model.PartySize,
		},
		Date:            model.Date,
		StartTime:       model.StartTime,
		EndTime:         model.EndTime,
		Room:            model.Room,
		Notes:           model.Notes,
		RowNumber:       model.RowNumber,
		State:           booking.StateFromStatusText(model.Status),
		Conflicts:       conflicts,
		ConflictSummary: model.ConflictSummary,
		CalendarEventID: model.CalendarEventID,
		DecidedBy:       model.DecidedBy,
		DecidedAt:       decidedAt,
		CreatedAt:       model.CreatedAt,
	}
}

func toDomainBookings(models []persistence.Booking) []booking.Booking {
	if len(models) == 0 {
		return nil
	}
	bookings := make([]booking.Booking, 0, len(models))
	for _, model := range models {
		bookings = append(bookings, toDomainBooking(model))
	}
	return bookings
}

// calendarAdapter implements booking.CalendarProvider over the bridge client.
type calendarAdapter struct {
	client *calendar.Client
}

func newCalendarAdapter(client *calendar.Client) *calendarAdapter {
	return &calendarAdapter{client: client}
}

func (a *calendarAdapter) CreateEvent(ctx context.Context, spec booking.EventSpec) (string, error) {
	return a.client.CreateEvent(ctx, calendar.EventSpec{
		Summary:     spec.Summary,
		Description: spec.Description,
		Location:    spec.Location,
		Start:       spec.Start,
		End:         spec.End,
	})
}

func (a *calendarAdapter) DeleteEvent(ctx context.Context, eventID string) error {
	return a.client.DeleteEvent(ctx, eventID)
}

func (a *calendarAdapter) ListEvents(ctx context.Context, from, to time.Time) ([]booking.CalendarEvent, error) {
	events, err := a.client.ListEvents(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	out := make([]booking.CalendarEvent, 0, len(events))
	for _, event := range events {
		out = append(out, booking.CalendarEvent{
			ID:          event.ID,
			Summary:     event.Summary,
			Description: event.Description,
		})
	}
	return out, nil
}

// notifierAdapter implements booking.NotificationSender by rendering the
// customer templates and posting them through the mail bridge.
type notifierAdapter struct {
	client   *mail.Client
	identity mail.Identity
}

func newNotifierAdapter(client *mail.Client, identity mail.Identity) *notifierAdapter {
	return &notifierAdapter{client: client, identity: identity}
}

func (a *notifierAdapter) SendConfirmation(ctx context.Context, b booking.Booking) error {
	return a.client.Send(ctx, mail.Confirmation(toBookingDetails(b), a.identity))
}

func (a *notifierAdapter) SendCancellation(ctx context.Context, b booking.Booking) error {
	return a.client.Send(ctx, mail.Cancellation(toBookingDetails(b), a.identity))
}

func toBookingDetails(b booking.Booking) mail.BookingDetails {
	return mail.BookingDetails{
		Name:      b.Customer.Name,
		Email:     b.Customer.Email,
		Date:      b.Date,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Room:      b.Room,
		PartySize: b.Customer.PartySize,
		Notes:     b.Notes,
	}
}
