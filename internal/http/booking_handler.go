package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/HenryDev1553/discord-bot-system/internal/booking"
)

type decisionService interface {
	Decide(ctx context.Context, params booking.DecisionParams) (booking.DecisionOutcome, error)
	RemoveCalendarEvent(ctx context.Context, bookingID string) (bool, error)
	FindByEmail(ctx context.Context, email string) ([]booking.Booking, error)
	Stats(ctx context.Context) (booking.Stats, error)
}

// BookingHandler serves the operator endpoints.
type BookingHandler struct {
	service   decisionService
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service decisionService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

// Decide applies the operator decision carried by the route action.
func (h *BookingHandler) Decide(w http.ResponseWriter, r *http.Request, action booking.Action) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := BookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBooking)
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.log(r.Context(), "Decide", "booking_id", bookingID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode decision request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Decide", "booking_id", bookingID, "action", string(action))

	outcome, err := h.service.Decide(r.Context(), booking.DecisionParams{
		BookingID: bookingID,
		Action:    action,
		DecidedBy: strings.TrimSpace(req.DecidedBy),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "decision failed", "error", err, "error_kind", booking.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "decision handled", "state", outcome.State.StatusText(), "already_decided", outcome.AlreadyDecided)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDecisionDTO(outcome))
}

// RemoveCalendarEvent deletes the calendar event belonging to a booking.
func (h *BookingHandler) RemoveCalendarEvent(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := BookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBooking)
		return
	}

	logger := h.log(r.Context(), "RemoveCalendarEvent", "booking_id", bookingID)

	deleted, err := h.service.RemoveCalendarEvent(r.Context(), bookingID)
	if err != nil {
		logger.ErrorContext(r.Context(), "calendar event removal failed", "error", err, "error_kind", booking.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "calendar event removal handled", "deleted", deleted)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]bool{"deleted": deleted})
}

// List returns recent bookings for the email given in the query string.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingEmail)
		return
	}

	logger := h.log(r.Context(), "List")

	bookings, err := h.service.FindByEmail(r.Context(), email)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking lookup failed", "error", err, "error_kind", booking.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(bookings)).InfoContext(r.Context(), "bookings listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: toBookingDTOs(bookings)})
}

// Stats reports booking counts by state.
func (h *BookingHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Stats")

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "stats lookup failed", "error", err, "error_kind", booking.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, statsResponse{
		Total:     stats.Total,
		Pending:   stats.Pending,
		Confirmed: stats.Confirmed,
		Cancelled: stats.Cancelled,
		Errored:   stats.Errored,
	})
}

type decisionRequest struct {
	DecidedBy string `json:"decidedBy"`
}

type effectDTO struct {
	Attempted bool   `json:"attempted"`
	OK        bool   `json:"ok"`
	Attempts  int    `json:"attempts"`
	Error     string `json:"error,omitempty"`
}

type decisionResponse struct {
	BookingID       string    `json:"bookingId"`
	Status          string    `json:"status"`
	AlreadyDecided  bool      `json:"alreadyDecided"`
	CalendarEventID string    `json:"calendarEventId,omitempty"`
	Calendar        effectDTO `json:"calendar"`
	Notification    effectDTO `json:"notification"`
}

func toDecisionDTO(outcome booking.DecisionOutcome) decisionResponse {
	return decisionResponse{
		BookingID:       outcome.BookingID,
		Status:          outcome.State.StatusText(),
		AlreadyDecided:  outcome.AlreadyDecided,
		CalendarEventID: outcome.CalendarEventID,
		Calendar:        toEffectDTO(outcome.Calendar),
		Notification:    toEffectDTO(outcome.Notification),
	}
}

func toEffectDTO(effect booking.EffectResult) effectDTO {
	dto := effectDTO{
		Attempted: effect.Attempted,
		OK:        effect.OK,
		Attempts:  effect.Attempts,
	}
	if effect.Err != nil {
		dto.Error = effect.Err.Error()
	}
	return dto
}

type listBookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}

type statsResponse struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Cancelled int `json:"cancelled"`
	Errored   int `json:"errored"`
}

type conflictDTO struct {
	BookingID string `json:"bookingId"`
	Name      string `json:"name"`
	Room      string `json:"room"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type bookingDTO struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Email           string        `json:"email"`
	Phone           string        `json:"phone,omitempty"`
	PartySize       string        `json:"partySize"`
	Date            string        `json:"date"`
	StartTime       string        `json:"startTime"`
	EndTime         string        `json:"endTime"`
	Room            string        `json:"room"`
	Notes           string        `json:"notes,omitempty"`
	Status          string        `json:"status"`
	Conflicts       []conflictDTO `json:"conflicts,omitempty"`
	ConflictSummary string        `json:"conflictSummary,omitempty"`
	CalendarEventID string        `json:"calendarEventId,omitempty"`
	DecidedBy       string        `json:"decidedBy,omitempty"`
	DecidedAt       string        `json:"decidedAt,omitempty"`
	RowNumber       int           `json:"rowNumber,omitempty"`
	CreatedAt       string        `json:"createdAt"`
}

func toBookingDTO(b booking.Booking) bookingDTO {
	dto := bookingDTO{
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
		ConflictSummary: b.ConflictSummary,
		CalendarEventID: b.CalendarEventID,
		DecidedBy:       b.DecidedBy,
		RowNumber:       b.RowNumber,
		CreatedAt:       b.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if b.DecidedAt != nil {
		dto.DecidedAt = b.DecidedAt.UTC().Format(time.RFC3339Nano)
	}
	for _, c := range b.Conflicts {
		dto.Conflicts = append(dto.Conflicts, conflictDTO{
			BookingID: c.BookingID,
			Name:      c.Name,
			Room:      c.Room,
			Date:      c.Date,
			StartTime: c.StartTime,
			EndTime:   c.EndTime,
		})
	}
	return dto
}

func toBookingDTOs(bookings []booking.Booking) []bookingDTO {
	if len(bookings) == 0 {
		return nil
	}
	out := make([]bookingDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingDTO(b))
	}
	return out
}
