package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/HenryDev1553/discord-bot-system/internal/booking"
)

type ingestService interface {
	Ingest(ctx context.Context, input booking.SubmissionInput) (booking.Booking, error)
}

// Pinger reports backing store health for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WebhookHandler serves the public submission surface.
type WebhookHandler struct {
	service   ingestService
	pinger    Pinger
	responder responder
	logger    *slog.Logger
	now       func() time.Time
}

func NewWebhookHandler(service ingestService, pinger Pinger, logger *slog.Logger) *WebhookHandler {
	base := defaultLogger(logger)
	return &WebhookHandler{
		service:   service,
		pinger:    pinger,
		responder: newResponder(base),
		logger:    base,
		now:       time.Now,
	}
}

func (h *WebhookHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "WebhookHandler", operation, attrs...)
}

// ReceiveBooking handles the form webhook. Payloads that pass validation are
// always accepted with HTTP 200, including ones with scheduling conflicts.
func (h *WebhookHandler) ReceiveBooking(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "ReceiveBooking", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode webhook payload", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "ReceiveBooking", "row_number", req.RowNumber)

	b, err := h.service.Ingest(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "webhook ingest failed", "error", err, "error_kind", booking.ErrorKind(err))
		h.writeIngestError(r.Context(), w, err)
		return
	}

	message := "Booking received"
	if n := len(b.Conflicts); n == 1 {
		message = "Booking received with 1 scheduling conflict"
	} else if n > 1 {
		message = fmt.Sprintf("Booking received with %d scheduling conflicts", n)
	}

	logger.With("booking_id", b.ID).InfoContext(r.Context(), "webhook booking stored")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, webhookResponse{
		Status:    "success",
		Message:   message,
		RowNumber: b.RowNumber,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// Test answers webhook connectivity checks from the form side.
func (h *WebhookHandler) Test(w http.ResponseWriter, r *http.Request) {
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]string{
		"status":    "ok",
		"message":   "webhook endpoint reachable",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// Health reports process and record store health.
func (h *WebhookHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			h.log(r.Context(), "Health").ErrorContext(r.Context(), "storage ping failed", "error", err)
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	h.responder.writeJSON(r.Context(), w, code, map[string]string{
		"status":    status,
		"service":   "bookingd",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// writeIngestError keeps the error contract of the original form webhook:
// 400 with a single error line for bad payloads, 500 with a message for the
// rest.
func (h *WebhookHandler) writeIngestError(ctx context.Context, w http.ResponseWriter, err error) {
	var vErr *booking.ValidationError
	if errors.As(err, &vErr) {
		fields := make([]string, 0, len(vErr.FieldErrors))
		for _, msg := range vErr.FieldErrors {
			fields = append(fields, msg)
		}
		sort.Strings(fields)
		h.responder.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: strings.Join(fields, "; ")})
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
		Error:   "internal server error",
		Message: err.Error(),
	})
}

type webhookRequest struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	CustomerCount string `json:"customerCount"`
	Date          string `json:"date"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	Room          string `json:"room"`
	Notes         string `json:"notes"`
	RowNumber     int    `json:"rowNumber"`
}

func (r webhookRequest) toInput() booking.SubmissionInput {
	return booking.SubmissionInput{
		Email:         r.Email,
		Name:          r.Name,
		Phone:         r.Phone,
		CustomerCount: r.CustomerCount,
		Date:          r.Date,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		Room:          r.Room,
		Notes:         r.Notes,
		RowNumber:     r.RowNumber,
	}
}

type webhookResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	RowNumber int    `json:"rowNumber"`
	Timestamp string `json:"timestamp"`
}
