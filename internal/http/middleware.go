package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/HenryDev1553/discord-bot-system/internal/booking"
)

// RequireToken guards operator endpoints with a bearer token checked against
// an argon2id hash. Install it only when a hash is configured; without it the
// operator surface is open.
func RequireToken(tokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingToken)
				return
			}

			if err := booking.VerifyToken(tokenHash, token); err != nil {
				if errors.Is(err, booking.ErrUnauthorized) {
					responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
					return
				}
				responder.loggerFor(r.Context()).ErrorContext(r.Context(), "token verification failed", "error", err)
				responder.writeJSON(r.Context(), w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}
