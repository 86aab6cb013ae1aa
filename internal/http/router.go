package http

import (
	"net/http"
	"strings"

	"github.com/HenryDev1553/discord-bot-system/internal/booking"
)

type RouterConfig struct {
	Webhooks *WebhookHandler
	Bookings *BookingHandler
	// Middleware wraps every route.
	Middleware []func(http.Handler) http.Handler
	// AdminMiddleware wraps only the operator routes under /bookings.
	AdminMiddleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Webhooks != nil {
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Webhooks.Health(w, r)
		})
		mux.HandleFunc("/webhook/booking", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Webhooks.ReceiveBooking(w, r)
		})
		mux.HandleFunc("/webhook/test", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodPost:
				cfg.Webhooks.Test(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
	}

	if cfg.Bookings != nil {
		admin := func(h http.HandlerFunc) http.Handler {
			return chain(h, cfg.AdminMiddleware)
		}

		mux.Handle("/bookings", admin(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Bookings.List(w, r)
		}))
		mux.Handle("/bookings/stats", admin(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Bookings.Stats(w, r)
		}))
		mux.Handle("/bookings/", admin(func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/bookings/")
			id, verb, ok := strings.Cut(rest, "/")
			if !ok || id == "" || verb == "" || strings.Contains(verb, "/") {
				http.NotFound(w, r)
				return
			}

			r = r.WithContext(ContextWithBookingID(r.Context(), id))
			switch verb {
			case "confirm", "cancel", "flag-error":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Bookings.Decide(w, r, booking.Action(verb))
			case "calendar-event":
				if r.Method != http.MethodDelete {
					methodNotAllowed(w, http.MethodDelete)
					return
				}
				cfg.Bookings.RemoveCalendarEvent(w, r)
			default:
				http.NotFound(w, r)
			}
		}))
	}

	return chain(mux, cfg.Middleware)
}

func chain(handler http.Handler, middleware []func(http.Handler) http.Handler) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		if middleware[i] != nil {
			handler = middleware[i](handler)
		}
	}
	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
