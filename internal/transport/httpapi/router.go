package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterOptions struct {
	Limiter  *RateLimiter
	Observer HTTPObserver
	Metrics  http.Handler
}

// NewRouter mounts the JSON API. POST routes that reach collaborators sit
// behind the per-client rate limiter; the processor webhook does not.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestContext)
	r.Use(middleware.Recoverer)
	r.Use(observeRequests(opts.Observer))

	r.Get("/healthz", handleHealthz)
	r.Get("/status", h.handleStatus)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Get("/triage", h.handleTriageList)
	r.Post("/triage", h.handleTriageUpdate)
	r.Post("/payments/webhook", h.handlePaymentWebhook)

	r.Group(func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(opts.Limiter.Handler)
		}
		r.Post("/access/check", h.handleAccessCheck)
		r.Post("/apply", h.handleApply)
		r.Post("/licenses/status", h.handleLicenseStatus)
		r.Post("/payments/cielo", h.handleCreatePayment)
	})
	return r
}
