/*
server.go - HTTP router and middleware configuration.

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions: the wiring layer that connects URLs to handlers.

ROUTER: chi — lightweight, context-based, RESTful route patterns.

MIDDLEWARE STACK:
  1. Logger:     request logging
  2. Recoverer:  panic recovery (500 instead of crash)
  3. RequestID:  unique id per request for tracing
  4. CORS:       cross-origin requests for a demo frontend

SECURITY NOTE:
  No authentication middleware. Every endpoint is public; this is a
  domain-library showcase, not a production credit system.
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds a chi.Mux wired to every facility endpoint.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/facilities", func(r chi.Router) {
			r.Get("/", h.ListFacilities)
			r.Post("/", h.CreateFacility)
			r.Get("/{id}", h.GetFacility)
			r.Post("/{id}/approve", h.Approve)
			r.Post("/{id}/deny", h.Deny)
			r.Post("/{id}/disburse", h.Disburse)
			r.Post("/{id}/payments", h.MakePayment)
			r.Post("/{id}/scheduled-payment", h.ProcessScheduledPayment)
			r.Post("/{id}/accrue", h.AccrueInterest)
			r.Post("/{id}/daily-status", h.UpdateDailyStatus)
			r.Post("/{id}/collateral", h.UpdateCollateral)
			r.Post("/{id}/liquidation-proceeds", h.ApplyLiquidationProceeds)
			r.Get("/{id}/events", h.ListEvents)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/advance-time", h.AdvanceTime)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Credit Facility Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Credit Facility Engine</h1>
<p>A domain library for amortizing term loans, revolving credit, open-term
collateralized loans, and overdraft facilities, exposed here over HTTP for
demonstration.</p>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/facilities">/api/facilities</a> - List facilities</li>
<li><a href="/api/scenarios">/api/scenarios</a> - List demo scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}
