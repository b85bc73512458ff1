/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/projection etc.  Stateless computations on a posted snapshot
  /api/households/*     Stored households and their computations
  /api/income/*         Income processing runs
  /api/providers        BNPL provider rules
  /api/scenarios/*      Demo scenarios
  /                     Endpoint index

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Stateless computation
		r.Post("/projection", h.Projection)
		r.Post("/safe-to-spend", h.SafeToSpend)
		r.Post("/strategies", h.Strategies)
		r.Post("/upcoming", h.Upcoming)

		// Household routes
		r.Route("/households", func(r chi.Router) {
			r.Get("/", h.ListHouseholds)
			r.Get("/{id}", h.GetHousehold)
			r.Put("/{id}", h.PutHousehold)
			r.Delete("/{id}", h.DeleteHousehold)
			r.Get("/{id}/projection", h.HouseholdProjection)
			r.Get("/{id}/safe-to-spend", h.HouseholdSafeToSpend)
			r.Get("/{id}/upcoming", h.HouseholdUpcoming)
			r.Post("/{id}/strategies", h.HouseholdStrategies)
			r.Post("/{id}/process-income", h.ProcessIncome)
			r.Get("/{id}/receipts", h.HouseholdReceipts)
		})

		// Income routes
		r.Route("/income", func(r chi.Router) {
			r.Get("/runs", h.ListIncomeRuns)
			r.Post("/process", h.TriggerIncomeRun)
		})

		r.Get("/providers", h.ListProviders)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Cashflow Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Cashflow Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/households">/api/households</a> - List households</li>
<li><a href="/api/providers">/api/providers</a> - BNPL provider rules</li>
<li><a href="/api/scenarios">/api/scenarios</a> - List demo scenarios</li>
<li><a href="/api/income/runs">/api/income/runs</a> - Income processing runs</li>
</ul>
<p>POST a snapshot to /api/projection, /api/safe-to-spend or /api/upcoming,
or {"snapshot": ..., "price": 40000} to /api/strategies.</p>
</body>
</html>`))
	})

	return r
}
