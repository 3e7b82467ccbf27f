/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from proxy headers
  3. Logger:     Structured request logging (logrus)
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the form frontend

ROUTE GROUPS:
  /api/auth/*       Sign-in (public)
  /api/pay/quote    Pay rule evaluation (public)
  /api/me/*         Worker endpoints (worker token)
  /api/admin/*      Office endpoints (admin token)
  /healthz          Liveness

SEE ALSO:
  - handlers.go: Handler implementations
  - auth/middleware.go: Token checks
  - cmd/worklog/serve.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"

	"github.com/warp/worklog/auth"
)

// DefaultOrigins are allowed when no CORS origins are configured.
var DefaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, origins []string) *chi.Mux {
	if len(origins) == 0 {
		origins = DefaultOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/admin", h.AdminLogin)
		})

		r.Post("/pay/quote", h.QuotePay)

		// Worker routes
		r.Route("/me", func(r chi.Router) {
			r.Use(h.Tokens.Middleware)
			r.Use(auth.RequireRole(auth.RoleWorker))
			r.Get("/", h.Me)
			r.Get("/records", h.ListMyRecords)
			r.Post("/records", h.SubmitMyRecords)
			r.Post("/shifts", h.SubmitMyShift)
			r.Get("/earnings", h.ListMyEarnings)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(h.Tokens.Middleware)
			r.Use(auth.RequireRole(auth.RoleAdmin))

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", h.ListEmployees)
				r.Post("/", h.SaveEmployee)
				r.Get("/{name}", h.GetEmployee)
				r.Delete("/{name}", h.DeleteEmployee)
			})

			r.Get("/records", h.ListRecords)

			r.Route("/punchclock", func(r chi.Router) {
				r.Post("/", h.ImportPunchClock)
				r.Get("/weeks", h.ListPunchClockWeeks)
			})

			r.Route("/payroll", func(r chi.Router) {
				r.Get("/", h.ListPayroll)
				r.Post("/", h.BuildPayroll)
				r.Get("/export", h.ExportPayroll)
				r.Get("/runs", h.ListPayrollRuns)
			})

			r.Route("/archive", func(r chi.Router) {
				r.Post("/", h.Archive)
				r.Get("/records", h.ListArchivedRecords)
			})

			r.Route("/scenarios", func(r chi.Router) {
				r.Get("/", h.ListScenarios)
				r.Get("/current", h.GetCurrentScenario)
				r.Post("/load", h.LoadScenario)
			})
		})
	})

	return r
}

// requestLogger logs one line per request with the chi request id.
func requestLogger(logger log.FieldLogger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				fields := log.Fields{
					"method":      r.Method,
					"path":        r.URL.Path,
					"status":      ww.Status(),
					"bytes":       ww.BytesWritten(),
					"duration_ms": time.Since(start).Milliseconds(),
					"remote":      r.RemoteAddr,
					"request_id":  middleware.GetReqID(r.Context()),
				}
				entry := logger.WithFields(fields)
				switch {
				case ww.Status() >= 500:
					entry.Error("request")
				case ww.Status() >= 400:
					entry.Warn("request")
				default:
					entry.Debug("request")
				}
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
