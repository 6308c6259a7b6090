package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"studylog-backend/internal/handlers"
	"studylog-backend/internal/middleware"
)

func New(
	jwtAuth *middleware.JWTAuth,
	sessionHandler *handlers.SessionHandler,
	statsHandler *handlers.StatsHandler,
	goalHandler *handlers.GoalHandler,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Session mutation rate limiter (60 req/min per IP)
	sessionLimiter := middleware.NewRateLimiter(60, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Study Session Routes ────
		r.Route("/study-sessions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/active", sessionHandler.Active)

			r.Group(func(r chi.Router) {
				r.Use(sessionLimiter.Middleware)
				r.Post("/start", sessionHandler.Start)
				r.Post("/{id}/end", sessionHandler.End)
				r.Post("/{id}/activities", sessionHandler.AppendActivity)
			})
		})

		// ──── Stats Routes ────
		r.Route("/stats", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/summary", statsHandler.Summary)
			r.Get("/daily", statsHandler.Daily)
			r.Get("/streak", statsHandler.Streak)
		})

		// ──── Goal Routes ────
		r.Route("/goals", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/weekly", goalHandler.Get)
			r.Put("/weekly", goalHandler.Set)
			r.Get("/weekly/progress", goalHandler.Progress)
		})
	})

	return r
}
