package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"explorers-backend/internal/handlers"
	"explorers-backend/internal/middleware"
	"explorers-backend/internal/websocket"
)

func New(
	sessionAuth *middleware.SessionAuth,
	adminAuth *middleware.AdminAuth,
	sessionHandler *handlers.SessionHandler,
	progressHandler *handlers.ProgressHandler,
	activityHandler *handlers.ActivityHandler,
	adminHandler *handlers.AdminHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Session rate limiter (10 req/min per IP)
	sessionLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Session Routes ────
		r.Route("/session", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(sessionLimiter.Middleware)
				r.Post("/register", sessionHandler.Register)
				r.Post("/login", sessionHandler.Login)
			})

			r.Group(func(r chi.Router) {
				r.Use(sessionAuth.Middleware)
				r.Get("/me", sessionHandler.Me)
			})
		})

		// ──── Progress Routes ────
		r.Route("/progress", func(r chi.Router) {
			r.Use(sessionAuth.Middleware)
			r.Get("/", progressHandler.Get)
			r.Delete("/", progressHandler.Reset)
			r.Post("/lessons/{id}/complete", progressHandler.CompleteLesson)
			r.Post("/activities/{id}/score", progressHandler.RecordScore)
			r.Post("/activities/{id}/reflection", progressHandler.SaveReflection)
			r.Post("/badges/{id}", progressHandler.EarnBadge)
		})

		// ──── Activity Telemetry Routes ────
		r.Route("/activities", func(r chi.Router) {
			r.Use(sessionAuth.Middleware)
			r.Post("/start", activityHandler.Start)
			r.Get("/{id}", activityHandler.Get)
			r.Post("/{id}/interactions", activityHandler.Interact)
			r.Post("/{id}/complete", activityHandler.Complete)
		})

		// ──── Admin Routes ────
		r.Route("/admin", func(r chi.Router) {
			r.Use(adminAuth.Middleware)
			r.Get("/users", adminHandler.ListUsers)
			r.Get("/progress", adminHandler.ListProgress)
			r.Get("/export/csv", adminHandler.ExportCSV)
			r.Get("/certificates/{sessionID}", adminHandler.Certificate)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
