package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/quadra-gg/quadra/handlers"
	"github.com/quadra-gg/quadra/middleware"
	"github.com/quadra-gg/quadra/models"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Team         *handlers.TeamHandler
	Tournament   *handlers.TournamentHandler
	Match        *handlers.MatchHandler
	Live         *handlers.LiveHandler
	Result       *handlers.ResultHandler
	Dispute      *handlers.DisputeHandler
	Notification *handlers.NotificationHandler
	WebSocket    *handlers.WebSocketHandler
}

func SetupRoutes(router *chi.Mux, h Handlers, auth *middleware.Auth, allowedOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler())

	// Публичные маршруты
	router.Post("/auth/register", h.Auth.Register)
	router.Post("/auth/login", h.Auth.Login)

	router.Get("/tournaments", h.Tournament.List)
	router.Get("/tournaments/{id}", h.Tournament.GetByID)
	router.Get("/tournaments/{id}/matches", h.Match.ListByTournament)
	router.Get("/tournaments/{id}/registrations", h.Tournament.ListRegistrations)
	router.Get("/teams/{id}", h.Team.GetByID)

	// Live-состояния матчей читаются без авторизации — это зрительский API.
	router.Get("/live/active", h.Live.ListActive)
	router.Get("/live/{matchID}/state", h.Live.GetState)

	// WebSocket аутентифицируется токеном в query, не Bearer-заголовком.
	router.Get("/ws", h.WebSocket.ServeWs)

	// Маршруты для авторизованных пользователей
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Post("/teams", h.Team.Create)

		r.Get("/matches/{id}", h.Match.GetByID)

		r.Post("/tournaments/register", h.Tournament.Register)

		r.Post("/results/submit", h.Result.Submit)
		r.Get("/matches/{matchID}/results", h.Result.ListByMatch)
		r.Post("/results/screenshot", h.Result.UploadScreenshot)
		r.Post("/results/{id}/dispute", h.Result.FileDispute)

		r.Get("/notifications", h.Notification.List)
		r.Patch("/notifications/{id}/read", h.Notification.MarkRead)
	})

	// Админские маршруты
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(middleware.RequireRole(models.RoleAdmin))

		r.Post("/tournaments", h.Tournament.Create)
		r.Put("/tournaments/{id}", h.Tournament.Update)
		r.Delete("/tournaments/{id}", h.Tournament.Delete)
		r.Post("/tournaments/registrations/{registrationID}/verify", h.Tournament.VerifyRegistration)

		r.Post("/matches", h.Match.Create)
		r.Patch("/matches/{id}/status", h.Match.UpdateStatus)

		r.Post("/live/{matchID}/update", h.Live.PushEvent)

		r.Patch("/results/verify/{id}", h.Result.Verify)
		r.Post("/results/bulk", h.Result.BulkSubmit)

		r.Get("/disputes", h.Dispute.ListOpen)
		r.Post("/disputes/{id}/resolve", h.Dispute.Resolve)
	})
}
