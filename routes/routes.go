package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Dosada05/swiss-rounds/handlers"
	"github.com/Dosada05/swiss-rounds/middleware"
)

// SetupRoutes wires the operational surface: health, websocket subscriptions
// for game-started announcements, and the admin round-advance trigger.
func SetupRoutes(
	router *chi.Mux,
	roundHandler *handlers.RoundHandler,
	wsHandler *handlers.WebSocketHandler,
	jwtSecret string,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/healthz", handlers.Healthz)
	router.Get("/ws/tournaments/{tournamentID}", wsHandler.ServeWs)

	router.Route("/tournaments", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(jwtSecret))
			r.Post("/{tournamentID}/rounds/start", roundHandler.StartRound)
		})
	})
}
