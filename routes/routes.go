package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ligahub/match-engine/handlers"
	"github.com/ligahub/match-engine/middleware"
)

// SetupRoutes wires every engine endpoint onto the router. Read endpoints are
// public; every mutating endpoint requires a valid token.
func SetupRoutes(
	router *chi.Mux,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
	jwtSecret string,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Route("/tournaments/{tournamentID}", func(r chi.Router) {
		r.Get("/overview", tournamentHandler.GetOverviewHandler)
		r.Get("/matches", tournamentHandler.ListMatchesHandler)
		r.Get("/standings", tournamentHandler.ListStandingsHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/schedule", tournamentHandler.GenerateScheduleHandler)
			r.Post("/third-place", tournamentHandler.GenerateThirdPlaceHandler)
			r.Post("/finalize", tournamentHandler.FinalizeHandler)
		})
	})

	router.Route("/matches/{matchID}", func(r chi.Router) {
		r.Get("/events", matchHandler.ListEventsHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/events", matchHandler.RecordEventHandler)
			r.Delete("/events/last", matchHandler.RollbackLastEventHandler)
			r.Patch("/", matchHandler.UpdateMatchHandler)
			r.Post("/reset", matchHandler.ResetMatchHandler)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
