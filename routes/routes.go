package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/padelpoint/tournament-engine/handlers"
	"github.com/padelpoint/tournament-engine/middleware"
)

// SetupRoutes wires the admin HTTP surface. Reads are public; every mutating
// route sits behind the admin token.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	recurringHandler *handlers.RecurringHandler,
	adminHandler *handlers.AdminHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate([]byte(jwtSecret))

	router.Post("/auth/token", authHandler.Token)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.List)
		r.Get("/{tournamentID}", tournamentHandler.Get)
		r.Get("/{tournamentID}/bracket", tournamentHandler.View)
		r.Get("/categories/{categoryID}/standings", tournamentHandler.Standings)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", tournamentHandler.Create)
			r.Post("/{tournamentID}/open-registration", tournamentHandler.OpenRegistration)
			r.Post("/{tournamentID}/teams", tournamentHandler.RegisterTeam)
			r.Delete("/teams/{registrationID}", tournamentHandler.WithdrawTeam)
			r.Post("/{tournamentID}/bracket", tournamentHandler.GenerateBracket)
			r.Post("/{tournamentID}/schedule", tournamentHandler.GenerateSchedule)
			r.Post("/{tournamentID}/cancel", adminHandler.CancelTournament)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/{matchID}/start", matchHandler.Start)
		r.Post("/{matchID}/result", matchHandler.SubmitResult)
		r.Post("/{matchID}/walkover", matchHandler.Walkover)
		r.Post("/{matchID}/cancel", matchHandler.Cancel)
	})

	router.Route("/recurring-tournaments", func(r chi.Router) {
		r.Get("/{recurringID}", recurringHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", recurringHandler.Create)
			r.Put("/{recurringID}", recurringHandler.Update)
			r.Delete("/{recurringID}", recurringHandler.Deactivate)
		})
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/sweep", adminHandler.RunSweep)
		r.Get("/pending-expiration", adminHandler.ListPendingExpiration)
		r.Post("/recurring-generation", adminHandler.RunRecurringGeneration)
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
