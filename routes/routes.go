package routes

import (
	"github.com/crichub/cricket-auction/handlers"
	"github.com/crichub/cricket-auction/middleware"
	"github.com/crichub/cricket-auction/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes mounts every HTTP endpoint on the router. Admin-only groups
// cover tournament administration and the auction control surface; owners
// place bids; reads and the live stream are public.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	teamOwnerHandler *handlers.TeamOwnerHandler,
	playerHandler *handlers.PlayerHandler,
	roundHandler *handlers.RoundHandler,
	auctionHandler *handlers.AuctionHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Post("/auth/signup", authHandler.SignUpHandler)
	router.Post("/auth/signin", authHandler.SignInHandler)

	router.Get("/players", playerHandler.ListPermanentHandler)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.ListHandler)
		r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)
		r.Get("/{tournamentID}/owners", teamOwnerHandler.ListHandler)
		r.Get("/{tournamentID}/players", playerHandler.ListHandler)
		r.Get("/{tournamentID}/players/{playerID}", playerHandler.GetByIDHandler)
		r.Get("/{tournamentID}/players/{playerID}/bids/leading", auctionHandler.GetLeadingBidHandler)
		r.Get("/{tournamentID}/rounds", roundHandler.ListHandler)
		r.Get("/{tournamentID}/auction/current", auctionHandler.GetCurrentAuctionHandler)

		// Open registration endpoints for players joining the auction pool.
		r.Post("/{tournamentID}/players", playerHandler.RegisterHandler)

		// Authenticated team owners
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.RequireRole(models.RoleOwner, models.RoleAdmin))

			r.Post("/{tournamentID}/owners", teamOwnerHandler.RegisterHandler)
			r.Post("/{tournamentID}/players/{playerID}/bids", auctionHandler.PlaceBidHandler)
		})

		// Tournament administration
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.RequireRole(models.RoleAdmin))

			r.Post("/", tournamentHandler.CreateHandler)
			r.Patch("/{tournamentID}/status", tournamentHandler.UpdateStatusHandler)

			r.Post("/{tournamentID}/owners/{ownerID}/approve", teamOwnerHandler.ApproveHandler)

			r.Post("/{tournamentID}/rounds", roundHandler.CreateHandler)
			r.Post("/{tournamentID}/rounds/{roundID}/start", roundHandler.StartHandler)
			r.Post("/{tournamentID}/rounds/{roundID}/end", roundHandler.EndHandler)
			r.Put("/{tournamentID}/rounds/{roundID}/current-player", roundHandler.SetCurrentPlayerHandler)

			r.Post("/{tournamentID}/players/{playerID}/resolve", auctionHandler.ResolvePlayerHandler)
			r.Post("/{tournamentID}/players/{playerID}/approve", auctionHandler.ApprovePlayerHandler)
			r.Get("/{tournamentID}/auction/conservation", auctionHandler.ConservationHandler)
			r.Post("/{tournamentID}/migrate", auctionHandler.MigrateHandler)
		})
	})

	router.Get("/owners/{ownerID}", teamOwnerHandler.GetByIDHandler)

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
