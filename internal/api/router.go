package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mvaldes/quadrant-governance/internal/api/handlers"
	"github.com/mvaldes/quadrant-governance/internal/api/middleware"
	"github.com/mvaldes/quadrant-governance/internal/config"
	"github.com/mvaldes/quadrant-governance/internal/service"
	"github.com/mvaldes/quadrant-governance/internal/websocket"
)

func NewRouter(services *service.Services, hub *websocket.Hub, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	verifier := middleware.NewTokenVerifier(cfg.JWTSecret)

	teamHandler := handlers.NewTeamHandler(services.Membership)
	treasuryHandler := handlers.NewTreasuryHandler(services.Treasury)
	territoryHandler := handlers.NewTerritoryHandler(services.Territory)
	warHandler := handlers.NewWarHandler(services.War)
	allianceHandler := handlers.NewAllianceHandler(services.Alliance)
	eventHandler := handlers.NewEventHandler(services)
	wsHandler := handlers.NewWebSocketHandler(hub, verifier)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(verifier))

			// Team routes
			r.Route("/teams", func(r chi.Router) {
				r.Post("/", teamHandler.Create)
				r.Get("/{id}", teamHandler.Get)
				r.Get("/{id}/roster", teamHandler.Roster)
				r.Post("/{id}/invites", teamHandler.Invite)
				r.Post("/{id}/kick", teamHandler.Kick)
				r.Post("/{id}/promote", teamHandler.Promote)
				r.Post("/{id}/demote", teamHandler.Demote)
				r.Post("/{id}/transfer-leadership", teamHandler.TransferLeadership)
				r.Post("/{id}/leave", teamHandler.Leave)
				r.Delete("/{id}", teamHandler.Disband)

				// Treasury routes
				r.Get("/{id}/treasury", treasuryHandler.Balance)
				r.Get("/{id}/treasury/ledger", treasuryHandler.Ledger)
				r.Post("/{id}/treasury/deposit", treasuryHandler.Deposit)
				r.Post("/{id}/treasury/withdraw", treasuryHandler.Withdraw)
				r.Put("/{id}/treasury/tax-rate", treasuryHandler.SetTaxRate)

				r.Get("/{teamId}/alliances", allianceHandler.ListForTeam)
			})

			r.Post("/invites/accept", teamHandler.AcceptInvite)
			r.Get("/me/team", teamHandler.MyTeam)

			// Territory routes
			r.Route("/sectors", func(r chi.Router) {
				r.Get("/{id}", territoryHandler.GetSector)
			})
			r.Get("/territory/ownership", territoryHandler.OwnershipMap)

			// War routes
			r.Route("/wars", func(r chi.Router) {
				r.Post("/", warHandler.Declare)
				r.Get("/", warHandler.ListActive)
				r.Get("/{id}", warHandler.Get)
			})

			// Alliance routes
			r.Route("/alliances", func(r chi.Router) {
				r.Post("/", allianceHandler.Propose)
				r.Get("/{id}", allianceHandler.Get)
				r.Post("/{id}/respond", allianceHandler.Respond)
				r.Post("/{id}/pact-proposals", allianceHandler.ProposePact)
			})
			r.Post("/pact-proposals/{proposalId}/votes", allianceHandler.Vote)

			// Gameplay event ingest (trusted game servers)
			r.Route("/events", func(r chi.Router) {
				r.Post("/trade-completed", eventHandler.TradeCompleted)
				r.Post("/mission-completed", eventHandler.MissionCompleted)
				r.Post("/battle-resolved", eventHandler.BattleResolved)
				r.Post("/sector-activity", eventHandler.SectorActivity)
			})
		})

		// WebSocket endpoint
		r.Get("/ws", wsHandler.Handle)
	})

	return r
}
