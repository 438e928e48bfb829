package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/itamhack/hackathon-system/handlers"
	"github.com/itamhack/hackathon-system/middleware"
	"github.com/itamhack/hackathon-system/services"
)

// SetupRoutes mounts the full HTTP surface on the router. Read endpoints are
// public; anything that changes state requires a participant session, and the
// hackathon administration endpoints require an admin session.
func SetupRoutes(
	router *chi.Mux,
	auth services.AuthService,
	authHandler *handlers.AuthHandler,
	adminHandler *handlers.AdminHandler,
	profileHandler *handlers.ProfileHandler,
	hackathonHandler *handlers.HackathonHandler,
	teamHandler *handlers.TeamHandler,
	invitationHandler *handlers.InvitationHandler,
	webSocketHandler *handlers.WebSocketHandler,
	allowedOrigins []string,
	botAPIKey string,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(auth)
	authenticateAdmin := middleware.AuthenticateAdmin(auth)

	router.Route("/auth", func(r chi.Router) {
		// Code issuance is bot-to-backend only: a login code is a session
		// grant for the named identity.
		r.With(middleware.AuthenticateBot(botAPIKey)).Post("/code", authHandler.IssueLoginCode)
		r.Post("/login", authHandler.LoginByCode)
		r.Post("/logout", authHandler.Logout)
	})

	router.Route("/admin", func(r chi.Router) {
		r.Post("/login", adminHandler.Login)
		r.Post("/logout", adminHandler.Logout)
	})

	router.Route("/users", func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/", profileHandler.ListParticipants)
		r.Get("/me", profileHandler.Me)
		r.Get("/{telegramID}", profileHandler.GetProfile)
		r.Put("/{telegramID}", profileHandler.UpdateProfile)
		r.Post("/{telegramID}/avatar", profileHandler.UploadAvatar)
	})

	router.Route("/hackathons", func(r chi.Router) {
		r.Get("/", hackathonHandler.ListHackathons)
		r.Get("/{hackathonID}", hackathonHandler.GetHackathon)
		r.Get("/{hackathonID}/teams", teamHandler.ListTeamsByHackathon)

		r.Group(func(r chi.Router) {
			r.Use(authenticateAdmin)

			r.Post("/", hackathonHandler.CreateHackathon)
			r.Put("/{hackathonID}", hackathonHandler.UpdateHackathon)
			r.Delete("/{hackathonID}", hackathonHandler.DeleteHackathon)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/{hackathonID}/invitations", invitationHandler.ListPending)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/", teamHandler.ListTeams)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", teamHandler.CreateTeam)
			r.Get("/{teamID}", teamHandler.GetTeam)
			r.Put("/{teamID}", teamHandler.UpdateTeam)
			r.Delete("/{teamID}", teamHandler.DeleteTeam)
			r.Post("/{teamID}/join", teamHandler.JoinByPassword)
			r.Post("/{teamID}/leave", teamHandler.LeaveTeam)
			r.Post("/{teamID}/remove", teamHandler.RemoveParticipant)

			r.Post("/{teamID}/invitations", invitationHandler.InviteParticipant)
			r.Post("/{teamID}/requests", invitationHandler.RequestToJoin)
			r.Get("/{teamID}/invitations", invitationHandler.ListForTeam)
		})
	})

	router.Route("/invitations", func(r chi.Router) {
		r.Use(authenticate)

		r.Post("/{invitationID}/accept", invitationHandler.AcceptInvitation)
		r.Post("/{invitationID}/approve", invitationHandler.ApproveRequest)
		r.Post("/{invitationID}/decline", invitationHandler.DeclineInvitation)
	})

	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/ws/notifications", webSocketHandler.ServeWs)
	})
}
