package api

import (
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/go-chi/chi/v5"

	"github.com/agencykit/portal/internal/api/handler"
	"github.com/agencykit/portal/internal/api/middleware"
	"github.com/agencykit/portal/internal/audit"
	"github.com/agencykit/portal/internal/clientcode"
	"github.com/agencykit/portal/internal/identity"
	"github.com/agencykit/portal/internal/join"
	"github.com/agencykit/portal/internal/member"
	"github.com/agencykit/portal/internal/onboarding"
	"github.com/agencykit/portal/internal/project"
	"github.com/agencykit/portal/internal/ticket"
	"github.com/agencykit/portal/internal/token"
	"github.com/agencykit/portal/internal/upload"
	"github.com/agencykit/portal/internal/website"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	DBPinger   handler.DBPinger
	Version    string
	Identities *identity.Service
	Binder     *join.Binder
	Tokens     *token.Manager
	Cookies    handler.CookieWriter
	Codes      *clientcode.Service
	Projects   *project.Service
	Members    member.Repository
	Milestones onboarding.Repository
	Tickets    ticket.Repository
	Uploads    *upload.Service
	Websites   website.Repository
	Auditor    audit.Recorder
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version)
	authHandler := handler.NewAuthHandler(deps.Identities, deps.Binder, deps.Tokens, deps.Cookies)
	joinHandler := handler.NewJoinHandler(deps.Binder, deps.Cookies)
	sessionHandler := handler.NewSessionHandler(deps.Members, deps.Tokens, deps.Cookies)
	codeHandler := handler.NewCodeHandler(deps.Codes, deps.Members)
	projectHandler := handler.NewProjectHandler(deps.Projects, deps.Members)
	onboardingHandler := handler.NewOnboardingHandler(deps.Milestones)
	ticketHandler := handler.NewTicketHandler(deps.Tickets, deps.Members)
	uploadHandler := handler.NewUploadHandler(deps.Uploads)
	websiteHandler := handler.NewWebsiteHandler(deps.Websites, deps.Auditor)
	auditHandler := handler.NewAuditHandler(deps.Auditor)

	// Public surface. Join validation runs before the caller has a session.
	r.Get("/health", healthHandler.ServeHTTP)
	r.Post("/auth/login-link", authHandler.LoginLink)
	r.Get("/auth/callback", authHandler.Callback)
	r.Post("/join/validate", joinHandler.Validate)

	// Everything below requires a session cookie or bearer token.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(deps.Tokens))

		r.Post("/auth/logout", authHandler.Logout)
		r.Post("/bootstrap", projectHandler.Bootstrap)
		r.Put("/session/active-project", sessionHandler.SetActiveProject)
		r.Delete("/session/active-project", sessionHandler.ClearActiveProject)

		r.Post("/projects", projectHandler.Create)
		r.Get("/projects", projectHandler.List)

		r.Route("/projects/{projectID}", func(r chi.Router) {
			r.Use(middleware.RequireProjectMember(deps.Members, deps.Tokens))

			r.Get("/", projectHandler.Get)
			r.Get("/members", projectHandler.Members)

			r.Get("/milestones", onboardingHandler.ListMilestones)
			r.Get("/steps/{step}", onboardingHandler.GetStep)
			r.Put("/steps/{step}", onboardingHandler.SaveStep)

			r.Get("/tickets", ticketHandler.List)
			r.Post("/tickets", ticketHandler.Create)

			r.Get("/uploads", uploadHandler.List)
			r.Post("/uploads", uploadHandler.Request)
			r.Get("/uploads/{fileID}/download", uploadHandler.Download)

			r.Get("/contracts", uploadHandler.ListContracts)
			r.Get("/website-urls", websiteHandler.List)

			// Agency-admin surface: credential management, milestone
			// status, contract uploads, website URLs and the audit trail.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAgencyAdmin())

				r.Get("/codes", codeHandler.List)
				r.Post("/codes", codeHandler.Issue)
				r.Post("/code/rotate", codeHandler.RotateProject)
				r.Put("/milestones/{key}/status", onboardingHandler.SetMilestoneStatus)
				r.Post("/contracts", uploadHandler.RequestContract)
				r.Post("/website-urls", websiteHandler.Create)
				r.Delete("/website-urls/{urlID}", websiteHandler.Delete)
				r.Get("/audit", auditHandler.List)
			})
		})

		// Ticket-id routes resolve the project from the ticket row.
		r.Route("/tickets/{ticketID}", func(r chi.Router) {
			r.Get("/", ticketHandler.Get)
			r.Post("/replies", ticketHandler.AddReply)
			r.Post("/status", ticketHandler.SetStatus)
		})

		// Code-id routes authorize against the code's own project.
		r.Route("/codes/{codeID}", func(r chi.Router) {
			r.Post("/rotate", codeHandler.Rotate)
			r.Post("/activate", codeHandler.Activate)
			r.Post("/deactivate", codeHandler.Deactivate)
			r.Patch("/", codeHandler.Update)
			r.Delete("/", codeHandler.Delete)
		})
	})

	return r
}
