package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/navkit/internal/navservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *navservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Inspection.
	r.Get("/state", h.GetState)
	r.Get("/routes", h.ListRoutes)

	// Navigation.
	r.Post("/navigate", h.Navigate)
	r.Post("/navigate/url", h.NavigateURL)
	r.Post("/back", h.Back)
	r.Post("/back/force", h.ForceBack)
	r.Post("/root", h.Root)
	r.Post("/tab", h.SetTab)
	r.Post("/modals/dismiss", h.Dismiss)

	// Persistence.
	r.Post("/state/save", h.SaveState)
	r.Post("/state/restore", h.RestoreState)
	r.Delete("/state", h.ClearState)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
