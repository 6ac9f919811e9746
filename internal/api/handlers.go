package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/starford/navkit/internal/apperr"
	"github.com/starford/navkit/internal/navservice"
	"github.com/starford/navkit/internal/strategy"
)

const maxBody = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *navservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *navservice.Service) *Handler {
	return &Handler{svc: svc}
}

// decode reads an optional JSON body into v. An empty body leaves v as is.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON"))
		return false
	}
	return true
}

// BackResponse describes the effect of a back or dismiss operation.
type BackResponse struct {
	Action         string `json:"action"`
	Tab            string `json:"tab,omitempty"`
	Route          string `json:"route,omitempty"`
	NavigationType string `json:"navigationType,omitempty"`
}

func backResponse(res strategy.BackResult) BackResponse {
	out := BackResponse{Action: res.Action.String(), Tab: res.Tab, Route: res.Route}
	if res.NavigationType.Valid() {
		out.NavigationType = res.NavigationType.String()
	}
	return out
}

// GetState handles GET /api/state.
//
//	@Summary		Current navigation state and strategy configuration
//	@Tags			state
//	@Produce		json
//	@Success		200		{object}	navservice.Snapshot
//	@Security		BearerAuth
//	@Router			/state [get]
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(r.Context())
	if err != nil {
		writeError(w, "get state", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ListRoutes handles GET /api/routes.
//
//	@Summary		List registered routes
//	@Tags			routes
//	@Produce		json
//	@Success		200		{object}	map[string][]navservice.RouteInfo
//	@Security		BearerAuth
//	@Router			/routes [get]
func (h *Handler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := h.svc.Routes(r.Context())
	if err != nil {
		writeError(w, "list routes", err)
		return
	}
	if routes == nil {
		routes = []navservice.RouteInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"routes": routes,
		"total":  len(routes),
	})
}

// Navigate handles POST /api/navigate.
//
//	@Summary		Navigate to a registered route
//	@Tags			navigation
//	@Accept			json
//	@Produce		json
//	@Param			body	body		navservice.NavigateRequest	true	"Navigation request"
//	@Success		200		{object}	navservice.Snapshot
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/navigate [post]
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req navservice.NavigateRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Route == "" {
		writeError(w, "navigate", apperr.InvalidRouteKey(""))
		return
	}
	if err := h.svc.Navigate(r.Context(), req); err != nil {
		writeError(w, "navigate", err)
		return
	}
	h.GetState(w, r)
}

// NavigateURL handles POST /api/navigate/url.
//
//	@Summary		Navigate by deep link (scheme://route?query)
//	@Tags			navigation
//	@Accept			json
//	@Produce		json
//	@Success		200		{object}	navservice.NavigateRequest
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/navigate/url [post]
func (h *Handler) NavigateURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("url is required"))
		return
	}
	nav, err := h.svc.NavigateURL(r.Context(), req.URL)
	if err != nil {
		writeError(w, "navigate url", err)
		return
	}
	writeJSON(w, http.StatusOK, nav)
}

// Back handles POST /api/back.
//
//	@Summary		Dismiss the top presentation or pop the current tab
//	@Tags			navigation
//	@Produce		json
//	@Success		200		{object}	BackResponse
//	@Security		BearerAuth
//	@Router			/back [post]
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Back(r.Context())
	if err != nil {
		writeError(w, "back", err)
		return
	}
	writeJSON(w, http.StatusOK, backResponse(res))
}

// ForceBack handles POST /api/back/force.
//
//	@Summary		Pop one stack level regardless of open presentations
//	@Tags			navigation
//	@Produce		json
//	@Success		200		{object}	BackResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/back/force [post]
func (h *Handler) ForceBack(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ForceBack(r.Context())
	if err != nil {
		writeError(w, "force back", err)
		return
	}
	writeJSON(w, http.StatusOK, backResponse(res))
}

type tabRequest struct {
	Tab string `json:"tab"`
}

// Root handles POST /api/root.
//
//	@Summary		Return a tab (or every tab) to its root
//	@Tags			navigation
//	@Accept			json
//	@Produce		json
//	@Success		200		{object}	navservice.Snapshot
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/root [post]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	var req tabRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.Root(r.Context(), req.Tab); err != nil {
		writeError(w, "root", err)
		return
	}
	h.GetState(w, r)
}

// SetTab handles POST /api/tab.
//
//	@Summary		Switch the current tab
//	@Tags			navigation
//	@Accept			json
//	@Produce		json
//	@Success		200		{object}	navservice.Snapshot
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tab [post]
func (h *Handler) SetTab(w http.ResponseWriter, r *http.Request) {
	var req tabRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Tab == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("tab is required"))
		return
	}
	if err := h.svc.SetTab(r.Context(), req.Tab); err != nil {
		writeError(w, "set tab", err)
		return
	}
	h.GetState(w, r)
}

// Dismiss handles POST /api/modals/dismiss.
//
//	@Summary		Dismiss the top, a named, or every presentation
//	@Tags			navigation
//	@Accept			json
//	@Produce		json
//	@Success		200		{object}	map[string]int
//	@Security		BearerAuth
//	@Router			/modals/dismiss [post]
func (h *Handler) Dismiss(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
		All bool   `json:"all"`
	}
	if !decode(w, r, &req) {
		return
	}
	n, err := h.svc.Dismiss(r.Context(), req.Key, req.All)
	if err != nil {
		writeError(w, "dismiss", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"dismissed": n})
}

// SaveState handles POST /api/state/save.
//
//	@Summary		Persist the navigation state
//	@Tags			state
//	@Success		204
//	@Failure		500		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/state/save [post]
func (h *Handler) SaveState(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Save(r.Context()); err != nil {
		writeError(w, "save state", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RestoreState handles POST /api/state/restore.
//
//	@Summary		Restore the persisted navigation state
//	@Tags			state
//	@Produce		json
//	@Success		200		{object}	map[string]bool
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/state/restore [post]
func (h *Handler) RestoreState(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.Restore(r.Context())
	if err != nil {
		writeError(w, "restore state", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"restored": ok})
}

// ClearState handles DELETE /api/state.
//
//	@Summary		Delete the persisted navigation state
//	@Tags			state
//	@Success		204
//	@Security		BearerAuth
//	@Router			/state [delete]
func (h *Handler) ClearState(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearPersisted(r.Context()); err != nil {
		writeError(w, "clear state", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
