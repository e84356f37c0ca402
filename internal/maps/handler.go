package maps

import (
	"net/http"

	"address_search_backend/internal/places"
	"address_search_backend/internal/selection"
	"address_search_backend/internal/session"
	"address_search_backend/platform/apperr"
	"address_search_backend/platform/httpkit"
	"address_search_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler exposes the lookup endpoints and the search session endpoints.
type Handler struct {
	svc      *Service
	sessions *session.Manager
	store    selection.Store
	hub      *liveHub
	val      *validator.Validator
}

func NewHandler(svc *Service, sessions *session.Manager, store selection.Store, hub *liveHub, val *validator.Validator) *Handler {
	return &Handler{svc: svc, sessions: sessions, store: store, hub: hub, val: val}
}

// LookupAddress handles GET /api/v1/maps/address-lookup?q=...
func (h *Handler) LookupAddress(c *gin.Context) {
	var req LookupRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "query 'q' is required (min 3 chars)", nil)
		return
	}

	results, err := h.svc.SearchAddress(c.Request.Context(), req.Query)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, results)
}

// Geocode handles GET /api/v1/maps/geocode?address=...
func (h *Handler) Geocode(c *gin.Context) {
	var req GeocodeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "query 'address' is required", nil)
		return
	}

	result, err := h.svc.Geocode(c.Request.Context(), req.Address)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// CreateSession handles POST /api/v1/maps/sessions
func (h *Handler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	s, err := h.sessions.Create(req.DefaultValue)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, SessionResponse{ID: s.ID, Snapshot: s.Controller.Snapshot()})
}

// GetSession handles GET /api/v1/maps/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	httpkit.OK(c, SessionResponse{ID: s.ID, Snapshot: s.Controller.Snapshot()})
}

// UpdateInput handles PUT /api/v1/maps/sessions/:id/input
func (h *Handler) UpdateInput(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req InputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "field 'text' is required", nil)
		return
	}

	s.Controller.OnInputChanged(*req.Text)
	httpkit.OK(c, SessionResponse{ID: s.ID, Snapshot: s.Controller.Snapshot()})
}

// SelectSuggestion handles POST /api/v1/maps/sessions/:id/select. The
// geocode runs in the background; the response only acknowledges it.
func (h *Handler) SelectSuggestion(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindValidation, "field 'address' is required", err))
		return
	}

	s.Controller.OnSuggestionSelected(req.Address)
	c.JSON(http.StatusAccepted, SessionResponse{ID: s.ID, Snapshot: s.Controller.Snapshot()})
}

// GetSuggestions handles GET /api/v1/maps/sessions/:id/suggestions
func (h *Handler) GetSuggestions(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	state := s.Controller.CurrentSuggestions()
	resp := SuggestionsResponse{Status: state.Status, Suggestions: state.Suggestions}
	if resp.Suggestions == nil {
		resp.Suggestions = []places.Suggestion{}
	}
	if state.Err != nil {
		resp.Error = state.Err.Error()
	}
	httpkit.OK(c, resp)
}

// GetSelection handles GET /api/v1/maps/sessions/:id/selection. It reads the
// host-side store, so it keeps answering after the session was evicted.
func (h *Handler) GetSelection(c *gin.Context) {
	rec, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, rec)
}

// DeleteSession handles DELETE /api/v1/maps/sessions/:id
func (h *Handler) DeleteSession(c *gin.Context) {
	if httpkit.HandleError(c, h.sessions.Delete(c.Param("id"))) {
		return
	}
	httpkit.NoContent(c)
}

func (h *Handler) session(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.Param("id"))
	if httpkit.HandleError(c, err) {
		return nil, false
	}
	return s, true
}
