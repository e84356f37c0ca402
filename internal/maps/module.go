package maps

import (
	"address_search_backend/internal/events"
	apphttp "address_search_backend/internal/http"
	"address_search_backend/internal/selection"
	"address_search_backend/internal/session"
	"address_search_backend/platform/logger"
	"address_search_backend/platform/validator"
)

// Module wires the maps lookup and search session HTTP routes.
type Module struct {
	handler *Handler
	log     *logger.Logger
}

func NewModule(svc *Service, sessions *session.Manager, store selection.Store, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	hub := newLiveHub()
	hub.register(bus)

	h := NewHandler(svc, sessions, store, hub, val)
	return &Module{handler: h, log: log}
}

func (m *Module) Name() string {
	return "maps"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/maps")
	group.GET("/address-lookup", m.handler.LookupAddress)
	group.GET("/geocode", m.handler.Geocode)

	sessions := group.Group("/sessions")
	sessions.POST("", m.handler.CreateSession)
	sessions.GET("/:id", m.handler.GetSession)
	sessions.DELETE("/:id", m.handler.DeleteSession)
	sessions.PUT("/:id/input", m.handler.UpdateInput)
	sessions.POST("/:id/select", m.handler.SelectSuggestion)
	sessions.GET("/:id/suggestions", m.handler.GetSuggestions)
	sessions.GET("/:id/selection", m.handler.GetSelection)
	sessions.GET("/:id/ws", m.handler.LiveSession(m.log))
}

var _ apphttp.Module = (*Module)(nil)
