package session

import (
	"context"

	"address_search_backend/internal/events"
)

// Listener receives committed selections. It is called from the
// controller's goroutines and must not call back into the same controller
// before returning.
type Listener interface {
	OnSelectAddress(sel Selection)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(sel Selection)

func (f ListenerFunc) OnSelectAddress(sel Selection) { f(sel) }

// FailureListener is optionally implemented by a Listener. It is only used
// when the controller runs with FailurePolicySurface.
type FailureListener interface {
	OnResolveFailed(address string, err error)
}

// BusListener publishes selections as domain events tagged with a session id.
// Events are delivered synchronously: the controller serialises its
// emissions, and handlers must see them in that order.
type BusListener struct {
	bus       events.Bus
	sessionID string
}

var (
	_ Listener        = (*BusListener)(nil)
	_ FailureListener = (*BusListener)(nil)
)

func NewBusListener(bus events.Bus, sessionID string) *BusListener {
	return &BusListener{bus: bus, sessionID: sessionID}
}

func (l *BusListener) OnSelectAddress(sel Selection) {
	// handler errors are logged by the bus
	_ = l.bus.PublishSync(context.Background(), events.AddressSelected{
		BaseEvent: events.NewBaseEvent(),
		SessionID: l.sessionID,
		Address:   sel.Address,
		Latitude:  sel.Latitude,
		Longitude: sel.Longitude,
	})
}

func (l *BusListener) OnResolveFailed(address string, err error) {
	_ = l.bus.PublishSync(context.Background(), events.AddressResolveFailed{
		BaseEvent: events.NewBaseEvent(),
		SessionID: l.sessionID,
		Address:   address,
		Reason:    err.Error(),
	})
}

type noopListener struct{}

func (noopListener) OnSelectAddress(Selection) {}
