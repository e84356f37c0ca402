package selection

import (
	"context"
	"fmt"

	"address_search_backend/internal/events"
	"address_search_backend/platform/logger"
)

// RegisterHandlers stores every AddressSelected published on bus. The
// cleared selection is stored too: it is what the host last received.
func RegisterHandlers(bus events.Bus, store Store, log *logger.Logger) {
	bus.Subscribe(events.AddressSelectedEvent, events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		evt, ok := e.(events.AddressSelected)
		if !ok {
			return fmt.Errorf("unexpected event type %T", e)
		}

		rec := Record{
			SessionID:  evt.SessionID,
			Address:    evt.Address,
			Latitude:   evt.Latitude,
			Longitude:  evt.Longitude,
			SelectedAt: evt.OccurredAt(),
		}
		if err := store.Save(ctx, rec); err != nil {
			return err
		}

		log.Debug("selection stored", "session_id", evt.SessionID, "cleared", evt.Cleared())
		return nil
	}))
}
