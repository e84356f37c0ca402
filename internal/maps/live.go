package maps

import (
	"context"
	"net/http"
	"sync"
	"time"

	"address_search_backend/internal/events"
	"address_search_backend/internal/session"
	"address_search_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	liveWriteWait = 10 * time.Second
	livePongWait  = 60 * time.Second
	livePingEvery = (livePongWait * 9) / 10
)

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// liveHub routes AddressSelected events from the bus to the websocket
// connections of the session they belong to.
type liveHub struct {
	mu    sync.RWMutex
	conns map[string]map[chan liveOutbound]struct{}
}

func newLiveHub() *liveHub {
	return &liveHub{conns: make(map[string]map[chan liveOutbound]struct{})}
}

func (h *liveHub) register(bus events.Bus) {
	bus.Subscribe(events.AddressSelectedEvent, events.HandlerFunc(func(_ context.Context, e events.Event) error {
		evt, ok := e.(events.AddressSelected)
		if !ok {
			return nil
		}
		h.broadcast(evt.SessionID, liveOutbound{
			Type: "selection",
			Selection: &session.Selection{
				Address:   evt.Address,
				Latitude:  evt.Latitude,
				Longitude: evt.Longitude,
			},
		})
		return nil
	}))
	bus.Subscribe(events.AddressResolveFailedEvent, events.HandlerFunc(func(_ context.Context, e events.Event) error {
		evt, ok := e.(events.AddressResolveFailed)
		if !ok {
			return nil
		}
		h.broadcast(evt.SessionID, liveOutbound{Type: "error", Code: "geocode_failed", Message: evt.Reason})
		return nil
	}))
}

func (h *liveHub) add(sessionID string, ch chan liveOutbound) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[sessionID]
	if !ok {
		set = make(map[chan liveOutbound]struct{})
		h.conns[sessionID] = set
	}
	set[ch] = struct{}{}
}

func (h *liveHub) remove(sessionID string, ch chan liveOutbound) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.conns[sessionID]
	delete(set, ch)
	if len(set) == 0 {
		delete(h.conns, sessionID)
	}
}

func (h *liveHub) broadcast(sessionID string, out liveOutbound) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.conns[sessionID] {
		pushLive(ch, out)
	}
}

// pushLive never blocks: when the buffer is full the oldest message is
// dropped to make room.
func pushLive(writeCh chan liveOutbound, out liveOutbound) {
	select {
	case writeCh <- out:
		return
	default:
	}

	select {
	case <-writeCh:
	default:
	}

	select {
	case writeCh <- out:
	default:
	}
}

// LiveSession handles GET /api/v1/maps/sessions/:id/ws. Inbound messages are
// {"type":"input","text":...}, {"type":"select","text":...} and
// {"type":"ping"}. Outbound messages carry snapshots, selections, errors
// and pongs.
func (h *Handler) LiveSession(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := h.session(c)
		if !ok {
			return
		}

		conn, err := liveUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", "session_id", s.ID, "error", err)
			return
		}
		defer func() {
			_ = conn.Close()
		}()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		if err := conn.SetReadDeadline(time.Now().Add(livePongWait)); err != nil {
			return
		}
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(livePongWait))
		})

		writeCh := make(chan liveOutbound, 32)
		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			ticker := time.NewTicker(livePingEvery)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case out := <-writeCh:
					if err := conn.SetWriteDeadline(time.Now().Add(liveWriteWait)); err != nil {
						return
					}
					if err := conn.WriteJSON(out); err != nil {
						return
					}
				case <-ticker.C:
					if err := conn.SetWriteDeadline(time.Now().Add(liveWriteWait)); err != nil {
						return
					}
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						return
					}
				}
			}
		}()

		h.hub.add(s.ID, writeCh)
		defer h.hub.remove(s.ID, writeCh)

		updates, stopWatch := s.Controller.Watch()
		defer stopWatch()
		go func() {
			for snap := range updates {
				pushLive(writeCh, liveOutbound{Type: "snapshot", Snapshot: &snap})
			}
			// session closed or deleted; unblock the read loop
			cancel()
			_ = conn.Close()
		}()

		for {
			var in liveInbound
			if err := conn.ReadJSON(&in); err != nil {
				break
			}

			switch in.Type {
			case "input":
				s.Controller.OnInputChanged(in.Text)
			case "select":
				if in.Text == "" {
					pushLive(writeCh, liveOutbound{Type: "error", Code: "invalid_argument", Message: "select requires text"})
					continue
				}
				s.Controller.OnSuggestionSelected(in.Text)
			case "ping":
				pushLive(writeCh, liveOutbound{Type: "pong"})
			default:
				pushLive(writeCh, liveOutbound{Type: "error", Code: "invalid_argument", Message: "unknown message type"})
			}

			if ctx.Err() != nil {
				break
			}
		}

		cancel()
		<-writerDone
	}
}
