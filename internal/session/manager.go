package session

import (
	"context"
	"sync"
	"time"

	"address_search_backend/internal/events"
	"address_search_backend/internal/geocode"
	"address_search_backend/internal/places"
	"address_search_backend/platform/apperr"
	"address_search_backend/platform/config"
	"address_search_backend/platform/logger"

	"github.com/google/uuid"
)

// Session is one live search session.
type Session struct {
	ID         string
	Controller *Controller
	CreatedAt  time.Time
}

type ManagerOptions struct {
	// IdleTTL evicts sessions without input or selection for this long.
	// Zero disables eviction.
	IdleTTL time.Duration
	// MaxSessions bounds the number of live sessions. Zero means unbounded.
	MaxSessions int
	Controller  Options
}

// ManagerOptionsFromConfig combines the session and search settings.
func ManagerOptionsFromConfig(sessions config.SessionConfig, search config.SearchConfig) ManagerOptions {
	return ManagerOptions{
		IdleTTL:     sessions.GetSessionIdleTTL(),
		MaxSessions: sessions.GetSessionMax(),
		Controller:  OptionsFromConfig(search),
	}
}

// Manager owns the live sessions of a process. Each session publishes its
// selections on the bus, tagged with the session id.
type Manager struct {
	provider places.Provider
	resolver geocode.Resolver
	bus      events.Bus
	log      *logger.Logger
	opts     ManagerOptions
	clock    Clock

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(provider places.Provider, resolver geocode.Resolver, bus events.Bus, log *logger.Logger, opts ManagerOptions) *Manager {
	if log == nil {
		log = logger.Discard()
	}
	opts.Controller = opts.Controller.withDefaults()
	return &Manager{
		provider: provider,
		resolver: resolver,
		bus:      bus,
		log:      log,
		opts:     opts,
		clock:    opts.Controller.Clock,
		sessions: make(map[string]*Session),
	}
}

// Create starts a session whose query is pre-populated with defaultValue.
func (m *Manager) Create(defaultValue string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.opts.MaxSessions > 0 && len(m.sessions) >= m.opts.MaxSessions {
		return nil, apperr.Conflict("too many active search sessions").WithOp("session.Create")
	}

	id := uuid.New().String()

	var listener Listener
	if m.bus != nil {
		listener = NewBusListener(m.bus, id)
	}

	opts := m.opts.Controller
	opts.DefaultQuery = defaultValue

	s := &Session{
		ID:         id,
		Controller: NewController(m.provider, m.resolver, listener, m.log.WithSessionID(id), opts),
		CreatedAt:  m.clock.Now(),
	}
	m.sessions[id] = s

	m.log.Debug("search session created", "session_id", id)
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, apperr.Wrap(apperr.KindNotFound, "search session not found", ErrSessionClosed).WithOp("session.Get")
	}
	return s, nil
}

// Delete closes and forgets the session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return apperr.Wrap(apperr.KindNotFound, "search session not found", ErrSessionClosed).WithOp("session.Delete")
	}
	s.Controller.Close()
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Run evicts idle sessions until ctx is done, then closes every session.
func (m *Manager) Run(ctx context.Context) error {
	defer m.CloseAll()

	if m.opts.IdleTTL <= 0 {
		<-ctx.Done()
		return nil
	}

	interval := m.opts.IdleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.evictIdle(); n > 0 {
				m.log.Info("evicted idle search sessions", "count", n)
			}
		}
	}
}

func (m *Manager) evictIdle() int {
	cutoff := m.clock.Now().Add(-m.opts.IdleTTL)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.Controller.LastActivity().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.Controller.Close()
	}
	return len(idle)
}

// CloseAll closes and forgets every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.Controller.Close()
	}
}
