// Package session implements the address search session: debounced input,
// suggestion fetching with stale-response suppression, selection commit and
// asynchronous geocoding of the committed address.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"address_search_backend/internal/geocode"
	"address_search_backend/internal/places"
	"address_search_backend/platform/logger"

	"golang.org/x/text/unicode/norm"
)

// Controller owns the query, the suggestion state and the commit/resolve
// sequence of one search session. All methods are safe for concurrent use.
//
// Every mutation of the query bumps fetchGen and resolveGen. A fetch or
// resolve result is applied only if the generation it started with is
// still current, so responses to superseded queries are dropped regardless
// of arrival order.
type Controller struct {
	provider places.Provider
	resolver geocode.Resolver
	listener Listener
	log      *logger.Logger
	opts     Options
	clock    Clock

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// emitMu serialises host emissions. It is always taken before mu.
	emitMu sync.Mutex

	mu            sync.Mutex
	query         string
	state         SuggestionState
	fetchGen      uint64
	debounce      Timer
	fetchCancel   context.CancelFunc
	resolveGen    uint64
	resolveCancel context.CancelFunc
	resolving     bool
	resolveErr    error
	lastActivity  time.Time
	closed        bool
	watchers      map[chan Snapshot]struct{}

	// test hooks, called after a result was applied or dropped
	onFetchDone   func(applied bool)
	onResolveDone func(applied bool)
}

// NewController creates a controller in the Idle state. A nil listener
// discards selections.
func NewController(provider places.Provider, resolver geocode.Resolver, listener Listener, log *logger.Logger, opts Options) *Controller {
	if listener == nil {
		listener = noopListener{}
	}
	if log == nil {
		log = logger.Discard()
	}
	opts = opts.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		provider:     provider,
		resolver:     resolver,
		listener:     listener,
		log:          log,
		opts:         opts,
		clock:        opts.Clock,
		ctx:          ctx,
		cancel:       cancel,
		query:        opts.DefaultQuery,
		state:        SuggestionState{Status: StatusIdle},
		lastActivity: opts.Clock.Now(),
		watchers:     make(map[chan Snapshot]struct{}),
	}
}

// OnInputChanged records raw as the query. Empty text clears the session and
// emits the empty selection before returning. Any other text (re)arms the
// debounce; the fetch uses whatever the query is when the window elapses.
// Text equal to the current query is ignored.
func (c *Controller) OnInputChanged(raw string) {
	if raw == "" {
		c.clear()
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.lastActivity = c.clock.Now()
	if raw == c.query {
		return
	}

	c.query = raw
	c.supersedeLocked()

	gen := c.fetchGen
	c.debounce = c.clock.AfterFunc(c.opts.Debounce, func() {
		c.startFetch(gen)
	})
	c.notifyLocked()
}

func (c *Controller) clear() {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.lastActivity = c.clock.Now()
	c.query = ""
	c.supersedeLocked()
	c.state = SuggestionState{Status: StatusIdle}
	c.notifyLocked()
	c.mu.Unlock()

	c.log.Debug("search input cleared")
	c.emit(Selection{})
}

// OnSuggestionSelected commits address as the query and resolves it in the
// background. The resolved coordinates are emitted only if the query has not
// changed in the meantime. An empty address is ignored.
func (c *Controller) OnSuggestionSelected(address string) {
	if address == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.lastActivity = c.clock.Now()
	c.query = address
	c.supersedeLocked()
	c.state = SuggestionState{Status: StatusIdle}

	token := c.resolveGen
	ctx, cancel := c.callContext(c.opts.ResolveTimeout)
	c.resolveCancel = cancel
	c.resolving = true
	c.notifyLocked()

	c.wg.Add(1)
	go c.resolve(ctx, cancel, token, address)
}

// CurrentSuggestions returns a copy of the suggestion state.
func (c *Controller) CurrentSuggestions() SuggestionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// LastActivity is the time of the last input or selection.
func (c *Controller) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

// Watch returns a channel that receives the current snapshot and then every
// change. Slow readers only see the latest snapshot. The channel is closed by
// stop or by Close.
func (c *Controller) Watch() (updates <-chan Snapshot, stop func()) {
	ch := make(chan Snapshot, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.watchers[ch] = struct{}{}
	ch <- c.snapshotLocked()
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.watchers[ch]; ok {
				delete(c.watchers, ch)
				close(ch)
			}
		})
	}
}

// Close stops the debounce, cancels in-flight calls and waits for them.
// Later calls on the controller are no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.supersedeLocked()
	c.resolving = false
	for ch := range c.watchers {
		delete(c.watchers, ch)
		close(ch)
	}
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// supersedeLocked invalidates the pending debounce, the in-flight fetch and
// the in-flight resolve. A surfaced resolve error belongs to the superseded
// query and is dropped with it.
func (c *Controller) supersedeLocked() {
	c.fetchGen++
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
	if c.fetchCancel != nil {
		c.fetchCancel()
		c.fetchCancel = nil
	}

	c.resolveGen++
	if c.resolveCancel != nil {
		c.resolveCancel()
		c.resolveCancel = nil
	}
	c.resolving = false
	c.resolveErr = nil
}

func (c *Controller) callContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(c.ctx, timeout)
	}
	return context.WithCancel(c.ctx)
}

func (c *Controller) startFetch(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.fetchGen {
		return
	}
	c.debounce = nil

	ctx, cancel := c.callContext(c.opts.SuggestTimeout)
	c.fetchCancel = cancel
	c.state = SuggestionState{Status: StatusLoading}
	c.notifyLocked()

	c.log.Debug("debounce elapsed, fetching suggestions", "query", c.query)

	c.wg.Add(1)
	go c.fetch(ctx, cancel, gen, c.query)
}

func (c *Controller) fetch(ctx context.Context, cancel context.CancelFunc, gen uint64, query string) {
	defer c.wg.Done()
	defer cancel()

	suggestions, err := c.fetchSuggestions(ctx, query)

	c.mu.Lock()
	applied := !c.closed && gen == c.fetchGen
	if applied {
		c.fetchCancel = nil
		if err != nil {
			c.state = SuggestionState{Status: StatusError, Err: fmt.Errorf("%w: %w", ErrSuggestionFetchFailed, err)}
		} else {
			c.state = SuggestionState{Status: StatusReady, Suggestions: suggestions}
		}
		c.notifyLocked()
	}
	c.mu.Unlock()

	switch {
	case !applied:
		c.log.Debug("dropping stale suggestion response", "query", query)
	case err != nil:
		c.log.Warn("suggestion fetch failed", "query", query, "error", err)
	}

	if c.onFetchDone != nil {
		c.onFetchDone(applied)
	}
}

func (c *Controller) fetchSuggestions(ctx context.Context, query string) (suggestions []places.Suggestion, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()
	suggestions, err = c.provider.Fetch(ctx, norm.NFC.String(query), c.opts.Request)
	if err != nil {
		return nil, err
	}
	if suggestions == nil {
		suggestions = []places.Suggestion{}
	}
	return suggestions, nil
}

func (c *Controller) resolve(ctx context.Context, cancel context.CancelFunc, token uint64, address string) {
	defer c.wg.Done()
	defer cancel()

	latLng, err := c.geocode(ctx, address)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrGeocodeFailed, err)
	}

	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	applied := !c.closed && token == c.resolveGen
	surface := err != nil && c.opts.FailurePolicy == FailurePolicySurface
	if applied {
		c.resolving = false
		c.resolveCancel = nil
		if surface {
			c.resolveErr = err
		}
		c.notifyLocked()
	}
	c.mu.Unlock()

	switch {
	case !applied:
		c.log.Debug("dropping stale geocode result", "address", address)
	case err != nil:
		c.log.Error("geocode failed", "address", address, "error", err)
		if fl, ok := c.listener.(FailureListener); ok && surface {
			c.emitFailure(fl, address, err)
		}
	default:
		c.log.Info("address selected", "address", address, "lat", latLng.Lat, "lng", latLng.Lng)
		c.emit(resolvedSelection(address, latLng.Lat, latLng.Lng))
	}

	if c.onResolveDone != nil {
		c.onResolveDone(applied)
	}
}

func (c *Controller) geocode(ctx context.Context, address string) (latLng geocode.LatLng, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("resolver panic: %v", r)
		}
	}()

	records, err := c.resolver.Geocode(ctx, address)
	if err != nil {
		return geocode.LatLng{}, err
	}
	if len(records) == 0 {
		return geocode.LatLng{}, ErrNoGeocodeResults
	}
	return c.resolver.ToLatLng(ctx, records[0])
}

// emit must be called with emitMu held and mu released.
func (c *Controller) emit(sel Selection) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("selection listener panicked", "panic", fmt.Sprint(r))
		}
	}()
	c.listener.OnSelectAddress(sel)
}

func (c *Controller) emitFailure(fl FailureListener, address string, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("failure listener panicked", "panic", fmt.Sprint(r))
		}
	}()
	fl.OnResolveFailed(address, err)
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Query:       c.query,
		Status:      c.state.Status,
		Suggestions: []places.Suggestion{},
		Resolving:   c.resolving,
	}
	if c.state.Status == StatusReady {
		snap.Suggestions = append(snap.Suggestions, c.state.Suggestions...)
	}
	if c.state.Err != nil {
		snap.Error = c.state.Err.Error()
	}
	if c.resolveErr != nil {
		snap.ResolveError = c.resolveErr.Error()
	}
	return snap
}

// notifyLocked pushes the current snapshot to every watcher, replacing an
// unread one.
func (c *Controller) notifyLocked() {
	if len(c.watchers) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for ch := range c.watchers {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// IsTimeout reports whether err, recorded in a SuggestionState or passed
// to a FailureListener, came from an expired call deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
