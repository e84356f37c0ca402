package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"address_search_backend/internal/geocode"
	"address_search_backend/internal/places"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and runs due timers on the calling goroutine.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type fetchReply struct {
	suggestions []places.Suggestion
	err         error
}

type fetchCall struct {
	query string
	ctx   context.Context
	reply chan fetchReply
}

// fakeProvider hands every call to the test, which answers it through reply.
// With ignoreCtx set a call only returns once answered, even if cancelled.
type fakeProvider struct {
	calls     chan fetchCall
	ignoreCtx bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{calls: make(chan fetchCall, 16)}
}

func (p *fakeProvider) Fetch(ctx context.Context, partial string, _ places.RequestOptions) ([]places.Suggestion, error) {
	call := fetchCall{query: partial, ctx: ctx, reply: make(chan fetchReply, 1)}
	p.calls <- call
	if p.ignoreCtx {
		r := <-call.reply
		return r.suggestions, r.err
	}
	select {
	case r := <-call.reply:
		return r.suggestions, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *fakeProvider) next(t *testing.T) fetchCall {
	t.Helper()
	select {
	case call := <-p.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("expected a suggestion fetch")
		return fetchCall{}
	}
}

func (p *fakeProvider) expectNone(t *testing.T) {
	t.Helper()
	select {
	case call := <-p.calls:
		t.Fatalf("unexpected suggestion fetch for %q", call.query)
	case <-time.After(30 * time.Millisecond):
	}
}

// fakeResolver answers Geocode from records/err, optionally blocking on gate.
type fakeResolver struct {
	mu        sync.Mutex
	records   []geocode.Record
	err       error
	gate      chan struct{}
	ignoreCtx bool
	calls     []string
}

func (r *fakeResolver) Geocode(ctx context.Context, address string) ([]geocode.Record, error) {
	r.mu.Lock()
	r.calls = append(r.calls, address)
	gate := r.gate
	ignoreCtx := r.ignoreCtx
	r.mu.Unlock()

	if gate != nil && ignoreCtx {
		<-gate
	} else if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records, r.err
}

func (r *fakeResolver) ToLatLng(_ context.Context, record geocode.Record) (geocode.LatLng, error) {
	return geocode.RecordLatLng(record)
}

func (r *fakeResolver) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func recordAt(address string, lat, lng float64) geocode.Record {
	return geocode.Record{FormattedAddress: address, Location: &geocode.LatLng{Lat: lat, Lng: lng}}
}

type failure struct {
	address string
	err     error
}

type recordingListener struct {
	mu         sync.Mutex
	selections []Selection
	failures   []failure
}

func (l *recordingListener) OnSelectAddress(sel Selection) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selections = append(l.selections, sel)
}

func (l *recordingListener) OnResolveFailed(address string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures = append(l.failures, failure{address: address, err: err})
}

func (l *recordingListener) Selections() []Selection {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Selection(nil), l.selections...)
}

func (l *recordingListener) Failures() []failure {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]failure(nil), l.failures...)
}

type harness struct {
	clock       *fakeClock
	provider    *fakeProvider
	resolver    *fakeResolver
	listener    *recordingListener
	ctrl        *Controller
	fetchDone   chan bool
	resolveDone chan bool
}

func newHarness(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()
	h := &harness{
		clock:       newFakeClock(),
		provider:    newFakeProvider(),
		resolver:    &fakeResolver{},
		listener:    &recordingListener{},
		fetchDone:   make(chan bool, 16),
		resolveDone: make(chan bool, 16),
	}
	opts := Options{Clock: h.clock}
	if mutate != nil {
		mutate(&opts)
	}
	h.ctrl = NewController(h.provider, h.resolver, h.listener, nil, opts)
	h.ctrl.onFetchDone = func(applied bool) { h.fetchDone <- applied }
	h.ctrl.onResolveDone = func(applied bool) { h.resolveDone <- applied }
	t.Cleanup(h.ctrl.Close)
	return h
}

func waitDone(t *testing.T, ch <-chan bool) bool {
	t.Helper()
	select {
	case applied := <-ch:
		return applied
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a result to settle")
		return false
	}
}
