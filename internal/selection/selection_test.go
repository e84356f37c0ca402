package selection

import (
	"context"
	"testing"
	"time"

	"address_search_backend/internal/events"
	"address_search_backend/internal/session"
	"address_search_backend/platform/apperr"
	"address_search_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, ttl), mr
}

func sampleRecord() Record {
	lat, lng := 39.1, -89.6
	return Record{
		SessionID:  "s-1",
		Address:    "1 Main St, Springfield",
		Latitude:   &lat,
		Longitude:  &lng,
		SelectedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleRecord()))
	assert.True(t, mr.Exists("addrsearch:selection:s-1"))
	assert.Equal(t, time.Hour, mr.TTL("addrsearch:selection:s-1"))

	got, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	if diff := cmp.Diff(sampleRecord(), got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, store.Delete(ctx, "s-1"))
	_, err = store.Get(ctx, "s-1")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleRecord()))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "s-1")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleRecord()))
	got, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "1 Main St, Springfield", got.Address)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, "s-1")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestHandlersStoreSelectedEvents(t *testing.T) {
	bus := events.NewInMemoryBus(nil)
	store := NewMemoryStore(0)
	RegisterHandlers(bus, store, logger.Discard())

	rec := sampleRecord()
	evt := events.AddressSelected{
		BaseEvent: events.BaseEvent{Timestamp: rec.SelectedAt},
		SessionID: rec.SessionID,
		Address:   rec.Address,
		Latitude:  rec.Latitude,
		Longitude: rec.Longitude,
	}
	require.NoError(t, bus.PublishSync(context.Background(), evt))

	got, err := store.Get(context.Background(), "s-1")
	require.NoError(t, err)
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}

	cleared := events.AddressSelected{BaseEvent: events.NewBaseEvent(), SessionID: "s-1"}
	require.NoError(t, bus.PublishSync(context.Background(), cleared))

	got, err = store.Get(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Empty(t, got.Address)
	assert.Nil(t, got.Latitude)
}

func TestMemoryStoreSweepDropsExpired(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleRecord()))
	now = now.Add(30 * time.Second)
	fresh := sampleRecord()
	fresh.SessionID = "s-2"
	require.NoError(t, store.Save(ctx, fresh))
	require.Len(t, store.records, 2)

	now = now.Add(45 * time.Second)
	assert.Equal(t, 1, store.sweep())
	assert.Len(t, store.records, 1)

	_, err := store.Get(ctx, "s-2")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	assert.Equal(t, 1, store.sweep())
	assert.Empty(t, store.records)
}

func TestMemoryStoreRunStopsWithContext(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- store.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.NoError(t, NewMemoryStore(0).Run(context.Background()))
}

// slowStore delays saves of real selections, the way a remote store
// occasionally does.
type slowStore struct {
	*MemoryStore
	delay time.Duration
}

func (s slowStore) Save(ctx context.Context, rec Record) error {
	if rec.Address != "" {
		time.Sleep(s.delay)
	}
	return s.MemoryStore.Save(ctx, rec)
}

func TestBusListenerKeepsEmissionOrder(t *testing.T) {
	bus := events.NewInMemoryBus(nil)
	store := slowStore{MemoryStore: NewMemoryStore(0), delay: 5 * time.Millisecond}
	RegisterHandlers(bus, store, logger.Discard())

	listener := session.NewBusListener(bus, "s-1")
	lat, lng := 39.1, -89.6
	listener.OnSelectAddress(session.Selection{Address: "1 Main St, Springfield", Latitude: &lat, Longitude: &lng})
	listener.OnSelectAddress(session.Selection{})
	bus.Wait()

	got, err := store.Get(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Empty(t, got.Address, "the clear was emitted last and must be what the host holds")
	assert.Nil(t, got.Latitude)
}
