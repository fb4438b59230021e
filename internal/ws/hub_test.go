package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"fundingarb/internal/domain"
	"fundingarb/internal/funding"
)

// fakeSource is a minimal SnapshotSource with settable results.
type fakeSource struct {
	mu        sync.Mutex
	cached    *domain.Snapshot
	snapshot  domain.Snapshot
	err       error
	getCalled int
}

func (f *fakeSource) GetSnapshot(ctx context.Context) (domain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalled++
	if f.err != nil {
		return domain.Snapshot{}, f.err
	}
	return f.snapshot, nil
}

func (f *fakeSource) CachedSnapshot() (domain.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cached == nil {
		return domain.Snapshot{}, false
	}
	return *f.cached, true
}

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleUpgrade))
	t.Cleanup(srv.Close)

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	return conn
}

func snapshotAt(sec int) domain.Snapshot {
	return domain.Snapshot{
		Rates:     []domain.Rate{domain.NewRate("BTC", domain.ExchangeBinance, 0.01, 8)},
		FetchedAt: time.Date(2025, 6, 1, 12, 0, sec, 0, time.UTC),
	}
}

func TestHub_FirstConnectReceivesCachedSnapshot(t *testing.T) {
	cached := snapshotAt(0)
	source := &fakeSource{cached: &cached}
	hub := NewHub(source)

	conn := dialHub(t, hub)

	var view funding.SnapshotView
	require.NoError(t, conn.ReadJSON(&view))
	require.True(t, view.Success)
	require.Len(t, view.Data, 1)
	require.Equal(t, "2025-06-01T12:00:00Z", view.LastUpdate)

	source.mu.Lock()
	defer source.mu.Unlock()
	require.Zero(t, source.getCalled, "first connect never forces a refresh")
}

func TestHub_RefreshRequestServedToRequesterOnly(t *testing.T) {
	source := &fakeSource{snapshot: snapshotAt(5)}
	hub := NewHub(source)

	requester := dialHub(t, hub)
	bystander := dialHub(t, hub)

	require.NoError(t, requester.WriteJSON(map[string]string{"type": "refresh"}))

	var view funding.SnapshotView
	require.NoError(t, requester.ReadJSON(&view))
	require.True(t, view.Success)
	require.Equal(t, "2025-06-01T12:00:05Z", view.LastUpdate)

	require.NoError(t, bystander.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var stray funding.SnapshotView
	require.Error(t, bystander.ReadJSON(&stray), "bystander receives nothing")
}

func TestHub_BroadcastReachesAllSubscribers(t *testing.T) {
	source := &fakeSource{}
	hub := NewHub(source)

	first := dialHub(t, hub)
	second := dialHub(t, hub)

	require.Eventually(t, func() bool { return hub.Subscribers() == 2 },
		time.Second, 10*time.Millisecond)

	hub.Broadcast(snapshotAt(9))

	for _, conn := range []*websocket.Conn{first, second} {
		var view funding.SnapshotView
		require.NoError(t, conn.ReadJSON(&view))
		require.True(t, view.Success)
		require.Equal(t, "2025-06-01T12:00:09Z", view.LastUpdate)
	}
}

func TestHub_DisconnectIsCleanupOnly(t *testing.T) {
	source := &fakeSource{}
	hub := NewHub(source)

	conn := dialHub(t, hub)
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 },
		time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Subscribers() == 0 },
		time.Second, 10*time.Millisecond)

	// Broadcasting to an empty hub is a no-op.
	hub.Broadcast(snapshotAt(1))
}
