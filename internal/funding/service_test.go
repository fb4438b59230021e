package funding

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fundingarb/internal/adapters"
	"fundingarb/internal/domain"
)

// memorySnapshotCache is a plain in-memory stand-in for the ristretto
// adapter; expiry is simulated by clearing the fresh slot.
type memorySnapshotCache struct {
	mu       sync.Mutex
	fresh    *domain.Snapshot
	last     *domain.Snapshot
	replaced int
}

func (c *memorySnapshotCache) Fresh() (domain.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fresh == nil {
		return domain.Snapshot{}, false
	}
	return *c.fresh, true
}

func (c *memorySnapshotCache) Last() (domain.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return domain.Snapshot{}, false
	}
	return *c.last, true
}

func (c *memorySnapshotCache) Replace(s domain.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fresh = &s
	c.last = &s
	c.replaced++
}

func (c *memorySnapshotCache) expire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fresh = nil
}

func newServiceWithClient(client adapters.ExchangeClient) (*Service, *memorySnapshotCache) {
	c := &memorySnapshotCache{}
	return NewService(NewAggregator([]adapters.ExchangeClient{client}), c, DefaultThresholds()), c
}

func TestService_SecondPullWithinTTLHitsCache(t *testing.T) {
	client := new(MockExchangeClient)
	client.On("Exchange").Return(domain.ExchangeBinance)
	client.On("Fetch", mock.Anything).Return([]domain.Rate{
		domain.NewRate("BTC", domain.ExchangeBinance, 0.01, 8),
	}, nil).Once()

	svc, cacheState := newServiceWithClient(client)
	ctx := context.Background()

	first, err := svc.GetSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, first.Rates, 1)

	second, err := svc.GetSnapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, first.FetchedAt, second.FetchedAt)
	require.Equal(t, 1, cacheState.replaced, "one upstream cycle for two pulls")
	client.AssertExpectations(t)
}

func TestService_TotalFailureKeepsLastGoodSnapshot(t *testing.T) {
	client := new(MockExchangeClient)
	client.On("Exchange").Return(domain.ExchangeBinance)
	client.On("Fetch", mock.Anything).Return([]domain.Rate{
		domain.NewRate("BTC", domain.ExchangeBinance, 0.01, 8),
	}, nil).Once()
	client.On("Fetch", mock.Anything).Return(nil, errors.New("upstream down")).Once()

	svc, cacheState := newServiceWithClient(client)
	ctx := context.Background()

	good, err := svc.GetSnapshot(ctx)
	require.NoError(t, err)

	cacheState.expire()

	served, err := svc.GetSnapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, good.FetchedAt, served.FetchedAt, "previous snapshot served unchanged")
	require.Equal(t, 1, cacheState.replaced, "failed refresh never replaces the cache")
	client.AssertExpectations(t)
}

func TestService_TotalFailureWithoutSnapshotErrors(t *testing.T) {
	client := new(MockExchangeClient)
	client.On("Exchange").Return(domain.ExchangeBinance)
	client.On("Fetch", mock.Anything).Return(nil, errors.New("upstream down")).Once()

	svc, _ := newServiceWithClient(client)

	_, err := svc.GetSnapshot(context.Background())
	require.ErrorIs(t, err, domain.ErrAllSourcesFailed)
	require.NotEmpty(t, err.Error())
}

// blockingClient parks every Fetch until released, so the test can hold a
// refresh in flight.
type blockingClient struct {
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (c *blockingClient) Exchange() domain.Exchange { return domain.ExchangeBinance }

func (c *blockingClient) Fetch(ctx context.Context) ([]domain.Rate, error) {
	c.calls.Add(1)
	c.entered <- struct{}{}
	<-c.release
	return []domain.Rate{domain.NewRate("BTC", domain.ExchangeBinance, 0.01, 8)}, nil
}

func TestService_ConcurrentRequestsShareOneRefresh(t *testing.T) {
	client := &blockingClient{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	svc, _ := newServiceWithClient(client)

	var wg sync.WaitGroup
	results := make(chan domain.Snapshot, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		snap, err := svc.GetSnapshot(context.Background())
		require.NoError(t, err)
		results <- snap
	}()

	// Wait until the first refresh is in flight, then issue a late request.
	<-client.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		snap, err := svc.GetSnapshot(context.Background())
		require.NoError(t, err)
		results <- snap
	}()

	// Give the late request time to join the in-flight refresh.
	time.Sleep(50 * time.Millisecond)
	close(client.release)
	wg.Wait()
	close(results)

	require.Equal(t, int32(1), client.calls.Load(), "late request waits instead of refetching")
	first := <-results
	second := <-results
	require.Equal(t, first.FetchedAt, second.FetchedAt)
}

func TestService_CachedSnapshotNeverRefreshes(t *testing.T) {
	client := new(MockExchangeClient)
	client.On("Exchange").Return(domain.ExchangeBinance)

	svc, cacheState := newServiceWithClient(client)

	_, ok := svc.CachedSnapshot()
	require.False(t, ok)

	snap := domain.Snapshot{
		Rates:     []domain.Rate{domain.NewRate("BTC", domain.ExchangeBinance, 0.01, 8)},
		FetchedAt: time.Now(),
	}
	cacheState.Replace(snap)
	cacheState.expire()

	got, ok := svc.CachedSnapshot()
	require.True(t, ok, "stale last-good snapshot still served on connect")
	require.Equal(t, snap.FetchedAt, got.FetchedAt)
	client.AssertNotCalled(t, "Fetch", mock.Anything)
}
