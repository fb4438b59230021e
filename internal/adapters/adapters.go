package adapters

import (
	"context"

	"fundingarb/internal/domain"
)

// ExchangeClient fetches the current funding rates of one venue, already
// normalized to the canonical schema. Implementations isolate all transport
// and parsing particulars of their exchange.
type ExchangeClient interface {
	Exchange() domain.Exchange
	Fetch(ctx context.Context) ([]domain.Rate, error)
}

// SnapshotCache holds the single live snapshot. Fresh returns the snapshot
// only while its TTL has not elapsed; Last returns the most recent good
// snapshot regardless of age. Replace swaps in a complete snapshot
// atomically, it never updates individual fields.
type SnapshotCache interface {
	Fresh() (domain.Snapshot, bool)
	Last() (domain.Snapshot, bool)
	Replace(snapshot domain.Snapshot)
}

// Broadcaster pushes a snapshot to every connected subscriber.
type Broadcaster interface {
	Broadcast(snapshot domain.Snapshot)
}
