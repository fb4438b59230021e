package funding

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"fundingarb/internal/adapters"
	"fundingarb/internal/domain"
)

const refreshKey = "refresh"

// Service owns the cache contract: every entry point into a refresh — pull
// requests, subscriber requests, the periodic broadcast timer — goes through
// this type, and at most one upstream cycle is in flight at a time.
type Service struct {
	aggregator *Aggregator
	cache      adapters.SnapshotCache
	thresholds Thresholds
	group      singleflight.Group
}

func NewService(aggregator *Aggregator, cache adapters.SnapshotCache, thresholds Thresholds) *Service {
	return &Service{aggregator: aggregator, cache: cache, thresholds: thresholds}
}

// GetSnapshot serves the cached snapshot while it is fresh and otherwise
// refreshes through the single-flight group. When the refresh fails, the last
// good snapshot is served instead; only with no prior snapshot at all does
// the caller see an error.
func (s *Service) GetSnapshot(ctx context.Context) (domain.Snapshot, error) {
	if snapshot, ok := s.cache.Fresh(); ok {
		return snapshot, nil
	}

	snapshot, err := s.ForceRefresh(ctx)
	if err == nil {
		return snapshot, nil
	}
	if last, ok := s.cache.Last(); ok {
		logrus.WithError(err).Warn("Refresh failed, serving last good snapshot")
		return last, nil
	}
	return domain.Snapshot{}, fmt.Errorf("refresh funding snapshot: %w", err)
}

// ForceRefresh runs a full aggregation cycle unconditionally, bypassing the
// TTL check. Concurrent callers share one in-flight refresh; late arrivals
// wait for its result rather than issuing duplicate upstream calls. On total
// upstream failure the cache keeps its previous snapshot untouched.
func (s *Service) ForceRefresh(ctx context.Context) (domain.Snapshot, error) {
	v, err, _ := s.group.Do(refreshKey, func() (any, error) {
		rates, counts, err := s.aggregator.FetchAll(ctx)
		if err != nil {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{"total": len(rates), "perExchange": counts}).
			Debug("Merged funding rates")

		snapshot := domain.Snapshot{
			Rates:         rates,
			Opportunities: DetectOpportunities(rates, s.thresholds),
			FetchedAt:     time.Now().UTC(),
		}
		s.cache.Replace(snapshot)
		return snapshot, nil
	})
	if err != nil {
		return domain.Snapshot{}, err
	}
	return v.(domain.Snapshot), nil
}

// CachedSnapshot returns the most recent snapshot without ever triggering a
// refresh: the fresh entry when present, the last good one otherwise. Used
// for first-connect pushes.
func (s *Service) CachedSnapshot() (domain.Snapshot, bool) {
	if snapshot, ok := s.cache.Fresh(); ok {
		return snapshot, true
	}
	return s.cache.Last()
}
