package funding

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"fundingarb/internal/adapters"
	"fundingarb/internal/domain"
)

// Aggregator fans a refresh out to every exchange client concurrently and
// merges whatever came back. A failing source degrades to an empty slot; the
// cycle as a whole only fails when no source produced a usable rate.
type Aggregator struct {
	clients []adapters.ExchangeClient
}

func NewAggregator(clients []adapters.ExchangeClient) *Aggregator {
	return &Aggregator{clients: clients}
}

type fetchResult struct {
	exchange domain.Exchange
	rates    []domain.Rate
	err      error
}

// FetchAll awaits every source regardless of individual failures and returns
// the merged valid rates plus a per-exchange count for diagnostics.
func (a *Aggregator) FetchAll(ctx context.Context) ([]domain.Rate, map[domain.Exchange]int, error) {
	results := make(chan fetchResult, len(a.clients))

	var wg sync.WaitGroup
	for _, client := range a.clients {
		wg.Add(1)
		go func(c adapters.ExchangeClient) {
			defer wg.Done()
			rates, err := c.Fetch(ctx)
			results <- fetchResult{exchange: c.Exchange(), rates: rates, err: err}
		}(client)
	}
	wg.Wait()
	close(results)

	merged := make([]domain.Rate, 0, 1024)
	counts := make(map[domain.Exchange]int, len(a.clients))
	for res := range results {
		if res.err != nil {
			logrus.WithError(res.err).Warnf("%s degraded to empty this cycle", res.exchange)
			counts[res.exchange] = 0
			continue
		}
		kept := 0
		for _, r := range res.rates {
			if !r.Valid() {
				continue
			}
			merged = append(merged, r)
			kept++
		}
		counts[res.exchange] = kept
	}

	if len(merged) == 0 {
		return nil, counts, domain.ErrAllSourcesFailed
	}
	return merged, counts, nil
}
