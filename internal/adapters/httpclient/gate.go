package httpclient

import (
	"context"
	"fmt"
	"net/http"

	"fundingarb/internal/domain"
)

// GateClient reads USDT perpetual contracts. The contracts listing carries
// both the funding rate and the funding interval (seconds), so one call is
// enough; an absent or zero interval falls back to 8h.
type GateClient struct {
	http      *http.Client
	contracts Endpoint
}

func NewGateClient(httpClient *http.Client, contracts Endpoint) *GateClient {
	return &GateClient{http: httpClient, contracts: contracts}
}

func (c *GateClient) Exchange() domain.Exchange { return domain.ExchangeGate }

type gateContract struct {
	Name            string `json:"name"`
	FundingRate     string `json:"funding_rate"`
	FundingInterval int64  `json:"funding_interval"` // seconds
}

func (c *GateClient) Fetch(ctx context.Context) ([]domain.Rate, error) {
	var contracts []gateContract
	if err := fetchJSON(ctx, c.http, c.contracts, &contracts); err != nil {
		return nil, fmt.Errorf("gate contracts: %w", err)
	}

	rates := make([]domain.Rate, 0, len(contracts))
	for _, contract := range contracts {
		base, ok := stripQuote(contract.Name, "_USDT")
		if !ok {
			continue
		}
		pct, ok := parseFractionPct(contract.FundingRate)
		if !ok {
			continue
		}
		intervalHours := float64(contract.FundingInterval) / 3600
		rates = append(rates, domain.NewRate(base, domain.ExchangeGate, pct, intervalHours))
	}
	return rates, nil
}
