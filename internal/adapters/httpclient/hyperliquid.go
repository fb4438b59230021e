package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"fundingarb/internal/domain"
)

// The funding interval is fixed at 1h for every HyperLiquid instrument.
const hyperliquidIntervalHours = 1.0

// HyperLiquidClient reads the metaAndAssetCtxs tuple: element 0 lists the
// asset universe, element 1 the per-asset contexts, zipped by index. A
// malformed or misaligned tuple degrades to zero results, not an error.
type HyperLiquidClient struct {
	http *http.Client
	info Endpoint
}

func NewHyperLiquidClient(httpClient *http.Client, info Endpoint) *HyperLiquidClient {
	return &HyperLiquidClient{http: httpClient, info: info}
}

func (c *HyperLiquidClient) Exchange() domain.Exchange { return domain.ExchangeHyperLiquid }

type hyperliquidMeta struct {
	Universe []struct {
		Name string `json:"name"`
	} `json:"universe"`
}

type hyperliquidAssetCtx struct {
	Funding string `json:"funding"`
}

func (c *HyperLiquidClient) Fetch(ctx context.Context) ([]domain.Rate, error) {
	var tuple []json.RawMessage
	if err := fetchJSON(ctx, c.http, c.info, &tuple); err != nil {
		return nil, fmt.Errorf("hyperliquid info: %w", err)
	}
	if len(tuple) != 2 {
		logrus.Warnf("HyperLiquid returned a %d-element tuple, expected 2", len(tuple))
		return nil, nil
	}

	var meta hyperliquidMeta
	if err := json.Unmarshal(tuple[0], &meta); err != nil {
		logrus.WithError(err).Warn("HyperLiquid metadata element is malformed")
		return nil, nil
	}
	var ctxs []hyperliquidAssetCtx
	if err := json.Unmarshal(tuple[1], &ctxs); err != nil {
		logrus.WithError(err).Warn("HyperLiquid asset context element is malformed")
		return nil, nil
	}
	if len(meta.Universe) != len(ctxs) {
		logrus.Warnf("HyperLiquid universe/context misalignment: %d vs %d", len(meta.Universe), len(ctxs))
		return nil, nil
	}

	rates := make([]domain.Rate, 0, len(ctxs))
	for i, asset := range meta.Universe {
		if asset.Name == "" {
			continue
		}
		pct, ok := parseFractionPct(ctxs[i].Funding)
		if !ok {
			continue
		}
		symbol := strings.ToUpper(asset.Name)
		rates = append(rates, domain.NewRate(symbol, domain.ExchangeHyperLiquid, pct, hyperliquidIntervalHours))
	}
	return rates, nil
}
