package httpclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"fundingarb/internal/domain"
)

const bybitDefaultIntervalMinutes = 480.0

// BybitClient reads linear-contract tickers. Settlement intervals come from
// the instruments info endpoint in minutes; 480 (8h) is assumed when absent.
type BybitClient struct {
	http            *http.Client
	tickers         Endpoint
	instrumentsInfo Endpoint
}

func NewBybitClient(httpClient *http.Client, tickers, instrumentsInfo Endpoint) *BybitClient {
	return &BybitClient{http: httpClient, tickers: tickers, instrumentsInfo: instrumentsInfo}
}

func (c *BybitClient) Exchange() domain.Exchange { return domain.ExchangeBybit }

type bybitTickersResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []struct {
			Symbol          string `json:"symbol"`
			FundingRate     string `json:"fundingRate"`
			NextFundingTime string `json:"nextFundingTime"`
		} `json:"list"`
	} `json:"result"`
}

type bybitInstrumentsResponse struct {
	RetCode int `json:"retCode"`
	Result  struct {
		List []struct {
			Symbol          string  `json:"symbol"`
			FundingInterval float64 `json:"fundingInterval"` // minutes
		} `json:"list"`
	} `json:"result"`
}

func (c *BybitClient) Fetch(ctx context.Context) ([]domain.Rate, error) {
	var tickers bybitTickersResponse
	if err := fetchJSON(ctx, c.http, c.tickers, &tickers); err != nil {
		return nil, fmt.Errorf("bybit tickers: %w", err)
	}
	if tickers.RetCode != 0 {
		return nil, fmt.Errorf("bybit tickers returned code %d: %s", tickers.RetCode, tickers.RetMsg)
	}

	intervals := make(map[string]float64)
	var instruments bybitInstrumentsResponse
	if err := fetchJSON(ctx, c.http, c.instrumentsInfo, &instruments); err != nil {
		logrus.WithError(err).Warn("Bybit instruments info unavailable, assuming 8h settlement")
	} else {
		for _, inst := range instruments.Result.List {
			if inst.FundingInterval > 0 {
				intervals[inst.Symbol] = inst.FundingInterval
			}
		}
	}

	rates := make([]domain.Rate, 0, len(tickers.Result.List))
	for _, t := range tickers.Result.List {
		if t.FundingRate == "" {
			continue
		}
		base, ok := stripQuote(t.Symbol, "USDT")
		if !ok {
			continue
		}
		pct, ok := parseFractionPct(t.FundingRate)
		if !ok {
			continue
		}
		minutes, found := intervals[t.Symbol]
		if !found {
			minutes = bybitDefaultIntervalMinutes
		}
		r := domain.NewRate(base, domain.ExchangeBybit, pct, minutes/60)
		r.NextFundingTime = parseMillis(t.NextFundingTime)
		rates = append(rates, r)
	}
	return rates, nil
}
