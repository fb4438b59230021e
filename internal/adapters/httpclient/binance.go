package httpclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"fundingarb/internal/domain"
)

// BinanceClient reads the USDT-margined premium index. Rates arrive as
// fractions; per-symbol settlement intervals come from the companion funding
// info endpoint and fall back to 8h when it is unavailable.
type BinanceClient struct {
	http         *http.Client
	premiumIndex Endpoint
	fundingInfo  Endpoint
}

func NewBinanceClient(httpClient *http.Client, premiumIndex, fundingInfo Endpoint) *BinanceClient {
	return &BinanceClient{http: httpClient, premiumIndex: premiumIndex, fundingInfo: fundingInfo}
}

func (c *BinanceClient) Exchange() domain.Exchange { return domain.ExchangeBinance }

type binancePremiumIndex struct {
	Symbol          string `json:"symbol"`
	LastFundingRate string `json:"lastFundingRate"`
	NextFundingTime int64  `json:"nextFundingTime"`
	Time            int64  `json:"time"`
}

type binanceFundingInfo struct {
	Symbol               string  `json:"symbol"`
	FundingIntervalHours float64 `json:"fundingIntervalHours"`
}

func (c *BinanceClient) Fetch(ctx context.Context) ([]domain.Rate, error) {
	var premiums []binancePremiumIndex
	if err := fetchJSON(ctx, c.http, c.premiumIndex, &premiums); err != nil {
		return nil, fmt.Errorf("binance premium index: %w", err)
	}

	// The funding info endpoint only lists symbols with a non-default
	// interval; losing it degrades every symbol to the 8h default.
	intervals := make(map[string]float64)
	var infos []binanceFundingInfo
	if err := fetchJSON(ctx, c.http, c.fundingInfo, &infos); err != nil {
		logrus.WithError(err).Warn("Binance funding info unavailable, assuming 8h settlement")
	} else {
		for _, info := range infos {
			if info.FundingIntervalHours > 0 {
				intervals[info.Symbol] = info.FundingIntervalHours
			}
		}
	}

	rates := make([]domain.Rate, 0, len(premiums))
	for _, p := range premiums {
		base, ok := stripQuote(p.Symbol, "USDT")
		if !ok {
			continue
		}
		pct, ok := parseFractionPct(p.LastFundingRate)
		if !ok {
			continue
		}
		r := domain.NewRate(base, domain.ExchangeBinance, pct, intervals[p.Symbol])
		r.NextFundingTime = p.NextFundingTime
		rates = append(rates, r)
	}
	return rates, nil
}
