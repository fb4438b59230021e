package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"fundingarb/internal/domain"
)

// BitgetClient reads USDT-futures tickers. Settlement intervals come from the
// contracts endpoint in hours; 8h is assumed when absent.
type BitgetClient struct {
	http      *http.Client
	tickers   Endpoint
	contracts Endpoint
}

func NewBitgetClient(httpClient *http.Client, tickers, contracts Endpoint) *BitgetClient {
	return &BitgetClient{http: httpClient, tickers: tickers, contracts: contracts}
}

func (c *BitgetClient) Exchange() domain.Exchange { return domain.ExchangeBitget }

type bitgetTickersResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		Symbol      string `json:"symbol"`
		FundingRate string `json:"fundingRate"`
	} `json:"data"`
}

type bitgetContractsResponse struct {
	Code string `json:"code"`
	Data []struct {
		Symbol       string `json:"symbol"`
		FundInterval string `json:"fundInterval"` // hours
	} `json:"data"`
}

func (c *BitgetClient) Fetch(ctx context.Context) ([]domain.Rate, error) {
	var tickers bitgetTickersResponse
	if err := fetchJSON(ctx, c.http, c.tickers, &tickers); err != nil {
		return nil, fmt.Errorf("bitget tickers: %w", err)
	}
	if tickers.Code != "00000" {
		return nil, fmt.Errorf("bitget tickers returned code %s: %s", tickers.Code, tickers.Msg)
	}

	intervals := make(map[string]float64)
	var contracts bitgetContractsResponse
	if err := fetchJSON(ctx, c.http, c.contracts, &contracts); err != nil {
		logrus.WithError(err).Warn("Bitget contracts unavailable, assuming 8h settlement")
	} else {
		for _, contract := range contracts.Data {
			if hours, parseErr := strconv.ParseFloat(contract.FundInterval, 64); parseErr == nil && hours > 0 {
				intervals[contract.Symbol] = hours
			}
		}
	}

	rates := make([]domain.Rate, 0, len(tickers.Data))
	for _, t := range tickers.Data {
		if t.Symbol == "" || t.FundingRate == "" {
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
		rates = append(rates, domain.NewRate(base, domain.ExchangeBitget, pct, intervals[t.Symbol]))
	}
	return rates, nil
}
