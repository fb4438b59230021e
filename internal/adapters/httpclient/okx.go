package httpclient

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"fundingarb/internal/domain"
)

const okxSwapSuffix = "-USDT-SWAP"

// OKXClient is the two-step source: the ticker endpoint only enumerates
// instruments, the actual funding rate costs one call per instrument. Those
// calls run in bounded batches with a pause between batches to stay under
// OKX's rate limits; any subset of them may fail without failing the source.
type OKXClient struct {
	http        *http.Client
	tickers     Endpoint
	fundingRate Endpoint
	batchSize   int
	batchDelay  time.Duration
	callTimeout time.Duration
}

func NewOKXClient(httpClient *http.Client, tickers, fundingRate Endpoint, batchSize int, batchDelay, callTimeout time.Duration) *OKXClient {
	if batchSize <= 0 {
		batchSize = 50
	}
	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}
	return &OKXClient{
		http:        httpClient,
		tickers:     tickers,
		fundingRate: fundingRate,
		batchSize:   batchSize,
		batchDelay:  batchDelay,
		callTimeout: callTimeout,
	}
}

func (c *OKXClient) Exchange() domain.Exchange { return domain.ExchangeOKX }

type okxTickersResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		InstID string `json:"instId"`
	} `json:"data"`
}

type okxFundingRateResponse struct {
	Code string `json:"code"`
	Data []struct {
		InstID          string `json:"instId"`
		FundingRate     string `json:"fundingRate"`
		FundingTime     string `json:"fundingTime"`
		NextFundingTime string `json:"nextFundingTime"`
	} `json:"data"`
}

func (c *OKXClient) Fetch(ctx context.Context) ([]domain.Rate, error) {
	var tickers okxTickersResponse
	if err := fetchJSON(ctx, c.http, c.tickers, &tickers); err != nil {
		return nil, fmt.Errorf("okx tickers: %w", err)
	}
	if tickers.Code != "0" {
		return nil, fmt.Errorf("okx tickers returned code %s: %s", tickers.Code, tickers.Msg)
	}

	instIDs := make([]string, 0, len(tickers.Data))
	for _, t := range tickers.Data {
		if strings.HasSuffix(t.InstID, okxSwapSuffix) {
			instIDs = append(instIDs, t.InstID)
		}
	}

	var (
		mu     sync.Mutex
		rates  []domain.Rate
		failed int
	)

	for start := 0; start < len(instIDs); start += c.batchSize {
		end := start + c.batchSize
		if end > len(instIDs) {
			end = len(instIDs)
		}

		var wg sync.WaitGroup
		for _, instID := range instIDs[start:end] {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				rate, err := c.fetchInstrument(ctx, id)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed++
					return
				}
				if rate.Valid() {
					rates = append(rates, rate)
				}
			}(instID)
		}
		wg.Wait()

		if end < len(instIDs) && c.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return rates, nil
			case <-time.After(c.batchDelay):
			}
		}
	}

	if failed > 0 {
		logrus.Warnf("OKX: %d of %d instrument calls failed", failed, len(instIDs))
	}
	return rates, nil
}

func (c *OKXClient) fetchInstrument(ctx context.Context, instID string) (domain.Rate, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	ep := c.fundingRate
	sep := "?"
	if strings.Contains(ep.URL, "?") {
		sep = "&"
	}
	ep.URL = ep.URL + sep + "instId=" + url.QueryEscape(instID)

	var resp okxFundingRateResponse
	if err := fetchJSON(callCtx, c.http, ep, &resp); err != nil {
		return domain.Rate{}, err
	}
	if resp.Code != "0" || len(resp.Data) == 0 {
		return domain.Rate{}, fmt.Errorf("okx funding rate for %s returned code %s", instID, resp.Code)
	}

	entry := resp.Data[0]
	pct, ok := parseFractionPct(entry.FundingRate)
	if !ok || pct == 0 || math.IsNaN(pct) {
		return domain.Rate{}, fmt.Errorf("okx funding rate for %s is unusable", instID)
	}

	base, ok := stripQuote(entry.InstID, okxSwapSuffix)
	if !ok {
		return domain.Rate{}, fmt.Errorf("okx instrument %s is not a USDT swap", entry.InstID)
	}

	fundingTime := parseMillis(entry.FundingTime)
	nextFundingTime := parseMillis(entry.NextFundingTime)
	interval := 0.0
	if fundingTime > 0 && nextFundingTime > fundingTime {
		interval = float64(nextFundingTime-fundingTime) / (1000 * 3600)
	}

	rate := domain.NewRate(base, domain.ExchangeOKX, pct, interval)
	rate.FundingTime = fundingTime
	rate.NextFundingTime = nextFundingTime
	return rate, nil
}
