package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"fundingarb/internal/domain"
)

func binanceServer(t *testing.T, fundingInfoStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/fapi/v1/premiumIndex", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"symbol":"BTCUSDT","lastFundingRate":"0.0001","nextFundingTime":1700000000000},
			{"symbol":"SOLUSDT","lastFundingRate":"-0.0003","nextFundingTime":1700000000000},
			{"symbol":"ETHBUSD","lastFundingRate":"0.0001","nextFundingTime":1700000000000},
			{"symbol":"BADUSDT","lastFundingRate":"oops","nextFundingTime":0}
		]`))
	})
	mux.HandleFunc("/fapi/v1/fundingInfo", func(w http.ResponseWriter, r *http.Request) {
		if fundingInfoStatus != http.StatusOK {
			http.Error(w, "down", fundingInfoStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"symbol":"SOLUSDT","fundingIntervalHours":4}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestBinanceClient_Fetch(t *testing.T) {
	srv := binanceServer(t, http.StatusOK)
	c := NewBinanceClient(srv.Client(),
		Endpoint{URL: srv.URL + "/fapi/v1/premiumIndex"},
		Endpoint{URL: srv.URL + "/fapi/v1/fundingInfo"})

	rates, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 2, "non-USDT and unparseable entries dropped")

	bySymbol := map[string]domain.Rate{}
	for _, r := range rates {
		bySymbol[r.Symbol] = r
	}

	btc := bySymbol["BTC"]
	require.Equal(t, domain.ExchangeBinance, btc.Exchange)
	require.InDelta(t, 0.01, float64(btc.CurrentRate), 1e-9, "fraction converted to percent")
	require.Equal(t, 8.0, btc.SettlementInterval)
	require.False(t, btc.IsSpecialInterval)
	require.Equal(t, int64(1700000000000), btc.NextFundingTime)

	sol := bySymbol["SOL"]
	require.InDelta(t, -0.03, float64(sol.CurrentRate), 1e-9)
	require.Equal(t, 4.0, sol.SettlementInterval, "interval from funding info endpoint")
	require.True(t, sol.IsSpecialInterval)
}

func TestBinanceClient_FundingInfoDownDefaultsTo8h(t *testing.T) {
	srv := binanceServer(t, http.StatusServiceUnavailable)
	c := NewBinanceClient(srv.Client(),
		Endpoint{URL: srv.URL + "/fapi/v1/premiumIndex"},
		Endpoint{URL: srv.URL + "/fapi/v1/fundingInfo"})

	rates, err := c.Fetch(context.Background())
	require.NoError(t, err, "companion endpoint failure does not fail the source")
	require.Len(t, rates, 2)
	for _, r := range rates {
		require.Equal(t, 8.0, r.SettlementInterval)
	}
}

func TestBinanceClient_PremiumIndexDownFailsSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c := NewBinanceClient(srv.Client(), Endpoint{URL: srv.URL}, Endpoint{URL: srv.URL})

	_, err := c.Fetch(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "binance premium index")
}

func TestBinanceClient_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{"))
	}))
	t.Cleanup(srv.Close)

	c := NewBinanceClient(srv.Client(), Endpoint{URL: srv.URL}, Endpoint{URL: srv.URL})

	_, err := c.Fetch(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to decode response")
}
