package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"fundingarb/internal/adapters"
	"fundingarb/internal/adapters/cache"
	"fundingarb/internal/adapters/httpclient"
	"fundingarb/internal/api"
	"fundingarb/internal/config"
	"fundingarb/internal/funding"
	"fundingarb/internal/funding/handler"
	httpserver "fundingarb/internal/platform/http"
	"fundingarb/internal/ws"
)

// Run wires the application components, starts the HTTP server and the
// broadcast scheduler.
func Run() error {
	appCfg, err := config.Init()
	if err != nil {
		return err
	}

	// Logger
	logrus.SetOutput(os.Stdout)
	if parsedLvl, parseErr := logrus.ParseLevel(appCfg.Logging.Level); parseErr != nil {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(parsedLvl)
	}
	logrus.Info("✅ Config initialization successful")

	// Root context bound to OS signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Base HTTP client (configurable timeout)
	httpTimeout := time.Duration(appCfg.HTTPClient.TimeoutSeconds) * time.Second
	if httpTimeout <= 0 {
		httpTimeout = 15 * time.Second
	}
	baseHTTPClient := &http.Client{Timeout: httpTimeout}

	// OKX runs far more requests per cycle and gets its own, shorter timeout.
	okxTimeout := time.Duration(appCfg.Exchanges.OKX.TimeoutSeconds) * time.Second
	if okxTimeout <= 0 {
		okxTimeout = 10 * time.Second
	}
	okxHTTPClient := &http.Client{Timeout: okxTimeout}

	clients := buildExchangeClients(appCfg.Exchanges, baseHTTPClient, okxHTTPClient, okxTimeout)

	snapshotCache, err := cache.NewSnapshotCache(time.Duration(appCfg.Cache.TTLSeconds) * time.Second)
	if err != nil {
		logrus.WithError(err).Error("Failed to create snapshot cache")
		return err
	}
	defer snapshotCache.Close()
	logrus.Info("✅ Snapshot cache ready")

	// Engine
	aggregator := funding.NewAggregator(clients)
	thresholds := funding.Thresholds{
		MinExpectedProfit: appCfg.Detector.MinExpectedProfit,
		MinAnnualYield:    appCfg.Detector.MinAnnualYield,
		NoiseFloor:        appCfg.Detector.NoiseFloor,
	}
	service := funding.NewService(aggregator, snapshotCache, thresholds)

	// Distribution
	hub := ws.NewHub(service)
	scheduler := funding.NewScheduler(service, hub, time.Duration(appCfg.Broadcast.IntervalSeconds)*time.Second)
	defer func() {
		if shutDownErr := scheduler.Shutdown(); shutDownErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", shutDownErr)
		}
	}()
	if startErr := scheduler.Start(ctx); startErr != nil {
		logrus.WithError(startErr).Error("Failed to start broadcast scheduler")
		return startErr
	}
	logrus.Info("✅ Broadcast scheduler activation successful")

	// Handlers and router
	fundingHandler := handler.NewFundingHandler(service)
	router := api.NewRouter(fundingHandler, hub.HandleUpgrade)

	logrus.Info("Starting http server")
	if serverErr := httpserver.Start(ctx, appCfg.HTTPServer, router); serverErr != nil {
		stop()
		logrus.Errorf("HTTP server error: %v", serverErr)
		return serverErr
	}
	return nil
}

func buildExchangeClients(cfg config.Exchanges, base, okxClient *http.Client, okxTimeout time.Duration) []adapters.ExchangeClient {
	ep := func(e config.Endpoint) httpclient.Endpoint {
		return httpclient.Endpoint{URL: e.URL, Method: e.Method, Headers: e.Headers, Body: e.Body}
	}
	return []adapters.ExchangeClient{
		httpclient.NewBinanceClient(base, ep(cfg.Binance.PremiumIndex), ep(cfg.Binance.FundingInfo)),
		httpclient.NewBybitClient(base, ep(cfg.Bybit.Tickers), ep(cfg.Bybit.InstrumentsInfo)),
		httpclient.NewBitgetClient(base, ep(cfg.Bitget.Tickers), ep(cfg.Bitget.Contracts)),
		httpclient.NewOKXClient(okxClient, ep(cfg.OKX.Tickers), ep(cfg.OKX.FundingRate),
			cfg.OKX.BatchSize, time.Duration(cfg.OKX.BatchDelayMs)*time.Millisecond, okxTimeout),
		httpclient.NewGateClient(base, ep(cfg.Gate.Contracts)),
		httpclient.NewHyperLiquidClient(base, ep(cfg.HyperLiquid.Info)),
	}
}
