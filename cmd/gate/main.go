package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"solana-gate/internal/activity"
	"solana-gate/internal/api"
	"solana-gate/internal/blockchain"
	"solana-gate/internal/candidate"
	"solana-gate/internal/cluster"
	"solana-gate/internal/config"
	"solana-gate/internal/exit"
	"solana-gate/internal/gate"
	"solana-gate/internal/health"
	"solana-gate/internal/jupiter"
	"solana-gate/internal/liquidity"
	"solana-gate/internal/metrics"
	"solana-gate/internal/quote"
	"solana-gate/internal/solrpc"
	"solana-gate/internal/storage"
	"solana-gate/internal/tradability"
	"solana-gate/internal/websocket"
)

func main() {
	setupLogger()
	log.Info().Msg("gate service starting...")

	cfg, err := config.NewManager("config/config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := storage.NewDB(cfg.Get().Storage.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}

	memSink := activity.NewMemorySink(cfg.Get().Storage.ActivityBufferSize)
	sink := activity.NewMultiSink(memSink, activity.NewStorageSink(db), activity.NewConsoleSink())

	quoteClient := quote.NewClient([]quote.Endpoint{
		{Name: "primary", BaseURL: cfg.Get().Jupiter.QuoteAPIURL},
	})
	rpcClient := solrpc.NewClient([]solrpc.Endpoint{
		{Name: "shyft", URL: cfg.GetShyftRPCURL(), APIKey: cfg.GetShyftAPIKey()},
		{Name: "fallback", URL: cfg.GetFallbackRPCURL(), APIKey: cfg.GetFallbackAPIKey()},
	})
	monitor := liquidity.NewMonitor()
	fundingCache := cluster.NewCache()
	probe := tradability.NewProbe("https://frontend-api.pump.fun/coins", quoteClient, rpcClient, 1000, 3)

	var lpFeed *liquidity.Feed
	if wsURL := cfg.GetShyftWSURL(); wsURL != "" {
		wsClient := websocket.NewClient(wsURL)
		if err := wsClient.Connect(); err != nil {
			log.Error().Err(err).Msg("failed to connect liquidity event feed, LP monitoring will rely on polling only")
		} else {
			lpFeed = liquidity.NewFeed(wsClient, monitor)
		}
	}

	gcfg := cfg.GetGate()
	orchestrator := gate.New(gate.Config{
		DynamicCapCeiling:        decimal.NewFromFloat(gcfg.DynamicCapCeiling),
		ObservationDelay:         time.Duration(gcfg.ObservationDelayMs) * time.Millisecond,
		HighLiquidityFastPathUSD: decimal.NewFromFloat(gcfg.HighLiquidityFastPathUSD),
		ObservationDriftPct:      decimal.NewFromFloat(gcfg.ObservationDriftPercent),
	}, gate.Collaborators{
		QuoteClient:  quoteClient,
		RPCClient:    rpcClient,
		Monitor:      monitor,
		FundingCache: fundingCache,
		Probe:        probe,
		Sink:         sink,
	})

	var signer exit.WalletSigner
	if pk := cfg.GetPrivateKey(); pk != "" {
		wallet, err := blockchain.NewWallet(pk)
		if err != nil {
			log.Error().Err(err).Msg("failed to load wallet, auto-exit will notify only")
		} else {
			blockchainRPC := blockchain.NewRPCClient(cfg.GetShyftRPCURL(), cfg.GetFallbackRPCURL(), cfg.GetShyftAPIKey())
			jupiterClient := jupiter.NewClient(cfg.Get().Jupiter.QuoteAPIURL, cfg.Get().Jupiter.SlippageBps, time.Duration(cfg.Get().Jupiter.TimeoutSeconds)*time.Second)
			signer = exit.NewJupiterSigner(wallet, blockchainRPC, jupiterClient)
		}
	} else {
		log.Warn().Msg("no wallet private key configured, auto-exit will notify only")
	}

	ecfg := cfg.GetExit()
	engine := exit.New(exit.Config{
		ScanInterval:      time.Duration(ecfg.ScanIntervalSeconds) * time.Second,
		TakeProfitPercent: ecfg.TakeProfitPercent,
		StopLossPercent:   ecfg.StopLossPercent,
		AutoExecute:       ecfg.AutoExecute,
	}, exit.Collaborators{
		Prices:  exit.NewQuotePriceSource(quoteClient, func() float64 { return 1 }),
		Monitor: monitor,
		Probe:   probe,
		Signer:  signer,
		Sink:    sink,
	})

	cfg.SetOnChange(func(c *config.Config) {
		log.Info().Msg("config reloaded")
	})

	reg := prometheus.NewRegistry()
	metricsRegistry := metrics.New(reg)
	orchestrator.OnDecision(func(c candidate.Candidate, d candidate.Decision) {
		metricsRegistry.ObserveDecision(d, 0)
		if lpFeed != nil && d.State != candidate.StateBlocked && c.LPMintAddress != "" {
			if err := lpFeed.TrackLPMint(c.TokenAddress, c.LPMintAddress); err != nil {
				log.Warn().Err(err).Str("token", c.TokenAddress).Msg("failed to subscribe LP mint to liquidity feed")
			}
		}
	})
	engine.OnExit(func(p *exit.Position) {
		metricsRegistry.ObserveExit(p.ExitReason)
	})

	checker := health.NewChecker(cfg.GetShyftRPCURL(), cfg.Get().Jupiter.QuoteAPIURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checker.Start(ctx)
	engine.Start(ctx)

	server := api.NewServer(cfg.Get().API.ListenHost, cfg.Get().API.ListenPort, orchestrator, engine, memSink, reg)
	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("api server stopped")
		}
	}()

	quitCh := make(chan os.Signal, 1)
	signal.Notify(quitCh, syscall.SIGINT, syscall.SIGTERM)
	<-quitCh

	log.Info().Msg("shutting down...")
	engine.Stop()
	server.Shutdown()
	log.Info().Msg("goodbye")
}

func setupLogger() {
	log.Logger = zerolog.New(
		zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"},
	).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "1" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}
