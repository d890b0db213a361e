package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"furnace/config"
	"furnace/native/amm"
	"furnace/native/buyburn"
	"furnace/observability/logging"
	"furnace/state/token"
	"furnace/storage"
)

func main() {
	configPath := flag.String("config", "./furnace.toml", "Path to daemon configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup("furnaced", cfg.LogEnvironment, cfg.LogFile)

	engine, err := buildEngine(cfg)
	if err != nil {
		logger.Error("failed to build engine", "error", err)
		os.Exit(1)
	}

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.MetricsAddress, nil); err != nil {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Info("furnaced started", "metrics", cfg.MetricsAddress)

	keeper, err := config.ParseAddress(cfg.Engine.Keeper)
	if err != nil {
		logger.Error("keeper address required to drive rounds", "error", err)
		os.Exit(1)
	}

	interval := time.Duration(cfg.Engine.IntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			runRound(logger, engine, keeper)
		case sig := <-stop:
			logger.Info("shutting down", "signal", sig.String())
			return
		}
	}
}

func runRound(logger *slog.Logger, engine *buyburn.Engine, keeper [20]byte) {
	preview, err := engine.RoundPreview()
	if err != nil {
		logger.Warn("round preview failed", "error", err)
		return
	}
	deadline := time.Now().Add(time.Minute)
	if err := engine.BuyAndBurn(keeper, big.NewInt(0), big.NewInt(0), big.NewInt(0), deadline); err != nil {
		logger.Warn("round failed", "error", err,
			"needs_secondary", preview.NeedsSecondaryConversion,
			"primary_planned", preview.PrimaryAmount.String(),
			"secondary_planned", preview.SecondaryAmount.String())
		return
	}
	logger.Info("round committed",
		"primary_planned", preview.PrimaryAmount.String(),
		"secondary_planned", preview.SecondaryAmount.String())
}

func buildEngine(cfg *config.Config) (*buyburn.Engine, error) {
	ledger := token.NewLedger()
	registrations := []token.Token{
		{Symbol: cfg.Tokens.Primary, TransferTaxBps: cfg.Tokens.PrimaryTaxBps},
		{Symbol: cfg.Tokens.Secondary, TransferTaxBps: cfg.Tokens.SecondaryTaxBps},
		{Symbol: cfg.Tokens.TargetA},
		{Symbol: cfg.Tokens.TargetB},
	}
	for _, tok := range registrations {
		if err := ledger.Register(tok); err != nil {
			return nil, err
		}
	}

	market := amm.NewMarket(ledger)
	for _, pool := range cfg.Pools {
		addr, err := config.ParseAddress(pool.Address)
		if err != nil {
			return nil, err
		}
		reserveA, err := config.ParseAmount(pool.ReserveA)
		if err != nil {
			return nil, err
		}
		reserveB, err := config.ParseAmount(pool.ReserveB)
		if err != nil {
			return nil, err
		}
		if err := market.AddPool(pool.TokenA, pool.TokenB, reserveA, reserveB, pool.FeeBps, addr); err != nil {
			return nil, err
		}
	}

	for _, balance := range cfg.Balances {
		addr, err := config.ParseAddress(balance.Address)
		if err != nil {
			return nil, err
		}
		amount, err := config.ParseAmount(balance.Amount)
		if err != nil {
			return nil, err
		}
		if err := ledger.Mint(balance.Token, addr, amount); err != nil {
			return nil, err
		}
	}

	engineAddr, err := config.ParseAddress(cfg.Engine.Address)
	if err != nil {
		return nil, err
	}
	ownerAddr, err := config.ParseAddress(cfg.Engine.Owner)
	if err != nil {
		return nil, err
	}
	capPrimary, err := config.ParseAmount(cfg.Engine.CapPerSwapPrimary)
	if err != nil {
		return nil, err
	}
	capSecondary, err := config.ParseAmount(cfg.Engine.CapPerSwapSecondary)
	if err != nil {
		return nil, err
	}

	tokens := buyburn.Tokens{
		Primary:            cfg.Tokens.Primary,
		Secondary:          cfg.Tokens.Secondary,
		TargetA:            cfg.Tokens.TargetA,
		TargetB:            cfg.Tokens.TargetB,
		SecondaryToPrimary: cfg.Tokens.SecondaryToPrimary,
		PrimaryToTargetA:   cfg.Tokens.PrimaryToTargetA,
		PrimaryToTargetB:   cfg.Tokens.PrimaryToTargetB,
	}
	engineCfg := buyburn.Config{
		IncentiveFeeBps:     cfg.Engine.IncentiveFeeBps,
		CapPerSwapPrimary:   capPrimary,
		CapPerSwapSecondary: capSecondary,
		Interval:            time.Duration(cfg.Engine.IntervalSeconds) * time.Second,
	}
	engine, err := buyburn.NewEngine(engineAddr, ownerAddr, tokens, engineCfg)
	if err != nil {
		return nil, err
	}
	engine.SetState(ledger)
	engine.SetMarket(market)

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "rounds"))
	if err != nil {
		return nil, err
	}
	engine.SetRoundLedger(buyburn.NewLedger(storage.NewKVStore(db)))

	whitelist := make([][20]byte, 0, len(cfg.Engine.Whitelist))
	for _, raw := range cfg.Engine.Whitelist {
		addr, err := config.ParseAddress(raw)
		if err != nil {
			return nil, err
		}
		whitelist = append(whitelist, addr)
	}
	if len(whitelist) > 0 {
		if err := engine.SetWhitelist(ownerAddr, whitelist, true); err != nil {
			return nil, err
		}
	}
	return engine, nil
}
