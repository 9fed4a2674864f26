package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"rescue-screener/src/config"
	"rescue-screener/src/data_source/eastmoney"
	"rescue-screener/src/gateway"
	"rescue-screener/src/logger"
	"rescue-screener/src/network"
	"rescue-screener/src/screener"
)

// Smoke check against the live data source: fetch the screenable universe,
// pull one history window, then screen a small batch end to end.
func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	batchSize := flag.Int("batch", 10, "number of symbols to screen")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup Logger
	appLogger := logger.NewLogger(conf.LogLevel, conf.Name)

	// 4. Setup Components
	networkManager := network.NewNetworkManager(conf.MConfig, appLogger)
	source := eastmoney.NewEastMoneySource(networkManager, appLogger)
	pacer := gateway.NewIntervalPacer(time.Duration(conf.Screener.CallIntervalMs) * time.Millisecond)
	gw := gateway.NewMarketDataGateway(source, pacer, conf.Universe, conf.Screener.HistorySpanDays, appLogger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// 5. Universe check
	universe, err := gw.FetchUniverse(ctx)
	if err != nil {
		appLogger.Critical("Universe fetch failed: %v", err)
	}
	appLogger.Info("Universe: %d screenable symbols", len(universe))
	for i, snap := range universe {
		if i >= 5 {
			break
		}
		appLogger.Info("  %s %s price=%.2f change=%.2f%%", snap.Code, snap.Name, snap.LastPrice, snap.PercentChange)
	}

	// 6. History check for the first symbol
	if len(universe) > 0 {
		code := universe[0].Code
		bars, err := gw.FetchHistory(ctx, code, conf.Screener.PrimaryMinDays)
		if err != nil {
			appLogger.Error("History fetch failed for %s: %v", code, err)
		} else if bars == nil {
			appLogger.Warning("History for %s is shorter than %d sessions", code, conf.Screener.PrimaryMinDays)
		} else {
			last := bars[len(bars)-1]
			appLogger.Info("History for %s: %d bars, latest close %.2f on %s",
				code, len(bars), last.Close, last.Date.Format("2006-01-02"))
		}
	}

	// 7. Screen one batch
	sc := screener.NewScreener(gw, conf.Screener, appLogger)
	batch, err := sc.RunBatch(ctx, 0, *batchSize)
	if err != nil {
		appLogger.Critical("Batch screening failed: %v", err)
	}
	appLogger.Info("Batch: processed %d of %d, has_more=%v, matches=%d",
		batch.ProcessedCount, batch.TotalSymbols, batch.HasMore, len(batch.Results))
	for _, c := range batch.Results {
		appLogger.Info("  match: %s %s change=%.2f%%", c.Code, c.Name, c.ChangePct)
	}

	stats := gw.CallStatistics()
	appLogger.Info("Gateway calls: %d total, %.1f%% success", stats.TotalCalls, stats.SuccessRate)
}
