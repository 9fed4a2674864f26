package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rescue-screener/src/config"
	"rescue-screener/src/data_source/eastmoney"
	"rescue-screener/src/export"
	"rescue-screener/src/gateway"
	"rescue-screener/src/interfaces"
	"rescue-screener/src/logger"
	"rescue-screener/src/network"
	"rescue-screener/src/screener"
	"rescue-screener/src/server"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	config, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(config.LogLevel, config.Name)

	// 2. Setup Components
	var networkManager interfaces.INetworkManager = network.NewNetworkManager(config.MConfig, appLogger)
	var source interfaces.IMarketDataSource = eastmoney.NewEastMoneySource(networkManager, appLogger)

	pacer := gateway.NewIntervalPacer(time.Duration(config.Screener.CallIntervalMs) * time.Millisecond)
	var gw interfaces.IMarketGateway = gateway.NewMarketDataGateway(source, pacer, config.Universe, config.Screener.HistorySpanDays, appLogger)

	sc := screener.NewScreener(gw, config.Screener, appLogger)
	exporter := export.NewCSVExporter(config.ExportDir, appLogger)

	// 3. Start Server
	srv := server.NewServer(config.MConfig, sc, gw, exporter, appLogger)

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	if err := srv.Stop(); err != nil {
		appLogger.Error("Server shutdown failed: %v", err)
	}
}
