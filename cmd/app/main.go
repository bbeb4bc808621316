package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"QuantDesk/internal/di"
	"QuantDesk/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	port := flag.Int("port", 0, "TCP port override")
	tickers := flag.String("tickers", "", "comma-separated ticker override")
	sampling := flag.Int("sampling", 0, "sampling period in minutes override")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *tickers != "" {
		cfg.Market.Tickers = nil
		for _, t := range strings.Split(*tickers, ",") {
			if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
				cfg.Market.Tickers = append(cfg.Market.Tickers, t)
			}
		}
	}
	if *sampling > 0 {
		cfg.Market.SamplingMinutes = *sampling
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	log.Printf("env=%s port=%d tickers=%v sampling=%dm",
		cfg.Environment, cfg.Server.Port, cfg.Market.Tickers, cfg.Market.SamplingMinutes)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
