package main

import (
	"flag"
	"log"
	"os"

	"BioWatch/internal/di"
	"BioWatch/pkg/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s stream=%s baseline=%s", cfg.Environment, cfg.Detector.Stream, cfg.Baseline.Backend)

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeCollector(cfg)
	if err != nil {
		log.Fatalf("collector initialization failed: %v", err)
	}

	log.Printf("gateway: %s -> kafka %v topic=%s", cfg.Gateway.WebSocketURL, cfg.Kafka.Brokers, cfg.TelemetryTopic())

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
