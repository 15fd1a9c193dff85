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

	log.Printf("env=%s stream=%s recorder=%s", cfg.Environment, cfg.Detector.Stream, cfg.Recorder.Backend)

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeDetector(cfg)
	if err != nil {
		log.Fatalf("detector initialization failed: %v", err)
	}

	log.Printf("kafka: connected brokers=%v topic=%s", cfg.Kafka.Brokers, cfg.TelemetryTopic())

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
