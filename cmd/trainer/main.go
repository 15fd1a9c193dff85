package main

import (
	"context"
	"flag"
	"log"
	"time"

	"BioWatch/internal/di"
	"BioWatch/internal/services/baseline"
	"BioWatch/pkg/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	out := flag.String("out", "", "profile output path (defaults to detector.profile_path)")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logger, err := di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}

	ch, err := di.ProvideClickHouseClient(cfg)
	if err != nil {
		log.Fatalf("clickhouse connect failed: %v", err)
	}

	store, err := di.ProvideBaselineStore(cfg, ch, logger)
	if err != nil {
		log.Fatalf("baseline store init failed: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	records, err := store.LoadAll(ctx)
	if err != nil {
		log.Fatalf("baseline load failed: %v", err)
	}
	if len(records) == 0 {
		log.Fatalf("no baseline rows in %s backend; run the collector against a fault-free stream first", cfg.Baseline.Backend)
	}

	profile := baseline.Train(records, baseline.Options{
		ZTol:      cfg.Detector.ZTol,
		TempFloor: cfg.Detector.Floors.Temperature,
		PHFloor:   cfg.Detector.Floors.PH,
		RPMFloor:  cfg.Detector.Floors.RPM,
	})

	path := *out
	if path == "" {
		path = cfg.Detector.ProfilePath
	}
	if err := profile.Save(path); err != nil {
		log.Fatalf("profile save failed: %v", err)
	}

	log.Printf("trained on %d rows -> %s", len(records), path)
	log.Printf("tolerances: temp=%.3fC ph=%.3f rpm=%.3f (z=%.1f)",
		profile.Specs.TemperatureTolC, profile.Specs.PHTol, profile.Specs.RPMTol, profile.Specs.ZTol)
}
