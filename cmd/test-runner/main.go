// Package main runs the elevator bank soak scenarios and exits non-zero on failure.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/MRamiBalles/ElevatorBank/internal/platform/logger"
	"github.com/MRamiBalles/ElevatorBank/test"
)

func main() {
	cfg := test.DefaultSoakConfig()
	flag.IntVar(&cfg.Elevators, "elevators", cfg.Elevators, "Elevators in the building")
	flag.IntVar(&cfg.Floors, "floors", cfg.Floors, "Floors in the building")
	flag.IntVar(&cfg.Capacity, "capacity", cfg.Capacity, "Capacity of each elevator")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "Concurrent workers")
	flag.IntVar(&cfg.Operations, "ops", cfg.Operations, "Operations per worker")
	flag.IntVar(&cfg.BulkRounds, "bulk-rounds", cfg.BulkRounds, "Bulk call rounds")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	verbose := flag.Bool("v", false, "Log every dispatcher decision")
	flag.Parse()

	log := logger.Discard()
	if *verbose {
		log = logger.NewLogger()
	}

	fmt.Println("ELEVATOR BANK - SOAK TEST SUITE")
	fmt.Println(strings.Repeat("=", 60))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	soak := test.NewSoakTest(cfg, log)
	soak.RunTest(ctx)

	passed, failed := 0, 0
	for _, r := range soak.GetResults() {
		mark := "PASS"
		if r.Passed {
			passed++
		} else {
			failed++
			mark = "FAIL"
		}
		fmt.Printf("   [%s] %-28s %s\n", mark, r.ScenarioName, r.Reason)
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("   Passed: %d\n", passed)
	fmt.Printf("   Failed: %d\n", failed)

	summary, _ := json.MarshalIndent(soak.Metrics().Snapshot(), "", "  ")
	fmt.Printf("\nMetrics:\n%s\n", summary)

	if failed > 0 {
		os.Exit(1)
	}
}
