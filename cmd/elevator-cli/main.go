// Package main is the interactive console for the elevator bank.
package main

import (
	"flag"
	"io"
	"os"

	"github.com/MRamiBalles/ElevatorBank/internal/console"
	"github.com/MRamiBalles/ElevatorBank/internal/engine"
	"github.com/MRamiBalles/ElevatorBank/internal/events"
	"github.com/MRamiBalles/ElevatorBank/internal/infra/storage"
	"github.com/MRamiBalles/ElevatorBank/internal/platform/config"
	"github.com/MRamiBalles/ElevatorBank/internal/platform/logger"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults are used when empty)")
	capacity := flag.Int("capacity", 0, "Elevator capacity, overrides building.capacity")
	journalPath := flag.String("journal", "", "Write an SQLite journal to this path")
	verbose := flag.Bool("v", false, "Log dispatcher activity to stderr")
	flag.Parse()

	var logOut io.Writer = io.Discard
	if *verbose {
		logOut = os.Stderr
	}
	appLogger := logger.NewLoggerTo(logOut)
	errLogger := logger.NewLoggerTo(os.Stderr)

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		errLogger.Error("Failed to load config: " + err.Error())
		os.Exit(1)
	}
	if *capacity > 0 {
		cfg.Building.Capacity = *capacity
	}

	var persister events.EventPersister
	if *journalPath != "" {
		db, err := storage.InitSQLite(*journalPath)
		if err != nil {
			errLogger.Error("Failed to initialize SQLite: " + err.Error())
			os.Exit(1)
		}
		defer db.Close()
		persister = storage.NewJournalAdapter(storage.NewSQLiteEventRepository(db), nil)
	}

	eventLog := events.NewEventLog(persister)
	dispatcher := engine.NewDispatcher(eventLog, appLogger, nil)

	err = console.NewShell(os.Stdin, os.Stdout, dispatcher, cfg.Building.Capacity).Run()
	eventLog.Close()
	if err != nil {
		errLogger.Error("Console failed: " + err.Error())
		os.Exit(1)
	}
}
