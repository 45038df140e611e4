// Package main is the entry point for the elevator bank server.
// It only wires dependencies and serves HTTP; no dispatch logic belongs here.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/MRamiBalles/ElevatorBank/internal/engine"
	"github.com/MRamiBalles/ElevatorBank/internal/events"
	"github.com/MRamiBalles/ElevatorBank/internal/infra/storage"
	"github.com/MRamiBalles/ElevatorBank/internal/network"
	"github.com/MRamiBalles/ElevatorBank/internal/platform/config"
	"github.com/MRamiBalles/ElevatorBank/internal/platform/logger"
	"github.com/MRamiBalles/ElevatorBank/internal/platform/metrics"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults are used when empty)")
	addr := flag.String("addr", "", "Listen address, overrides server.addr")
	elevators := flag.Int("elevators", 0, "Number of elevators, overrides building.elevators")
	floors := flag.Int("floors", 0, "Number of floors, overrides building.floors")
	capacity := flag.Int("capacity", 0, "Elevator capacity, overrides building.capacity")
	journalPath := flag.String("journal", "", "SQLite journal path, overrides journal.path")
	noJournal := flag.Bool("no-journal", false, "Disable the SQLite journal")
	flag.Parse()

	appLogger := logger.NewLogger()

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		appLogger.Error("Failed to load config: " + err.Error())
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *elevators > 0 {
		cfg.Building.Elevators = *elevators
	}
	if *floors > 0 {
		cfg.Building.Floors = *floors
	}
	if *capacity > 0 {
		cfg.Building.Capacity = *capacity
	}
	if *journalPath != "" {
		cfg.Journal.Path = *journalPath
	}
	if *noJournal {
		cfg.Journal.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		appLogger.Error("Invalid configuration: " + err.Error())
		os.Exit(1)
	}

	collector := metrics.NewCollector()

	var (
		persister events.EventPersister
		journal   network.JournalReader
	)
	if cfg.Journal.Enabled {
		appLogger.Infof("Initializing SQLite journal '%s'...", cfg.Journal.Path)
		db, err := storage.InitSQLite(cfg.Journal.Path)
		if err != nil {
			appLogger.Error("Failed to initialize SQLite: " + err.Error())
			os.Exit(1)
		}
		defer db.Close()
		repo := storage.NewSQLiteEventRepository(db)
		persister = storage.NewJournalAdapter(repo, collector)
		journal = repo
	}

	appLogger.Info("Bootstrapping EventLog...")
	eventLog := events.NewEventLog(persister)
	eventLog.SetRetention(cfg.Journal.Retain)
	eventLog.OnPersistError(func(e events.Event, err error) {
		appLogger.Errorf("Failed to journal event %s (%s): %v", e.ID, e.Type, err)
	})
	defer eventLog.Close()

	appLogger.Infof("Initializing %d elevators across %d floors (capacity %d)...",
		cfg.Building.Elevators, cfg.Building.Floors, cfg.Building.Capacity)
	dispatcher := engine.NewDispatcher(eventLog, appLogger, collector)
	if err := dispatcher.Initialize(cfg.Building.Elevators, cfg.Building.Floors, cfg.Building.Capacity); err != nil {
		appLogger.Error("Failed to initialize elevators: " + err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(dispatcher, appLogger, collector, cfg.Hub)
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, eventLog)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           network.NewAPI(dispatcher, hub, journal, collector, appLogger).Routes(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	go func() {
		appLogger.Infof("HTTP API & WS server listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Server failed: " + err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn("Graceful shutdown failed: " + err.Error())
	}
}
