// Package config holds the tunable settings for the elevator bank binaries.
// Values come from Default, optionally overlaid by a YAML file and then by flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration.
type Config struct {
	Building BuildingConfig `yaml:"building"`
	Server   ServerConfig   `yaml:"server"`
	Journal  JournalConfig  `yaml:"journal"`
	Hub      HubConfig      `yaml:"hub"`
}

// BuildingConfig sizes the simulated building.
type BuildingConfig struct {
	Elevators int `yaml:"elevators"`
	Floors    int `yaml:"floors"`
	Capacity  int `yaml:"capacity"`
}

// ServerConfig controls the HTTP/WebSocket listener.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// JournalConfig controls the SQLite audit journal.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	// Retain bounds the in-memory event history. 0 keeps everything.
	Retain int `yaml:"retain"`
}

// HubConfig tunes WebSocket channel buffers.
type HubConfig struct {
	ClientSendBuffer int           `yaml:"client_send_buffer"`
	BroadcastBuffer  int           `yaml:"broadcast_buffer"`
	PollInterval     time.Duration `yaml:"poll_interval"`
}

// Default returns sensible defaults for a small building.
func Default() *Config {
	return &Config{
		Building: BuildingConfig{
			Elevators: 3,
			Floors:    10,
			Capacity:  8,
		},
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    "data/elevator-journal.db",
			Retain:  10000,
		},
		Hub: HubConfig{
			ClientSendBuffer: 64,  // Per WebSocket
			BroadcastBuffer:  256, // Handle bursts from bulk calls
			PollInterval:     200 * time.Millisecond,
		},
	}
}

// Load reads a YAML file on top of Default. Keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve returns Default when path is empty and Load(path) otherwise.
func Resolve(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks the building shape and buffer sizes.
func (c *Config) Validate() error {
	var errs []error
	if c.Building.Elevators < 1 {
		errs = append(errs, errors.New("building.elevators must be at least 1"))
	}
	if c.Building.Floors < 2 {
		errs = append(errs, errors.New("building.floors must be at least 2"))
	}
	if c.Building.Capacity < 1 {
		errs = append(errs, errors.New("building.capacity must be at least 1"))
	}
	if c.Hub.ClientSendBuffer < 1 || c.Hub.BroadcastBuffer < 1 {
		errs = append(errs, errors.New("hub buffers must be at least 1"))
	}
	if c.Hub.PollInterval <= 0 {
		errs = append(errs, errors.New("hub.poll_interval must be positive"))
	}
	if c.Journal.Retain < 0 {
		errs = append(errs, errors.New("journal.retain must not be negative"))
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, errors.New("journal.path is required when the journal is enabled"))
	}
	return errors.Join(errs...)
}
