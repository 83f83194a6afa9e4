// Package config loads dashboard settings from a YAML file or CLI flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBackendURL        = "http://localhost:8000"
	DefaultWebsocketURL      = "ws://localhost:8000/ws/prices"
	DefaultListenAddr        = ":8080"
	DefaultReconnectDelay    = 2 * time.Second
	DefaultPollPriceInterval = 5 * time.Second
)

// Config holds every knob the dashboard core reads at startup.
type Config struct {
	// BackendURL base URL of the bot backend query service.
	BackendURL string
	// WebsocketURL full URL of the backend price stream endpoint.
	WebsocketURL string
	// ListenAddr address the dashboard HTTP server binds to.
	ListenAddr string
	// ReconnectDelay pause before the single scheduled stream reconnect.
	ReconnectDelay time.Duration
	// PollPriceInterval cadence of the polled price fallback.
	PollPriceInterval time.Duration
	// StartingEquity seed of the cumulative equity series when the backend
	// sends no aggregate value.
	StartingEquity decimal.Decimal
}

// FileConfig is the YAML shape of Config. Durations are strings in Go
// duration syntax, money is a string to avoid float precision issues.
type FileConfig struct {
	BackendURL        string `yaml:"backend_url"`
	WebsocketURL      string `yaml:"websocket_url"`
	ListenAddr        string `yaml:"listen_addr"`
	ReconnectDelay    string `yaml:"reconnect_delay,omitempty"`
	PollPriceInterval string `yaml:"poll_price_interval,omitempty"`
	StartingEquity    string `yaml:"starting_equity,omitempty"`
}

// Get reads configuration from the file named by -config, or from the
// remaining CLI flags when no file is given.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	backend := flag.String("backend", DefaultBackendURL, "backend base URL")
	ws := flag.String("ws", DefaultWebsocketURL, "price stream websocket URL")
	listen := flag.String("listen", DefaultListenAddr, "dashboard listen address")
	reconnect := flag.Duration("reconnectdelay", DefaultReconnectDelay, "stream reconnect delay")
	poll := flag.Duration("pollpriceinterval", DefaultPollPriceInterval, "polled price fallback interval")
	equity := flag.String("startingequity", "1000", "starting equity for the cumulative series")
	flag.Parse()

	if *configPath != "" {
		return FromFile(*configPath)
	}

	startingEquity, err := decimal.NewFromString(*equity)
	if err != nil {
		return Config{}, fmt.Errorf("invalid --startingequity provided, --startingequity=%s", *equity)
	}

	cfg := Config{
		BackendURL:        *backend,
		WebsocketURL:      *ws,
		ListenAddr:        *listen,
		ReconnectDelay:    *reconnect,
		PollPriceInterval: *poll,
		StartingEquity:    startingEquity,
	}
	return withDefaults(cfg), nil
}

// FromFile loads and validates a YAML config.
func FromFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var fc FileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return Config{}, fmt.Errorf("parse yaml config %s: %w", path, err)
	}

	cfg := Config{
		BackendURL:   fc.BackendURL,
		WebsocketURL: fc.WebsocketURL,
		ListenAddr:   fc.ListenAddr,
	}
	if fc.ReconnectDelay != "" {
		cfg.ReconnectDelay, err = time.ParseDuration(fc.ReconnectDelay)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'reconnect_delay' param in yaml config: %w", err)
		}
	}
	if fc.PollPriceInterval != "" {
		cfg.PollPriceInterval, err = time.ParseDuration(fc.PollPriceInterval)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'poll_price_interval' param in yaml config: %w", err)
		}
	}
	if fc.StartingEquity != "" {
		cfg.StartingEquity, err = decimal.NewFromString(fc.StartingEquity)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'starting_equity' param in yaml config: %w", err)
		}
	}
	return withDefaults(cfg), nil
}

func withDefaults(cfg Config) Config {
	if cfg.BackendURL == "" {
		cfg.BackendURL = DefaultBackendURL
	}
	if cfg.WebsocketURL == "" {
		cfg.WebsocketURL = DefaultWebsocketURL
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.PollPriceInterval <= 0 {
		cfg.PollPriceInterval = DefaultPollPriceInterval
	}
	if cfg.StartingEquity.IsZero() {
		cfg.StartingEquity = decimal.NewFromInt(1000)
	}
	return cfg
}
