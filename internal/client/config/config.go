// Package config loads runtime configuration for the nestdevhive CLI.
//
// Sources, later wins: built-in defaults, an optional JSON file given with
// -c or -config, then the short flags
//
//	-a string   address:port of the server's gRPC endpoint
//	-d string   directory holding the local session database
//	-t int      per-request timeout (seconds)
//	-i int      online status check interval (seconds)
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/nestdevhive/internal/flagx"
	"github.com/dmitrijs2005/nestdevhive/internal/timex"
)

type Config struct {
	ServerEndpointAddr  string
	DataDir             string
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DataDir = ".nestdevhive"
	c.RequestTimeout = 10 * time.Second
	c.OnlineCheckInterval = 5 * time.Second
}

// LoadConfig builds a Config from defaults, the JSON file and flags in args.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if cfg.ServerEndpointAddr == "" {
		return nil, errors.New("server address must not be empty")
	}
	if cfg.RequestTimeout <= 0 || cfg.OnlineCheckInterval <= 0 {
		return nil, errors.New("timeout and check interval must be positive")
	}
	return cfg, nil
}

// jsonConfig uses timex.Duration so intervals can be written as "10s".
type jsonConfig struct {
	ServerEndpointAddr  *string         `json:"server_endpoint_addr"`
	DataDir             *string         `json:"data_dir"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
}

func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ServerEndpointAddr != nil {
		cfg.ServerEndpointAddr = *jc.ServerEndpointAddr
	}
	if jc.DataDir != nil {
		cfg.DataDir = *jc.DataDir
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	return nil
}

func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-t", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "local data directory")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	interval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second
	return nil
}
