package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"
)

// EnvPrefix is the prefix of environment variables that override flags
const EnvPrefix = "QUICKLY"

// Config holds all application configuration.
type Config struct {
	Host           string        `config:"host"`
	Port           int           `config:"port"`
	ReadBufferSize int           `config:"buffer"`
	ReadTimeout    time.Duration `config:"read.timeout"`
	WriteTimeout   time.Duration `config:"write.timeout"`
	Workers        int           `config:"workers"`
	MaxConnections int           `config:"max.conns"`
	Env            string        `config:"env"`
	LogLevel       string        `config:"log.level"`

	// File is an optional JSON config file; env vars win over it
	File string `config:"-"`
}

var (
	ErrInvalidPort       = errors.New("port must be between 1 and 65535")
	ErrInvalidBufferSize = errors.New("read buffer size must be positive")
)

// Default returns the built-in defaults
func Default() *Config {
	return &Config{
		Host:           "127.0.0.1",
		Port:           3000,
		ReadBufferSize: 1024,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		Env:            "development",
		LogLevel:       "info",
	}
}

// New loads configuration from the process command line and environment
func New() (*Config, error) {
	return Load(flag.CommandLine, os.Args[1:])
}

// Load builds a Config from, lowest precedence first: defaults, the JSON
// file named by -config, QUICKLY_* environment variables and flags set
// explicitly in args.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := Default()
	cfg.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	explicit := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		explicit[f.Name] = f.Value.String()
	})

	m := NewManager()
	if cfg.File != "" {
		if err := m.LoadFromJSON(cfg.File); err != nil {
			return nil, err
		}
	}
	m.LoadFromEnv(EnvPrefix)

	if err := m.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("apply config overrides: %w", err)
	}

	for name, value := range explicit {
		if err := fs.Set(name, value); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RegisterFlags binds the config fields to fs
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Host, "host", c.Host, "Address to bind")
	fs.IntVar(&c.Port, "port", c.Port, "HTTP server port")
	fs.IntVar(&c.ReadBufferSize, "buffer", c.ReadBufferSize, "Request read buffer size (bytes)")
	fs.DurationVar(&c.ReadTimeout, "read-timeout", c.ReadTimeout, "Connection read timeout")
	fs.DurationVar(&c.WriteTimeout, "write-timeout", c.WriteTimeout, "Connection write timeout")
	fs.IntVar(&c.Workers, "workers", c.Workers, "Connection workers (0 = sequential)")
	fs.IntVar(&c.MaxConnections, "max-conns", c.MaxConnections, "Max open connections when workers > 0")
	fs.StringVar(&c.Env, "env", c.Env, "Environment (development/production)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug/info/warn/error)")
	fs.StringVar(&c.File, "config", c.File, "Optional JSON config file")
}

// Validate checks the values the server cannot start without
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}
	if c.ReadBufferSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBufferSize, c.ReadBufferSize)
	}
	return nil
}

// IsProduction reports whether Env is "production"
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
