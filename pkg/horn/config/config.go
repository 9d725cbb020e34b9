package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/prover"
)

// DefaultMaxDepth is the depth bound used when none is configured.
const DefaultMaxDepth = prover.DefaultMaxDepth

// Config is the top-level configuration file
type Config struct {
	Prover Prover `yaml:"prover"`
	Store  Store  `yaml:"store"`
	Server Server `yaml:"server"`
	Log    Log    `yaml:"log"`
}

// Prover configures proof attempts
type Prover struct {
	MaxDepth    int  `yaml:"max_depth"`
	OccursCheck bool `yaml:"occurs_check"`
	SeedFacts   bool `yaml:"seed_facts"`
}

// Store configures persistence
type Store struct {
	// Path of the SQLite database. Empty keeps everything in memory.
	Path string `yaml:"path"`
}

// Server configures the HTTP proving service
type Server struct {
	Addr         string        `yaml:"addr"`
	MaxConns     int           `yaml:"max_conns"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Log configures the zap logger
type Log struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Prover: Prover{MaxDepth: DefaultMaxDepth},
		Server: Server{
			Addr:         ":8080",
			MaxConns:     64,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads a YAML config file on top of Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Prover.MaxDepth < 0 {
		return fmt.Errorf("%w: prover.max_depth must not be negative", internalerr.ErrInvalidConfig)
	}
	if c.Server.MaxConns < 0 {
		return fmt.Errorf("%w: server.max_conns must not be negative", internalerr.ErrInvalidConfig)
	}
	if _, err := c.Log.ZapLevel(); err != nil {
		return err
	}
	return nil
}

// Options converts the prover section into prover.Options.
func (p Prover) Options() prover.Options {
	return prover.Options{
		MaxDepth:    p.MaxDepth,
		OccursCheck: p.OccursCheck,
		SeedFacts:   p.SeedFacts,
	}
}

// ZapLevel parses the configured level. Empty means info.
func (l Log) ZapLevel() (zapcore.Level, error) {
	if l.Level == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return lvl, fmt.Errorf("%w: log.level: %v", internalerr.ErrInvalidConfig, err)
	}
	return lvl, nil
}
