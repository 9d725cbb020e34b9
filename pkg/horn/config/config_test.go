package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/cognicore/horn/pkg/horn/internalerr"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := Load("../../../testdata/config/horn.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Prover.MaxDepth != 12 {
		t.Errorf("MaxDepth = %d, want 12", cfg.Prover.MaxDepth)
	}
	if !cfg.Prover.OccursCheck {
		t.Error("expected occurs_check")
	}
	if cfg.Store.Path != "horn.db" {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
	if cfg.Server.Addr != "127.0.0.1:9090" || cfg.Server.MaxConns != 8 {
		t.Errorf("unexpected server section: %+v", cfg.Server)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.Server.ReadTimeout)
	}

	lvl, err := cfg.Log.ZapLevel()
	if err != nil || lvl != zapcore.DebugLevel {
		t.Errorf("ZapLevel = %v, %v", lvl, err)
	}

	opts := cfg.Prover.Options()
	if opts.MaxDepth != 12 || !opts.OccursCheck || opts.SeedFacts {
		t.Errorf("unexpected options: %+v", opts)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "horn.yaml")
	if err := os.WriteFile(path, []byte("prover:\n  seed_facts: true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Prover.MaxDepth != DefaultMaxDepth {
		t.Errorf("MaxDepth = %d, want default %d", cfg.Prover.MaxDepth, DefaultMaxDepth)
	}
	if !cfg.Prover.SeedFacts {
		t.Error("expected seed_facts")
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want default", cfg.Server.Addr)
	}
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]string{
		"negative depth": "prover:\n  max_depth: -1\n",
		"bad level":      "log:\n  level: loud\n",
		"bad yaml":       "prover: [",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "horn.yaml")
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
