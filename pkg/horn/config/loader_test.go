package config

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/horn/pkg/horn/kbio"
	"github.com/cognicore/horn/pkg/horn/logic"
	"github.com/cognicore/horn/pkg/horn/prover"
)

func TestLoaderAllEmpty(t *testing.T) {
	loader := Loader{}

	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Empty loader should succeed: %v", err)
	}
	if comp.Config == nil || comp.Config.Prover.MaxDepth != DefaultMaxDepth {
		t.Errorf("expected default config, got %+v", comp.Config)
	}
	if len(comp.KB.Rules) != 0 {
		t.Errorf("KB should be empty, got %d rules", len(comp.KB.Rules))
	}
	if comp.Statement != nil {
		t.Errorf("Statement should be nil, got %v", comp.Statement)
	}
}

func TestLoaderProves(t *testing.T) {
	loader := Loader{
		ConfigPath:    "../../../testdata/config/horn.yaml",
		KBPath:        "../../../testdata/kb/criminal.yaml",
		StatementPath: "../../../testdata/kb/criminal_west.json",
	}

	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if comp.Statement == nil {
		t.Fatal("Should have statement")
	}

	res, err := prover.New(comp.Config.Prover.Options()).Prove(context.Background(), comp.KB, *comp.Statement)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if res.Answer.String() != "criminal(west)" {
		t.Errorf("unexpected answer %s", res.Answer)
	}
}

func TestLoaderKeepsVariableNames(t *testing.T) {
	loader := Loader{KBPath: "../../../testdata/kb/criminal.pl"}

	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, r := range comp.KB.Rules {
		for _, v := range logic.Variables(r) {
			if strings.Contains(v.Name, kbio.ApartSeparator) {
				t.Fatalf("variable %s renamed at load time", v.Name)
			}
		}
	}
}

func TestLoaderNonExistentKB(t *testing.T) {
	loader := Loader{KBPath: filepath.Join(t.TempDir(), "nonexistent.json")}

	if _, err := loader.Load(); err == nil {
		t.Error("Load should fail with non-existent knowledge base")
	}
}

func TestLoaderNonExistentConfig(t *testing.T) {
	loader := Loader{ConfigPath: filepath.Join(t.TempDir(), "nonexistent.yaml")}

	if _, err := loader.Load(); err == nil {
		t.Error("Load should fail with non-existent config")
	}
}
