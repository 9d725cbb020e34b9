package prolog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/horn/pkg/horn/corpus"
	"github.com/cognicore/horn/pkg/horn/kbio"
	"github.com/cognicore/horn/pkg/horn/logic"
)

type fakeWriter struct {
	content string
	err     error
}

func (f *fakeWriter) WriteRules(ctx context.Context, content string) error {
	if f.err != nil {
		return f.err
	}
	f.content = content
	return nil
}

func TestExporterWritesClauses(t *testing.T) {
	writer := &fakeWriter{}
	exporter := Exporter{Writer: writer}

	if err := exporter.Export(context.Background(), corpus.Criminal()); err != nil {
		t.Fatalf("Export: %v", err)
	}

	for _, want := range []string{
		"criminal(X) :- american(X), weapon(Y), sells(X, Y, Z), hostile(Z).",
		"sells(west, X, nono) :- missile(X), owns(nono, X).",
		"enemy(nono, america).",
	} {
		if !strings.Contains(writer.content, want) {
			t.Errorf("missing %q in:\n%s", want, writer.content)
		}
	}
	if strings.Contains(writer.content, "dynamic") {
		t.Error("dynamic directives only when requested")
	}
}

func TestExporterDynamic(t *testing.T) {
	writer := &fakeWriter{}
	exporter := Exporter{Writer: writer, Dynamic: true}
	if err := exporter.Export(context.Background(), corpus.Criminal()); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.HasPrefix(writer.content, ":- dynamic(american/1).\n") {
		t.Fatalf("expected sorted dynamic directives first:\n%s", writer.content)
	}
	if !strings.Contains(writer.content, ":- dynamic(sells/3).") {
		t.Error("missing sells/3 declaration")
	}
}

func TestExporterErrors(t *testing.T) {
	if err := (&Exporter{}).Export(context.Background(), corpus.Criminal()); err == nil {
		t.Fatal("expected nil writer error")
	}
	boom := errors.New("disk full")
	err := (&Exporter{Writer: &fakeWriter{err: boom}}).Export(context.Background(), corpus.Criminal())
	if !errors.Is(err, boom) {
		t.Fatalf("expected writer error, got %v", err)
	}
}

func TestClauseRenamesTaggedVariables(t *testing.T) {
	r := kbio.StandardizeApart(corpus.Criminal()).Rules[2]
	r = logic.Standardize(r, 7)

	got := Clause(r)
	if got != "weapon(V) :- missile(V)." {
		t.Fatalf("Clause = %q", got)
	}
}

func TestClauseKeepsDistinctVariablesDistinct(t *testing.T) {
	r := logic.Rule{Conclusion: logic.P("p", logic.V("x#1"), logic.V("x·1"), logic.V("X"))}
	got := Clause(r)
	if got != "p(V, V_1, X)." {
		t.Fatalf("Clause = %q", got)
	}
}

func TestClauseQuoting(t *testing.T) {
	r := logic.Rule{Conclusion: logic.P("likes",
		logic.C("Mary"), logic.C("it's"), logic.F("nil"), logic.F("f", logic.C("a b")))}
	got := Clause(r)
	want := `likes('Mary', 'it\'s', 'nil()', f('a b')).`
	if got != want {
		t.Fatalf("Clause = %s, want %s", got, want)
	}
}

func TestQueryNames(t *testing.T) {
	q, names := Query(logic.P("criminal", logic.V("who")))
	if q != "criminal(Who)." {
		t.Fatalf("Query = %q", q)
	}
	if names["who"] != "Who" {
		t.Fatalf("names = %v", names)
	}
}

func TestFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.pl")
	exporter := Exporter{Writer: FileWriter{Path: path}}
	if err := exporter.Export(context.Background(), corpus.Arithmetic()); err != nil {
		t.Fatalf("Export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(data), "\n") != len(corpus.Arithmetic().Rules) {
		t.Fatalf("expected one line per rule:\n%s", data)
	}
}
