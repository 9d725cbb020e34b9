// Package prolog renders knowledge bases as Prolog programs and checks
// proof outcomes against an embedded Prolog interpreter.
package prolog

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/cognicore/horn/pkg/horn/logic"
)

// RuleWriter persists a rendered program to a destination (file, stdout, etc.).
type RuleWriter interface {
	WriteRules(ctx context.Context, content string) error
}

// Exporter renders knowledge bases as Prolog clauses.
type Exporter struct {
	Writer RuleWriter
	// Dynamic adds a dynamic/1 directive for every referenced predicate so
	// goals on undefined predicates fail instead of raising an error.
	Dynamic bool
}

// Export renders kb and hands it to the writer.
func (e *Exporter) Export(ctx context.Context, kb logic.KB) error {
	if e.Writer == nil {
		return fmt.Errorf("prolog exporter: nil writer")
	}
	return e.Writer.WriteRules(ctx, Program(kb, e.Dynamic))
}

// FileWriter writes the program to a file path.
type FileWriter struct {
	Path string
}

// WriteRules implements RuleWriter.
func (w FileWriter) WriteRules(ctx context.Context, content string) error {
	return os.WriteFile(w.Path, []byte(content), 0o644)
}

// Program renders kb as a Prolog program, one clause per line.
func Program(kb logic.KB, dynamic bool) string {
	if !dynamic {
		return program(kb, nil)
	}
	return program(kb, indicators(kb.Rules))
}

func program(kb logic.KB, dynamic []string) string {
	var b strings.Builder
	for _, ind := range dynamic {
		fmt.Fprintf(&b, ":- dynamic(%s).\n", ind)
	}
	for _, r := range kb.Rules {
		b.WriteString(Clause(r))
		b.WriteByte('\n')
	}
	return b.String()
}

// Clause renders one rule. Variables are renamed per clause so names that
// carry standardization tags stay valid Prolog.
func Clause(r logic.Rule) string {
	names := newVarNames()
	var b strings.Builder
	writeAtom(&b, r.Conclusion, names)
	for i, c := range r.Conditions {
		if i == 0 {
			b.WriteString(" :- ")
		} else {
			b.WriteString(", ")
		}
		writeAtom(&b, c, names)
	}
	b.WriteByte('.')
	return b.String()
}

// Query renders a as a query and returns the Prolog variable name chosen
// for each statement variable.
func Query(a logic.Atom) (string, map[string]string) {
	names := newVarNames()
	var b strings.Builder
	writeAtom(&b, a, names)
	b.WriteByte('.')
	return b.String(), names.byVar
}

// Indicator returns the name/arity indicator of a.
func Indicator(a logic.Atom) string {
	return atomName(a.Predicate) + "/" + strconv.Itoa(len(a.Args))
}

func indicators(rules []logic.Rule, extra ...logic.Atom) []string {
	seen := make(map[string]struct{})
	for _, a := range extra {
		seen[Indicator(a)] = struct{}{}
	}
	for _, r := range rules {
		seen[Indicator(r.Conclusion)] = struct{}{}
		for _, c := range r.Conditions {
			seen[Indicator(c)] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for ind := range seen {
		out = append(out, ind)
	}
	sort.Strings(out)
	return out
}

type varNames struct {
	byVar map[string]string
	used  map[string]struct{}
}

func newVarNames() *varNames {
	return &varNames{byVar: make(map[string]string), used: make(map[string]struct{})}
}

func (n *varNames) name(v string) string {
	if got, ok := n.byVar[v]; ok {
		return got
	}
	base := "V"
	if v != "" && isASCIIWord(v) {
		base = strings.ToUpper(v[:1]) + v[1:]
	}
	if c := base[0]; c == '_' || (c >= '0' && c <= '9') {
		base = "V" + base
	}
	name := base
	for i := 1; ; i++ {
		if _, taken := n.used[name]; !taken {
			break
		}
		name = base + "_" + strconv.Itoa(i)
	}
	n.used[name] = struct{}{}
	n.byVar[v] = name
	return name
}

func writeAtom(b *strings.Builder, a logic.Atom, names *varNames) {
	b.WriteString(atomName(a.Predicate))
	if len(a.Args) > 0 {
		writeArgs(b, a.Args, names)
	}
}

func writeArgs(b *strings.Builder, args []logic.Term, names *varNames) {
	b.WriteByte('(')
	for i, t := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		writeTerm(b, t, names)
	}
	b.WriteByte(')')
}

func writeTerm(b *strings.Builder, t logic.Term, names *varNames) {
	switch t := t.(type) {
	case logic.Var:
		b.WriteString(names.name(t.Name))
	case logic.Const:
		b.WriteString(atomName(t.Name))
	case logic.Func:
		if len(t.Args) == 0 {
			// Prolog has no zero-arity compounds; keep it distinct from the constant.
			b.WriteString(quote(t.Name + "()"))
			return
		}
		b.WriteString(atomName(t.Name))
		writeArgs(b, t.Args, names)
	}
}

// atomName returns name unquoted when it is a plain lower-case Prolog atom.
func atomName(name string) string {
	if name != "" && name[0] >= 'a' && name[0] <= 'z' && isASCIIWord(name) {
		return name
	}
	return quote(name)
}

func quote(name string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`)
	return "'" + r.Replace(name) + "'"
}

func isASCIIWord(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		default:
			return false
		}
	}
	return s != ""
}
