package logic

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cognicore/horn/pkg/horn/internalerr"
)

func TestIsGround(t *testing.T) {
	tests := []struct {
		term Term
		want bool
	}{
		{C("a"), true},
		{V("x"), false},
		{F("f", C("a"), C("b")), true},
		{F("f", C("a"), F("g", V("x"))), false},
		{F("nil"), true},
	}
	for _, tt := range tests {
		if got := IsGround(tt.term); got != tt.want {
			t.Errorf("IsGround(%s) = %v, want %v", tt.term, got, tt.want)
		}
	}

	if !P("p", C("a"), F("f", C("b"))).IsGround() {
		t.Error("expected p(a, f(b)) to be ground")
	}
	if P("p", C("a"), V("x")).IsGround() {
		t.Error("expected p(a, X) not to be ground")
	}
}

func TestTermString(t *testing.T) {
	got := P("leq", V("x"), F("add", C("three"), V("y"))).String()
	if got != "leq(X, add(three,Y))" {
		t.Errorf("unexpected rendering: %s", got)
	}
}

func TestAtomKeyDistinguishesKinds(t *testing.T) {
	a := P("p", V("x"))
	b := P("p", C("x"))
	c := P("p", F("x"))
	if a.Key() == b.Key() || b.Key() == c.Key() || a.Key() == c.Key() {
		t.Fatalf("keys collide: %q %q %q", a.Key(), b.Key(), c.Key())
	}
	if P("p", C("a"), C("b")).Key() == P("p", C("a,b")).Key() {
		t.Fatal("argument boundaries must be part of the key")
	}
	if P("p", C("a")).Key() != P("p", C("a")).Key() {
		t.Fatal("equal atoms must share a key")
	}
}

func TestNewTheta(t *testing.T) {
	if _, err := NewTheta(V("x"), C("a")); err != nil {
		t.Fatalf("NewTheta(var): %v", err)
	}
	_, err := NewTheta(C("a"), V("x"))
	if !errors.Is(err, internalerr.ErrTheta) {
		t.Fatalf("expected ErrTheta, got %v", err)
	}
}

func TestLookupFirstMatch(t *testing.T) {
	env := Env{
		{Origin: V("x"), Result: C("a")},
		{Origin: V("x"), Result: C("b")},
	}
	got, ok := env.Lookup(V("x"))
	if !ok || !Equal(got, C("a")) {
		t.Fatalf("Lookup = %v, %v; want a", got, ok)
	}
	if _, ok := env.Lookup(V("y")); ok {
		t.Fatal("unexpected binding for Y")
	}
}

func TestResolveShallowAndDeep(t *testing.T) {
	env := Env{
		{Origin: V("x"), Result: V("y")},
		{Origin: V("y"), Result: F("f", V("z"))},
		{Origin: V("z"), Result: C("a")},
	}
	if got := env.ResolveShallow(V("x")); !Equal(got, V("y")) {
		t.Errorf("ResolveShallow(X) = %s, want Y", got)
	}
	if got := env.ResolveShallow(C("k")); !Equal(got, C("k")) {
		t.Errorf("ResolveShallow(k) = %s, want k", got)
	}
	if got := env.Resolve(V("x")); !Equal(got, F("f", C("a"))) {
		t.Errorf("Resolve(X) = %s, want f(a)", got)
	}
	if got := env.Resolve(V("w")); !Equal(got, V("w")) {
		t.Errorf("Resolve(W) = %s, want W", got)
	}
}

func TestResolveIdempotent(t *testing.T) {
	env := Env{
		{Origin: V("x"), Result: F("g", V("y"), V("u"))},
		{Origin: V("y"), Result: V("z")},
		{Origin: V("z"), Result: C("b")},
	}
	for _, term := range []Term{V("x"), V("y"), V("u"), F("h", V("x"), C("c"))} {
		once := env.Resolve(term)
		twice := env.Resolve(once)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("Resolve(%s) not idempotent (-once +twice):\n%s", term, diff)
		}
	}
}

func TestUnifyNestedFunctions(t *testing.T) {
	a := F("add", C("zero"), V("x"))
	b := F("add", V("y"), F("add", V("zero"), V("zero")))

	env, err := Unify(a, b, nil)
	if err != nil {
		t.Fatalf("Unify: %v", err)
	}
	if diff := cmp.Diff(env.Resolve(a), env.Resolve(b)); diff != "" {
		t.Fatalf("resolved terms differ (-a +b):\n%s", diff)
	}
}

func TestUnifySymmetric(t *testing.T) {
	pairs := []struct {
		a, b Term
		ok   bool
	}{
		{V("x"), C("a"), true},
		{V("x"), V("y"), true},
		{F("f", V("x"), C("b")), F("f", C("a"), V("y")), true},
		{F("g", V("x"), V("x")), F("g", C("a"), C("b")), false},
		{F("g", V("x"), V("x")), F("g", V("y"), C("b")), true},
		{F("f", V("x")), F("h", V("x")), false},
		{C("a"), C("b"), false},
		{C("a"), F("a"), false},
		{F("p", V("x"), F("q", V("x"))), F("p", F("r", V("y")), V("z")), true},
	}
	for _, p := range pairs {
		envAB, errAB := Unify(p.a, p.b, nil)
		envBA, errBA := Unify(p.b, p.a, nil)
		if (errAB == nil) != p.ok || (errBA == nil) != p.ok {
			t.Errorf("unify(%s, %s): got %v / %v, want ok=%v", p.a, p.b, errAB, errBA, p.ok)
			continue
		}
		if !p.ok {
			continue
		}
		if !Equal(envAB.Resolve(p.a), envAB.Resolve(p.b)) {
			t.Errorf("unify(%s, %s): sides differ after resolving", p.a, p.b)
		}
		if !Equal(envBA.Resolve(p.a), envBA.Resolve(p.b)) {
			t.Errorf("unify(%s, %s): sides differ after resolving", p.b, p.a)
		}
	}
}

func TestUnifySelfAddsNothing(t *testing.T) {
	env := Env{{Origin: V("x"), Result: C("a")}}
	for _, term := range []Term{V("x"), V("y"), F("f", V("x"), V("z")), C("c")} {
		got, err := Unify(term, term, env)
		if err != nil {
			t.Fatalf("Unify(%s, %s): %v", term, term, err)
		}
		if len(got) != len(env) {
			t.Errorf("Unify(%s, %s) added %d bindings", term, term, len(got)-len(env))
		}
	}
}

func TestUnifyChasesBindings(t *testing.T) {
	env := Env{{Origin: V("x"), Result: C("a")}}

	got, err := Unify(V("x"), V("y"), env)
	if err != nil {
		t.Fatalf("Unify: %v", err)
	}
	if r := got.Resolve(V("y")); !Equal(r, C("a")) {
		t.Fatalf("Y resolved to %s, want a", r)
	}

	if _, err := Unify(V("x"), C("b"), env); !errors.Is(err, internalerr.ErrUnify) {
		t.Fatalf("expected ErrUnify, got %v", err)
	}
}

func TestUnifyAtomsMismatch(t *testing.T) {
	if _, err := UnifyAtoms(P("p", C("a")), P("q", C("a")), nil); !errors.Is(err, internalerr.ErrUnify) {
		t.Errorf("name mismatch: expected ErrUnify, got %v", err)
	}
	if _, err := UnifyAtoms(P("p", C("a")), P("p", C("a"), C("b")), nil); !errors.Is(err, internalerr.ErrUnify) {
		t.Errorf("arity mismatch: expected ErrUnify, got %v", err)
	}
	if _, err := Unify(F("p", C("a")), F("p", C("a"), C("b")), nil); !errors.Is(err, internalerr.ErrUnify) {
		t.Errorf("function arity mismatch: expected ErrUnify, got %v", err)
	}
}

func TestUnifyLeavesEnvUntouched(t *testing.T) {
	env := make(Env, 1, 8)
	env[0] = Theta{Origin: V("k"), Result: C("c")}

	first, err := Unify(V("x"), C("a"), env)
	if err != nil {
		t.Fatalf("Unify: %v", err)
	}
	second, err := Unify(V("x"), C("b"), env)
	if err != nil {
		t.Fatalf("Unify: %v", err)
	}
	if r := first.Resolve(V("x")); !Equal(r, C("a")) {
		t.Fatalf("first branch clobbered: X = %s", r)
	}
	if r := second.Resolve(V("x")); !Equal(r, C("b")) {
		t.Fatalf("second branch: X = %s", r)
	}
	if len(env) != 1 {
		t.Fatalf("input env changed length to %d", len(env))
	}

	bound := env.Bind(V("y"), C("d"))
	if len(bound) != 2 || len(env) != 1 {
		t.Fatalf("Bind: got len %d, input len %d", len(bound), len(env))
	}
}

func TestOccursCheck(t *testing.T) {
	if _, err := Unify(V("x"), F("f", V("x")), nil); err != nil {
		t.Fatalf("default unifier should accept X = f(X): %v", err)
	}

	u := Unifier{OccursCheck: true}
	if _, err := u.Unify(V("x"), F("f", V("x")), nil); !errors.Is(err, internalerr.ErrUnify) {
		t.Fatalf("expected occurs-check failure, got %v", err)
	}

	env := Env{{Origin: V("y"), Result: F("g", V("x"))}}
	if _, err := u.Unify(V("x"), V("y"), env); !errors.Is(err, internalerr.ErrUnify) {
		t.Fatalf("expected occurs-check failure through a binding, got %v", err)
	}
	if _, err := u.Unify(V("x"), F("f", V("z")), nil); err != nil {
		t.Fatalf("unrelated binding rejected: %v", err)
	}
}

func TestStandardize(t *testing.T) {
	r := Rule{
		Conditions: []Atom{P("missile", V("x")), P("owns", C("nono"), V("x"))},
		Conclusion: P("sells", C("west"), V("x"), C("nono")),
	}

	s7 := Standardize(r, 7)
	want := Rule{
		Conditions: []Atom{P("missile", V("x·7")), P("owns", C("nono"), V("x·7"))},
		Conclusion: P("sells", C("west"), V("x·7"), C("nono")),
	}
	if diff := cmp.Diff(want, s7); diff != "" {
		t.Fatalf("Standardize mismatch (-want +got):\n%s", diff)
	}
	if got := Variables(r); len(got) != 1 || got[0].Name != "x" {
		t.Fatalf("original rule mutated: %v", got)
	}

	s8 := Standardize(r, 8)
	names := map[string]bool{}
	for _, v := range Variables(s7) {
		names[v.Name] = true
	}
	for _, v := range Variables(s8) {
		if names[v.Name] {
			t.Errorf("variable %s shared between tags 7 and 8", v.Name)
		}
	}
}

func TestStandardizeTagsDoNotCollide(t *testing.T) {
	r := Rule{Conclusion: P("p", V("x1"), V("x"))}
	a := Standardize(r, 1)
	b := Standardize(r, 11)
	for _, va := range Variables(a) {
		for _, vb := range Variables(b) {
			if va.Name == vb.Name {
				t.Fatalf("tags 1 and 11 share %s", va.Name)
			}
		}
	}
}

func TestVariablesAndBindings(t *testing.T) {
	r := Rule{
		Conditions: []Atom{P("american", V("x")), P("sells", V("x"), V("y"), V("z"))},
		Conclusion: P("criminal", V("x")),
	}
	got := Variables(r)
	want := []Var{V("x"), V("y"), V("z")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Variables mismatch (-want +got):\n%s", diff)
	}

	env := Env{{Origin: V("x"), Result: C("west")}}
	b := env.Bindings(P("sells", V("x"), V("y")))
	if len(b) != 1 || !Equal(b["x"], C("west")) {
		t.Fatalf("unexpected bindings: %v", b)
	}
}

func TestFacts(t *testing.T) {
	kb := KB{Rules: []Rule{
		{Conclusion: P("missile", C("m1"))},
		{Conclusion: P("leq", V("x"), V("x"))},
		{Conditions: []Atom{P("missile", V("x"))}, Conclusion: P("weapon", V("x"))},
	}}
	facts := kb.Facts()
	if len(facts) != 1 || facts[0].Predicate != "missile" {
		t.Fatalf("unexpected facts: %v", facts)
	}
}
