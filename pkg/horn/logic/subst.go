package logic

import (
	"fmt"

	"github.com/cognicore/horn/pkg/horn/internalerr"
)

// Theta binds the variable Origin to the term Result.
type Theta struct {
	Origin Var
	Result Term
}

// NewTheta builds a binding. Only variables can be substituted, any other
// origin yields ErrTheta.
func NewTheta(origin, result Term) (Theta, error) {
	v, ok := origin.(Var)
	if !ok {
		return Theta{}, fmt.Errorf("bind %s: %w", origin, internalerr.ErrTheta)
	}
	return Theta{Origin: v, Result: result}, nil
}

func (t Theta) String() string {
	return t.Origin.String() + "/" + t.Result.String()
}

// Env is an append-only chain of bindings. Lookup returns the earliest
// binding for a variable; bindings are never overwritten or removed, a
// failed branch is discarded by dropping its extended copy.
type Env []Theta

// Lookup returns the result of the first binding for v.
func (e Env) Lookup(v Var) (Term, bool) {
	for _, th := range e {
		if th.Origin.Name == v.Name {
			return th.Result, true
		}
	}
	return nil, false
}

// Bind returns e extended by v -> t. The receiver is left untouched even
// when its backing array has spare capacity.
func (e Env) Bind(v Var, t Term) Env {
	return append(e[:len(e):len(e)], Theta{Origin: v, Result: t})
}

// ResolveShallow dereferences a bound variable by one step.
func (e Env) ResolveShallow(t Term) Term {
	if v, ok := t.(Var); ok {
		if r, ok := e.Lookup(v); ok {
			return r
		}
	}
	return t
}

// Resolve applies the bindings exhaustively: variables are chased until
// unbound or non-variable, and function arguments are resolved recursively.
// The chain is acyclic as long as it was produced by the unifier without
// self-referential rules.
func (e Env) Resolve(t Term) Term {
	switch t := t.(type) {
	case Var:
		if r, ok := e.Lookup(t); ok {
			return e.Resolve(r)
		}
		return t
	case Func:
		args := make([]Term, len(t.Args))
		for i, arg := range t.Args {
			args[i] = e.Resolve(arg)
		}
		return Func{Name: t.Name, Args: args}
	default:
		return t
	}
}

// ResolveAtom resolves every argument of a.
func (e Env) ResolveAtom(a Atom) Atom {
	args := make([]Term, len(a.Args))
	for i, arg := range a.Args {
		args[i] = e.Resolve(arg)
	}
	return Atom{Predicate: a.Predicate, Args: args}
}

// Bindings maps every variable of a to its resolved value. Variables that
// remain unbound are omitted.
func (e Env) Bindings(a Atom) map[string]Term {
	out := make(map[string]Term)
	for _, v := range atomVars(a, nil) {
		r := e.Resolve(v)
		if rv, ok := r.(Var); ok && rv.Name == v.Name {
			continue
		}
		out[v.Name] = r
	}
	return out
}
