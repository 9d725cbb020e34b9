package logic

import (
	"github.com/cognicore/horn/pkg/horn/internalerr"
)

// Unifier computes substitutions that make two terms syntactically equal.
//
// The zero value performs no occurs-check: binding a variable to a term
// that contains it is accepted, which can make Resolve diverge on rules
// that build self-referential terms. Set OccursCheck to reject such
// bindings instead.
type Unifier struct {
	OccursCheck bool
}

var defaultUnifier Unifier

// Unify unifies a and b under env with the default Unifier.
func Unify(a, b Term, env Env) (Env, error) {
	return defaultUnifier.Unify(a, b, env)
}

// UnifyAtoms unifies two atoms under env with the default Unifier.
func UnifyAtoms(a, b Atom, env Env) (Env, error) {
	return defaultUnifier.UnifyAtoms(a, b, env)
}

// Unify returns env extended with the bindings that make a and b equal.
// On failure it returns ErrUnify and the caller must discard any partial
// result; env itself is never modified.
func (u Unifier) Unify(a, b Term, env Env) (Env, error) {
	return u.unify(a, b, env[:len(env):len(env)])
}

// UnifyAtoms fails on predicate or arity mismatch, otherwise unifies the
// arguments pairwise from left to right.
func (u Unifier) UnifyAtoms(a, b Atom, env Env) (Env, error) {
	if a.Predicate != b.Predicate || len(a.Args) != len(b.Args) {
		return nil, internalerr.ErrUnify
	}
	return u.unifyArgs(a.Args, b.Args, env[:len(env):len(env)])
}

func (u Unifier) unify(a, b Term, env Env) (Env, error) {
	if Equal(a, b) {
		return env, nil
	}
	if v, ok := a.(Var); ok {
		return u.unifyVar(v, b, env)
	}
	if v, ok := b.(Var); ok {
		return u.unifyVar(v, a, env)
	}
	fa, ok := a.(Func)
	if !ok {
		return nil, internalerr.ErrUnify
	}
	fb, ok := b.(Func)
	if !ok || fa.Name != fb.Name || len(fa.Args) != len(fb.Args) {
		return nil, internalerr.ErrUnify
	}
	return u.unifyArgs(fa.Args, fb.Args, env)
}

func (u Unifier) unifyArgs(as, bs []Term, env Env) (Env, error) {
	var err error
	for i := range as {
		env, err = u.unify(as[i], bs[i], env)
		if err != nil {
			return nil, err
		}
	}
	return env, nil
}

// unifyVar chases existing bindings on either side before binding v, so
// that every new binding extends an acyclic chain.
func (u Unifier) unifyVar(v Var, t Term, env Env) (Env, error) {
	if bound, ok := env.Lookup(v); ok {
		return u.unify(bound, t, env)
	}
	if tv, ok := t.(Var); ok {
		if bound, ok := env.Lookup(tv); ok {
			return u.unify(v, bound, env)
		}
	}
	if u.OccursCheck && occurs(v, t, env) {
		return nil, internalerr.ErrUnify
	}
	return append(env, Theta{Origin: v, Result: t}), nil
}

// occurs reports whether v appears in t once t's bindings are followed.
func occurs(v Var, t Term, env Env) bool {
	switch t := t.(type) {
	case Var:
		if t.Name == v.Name {
			return true
		}
		if bound, ok := env.Lookup(t); ok {
			return occurs(v, bound, env)
		}
		return false
	case Func:
		for _, arg := range t.Args {
			if occurs(v, arg, env) {
				return true
			}
		}
	}
	return false
}
