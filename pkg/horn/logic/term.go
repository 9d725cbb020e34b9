// Package logic holds the first-order term model together with
// substitution, unification and rule standardization.
package logic

import (
	"strconv"
	"strings"
)

// Term is a first-order term: a Var, a Const or a Func.
// Terms are immutable; substitution always builds new values.
type Term interface {
	String() string
	isTerm()
}

// Var is a logic variable.
type Var struct {
	Name string
}

// Const is a constant symbol.
type Const struct {
	Name string
}

// Func is a function symbol applied to an ordered list of terms.
type Func struct {
	Name string
	Args []Term
}

func (Var) isTerm()   {}
func (Const) isTerm() {}
func (Func) isTerm()  {}

// String renders variables upper-cased so they stand out from constants.
func (v Var) String() string { return strings.ToUpper(v.Name) }

func (c Const) String() string { return c.Name }

func (f Func) String() string {
	var b strings.Builder
	b.WriteString(f.Name)
	b.WriteByte('(')
	for i, arg := range f.Args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(arg.String())
	}
	b.WriteByte(')')
	return b.String()
}

// V builds a variable.
func V(name string) Var { return Var{Name: name} }

// C builds a constant.
func C(name string) Const { return Const{Name: name} }

// F builds a function application.
func F(name string, args ...Term) Func { return Func{Name: name, Args: args} }

// IsGround reports whether t contains no variables.
func IsGround(t Term) bool {
	switch t := t.(type) {
	case Const:
		return true
	case Func:
		for _, arg := range t.Args {
			if !IsGround(arg) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Equal reports structural equality of two terms.
func Equal(a, b Term) bool {
	switch a := a.(type) {
	case Var:
		bv, ok := b.(Var)
		return ok && a.Name == bv.Name
	case Const:
		bc, ok := b.(Const)
		return ok && a.Name == bc.Name
	case Func:
		bf, ok := b.(Func)
		if !ok || a.Name != bf.Name || len(a.Args) != len(bf.Args) {
			return false
		}
		for i := range a.Args {
			if !Equal(a.Args[i], bf.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Atom is a predicate applied to an ordered list of terms.
type Atom struct {
	Predicate string
	Args      []Term
}

// P builds an atom.
func P(predicate string, args ...Term) Atom {
	return Atom{Predicate: predicate, Args: args}
}

// IsGround reports whether every argument of the atom is ground.
func (a Atom) IsGround() bool {
	for _, arg := range a.Args {
		if !IsGround(arg) {
			return false
		}
	}
	return true
}

// Equal reports structural equality of two atoms.
func (a Atom) Equal(b Atom) bool {
	if a.Predicate != b.Predicate || len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if !Equal(a.Args[i], b.Args[i]) {
			return false
		}
	}
	return true
}

func (a Atom) String() string {
	var b strings.Builder
	b.WriteString(a.Predicate)
	b.WriteByte('(')
	for i, arg := range a.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(arg.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Key returns a canonical encoding of the atom that is injective over
// atoms, suitable as a map key. Unlike String it keeps the kind of every
// symbol and the exact variable names.
func (a Atom) Key() string {
	var b strings.Builder
	writeKey(&b, 'p', a.Predicate, a.Args)
	return b.String()
}

func writeKey(b *strings.Builder, kind byte, name string, args []Term) {
	b.WriteByte(kind)
	writeName(b, name)
	b.WriteByte('(')
	for _, arg := range args {
		switch t := arg.(type) {
		case Var:
			b.WriteByte('v')
			writeName(b, t.Name)
		case Const:
			b.WriteByte('c')
			writeName(b, t.Name)
		case Func:
			writeKey(b, 'f', t.Name, t.Args)
		}
	}
	b.WriteByte(')')
}

// writeName length-prefixes names so that no choice of symbol text can
// make two different atoms share a key.
func writeName(b *strings.Builder, name string) {
	b.WriteString(strconv.Itoa(len(name)))
	b.WriteByte(':')
	b.WriteString(name)
}

// Rule is a Horn clause: the conjunction of Conditions implies Conclusion.
type Rule struct {
	Conditions []Atom
	Conclusion Atom
}

// IsFact reports whether the rule has no conditions and a ground conclusion.
func (r Rule) IsFact() bool {
	return len(r.Conditions) == 0 && r.Conclusion.IsGround()
}

func (r Rule) String() string {
	if len(r.Conditions) == 0 {
		return r.Conclusion.String()
	}
	parts := make([]string, len(r.Conditions))
	for i, c := range r.Conditions {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ∧ ") + " → " + r.Conclusion.String()
}

// KB is an ordered knowledge base. Rules are tried in listed order.
type KB struct {
	Rules []Rule
}

// Facts returns the conclusions of every fact in the knowledge base.
func (kb KB) Facts() []Atom {
	var out []Atom
	for _, r := range kb.Rules {
		if r.IsFact() {
			out = append(out, r.Conclusion)
		}
	}
	return out
}
