package logic

import "strconv"

// TagSeparator joins a variable name and the tag appended by Standardize.
const TagSeparator = "·"

// Standardize returns a copy of r whose variables all carry the suffix
// ·tag. Constants are untouched and r itself is not modified. Two calls with
// different tags never produce a shared variable name, provided the
// original names do not already contain TagSeparator followed by digits.
func Standardize(r Rule, tag int) Rule {
	return Rename(r, TagSeparator+strconv.Itoa(tag))
}

// StandardizeKB standardizes every rule of kb with the same tag, keeping
// the knowledge base order.
func StandardizeKB(kb KB, tag int) []Rule {
	suffix := TagSeparator + strconv.Itoa(tag)
	out := make([]Rule, len(kb.Rules))
	for i, r := range kb.Rules {
		out[i] = Rename(r, suffix)
	}
	return out
}

// Rename appends suffix to every variable name of r.
func Rename(r Rule, suffix string) Rule {
	conds := make([]Atom, len(r.Conditions))
	for i, c := range r.Conditions {
		conds[i] = renameAtom(c, suffix)
	}
	return Rule{Conditions: conds, Conclusion: renameAtom(r.Conclusion, suffix)}
}

func renameAtom(a Atom, suffix string) Atom {
	args := make([]Term, len(a.Args))
	for i, arg := range a.Args {
		args[i] = renameTerm(arg, suffix)
	}
	return Atom{Predicate: a.Predicate, Args: args}
}

func renameTerm(t Term, suffix string) Term {
	switch t := t.(type) {
	case Var:
		return Var{Name: t.Name + suffix}
	case Func:
		if IsGround(t) {
			return t
		}
		args := make([]Term, len(t.Args))
		for i, arg := range t.Args {
			args[i] = renameTerm(arg, suffix)
		}
		return Func{Name: t.Name, Args: args}
	default:
		return t
	}
}

// Variables lists the distinct variables of r in order of first occurrence,
// conditions first.
func Variables(r Rule) []Var {
	var out []Var
	for _, c := range r.Conditions {
		out = atomVars(c, out)
	}
	return atomVars(r.Conclusion, out)
}

func atomVars(a Atom, acc []Var) []Var {
	for _, arg := range a.Args {
		acc = termVars(arg, acc)
	}
	return acc
}

func termVars(t Term, acc []Var) []Var {
	switch t := t.(type) {
	case Var:
		for _, v := range acc {
			if v.Name == t.Name {
				return acc
			}
		}
		return append(acc, t)
	case Func:
		for _, arg := range t.Args {
			acc = termVars(arg, acc)
		}
	}
	return acc
}
