package kbio

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/logic"
)

// ParseText parses the clause syntax:
//
//	# comment            % also a comment
//	american(west).
//	weapon(X) :- missile(X).
//	criminal(X) :- american(X), weapon(Y), sells(X, Y, Z), hostile(Z).
//
// Names starting with an upper-case letter or '_' are variables. They are
// case-sensitive; only the leading letter is stored lower-cased, so X is the
// variable x of the JSON form while Ab and AB stay distinct. Every '_' on its
// own is a fresh anonymous variable. Other names are constants, or function
// symbols when followed by an argument list. Quoted names ('New York') are
// always constants or functors.
func ParseText(src string) (logic.KB, error) {
	p := newParser(src)
	var kb logic.KB
	for {
		p.skipSpace()
		if p.eof() {
			return kb, nil
		}
		r, err := p.clause()
		if err != nil {
			return logic.KB{}, err
		}
		kb.Rules = append(kb.Rules, r)
	}
}

// ParseAtom parses a single atom with an optional trailing '.'.
func ParseAtom(src string) (logic.Atom, error) {
	p := newParser(src)
	p.skipSpace()
	a, err := p.atom()
	if err != nil {
		return logic.Atom{}, err
	}
	p.skipSpace()
	p.accept('.')
	p.skipSpace()
	if !p.eof() {
		return logic.Atom{}, p.errorf("unexpected %q after statement", p.rest())
	}
	return a, nil
}

type parser struct {
	src  []rune
	pos  int
	line int
	anon int
}

func newParser(src string) *parser {
	return &parser{src: []rune(src), line: 1}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) rest() string {
	end := p.pos + 20
	if end > len(p.src) {
		end = len(p.src)
	}
	return string(p.src[p.pos:end])
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", internalerr.ErrParse, p.line, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpace() {
	for !p.eof() {
		c := p.peek()
		switch {
		case c == '\n':
			p.line++
			p.pos++
		case unicode.IsSpace(c):
			p.pos++
		case c == '#' || c == '%':
			for !p.eof() && p.peek() != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func (p *parser) accept(c rune) bool {
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(c rune) error {
	p.skipSpace()
	if !p.accept(c) {
		if p.eof() {
			return p.errorf("expected %q, got end of input", c)
		}
		return p.errorf("expected %q near %q", c, p.rest())
	}
	return nil
}

func (p *parser) clause() (logic.Rule, error) {
	head, err := p.atom()
	if err != nil {
		return logic.Rule{}, err
	}
	p.skipSpace()

	var conds []logic.Atom
	if p.accept(':') {
		if !p.accept('-') {
			return logic.Rule{}, p.errorf("expected ':-'")
		}
		for {
			p.skipSpace()
			a, err := p.atom()
			if err != nil {
				return logic.Rule{}, err
			}
			conds = append(conds, a)
			p.skipSpace()
			if !p.accept(',') {
				break
			}
		}
	}
	if err := p.expect('.'); err != nil {
		return logic.Rule{}, err
	}
	return logic.Rule{Conditions: conds, Conclusion: head}, nil
}

func (p *parser) atom() (logic.Atom, error) {
	name, quoted, err := p.name()
	if err != nil {
		return logic.Atom{}, err
	}
	if !quoted && isVariableName(name) {
		return logic.Atom{}, p.errorf("predicate %q must not be a variable", name)
	}
	args, _, err := p.args()
	if err != nil {
		return logic.Atom{}, err
	}
	return logic.Atom{Predicate: name, Args: args}, nil
}

// args parses an optional parenthesised argument list. The boolean
// reports whether parentheses were present.
func (p *parser) args() ([]logic.Term, bool, error) {
	p.skipSpace()
	if !p.accept('(') {
		return nil, false, nil
	}
	p.skipSpace()
	if p.accept(')') {
		return []logic.Term{}, true, nil
	}
	var out []logic.Term
	for {
		p.skipSpace()
		t, err := p.term()
		if err != nil {
			return nil, false, err
		}
		out = append(out, t)
		p.skipSpace()
		if p.accept(')') {
			return out, true, nil
		}
		if !p.accept(',') {
			if p.eof() {
				return nil, false, p.errorf("unterminated argument list")
			}
			return nil, false, p.errorf("expected ',' or ')' near %q", p.rest())
		}
	}
}

func (p *parser) term() (logic.Term, error) {
	name, quoted, err := p.name()
	if err != nil {
		return nil, err
	}
	if !quoted && isVariableName(name) {
		if name == "_" {
			p.anon++
			return logic.V(fmt.Sprintf("%s%d", anonPrefix, p.anon)), nil
		}
		return logic.V(varName(name)), nil
	}
	args, hasArgs, err := p.args()
	if err != nil {
		return nil, err
	}
	if hasArgs {
		return logic.F(name, args...), nil
	}
	return logic.C(name), nil
}

func (p *parser) name() (string, bool, error) {
	if p.eof() {
		return "", false, p.errorf("unexpected end of input")
	}
	if p.peek() == '\'' {
		p.pos++
		var b strings.Builder
		for {
			if p.eof() {
				return "", false, p.errorf("unterminated quoted name")
			}
			c := p.src[p.pos]
			p.pos++
			if c == '\'' {
				if p.peek() == '\'' {
					p.pos++
					b.WriteRune('\'')
					continue
				}
				break
			}
			if c == '\n' {
				p.line++
			}
			b.WriteRune(c)
		}
		if b.Len() == 0 {
			return "", false, p.errorf("empty quoted name")
		}
		return b.String(), true, nil
	}

	start := p.pos
	for !p.eof() && isNameRune(p.peek(), p.pos == start) {
		p.pos++
	}
	if p.pos == start {
		return "", false, p.errorf("expected a name near %q", p.rest())
	}
	return string(p.src[start:p.pos]), false, nil
}

func isNameRune(c rune, first bool) bool {
	if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' {
		return true
	}
	return !first && c == '-'
}

func isVariableName(name string) bool {
	for _, c := range name {
		return c == '_' || unicode.IsUpper(c)
	}
	return false
}

// FormatTextKB renders kb in the clause syntax accepted by ParseText.
func FormatTextKB(kb logic.KB) string {
	var b strings.Builder
	for _, r := range kb.Rules {
		b.WriteString(FormatTextRule(r))
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatTextRule renders one clause including the final '.'.
func FormatTextRule(r logic.Rule) string {
	var b strings.Builder
	b.WriteString(FormatTextAtom(r.Conclusion))
	for i, c := range r.Conditions {
		if i == 0 {
			b.WriteString(" :- ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(FormatTextAtom(c))
	}
	b.WriteByte('.')
	return b.String()
}

// FormatTextAtom renders a in the clause syntax.
func FormatTextAtom(a logic.Atom) string {
	var b strings.Builder
	b.WriteString(textName(a.Predicate))
	if len(a.Args) > 0 {
		writeTextArgs(&b, a.Args)
	}
	return b.String()
}

func writeTextArgs(b *strings.Builder, args []logic.Term) {
	b.WriteByte('(')
	for i, t := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		writeTextTerm(b, t)
	}
	b.WriteByte(')')
}

func writeTextTerm(b *strings.Builder, t logic.Term) {
	switch t := t.(type) {
	case logic.Var:
		b.WriteString(textVar(t.Name))
	case logic.Const:
		b.WriteString(textName(t.Name))
	case logic.Func:
		b.WriteString(textName(t.Name))
		writeTextArgs(b, t.Args)
	}
}

// anonPrefix starts the names of anonymous variables. '?' is not a name
// rune, so no written variable can collide with them.
const anonPrefix = "_?"

// varName maps a written variable to its stored name: a leading upper-case
// letter is lowered, names starting with '_' are kept.
func varName(name string) string {
	first, size := utf8.DecodeRuneInString(name)
	if first == '_' {
		return name
	}
	return string(unicode.ToLower(first)) + name[size:]
}

// textVar is the inverse of varName. Anonymous variables print as '_';
// names that cannot be written back are prefixed with '_'.
func textVar(name string) string {
	if name == "" || strings.HasPrefix(name, anonPrefix) {
		return "_"
	}
	if !isPlainName(name) {
		return "_" + sanitize(name)
	}
	first, size := utf8.DecodeRuneInString(name)
	if first == '_' {
		return name
	}
	upper := unicode.ToUpper(first)
	if unicode.IsUpper(upper) && unicode.ToLower(upper) == first && first != upper {
		return string(upper) + name[size:]
	}
	return "_" + name
}

func textName(name string) string {
	if isPlainName(name) && !isVariableName(name) {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func isPlainName(name string) bool {
	for i, c := range name {
		if !isNameRune(c, i == 0) {
			return false
		}
	}
	return name != ""
}

func sanitize(name string) string {
	var b strings.Builder
	for _, c := range name {
		if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' {
			b.WriteRune(c)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
