// Package kbio reads and writes knowledge bases and statements.
//
// Three formats are supported. JSON and YAML share one document shape:
//
//	rules:
//	  - condition:
//	      - predicate: missile
//	        args: [{Var: x}]
//	    conclusion:
//	      predicate: weapon
//	      args: [{Var: x}]
//
// where a symbol is {Var: name}, {Val: name} or {Func: [name, [args...]]}.
// The text format is a Prolog-like clause syntax, see ParseText.
package kbio

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/logic"
)

// Format identifies an encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// FormatFromPath picks a format from a file extension. Unknown extensions
// are read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".pl", ".horn", ".txt":
		return FormatText
	default:
		return FormatJSON
	}
}

// ParseFormat validates a user supplied format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatJSON, FormatYAML, FormatText:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "pl", "prolog":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", internalerr.ErrInvalidInput, name)
}

type kbDoc struct {
	Rules []ruleDoc `json:"rules" yaml:"rules"`
}

type ruleDoc struct {
	Condition  []atomDoc `json:"condition" yaml:"condition"`
	Conclusion atomDoc   `json:"conclusion" yaml:"conclusion"`
}

type atomDoc struct {
	Predicate string `json:"predicate" yaml:"predicate"`
	Args      []any  `json:"args" yaml:"args"`
}

// ParseKB decodes a knowledge base.
func ParseKB(data []byte, format Format) (logic.KB, error) {
	if format == FormatText {
		return ParseText(string(data))
	}

	var doc kbDoc
	if err := unmarshal(data, format, &doc); err != nil {
		return logic.KB{}, err
	}

	kb := logic.KB{Rules: make([]logic.Rule, 0, len(doc.Rules))}
	for i, rd := range doc.Rules {
		r, err := rd.rule()
		if err != nil {
			return logic.KB{}, fmt.Errorf("%w: rule %d: %v", internalerr.ErrParse, i, err)
		}
		kb.Rules = append(kb.Rules, r)
	}
	return kb, nil
}

// ParseStatement decodes a single atom.
func ParseStatement(data []byte, format Format) (logic.Atom, error) {
	if format == FormatText {
		return ParseAtom(string(data))
	}

	var doc atomDoc
	if err := unmarshal(data, format, &doc); err != nil {
		return logic.Atom{}, err
	}
	a, err := doc.atom()
	if err != nil {
		return logic.Atom{}, fmt.Errorf("%w: statement: %v", internalerr.ErrParse, err)
	}
	return a, nil
}

func unmarshal(data []byte, format Format, v any) error {
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, v)
	case FormatJSON, "":
		err = json.Unmarshal(data, v)
	default:
		return fmt.Errorf("%w: unknown format %q", internalerr.ErrInvalidInput, format)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrParse, err)
	}
	return nil
}

func (d ruleDoc) rule() (logic.Rule, error) {
	conds := make([]logic.Atom, 0, len(d.Condition))
	for _, cd := range d.Condition {
		a, err := cd.atom()
		if err != nil {
			return logic.Rule{}, err
		}
		conds = append(conds, a)
	}
	concl, err := d.Conclusion.atom()
	if err != nil {
		return logic.Rule{}, err
	}
	return logic.Rule{Conditions: conds, Conclusion: concl}, nil
}

func (d atomDoc) atom() (logic.Atom, error) {
	if d.Predicate == "" {
		return logic.Atom{}, fmt.Errorf("missing predicate")
	}
	args := make([]logic.Term, 0, len(d.Args))
	for _, raw := range d.Args {
		t, err := decodeSymbol(raw)
		if err != nil {
			return logic.Atom{}, fmt.Errorf("%s: %w", d.Predicate, err)
		}
		args = append(args, t)
	}
	return logic.Atom{Predicate: d.Predicate, Args: args}, nil
}

// decodeSymbol converts the generic tree produced by encoding/json or
// yaml.v3 into a term.
func decodeSymbol(raw any) (logic.Term, error) {
	m, ok := raw.(map[string]any)
	if !ok || len(m) != 1 {
		return nil, fmt.Errorf("symbol must be an object with exactly one of Var, Val, Func: %v", raw)
	}
	var kind string
	var v any
	for k, val := range m {
		kind, v = k, val
	}

	switch kind {
	case "Var", "Val":
		name, ok := v.(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("%s needs a non-empty name: %v", kind, v)
		}
		if kind == "Var" {
			return logic.V(name), nil
		}
		return logic.C(name), nil
	case "Func":
		parts, ok := v.([]any)
		if !ok || len(parts) != 2 {
			return nil, fmt.Errorf("Func must be [name, [args...]]: %v", v)
		}
		name, ok := parts[0].(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("Func name must be a non-empty string: %v", parts[0])
		}
		rawArgs, ok := parts[1].([]any)
		if !ok && parts[1] != nil {
			return nil, fmt.Errorf("Func %s arguments must be a list: %v", name, parts[1])
		}
		args := make([]logic.Term, 0, len(rawArgs))
		for _, ra := range rawArgs {
			t, err := decodeSymbol(ra)
			if err != nil {
				return nil, err
			}
			args = append(args, t)
		}
		return logic.F(name, args...), nil
	}
	return nil, fmt.Errorf("unknown symbol kind %q", kind)
}

// EncodeKB encodes kb in the given format.
func EncodeKB(kb logic.KB, format Format) ([]byte, error) {
	if format == FormatText {
		return []byte(FormatTextKB(kb)), nil
	}
	doc := kbDoc{Rules: make([]ruleDoc, len(kb.Rules))}
	for i, r := range kb.Rules {
		rd := ruleDoc{Condition: make([]atomDoc, len(r.Conditions)), Conclusion: encodeAtom(r.Conclusion)}
		for j, c := range r.Conditions {
			rd.Condition[j] = encodeAtom(c)
		}
		doc.Rules[i] = rd
	}
	return marshal(doc, format)
}

// EncodeStatement encodes a single atom in the given format.
func EncodeStatement(a logic.Atom, format Format) ([]byte, error) {
	if format == FormatText {
		return []byte(FormatTextAtom(a) + "."), nil
	}
	return marshal(encodeAtom(a), format)
}

func marshal(v any, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(v)
	case FormatJSON, "":
		return json.MarshalIndent(v, "", "  ")
	}
	return nil, fmt.Errorf("%w: unknown format %q", internalerr.ErrInvalidInput, format)
}

func encodeAtom(a logic.Atom) atomDoc {
	args := make([]any, len(a.Args))
	for i, t := range a.Args {
		args[i] = encodeSymbol(t)
	}
	return atomDoc{Predicate: a.Predicate, Args: args}
}

func encodeSymbol(t logic.Term) any {
	switch t := t.(type) {
	case logic.Var:
		return map[string]any{"Var": t.Name}
	case logic.Const:
		return map[string]any{"Val": t.Name}
	case logic.Func:
		args := make([]any, len(t.Args))
		for i, a := range t.Args {
			args[i] = encodeSymbol(a)
		}
		return map[string]any{"Func": []any{t.Name, args}}
	}
	return nil
}
