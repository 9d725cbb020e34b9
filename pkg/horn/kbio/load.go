package kbio

import (
	"fmt"
	"os"
	"strconv"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/logic"
)

// ApartSeparator joins a variable name and its rule position in
// StandardizeApart.
const ApartSeparator = "#"

// LoadKBFile reads a knowledge base, choosing the format from the file
// extension. The result is not yet standardized apart.
func LoadKBFile(path string) (logic.KB, error) {
	data, err := readFile(path)
	if err != nil {
		return logic.KB{}, err
	}
	kb, err := ParseKB(data, FormatFromPath(path))
	if err != nil {
		return logic.KB{}, fmt.Errorf("%s: %w", path, err)
	}
	return kb, nil
}

// LoadStatementFile reads a single statement, choosing the format from the
// file extension.
func LoadStatementFile(path string) (logic.Atom, error) {
	data, err := readFile(path)
	if err != nil {
		return logic.Atom{}, err
	}
	a, err := ParseStatement(data, FormatFromPath(path))
	if err != nil {
		return logic.Atom{}, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// ParseInlineStatement accepts either the JSON document form or the clause
// syntax, whichever the text looks like.
func ParseInlineStatement(src string) (logic.Atom, error) {
	for _, c := range src {
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			continue
		}
		if c == '{' {
			return ParseStatement([]byte(src), FormatJSON)
		}
		break
	}
	return ParseAtom(src)
}

// ParseInlineKB is ParseInlineStatement for knowledge bases.
func ParseInlineKB(src string) (logic.KB, error) {
	for _, c := range src {
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			continue
		}
		if c == '{' {
			return ParseKB([]byte(src), FormatJSON)
		}
		break
	}
	return ParseText(src)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", internalerr.ErrFile, path, err)
	}
	return data, nil
}

// StandardizeApart renames the variables of every rule so that no two rules
// share a variable name: x in the rule at position i becomes x#i. The input
// is not modified.
func StandardizeApart(kb logic.KB) logic.KB {
	out := logic.KB{Rules: make([]logic.Rule, len(kb.Rules))}
	for i, r := range kb.Rules {
		out.Rules[i] = logic.Rename(r, ApartSeparator+strconv.Itoa(i))
	}
	return out
}
