package prolog

import (
	"context"
	"errors"
	"fmt"
	"time"

	ichiban "github.com/ichiban/prolog"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/logic"
	"github.com/cognicore/horn/pkg/horn/prover"
)

// DefaultTimeout bounds the Prolog side of a cross-check. Plain SLD
// resolution has no depth limit and loops on left-recursive rules.
const DefaultTimeout = 2 * time.Second

// Report compares the prover's outcome with the Prolog interpreter's.
type Report struct {
	Statement logic.Atom

	Horn       bool
	HornSteps  int
	HornReason string
	// HornBindings are the statement variables bound by the prover.
	HornBindings map[string]string

	Prolog bool
	// PrologBindings are the first Prolog solution's bindings, keyed by
	// statement variable name.
	PrologBindings map[string]string
	// PrologErr is set when the interpreter raised an exception or timed out.
	PrologErr error
}

// Agree reports whether both sides reached the same verdict.
func (r Report) Agree() bool {
	return r.PrologErr == nil && r.Horn == r.Prolog
}

// Checker runs a statement through an Engine and through ichiban/prolog.
type Checker struct {
	Engine  prover.Engine
	Timeout time.Duration
}

// Check proves statement against kb with both engines.
func (c *Checker) Check(ctx context.Context, kb logic.KB, statement logic.Atom) (Report, error) {
	if c.Engine == nil {
		return Report{}, fmt.Errorf("prolog checker: nil engine")
	}
	rep := Report{Statement: statement}

	res, err := c.Engine.Prove(ctx, kb, statement)
	switch {
	case err == nil:
		rep.Horn = true
		rep.HornSteps = res.Steps
		rep.HornBindings = make(map[string]string)
		for name, t := range res.Bindings() {
			rep.HornBindings[name] = t.String()
		}
	case internalerr.IsUnprovable(err):
		rep.HornReason = err.Error()
		var pe *prover.ProofError
		if errors.As(err, &pe) {
			rep.HornSteps = pe.Steps
		}
	default:
		return Report{}, err
	}

	ok, bindings, err := c.solve(ctx, kb, statement)
	if err != nil {
		rep.PrologErr = err
		return rep, nil
	}
	rep.Prolog = ok
	rep.PrologBindings = bindings
	return rep, nil
}

func (c *Checker) solve(ctx context.Context, kb logic.KB, statement logic.Atom) (bool, map[string]string, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p := ichiban.New(nil, nil)
	if err := p.ExecContext(ctx, program(kb, indicators(kb.Rules, statement))); err != nil {
		return false, nil, fmt.Errorf("load program: %w", err)
	}

	query, names := Query(statement)
	sols, err := p.QueryContext(ctx, query)
	if err != nil {
		return false, nil, fmt.Errorf("query %s: %w", query, err)
	}
	defer sols.Close()

	if !sols.Next() {
		if err := sols.Err(); err != nil {
			return false, nil, err
		}
		return false, nil, nil
	}

	values := map[string]ichiban.TermString{}
	if err := sols.Scan(values); err != nil {
		return true, nil, err
	}
	bindings := make(map[string]string, len(names))
	for v, pv := range names {
		if val, ok := values[pv]; ok {
			bindings[v] = string(val)
		}
	}
	return true, bindings, nil
}
