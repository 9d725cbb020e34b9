// Package prover decides Horn-clause queries by backward chaining.
//
// A proof attempt is a depth-first AND/OR search: the goals of a rule's
// condition list must all hold (AND), and any rule whose conclusion
// unifies with the current goal may be used to prove it (OR). Rules are
// tried in knowledge base order, so results are deterministic.
//
// Every step renames the rules apart with a fresh tag, a call stack
// rejects goals that would have to prove themselves, and a depth limit
// bounds the search. Ground goals proven once are remembered for the rest
// of the attempt.
package prover

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cognicore/horn/pkg/horn/logic"
)

// DefaultMaxDepth is the depth bound used when none is configured.
const DefaultMaxDepth = 100

// Options configures a proof attempt.
type Options struct {
	// MaxDepth bounds how many rule applications may be nested below the
	// statement. Goals deeper than MaxDepth fail.
	MaxDepth int

	// Verbose traces every step through Logger. It has no effect on the
	// outcome.
	Verbose bool
	Logger  *zap.Logger

	// OccursCheck rejects bindings of a variable to a term containing it.
	OccursCheck bool

	// SeedFacts starts the memo set with every ground fact of the
	// knowledge base, so such goals succeed without a search step.
	SeedFacts bool
}

// Engine proves statements against a knowledge base.
type Engine interface {
	Prove(ctx context.Context, kb logic.KB, statement logic.Atom) (*Result, error)
}

// Result describes a successful proof.
type Result struct {
	Statement logic.Atom
	// Env is the final substitution. Resolving Statement under Env gives
	// Answer.
	Env    logic.Env
	Answer logic.Atom
	// Steps counts the goals that were expanded against the rules.
	Steps int
}

// Ground reports whether the answer is fully instantiated.
func (r *Result) Ground() bool {
	return r.Answer.IsGround()
}

// Bindings returns the resolved value of each variable of the statement.
func (r *Result) Bindings() map[string]logic.Term {
	return r.Env.Bindings(r.Statement)
}

// ProofError reports why a statement could not be proved. It matches
// internalerr.ErrProofNotFound, ErrCycleProof or ErrDepthLimitExceed via
// errors.Is, depending on what the search ran into.
type ProofError struct {
	Statement logic.Atom
	Steps     int
	Err       error
}

func (e *ProofError) Error() string {
	return fmt.Sprintf("prove %s: %v", e.Statement, e.Err)
}

func (e *ProofError) Unwrap() error { return e.Err }

// Prover is an Engine with fixed Options.
type Prover struct {
	opts Options
}

// New creates a Prover.
func New(opts Options) *Prover {
	return &Prover{opts: opts}
}

// Options returns the options the Prover was created with.
func (p *Prover) Options() Options { return p.opts }

// Prove implements Engine. The context is only consulted before the
// search starts; a running search is bounded by MaxDepth alone.
func (p *Prover) Prove(ctx context.Context, kb logic.KB, statement logic.Atom) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Prove(kb, statement, p.opts)
}

// Prove tries to derive statement from kb. The knowledge base must already
// be standardized apart across rules; see kbio.StandardizeApart.
func Prove(kb logic.KB, statement logic.Atom, opts Options) (*Result, error) {
	s := newSearch(kb, opts)
	if s.verbose {
		s.log.Info("proof started",
			zap.Stringer("statement", statement),
			zap.Int("rules", len(kb.Rules)),
			zap.Int("max_depth", opts.MaxDepth))
	}

	env, err := s.prove([]logic.Atom{statement}, nil, 0)
	if s.verbose {
		s.log.Info("proof finished", zap.Int("steps", s.steps), zap.Bool("proved", err == nil))
	}
	if err != nil {
		return nil, &ProofError{Statement: statement, Steps: s.steps, Err: err}
	}

	return &Result{
		Statement: statement,
		Env:       env,
		Answer:    env.ResolveAtom(statement),
		Steps:     s.steps,
	}, nil
}
