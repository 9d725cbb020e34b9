package prover

import (
	"go.uber.org/zap"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/logic"
)

// search holds the mutable state of one proof attempt.
type search struct {
	kb      logic.KB
	unifier logic.Unifier
	limit   int

	// steps is the number of goal expansions so far; it doubles as the
	// standardization tag, so every expansion gets fresh variable names.
	steps int

	// stack holds the goals on the active recursion path, keyed by
	// logic.Atom.Key, for cycle detection.
	stack map[string]int

	// memo holds ground goals already proved. It is never rolled back on
	// backtracking.
	memo map[string]struct{}

	verbose bool
	log     *zap.Logger
}

// candidate is a rule whose conclusion unifies with the current goal.
type candidate struct {
	conditions []logic.Atom
	env        logic.Env
}

func newSearch(kb logic.KB, opts Options) *search {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &search{
		kb:      kb,
		unifier: logic.Unifier{OccursCheck: opts.OccursCheck},
		limit:   opts.MaxDepth,
		stack:   make(map[string]int),
		memo:    make(map[string]struct{}),
		verbose: opts.Verbose,
		log:     log,
	}
	if opts.SeedFacts {
		for _, f := range kb.Facts() {
			s.memo[f.Key()] = struct{}{}
		}
	}
	return s
}

// prove proves the conjunction goals left to right under env. On success
// it returns the extended environment; env itself is never modified.
func (s *search) prove(goals []logic.Atom, env logic.Env, depth int) (logic.Env, error) {
	if len(goals) == 0 {
		return env, nil
	}
	rest := goals[1:]
	g := env.ResolveAtom(goals[0])
	key := g.Key()

	if _, ok := s.memo[key]; ok {
		return s.prove(rest, env, depth)
	}
	if s.stack[key] > 0 {
		if s.verbose {
			s.log.Info("circular proof, backtracking", zap.Stringer("goal", g), zap.Int("depth", depth))
		}
		return nil, failCycle
	}
	if depth > s.limit {
		if s.verbose {
			s.log.Info("depth limit exceeded, backtracking", zap.Stringer("goal", g), zap.Int("depth", depth))
		}
		return nil, failDepth
	}

	s.steps++
	if s.verbose {
		s.log.Info("proving", zap.Stringer("goal", g), zap.Int("depth", depth), zap.Int("step", s.steps))
	}

	cands := s.candidates(g, env, s.steps)
	if len(cands) == 0 {
		return nil, failNotFound
	}

	var below failure
	for _, c := range cands {
		s.stack[key]++
		sub, err := s.prove(c.conditions, c.env, depth+1)
		s.stack[key]--
		if err != nil {
			below |= asFailure(err)
			continue
		}

		final, err := s.prove(rest, sub, depth)
		if err != nil {
			below |= asFailure(err)
			continue
		}

		if g.IsGround() {
			s.memo[key] = struct{}{}
		}
		if s.verbose {
			s.log.Info("proved", zap.Stringer("goal", g), zap.Int("depth", depth))
		}
		return final, nil
	}
	return nil, failNotFound | below
}

// candidates standardizes the knowledge base with tag and returns, in
// order, every rule whose conclusion unifies with g. Each attempt works on
// its own copy of env.
func (s *search) candidates(g logic.Atom, env logic.Env, tag int) []candidate {
	var out []candidate
	for _, r := range logic.StandardizeKB(s.kb, tag) {
		ext, err := s.unifier.UnifyAtoms(g, r.Conclusion, env)
		if err != nil {
			continue
		}
		out = append(out, candidate{conditions: r.Conditions, env: ext})
	}
	return out
}

// failure is the set of reasons a goal could not be proved: the reason of
// the goal itself plus every reason met in the branches it abandoned.
type failure uint8

const (
	failCycle failure = 1 << iota
	failDepth
	failNotFound
)

func (f failure) Error() string {
	msg := f.primary().Error()
	switch {
	case f&failNotFound == 0:
	case f&failCycle != 0 && f&failDepth != 0:
		msg += " (branches hit circular proofs and the depth limit)"
	case f&failCycle != 0:
		msg += " (branches hit circular proofs)"
	case f&failDepth != 0:
		msg += " (branches hit the depth limit)"
	}
	return msg
}

// primary is the reason reported for the goal itself.
func (f failure) primary() error {
	switch {
	case f&failNotFound != 0:
		return internalerr.ErrProofNotFound
	case f&failDepth != 0:
		return internalerr.ErrDepthLimitExceed
	default:
		return internalerr.ErrCycleProof
	}
}

func (f failure) Is(target error) bool {
	switch target {
	case internalerr.ErrProofNotFound:
		return f&failNotFound != 0
	case internalerr.ErrDepthLimitExceed:
		return f&failDepth != 0
	case internalerr.ErrCycleProof:
		return f&failCycle != 0
	}
	return false
}

func asFailure(err error) failure {
	if f, ok := err.(failure); ok {
		return f
	}
	return failNotFound
}
