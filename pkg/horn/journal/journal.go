package journal

import (
	"crypto/rand"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/kbio"
	"github.com/cognicore/horn/pkg/horn/logic"
	"github.com/cognicore/horn/pkg/horn/prover"
)

// Builder stamps proof attempts into explainable records
type Builder struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// New creates a new record builder
func New() *Builder {
	return &Builder{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Record summarizes one proof attempt
type Record struct {
	ID        string
	KB        string
	Statement string
	Provable  bool
	// Reason is empty for proved statements, otherwise the failure kind.
	Reason   string
	Answer   string
	Bindings map[string]string
	Steps    int
	MaxDepth int
	Duration time.Duration
	At       time.Time
}

// Attempt is the input to Build
type Attempt struct {
	KB        string
	Statement logic.Atom
	MaxDepth  int
	Result    *prover.Result
	Err       error
	Duration  time.Duration
}

// Build creates a record for a finished attempt
func (b *Builder) Build(a Attempt) Record {
	at := b.now()

	b.mu.Lock()
	id := ulid.MustNew(ulid.Timestamp(at), b.entropy).String()
	b.mu.Unlock()

	rec := Record{
		ID:        id,
		KB:        a.KB,
		Statement: kbio.FormatTextAtom(a.Statement),
		MaxDepth:  a.MaxDepth,
		Duration:  a.Duration,
		At:        at,
	}

	if a.Err != nil {
		rec.Reason = Reason(a.Err)
		var pe *prover.ProofError
		if errors.As(a.Err, &pe) {
			rec.Steps = pe.Steps
		}
		return rec
	}

	rec.Provable = true
	if a.Result != nil {
		rec.Steps = a.Result.Steps
		rec.Answer = kbio.FormatTextAtom(a.Result.Answer)
		rec.Bindings = make(map[string]string)
		for name, t := range a.Result.Bindings() {
			rec.Bindings[name] = t.String()
		}
	}
	return rec
}

// Reason names the failure kind of err. Search failures are reported by
// their primary kind; anything else by its message.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, internalerr.ErrProofNotFound):
		return internalerr.ErrProofNotFound.Error()
	case errors.Is(err, internalerr.ErrDepthLimitExceed):
		return internalerr.ErrDepthLimitExceed.Error()
	case errors.Is(err, internalerr.ErrCycleProof):
		return internalerr.ErrCycleProof.Error()
	}
	return err.Error()
}

// SortedBindings returns the record bindings ordered by variable name.
func (r Record) SortedBindings() [][2]string {
	names := make([]string, 0, len(r.Bindings))
	for name := range r.Bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([][2]string, len(names))
	for i, name := range names {
		out[i] = [2]string{name, r.Bindings[name]}
	}
	return out
}
