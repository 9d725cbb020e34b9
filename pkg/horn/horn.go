// Package horn ties the prover to persistent knowledge bases and a proof
// journal. It is the entry point used by the command line and the HTTP
// service.
package horn

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/journal"
	"github.com/cognicore/horn/pkg/horn/kbio"
	"github.com/cognicore/horn/pkg/horn/logic"
	"github.com/cognicore/horn/pkg/horn/prover"
	"github.com/cognicore/horn/pkg/horn/store"
	"github.com/cognicore/horn/pkg/horn/store/memstore"
)

// Horn is the main theorem proving facade
type Horn struct {
	store    store.Store
	engine   prover.Engine
	journal  *journal.Builder
	log      *zap.Logger
	maxDepth int
}

// Options configures a Horn instance
type Options struct {
	// Store defaults to an in-memory store.
	Store store.Store
	// Engine defaults to a prover built from Prover. A zero Prover.MaxDepth
	// selects prover.DefaultMaxDepth; pass an Engine to bound depth at 0.
	Engine  prover.Engine
	Prover  prover.Options
	Journal *journal.Builder
	Logger  *zap.Logger
}

// New creates a Horn instance with the given dependencies
func New(opts Options) *Horn {
	h := &Horn{
		store:    opts.Store,
		engine:   opts.Engine,
		journal:  opts.Journal,
		log:      opts.Logger,
		maxDepth: opts.Prover.MaxDepth,
	}
	if h.store == nil {
		h.store = memstore.New()
	}
	if h.engine == nil {
		popts := opts.Prover
		if popts.MaxDepth == 0 {
			popts.MaxDepth = prover.DefaultMaxDepth
		}
		h.engine = prover.New(popts)
	}
	if p, ok := h.engine.(*prover.Prover); ok {
		h.maxDepth = p.Options().MaxDepth
	}
	if h.journal == nil {
		h.journal = journal.New()
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	return h
}

// Close cleanly shuts down the Horn instance
func (h *Horn) Close() error {
	return h.store.Close()
}

// ProveRequest defines a proof attempt. Rules take precedence over KB.
type ProveRequest struct {
	// KB names a stored knowledge base.
	KB        string
	Rules     *logic.KB
	Statement logic.Atom
	// MaxDepth overrides the configured depth bound for this attempt.
	MaxDepth *int
}

// ProveResponse carries the outcome and its journal record.
type ProveResponse struct {
	Provable bool
	Result   *prover.Result
	// Err is the search failure when Provable is false.
	Err    error
	Record journal.Record
}

// Prove runs a proof attempt and records it. Unprovable statements are not
// an error; they are reported through the response.
func (h *Horn) Prove(ctx context.Context, req ProveRequest) (*ProveResponse, error) {
	kb, name, err := h.resolveKB(ctx, req)
	if err != nil {
		return nil, err
	}

	engine, depth, err := h.engineFor(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := engine.Prove(ctx, kbio.StandardizeApart(kb), req.Statement)
	elapsed := time.Since(start)
	if err != nil && !internalerr.IsUnprovable(err) {
		return nil, err
	}

	rec := h.journal.Build(journal.Attempt{
		KB:        name,
		Statement: req.Statement,
		MaxDepth:  depth,
		Result:    res,
		Err:       err,
		Duration:  elapsed,
	})

	if err := h.store.InsertProof(ctx, toStoreProof(rec)); err != nil {
		return nil, fmt.Errorf("record proof: %w", err)
	}

	h.log.Debug("proof recorded",
		zap.String("id", rec.ID),
		zap.String("kb", name),
		zap.String("statement", rec.Statement),
		zap.Bool("provable", rec.Provable),
		zap.Int("steps", rec.Steps),
		zap.Duration("elapsed", elapsed))

	return &ProveResponse{Provable: err == nil, Result: res, Err: err, Record: rec}, nil
}

func (h *Horn) engineFor(req ProveRequest) (prover.Engine, int, error) {
	if req.MaxDepth == nil {
		return h.engine, h.maxDepth, nil
	}
	if *req.MaxDepth < 0 {
		return nil, 0, fmt.Errorf("%w: max depth %d", internalerr.ErrInvalidInput, *req.MaxDepth)
	}
	p, ok := h.engine.(*prover.Prover)
	if !ok {
		return nil, 0, fmt.Errorf("%w: engine has a fixed depth bound", internalerr.ErrInvalidInput)
	}
	opts := p.Options()
	opts.MaxDepth = *req.MaxDepth
	return prover.New(opts), opts.MaxDepth, nil
}

func (h *Horn) resolveKB(ctx context.Context, req ProveRequest) (logic.KB, string, error) {
	if req.Rules != nil {
		return *req.Rules, req.KB, nil
	}
	if req.KB == "" {
		return logic.KB{}, "", fmt.Errorf("%w: no knowledge base given", internalerr.ErrInvalidInput)
	}
	stored, ok, err := h.store.GetKB(ctx, req.KB)
	if err != nil {
		return logic.KB{}, "", err
	}
	if !ok {
		return logic.KB{}, "", fmt.Errorf("%w: knowledge base %q", internalerr.ErrNotFound, req.KB)
	}
	return stored.Rules, req.KB, nil
}

// ImportKB stores kb under name, replacing any previous version.
func (h *Horn) ImportKB(ctx context.Context, name string, kb logic.KB) error {
	if err := h.store.UpsertKB(ctx, store.KB{Name: name, Rules: kb}); err != nil {
		return err
	}
	h.log.Info("knowledge base imported", zap.String("kb", name), zap.Int("rules", len(kb.Rules)))
	return nil
}

// GetKB returns a stored knowledge base.
func (h *Horn) GetKB(ctx context.Context, name string) (logic.KB, error) {
	stored, ok, err := h.store.GetKB(ctx, name)
	if err != nil {
		return logic.KB{}, err
	}
	if !ok {
		return logic.KB{}, fmt.Errorf("%w: knowledge base %q", internalerr.ErrNotFound, name)
	}
	return stored.Rules, nil
}

// ListKBs lists stored knowledge bases.
func (h *Horn) ListKBs(ctx context.Context) ([]store.KBInfo, error) {
	return h.store.ListKBs(ctx)
}

// DeleteKB removes a stored knowledge base.
func (h *Horn) DeleteKB(ctx context.Context, name string) error {
	ok, err := h.store.DeleteKB(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: knowledge base %q", internalerr.ErrNotFound, name)
	}
	return nil
}

// History returns recorded proofs, newest first.
func (h *Horn) History(ctx context.Context, kb string, limit int) ([]journal.Record, error) {
	proofs, err := h.store.ListProofs(ctx, kb, limit)
	if err != nil {
		return nil, err
	}
	out := make([]journal.Record, len(proofs))
	for i, p := range proofs {
		out[i] = fromStoreProof(p)
	}
	return out, nil
}

func toStoreProof(r journal.Record) store.Proof {
	return store.Proof{
		ID:        r.ID,
		KB:        r.KB,
		Statement: r.Statement,
		Provable:  r.Provable,
		Reason:    r.Reason,
		Answer:    r.Answer,
		Bindings:  r.Bindings,
		Steps:     r.Steps,
		MaxDepth:  r.MaxDepth,
		Duration:  r.Duration,
		CreatedAt: r.At,
	}
}

func fromStoreProof(p store.Proof) journal.Record {
	return journal.Record{
		ID:        p.ID,
		KB:        p.KB,
		Statement: p.Statement,
		Provable:  p.Provable,
		Reason:    p.Reason,
		Answer:    p.Answer,
		Bindings:  p.Bindings,
		Steps:     p.Steps,
		MaxDepth:  p.MaxDepth,
		Duration:  p.Duration,
		At:        p.CreatedAt,
	}
}
