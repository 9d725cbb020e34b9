// Package maintenance keeps recorded proofs consistent with the knowledge
// bases they were made against.
package maintenance

import (
	"context"
	"errors"
	"fmt"

	"github.com/cognicore/horn/pkg/horn"
	"github.com/cognicore/horn/pkg/horn/journal"
	"github.com/cognicore/horn/pkg/horn/kbio"
)

// Prover abstracts the facade for rechecking.
type Prover interface {
	Prove(ctx context.Context, req horn.ProveRequest) (*horn.ProveResponse, error)
}

// RecordSource abstracts how we iterate recorded proofs.
type RecordSource interface {
	Next(ctx context.Context) (journal.Record, bool, error)
}

// Rechecker re-proves recorded statements after a knowledge base changed.
type Rechecker struct {
	Prover Prover
	Source RecordSource
	// KB names the stored knowledge base the statements are proved against.
	KB string
}

// Change is a statement whose verdict differs from its recorded one.
type Change struct {
	Statement string
	Was       bool
	Now       bool
}

// Result summarizes the recheck run.
type Result struct {
	Processed int
	Changed   []Change
	Errors    int
}

// Recheck proves each distinct recorded statement again. Only the newest
// record of a statement is considered.
func (r *Rechecker) Recheck(ctx context.Context) (Result, error) {
	var res Result
	if r.Prover == nil || r.Source == nil || r.KB == "" {
		return res, errors.New("rechecker: invalid configuration")
	}

	seen := make(map[string]struct{})
	for {
		rec, ok, err := r.Source.Next(ctx)
		if err != nil {
			return res, fmt.Errorf("read records: %w", err)
		}
		if !ok {
			break
		}
		if _, dup := seen[rec.Statement]; dup {
			continue
		}
		seen[rec.Statement] = struct{}{}
		res.Processed++

		statement, err := kbio.ParseAtom(rec.Statement)
		if err != nil {
			res.Errors++
			continue
		}
		resp, err := r.Prover.Prove(ctx, horn.ProveRequest{KB: r.KB, Statement: statement})
		if err != nil {
			res.Errors++
			continue
		}
		if resp.Provable != rec.Provable {
			res.Changed = append(res.Changed, Change{Statement: rec.Statement, Was: rec.Provable, Now: resp.Provable})
		}
	}
	return res, nil
}

// SliceSource yields records from a slice, in order.
type SliceSource struct {
	Records []journal.Record
	idx     int
}

// Next implements RecordSource.
func (s *SliceSource) Next(ctx context.Context) (journal.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return journal.Record{}, false, err
	}
	if s.idx >= len(s.Records) {
		return journal.Record{}, false, nil
	}
	rec := s.Records[s.idx]
	s.idx++
	return rec, true, nil
}
