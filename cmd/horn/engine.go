package main

import (
	"context"
	"fmt"

	"github.com/cognicore/horn/pkg/horn"
	"github.com/cognicore/horn/pkg/horn/prover"
	"github.com/cognicore/horn/pkg/horn/store"
	"github.com/cognicore/horn/pkg/horn/store/memstore"
	"github.com/cognicore/horn/pkg/horn/store/sqlite"
)

// proverOptions applies the command line overrides on top of the config.
func (a *app) proverOptions(depth int, depthSet, seedFacts, occursCheck bool) prover.Options {
	opts := a.cfg.Prover.Options()
	if depthSet {
		opts.MaxDepth = depth
	}
	opts.SeedFacts = opts.SeedFacts || seedFacts
	opts.OccursCheck = opts.OccursCheck || occursCheck
	opts.Verbose = a.verbose
	opts.Logger = a.logger
	return opts
}

// openStore opens the configured SQLite store, or an in-memory one when no
// path is configured and persistence is optional.
func (a *app) openStore(ctx context.Context, required bool) (store.Store, error) {
	if a.cfg.Store.Path == "" {
		if required {
			return nil, fmt.Errorf("no database configured: use --db or store.path")
		}
		return memstore.New(), nil
	}
	st, err := sqlite.OpenSQLite(ctx, a.cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// buildHorn wires the facade to the configured store.
func (a *app) buildHorn(ctx context.Context, opts prover.Options, storeRequired bool) (*horn.Horn, func(), error) {
	st, err := a.openStore(ctx, storeRequired)
	if err != nil {
		return nil, nil, err
	}
	h := horn.New(horn.Options{
		Store:  st,
		Engine: prover.New(opts),
		Logger: a.logger,
	})
	cleanup := func() {
		h.Close()
	}
	return h, cleanup, nil
}
