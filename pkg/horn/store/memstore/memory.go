package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/horn/pkg/horn/logic"
	"github.com/cognicore/horn/pkg/horn/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu     sync.RWMutex
	kbs    map[string]store.KB
	proofs []store.Proof
	now    func() time.Time
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		kbs: make(map[string]store.KB),
		now: time.Now,
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// UpsertKB inserts or replaces a knowledge base, keyed by name.
func (s *Store) UpsertKB(ctx context.Context, kb store.KB) error {
	if err := store.ValidateName(kb.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if kb.UpdatedAt.IsZero() {
		kb.UpdatedAt = s.now().UTC()
	}
	kb.Rules = copyRules(kb.Rules)
	s.kbs[kb.Name] = kb
	return nil
}

// GetKB returns a knowledge base by name.
func (s *Store) GetKB(ctx context.Context, name string) (store.KB, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kb, ok := s.kbs[name]
	if !ok {
		return store.KB{}, false, nil
	}
	kb.Rules = copyRules(kb.Rules)
	return kb, true, nil
}

// ListKBs returns all knowledge bases ordered by name.
func (s *Store) ListKBs(ctx context.Context) ([]store.KBInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.KBInfo, 0, len(s.kbs))
	for _, kb := range s.kbs {
		out = append(out, store.Info(kb))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DeleteKB removes a knowledge base. Its proof history is kept.
func (s *Store) DeleteKB(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.kbs[name]; !ok {
		return false, nil
	}
	delete(s.kbs, name)
	return true, nil
}

// InsertProof appends a proof record.
func (s *Store) InsertProof(ctx context.Context, p store.Proof) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.proofs = append(s.proofs, copyProof(p))
	return nil
}

// ListProofs returns the newest proofs, optionally restricted to one knowledge base.
func (s *Store) ListProofs(ctx context.Context, kb string, limit int) ([]store.Proof, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = store.DefaultProofLimit
	}

	var out []store.Proof
	for _, p := range s.proofs {
		if kb != "" && p.KB != kb {
			continue
		}
		out = append(out, copyProof(p))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func copyRules(kb logic.KB) logic.KB {
	return logic.KB{Rules: append([]logic.Rule(nil), kb.Rules...)}
}

func copyProof(p store.Proof) store.Proof {
	if p.Bindings != nil {
		b := make(map[string]string, len(p.Bindings))
		for k, v := range p.Bindings {
			b[k] = v
		}
		p.Bindings = b
	}
	return p
}
