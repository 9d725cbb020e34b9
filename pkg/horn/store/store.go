package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/logic"
)

// DefaultProofLimit caps ListProofs when no limit is given.
const DefaultProofLimit = 20

// Store is the main interface for persisting knowledge bases and proof history
type Store interface {
	Close() error

	// Knowledge bases
	UpsertKB(ctx context.Context, kb KB) error
	GetKB(ctx context.Context, name string) (KB, bool, error)
	ListKBs(ctx context.Context) ([]KBInfo, error)
	DeleteKB(ctx context.Context, name string) (bool, error)

	// Proof history, newest first
	InsertProof(ctx context.Context, p Proof) error
	ListProofs(ctx context.Context, kb string, limit int) ([]Proof, error)
}

// KB represents a stored, named knowledge base
type KB struct {
	Name      string
	Rules     logic.KB
	UpdatedAt time.Time
}

// KBInfo is the listing view of a stored knowledge base
type KBInfo struct {
	Name      string
	Rules     int
	Facts     int
	UpdatedAt time.Time
}

// Proof represents a stored proof attempt
type Proof struct {
	ID        string
	KB        string
	Statement string
	Provable  bool
	Reason    string
	Answer    string
	Bindings  map[string]string
	Steps     int
	MaxDepth  int
	Duration  time.Duration
	CreatedAt time.Time
}

// ValidateName rejects names that cannot key a knowledge base.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: knowledge base name is empty", internalerr.ErrInvalidInput)
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("%w: knowledge base name %q contains a path separator", internalerr.ErrInvalidInput, name)
	}
	return nil
}

// Info summarizes kb for listings.
func Info(kb KB) KBInfo {
	return KBInfo{
		Name:      kb.Name,
		Rules:     len(kb.Rules.Rules),
		Facts:     len(kb.Rules.Facts()),
		UpdatedAt: kb.UpdatedAt,
	}
}
