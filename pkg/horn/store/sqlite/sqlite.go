package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/kbio"
	"github.com/cognicore/horn/pkg/horn/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens a SQLite database with WAL mode enabled. Failures to open
// or initialize the database wrap internalerr.ErrStoreUnavailable.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, unavailable(path, err)
	}
	// A single writer connection keeps ":memory:" databases shared and
	// serializes writes without SQLITE_BUSY retries.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, unavailable(path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, unavailable(path, err)
	}

	// Initialize schema
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, unavailable(path, err)
	}

	return &sqliteStore{db: db, now: time.Now}, nil
}

func unavailable(path string, err error) error {
	return fmt.Errorf("%w: %s: %v", internalerr.ErrStoreUnavailable, path, err)
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS kbs (
	name TEXT PRIMARY KEY,
	rules TEXT NOT NULL,
	rule_count INTEGER NOT NULL,
	fact_count INTEGER NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS proofs (
	id TEXT PRIMARY KEY,
	kb TEXT NOT NULL,
	statement TEXT NOT NULL,
	provable INTEGER NOT NULL,
	reason TEXT,
	answer TEXT,
	bindings TEXT,
	steps INTEGER NOT NULL,
	max_depth INTEGER NOT NULL,
	duration_ns INTEGER NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_proofs_kb ON proofs(kb, id);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// UpsertKB inserts or replaces a knowledge base. Rules are stored in the
// JSON interchange format.
func (s *sqliteStore) UpsertKB(ctx context.Context, kb store.KB) error {
	if err := store.ValidateName(kb.Name); err != nil {
		return err
	}
	rulesJSON, err := kbio.EncodeKB(kb.Rules, kbio.FormatJSON)
	if err != nil {
		return err
	}
	if kb.UpdatedAt.IsZero() {
		kb.UpdatedAt = s.now()
	}
	info := store.Info(kb)

	_, err = s.db.ExecContext(ctx, `
INSERT INTO kbs (name, rules, rule_count, fact_count, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
	rules=excluded.rules,
	rule_count=excluded.rule_count,
	fact_count=excluded.fact_count,
	updated_at=excluded.updated_at;
`, kb.Name, string(rulesJSON), info.Rules, info.Facts, formatTime(kb.UpdatedAt))
	return err
}

// GetKB retrieves a knowledge base by name
func (s *sqliteStore) GetKB(ctx context.Context, name string) (store.KB, bool, error) {
	var rulesJSON, updated string
	err := s.db.QueryRowContext(ctx, `SELECT rules, updated_at FROM kbs WHERE name = ?`, name).Scan(&rulesJSON, &updated)
	if err == sql.ErrNoRows {
		return store.KB{}, false, nil
	}
	if err != nil {
		return store.KB{}, false, err
	}

	rules, err := kbio.ParseKB([]byte(rulesJSON), kbio.FormatJSON)
	if err != nil {
		return store.KB{}, false, fmt.Errorf("decode kb %q: %w", name, err)
	}
	return store.KB{Name: name, Rules: rules, UpdatedAt: parseTime(updated)}, true, nil
}

// ListKBs lists stored knowledge bases ordered by name
func (s *sqliteStore) ListKBs(ctx context.Context) ([]store.KBInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT name, rule_count, fact_count, updated_at
FROM kbs
ORDER BY name;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.KBInfo
	for rows.Next() {
		var info store.KBInfo
		var updated string
		if err := rows.Scan(&info.Name, &info.Rules, &info.Facts, &updated); err != nil {
			return nil, err
		}
		info.UpdatedAt = parseTime(updated)
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteKB removes a knowledge base. Proof history is kept.
func (s *sqliteStore) DeleteKB(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM kbs WHERE name = ?`, name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertProof records a proof attempt
func (s *sqliteStore) InsertProof(ctx context.Context, p store.Proof) error {
	bindingsJSON, err := json.Marshal(p.Bindings)
	if err != nil {
		return err
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO proofs (id, kb, statement, provable, reason, answer, bindings, steps, max_depth, duration_ns, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`, p.ID, p.KB, p.Statement, boolToInt(p.Provable), p.Reason, p.Answer, string(bindingsJSON),
		p.Steps, p.MaxDepth, int64(p.Duration), formatTime(p.CreatedAt))
	return err
}

// ListProofs returns the newest proofs, optionally for one knowledge base
func (s *sqliteStore) ListProofs(ctx context.Context, kb string, limit int) ([]store.Proof, error) {
	if limit <= 0 {
		limit = store.DefaultProofLimit
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, kb, statement, provable, reason, answer, bindings, steps, max_depth, duration_ns, created_at
FROM proofs
WHERE ? = '' OR kb = ?
ORDER BY id DESC
LIMIT ?;
`, kb, kb, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proofs []store.Proof
	for rows.Next() {
		var p store.Proof
		var provable int
		var reason, answer, bindingsJSON sql.NullString
		var durationNS int64
		var created string
		if err := rows.Scan(&p.ID, &p.KB, &p.Statement, &provable, &reason, &answer, &bindingsJSON,
			&p.Steps, &p.MaxDepth, &durationNS, &created); err != nil {
			return nil, err
		}
		p.Provable = provable != 0
		p.Reason = reason.String
		p.Answer = answer.String
		p.Duration = time.Duration(durationNS)
		p.CreatedAt = parseTime(created)
		if bindingsJSON.Valid && bindingsJSON.String != "" {
			if err := json.Unmarshal([]byte(bindingsJSON.String), &p.Bindings); err != nil {
				return nil, err
			}
		}
		proofs = append(proofs, p)
	}
	return proofs, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
