package internal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const sqlSchema = `
CREATE TABLE IF NOT EXISTS objects (
	hash TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	body BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS refs (
	agent_id TEXT NOT NULL,
	name     TEXT NOT NULL,
	target   TEXT NOT NULL,
	PRIMARY KEY (agent_id, name)
);
CREATE TABLE IF NOT EXISTS stage (
	agent_id TEXT PRIMARY KEY,
	tree     TEXT NOT NULL
);
`

// SQLStore keeps the blobs/refs/stage layout in a single sqlite
// database. The ref CAS maps to an UPDATE guarded by a
// WHERE-target-matches-old-value clause, so the database provides the
// atomicity.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(sqlSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Object store

func (s *SQLStore) Put(ctx context.Context, typ ObjectType, body []byte) (Hash, error) {
	hash := HashObject(typ, body)

	// INSERT OR IGNORE keeps Put idempotent under concurrent writers.
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO objects (hash, type, body) VALUES (?, ?, ?)`,
		hash.String(), string(typ), body)
	if err != nil {
		return ZeroHash, fmt.Errorf("insert object: %w", err)
	}

	return hash, nil
}

func (s *SQLStore) Get(ctx context.Context, hash Hash) (ObjectType, []byte, error) {
	var typ string
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT type, body FROM objects WHERE hash = ?`, hash.String()).Scan(&typ, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, fmt.Errorf("%w: %s", ErrObjectNotFound, hash.Short())
	}
	if err != nil {
		return "", nil, fmt.Errorf("query object: %w", err)
	}

	if !ObjectType(typ).Valid() {
		return "", nil, fmt.Errorf("%w: unknown object type %q", ErrMalformedObject, typ)
	}
	if HashObject(ObjectType(typ), body) != hash {
		return "", nil, fmt.Errorf("%w: object %s fails hash verification", ErrMalformedObject, hash.Short())
	}

	return ObjectType(typ), body, nil
}

func (s *SQLStore) Has(ctx context.Context, hash Hash) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM objects WHERE hash = ?`, hash.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Ref store

func (s *SQLStore) CreateRef(ctx context.Context, agentID, name string, target Hash) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refs (agent_id, name, target) VALUES (?, ?, ?)`,
		agentID, name, target.String())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s/%s", ErrRefExists, agentID, name)
		}
		return fmt.Errorf("create ref: %w", err)
	}
	return nil
}

func (s *SQLStore) ResolveRef(ctx context.Context, agentID, name string) (Hash, error) {
	var target string
	err := s.db.QueryRowContext(ctx,
		`SELECT target FROM refs WHERE agent_id = ? AND name = ?`,
		agentID, name).Scan(&target)
	if errors.Is(err, sql.ErrNoRows) {
		return ZeroHash, ErrRefNotFound
	}
	if err != nil {
		return ZeroHash, fmt.Errorf("resolve ref: %w", err)
	}
	return NewHash(target)
}

func (s *SQLStore) UpdateRef(ctx context.Context, agentID, name string, target, expected Hash) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE refs SET target = ? WHERE agent_id = ? AND name = ? AND target = ?`,
		target.String(), agentID, name, expected.String())
	if err != nil {
		return fmt.Errorf("update ref: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update ref: %w", err)
	}
	if n == 1 {
		return nil
	}

	// Zero rows means either the ref is gone or another writer moved it.
	current, err := s.ResolveRef(ctx, agentID, name)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s/%s is at %s, expected %s", ErrConflict, agentID, name, current.Short(), expected.Short())
}

func (s *SQLStore) DeleteRef(ctx context.Context, agentID, name string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM refs WHERE agent_id = ? AND name = ?`, agentID, name)
	if err != nil {
		return fmt.Errorf("delete ref: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRefNotFound
	}
	return nil
}

func (s *SQLStore) ListRefs(ctx context.Context, agentID string) ([]Ref, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, target FROM refs WHERE agent_id = ? ORDER BY name`, agentID)
	if err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}
	defer rows.Close()

	var refs []Ref
	for rows.Next() {
		var name, target string
		if err := rows.Scan(&name, &target); err != nil {
			return nil, err
		}
		hash, err := NewHash(target)
		if err != nil {
			return nil, err
		}
		refs = append(refs, Ref{AgentID: agentID, Name: name, Target: hash})
	}
	return refs, rows.Err()
}

// Stage store

func (s *SQLStore) ReadStage(ctx context.Context, agentID string) (Hash, error) {
	var tree string
	err := s.db.QueryRowContext(ctx,
		`SELECT tree FROM stage WHERE agent_id = ?`, agentID).Scan(&tree)
	if errors.Is(err, sql.ErrNoRows) {
		return ZeroHash, ErrNothingStaged
	}
	if err != nil {
		return ZeroHash, fmt.Errorf("read stage: %w", err)
	}
	return NewHash(tree)
}

func (s *SQLStore) WriteStage(ctx context.Context, agentID string, tree Hash) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stage (agent_id, tree) VALUES (?, ?)
		 ON CONFLICT (agent_id) DO UPDATE SET tree = excluded.tree`,
		agentID, tree.String())
	if err != nil {
		return fmt.Errorf("write stage: %w", err)
	}
	return nil
}

func (s *SQLStore) ClearStage(ctx context.Context, agentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM stage WHERE agent_id = ?`, agentID)
	return err
}

func isUniqueViolation(err error) bool {
	// mattn/go-sqlite3 reports constraint failures with this prefix.
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
