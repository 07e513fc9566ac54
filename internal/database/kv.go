package database

import (
	"database/sql"
	"time"

	"github.com/TobiSchelling/LitReview/internal/logger"
	"github.com/TobiSchelling/LitReview/internal/store"
)

// DurableScope holds state that outlives any terminal session.
const DurableScope = "durable"

const sessionPrefix = "session:"

// SessionScope returns the scope name for one terminal session.
func SessionScope(id string) string {
	return sessionPrefix + id
}

// GetValue returns the value stored under scope/key.
func (db *DB) GetValue(scope, key string) (string, bool, error) {
	var value string
	err := db.conn.QueryRow(
		"SELECT value FROM kv_entries WHERE scope = ? AND key = ?", scope, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// PutValue inserts or replaces the value stored under scope/key.
func (db *DB) PutValue(scope, key, value string) error {
	_, err := db.conn.Exec(
		`INSERT INTO kv_entries (scope, key, value) VALUES (?, ?, ?)
		ON CONFLICT(scope, key) DO UPDATE SET value = excluded.value, updated_at = datetime('now')`,
		scope, key, value,
	)
	return err
}

// DeleteValue removes scope/key. Missing keys are not an error.
func (db *DB) DeleteValue(scope, key string) error {
	_, err := db.conn.Exec("DELETE FROM kv_entries WHERE scope = ? AND key = ?", scope, key)
	return err
}

// GetScopeEntries returns all entries in a scope ordered by key.
func (db *DB) GetScopeEntries(scope string) ([]Entry, error) {
	rows, err := db.conn.Query(
		"SELECT scope, key, value, updated_at FROM kv_entries WHERE scope = ? ORDER BY key", scope,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Scope, &e.Key, &e.Value, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PruneSessions removes session scopes that have not been written for
// longer than maxAge. It returns the number of scopes removed.
func (db *DB) PruneSessions(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge).Format("2006-01-02 15:04:05")

	var stale int64
	if err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM (
			SELECT scope FROM kv_entries WHERE scope LIKE ? GROUP BY scope HAVING MAX(updated_at) < ?
		)`, sessionPrefix+"%", cutoff,
	).Scan(&stale); err != nil {
		return 0, err
	}
	if stale == 0 {
		return 0, nil
	}

	_, err := db.conn.Exec(
		`DELETE FROM kv_entries WHERE scope IN (
			SELECT scope FROM kv_entries WHERE scope LIKE ? GROUP BY scope HAVING MAX(updated_at) < ?
		)`, sessionPrefix+"%", cutoff,
	)
	if err != nil {
		return 0, err
	}
	return stale, nil
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		args []any
		dest *int
	}{
		{"SELECT COUNT(*) FROM kv_entries", nil, &s.TotalEntries},
		{"SELECT COUNT(*) FROM kv_entries WHERE scope = ?", []any{DurableScope}, &s.DurableEntries},
		{"SELECT COUNT(DISTINCT scope) FROM kv_entries WHERE scope LIKE ?", []any{sessionPrefix + "%"}, &s.SessionScopes},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql, q.args...).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// ScopedStore exposes one scope of the database as a store.Store.
type ScopedStore struct {
	db    *DB
	scope string
}

var _ store.Store = (*ScopedStore)(nil)

// Scope returns a store.Store bound to the named scope.
func (db *DB) Scope(name string) *ScopedStore {
	return &ScopedStore{db: db, scope: name}
}

func (s *ScopedStore) Get(key string) (string, bool) {
	v, ok, err := s.db.GetValue(s.scope, key)
	if err != nil {
		logger.Warn("reading stored value", "scope", s.scope, "key", key, "err", err)
		return "", false
	}
	return v, ok
}

func (s *ScopedStore) Set(key, value string) {
	if err := s.db.PutValue(s.scope, key, value); err != nil {
		logger.Warn("writing stored value", "scope", s.scope, "key", key, "err", err)
	}
}

func (s *ScopedStore) Remove(key string) {
	if err := s.db.DeleteValue(s.scope, key); err != nil {
		logger.Warn("removing stored value", "scope", s.scope, "key", key, "err", err)
	}
}
