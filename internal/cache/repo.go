package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/starford/othala/internal/index"
)

// Row represents a row in the notes table. Body text is stored alongside
// but only surfaced through search snippets.
type Row struct {
	ID        string
	Path      string
	Type      string
	Title     string
	Checksum  string
	Tags      []string
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string
	Path    string
	Title   string
	Snippet string
}

// Upsert inserts or replaces a note row, its FTS entry, and its outgoing
// edges within a transaction. A changed path (rename) updates in place
// because rows are keyed by id.
func (db *DB) Upsert(row Row, body string, edges []index.Edge) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("cache: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(row.Tags)

	_, err = tx.Exec(`
		INSERT INTO notes (id, path, type, title, checksum, tags, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path       = excluded.path,
			type       = excluded.type,
			title      = excluded.title,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, row.ID, row.Path, row.Type, row.Title, row.Checksum, string(tagsJSON), body, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("cache: upsert note: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, row.ID, row.Title, body, row.Tags); err != nil {
		return err
	}

	// Replace edges: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM edges WHERE source = ?`, row.ID)
	if len(edges) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO edges (source, target, kind) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("cache: prepare edge insert: %w", err)
		}
		defer stmt.Close()
		for _, e := range edges {
			if _, err := stmt.Exec(e.Source, e.Target, e.Kind); err != nil {
				return fmt.Errorf("cache: insert edge: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Delete removes the note cached from path, its FTS entry, and its
// outgoing edges. An unknown path is not an error.
func (db *DB) Delete(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("cache: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var id string
	if err := tx.QueryRow(`SELECT id FROM notes WHERE path = ?`, path).Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return fmt.Errorf("cache: lookup %s: %w", path, err)
	}

	ftsDelete(tx, id)
	_, _ = tx.Exec(`DELETE FROM edges WHERE source = ?`, id)
	_, _ = tx.Exec(`DELETE FROM notes WHERE id = ?`, id)

	return tx.Commit()
}

// Get returns the cached row for id, or nil when absent.
func (db *DB) Get(id string) (*Row, error) {
	var (
		r        Row
		tagsJSON string
	)
	err := db.conn.QueryRow(`
		SELECT id, path, type, title, checksum, tags, updated_at
		FROM notes WHERE id = ?
	`, id).Scan(&r.ID, &r.Path, &r.Type, &r.Title, &r.Checksum, &tagsJSON, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: get %s: %w", id, err)
	}
	_ = json.Unmarshal([]byte(tagsJSON), &r.Tags)
	return &r, nil
}

// List returns cached rows ordered by id, optionally filtered by type,
// plus the total count for the filter.
func (db *DB) List(typ string, limit, offset int) ([]Row, int, error) {
	if limit <= 0 {
		limit = 50
	}

	var (
		total int
		rows  *sql.Rows
		err   error
	)
	if typ != "" {
		if err := db.conn.QueryRow(`SELECT count(*) FROM notes WHERE type = ?`, typ).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("cache: count: %w", err)
		}
		rows, err = db.conn.Query(`
			SELECT id, path, type, title, checksum, tags, updated_at
			FROM notes WHERE type = ? ORDER BY id LIMIT ? OFFSET ?
		`, typ, limit, offset)
	} else {
		if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("cache: count: %w", err)
		}
		rows, err = db.conn.Query(`
			SELECT id, path, type, title, checksum, tags, updated_at
			FROM notes ORDER BY id LIMIT ? OFFSET ?
		`, limit, offset)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("cache: list: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r        Row
			tagsJSON string
		)
		if err := rows.Scan(&r.ID, &r.Path, &r.Type, &r.Title, &r.Checksum, &tagsJSON, &r.UpdatedAt); err != nil {
			return nil, 0, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &r.Tags)
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// Checksum returns the stored checksum for a path, or empty string when
// the path is not cached.
func (db *DB) Checksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns every cached path with its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("cache: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Edges returns the cached outgoing edges of source, in insert order.
func (db *DB) Edges(source string) ([]index.Edge, error) {
	return db.edgeQuery(`SELECT source, target, kind FROM edges WHERE source = ? ORDER BY rowid`, source)
}

// Backlinks returns every cached edge pointing at target, in insert order.
func (db *DB) Backlinks(target string) ([]index.Edge, error) {
	return db.edgeQuery(`SELECT source, target, kind FROM edges WHERE target = ? ORDER BY rowid`, target)
}

func (db *DB) edgeQuery(q, arg string) ([]index.Edge, error) {
	rows, err := db.conn.Query(q, arg)
	if err != nil {
		return nil, fmt.Errorf("cache: edges: %w", err)
	}
	defer rows.Close()

	var out []index.Edge
	for rows.Next() {
		var e index.Edge
		if err := rows.Scan(&e.Source, &e.Target, &e.Kind); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
