package linkdb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/zettl/internal/models"
)

// LinkCount is a neighbouring note and the number of references to or from it.
type LinkCount struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// Stats summarises the last mirrored build.
type Stats struct {
	Nodes   int       `json:"nodes"`
	Links   int       `json:"links"`
	Broken  int       `json:"broken"`
	BuiltAt time.Time `json:"built_at"`
}

// ReplaceGraph discards the stored graph and inserts g within one transaction.
func (db *DB) ReplaceGraph(g models.Graph, broken int, builtAt time.Time) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("linkdb: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, stmt := range []string{`DELETE FROM links`, `DELETE FROM nodes`} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("linkdb: clear: %w", err)
		}
	}

	nodeStmt, err := tx.Prepare(`INSERT INTO nodes (id) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("linkdb: prepare node insert: %w", err)
	}
	defer nodeStmt.Close()
	for _, n := range g.Nodes {
		if _, err := nodeStmt.Exec(n.ID); err != nil {
			return fmt.Errorf("linkdb: insert node %s: %w", n.ID, err)
		}
	}

	linkStmt, err := tx.Prepare(`INSERT INTO links (source, target) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("linkdb: prepare link insert: %w", err)
	}
	defer linkStmt.Close()
	for _, l := range g.Links {
		if _, err := linkStmt.Exec(l.Source, l.Target); err != nil {
			return fmt.Errorf("linkdb: insert link: %w", err)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO builds (id, built_at, broken) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			built_at = excluded.built_at,
			broken   = excluded.broken
	`, builtAt.UTC(), broken)
	if err != nil {
		return fmt.Errorf("linkdb: record build: %w", err)
	}

	return tx.Commit()
}

// Graph returns the stored graph in insertion order.
func (db *DB) Graph() (models.Graph, error) {
	g := models.Graph{Nodes: []models.Node{}, Links: []models.Link{}}

	rows, err := db.conn.Query(`SELECT id FROM nodes ORDER BY rowid`)
	if err != nil {
		return g, fmt.Errorf("linkdb: nodes: %w", err)
	}
	for rows.Next() {
		var n models.Node
		if err := rows.Scan(&n.ID); err != nil {
			rows.Close()
			return g, err
		}
		g.Nodes = append(g.Nodes, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return g, err
	}

	rows, err = db.conn.Query(`SELECT source, target FROM links ORDER BY seq`)
	if err != nil {
		return g, fmt.Errorf("linkdb: links: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l models.Link
		if err := rows.Scan(&l.Source, &l.Target); err != nil {
			return g, err
		}
		g.Links = append(g.Links, l)
	}
	return g, rows.Err()
}

// Backlinks returns the notes referencing target with their reference counts.
func (db *DB) Backlinks(target string) ([]LinkCount, error) {
	return db.neighbours(`SELECT source, COUNT(*) FROM links WHERE target = ? GROUP BY source ORDER BY source`, target)
}

// Outlinks returns the notes referenced by source with their reference counts.
func (db *DB) Outlinks(source string) ([]LinkCount, error) {
	return db.neighbours(`SELECT target, COUNT(*) FROM links WHERE source = ? GROUP BY target ORDER BY target`, source)
}

func (db *DB) neighbours(query, id string) ([]LinkCount, error) {
	rows, err := db.conn.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("linkdb: neighbours of %s: %w", id, err)
	}
	defer rows.Close()

	out := []LinkCount{}
	for rows.Next() {
		var lc LinkCount
		if err := rows.Scan(&lc.ID, &lc.Count); err != nil {
			return nil, err
		}
		out = append(out, lc)
	}
	return out, rows.Err()
}

// Stats returns counts of the stored graph. BuiltAt is zero before the
// first ReplaceGraph.
func (db *DB) Stats() (Stats, error) {
	var s Stats
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM nodes`).Scan(&s.Nodes); err != nil {
		return s, fmt.Errorf("linkdb: count nodes: %w", err)
	}
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM links`).Scan(&s.Links); err != nil {
		return s, fmt.Errorf("linkdb: count links: %w", err)
	}
	err := db.conn.QueryRow(`SELECT built_at, broken FROM builds WHERE id = 1`).Scan(&s.BuiltAt, &s.Broken)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return s, fmt.Errorf("linkdb: last build: %w", err)
	}
	return s, nil
}
