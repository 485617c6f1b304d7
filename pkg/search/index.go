// Package search maintains a sqlite index over a tree's nodes for name,
// path and payload text queries.
package search

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/knarvik/trellis/pkg/tree"
)

const (
	// busSubscriber is the index's name on the change bus.
	busSubscriber = "search-index"
	// busPriority places the index after the view caches. The position
	// only matters for log readability; the index just marks itself
	// stale.
	busPriority = 16
)

// Text extracts searchable payload text from a node. A nil extractor
// indexes names and paths only.
type Text func(tree.Node) string

// Result is one search hit.
type Result struct {
	Path string `json:"path"`
	Name string `json:"name"`
	// Kind is "folder" or "leaf".
	Kind string  `json:"kind"`
	ID   tree.ID `json:"id"`
	// Snippet is a highlighted text fragment; empty without FTS5.
	Snippet string `json:"snippet,omitempty"`
}

// Index mirrors a tree into a sqlite database. It observes the change bus
// and marks itself stale on structural edits; the next Query resynchronizes
// the whole mirror in one transaction, so bursts of edits cost one rebuild.
type Index struct {
	db     *sql.DB
	tree   *tree.Tree
	text   Text
	useFTS bool
	stale  bool
}

// NewIndex opens dsn (":memory:" for a throwaway index) and attaches to t's
// bus.
func NewIndex(t *tree.Tree, dsn string, text Text) (*Index, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}

	idx := &Index{db: db, tree: t, text: text, stale: true}
	if err := idx.init(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init search index: %w", err)
	}

	t.Bus().Subscribe(busSubscriber, busPriority, idx.onChange)
	return idx, nil
}

// init creates the database schema.
func (idx *Index) init() error {
	// First, check if FTS5 is available
	idx.useFTS = idx.checkFTS5Support()

	metaSchema := `
	CREATE TABLE IF NOT EXISTS nodes_meta (
		path TEXT PRIMARY KEY,
		name TEXT,
		kind TEXT,
		node_id INTEGER,
		depth INTEGER,
		text TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_meta_name ON nodes_meta(name);
	CREATE INDEX IF NOT EXISTS idx_nodes_meta_kind ON nodes_meta(kind);
	`

	if _, err := idx.db.Exec(metaSchema); err != nil {
		return err
	}

	if idx.useFTS {
		ftsSchema := `
		CREATE VIRTUAL TABLE IF NOT EXISTS nodes_fts USING fts5(
			path UNINDEXED,
			name,
			text,
			tokenize = 'porter unicode61'
		);
		`

		if _, err := idx.db.Exec(ftsSchema); err != nil {
			// If FTS creation fails, disable FTS and continue
			idx.useFTS = false
		}
	}

	return nil
}

// checkFTS5Support checks if the FTS5 module is available.
func (idx *Index) checkFTS5Support() bool {
	_, err := idx.db.Exec("CREATE VIRTUAL TABLE IF NOT EXISTS fts5_test USING fts5(content)")
	if err != nil {
		return false
	}
	_, _ = idx.db.Exec("DROP TABLE IF EXISTS fts5_test")
	return true
}

func (idx *Index) onChange(c tree.Change) {
	switch c.Type {
	case tree.ExpandedChange, tree.LockedChange, tree.SelectedChange, tree.ReloadStarting:
		// Flag flips do not change what is indexed, and a starting
		// reload is settled by the Reloaded that follows.
	default:
		idx.stale = true
	}
}

// Rebuild resynchronizes the mirror with the tree immediately.
func (idx *Index) Rebuild() error {
	tx, err := idx.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if idx.useFTS {
		if _, err := tx.Exec("DELETE FROM nodes_fts"); err != nil {
			return err
		}
	}
	if _, err := tx.Exec("DELETE FROM nodes_meta"); err != nil {
		return err
	}

	var insertErr error
	idx.tree.Walk(func(n tree.Node) bool {
		kind := "folder"
		if _, ok := n.(*tree.Leaf); ok {
			kind = "leaf"
		}
		text := ""
		if idx.text != nil {
			text = idx.text(n)
		}

		if idx.useFTS {
			if _, err := tx.Exec(`
				INSERT INTO nodes_fts (path, name, text)
				VALUES (?, ?, ?)
			`, n.Path(), n.Name(), text); err != nil {
				insertErr = err
				return tree.Break
			}
		}
		if _, err := tx.Exec(`
			INSERT INTO nodes_meta (path, name, kind, node_id, depth, text)
			VALUES (?, ?, ?, ?, ?, ?)
		`, n.Path(), n.Name(), kind, uint32(n.ID()), n.Depth(), text); err != nil {
			insertErr = err
			return tree.Break
		}
		return tree.Continue
	})
	if insertErr != nil {
		return insertErr
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	idx.stale = false
	return nil
}

// Options narrow a search.
type Options struct {
	// Kind restricts hits to "folder" or "leaf" rows.
	Kind string
	// Limit caps the number of hits; zero means 50.
	Limit int
}

// Query searches the index, resynchronizing it first when stale. With FTS5
// the query uses full-text MATCH syntax; without it the terms are matched as
// substrings of names, paths and text.
func (idx *Index) Query(query string, opts *Options) ([]Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Limit == 0 {
		opts.Limit = 50
	}
	if idx.stale {
		if err := idx.Rebuild(); err != nil {
			return nil, fmt.Errorf("rebuild search index: %w", err)
		}
	}

	if idx.useFTS {
		return idx.queryWithFTS(query, opts)
	}
	return idx.queryWithoutFTS(query, opts)
}

func (idx *Index) queryWithFTS(query string, opts *Options) ([]Result, error) {
	conditions := []string{"nodes_fts MATCH ?"}
	args := []any{query}

	if opts.Kind != "" {
		conditions = append(conditions, "m.kind = ?")
		args = append(args, opts.Kind)
	}

	searchQuery := fmt.Sprintf(`
		SELECT
			m.path, m.name, m.kind, m.node_id,
			snippet(nodes_fts, 2, '<match>', '</match>', '...', 16) as snippet
		FROM nodes_fts f
		JOIN nodes_meta m ON f.path = m.path
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := idx.db.Query(searchQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResults(rows, true)
}

func (idx *Index) queryWithoutFTS(query string, opts *Options) ([]Result, error) {
	pattern := "%" + strings.ReplaceAll(query, " ", "%") + "%"
	conditions := []string{"(name LIKE ? OR path LIKE ? OR text LIKE ?)"}
	args := []any{pattern, pattern, pattern}

	if opts.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, opts.Kind)
	}

	searchQuery := fmt.Sprintf(`
		SELECT path, name, kind, node_id
		FROM nodes_meta
		WHERE %s
		ORDER BY path
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := idx.db.Query(searchQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResults(rows, false)
}

func scanResults(rows *sql.Rows, withSnippet bool) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		var id uint32

		if withSnippet {
			if err := rows.Scan(&r.Path, &r.Name, &r.Kind, &id, &r.Snippet); err != nil {
				return nil, err
			}
		} else {
			if err := rows.Scan(&r.Path, &r.Name, &r.Kind, &id); err != nil {
				return nil, err
			}
		}
		r.ID = tree.ID(id)
		results = append(results, r)
	}
	return results, rows.Err()
}

// UsesFTS reports whether queries go through FTS5 MATCH syntax.
func (idx *Index) UsesFTS() bool { return idx.useFTS }

// Match quotes raw user text for an FTS MATCH expression, so punctuation in
// names does not read as query syntax. Without FTS the query is substring
// based and needs no quoting.
func Match(text string) string {
	return `"` + strings.ReplaceAll(text, `"`, `""`) + `"`
}

// Close detaches the index from the bus and closes the database.
func (idx *Index) Close() error {
	idx.tree.Bus().Unsubscribe(busSubscriber)
	return idx.db.Close()
}
