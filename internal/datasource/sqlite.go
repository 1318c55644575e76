package datasource

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/treeview/pkg/debug"
	"github.com/vanderheijden86/treeview/pkg/model"
)

// SchemaVersion is stored in the meta table of databases this package writes.
const SchemaVersion = 1

// Nodes are stored as an adjacency list. seq is the preorder position at
// write time so ids may repeat or be empty; children_key records whether the
// node had a children list at all, even an empty one.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS nodes (
		seq INTEGER PRIMARY KEY,
		parent_seq INTEGER REFERENCES nodes(seq),
		position INTEGER NOT NULL,
		id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		attrs TEXT,
		children_key INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_seq, position)`,
	`CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT
	)`,
}

// SQLiteReader provides read access to a tree database
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite database for reading
func NewSQLiteReader(path string) (*SQLiteReader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	return &SQLiteReader{db: db, path: path}, nil
}

// Close closes the database connection
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

type nodeRow struct {
	seq      int64
	node     model.TreeNode
	children []int64
}

// LoadTree reads every node and reassembles the forest. Rows whose parent
// is missing are promoted to roots.
func (r *SQLiteReader) LoadTree(ctx context.Context) ([]model.TreeNode, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT seq, parent_seq, id, name, attrs, children_key
		FROM nodes
		ORDER BY position, seq
	`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	bySeq := make(map[int64]*nodeRow)
	var order []int64
	parents := make(map[int64]sql.NullInt64)
	for rows.Next() {
		var (
			row          nodeRow
			parent       sql.NullInt64
			attrs        sql.NullString
			childrenFlag int
		)
		if err := rows.Scan(&row.seq, &parent, &row.node.ID, &row.node.Name, &attrs, &childrenFlag); err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		if attrs.Valid && attrs.String != "" {
			m, err := decodeAttrs(attrs.String)
			if err != nil {
				return nil, fmt.Errorf("node %d attrs: %w", row.seq, err)
			}
			row.node.Attrs = m
		}
		if childrenFlag != 0 {
			row.node.Children = []model.TreeNode{}
		}
		bySeq[row.seq] = &row
		parents[row.seq] = parent
		order = append(order, row.seq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}

	var roots []int64
	for _, seq := range order {
		parent := parents[seq]
		p, ok := bySeq[parent.Int64]
		switch {
		case !parent.Valid:
			roots = append(roots, seq)
		case !ok:
			debug.Log("sqlite %s: node %d has missing parent %d, treating as root", r.path, seq, parent.Int64)
			roots = append(roots, seq)
		default:
			p.children = append(p.children, seq)
		}
	}

	var build func(seq int64) model.TreeNode
	build = func(seq int64) model.TreeNode {
		row := bySeq[seq]
		n := row.node
		for _, c := range row.children {
			n.Children = append(n.Children, build(c))
		}
		return n
	}

	out := make([]model.TreeNode, 0, len(roots))
	for _, seq := range roots {
		out = append(out, build(seq))
	}
	return out, nil
}

// CountNodes returns the number of stored nodes
func (r *SQLiteReader) CountNodes(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM nodes").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func decodeAttrs(s string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// WriteSQLite replaces the contents of the database at path with roots,
// creating the file and schema when needed.
func WriteSQLite(ctx context.Context, path string, roots []model.TreeNode) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path))
	if err != nil {
		return fmt.Errorf("cannot open database: %w", err)
	}
	defer db.Close()

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM nodes"); err != nil {
		return fmt.Errorf("clear nodes: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO meta(key, value) VALUES ('schema_version', ?)", SchemaVersion); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (seq, parent_seq, position, id, name, attrs, children_key)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	var seq int64
	var insert func(nodes []model.TreeNode, parent sql.NullInt64) error
	insert = func(nodes []model.TreeNode, parent sql.NullInt64) error {
		for i, n := range nodes {
			seq++
			mine := seq
			var attrs sql.NullString
			if len(n.Attrs) > 0 {
				data, err := json.Marshal(n.Attrs)
				if err != nil {
					return fmt.Errorf("encoding attrs of %q: %w", n.ID, err)
				}
				attrs = sql.NullString{String: string(data), Valid: true}
			}
			childrenKey := 0
			if n.Children != nil {
				childrenKey = 1
			}
			if _, err := stmt.ExecContext(ctx, mine, parent, i, n.ID, n.Name, attrs, childrenKey); err != nil {
				return fmt.Errorf("insert %q: %w", n.ID, err)
			}
			if err := insert(n.Children, sql.NullInt64{Int64: mine, Valid: true}); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert(roots, sql.NullInt64{}); err != nil {
		return err
	}

	return tx.Commit()
}
