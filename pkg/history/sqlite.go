package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLite keeps history in a SQLite database.
type SQLite struct {
	db    *sql.DB
	limit int
}

// OpenSQLite opens (or creates) the database at path. A limit below 2
// selects [DefaultLimit].
func OpenSQLite(path string, limit int) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; more connections only produce SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if limit < 2 {
		limit = DefaultLimit
	}
	s := &SQLite{db: db, limit: limit}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS history_nodes (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			doc_id TEXT NOT NULL,
			parent_id TEXT,
			label TEXT NOT NULL,
			snapshot BLOB NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_nodes_doc ON history_nodes(doc_id, seq)`,
		`CREATE TABLE IF NOT EXISTS history_state (
			doc_id TEXT PRIMARY KEY,
			current_id TEXT NOT NULL
		)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Push(ctx context.Context, docID, label string, snapshot []byte) (Entry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, err
	}
	defer tx.Rollback()

	current, err := currentID(ctx, tx, docID)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{
		ID:        uuid.NewString(),
		ParentID:  current,
		Label:     label,
		Snapshot:  snapshot,
		CreatedAt: time.Now(),
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO history_nodes (id, doc_id, parent_id, label, snapshot, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, docID, nullString(current), label, snapshot, e.CreatedAt.UnixNano(),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert history node: %w", err)
	}
	if err := setCurrent(ctx, tx, docID, e.ID); err != nil {
		return Entry{}, err
	}
	if err := s.prune(ctx, tx, docID, e.ID); err != nil {
		return Entry{}, err
	}
	return e, tx.Commit()
}

// prune removes the oldest nodes of docID above the limit, skipping the
// current node, and re-parents their children.
func (s *SQLite) prune(ctx context.Context, tx *sql.Tx, docID, current string) error {
	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM history_nodes WHERE doc_id = ?`, docID).Scan(&count); err != nil {
		return err
	}
	if count <= s.limit {
		return nil
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, parent_id FROM history_nodes WHERE doc_id = ? AND id != ?
		 ORDER BY seq ASC LIMIT ?`, docID, current, count-s.limit,
	)
	if err != nil {
		return err
	}
	type victim struct {
		id     string
		parent sql.NullString
	}
	var victims []victim
	for rows.Next() {
		var v victim
		if err := rows.Scan(&v.id, &v.parent); err != nil {
			rows.Close()
			return err
		}
		victims = append(victims, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, v := range victims {
		if _, err := tx.ExecContext(ctx,
			`UPDATE history_nodes SET parent_id = ? WHERE parent_id = ?`, v.parent, v.id,
		); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM history_nodes WHERE id = ?`, v.id); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Undo(ctx context.Context, docID string) (Entry, bool, error) {
	return s.move(ctx, docID, `SELECT n.id, n.parent_id, n.label, n.snapshot, n.created_at
		FROM history_nodes c JOIN history_nodes n ON n.id = c.parent_id
		WHERE c.id = ?`)
}

func (s *SQLite) Redo(ctx context.Context, docID string) (Entry, bool, error) {
	return s.move(ctx, docID, `SELECT id, parent_id, label, snapshot, created_at
		FROM history_nodes WHERE parent_id = ? ORDER BY seq DESC LIMIT 1`)
}

// move runs query with the current node id and makes the node it returns
// current.
func (s *SQLite) move(ctx context.Context, docID, query string) (Entry, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, false, err
	}
	defer tx.Rollback()

	current, err := currentID(ctx, tx, docID)
	if err != nil || current == "" {
		return Entry{}, false, err
	}
	e, err := scanEntry(tx.QueryRowContext(ctx, query, current))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	if err := setCurrent(ctx, tx, docID, e.ID); err != nil {
		return Entry{}, false, err
	}
	return e, true, tx.Commit()
}

func (s *SQLite) Current(ctx context.Context, docID string) (Entry, bool, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx,
		`SELECT n.id, n.parent_id, n.label, n.snapshot, n.created_at
		 FROM history_state st JOIN history_nodes n ON n.id = st.current_id
		 WHERE st.doc_id = ?`, docID))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

func (s *SQLite) Entries(ctx context.Context, docID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, parent_id, label, created_at FROM history_nodes
		 WHERE doc_id = ? ORDER BY seq ASC`, docID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e      Entry
			parent sql.NullString
			nanos  int64
		)
		if err := rows.Scan(&e.ID, &parent, &e.Label, &nanos); err != nil {
			return nil, fmt.Errorf("scan history node: %w", err)
		}
		e.ParentID = parent.String
		e.CreatedAt = time.Unix(0, nanos)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLite) Clear(ctx context.Context, docID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM history_state WHERE doc_id = ?`, docID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM history_nodes WHERE doc_id = ?`, docID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) Close() error { return s.db.Close() }

func currentID(ctx context.Context, tx *sql.Tx, docID string) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT current_id FROM history_state WHERE doc_id = ?`, docID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}

func setCurrent(ctx context.Context, tx *sql.Tx, docID, id string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO history_state (doc_id, current_id) VALUES (?, ?)
		 ON CONFLICT(doc_id) DO UPDATE SET current_id = excluded.current_id`,
		docID, id,
	)
	if err != nil {
		return fmt.Errorf("update history state: %w", err)
	}
	return nil
}

func scanEntry(row *sql.Row) (Entry, error) {
	var (
		e      Entry
		parent sql.NullString
		nanos  int64
	)
	if err := row.Scan(&e.ID, &parent, &e.Label, &e.Snapshot, &nanos); err != nil {
		return Entry{}, err
	}
	e.ParentID = parent.String
	e.CreatedAt = time.Unix(0, nanos)
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ History = (*SQLite)(nil)
