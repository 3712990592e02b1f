// Package store persists content resources and their associations in a
// SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hupe1980/coursetree/internal/content"
)

// ErrCycle is returned when the stored associations loop back onto a
// resource that is already on the current path.
var ErrCycle = errors.New("association cycle")

const schema = `
CREATE TABLE IF NOT EXISTS content_resources (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	fields TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS content_resource_resources (
	resource_of_id TEXT NOT NULL,
	resource_id TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	metadata TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (resource_of_id, resource_id)
);
CREATE INDEX IF NOT EXISTS idx_crr_parent_position
	ON content_resource_resources(resource_of_id, position);
`

// Store is a SQLite-backed content store. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Open opens (creating if needed) the database at path. Use ":memory:"
// for a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// One connection: SQLite serializes writers anyway, and an in-memory
	// database exists only on the connection that created it.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutResource inserts or updates r. An empty ID is replaced with a new
// UUID and missing timestamps are set; both are written back to r.
// The child list of r is not stored.
func (s *Store) PutResource(ctx context.Context, r *content.Resource) error {
	return s.putResource(ctx, s.db, r)
}

func (s *Store) putResource(ctx context.Context, x execer, r *content.Resource) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	now := s.now().UTC()
	if r.CreatedAt == nil {
		r.CreatedAt = &now
	}

	r.UpdatedAt = &now

	fields, err := encodeBag(r.Fields)
	if err != nil {
		return fmt.Errorf("encoding fields of %s: %w", r.ID, err)
	}

	_, err = x.ExecContext(ctx, `
		INSERT INTO content_resources (id, type, fields, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			fields = excluded.fields,
			updated_at = excluded.updated_at`,
		r.ID, r.Type, fields, formatTime(*r.CreatedAt), formatTime(now))
	if err != nil {
		return fmt.Errorf("put resource %s: %w", r.ID, err)
	}

	return nil
}

// Link places childID under parentID at position, replacing an existing
// link between the two.
func (s *Store) Link(ctx context.Context, parentID, childID string, position int, metadata map[string]any) error {
	return s.link(ctx, s.db, content.Association{
		ResourceOfID: parentID,
		ResourceID:   childID,
		Position:     position,
		Metadata:     metadata,
	})
}

func (s *Store) link(ctx context.Context, x execer, a content.Association) error {
	meta, err := encodeBag(a.Metadata)
	if err != nil {
		return fmt.Errorf("encoding metadata of %s/%s: %w", a.ResourceOfID, a.ResourceID, err)
	}

	now := s.now().UTC()

	created := now
	if a.CreatedAt != nil {
		created = *a.CreatedAt
	}

	_, err = x.ExecContext(ctx, `
		INSERT INTO content_resource_resources
			(resource_of_id, resource_id, position, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(resource_of_id, resource_id) DO UPDATE SET
			position = excluded.position,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at`,
		a.ResourceOfID, a.ResourceID, a.Position, meta, formatTime(created), formatTime(now))
	if err != nil {
		return fmt.Errorf("link %s -> %s: %w", a.ResourceOfID, a.ResourceID, err)
	}

	return nil
}

// Import stores every resource of tree and links the root level under
// rootID, all in one transaction. Associations are linked under the
// resource that embeds them, whatever their ResourceOfID says. tree is
// not modified.
func (s *Store) Import(ctx context.Context, rootID string, tree []content.Association) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err := s.importLevel(ctx, tx, rootID, tree); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	return nil
}

func (s *Store) importLevel(ctx context.Context, tx *sql.Tx, parentID string, level []content.Association) error {
	for _, a := range level {
		r := a.Resource
		if r.ID == "" {
			r.ID = a.ResourceID
		}

		if err := s.putResource(ctx, tx, &r); err != nil {
			return err
		}

		edge := a
		edge.ResourceOfID = parentID
		edge.ResourceID = r.ID

		if err := s.link(ctx, tx, edge); err != nil {
			return err
		}

		if err := s.importLevel(ctx, tx, r.ID, a.Resource.Resources); err != nil {
			return err
		}
	}

	return nil
}

// GetResource returns the resource with the given ID without its
// children, or nil when no such resource exists yet.
func (s *Store) GetResource(ctx context.Context, id string) (*content.Resource, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, type, fields, created_at, updated_at FROM content_resources WHERE id = ?`, id)

	var (
		r                  content.Resource
		fields             sql.NullString
		createdAt, updated string
	)

	if err := row.Scan(&r.ID, &r.Type, &fields, &createdAt, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("get resource %s: %w", id, err)
	}

	if err := decodeResource(&r, fields, createdAt, updated); err != nil {
		return nil, err
	}

	return &r, nil
}

// Tree loads the associations below rootID, recursively, ordered by
// position.
func (s *Store) Tree(ctx context.Context, rootID string) ([]content.Association, error) {
	return s.tree(ctx, rootID, map[string]bool{rootID: true})
}

func (s *Store) tree(ctx context.Context, parentID string, path map[string]bool) ([]content.Association, error) {
	level, err := s.children(ctx, parentID)
	if err != nil {
		return nil, err
	}

	for i := range level {
		id := level[i].ResourceID
		if path[id] {
			return nil, fmt.Errorf("%w: %s reached again below %s", ErrCycle, id, parentID)
		}

		path[id] = true

		kids, err := s.tree(ctx, id, path)
		if err != nil {
			return nil, err
		}

		delete(path, id)

		level[i].Resource.Resources = kids
	}

	return level, nil
}

// children reads one level. Rows are fully drained before returning so the
// single connection is free for the next query.
func (s *Store) children(ctx context.Context, parentID string) ([]content.Association, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.resource_of_id, l.resource_id, l.position, l.metadata, l.created_at, l.updated_at,
		       r.id, r.type, r.fields, r.created_at, r.updated_at
		FROM content_resource_resources l
		JOIN content_resources r ON r.id = l.resource_id
		WHERE l.resource_of_id = ?
		ORDER BY l.position, l.resource_id`, parentID)
	if err != nil {
		return nil, fmt.Errorf("query children of %s: %w", parentID, err)
	}
	defer rows.Close()

	level := make([]content.Association, 0)

	for rows.Next() {
		var (
			a                        content.Association
			meta, fields             sql.NullString
			linkCreated, linkUpdated string
			resCreated, resUpdated   string
		)

		if err := rows.Scan(
			&a.ResourceOfID, &a.ResourceID, &a.Position, &meta, &linkCreated, &linkUpdated,
			&a.Resource.ID, &a.Resource.Type, &fields, &resCreated, &resUpdated,
		); err != nil {
			return nil, fmt.Errorf("scan child of %s: %w", parentID, err)
		}

		if a.Metadata, err = decodeBag(meta); err != nil {
			return nil, fmt.Errorf("decoding metadata of %s: %w", a.ResourceID, err)
		}

		if a.CreatedAt, err = parseTime(linkCreated); err != nil {
			return nil, err
		}

		if a.UpdatedAt, err = parseTime(linkUpdated); err != nil {
			return nil, err
		}

		if err := decodeResource(&a.Resource, fields, resCreated, resUpdated); err != nil {
			return nil, err
		}

		level = append(level, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate children of %s: %w", parentID, err)
	}

	return level, nil
}

func decodeResource(r *content.Resource, fields sql.NullString, createdAt, updatedAt string) error {
	var err error

	if r.Fields, err = decodeBag(fields); err != nil {
		return fmt.Errorf("decoding fields of %s: %w", r.ID, err)
	}

	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return err
	}

	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return err
	}

	return nil
}

func encodeBag(m map[string]any) (sql.NullString, error) {
	if m == nil {
		return sql.NullString{}, nil
	}

	b, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}

	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeBag(s sql.NullString) (map[string]any, error) {
	if !s.Valid {
		return nil, nil
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(s.String), &m); err != nil {
		return nil, err
	}

	return m, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (*time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}

	return &t, nil
}
