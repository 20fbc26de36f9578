package store

import (
	"context"
	"time"
)

// GetConfig fetches a single config value by key.
func (q *Queries) GetConfig(ctx context.Context, key string) (string, error) {
	var v string
	err := q.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&v)
	return v, err
}

// UpsertConfigParams writes one config key.
type UpsertConfigParams struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// UpsertConfig writes a config key, overwriting any existing value.
func (q *Queries) UpsertConfig(ctx context.Context, arg UpsertConfigParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO config (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		arg.Key, arg.Value, arg.UpdatedAt)
	return err
}

// ListConfig returns all config rows as a key/value map.
func (q *Queries) ListConfig(ctx context.Context) (map[string]string, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT key, value FROM config`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// OrphanGroup is a translation group with zero members, kept so admin UIs can
// still offer "create into this group" actions.
type OrphanGroup struct {
	GroupID   string
	Kind      string
	CreatedAt time.Time
}

// CreateOrphanGroupParams registers an empty-group placeholder.
type CreateOrphanGroupParams struct {
	GroupID   string
	Kind      string
	CreatedAt time.Time
}

// CreateOrphanGroup registers an empty-group placeholder.
func (q *Queries) CreateOrphanGroup(ctx context.Context, arg CreateOrphanGroupParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO orphan_groups (group_id, kind, created_at) VALUES (?, ?, ?)`,
		arg.GroupID, arg.Kind, arg.CreatedAt)
	return err
}

// DeleteOrphanGroup removes a placeholder once a first member links in.
func (q *Queries) DeleteOrphanGroup(ctx context.Context, groupID string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM orphan_groups WHERE group_id = ?`, groupID)
	return err
}

// ListOrphanGroups returns all empty-group placeholders of a kind.
func (q *Queries) ListOrphanGroups(ctx context.Context, kind string) ([]OrphanGroup, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT group_id, kind, created_at FROM orphan_groups WHERE kind = ? ORDER BY created_at`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrphanGroup
	for rows.Next() {
		var g OrphanGroup
		if err := rows.Scan(&g.GroupID, &g.Kind, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Event is a persisted event log entry.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}

// CreateEventParams holds the attributes for a new event log entry.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}

// CreateEvent inserts an event log entry.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO events (level, category, message, metadata, created_at) VALUES (?, ?, ?, ?, ?)`,
		arg.Level, arg.Category, arg.Message, arg.Metadata, arg.CreatedAt)
	if err != nil {
		return Event{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Event{}, err
	}
	return Event{ID: id, Level: arg.Level, Category: arg.Category, Message: arg.Message,
		Metadata: arg.Metadata, CreatedAt: arg.CreatedAt}, nil
}

// ListRecentEvents returns the most recent event log entries.
func (q *Queries) ListRecentEvents(ctx context.Context, limit int64) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, level, category, message, metadata, created_at FROM events
		ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
