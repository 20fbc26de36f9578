package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"polyglot/internal/model"
)

const contentColumns = `id, type, title, slug, body, excerpt, status, author_id, parent_id,
	position, template, featured_media_id, language, translation_group, created_at, updated_at`

func scanContentItem(row interface{ Scan(...any) error }) (model.ContentItem, error) {
	var c model.ContentItem
	err := row.Scan(&c.ID, &c.Type, &c.Title, &c.Slug, &c.Body, &c.Excerpt, &c.Status,
		&c.AuthorID, &c.ParentID, &c.Position, &c.Template, &c.FeaturedMediaID,
		&c.Language, &c.TranslationGroup, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// GetContentItem fetches a single content item by id.
func (q *Queries) GetContentItem(ctx context.Context, id int64) (model.ContentItem, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+contentColumns+` FROM content_items WHERE id = ?`, id)
	return scanContentItem(row)
}

// CreateContentItemParams holds the attributes for a new content item.
type CreateContentItemParams struct {
	Type             string
	Title            string
	Slug             string
	Body             string
	Excerpt          string
	Status           string
	AuthorID         int64
	ParentID         sql.NullInt64
	Position         int64
	Template         string
	FeaturedMediaID  sql.NullInt64
	Language         string
	TranslationGroup string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CreateContentItem inserts a content item and returns it with its id.
func (q *Queries) CreateContentItem(ctx context.Context, arg CreateContentItemParams) (model.ContentItem, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO content_items (type, title, slug, body, excerpt, status, author_id,
			parent_id, position, template, featured_media_id, language, translation_group,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Type, arg.Title, arg.Slug, arg.Body, arg.Excerpt, arg.Status, arg.AuthorID,
		arg.ParentID, arg.Position, arg.Template, arg.FeaturedMediaID, arg.Language,
		arg.TranslationGroup, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return model.ContentItem{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ContentItem{}, fmt.Errorf("reading insert id: %w", err)
	}
	return q.GetContentItem(ctx, id)
}

// UpdateContentItemParams holds the editable attributes of a content item.
type UpdateContentItemParams struct {
	Title           string
	Slug            string
	Body            string
	Excerpt         string
	Status          string
	ParentID        sql.NullInt64
	Position        int64
	Template        string
	FeaturedMediaID sql.NullInt64
	UpdatedAt       time.Time
	ID              int64
}

// UpdateContentItem updates the editable attributes of a content item.
func (q *Queries) UpdateContentItem(ctx context.Context, arg UpdateContentItemParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE content_items SET title = ?, slug = ?, body = ?, excerpt = ?, status = ?,
			parent_id = ?, position = ?, template = ?, featured_media_id = ?, updated_at = ?
		WHERE id = ?`,
		arg.Title, arg.Slug, arg.Body, arg.Excerpt, arg.Status, arg.ParentID, arg.Position,
		arg.Template, arg.FeaturedMediaID, arg.UpdatedAt, arg.ID)
	return err
}

// UpdateContentLanguageGroupParams stamps language and translation group.
type UpdateContentLanguageGroupParams struct {
	Language         string
	TranslationGroup string
	UpdatedAt        time.Time
	ID               int64
}

// UpdateContentLanguageGroup stamps language and translation group on an item.
func (q *Queries) UpdateContentLanguageGroup(ctx context.Context, arg UpdateContentLanguageGroupParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE content_items SET language = ?, translation_group = ?, updated_at = ? WHERE id = ?`,
		arg.Language, arg.TranslationGroup, arg.UpdatedAt, arg.ID)
	return err
}

// UpdateContentSlugParams updates the slug of an item.
type UpdateContentSlugParams struct {
	Slug      string
	UpdatedAt time.Time
	ID        int64
}

// UpdateContentSlug updates the slug of an item.
func (q *Queries) UpdateContentSlug(ctx context.Context, arg UpdateContentSlugParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE content_items SET slug = ?, updated_at = ? WHERE id = ?`,
		arg.Slug, arg.UpdatedAt, arg.ID)
	return err
}

// ContentGroupRow maps a content id to its translation group.
type ContentGroupRow struct {
	ID               int64
	TranslationGroup string
}

// GetContentGroups resolves the translation group of each given id in one query.
func (q *Queries) GetContentGroups(ctx context.Context, ids []int64) ([]ContentGroupRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, translation_group FROM content_items WHERE id IN (`+inPlaceholders(len(ids))+`)`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ContentGroupRow
	for rows.Next() {
		var r ContentGroupRow
		if err := rows.Scan(&r.ID, &r.TranslationGroup); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GroupMemberRow is one member of a translation group.
type GroupMemberRow struct {
	ID               int64
	Language         string
	TranslationGroup string
}

// ListContentByGroups fetches all members of the given translation groups in one query.
func (q *Queries) ListContentByGroups(ctx context.Context, groups []string) ([]GroupMemberRow, error) {
	if len(groups) == 0 {
		return nil, nil
	}
	args := make([]any, len(groups))
	for i, g := range groups {
		args[i] = g
	}
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, language, translation_group FROM content_items
		WHERE translation_group IN (`+inPlaceholders(len(groups))+`)`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GroupMemberRow
	for rows.Next() {
		var r GroupMemberRow
		if err := rows.Scan(&r.ID, &r.Language, &r.TranslationGroup); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountContentInGroupLanguageParams identifies a (group, language) slot.
type CountContentInGroupLanguageParams struct {
	TranslationGroup string
	Language         string
}

// CountContentInGroupLanguage counts group members carrying a language tag.
func (q *Queries) CountContentInGroupLanguage(ctx context.Context, arg CountContentInGroupLanguageParams) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM content_items WHERE translation_group = ? AND language = ?`,
		arg.TranslationGroup, arg.Language).Scan(&n)
	return n, err
}

// ListContentSlugsParams scopes slug lookups to (type, status).
type ListContentSlugsParams struct {
	Type   string
	Status string
	Prefix string
}

// ListContentSlugs returns existing slugs with the given prefix, scoped to
// (type, status). Used for collision-free slug derivation.
func (q *Queries) ListContentSlugs(ctx context.Context, arg ListContentSlugsParams) ([]string, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT slug FROM content_items WHERE type = ? AND status = ? AND slug LIKE ? || '%'`,
		arg.Type, arg.Status, arg.Prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListContentMissingLanguage returns user-visible items lacking a language
// tag or translation group, capped to limit.
func (q *Queries) ListContentMissingLanguage(ctx context.Context, limit int64) ([]model.ContentItem, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+contentColumns+` FROM content_items
		WHERE status != ? AND (language = '' OR translation_group = '')
		ORDER BY id LIMIT ?`,
		model.ContentStatusTrash, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ContentItem
	for rows.Next() {
		c, err := scanContentItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DuplicateLanguageRow reports a (group, language) slot with multiple members.
type DuplicateLanguageRow struct {
	TranslationGroup string
	Language         string
	MemberCount      int64
}

// ListDuplicateContentLanguages finds groups holding more than one member per language.
func (q *Queries) ListDuplicateContentLanguages(ctx context.Context) ([]DuplicateLanguageRow, error) {
	return q.listDuplicateLanguages(ctx, "content_items")
}

// ListDuplicateTermLanguages finds term groups holding more than one member per language.
func (q *Queries) ListDuplicateTermLanguages(ctx context.Context) ([]DuplicateLanguageRow, error) {
	return q.listDuplicateLanguages(ctx, "terms")
}

func (q *Queries) listDuplicateLanguages(ctx context.Context, table string) ([]DuplicateLanguageRow, error) {
	// table is one of two compile-time constants, never user input
	rows, err := q.db.QueryContext(ctx,
		`SELECT translation_group, language, COUNT(*) AS members FROM `+table+`
		WHERE translation_group != '' AND language != ''
		GROUP BY translation_group, language HAVING COUNT(*) > 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DuplicateLanguageRow
	for rows.Next() {
		var r DuplicateLanguageRow
		if err := rows.Scan(&r.TranslationGroup, &r.Language, &r.MemberCount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListContentFieldValues returns all custom field values of a content item.
func (q *Queries) ListContentFieldValues(ctx context.Context, contentID int64) ([]model.FieldValue, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT content_id, name, value FROM content_field_values WHERE content_id = ?`, contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.FieldValue
	for rows.Next() {
		var v model.FieldValue
		if err := rows.Scan(&v.ContentID, &v.Name, &v.Value); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// UpsertContentFieldValueParams writes one custom field value.
type UpsertContentFieldValueParams struct {
	ContentID int64
	Name      string
	Value     string
}

// UpsertContentFieldValue writes a custom field value by name.
func (q *Queries) UpsertContentFieldValue(ctx context.Context, arg UpsertContentFieldValueParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO content_field_values (content_id, name, value) VALUES (?, ?, ?)
		ON CONFLICT (content_id, name) DO UPDATE SET value = excluded.value`,
		arg.ContentID, arg.Name, arg.Value)
	return err
}
