package store

import (
	"context"
	"fmt"
	"time"

	"polyglot/internal/model"
)

const termColumns = `id, taxonomy, name, slug, language, translation_group, created_at, updated_at`

func scanTerm(row interface{ Scan(...any) error }) (model.Term, error) {
	var t model.Term
	err := row.Scan(&t.ID, &t.Taxonomy, &t.Name, &t.Slug, &t.Language,
		&t.TranslationGroup, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// GetTerm fetches a single term by id.
func (q *Queries) GetTerm(ctx context.Context, id int64) (model.Term, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+termColumns+` FROM terms WHERE id = ?`, id)
	return scanTerm(row)
}

// CreateTermParams holds the attributes for a new term.
type CreateTermParams struct {
	Taxonomy         string
	Name             string
	Slug             string
	Language         string
	TranslationGroup string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CreateTerm inserts a term and returns it with its id.
func (q *Queries) CreateTerm(ctx context.Context, arg CreateTermParams) (model.Term, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO terms (taxonomy, name, slug, language, translation_group, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.Taxonomy, arg.Name, arg.Slug, arg.Language, arg.TranslationGroup,
		arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return model.Term{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Term{}, fmt.Errorf("reading insert id: %w", err)
	}
	return q.GetTerm(ctx, id)
}

// UpdateTermLanguageGroupParams stamps language and translation group.
type UpdateTermLanguageGroupParams struct {
	Language         string
	TranslationGroup string
	UpdatedAt        time.Time
	ID               int64
}

// UpdateTermLanguageGroup stamps language and translation group on a term.
func (q *Queries) UpdateTermLanguageGroup(ctx context.Context, arg UpdateTermLanguageGroupParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE terms SET language = ?, translation_group = ?, updated_at = ? WHERE id = ?`,
		arg.Language, arg.TranslationGroup, arg.UpdatedAt, arg.ID)
	return err
}

// GetTermGroups resolves the translation group of each given term id in one query.
func (q *Queries) GetTermGroups(ctx context.Context, ids []int64) ([]ContentGroupRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, translation_group FROM terms WHERE id IN (`+inPlaceholders(len(ids))+`)`,
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

// ListTermsByGroups fetches all members of the given term groups in one query.
func (q *Queries) ListTermsByGroups(ctx context.Context, groups []string) ([]GroupMemberRow, error) {
	if len(groups) == 0 {
		return nil, nil
	}
	args := make([]any, len(groups))
	for i, g := range groups {
		args[i] = g
	}
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, language, translation_group FROM terms
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

// ResolveTermGroupsForLanguageParams resolves term groups to members in one
// language within one taxonomy.
type ResolveTermGroupsForLanguageParams struct {
	Taxonomy string
	Language string
	Groups   []string
}

// TermGroupMemberRow maps a term group to its member in a given language.
type TermGroupMemberRow struct {
	TranslationGroup string
	TermID           int64
}

// ResolveTermGroupsForLanguage resolves each given group to its member tagged
// with the given language, in a single IN-clause query per taxonomy. Groups
// with no member in that language are simply absent from the result.
func (q *Queries) ResolveTermGroupsForLanguage(ctx context.Context, arg ResolveTermGroupsForLanguageParams) ([]TermGroupMemberRow, error) {
	if len(arg.Groups) == 0 {
		return nil, nil
	}
	args := []any{arg.Taxonomy, arg.Language}
	for _, g := range arg.Groups {
		args = append(args, g)
	}
	rows, err := q.db.QueryContext(ctx,
		`SELECT translation_group, id FROM terms
		WHERE taxonomy = ? AND language = ? AND translation_group IN (`+inPlaceholders(len(arg.Groups))+`)`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TermGroupMemberRow
	for rows.Next() {
		var r TermGroupMemberRow
		if err := rows.Scan(&r.TranslationGroup, &r.TermID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountTermsInGroupLanguageParams identifies a (group, language) slot.
type CountTermsInGroupLanguageParams struct {
	TranslationGroup string
	Language         string
}

// CountTermsInGroupLanguage counts term group members carrying a language tag.
func (q *Queries) CountTermsInGroupLanguage(ctx context.Context, arg CountTermsInGroupLanguageParams) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM terms WHERE translation_group = ? AND language = ?`,
		arg.TranslationGroup, arg.Language).Scan(&n)
	return n, err
}

// ListTermSlugsParams scopes slug lookups to a taxonomy.
type ListTermSlugsParams struct {
	Taxonomy string
	Prefix   string
}

// ListTermSlugs returns existing term slugs with the given prefix within a taxonomy.
func (q *Queries) ListTermSlugs(ctx context.Context, arg ListTermSlugsParams) ([]string, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT slug FROM terms WHERE taxonomy = ? AND slug LIKE ? || '%'`,
		arg.Taxonomy, arg.Prefix)
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

// ListTermsMissingLanguage returns terms lacking a language tag or
// translation group, capped to limit.
func (q *Queries) ListTermsMissingLanguage(ctx context.Context, limit int64) ([]model.Term, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+termColumns+` FROM terms
		WHERE language = '' OR translation_group = ''
		ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Term
	for rows.Next() {
		t, err := scanTerm(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AssignedTermRow is a term assigned to a content item, with its group.
type AssignedTermRow struct {
	TermID           int64
	Taxonomy         string
	TranslationGroup string
}

// ListAssignedTerms returns the terms assigned to a content item together
// with each term's taxonomy and translation group.
func (q *Queries) ListAssignedTerms(ctx context.Context, contentID int64) ([]AssignedTermRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT t.id, t.taxonomy, t.translation_group
		FROM term_assignments ta JOIN terms t ON t.id = ta.term_id
		WHERE ta.content_id = ?`, contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AssignedTermRow
	for rows.Next() {
		var r AssignedTermRow
		if err := rows.Scan(&r.TermID, &r.Taxonomy, &r.TranslationGroup); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteTermAssignmentsParams clears one taxonomy on one content item.
type DeleteTermAssignmentsParams struct {
	ContentID int64
	Taxonomy  string
}

// DeleteTermAssignments removes all assignments of one taxonomy from a content item.
func (q *Queries) DeleteTermAssignments(ctx context.Context, arg DeleteTermAssignmentsParams) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM term_assignments WHERE content_id = ? AND taxonomy = ?`,
		arg.ContentID, arg.Taxonomy)
	return err
}

// CreateTermAssignmentParams links a term to a content item.
type CreateTermAssignmentParams struct {
	ContentID int64
	TermID    int64
	Taxonomy  string
}

// CreateTermAssignment links a term to a content item, ignoring duplicates.
func (q *Queries) CreateTermAssignment(ctx context.Context, arg CreateTermAssignmentParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO term_assignments (content_id, term_id, taxonomy) VALUES (?, ?, ?)`,
		arg.ContentID, arg.TermID, arg.Taxonomy)
	return err
}

// ListTermIDsForTaxonomy returns the term ids assigned to a content item for one taxonomy.
func (q *Queries) ListTermIDsForTaxonomy(ctx context.Context, arg DeleteTermAssignmentsParams) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT term_id FROM term_assignments WHERE content_id = ? AND taxonomy = ? ORDER BY term_id`,
		arg.ContentID, arg.Taxonomy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// SetTermOrderParams writes an explicit per-term order value.
type SetTermOrderParams struct {
	TermID   int64
	Position int64
}

// SetTermOrder writes the explicit order value used by custom term ordering.
func (q *Queries) SetTermOrder(ctx context.Context, arg SetTermOrderParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO term_order (term_id, position) VALUES (?, ?)
		ON CONFLICT (term_id) DO UPDATE SET position = excluded.position`,
		arg.TermID, arg.Position)
	return err
}
