// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package taxonomy

import (
	"context"

	"polyglot/internal/model"
	"polyglot/internal/store"
)

// Order-by values the custom ordering transform is allowed to replace.
var orderWhitelist = map[string]bool{"": true, "name": true, "id": true}

// TermQuery is a term listing being assembled before execution. The query
// pipeline may invoke the same transform hook more than once for one logical
// query; each transform records a marker so it applies at most once.
type TermQuery struct {
	Taxonomy  string
	OrderBy   string // "", "name", "id", or a caller-specific ordering
	CountOnly bool

	language    string
	customOrder bool
	applied     map[string]bool
}

// NewTermQuery starts a term listing for one taxonomy.
func NewTermQuery(taxonomy string) *TermQuery {
	return &TermQuery{Taxonomy: taxonomy, applied: make(map[string]bool)}
}

// ApplyLanguageScope restricts the listing to terms of one language. This is
// the hard filter used when the listing is bound to a content item; lang is
// the item's resolved language (site default when the item has none yet).
// Idempotent: repeated invocations append the constraint exactly once.
func (q *TermQuery) ApplyLanguageScope(lang string) *TermQuery {
	if q.applied["language_scope"] {
		return q
	}
	q.applied["language_scope"] = true
	q.language = lang
	return q
}

// ApplyCustomOrder switches the listing to the explicit per-term order value
// (ascending, name as tiebreaker). It only replaces unset or whitelisted
// orderings and skips count-only queries entirely, so unrelated orderings
// are never disturbed.
func (q *TermQuery) ApplyCustomOrder() *TermQuery {
	if q.applied["custom_order"] {
		return q
	}
	q.applied["custom_order"] = true

	if q.CountOnly || !orderWhitelist[q.OrderBy] {
		return q
	}
	q.customOrder = true
	return q
}

// SQL renders the query and its parameters.
func (q *TermQuery) SQL() (string, []any) {
	args := []any{q.Taxonomy}

	if q.CountOnly {
		sql := `SELECT COUNT(*) FROM terms t WHERE t.taxonomy = ?`
		if q.language != "" {
			sql += ` AND t.language = ?`
			args = append(args, q.language)
		}
		return sql, args
	}

	sql := `SELECT t.id, t.taxonomy, t.name, t.slug, t.language, t.translation_group, t.created_at, t.updated_at
		FROM terms t`
	if q.customOrder {
		sql += ` LEFT JOIN term_order o ON o.term_id = t.id`
	}
	sql += ` WHERE t.taxonomy = ?`
	if q.language != "" {
		sql += ` AND t.language = ?`
		args = append(args, q.language)
	}

	switch {
	case q.customOrder:
		sql += ` ORDER BY COALESCE(o.position, 1000000), t.name`
	case q.OrderBy == "name":
		sql += ` ORDER BY t.name`
	default:
		sql += ` ORDER BY t.id`
	}

	return sql, args
}

// Run executes the listing.
func (q *TermQuery) Run(ctx context.Context, db store.DBTX) ([]model.Term, error) {
	sql, args := q.SQL()
	rows, err := db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Term
	for rows.Next() {
		var t model.Term
		if err := rows.Scan(&t.ID, &t.Taxonomy, &t.Name, &t.Slug, &t.Language,
			&t.TranslationGroup, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Count executes the listing as a count-only query.
func (q *TermQuery) Count(ctx context.Context, db store.DBTX) (int64, error) {
	wasCount := q.CountOnly
	q.CountOnly = true
	sql, args := q.SQL()
	q.CountOnly = wasCount

	var n int64
	err := db.QueryRowContext(ctx, sql, args...).Scan(&n)
	return n, err
}
