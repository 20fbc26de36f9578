// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Built-in taxonomies.
const (
	TaxonomyCategory = "category"
	TaxonomyTag      = "tag"
)

// Term represents a single language variant of a taxonomy term.
// Like content items, sibling variants share a TranslationGroup.
type Term struct {
	ID               int64     `json:"id"`
	Taxonomy         string    `json:"taxonomy"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	Language         string    `json:"language"`
	TranslationGroup string    `json:"translation_group"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TermAssignment is a many-to-many edge between a content item and a term,
// scoped to a taxonomy name.
type TermAssignment struct {
	ContentID int64  `json:"content_id"`
	TermID    int64  `json:"term_id"`
	Taxonomy  string `json:"taxonomy"`
}
