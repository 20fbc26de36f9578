// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Content statuses
const (
	ContentStatusDraft     = "draft"
	ContentStatusPublished = "published"
	ContentStatusTrash     = "trash"
)

// Built-in content types. Custom types may be registered through settings.
const (
	ContentTypePage = "page"
	ContentTypePost = "post"
)

// Entity kinds used by translation groups. A translation group only ever
// links entities of the same kind.
const (
	EntityKindContent = "content"
	EntityKindTerm    = "term"
)

// ContentItem represents a single language variant of a logical document.
// Sibling variants share the same TranslationGroup; within a group there is
// at most one item per language.
type ContentItem struct {
	ID               int64          `json:"id"`
	Type             string         `json:"type"`
	Title            string         `json:"title"`
	Slug             string         `json:"slug"`
	Body             string         `json:"body"`
	Excerpt          string         `json:"excerpt"`
	Status           string         `json:"status"`
	AuthorID         int64          `json:"author_id"`
	ParentID         sql.NullInt64  `json:"parent_id,omitempty"`
	Position         int64          `json:"position"`
	Template         string         `json:"template"`
	FeaturedMediaID  sql.NullInt64  `json:"featured_media_id,omitempty"`
	Language         string         `json:"language"`
	TranslationGroup string         `json:"translation_group"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// IsPublished returns true if the item is published.
func (c *ContentItem) IsPublished() bool {
	return c.Status == ContentStatusPublished
}

// IsDraft returns true if the item is a draft.
func (c *ContentItem) IsDraft() bool {
	return c.Status == ContentStatusDraft
}

// IsUserVisible reports whether the item counts towards language/group
// integrity. Trashed items are transient and skipped by the auditor.
func (c *ContentItem) IsUserVisible() bool {
	return c.Status != ContentStatusTrash
}

// FieldValue is a schema-driven custom field value attached to a content
// item. Field definitions are owned by an external field-schema registry;
// the engine only reads and writes values by name.
type FieldValue struct {
	ContentID int64  `json:"content_id"`
	Name      string `json:"name"`
	Value     string `json:"value"`
}
