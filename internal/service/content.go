// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides the orchestration layer above the stores: the
// save pipeline for content items and the persisted language settings.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"polyglot/internal/model"
	"polyglot/internal/store"
	"polyglot/internal/taxonomy"
)

// ContentService runs the save pipeline: persist, stamp language/group
// defaults, derive the slug, then mirror taxonomy assignments onto sibling
// translations. Synchronization is best-effort side work; the save itself
// never fails because of it.
type ContentService struct {
	queries *store.Queries
	sync    *taxonomy.Synchronizer
}

// NewContentService creates a ContentService.
func NewContentService(db *sql.DB, sync *taxonomy.Synchronizer) *ContentService {
	return &ContentService{queries: store.New(db), sync: sync}
}

// SaveParams holds the authoring input for a content item save.
type SaveParams struct {
	ID               int64 // 0 creates a new item
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
	// TranslationGroup links a new item into a pre-registered group. Leave
	// empty to have the save pipeline mint one.
	TranslationGroup string
	TermIDs          map[string][]int64 // taxonomy -> assigned term ids
}

// Save persists the item and runs the save-triggered pipeline.
func (s *ContentService) Save(ctx context.Context, arg SaveParams) (model.ContentItem, error) {
	now := time.Now()
	var item model.ContentItem
	var err error

	if arg.ID == 0 {
		item, err = s.queries.CreateContentItem(ctx, store.CreateContentItemParams{
			Type:             orDefault(arg.Type, model.ContentTypePost),
			Title:            arg.Title,
			Slug:             arg.Slug,
			Body:             arg.Body,
			Excerpt:          arg.Excerpt,
			Status:           orDefault(arg.Status, model.ContentStatusDraft),
			AuthorID:         arg.AuthorID,
			ParentID:         arg.ParentID,
			Position:         arg.Position,
			Template:         arg.Template,
			FeaturedMediaID:  arg.FeaturedMediaID,
			Language:         arg.Language,
			TranslationGroup: arg.TranslationGroup,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
		if err != nil {
			return model.ContentItem{}, fmt.Errorf("creating content item: %w", err)
		}
		if arg.TranslationGroup != "" {
			if err := s.queries.DeleteOrphanGroup(ctx, arg.TranslationGroup); err != nil {
				slog.Warn("removing empty-group placeholder", "group", arg.TranslationGroup, "error", err)
			}
		}
	} else {
		if err = s.queries.UpdateContentItem(ctx, store.UpdateContentItemParams{
			Title:           arg.Title,
			Slug:            arg.Slug,
			Body:            arg.Body,
			Excerpt:         arg.Excerpt,
			Status:          orDefault(arg.Status, model.ContentStatusDraft),
			ParentID:        arg.ParentID,
			Position:        arg.Position,
			Template:        arg.Template,
			FeaturedMediaID: arg.FeaturedMediaID,
			UpdatedAt:       now,
			ID:              arg.ID,
		}); err != nil {
			return model.ContentItem{}, fmt.Errorf("updating content item: %w", err)
		}
		item, err = s.queries.GetContentItem(ctx, arg.ID)
		if err != nil {
			return model.ContentItem{}, fmt.Errorf("reloading content item: %w", err)
		}
	}

	// Replace this item's own assignments before mirroring them out
	for tax, ids := range arg.TermIDs {
		if err := s.replaceAssignments(ctx, item.ID, tax, ids); err != nil {
			return model.ContentItem{}, err
		}
	}

	if err := s.sync.OnContentSaved(ctx, taxonomy.NewSyncContext(), item.ID); err != nil {
		// PartialSyncFailure semantics: the save already succeeded
		slog.Error("taxonomy synchronization failed", "category", "sync",
			"content_id", item.ID, "error", err)
	}

	item, err = s.queries.GetContentItem(ctx, item.ID)
	if err != nil {
		return model.ContentItem{}, fmt.Errorf("reloading content item: %w", err)
	}
	return item, nil
}

func (s *ContentService) replaceAssignments(ctx context.Context, contentID int64, taxonomyName string, termIDs []int64) error {
	if err := s.queries.DeleteTermAssignments(ctx, store.DeleteTermAssignmentsParams{
		ContentID: contentID,
		Taxonomy:  taxonomyName,
	}); err != nil {
		return fmt.Errorf("clearing %s assignments: %w", taxonomyName, err)
	}
	for _, termID := range termIDs {
		if err := s.queries.CreateTermAssignment(ctx, store.CreateTermAssignmentParams{
			ContentID: contentID,
			TermID:    termID,
			Taxonomy:  taxonomyName,
		}); err != nil {
			return fmt.Errorf("assigning term %d: %w", termID, err)
		}
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
