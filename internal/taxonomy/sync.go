// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package taxonomy keeps term assignments consistent across the translations
// of a content item, and scopes term listings to a language.
package taxonomy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"polyglot/internal/model"
	"polyglot/internal/store"
	"polyglot/internal/translation"
	"polyglot/internal/util"
)

// SyncContext carries the reentrancy latch for one logical save operation.
// A save that is itself a product of synchronization must not re-trigger
// synchronization; the latch spans the whole handler, not a single item,
// which prevents cascades across all N members of a translation group.
type SyncContext struct {
	active bool
}

// NewSyncContext creates a fresh context for one logical save.
func NewSyncContext() *SyncContext {
	return &SyncContext{}
}

func (sc *SyncContext) enter() bool {
	if sc.active {
		return false
	}
	sc.active = true
	return true
}

func (sc *SyncContext) exit() {
	sc.active = false
}

// TaxonomiesFor maps a content type to the taxonomies that apply to it.
type TaxonomiesFor func(contentType string) []string

// DefaultTaxonomies applies both built-in taxonomies to every content type.
func DefaultTaxonomies(string) []string {
	return []string{model.TaxonomyCategory, model.TaxonomyTag}
}

// Synchronizer mirrors term assignments from a saved content item onto all of
// its sibling translations, substituting each term with its counterpart in
// the sibling's language.
type Synchronizer struct {
	queries    *store.Queries
	resolver   *translation.Resolver
	taxonomies TaxonomiesFor

	runs int // completed top-level runs, read by tests
}

// NewSynchronizer creates a Synchronizer.
func NewSynchronizer(queries *store.Queries, resolver *translation.Resolver, taxonomies TaxonomiesFor) *Synchronizer {
	if taxonomies == nil {
		taxonomies = DefaultTaxonomies
	}
	return &Synchronizer{queries: queries, resolver: resolver, taxonomies: taxonomies}
}

// OnContentSaved runs the save-triggered synchronization for a content item.
// Per-sibling failures are logged and do not abort the remaining siblings;
// the triggering save must never fail because of best-effort side work.
func (s *Synchronizer) OnContentSaved(ctx context.Context, sc *SyncContext, itemID int64) error {
	if sc == nil {
		sc = NewSyncContext()
	}
	if !sc.enter() {
		return nil
	}
	defer sc.exit()
	s.runs++

	item, err := s.queries.GetContentItem(ctx, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("content item %d: %w", itemID, translation.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("loading content item %d: %w", itemID, err)
	}

	item, err = s.ensureDefaults(ctx, item)
	if err != nil {
		return err
	}

	// Selected term groups per taxonomy. The key is always present, even for
	// an empty selection: an empty list means "clear assignments".
	selected := make(map[string][]string)
	for _, taxonomy := range s.taxonomies(item.Type) {
		selected[taxonomy] = []string{}
	}
	assigned, err := s.queries.ListAssignedTerms(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("listing assigned terms: %w", err)
	}
	for _, a := range assigned {
		if a.TranslationGroup == "" {
			continue // untranslatable term, nothing to mirror
		}
		if _, ok := selected[a.Taxonomy]; !ok {
			continue
		}
		selected[a.Taxonomy] = append(selected[a.Taxonomy], a.TranslationGroup)
	}

	siblings, err := s.resolver.GetTranslations(ctx, model.EntityKindContent, item.TranslationGroup)
	if err != nil {
		return fmt.Errorf("resolving siblings: %w", err)
	}

	for lang, siblingID := range siblings {
		if lang == item.Language || siblingID == item.ID {
			continue
		}
		if err := s.syncSibling(ctx, siblingID, lang, selected); err != nil {
			// Best-effort: one failed sibling must not abort the rest
			slog.Error("taxonomy sync failed for sibling",
				"category", "sync", "content_id", item.ID, "sibling_id", siblingID,
				"language", lang, "error", err)
			continue
		}
		// The sibling write is itself a save; the latch keeps the cascade
		// from recursing through the group.
		_ = s.OnContentSaved(ctx, sc, siblingID)
	}

	return nil
}

// syncSibling replaces the sibling's assignments for every taxonomy with the
// selected groups resolved to the sibling's language. A group with no member
// in that language contributes nothing.
func (s *Synchronizer) syncSibling(ctx context.Context, siblingID int64, lang string, selected map[string][]string) error {
	for taxonomy, groups := range selected {
		resolved, err := s.queries.ResolveTermGroupsForLanguage(ctx, store.ResolveTermGroupsForLanguageParams{
			Taxonomy: taxonomy,
			Language: lang,
			Groups:   groups,
		})
		if err != nil {
			return fmt.Errorf("resolving %s groups for %s: %w", taxonomy, lang, err)
		}

		if err := s.queries.DeleteTermAssignments(ctx, store.DeleteTermAssignmentsParams{
			ContentID: siblingID,
			Taxonomy:  taxonomy,
		}); err != nil {
			return fmt.Errorf("clearing %s assignments: %w", taxonomy, err)
		}
		for _, member := range resolved {
			if err := s.queries.CreateTermAssignment(ctx, store.CreateTermAssignmentParams{
				ContentID: siblingID,
				TermID:    member.TermID,
				Taxonomy:  taxonomy,
			}); err != nil {
				return fmt.Errorf("assigning term %d: %w", member.TermID, err)
			}
		}
	}
	return nil
}

// ensureDefaults stamps language, translation group and slug on first save.
func (s *Synchronizer) ensureDefaults(ctx context.Context, item model.ContentItem) (model.ContentItem, error) {
	now := time.Now()

	if item.Language == "" || item.TranslationGroup == "" {
		if item.Language == "" {
			lang, err := s.queries.GetDefaultLanguage(ctx)
			if err != nil {
				item.Language = model.DefaultSettings().DefaultLanguage
			} else {
				item.Language = lang.Code
			}
		}
		if item.TranslationGroup == "" {
			item.TranslationGroup = uuid.NewString()
		}
		if err := s.queries.UpdateContentLanguageGroup(ctx, store.UpdateContentLanguageGroupParams{
			Language:         item.Language,
			TranslationGroup: item.TranslationGroup,
			UpdatedAt:        now,
			ID:               item.ID,
		}); err != nil {
			return item, fmt.Errorf("stamping language defaults: %w", err)
		}
	}

	if item.Slug == "" {
		base := util.Slugify(item.Title)
		if base == "" {
			base = "untitled"
		}
		existing, err := s.queries.ListContentSlugs(ctx, store.ListContentSlugsParams{
			Type:   item.Type,
			Status: item.Status,
			Prefix: base,
		})
		if err != nil {
			return item, fmt.Errorf("listing slugs: %w", err)
		}
		item.Slug = util.PickFreeSlug(base, existing)
		if err := s.queries.UpdateContentSlug(ctx, store.UpdateContentSlugParams{
			Slug:      item.Slug,
			UpdatedAt: now,
			ID:        item.ID,
		}); err != nil {
			return item, fmt.Errorf("stamping slug: %w", err)
		}
	}

	return item, nil
}

// Runs returns the number of completed top-level synchronization runs.
func (s *Synchronizer) Runs() int {
	return s.runs
}
