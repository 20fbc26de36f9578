// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"polyglot/internal/cache"
	"polyglot/internal/model"
	"polyglot/internal/store"
	"polyglot/internal/util"
)

// ContentService creates translations of content items.
type ContentService struct {
	queries *store.Queries
	groups  *cache.GroupCache
	fields  FieldSchema
}

// NewContentService creates a ContentService.
func NewContentService(queries *store.Queries, groups *cache.GroupCache, fields FieldSchema) *ContentService {
	return &ContentService{queries: queries, groups: groups, fields: fields}
}

// CreateTranslation creates a new draft translation of a content item in the
// target language and returns it. The source is mutated if it previously
// lacked a language or translation group. Creating a translation in a
// language the group already holds fails with ErrConflict.
func (s *ContentService) CreateTranslation(ctx context.Context, sourceID int64, targetLang string, authorID int64) (model.ContentItem, error) {
	if !util.IsValidLangCode(targetLang) {
		return model.ContentItem{}, &ValidationError{Field: "targetLang", Reason: "not a language code"}
	}

	source, err := s.queries.GetContentItem(ctx, sourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ContentItem{}, fmt.Errorf("content item %d: %w", sourceID, ErrNotFound)
	}
	if err != nil {
		return model.ContentItem{}, fmt.Errorf("loading content item %d: %w", sourceID, err)
	}

	now := time.Now()

	// Bootstrap the group on the source if it never got one
	if source.TranslationGroup == "" {
		source.TranslationGroup = uuid.NewString()
		if source.Language == "" {
			source.Language = targetLangFallback(ctx, s.queries)
		}
		if err := s.queries.UpdateContentLanguageGroup(ctx, store.UpdateContentLanguageGroupParams{
			Language:         source.Language,
			TranslationGroup: source.TranslationGroup,
			UpdatedAt:        now,
			ID:               source.ID,
		}); err != nil {
			return model.ContentItem{}, fmt.Errorf("stamping source group: %w", err)
		}
	}

	if source.Language == targetLang {
		return model.ContentItem{}, fmt.Errorf("group %s, language %s: %w",
			source.TranslationGroup, targetLang, ErrConflict)
	}
	n, err := s.queries.CountContentInGroupLanguage(ctx, store.CountContentInGroupLanguageParams{
		TranslationGroup: source.TranslationGroup,
		Language:         targetLang,
	})
	if err != nil {
		return model.ContentItem{}, fmt.Errorf("checking group members: %w", err)
	}
	if n > 0 {
		return model.ContentItem{}, fmt.Errorf("group %s, language %s: %w",
			source.TranslationGroup, targetLang, ErrConflict)
	}

	title := fmt.Sprintf("%s (%s)", source.Title, strings.ToUpper(targetLang))
	slug, err := s.uniqueContentSlug(ctx, source.Type, model.ContentStatusDraft, util.Slugify(title))
	if err != nil {
		return model.ContentItem{}, fmt.Errorf("deriving slug: %w", err)
	}

	item, err := s.queries.CreateContentItem(ctx, store.CreateContentItemParams{
		Type:             source.Type,
		Title:            title,
		Slug:             slug,
		Body:             source.Body,
		Excerpt:          source.Excerpt,
		Status:           model.ContentStatusDraft,
		AuthorID:         authorID,
		ParentID:         source.ParentID,
		Position:         source.Position,
		Template:         source.Template,
		FeaturedMediaID:  source.FeaturedMediaID,
		Language:         targetLang,
		TranslationGroup: source.TranslationGroup,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		return model.ContentItem{}, fmt.Errorf("creating translation: %w", err)
	}

	if err := s.copyFieldValues(ctx, source, item.ID); err != nil {
		return model.ContentItem{}, err
	}

	s.groups.Invalidate(model.EntityKindContent, source.TranslationGroup)
	if err := s.queries.DeleteOrphanGroup(ctx, source.TranslationGroup); err != nil {
		slog.Warn("removing empty-group placeholder", "group", source.TranslationGroup, "error", err)
	}

	return item, nil
}

// copyFieldValues copies every custom field the external schema defines for
// the source's context, verbatim. Values are duplicated, not translated;
// editors localize them afterwards.
func (s *ContentService) copyFieldValues(ctx context.Context, source model.ContentItem, targetID int64) error {
	names, err := s.fields.FieldsForContext(ctx, source.Type, source.Template)
	if err != nil {
		return fmt.Errorf("reading field schema: %w", err)
	}
	if len(names) == 0 {
		return nil
	}

	values, err := s.queries.ListContentFieldValues(ctx, source.ID)
	if err != nil {
		return fmt.Errorf("reading field values: %w", err)
	}
	byName := make(map[string]string, len(values))
	for _, v := range values {
		byName[v.Name] = v.Value
	}

	for _, name := range names {
		value, ok := byName[name]
		if !ok {
			continue
		}
		if err := s.queries.UpsertContentFieldValue(ctx, store.UpsertContentFieldValueParams{
			ContentID: targetID,
			Name:      name,
			Value:     value,
		}); err != nil {
			return fmt.Errorf("copying field %q: %w", name, err)
		}
	}
	return nil
}

// uniqueContentSlug appends -2, -3, ... until the slug is free within (type, status).
func (s *ContentService) uniqueContentSlug(ctx context.Context, contentType, status, base string) (string, error) {
	if base == "" {
		base = "untitled"
	}
	existing, err := s.queries.ListContentSlugs(ctx, store.ListContentSlugsParams{
		Type:   contentType,
		Status: status,
		Prefix: base,
	})
	if err != nil {
		return "", err
	}
	return util.PickFreeSlug(base, existing), nil
}

// targetLangFallback returns the site default language code, or "en" when no
// default is configured yet.
func targetLangFallback(ctx context.Context, queries *store.Queries) string {
	lang, err := queries.GetDefaultLanguage(ctx)
	if err != nil {
		return model.DefaultSettings().DefaultLanguage
	}
	return lang.Code
}
