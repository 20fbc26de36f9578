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

// TermService creates translations of taxonomy terms. Terms carry no
// schema-driven field data, so this is the simpler sibling of ContentService.
type TermService struct {
	queries *store.Queries
	groups  *cache.GroupCache
}

// NewTermService creates a TermService.
func NewTermService(queries *store.Queries, groups *cache.GroupCache) *TermService {
	return &TermService{queries: queries, groups: groups}
}

// CreateTranslation creates a translation of a term in the target language
// within the given taxonomy. Group bootstrap and conflict semantics match
// ContentService.CreateTranslation.
func (s *TermService) CreateTranslation(ctx context.Context, sourceTermID int64, targetLang, taxonomy string) (model.Term, error) {
	if !util.IsValidLangCode(targetLang) {
		return model.Term{}, &ValidationError{Field: "targetLang", Reason: "not a language code"}
	}
	if taxonomy == "" {
		return model.Term{}, &ValidationError{Field: "taxonomy", Reason: "must not be empty"}
	}

	source, err := s.queries.GetTerm(ctx, sourceTermID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Term{}, fmt.Errorf("term %d: %w", sourceTermID, ErrNotFound)
	}
	if err != nil {
		return model.Term{}, fmt.Errorf("loading term %d: %w", sourceTermID, err)
	}
	if source.Taxonomy != taxonomy {
		return model.Term{}, &ValidationError{Field: "taxonomy", Reason: "term belongs to " + source.Taxonomy}
	}

	now := time.Now()

	if source.TranslationGroup == "" {
		source.TranslationGroup = uuid.NewString()
		if source.Language == "" {
			source.Language = targetLangFallback(ctx, s.queries)
		}
		if err := s.queries.UpdateTermLanguageGroup(ctx, store.UpdateTermLanguageGroupParams{
			Language:         source.Language,
			TranslationGroup: source.TranslationGroup,
			UpdatedAt:        now,
			ID:               source.ID,
		}); err != nil {
			return model.Term{}, fmt.Errorf("stamping source group: %w", err)
		}
	}

	if source.Language == targetLang {
		return model.Term{}, fmt.Errorf("group %s, language %s: %w",
			source.TranslationGroup, targetLang, ErrConflict)
	}
	n, err := s.queries.CountTermsInGroupLanguage(ctx, store.CountTermsInGroupLanguageParams{
		TranslationGroup: source.TranslationGroup,
		Language:         targetLang,
	})
	if err != nil {
		return model.Term{}, fmt.Errorf("checking group members: %w", err)
	}
	if n > 0 {
		return model.Term{}, fmt.Errorf("group %s, language %s: %w",
			source.TranslationGroup, targetLang, ErrConflict)
	}

	name := fmt.Sprintf("%s (%s)", source.Name, strings.ToUpper(targetLang))
	slug, err := s.uniqueTermSlug(ctx, taxonomy, util.Slugify(name))
	if err != nil {
		return model.Term{}, fmt.Errorf("deriving slug: %w", err)
	}

	term, err := s.queries.CreateTerm(ctx, store.CreateTermParams{
		Taxonomy:         taxonomy,
		Name:             name,
		Slug:             slug,
		Language:         targetLang,
		TranslationGroup: source.TranslationGroup,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		return model.Term{}, fmt.Errorf("creating term translation: %w", err)
	}

	s.groups.Invalidate(model.EntityKindTerm, source.TranslationGroup)
	if err := s.queries.DeleteOrphanGroup(ctx, source.TranslationGroup); err != nil {
		slog.Warn("removing empty-group placeholder", "group", source.TranslationGroup, "error", err)
	}

	return term, nil
}

// uniqueTermSlug appends -2, -3, ... until the slug is free within the taxonomy.
func (s *TermService) uniqueTermSlug(ctx context.Context, taxonomy, base string) (string, error) {
	if base == "" {
		base = "term"
	}
	existing, err := s.queries.ListTermSlugs(ctx, store.ListTermSlugsParams{
		Taxonomy: taxonomy,
		Prefix:   base,
	})
	if err != nil {
		return "", err
	}
	return util.PickFreeSlug(base, existing), nil
}
