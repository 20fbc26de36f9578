// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translation

import (
	"context"
	"errors"
	"testing"
	"time"

	"polyglot/internal/cache"
	"polyglot/internal/model"
	"polyglot/internal/store"
	"polyglot/internal/testutil"
)

func newTermFixture(t *testing.T) (*TermService, *store.Queries) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	if err := store.Seed(context.Background(), db); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	queries := store.New(db)
	return NewTermService(queries, cache.New(time.Minute, 100)), queries
}

func seedTerm(t *testing.T, q *store.Queries, taxonomy, name, lang, group string) model.Term {
	t.Helper()
	now := time.Now()
	term, err := q.CreateTerm(context.Background(), store.CreateTermParams{
		Taxonomy:         taxonomy,
		Name:             name,
		Slug:             name,
		Language:         lang,
		TranslationGroup: group,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		t.Fatalf("seeding term: %v", err)
	}
	return term
}

func TestTermCreateTranslation(t *testing.T) {
	svc, q := newTermFixture(t)
	ctx := context.Background()
	source := seedTerm(t, q, model.TaxonomyCategory, "news", "en", "tg1")

	term, err := svc.CreateTranslation(ctx, source.ID, "fr", model.TaxonomyCategory)
	if err != nil {
		t.Fatalf("CreateTranslation: %v", err)
	}

	if term.Language != "fr" || term.TranslationGroup != "tg1" {
		t.Errorf("unexpected term: %+v", term)
	}
	if term.Name != "news (FR)" {
		t.Errorf("name = %q, want news (FR)", term.Name)
	}
	if term.Taxonomy != model.TaxonomyCategory {
		t.Errorf("taxonomy = %q", term.Taxonomy)
	}
}

func TestTermCreateTranslationConflict(t *testing.T) {
	svc, q := newTermFixture(t)
	ctx := context.Background()
	source := seedTerm(t, q, model.TaxonomyCategory, "news", "en", "tg1")
	seedTerm(t, q, model.TaxonomyCategory, "nouvelles", "fr", "tg1")

	_, err := svc.CreateTranslation(ctx, source.ID, "fr", model.TaxonomyCategory)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	n, _ := q.CountTermsInGroupLanguage(ctx, store.CountTermsInGroupLanguageParams{
		TranslationGroup: "tg1",
		Language:         "fr",
	})
	if n != 1 {
		t.Errorf("group holds %d fr members, want 1", n)
	}
}

func TestTermCreateTranslationTaxonomyMismatch(t *testing.T) {
	svc, q := newTermFixture(t)
	ctx := context.Background()
	source := seedTerm(t, q, model.TaxonomyCategory, "news", "en", "tg1")

	_, err := svc.CreateTranslation(ctx, source.ID, "fr", model.TaxonomyTag)
	if !IsValidation(err) {
		t.Errorf("expected validation error for taxonomy mismatch, got %v", err)
	}
}

func TestTermCreateTranslationBootstrapsGroup(t *testing.T) {
	svc, q := newTermFixture(t)
	ctx := context.Background()
	source := seedTerm(t, q, model.TaxonomyCategory, "untagged", "", "")

	term, err := svc.CreateTranslation(ctx, source.ID, "fr", model.TaxonomyCategory)
	if err != nil {
		t.Fatalf("CreateTranslation: %v", err)
	}

	reloaded, _ := q.GetTerm(ctx, source.ID)
	if reloaded.TranslationGroup == "" || reloaded.Language != "en" {
		t.Errorf("source not bootstrapped: %+v", reloaded)
	}
	if term.TranslationGroup != reloaded.TranslationGroup {
		t.Error("translation not linked to the bootstrapped group")
	}
}

func TestTermCreateTranslationNotFound(t *testing.T) {
	svc, _ := newTermFixture(t)

	_, err := svc.CreateTranslation(context.Background(), 9999, "fr", model.TaxonomyCategory)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
