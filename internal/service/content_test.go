// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"polyglot/internal/cache"
	"polyglot/internal/model"
	"polyglot/internal/routing"
	"polyglot/internal/store"
	"polyglot/internal/taxonomy"
	"polyglot/internal/testutil"
	"polyglot/internal/translation"
)

func newServiceFixture(t *testing.T) (*ContentService, *store.Queries) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	if err := store.Seed(context.Background(), db); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	queries := store.New(db)
	resolver := translation.NewResolver(queries, cache.New(time.Minute, 100))
	sync := taxonomy.NewSynchronizer(queries, resolver, taxonomy.DefaultTaxonomies)
	return NewContentService(db, sync), queries
}

func TestSaveCreatesWithDefaults(t *testing.T) {
	svc, _ := newServiceFixture(t)
	ctx := context.Background()

	item, err := svc.Save(ctx, SaveParams{Title: "My First Post", AuthorID: 1})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if item.Type != model.ContentTypePost {
		t.Errorf("type = %q, want the post default", item.Type)
	}
	if item.Status != model.ContentStatusDraft {
		t.Errorf("status = %q, want draft", item.Status)
	}
	// The save pipeline stamps language, group and slug
	if item.Language != "en" {
		t.Errorf("language = %q, want en", item.Language)
	}
	if item.TranslationGroup == "" {
		t.Error("translation group not minted")
	}
	if item.Slug != "my-first-post" {
		t.Errorf("slug = %q, want my-first-post", item.Slug)
	}
}

func TestSaveUpdatesExisting(t *testing.T) {
	svc, q := newServiceFixture(t)
	ctx := context.Background()

	item, err := svc.Save(ctx, SaveParams{Title: "Original", AuthorID: 1})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	updated, err := svc.Save(ctx, SaveParams{
		ID:     item.ID,
		Title:  "Renamed",
		Slug:   item.Slug,
		Status: model.ContentStatusPublished,
	})
	if err != nil {
		t.Fatalf("update Save: %v", err)
	}

	if updated.ID != item.ID {
		t.Errorf("update created a new row: %d != %d", updated.ID, item.ID)
	}
	if updated.Title != "Renamed" || updated.Status != model.ContentStatusPublished {
		t.Errorf("update not applied: %+v", updated)
	}
	// Language and group survive the update untouched
	if updated.Language != item.Language || updated.TranslationGroup != item.TranslationGroup {
		t.Errorf("update disturbed language tagging: %+v", updated)
	}

	got, _ := q.GetContentItem(ctx, item.ID)
	if got.Title != "Renamed" {
		t.Errorf("persisted title = %q", got.Title)
	}
}

func TestSaveReplacesAssignmentsAndMirrors(t *testing.T) {
	svc, q := newServiceFixture(t)
	ctx := context.Background()
	now := time.Now()

	item, err := svc.Save(ctx, SaveParams{Title: "Post EN", Language: "en"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	sibling, err := q.CreateContentItem(ctx, store.CreateContentItemParams{
		Type: model.ContentTypePost, Title: "Post FR", Slug: "post-fr",
		Status: model.ContentStatusDraft, Language: "fr",
		TranslationGroup: item.TranslationGroup, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seeding sibling: %v", err)
	}

	en, err := q.CreateTerm(ctx, store.CreateTermParams{
		Taxonomy: model.TaxonomyCategory, Name: "news", Slug: "news",
		Language: "en", TranslationGroup: "tg", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatal(err)
	}
	fr, err := q.CreateTerm(ctx, store.CreateTermParams{
		Taxonomy: model.TaxonomyCategory, Name: "nouvelles", Slug: "nouvelles",
		Language: "fr", TranslationGroup: "tg", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Save(ctx, SaveParams{
		ID:    item.ID,
		Title: "Post EN",
		Slug:  item.Slug,
		TermIDs: map[string][]int64{
			model.TaxonomyCategory: {en.ID},
		},
	}); err != nil {
		t.Fatalf("Save with terms: %v", err)
	}

	own, _ := q.ListTermIDsForTaxonomy(ctx, store.DeleteTermAssignmentsParams{
		ContentID: item.ID, Taxonomy: model.TaxonomyCategory,
	})
	if len(own) != 1 || own[0] != en.ID {
		t.Errorf("own assignments = %v", own)
	}

	mirrored, _ := q.ListTermIDsForTaxonomy(ctx, store.DeleteTermAssignmentsParams{
		ContentID: sibling.ID, Taxonomy: model.TaxonomyCategory,
	})
	if len(mirrored) != 1 || mirrored[0] != fr.ID {
		t.Errorf("mirrored assignments = %v, want [%d]", mirrored, fr.ID)
	}
}

func TestSettingsServiceLoadAndUpdate(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()
	if err := store.Seed(ctx, db); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	routes := routing.NewResolver(model.DefaultSettings(), nil)
	svc := NewSettingsService(db, routes)

	loaded, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.DefaultLanguage != "en" {
		t.Errorf("DefaultLanguage = %q", loaded.DefaultLanguage)
	}

	if err := svc.UpdateKey(ctx, model.ConfigKeyDefaultLanguage, "fr"); err != nil {
		t.Fatalf("UpdateKey: %v", err)
	}
	loaded, _ = svc.Load(ctx)
	if loaded.DefaultLanguage != "fr" {
		t.Errorf("DefaultLanguage = %q after update, want fr", loaded.DefaultLanguage)
	}

	// Unknown keys are rejected before touching the store
	if err := svc.UpdateKey(ctx, "bogus.key", "x"); err == nil {
		t.Error("UpdateKey accepted an unknown key")
	}
}

func TestLoadIncludesLanguageTable(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()
	if err := store.Seed(ctx, db); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	q := store.New(db)
	now := time.Now()
	if _, err := q.CreateLanguage(ctx, store.CreateLanguageParams{
		Code: "fr", Name: "French", NativeName: "Français", IsActive: true,
		Direction: model.DirectionLTR, Position: 2, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("CreateLanguage: %v", err)
	}

	svc := NewSettingsService(db, nil)
	loaded, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// The language table drives the list, not the config blob defaults
	if len(loaded.Languages) != 2 || loaded.Languages[0] != "en" || loaded.Languages[1] != "fr" {
		t.Errorf("Languages = %v, want [en fr]", loaded.Languages)
	}
}

func TestAddLanguageRebuildsRoutes(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()
	if err := store.Seed(ctx, db); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	svc := NewSettingsService(db, nil)
	settings, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	routes := routing.NewResolver(settings, []string{model.ContentTypePost})
	svc.BindRoutes(routes)

	if patterns := routes.Patterns(); len(patterns) != 0 {
		t.Fatalf("default-language-only table produced %d patterns", len(patterns))
	}

	lang, err := svc.AddLanguage(ctx, "fr")
	if err != nil {
		t.Fatalf("AddLanguage: %v", err)
	}
	if lang.Code != "fr" || lang.Name != "French" || !lang.IsActive {
		t.Errorf("activated language = %+v", lang)
	}

	// The activation flows into the pattern table without a restart
	if patterns := routes.Patterns(); len(patterns) != 1 {
		t.Errorf("got %d patterns after activating fr, want 1", len(patterns))
	}

	if _, err := svc.AddLanguage(ctx, "fr"); !errors.Is(err, ErrLanguageExists) {
		t.Errorf("re-activation error = %v, want ErrLanguageExists", err)
	}
	if _, err := svc.AddLanguage(ctx, "xx"); !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("unknown code error = %v, want ErrUnknownLanguage", err)
	}
}

func TestSaveLinksRegisteredGroup(t *testing.T) {
	svc, q := newServiceFixture(t)
	ctx := context.Background()

	if err := q.CreateOrphanGroup(ctx, store.CreateOrphanGroupParams{
		GroupID: "pre-group", Kind: model.EntityKindContent, CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("CreateOrphanGroup: %v", err)
	}

	item, err := svc.Save(ctx, SaveParams{Title: "First Member", TranslationGroup: "pre-group"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if item.TranslationGroup != "pre-group" {
		t.Errorf("translation group = %q, want pre-group", item.TranslationGroup)
	}

	// Linking the first member removes the placeholder
	orphans, err := q.ListOrphanGroups(ctx, model.EntityKindContent)
	if err != nil {
		t.Fatalf("ListOrphanGroups: %v", err)
	}
	if len(orphans) != 0 {
		t.Errorf("placeholder survived the first member: %v", orphans)
	}
}
