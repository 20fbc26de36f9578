// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"polyglot/internal/model"
)

// testDB creates a temporary migrated database. testutil would be the natural
// home for this, but testutil imports store.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "polyglot-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	_ = f.Close()

	db, err := NewDB(f.Name())
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func createItem(t *testing.T, q *Queries, lang, group, title string) model.ContentItem {
	t.Helper()
	now := time.Now()
	item, err := q.CreateContentItem(context.Background(), CreateContentItemParams{
		Type:             model.ContentTypePost,
		Title:            title,
		Slug:             title,
		Status:           model.ContentStatusPublished,
		Language:         lang,
		TranslationGroup: group,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		t.Fatalf("CreateContentItem: %v", err)
	}
	return item
}

func createTestTerm(t *testing.T, q *Queries, taxonomy, slug, lang, group string) model.Term {
	t.Helper()
	now := time.Now()
	term, err := q.CreateTerm(context.Background(), CreateTermParams{
		Taxonomy:         taxonomy,
		Name:             slug,
		Slug:             slug,
		Language:         lang,
		TranslationGroup: group,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		t.Fatalf("CreateTerm: %v", err)
	}
	return term
}

func TestContentItemCRUD(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	item := createItem(t, q, "en", "g1", "hello")
	if item.ID == 0 {
		t.Fatal("expected non-zero id")
	}

	got, err := q.GetContentItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetContentItem: %v", err)
	}
	if got.Title != "hello" || got.Language != "en" || got.TranslationGroup != "g1" {
		t.Errorf("unexpected item: %+v", got)
	}

	if err := q.UpdateContentLanguageGroup(ctx, UpdateContentLanguageGroupParams{
		Language:         "fr",
		TranslationGroup: "g2",
		UpdatedAt:        time.Now(),
		ID:               item.ID,
	}); err != nil {
		t.Fatalf("UpdateContentLanguageGroup: %v", err)
	}
	got, _ = q.GetContentItem(ctx, item.ID)
	if got.Language != "fr" || got.TranslationGroup != "g2" {
		t.Errorf("stamp not applied: %+v", got)
	}

	_, err = q.GetContentItem(ctx, 9999)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected ErrNoRows for missing item, got %v", err)
	}
}

func TestGetContentGroups(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	a := createItem(t, q, "en", "g1", "a")
	b := createItem(t, q, "fr", "g1", "b")
	c := createItem(t, q, "en", "", "c")

	rows, err := q.GetContentGroups(ctx, []int64{a.ID, b.ID, c.ID, 9999})
	if err != nil {
		t.Fatalf("GetContentGroups: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3 (missing ids yield no rows)", len(rows))
	}

	byID := make(map[int64]string)
	for _, r := range rows {
		byID[r.ID] = r.TranslationGroup
	}
	if byID[a.ID] != "g1" || byID[b.ID] != "g1" || byID[c.ID] != "" {
		t.Errorf("unexpected mapping: %v", byID)
	}

	empty, err := q.GetContentGroups(ctx, nil)
	if err != nil || empty != nil {
		t.Errorf("empty input should yield nil, nil; got %v, %v", empty, err)
	}
}

func TestListContentByGroups(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	createItem(t, q, "en", "g1", "a")
	createItem(t, q, "fr", "g1", "b")
	createItem(t, q, "en", "g2", "c")
	createItem(t, q, "en", "g3", "unrelated")

	rows, err := q.ListContentByGroups(ctx, []string{"g1", "g2"})
	if err != nil {
		t.Fatalf("ListContentByGroups: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("got %d members, want 3", len(rows))
	}
}

func TestCountContentInGroupLanguage(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	createItem(t, q, "en", "g1", "a")
	createItem(t, q, "fr", "g1", "b")

	n, err := q.CountContentInGroupLanguage(ctx, CountContentInGroupLanguageParams{
		TranslationGroup: "g1",
		Language:         "fr",
	})
	if err != nil {
		t.Fatalf("CountContentInGroupLanguage: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}

	n, _ = q.CountContentInGroupLanguage(ctx, CountContentInGroupLanguageParams{
		TranslationGroup: "g1",
		Language:         "de",
	})
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestListContentMissingLanguage(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	createItem(t, q, "", "", "untagged")
	createItem(t, q, "en", "g1", "tagged")

	trash := createItem(t, q, "", "", "trashed")
	if err := q.UpdateContentItem(ctx, UpdateContentItemParams{
		Title:     trash.Title,
		Slug:      trash.Slug,
		Status:    model.ContentStatusTrash,
		UpdatedAt: time.Now(),
		ID:        trash.ID,
	}); err != nil {
		t.Fatalf("UpdateContentItem: %v", err)
	}

	items, err := q.ListContentMissingLanguage(ctx, 100)
	if err != nil {
		t.Fatalf("ListContentMissingLanguage: %v", err)
	}
	if len(items) != 1 || items[0].Title != "untagged" {
		t.Errorf("expected only the untagged visible item, got %+v", items)
	}
}

func TestListDuplicateLanguages(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	createItem(t, q, "en", "g1", "a")
	createItem(t, q, "en", "g1", "b") // duplicate slot
	createItem(t, q, "fr", "g1", "c")
	createItem(t, q, "en", "g2", "d")

	rows, err := q.ListDuplicateContentLanguages(ctx)
	if err != nil {
		t.Fatalf("ListDuplicateContentLanguages: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d duplicate slots, want 1", len(rows))
	}
	if rows[0].TranslationGroup != "g1" || rows[0].Language != "en" || rows[0].MemberCount != 2 {
		t.Errorf("unexpected row: %+v", rows[0])
	}
}

func TestResolveTermGroupsForLanguage(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	fr := createTestTerm(t, q, model.TaxonomyCategory, "nouvelles", "fr", "tg1")
	createTestTerm(t, q, model.TaxonomyCategory, "news", "en", "tg1")
	createTestTerm(t, q, model.TaxonomyCategory, "sport-fr", "fr", "tg2")
	createTestTerm(t, q, model.TaxonomyTag, "other", "fr", "tg3")

	rows, err := q.ResolveTermGroupsForLanguage(ctx, ResolveTermGroupsForLanguageParams{
		Taxonomy: model.TaxonomyCategory,
		Language: "fr",
		Groups:   []string{"tg1", "tg3", "missing"},
	})
	if err != nil {
		t.Fatalf("ResolveTermGroupsForLanguage: %v", err)
	}
	// tg3 is a tag, "missing" has no members: only tg1 resolves
	if len(rows) != 1 || rows[0].TranslationGroup != "tg1" || rows[0].TermID != fr.ID {
		t.Errorf("unexpected rows: %+v", rows)
	}
}

func TestTermAssignments(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	item := createItem(t, q, "en", "g1", "a")
	term := createTestTerm(t, q, model.TaxonomyCategory, "news", "en", "tg1")

	assign := CreateTermAssignmentParams{ContentID: item.ID, TermID: term.ID, Taxonomy: model.TaxonomyCategory}
	if err := q.CreateTermAssignment(ctx, assign); err != nil {
		t.Fatalf("CreateTermAssignment: %v", err)
	}
	// Duplicate is silently ignored
	if err := q.CreateTermAssignment(ctx, assign); err != nil {
		t.Fatalf("duplicate CreateTermAssignment: %v", err)
	}

	rows, err := q.ListAssignedTerms(ctx, item.ID)
	if err != nil {
		t.Fatalf("ListAssignedTerms: %v", err)
	}
	if len(rows) != 1 || rows[0].TermID != term.ID || rows[0].TranslationGroup != "tg1" {
		t.Errorf("unexpected assignments: %+v", rows)
	}

	if err := q.DeleteTermAssignments(ctx, DeleteTermAssignmentsParams{
		ContentID: item.ID,
		Taxonomy:  model.TaxonomyCategory,
	}); err != nil {
		t.Fatalf("DeleteTermAssignments: %v", err)
	}
	rows, _ = q.ListAssignedTerms(ctx, item.ID)
	if len(rows) != 0 {
		t.Errorf("assignments not cleared: %+v", rows)
	}
}

func TestAuditIssueLifecycle(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	firstScan := time.Now().Add(-time.Hour)
	if err := q.UpsertAuditIssue(ctx, UpsertAuditIssueParams{
		UID: "u1", CheckID: "c", IssueID: "i1", Severity: model.IssueSeverityWarning,
		Message: "first", Seen: firstScan,
	}); err != nil {
		t.Fatalf("UpsertAuditIssue: %v", err)
	}

	// Re-detection refreshes last_seen and message, keeps first_seen
	secondScan := time.Now()
	if err := q.UpsertAuditIssue(ctx, UpsertAuditIssueParams{
		UID: "u1", CheckID: "c", IssueID: "i1", Severity: model.IssueSeverityCritical,
		Message: "second", Seen: secondScan,
	}); err != nil {
		t.Fatalf("refresh UpsertAuditIssue: %v", err)
	}

	got, err := q.GetAuditIssue(ctx, "u1")
	if err != nil {
		t.Fatalf("GetAuditIssue: %v", err)
	}
	if got.Message != "second" || got.Severity != model.IssueSeverityCritical {
		t.Errorf("mutable fields not refreshed: %+v", got)
	}
	if !got.FirstSeen.Before(got.LastSeen) {
		t.Errorf("first_seen should predate last_seen: %+v", got)
	}
	if got.Status != model.IssueStatusActive {
		t.Errorf("status = %q, want active", got.Status)
	}

	// An issue not seen by the next scan flips to resolved
	n, err := q.ResolveAuditIssuesNotSeen(ctx, secondScan.Add(time.Minute))
	if err != nil {
		t.Fatalf("ResolveAuditIssuesNotSeen: %v", err)
	}
	if n != 1 {
		t.Errorf("resolved %d issues, want 1", n)
	}
	got, _ = q.GetAuditIssue(ctx, "u1")
	if got.Status != model.IssueStatusResolved {
		t.Errorf("status = %q, want resolved", got.Status)
	}
}

func TestEvictAuditIssues(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	seed := []struct {
		uid     string
		resolve bool
		seen    time.Time
	}{
		{"old-resolved", true, base},
		{"new-resolved", true, base.Add(10 * time.Minute)},
		{"old-active", false, base.Add(20 * time.Minute)},
		{"new-active", false, base.Add(30 * time.Minute)},
	}
	for _, s := range seed {
		if err := q.UpsertAuditIssue(ctx, UpsertAuditIssueParams{
			UID: s.uid, CheckID: "c", IssueID: s.uid,
			Severity: model.IssueSeverityInfo, Message: s.uid, Seen: s.seen,
		}); err != nil {
			t.Fatalf("UpsertAuditIssue(%s): %v", s.uid, err)
		}
		if s.resolve {
			if _, err := db.Exec(`UPDATE audit_issues SET status = 'resolved' WHERE uid = ?`, s.uid); err != nil {
				t.Fatalf("marking resolved: %v", err)
			}
		}
	}

	// Evicting 3 must take both resolved entries and then the oldest active
	if err := q.EvictAuditIssues(ctx, 3); err != nil {
		t.Fatalf("EvictAuditIssues: %v", err)
	}

	remaining, err := q.ListAuditIssues(ctx, ListAuditIssuesParams{Limit: 10})
	if err != nil {
		t.Fatalf("ListAuditIssues: %v", err)
	}
	if len(remaining) != 1 || remaining[0].UID != "new-active" {
		t.Errorf("expected only new-active to survive, got %+v", remaining)
	}
}

func TestConfigUpsert(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	if err := q.UpsertConfig(ctx, UpsertConfigParams{Key: "k", Value: "v1", UpdatedAt: time.Now()}); err != nil {
		t.Fatalf("UpsertConfig: %v", err)
	}
	if err := q.UpsertConfig(ctx, UpsertConfigParams{Key: "k", Value: "v2", UpdatedAt: time.Now()}); err != nil {
		t.Fatalf("UpsertConfig overwrite: %v", err)
	}

	v, err := q.GetConfig(ctx, "k")
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if v != "v2" {
		t.Errorf("value = %q, want v2", v)
	}

	all, err := q.ListConfig(ctx)
	if err != nil {
		t.Fatalf("ListConfig: %v", err)
	}
	if all["k"] != "v2" {
		t.Errorf("ListConfig = %v", all)
	}
}

func TestOrphanGroups(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	arg := CreateOrphanGroupParams{GroupID: "g1", Kind: model.EntityKindContent, CreatedAt: time.Now()}
	if err := q.CreateOrphanGroup(ctx, arg); err != nil {
		t.Fatalf("CreateOrphanGroup: %v", err)
	}
	if err := q.CreateOrphanGroup(ctx, arg); err != nil {
		t.Fatalf("duplicate CreateOrphanGroup: %v", err)
	}

	groups, err := q.ListOrphanGroups(ctx, model.EntityKindContent)
	if err != nil {
		t.Fatalf("ListOrphanGroups: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("got %d placeholders, want 1", len(groups))
	}

	if err := q.DeleteOrphanGroup(ctx, "g1"); err != nil {
		t.Fatalf("DeleteOrphanGroup: %v", err)
	}
	groups, _ = q.ListOrphanGroups(ctx, model.EntityKindContent)
	if len(groups) != 0 {
		t.Errorf("placeholder not removed: %+v", groups)
	}
}

func TestSeed(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	if err := Seed(ctx, db); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	lang, err := q.GetDefaultLanguage(ctx)
	if err != nil {
		t.Fatalf("GetDefaultLanguage: %v", err)
	}
	if lang.Code != "en" || !lang.IsDefault {
		t.Errorf("unexpected default language: %+v", lang)
	}

	cfg, err := q.ListConfig(ctx)
	if err != nil {
		t.Fatalf("ListConfig: %v", err)
	}
	for _, key := range model.SettingsKeys {
		if _, ok := cfg[key]; !ok {
			t.Errorf("settings key %q not seeded", key)
		}
	}

	// Re-seeding must not overwrite existing values
	if err := q.UpsertConfig(ctx, UpsertConfigParams{
		Key: model.ConfigKeyDefaultLanguage, Value: "fr", UpdatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("UpsertConfig: %v", err)
	}
	if err := Seed(ctx, db); err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	v, _ := q.GetConfig(ctx, model.ConfigKeyDefaultLanguage)
	if v != "fr" {
		t.Errorf("re-seed overwrote existing value: %q", v)
	}
}
