// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"polyglot/internal/model"
	"polyglot/internal/store"
)

// MissingLanguageBatchLimit caps how many entities one scan reports and one
// fix invocation heals.
const MissingLanguageBatchLimit = 100

// MissingLanguageCheck finds user-visible content items and terms that lack a
// language tag or a translation group. Fixable by stamping the default
// language and minting a fresh group.
type MissingLanguageCheck struct {
	queries *store.Queries
}

// NewMissingLanguageCheck creates the check.
func NewMissingLanguageCheck(queries *store.Queries) *MissingLanguageCheck {
	return &MissingLanguageCheck{queries: queries}
}

// ID implements Check.
func (c *MissingLanguageCheck) ID() string { return "missing_language" }

// Category implements Check.
func (c *MissingLanguageCheck) Category() string { return "taxonomy" }

// Run implements Check.
func (c *MissingLanguageCheck) Run(ctx context.Context) ([]Issue, error) {
	var issues []Issue

	items, err := c.queries.ListContentMissingLanguage(ctx, MissingLanguageBatchLimit)
	if err != nil {
		return nil, fmt.Errorf("listing untagged content: %w", err)
	}
	for _, item := range items {
		issues = append(issues, Issue{
			ID:       fmt.Sprintf("content-%d", item.ID),
			Severity: model.IssueSeverityCritical,
			Message:  fmt.Sprintf("content item %d (%q) has no language or translation group", item.ID, item.Title),
			CanFix:   true,
			FixContext: map[string]string{
				"kind": model.EntityKindContent,
				"id":   strconv.FormatInt(item.ID, 10),
			},
		})
	}

	terms, err := c.queries.ListTermsMissingLanguage(ctx, MissingLanguageBatchLimit)
	if err != nil {
		return nil, fmt.Errorf("listing untagged terms: %w", err)
	}
	for _, term := range terms {
		issues = append(issues, Issue{
			ID:       fmt.Sprintf("term-%d", term.ID),
			Severity: model.IssueSeverityCritical,
			Message:  fmt.Sprintf("term %d (%q, %s) has no language or translation group", term.ID, term.Name, term.Taxonomy),
			CanFix:   true,
			FixContext: map[string]string{
				"kind": model.EntityKindTerm,
				"id":   strconv.FormatInt(term.ID, 10),
			},
		})
	}

	return issues, nil
}

// FixPreview implements Fixer.
func (c *MissingLanguageCheck) FixPreview(ctx context.Context, entry store.AuditIssue) (string, bool) {
	lang := c.defaultLanguage(ctx)
	return fmt.Sprintf("stamp language %q and mint a translation group if absent", lang), true
}

// ApplyFix implements Fixer. It stamps the default language and mints a group
// on the single entity the issue points at.
func (c *MissingLanguageCheck) ApplyFix(ctx context.Context, entry store.AuditIssue) error {
	kind, id, err := parseEntityContext(entry.FixContext)
	if err != nil {
		return err
	}
	now := time.Now()
	lang := c.defaultLanguage(ctx)

	switch kind {
	case model.EntityKindContent:
		item, err := c.queries.GetContentItem(ctx, id)
		if err != nil {
			return fmt.Errorf("loading content item %d: %w", id, err)
		}
		if !item.IsUserVisible() {
			return fmt.Errorf("content item %d is in the trash; restore it before fixing", id)
		}
		if item.Language == "" {
			item.Language = lang
		}
		if item.TranslationGroup == "" {
			item.TranslationGroup = uuid.NewString()
		}
		return c.queries.UpdateContentLanguageGroup(ctx, store.UpdateContentLanguageGroupParams{
			Language:         item.Language,
			TranslationGroup: item.TranslationGroup,
			UpdatedAt:        now,
			ID:               item.ID,
		})
	case model.EntityKindTerm:
		term, err := c.queries.GetTerm(ctx, id)
		if err != nil {
			return fmt.Errorf("loading term %d: %w", id, err)
		}
		if term.Language == "" {
			term.Language = lang
		}
		if term.TranslationGroup == "" {
			term.TranslationGroup = uuid.NewString()
		}
		return c.queries.UpdateTermLanguageGroup(ctx, store.UpdateTermLanguageGroupParams{
			Language:         term.Language,
			TranslationGroup: term.TranslationGroup,
			UpdatedAt:        now,
			ID:               term.ID,
		})
	default:
		return fmt.Errorf("unknown entity kind %q", kind)
	}
}

func (c *MissingLanguageCheck) defaultLanguage(ctx context.Context) string {
	lang, err := c.queries.GetDefaultLanguage(ctx)
	if err != nil {
		return model.DefaultSettings().DefaultLanguage
	}
	return lang.Code
}

// DuplicateLanguageCheck finds translation groups holding two members tagged
// with the same language. Never auto-fixed: deciding which member keeps the
// slot destroys data, so a human disambiguates.
type DuplicateLanguageCheck struct {
	queries *store.Queries
}

// NewDuplicateLanguageCheck creates the check.
func NewDuplicateLanguageCheck(queries *store.Queries) *DuplicateLanguageCheck {
	return &DuplicateLanguageCheck{queries: queries}
}

// ID implements Check.
func (c *DuplicateLanguageCheck) ID() string { return "duplicate_language" }

// Category implements Check.
func (c *DuplicateLanguageCheck) Category() string { return "taxonomy" }

// Run implements Check.
func (c *DuplicateLanguageCheck) Run(ctx context.Context) ([]Issue, error) {
	var issues []Issue

	content, err := c.queries.ListDuplicateContentLanguages(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning content groups: %w", err)
	}
	for _, d := range content {
		issues = append(issues, Issue{
			ID:       fmt.Sprintf("content-%s-%s", d.TranslationGroup, d.Language),
			Severity: model.IssueSeverityWarning,
			Message: fmt.Sprintf("translation group %s has %d content items in language %q",
				d.TranslationGroup, d.MemberCount, d.Language),
		})
	}

	terms, err := c.queries.ListDuplicateTermLanguages(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning term groups: %w", err)
	}
	for _, d := range terms {
		issues = append(issues, Issue{
			ID:       fmt.Sprintf("term-%s-%s", d.TranslationGroup, d.Language),
			Severity: model.IssueSeverityWarning,
			Message: fmt.Sprintf("translation group %s has %d terms in language %q",
				d.TranslationGroup, d.MemberCount, d.Language),
		})
	}

	return issues, nil
}

// SettingsCheck verifies that every config key central to the language
// configuration exists. Fixable by repopulating schema defaults.
type SettingsCheck struct {
	queries *store.Queries
}

// NewSettingsCheck creates the check.
func NewSettingsCheck(queries *store.Queries) *SettingsCheck {
	return &SettingsCheck{queries: queries}
}

// ID implements Check.
func (c *SettingsCheck) ID() string { return "settings_keys" }

// Category implements Check.
func (c *SettingsCheck) Category() string { return "settings" }

// Run implements Check.
func (c *SettingsCheck) Run(ctx context.Context) ([]Issue, error) {
	existing, err := c.queries.ListConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing config: %w", err)
	}

	var issues []Issue
	for _, key := range model.SettingsKeys {
		if _, ok := existing[key]; ok {
			continue
		}
		issues = append(issues, Issue{
			ID:         key,
			Severity:   model.IssueSeverityWarning,
			Message:    fmt.Sprintf("language configuration key %q is missing", key),
			CanFix:     true,
			FixContext: map[string]string{"key": key},
		})
	}
	return issues, nil
}

// FixPreview implements Fixer.
func (c *SettingsCheck) FixPreview(_ context.Context, entry store.AuditIssue) (string, bool) {
	return "repopulate the key with its schema default", true
}

// ApplyFix implements Fixer.
func (c *SettingsCheck) ApplyFix(ctx context.Context, entry store.AuditIssue) error {
	var fixCtx struct {
		Key string `json:"key"`
	}
	if err := unmarshalFixContext(entry.FixContext, &fixCtx); err != nil {
		return err
	}
	value, ok := model.DefaultConfigValue(fixCtx.Key)
	if !ok {
		return fmt.Errorf("no schema default for key %q", fixCtx.Key)
	}
	return c.queries.UpsertConfig(ctx, store.UpsertConfigParams{
		Key:       fixCtx.Key,
		Value:     value,
		UpdatedAt: time.Now(),
	})
}

// unmarshalFixContext decodes the persisted fix context JSON.
func unmarshalFixContext(raw string, into any) error {
	if err := json.Unmarshal([]byte(raw), into); err != nil {
		return fmt.Errorf("decoding fix context: %w", err)
	}
	return nil
}

// parseEntityContext extracts the (kind, id) pair a fix context points at.
func parseEntityContext(raw string) (string, int64, error) {
	var fixCtx struct {
		Kind string `json:"kind"`
		ID   string `json:"id"`
	}
	if err := unmarshalFixContext(raw, &fixCtx); err != nil {
		return "", 0, err
	}
	id, err := strconv.ParseInt(fixCtx.ID, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("parsing entity id %q: %w", fixCtx.ID, err)
	}
	return fixCtx.Kind, id, nil
}
