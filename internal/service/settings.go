// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"polyglot/internal/model"
	"polyglot/internal/routing"
	"polyglot/internal/store"
)

// Language activation errors.
var (
	ErrLanguageExists  = errors.New("language already active")
	ErrUnknownLanguage = errors.New("unknown language code")
)

// SettingsService loads and updates the persisted language configuration and
// keeps the routing pattern table in step with it.
type SettingsService struct {
	queries *store.Queries
	routes  *routing.Resolver
}

// NewSettingsService creates a SettingsService. routes may be nil in contexts
// that never resolve paths (tests, one-shot tools).
func NewSettingsService(db *sql.DB, routes *routing.Resolver) *SettingsService {
	return &SettingsService{queries: store.New(db), routes: routes}
}

// BindRoutes attaches the routing resolver once it exists. Boot code loads
// settings through this service before the resolver can be constructed.
func (s *SettingsService) BindRoutes(routes *routing.Resolver) {
	s.routes = routes
}

// Load reads the language configuration, merging config rows over schema
// defaults and picking up the active language list from the languages table.
func (s *SettingsService) Load(ctx context.Context) (model.Settings, error) {
	raw, err := s.queries.ListConfig(ctx)
	if err != nil {
		return model.Settings{}, fmt.Errorf("listing config: %w", err)
	}
	settings := model.ParseSettings(raw)

	langs, err := s.queries.ListActiveLanguages(ctx)
	if err != nil {
		return model.Settings{}, fmt.Errorf("listing languages: %w", err)
	}
	if len(langs) > 0 {
		settings.Languages = make([]string, 0, len(langs))
		for _, l := range langs {
			settings.Languages = append(settings.Languages, l.Code)
		}
	}

	return settings, nil
}

// UpdateKey writes one configuration key and invalidates the route patterns,
// which depend on languages and bases.
func (s *SettingsService) UpdateKey(ctx context.Context, key, value string) error {
	if _, known := model.DefaultConfigValue(key); !known {
		return fmt.Errorf("unknown settings key %q", key)
	}
	if err := s.queries.UpsertConfig(ctx, store.UpsertConfigParams{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}); err != nil {
		return fmt.Errorf("writing config key %q: %w", key, err)
	}
	return s.refreshRoutes(ctx)
}

// ListLanguages returns the active languages in switcher order.
func (s *SettingsService) ListLanguages(ctx context.Context) ([]model.Language, error) {
	return s.queries.ListActiveLanguages(ctx)
}

// AddLanguage activates a language by ISO code, seeding its names and text
// direction from the common-language table, and refreshes the route patterns.
func (s *SettingsService) AddLanguage(ctx context.Context, code string) (model.Language, error) {
	if _, err := s.queries.GetLanguageByCode(ctx, code); err == nil {
		return model.Language{}, fmt.Errorf("%w: %s", ErrLanguageExists, code)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return model.Language{}, fmt.Errorf("checking language %q: %w", code, err)
	}

	idx := -1
	for i, c := range model.CommonLanguages {
		if c.Code == code {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.Language{}, fmt.Errorf("%w: %s", ErrUnknownLanguage, code)
	}
	entry := model.CommonLanguages[idx]

	active, err := s.queries.ListActiveLanguages(ctx)
	if err != nil {
		return model.Language{}, fmt.Errorf("listing languages: %w", err)
	}

	now := time.Now()
	lang, err := s.queries.CreateLanguage(ctx, store.CreateLanguageParams{
		Code:       entry.Code,
		Name:       entry.Name,
		NativeName: entry.NativeName,
		IsActive:   true,
		Direction:  entry.Direction,
		Position:   len(active) + 1,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return model.Language{}, fmt.Errorf("creating language %q: %w", code, err)
	}

	if err := s.refreshRoutes(ctx); err != nil {
		return model.Language{}, err
	}
	return lang, nil
}

func (s *SettingsService) refreshRoutes(ctx context.Context) error {
	if s.routes == nil {
		return nil
	}
	settings, err := s.Load(ctx)
	if err != nil {
		return err
	}
	s.routes.UpdateSettings(settings)
	return nil
}
