package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"polyglot/internal/model"
)

// Seed creates the initial language and language configuration defaults.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)
	now := time.Now()

	def := model.DefaultSettings()

	// Default language row
	_, err := queries.GetLanguageByCode(ctx, def.DefaultLanguage)
	switch {
	case err == nil:
		slog.Info("default language already exists, skipping language seed")
	case errors.Is(err, sql.ErrNoRows):
		lang, err := queries.CreateLanguage(ctx, CreateLanguageParams{
			Code:       def.DefaultLanguage,
			Name:       "English",
			NativeName: "English",
			IsDefault:  true,
			IsActive:   true,
			Direction:  model.DirectionLTR,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return fmt.Errorf("creating default language: %w", err)
		}
		slog.Info("created default language", "id", lang.ID, "code", lang.Code)
	default:
		return fmt.Errorf("checking for default language: %w", err)
	}

	// Language configuration defaults, only for keys not yet present
	existing, err := queries.ListConfig(ctx)
	if err != nil {
		return fmt.Errorf("listing config: %w", err)
	}
	for _, key := range model.SettingsKeys {
		if _, ok := existing[key]; ok {
			continue
		}
		value, _ := model.DefaultConfigValue(key)
		if err := queries.UpsertConfig(ctx, UpsertConfigParams{
			Key:       key,
			Value:     value,
			UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("seeding config key %q: %w", key, err)
		}
	}

	return nil
}
