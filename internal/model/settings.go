// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "encoding/json"

// Config keys central to the language configuration. The settings integrity
// check repopulates any of these that go missing.
const (
	ConfigKeyDefaultLanguage   = "lang.default"
	ConfigKeyPermalinksEnabled = "lang.permalinks_enabled"
	ConfigKeyPermalinkBases    = "lang.permalink_bases"
	ConfigKeyTaxonomyBases     = "lang.taxonomy_bases"
)

// SettingsKeys lists every key the engine expects to exist in the config table.
var SettingsKeys = []string{
	ConfigKeyDefaultLanguage,
	ConfigKeyPermalinksEnabled,
	ConfigKeyPermalinkBases,
	ConfigKeyTaxonomyBases,
}

// Settings is the explicit shape of the language configuration. It replaces
// the loose key/value blob the config table stores with a typed view.
type Settings struct {
	DefaultLanguage   string                       `json:"default_language"`
	Languages         []string                     `json:"languages"`
	PermalinksEnabled bool                         `json:"permalinks_enabled"`
	PermalinkBases    map[string]map[string]string `json:"permalink_bases"` // content type -> lang -> base
	TaxonomyBases     map[string]map[string]string `json:"taxonomy_bases"`  // taxonomy -> lang -> base
}

// DefaultSettings returns the schema defaults used on first boot and by the
// settings integrity fix.
func DefaultSettings() Settings {
	return Settings{
		DefaultLanguage:   "en",
		Languages:         []string{"en"},
		PermalinksEnabled: true,
		PermalinkBases: map[string]map[string]string{
			ContentTypePost: {"": "blog"},
			ContentTypePage: {"": ""},
		},
		TaxonomyBases: map[string]map[string]string{
			TaxonomyCategory: {"": "category"},
			TaxonomyTag:      {"": "tag"},
		},
	}
}

// DefaultConfigValue returns the persisted default for a config key, or
// ("", false) for unknown keys. Base maps are stored as JSON.
func DefaultConfigValue(key string) (string, bool) {
	def := DefaultSettings()
	switch key {
	case ConfigKeyDefaultLanguage:
		return def.DefaultLanguage, true
	case ConfigKeyPermalinksEnabled:
		return "true", true
	case ConfigKeyPermalinkBases:
		b, _ := json.Marshal(def.PermalinkBases)
		return string(b), true
	case ConfigKeyTaxonomyBases:
		b, _ := json.Marshal(def.TaxonomyBases)
		return string(b), true
	}
	return "", false
}

// ParseSettings builds Settings from raw config rows, filling gaps with
// schema defaults. Unknown keys are ignored.
func ParseSettings(raw map[string]string) Settings {
	s := DefaultSettings()
	if v, ok := raw[ConfigKeyDefaultLanguage]; ok && v != "" {
		s.DefaultLanguage = v
	}
	if v, ok := raw[ConfigKeyPermalinksEnabled]; ok {
		s.PermalinksEnabled = v == "true" || v == "1"
	}
	if v, ok := raw[ConfigKeyPermalinkBases]; ok && v != "" {
		var bases map[string]map[string]string
		if err := json.Unmarshal([]byte(v), &bases); err == nil {
			s.PermalinkBases = bases
		}
	}
	if v, ok := raw[ConfigKeyTaxonomyBases]; ok && v != "" {
		var bases map[string]map[string]string
		if err := json.Unmarshal([]byte(v), &bases); err == nil {
			s.TaxonomyBases = bases
		}
	}
	return s
}

// PermalinkBase resolves the URL base for a content type in a language,
// falling back to the type's default base (empty language key).
func (s Settings) PermalinkBase(contentType, lang string) string {
	if byLang, ok := s.PermalinkBases[contentType]; ok {
		if base, ok := byLang[lang]; ok && base != "" {
			return base
		}
		return byLang[""]
	}
	return ""
}

// TaxonomyBase resolves the URL base for a taxonomy in a language, falling
// back to the taxonomy's default base.
func (s Settings) TaxonomyBase(taxonomy, lang string) string {
	if byLang, ok := s.TaxonomyBases[taxonomy]; ok {
		if base, ok := byLang[lang]; ok && base != "" {
			return base
		}
		return byLang[""]
	}
	return taxonomy
}
