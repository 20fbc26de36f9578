// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translation

import "context"

// FieldSchema is the external field-schema registry. The engine never owns
// field definitions; it only asks which field names exist for a content
// item's context so their values can be copied by name.
type FieldSchema interface {
	// FieldsForContext returns the custom field names defined for a content
	// type and template combination.
	FieldsForContext(ctx context.Context, contentType, template string) ([]string, error)
}

// StaticFieldSchema is a FieldSchema backed by a fixed in-memory registry,
// keyed by content type. Template-specific overrides take precedence.
type StaticFieldSchema struct {
	ByType     map[string][]string
	ByTemplate map[string][]string
}

// FieldsForContext implements FieldSchema.
func (s *StaticFieldSchema) FieldsForContext(_ context.Context, contentType, template string) ([]string, error) {
	if template != "" {
		if fields, ok := s.ByTemplate[template]; ok {
			return fields, nil
		}
	}
	return s.ByType[contentType], nil
}
