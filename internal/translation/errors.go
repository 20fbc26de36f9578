// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package translation implements translation creation for content items and
// taxonomy terms, and batch resolution of translation group memberships.
package translation

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the source entity or group does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when the target language already has a member
	// in the translation group. Creation is deliberately not idempotent:
	// silently overwriting would destroy manual edits.
	ErrConflict = errors.New("translation already exists in target language")
)

// ValidationError reports malformed or missing arguments. It is reported to
// the caller and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
