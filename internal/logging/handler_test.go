// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"polyglot/internal/store"
	"polyglot/internal/testutil"
)

func newEventLogger(t *testing.T) (*slog.Logger, *store.Queries) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	inner := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewEventLogHandler(inner, db))
	return logger, store.New(db)
}

func TestWarningsLandInEventLog(t *testing.T) {
	logger, queries := newEventLogger(t)

	logger.Warn("translation slot already taken", "category", EventCategoryTranslation, "language", "fr")

	events, err := queries.ListRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	e := events[0]
	if e.Level != EventLevelWarning {
		t.Errorf("level = %q, want warning", e.Level)
	}
	if e.Category != EventCategoryTranslation {
		t.Errorf("category = %q", e.Category)
	}
	if e.Message != "translation slot already taken" {
		t.Errorf("message = %q", e.Message)
	}
	// Remaining attributes are carried as metadata, the category is not
	if !strings.Contains(e.Metadata, `"language":"fr"`) {
		t.Errorf("metadata = %q, missing language attribute", e.Metadata)
	}
	if strings.Contains(e.Metadata, "category") {
		t.Errorf("metadata = %q, category should be lifted out", e.Metadata)
	}
}

func TestErrorsRecordErrorLevel(t *testing.T) {
	logger, queries := newEventLogger(t)

	logger.Error("scan failed", "category", EventCategoryAudit)

	events, _ := queries.ListRecentEvents(context.Background(), 10)
	if len(events) != 1 || events[0].Level != EventLevelError {
		t.Fatalf("events = %+v, want one error entry", events)
	}
}

func TestInfoIsNotMirrored(t *testing.T) {
	logger, queries := newEventLogger(t)

	logger.Info("server started")
	logger.Debug("noise")

	events, _ := queries.ListRecentEvents(context.Background(), 10)
	if len(events) != 0 {
		t.Errorf("info/debug produced %d event log entries", len(events))
	}
}

func TestUncategorizedDefaultsToSystem(t *testing.T) {
	logger, queries := newEventLogger(t)

	logger.Warn("something odd")

	events, _ := queries.ListRecentEvents(context.Background(), 10)
	if len(events) != 1 || events[0].Category != EventCategorySystem {
		t.Fatalf("events = %+v, want one system entry", events)
	}
	if events[0].Metadata != "{}" {
		t.Errorf("metadata = %q, want empty object", events[0].Metadata)
	}
}

func TestEncodeMetadata(t *testing.T) {
	if got := encodeMetadata(nil); got != "{}" {
		t.Errorf("empty metadata = %q", got)
	}
	got := encodeMetadata(map[string]string{"key": `va"lue`})
	if got != `{"key":"va\"lue"}` {
		t.Errorf("encoded = %q", got)
	}
}

func TestEscapeJSON(t *testing.T) {
	tests := []struct{ in, expected string }{
		{`plain`, `plain`},
		{`with "quotes"`, `with \"quotes\"`},
		{"tab\there", `tab\there`},
		{"line\nbreak", `line\nbreak`},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		if got := escapeJSON(tt.in); got != tt.expected {
			t.Errorf("escapeJSON(%q) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}
