// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package audit runs registered integrity checks over the store and keeps a
// bounded, persisted log of detected issues with an active/resolved lifecycle.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"polyglot/internal/model"
	"polyglot/internal/store"
)

// Issue is one finding produced by a check run.
type Issue struct {
	ID         string            // stable within the check, e.g. "content-42"
	Severity   string            // model.IssueSeverity*
	Message    string
	CanFix     bool
	FixContext map[string]string // opaque data the check needs to apply its fix
}

// Check is a read-only integrity check. Run must never mutate the store;
// mutation is reserved for checks that also implement Fixer.
type Check interface {
	ID() string
	Category() string
	Run(ctx context.Context) ([]Issue, error)
}

// Fixer is implemented by checks whose issues carry a bounded auto-fix.
type Fixer interface {
	// FixPreview describes what ApplyFix would do, or false when the issue
	// cannot be fixed automatically.
	FixPreview(ctx context.Context, entry store.AuditIssue) (string, bool)
	// ApplyFix heals a single issue.
	ApplyFix(ctx context.Context, entry store.AuditIssue) error
}

// Registry holds the registered checks and the persisted issue log.
type Registry struct {
	queries *store.Queries
	checks  []Check
	byID    map[string]Check
	logCap  int64
}

// NewRegistry creates a Registry with the default log cap.
func NewRegistry(queries *store.Queries) *Registry {
	return &Registry{
		queries: queries,
		byID:    make(map[string]Check),
		logCap:  model.DefaultIssueLogCap,
	}
}

// SetLogCap overrides the maximum issue log size.
func (r *Registry) SetLogCap(n int64) {
	if n > 0 {
		r.logCap = n
	}
}

// Register adds a check. Registering two checks with the same id panics;
// that is always a programming error.
func (r *Registry) Register(c Check) {
	if _, dup := r.byID[c.ID()]; dup {
		panic(fmt.Sprintf("audit: duplicate check id %q", c.ID()))
	}
	r.checks = append(r.checks, c)
	r.byID[c.ID()] = c
}

// Summary reports the outcome of one full scan cycle.
type Summary struct {
	ChecksRun int   `json:"checks_run"`
	Detected  int   `json:"detected"`
	Resolved  int64 `json:"resolved"`
	Failed    int   `json:"failed"`
}

// RunAll executes every registered check and reconciles the issue log:
// re-detected entries stay active with a refreshed last_seen, new findings
// are inserted, actives that went undetected flip to resolved, and the log
// is trimmed to its cap (resolved entries evicted before active, oldest
// first_seen first).
func (r *Registry) RunAll(ctx context.Context) (Summary, error) {
	var summary Summary
	scanStart := time.Now()

	for _, check := range r.checks {
		issues, err := check.Run(ctx)
		if err != nil {
			// A broken check must not block the other checks
			slog.Error("audit check failed", "category", "audit", "check", check.ID(), "error", err)
			summary.Failed++
			continue
		}
		summary.ChecksRun++

		for _, issue := range issues {
			fixContext := "{}"
			if len(issue.FixContext) > 0 {
				b, err := json.Marshal(issue.FixContext)
				if err == nil {
					fixContext = string(b)
				}
			}
			if err := r.queries.UpsertAuditIssue(ctx, store.UpsertAuditIssueParams{
				UID:        IssueUID(check.ID(), issue.ID),
				CheckID:    check.ID(),
				IssueID:    issue.ID,
				Severity:   issue.Severity,
				Message:    issue.Message,
				CanFix:     issue.CanFix,
				FixContext: fixContext,
				Seen:       scanStart,
			}); err != nil {
				return summary, fmt.Errorf("recording issue %s/%s: %w", check.ID(), issue.ID, err)
			}
			summary.Detected++
		}
	}

	resolved, err := r.queries.ResolveAuditIssuesNotSeen(ctx, scanStart)
	if err != nil {
		return summary, fmt.Errorf("resolving stale issues: %w", err)
	}
	summary.Resolved = resolved

	if err := r.enforceCap(ctx); err != nil {
		return summary, err
	}

	return summary, nil
}

// enforceCap trims the issue log down to the configured cap.
func (r *Registry) enforceCap(ctx context.Context) error {
	total, err := r.queries.CountAuditIssues(ctx)
	if err != nil {
		return fmt.Errorf("counting issues: %w", err)
	}
	if total <= r.logCap {
		return nil
	}
	if err := r.queries.EvictAuditIssues(ctx, total-r.logCap); err != nil {
		return fmt.Errorf("evicting issues: %w", err)
	}
	return nil
}

// FixPreview describes the fix for a logged issue, or false when the issue
// is not auto-fixable.
func (r *Registry) FixPreview(ctx context.Context, uid string) (string, bool, error) {
	entry, err := r.queries.GetAuditIssue(ctx, uid)
	if err != nil {
		return "", false, fmt.Errorf("loading issue %s: %w", uid, err)
	}
	fixer, ok := r.byID[entry.CheckID].(Fixer)
	if !ok || !entry.CanFix {
		return "", false, nil
	}
	desc, can := fixer.FixPreview(ctx, entry)
	return desc, can, nil
}

// ApplyFix applies the owning check's fix for a logged issue. Destructive
// conditions (duplicate languages) never expose a fix; they require a human.
func (r *Registry) ApplyFix(ctx context.Context, uid string) error {
	entry, err := r.queries.GetAuditIssue(ctx, uid)
	if err != nil {
		return fmt.Errorf("loading issue %s: %w", uid, err)
	}
	if !entry.CanFix {
		return fmt.Errorf("issue %s is not auto-fixable", uid)
	}
	fixer, ok := r.byID[entry.CheckID].(Fixer)
	if !ok {
		return fmt.Errorf("check %s offers no fix", entry.CheckID)
	}
	if err := fixer.ApplyFix(ctx, entry); err != nil {
		return fmt.Errorf("applying fix for %s: %w", uid, err)
	}
	slog.Info("applied audit fix", "category", "audit", "uid", uid, "check", entry.CheckID)
	return nil
}

// IssueUID computes the stable uid of an issue within the log.
func IssueUID(checkID, issueID string) string {
	sum := sha256.Sum256([]byte(checkID + "\x00" + issueID))
	return hex.EncodeToString(sum[:16])
}
