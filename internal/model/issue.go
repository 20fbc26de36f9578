// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Issue severities, in increasing order of urgency.
const (
	IssueSeverityInfo     = "info"
	IssueSeverityWarning  = "warning"
	IssueSeverityCritical = "critical"
)

// Issue log entry statuses.
const (
	IssueStatusActive   = "active"
	IssueStatusResolved = "resolved"
)

// DefaultIssueLogCap bounds the persisted audit log. Once exceeded, resolved
// entries are evicted before active ones, oldest first.
const DefaultIssueLogCap = 500
