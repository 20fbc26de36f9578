package store

import (
	"context"
	"time"
)

// AuditIssue is a persisted issue log entry.
type AuditIssue struct {
	UID        string
	CheckID    string
	IssueID    string
	Severity   string
	Message    string
	CanFix     bool
	FixContext string
	Status     string
	FirstSeen  time.Time
	LastSeen   time.Time
}

const auditIssueColumns = `uid, check_id, issue_id, severity, message, can_fix, fix_context, status, first_seen, last_seen`

func scanAuditIssue(row interface{ Scan(...any) error }) (AuditIssue, error) {
	var a AuditIssue
	err := row.Scan(&a.UID, &a.CheckID, &a.IssueID, &a.Severity, &a.Message,
		&a.CanFix, &a.FixContext, &a.Status, &a.FirstSeen, &a.LastSeen)
	return a, err
}

// GetAuditIssue fetches a single issue log entry by uid.
func (q *Queries) GetAuditIssue(ctx context.Context, uid string) (AuditIssue, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+auditIssueColumns+` FROM audit_issues WHERE uid = ?`, uid)
	return scanAuditIssue(row)
}

// UpsertAuditIssueParams carries the refreshable fields of an issue.
type UpsertAuditIssueParams struct {
	UID        string
	CheckID    string
	IssueID    string
	Severity   string
	Message    string
	CanFix     bool
	FixContext string
	Seen       time.Time
}

// UpsertAuditIssue inserts a new active entry or refreshes the mutable fields
// of an existing one, stamping status=active and last_seen.
func (q *Queries) UpsertAuditIssue(ctx context.Context, arg UpsertAuditIssueParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO audit_issues (uid, check_id, issue_id, severity, message, can_fix, fix_context, status, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'active', ?, ?)
		ON CONFLICT (uid) DO UPDATE SET
			severity = excluded.severity,
			message = excluded.message,
			can_fix = excluded.can_fix,
			fix_context = excluded.fix_context,
			status = 'active',
			last_seen = excluded.last_seen`,
		arg.UID, arg.CheckID, arg.IssueID, arg.Severity, arg.Message, arg.CanFix,
		arg.FixContext, arg.Seen, arg.Seen)
	return err
}

// ResolveAuditIssuesNotSeen flips every active entry whose last_seen predates
// the given scan time to resolved.
func (q *Queries) ResolveAuditIssuesNotSeen(ctx context.Context, scanStart time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE audit_issues SET status = 'resolved' WHERE status = 'active' AND last_seen < ?`,
		scanStart)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListAuditIssuesParams pages through the issue log.
type ListAuditIssuesParams struct {
	Limit  int64
	Offset int64
}

// ListAuditIssues returns issue log entries, active first, newest first.
func (q *Queries) ListAuditIssues(ctx context.Context, arg ListAuditIssuesParams) ([]AuditIssue, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+auditIssueColumns+` FROM audit_issues
		ORDER BY CASE status WHEN 'active' THEN 0 ELSE 1 END, last_seen DESC
		LIMIT ? OFFSET ?`, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuditIssue
	for rows.Next() {
		a, err := scanAuditIssue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountAuditIssues counts all issue log entries.
func (q *Queries) CountAuditIssues(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_issues`).Scan(&n)
	return n, err
}

// EvictAuditIssues deletes the n lowest-priority entries: resolved before
// active, oldest first_seen first.
func (q *Queries) EvictAuditIssues(ctx context.Context, n int64) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM audit_issues WHERE uid IN (
			SELECT uid FROM audit_issues
			ORDER BY CASE status WHEN 'resolved' THEN 0 ELSE 1 END, first_seen
			LIMIT ?)`, n)
	return err
}

// DeleteAuditIssue removes a single entry.
func (q *Queries) DeleteAuditIssue(ctx context.Context, uid string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM audit_issues WHERE uid = ?`, uid)
	return err
}
