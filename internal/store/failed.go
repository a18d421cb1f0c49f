package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// FailedLookup is one negative-cache row.
type FailedLookup struct {
	Key            string
	FileLevel      bool
	Reason         string
	ServerResponse string
	Attempts       int
	LastAttempt    time.Time
}

// HasLookupFailedRecently reports whether a failure for key was recorded
// within the configured window.
func (q *queries) HasLookupFailedRecently(ctx context.Context, key string, fileLevel bool) (bool, error) {
	var lastAttempt string
	err := q.queryRow(ctx,
		`SELECT last_attempt FROM failed_lookups WHERE lookup_key = ? AND file_level = ?`,
		[]any{key, boolToInt(fileLevel)}, &lastAttempt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check failed lookup: %w", err)
	}
	at := parseTimeString(lastAttempt)
	if at.IsZero() {
		return false, nil
	}
	return q.now().Sub(at) < q.window, nil
}

// RecordFailedLookup stores or refreshes a failure for key.
func (q *queries) RecordFailedLookup(ctx context.Context, key, reason string, fileLevel bool) error {
	return q.RecordFailedLookupResponse(ctx, key, reason, "", fileLevel)
}

// RecordFailedLookupResponse is RecordFailedLookup with the raw server
// response kept for diagnostics.
func (q *queries) RecordFailedLookupResponse(ctx context.Context, key, reason, serverResponse string, fileLevel bool) error {
	if _, err := q.exec(ctx, `
		INSERT INTO failed_lookups (lookup_key, file_level, reason, server_response, attempts, last_attempt)
		VALUES (?, ?, ?, ?, 1, ?)
		ON CONFLICT(lookup_key, file_level) DO UPDATE SET
			reason = excluded.reason,
			server_response = excluded.server_response,
			attempts = failed_lookups.attempts + 1,
			last_attempt = excluded.last_attempt`,
		key, boolToInt(fileLevel), reason, nullableString(serverResponse), q.timestamp()); err != nil {
		return fmt.Errorf("record failed lookup: %w", err)
	}
	return nil
}

// RemoveFailedLookup clears the failure for key, if any.
func (q *queries) RemoveFailedLookup(ctx context.Context, key string, fileLevel bool) error {
	if _, err := q.exec(ctx,
		`DELETE FROM failed_lookups WHERE lookup_key = ? AND file_level = ?`,
		key, boolToInt(fileLevel)); err != nil {
		return fmt.Errorf("remove failed lookup: %w", err)
	}
	return nil
}

// PruneFailedLookups deletes failures older than the window and returns how
// many were removed.
func (q *queries) PruneFailedLookups(ctx context.Context) (int64, error) {
	cutoff := formatTime(q.now().Add(-q.window))
	res, err := q.exec(ctx, `DELETE FROM failed_lookups WHERE last_attempt < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune failed lookups: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ListFailedLookups returns the most recent failures first. A limit of zero
// returns all rows.
func (q *queries) ListFailedLookups(ctx context.Context, limit int) ([]FailedLookup, error) {
	query := `SELECT lookup_key, file_level, reason, server_response, attempts, last_attempt
		FROM failed_lookups ORDER BY last_attempt DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := q.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list failed lookups: %w", err)
	}
	defer rows.Close()

	var out []FailedLookup
	for rows.Next() {
		var (
			entry     FailedLookup
			fileLevel int
			response  sql.NullString
			last      string
		)
		if err := rows.Scan(&entry.Key, &fileLevel, &entry.Reason, &response, &entry.Attempts, &last); err != nil {
			return nil, fmt.Errorf("scan failed lookup: %w", err)
		}
		entry.FileLevel = fileLevel != 0
		entry.ServerResponse = response.String
		entry.LastAttempt = parseTimeString(last)
		out = append(out, entry)
	}
	return out, rows.Err()
}
