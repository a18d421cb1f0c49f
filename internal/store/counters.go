package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// BumpUpdateCounter increments the counter for path and returns its new value.
// Browsing layers compare counters to detect changed metadata.
func (q *queries) BumpUpdateCounter(ctx context.Context, path string) (int64, error) {
	var counter int64
	err := q.queryRow(ctx, `
		INSERT INTO update_counters (path, counter, updated_at) VALUES (?, 1, ?)
		ON CONFLICT(path) DO UPDATE SET
			counter = update_counters.counter + 1,
			updated_at = excluded.updated_at
		RETURNING counter`,
		[]any{path, q.timestamp()}, &counter)
	if err != nil {
		return 0, fmt.Errorf("bump update counter: %w", err)
	}
	return counter, nil
}

// UpdateCounter returns the current counter for path; zero when never bumped.
func (q *queries) UpdateCounter(ctx context.Context, path string) (int64, error) {
	var counter int64
	err := q.queryRow(ctx, `SELECT counter FROM update_counters WHERE path = ?`, []any{path}, &counter)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get update counter: %w", err)
	}
	return counter, nil
}
