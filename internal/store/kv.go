package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetMetadataValue returns the stored value for name and whether it exists.
func (q *queries) GetMetadataValue(ctx context.Context, name string) (string, bool, error) {
	var value sql.NullString
	err := q.queryRow(ctx, `SELECT value FROM metadata WHERE name = ?`, []any{name}, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get metadata value %q: %w", name, err)
	}
	return value.String, true, nil
}

// SetOrUpdateMetadataValue stores value under name.
func (q *queries) SetOrUpdateMetadataValue(ctx context.Context, name, value string) error {
	if _, err := q.exec(ctx, `
		INSERT INTO metadata (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		name, value); err != nil {
		return fmt.Errorf("set metadata value %q: %w", name, err)
	}
	return nil
}
