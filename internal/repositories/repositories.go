package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NextSequence increments and returns the next sequence number for the given table.
//
// Must run inside the caller's transaction so the sequence and the row it orders commit together.
// Sequence numbers break ties between playlists created in the same instant and are not exposed in output.
func NextSequence(ctx context.Context, q execQuerier, table string) (int, error) {
	sequenceTable := table + "_sequence"

	_, err := q.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable))
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	err = q.QueryRowContext(ctx, fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	return sequence, nil
}
