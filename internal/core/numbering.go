package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// nextNumber draws the next human-readable number for kind, e.g. INV-00042.
// It must run inside the caller's transaction so a rollback also discards the number.
func nextNumber(ctx context.Context, tx Store, tenantID uuid.UUID, kind SequenceKind) (string, error) {
	n, err := tx.Sequences().Next(ctx, tenantID, kind)
	if err != nil {
		return "", fmt.Errorf("failed to draw %s number: %w", kind, err)
	}
	return FormatNumber(kind, n), nil
}

// FormatNumber renders a sequence value with its kind prefix.
func FormatNumber(kind SequenceKind, n int64) string {
	return fmt.Sprintf("%s-%05d", kind, n)
}
