package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"agency-ledger/internal/core"
)

type seqRepo struct{ q querier }

// Next upserts the counter row. The row lock taken by the upsert serialises
// concurrent callers until their transaction ends, so a rolled back caller
// never leaves a gap.
func (r seqRepo) Next(ctx context.Context, tenantID uuid.UUID, kind core.SequenceKind) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO ledger_sequences (tenant_id, kind, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (tenant_id, kind)
		DO UPDATE SET last_number = ledger_sequences.last_number + 1, updated_at = now()
		RETURNING last_number`, tenantID, kind).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s number: %w", kind, err)
	}
	return n, nil
}

type eventRepo struct{ q querier }

func (r eventRepo) Append(ctx context.Context, e core.Event) error {
	_, err := r.q.Exec(ctx,
		"INSERT INTO ledger_events (id, tenant_id, event_type, aggregate_id, payload, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		e.ID, e.TenantID, e.Type, e.AggregateID, e.Payload, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append %s event: %w", e.Type, err)
	}
	return nil
}
