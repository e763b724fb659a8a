package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"agency-ledger/internal/core"
)

var reconciliations = table{name: "cash_reconciliations", columns: []string{
	"id", "tenant_id", "report_number", "report_date", "cash_total", "card_total", "bank_transfer_total",
	"cheque_total", "edirham_total", "online_total", "grand_total", "transaction_count",
	"is_closed", "closed_at", "closed_by", "generated_by", "created_at",
}}

type reconRepo struct{ q querier }

func reconArgs(r *core.CashReconciliation) []any {
	return []any{
		r.ID, r.TenantID, r.ReportNumber, r.ReportDate, r.CashTotal, r.CardTotal, r.BankTransferTotal,
		r.ChequeTotal, r.EDirhamTotal, r.OnlineTotal, r.GrandTotal, r.TransactionCount,
		r.IsClosed, r.ClosedAt, r.ClosedBy, r.GeneratedBy, r.CreatedAt,
	}
}

func scanRecon(row pgx.Row) (*core.CashReconciliation, error) {
	var r core.CashReconciliation
	err := row.Scan(
		&r.ID, &r.TenantID, &r.ReportNumber, &r.ReportDate, &r.CashTotal, &r.CardTotal, &r.BankTransferTotal,
		&r.ChequeTotal, &r.EDirhamTotal, &r.OnlineTotal, &r.GrandTotal, &r.TransactionCount,
		&r.IsClosed, &r.ClosedAt, &r.ClosedBy, &r.GeneratedBy, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Insert relies on the (tenant_id, report_date) unique index to reject a
// second report racing past ExistsForDate.
func (r reconRepo) Insert(ctx context.Context, rec *core.CashReconciliation) error {
	_, err := r.q.Exec(ctx, reconciliations.insertSQL(), reconArgs(rec)...)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return core.Conflict("an X-Report already exists for %s", rec.ReportDate.Format(time.DateOnly))
	}
	if err != nil {
		return fmt.Errorf("failed to insert X-Report: %w", err)
	}
	return nil
}

func (r reconRepo) Update(ctx context.Context, rec *core.CashReconciliation) error {
	return exec(ctx, r.q, "X-Report "+rec.ReportNumber, reconciliations.updateSQL(), reconArgs(rec)...)
}

func (r reconRepo) get(ctx context.Context, tenantID, id uuid.UUID, lock string) (*core.CashReconciliation, error) {
	rec, err := scanRecon(r.q.QueryRow(ctx, reconciliations.selectSQL()+" WHERE tenant_id = $1 AND id = $2"+lock, tenantID, id))
	if err != nil {
		return nil, readErr(err, "X-Report", id)
	}
	return rec, nil
}

func (r reconRepo) Get(ctx context.Context, tenantID, id uuid.UUID) (*core.CashReconciliation, error) {
	return r.get(ctx, tenantID, id, "")
}

func (r reconRepo) GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*core.CashReconciliation, error) {
	return r.get(ctx, tenantID, id, " FOR UPDATE")
}

func (r reconRepo) ExistsForDate(ctx context.Context, tenantID uuid.UUID, date time.Time) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM cash_reconciliations WHERE tenant_id = $1 AND report_date = $2)",
		tenantID, core.DateOf(date)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check X-Report date: %w", err)
	}
	return exists, nil
}

func (r reconRepo) List(ctx context.Context, tenantID uuid.UUID, dr core.DateRange, page core.PageRequest) ([]core.CashReconciliation, int, error) {
	w := &where{}
	w.add("tenant_id = ?", tenantID)
	if dr.From != nil {
		w.add("report_date >= ?", core.DateOf(*dr.From))
	}
	if dr.To != nil {
		w.add("report_date <= ?", core.DateOf(*dr.To))
	}

	total, err := count(ctx, r.q, reconciliations.name, w)
	if err != nil {
		return nil, 0, err
	}
	limit, args := w.page(page)
	rows, err := r.q.Query(ctx, reconciliations.selectSQL()+w.sql()+" ORDER BY report_date DESC"+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list X-Reports: %w", err)
	}
	items, err := collect(rows, scanRecon)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan X-Reports: %w", err)
	}
	return items, total, nil
}
