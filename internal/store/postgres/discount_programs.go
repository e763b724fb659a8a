package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"agency-ledger/internal/core"
)

var discountPrograms = table{name: "discount_programs", columns: withAudit(
	"id", "tenant_id", "name", "percentage", "max_discount_amount", "valid_from", "valid_to", "is_active", "card_number",
)}

type programRepo struct{ q querier }

func programArgs(p *core.DiscountProgram) []any {
	args := []any{p.ID, p.TenantID, p.Name, p.Percentage, p.MaxDiscountAmount, p.ValidFrom, p.ValidTo, p.IsActive, p.CardNumber}
	return append(args, auditArgs(p.Audit)...)
}

func scanProgram(row pgx.Row) (*core.DiscountProgram, error) {
	var p core.DiscountProgram
	dest := []any{&p.ID, &p.TenantID, &p.Name, &p.Percentage, &p.MaxDiscountAmount, &p.ValidFrom, &p.ValidTo, &p.IsActive, &p.CardNumber}
	if err := row.Scan(append(dest, auditDest(&p.Audit)...)...); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r programRepo) Insert(ctx context.Context, p *core.DiscountProgram) error {
	if _, err := r.q.Exec(ctx, discountPrograms.insertSQL(), programArgs(p)...); err != nil {
		return writeErr(err, "discount program "+p.Name)
	}
	return nil
}

func (r programRepo) Update(ctx context.Context, p *core.DiscountProgram) error {
	return exec(ctx, r.q, "discount program "+p.Name, discountPrograms.updateSQL(), programArgs(p)...)
}

func (r programRepo) Get(ctx context.Context, tenantID, id uuid.UUID) (*core.DiscountProgram, error) {
	p, err := scanProgram(r.q.QueryRow(ctx, discountPrograms.getSQL(false), tenantID, id))
	if err != nil {
		return nil, readErr(err, "discount program", id)
	}
	return p, nil
}

func (r programRepo) List(ctx context.Context, tenantID uuid.UUID, activeOnly bool, page core.PageRequest) ([]core.DiscountProgram, int, error) {
	w := &where{}
	w.add("tenant_id = ?", tenantID)
	w.raw("NOT is_deleted")
	if activeOnly {
		w.raw("is_active")
	}

	total, err := count(ctx, r.q, discountPrograms.name, w)
	if err != nil {
		return nil, 0, err
	}
	limit, args := w.page(page)
	rows, err := r.q.Query(ctx, discountPrograms.selectSQL()+w.sql()+" ORDER BY name"+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list discount programs: %w", err)
	}
	items, err := collect(rows, scanProgram)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan discount programs: %w", err)
	}
	return items, total, nil
}
