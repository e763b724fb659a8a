// Package postgres implements core.Store on a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"agency-ledger/internal/core"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type Store struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: pool}
}

func (s *Store) Invoices() core.InvoiceRepository                   { return invoiceRepo{s.q} }
func (s *Store) Payments() core.PaymentRepository                   { return paymentRepo{s.q} }
func (s *Store) SupplierPayments() core.SupplierPaymentRepository   { return supplierRepo{s.q} }
func (s *Store) DiscountPrograms() core.DiscountProgramRepository   { return programRepo{s.q} }
func (s *Store) Reconciliations() core.CashReconciliationRepository { return reconRepo{s.q} }
func (s *Store) Sequences() core.SequenceRepository                 { return seqRepo{s.q} }
func (s *Store) Events() core.EventRepository                       { return eventRepo{s.q} }

func (s *Store) InTx(ctx context.Context, fn func(tx core.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Store{pool: s.pool, q: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// table renders the SQL shared by every repository. The first two columns of
// every table are id and tenant_id.
type table struct {
	name    string
	columns []string
}

func (t table) selectSQL() string {
	return "SELECT " + strings.Join(t.columns, ", ") + " FROM " + t.name
}

func (t table) insertSQL() string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.name, strings.Join(t.columns, ", "), placeholders(1, len(t.columns)))
}

// updateSQL rewrites every column after id and tenant_id, keyed on both.
func (t table) updateSQL() string {
	return fmt.Sprintf("UPDATE %s SET (%s) = (%s) WHERE id = $1 AND tenant_id = $2",
		t.name, strings.Join(t.columns[2:], ", "), placeholders(3, len(t.columns)))
}

func (t table) getSQL(forUpdate bool) string {
	sql := t.selectSQL() + " WHERE tenant_id = $1 AND id = $2 AND NOT is_deleted"
	if forUpdate {
		sql += " FOR UPDATE"
	}
	return sql
}

func placeholders(from, to int) string {
	ps := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		ps = append(ps, fmt.Sprintf("$%d", i))
	}
	return strings.Join(ps, ", ")
}

// where accumulates AND-ed conditions. Each "?" in a condition becomes the
// next positional parameter.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1))
}

func (w *where) raw(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *where) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page appends LIMIT/OFFSET parameters after the filter arguments.
func (w *where) page(p core.PageRequest) (string, []any) {
	n := len(w.args)
	args := append(append([]any{}, w.args...), p.PageSize, p.Offset())
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2), args
}

func count(ctx context.Context, q querier, tableName string, w *where) (int, error) {
	var total int
	if err := q.QueryRow(ctx, "SELECT count(*) FROM "+tableName+w.sql(), w.args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", tableName, err)
	}
	return total, nil
}

func exec(ctx context.Context, q querier, what, sql string, args ...any) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return writeErr(err, what)
	}
	if tag.RowsAffected() == 0 {
		return core.NotFound("%s not found", what)
	}
	return nil
}

// writeErr maps unique violations to Conflict and wraps everything else.
func writeErr(err error, what string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return core.Conflict("%s already exists (%s)", what, pgErr.ConstraintName)
	}
	return fmt.Errorf("failed to write %s: %w", what, err)
}

// readErr maps pgx.ErrNoRows to NotFound.
func readErr(err error, what string, id any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return core.NotFound("%s %v not found", what, id)
	}
	return fmt.Errorf("failed to load %s %v: %w", what, id, err)
}

var auditColumns = []string{"created_by", "created_at", "updated_by", "updated_at", "is_deleted", "deleted_by", "deleted_at"}

func auditArgs(a core.Audit) []any {
	return []any{a.CreatedBy, a.CreatedAt, a.UpdatedBy, a.UpdatedAt, a.IsDeleted, a.DeletedBy, a.DeletedAt}
}

func auditDest(a *core.Audit) []any {
	return []any{&a.CreatedBy, &a.CreatedAt, &a.UpdatedBy, &a.UpdatedAt, &a.IsDeleted, &a.DeletedBy, &a.DeletedAt}
}

func withAudit(cols ...string) []string {
	return append(cols, auditColumns...)
}

// collect scans every row with scan and closes rows.
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}
