// Package memstore is an in-memory core.Store. Transactions hold one store-wide
// lock and restore a snapshot when fn fails, which gives the same
// all-or-nothing behaviour as the Postgres store.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"agency-ledger/internal/core"
)

type seqKey struct {
	tenantID uuid.UUID
	kind     core.SequenceKind
}

type data struct {
	invoices        map[uuid.UUID]core.Invoice
	payments        map[uuid.UUID]core.Payment
	supplier        map[uuid.UUID]core.SupplierPayment
	programs        map[uuid.UUID]core.DiscountProgram
	reconciliations map[uuid.UUID]core.CashReconciliation
	sequences       map[seqKey]int64
	events          []core.Event
}

func (d *data) clone() *data {
	return &data{
		invoices:        maps.Clone(d.invoices),
		payments:        maps.Clone(d.payments),
		supplier:        maps.Clone(d.supplier),
		programs:        maps.Clone(d.programs),
		reconciliations: maps.Clone(d.reconciliations),
		sequences:       maps.Clone(d.sequences),
		events:          slices.Clone(d.events),
	}
}

// Store is safe for concurrent use.
type Store struct {
	mu sync.Mutex
	d  *data
}

func New() *Store {
	return &Store{d: &data{
		invoices:        make(map[uuid.UUID]core.Invoice),
		payments:        make(map[uuid.UUID]core.Payment),
		supplier:        make(map[uuid.UUID]core.SupplierPayment),
		programs:        make(map[uuid.UUID]core.DiscountProgram),
		reconciliations: make(map[uuid.UUID]core.CashReconciliation),
		sequences:       make(map[seqKey]int64),
	}}
}

// view is the handle repositories work through. Outside a transaction every
// call takes the store lock; inside one the lock is already held.
type view struct {
	s    *Store
	inTx bool
}

func (v view) lock() func() {
	if v.inTx {
		return func() {}
	}
	v.s.mu.Lock()
	return v.s.mu.Unlock
}

func (s *Store) root() view { return view{s: s} }

func (s *Store) Invoices() core.InvoiceRepository                   { return invoiceRepo{s.root()} }
func (s *Store) Payments() core.PaymentRepository                   { return paymentRepo{s.root()} }
func (s *Store) SupplierPayments() core.SupplierPaymentRepository   { return supplierRepo{s.root()} }
func (s *Store) DiscountPrograms() core.DiscountProgramRepository   { return programRepo{s.root()} }
func (s *Store) Reconciliations() core.CashReconciliationRepository { return reconRepo{s.root()} }
func (s *Store) Sequences() core.SequenceRepository                 { return seqRepo{s.root()} }
func (s *Store) Events() core.EventRepository                       { return eventRepo{s.root()} }

func (s *Store) InTx(ctx context.Context, fn func(tx core.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.d.clone()
	if err := fn(txStore{view{s: s, inTx: true}}); err != nil {
		s.d = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		s.d = snapshot
		return err
	}
	return nil
}

// PublishedEvents returns a copy of the outbox.
func (s *Store) PublishedEvents() []core.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.d.events)
}

type txStore struct{ v view }

func (t txStore) Invoices() core.InvoiceRepository                   { return invoiceRepo{t.v} }
func (t txStore) Payments() core.PaymentRepository                   { return paymentRepo{t.v} }
func (t txStore) SupplierPayments() core.SupplierPaymentRepository   { return supplierRepo{t.v} }
func (t txStore) DiscountPrograms() core.DiscountProgramRepository   { return programRepo{t.v} }
func (t txStore) Reconciliations() core.CashReconciliationRepository { return reconRepo{t.v} }
func (t txStore) Sequences() core.SequenceRepository                 { return seqRepo{t.v} }
func (t txStore) Events() core.EventRepository                       { return eventRepo{t.v} }

func (t txStore) InTx(ctx context.Context, fn func(tx core.Store) error) error {
	return fn(t)
}

// paginate sorts nothing; callers order items first.
func paginate[T any](items []T, p core.PageRequest) ([]T, int) {
	p = p.Normalize()
	total := len(items)
	start := min(p.Offset(), total)
	end := min(start+p.PageSize, total)
	return slices.Clone(items[start:end]), total
}

func newestFirst[T any](items []T, createdAt func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).After(createdAt(items[j]))
	})
}

// ── sequences & events ───────────────────────────────────────────────────────

type seqRepo struct{ v view }

func (r seqRepo) Next(_ context.Context, tenantID uuid.UUID, kind core.SequenceKind) (int64, error) {
	defer r.v.lock()()
	k := seqKey{tenantID, kind}
	r.v.s.d.sequences[k]++
	return r.v.s.d.sequences[k], nil
}

type eventRepo struct{ v view }

func (r eventRepo) Append(_ context.Context, e core.Event) error {
	defer r.v.lock()()
	r.v.s.d.events = append(r.v.s.d.events, e)
	return nil
}
