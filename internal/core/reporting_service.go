package core

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ReportingService reads the ledger. Only X-Reports are written; invoices and
// payments are never modified here.
type ReportingService interface {
	MarginReport(ctx context.Context, tenantID uuid.UUID, r DateRange) (*MarginReport, error)
	RevenueBreakdown(ctx context.Context, tenantID uuid.UUID, r DateRange) (*RevenueBreakdown, error)

	// GenerateXReport snapshots the day's completed payments. date nil means today.
	GenerateXReport(ctx context.Context, tenantID uuid.UUID, date *time.Time) (*CashReconciliation, error)
	CloseXReport(ctx context.Context, tenantID, id uuid.UUID) (*CashReconciliation, error)
	GetXReport(ctx context.Context, tenantID, id uuid.UUID) (*CashReconciliation, error)
	ListXReports(ctx context.Context, tenantID uuid.UUID, r DateRange, page PageRequest) (Page[CashReconciliation], error)
}

type reportingService struct {
	store Store
	clock Clock
	user  CurrentUser
	log   zerolog.Logger
}

func NewReportingService(store Store, clock Clock, user CurrentUser, log zerolog.Logger) ReportingService {
	return &reportingService{store: store, clock: clock, user: user, log: log}
}

// MarginReport sums paid amounts of PAID and PARTIALLY_PAID invoices issued in r
// against PAID supplier payments dated in r.
func (s *reportingService) MarginReport(ctx context.Context, tenantID uuid.UUID, r DateRange) (*MarginReport, error) {
	invoices, err := s.store.Invoices().ListByStatus(ctx, tenantID, InvoicePaid, InvoicePartiallyPaid)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices for margin report: %w", err)
	}
	costs, err := s.store.SupplierPayments().ListByStatus(ctx, tenantID, SupplierPaymentPaid)
	if err != nil {
		return nil, fmt.Errorf("failed to load supplier payments for margin report: %w", err)
	}

	invoices = lo.Filter(invoices, func(inv Invoice, _ int) bool {
		return r.Contains(invoiceReportDate(inv))
	})
	costs = lo.Filter(costs, func(p SupplierPayment, _ int) bool {
		return r.Contains(p.PaymentDate)
	})

	revenueByContract := lo.GroupBy(invoices, func(inv Invoice) uuid.UUID { return derefID(inv.ContractID) })
	costByContract := lo.GroupBy(costs, func(p SupplierPayment) uuid.UUID { return derefID(p.ContractID) })

	report := &MarginReport{
		TenantID:   tenantID,
		From:       r.From,
		To:         r.To,
		Revenue:    sumPaid(invoices),
		Cost:       sumSupplier(costs),
		ByContract: []ContractMargin{},
	}
	report.Margin = report.Revenue.Sub(report.Cost)
	report.MarginPercent = marginPercent(report.Margin, report.Revenue)

	for _, id := range sortedContractIDs(revenueByContract, costByContract) {
		row := ContractMargin{
			Revenue: sumPaid(revenueByContract[id]),
			Cost:    sumSupplier(costByContract[id]),
		}
		if id != uuid.Nil {
			row.ContractID = lo.ToPtr(id)
		}
		row.Margin = row.Revenue.Sub(row.Cost)
		row.MarginPercent = marginPercent(row.Margin, row.Revenue)
		report.ByContract = append(report.ByContract, row)
	}
	return report, nil
}

// invoiceReportDate is the issue date, or the creation day for invoices never issued.
func invoiceReportDate(inv Invoice) time.Time {
	if inv.IssueDate != nil {
		return *inv.IssueDate
	}
	return inv.CreatedAt
}

func derefID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

func sumPaid(invoices []Invoice) decimal.Decimal {
	return lo.Reduce(invoices, func(acc decimal.Decimal, inv Invoice, _ int) decimal.Decimal {
		return acc.Add(inv.PaidAmount)
	}, decimal.Zero)
}

func sumSupplier(payments []SupplierPayment) decimal.Decimal {
	return lo.Reduce(payments, func(acc decimal.Decimal, p SupplierPayment, _ int) decimal.Decimal {
		return acc.Add(p.Amount)
	}, decimal.Zero)
}

func sumPayments(payments []Payment) decimal.Decimal {
	return lo.Reduce(payments, func(acc decimal.Decimal, p Payment, _ int) decimal.Decimal {
		return acc.Add(p.Amount)
	}, decimal.Zero)
}

// sortedContractIDs returns every contract seen on either side. Unassigned
// (uuid.Nil) sorts last.
func sortedContractIDs(revenue map[uuid.UUID][]Invoice, cost map[uuid.UUID][]SupplierPayment) []uuid.UUID {
	ids := lo.Uniq(append(lo.Keys(revenue), lo.Keys(cost)...))
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		switch {
		case a == b:
			return 0
		case a == uuid.Nil:
			return 1
		case b == uuid.Nil:
			return -1
		}
		return strings.Compare(a.String(), b.String())
	})
	return ids
}

func (s *reportingService) RevenueBreakdown(ctx context.Context, tenantID uuid.UUID, r DateRange) (*RevenueBreakdown, error) {
	payments, err := s.store.Payments().ListCompleted(ctx, tenantID, r)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments for revenue breakdown: %w", err)
	}

	byMonth := lo.GroupBy(payments, func(p Payment) string { return p.PaymentDate.UTC().Format("2006-01") })
	months := lo.Keys(byMonth)
	slices.Sort(months)

	out := &RevenueBreakdown{
		TenantID: tenantID,
		From:     r.From,
		To:       r.To,
		Total:    sumPayments(payments),
		ByMonth:  make([]MonthRevenue, 0, len(months)),
		ByMethod: make(map[PaymentMethod]decimal.Decimal),
	}
	for _, m := range months {
		out.ByMonth = append(out.ByMonth, MonthRevenue{
			Month:            m,
			Total:            sumPayments(byMonth[m]),
			TransactionCount: len(byMonth[m]),
		})
	}
	for method, ps := range lo.GroupBy(payments, func(p Payment) PaymentMethod { return p.Method }) {
		out.ByMethod[method] = sumPayments(ps)
	}
	return out, nil
}

func (s *reportingService) GenerateXReport(ctx context.Context, tenantID uuid.UUID, date *time.Time) (*CashReconciliation, error) {
	day := s.clock.Today()
	if date != nil {
		day = DateOf(*date)
	}

	var report *CashReconciliation
	err := s.store.InTx(ctx, func(tx Store) error {
		exists, err := tx.Reconciliations().ExistsForDate(ctx, tenantID, day)
		if err != nil {
			return fmt.Errorf("failed to check for existing X-Report: %w", err)
		}
		if exists {
			return Conflict("an X-Report already exists for %s", day.Format(time.DateOnly))
		}

		payments, err := tx.Payments().ListCompleted(ctx, tenantID, DateRange{From: &day, To: &day})
		if err != nil {
			return fmt.Errorf("failed to load payments for %s: %w", day.Format(time.DateOnly), err)
		}

		number, err := nextNumber(ctx, tx, tenantID, SequenceXReport)
		if err != nil {
			return err
		}
		report = &CashReconciliation{
			ID:           uuid.New(),
			TenantID:     tenantID,
			ReportNumber: number,
			ReportDate:   day,
			GeneratedBy:  s.user.UserID(ctx),
			CreatedAt:    s.clock.Now(),
		}
		for _, p := range payments {
			report.addPayment(p)
		}
		return tx.Reconciliations().Insert(ctx, report)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("report_number", report.ReportNumber).
		Str("date", day.Format(time.DateOnly)).
		Int("transactions", report.TransactionCount).
		Str("grand_total", report.GrandTotal.StringFixed(2)).
		Msg("X-Report generated")
	return report, nil
}

func (s *reportingService) CloseXReport(ctx context.Context, tenantID, id uuid.UUID) (*CashReconciliation, error) {
	var report *CashReconciliation
	err := s.store.InTx(ctx, func(tx Store) error {
		var err error
		report, err = tx.Reconciliations().GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if report.IsClosed {
			return Validation("X-Report %s is already closed", report.ReportNumber)
		}
		now := s.clock.Now()
		userID := s.user.UserID(ctx)
		report.IsClosed = true
		report.ClosedAt = &now
		report.ClosedBy = &userID
		return tx.Reconciliations().Update(ctx, report)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("report_number", report.ReportNumber).Msg("X-Report closed")
	return report, nil
}

func (s *reportingService) GetXReport(ctx context.Context, tenantID, id uuid.UUID) (*CashReconciliation, error) {
	return s.store.Reconciliations().Get(ctx, tenantID, id)
}

func (s *reportingService) ListXReports(ctx context.Context, tenantID uuid.UUID, r DateRange, page PageRequest) (Page[CashReconciliation], error) {
	page = page.Normalize()
	items, total, err := s.store.Reconciliations().List(ctx, tenantID, r, page)
	if err != nil {
		return Page[CashReconciliation]{}, fmt.Errorf("failed to list X-Reports: %w", err)
	}
	return Page[CashReconciliation]{Items: items, Total: total, Page: page.Page, PageSize: page.PageSize}, nil
}
