package core_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agency-ledger/internal/core"
)

func TestReportingService_XReport(t *testing.T) {
	f := newLedgerFixture(t)
	inv := f.issuedInvoice(t)

	f.expectCharge("tx-1")
	f.pay(t, inv.ID, "100", core.MethodCash)
	f.expectCharge("tx-2")
	f.pay(t, inv.ID, "50.25", core.MethodCard)
	f.expectCharge("tx-3")
	f.pay(t, inv.ID, "7", core.MethodCash)

	// A payment dated yesterday is not part of today's report.
	f.expectCharge("tx-4")
	yesterday := testToday.AddDate(0, 0, -1)
	_, err := f.payments.RecordPayment(f.ctx, f.tenantID, core.RecordPaymentRequest{
		InvoiceID: inv.ID, Amount: d("1"), Method: core.MethodCheque, PaymentDate: &yesterday,
	})
	require.NoError(t, err)

	report, err := f.reports.GenerateXReport(f.ctx, f.tenantID, nil)
	require.NoError(t, err)

	assert.Equal(t, "XR-00001", report.ReportNumber)
	assert.Equal(t, "2026-03-15", report.ReportDate.Format(time.DateOnly))
	assert.Equal(t, "107.00", report.CashTotal.StringFixed(2))
	assert.Equal(t, "50.25", report.CardTotal.StringFixed(2))
	assert.True(t, report.ChequeTotal.IsZero())
	assert.Equal(t, "157.25", report.GrandTotal.StringFixed(2))
	assert.Equal(t, 3, report.TransactionCount)
	assert.False(t, report.IsClosed)
	assert.Equal(t, f.userID, report.GeneratedBy)

	// Scenario E: a second report for the same day conflicts.
	_, err = f.reports.GenerateXReport(f.ctx, f.tenantID, &testToday)
	requireCode(t, err, core.CodeConflict)

	// Another day is fine and does not reuse the number.
	other, err := f.reports.GenerateXReport(f.ctx, f.tenantID, &yesterday)
	require.NoError(t, err)
	assert.Equal(t, "XR-00002", other.ReportNumber)
	assert.Equal(t, "1.00", other.ChequeTotal.StringFixed(2))

	page, err := f.reports.ListXReports(f.ctx, f.tenantID, core.DateRange{}, core.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
}

func TestReportingService_CloseXReport(t *testing.T) {
	f := newLedgerFixture(t)
	report, err := f.reports.GenerateXReport(f.ctx, f.tenantID, nil)
	require.NoError(t, err)
	assert.True(t, report.GrandTotal.IsZero())

	closed, err := f.reports.CloseXReport(f.ctx, f.tenantID, report.ID)
	require.NoError(t, err)
	assert.True(t, closed.IsClosed)
	require.NotNil(t, closed.ClosedAt)
	assert.Equal(t, f.userID, *closed.ClosedBy)

	_, err = f.reports.CloseXReport(f.ctx, f.tenantID, report.ID)
	requireCode(t, err, core.CodeValidation)

	_, err = f.reports.CloseXReport(f.ctx, f.tenantID, uuid.New())
	requireCode(t, err, core.CodeNotFound)

	got, err := f.reports.GetXReport(f.ctx, f.tenantID, report.ID)
	require.NoError(t, err)
	assert.True(t, got.IsClosed)
}

func TestReportingService_MarginReport(t *testing.T) {
	f := newLedgerFixture(t)
	contractA := uuid.New()
	contractB := uuid.New()

	invA, err := f.invoices.GenerateForContract(f.ctx, f.tenantID, core.GenerateInvoiceRequest{
		ContractID: contractA, Amount: d("1000"), VATRate: lo.ToPtr(d("0")),
	})
	require.NoError(t, err)
	invB, err := f.invoices.GenerateForContract(f.ctx, f.tenantID, core.GenerateInvoiceRequest{
		ContractID: contractB, Amount: d("500"), VATRate: lo.ToPtr(d("0")),
	})
	require.NoError(t, err)
	for _, id := range []uuid.UUID{invA.ID, invB.ID} {
		_, err := f.invoices.TransitionStatus(f.ctx, f.tenantID, id, core.TransitionRequest[core.InvoiceStatus]{Status: core.InvoiceIssued})
		require.NoError(t, err)
	}

	f.expectCharge("tx-a")
	f.pay(t, invA.ID, "1000", core.MethodBankTransfer)
	f.expectCharge("tx-b")
	f.pay(t, invB.ID, "200", core.MethodCash)

	costA, err := f.supplier.Create(f.ctx, f.tenantID, core.CreateSupplierPaymentRequest{
		SupplierID: lo.ToPtr(uuid.New()), ContractID: &contractA, Amount: d("600"), Method: core.MethodBankTransfer,
	})
	require.NoError(t, err)
	_, err = f.supplier.TransitionStatus(f.ctx, f.tenantID, costA.ID, core.TransitionRequest[core.SupplierPaymentStatus]{Status: core.SupplierPaymentPaid})
	require.NoError(t, err)

	// Pending supplier payments are not cost yet.
	_, err = f.supplier.Create(f.ctx, f.tenantID, core.CreateSupplierPaymentRequest{
		SupplierID: lo.ToPtr(uuid.New()), ContractID: &contractB, Amount: d("999"), Method: core.MethodCash,
	})
	require.NoError(t, err)

	report, err := f.reports.MarginReport(f.ctx, f.tenantID, core.DateRange{})
	require.NoError(t, err)

	assert.Equal(t, "1200.00", report.Revenue.StringFixed(2))
	assert.Equal(t, "600.00", report.Cost.StringFixed(2))
	assert.Equal(t, "600.00", report.Margin.StringFixed(2))
	assert.Equal(t, "50.00", report.MarginPercent.StringFixed(2))
	require.Len(t, report.ByContract, 2)

	rows := lo.KeyBy(report.ByContract, func(r core.ContractMargin) uuid.UUID { return *r.ContractID })
	assert.Equal(t, "40.00", rows[contractA].MarginPercent.StringFixed(2))
	assert.Equal(t, "100.00", rows[contractB].MarginPercent.StringFixed(2))

	// An empty window yields zero revenue and a zero percentage.
	far := testToday.AddDate(5, 0, 0)
	empty, err := f.reports.MarginReport(f.ctx, f.tenantID, core.DateRange{From: &far})
	require.NoError(t, err)
	assert.True(t, empty.Revenue.IsZero())
	assert.True(t, empty.MarginPercent.IsZero())
	assert.Empty(t, empty.ByContract)
}

func TestReportingService_RevenueBreakdown(t *testing.T) {
	f := newLedgerFixture(t)
	inv := f.issuedInvoice(t)

	february := time.Date(2026, time.February, 20, 0, 0, 0, 0, time.UTC)
	f.expectCharge("tx-f")
	_, err := f.payments.RecordPayment(f.ctx, f.tenantID, core.RecordPaymentRequest{
		InvoiceID: inv.ID, Amount: d("40"), Method: core.MethodCard, PaymentDate: &february,
	})
	require.NoError(t, err)
	f.expectCharge("tx-m1")
	f.pay(t, inv.ID, "60", core.MethodCard)
	f.expectCharge("tx-m2")
	f.pay(t, inv.ID, "10", core.MethodEDirham)

	out, err := f.reports.RevenueBreakdown(f.ctx, f.tenantID, core.DateRange{})
	require.NoError(t, err)

	assert.Equal(t, "110.00", out.Total.StringFixed(2))
	require.Len(t, out.ByMonth, 2)
	assert.Equal(t, "2026-02", out.ByMonth[0].Month)
	assert.Equal(t, "40.00", out.ByMonth[0].Total.StringFixed(2))
	assert.Equal(t, "2026-03", out.ByMonth[1].Month)
	assert.Equal(t, 2, out.ByMonth[1].TransactionCount)
	assert.Equal(t, "100.00", out.ByMethod[core.MethodCard].StringFixed(2))
	assert.Equal(t, "10.00", out.ByMethod[core.MethodEDirham].StringFixed(2))

	march := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	out, err = f.reports.RevenueBreakdown(f.ctx, f.tenantID, core.DateRange{From: &march})
	require.NoError(t, err)
	assert.Equal(t, "70.00", out.Total.StringFixed(2))
	assert.Len(t, out.ByMonth, 1)
}
