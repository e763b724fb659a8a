package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"agency-ledger/internal/core"
	"agency-ledger/internal/logger"
	"agency-ledger/internal/mocks"
)

// Scenario B: paying the full balance settles the invoice.
func TestPaymentService_FullPaymentSettlesInvoice(t *testing.T) {
	f := newLedgerFixture(t)
	inv := f.issuedInvoice(t)

	f.gateway.EXPECT().
		Initiate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req core.GatewayRequest) (core.GatewayResult, error) {
			assert.Equal(t, "257.25", req.Amount.StringFixed(2))
			assert.Equal(t, "AED", req.Currency)
			assert.Equal(t, inv.InvoiceNumber, req.InvoiceNumber)
			assert.Equal(t, core.MethodCard, req.Method)
			return core.GatewayResult{Success: true, TransactionID: "tx-b", Status: "captured"}, nil
		})

	p := f.pay(t, inv.ID, "257.25", core.MethodCard)

	assert.Equal(t, core.PaymentCompleted, p.Status)
	assert.Equal(t, "PAY-00001", p.PaymentNumber)
	assert.Equal(t, "tx-b", p.GatewayTransactionID)
	assert.Equal(t, "testpay", p.GatewayProvider)
	assert.Equal(t, f.userID, *p.CashierID)

	got, err := f.invoices.Get(f.ctx, f.tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, core.InvoicePaid, got.Status)
	assert.Equal(t, "257.25", got.PaidAmount.StringFixed(2))
	assert.Equal(t, "0.00", got.BalanceDue.StringFixed(2))
	require.Len(t, got.Payments, 1)
	assert.Equal(t, p.ID, got.Payments[0].ID)

	events := f.store.PublishedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, core.EventInvoicePaymentApplied, events[0].Type)
	assert.Equal(t, inv.ID, events[0].AggregateID)
	assert.Equal(t, "PAID", events[0].Payload["to_status"])
}

// Scenario C: a partial payment leaves a balance.
func TestPaymentService_PartialPayment(t *testing.T) {
	f := newLedgerFixture(t)
	inv := f.issuedInvoice(t)
	f.expectCharge("tx-c")

	f.pay(t, inv.ID, "100", core.MethodCash)

	got, err := f.invoices.Get(f.ctx, f.tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, core.InvoicePartiallyPaid, got.Status)
	assert.Equal(t, "100.00", got.PaidAmount.StringFixed(2))
	assert.Equal(t, "157.25", got.BalanceDue.StringFixed(2))

	// Paying the rest completes it.
	f.expectCharge("tx-c2")
	f.pay(t, inv.ID, "157.25", core.MethodCash)

	got, err = f.invoices.Get(f.ctx, f.tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, core.InvoicePaid, got.Status)
	assert.True(t, got.BalanceDue.IsZero())
}

// Scenario D: a refund writes a new row, flips the original and reverses the money only.
func TestPaymentService_Refund(t *testing.T) {
	f := newLedgerFixture(t)
	inv := f.issuedInvoice(t)
	f.expectCharge("tx-d")
	original := f.pay(t, inv.ID, "100", core.MethodCard)

	f.expectRefund("tx-d", "100", nil)

	refund, err := f.payments.RefundPayment(f.ctx, f.tenantID, original.ID, core.RefundRequest{
		Amount: d("100"),
		Reason: "double charge",
	})
	require.NoError(t, err)

	assert.Equal(t, core.PaymentRefunded, refund.Status)
	assert.NotEqual(t, original.ID, refund.ID)
	assert.Equal(t, "PAY-00002", refund.PaymentNumber)
	require.NotNil(t, refund.RefundedPaymentID)
	assert.Equal(t, original.ID, *refund.RefundedPaymentID)
	assert.Equal(t, "100.00", refund.RefundAmount.StringFixed(2))

	orig, err := f.payments.Get(f.ctx, f.tenantID, original.ID)
	require.NoError(t, err)
	assert.Equal(t, core.PaymentRefunded, orig.Status)

	got, err := f.invoices.Get(f.ctx, f.tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.00", got.PaidAmount.StringFixed(2))
	assert.Equal(t, "257.25", got.BalanceDue.StringFixed(2))
	assert.Equal(t, core.InvoicePartiallyPaid, got.Status, "refunds do not re-evaluate invoice status")

	events := f.store.PublishedEvents()
	require.Len(t, events, 2)
	assert.Equal(t, core.EventPaymentRefunded, events[1].Type)
}

func TestPaymentService_RefundValidation(t *testing.T) {
	f := newLedgerFixture(t)
	inv := f.issuedInvoice(t)
	f.expectCharge("tx-r")
	p := f.pay(t, inv.ID, "50", core.MethodCard)

	tests := []struct {
		name string
		req  core.RefundRequest
		is   error
	}{
		{"more than paid", core.RefundRequest{Amount: d("50.01"), Reason: "x"}, nil},
		{"zero", core.RefundRequest{Amount: d("0"), Reason: "x"}, nil},
		{"rounds to zero", core.RefundRequest{Amount: d("0.004"), Reason: "x"}, nil},
		{"no reason", core.RefundRequest{Amount: d("10")}, core.ErrReasonRequired},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.payments.RefundPayment(f.ctx, f.tenantID, p.ID, tc.req)
			requireCode(t, err, core.CodeValidation)
			if tc.is != nil {
				assert.True(t, errors.Is(err, tc.is))
			}
		})
	}

	// Nothing moved.
	got, err := f.invoices.Get(f.ctx, f.tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "50.00", got.PaidAmount.StringFixed(2))

	orig, err := f.payments.Get(f.ctx, f.tenantID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, core.PaymentCompleted, orig.Status)

	page, err := f.payments.List(f.ctx, f.tenantID, core.PaymentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

// failingInvoiceUpdates rejects every invoice update made inside a transaction.
type failingInvoiceUpdates struct{ core.Store }

func (s failingInvoiceUpdates) InTx(ctx context.Context, fn func(tx core.Store) error) error {
	return s.Store.InTx(ctx, func(tx core.Store) error {
		return fn(failingInvoiceUpdates{tx})
	})
}

func (s failingInvoiceUpdates) Invoices() core.InvoiceRepository {
	return failingInvoiceRepo{s.Store.Invoices()}
}

type failingInvoiceRepo struct{ core.InvoiceRepository }

func (failingInvoiceRepo) Update(context.Context, *core.Invoice) error {
	return errors.New("disk full")
}

func TestPaymentService_RefundStoreFailureSkipsGateway(t *testing.T) {
	f := newLedgerFixture(t)
	inv := f.issuedInvoice(t)
	f.expectCharge("tx-s")
	p := f.pay(t, inv.ID, "100", core.MethodCard)

	user := mocks.NewMockCurrentUser(gomock.NewController(t))
	user.EXPECT().UserID(gomock.Any()).Return(f.userID).AnyTimes()
	payments := core.NewPaymentService(failingInvoiceUpdates{f.store}, f.gateway, f.clock, user, time.Second, logger.Nop())

	// No Refund expectation: the gateway must not be reached.
	_, err := payments.RefundPayment(f.ctx, f.tenantID, p.ID, core.RefundRequest{Amount: d("100"), Reason: "duplicate"})
	require.ErrorContains(t, err, "disk full")

	orig, err := f.payments.Get(f.ctx, f.tenantID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, core.PaymentCompleted, orig.Status)

	page, err := f.payments.List(f.ctx, f.tenantID, core.PaymentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestPaymentService_RefundCommitFailureAfterGateway(t *testing.T) {
	f := newLedgerFixture(t)
	inv := f.issuedInvoice(t)
	f.expectCharge("tx-c")
	p := f.pay(t, inv.ID, "100", core.MethodCard)

	ctx, cancel := context.WithCancel(f.ctx)
	defer cancel()
	f.gateway.EXPECT().
		Refund(gomock.Any(), "tx-c", gomock.Any()).
		DoAndReturn(func(context.Context, string, decimal.Decimal) error {
			// The gateway accepted the refund but the request dies before commit.
			cancel()
			return nil
		})

	_, err := f.payments.RefundPayment(ctx, f.tenantID, p.ID, core.RefundRequest{Amount: d("100"), Reason: "duplicate"})
	require.ErrorIs(t, err, context.Canceled)

	orig, err := f.payments.Get(f.ctx, f.tenantID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, core.PaymentCompleted, orig.Status)

	got, err := f.invoices.Get(f.ctx, f.tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", got.PaidAmount.StringFixed(2))
	assert.Len(t, f.store.PublishedEvents(), 1)
}

func TestPaymentService_RefundGatewayFailureRollsBack(t *testing.T) {
	f := newLedgerFixture(t)
	inv := f.issuedInvoice(t)
	f.expectCharge("tx-g")
	p := f.pay(t, inv.ID, "80", core.MethodOnline)

	f.expectRefund("tx-g", "80", errors.New("acquirer offline"))

	_, err := f.payments.RefundPayment(f.ctx, f.tenantID, p.ID, core.RefundRequest{Amount: d("80"), Reason: "cancelled visa"})
	requireCode(t, err, core.CodeInternal)

	orig, err := f.payments.Get(f.ctx, f.tenantID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, core.PaymentCompleted, orig.Status)

	page, err := f.payments.List(f.ctx, f.tenantID, core.PaymentFilter{InvoiceID: &inv.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestPaymentService_GatewayFailureLeavesPending(t *testing.T) {
	tests := []struct {
		name   string
		result core.GatewayResult
		err    error
	}{
		{"gateway error", core.GatewayResult{}, errors.New("connection refused")},
		{"gateway timeout", core.GatewayResult{}, context.DeadlineExceeded},
		{"declined", core.GatewayResult{Success: false, TransactionID: "tx-x", Status: "declined"}, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newLedgerFixture(t)
			inv := f.issuedInvoice(t)
			f.gateway.EXPECT().Initiate(gomock.Any(), gomock.Any()).Return(tc.result, tc.err)

			p := f.pay(t, inv.ID, "100", core.MethodCard)
			assert.Equal(t, core.PaymentPending, p.Status)

			got, err := f.invoices.Get(f.ctx, f.tenantID, inv.ID)
			require.NoError(t, err)
			assert.Equal(t, core.InvoiceIssued, got.Status)
			assert.True(t, got.PaidAmount.IsZero())
			assert.Empty(t, f.store.PublishedEvents())

			page, err := f.payments.List(f.ctx, f.tenantID, core.PaymentFilter{})
			require.NoError(t, err)
			assert.Equal(t, 1, page.Total, "exactly one payment row per attempt")
		})
	}
}

func TestPaymentService_GatewayCallIsBounded(t *testing.T) {
	f := newLedgerFixture(t)
	inv := f.issuedInvoice(t)

	f.gateway.EXPECT().
		Initiate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ core.GatewayRequest) (core.GatewayResult, error) {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return core.GatewayResult{Success: true, TransactionID: "tx-t"}, nil
		})

	f.pay(t, inv.ID, "10", core.MethodCard)
}

func TestPaymentService_RecordValidation(t *testing.T) {
	f := newLedgerFixture(t)
	inv := f.issuedInvoice(t)

	tests := []struct {
		name string
		req  core.RecordPaymentRequest
		code core.ErrorCode
	}{
		{"unknown method", core.RecordPaymentRequest{InvoiceID: inv.ID, Amount: d("10"), Method: "BARTER"}, core.CodeValidation},
		{"exceeds balance", core.RecordPaymentRequest{InvoiceID: inv.ID, Amount: d("257.26"), Method: core.MethodCash}, core.CodeValidation},
		{"non-positive", core.RecordPaymentRequest{InvoiceID: inv.ID, Amount: d("-5"), Method: core.MethodCash}, core.CodeValidation},
		{"rounds to zero", core.RecordPaymentRequest{InvoiceID: inv.ID, Amount: d("0.004"), Method: core.MethodCard}, core.CodeValidation},
		{"missing invoice", core.RecordPaymentRequest{InvoiceID: uuid.New(), Amount: d("10"), Method: core.MethodCash}, core.CodeNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.payments.RecordPayment(f.ctx, f.tenantID, tc.req)
			requireCode(t, err, tc.code)
		})
	}

	_, err := f.invoices.TransitionStatus(f.ctx, f.tenantID, inv.ID, core.TransitionRequest[core.InvoiceStatus]{
		Status: core.InvoiceCancelled,
		Reason: "duplicate",
	})
	require.NoError(t, err)
	_, err = f.payments.RecordPayment(f.ctx, f.tenantID, core.RecordPaymentRequest{InvoiceID: inv.ID, Amount: d("10"), Method: core.MethodCash})
	requireCode(t, err, core.CodeValidation)

	// Rejected payments never draw a number.
	inv2 := f.issuedInvoice(t)
	f.expectCharge("tx-n")
	p := f.pay(t, inv2.ID, "1", core.MethodCash)
	assert.Equal(t, "PAY-00001", p.PaymentNumber)
}

func TestPaymentService_TransitionLeavesInvoiceAlone(t *testing.T) {
	f := newLedgerFixture(t)
	inv := f.issuedInvoice(t)
	f.gateway.EXPECT().Initiate(gomock.Any(), gomock.Any()).Return(core.GatewayResult{}, errors.New("down"))
	p := f.pay(t, inv.ID, "100", core.MethodCheque)

	completed, err := f.payments.TransitionStatus(f.ctx, f.tenantID, p.ID, core.TransitionRequest[core.PaymentStatus]{Status: core.PaymentCompleted})
	require.NoError(t, err)
	assert.Equal(t, core.PaymentCompleted, completed.Status)

	got, err := f.invoices.Get(f.ctx, f.tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, core.InvoiceIssued, got.Status)
	assert.True(t, got.PaidAmount.IsZero())

	_, err = f.payments.TransitionStatus(f.ctx, f.tenantID, p.ID, core.TransitionRequest[core.PaymentStatus]{Status: core.PaymentPending})
	assert.True(t, errors.Is(err, core.ErrInvalidTransition))
}

func TestPaymentService_Delete(t *testing.T) {
	f := newLedgerFixture(t)
	inv := f.issuedInvoice(t)
	f.expectCharge("tx-del")
	p := f.pay(t, inv.ID, "20", core.MethodCash)

	require.NoError(t, f.payments.Delete(f.ctx, f.tenantID, p.ID))

	_, err := f.payments.Get(f.ctx, f.tenantID, p.ID)
	requireCode(t, err, core.CodeNotFound)

	page, err := f.payments.List(f.ctx, f.tenantID, core.PaymentFilter{IncludeDeleted: true})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.True(t, page.Items[0].IsDeleted)
}
