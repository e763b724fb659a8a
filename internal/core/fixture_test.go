package core_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"agency-ledger/internal/clock"
	"agency-ledger/internal/core"
	"agency-ledger/internal/logger"
	"agency-ledger/internal/mocks"
	"agency-ledger/internal/store/memstore"
)

var testToday = time.Date(2026, time.March, 15, 9, 30, 0, 0, time.UTC)

// ledgerFixture wires every service to one in-memory store, a pinned clock and
// a mocked gateway.
type ledgerFixture struct {
	ctx      context.Context
	store    *memstore.Store
	gateway  *mocks.MockPaymentGateway
	clock    clock.Fixed
	tenantID uuid.UUID
	userID   uuid.UUID

	invoices core.InvoiceService
	payments core.PaymentService
	supplier core.SupplierPaymentService
	programs core.DiscountProgramService
	reports  core.ReportingService
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &ledgerFixture{
		ctx:      context.Background(),
		store:    memstore.New(),
		gateway:  mocks.NewMockPaymentGateway(ctrl),
		clock:    clock.Fixed{At: testToday},
		tenantID: uuid.New(),
		userID:   uuid.New(),
	}

	user := mocks.NewMockCurrentUser(ctrl)
	user.EXPECT().UserID(gomock.Any()).Return(f.userID).AnyTimes()
	f.gateway.EXPECT().Provider().Return("testpay").AnyTimes()

	log := logger.Nop()
	defaults := core.InvoiceDefaults{VATRate: decimal.NewFromInt(5), Currency: "AED", PaymentTermsDays: 30}
	f.invoices = core.NewInvoiceService(f.store, f.clock, user, defaults, log)
	f.payments = core.NewPaymentService(f.store, f.gateway, f.clock, user, time.Second, log)
	f.supplier = core.NewSupplierPaymentService(f.store, f.clock, user, "AED", log)
	f.programs = core.NewDiscountProgramService(f.store, f.clock, user, log)
	f.reports = core.NewReportingService(f.store, f.clock, user, log)
	return f
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// scenarioALines add up to a 245.00 subtotal.
func scenarioALines() []core.LineItemInput {
	return []core.LineItemInput{
		{Description: "Housemaid placement", Quantity: d("2"), UnitPrice: d("100")},
		{Description: "Visa processing", Quantity: d("1"), UnitPrice: d("50"), Discount: d("5")},
	}
}

// draftInvoice creates the Scenario A invoice: 245.00 + 5% VAT = 257.25.
func (f *ledgerFixture) draftInvoice(t *testing.T) *core.Invoice {
	t.Helper()
	inv, err := f.invoices.Create(f.ctx, f.tenantID, core.CreateInvoiceRequest{
		Type:      core.InvoiceTypeStandard,
		LineItems: scenarioALines(),
	})
	require.NoError(t, err)
	return inv
}

func (f *ledgerFixture) issuedInvoice(t *testing.T) *core.Invoice {
	t.Helper()
	inv := f.draftInvoice(t)
	inv, err := f.invoices.TransitionStatus(f.ctx, f.tenantID, inv.ID, core.TransitionRequest[core.InvoiceStatus]{Status: core.InvoiceIssued})
	require.NoError(t, err)
	return inv
}

// expectCharge makes the next gateway Initiate succeed with txID.
func (f *ledgerFixture) expectCharge(txID string) *gomock.Call {
	return f.gateway.EXPECT().
		Initiate(gomock.Any(), gomock.Any()).
		Return(core.GatewayResult{Success: true, TransactionID: txID, Status: "captured", RawResponse: `{"ok":true}`}, nil)
}

// expectRefund expects one gateway refund of amount against txID.
func (f *ledgerFixture) expectRefund(txID, amount string, err error) *gomock.Call {
	return f.gateway.EXPECT().
		Refund(gomock.Any(), txID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, got decimal.Decimal) error {
			if !got.Equal(d(amount)) {
				return fmt.Errorf("refund amount %s, want %s", got, amount)
			}
			return err
		})
}

func (f *ledgerFixture) pay(t *testing.T, invoiceID uuid.UUID, amount string, method core.PaymentMethod) *core.Payment {
	t.Helper()
	p, err := f.payments.RecordPayment(f.ctx, f.tenantID, core.RecordPaymentRequest{
		InvoiceID: invoiceID,
		Amount:    d(amount),
		Method:    method,
	})
	require.NoError(t, err)
	return p
}

func requireCode(t *testing.T, err error, code core.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, core.ErrorCodeOf(err), "unexpected error: %v", err)
}
