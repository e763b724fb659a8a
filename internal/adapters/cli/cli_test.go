package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"agency-ledger/internal/adapters/cli"
	"agency-ledger/internal/app"
	"agency-ledger/internal/clock"
	"agency-ledger/internal/core"
	"agency-ledger/internal/logger"
	"agency-ledger/internal/mocks"
	"agency-ledger/internal/store/memstore"
)

type cliFixture struct {
	t        *testing.T
	svc      app.ApplicationService
	tenantID uuid.UUID
	opened   int
	closed   int
	migrated int
	out      bytes.Buffer
}

func newCLI(t *testing.T) *cliFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	gw := mocks.NewMockPaymentGateway(ctrl)
	gw.EXPECT().Provider().Return("testpay").AnyTimes()
	user := mocks.NewMockCurrentUser(ctrl)
	user.EXPECT().UserID(gomock.Any()).Return(uuid.New()).AnyTimes()

	store := memstore.New()
	clk := clock.Fixed{At: time.Date(2026, time.March, 15, 9, 30, 0, 0, time.UTC)}
	log := logger.Nop()
	defaults := core.InvoiceDefaults{VATRate: decimal.NewFromInt(5), Currency: "AED", PaymentTermsDays: 30}

	return &cliFixture{
		t:        t,
		tenantID: uuid.New(),
		svc: app.NewAppService(
			core.NewInvoiceService(store, clk, user, defaults, log),
			core.NewPaymentService(store, gw, clk, user, time.Second, log),
			core.NewSupplierPaymentService(store, clk, user, "AED", log),
			core.NewDiscountProgramService(store, clk, user, log),
			core.NewReportingService(store, clk, user, log),
			log,
		),
	}
}

func (f *cliFixture) run(args ...string) error {
	f.out.Reset()
	return cli.Execute(context.Background(), cli.Options{
		Open: func(ctx context.Context) (*cli.Backend, error) {
			f.opened++
			return &cli.Backend{
				Service: f.svc,
				Migrate: func(ctx context.Context) ([]string, error) {
					f.migrated++
					return []string{"001_ledger.sql"}, nil
				},
				Close: func() { f.closed++ },
			}, nil
		},
		JWTSecret: "cli-secret",
		Version:   "test",
		Log:       logger.Nop(),
		Out:       &f.out,
	}, args)
}

func (f *cliFixture) tenant() string { return "--tenant=" + f.tenantID.String() }

func outputAs[T any](t *testing.T, f *cliFixture) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &v), f.out.String())
	return v
}

func TestMigrate(t *testing.T) {
	f := newCLI(t)
	require.NoError(t, f.run("migrate"))

	out := outputAs[map[string][]string](t, f)
	assert.Equal(t, []string{"001_ledger.sql"}, out["applied"])
	assert.Equal(t, 1, f.migrated)
	assert.Equal(t, 1, f.closed)
}

func TestLedgerCommandsNeedTenant(t *testing.T) {
	f := newCLI(t)

	err := f.run("invoices", "mark-overdue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--tenant is required")

	err = f.run("report", "margin", "--tenant=not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --tenant")
	assert.Zero(t, f.opened)
}

func TestMarkOverdue(t *testing.T) {
	f := newCLI(t)
	ctx := context.Background()

	inv, err := f.svc.CreateInvoice(ctx, f.tenantID, app.CreateInvoiceRequest{
		IssueDate: "2026-03-01",
		DueDate:   "2026-03-10",
		LineItems: []app.LineItemInput{{Description: "Visa processing", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100)}},
	})
	require.NoError(t, err)
	_, err = f.svc.TransitionInvoice(ctx, f.tenantID, inv.ID, app.TransitionRequest{Status: "issued"})
	require.NoError(t, err)

	require.NoError(t, f.run("invoices", "mark-overdue", f.tenant()))
	res := outputAs[app.MarkOverdueResult](t, f)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, core.InvoiceOverdue, res.Invoices[0].Status)

	require.NoError(t, f.run("invoices", "mark-overdue", f.tenant()))
	assert.Zero(t, outputAs[app.MarkOverdueResult](t, f).Count)
}

func TestXReportGenerateAndClose(t *testing.T) {
	f := newCLI(t)

	require.NoError(t, f.run("xreport", "generate", f.tenant(), "--date=2026-03-14"))
	report := outputAs[core.CashReconciliation](t, f)
	assert.Equal(t, "XR-00001", report.ReportNumber)
	assert.Equal(t, "2026-03-14", report.ReportDate.Format(time.DateOnly))
	assert.True(t, report.GrandTotal.IsZero())

	err := f.run("xreport", "generate", f.tenant(), "--date=2026-03-14")
	assert.Equal(t, core.CodeConflict, core.ErrorCodeOf(err))

	require.NoError(t, f.run("xreport", "close", report.ID.String(), f.tenant()))
	assert.True(t, outputAs[core.CashReconciliation](t, f).IsClosed)

	require.NoError(t, f.run("xreport", "list", f.tenant()))
	page := outputAs[core.Page[core.CashReconciliation]](t, f)
	assert.Equal(t, 1, page.Total)
}

func TestXReportCloseRejectsBadID(t *testing.T) {
	f := newCLI(t)
	err := f.run("xreport", "close", "nope", f.tenant())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid report id")
}

func TestReportRangeValidation(t *testing.T) {
	f := newCLI(t)

	require.NoError(t, f.run("report", "revenue", f.tenant(), "--from=2026-03-01", "--to=2026-03-31"))
	rev := outputAs[core.RevenueBreakdown](t, f)
	assert.True(t, rev.Total.IsZero())

	err := f.run("report", "margin", f.tenant(), "--from=2026-03-31", "--to=2026-03-01")
	assert.Equal(t, core.CodeValidation, core.ErrorCodeOf(err))
}

func TestTokenDoesNotOpenLedger(t *testing.T) {
	f := newCLI(t)
	userID := uuid.New()

	require.NoError(t, f.run("token", f.tenant(), "--user="+userID.String(), "--role=cashier", "--ttl=1h"))
	out := outputAs[map[string]string](t, f)
	assert.Zero(t, f.opened)

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(out["token"], claims, func(*jwt.Token) (any, error) {
		return []byte("cli-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, f.tenantID.String(), claims["tenant_id"])
	assert.Equal(t, userID.String(), claims["user_id"])
	assert.Equal(t, "cashier", claims["role"])
}

func TestOpenFailureIsReported(t *testing.T) {
	boom := errors.New("connection refused")
	err := cli.Execute(context.Background(), cli.Options{
		Open: func(context.Context) (*cli.Backend, error) { return nil, boom },
		Log:  logger.Nop(),
		Out:  &bytes.Buffer{},
	}, []string{"migrate"})
	require.ErrorIs(t, err, boom)
}
