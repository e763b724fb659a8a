package core_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agency-ledger/internal/core"
)

func TestInvoiceStatusMachine_FullGrid(t *testing.T) {
	allowed := map[core.InvoiceStatus][]core.InvoiceStatus{
		core.InvoiceDraft:         {core.InvoiceIssued, core.InvoiceCancelled},
		core.InvoiceIssued:        {core.InvoicePartiallyPaid, core.InvoicePaid, core.InvoiceOverdue, core.InvoiceCancelled},
		core.InvoicePartiallyPaid: {core.InvoicePaid, core.InvoiceOverdue, core.InvoiceCancelled},
		core.InvoiceOverdue:       {core.InvoicePartiallyPaid, core.InvoicePaid, core.InvoiceCancelled},
		core.InvoicePaid:          {core.InvoiceRefunded},
	}

	for _, from := range core.InvoiceStatuses {
		for _, to := range core.InvoiceStatuses {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				err := core.InvoiceStatusMachine.Validate(from, to, "customer request")
				switch {
				case len(allowed[from]) == 0:
					require.Error(t, err)
					assert.True(t, errors.Is(err, core.ErrTerminalState))
					assert.Equal(t, core.CodeValidation, core.ErrorCodeOf(err))
				case contains(allowed[from], to):
					assert.NoError(t, err)
				default:
					require.Error(t, err)
					assert.True(t, errors.Is(err, core.ErrInvalidTransition))
					assert.Equal(t, core.CodeValidation, core.ErrorCodeOf(err))
				}
			})
		}
	}
}

func TestPaymentStatusMachine_FullGrid(t *testing.T) {
	allowed := map[core.PaymentStatus][]core.PaymentStatus{
		core.PaymentPending:   {core.PaymentCompleted, core.PaymentFailed, core.PaymentCancelled},
		core.PaymentFailed:    {core.PaymentPending},
		core.PaymentCompleted: {core.PaymentRefunded},
	}

	for _, from := range core.PaymentStatuses {
		for _, to := range core.PaymentStatuses {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				err := core.PaymentStatusMachine.Validate(from, to, "gateway declined")
				switch {
				case len(allowed[from]) == 0:
					assert.True(t, errors.Is(err, core.ErrTerminalState))
				case contains(allowed[from], to):
					assert.NoError(t, err)
				default:
					assert.True(t, errors.Is(err, core.ErrInvalidTransition))
				}
			})
		}
	}
}

func TestSupplierPaymentStatusMachine_FullGrid(t *testing.T) {
	allowed := map[core.SupplierPaymentStatus][]core.SupplierPaymentStatus{
		core.SupplierPaymentPending:  {core.SupplierPaymentApproved, core.SupplierPaymentPaid, core.SupplierPaymentCancelled},
		core.SupplierPaymentApproved: {core.SupplierPaymentPaid, core.SupplierPaymentCancelled},
	}

	for _, from := range core.SupplierPaymentStatuses {
		for _, to := range core.SupplierPaymentStatuses {
			err := core.SupplierPaymentStatusMachine.Validate(from, to, "duplicate")
			switch {
			case len(allowed[from]) == 0:
				assert.True(t, errors.Is(err, core.ErrTerminalState), "%s->%s", from, to)
			case contains(allowed[from], to):
				assert.NoError(t, err, "%s->%s", from, to)
			default:
				assert.True(t, errors.Is(err, core.ErrInvalidTransition), "%s->%s", from, to)
			}
		}
	}
}

func TestStatusMachine_ReasonRules(t *testing.T) {
	tests := []struct {
		name     string
		validate func(reason string) error
		needsWhy bool
	}{
		{"invoice cancel", func(r string) error {
			return core.InvoiceStatusMachine.Validate(core.InvoiceIssued, core.InvoiceCancelled, r)
		}, true},
		{"invoice refund", func(r string) error {
			return core.InvoiceStatusMachine.Validate(core.InvoicePaid, core.InvoiceRefunded, r)
		}, true},
		{"invoice issue", func(r string) error {
			return core.InvoiceStatusMachine.Validate(core.InvoiceDraft, core.InvoiceIssued, r)
		}, false},
		{"payment fail", func(r string) error {
			return core.PaymentStatusMachine.Validate(core.PaymentPending, core.PaymentFailed, r)
		}, true},
		{"payment cancel", func(r string) error {
			return core.PaymentStatusMachine.Validate(core.PaymentPending, core.PaymentCancelled, r)
		}, true},
		{"payment refund", func(r string) error {
			return core.PaymentStatusMachine.Validate(core.PaymentCompleted, core.PaymentRefunded, r)
		}, true},
		{"payment retry", func(r string) error {
			return core.PaymentStatusMachine.Validate(core.PaymentFailed, core.PaymentPending, r)
		}, false},
		{"supplier cancel", func(r string) error {
			return core.SupplierPaymentStatusMachine.Validate(core.SupplierPaymentApproved, core.SupplierPaymentCancelled, r)
		}, true},
		{"supplier pay", func(r string) error {
			return core.SupplierPaymentStatusMachine.Validate(core.SupplierPaymentApproved, core.SupplierPaymentPaid, r)
		}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.validate("   ")
			if tc.needsWhy {
				assert.True(t, errors.Is(err, core.ErrReasonRequired))
				assert.Equal(t, core.CodeValidation, core.ErrorCodeOf(err))
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, tc.validate("requested by client"))
		})
	}
}

// Terminal beats invalid, and invalid beats a missing reason.
func TestStatusMachine_ErrorPrecedence(t *testing.T) {
	err := core.InvoiceStatusMachine.Validate(core.InvoiceCancelled, core.InvoiceRefunded, "")
	assert.True(t, errors.Is(err, core.ErrTerminalState))

	err = core.InvoiceStatusMachine.Validate(core.InvoiceDraft, core.InvoiceRefunded, "")
	assert.True(t, errors.Is(err, core.ErrInvalidTransition))
}

func TestParseEnums(t *testing.T) {
	status, err := core.ParseInvoiceStatus("partially-paid")
	require.NoError(t, err)
	assert.Equal(t, core.InvoicePartiallyPaid, status)

	method, err := core.ParsePaymentMethod("Bank Transfer")
	require.NoError(t, err)
	assert.Equal(t, core.MethodBankTransfer, method)

	method, err = core.ParsePaymentMethod("e_dirham")
	require.NoError(t, err)
	assert.Equal(t, core.MethodEDirham, method)

	typ, err := core.ParseInvoiceType("credit note")
	require.NoError(t, err)
	assert.Equal(t, core.InvoiceTypeCreditNote, typ)

	_, err = core.ParsePaymentMethod("bitcoin")
	assert.Equal(t, core.CodeValidation, core.ErrorCodeOf(err))

	_, err = core.ParseMilestoneType("")
	assert.Equal(t, core.CodeValidation, core.ErrorCodeOf(err))
}

func contains[S comparable](list []S, v S) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
