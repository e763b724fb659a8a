package app

import (
	"time"

	"github.com/rs/zerolog"

	"agency-ledger/internal/core"
)

// LedgerSettings are the tunables shared by every domain service.
type LedgerSettings struct {
	Defaults       core.InvoiceDefaults
	GatewayTimeout time.Duration
}

// NewLedger builds every domain service over one store and wraps them in the
// application facade.
func NewLedger(store core.Store, gateway core.PaymentGateway, clock core.Clock, user core.CurrentUser, settings LedgerSettings, log zerolog.Logger) ApplicationService {
	return NewAppService(
		core.NewInvoiceService(store, clock, user, settings.Defaults, log.With().Str("component", "invoices").Logger()),
		core.NewPaymentService(store, gateway, clock, user, settings.GatewayTimeout, log.With().Str("component", "payments").Logger()),
		core.NewSupplierPaymentService(store, clock, user, settings.Defaults.Currency, log.With().Str("component", "supplier_payments").Logger()),
		core.NewDiscountProgramService(store, clock, user, log.With().Str("component", "discount_programs").Logger()),
		core.NewReportingService(store, clock, user, log.With().Str("component", "reports").Logger()),
		log.With().Str("component", "app").Logger(),
	)
}
