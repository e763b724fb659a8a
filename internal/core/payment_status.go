package core

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentCancelled PaymentStatus = "CANCELLED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

var PaymentStatuses = []PaymentStatus{PaymentPending, PaymentCompleted, PaymentFailed, PaymentCancelled, PaymentRefunded}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	return parseEnum("payment status", s, PaymentStatuses)
}

// PaymentStatusMachine: PENDING → COMPLETED|FAILED|CANCELLED, FAILED → PENDING
// (retry), COMPLETED → REFUNDED. CANCELLED and REFUNDED are terminal.
var PaymentStatusMachine = statusMachine[PaymentStatus]{
	name: "payment",
	edges: map[PaymentStatus][]PaymentStatus{
		PaymentPending:   {PaymentCompleted, PaymentFailed, PaymentCancelled},
		PaymentFailed:    {PaymentPending},
		PaymentCompleted: {PaymentRefunded},
	},
	reasonRequired: map[PaymentStatus]bool{
		PaymentFailed:    true,
		PaymentCancelled: true,
		PaymentRefunded:  true,
	},
}

type SupplierPaymentStatus string

const (
	SupplierPaymentPending   SupplierPaymentStatus = "PENDING"
	SupplierPaymentApproved  SupplierPaymentStatus = "APPROVED"
	SupplierPaymentPaid      SupplierPaymentStatus = "PAID"
	SupplierPaymentCancelled SupplierPaymentStatus = "CANCELLED"
)

var SupplierPaymentStatuses = []SupplierPaymentStatus{
	SupplierPaymentPending, SupplierPaymentApproved, SupplierPaymentPaid, SupplierPaymentCancelled,
}

func ParseSupplierPaymentStatus(s string) (SupplierPaymentStatus, error) {
	return parseEnum("supplier payment status", s, SupplierPaymentStatuses)
}

var SupplierPaymentStatusMachine = statusMachine[SupplierPaymentStatus]{
	name: "supplier payment",
	edges: map[SupplierPaymentStatus][]SupplierPaymentStatus{
		SupplierPaymentPending:  {SupplierPaymentApproved, SupplierPaymentPaid, SupplierPaymentCancelled},
		SupplierPaymentApproved: {SupplierPaymentPaid, SupplierPaymentCancelled},
	},
	reasonRequired: map[SupplierPaymentStatus]bool{
		SupplierPaymentCancelled: true,
	},
}
