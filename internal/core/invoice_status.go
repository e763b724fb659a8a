package core

type InvoiceStatus string

const (
	InvoiceDraft         InvoiceStatus = "DRAFT"
	InvoiceIssued        InvoiceStatus = "ISSUED"
	InvoicePartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoicePaid          InvoiceStatus = "PAID"
	InvoiceOverdue       InvoiceStatus = "OVERDUE"
	InvoiceCancelled     InvoiceStatus = "CANCELLED"
	InvoiceRefunded      InvoiceStatus = "REFUNDED"
)

var InvoiceStatuses = []InvoiceStatus{
	InvoiceDraft, InvoiceIssued, InvoicePartiallyPaid, InvoicePaid,
	InvoiceOverdue, InvoiceCancelled, InvoiceRefunded,
}

func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	return parseEnum("invoice status", s, InvoiceStatuses)
}

// InvoiceStatusMachine is the invoice lifecycle shared by all tenants:
//
//	DRAFT          → ISSUED, CANCELLED
//	ISSUED         → PARTIALLY_PAID, PAID, OVERDUE, CANCELLED
//	PARTIALLY_PAID → PAID, OVERDUE, CANCELLED
//	OVERDUE        → PARTIALLY_PAID, PAID, CANCELLED
//	PAID           → REFUNDED
//	CANCELLED, REFUNDED are terminal.
var InvoiceStatusMachine = statusMachine[InvoiceStatus]{
	name: "invoice",
	edges: map[InvoiceStatus][]InvoiceStatus{
		InvoiceDraft:         {InvoiceIssued, InvoiceCancelled},
		InvoiceIssued:        {InvoicePartiallyPaid, InvoicePaid, InvoiceOverdue, InvoiceCancelled},
		InvoicePartiallyPaid: {InvoicePaid, InvoiceOverdue, InvoiceCancelled},
		InvoiceOverdue:       {InvoicePartiallyPaid, InvoicePaid, InvoiceCancelled},
		InvoicePaid:          {InvoiceRefunded},
	},
	reasonRequired: map[InvoiceStatus]bool{
		InvoiceCancelled: true,
		InvoiceRefunded:  true,
	},
}
