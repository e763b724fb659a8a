package app

import (
	"reflect"
	"sort"

	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"

	"agency-ledger/internal/core"
)

// requestTypes are the DTOs published as JSON schemas, keyed by URL name.
var requestTypes = map[string]any{
	"create-invoice":          CreateInvoiceRequest{},
	"generate-invoice":        GenerateInvoiceRequest{},
	"update-invoice":          UpdateInvoiceRequest{},
	"transition":              TransitionRequest{},
	"credit-note":             CreditNoteRequest{},
	"apply-discount":          ApplyDiscountRequest{},
	"record-payment":          RecordPaymentRequest{},
	"refund":                  RefundRequest{},
	"create-supplier-payment": CreateSupplierPaymentRequest{},
	"update-supplier-payment": UpdateSupplierPaymentRequest{},
	"create-discount-program": CreateDiscountProgramRequest{},
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// SchemaNames lists the names accepted by Schema, sorted.
func SchemaNames() []string {
	names := make([]string, 0, len(requestTypes))
	for name := range requestTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schema returns the JSON schema of the named request type.
func Schema(name string) (*jsonschema.Schema, error) {
	v, ok := requestTypes[name]
	if !ok {
		return nil, core.NotFound("schema %q not found", name)
	}
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == decimalType {
				return &jsonschema.Schema{Type: "string", Pattern: `^-?[0-9]+(\.[0-9]+)?$`}
			}
			return nil
		},
	}
	return reflector.Reflect(v), nil
}
