package app

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"agency-ledger/internal/core"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Numeric tags (gt, gte, lte) compare decimals as float64.
	v.RegisterCustomTypeFunc(func(v reflect.Value) any {
		if d, ok := v.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// check runs struct validation and converts failures into a core validation error.
func check(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return core.Validation("%v", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return core.Validation("%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.SplitN(fe.Namespace(), ".", 2)
	name := fe.Field()
	if len(field) == 2 {
		name = field[1]
	}
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "uuid":
		return name + " must be a UUID"
	case "datetime":
		return name + " must be a date in YYYY-MM-DD format"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", name, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", name, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be %s characters", name, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", name, fe.Tag())
	}
}

// Parsing helpers for fields that have already passed struct validation.

func optionalID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id := uuid.MustParse(s)
	return &id
}

func optionalIDPtr(s *string) *uuid.UUID {
	if s == nil {
		return nil
	}
	return optionalID(*s)
}

func optionalDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil
	}
	return &d
}

func optionalDatePtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	return optionalDate(*s)
}

func dateRange(q DateRangeQuery) (core.DateRange, error) {
	if err := check(q); err != nil {
		return core.DateRange{}, err
	}
	r := core.DateRange{From: optionalDate(q.From), To: optionalDate(q.To)}
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return core.DateRange{}, core.Validation("to must not be before from")
	}
	return r, nil
}

// optionalEnum parses s with parse unless it is empty.
func optionalEnum[T ~string](s string, parse func(string) (T, error)) (*T, error) {
	if s == "" {
		return nil, nil
	}
	v, err := parse(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
