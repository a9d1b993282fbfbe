// Package validate wraps go-playground/validator with field names taken from
// json tags and maps failures onto validation errors with per-field details.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/flashmarket/storefront/pkg/enums"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// TagPaymentMethod accepts only the payment methods offered at checkout.
const TagPaymentMethod = "payment_method"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation(TagPaymentMethod, func(fl validator.FieldLevel) bool {
		return enums.PaymentMethod(fl.Field().String()).IsValid()
	})
	return v
}

// Struct validates v against its `validate` tags.
func Struct(v any) error {
	if err := validate.Struct(v); err != nil {
		return formatErrors(err)
	}
	return nil
}

func formatErrors(err error) *pkgerrors.Error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldPath(fieldErr)] = message(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

// fieldPath drops the root struct name so nested fields read "shipping.name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "numeric":
		return "must be numeric"
	case TagPaymentMethod:
		return fmt.Sprintf("must be one of %s", paymentMethodList())
	}
	return "is invalid"
}

func paymentMethodList() string {
	methods := enums.PaymentMethods()
	names := make([]string, 0, len(methods))
	for _, m := range methods {
		names = append(names, m.String())
	}
	return strings.Join(names, " ")
}
