package checkout

import (
	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/pkg/enums"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/flashmarket/storefront/pkg/types"
	"github.com/flashmarket/storefront/pkg/validate"
)

// PaymentMethods lists the methods offered on the checkout page, in display order.
func PaymentMethods() []string {
	methods := enums.PaymentMethods()
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		out = append(out, m.String())
	}
	return out
}

// SubmitInput is the checkout form.
type SubmitInput struct {
	Shipping      catalog.ShippingInfo `json:"shippingInfo"`
	PaymentMethod enums.PaymentMethod  `json:"paymentMethod" validate:"required,payment_method"`
}

func (in SubmitInput) Validate() error {
	return validate.Struct(in)
}

// PayInput charges a placed order.
type PayInput struct {
	OrderID       types.ID           `json:"orderId" validate:"required"`
	Amount        int64              `json:"amount" validate:"gt=0"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod" validate:"required,payment_method"`
}

func (in PayInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	if _, err := in.OrderID.Int64(); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{
			"orderId": "must be numeric",
		})
	}
	return nil
}
