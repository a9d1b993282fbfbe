package enums

// PaymentMethod is a checkout payment option.
type PaymentMethod string

const (
	PaymentMethodCard  PaymentMethod = "card"
	PaymentMethodBank  PaymentMethod = "bank"
	PaymentMethodKakao PaymentMethod = "kakao"
)

// Display order on the checkout page.
var validPaymentMethods = []PaymentMethod{
	PaymentMethodCard,
	PaymentMethodBank,
	PaymentMethodKakao,
}

// PaymentMethods returns every supported method in display order.
func PaymentMethods() []PaymentMethod {
	out := make([]PaymentMethod, len(validPaymentMethods))
	copy(out, validPaymentMethods)
	return out
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}
