package enums

import "fmt"

// PaymentMethod is the internal bucket a caller-facing payment choice maps to.
type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodUPI  PaymentMethod = "upi"
	PaymentMethodCOD  PaymentMethod = "cod"
	// PaymentMethodOnline is the fallback bucket for unrecognized prepaid
	// methods; checkout never fails on an unknown method string.
	PaymentMethodOnline PaymentMethod = "online"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCard,
	PaymentMethodUPI,
	PaymentMethodCOD,
	PaymentMethodOnline,
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

// RequiresGateway reports whether the method is settled through the payment
// gateway rather than collected on delivery.
func (p PaymentMethod) RequiresGateway() bool {
	return p != PaymentMethodCOD
}

// MapPaymentMethod buckets a caller-supplied method string. Unrecognized
// prepaid methods land in the online bucket instead of failing checkout.
func MapPaymentMethod(value string) PaymentMethod {
	if method, err := ParsePaymentMethod(value); err == nil {
		return method
	}
	return PaymentMethodOnline
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
