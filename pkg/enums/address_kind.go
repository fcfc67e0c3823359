package enums

import "fmt"

// AddressKind distinguishes billing from delivery addresses.
type AddressKind string

const (
	AddressKindBilling  AddressKind = "billing"
	AddressKindDelivery AddressKind = "delivery"
)

var validAddressKinds = []AddressKind{
	AddressKindBilling,
	AddressKindDelivery,
}

// String implements fmt.Stringer.
func (a AddressKind) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AddressKind.
func (a AddressKind) IsValid() bool {
	for _, candidate := range validAddressKinds {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAddressKind converts raw input into an AddressKind.
func ParseAddressKind(value string) (AddressKind, error) {
	for _, candidate := range validAddressKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid address kind %q", value)
}
