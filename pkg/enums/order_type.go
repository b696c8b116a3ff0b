package enums

import "fmt"

// OrderType identifies the kind of monetary transaction being reported.
type OrderType string

const (
	OrderTypeDeposit    OrderType = "deposit"
	OrderTypeWithdrawal OrderType = "withdrawal"
	OrderTypeRefund     OrderType = "refund"
)

var validOrderTypes = []OrderType{
	OrderTypeDeposit,
	OrderTypeWithdrawal,
	OrderTypeRefund,
}

// String implements fmt.Stringer.
func (t OrderType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known OrderType.
func (t OrderType) IsValid() bool {
	for _, candidate := range validOrderTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseOrderType converts raw input into an OrderType.
func ParseOrderType(value string) (OrderType, error) {
	for _, candidate := range validOrderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order type %q", value)
}
