package enums

import "fmt"

// ActivationCodeType distinguishes the role an activation code binds.
type ActivationCodeType string

const (
	ActivationCodeTypeEmployee ActivationCodeType = "employee"
	ActivationCodeTypeAdmin    ActivationCodeType = "admin"
)

var validActivationCodeTypes = []ActivationCodeType{
	ActivationCodeTypeEmployee,
	ActivationCodeTypeAdmin,
}

// String implements fmt.Stringer.
func (t ActivationCodeType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known ActivationCodeType.
func (t ActivationCodeType) IsValid() bool {
	for _, candidate := range validActivationCodeTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseActivationCodeType converts raw input into an ActivationCodeType.
func ParseActivationCodeType(value string) (ActivationCodeType, error) {
	for _, candidate := range validActivationCodeTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activation code type %q", value)
}
