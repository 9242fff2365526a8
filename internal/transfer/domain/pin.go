package domain

// PinLength is the number of digits of a transfer PIN.
const PinLength = 6

// ValidatePin checks that p is exactly six ASCII digits. It does not trim: " 12345" is rejected.
func ValidatePin(p string) error {
	if len(p) != PinLength {
		return &ValidationError{Field: "pin", Reason: "must be exactly 6 digits"}
	}
	for i := 0; i < len(p); i++ {
		if p[i] < '0' || p[i] > '9' {
			return &ValidationError{Field: "pin", Reason: "must be exactly 6 digits"}
		}
	}
	return nil
}
