package transfer

import (
	"context"

	"bankdesk/internal/transfer/domain"
)

// PinAPI is the part of the banking API used for PIN management.
type PinAPI interface {
	HasPin(ctx context.Context, userID string) (bool, error)
	CreatePin(ctx context.Context, userID, pin string) (string, error)
}

// ValidatePin checks that p is exactly six ASCII digits.
func ValidatePin(p string) error {
	return domain.ValidatePin(p)
}

// RegisterPin creates the user's transfer PIN after checking its format and that confirm matches.
// A PIN can be created once; the server's refusal of a second one is returned as is.
func RegisterPin(ctx context.Context, api PinAPI, userID, pin, confirm string) (string, error) {
	if err := domain.ValidatePin(pin); err != nil {
		return "", err
	}
	if pin != confirm {
		return "", domain.ErrPinMismatch
	}
	return api.CreatePin(ctx, userID, pin)
}

// PinStatus asks the server whether the user has a transfer PIN.
func PinStatus(ctx context.Context, api PinAPI, userID string) (bool, error) {
	return api.HasPin(ctx, userID)
}
