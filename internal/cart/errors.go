package cart

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyBooked   = errors.New("table already booked in that slot")
	ErrItemNotFound    = errors.New("booking not found in cart")
	ErrRemovalDeclined = errors.New("removal not confirmed")
	ErrInvalidItem     = errors.New("invalid booking")

	ErrUnknownRejection = errors.New("unknown rejection kind")
)

// BelowMinimumError is returned when a voucher's price floor is not met.
type BelowMinimumError struct {
	VoucherID int64
	BasePrice float64
	Minimum   float64
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("voucher %d requires a minimum price of %.0f, booking costs %.0f", e.VoucherID, e.Minimum, e.BasePrice)
}
