package checkout

import (
	"context"

	"github.com/StrateZone/Web-sub000/internal/cart"
)

// Decisions answers the checkout dialogs with answers collected up front,
// e.g. from a request body.
type Decisions struct {
	Confirm       bool `json:"confirm"`
	ContinueClose bool `json:"continueClose"`
}

func (d Decisions) ConfirmBooking(context.Context, []cart.LineItem, float64) (bool, error) {
	return d.Confirm, nil
}

func (d Decisions) ContinueCloseToStart(context.Context, []cart.LineItem) (bool, error) {
	return d.ContinueClose, nil
}
