package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Hours returns the length of [start, end) in hours.
func Hours(start, end time.Time) float64 {
	return end.Sub(start).Hours()
}

// BasePrice is the undiscounted price: hourly rate times duration.
func BasePrice(it LineItem) float64 {
	rate := decimal.NewFromFloat(it.RoomTypePrice).Add(decimal.NewFromFloat(it.GameTypePrice))
	return rate.Mul(decimal.NewFromFloat(it.DurationInHours)).Round(0).InexactFloat64()
}

// PriceOf computes the payable price of an item. The voucher is subtracted
// from the base first, the invitation share is applied to what remains.
func PriceOf(it LineItem, invitationShare float64) float64 {
	price := decimal.NewFromFloat(BasePrice(it))
	if v := it.AppliedVoucher; v != nil {
		price = price.Sub(decimal.NewFromFloat(v.Value))
		if price.IsNegative() {
			price = decimal.Zero
		}
	}
	if it.HasInvitations {
		price = price.Mul(decimal.NewFromFloat(invitationShare))
	}
	return price.Round(0).InexactFloat64()
}

func (e *Engine) reprice(it *LineItem) {
	it.TotalPrice = PriceOf(*it, e.cfg.InvitationShare)
}
