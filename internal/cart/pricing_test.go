package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceOf(t *testing.T) {
	base := LineItem{RoomTypePrice: 60000, GameTypePrice: 40000, DurationInHours: 1}

	tests := []struct {
		name        string
		voucher     *Voucher
		invitations bool
		share       float64
		want        float64
	}{
		{name: "base only", share: 0.5, want: 100000},
		{name: "voucher", voucher: &Voucher{Value: 20000}, share: 0.5, want: 80000},
		{name: "invitations", invitations: true, share: 0.5, want: 50000},
		{name: "voucher then share", voucher: &Voucher{Value: 20000}, invitations: true, share: 0.5, want: 40000},
		{name: "custom share", invitations: true, share: 0.3, want: 30000},
		{name: "voucher above price floors at zero", voucher: &Voucher{Value: 150000}, share: 0.5, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := base
			it.AppliedVoucher = tt.voucher
			it.HasInvitations = tt.invitations
			assert.Equal(t, tt.want, PriceOf(it, tt.share))
		})
	}
}

func TestBasePrice_FractionalHours(t *testing.T) {
	it := LineItem{RoomTypePrice: 50000, GameTypePrice: 30000, DurationInHours: 1.5}
	assert.Equal(t, 120000.0, BasePrice(it))
}
