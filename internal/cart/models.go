package cart

import "time"

type RoomType string

const (
	RoomBasic     RoomType = "basic"
	RoomPremium   RoomType = "premium"
	RoomOpenSpace RoomType = "openspace"
)

type GameType string

const (
	GameChess   GameType = "chess"
	GameXiangqi GameType = "xiangqi"
	GameGo      GameType = "go"
)

type InvitedUser struct {
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type Voucher struct {
	VoucherID              int64   `json:"voucherId"`
	VoucherName            string  `json:"voucherName"`
	Value                  float64 `json:"value"`
	MinPriceCondition      float64 `json:"minPriceCondition"`
	PointsCost             int     `json:"pointsCost"`
	ContributionPointsCost int     `json:"contributionPointsCost"`
}

// LineItem is one table slot waiting in the cart. It is serialized as-is
// into the blob store, so the json tags are the persisted format.
type LineItem struct {
	TableID         int64         `json:"tableId"`
	RoomID          int64         `json:"roomId"`
	RoomName        string        `json:"roomName"`
	RoomType        RoomType      `json:"roomType"`
	GameTypeID      int64         `json:"gameTypeId"`
	GameTypeName    GameType      `json:"gameTypeName"`
	StartDate       time.Time     `json:"startDate"`
	EndDate         time.Time     `json:"endDate"`
	DurationInHours float64       `json:"durationInHours"`
	RoomTypePrice   float64       `json:"roomTypePrice"`
	GameTypePrice   float64       `json:"gameTypePrice"`
	TotalPrice      float64       `json:"totalPrice"`
	OriginalPrice   *float64      `json:"originalPrice,omitempty"`
	HasInvitations  bool          `json:"hasInvitations"`
	InvitedUsers    []InvitedUser `json:"invitedUsers"`
	AppliedVoucher  *Voucher      `json:"appliedVoucher"`
}

// Key is the identity triple of a line item.
type Key struct {
	TableID int64     `json:"tableId"`
	Start   time.Time `json:"startDate"`
	End     time.Time `json:"endDate"`
}

func (it LineItem) Key() Key {
	return Key{TableID: it.TableID, Start: it.StartDate, End: it.EndDate}
}

// Matches compares instants, so the same moment written with different
// offsets still identifies the same item.
func (k Key) Matches(it LineItem) bool {
	return k.TableID == it.TableID && k.Start.Equal(it.StartDate) && k.End.Equal(it.EndDate)
}

func (it LineItem) hourlyRate() float64 { return it.RoomTypePrice + it.GameTypePrice }

func (it LineItem) clone() LineItem {
	out := it
	if it.InvitedUsers != nil {
		out.InvitedUsers = append([]InvitedUser(nil), it.InvitedUsers...)
	}
	if it.AppliedVoucher != nil {
		v := *it.AppliedVoucher
		out.AppliedVoucher = &v
	}
	if it.OriginalPrice != nil {
		p := *it.OriginalPrice
		out.OriginalPrice = &p
	}
	return out
}
