package backend

import (
	"time"

	"github.com/StrateZone/Web-sub000/internal/cart"
)

type AppointmentRequest struct {
	Price        float64 `json:"price"`
	TableID      int64   `json:"tableId"`
	ScheduleTime string  `json:"scheduleTime"`
	EndTime      string  `json:"endTime"`
	InvitedUsers []int64 `json:"invitedUsers"`
	VoucherID    *int64  `json:"voucherId"`
}

type SubmitRequest struct {
	UserID                    int64                `json:"userId"`
	TablesAppointmentRequests []AppointmentRequest `json:"tablesAppointmentRequests"`
	TotalPrice                float64              `json:"totalPrice"`
}

type Receipt struct {
	ID         int64   `json:"id"`
	Status     string  `json:"status"`
	TotalPrice float64 `json:"totalPrice"`
}

// Settings are the remote system settings the cart cares about. Zero
// values mean the backend did not provide them.
type Settings struct {
	AppointmentSharePercentage float64 `json:"percentage_Appointment_Share"`
	MergeToleranceMinutes      int     `json:"minutes_Merge_Tolerance"`
}

// BuildSubmitRequest maps cart items to the submission payload. Times are
// sent as RFC 3339 in the venue location.
func BuildSubmitRequest(userID int64, items []cart.LineItem, loc *time.Location) SubmitRequest {
	req := SubmitRequest{
		UserID:                    userID,
		TablesAppointmentRequests: make([]AppointmentRequest, 0, len(items)),
	}
	for _, it := range items {
		invited := make([]int64, 0, len(it.InvitedUsers))
		for _, u := range it.InvitedUsers {
			invited = append(invited, u.UserID)
		}
		ar := AppointmentRequest{
			Price:        it.TotalPrice,
			TableID:      it.TableID,
			ScheduleTime: it.StartDate.In(loc).Format(time.RFC3339),
			EndTime:      it.EndDate.In(loc).Format(time.RFC3339),
			InvitedUsers: invited,
		}
		if it.AppliedVoucher != nil {
			id := it.AppliedVoucher.VoucherID
			ar.VoucherID = &id
		}
		req.TablesAppointmentRequests = append(req.TablesAppointmentRequests, ar)
		req.TotalPrice += it.TotalPrice
	}
	return req
}
