package booking

import (
	"encoding/json"
	"time"
)

const (
	EventBookingSubmitted = "BookingSubmitted"
	EventBookingRejected  = "BookingRejected"
	EventBookingFailed    = "BookingFailed"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // user id
	Payload       json.RawMessage `json:"payload"`
}

type Slot struct {
	TableID      int64     `json:"table_id"`
	ScheduleTime time.Time `json:"schedule_time"`
	EndTime      time.Time `json:"end_time"`
	Price        float64   `json:"price"`
}

type BookingSubmittedPayload struct {
	UserID        string  `json:"user_id"`
	AppointmentID int64   `json:"appointment_id,omitempty"`
	Slots         []Slot  `json:"slots"`
	TotalPrice    float64 `json:"total_price"`
}

type BookingRejectedPayload struct {
	UserID  string `json:"user_id"`
	Reason  string `json:"reason"` // past-time | table-not-available | table-conflict
	Message string `json:"message,omitempty"`
	Removed []Slot `json:"removed"`
}

type BookingFailedPayload struct {
	UserID  string `json:"user_id"`
	Reason  string `json:"reason"` // timeout | transport | unknown
	Message string `json:"message,omitempty"`
}
