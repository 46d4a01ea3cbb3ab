package booking

import "time"

// HistoryEntry is one recorded checkout outcome.
type HistoryEntry struct {
	EventID    string
	EventType  string
	UserID     string
	Reason     string
	SlotCount  int
	TotalPrice float64
	Payload    []byte
	OccurredAt time.Time
	CreatedAt  time.Time
}
