package backend

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/StrateZone/Web-sub000/internal/cart"
)

var conflictPattern = regexp.MustCompile(`Table ID (\d+), schedule time: ([^,]+), end time: ([0-9][0-9T:+\-/ Z.]*[0-9Z])`)

// zoneless layouts are read in the venue location
var timeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
}

func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	var firstErr error
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// ParseConflictMessage extracts the single conflicting slot from the
// backend's free-text message
// "Table ID 5, schedule time: 2024-01-01T10:00:00, end time: 2024-01-01T11:00:00".
func ParseConflictMessage(msg string, loc *time.Location) (cart.Key, error) {
	m := conflictPattern.FindStringSubmatch(msg)
	if m == nil {
		return cart.Key{}, ErrUnrecognizedMessage
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return cart.Key{}, ErrUnrecognizedMessage
	}
	start, err := ParseTime(m[2], loc)
	if err != nil {
		return cart.Key{}, ErrUnrecognizedMessage
	}
	end, err := ParseTime(m[3], loc)
	if err != nil {
		return cart.Key{}, ErrUnrecognizedMessage
	}
	return cart.Key{TableID: id, Start: start, End: end}, nil
}

type tableSlot struct {
	TableID      int64  `json:"tableId"`
	ScheduleTime string `json:"scheduleTime"`
	EndTime      string `json:"endTime"`
}

type errorBody struct {
	Code              string      `json:"code"`
	Error             string      `json:"error"`
	Message           string      `json:"message"`
	Now               string      `json:"now"`
	UnavailableTables []tableSlot `json:"unavailable_tables"`
	Tables            []tableSlot `json:"tables"`
}

func (b errorBody) text() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}

// classify turns a failed response body into a rejection, or nil when the
// body is not one of the rejections the cart knows how to handle.
func classify(body []byte, loc *time.Location) *RejectionError {
	trimmed := strings.TrimSpace(string(body))

	var list []tableSlot
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 {
		return tablesRejection(list, "", loc)
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		switch {
		case len(eb.UnavailableTables) > 0:
			return tablesRejection(eb.UnavailableTables, eb.text(), loc)
		case len(eb.Tables) > 0:
			return tablesRejection(eb.Tables, eb.text(), loc)
		case strings.EqualFold(eb.Code, "PAST_TIME"):
			r := &RejectionError{Rejection: cart.Rejection{Kind: cart.RejectPastTime}, Message: eb.text()}
			if now, err := ParseTime(eb.Now, loc); err == nil {
				r.Rejection.Now = now
			}
			return r
		}
		if t := eb.text(); t != "" {
			trimmed = t
		}
	}

	if k, err := ParseConflictMessage(trimmed, loc); err == nil {
		return &RejectionError{
			Rejection: cart.Rejection{Kind: cart.RejectTableConflict, Tables: []cart.Key{k}},
			Message:   trimmed,
		}
	}
	if isPastTimeText(trimmed) {
		return &RejectionError{Rejection: cart.Rejection{Kind: cart.RejectPastTime}, Message: trimmed}
	}
	return nil
}

func isPastTimeText(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "in the past") || strings.Contains(s, "past time") || strings.Contains(s, "đã qua")
}

func tablesRejection(slots []tableSlot, msg string, loc *time.Location) *RejectionError {
	keys := make([]cart.Key, 0, len(slots))
	for _, s := range slots {
		start, err1 := ParseTime(s.ScheduleTime, loc)
		end, err2 := ParseTime(s.EndTime, loc)
		if err1 != nil || err2 != nil {
			continue
		}
		keys = append(keys, cart.Key{TableID: s.TableID, Start: start, End: end})
	}
	if len(keys) == 0 {
		return nil
	}
	return &RejectionError{
		Rejection: cart.Rejection{Kind: cart.RejectTablesUnavailable, Tables: keys},
		Message:   msg,
	}
}
