package backend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrateZone/Web-sub000/internal/cart"
)

var ict = time.FixedZone("ICT", 7*60*60)

func TestParseConflictMessage(t *testing.T) {
	want := cart.Key{
		TableID: 5,
		Start:   time.Date(2024, 1, 1, 10, 0, 0, 0, ict),
		End:     time.Date(2024, 1, 1, 11, 0, 0, 0, ict),
	}

	tests := []struct {
		name string
		msg  string
	}{
		{"zoneless", "Table ID 5, schedule time: 2024-01-01T10:00:00, end time: 2024-01-01T11:00:00"},
		{"trailing sentence", "Table ID 5, schedule time: 2024-01-01T10:00:00, end time: 2024-01-01T11:00:00. Please pick another table."},
		{"with offset", "Booking failed. Table ID 5, schedule time: 2024-01-01T03:00:00Z, end time: 2024-01-01T11:00:00+07:00"},
		{"vietnamese date", "Table ID 5, schedule time: 01/01/2024 10:00, end time: 01/01/2024 11:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConflictMessage(tt.msg, ict)
			require.NoError(t, err)
			assert.Equal(t, want.TableID, got.TableID)
			assert.True(t, want.Start.Equal(got.Start), "start %s", got.Start)
			assert.True(t, want.End.Equal(got.End), "end %s", got.End)
		})
	}
}

func TestParseConflictMessage_Unrecognized(t *testing.T) {
	for _, msg := range []string{
		"",
		"Bàn đã được đặt",
		"Table 5, schedule time: 2024-01-01T10:00:00, end time: 2024-01-01T11:00:00",
		"Table ID 5, schedule time: tomorrow, end time: 2024-01-01T11:00:00",
	} {
		_, err := ParseConflictMessage(msg, ict)
		assert.ErrorIs(t, err, ErrUnrecognizedMessage, msg)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		kind   cart.RejectionKind
		tables int
	}{
		{"bare list", `[{"tableId":1,"scheduleTime":"2024-01-01T10:00:00","endTime":"2024-01-01T11:00:00"},{"tableId":2,"scheduleTime":"2024-01-01T10:00:00","endTime":"2024-01-01T11:00:00"}]`, cart.RejectTablesUnavailable, 2},
		{"wrapped list", `{"message":"tables not available","unavailable_tables":[{"tableId":3,"scheduleTime":"2024-01-01T10:00:00","endTime":"2024-01-01T11:00:00"}]}`, cart.RejectTablesUnavailable, 1},
		{"past time code", `{"code":"PAST_TIME","now":"2024-01-01T12:00:00"}`, cart.RejectPastTime, 0},
		{"past time text", `Cannot book a slot in the past`, cart.RejectPastTime, 0},
		{"conflict in json message", `{"error":"Table ID 9, schedule time: 2024-01-01T10:00:00, end time: 2024-01-01T11:00:00"}`, cart.RejectTableConflict, 1},
		{"conflict plain text", `Table ID 9, schedule time: 2024-01-01T10:00:00, end time: 2024-01-01T11:00:00`, cart.RejectTableConflict, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rej := classify([]byte(tt.body), ict)
			require.NotNil(t, rej)
			assert.Equal(t, tt.kind, rej.Rejection.Kind)
			assert.Len(t, rej.Rejection.Tables, tt.tables)
		})
	}
}

func TestClassify_PastTimeCarriesServerClock(t *testing.T) {
	rej := classify([]byte(`{"code":"PAST_TIME","now":"2024-01-01T12:00:00"}`), ict)
	require.NotNil(t, rej)
	assert.True(t, rej.Rejection.Now.Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, ict)))
}

func TestClassify_Unknown(t *testing.T) {
	for _, body := range []string{``, `{"message":"Insufficient balance"}`, `[]`, `internal error`} {
		assert.Nil(t, classify([]byte(body), ict), body)
	}
}
