package kafka

import (
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnwrapPayload(t *testing.T) {
	type p struct {
		UserID string `json:"user_id"`
	}
	got, err := UnwrapPayload[p](json.RawMessage(`{"user_id":"7"}`))
	require.NoError(t, err)
	assert.Equal(t, "7", got.UserID)

	_, err = UnwrapPayload[p](json.RawMessage(`[`))
	assert.ErrorContains(t, err, "decode payload")
}

func TestHeader(t *testing.T) {
	m := kafka.Message{Headers: []kafka.Header{{Key: "x-event-type", Value: []byte("BookingFailed")}}}
	assert.Equal(t, "BookingFailed", Header(m, "x-event-type"))
	assert.Empty(t, Header(m, "x-missing"))
}
