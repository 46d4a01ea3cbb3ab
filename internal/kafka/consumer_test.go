package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrying_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	h := Retrying(func(context.Context, kafka.Message) error {
		calls++
		if calls < 3 {
			return errors.New("db down")
		}
		return nil
	}, time.Millisecond, 2*time.Millisecond)

	require.NoError(t, h(context.Background(), kafka.Message{Offset: 7}))
	assert.Equal(t, 3, calls)
}

func TestRetrying_StopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	h := Retrying(func(context.Context, kafka.Message) error {
		calls++
		cancel()
		return errors.New("db down")
	}, time.Hour, time.Hour)

	err := h(ctx, kafka.Message{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestWorkerFor(t *testing.T) {
	assert.Equal(t, 0, workerFor(0, 4))
	assert.Equal(t, 1, workerFor(5, 4))
	assert.Equal(t, workerFor(5, 4), workerFor(5, 4))
	assert.Equal(t, 0, workerFor(3, 1))
}
