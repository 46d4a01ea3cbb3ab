package history

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrateZone/Web-sub000/internal/booking"
	kafkax "github.com/StrateZone/Web-sub000/internal/kafka"
)

type fakeRecorder struct {
	entries map[string]booking.HistoryEntry
	err     error
}

func (f *fakeRecorder) Insert(_ context.Context, e booking.HistoryEntry) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.entries == nil {
		f.entries = map[string]booking.HistoryEntry{}
	}
	if _, ok := f.entries[e.EventID]; ok {
		return false, nil
	}
	f.entries[e.EventID] = e
	return true, nil
}

func message(t *testing.T, id, typ string, payload any) kafkago.Message {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	b, err := json.Marshal(booking.Envelope{
		EventID:       id,
		EventType:     typ,
		EventVersion:  1,
		OccurredAt:    time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC),
		CorrelationID: "42",
		Payload:       raw,
	})
	require.NoError(t, err)
	return kafkago.Message{Value: b}
}

func TestHandleCheckoutEvent(t *testing.T) {
	rec := &fakeRecorder{}
	svc := &Service{Repo: rec, ServiceName: "history"}
	ctx := context.Background()
	slot := booking.Slot{TableID: 5, Price: 80000}

	require.NoError(t, svc.HandleCheckoutEvent(ctx, message(t, "e1", booking.EventBookingSubmitted,
		booking.BookingSubmittedPayload{UserID: "42", Slots: []booking.Slot{slot, slot}, TotalPrice: 160000})))
	require.NoError(t, svc.HandleCheckoutEvent(ctx, message(t, "e2", booking.EventBookingRejected,
		booking.BookingRejectedPayload{UserID: "42", Reason: "past-time", Removed: []booking.Slot{slot}})))
	require.NoError(t, svc.HandleCheckoutEvent(ctx, message(t, "e3", booking.EventBookingFailed,
		booking.BookingFailedPayload{UserID: "42", Reason: "timeout"})))
	// replay
	require.NoError(t, svc.HandleCheckoutEvent(ctx, message(t, "e1", booking.EventBookingSubmitted,
		booking.BookingSubmittedPayload{UserID: "42"})))

	require.Len(t, rec.entries, 3)
	assert.Equal(t, 2, rec.entries["e1"].SlotCount)
	assert.Equal(t, 160000.0, rec.entries["e1"].TotalPrice)
	assert.Equal(t, "past-time", rec.entries["e2"].Reason)
	assert.Equal(t, 80000.0, rec.entries["e2"].TotalPrice)
	assert.Equal(t, "timeout", rec.entries["e3"].Reason)
	assert.Equal(t, "42", rec.entries["e3"].UserID)
}

func TestHandleCheckoutEvent_IgnoresOtherMessages(t *testing.T) {
	rec := &fakeRecorder{}
	svc := &Service{Repo: rec}

	assert.NoError(t, svc.HandleCheckoutEvent(context.Background(), kafkago.Message{Value: []byte("not json")}))
	assert.NoError(t, svc.HandleCheckoutEvent(context.Background(), message(t, "x", "CartViewed", map[string]string{})))
	assert.Empty(t, rec.entries)
}

type flakyRecorder struct {
	fakeRecorder
	failures int
}

func (f *flakyRecorder) Insert(ctx context.Context, e booking.HistoryEntry) (bool, error) {
	if f.failures > 0 {
		f.failures--
		return false, errors.New("db down")
	}
	return f.fakeRecorder.Insert(ctx, e)
}

func TestHandleCheckoutEvent_RepoErrorIsReturned(t *testing.T) {
	svc := &Service{Repo: &fakeRecorder{err: errors.New("db down")}}
	err := svc.HandleCheckoutEvent(context.Background(), message(t, "e1", booking.EventBookingFailed,
		booking.BookingFailedPayload{UserID: "42", Reason: "unknown"}))
	assert.ErrorContains(t, err, "db down")
}

func TestHandleCheckoutEvent_RecordedAfterRetry(t *testing.T) {
	rec := &flakyRecorder{failures: 2}
	svc := &Service{Repo: rec}
	h := kafkax.Retrying(svc.HandleCheckoutEvent, time.Millisecond, time.Millisecond)

	err := h(context.Background(), message(t, "e1", booking.EventBookingFailed,
		booking.BookingFailedPayload{UserID: "42", Reason: "timeout"}))
	require.NoError(t, err)
	assert.Zero(t, rec.failures)
	assert.Contains(t, rec.entries, "e1")
}
