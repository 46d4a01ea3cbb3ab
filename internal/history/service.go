package history

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/StrateZone/Web-sub000/internal/booking"
	kafkax "github.com/StrateZone/Web-sub000/internal/kafka"
	"github.com/StrateZone/Web-sub000/internal/redisx"
)

type Recorder interface {
	Insert(ctx context.Context, e booking.HistoryEntry) (bool, error)
}

type Service struct {
	Repo        Recorder
	Redis       redis.Cmdable // optional fast-path dedup; the table is still keyed by event_id
	ServiceName string
}

// HandleCheckoutEvent is installed as the consumer handler.
func (s *Service) HandleCheckoutEvent(ctx context.Context, m kafkago.Message) error {
	var env booking.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// poison message, nothing to retry
		log.Printf("history: drop undecodable message offset=%d: %v", m.Offset, err)
		return nil
	}

	entry, err := toEntry(env)
	if err != nil {
		return err
	}
	if entry == nil {
		return nil
	}

	if s.Redis != nil {
		first, err := redisx.MarkOnce(ctx, s.Redis, redisx.DedupKey(s.ServiceName, env.EventID), redisx.TTLDedup)
		if err == nil && !first {
			return nil
		}
	}

	inserted, err := s.Repo.Insert(ctx, *entry)
	if err != nil {
		if s.Redis != nil {
			_ = s.Redis.Del(ctx, redisx.DedupKey(s.ServiceName, env.EventID)).Err()
		}
		return err
	}
	if inserted {
		log.Printf("history: %s user=%s reason=%q slots=%d", entry.EventType, entry.UserID, entry.Reason, entry.SlotCount)
	}
	return nil
}

func toEntry(env booking.Envelope) (*booking.HistoryEntry, error) {
	e := &booking.HistoryEntry{
		EventID:    env.EventID,
		EventType:  env.EventType,
		UserID:     env.CorrelationID,
		Payload:    env.Payload,
		OccurredAt: env.OccurredAt,
	}
	switch env.EventType {
	case booking.EventBookingSubmitted:
		p, err := kafkax.UnwrapPayload[booking.BookingSubmittedPayload](env.Payload)
		if err != nil {
			return nil, err
		}
		e.UserID, e.SlotCount, e.TotalPrice = p.UserID, len(p.Slots), p.TotalPrice
	case booking.EventBookingRejected:
		p, err := kafkax.UnwrapPayload[booking.BookingRejectedPayload](env.Payload)
		if err != nil {
			return nil, err
		}
		e.UserID, e.Reason, e.SlotCount = p.UserID, p.Reason, len(p.Removed)
		for _, s := range p.Removed {
			e.TotalPrice += s.Price
		}
	case booking.EventBookingFailed:
		p, err := kafkax.UnwrapPayload[booking.BookingFailedPayload](env.Payload)
		if err != nil {
			return nil, err
		}
		e.UserID, e.Reason = p.UserID, p.Reason
	default:
		return nil, nil
	}
	return e, nil
}
