package booking

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type HistoryRepo struct{ DB *pgxpool.Pool }

// Insert records e once; a replayed event_id is ignored and reported as
// inserted=false.
func (r *HistoryRepo) Insert(ctx context.Context, e HistoryEntry) (inserted bool, err error) {
	ct, err := r.DB.Exec(ctx, `
		INSERT INTO booking_history(event_id, event_type, user_id, reason, slot_count, total_price, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING`,
		e.EventID, e.EventType, e.UserID, e.Reason, e.SlotCount, e.TotalPrice, e.Payload, e.OccurredAt,
	)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (r *HistoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.Query(ctx, `
		SELECT event_id, event_type, user_id, reason, slot_count, total_price, payload, occurred_at, created_at
		FROM booking_history WHERE user_id=$1
		ORDER BY occurred_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.EventID, &e.EventType, &e.UserID, &e.Reason, &e.SlotCount, &e.TotalPrice, &e.Payload, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
