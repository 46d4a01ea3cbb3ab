package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/StrateZone/Web-sub000/internal/booking"
)

type HistoryLister interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]booking.HistoryEntry, error)
}

type HistoryHandler struct {
	Repo HistoryLister
}

type historyItem struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	Reason     string          `json:"reason,omitempty"`
	SlotCount  int             `json:"slot_count"`
	TotalPrice float64         `json:"total_price"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func (h *HistoryHandler) Register(r chi.Router) {
	r.Get("/history/{userID}", h.list)
}

func (h *HistoryHandler) list(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	entries, err := h.Repo.ListByUser(ctx, userID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]historyItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyItem{
			EventID:    e.EventID,
			EventType:  e.EventType,
			Reason:     e.Reason,
			SlotCount:  e.SlotCount,
			TotalPrice: e.TotalPrice,
			Payload:    e.Payload,
			OccurredAt: e.OccurredAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
