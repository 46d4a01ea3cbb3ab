package cart

import (
	"context"
	"fmt"
	"time"
)

type RejectionKind string

const (
	RejectPastTime          RejectionKind = "past-time"
	RejectTablesUnavailable RejectionKind = "table-not-available"
	RejectTableConflict     RejectionKind = "table-conflict"
)

// Rejection is a server refusal of a submission that names which
// items have to leave the cart.
type Rejection struct {
	Kind RejectionKind `json:"kind"`
	// Now is the server's clock for past-time rejections. Zero means the engine clock.
	Now    time.Time `json:"now,omitempty"`
	Tables []Key     `json:"tables,omitempty"`
}

// Reconcile drops the items the rejection names and returns them so they
// can be shown to the user. Calling it again with the same rejection is a no-op.
func (e *Engine) Reconcile(ctx context.Context, r Rejection) ([]LineItem, error) {
	var drop func(LineItem) bool
	switch r.Kind {
	case RejectPastTime:
		now := r.Now
		if now.IsZero() {
			now = e.cfg.Now()
		}
		drop = func(it LineItem) bool { return !it.StartDate.After(now) }
	case RejectTablesUnavailable, RejectTableConflict:
		drop = func(it LineItem) bool {
			for _, k := range r.Tables {
				if k.Matches(it) {
					return true
				}
			}
			return false
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRejection, r.Kind)
	}

	var removed []LineItem
	kept := make([]LineItem, 0, len(e.items))
	for _, it := range e.items {
		if drop(it) {
			removed = append(removed, it.clone())
			continue
		}
		kept = append(kept, it)
	}
	if len(removed) == 0 {
		return nil, nil
	}
	if err := e.commit(ctx, kept); err != nil {
		return nil, err
	}
	return removed, nil
}
