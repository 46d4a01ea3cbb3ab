package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/StrateZone/Web-sub000/internal/backend"
	"github.com/StrateZone/Web-sub000/internal/booking"
	"github.com/StrateZone/Web-sub000/internal/cart"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidTransition = errors.New("invalid checkout transition")
)

const (
	FailTimeout   = "timeout"
	FailTransport = "transport"
	FailUnknown   = "unknown"
)

// Decider stands in for the dialogs shown to the user during checkout.
type Decider interface {
	ConfirmBooking(ctx context.Context, items []cart.LineItem, total float64) (bool, error)
	ContinueCloseToStart(ctx context.Context, soon []cart.LineItem) (bool, error)
}

type Submitter interface {
	Submit(ctx context.Context, req backend.SubmitRequest) (*backend.Receipt, error)
}

type Emitter interface {
	Emit(eventType, userID, traceID string, payload any) error
}

type Flow struct {
	Engine  *cart.Engine
	Backend Submitter
	Decider Decider
	Events  Emitter // optional

	UserID  int64
	TraceID string
	// Items starting sooner than this trigger the close-to-start warning.
	CloseWarning time.Duration
	Location     *time.Location
	Now          func() time.Time

	state State
	trail []State
}

type Result struct {
	State   State            `json:"state"`
	Trail   []State          `json:"trail"`
	Receipt *backend.Receipt `json:"receipt,omitempty"`
	Failure string           `json:"failure,omitempty"`
	Message string           `json:"message,omitempty"`
	Removed []cart.LineItem  `json:"removed,omitempty"`
	Total   float64          `json:"total"`
}

// Run drives one checkout from confirmation to a terminal state. A declined
// decision ends in ABORTED with the cart untouched. The returned error is
// reserved for failures of the flow itself (decider, cart store), backend
// outcomes are reported in the Result.
func (f *Flow) Run(ctx context.Context) (Result, error) {
	if f.Engine.Len() == 0 {
		return Result{}, ErrEmptyCart
	}
	f.state, f.trail = StateConfirming, []State{StateConfirming}
	items, total := f.Engine.Items(), f.Engine.Total()

	ok, err := f.Decider.ConfirmBooking(ctx, items, total)
	if err != nil {
		return f.result(), fmt.Errorf("confirm booking: %w", err)
	}
	if !ok {
		return f.abort()
	}

	if soon := f.closeToStart(items); len(soon) > 0 {
		if err := f.to(StateWarningClose); err != nil {
			return f.result(), err
		}
		ok, err := f.Decider.ContinueCloseToStart(ctx, soon)
		if err != nil {
			return f.result(), fmt.Errorf("close-to-start warning: %w", err)
		}
		if !ok {
			return f.abort()
		}
	}

	if err := f.to(StateSubmitting); err != nil {
		return f.result(), err
	}
	return f.submit(ctx, items, total)
}

const clearTimeout = 3 * time.Second

func (f *Flow) submit(ctx context.Context, items []cart.LineItem, total float64) (Result, error) {
	req := backend.BuildSubmitRequest(f.UserID, items, f.location())
	rc, err := f.Backend.Submit(ctx, req)
	if err == nil {
		if err := f.to(StateSuccess); err != nil {
			return f.result(), err
		}
		res := f.result()
		res.Receipt, res.Total = rc, total
		f.emit(booking.EventBookingSubmitted, booking.BookingSubmittedPayload{
			UserID: f.user(), AppointmentID: rc.ID, Slots: slots(items), TotalPrice: total,
		})
		// the booking exists now; clearing must not fail on a deadline the
		// backend call used up
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), clearTimeout)
		defer cancel()
		if cerr := f.Engine.Clear(cctx); cerr != nil {
			return res, fmt.Errorf("clear cart after booking: %w", cerr)
		}
		return res, nil
	}

	if terr := f.to(StateFailed); terr != nil {
		return f.result(), terr
	}
	res := f.result()
	res.Message = err.Error()

	var rej *backend.RejectionError
	if errors.As(err, &rej) {
		removed, rerr := f.Engine.Reconcile(ctx, rej.Rejection)
		if rerr != nil {
			return res, fmt.Errorf("reconcile cart: %w", rerr)
		}
		res.Failure, res.Removed = string(rej.Rejection.Kind), removed
		res.Total = f.Engine.Total()
		f.emit(booking.EventBookingRejected, booking.BookingRejectedPayload{
			UserID: f.user(), Reason: res.Failure, Message: rej.Message, Removed: slots(removed),
		})
		return res, nil
	}

	var te *backend.TransportError
	switch {
	case errors.Is(err, backend.ErrTimeout):
		res.Failure = FailTimeout
	case errors.As(err, &te):
		res.Failure = FailTransport
	default:
		res.Failure = FailUnknown
	}
	res.Total = total
	f.emit(booking.EventBookingFailed, booking.BookingFailedPayload{
		UserID: f.user(), Reason: res.Failure, Message: res.Message,
	})
	return res, nil
}

func (f *Flow) closeToStart(items []cart.LineItem) []cart.LineItem {
	if f.CloseWarning <= 0 {
		return nil
	}
	now := f.now()
	var soon []cart.LineItem
	for _, it := range items {
		until := it.StartDate.Sub(now)
		if until > 0 && until <= f.CloseWarning {
			soon = append(soon, it)
		}
	}
	return soon
}

func (f *Flow) abort() (Result, error) {
	if err := f.to(StateAborted); err != nil {
		return f.result(), err
	}
	res := f.result()
	res.Total = f.Engine.Total()
	return res, nil
}

func (f *Flow) to(next State) error {
	if !CanTransition(f.state, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, f.state, next)
	}
	f.state = next
	f.trail = append(f.trail, next)
	return nil
}

func (f *Flow) result() Result {
	return Result{State: f.state, Trail: append([]State(nil), f.trail...)}
}

func (f *Flow) emit(eventType string, payload any) {
	if f.Events == nil {
		return
	}
	if err := f.Events.Emit(eventType, f.user(), f.TraceID, payload); err != nil {
		log.Printf("checkout: emit %s: %v", eventType, err)
	}
}

func (f *Flow) user() string { return strconv.FormatInt(f.UserID, 10) }

func (f *Flow) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *Flow) location() *time.Location {
	if f.Location != nil {
		return f.Location
	}
	return time.UTC
}

func slots(items []cart.LineItem) []booking.Slot {
	out := make([]booking.Slot, 0, len(items))
	for _, it := range items {
		out = append(out, booking.Slot{
			TableID:      it.TableID,
			ScheduleTime: it.StartDate,
			EndTime:      it.EndDate,
			Price:        it.TotalPrice,
		})
	}
	return out
}
