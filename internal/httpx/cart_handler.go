package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/StrateZone/Web-sub000/internal/backend"
	"github.com/StrateZone/Web-sub000/internal/cart"
	"github.com/StrateZone/Web-sub000/internal/checkout"
	"github.com/StrateZone/Web-sub000/internal/redisx"
)

type CartHandler struct {
	Store   cart.Store
	Cart    cart.Config
	Backend checkout.Submitter
	Events  checkout.Emitter // optional
	Redis   redis.Cmdable    // optional, checkout idempotency

	CloseWarning time.Duration
	Location     *time.Location
	// CheckoutTimeout bounds a whole checkout, backend call included.
	CheckoutTimeout time.Duration

	locks sync.Map // userID -> *sync.Mutex
}

const (
	cartOpTimeout          = 5 * time.Second
	defaultCheckoutTimeout = 15 * time.Second
)

type cartResp struct {
	Items []cart.LineItem `json:"items"`
	Total float64         `json:"total"`
}

type voucherReq struct {
	Key     cart.Key      `json:"key"`
	Voucher *cart.Voucher `json:"voucher"`
}

type invitationReq struct {
	Key    cart.Key         `json:"key"`
	User   cart.InvitedUser `json:"user"`
	UserID int64            `json:"userId"`
}

func (h *CartHandler) Register(r chi.Router) {
	r.Route("/carts/{userID}", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Delete("/", h.clearCart)
		r.Post("/items", h.addItem)
		r.Delete("/items", h.removeItem)
		r.Put("/items/voucher", h.applyVoucher)
		r.Post("/items/invitations", h.addInvitation)
		r.Delete("/items/invitations", h.removeInvitations)
		r.Post("/reconcile", h.reconcile)
		r.Post("/checkout", h.checkout)
	})
}

func (h *CartHandler) open(ctx context.Context, userID string) (*cart.Engine, error) {
	return cart.Open(ctx, h.Store, redisx.CartKey(userID), h.Cart)
}

// lock serializes the load-mutate-save cycles of one user's cart.
func (h *CartHandler) lock(userID string) func() {
	v, _ := h.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// withEngine resolves the user's cart and hands it to fn while holding the
// user's lock; it writes the error response itself.
func (h *CartHandler) withEngine(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, e *cart.Engine)) {
	ctx, cancel := context.WithTimeout(r.Context(), cartOpTimeout)
	defer cancel()
	h.run(ctx, w, r, fn)
}

func (h *CartHandler) run(ctx context.Context, w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, e *cart.Engine)) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}
	defer h.lock(userID)()

	e, err := h.open(ctx, userID)
	if err != nil {
		log.Printf("open cart user=%s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "cart unavailable")
		return
	}
	fn(ctx, e)
}

func writeCart(w http.ResponseWriter, code int, e *cart.Engine) {
	writeJSON(w, code, cartResp{Items: e.Items(), Total: e.Total()})
}

func writeCartError(w http.ResponseWriter, err error) {
	var below *cart.BelowMinimumError
	switch {
	case errors.Is(err, cart.ErrInvalidItem), errors.Is(err, cart.ErrUnknownRejection):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, cart.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cart.ErrAlreadyBooked), errors.Is(err, cart.ErrRemovalDeclined):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &below):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":     err.Error(),
			"minimum":   below.Minimum,
			"basePrice": below.BasePrice,
		})
	default:
		log.Printf("cart: %v", err)
		writeError(w, http.StatusInternalServerError, "cart update failed")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	h.withEngine(w, r, func(_ context.Context, e *cart.Engine) {
		writeCart(w, http.StatusOK, e)
	})
}

func (h *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	h.withEngine(w, r, func(ctx context.Context, e *cart.Engine) {
		if err := e.Clear(ctx); err != nil {
			writeCartError(w, err)
			return
		}
		writeCart(w, http.StatusOK, e)
	})
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var it cart.LineItem
	if !decode(w, r, &it) {
		return
	}
	h.withEngine(w, r, func(ctx context.Context, e *cart.Engine) {
		if _, err := e.Add(ctx, it); err != nil {
			writeCartError(w, err)
			return
		}
		writeCart(w, http.StatusCreated, e)
	})
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tableID, err := strconv.ParseInt(q.Get("tableId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tableId")
		return
	}
	start, err1 := backend.ParseTime(q.Get("start"), h.location())
	end, err2 := backend.ParseTime(q.Get("end"), h.location())
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "invalid start or end")
		return
	}
	confirm, _ := strconv.ParseBool(q.Get("confirm"))

	h.withEngine(w, r, func(ctx context.Context, e *cart.Engine) {
		k := cart.Key{TableID: tableID, Start: start, End: end}
		if err := e.Remove(ctx, k, cart.Answer(confirm)); err != nil {
			writeCartError(w, err)
			return
		}
		writeCart(w, http.StatusOK, e)
	})
}

func (h *CartHandler) applyVoucher(w http.ResponseWriter, r *http.Request) {
	var req voucherReq
	if !decode(w, r, &req) {
		return
	}
	h.withEngine(w, r, func(ctx context.Context, e *cart.Engine) {
		if _, err := e.ApplyVoucher(ctx, req.Key, req.Voucher); err != nil {
			writeCartError(w, err)
			return
		}
		writeCart(w, http.StatusOK, e)
	})
}

func (h *CartHandler) addInvitation(w http.ResponseWriter, r *http.Request) {
	var req invitationReq
	if !decode(w, r, &req) {
		return
	}
	if req.User.UserID == 0 {
		writeError(w, http.StatusBadRequest, "missing user")
		return
	}
	h.withEngine(w, r, func(ctx context.Context, e *cart.Engine) {
		if _, err := e.AddInvitation(ctx, req.Key, req.User); err != nil {
			writeCartError(w, err)
			return
		}
		writeCart(w, http.StatusOK, e)
	})
}

// removeInvitations drops one invitee when userId is given, all of them otherwise.
func (h *CartHandler) removeInvitations(w http.ResponseWriter, r *http.Request) {
	var req invitationReq
	if !decode(w, r, &req) {
		return
	}
	h.withEngine(w, r, func(ctx context.Context, e *cart.Engine) {
		var err error
		if req.UserID != 0 {
			_, err = e.RemoveInvitation(ctx, req.Key, req.UserID)
		} else {
			_, err = e.CancelInvitations(ctx, req.Key)
		}
		if err != nil {
			writeCartError(w, err)
			return
		}
		writeCart(w, http.StatusOK, e)
	})
}

func (h *CartHandler) reconcile(w http.ResponseWriter, r *http.Request) {
	var rej cart.Rejection
	if !decode(w, r, &rej) {
		return
	}
	switch rej.Kind {
	case cart.RejectPastTime, cart.RejectTablesUnavailable, cart.RejectTableConflict:
	default:
		writeError(w, http.StatusBadRequest, "unknown rejection kind")
		return
	}
	h.withEngine(w, r, func(ctx context.Context, e *cart.Engine) {
		removed, err := e.Reconcile(ctx, rej)
		if err != nil {
			writeCartError(w, err)
			return
		}
		if removed == nil {
			removed = []cart.LineItem{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"removed": removed,
			"items":   e.Items(),
			"total":   e.Total(),
		})
	})
}

func (h *CartHandler) checkout(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	uid, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var dec checkout.Decisions
	if !decode(w, r, &dec) {
		return
	}

	idem := r.Header.Get("Idempotency-Key")

	// A submission in flight is not abandoned when the client goes away.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.checkoutTimeout())
	defer cancel()

	h.run(ctx, w, r, func(ctx context.Context, e *cart.Engine) {
		// checked under the user's lock so a concurrent retry sees the first result
		if idem != "" && h.Redis != nil {
			if b, err := redisx.GetBytes(ctx, h.Redis, redisx.CheckoutKey(userID, idem)); err == nil && b != nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replay", "true")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(b)
				return
			}
		}

		flow := &checkout.Flow{
			Engine:       e,
			Backend:      h.Backend,
			Decider:      dec,
			Events:       h.Events,
			UserID:       uid,
			TraceID:      middleware.GetReqID(r.Context()),
			CloseWarning: h.CloseWarning,
			Location:     h.location(),
		}
		res, err := flow.Run(ctx)
		if errors.Is(err, checkout.ErrEmptyCart) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			log.Printf("checkout user=%s state=%s: %v", userID, res.State, err)
			if !res.State.Terminal() {
				writeError(w, http.StatusInternalServerError, "checkout failed")
				return
			}
		}

		code := checkoutStatus(res)
		if idem != "" && h.Redis != nil && res.State.Terminal() {
			if b, err := json.Marshal(res); err == nil {
				sctx, scancel := context.WithTimeout(context.WithoutCancel(ctx), cartOpTimeout)
				_ = h.Redis.Set(sctx, redisx.CheckoutKey(userID, idem), b, redisx.TTLIdempotency).Err()
				scancel()
			}
		}
		writeJSON(w, code, res)
	})
}

func checkoutStatus(res checkout.Result) int {
	switch res.State {
	case checkout.StateSuccess:
		return http.StatusCreated
	case checkout.StateFailed:
		switch res.Failure {
		case checkout.FailTimeout:
			return http.StatusGatewayTimeout
		case checkout.FailTransport, checkout.FailUnknown:
			return http.StatusBadGateway
		}
		return http.StatusConflict
	}
	return http.StatusOK
}

func (h *CartHandler) checkoutTimeout() time.Duration {
	if h.CheckoutTimeout > 0 {
		return h.CheckoutTimeout
	}
	return defaultCheckoutTimeout
}

func (h *CartHandler) location() *time.Location {
	if h.Location != nil {
		return h.Location
	}
	return time.UTC
}
