package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	// Slots of the same table and day closer than this are merged.
	MergeTolerance time.Duration
	// Share of the price the inviter pays once a booking has invitees.
	InvitationShare float64
	// Location that decides what "the same calendar day" means.
	Location *time.Location
	Now      func() time.Time
}

func DefaultConfig() Config {
	return Config{
		MergeTolerance:  time.Hour,
		InvitationShare: 0.5,
		Location:        time.FixedZone("ICT", 7*60*60),
		Now:             time.Now,
	}
}

// Confirmer answers a yes/no question put to the user.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) { return f(ctx, prompt) }

// Answer is a Confirmer with a fixed reply.
type Answer bool

func (a Answer) Confirm(context.Context, string) (bool, error) { return bool(a), nil }

// Engine owns one cart. Every mutation rewrites the whole list to the
// store before the in-memory copy is replaced, so both always agree.
// An Engine is not safe for concurrent use.
type Engine struct {
	store Store
	key   string
	cfg   Config
	items []LineItem
}

func Open(ctx context.Context, store Store, key string, cfg Config) (*Engine, error) {
	def := DefaultConfig()
	switch {
	case cfg.MergeTolerance == 0:
		cfg.MergeTolerance = def.MergeTolerance
	case cfg.MergeTolerance < 0:
		// negative disables the tolerance; only overlapping slots merge
		cfg.MergeTolerance = 0
	}
	if cfg.InvitationShare <= 0 {
		cfg.InvitationShare = def.InvitationShare
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}
	e := &Engine{store: store, key: key, cfg: cfg}

	blob, err := store.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", key, err)
	}
	if len(blob) > 0 {
		if err := json.Unmarshal(blob, &e.items); err != nil {
			return nil, fmt.Errorf("decode cart %s: %w", key, err)
		}
	}
	return e, nil
}

func (e *Engine) Key() string { return e.key }

// Items returns a copy of the cart in order.
func (e *Engine) Items() []LineItem {
	out := make([]LineItem, 0, len(e.items))
	for _, it := range e.items {
		out = append(out, it.clone())
	}
	return out
}

func (e *Engine) Len() int { return len(e.items) }

// Total sums the item prices. Never cached.
func (e *Engine) Total() float64 {
	sum := decimal.Zero
	for _, it := range e.items {
		sum = sum.Add(decimal.NewFromFloat(it.TotalPrice))
	}
	return sum.InexactFloat64()
}

func (e *Engine) Find(k Key) (LineItem, bool) {
	if i := e.indexOf(k); i >= 0 {
		return e.items[i].clone(), true
	}
	return LineItem{}, false
}

// Add puts a candidate into the cart, merging it with every slot of the
// same table and day that overlaps it or lies within the merge tolerance.
// A candidate already covered by an existing slot is rejected.
func (e *Engine) Add(ctx context.Context, cand LineItem) (LineItem, error) {
	if cand.TableID <= 0 {
		return LineItem{}, fmt.Errorf("%w: missing table id", ErrInvalidItem)
	}
	if !cand.EndDate.After(cand.StartDate) {
		return LineItem{}, fmt.Errorf("%w: end must be after start", ErrInvalidItem)
	}
	cand = cand.clone()
	if cand.DurationInHours == 0 {
		cand.DurationInHours = Hours(cand.StartDate, cand.EndDate)
	}
	if cand.TotalPrice == 0 {
		e.reprice(&cand)
	}

	for _, ex := range e.items {
		if ex.TableID != cand.TableID {
			continue
		}
		if !ex.StartDate.After(cand.StartDate) && !ex.EndDate.Before(cand.EndDate) {
			return LineItem{}, ErrAlreadyBooked
		}
		// an overlap that cannot merge (across midnight) would leave two
		// items holding the same table at once
		if overlaps(ex, cand) && !e.mergeable(ex, cand) {
			return LineItem{}, fmt.Errorf("%w: overlaps %s-%s", ErrAlreadyBooked,
				ex.StartDate.Format(time.RFC3339), ex.EndDate.Format(time.RFC3339))
		}
	}

	next := make([]LineItem, 0, len(e.items)+1)
	minStart, maxEnd := cand.StartDate, cand.EndDate
	merged := false
	for _, ex := range e.items {
		if !e.mergeable(ex, cand) {
			next = append(next, ex)
			continue
		}
		merged = true
		if ex.StartDate.Before(minStart) {
			minStart = ex.StartDate
		}
		if ex.EndDate.After(maxEnd) {
			maxEnd = ex.EndDate
		}
	}

	out := cand
	if merged {
		out.StartDate, out.EndDate = minStart, maxEnd
		out.DurationInHours = Hours(minStart, maxEnd)
		out.AppliedVoucher = nil
		out.OriginalPrice = nil
		out.HasInvitations = false
		out.InvitedUsers = nil
		out.TotalPrice = BasePrice(out)
	} else if v := out.AppliedVoucher; v != nil {
		base := BasePrice(out)
		if base < v.MinPriceCondition {
			return LineItem{}, &BelowMinimumError{VoucherID: v.VoucherID, BasePrice: base, Minimum: v.MinPriceCondition}
		}
		e.takeVoucher(next, v.VoucherID)
		out.OriginalPrice = &base
		e.reprice(&out)
	}
	next = append(next, out)

	if err := e.commit(ctx, next); err != nil {
		return LineItem{}, err
	}
	return out.clone(), nil
}

func (e *Engine) mergeable(ex, cand LineItem) bool {
	if ex.TableID != cand.TableID || !e.sameDay(ex.StartDate, cand.StartDate) {
		return false
	}
	tol := e.cfg.MergeTolerance
	return ex.StartDate.Sub(cand.EndDate) <= tol && cand.StartDate.Sub(ex.EndDate) <= tol
}

func overlaps(a, b LineItem) bool {
	return a.StartDate.Before(b.EndDate) && b.StartDate.Before(a.EndDate)
}

func (e *Engine) sameDay(a, b time.Time) bool {
	ay, am, ad := a.In(e.cfg.Location).Date()
	by, bm, bd := b.In(e.cfg.Location).Date()
	return ay == by && am == bm && ad == bd
}

// Remove deletes one item. Items with invitees are only removed after c
// confirms, since removing them cancels the invitations as well.
func (e *Engine) Remove(ctx context.Context, k Key, c Confirmer) error {
	i := e.indexOf(k)
	if i < 0 {
		return ErrItemNotFound
	}
	if n := len(e.items[i].InvitedUsers); n > 0 {
		if c == nil {
			return ErrRemovalDeclined
		}
		ok, err := c.Confirm(ctx, fmt.Sprintf("Removing this booking cancels %d invitation(s). Continue?", n))
		if err != nil {
			return err
		}
		if !ok {
			return ErrRemovalDeclined
		}
	}
	next := make([]LineItem, 0, len(e.items)-1)
	next = append(next, e.items[:i]...)
	next = append(next, e.items[i+1:]...)
	return e.commit(ctx, next)
}

// ApplyVoucher attaches v to the item at k, taking it away from any other
// item holding the same voucher. A nil v clears the item's voucher.
func (e *Engine) ApplyVoucher(ctx context.Context, k Key, v *Voucher) (LineItem, error) {
	i := e.indexOf(k)
	if i < 0 {
		return LineItem{}, ErrItemNotFound
	}
	next := e.Items()
	target := &next[i]
	base := BasePrice(*target)

	if v == nil {
		target.AppliedVoucher = nil
		target.OriginalPrice = nil
		e.reprice(target)
		if err := e.commit(ctx, next); err != nil {
			return LineItem{}, err
		}
		return target.clone(), nil
	}

	if base < v.MinPriceCondition {
		return LineItem{}, &BelowMinimumError{VoucherID: v.VoucherID, BasePrice: base, Minimum: v.MinPriceCondition}
	}
	vc := *v
	target.AppliedVoucher = nil
	e.takeVoucher(next, v.VoucherID)
	target.AppliedVoucher = &vc
	target.OriginalPrice = &base
	e.reprice(target)
	if err := e.commit(ctx, next); err != nil {
		return LineItem{}, err
	}
	return target.clone(), nil
}

// takeVoucher strips voucherID from every item in items that holds it.
func (e *Engine) takeVoucher(items []LineItem, voucherID int64) {
	for j := range items {
		if items[j].AppliedVoucher == nil || items[j].AppliedVoucher.VoucherID != voucherID {
			continue
		}
		items[j].AppliedVoucher = nil
		items[j].OriginalPrice = nil
		e.reprice(&items[j])
	}
}

// AddInvitation adds u to the item's invitees. The first invitee switches
// the item to the shared price; later ones leave the price alone.
func (e *Engine) AddInvitation(ctx context.Context, k Key, u InvitedUser) (LineItem, error) {
	i := e.indexOf(k)
	if i < 0 {
		return LineItem{}, ErrItemNotFound
	}
	next := e.Items()
	it := &next[i]
	for _, x := range it.InvitedUsers {
		if x.UserID == u.UserID {
			return it.clone(), nil
		}
	}
	it.InvitedUsers = append(it.InvitedUsers, u)
	if !it.HasInvitations {
		it.HasInvitations = true
		e.reprice(it)
	}
	if err := e.commit(ctx, next); err != nil {
		return LineItem{}, err
	}
	return it.clone(), nil
}

// RemoveInvitation drops a single invitee. Dropping the last one restores
// the full price. An unknown userID leaves the cart and the store untouched.
func (e *Engine) RemoveInvitation(ctx context.Context, k Key, userID int64) (LineItem, error) {
	i := e.indexOf(k)
	if i < 0 {
		return LineItem{}, ErrItemNotFound
	}
	next := e.Items()
	it := &next[i]
	kept := it.InvitedUsers[:0]
	for _, x := range it.InvitedUsers {
		if x.UserID != userID {
			kept = append(kept, x)
		}
	}
	if len(kept) == len(e.items[i].InvitedUsers) {
		return e.items[i].clone(), nil
	}
	it.InvitedUsers = kept
	if len(kept) == 0 {
		it.InvitedUsers = nil
		it.HasInvitations = false
	}
	e.reprice(it)
	if err := e.commit(ctx, next); err != nil {
		return LineItem{}, err
	}
	return it.clone(), nil
}

func (e *Engine) CancelInvitations(ctx context.Context, k Key) (LineItem, error) {
	i := e.indexOf(k)
	if i < 0 {
		return LineItem{}, ErrItemNotFound
	}
	next := e.Items()
	it := &next[i]
	it.InvitedUsers = nil
	it.HasInvitations = false
	e.reprice(it)
	if err := e.commit(ctx, next); err != nil {
		return LineItem{}, err
	}
	return it.clone(), nil
}

// Clear empties the cart, typically after a successful submission.
func (e *Engine) Clear(ctx context.Context) error {
	return e.commit(ctx, []LineItem{})
}

func (e *Engine) indexOf(k Key) int {
	for i, it := range e.items {
		if k.Matches(it) {
			return i
		}
	}
	return -1
}

func (e *Engine) commit(ctx context.Context, next []LineItem) error {
	if next == nil {
		next = []LineItem{}
	}
	blob, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := e.store.Save(ctx, e.key, blob); err != nil {
		return fmt.Errorf("save cart %s: %w", e.key, err)
	}
	e.items = next
	return nil
}
