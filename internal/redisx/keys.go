package redisx

import (
	"fmt"
	"time"
)

const (
	// Cart blob per user: booking_cart:{user_id} -> JSON array of line items
	KeyCart = "booking_cart:%s"

	// Checkout idempotency: idem:checkout:{user_id}:{idempotency_key} -> JSON checkout result
	KeyIdemCheckout = "idem:checkout:%s:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLCart        = 30 * 24 * time.Hour
	TTLIdempotency = 24 * time.Hour
	TTLDedup       = 48 * time.Hour
)

func CartKey(userID string) string { return fmt.Sprintf(KeyCart, userID) }

func CheckoutKey(userID, idem string) string { return fmt.Sprintf(KeyIdemCheckout, userID, idem) }

func DedupKey(service, id string) string { return fmt.Sprintf(KeyDedup, service, id) }
