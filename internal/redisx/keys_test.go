package redisx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "booking_cart:17", CartKey("17"))
	assert.Equal(t, "idem:checkout:17:abc", CheckoutKey("17", "abc"))
	assert.Equal(t, "dedup:history:e-1", DedupKey("history", "e-1"))
}

func TestNewCartStore_DefaultTTL(t *testing.T) {
	s := NewCartStore(nil, 0)
	assert.Equal(t, TTLCart, s.TTL)
}
