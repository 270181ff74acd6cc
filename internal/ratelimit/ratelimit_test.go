package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	krl := New(1, 2)

	assert.True(t, krl.Allow("g1:u1"))
	assert.True(t, krl.Allow("g1:u1"))
	assert.False(t, krl.Allow("g1:u1"), "burst of 2 exhausted")

	// Independent keys get independent buckets.
	assert.True(t, krl.Allow("g1:u2"))
}
