package httpapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoginLimiterBlocksAfterBurst(t *testing.T) {
	l := newLoginLimiter()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		assert.True(t, l.Allow("ip:1.2.3.4", now), "attempt %d", i)
	}
	assert.False(t, l.Allow("ip:1.2.3.4", now))
	assert.True(t, l.Allow("ip:5.6.7.8", now), "other keys are independent")

	assert.True(t, l.Allow("ip:1.2.3.4", now.Add(31*time.Second)))
}

func TestLoginLimiterForgetsIdleKeys(t *testing.T) {
	l := newLoginLimiter()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	l.Allow("login:alice", now)
	l.Allow("login:bob", now.Add(11*time.Minute))

	_, ok := l.entries["login:alice"]
	assert.False(t, ok)
	assert.Len(t, l.entries, 1)
}
