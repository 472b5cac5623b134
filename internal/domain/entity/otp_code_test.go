package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOTPCode_IsExpired(t *testing.T) {
	expiresAt := time.Date(2026, 2, 14, 10, 5, 0, 0, time.UTC)
	code := &OTPCode{ExpiresAt: expiresAt}

	assert.False(t, code.IsExpired(expiresAt.Add(-time.Second)))
	assert.False(t, code.IsExpired(expiresAt), "the deadline itself is still valid")
	assert.True(t, code.IsExpired(expiresAt.Add(time.Second)))
}

func TestLockout_IsActive(t *testing.T) {
	lastAttempt := time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)
	window := 15 * time.Minute
	threshold := 5

	tests := []struct {
		name   string
		count  int
		now    time.Time
		active bool
	}{
		{"below threshold", 4, lastAttempt.Add(time.Minute), false},
		{"at threshold inside window", 5, lastAttempt.Add(time.Minute), true},
		{"above threshold inside window", 7, lastAttempt.Add(14 * time.Minute), true},
		{"window elapsed", 5, lastAttempt.Add(window), false},
		{"long past the window", 5, lastAttempt.Add(time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lockout := &Lockout{Count: tt.count, LastAttempt: lastAttempt}
			assert.Equal(t, tt.active, lockout.IsActive(tt.now, threshold, window))
		})
	}
}

func TestLockout_RemainingLockout(t *testing.T) {
	lastAttempt := time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)
	lockout := &Lockout{Count: 5, LastAttempt: lastAttempt}
	window := 15 * time.Minute

	assert.Equal(t, 10*time.Minute, lockout.RemainingLockout(lastAttempt.Add(5*time.Minute), window))
	assert.Equal(t, time.Duration(0), lockout.RemainingLockout(lastAttempt.Add(time.Hour), window), "never negative")
}
