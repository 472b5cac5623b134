package entity

import "time"

// OTPCode is the per-email one-time code record kept in Redis. At most one
// live record exists per email; issuing a new code overwrites the old one.
// Codes are stored hashed (sha256 over pepper:salt:code), never in clear.
type OTPCode struct {
	Email     string     `json:"email"`
	CodeHash  string     `json:"code_hash"`
	CodeSalt  string     `json:"code_salt"`
	ExpiresAt time.Time  `json:"expires_at"`
	IsUsed    bool       `json:"is_used"`
	CreatedAt time.Time  `json:"created_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

func (c *OTPCode) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Lockout tracks consecutive failed OTP attempts for one email. The record
// is deleted on any successful send or verification.
type Lockout struct {
	Email       string    `json:"email"`
	Count       int       `json:"count"`
	LastAttempt time.Time `json:"last_attempt"`
}

// IsActive reports whether the lockout is still in force: the failure count
// reached the threshold and the lockout window since the last failure has
// not elapsed yet.
func (l *Lockout) IsActive(now time.Time, threshold int, window time.Duration) bool {
	return l.Count >= threshold && now.Before(l.LastAttempt.Add(window))
}

// RemainingLockout returns how much of the lockout window is left.
func (l *Lockout) RemainingLockout(now time.Time, window time.Duration) time.Duration {
	remaining := l.LastAttempt.Add(window).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
