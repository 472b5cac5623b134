package repository

import (
	"context"
	"time"

	"github.com/yourusername/eventreg-api/internal/domain/entity"
)

// OTPRepository keeps per-email OTP records and lockout counters.
// SaveCode overwrites any existing record for the email, which is what
// invalidates a previously issued code.
type OTPRepository interface {
	SaveCode(ctx context.Context, code *entity.OTPCode) error
	GetCode(ctx context.Context, email string) (*entity.OTPCode, error)
	GetLockout(ctx context.Context, email string) (*entity.Lockout, error)
	SaveLockout(ctx context.Context, lockout *entity.Lockout) error
	DeleteLockout(ctx context.Context, email string) error
}

// Locker is a short-lived named mutual-exclusion lock shared across
// concurrent requests (and across instances when backed by Redis).
// Acquire blocks up to its configured wait and returns a release func.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}
