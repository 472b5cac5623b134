package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/yourusername/eventreg-api/internal/domain/entity"
	apperrors "github.com/yourusername/eventreg-api/internal/pkg/errors"
)

const (
	otpKeyPrefix     = "otp:code:"
	lockoutKeyPrefix = "otp:lockout:"

	// Records outlive their logical windows a little so that "expired" and
	// "already used" remain distinguishable from "no code found".
	recordSlack = 30 * time.Minute
)

// OTPRepo stores per-email OTP records and lockout counters in Redis.
type OTPRepo struct {
	client redis.UniversalClient

	// lockoutWindow bounds the TTL of lockout records.
	lockoutWindow time.Duration
	// codeExpiry bounds the TTL of code records.
	codeExpiry time.Duration
}

func NewOTPRepo(client redis.UniversalClient, codeExpiry, lockoutWindow time.Duration) (*OTPRepo, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil for OTPRepo")
	}
	if codeExpiry <= 0 {
		codeExpiry = 5 * time.Minute
	}
	if lockoutWindow <= 0 {
		lockoutWindow = 15 * time.Minute
	}
	return &OTPRepo{
		client:        client,
		codeExpiry:    codeExpiry,
		lockoutWindow: lockoutWindow,
	}, nil
}

// SaveCode overwrites the OTP record for the email. Overwrite-not-append is
// what guarantees at most one live code per email.
func (r *OTPRepo) SaveCode(ctx context.Context, code *entity.OTPCode) error {
	data, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("failed to marshal otp record: %w", err)
	}
	return r.client.Set(ctx, otpKeyPrefix+entity.NormalizeEmail(code.Email), data, r.codeExpiry+recordSlack).Err()
}

func (r *OTPRepo) GetCode(ctx context.Context, email string) (*entity.OTPCode, error) {
	data, err := r.client.Get(ctx, otpKeyPrefix+entity.NormalizeEmail(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get otp record: %w", err)
	}
	var code entity.OTPCode
	if err := json.Unmarshal(data, &code); err != nil {
		return nil, fmt.Errorf("failed to unmarshal otp record: %w", err)
	}
	return &code, nil
}

func (r *OTPRepo) GetLockout(ctx context.Context, email string) (*entity.Lockout, error) {
	data, err := r.client.Get(ctx, lockoutKeyPrefix+entity.NormalizeEmail(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lockout record: %w", err)
	}
	var lockout entity.Lockout
	if err := json.Unmarshal(data, &lockout); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lockout record: %w", err)
	}
	return &lockout, nil
}

func (r *OTPRepo) SaveLockout(ctx context.Context, lockout *entity.Lockout) error {
	data, err := json.Marshal(lockout)
	if err != nil {
		return fmt.Errorf("failed to marshal lockout record: %w", err)
	}
	return r.client.Set(ctx, lockoutKeyPrefix+entity.NormalizeEmail(lockout.Email), data, r.lockoutWindow+recordSlack).Err()
}

func (r *OTPRepo) DeleteLockout(ctx context.Context, email string) error {
	return r.client.Del(ctx, lockoutKeyPrefix+entity.NormalizeEmail(email)).Err()
}
