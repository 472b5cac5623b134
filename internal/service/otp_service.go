package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/eventreg-api/internal/domain/entity"
	"github.com/yourusername/eventreg-api/internal/domain/repository"
	apperrors "github.com/yourusername/eventreg-api/internal/pkg/errors"
)

// otpLockKey is the single global mutex key serializing OTP critical
// sections for every email.
const otpLockKey = "otp:lock"

// otpLockTTL bounds how long a crashed holder can keep the lock.
const otpLockTTL = 5 * time.Second

// TokenIssuer mints an admin session token after a verified OTP.
type TokenIssuer interface {
	Generate(email, name, role string) (string, error)
}

// OTPIssueResult is returned by a successful SEND_OTP.
type OTPIssueResult struct {
	Email     string `json:"email"`
	ExpiresIn int    `json:"expiresIn"` // minutes
}

// OTPVerifyResult is returned by a successful VERIFY_OTP.
type OTPVerifyResult struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Verified bool   `json:"verified"`
	Token    string `json:"token"`
}

// OTPService issues, verifies and invalidates one-time codes for the admin
// portal, and enforces the brute-force lockout policy. Per-email state:
// NONE -> ISSUED -> VERIFIED, with LOCKED overriding everything while the
// lockout window is in force.
type OTPService struct {
	adminRepo    repository.AdminRepository
	otpRepo      repository.OTPRepository
	locker       repository.Locker
	emailService EmailService
	tokenIssuer  TokenIssuer

	codeLength    int
	otpExpiry     time.Duration
	maxFailures   int
	lockoutWindow time.Duration
	codePepper    string

	now func() time.Time
}

func NewOTPService(
	adminRepo repository.AdminRepository,
	otpRepo repository.OTPRepository,
	locker repository.Locker,
	emailService EmailService,
	tokenIssuer TokenIssuer,
	codeLength int,
	otpExpiry time.Duration,
	maxFailures int,
	lockoutWindow time.Duration,
	codePepper string,
) (*OTPService, error) {
	if adminRepo == nil {
		return nil, fmt.Errorf("admin repository is required")
	}
	if otpRepo == nil {
		return nil, fmt.Errorf("otp repository is required")
	}
	if locker == nil {
		return nil, fmt.Errorf("locker is required")
	}
	if emailService == nil {
		return nil, fmt.Errorf("email service is required")
	}
	if tokenIssuer == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	if codeLength <= 0 {
		codeLength = 6
	}
	if otpExpiry <= 0 {
		otpExpiry = 5 * time.Minute
	}
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if lockoutWindow <= 0 {
		lockoutWindow = 15 * time.Minute
	}

	return &OTPService{
		adminRepo:     adminRepo,
		otpRepo:       otpRepo,
		locker:        locker,
		emailService:  emailService,
		tokenIssuer:   tokenIssuer,
		codeLength:    codeLength,
		otpExpiry:     otpExpiry,
		maxFailures:   maxFailures,
		lockoutWindow: lockoutWindow,
		codePepper:    codePepper,
		now:           time.Now,
	}, nil
}

// Issue generates and emails a fresh code for an admin directory email.
// Overwriting the stored record invalidates any previously issued code, so
// at most one live code exists per email.
func (s *OTPService) Issue(ctx context.Context, email string) (*OTPIssueResult, error) {
	email = entity.NormalizeEmail(email)
	if !IsValidEmail(email) {
		return nil, fmt.Errorf("%w: please use your @vishnu.edu.in email address", apperrors.ErrValidation)
	}

	if err := s.checkLockout(ctx, email); err != nil {
		return nil, err
	}

	// An unauthorized lookup counts as a failed attempt, so probing the
	// directory for admin addresses runs into the same lockout.
	admin, err := s.adminRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.recordFailure(ctx, email)
			return nil, ErrNotAuthorized
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}

	code, err := newOTPCode(s.codeLength)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}
	salt, err := newCodeSalt()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}

	now := s.now()
	record := &entity.OTPCode{
		Email:     email,
		CodeHash:  hashCode(code, salt, s.codePepper),
		CodeSalt:  salt,
		ExpiresAt: now.Add(s.otpExpiry),
		IsUsed:    false,
		CreatedAt: now,
	}

	release, err := s.locker.Acquire(ctx, otpLockKey, otpLockTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: could not acquire otp lock: %v", apperrors.ErrInternal, err)
	}
	err = s.otpRepo.SaveCode(ctx, record)
	release()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}

	idempotencyKey := fmt.Sprintf("otp:%s:%s", email, uuid.New().String())
	if err := s.emailService.SendOTPCode(ctx, admin.Email, code, s.otpExpiry, idempotencyKey); err != nil {
		return nil, fmt.Errorf("%w: failed to send otp email: %v", apperrors.ErrInternal, err)
	}

	if err := s.otpRepo.DeleteLockout(ctx, email); err != nil {
		log.Printf("[OTPService] failed to reset lockout for %s: %v", email, err)
	}

	return &OTPIssueResult{
		Email:     email,
		ExpiresIn: int(s.otpExpiry.Minutes()),
	}, nil
}

// Verify consumes a code. Exactly one verification can succeed per issued
// code; any failure mode increments the lockout counter.
func (s *OTPService) Verify(ctx context.Context, email, code string) (*OTPVerifyResult, error) {
	email = entity.NormalizeEmail(email)
	if !IsValidEmail(email) {
		return nil, fmt.Errorf("%w: please use your @vishnu.edu.in email address", apperrors.ErrValidation)
	}

	// Supplied input is normalized to upper case; the stored code is
	// generated upper case, so comparison stays exact.
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != len(otpPrefix)+s.codeLength || !strings.HasPrefix(code, otpPrefix) {
		return nil, fmt.Errorf("%w: that does not look like a valid code", apperrors.ErrValidation)
	}

	if err := s.checkLockout(ctx, email); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, otpLockKey, otpLockTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: could not acquire otp lock: %v", apperrors.ErrInternal, err)
	}

	verifyErr := s.verifyLocked(ctx, email, code)
	release()

	if verifyErr != nil {
		// The counter increment happens outside the critical section; a
		// narrow under-count window under concurrent failures is accepted.
		if isOTPFailure(verifyErr) {
			s.recordFailure(ctx, email)
		}
		return nil, verifyErr
	}

	admin, err := s.adminRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrNotAuthorized
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}

	if err := s.otpRepo.DeleteLockout(ctx, email); err != nil {
		log.Printf("[OTPService] failed to reset lockout for %s: %v", email, err)
	}

	token, err := s.tokenIssuer.Generate(admin.Email, admin.Name, admin.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}

	return &OTPVerifyResult{
		Email:    admin.Email,
		Name:     admin.Name,
		Role:     admin.Role,
		Verified: true,
		Token:    token,
	}, nil
}

// verifyLocked holds the OTP mutex: load, check, and mark used.
func (s *OTPService) verifyLocked(ctx context.Context, email, code string) error {
	record, err := s.otpRepo.GetCode(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return ErrNoCodeFound
		}
		return fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}

	now := s.now()
	if record.IsUsed {
		return ErrCodeAlreadyUsed
	}
	if record.IsExpired(now) {
		return ErrCodeExpired
	}

	expected := hashCode(code, record.CodeSalt, s.codePepper)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(record.CodeHash)) != 1 {
		return ErrCodeMismatch
	}

	usedAt := now
	record.IsUsed = true
	record.UsedAt = &usedAt
	if err := s.otpRepo.SaveCode(ctx, record); err != nil {
		return fmt.Errorf("%w: failed to mark otp used: %v", apperrors.ErrInternal, err)
	}
	return nil
}

// checkLockout enforces the fixed-window lockout, deleting the record
// lazily once the window has elapsed.
func (s *OTPService) checkLockout(ctx context.Context, email string) error {
	lockout, err := s.otpRepo.GetLockout(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}

	now := s.now()
	if lockout.IsActive(now, s.maxFailures, s.lockoutWindow) {
		remaining := lockout.RemainingLockout(now, s.lockoutWindow)
		minutes := int(remaining.Minutes()) + 1
		return fmt.Errorf("%w: try again in %d minute(s)", ErrLockedOut, minutes)
	}

	if lockout.Count >= s.maxFailures {
		// Window elapsed: the lockout is spent, drop it.
		if err := s.otpRepo.DeleteLockout(ctx, email); err != nil {
			log.Printf("[OTPService] failed to drop expired lockout for %s: %v", email, err)
		}
	}
	return nil
}

// recordFailure bumps the consecutive-failure counter. Attrition is the
// goal, not airtight enforcement, so no lock is taken here.
func (s *OTPService) recordFailure(ctx context.Context, email string) {
	lockout, err := s.otpRepo.GetLockout(ctx, email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[OTPService] failed to load lockout for %s: %v", email, err)
			return
		}
		lockout = &entity.Lockout{Email: email}
	}

	lockout.Count++
	lockout.LastAttempt = s.now()
	if err := s.otpRepo.SaveLockout(ctx, lockout); err != nil {
		log.Printf("[OTPService] failed to save lockout for %s: %v", email, err)
	}
}

func isOTPFailure(err error) bool {
	return errors.Is(err, ErrNoCodeFound) ||
		errors.Is(err, ErrCodeAlreadyUsed) ||
		errors.Is(err, ErrCodeExpired) ||
		errors.Is(err, ErrCodeMismatch)
}

func newCodeSalt() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashCode(code, salt, pepper string) string {
	sum := sha256.Sum256([]byte(pepper + ":" + salt + ":" + code))
	return hex.EncodeToString(sum[:])
}
