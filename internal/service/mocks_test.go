package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/eventreg-api/internal/domain/entity"
	apperrors "github.com/yourusername/eventreg-api/internal/pkg/errors"
)

// ============================================================================
// Shared mocks and fakes for service tests
// ============================================================================

// MockRegistrationRepository implements repository.RegistrationRepository
type MockRegistrationRepository struct {
	mock.Mock
}

func (m *MockRegistrationRepository) Create(reg *entity.Registration) error {
	args := m.Called(reg)
	return args.Error(0)
}

func (m *MockRegistrationRepository) UpdateIdentifiers(id uint, registrationID, ticketNumber string) error {
	args := m.Called(id, registrationID, ticketNumber)
	return args.Error(0)
}

func (m *MockRegistrationRepository) Count() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRegistrationRepository) ListAll() ([]entity.Registration, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Registration), args.Error(1)
}

// MockAdminRepository implements repository.AdminRepository
type MockAdminRepository struct {
	mock.Mock
}

func (m *MockAdminRepository) GetByEmail(email string) (*entity.Admin, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Admin), args.Error(1)
}

// MockEventRepository implements repository.EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(event *entity.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockEventRepository) GetByID(eventID string) (*entity.Event, error) {
	args := m.Called(eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Event), args.Error(1)
}

func (m *MockEventRepository) GetActive() (*entity.Event, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Event), args.Error(1)
}

func (m *MockEventRepository) List() ([]entity.Event, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Event), args.Error(1)
}

func (m *MockEventRepository) Update(eventID string, updates map[string]interface{}) error {
	args := m.Called(eventID, updates)
	return args.Error(0)
}

func (m *MockEventRepository) Delete(eventID string) error {
	args := m.Called(eventID)
	return args.Error(0)
}

// MockEmailService implements EmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendOTPCode(ctx context.Context, toEmail, code string, expiresIn time.Duration, idempotencyKey string) error {
	args := m.Called(ctx, toEmail, code, expiresIn, idempotencyKey)
	return args.Error(0)
}

func (m *MockEmailService) SendRegistrationConfirmation(ctx context.Context, recipients []string, details ConfirmationDetails) error {
	args := m.Called(ctx, recipients, details)
	return args.Error(0)
}

// MockTokenIssuer implements TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Generate(email, name, role string) (string, error) {
	args := m.Called(email, name, role)
	return args.String(0), args.Error(1)
}

// noopLocker satisfies repository.Locker without any real locking; the
// serialization guarantees are the Redis implementation's concern.
type noopLocker struct{}

func (noopLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	return func() {}, nil
}

// fakeOTPRepo is an in-memory repository.OTPRepository. OTP flows are
// stateful (issue writes what verify reads), which a stateful fake models
// far more naturally than call-by-call mock expectations.
type fakeOTPRepo struct {
	mu       sync.Mutex
	codes    map[string]entity.OTPCode
	lockouts map[string]entity.Lockout
}

func newFakeOTPRepo() *fakeOTPRepo {
	return &fakeOTPRepo{
		codes:    make(map[string]entity.OTPCode),
		lockouts: make(map[string]entity.Lockout),
	}
}

func (f *fakeOTPRepo) SaveCode(ctx context.Context, code *entity.OTPCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[entity.NormalizeEmail(code.Email)] = *code
	return nil
}

func (f *fakeOTPRepo) GetCode(ctx context.Context, email string) (*entity.OTPCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code, ok := f.codes[entity.NormalizeEmail(email)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	out := code
	return &out, nil
}

func (f *fakeOTPRepo) GetLockout(ctx context.Context, email string) (*entity.Lockout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lockout, ok := f.lockouts[entity.NormalizeEmail(email)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	out := lockout
	return &out, nil
}

func (f *fakeOTPRepo) SaveLockout(ctx context.Context, lockout *entity.Lockout) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lockouts[entity.NormalizeEmail(lockout.Email)] = *lockout
	return nil
}

func (f *fakeOTPRepo) DeleteLockout(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.lockouts, entity.NormalizeEmail(email))
	return nil
}
