package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/eventreg-api/internal/domain/entity"
	apperrors "github.com/yourusername/eventreg-api/internal/pkg/errors"
)

const (
	testAdminEmail = "admin@vishnu.edu.in"
	testPepper     = "unit-test-pepper"
)

type otpTestEnv struct {
	svc          *OTPService
	adminRepo    *MockAdminRepository
	otpRepo      *fakeOTPRepo
	emailService *MockEmailService
	tokenIssuer  *MockTokenIssuer
	clock        time.Time
}

func newOTPTestEnv(t *testing.T) *otpTestEnv {
	t.Helper()

	env := &otpTestEnv{
		adminRepo:    new(MockAdminRepository),
		otpRepo:      newFakeOTPRepo(),
		emailService: new(MockEmailService),
		tokenIssuer:  new(MockTokenIssuer),
		clock:        time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC),
	}

	svc, err := NewOTPService(
		env.adminRepo,
		env.otpRepo,
		noopLocker{},
		env.emailService,
		env.tokenIssuer,
		6,
		5*time.Minute,
		5,
		15*time.Minute,
		testPepper,
	)
	require.NoError(t, err)
	svc.now = func() time.Time { return env.clock }
	env.svc = svc
	return env
}

func (env *otpTestEnv) advance(d time.Duration) {
	env.clock = env.clock.Add(d)
}

func (env *otpTestEnv) expectAdmin() {
	env.adminRepo.On("GetByEmail", testAdminEmail).
		Return(&entity.Admin{Email: testAdminEmail, Name: "Portal Admin", Role: "admin"}, nil)
}

func (env *otpTestEnv) expectNoAdmin(email string) {
	env.adminRepo.On("GetByEmail", email).Return(nil, apperrors.ErrNotFound)
}

// issueCode runs Issue and returns the plaintext code that went out by email.
func (env *otpTestEnv) issueCode(t *testing.T) string {
	t.Helper()

	var code string
	env.emailService.On("SendOTPCode", mock.Anything, testAdminEmail, mock.AnythingOfType("string"), 5*time.Minute, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			code = args.String(2)
		}).
		Return(nil).
		Once()

	result, err := env.svc.Issue(context.Background(), testAdminEmail)
	require.NoError(t, err)
	require.Equal(t, testAdminEmail, result.Email)
	require.Equal(t, 5, result.ExpiresIn)
	require.NotEmpty(t, code)
	return code
}

func (env *otpTestEnv) failureCount(t *testing.T) int {
	t.Helper()
	lockout, err := env.otpRepo.GetLockout(context.Background(), testAdminEmail)
	if err != nil {
		require.ErrorIs(t, err, apperrors.ErrNotFound)
		return 0
	}
	return lockout.Count
}

func TestOTPService_IssueAndVerify_RoundTrip(t *testing.T) {
	// Arrange
	env := newOTPTestEnv(t)
	env.expectAdmin()
	env.tokenIssuer.On("Generate", testAdminEmail, "Portal Admin", "admin").
		Return("session-token", nil)

	// Act
	code := env.issueCode(t)
	result, err := env.svc.Verify(context.Background(), testAdminEmail, code)

	// Assert
	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.Equal(t, testAdminEmail, result.Email)
	assert.Equal(t, "Portal Admin", result.Name)
	assert.Equal(t, "admin", result.Role)
	assert.Equal(t, "session-token", result.Token)
	assert.Regexp(t, `^VSB-[A-HJ-KM-NP-Z2-9]{6}$`, code)
}

func TestOTPService_Verify_CodeIsSingleUse(t *testing.T) {
	env := newOTPTestEnv(t)
	env.expectAdmin()
	env.tokenIssuer.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return("session-token", nil)

	code := env.issueCode(t)

	_, err := env.svc.Verify(context.Background(), testAdminEmail, code)
	require.NoError(t, err)

	// The same code a second time is a failure and counts toward lockout.
	_, err = env.svc.Verify(context.Background(), testAdminEmail, code)
	require.ErrorIs(t, err, ErrCodeAlreadyUsed)
	assert.Equal(t, 1, env.failureCount(t))
}

func TestOTPService_Verify_AcceptsLowercaseInput(t *testing.T) {
	env := newOTPTestEnv(t)
	env.expectAdmin()
	env.tokenIssuer.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return("session-token", nil)

	code := env.issueCode(t)

	result, err := env.svc.Verify(context.Background(), "Admin@Vishnu.edu.in", "  "+strings.ToLower(code)+"  ")

	require.NoError(t, err)
	assert.True(t, result.Verified)
}

func TestOTPService_Verify_Expired(t *testing.T) {
	env := newOTPTestEnv(t)
	env.expectAdmin()

	code := env.issueCode(t)
	env.advance(5*time.Minute + time.Second)

	_, err := env.svc.Verify(context.Background(), testAdminEmail, code)

	require.ErrorIs(t, err, ErrCodeExpired)
	assert.Equal(t, 1, env.failureCount(t))
}

func TestOTPService_Verify_Mismatch(t *testing.T) {
	env := newOTPTestEnv(t)
	env.expectAdmin()

	env.issueCode(t)

	_, err := env.svc.Verify(context.Background(), testAdminEmail, "VSB-ZZZZZZ")

	require.ErrorIs(t, err, ErrCodeMismatch)
	assert.Equal(t, 1, env.failureCount(t))
}

func TestOTPService_Verify_NoCodeFound(t *testing.T) {
	env := newOTPTestEnv(t)

	_, err := env.svc.Verify(context.Background(), testAdminEmail, "VSB-ABC234")

	require.ErrorIs(t, err, ErrNoCodeFound)
	assert.Equal(t, 1, env.failureCount(t))
}

func TestOTPService_Verify_MalformedCodeDoesNotCountAsFailure(t *testing.T) {
	env := newOTPTestEnv(t)

	for _, code := range []string{"", "123456", "VSB-ABC", "XXX-ABC234", "VSB-ABC2345"} {
		_, err := env.svc.Verify(context.Background(), testAdminEmail, code)
		require.ErrorIs(t, err, apperrors.ErrValidation, "code %q", code)
	}

	assert.Equal(t, 0, env.failureCount(t))
}

func TestOTPService_Issue_UnauthorizedEmailCountsAsFailure(t *testing.T) {
	// Arrange: the address is well-formed but not in the admin directory, so
	// probing it feeds the same lockout as wrong codes.
	env := newOTPTestEnv(t)
	env.expectNoAdmin("stranger@vishnu.edu.in")

	// Act
	_, err := env.svc.Issue(context.Background(), "stranger@vishnu.edu.in")

	// Assert
	require.ErrorIs(t, err, ErrNotAuthorized)
	lockout, lerr := env.otpRepo.GetLockout(context.Background(), "stranger@vishnu.edu.in")
	require.NoError(t, lerr)
	assert.Equal(t, 1, lockout.Count)
}

func TestOTPService_Issue_RejectsExternalDomain(t *testing.T) {
	env := newOTPTestEnv(t)

	_, err := env.svc.Issue(context.Background(), "admin@gmail.com")

	require.ErrorIs(t, err, apperrors.ErrValidation)
	env.adminRepo.AssertNotCalled(t, "GetByEmail", mock.Anything)
}

func TestOTPService_Issue_FreshCodeInvalidatesPrevious(t *testing.T) {
	env := newOTPTestEnv(t)
	env.expectAdmin()
	env.tokenIssuer.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return("session-token", nil)

	first := env.issueCode(t)
	second := env.issueCode(t)
	require.NotEqual(t, first, second)

	// The overwritten code no longer matches the stored hash.
	_, err := env.svc.Verify(context.Background(), testAdminEmail, first)
	require.ErrorIs(t, err, ErrCodeMismatch)

	result, err := env.svc.Verify(context.Background(), testAdminEmail, second)
	require.NoError(t, err)
	assert.True(t, result.Verified)
}

func TestOTPService_Lockout_EngagesAfterMaxFailures(t *testing.T) {
	env := newOTPTestEnv(t)
	env.expectAdmin()

	env.issueCode(t)
	for i := 0; i < 5; i++ {
		_, err := env.svc.Verify(context.Background(), testAdminEmail, "VSB-ZZZZZZ")
		require.ErrorIs(t, err, ErrCodeMismatch, "attempt %d", i+1)
	}

	// Sixth attempt never reaches code comparison.
	_, err := env.svc.Verify(context.Background(), testAdminEmail, "VSB-ZZZZZZ")
	require.ErrorIs(t, err, ErrLockedOut)

	// Issue is gated by the same lockout.
	_, err = env.svc.Issue(context.Background(), testAdminEmail)
	require.ErrorIs(t, err, ErrLockedOut)
}

func TestOTPService_Lockout_WindowIsMeasuredFromLastAttempt(t *testing.T) {
	env := newOTPTestEnv(t)
	env.expectAdmin()

	env.issueCode(t)
	for i := 0; i < 4; i++ {
		_, err := env.svc.Verify(context.Background(), testAdminEmail, "VSB-ZZZZZZ")
		require.ErrorIs(t, err, ErrCodeMismatch)
		env.advance(time.Minute)
	}
	// Fifth failure lands at +4m and starts the 15-minute window from there.
	_, err := env.svc.Verify(context.Background(), testAdminEmail, "VSB-ZZZZZZ")
	require.ErrorIs(t, err, ErrCodeMismatch)

	env.advance(14 * time.Minute)
	_, err = env.svc.Verify(context.Background(), testAdminEmail, "VSB-ZZZZZZ")
	require.ErrorIs(t, err, ErrLockedOut)

	env.advance(time.Minute + time.Second)
	_, err = env.svc.Verify(context.Background(), testAdminEmail, "VSB-ZZZZZZ")
	require.ErrorIs(t, err, ErrCodeMismatch, "window elapsed, attempts are allowed again")
}

func TestOTPService_Lockout_SuccessfulIssueResetsCounter(t *testing.T) {
	env := newOTPTestEnv(t)
	env.expectAdmin()

	env.issueCode(t)
	for i := 0; i < 3; i++ {
		_, err := env.svc.Verify(context.Background(), testAdminEmail, "VSB-ZZZZZZ")
		require.ErrorIs(t, err, ErrCodeMismatch)
	}
	require.Equal(t, 3, env.failureCount(t))

	env.issueCode(t)

	assert.Equal(t, 0, env.failureCount(t))
}

func TestOTPService_Lockout_SuccessfulVerifyResetsCounter(t *testing.T) {
	env := newOTPTestEnv(t)
	env.expectAdmin()
	env.tokenIssuer.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return("session-token", nil)

	code := env.issueCode(t)
	_, err := env.svc.Verify(context.Background(), testAdminEmail, "VSB-ZZZZZZ")
	require.ErrorIs(t, err, ErrCodeMismatch)
	require.Equal(t, 1, env.failureCount(t))

	_, err = env.svc.Verify(context.Background(), testAdminEmail, code)
	require.NoError(t, err)

	assert.Equal(t, 0, env.failureCount(t))
}
