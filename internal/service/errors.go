package service

import "errors"

// Sentinel errors for the OTP authenticator. Each verification failure mode
// gets a distinct error so the client can show a precise message.
var (
	// ErrNotAuthorized: the email has no entry in the admin directory.
	ErrNotAuthorized = errors.New("this email is not authorized for admin access")

	// ErrLockedOut: too many consecutive failures; try again later.
	ErrLockedOut = errors.New("too many failed attempts, account temporarily locked")

	// ErrNoCodeFound: no OTP was issued for this email (or it aged out).
	ErrNoCodeFound = errors.New("no OTP found for this email, request a new code")

	// ErrCodeAlreadyUsed: the code was already consumed by a verification.
	ErrCodeAlreadyUsed = errors.New("this OTP has already been used")

	// ErrCodeExpired: the code's validity window has passed.
	ErrCodeExpired = errors.New("this OTP has expired, request a new code")

	// ErrCodeMismatch: the supplied code does not match the issued one.
	ErrCodeMismatch = errors.New("incorrect OTP")
)
