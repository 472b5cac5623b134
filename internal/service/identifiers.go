package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// codeAlphabet excludes visually ambiguous characters (0/O, 1/I/L) to cut
// down transcription errors in emailed codes and printed tickets.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	registrationIDPrefix = "CSBS"
	ticketNumberPrefix   = "TKT"
	eventIDPrefix        = "EVT"
	otpPrefix            = "VSB-"
)

func randomChars(n int) (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = codeAlphabet[idx.Int64()]
	}
	return string(out), nil
}

// newRegistrationID derives the registration id from the write-time clock.
// The prefix is the organizing department's code.
func newRegistrationID(now time.Time) string {
	return fmt.Sprintf("%s-%d", registrationIDPrefix, now.UnixMilli())
}

// newTicketNumber derives the check-in ticket from the clock plus a short
// random suffix. Collisions within one clock tick are treated as negligible;
// the store's unique index turns one into a visible conflict.
func newTicketNumber(now time.Time) (string, error) {
	suffix, err := randomChars(3)
	if err != nil {
		return "", fmt.Errorf("failed to generate ticket suffix: %w", err)
	}
	return fmt.Sprintf("%s-%d-%s", ticketNumberPrefix, now.UnixMilli(), suffix), nil
}

func newEventID(now time.Time) (string, error) {
	suffix, err := randomChars(4)
	if err != nil {
		return "", fmt.Errorf("failed to generate event id suffix: %w", err)
	}
	return fmt.Sprintf("%s-%d-%s", eventIDPrefix, now.UnixMilli(), suffix), nil
}

// newOTPCode generates a one-time code: fixed prefix plus n random
// characters from the ambiguity-free alphabet.
func newOTPCode(n int) (string, error) {
	chars, err := randomChars(n)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return otpPrefix + chars, nil
}
