package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifiers_Formats(t *testing.T) {
	now := time.Date(2026, 2, 14, 10, 30, 0, 0, time.UTC)

	regID := newRegistrationID(now)
	assert.Regexp(t, `^CSBS-\d+$`, regID)

	ticket, err := newTicketNumber(now)
	require.NoError(t, err)
	assert.Regexp(t, `^TKT-\d+-[A-HJ-KM-NP-Z2-9]{3}$`, ticket)

	eventID, err := newEventID(now)
	require.NoError(t, err)
	assert.Regexp(t, `^EVT-\d+-[A-HJ-KM-NP-Z2-9]{4}$`, eventID)

	code, err := newOTPCode(6)
	require.NoError(t, err)
	assert.Regexp(t, `^VSB-[A-HJ-KM-NP-Z2-9]{6}$`, code)
}

func TestIdentifiers_ClockDrivesThePrefix(t *testing.T) {
	now := time.UnixMilli(1770000000000)

	assert.Equal(t, "CSBS-1770000000000", newRegistrationID(now))

	ticket, err := newTicketNumber(now)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ticket, "TKT-1770000000000-"), "got %s", ticket)
}

func TestRandomChars_StaysInsideAlphabet(t *testing.T) {
	// The alphabet deliberately omits 0/O, 1/I and L.
	out, err := randomChars(200)
	require.NoError(t, err)
	require.Len(t, out, 200)
	for _, r := range out {
		assert.Contains(t, codeAlphabet, string(r))
	}
	assert.NotContains(t, out, "0")
	assert.NotContains(t, out, "O")
	assert.NotContains(t, out, "1")
	assert.NotContains(t, out, "I")
	assert.NotContains(t, out, "L")
}
