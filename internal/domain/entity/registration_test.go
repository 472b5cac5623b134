package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistration_AllEmails(t *testing.T) {
	reg := &Registration{
		LeaderEmail: "  Lead@Vishnu.edu.in ",
		Members: []TeamMember{
			{Position: 2, Email: "TWO@vishnu.edu.in"},
			{Position: 3, Email: "three@vishnu.edu.in"},
		},
	}

	emails := reg.AllEmails()

	assert.Equal(t, []string{
		"lead@vishnu.edu.in",
		"two@vishnu.edu.in",
		"three@vishnu.edu.in",
	}, emails)
}

func TestRegistration_AllEmails_SoloHasOnlyLeader(t *testing.T) {
	reg := &Registration{LeaderEmail: "solo@vishnu.edu.in"}

	assert.Equal(t, []string{"solo@vishnu.edu.in"}, reg.AllEmails())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@vishnu.edu.in", NormalizeEmail("  A@Vishnu.EDU.in\t"))
	assert.Equal(t, "", NormalizeEmail("   "))
}
