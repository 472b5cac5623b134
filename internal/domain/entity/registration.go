package entity

import (
	"strings"
	"time"
)

// MaxTeamSize is the largest team a single registration may carry:
// one leader plus up to four additional members. The persisted sheet
// layout (and the xlsx export) reserves exactly four member column groups.
const MaxTeamSize = 5

// Registration is one completed registration row. SerialNo is 1-based and
// assigned at write time; RegistrationID and TicketNumber are backfilled
// immediately after the row is created.
type Registration struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	SerialNo       int          `gorm:"not null" json:"serialNo"`
	Timestamp      string       `gorm:"size:40;not null" json:"timestamp"`
	RegistrationID string       `gorm:"size:40" json:"registrationId"`
	TicketNumber   string       `gorm:"size:40" json:"ticketNumber"`
	TeamName       string       `gorm:"size:100" json:"teamName"`
	LeaderName     string       `gorm:"size:100;not null" json:"leaderName"`
	LeaderEmail    string       `gorm:"size:100;not null" json:"email"`
	LeaderPhone    string       `gorm:"size:20;not null" json:"phone"`
	LeaderBranch   string       `gorm:"size:20;not null" json:"branch"`
	LeaderSection  string       `gorm:"size:10;not null" json:"section"`
	TeamSize       int          `gorm:"not null;default:1" json:"teamSize"`
	Members        []TeamMember `gorm:"foreignKey:RegistrationRef;constraint:OnDelete:CASCADE" json:"teamMembers"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
}

func (Registration) TableName() string {
	return "registrations"
}

// TeamMember is one additional member of a team registration. Position is
// the human ordinal on the sheet: the leader is 1, members start at 2.
type TeamMember struct {
	ID              uint   `gorm:"primaryKey" json:"-"`
	RegistrationRef uint   `gorm:"not null;index" json:"-"`
	Position        int    `gorm:"not null" json:"position"`
	Name            string `gorm:"size:100;not null" json:"name"`
	Email           string `gorm:"size:100;not null" json:"email"`
	Phone           string `gorm:"size:20;not null" json:"phone"`
	Branch          string `gorm:"size:20;not null" json:"branch"`
	Section         string `gorm:"size:10;not null" json:"section"`
}

func (TeamMember) TableName() string {
	return "team_members"
}

// AllEmails returns the leader email followed by every member email,
// lower-cased and trimmed. Used by the duplicate-against-history scan.
func (r *Registration) AllEmails() []string {
	emails := make([]string, 0, 1+len(r.Members))
	emails = append(emails, NormalizeEmail(r.LeaderEmail))
	for _, m := range r.Members {
		emails = append(emails, NormalizeEmail(m.Email))
	}
	return emails
}

// NormalizeEmail lower-cases and trims an address for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
