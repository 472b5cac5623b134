package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/yourusername/eventreg-api/internal/domain/entity"
	"github.com/yourusername/eventreg-api/internal/domain/repository"
	apperrors "github.com/yourusername/eventreg-api/internal/pkg/errors"
)

// emailPattern accepts exactly institutional addresses: any non-empty local
// part without whitespace/@, followed by the fixed domain, case-insensitive.
var emailPattern = regexp.MustCompile(`(?i)^[^\s@]+@vishnu\.edu\.in$`)

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "+", "")

// IsValidEmail reports whether the address matches the institutional domain.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// NormalizePhone strips common separator characters and returns the bare
// number plus whether it is exactly 10 digits.
func NormalizePhone(phone string) (string, bool) {
	normalized := phoneSeparators.Replace(strings.TrimSpace(phone))
	if len(normalized) != 10 {
		return normalized, false
	}
	for _, r := range normalized {
		if r < '0' || r > '9' {
			return normalized, false
		}
	}
	return normalized, true
}

// MemberSubmission is one additional team member in a submission.
type MemberSubmission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Branch  string `json:"branch"`
	Section string `json:"section"`
}

// RegistrationSubmission is the payload of a REGISTER action.
type RegistrationSubmission struct {
	LeaderName  string             `json:"leaderName"`
	Email       string             `json:"email"`
	Phone       string             `json:"phone"`
	Branch      string             `json:"branch"`
	Section     string             `json:"section"`
	TeamName    string             `json:"teamName"`
	TeamSize    int                `json:"teamSize"`
	Timestamp   string             `json:"timestamp"`
	TeamMembers []MemberSubmission `json:"teamMembers"`
}

// RegistrationResult is returned on a successful registration.
type RegistrationResult struct {
	SerialNo        int    `json:"serialNo"`
	Email           string `json:"email"`
	TotalRegistered int    `json:"totalRegistered"`
	RegistrationID  string `json:"registrationId"`
	TicketNumber    string `json:"ticketNumber"`
	TeamSize        int    `json:"teamSize"`
}

// RegistrationService validates submissions, guards against duplicates and
// writes registration rows. A success is never partial: validation and the
// duplicate scan both complete before anything touches the store.
type RegistrationService struct {
	regRepo      repository.RegistrationRepository
	emailService EmailService
	maxTeamSize  int
	now          func() time.Time
}

func NewRegistrationService(regRepo repository.RegistrationRepository, emailService EmailService) (*RegistrationService, error) {
	if regRepo == nil {
		return nil, fmt.Errorf("registration repository is required")
	}
	if emailService == nil {
		return nil, fmt.Errorf("email service is required")
	}
	return &RegistrationService{
		regRepo:      regRepo,
		emailService: emailService,
		maxTeamSize:  entity.MaxTeamSize,
		now:          time.Now,
	}, nil
}

// Register runs the full pipeline: field validation in submission order,
// within-submission duplicate check, duplicate-against-history scan, then
// the write sequence with identifier backfill and a best-effort
// confirmation email.
func (s *RegistrationService) Register(ctx context.Context, sub *RegistrationSubmission) (*RegistrationResult, error) {
	if err := s.validate(sub); err != nil {
		return nil, err
	}

	teamSize := effectiveTeamSize(sub)
	members := sub.TeamMembers
	if len(members) > teamSize-1 {
		// Excess members beyond teamSize-1 are ignored, not rejected.
		members = members[:teamSize-1]
	}

	existing, err := s.regRepo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}
	if err := s.checkAgainstHistory(sub, members, existing); err != nil {
		return nil, err
	}

	now := s.now()
	serialNo := len(existing) + 1

	timestamp := strings.TrimSpace(sub.Timestamp)
	if timestamp == "" {
		timestamp = now.Format("2006-01-02 15:04:05")
	}

	reg := &entity.Registration{
		SerialNo:      serialNo,
		Timestamp:     timestamp,
		TeamName:      strings.TrimSpace(sub.TeamName),
		LeaderName:    strings.TrimSpace(sub.LeaderName),
		LeaderEmail:   entity.NormalizeEmail(sub.Email),
		LeaderPhone:   mustNormalizePhone(sub.Phone),
		LeaderBranch:  strings.TrimSpace(sub.Branch),
		LeaderSection: strings.TrimSpace(sub.Section),
		TeamSize:      teamSize,
	}
	for i, m := range members {
		reg.Members = append(reg.Members, entity.TeamMember{
			Position: i + 2, // leader is member 1
			Name:     strings.TrimSpace(m.Name),
			Email:    entity.NormalizeEmail(m.Email),
			Phone:    mustNormalizePhone(m.Phone),
			Branch:   strings.TrimSpace(m.Branch),
			Section:  strings.TrimSpace(m.Section),
		})
	}

	// Append first, then backfill the identifiers. The window between the
	// two writes is short and only ever leaves identifiers blank, never a
	// half-validated row.
	if err := s.regRepo.Create(reg); err != nil {
		return nil, err
	}

	registrationID := newRegistrationID(now)
	ticketNumber, err := newTicketNumber(now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}
	if err := s.regRepo.UpdateIdentifiers(reg.ID, registrationID, ticketNumber); err != nil {
		return nil, err
	}

	// Fire-and-forget confirmation: the registration is already durable,
	// so email failures are logged and never fail the request.
	go s.sendConfirmation(reg, registrationID, ticketNumber)

	return &RegistrationResult{
		SerialNo:        serialNo,
		Email:           reg.LeaderEmail,
		TotalRegistered: serialNo,
		RegistrationID:  registrationID,
		TicketNumber:    ticketNumber,
		TeamSize:        teamSize,
	}, nil
}

// ListRegistrations returns every registration for the admin portal.
func (s *RegistrationService) ListRegistrations(ctx context.Context) ([]entity.Registration, error) {
	regs, err := s.regRepo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}
	return regs, nil
}

// TotalRegistered returns the current registration count.
func (s *RegistrationService) TotalRegistered(ctx context.Context) (int64, error) {
	count, err := s.regRepo.Count()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}
	return count, nil
}

// validate checks every field in submission order and short-circuits on the
// first failure, so the client always sees the earliest invalid field.
func (s *RegistrationService) validate(sub *RegistrationSubmission) error {
	if strings.TrimSpace(sub.LeaderName) == "" {
		return fmt.Errorf("%w: leader name is required", apperrors.ErrValidation)
	}
	if strings.TrimSpace(sub.Email) == "" {
		return fmt.Errorf("%w: leader email is required", apperrors.ErrValidation)
	}
	if !IsValidEmail(sub.Email) {
		return fmt.Errorf("%w: please use your @vishnu.edu.in email address", apperrors.ErrValidation)
	}
	if _, ok := NormalizePhone(sub.Phone); !ok {
		return fmt.Errorf("%w: phone number must be exactly 10 digits", apperrors.ErrValidation)
	}
	// Branch and section enums are enforced client-side; the server only
	// requires them to be present.
	if strings.TrimSpace(sub.Branch) == "" {
		return fmt.Errorf("%w: branch is required", apperrors.ErrValidation)
	}
	if strings.TrimSpace(sub.Section) == "" {
		return fmt.Errorf("%w: section is required", apperrors.ErrValidation)
	}

	teamSize := effectiveTeamSize(sub)
	if teamSize > s.maxTeamSize {
		return fmt.Errorf("%w: team size cannot exceed %d", apperrors.ErrValidation, s.maxTeamSize)
	}
	if teamSize > 1 && strings.TrimSpace(sub.TeamName) == "" {
		return fmt.Errorf("%w: team name is required for team registrations", apperrors.ErrValidation)
	}

	for i := 0; i < teamSize-1; i++ {
		ordinal := i + 2 // the leader is member 1
		if i >= len(sub.TeamMembers) {
			return fmt.Errorf("%w: member %d details are missing", apperrors.ErrValidation, ordinal)
		}
		m := sub.TeamMembers[i]
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("%w: member %d: name is required", apperrors.ErrValidation, ordinal)
		}
		if strings.TrimSpace(m.Email) == "" {
			return fmt.Errorf("%w: member %d: email is required", apperrors.ErrValidation, ordinal)
		}
		if !IsValidEmail(m.Email) {
			return fmt.Errorf("%w: member %d: please use a @vishnu.edu.in email address", apperrors.ErrValidation, ordinal)
		}
		if _, ok := NormalizePhone(m.Phone); !ok {
			return fmt.Errorf("%w: member %d: phone number must be exactly 10 digits", apperrors.ErrValidation, ordinal)
		}
		if strings.TrimSpace(m.Branch) == "" {
			return fmt.Errorf("%w: member %d: branch is required", apperrors.ErrValidation, ordinal)
		}
		if strings.TrimSpace(m.Section) == "" {
			return fmt.Errorf("%w: member %d: section is required", apperrors.ErrValidation, ordinal)
		}
	}

	// Within-submission duplicates fail before the store is touched.
	seen := map[string]bool{entity.NormalizeEmail(sub.Email): true}
	for i := 0; i < teamSize-1 && i < len(sub.TeamMembers); i++ {
		email := entity.NormalizeEmail(sub.TeamMembers[i].Email)
		if seen[email] {
			return fmt.Errorf("%w: duplicate email in submission: %s", apperrors.ErrConflict, email)
		}
		seen[email] = true
	}

	return nil
}

// checkAgainstHistory scans every existing record's leader and member
// emails plus team names. O(existing records) per submission; the table is
// small and writes are infrequent, so no index is maintained.
func (s *RegistrationService) checkAgainstHistory(sub *RegistrationSubmission, members []MemberSubmission, existing []entity.Registration) error {
	registered := make(map[string]bool)
	teamNames := make(map[string]bool)
	for i := range existing {
		for _, email := range existing[i].AllEmails() {
			registered[email] = true
		}
		if name := strings.TrimSpace(existing[i].TeamName); name != "" {
			teamNames[strings.ToLower(name)] = true
		}
	}

	submitted := []string{entity.NormalizeEmail(sub.Email)}
	for _, m := range members {
		submitted = append(submitted, entity.NormalizeEmail(m.Email))
	}
	for _, email := range submitted {
		if registered[email] {
			return fmt.Errorf("%w: %s is already registered", apperrors.ErrConflict, email)
		}
	}

	if name := strings.TrimSpace(sub.TeamName); name != "" {
		if teamNames[strings.ToLower(name)] {
			return fmt.Errorf("%w: team name %q is already taken", apperrors.ErrConflict, name)
		}
	}

	return nil
}

func (s *RegistrationService) sendConfirmation(reg *entity.Registration, registrationID, ticketNumber string) {
	recipients := uniqueStrings(reg.AllEmails())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.emailService.SendRegistrationConfirmation(ctx, recipients, ConfirmationDetails{
		LeaderName:     reg.LeaderName,
		TeamName:       reg.TeamName,
		TeamSize:       reg.TeamSize,
		RegistrationID: registrationID,
		TicketNumber:   ticketNumber,
	})
	if err != nil {
		log.Printf("[RegistrationService] confirmation email failed for %s: %v", registrationID, err)
	}
}

func effectiveTeamSize(sub *RegistrationSubmission) int {
	if sub.TeamSize < 1 {
		return 1
	}
	return sub.TeamSize
}

func mustNormalizePhone(phone string) string {
	normalized, _ := NormalizePhone(phone)
	return normalized
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
