package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/eventreg-api/internal/domain/entity"
	"github.com/yourusername/eventreg-api/internal/domain/repository"
	apperrors "github.com/yourusername/eventreg-api/internal/pkg/errors"
)

// EventInput is the payload of CREATE_EVENT and UPDATE_EVENT.
type EventInput struct {
	EventName        string `json:"eventName"`
	EventDescription string `json:"eventDescription"`
	TotalSlots       int    `json:"totalSlots"`
	TeamSize         int    `json:"teamSize"`
	IsActive         *bool  `json:"isActive"`
}

// SlotsInfo is the payload of GET_SLOTS.
type SlotsInfo struct {
	EventName  string `json:"eventName"`
	TotalSlots int    `json:"totalSlots"`
	Registered int    `json:"registered"`
	Remaining  int    `json:"remaining"`
}

// EventService is plain CRUD over event listings plus the public slots
// counter.
type EventService struct {
	eventRepo    repository.EventRepository
	regRepo      repository.RegistrationRepository
	defaultSlots int
	now          func() time.Time
}

func NewEventService(eventRepo repository.EventRepository, regRepo repository.RegistrationRepository, defaultSlots int) (*EventService, error) {
	if eventRepo == nil {
		return nil, fmt.Errorf("event repository is required")
	}
	if regRepo == nil {
		return nil, fmt.Errorf("registration repository is required")
	}
	if defaultSlots <= 0 {
		defaultSlots = 60
	}
	return &EventService{
		eventRepo:    eventRepo,
		regRepo:      regRepo,
		defaultSlots: defaultSlots,
		now:          time.Now,
	}, nil
}

func (s *EventService) Create(ctx context.Context, input *EventInput) (*entity.Event, error) {
	if strings.TrimSpace(input.EventName) == "" {
		return nil, fmt.Errorf("%w: event name is required", apperrors.ErrValidation)
	}
	if input.TotalSlots <= 0 {
		return nil, fmt.Errorf("%w: total slots must be positive", apperrors.ErrValidation)
	}
	teamSize := input.TeamSize
	if teamSize < 1 {
		teamSize = 1
	}
	if teamSize > entity.MaxTeamSize {
		return nil, fmt.Errorf("%w: team size cannot exceed %d", apperrors.ErrValidation, entity.MaxTeamSize)
	}

	now := s.now()
	eventID, err := newEventID(now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	event := &entity.Event{
		EventID:          eventID,
		EventName:        strings.TrimSpace(input.EventName),
		EventDescription: strings.TrimSpace(input.EventDescription),
		TotalSlots:       input.TotalSlots,
		TeamSize:         teamSize,
		IsActive:         isActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.eventRepo.Create(event); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}
	return event, nil
}

func (s *EventService) List(ctx context.Context) ([]entity.Event, error) {
	events, err := s.eventRepo.List()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}
	return events, nil
}

func (s *EventService) Update(ctx context.Context, eventID string, input *EventInput) (*entity.Event, error) {
	if strings.TrimSpace(eventID) == "" {
		return nil, fmt.Errorf("%w: event id is required", apperrors.ErrValidation)
	}

	updates := map[string]interface{}{"updated_at": s.now()}
	if strings.TrimSpace(input.EventName) != "" {
		updates["event_name"] = strings.TrimSpace(input.EventName)
	}
	if strings.TrimSpace(input.EventDescription) != "" {
		updates["event_description"] = strings.TrimSpace(input.EventDescription)
	}
	if input.TotalSlots > 0 {
		updates["total_slots"] = input.TotalSlots
	}
	if input.TeamSize > 0 {
		if input.TeamSize > entity.MaxTeamSize {
			return nil, fmt.Errorf("%w: team size cannot exceed %d", apperrors.ErrValidation, entity.MaxTeamSize)
		}
		updates["team_size"] = input.TeamSize
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if err := s.eventRepo.Update(eventID, updates); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: event %s", apperrors.ErrNotFound, eventID)
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}

	event, err := s.eventRepo.GetByID(eventID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}
	return event, nil
}

func (s *EventService) Delete(ctx context.Context, eventID string) error {
	if strings.TrimSpace(eventID) == "" {
		return fmt.Errorf("%w: event id is required", apperrors.ErrValidation)
	}
	if err := s.eventRepo.Delete(eventID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: event %s", apperrors.ErrNotFound, eventID)
		}
		return fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}
	return nil
}

// Slots reports capacity for the active event, falling back to the
// configured default when no event listing exists yet.
func (s *EventService) Slots(ctx context.Context) (*SlotsInfo, error) {
	info := &SlotsInfo{TotalSlots: s.defaultSlots}

	event, err := s.eventRepo.GetActive()
	if err == nil {
		info.EventName = event.EventName
		info.TotalSlots = event.TotalSlots
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}

	count, err := s.regRepo.Count()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}

	info.Registered = int(count)
	info.Remaining = info.TotalSlots - info.Registered
	if info.Remaining < 0 {
		info.Remaining = 0
	}
	return info, nil
}
