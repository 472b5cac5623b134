package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/eventreg-api/internal/domain/entity"
	apperrors "github.com/yourusername/eventreg-api/internal/pkg/errors"
)

type EventRepo struct {
	db *gorm.DB
}

func NewEventRepo(db *gorm.DB) *EventRepo {
	return &EventRepo{db: db}
}

func (r *EventRepo) Create(event *entity.Event) error {
	if err := r.db.Create(event).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *EventRepo) GetByID(eventID string) (*entity.Event, error) {
	var event entity.Event
	err := r.db.Where("event_id = ?", eventID).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get event %s: %w", eventID, err)
	}
	return &event, nil
}

// GetActive returns the most recently created active event.
func (r *EventRepo) GetActive() (*entity.Event, error) {
	var event entity.Event
	err := r.db.
		Where("is_active = ?", true).
		Order("created_at DESC").
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active event: %w", err)
	}
	return &event, nil
}

func (r *EventRepo) List() ([]entity.Event, error) {
	var events []entity.Event
	if err := r.db.Order("created_at DESC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (r *EventRepo) Update(eventID string, updates map[string]interface{}) error {
	result := r.db.Model(&entity.Event{}).
		Where("event_id = ?", eventID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update event %s: %w", eventID, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *EventRepo) Delete(eventID string) error {
	result := r.db.Where("event_id = ?", eventID).Delete(&entity.Event{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete event %s: %w", eventID, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
