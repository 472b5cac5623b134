package repository

import "github.com/yourusername/eventreg-api/internal/domain/entity"

// EventRepository persists event listings.
type EventRepository interface {
	Create(event *entity.Event) error
	GetByID(eventID string) (*entity.Event, error)
	GetActive() (*entity.Event, error)
	List() ([]entity.Event, error)
	Update(eventID string, updates map[string]interface{}) error
	Delete(eventID string) error
}
