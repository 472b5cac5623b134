package entity

import "time"

// Event is an event listing managed through the admin portal. EventID is an
// opaque string id generated at creation (clock millis + random suffix).
type Event struct {
	EventID          string    `gorm:"primaryKey;size:40" json:"id"`
	EventName        string    `gorm:"size:200;not null" json:"eventName"`
	EventDescription string    `gorm:"type:text" json:"eventDescription"`
	TotalSlots       int       `gorm:"not null" json:"totalSlots"`
	TeamSize         int       `gorm:"not null;default:1" json:"teamSize"`
	IsActive         bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (Event) TableName() string {
	return "events"
}
