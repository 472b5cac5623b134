package entity

import "time"

// Admin is one entry of the admin directory. Only directory members may
// request and verify OTP codes for the admin portal.
type Admin struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Role      string    `gorm:"size:50;not null;default:admin" json:"role"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
}

func (Admin) TableName() string {
	return "admins"
}
