package user

import (
	"time"
)

// User model with fields based on the JWT token structure
type User struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string `gorm:"type:varchar(255);not null;unique" json:"username"`
	LegalName string `gorm:"type:varchar(255);not null" json:"legal_name"`
	Phone     string `gorm:"type:varchar(20)" json:"phone"`
	Avatar    string `gorm:"type:varchar(2048)" json:"avatar"`

	// GUEST, COURIER, PIC or ADMIN; only COURIER may enter the shift workflow.
	Role string `gorm:"type:varchar(20);not null" json:"role"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}
