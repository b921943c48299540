package attendance

import (
	"time"
)

type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusAbsent  Status = "ABSENT"
	StatusLate    Status = "LATE"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	default:
		return false
	}
}

// Attendance marks one courier shift: check-in at shift start, check-out at
// shift end. One row per courier per calendar day.
type Attendance struct {
	ID       string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID   uint       `gorm:"not null;index" json:"user_id"`
	Date     time.Time  `gorm:"type:date;not null;index" json:"date"`
	CheckIn  time.Time  `gorm:"not null" json:"check_in"`
	CheckOut *time.Time `json:"check_out,omitempty"`
	Status   Status     `gorm:"type:varchar(10);not null" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Attendance) TableName() string {
	return "attendances"
}
