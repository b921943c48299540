package shift

import (
	"time"

	"mora-delivery/models/pkg"
	"mora-delivery/models/user"
)

// Archive is the persisted record of one completed shift: the frozen manifest
// totals, the outcome counters, and the package snapshots taken at close.
type Archive struct {
	ID     uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID uint      `gorm:"not null;index" json:"user_id"`
	User   user.User `gorm:"foreignKey:UserID" json:"user"`

	AttendanceID string `gorm:"type:varchar(36);not null" json:"attendance_id"`

	TotalCod      int `gorm:"not null" json:"total_cod"`
	TotalNonCod   int `gorm:"not null" json:"total_non_cod"`
	TotalPackages int `gorm:"not null" json:"total_packages"`

	LoadedCount    int `gorm:"not null" json:"loaded_count"`
	DeliveredCount int `gorm:"not null" json:"delivered_count"`
	ReturnedCount  int `gorm:"not null" json:"returned_count"`

	Packages []pkg.Package `gorm:"foreignKey:ShiftID" json:"packages"`

	ClosedAt  time.Time `gorm:"not null" json:"closed_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Archive) TableName() string {
	return "shift_archives"
}
