package shift

import (
	"time"
)

// Event is a snapshot of the live shift written on every workflow transition.
// Events are many per shift; nothing here is unique.
type Event struct {
	ID     uint `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID uint `gorm:"not null;index" json:"user_id"`

	// checked_in, plan_confirmed, package_scanned, delivery_started,
	// package_delivered, delivery_finished, package_returned, shift_closed
	EventType string `gorm:"type:varchar(50);not null;index" json:"event_type"`

	Phase string `gorm:"type:varchar(20);not null" json:"phase"`

	TotalCod      int `json:"total_cod"`
	TotalNonCod   int `json:"total_non_cod"`
	TotalPackages int `json:"total_packages"`

	LoadedCount    int `json:"loaded_count"`
	DeliveredCount int `json:"delivered_count"`
	FailedCount    int `json:"failed_count"`
	ReturnedCount  int `json:"returned_count"`

	// Set for package-level events only.
	TrackingNumber *string `gorm:"type:varchar(64)" json:"tracking_number,omitempty"`

	CreatedBy string    `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Event) TableName() string {
	return "shift_events"
}
