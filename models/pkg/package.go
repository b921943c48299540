package pkg

import (
	"fmt"
	"time"
)

// Package represents one physical parcel in the courier's custody during a shift.
// It lives in memory for the duration of the shift and is persisted only as a
// snapshot row when the shift is archived.
type Package struct {
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`

	// Set when the package is archived as part of a closed shift.
	ShiftID *uint `gorm:"index" json:"shift_id,omitempty"`

	TrackingNumber string `gorm:"type:varchar(64);not null;index" json:"tracking_number"`

	RecipientName string  `gorm:"type:varchar(255)" json:"recipient_name"`
	Address       string  `gorm:"type:text" json:"address"`
	PhoneNumber   string  `gorm:"type:varchar(20)" json:"phone_number"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`

	Status    Status  `gorm:"type:varchar(20);not null" json:"status"`
	Type      Type    `gorm:"type:varchar(20);not null" json:"type"`
	CodAmount float64 `gorm:"type:decimal(12,2)" json:"cod_amount"`

	ProofImage *string `gorm:"type:varchar(512)" json:"proof_image,omitempty"`
	ReceivedBy *string `gorm:"type:varchar(255)" json:"received_by,omitempty"`

	// Timestamp is the last status-change time, not a row audit column.
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
}

func (Package) TableName() string {
	return "package_snapshots"
}

// WhatsAppLink builds the messaging deep link for the recipient's phone.
func (p *Package) WhatsAppLink() string {
	return fmt.Sprintf("https://wa.me/%s", p.PhoneNumber)
}

// MapsLink builds the navigation deep link for the delivery coordinates.
func (p *Package) MapsLink() string {
	return fmt.Sprintf("https://www.google.com/maps/dir/?api=1&destination=%f,%f", p.Lat, p.Lng)
}
