package shift_event

import (
	"gorm.io/gorm"

	"mora-delivery/models/pkg"
	shiftModel "mora-delivery/models/shift"
	shiftService "mora-delivery/services/shift"
)

// Snapshot writes a full snapshot of the live session into shift_events with
// the given event type. trackingNumber is set for package-level events only.
func Snapshot(tx *gorm.DB, s *shiftService.Session, eventType, trackingNumber, createdBy string) error {
	counts := s.CountByStatus()

	ev := shiftModel.Event{
		UserID:    s.UserID,
		EventType: eventType,
		Phase:     s.Phase.String(),

		TotalCod:      s.Summary.TotalCod,
		TotalNonCod:   s.Summary.TotalNonCod,
		TotalPackages: s.Summary.TotalPackages,

		LoadedCount:    counts[pkg.StatusLoaded],
		DeliveredCount: counts[pkg.StatusDelivered],
		FailedCount:    counts[pkg.StatusFailed],
		ReturnedCount:  counts[pkg.StatusReturned],

		CreatedBy: createdBy,
	}
	if trackingNumber != "" {
		ev.TrackingNumber = &trackingNumber
	}

	return tx.Create(&ev).Error
}
