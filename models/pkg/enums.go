package pkg

// Status is the package lifecycle status. It only moves forward:
// PENDING -> LOADED -> DELIVERED | FAILED -> RETURNED.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusLoaded    Status = "LOADED"
	StatusDelivered Status = "DELIVERED"
	StatusFailed    Status = "FAILED"
	StatusReturned  Status = "RETURNED"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusLoaded, StatusDelivered, StatusFailed, StatusReturned:
		return true
	default:
		return false
	}
}

// IsTerminal returns true once the package needs no further handling.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusReturned
}

// CanBeUpdated returns true if the status may still advance.
func (s Status) CanBeUpdated() bool {
	return !s.IsTerminal()
}

// Type distinguishes cash-on-delivery parcels from prepaid ones.
type Type string

const (
	TypeCOD    Type = "COD"
	TypeNonCOD Type = "NON_COD"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	return t == TypeCOD || t == TypeNonCOD
}

// GetAllStatuses returns all valid package statuses.
func GetAllStatuses() []Status {
	return []Status{
		StatusPending,
		StatusLoaded,
		StatusDelivered,
		StatusFailed,
		StatusReturned,
	}
}
