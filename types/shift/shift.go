package shift

import (
	"fmt"
	"strings"
)

// PlanRequest declares the manifest totals for the shift. Counts arrive as raw
// JSON numbers; non-numeric input defaults to zero via the JSON decoder and
// negative counts are coerced to zero by the workflow core, mirroring the
// planning form behavior. Only a zero total blocks the transition.
type PlanRequest struct {
	TotalCod    int `json:"total_cod"`
	TotalNonCod int `json:"total_non_cod"`
}

type ScanRequest struct {
	TrackingNumber string `json:"tracking_number" validate:"required"`
}

// Validate validates the ScanRequest fields
func (r *ScanRequest) Validate() error {
	if strings.TrimSpace(r.TrackingNumber) == "" {
		return fmt.Errorf("tracking_number is required")
	}
	return nil
}

// ConfirmRequest carries the explicit accept for a gated transition. A request
// without confirmed=true answers with the confirmation prompt instead of
// transitioning.
type ConfirmRequest struct {
	Confirmed bool `json:"confirmed"`
}

type DeliverRequest struct {
	ProofImage string `json:"proof_image" validate:"required"`
	ReceivedBy string `json:"received_by" validate:"required"`
}

// Validate validates the DeliverRequest fields
func (r *DeliverRequest) Validate() error {
	if strings.TrimSpace(r.ProofImage) == "" {
		return fmt.Errorf("proof_image is required")
	}
	if strings.TrimSpace(r.ReceivedBy) == "" {
		return fmt.Errorf("received_by is required")
	}
	return nil
}

type ReturnRequest struct {
	StaffName string `json:"staff_name" validate:"required"`
}

// Validate validates the ReturnRequest fields
func (r *ReturnRequest) Validate() error {
	if strings.TrimSpace(r.StaffName) == "" {
		return fmt.Errorf("staff_name is required")
	}
	return nil
}
