package shift

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyManifest       = errors.New("declared package total must be greater than zero")
	ErrEmptyTrackingNumber = errors.New("tracking number must not be empty")
	ErrDuplicateScan       = errors.New("package already scanned")
	ErrNoPackagesLoaded    = errors.New("no packages loaded; scan at least one package before starting delivery")
	ErrNotInManifest       = errors.New("package not found in this shift's manifest")
	ErrAlreadyDelivered    = errors.New("package already delivered")
	ErrAlreadyReturned     = errors.New("package already returned")
	ErrMissingProof        = errors.New("proof image is required to confirm delivery")
	ErrMissingReceiver     = errors.New("receiver name is required to confirm delivery")
	ErrMissingStaffName    = errors.New("receiving staff name is required to confirm return")
	ErrPackagesOutstanding = errors.New("packages remain unprocessed; deliver or return every package before ending the shift")
)

// PhaseError reports an operation attempted outside its legal workflow phase.
type PhaseError struct {
	Current  Phase
	Required []Phase
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("operation not allowed in phase %s (requires %v)", e.Current, e.Required)
}

// ConfirmationRequiredError gates a transition on an explicit accept. The
// caller surfaces Message and retries with confirmation; not retrying leaves
// the session untouched.
type ConfirmationRequiredError struct {
	Action         string
	Message        string
	Reconciliation *Reconciliation
}

func (e *ConfirmationRequiredError) Error() string {
	return e.Message
}
