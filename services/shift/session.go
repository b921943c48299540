// Package shift implements the courier's daily operating cycle as a strict
// sequential state machine: check in, declare the manifest, scan packages into
// custody, deliver them, reconcile the rest back to the depot. A Session owns
// all state for one courier's active shift and is the only thing that mutates
// it; collaborators (manifest lookup, clock) are injected.
package shift

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mora-delivery/models/attendance"
	"mora-delivery/models/pkg"
	"mora-delivery/services/manifest"
)

// Phase is the courier workflow phase. Strict forward order, no skipping; the
// only way back to ABSENT is ending the shift, which clears everything.
type Phase string

const (
	PhaseAbsent     Phase = "ABSENT"
	PhasePlanning   Phase = "PLANNING"
	PhaseLoading    Phase = "LOADING"
	PhaseDelivering Phase = "DELIVERING"
	PhaseClosing    Phase = "CLOSING"
)

func (p Phase) String() string {
	return string(p)
}

func (p Phase) IsValid() bool {
	switch p {
	case PhaseAbsent, PhasePlanning, PhaseLoading, PhaseDelivering, PhaseClosing:
		return true
	default:
		return false
	}
}

// Summary is the courier-declared manifest, frozen when planning is confirmed.
type Summary struct {
	TotalCod      int `json:"total_cod"`
	TotalNonCod   int `json:"total_non_cod"`
	TotalPackages int `json:"total_packages"`
}

// Closed is the snapshot handed back when a shift terminates, for whatever
// archival the caller wants to do. The session itself keeps nothing.
type Closed struct {
	Attendance *attendance.Attendance
	Summary    Summary
	Packages   []*pkg.Package
	ClosedAt   time.Time
}

// Session holds the live state of one courier's shift. Methods are not safe
// for concurrent use; the Manager serializes access per courier.
type Session struct {
	UserID     uint
	Phase      Phase
	Summary    Summary
	Packages   []*pkg.Package // most-recent-first
	Attendance *attendance.Attendance

	// Clock is injectable for tests; defaults to time.Now.
	Clock func() time.Time

	// ShiftStart ("15:04") marks the check-in cutoff for LATE attendance.
	ShiftStart string
}

func NewSession(userID uint) *Session {
	return &Session{
		UserID:     userID,
		Phase:      PhaseAbsent,
		Clock:      time.Now,
		ShiftStart: "08:00",
	}
}

func (s *Session) requirePhase(allowed ...Phase) error {
	for _, p := range allowed {
		if s.Phase == p {
			return nil
		}
	}
	return &PhaseError{Current: s.Phase, Required: allowed}
}

// CheckIn opens the shift: ABSENT -> PLANNING, creating the attendance record.
// Checking in after the configured shift start marks the record LATE.
func (s *Session) CheckIn() (*attendance.Attendance, error) {
	if err := s.requirePhase(PhaseAbsent); err != nil {
		return nil, err
	}

	now := s.Clock()
	status := attendance.StatusPresent
	if cutoff, err := time.Parse("15:04", s.ShiftStart); err == nil {
		dayCutoff := time.Date(now.Year(), now.Month(), now.Day(),
			cutoff.Hour(), cutoff.Minute(), 0, 0, now.Location())
		if now.After(dayCutoff) {
			status = attendance.StatusLate
		}
	}

	rec := &attendance.Attendance{
		ID:      uuid.NewString(),
		UserID:  s.UserID,
		Date:    time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		CheckIn: now,
		Status:  status,
	}
	s.Attendance = rec
	s.Phase = PhasePlanning
	return rec, nil
}

// SubmitPlan freezes the declared manifest totals: PLANNING -> LOADING.
// Negative counts are coerced to zero; a zero total blocks the transition.
func (s *Session) SubmitPlan(totalCod, totalNonCod int) error {
	if err := s.requirePhase(PhasePlanning); err != nil {
		return err
	}
	if totalCod < 0 {
		totalCod = 0
	}
	if totalNonCod < 0 {
		totalNonCod = 0
	}
	total := totalCod + totalNonCod
	if total == 0 {
		return ErrEmptyManifest
	}

	s.Summary = Summary{
		TotalCod:      totalCod,
		TotalNonCod:   totalNonCod,
		TotalPackages: total,
	}
	s.Phase = PhaseLoading
	return nil
}

// NormalizeTrackingNumber canonicalizes a scanned code so duplicate detection
// and delivery lookup never disagree on case or whitespace.
func NormalizeTrackingNumber(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Scan ingests one scanned code during LOADING. Duplicates are rejected with
// no state change; otherwise the package enters custody as LOADED, classified
// through the manifest collaborator, newest first.
func (s *Session) Scan(code string, classifier manifest.Classifier) (*pkg.Package, error) {
	if err := s.requirePhase(PhaseLoading); err != nil {
		return nil, err
	}

	norm := NormalizeTrackingNumber(code)
	if norm == "" {
		return nil, ErrEmptyTrackingNumber
	}
	for _, p := range s.Packages {
		if p.TrackingNumber == norm {
			return nil, ErrDuplicateScan
		}
	}

	detail, err := classifier.Classify(norm)
	if err != nil {
		return nil, fmt.Errorf("classify %s: %w", norm, err)
	}

	p := &pkg.Package{
		ID:             uuid.NewString(),
		TrackingNumber: norm,
		RecipientName:  detail.RecipientName,
		Address:        detail.Address,
		PhoneNumber:    detail.PhoneNumber,
		Lat:            detail.Lat,
		Lng:            detail.Lng,
		Status:         pkg.StatusLoaded,
		Type:           detail.Type,
		CodAmount:      detail.CodAmount,
		Timestamp:      s.Clock(),
	}
	s.Packages = append([]*pkg.Package{p}, s.Packages...)
	return p, nil
}

// Reconcile compares the scanned count against the declared total.
func (s *Session) Reconcile() Reconciliation {
	return Reconcile(len(s.Packages), s.Summary.TotalPackages)
}

// StartDelivery ends loading: LOADING -> DELIVERING. Every reconciliation
// outcome needs an explicit confirmation; an unconfirmed call returns a
// ConfirmationRequiredError carrying the classification and changes nothing.
func (s *Session) StartDelivery(confirmed bool) (*Reconciliation, error) {
	if err := s.requirePhase(PhaseLoading); err != nil {
		return nil, err
	}
	if len(s.Packages) == 0 {
		return nil, ErrNoPackagesLoaded
	}

	rec := s.Reconcile()
	if !confirmed {
		return nil, &ConfirmationRequiredError{
			Action:         "start_delivery",
			Message:        rec.Message,
			Reconciliation: &rec,
		}
	}
	s.Phase = PhaseDelivering
	return &rec, nil
}

// Find looks a package up by tracking number for delivery processing, during
// DELIVERING or CLOSING. The compare is case-insensitive via normalization.
func (s *Session) Find(code string) (*pkg.Package, error) {
	if err := s.requirePhase(PhaseDelivering, PhaseClosing); err != nil {
		return nil, err
	}

	norm := NormalizeTrackingNumber(code)
	var found *pkg.Package
	for _, p := range s.Packages {
		if p.TrackingNumber == norm {
			found = p
			break
		}
	}
	if found == nil {
		return nil, ErrNotInManifest
	}
	switch found.Status {
	case pkg.StatusDelivered:
		return nil, ErrAlreadyDelivered
	case pkg.StatusReturned:
		return nil, ErrAlreadyReturned
	}
	return found, nil
}

// CompleteDelivery marks a package DELIVERED. Both a proof image reference and
// a non-empty receiver name are required. The captured receiver name also
// corrects the on-file recipient name; the manifest address is left alone.
func (s *Session) CompleteDelivery(code, proofImage, receivedBy string) (*pkg.Package, error) {
	p, err := s.Find(code)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(proofImage) == "" {
		return nil, ErrMissingProof
	}
	receivedBy = strings.TrimSpace(receivedBy)
	if receivedBy == "" {
		return nil, ErrMissingReceiver
	}

	p.Status = pkg.StatusDelivered
	p.ProofImage = &proofImage
	p.ReceivedBy = &receivedBy
	p.RecipientName = receivedBy
	p.Timestamp = s.Clock()
	return p, nil
}

// FinishDelivery ends the delivery round: DELIVERING -> CLOSING. Always needs
// confirmation, however many packages remain. On the confirmed transition,
// packages still LOADED are classified FAILED so the closing queue is exactly
// the set needing return processing.
func (s *Session) FinishDelivery(confirmed bool) error {
	if err := s.requirePhase(PhaseDelivering); err != nil {
		return err
	}
	if !confirmed {
		return &ConfirmationRequiredError{
			Action: "finish_delivery",
			Message: fmt.Sprintf("Finish delivery and process the %d remaining package(s)?",
				len(s.Outstanding())),
		}
	}

	now := s.Clock()
	for _, p := range s.Packages {
		if p.Status == pkg.StatusLoaded {
			p.Status = pkg.StatusFailed
			p.Timestamp = now
		}
	}
	s.Phase = PhaseClosing
	return nil
}

// CompleteReturn hands an undelivered package back to depot custody. Only the
// receiving staff name is required; returns need no photo.
func (s *Session) CompleteReturn(code, staffName string) (*pkg.Package, error) {
	if err := s.requirePhase(PhaseClosing); err != nil {
		return nil, err
	}

	norm := NormalizeTrackingNumber(code)
	var found *pkg.Package
	for _, p := range s.Packages {
		if p.TrackingNumber == norm {
			found = p
			break
		}
	}
	if found == nil {
		return nil, ErrNotInManifest
	}
	switch found.Status {
	case pkg.StatusDelivered:
		return nil, ErrAlreadyDelivered
	case pkg.StatusReturned:
		return nil, ErrAlreadyReturned
	}

	staffName = strings.TrimSpace(staffName)
	if staffName == "" {
		return nil, ErrMissingStaffName
	}

	found.Status = pkg.StatusReturned
	found.ReceivedBy = &staffName
	found.Timestamp = s.Clock()
	return found, nil
}

// EndShift terminates the shift: CLOSING -> ABSENT. Blocked while any package
// is non-terminal. Returns the closing snapshot and resets the session to its
// initial state.
func (s *Session) EndShift() (*Closed, error) {
	if err := s.requirePhase(PhaseClosing); err != nil {
		return nil, err
	}
	if len(s.Outstanding()) > 0 {
		return nil, ErrPackagesOutstanding
	}

	now := s.Clock()
	if s.Attendance != nil {
		s.Attendance.CheckOut = &now
	}
	closed := &Closed{
		Attendance: s.Attendance,
		Summary:    s.Summary,
		Packages:   s.Packages,
		ClosedAt:   now,
	}

	s.Phase = PhaseAbsent
	s.Summary = Summary{}
	s.Packages = nil
	s.Attendance = nil
	return closed, nil
}

// Outstanding lists packages still in a non-terminal status.
func (s *Session) Outstanding() []*pkg.Package {
	var out []*pkg.Package
	for _, p := range s.Packages {
		if !p.Status.IsTerminal() {
			out = append(out, p)
		}
	}
	return out
}

// CountByStatus tallies the live packages per lifecycle status.
func (s *Session) CountByStatus() map[pkg.Status]int {
	counts := make(map[pkg.Status]int)
	for _, p := range s.Packages {
		counts[p.Status]++
	}
	return counts
}
