package shift

import (
	"errors"
	"testing"
	"time"

	"mora-delivery/models/attendance"
	"mora-delivery/models/pkg"
	"mora-delivery/services/manifest"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func newTestSession(checkInAt time.Time) (*Session, *fakeClock) {
	clock := &fakeClock{now: checkInAt}
	s := NewSession(7)
	s.Clock = clock.Now
	return s, clock
}

func testClassifier() manifest.Classifier {
	return &manifest.StaticClassifier{
		Details: map[string]manifest.Detail{
			"SPX-ID-00001": {
				Type:          pkg.TypeCOD,
				CodAmount:     150000,
				RecipientName: "Budi Santoso",
				Address:       "Jl. Merdeka No. 45",
				PhoneNumber:   "628111222333",
				Lat:           -6.21,
				Lng:           106.82,
			},
		},
		Default: manifest.Detail{
			Type:          pkg.TypeNonCOD,
			RecipientName: "On-file Recipient",
			Address:       "Jl. Contoh Alamat No. 123",
			PhoneNumber:   "6281234567890",
		},
	}
}

// loadSession walks a fresh session to LOADING with the given plan.
func loadSession(t *testing.T, totalCod, totalNonCod int) (*Session, *fakeClock) {
	t.Helper()
	s, clock := newTestSession(time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC))
	if _, err := s.CheckIn(); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if err := s.SubmitPlan(totalCod, totalNonCod); err != nil {
		t.Fatalf("SubmitPlan: %v", err)
	}
	return s, clock
}

// deliverySession walks a session to DELIVERING with the given codes scanned.
func deliverySession(t *testing.T, codes ...string) (*Session, *fakeClock) {
	t.Helper()
	s, clock := loadSession(t, 1, len(codes)-1)
	for _, code := range codes {
		if _, err := s.Scan(code, testClassifier()); err != nil {
			t.Fatalf("Scan(%s): %v", code, err)
		}
	}
	if _, err := s.StartDelivery(true); err != nil {
		t.Fatalf("StartDelivery: %v", err)
	}
	return s, clock
}

func TestCheckIn(t *testing.T) {
	s, _ := newTestSession(time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC))

	rec, err := s.CheckIn()
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if s.Phase != PhasePlanning {
		t.Errorf("phase = %s, want %s", s.Phase, PhasePlanning)
	}
	if rec.Status != attendance.StatusPresent {
		t.Errorf("status = %s, want %s", rec.Status, attendance.StatusPresent)
	}
	if rec.Date.Hour() != 0 || rec.Date.Day() != 2 {
		t.Errorf("date = %v, want midnight of check-in day", rec.Date)
	}

	// A second check-in is out of phase.
	if _, err := s.CheckIn(); err == nil {
		t.Error("expected phase error on double check-in")
	} else {
		var phaseErr *PhaseError
		if !errors.As(err, &phaseErr) {
			t.Errorf("error = %v, want PhaseError", err)
		}
	}
}

func TestCheckInAfterShiftStartIsLate(t *testing.T) {
	s, _ := newTestSession(time.Date(2026, 3, 2, 8, 25, 0, 0, time.UTC))

	rec, err := s.CheckIn()
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if rec.Status != attendance.StatusLate {
		t.Errorf("status = %s, want %s", rec.Status, attendance.StatusLate)
	}
}

func TestSubmitPlan(t *testing.T) {
	s, _ := newTestSession(time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC))
	if _, err := s.CheckIn(); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	if err := s.SubmitPlan(0, 0); !errors.Is(err, ErrEmptyManifest) {
		t.Errorf("zero plan error = %v, want ErrEmptyManifest", err)
	}
	if s.Phase != PhasePlanning {
		t.Errorf("phase after rejected plan = %s, want %s", s.Phase, PhasePlanning)
	}

	// Negative counts are coerced to zero before validation.
	if err := s.SubmitPlan(-3, -1); !errors.Is(err, ErrEmptyManifest) {
		t.Errorf("negative plan error = %v, want ErrEmptyManifest", err)
	}

	if err := s.SubmitPlan(2, -5); err != nil {
		t.Fatalf("SubmitPlan: %v", err)
	}
	if s.Phase != PhaseLoading {
		t.Errorf("phase = %s, want %s", s.Phase, PhaseLoading)
	}
	want := Summary{TotalCod: 2, TotalNonCod: 0, TotalPackages: 2}
	if s.Summary != want {
		t.Errorf("summary = %+v, want %+v", s.Summary, want)
	}

	// The frozen plan cannot be resubmitted.
	if err := s.SubmitPlan(5, 5); err == nil {
		t.Error("expected phase error re-submitting a frozen plan")
	}
}

func TestScan(t *testing.T) {
	s, _ := loadSession(t, 1, 1)
	classifier := testClassifier()

	p, err := s.Scan("  spx-id-00001 ", classifier)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if p.TrackingNumber != "SPX-ID-00001" {
		t.Errorf("tracking = %s, want normalized SPX-ID-00001", p.TrackingNumber)
	}
	if p.Status != pkg.StatusLoaded {
		t.Errorf("status = %s, want %s", p.Status, pkg.StatusLoaded)
	}
	if p.Type != pkg.TypeCOD || p.CodAmount != 150000 {
		t.Errorf("classification = %s/%v, want COD/150000", p.Type, p.CodAmount)
	}

	if _, err := s.Scan("", classifier); !errors.Is(err, ErrEmptyTrackingNumber) {
		t.Errorf("empty scan error = %v, want ErrEmptyTrackingNumber", err)
	}

	// Duplicate detection is case-insensitive and changes nothing.
	if _, err := s.Scan("SPX-ID-00001", classifier); !errors.Is(err, ErrDuplicateScan) {
		t.Errorf("duplicate scan error = %v, want ErrDuplicateScan", err)
	}
	if len(s.Packages) != 1 {
		t.Errorf("package count after duplicate = %d, want 1", len(s.Packages))
	}

	// Newest scan sits first.
	if _, err := s.Scan("SPX-ID-00002", classifier); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if s.Packages[0].TrackingNumber != "SPX-ID-00002" {
		t.Errorf("first package = %s, want most recent scan", s.Packages[0].TrackingNumber)
	}
}

func TestStartDelivery(t *testing.T) {
	s, _ := loadSession(t, 2, 1)

	if _, err := s.StartDelivery(true); !errors.Is(err, ErrNoPackagesLoaded) {
		t.Fatalf("empty bag error = %v, want ErrNoPackagesLoaded", err)
	}

	if _, err := s.Scan("SPX-ID-00001", testClassifier()); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	// Unconfirmed start surfaces the reconciliation and changes nothing.
	_, err := s.StartDelivery(false)
	var confirmErr *ConfirmationRequiredError
	if !errors.As(err, &confirmErr) {
		t.Fatalf("error = %v, want ConfirmationRequiredError", err)
	}
	if confirmErr.Reconciliation == nil ||
		confirmErr.Reconciliation.Classification != ClassificationUnder {
		t.Errorf("reconciliation = %+v, want UNDER", confirmErr.Reconciliation)
	}
	if s.Phase != PhaseLoading {
		t.Errorf("phase after declined confirmation = %s, want %s", s.Phase, PhaseLoading)
	}

	rec, err := s.StartDelivery(true)
	if err != nil {
		t.Fatalf("StartDelivery: %v", err)
	}
	if s.Phase != PhaseDelivering {
		t.Errorf("phase = %s, want %s", s.Phase, PhaseDelivering)
	}
	if rec.Classification != ClassificationUnder || rec.Difference != 2 {
		t.Errorf("reconciliation = %+v, want UNDER by 2", rec)
	}
}

func TestFind(t *testing.T) {
	s, _ := deliverySession(t, "SPX-ID-00001", "SPX-ID-00002")

	if _, err := s.Find("spx-id-00002"); err != nil {
		t.Errorf("case-insensitive find: %v", err)
	}
	if _, err := s.Find("SPX-ID-99999"); !errors.Is(err, ErrNotInManifest) {
		t.Errorf("unknown code error = %v, want ErrNotInManifest", err)
	}

	if _, err := s.CompleteDelivery("SPX-ID-00001", "proofs/x", "Ibu Sari"); err != nil {
		t.Fatalf("CompleteDelivery: %v", err)
	}
	if _, err := s.Find("SPX-ID-00001"); !errors.Is(err, ErrAlreadyDelivered) {
		t.Errorf("delivered find error = %v, want ErrAlreadyDelivered", err)
	}
}

func TestCompleteDelivery(t *testing.T) {
	s, clock := deliverySession(t, "SPX-ID-00001")

	if _, err := s.CompleteDelivery("SPX-ID-00001", "   ", "Ibu Sari"); !errors.Is(err, ErrMissingProof) {
		t.Errorf("missing proof error = %v, want ErrMissingProof", err)
	}
	if _, err := s.CompleteDelivery("SPX-ID-00001", "proofs/x", "  "); !errors.Is(err, ErrMissingReceiver) {
		t.Errorf("missing receiver error = %v, want ErrMissingReceiver", err)
	}
	if s.Packages[0].Status != pkg.StatusLoaded {
		t.Fatalf("status after rejected completions = %s, want %s", s.Packages[0].Status, pkg.StatusLoaded)
	}

	clock.Advance(45 * time.Minute)
	p, err := s.CompleteDelivery("SPX-ID-00001", "proofs/2026-03-02/SPX-ID-00001", "Ibu Sari")
	if err != nil {
		t.Fatalf("CompleteDelivery: %v", err)
	}
	if p.Status != pkg.StatusDelivered {
		t.Errorf("status = %s, want %s", p.Status, pkg.StatusDelivered)
	}
	if p.ReceivedBy == nil || *p.ReceivedBy != "Ibu Sari" {
		t.Errorf("receivedBy = %v, want Ibu Sari", p.ReceivedBy)
	}
	// The captured receiver becomes the recipient of record; the manifest
	// address stays as planned.
	if p.RecipientName != "Ibu Sari" {
		t.Errorf("recipientName = %s, want Ibu Sari", p.RecipientName)
	}
	if p.Address != "Jl. Merdeka No. 45" {
		t.Errorf("address = %s, want manifest address untouched", p.Address)
	}
	if !p.Timestamp.Equal(clock.Now()) {
		t.Errorf("timestamp = %v, want %v", p.Timestamp, clock.Now())
	}

	// Delivering twice is rejected.
	if _, err := s.CompleteDelivery("SPX-ID-00001", "proofs/x", "Anyone"); !errors.Is(err, ErrAlreadyDelivered) {
		t.Errorf("second delivery error = %v, want ErrAlreadyDelivered", err)
	}
}

func TestFinishDelivery(t *testing.T) {
	s, _ := deliverySession(t, "SPX-ID-00001", "SPX-ID-00002")
	if _, err := s.CompleteDelivery("SPX-ID-00001", "proofs/x", "Ibu Sari"); err != nil {
		t.Fatalf("CompleteDelivery: %v", err)
	}

	err := s.FinishDelivery(false)
	var confirmErr *ConfirmationRequiredError
	if !errors.As(err, &confirmErr) {
		t.Fatalf("error = %v, want ConfirmationRequiredError", err)
	}
	if s.Phase != PhaseDelivering {
		t.Errorf("phase after declined confirmation = %s, want %s", s.Phase, PhaseDelivering)
	}

	if err := s.FinishDelivery(true); err != nil {
		t.Fatalf("FinishDelivery: %v", err)
	}
	if s.Phase != PhaseClosing {
		t.Errorf("phase = %s, want %s", s.Phase, PhaseClosing)
	}

	// The undelivered package was classified failed, the delivered one kept.
	counts := s.CountByStatus()
	if counts[pkg.StatusFailed] != 1 || counts[pkg.StatusDelivered] != 1 {
		t.Errorf("counts = %v, want 1 FAILED and 1 DELIVERED", counts)
	}
}

func TestLateDeliveryDuringClosing(t *testing.T) {
	s, _ := deliverySession(t, "SPX-ID-00001")
	if err := s.FinishDelivery(true); err != nil {
		t.Fatalf("FinishDelivery: %v", err)
	}

	// A recipient who answers the phone during return processing still gets
	// their package.
	p, err := s.CompleteDelivery("SPX-ID-00001", "proofs/x", "Pak Budi")
	if err != nil {
		t.Fatalf("CompleteDelivery during closing: %v", err)
	}
	if p.Status != pkg.StatusDelivered {
		t.Errorf("status = %s, want %s", p.Status, pkg.StatusDelivered)
	}
}

func TestCompleteReturn(t *testing.T) {
	s, _ := deliverySession(t, "SPX-ID-00001", "SPX-ID-00002")

	if _, err := s.CompleteReturn("SPX-ID-00001", "Staff Dini"); err == nil {
		t.Error("expected phase error returning during delivery")
	}

	if err := s.FinishDelivery(true); err != nil {
		t.Fatalf("FinishDelivery: %v", err)
	}

	if _, err := s.CompleteReturn("SPX-ID-00001", "   "); !errors.Is(err, ErrMissingStaffName) {
		t.Errorf("missing staff error = %v, want ErrMissingStaffName", err)
	}
	if _, err := s.CompleteReturn("SPX-ID-99999", "Staff Dini"); !errors.Is(err, ErrNotInManifest) {
		t.Errorf("unknown code error = %v, want ErrNotInManifest", err)
	}

	p, err := s.CompleteReturn("spx-id-00001", "Staff Dini")
	if err != nil {
		t.Fatalf("CompleteReturn: %v", err)
	}
	if p.Status != pkg.StatusReturned {
		t.Errorf("status = %s, want %s", p.Status, pkg.StatusReturned)
	}
	if p.ReceivedBy == nil || *p.ReceivedBy != "Staff Dini" {
		t.Errorf("receivedBy = %v, want Staff Dini", p.ReceivedBy)
	}

	if _, err := s.CompleteReturn("SPX-ID-00001", "Staff Dini"); !errors.Is(err, ErrAlreadyReturned) {
		t.Errorf("second return error = %v, want ErrAlreadyReturned", err)
	}
}

func TestEndShift(t *testing.T) {
	s, clock := deliverySession(t, "SPX-ID-00001", "SPX-ID-00002")
	if _, err := s.CompleteDelivery("SPX-ID-00001", "proofs/x", "Ibu Sari"); err != nil {
		t.Fatalf("CompleteDelivery: %v", err)
	}
	if err := s.FinishDelivery(true); err != nil {
		t.Fatalf("FinishDelivery: %v", err)
	}

	// The failed package still needs return processing.
	if _, err := s.EndShift(); !errors.Is(err, ErrPackagesOutstanding) {
		t.Fatalf("end with outstanding error = %v, want ErrPackagesOutstanding", err)
	}

	if _, err := s.CompleteReturn("SPX-ID-00002", "Staff Dini"); err != nil {
		t.Fatalf("CompleteReturn: %v", err)
	}

	clock.Advance(8 * time.Hour)
	closed, err := s.EndShift()
	if err != nil {
		t.Fatalf("EndShift: %v", err)
	}
	if len(closed.Packages) != 2 {
		t.Errorf("closed packages = %d, want 2", len(closed.Packages))
	}
	if closed.Attendance == nil || closed.Attendance.CheckOut == nil {
		t.Fatal("closed snapshot missing attendance check-out")
	}
	if !closed.Attendance.CheckOut.Equal(clock.Now()) {
		t.Errorf("check-out = %v, want %v", closed.Attendance.CheckOut, clock.Now())
	}

	// The session is back to its initial state, ready for tomorrow.
	if s.Phase != PhaseAbsent {
		t.Errorf("phase = %s, want %s", s.Phase, PhaseAbsent)
	}
	if len(s.Packages) != 0 || s.Attendance != nil || s.Summary != (Summary{}) {
		t.Error("session state not cleared after ending shift")
	}
	if _, err := s.CheckIn(); err != nil {
		t.Errorf("check-in after reset: %v", err)
	}
}

// TestFullShiftScenario walks a complete day: check in late, declare, scan,
// deliver one of two, fail and return the other, clock out.
func TestFullShiftScenario(t *testing.T) {
	s, clock := newTestSession(time.Date(2026, 3, 2, 8, 10, 0, 0, time.UTC))
	classifier := testClassifier()

	rec, err := s.CheckIn()
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if rec.Status != attendance.StatusLate {
		t.Errorf("attendance = %s, want %s", rec.Status, attendance.StatusLate)
	}

	if err := s.SubmitPlan(1, 1); err != nil {
		t.Fatalf("SubmitPlan: %v", err)
	}
	for _, code := range []string{"SPX-ID-00001", "SPX-ID-00002"} {
		if _, err := s.Scan(code, classifier); err != nil {
			t.Fatalf("Scan(%s): %v", code, err)
		}
	}

	rc, err := s.StartDelivery(true)
	if err != nil {
		t.Fatalf("StartDelivery: %v", err)
	}
	if rc.Classification != ClassificationExact {
		t.Errorf("reconciliation = %s, want %s", rc.Classification, ClassificationExact)
	}

	clock.Advance(time.Hour)
	if _, err := s.CompleteDelivery("SPX-ID-00001", "proofs/2026-03-02/SPX-ID-00001", "Budi Santoso"); err != nil {
		t.Fatalf("CompleteDelivery: %v", err)
	}

	if err := s.FinishDelivery(true); err != nil {
		t.Fatalf("FinishDelivery: %v", err)
	}
	if _, err := s.CompleteReturn("SPX-ID-00002", "Staff Dini"); err != nil {
		t.Fatalf("CompleteReturn: %v", err)
	}

	clock.Advance(6 * time.Hour)
	closed, err := s.EndShift()
	if err != nil {
		t.Fatalf("EndShift: %v", err)
	}
	if closed.Summary.TotalPackages != 2 {
		t.Errorf("archived total = %d, want 2", closed.Summary.TotalPackages)
	}

	delivered, returned := 0, 0
	for _, p := range closed.Packages {
		switch p.Status {
		case pkg.StatusDelivered:
			delivered++
		case pkg.StatusReturned:
			returned++
		}
	}
	if delivered != 1 || returned != 1 {
		t.Errorf("archive = %d delivered / %d returned, want 1/1", delivered, returned)
	}
}
