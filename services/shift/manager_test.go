package shift

import (
	"errors"
	"sync"
	"testing"

	"mora-delivery/models/pkg"
	"mora-delivery/services/manifest"
)

func TestManagerSessionPerCourier(t *testing.T) {
	m := NewManager("07:30")

	a := m.Session(1)
	b := m.Session(2)
	if a == b {
		t.Fatal("different couriers share a session")
	}
	if a.ShiftStart != "07:30" {
		t.Errorf("shiftStart = %s, want configured 07:30", a.ShiftStart)
	}

	if m.Session(1) != a {
		t.Error("repeated lookup returned a different session")
	}
	if a.Phase != PhaseAbsent {
		t.Errorf("new session phase = %s, want %s", a.Phase, PhaseAbsent)
	}
}

func TestManagerDefaultShiftStart(t *testing.T) {
	m := NewManager("")
	if got := m.Session(1).ShiftStart; got != "08:00" {
		t.Errorf("shiftStart = %s, want default 08:00", got)
	}
}

// Concurrent requests scanning the same code must leave exactly one package
// in the session, however the goroutines interleave.
func TestManagerDoConcurrentScansKeepUniqueness(t *testing.T) {
	m := NewManager("")
	classifier := &manifest.StaticClassifier{
		Default: manifest.Detail{Type: pkg.TypeNonCOD, RecipientName: "On-file Recipient"},
	}

	err := m.Do(1, func(s *Session) error {
		if _, err := s.CheckIn(); err != nil {
			return err
		}
		return s.SubmitPlan(1, 1)
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	var wg sync.WaitGroup
	duplicates := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Do(1, func(s *Session) error {
				if _, err := s.Scan("SPX-ID-00001", classifier); err != nil {
					duplicates <- err
				}
				return nil
			})
		}()
	}
	wg.Wait()
	close(duplicates)

	rejected := 0
	for err := range duplicates {
		if !errors.Is(err, ErrDuplicateScan) {
			t.Errorf("unexpected scan error: %v", err)
		}
		rejected++
	}
	if rejected != 9 {
		t.Errorf("rejected scans = %d, want 9", rejected)
	}

	_ = m.Do(1, func(s *Session) error {
		if len(s.Packages) != 1 {
			t.Errorf("package count = %d, want 1", len(s.Packages))
		}
		return nil
	})
}

func TestManagerDoSerializes(t *testing.T) {
	m := NewManager("")

	// Concurrent check-ins against the same session must not race; exactly
	// one may win.
	var wg sync.WaitGroup
	wins := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Do(1, func(s *Session) error {
				if _, err := s.CheckIn(); err == nil {
					wins <- struct{}{}
				}
				return nil
			})
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	if count != 1 {
		t.Errorf("successful check-ins = %d, want exactly 1", count)
	}
}
