package pkg

import "testing"

func TestStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusPending, false},
		{StatusLoaded, false},
		{StatusFailed, false},
		{StatusDelivered, true},
		{StatusReturned, true},
	}
	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.terminal {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.status, got, tt.terminal)
		}
		if got := tt.status.CanBeUpdated(); got == tt.terminal {
			t.Errorf("%s.CanBeUpdated() = %v, want %v", tt.status, got, !tt.terminal)
		}
	}
}

func TestStatusIsValid(t *testing.T) {
	for _, s := range GetAllStatuses() {
		if !s.IsValid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Status("SHIPPED").IsValid() {
		t.Error("unknown status should be invalid")
	}
}

func TestExternalLinks(t *testing.T) {
	p := &Package{
		PhoneNumber: "6281234567890",
		Lat:         -6.2,
		Lng:         106.816666,
	}

	if got, want := p.WhatsAppLink(), "https://wa.me/6281234567890"; got != want {
		t.Errorf("WhatsAppLink = %s, want %s", got, want)
	}
	if got, want := p.MapsLink(), "https://www.google.com/maps/dir/?api=1&destination=-6.200000,106.816666"; got != want {
		t.Errorf("MapsLink = %s, want %s", got, want)
	}
}
