package shift

import (
	"strings"
	"testing"
)

func TestReconcile(t *testing.T) {
	tests := []struct {
		name           string
		loaded         int
		declared       int
		classification Classification
		difference     int
		mentions       string
	}{
		{
			name:           "exact match",
			loaded:         10,
			declared:       10,
			classification: ClassificationExact,
			difference:     0,
			mentions:       "Finished loading",
		},
		{
			name:           "short load",
			loaded:         7,
			declared:       10,
			classification: ClassificationUnder,
			difference:     3,
			mentions:       "scanned only 7",
		},
		{
			name:           "over load",
			loaded:         12,
			declared:       10,
			classification: ClassificationOver,
			difference:     2,
			mentions:       "exceed",
		},
		{
			name:           "nothing scanned",
			loaded:         0,
			declared:       5,
			classification: ClassificationUnder,
			difference:     5,
			mentions:       "5 missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Reconcile(tt.loaded, tt.declared)
			if rec.Classification != tt.classification {
				t.Errorf("classification = %s, want %s", rec.Classification, tt.classification)
			}
			if rec.Difference != tt.difference {
				t.Errorf("difference = %d, want %d", rec.Difference, tt.difference)
			}
			if rec.Loaded != tt.loaded || rec.Declared != tt.declared {
				t.Errorf("counts = %d/%d, want %d/%d", rec.Loaded, rec.Declared, tt.loaded, tt.declared)
			}
			if !strings.Contains(rec.Message, tt.mentions) {
				t.Errorf("message %q does not mention %q", rec.Message, tt.mentions)
			}
		})
	}
}
