package shift

import "fmt"

// Classification of the scanned count against the declared manifest total.
type Classification string

const (
	ClassificationExact Classification = "EXACT"
	ClassificationUnder Classification = "UNDER"
	ClassificationOver  Classification = "OVER"
)

// Reconciliation is the result of comparing what the courier scanned against
// what they declared. Every classification requires an explicit confirmation
// before loading can end; none of them hard-block the transition.
type Reconciliation struct {
	Classification Classification `json:"classification"`
	Declared       int            `json:"declared"`
	Loaded         int            `json:"loaded"`
	Difference     int            `json:"difference"`
	Message        string         `json:"message"`
}

// Reconcile classifies the loaded count against the declared total.
func Reconcile(loaded, declared int) Reconciliation {
	switch {
	case loaded < declared:
		return Reconciliation{
			Classification: ClassificationUnder,
			Declared:       declared,
			Loaded:         loaded,
			Difference:     declared - loaded,
			Message: fmt.Sprintf(
				"Warning: you planned to carry %d packages but scanned only %d. Continue delivery with %d missing?",
				declared, loaded, declared-loaded),
		}
	case loaded > declared:
		return Reconciliation{
			Classification: ClassificationOver,
			Declared:       declared,
			Loaded:         loaded,
			Difference:     loaded - declared,
			Message: fmt.Sprintf(
				"Info: scanned packages (%d) exceed the declared plan (%d). Continue?",
				loaded, declared),
		}
	default:
		return Reconciliation{
			Classification: ClassificationExact,
			Declared:       declared,
			Loaded:         loaded,
			Message:        "Finished loading? Make sure every package is in the bag.",
		}
	}
}
