package manifest

import (
	"math/rand"
	"sync"

	"mora-delivery/models/pkg"
)

// Detail is what the depot manifest knows about a tracking number before the
// courier ever touches the parcel.
type Detail struct {
	Type          pkg.Type
	CodAmount     float64
	RecipientName string
	Address       string
	PhoneNumber   string
	Lat           float64
	Lng           float64
}

// Classifier resolves a scanned tracking number to its manifest detail.
// A production implementation looks the code up in the depot system; the
// simulated one below stands in until that exists.
type Classifier interface {
	Classify(trackingNumber string) (Detail, error)
}

// MockClassifier fabricates manifest details the way the depot feed would fill
// them in. Roughly 30% of parcels come out COD with an amount in whole
// thousands.
type MockClassifier struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewMockClassifier(seed int64) *MockClassifier {
	return &MockClassifier{rng: rand.New(rand.NewSource(seed))}
}

func (m *MockClassifier) Classify(trackingNumber string) (Detail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := Detail{
		Type:          pkg.TypeNonCOD,
		RecipientName: "On-file Recipient",
		Address:       "Jl. Contoh Alamat No. 123",
		PhoneNumber:   "6281234567890",
		Lat:           -6.200000,
		Lng:           106.816666,
	}
	if m.rng.Float64() > 0.7 {
		d.Type = pkg.TypeCOD
		d.CodAmount = float64(m.rng.Intn(500)) * 1000
	}
	return d, nil
}

// StaticClassifier serves details from a fixed table, falling back to Default
// for unknown codes. Used in tests and as a stub manifest feed.
type StaticClassifier struct {
	Details map[string]Detail
	Default Detail
}

func (s *StaticClassifier) Classify(trackingNumber string) (Detail, error) {
	if d, ok := s.Details[trackingNumber]; ok {
		return d, nil
	}
	return s.Default, nil
}
