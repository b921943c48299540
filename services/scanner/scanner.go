// Package scanner models the barcode scanner collaborator: a black box that,
// once started, eventually produces exactly one tracking-code string or is
// cancelled with no effect. Real hardware replaces the simulated source.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

var ErrScanInProgress = errors.New("a scan is already pending")

// Source produces the next scanned code. Implementations must honor context
// cancellation.
type Source interface {
	NextCode(ctx context.Context) (string, error)
}

// SimulatedSource fakes camera decoding: after a fixed delay it yields a
// random code in the carrier's format.
type SimulatedSource struct {
	Delay time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulatedSource(delay time.Duration, seed int64) *SimulatedSource {
	return &SimulatedSource{
		Delay: delay,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

func (s *SimulatedSource) NextCode(ctx context.Context) (string, error) {
	timer := time.NewTimer(s.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
	}

	s.mu.Lock()
	suffix := s.rng.Intn(100000)
	s.mu.Unlock()
	return fmt.Sprintf("SPX-ID-%05d", suffix), nil
}

// Scanner enforces the collaborator contract: at most one outstanding scan,
// producing a code implicitly ends it, Cancel aborts it with no effect.
type Scanner struct {
	source Source

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    uint64
}

func New(source Source) *Scanner {
	return &Scanner{source: source}
}

// Begin starts a scan and blocks until the source produces a code, the
// context ends, or Cancel is called. A second Begin while one is pending
// fails with ErrScanInProgress.
func (s *Scanner) Begin(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return "", ErrScanInProgress
	}
	scanCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	code, err := s.source.NextCode(scanCtx)

	// Clear the pending slot only if it is still ours. After a Cancel a new
	// scan may already occupy it; tearing that one down here would kill a
	// scan nobody cancelled.
	s.mu.Lock()
	if s.gen == gen {
		s.cancel = nil
	}
	s.mu.Unlock()
	cancel()

	if err != nil {
		return "", err
	}
	return code, nil
}

// Cancel aborts the pending scan, if any. Safe to call with nothing pending.
func (s *Scanner) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
