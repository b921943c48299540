package scanner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// blockingSource never produces on its own; it only honors cancellation.
type blockingSource struct{}

func (blockingSource) NextCode(ctx context.Context) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type fixedSource struct {
	code string
}

func (f fixedSource) NextCode(ctx context.Context) (string, error) {
	return f.code, nil
}

func TestScannerProducesCode(t *testing.T) {
	s := New(fixedSource{code: "SPX-ID-00042"})

	code, err := s.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if code != "SPX-ID-00042" {
		t.Errorf("code = %s, want SPX-ID-00042", code)
	}

	// Producing a code ends the scan; a new one may begin.
	if _, err := s.Begin(context.Background()); err != nil {
		t.Errorf("second Begin after completion: %v", err)
	}
}

func TestScannerSinglePending(t *testing.T) {
	s := New(blockingSource{})

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		_, err := s.Begin(context.Background())
		done <- err
	}()
	<-started
	time.Sleep(20 * time.Millisecond)

	if _, err := s.Begin(context.Background()); !errors.Is(err, ErrScanInProgress) {
		t.Errorf("overlapping Begin error = %v, want ErrScanInProgress", err)
	}

	s.Cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled scan error = %v, want context.Canceled", err)
	}
}

// handoffSource lets the test hold a cancelled scan in its teardown while a
// fresh scan starts, to check the two never interfere.
type handoffSource struct {
	mu        sync.Mutex
	calls     int
	firstDone chan struct{}
	secondGo  chan struct{}
}

func (h *handoffSource) NextCode(ctx context.Context) (string, error) {
	h.mu.Lock()
	h.calls++
	call := h.calls
	h.mu.Unlock()

	if call == 1 {
		<-ctx.Done()
		<-h.firstDone
		return "", ctx.Err()
	}
	select {
	case <-h.secondGo:
		return "SPX-ID-00002", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestScannerCancelLeavesNextScanAlone(t *testing.T) {
	src := &handoffSource{
		firstDone: make(chan struct{}),
		secondGo:  make(chan struct{}),
	}
	s := New(src)

	first := make(chan error, 1)
	go func() {
		_, err := s.Begin(context.Background())
		first <- err
	}()
	time.Sleep(20 * time.Millisecond)
	s.Cancel()

	// The cancelled scan is still in teardown when the next one starts.
	type result struct {
		code string
		err  error
	}
	second := make(chan result, 1)
	go func() {
		code, err := s.Begin(context.Background())
		second <- result{code, err}
	}()
	time.Sleep(20 * time.Millisecond)

	// Let the first scan finish its teardown, then let the second produce.
	close(src.firstDone)
	time.Sleep(20 * time.Millisecond)
	close(src.secondGo)

	if err := <-first; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled scan error = %v, want context.Canceled", err)
	}
	got := <-second
	if got.err != nil {
		t.Fatalf("second scan failed: %v", got.err)
	}
	if got.code != "SPX-ID-00002" {
		t.Errorf("second scan code = %s, want SPX-ID-00002", got.code)
	}
}

func TestScannerCancelIdle(t *testing.T) {
	s := New(blockingSource{})
	// Nothing pending; must not panic or wedge later scans.
	s.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := s.Begin(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Begin error = %v, want deadline exceeded", err)
	}
}

func TestSimulatedSourceFormat(t *testing.T) {
	src := NewSimulatedSource(time.Millisecond, 42)

	code, err := src.NextCode(context.Background())
	if err != nil {
		t.Fatalf("NextCode: %v", err)
	}
	if !strings.HasPrefix(code, "SPX-ID-") || len(code) != len("SPX-ID-00000") {
		t.Errorf("code = %s, want SPX-ID-NNNNN", code)
	}
}

func TestSimulatedSourceHonorsCancel(t *testing.T) {
	src := NewSimulatedSource(time.Hour, 42)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.NextCode(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
