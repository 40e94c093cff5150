package oneshot

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestResolveThenGet(t *testing.T) {
	t.Parallel()
	w, r := New[int]()
	go func() {
		time.Sleep(30 * time.Millisecond)
		if err := w.Resolve(42); err != nil {
			t.Errorf("unexpected commit error: %v", err)
		}
	}()
	v, err := r.Get()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
	if _, err := r.Get(); !errors.Is(err, ErrAlreadyRetrieved) {
		t.Fatalf("expected ErrAlreadyRetrieved on second Get, got %v", err)
	}
}

func TestRejectPropagates(t *testing.T) {
	t.Parallel()
	w, r := New[string]()
	cause := errors.New("upstream failure")
	if err := w.Reject(cause); err != nil {
		t.Fatalf("unexpected commit error: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := r.Get(); !errors.Is(err, cause) {
			t.Fatalf("Get %d: expected committed error, got %v", i, err)
		}
	}
}

func TestCloseWithoutCommitBreaksContract(t *testing.T) {
	t.Parallel()
	w, r := New[int]()
	got := make(chan error, 1)
	go func() {
		_, err := r.Get()
		got <- err
	}()
	time.Sleep(20 * time.Millisecond)
	w.Close()
	select {
	case err := <-got:
		if !errors.Is(err, ErrBrokenContract) {
			t.Fatalf("expected ErrBrokenContract, got %v", err)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("blocked reader was not released by Close")
	}
	// Subsequent retrievals observe the same broken contract.
	if _, err := r.Get(); !errors.Is(err, ErrBrokenContract) {
		t.Fatalf("expected ErrBrokenContract again, got %v", err)
	}
}

func TestCloseAfterCommitIsNoop(t *testing.T) {
	t.Parallel()
	w, r := New[int]()
	if err := w.Resolve(7); err != nil {
		t.Fatalf("unexpected commit error: %v", err)
	}
	w.Close()
	w.Close()
	v, err := r.Get()
	if err != nil || v != 7 {
		t.Fatalf("expected (7, nil), got (%d, %v)", v, err)
	}
}

func TestWriterCollectedBreaksContract(t *testing.T) {
	t.Parallel()
	// Relies on the cleanup attached to the writer, so it is sensitive to GC
	// timing. The deadline is generous for that reason.
	_, r := New[int]()
	deadline := time.After(2 * time.Second)
	for {
		runtime.GC()
		select {
		case <-r.Done():
			if _, err := r.Get(); !errors.Is(err, ErrBrokenContract) {
				t.Fatalf("expected ErrBrokenContract, got %v", err)
			}
			return
		case <-deadline:
			t.Fatal("collected writer did not break the contract")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestWaitDoesNotConsume(t *testing.T) {
	t.Parallel()
	w, r := New[int]()
	if st, err := r.Wait(0); err != nil || st != TimedOut {
		t.Fatalf("expected (TimedOut, nil) before commit, got (%v, %v)", st, err)
	}
	if err := w.Resolve(1); err != nil {
		t.Fatalf("unexpected commit error: %v", err)
	}
	if st, err := r.Wait(0); err != nil || st != Ready {
		t.Fatalf("expected (Ready, nil) after commit, got (%v, %v)", st, err)
	}
	// Wait never consumed anything, so Get still succeeds.
	if v, err := r.Get(); err != nil || v != 1 {
		t.Fatalf("expected (1, nil), got (%d, %v)", v, err)
	}
}

func TestWaitBlocksUntilCommit(t *testing.T) {
	t.Parallel()
	w, r := New[int]()
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = w.Resolve(5)
	}()
	if st, err := r.Wait(500 * time.Millisecond); err != nil || st != Ready {
		t.Fatalf("expected (Ready, nil), got (%v, %v)", st, err)
	}
}

func TestConcurrentCommitFirstWins(t *testing.T) {
	t.Parallel()
	const N = 16
	w, r := New[int]()
	var committed atomic.Int32
	winner := make(chan int, 1)
	var wg sync.WaitGroup
	for i := 0; i < N; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := w.Resolve(i)
			switch {
			case err == nil:
				committed.Add(1)
				winner <- i
			case !errors.Is(err, ErrAlreadyCommitted):
				t.Errorf("expected ErrAlreadyCommitted, got %v", err)
			}
		}(i)
	}
	wg.Wait()
	if got := committed.Load(); got != 1 {
		t.Fatalf("expected exactly one successful commit, got %d", got)
	}
	v, err := r.Get()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := <-winner; v != want {
		t.Fatalf("retrieved %d, but winning commit was %d", v, want)
	}
}

func TestGetContextCancelled(t *testing.T) {
	t.Parallel()
	w, r := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := r.GetContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	// Cancellation affected only that call; the value is still deliverable.
	if err := w.Resolve(3); err != nil {
		t.Fatalf("unexpected commit error: %v", err)
	}
	if v, err := r.GetContext(context.Background()); err != nil || v != 3 {
		t.Fatalf("expected (3, nil), got (%d, %v)", v, err)
	}
}

func TestInvalidatedReader(t *testing.T) {
	t.Parallel()
	w, r := New[int]()
	if _, err := r.Shared(); err != nil {
		t.Fatalf("unexpected conversion error: %v", err)
	}
	if _, err := r.Get(); !errors.Is(err, ErrInvalidated) {
		t.Fatalf("expected ErrInvalidated from Get, got %v", err)
	}
	if _, err := r.Wait(0); !errors.Is(err, ErrInvalidated) {
		t.Fatalf("expected ErrInvalidated from Wait, got %v", err)
	}
	if _, err := r.Shared(); !errors.Is(err, ErrInvalidated) {
		t.Fatalf("expected ErrInvalidated from second Shared, got %v", err)
	}
	if r.Done() != nil {
		t.Fatal("Done on an invalidated reader should return nil")
	}
	_ = w.Resolve(1)
}

func TestDoneSelectable(t *testing.T) {
	t.Parallel()
	w, r := New[int]()
	select {
	case <-r.Done():
		t.Fatal("Done fired before commit")
	default:
	}
	if err := w.Resolve(9); err != nil {
		t.Fatalf("unexpected commit error: %v", err)
	}
	select {
	case <-r.Done():
	case <-time.After(200 * time.Millisecond):
		t.Fatal("Done did not fire after commit")
	}
}

func TestRejectNilPanics(t *testing.T) {
	t.Parallel()
	w, _ := New[int]()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic from Reject(nil)")
		}
		w.Close()
	}()
	_ = w.Reject(nil)
}
