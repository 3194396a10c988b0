package autodebit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hana-ti/home-planner/internal/account"
	"github.com/hana-ti/home-planner/internal/ledger"
)

var errTransient = errors.New("transient")

func recordingRetry(waits *[]time.Duration) Retry {
	r := DefaultRetry()
	r.Sleep = func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return r
}

func TestRetryBacksOffExponentially(t *testing.T) {
	var waits []time.Duration
	calls := 0
	err := recordingRetry(&waits).Do(context.Background(), func(context.Context) error {
		calls++
		return errTransient
	}, func(error) bool { return true })
	if !errors.Is(err, errTransient) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if len(waits) != 2 || waits[0] != time.Second || waits[1] != 2*time.Second {
		t.Fatalf("unexpected waits %v", waits)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	var waits []time.Duration
	calls := 0
	permanent := errors.New("permanent")
	err := recordingRetry(&waits).Do(context.Background(), func(context.Context) error {
		calls++
		return permanent
	}, func(err error) bool { return errors.Is(err, errTransient) })
	if !errors.Is(err, permanent) || calls != 1 || len(waits) != 0 {
		t.Fatalf("expected a single attempt, got calls=%d err=%v", calls, err)
	}
}

func TestRetrySucceedsAfterTransientFailure(t *testing.T) {
	var waits []time.Duration
	calls := 0
	err := recordingRetry(&waits).Do(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return errTransient
		}
		return nil
	}, func(error) bool { return true })
	if err != nil || calls != 2 {
		t.Fatalf("expected success on second attempt, got calls=%d err=%v", calls, err)
	}
}

func TestRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := Retry{Attempts: 3, Initial: time.Hour, Factor: 2}
	err := r.Do(ctx, func(context.Context) error { return errTransient }, func(error) bool { return true })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLocksSerializePerKey(t *testing.T) {
	locks := NewLocks()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("acc-1")
			defer unlock()
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected exclusive access, saw %d concurrent holders", maxSeen)
	}
}

func TestTransientClassification(t *testing.T) {
	if Transient(ledger.ErrInsufficientFunds) || Transient(account.ErrAccountNotFound) || Transient(context.Canceled) {
		t.Fatalf("domain and cancellation errors must not be retried")
	}
	if !Transient(errTransient) {
		t.Fatalf("unknown errors are retried")
	}
}
