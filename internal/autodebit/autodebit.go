// Package autodebit holds the machinery shared by the daily debit
// processors: per-account locking and retry with exponential backoff.
package autodebit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hana-ti/home-planner/internal/account"
	"github.com/hana-ti/home-planner/internal/ledger"
)

// Retry describes how often and how patiently a debit is retried.
type Retry struct {
	Attempts int
	Initial  time.Duration
	Factor   float64
	// Sleep waits between attempts; nil means a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetry makes three attempts, waiting 1s then 2s.
func DefaultRetry() Retry {
	return Retry{Attempts: 3, Initial: time.Second, Factor: 2}
}

// Do runs fn until it succeeds, returns a permanent error, or the attempts
// are exhausted. retryable decides whether an error is transient.
func (r Retry) Do(ctx context.Context, fn func(ctx context.Context) error, retryable func(error) bool) error {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = wait
	}
	delay := r.Initial
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil || !retryable(err) || attempt == attempts {
			return err
		}
		if serr := sleep(ctx, delay); serr != nil {
			return serr
		}
		if r.Factor > 1 {
			delay = time.Duration(float64(delay) * r.Factor)
		}
	}
	return err
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Locks serializes work per key.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocks returns an empty lock table.
func NewLocks() *Locks {
	return &Locks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its release function.
func (l *Locks) Lock(key string) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// Result totals one processor run.
type Result struct {
	ProcessDate string `json:"processDate"`
	Accounts    int    `json:"processedAccounts"`
	Success     int    `json:"successCount"`
	Failure     int    `json:"failureCount"`
	Errors      int    `json:"errorCount"`
	TotalAmount int64  `json:"totalAmount"`
}

// Merge adds other's counters to r.
func (r *Result) Merge(other Result) {
	r.Accounts += other.Accounts
	r.Success += other.Success
	r.Failure += other.Failure
	r.Errors += other.Errors
	r.TotalAmount += other.TotalAmount
}

// Transient reports whether a debit error is worth retrying. Missing or
// unusable accounts and invalid amounts will fail the same way again.
func Transient(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, account.ErrAccountNotFound), errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, account.ErrAccountInactive), errors.Is(err, account.ErrSameAccount),
		errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrInsufficientFunds):
		return false
	}
	return true
}
