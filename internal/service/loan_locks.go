package service

import (
	"sync"

	"github.com/google/uuid"
)

// LoanLocker serializes mutating operations per loan aggregate. Every ledger
// or workflow mutation for a loan takes its lock, so the non-negative-balance
// invariant and the single-step-forward approval rule cannot be broken by
// interleaving; operations on different loans proceed in parallel.
//
// Mutexes are retained for the process lifetime, one per distinct loan
// touched; the map is never pruned. TODO: refcounted eviction if loan
// cardinality ever makes this map a measurable share of the heap.
type LoanLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewLoanLocker() *LoanLocker {
	return &LoanLocker{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Lock acquires the mutex for one loan and returns the release func.
func (l *LoanLocker) Lock(loanID uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[loanID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[loanID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
