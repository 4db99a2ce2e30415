package utils

import (
	"sync"
	"time"
)

// WorkerPool runs jobs on a bounded number of goroutines, spacing job starts
// at least rateLimitMs apart.
type WorkerPool struct {
	maxWorkers  int
	rateLimitMs int
	semaphore   chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	lastRequest time.Time
}

// NewWorkerPool creates a WorkerPool with the given concurrency and rate limit.
// A non-positive maxWorkers is treated as 1.
func NewWorkerPool(maxWorkers, rateLimitMs int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		maxWorkers:  maxWorkers,
		rateLimitMs: rateLimitMs,
		semaphore:   make(chan struct{}, maxWorkers),
	}
}

// Submit enqueues a job, blocking while all workers are busy.
func (wp *WorkerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.semaphore <- struct{}{}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		wp.enforceRateLimit()
		job()
	}()
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) enforceRateLimit() {
	if wp.rateLimitMs <= 0 {
		return
	}
	wp.mu.Lock()
	defer wp.mu.Unlock()

	minInterval := time.Duration(wp.rateLimitMs) * time.Millisecond
	elapsed := time.Since(wp.lastRequest)
	if elapsed < minInterval {
		time.Sleep(minInterval - elapsed)
	}
	wp.lastRequest = time.Now()
}

// KeySet is a thread-safe set of strings grouped by kind, so page URLs and
// farm ids can share one set without colliding.
type KeySet struct {
	mu    sync.RWMutex
	kinds map[string]map[string]struct{}
}

// NewKeySet creates an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{kinds: make(map[string]map[string]struct{})}
}

// Add returns true if key was new for kind.
func (s *KeySet) Add(kind, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, ok := s.kinds[kind]
	if !ok {
		keys = make(map[string]struct{})
		s.kinds[kind] = keys
	}
	if _, exists := keys[key]; exists {
		return false
	}
	keys[key] = struct{}{}
	return true
}

func (s *KeySet) Contains(kind, key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.kinds[kind][key]
	return exists
}

// Count returns how many keys of kind have been added.
func (s *KeySet) Count(kind string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.kinds[kind])
}
