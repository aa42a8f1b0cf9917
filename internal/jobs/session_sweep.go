package jobs

import (
	"log/slog"
	"sync"
	"time"
)

// Sweeper evicts expired entries and reports how many it dropped.
// session.MemoryStore implements it.
type Sweeper interface {
	Sweep() int
}

// SessionSweeper periodically evicts expired in-memory sessions.
// Redis-backed sessions expire on their own and need no sweeper.
type SessionSweeper struct {
	store    Sweeper
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewSessionSweeper creates a sweeper job
func NewSessionSweeper(store Sweeper, interval time.Duration) *SessionSweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SessionSweeper{
		store:    store,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins sweeping in the background
func (s *SessionSweeper) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run()
	slog.Info("session sweeper started", slog.Duration("interval", s.interval))
}

// Stop ends the sweep loop and waits for it to return
func (s *SessionSweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	slog.Info("session sweeper stopped")
}

func (s *SessionSweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce()
		case <-s.stopCh:
			return
		}
	}
}

// RunOnce performs a single sweep and returns the number evicted
func (s *SessionSweeper) RunOnce() int {
	n := s.store.Sweep()
	if n > 0 {
		slog.Debug("evicted expired sessions", slog.Int("count", n))
	}
	return n
}

// IsRunning returns whether the sweep loop is active
func (s *SessionSweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
