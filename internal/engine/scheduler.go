package engine

import (
	"sync"
	"time"
)

// Scheduler owns the per-transaction confirmation timers. Every task is
// keyed by transaction id and explicitly cancelable, so a settled or failed
// transaction never leaks a timer.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Ticker
	done   map[string]chan struct{}
	wg     sync.WaitGroup
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		timers: make(map[string]*time.Ticker),
		done:   make(map[string]chan struct{}),
	}
}

// Every runs fn repeatedly at the given interval until Cancel(id) or Stop.
// Scheduling twice under the same id replaces the previous task.
func (s *Scheduler) Every(id string, interval time.Duration, fn func()) {
	s.mu.Lock()
	if _, ok := s.timers[id]; ok {
		s.cancelLocked(id)
	}
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	s.timers[id] = ticker
	s.done[id] = done
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				// A tick can already be buffered when Cancel closes done,
				// and select picks arbitrarily among ready cases. Re-check
				// so a canceled task never fires again.
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()
}

// Cancel stops and removes the task for id. Safe to call for unknown ids and
// safe to call more than once.
func (s *Scheduler) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(id)
}

func (s *Scheduler) cancelLocked(id string) {
	ticker, ok := s.timers[id]
	if !ok {
		return
	}
	ticker.Stop()
	close(s.done[id])
	delete(s.timers, id)
	delete(s.done, id)
}

// Active returns the number of scheduled tasks.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every task and waits for the task goroutines to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for id := range s.timers {
		s.cancelLocked(id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}
