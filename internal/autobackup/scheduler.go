// Package autobackup debounces backup requests: each identity gets one
// pending run that fires once writes have been quiet for the configured
// delay.
package autobackup

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/julianstephens/nextstep/internal/logger"
	"github.com/julianstephens/nextstep/internal/models"
)

// RunFunc performs the backup for one identity.
type RunFunc func(ctx context.Context, id models.Identity) error

type pending struct {
	timer clockwork.Timer
	gen   uint64
}

type Scheduler struct {
	clock clockwork.Clock
	delay time.Duration
	run   RunFunc

	mu      sync.Mutex
	pending map[models.Identity]pending
	gen     uint64
	stopped bool

	// runs are serialized so two backups never race on the same files
	runMu    sync.Mutex
	inflight sync.WaitGroup
}

func New(run RunFunc, delay time.Duration, clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		clock:   clock,
		delay:   delay,
		run:     run,
		pending: make(map[models.Identity]pending),
	}
}

// Schedule (re)arms the identity's timer. Calls inside the delay window
// collapse into a single run.
func (s *Scheduler) Schedule(id models.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if p, ok := s.pending[id]; ok {
		p.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.pending[id] = pending{
		timer: s.clock.AfterFunc(s.delay, func() { s.fire(id, gen) }),
		gen:   gen,
	}
}

func (s *Scheduler) fire(id models.Identity, gen uint64) {
	s.mu.Lock()
	p, ok := s.pending[id]
	if !ok || p.gen != gen || s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.pending, id)
	s.inflight.Add(1)
	s.mu.Unlock()

	defer s.inflight.Done()
	if err := s.execute(context.Background(), id); err != nil {
		logger.Warn("Automatic backup failed", "identity", id.Segment(), "error", err)
	}
}

func (s *Scheduler) execute(ctx context.Context, id models.Identity) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.run(ctx, id)
}

// Cancel drops the identity's pending run, if any.
func (s *Scheduler) Cancel(id models.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pending[id]; ok {
		p.timer.Stop()
		delete(s.pending, id)
	}
}

// Pending reports whether a run is waiting for the identity.
func (s *Scheduler) Pending(id models.Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	return ok
}

// Flush runs every pending backup now instead of waiting for its timer.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	ids := make([]models.Identity, 0, len(s.pending))
	for id, p := range s.pending {
		p.timer.Stop()
		ids = append(ids, id)
	}
	clear(s.pending)
	s.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := s.execute(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stop discards pending runs, rejects new ones and waits for a run already
// in progress.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for _, p := range s.pending {
		p.timer.Stop()
	}
	clear(s.pending)
	s.mu.Unlock()

	s.inflight.Wait()
}
