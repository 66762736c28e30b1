package scheduler

import (
	"log"
	"sync"
	"time"

	"dotstatus/app/internal/telemetry"
	"dotstatus/app/internal/timeutil"
)

// Scheduler fires a poll-all tick once per hour at minute 0 in its
// zone. It is an explicit object owned by the process bootstrap; Start
// is idempotent and at most one tick runs at a time. A firing that
// arrives later than the misfire grace is skipped, never burst-caught-up,
// and a firing that would overlap a still-running tick is coalesced.
type Scheduler struct {
	loc     *time.Location
	grace   time.Duration
	pollAll func(time.Time)

	mu      sync.Mutex
	started bool
	stopped bool
	running bool

	stop chan struct{}
	wg   sync.WaitGroup

	now func() time.Time // overridable in tests
}

// New creates a scheduler that invokes pollAll on each tick.
func New(loc *time.Location, grace time.Duration, pollAll func(time.Time)) *Scheduler {
	return &Scheduler{
		loc:     loc,
		grace:   grace,
		pollAll: pollAll,
		stop:    make(chan struct{}),
		now:     time.Now,
	}
}

// Start launches the hourly loop plus one immediate tick so the
// dashboard is populated without waiting up to an hour. Calling Start
// again is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		log.Println("scheduler already started")
		return
	}
	s.started = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.RunTick(s.now().In(s.loc))
	}()

	s.wg.Add(1)
	go s.loop()

	log.Printf("scheduler started: hourly at minute 0 (%s), misfire grace %s", s.loc, s.grace)
}

// Stop terminates the loop and waits for an in-flight tick to finish.
// Like Start it is idempotent; further calls are no-ops.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.stop)
	s.wg.Wait()
}

func (s *Scheduler) loop() {
	defer s.wg.Done()
	for {
		now := s.now().In(s.loc)
		next := NextFire(now)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-timer.C:
			fired := s.now().In(s.loc)
			if fired.Sub(next) > s.grace {
				// Missed by more than the grace period (suspend,
				// clock jump): drop this firing.
				telemetry.TicksSkippedTotal.WithLabelValues("misfire").Inc()
				log.Printf("scheduler: skipping misfired tick scheduled for %s", next.Format(time.RFC3339))
				continue
			}
			s.RunTick(fired)
		case <-s.stop:
			timer.Stop()
			return
		}
	}
}

// RunTick executes one poll-all tick unless one is already running, in
// which case the new tick is coalesced away.
func (s *Scheduler) RunTick(now time.Time) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		telemetry.TicksSkippedTotal.WithLabelValues("overlap").Inc()
		log.Println("scheduler: previous tick still running, coalescing")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	t0 := time.Now()
	s.pollAll(now)
	telemetry.TickDuration.Observe(time.Since(t0).Seconds())
}

// NextFire returns the next top-of-hour after now, in now's location.
func NextFire(now time.Time) time.Time {
	return timeutil.FloorHour(now).Add(time.Hour)
}
