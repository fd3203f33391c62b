package scheduler

// Repeating claim loop
// Idle -> RunningPass -> Waiting -> RunningPass ... until the process is stopped

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"hot-claimer/internal/features/accounts"
	"hot-claimer/internal/features/claim"
	"hot-claimer/internal/infra/log"
	"hot-claimer/internal/infra/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// MinJitter and MaxJitter bound the minutes subtracted from the interval
	MinJitter = 1
	MaxJitter = 8
)

type State int

const (
	Idle State = iota
	RunningPass
	Waiting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case RunningPass:
		return "running_pass"
	case Waiting:
		return "waiting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Clock abstracts time so the loop can run without real timers
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RealClock uses wall time
func RealClock() Clock { return realClock{} }

// Jitter returns the whole minutes to subtract from the interval
type Jitter func() int

// UniformJitter draws uniformly from [MinJitter, MaxJitter]
func UniformJitter() int {
	return MinJitter + rand.IntN(MaxJitter-MinJitter+1)
}

// PassRunner walks the account list once
type PassRunner interface {
	RunPass(ctx context.Context, creds []accounts.Credential) claim.PassSummary
}

// Delay is interval minus jitter, with jitter clamped to [MinJitter, MaxJitter]
func Delay(intervalMinutes, jitter int) time.Duration {
	if jitter < MinJitter {
		jitter = MinJitter
	}
	if jitter > MaxJitter {
		jitter = MaxJitter
	}
	minutes := intervalMinutes - jitter
	if minutes < 0 {
		minutes = 0
	}
	return time.Duration(minutes) * time.Minute
}

type Options struct {
	IntervalMinutes int
	Clock           Clock
	Jitter          Jitter
	// OnState observes transitions, may be nil
	OnState func(State)
}

type Scheduler struct {
	runner   PassRunner
	creds    []accounts.Credential
	interval int
	clock    Clock
	jitter   Jitter
	onState  func(State)

	mu      sync.RWMutex
	state   State
	passes  int
	nextRun time.Time
	last    claim.PassSummary
}

func New(runner PassRunner, creds []accounts.Credential, opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.Jitter == nil {
		opts.Jitter = UniformJitter
	}
	return &Scheduler{
		runner:   runner,
		creds:    creds,
		interval: opts.IntervalMinutes,
		clock:    opts.Clock,
		jitter:   opts.Jitter,
		onState:  opts.OnState,
		state:    Idle,
	}
}

func (s *Scheduler) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Passes is the number of completed passes
func (s *Scheduler) Passes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.passes
}

// NextRun is zero until the first wait starts
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextRun
}

func (s *Scheduler) LastSummary() claim.PassSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	if s.onState != nil {
		s.onState(st)
	}
}

// Run loops until ctx is cancelled; per-account failures never end it
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.setState(Idle)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.RunOnce(ctx)

		if err := ctx.Err(); err != nil {
			return err
		}

		delay := Delay(s.interval, s.jitter())
		next := s.clock.Now().Add(delay)
		metrics.NextPassTimestamp.Set(float64(next.Unix()))
		s.mu.Lock()
		s.nextRun = next
		s.mu.Unlock()
		log.LogNotice(fmt.Sprintf("[ NEXT CLAIM IN %s ]", next.Format("15:04:05")),
			zap.Duration("delay", delay),
			zap.Time("next_run", next))

		s.setState(Waiting)
		if err := s.clock.Sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// RunOnce performs a single pass over all accounts
func (s *Scheduler) RunOnce(ctx context.Context) claim.PassSummary {
	s.setState(RunningPass)

	passID := uuid.NewString()
	start := s.clock.Now()
	log.LogInfo("Pass started", zap.String("pass_id", passID), zap.Int("accounts", len(s.creds)))

	summary := s.runner.RunPass(ctx, s.creds)

	elapsed := s.clock.Now().Sub(start)
	metrics.PassesTotal.Inc()
	metrics.PassDuration.Observe(elapsed.Seconds())

	s.mu.Lock()
	s.passes++
	s.last = summary
	s.mu.Unlock()

	log.LogSuccess(fmt.Sprintf("Pass finished: %d claimed, %d failed", summary.Succeeded, summary.Failed),
		zap.String("pass_id", passID),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int64("duration_ms", elapsed.Milliseconds()))

	return summary
}
