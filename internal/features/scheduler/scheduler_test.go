package scheduler

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"hot-claimer/internal/clients_api/near"
	"hot-claimer/internal/features/accounts"
	"hot-claimer/internal/features/claim"
	"hot-claimer/internal/infra/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetConsole(nil)
	os.Exit(m.Run())
}

// fakeClock advances instantly and cancels the run after maxSleeps waits
type fakeClock struct {
	now       time.Time
	sleeps    []time.Duration
	maxSleeps int
	cancel    context.CancelFunc
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	if len(c.sleeps) >= c.maxSleeps {
		c.cancel()
		return ctx.Err()
	}
	return nil
}

type countingRunner struct {
	passes [][]string
}

func (r *countingRunner) RunPass(ctx context.Context, creds []accounts.Credential) claim.PassSummary {
	r.passes = append(r.passes, accounts.IDs(creds))
	return claim.PassSummary{Succeeded: len(creds)}
}

func testCreds(ids ...string) []accounts.Credential {
	out := make([]accounts.Credential, len(ids))
	for i, id := range ids {
		out[i] = accounts.Credential{PrivateKey: "ed25519:k", AccountID: id}
	}
	return out
}

func TestDelay_Bounds(t *testing.T) {
	for _, interval := range []int{120, 180, 240} {
		for j := MinJitter; j <= MaxJitter; j++ {
			d := Delay(interval, j)
			assert.GreaterOrEqual(t, d, time.Duration(interval-8)*time.Minute)
			assert.LessOrEqual(t, d, time.Duration(interval-1)*time.Minute)
		}
	}

	assert.Equal(t, 119*time.Minute, Delay(120, 0), "jitter below range is clamped")
	assert.Equal(t, 112*time.Minute, Delay(120, 50), "jitter above range is clamped")
	assert.Equal(t, time.Duration(0), Delay(3, 8))
}

func TestUniformJitter_Range(t *testing.T) {
	seen := map[int]bool{}
	for i := 0; i < 5000; i++ {
		j := UniformJitter()
		require.GreaterOrEqual(t, j, MinJitter)
		require.LessOrEqual(t, j, MaxJitter)
		seen[j] = true
	}
	assert.Len(t, seen, MaxJitter-MinJitter+1)
}

func TestScheduler_RepeatsPassesWithJitteredDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := &fakeClock{now: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), maxSleeps: 3, cancel: cancel}
	jitters := []int{1, 8, 4}
	runner := &countingRunner{}

	var states []State
	s := New(runner, testCreds("a.tg", "b.tg"), Options{
		IntervalMinutes: 180,
		Clock:           clock,
		Jitter: func() int {
			j := jitters[0]
			jitters = jitters[1:]
			return j
		},
		OnState: func(st State) { states = append(states, st) },
	})

	err := s.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, s.Passes())
	assert.Equal(t, [][]string{{"a.tg", "b.tg"}, {"a.tg", "b.tg"}, {"a.tg", "b.tg"}}, runner.passes)
	assert.Equal(t, []time.Duration{179 * time.Minute, 172 * time.Minute, 176 * time.Minute}, clock.sleeps)
	assert.Equal(t, []State{RunningPass, Waiting, RunningPass, Waiting, RunningPass, Waiting, Idle}, states)
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, clock.now, s.NextRun())
	assert.Equal(t, 2, s.LastSummary().Succeeded)
}

type flakyAccount struct {
	fail  bool
	calls int
}

func (f *flakyAccount) FunctionCall(ctx context.Context, contractID, method string, args any, gas uint64) (*near.TransactionResult, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("rpc unreachable")
	}
	return &near.TransactionResult{Hash: "h", Actions: 1}, nil
}

func (f *flakyAccount) ViewFunction(ctx context.Context, contractID, method string, args any) ([]byte, error) {
	return []byte(`"0"`), nil
}

func TestScheduler_FailureOnSecondAccountDoesNotStopLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	accs := map[string]*flakyAccount{
		"one.tg":   {},
		"two.tg":   {fail: true},
		"three.tg": {},
	}
	executor := claim.NewExecutor(func(cred accounts.Credential) (claim.ChainAccount, error) {
		return accs[cred.AccountID], nil
	}, nil, claim.Options{})

	clock := &fakeClock{now: time.Now(), maxSleeps: 2, cancel: cancel}
	s := New(executor, testCreds("one.tg", "two.tg", "three.tg"), Options{
		IntervalMinutes: 120,
		Clock:           clock,
		Jitter:          func() int { return 5 },
	})

	err := s.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, s.Passes())
	for id, acc := range accs {
		assert.Equal(t, 2, acc.calls, id)
	}
	assert.Equal(t, []time.Duration{115 * time.Minute, 115 * time.Minute}, clock.sleeps)
}

func TestScheduler_RunOnce(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, testCreds("a.tg"), Options{IntervalMinutes: 120, Clock: &fakeClock{now: time.Now()}})

	summary := s.RunOnce(context.Background())

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, s.Passes())
	assert.Equal(t, RunningPass, s.State())
}

func TestScheduler_StopsBeforeFirstPassWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &countingRunner{}
	err := New(runner, testCreds("a.tg"), Options{IntervalMinutes: 120}).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, runner.passes)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running_pass", RunningPass.String())
	assert.Equal(t, "waiting", Waiting.String())
}
