package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/rpckeyring/internal/retry"
)

// instantTimer fires as soon as it is started and records every requested wait.
type instantTimer struct {
	waits []time.Duration
	c     chan time.Time
}

func (t *instantTimer) Start(d time.Duration) {
	t.waits = append(t.waits, d)
	t.c = make(chan time.Time, 1)
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time {
	return t.c
}

func failing(n int, calls *int) func(context.Context) error {
	return func(context.Context) error {
		*calls++
		if *calls <= n {
			return errors.New("not yet")
		}
		return nil
	}
}

func TestDo(t *testing.T) {
	tests := []struct {
		name        string
		failures    int
		expectCalls int
		expectWaits int
		expectError bool
	}{
		{name: "first attempt succeeds", failures: 0, expectCalls: 1, expectWaits: 0},
		{name: "one transient failure", failures: 1, expectCalls: 2, expectWaits: 1},
		{name: "four transient failures", failures: 4, expectCalls: 5, expectWaits: 4},
		{name: "five failures exhaust the policy", failures: 5, expectCalls: 5, expectWaits: 4, expectError: true},
		{name: "never succeeds", failures: 100, expectCalls: 5, expectWaits: 4, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timer := &instantTimer{}
			calls := 0

			err := retry.Do(context.Background(), retry.DefaultPolicy, failing(tt.failures, &calls), retry.WithTimer(timer))

			assert.Equal(t, tt.expectCalls, calls)
			assert.Len(t, timer.waits, tt.expectWaits)
			for _, w := range timer.waits {
				assert.Equal(t, 300*time.Millisecond, w)
			}

			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, retry.ErrExhausted)

				var exhausted *retry.ExhaustedError
				require.ErrorAs(t, err, &exhausted)
				assert.Equal(t, 5, exhausted.Attempts)
				assert.EqualError(t, exhausted.Last, "not yet")
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDo_Permanent(t *testing.T) {
	timer := &instantTimer{}
	stop := errors.New("stop")
	calls := 0

	err := retry.Do(context.Background(), retry.DefaultPolicy, func(context.Context) error {
		calls++
		return retry.Permanent(stop)
	}, retry.WithTimer(timer))

	require.Error(t, err)
	assert.ErrorIs(t, err, stop)
	assert.NotErrorIs(t, err, retry.ErrExhausted)
	assert.Equal(t, 1, calls)
	assert.Empty(t, timer.waits)
}

func TestDo_Notify(t *testing.T) {
	var seen []int
	calls := 0

	err := retry.Do(context.Background(), retry.Policy{Attempts: 3, Interval: time.Second}, failing(2, &calls),
		retry.WithTimer(&instantTimer{}),
		retry.WithNotify(func(attempt int, err error, next time.Duration) {
			seen = append(seen, attempt)
			assert.Equal(t, time.Second, next)
			assert.Error(t, err)
		}),
	)

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, seen)
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := retry.Do(ctx, retry.DefaultPolicy, func(context.Context) error {
		calls++
		cancel()
		return errors.New("boom")
	}, retry.WithTimer(&instantTimer{}))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextExpiresAfterLastAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := 0

	err := retry.Do(ctx, retry.Policy{Attempts: 2, Interval: time.Second}, func(context.Context) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("boom")
	}, retry.WithTimer(&instantTimer{}))

	require.Error(t, err)
	assert.ErrorIs(t, err, retry.ErrExhausted)
	assert.Equal(t, 2, calls)

	var exhausted *retry.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, exhausted.Attempts)
	assert.EqualError(t, exhausted.Last, "boom")
}

func TestDo_RealTimer(t *testing.T) {
	calls := 0
	start := time.Now()

	err := retry.Do(context.Background(), retry.Policy{Attempts: 3, Interval: 10 * time.Millisecond}, failing(2, &calls))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, retry.DefaultPolicy.Validate())
	assert.Error(t, retry.Policy{Attempts: 0}.Validate())
	assert.Error(t, retry.Policy{Attempts: 1, Interval: -time.Second}.Validate())

	err := retry.Do(context.Background(), retry.Policy{}, func(context.Context) error { return nil })
	assert.Error(t, err)
}
