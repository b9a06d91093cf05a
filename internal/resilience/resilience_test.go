package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/edgard/wooadminbot/internal/resilience"
)

type recorder struct {
	waits []time.Duration
}

func (r *recorder) wait(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func TestRetrierBackoffSequence(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	r := resilience.NewRetrier(3, time.Second)
	r.Wait = rec.wait

	calls := 0
	boom := errors.New("connection reset")
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.waits)
}

func TestRetrierStopsOnSuccess(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	r := resilience.NewRetrier(3, time.Second)
	r.Wait = rec.wait

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("timeout")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []time.Duration{time.Second}, rec.waits)
}

func TestRetrierReturnsLastError(t *testing.T) {
	t.Parallel()

	r := resilience.NewRetrier(3, 0)
	r.Wait = (&recorder{}).wait

	errs := []error{errors.New("first"), errors.New("second"), errors.New("third")}
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		e := errs[calls]
		calls++
		return e
	})

	assert.EqualError(t, err, "third")
}

func TestRetrierNonRetryable(t *testing.T) {
	t.Parallel()

	permanent := errors.New("bad request")
	r := resilience.NewRetrier(3, time.Second)
	r.Wait = (&recorder{}).wait
	r.Retryable = func(err error) bool { return !errors.Is(err, permanent) }

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetrierContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	r := resilience.NewRetrier(3, time.Hour)

	calls := 0
	err := r.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("dial tcp: refused")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetrierOnRetryHook(t *testing.T) {
	t.Parallel()

	var attempts []int
	r := resilience.NewRetrier(3, time.Millisecond)
	r.Wait = (&recorder{}).wait
	r.OnRetry = func(attempt int, _ time.Duration, _ error) {
		attempts = append(attempts, attempt)
	}

	_ = r.Do(context.Background(), func(context.Context) error { return errors.New("x") })
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestRetrierDelay(t *testing.T) {
	t.Parallel()

	r := resilience.NewRetrier(0, -1)
	assert.Equal(t, resilience.DefaultMaxAttempts, r.MaxAttempts)
	assert.Equal(t, time.Second, r.Delay(0))
	assert.Equal(t, 2*time.Second, r.Delay(1))
	assert.Equal(t, 4*time.Second, r.Delay(2))
}
