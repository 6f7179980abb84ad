package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(clock *fakeClock) *Breaker {
	return New("upstream",
		WithFailureThreshold(2),
		WithSuccessThreshold(2),
		WithCooldown(time.Minute),
		WithClock(clock.Now),
	)
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b := newTestBreaker(clock)

	assert.True(t, b.Allow())
	assert.False(t, b.RecordFailure())
	assert.True(t, b.RecordFailure())
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := newTestBreaker(&fakeClock{t: time.Now()})

	b.RecordFailure()
	b.RecordSuccess()
	assert.False(t, b.RecordFailure())
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenProbing(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b := newTestBreaker(clock)
	b.RecordFailure()
	b.RecordFailure()

	clock.Advance(time.Minute)
	assert.True(t, b.Allow(), "first call after cooldown is a probe")
	assert.Equal(t, StateHalfOpen, b.State())
	assert.False(t, b.Allow(), "only one probe at a time")

	assert.False(t, b.RecordSuccess())
	assert.True(t, b.Allow())
	assert.True(t, b.RecordSuccess())
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b := newTestBreaker(clock)
	b.RecordFailure()
	b.RecordFailure()

	clock.Advance(2 * time.Minute)
	assert.True(t, b.Allow())
	assert.True(t, b.RecordFailure())
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreaker_ReleaseFreesProbeSlot(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b := newTestBreaker(clock)
	b.RecordFailure()
	b.RecordFailure()
	clock.Advance(time.Minute)

	assert.True(t, b.Allow())
	b.Release()
	assert.True(t, b.Allow())
	assert.Equal(t, "half_open", b.State().String())
}
