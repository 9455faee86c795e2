package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_StartsClosed(t *testing.T) {
	b := New("identity-resolver")
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "identity-resolver", b.Name())
	assert.True(t, b.Allow())
}

func TestBreaker_Transitions(t *testing.T) {
	t.Run("opens on the threshold failure only", func(t *testing.T) {
		b := New("r", WithFailureThreshold(3))

		for i := 0; i < 2; i++ {
			fallback, change := b.RecordFailure()
			assert.False(t, fallback)
			assert.False(t, change.Opened)
		}
		fallback, change := b.RecordFailure()
		assert.True(t, fallback)
		assert.True(t, change.Opened)
		assert.True(t, b.IsOpen())

		fallback, change = b.RecordFailure()
		assert.True(t, fallback)
		assert.False(t, change.Opened, "already open")
	})

	t.Run("closes after consecutive successes", func(t *testing.T) {
		b := New("r", WithFailureThreshold(1), WithSuccessThreshold(2))
		b.RecordFailure()

		primary, change := b.RecordSuccess()
		assert.False(t, primary)
		assert.False(t, change.Closed)

		primary, change = b.RecordSuccess()
		assert.True(t, primary)
		assert.True(t, change.Closed)
		assert.False(t, b.IsOpen())
	})

	t.Run("success resets the failure streak", func(t *testing.T) {
		b := New("r", WithFailureThreshold(2))
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordFailure()
		assert.False(t, b.IsOpen())
		b.RecordFailure()
		assert.True(t, b.IsOpen())
	})

	t.Run("failure while open resets the success streak", func(t *testing.T) {
		b := New("r", WithFailureThreshold(1), WithSuccessThreshold(2))
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordFailure()
		b.RecordSuccess()
		assert.True(t, b.IsOpen())
		b.RecordSuccess()
		assert.False(t, b.IsOpen())
	})

	t.Run("reset closes", func(t *testing.T) {
		b := New("r", WithFailureThreshold(1))
		b.RecordFailure()
		b.Reset()
		assert.Equal(t, StateClosed, b.State())
	})
}

func TestBreaker_AllowProbesAfterCooldown(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	b := New("resolver", WithFailureThreshold(1), WithCooldown(time.Second), WithClock(clock))

	b.RecordFailure()
	assert.False(t, b.Allow(), "open breaker rejects within cooldown")

	now = now.Add(2 * time.Second)
	assert.True(t, b.Allow(), "one probe after cooldown")
	assert.False(t, b.Allow(), "second probe waits for the next window")
}
