package cooldown

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hejijunhao/khmerid/internal/model"
)

var t0 = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func valid(offset time.Duration) model.Verdict {
	return model.Verdict{Valid: true, Score: 8, ObservedAt: t0.Add(offset)}
}

func invalid(offset time.Duration) model.Verdict {
	return model.Verdict{Valid: false, ObservedAt: t0.Add(offset)}
}

func TestNewDefaults(t *testing.T) {
	assert.Equal(t, DefaultDuration, New(0).Duration())
	assert.Equal(t, DefaultDuration, New(-time.Second).Duration())
	assert.Equal(t, 250*time.Millisecond, New(250*time.Millisecond).Duration())
}

func TestInitialStateIdle(t *testing.T) {
	g := New(time.Second)
	assert.Equal(t, Idle, g.State(t0))
	_, ok := g.LastAccepted()
	assert.False(t, ok)
}

func TestSuppressWithinWindow(t *testing.T) {
	g := New(time.Second)

	require.True(t, g.Admit(valid(0)))
	assert.Equal(t, Cooling, g.State(t0.Add(500*time.Millisecond)))

	assert.False(t, g.Admit(valid(500*time.Millisecond)))
	assert.True(t, g.Admit(valid(1000*time.Millisecond)), "exactly one window later is admitted")
	assert.False(t, g.Admit(valid(1500*time.Millisecond)))
	assert.True(t, g.Admit(valid(2100*time.Millisecond)))
}

func TestSuppressedDoesNotExtendWindow(t *testing.T) {
	g := New(time.Second)

	require.True(t, g.Admit(valid(0)))
	require.False(t, g.Admit(valid(900*time.Millisecond)))

	last, ok := g.LastAccepted()
	require.True(t, ok)
	assert.Equal(t, t0, last)
	assert.True(t, g.Admit(valid(1000*time.Millisecond)))
}

func TestNegativeAlwaysForwarded(t *testing.T) {
	g := New(time.Second)

	assert.True(t, g.Admit(invalid(0)))
	assert.Equal(t, Idle, g.State(t0))

	require.True(t, g.Admit(valid(100*time.Millisecond)))
	assert.True(t, g.Admit(invalid(200*time.Millisecond)), "negative passes while cooling")
	assert.True(t, g.Admit(invalid(300*time.Millisecond)))

	last, _ := g.LastAccepted()
	assert.Equal(t, t0.Add(100*time.Millisecond), last, "negative verdicts must not move the window")
	assert.False(t, g.Admit(valid(1000*time.Millisecond)))
	assert.True(t, g.Admit(valid(1100*time.Millisecond)))
}

func TestStateExpires(t *testing.T) {
	g := New(time.Second)
	require.True(t, g.Admit(valid(0)))

	assert.Equal(t, Cooling, g.State(t0.Add(999*time.Millisecond)))
	assert.Equal(t, Idle, g.State(t0.Add(time.Second)))
}

func TestOutOfOrderOlderFrameSuppressed(t *testing.T) {
	g := New(time.Second)
	require.True(t, g.Admit(valid(2*time.Second)))

	assert.False(t, g.Admit(valid(500*time.Millisecond)), "older frame completing late stays suppressed")
	last, _ := g.LastAccepted()
	assert.Equal(t, t0.Add(2*time.Second), last)
}

func TestReset(t *testing.T) {
	g := New(time.Second)
	require.True(t, g.Admit(valid(0)))

	g.Reset()
	assert.Equal(t, Idle, g.State(t0))
	_, ok := g.LastAccepted()
	assert.False(t, ok)
	assert.True(t, g.Admit(valid(10*time.Millisecond)))
}

func TestZeroTimestampFirstVerdictAdmitted(t *testing.T) {
	g := New(time.Second)
	assert.True(t, g.Admit(model.Verdict{Valid: true}))
	assert.False(t, g.Admit(model.Verdict{Valid: true}))
}

func TestConcurrentAdmitForwardsOnce(t *testing.T) {
	for round := 0; round < 50; round++ {
		g := New(time.Second)
		var forwarded atomic.Int32
		var wg sync.WaitGroup
		start := make(chan struct{})

		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				if g.Admit(valid(time.Duration(i) * time.Millisecond)) {
					forwarded.Add(1)
				}
			}(i)
		}
		close(start)
		wg.Wait()

		require.Equal(t, int32(1), forwarded.Load(), "round %d", round)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "cooling", Cooling.String())
	assert.Equal(t, "unknown", State(9).String())
}
