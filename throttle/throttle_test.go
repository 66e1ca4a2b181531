package throttle

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestThrottle(interval time.Duration) (*Throttle, func(time.Duration)) {
	t := New(interval)
	current := time.Unix(1000, 0)
	t.now = func() time.Time { return current }
	advance := func(d time.Duration) { current = current.Add(d) }
	return t, advance
}

func TestShouldEmit_AtMostOncePerInterval(t *testing.T) {
	th, _ := newTestThrottle(100 * time.Millisecond)

	emitted := 0
	for i := 0; i < 50; i++ {
		if th.ShouldEmit("s1", false) {
			emitted++
		}
	}
	assert.Equal(t, 1, emitted)
}

func TestShouldEmit_AllowsAfterInterval(t *testing.T) {
	th, advance := newTestThrottle(100 * time.Millisecond)

	assert.True(t, th.ShouldEmit("s1", false))
	assert.False(t, th.ShouldEmit("s1", false))

	advance(99 * time.Millisecond)
	assert.False(t, th.ShouldEmit("s1", false))

	advance(1 * time.Millisecond)
	assert.True(t, th.ShouldEmit("s1", false))
}

func TestShouldEmit_TerminalAlwaysPasses(t *testing.T) {
	th, _ := newTestThrottle(time.Hour)

	assert.True(t, th.ShouldEmit("s1", false))
	assert.False(t, th.ShouldEmit("s1", false))
	assert.True(t, th.ShouldEmit("s1", true), "terminal bypasses the interval")
}

func TestShouldEmit_TerminalClearsEntry(t *testing.T) {
	th, _ := newTestThrottle(time.Hour)

	th.ShouldEmit("s1", false)
	assert.True(t, th.Tracked("s1"))

	th.ShouldEmit("s1", true)
	assert.False(t, th.Tracked("s1"), "terminal emit must drop the timestamp entry")
}

func TestForget(t *testing.T) {
	th, _ := newTestThrottle(time.Hour)
	th.ShouldEmit("s1", false)
	th.Forget("s1")
	assert.False(t, th.Tracked("s1"))
	// forgotten session starts fresh
	assert.True(t, th.ShouldEmit("s1", false))
}

func TestShouldEmit_SessionsIndependent(t *testing.T) {
	th, _ := newTestThrottle(time.Hour)
	assert.True(t, th.ShouldEmit("a", false))
	assert.True(t, th.ShouldEmit("b", false))
	assert.False(t, th.ShouldEmit("a", false))
	assert.False(t, th.ShouldEmit("b", false))
}

func TestShouldEmit_ConcurrentSessions(t *testing.T) {
	th := New(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(id byte) {
			defer wg.Done()
			key := string([]byte{'s', id})
			assert.True(t, th.ShouldEmit(key, false))
			assert.False(t, th.ShouldEmit(key, false))
			assert.True(t, th.ShouldEmit(key, true))
		}(byte(i))
	}
	wg.Wait()
}

func TestNew_NonPositiveIntervalUsesDefault(t *testing.T) {
	th := New(0)
	assert.Equal(t, DefaultInterval, th.interval)
}
