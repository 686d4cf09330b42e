package playback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock collects scheduled calls and fires them on demand.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(_ time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// advance fires all timers still pending, simulating the quiescent window elapsing.
func (c *fakeClock) advance() {
	c.mu.Lock()
	pending := c.timers
	c.timers = nil
	c.mu.Unlock()

	for _, t := range pending {
		if !t.stopped {
			t.fired = true
			t.f()
		}
	}
}

type fakeSyncer struct {
	mu    sync.Mutex
	calls []syncCall
	err   error
}

type syncCall struct {
	trainingID string
	progress   int
	completed  bool
}

func (s *fakeSyncer) SaveProgress(_ context.Context, trainingID string, progress int, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.calls = append(s.calls, syncCall{trainingID, progress, completed})
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func newTestPolicy(serverProgress int, syncer Syncer) (*Policy, *fakeClock) {
	clock := new(fakeClock)
	p := NewPolicy("trn1", serverProgress, syncer, nopLogger{})
	p.clock = clock
	return p, clock
}

func TestPolicy_stepRule(t *testing.T) {
	syncer := new(fakeSyncer)
	p, clock := newTestPolicy(0, syncer)

	// within the first decade: nothing qualifies
	for _, pct := range []int{1, 3, 6, 9} {
		p.Observe(pct)
	}
	clock.advance()
	assert.Empty(t, syncer.calls)

	// crossing a multiple of 10 qualifies
	p.Observe(12)
	clock.advance()
	assert.Equal(t, []syncCall{{"trn1", 12, false}}, syncer.calls)

	// same decade again: dropped
	p.Observe(15)
	clock.advance()
	assert.Len(t, syncer.calls, 1)
}

func TestPolicy_debounceCoalescing(t *testing.T) {
	syncer := new(fakeSyncer)
	p, clock := newTestPolicy(0, syncer)

	// a burst of updates inside the window coalesces into 1 write with the last qualifying value
	for _, pct := range []int{11, 22, 33, 44, 47} {
		p.Observe(pct)
	}
	clock.advance()

	assert.Equal(t, []syncCall{{"trn1", 44, false}}, syncer.calls)
}

func TestPolicy_neverSyncsBackwards(t *testing.T) {
	syncer := new(fakeSyncer)
	p, clock := newTestPolicy(40, syncer)

	p.Observe(20) // below the server-known baseline
	p.Observe(40)
	clock.advance()
	assert.Empty(t, syncer.calls)

	p.Observe(51)
	clock.advance()
	assert.Equal(t, []syncCall{{"trn1", 51, false}}, syncer.calls)
}

func TestPolicy_markSyncedCancelsStalePending(t *testing.T) {
	syncer := new(fakeSyncer)
	p, clock := newTestPolicy(0, syncer)

	p.Observe(42)
	p.MarkSynced(50) // milestone write beat the debounce
	clock.advance()

	assert.Empty(t, syncer.calls)
	assert.Equal(t, 50, p.ServerProgress())
}

func TestPolicy_closeCancelsPending(t *testing.T) {
	syncer := new(fakeSyncer)
	p, clock := newTestPolicy(0, syncer)

	p.Observe(33)
	p.Close()
	clock.advance()

	assert.Empty(t, syncer.calls)

	// observations after teardown are ignored
	p.Observe(66)
	clock.advance()
	assert.Empty(t, syncer.calls)
}

func TestPolicy_failedWriteIsRetriedByNextSample(t *testing.T) {
	syncer := &fakeSyncer{err: context.DeadlineExceeded}
	p, clock := newTestPolicy(0, syncer)

	p.Observe(25)
	clock.advance()
	assert.Empty(t, syncer.calls)
	assert.Equal(t, 0, p.ServerProgress())

	// next qualifying sample carries the state forward
	syncer.err = nil
	p.Observe(31)
	clock.advance()
	assert.Equal(t, []syncCall{{"trn1", 31, false}}, syncer.calls)
}
