package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/trezcool/mafunzo/core"
)

const (
	// syncStep is the granularity of debounced writes: a new write is only
	// scheduled when progress has advanced past a multiple of syncStep
	// since the last scheduled value.
	syncStep = 10

	// quiescentWindow is the trailing-edge debounce window: a scheduled write
	// is issued only after this long without a newer qualifying update.
	quiescentWindow = 2 * time.Second
)

// Syncer persists an observed progress percentage for a training.
type Syncer interface {
	SaveProgress(ctx context.Context, trainingID string, progress int, completed bool) error
}

// Policy rate-limits progress writes to the server.
//
// It is a trailing-edge debounce state machine (Idle -> Pending -> Idle):
// a qualifying update schedules a write after quiescentWindow; any newer
// qualifying update inside the window cancels the pending timer and
// reschedules with the latest value, so a burst of samples coalesces into
// a single request carrying the last value.
type Policy struct {
	trainingID string
	syncer     Syncer
	logger     core.Logger
	clock      Clock
	window     time.Duration

	mu            sync.Mutex
	lastScheduled int // last value a write was scheduled for
	serverKnown   int // last value known to be stored server-side; never sync backwards
	pending       int
	timer         Timer
	closed        bool
}

func NewPolicy(trainingID string, serverProgress int, syncer Syncer, logger core.Logger) *Policy {
	return &Policy{
		trainingID:    trainingID,
		syncer:        syncer,
		logger:        logger,
		clock:         realClock{},
		window:        quiescentWindow,
		lastScheduled: serverProgress,
		serverKnown:   serverProgress,
	}
}

// Observe considers a new progress percentage for synchronization.
// Non-qualifying values are dropped; qualifying ones (re)start the debounce window.
func (p *Policy) Observe(pct int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	if pct <= p.serverKnown {
		return // never sync backwards
	}
	if pct/syncStep <= p.lastScheduled/syncStep {
		return // has not advanced past the next multiple of syncStep yet
	}

	p.lastScheduled = pct
	p.pending = pct
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = p.clock.AfterFunc(p.window, p.flush)
}

// MarkSynced records a value persisted outside the debounce path (milestone
// writes), so a pending lower value does not get re-sent after it.
func (p *Policy) MarkSynced(pct int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pct > p.serverKnown {
		p.serverKnown = pct
	}
	if pct > p.lastScheduled {
		p.lastScheduled = pct
	}
	if p.timer != nil && p.pending <= pct {
		p.timer.Stop()
		p.timer = nil
	}
}

// ServerProgress returns the last value known to be stored server-side.
func (p *Policy) ServerProgress() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.serverKnown
}

// Close cancels any pending write. It must be called on teardown (page
// navigation) so a stale write does not fire after the view is gone.
func (p *Policy) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *Policy) flush() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	val := p.pending
	p.timer = nil
	p.mu.Unlock()

	// write failures are non-fatal: the next qualifying sample or the next
	// session corrects the gap
	if err := p.syncer.SaveProgress(context.Background(), p.trainingID, val, false); err != nil {
		p.logger.Warn(fmt.Sprintf("syncing progress %d%% for training %s: %v", val, p.trainingID, err), err)
		return
	}

	p.mu.Lock()
	if val > p.serverKnown {
		p.serverKnown = val
	}
	p.mu.Unlock()
}
