package playback

import (
	"context"
	"fmt"
	"math"

	"github.com/trezcool/mafunzo/core"
)

const (
	halfWatchedPercent = 50
	finishedPercent    = 99 // native "ended" events also count as finished
)

// Player is the media playback surface the observer drives.
type Player interface {
	// Seek moves the playback position to the given offset in seconds.
	Seek(seconds float64)
}

// Observer converts continuous media-time samples into a discrete progress
// percentage and milestone writes.
//
// Milestone writes (half-watched, finished) bypass the debounce Policy and
// are issued immediately, at most once per session each. Seeking back and
// forth across a threshold does not re-fire them.
//
// The observer reacts to playback events delivered on a single event loop;
// it never blocks and schedules nothing itself.
type Observer struct {
	trainingID string
	player     Player
	policy     *Policy
	syncer     Syncer
	logger     core.Logger

	serverProgress int // seeded from the store on load
	observed       int
	restored       bool
	halfFired      bool
	finishFired    bool
}

func NewObserver(trainingID string, serverProgress int, player Player, policy *Policy, syncer Syncer, logger core.Logger) *Observer {
	return &Observer{
		trainingID:     trainingID,
		player:         player,
		policy:         policy,
		syncer:         syncer,
		logger:         logger,
		serverProgress: serverProgress,
	}
}

// OnLoadedMetadata restores a resumed session: with prior server progress p,
// 0 < p < 100, playback seeks to p% of the duration. The seek happens once.
func (o *Observer) OnLoadedMetadata(duration float64) {
	if o.restored || duration <= 0 {
		return
	}
	o.restored = true

	if o.serverProgress <= 0 || o.serverProgress >= 100 {
		return
	}
	o.player.Seek(float64(o.serverProgress) / 100 * duration)
}

// OnTimeUpdate consumes a (currentTime, duration) sample. Unknown or zero
// duration yields no progress emission.
func (o *Observer) OnTimeUpdate(ctx context.Context, currentTime, duration float64) {
	if duration <= 0 {
		return
	}

	pct := int(math.Round(currentTime / duration * 100))
	if pct < 0 {
		pct = 0
	} else if pct > 100 {
		pct = 100
	}
	if pct > o.observed {
		o.observed = pct
	}

	if pct >= finishedPercent {
		o.fireFinished(ctx)
		return
	}
	if pct >= halfWatchedPercent && !o.halfFired {
		o.halfFired = true
		o.syncNow(ctx, pct, false)
		return
	}

	o.policy.Observe(pct)
}

// OnEnded handles the native end-of-media event.
func (o *Observer) OnEnded(ctx context.Context) {
	o.fireFinished(ctx)
}

// Progress is the displayed value: local observation only ever ratchets
// forward from the server-seeded baseline.
func (o *Observer) Progress() int {
	if o.observed > o.serverProgress {
		return o.observed
	}
	return o.serverProgress
}

// Close tears the session down, cancelling any pending debounced write.
func (o *Observer) Close() {
	o.policy.Close()
}

func (o *Observer) fireFinished(ctx context.Context) {
	if o.finishFired {
		return
	}
	o.finishFired = true
	o.halfFired = true // a finish write supersedes the half milestone
	o.observed = 100
	o.syncNow(ctx, 100, true)
}

// syncNow issues an immediate milestone write, bypassing the debounce policy.
// Errors are logged, not retried; playback continues regardless.
func (o *Observer) syncNow(ctx context.Context, pct int, completed bool) {
	if err := o.syncer.SaveProgress(ctx, o.trainingID, pct, completed); err != nil {
		o.logger.Warn(fmt.Sprintf("syncing milestone %d%% for training %s: %v", pct, o.trainingID, err), err)
		return
	}
	o.policy.MarkSynced(pct)
}
