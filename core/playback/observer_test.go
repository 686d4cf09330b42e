package playback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakePlayer struct {
	seeks []float64
}

func (p *fakePlayer) Seek(seconds float64) { p.seeks = append(p.seeks, seconds) }

func newTestObserver(serverProgress int, syncer Syncer) (*Observer, *fakePlayer, *fakeClock) {
	player := new(fakePlayer)
	p, clock := newTestPolicy(serverProgress, syncer)
	return NewObserver("trn1", serverProgress, player, p, syncer, nopLogger{}), player, clock
}

func TestObserver_percentClamping(t *testing.T) {
	syncer := new(fakeSyncer)
	obs, _, _ := newTestObserver(0, syncer)
	ctx := context.Background()

	tests := []struct {
		name        string
		currentTime float64
		duration    float64
		want        int
	}{
		{name: "zero duration yields no emission", currentTime: 10, duration: 0, want: 0},
		{name: "negative time clamps to 0", currentTime: -5, duration: 100, want: 0},
		{name: "midway", currentTime: 49, duration: 200, want: 25}, // round(24.5) = 25
		{name: "overshoot clamps to 100", currentTime: 300, duration: 200, want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := obs
			if tt.want == 100 {
				// overshoot fires the finished milestone; use a fresh observer
				obs, _, _ = newTestObserver(0, syncer)
			}
			obs.OnTimeUpdate(ctx, tt.currentTime, tt.duration)
			assert.Equal(t, tt.want, obs.Progress())
		})
	}
}

func TestObserver_progressMonotonicUnderSeeking(t *testing.T) {
	syncer := new(fakeSyncer)
	obs, _, _ := newTestObserver(0, syncer)
	ctx := context.Background()

	obs.OnTimeUpdate(ctx, 80, 200) // 40%
	obs.OnTimeUpdate(ctx, 20, 200) // seeked back to 10%

	assert.Equal(t, 40, obs.Progress())
}

func TestObserver_halfMilestoneAtMostOnce(t *testing.T) {
	syncer := new(fakeSyncer)
	obs, _, _ := newTestObserver(0, syncer)
	ctx := context.Background()

	// oscillate across 50% by seeking back and forth
	obs.OnTimeUpdate(ctx, 100, 200) // 50% -> milestone
	obs.OnTimeUpdate(ctx, 40, 200)  // 20%
	obs.OnTimeUpdate(ctx, 110, 200) // 55%
	obs.OnTimeUpdate(ctx, 30, 200)  // 15%
	obs.OnTimeUpdate(ctx, 120, 200) // 60%

	assert.Equal(t, []syncCall{{"trn1", 50, false}}, syncer.calls)
}

func TestObserver_finishBypassesDebounce(t *testing.T) {
	syncer := new(fakeSyncer)
	obs, _, clock := newTestObserver(0, syncer)
	ctx := context.Background()

	obs.OnTimeUpdate(ctx, 199, 200) // >= 99%

	// immediate, no clock advance needed
	assert.Equal(t, []syncCall{{"trn1", 100, true}}, syncer.calls)
	assert.Equal(t, 100, obs.Progress())

	// ended event after the threshold write does not repeat it
	obs.OnEnded(ctx)
	clock.advance()
	assert.Len(t, syncer.calls, 1)
}

func TestObserver_endedEventCountsAsFinished(t *testing.T) {
	syncer := new(fakeSyncer)
	obs, _, _ := newTestObserver(0, syncer)

	obs.OnEnded(context.Background())

	assert.Equal(t, []syncCall{{"trn1", 100, true}}, syncer.calls)
}

func TestObserver_restoreOnLoad(t *testing.T) {
	tests := []struct {
		name           string
		serverProgress int
		duration       float64
		wantSeeks      []float64
	}{
		{name: "resume midway", serverProgress: 40, duration: 200, wantSeeks: []float64{80}},
		{name: "not started", serverProgress: 0, duration: 200, wantSeeks: nil},
		{name: "already finished", serverProgress: 100, duration: 200, wantSeeks: nil},
		{name: "unknown duration", serverProgress: 40, duration: 0, wantSeeks: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := new(fakeSyncer)
			obs, player, _ := newTestObserver(tt.serverProgress, syncer)

			obs.OnLoadedMetadata(tt.duration)
			assert.Equal(t, tt.wantSeeks, player.seeks)
		})
	}
}

func TestObserver_restoreHappensOnce(t *testing.T) {
	syncer := new(fakeSyncer)
	obs, player, _ := newTestObserver(40, syncer)

	obs.OnLoadedMetadata(200)
	obs.OnLoadedMetadata(200) // metadata may fire again on quality switch

	assert.Equal(t, []float64{80}, player.seeks)
}

func TestObserver_displayedProgressRatchetsFromServerBaseline(t *testing.T) {
	syncer := new(fakeSyncer)
	obs, _, _ := newTestObserver(40, syncer)
	ctx := context.Background()

	assert.Equal(t, 40, obs.Progress())

	obs.OnTimeUpdate(ctx, 20, 200) // 10% locally: server baseline wins
	assert.Equal(t, 40, obs.Progress())

	obs.OnTimeUpdate(ctx, 90, 200) // 45% locally: local observation wins
	assert.Equal(t, 45, obs.Progress())
}

func TestObserver_syncFailureDoesNotStopPlayback(t *testing.T) {
	syncer := &fakeSyncer{err: context.DeadlineExceeded}
	obs, _, _ := newTestObserver(0, syncer)
	ctx := context.Background()

	obs.OnTimeUpdate(ctx, 100, 200) // milestone write fails
	assert.Empty(t, syncer.calls)

	// observation continues locally
	obs.OnTimeUpdate(ctx, 120, 200)
	assert.Equal(t, 60, obs.Progress())
}
