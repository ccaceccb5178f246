// Copyright (c) 2016 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package watch implements the core of patronwatch: a periodically refreshed
// membership roster that is diffed against persisted state to derive
// subscribed, canceled, declined, reactivated, expired, connected and
// disconnected events, deduplicated across refreshes and process restarts.
package watch

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rcrowley/go-metrics"
	log "github.com/uber-common/bark"
	"github.com/uber/patronwatch-go/events"
	"github.com/uber/patronwatch-go/logging"
	"github.com/uber/patronwatch-go/util"
)

// Options is a configuration struct passed to the NewWatcher constructor.
type Options struct {
	Source Source
	Store  Store

	PollInterval  time.Duration
	FlushInterval time.Duration

	Logger log.Logger

	// Clock drives the refresh schedule and the flush timer; it is typically
	// the system clock, wrapped via clock.New()
	Clock clock.Clock
}

func defaultOptions() *Options {
	return &Options{
		PollInterval:  60 * time.Second,
		FlushInterval: 5 * time.Minute,
		Clock:         clock.New(),
	}
}

func mergeDefaultOptions(opts *Options) *Options {
	def := defaultOptions()

	if opts == nil {
		return def
	}

	opts.PollInterval = util.SelectDuration(opts.PollInterval, def.PollInterval)
	opts.FlushInterval = util.SelectDuration(opts.FlushInterval, def.FlushInterval)

	if opts.Clock == nil {
		opts.Clock = def.Clock
	}

	return opts
}

// A Watcher drives the refresh loop for one campaign: fetch the roster from
// the source, reconcile it against the persisted state, emit the derived
// events to registered listeners, persist. Refreshes run strictly one at a
// time; a slow fetch delays the next refresh rather than overlapping it.
type Watcher struct {
	events.SyncEventEmitter

	campaign string

	source Source
	store  Store

	state struct {
		running, ready bool
		firstRun       bool
		stop           chan bool
		done           <-chan bool
		sync.RWMutex
	}

	roster struct {
		state   *State
		members []Member
		index   linkedIndex
		sync.RWMutex
	}

	flushTimer struct {
		t       *clock.Timer
		stopped bool
		sync.Mutex
	}

	pollInterval  time.Duration
	flushInterval time.Duration

	refreshTimings metrics.Histogram
	fetchRate      metrics.Meter
	eventRate      metrics.Meter

	clock  clock.Clock
	logger log.Logger
}

// NewWatcher returns a new Watcher for the given campaign.
func NewWatcher(campaign string, opts *Options) *Watcher {
	opts = mergeDefaultOptions(opts)

	w := &Watcher{
		campaign:      campaign,
		source:        opts.Source,
		store:         opts.Store,
		pollInterval:  opts.PollInterval,
		flushInterval: opts.FlushInterval,
		clock:         opts.Clock,
		logger:        logging.Logger("watch").WithField("campaign", campaign),
	}

	if opts.Logger != nil {
		logging.SetLogger(opts.Logger)
	}

	w.roster.state = NewState()
	w.roster.index = make(linkedIndex)

	w.refreshTimings = metrics.NewHistogram(metrics.NewUniformSample(10))
	w.fetchRate = metrics.NewMeter()
	w.eventRate = metrics.NewMeter()

	return w
}

// Start loads the persisted state and arms the refresh schedule and the
// flush timer. The first refresh runs immediately. Calling Start on a
// running watcher is a no-op.
func (w *Watcher) Start() error {
	w.state.Lock()
	defer w.state.Unlock()

	if w.state.running {
		w.logger.Warn("watcher already started")
		return nil
	}
	if w.source == nil {
		return ErrNoSource
	}

	st, err := w.loadState()
	if err != nil {
		// a corrupt state file should not keep the watcher down; start
		// cold and report
		w.logger.WithField("error", err).Warn("could not load persisted state, starting cold")
		w.EmitEvent(RefreshErrorEvent{Op: LoadOp, Err: err})
		st = NewState()
	}
	w.roster.Lock()
	w.roster.state = st
	w.roster.Unlock()

	// Suppress "new member" events only on a true cold start. After a
	// restart with persisted members the status map already screens known
	// ids, and genuinely new ids must fire.
	w.state.firstRun = st.NumMembers() == 0

	w.state.running = true
	w.state.stop, w.state.done = schedule(w.refresh, func() time.Duration {
		return w.pollInterval
	}, w.clock)

	w.flushTimer.Lock()
	w.flushTimer.stopped = false
	w.flushTimer.Unlock()
	w.renewFlushTimer()

	w.logger.WithField("pollInterval", w.pollInterval).Debug("started watcher")
	return nil
}

// Stop halts the refresh schedule and flushes the state a final time. When
// Stop returns no refresh is running and none will start. Calling Stop on a
// stopped watcher is a no-op.
func (w *Watcher) Stop() {
	w.state.Lock()
	if !w.state.running {
		w.logger.Warn("watcher already stopped")
		w.state.Unlock()
		return
	}
	w.state.running = false
	close(w.state.stop)
	done := w.state.done
	w.state.Unlock()

	// wait for an in-flight refresh to finish
	<-done

	w.flushTimer.Lock()
	w.flushTimer.stopped = true
	if w.flushTimer.t != nil {
		w.flushTimer.t.Stop()
	}
	w.flushTimer.Unlock()

	w.flush()

	w.logger.Debug("stopped watcher")
}

// Stopped returns whether or not the watcher is stopped.
func (w *Watcher) Stopped() bool {
	w.state.RLock()
	stopped := !w.state.running
	w.state.RUnlock()

	return stopped
}

// Ready returns true once the first refresh completed successfully.
func (w *Watcher) Ready() bool {
	w.state.RLock()
	ready := w.state.ready
	w.state.RUnlock()

	return ready
}

// loadState reads the persisted state from the store. Absence of a store or
// of saved state yields a fresh empty state.
func (w *Watcher) loadState() (*State, error) {
	if w.store == nil {
		return NewState(), nil
	}

	st, err := w.store.Load()
	if err != nil {
		return nil, err
	}
	if st == nil {
		return NewState(), nil
	}
	return st, nil
}

// refresh runs one fetch/reconcile/emit/persist cycle. It is only ever
// invoked from the schedule loop, one invocation at a time.
func (w *Watcher) refresh() {
	startTime := w.clock.Now()

	w.state.RLock()
	firstRun := w.state.firstRun
	w.state.RUnlock()

	members, err := w.source.FetchAll()
	if err != nil {
		w.logger.WithField("error", err).Warn("fetch failed, roster unchanged")
		w.EmitEvent(RefreshErrorEvent{Op: FetchOp, Err: err})
		return
	}
	w.fetchRate.Mark(int64(len(members)))

	w.roster.RLock()
	prev := w.roster.state
	w.roster.RUnlock()

	oldChecksum := prev.Checksum()
	evs, next, skipped := Reconcile(prev, members, firstRun, w.clock.Now())
	w.eventRate.Mark(int64(len(evs)))

	// domain events go out before any persistence and in reconcile order
	for _, event := range evs {
		w.EmitEvent(event)
	}

	index := buildLinkedIndex(members)

	w.roster.Lock()
	w.roster.state = next
	w.roster.members = members
	w.roster.index = index
	w.roster.Unlock()

	duration := w.clock.Now().Sub(startTime)
	w.refreshTimings.Update(int64(duration))

	if skipped > 0 {
		w.logger.WithField("numSkipped", skipped).Warn("skipped records without an id")
	}

	w.EmitEvent(RefreshEvent{
		Duration:    duration,
		NumMembers:  next.NumMembers(),
		NumEvents:   len(evs),
		NumSkipped:  skipped,
		OldChecksum: oldChecksum,
		Checksum:    next.Checksum(),
	})

	w.flush()

	w.state.Lock()
	w.state.firstRun = false
	becameReady := !w.state.ready
	w.state.ready = true
	w.state.Unlock()

	if becameReady {
		w.EmitEvent(events.Ready{})
	}
}

// flush persists the current state to the store. Failures leave the
// in-memory state authoritative.
func (w *Watcher) flush() {
	if w.store == nil {
		return
	}

	w.roster.RLock()
	st := w.roster.state
	w.roster.RUnlock()

	if err := w.store.Save(st); err != nil {
		w.logger.WithField("error", err).Warn("state flush failed")
		w.EmitEvent(RefreshErrorEvent{Op: SaveOp, Err: err})
		return
	}

	w.logger.WithField("numMembers", st.NumMembers()).Debug("flushed state")
}

// renewFlushTimer (re)arms the periodic flush. The stopped flag is checked
// under the same lock Stop sets it under, so a callback that fires while
// Stop is in progress cannot re-arm and keep flushing after Stop returned.
func (w *Watcher) renewFlushTimer() {
	w.flushTimer.Lock()
	defer w.flushTimer.Unlock()

	if w.flushTimer.stopped {
		return
	}

	if w.flushTimer.t != nil {
		w.flushTimer.t.Stop()
	}

	w.flushTimer.t = w.clock.AfterFunc(w.flushInterval, func() {
		w.flush()
		w.renewFlushTimer()
	})
}

// NumMembers returns the number of members currently tracked.
func (w *Watcher) NumMembers() int {
	w.roster.RLock()
	n := w.roster.state.NumMembers()
	w.roster.RUnlock()

	return n
}

// Checksum returns the fingerprint of the tracked roster.
func (w *Watcher) Checksum() uint32 {
	w.roster.RLock()
	checksum := w.roster.state.Checksum()
	w.roster.RUnlock()

	return checksum
}

// GetMembers returns the roster as observed on the most recent refresh.
func (w *Watcher) GetMembers() []Member {
	w.roster.RLock()
	members := make([]Member, len(w.roster.members))
	copy(members, w.roster.members)
	w.roster.RUnlock()

	return members
}

// MemberByLinkedAccount returns the member the given external account is
// linked to, per the most recent refresh.
func (w *Watcher) MemberByLinkedAccount(acct string) (Member, bool) {
	w.roster.RLock()
	member, ok := w.roster.index[acct]
	w.roster.RUnlock()

	return member, ok
}

// RefreshTimings returns the histogram of recent refresh durations.
func (w *Watcher) RefreshTimings() metrics.Histogram {
	return w.refreshTimings.Snapshot()
}
