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

// Package patronwatch turns a campaign membership API that can only be
// polled into a stream of semantic events.
//
// On a fixed interval the watcher fetches the full membership roster of a
// campaign and diffs it against the last observed state: members appearing,
// canceling, getting their charge declined, coming back, expiring, and
// linking or unlinking their external account each produce a typed event
// delivered to registered listeners. Observed state is persisted to disk, so
// a restart does not replay events that were already signaled.
//
// Applications register listeners for the events they care about and can
// look up the member behind a linked external account at any time.
package patronwatch

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	log "github.com/uber-common/bark"
	"github.com/uber/patronwatch-go/events"
	"github.com/uber/patronwatch-go/watch"
)

// PatronWatch is the public facade: it owns the watcher for one campaign,
// fans its events out to listeners registered here, and wires up logging and
// stats emission.
type PatronWatch struct {
	events.SyncEventEmitter

	campaign string

	state struct {
		started, destroyed bool
		sync.RWMutex
	}

	watcher *watch.Watcher
	source  watch.Source
	store   watch.Store

	pollInterval  time.Duration
	flushInterval time.Duration

	clock   clock.Clock
	logger  log.Logger
	statter log.StatsReporter

	startTime time.Time
}

// New returns a new PatronWatch for the given campaign, with runtime options
// applied over the defaults.
func New(campaign string, opts ...Option) (*PatronWatch, error) {
	pw := &PatronWatch{
		campaign: campaign,
	}

	if err := applyOptions(pw, defaultOptions); err != nil {
		return nil, err
	}
	if err := applyOptions(pw, opts); err != nil {
		return nil, err
	}
	if errs := checkOptions(pw); len(errs) != 0 {
		return nil, fmt.Errorf("invalid options: %v", errs)
	}

	pw.watcher = watch.NewWatcher(campaign, &watch.Options{
		Source:        pw.source,
		Store:         pw.store,
		PollInterval:  pw.pollInterval,
		FlushInterval: pw.flushInterval,
		Logger:        pw.logger,
		Clock:         pw.clock,
	})
	pw.watcher.RegisterListener(pw)

	newEventLogger(pw.logger.WithField("campaign", campaign), pw)
	newStatter(campaign, pw.statter, pw)

	return pw, nil
}

// HandleEvent forwards watcher events to the listeners registered on the
// facade. It should not be called directly.
func (pw *PatronWatch) HandleEvent(event events.Event) {
	pw.EmitEvent(event)
}

// Start loads persisted state and begins polling the campaign. The first
// refresh runs immediately; listeners receive an events.Ready once it
// completed successfully.
func (pw *PatronWatch) Start() error {
	pw.state.Lock()
	defer pw.state.Unlock()

	if pw.state.destroyed {
		return ErrDestroyed
	}
	if pw.state.started {
		return nil
	}

	if err := pw.watcher.Start(); err != nil {
		return err
	}

	pw.state.started = true
	pw.startTime = time.Now()

	return nil
}

// Stop halts polling and flushes the state. No event is delivered after
// Stop returns.
func (pw *PatronWatch) Stop() {
	pw.state.Lock()
	if !pw.state.started {
		pw.state.Unlock()
		return
	}
	pw.state.started = false
	pw.state.Unlock()

	pw.watcher.Stop()
}

// Destroy stops the watcher and renders it unusable.
func (pw *PatronWatch) Destroy() {
	pw.Stop()

	pw.state.Lock()
	pw.state.destroyed = true
	pw.state.Unlock()

	pw.EmitEvent(events.Destroyed{})
}

// Destroyed returns whether Destroy was called.
func (pw *PatronWatch) Destroyed() bool {
	pw.state.RLock()
	destroyed := pw.state.destroyed
	pw.state.RUnlock()

	return destroyed
}

// Campaign returns the campaign the watcher polls.
func (pw *PatronWatch) Campaign() string {
	return pw.campaign
}

// Ready returns true once the first refresh completed successfully.
func (pw *PatronWatch) Ready() bool {
	return pw.watcher.Ready()
}

// Uptime returns the amount of time the watcher has been running for.
func (pw *PatronWatch) Uptime() time.Duration {
	pw.state.RLock()
	startTime := pw.startTime
	pw.state.RUnlock()

	return time.Now().Sub(startTime)
}

// Checksum returns the fingerprint of the tracked roster.
func (pw *PatronWatch) Checksum() (uint32, error) {
	if !pw.Ready() {
		return 0, ErrNotReady
	}
	return pw.watcher.Checksum(), nil
}

// Members returns the roster as of the most recent refresh.
func (pw *PatronWatch) Members() ([]watch.Member, error) {
	if !pw.Ready() {
		return nil, ErrNotReady
	}
	return pw.watcher.GetMembers(), nil
}

// MemberByLinkedAccount returns the member a linked external account belongs
// to, per the most recent refresh.
func (pw *PatronWatch) MemberByLinkedAccount(acct string) (watch.Member, error) {
	if !pw.Ready() {
		return watch.Member{}, ErrNotReady
	}

	member, ok := pw.watcher.MemberByLinkedAccount(acct)
	if !ok {
		return watch.Member{}, ErrNoSuchLinkedAccount
	}

	return member, nil
}
