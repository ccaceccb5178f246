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

package watch

import (
	"sort"
	"time"

	"github.com/uber/patronwatch-go/events"
	"github.com/uber/patronwatch-go/util"
)

// Reconcile diffs a freshly fetched batch of members against the previous
// state and derives the events to emit. It returns the events in emission
// order, the updated state, and the number of records skipped for missing an
// id. prev is never mutated; now stamps the time-stamped event kinds.
//
// Per member, the membership lifecycle is evaluated before the linkage; across
// members, events follow the batch order. Disconnects for members that left
// the roster entirely come last, in sorted id order.
//
// firstRun suppresses subscribed events for unseen ids: on a cold start with
// no prior state every existing member would otherwise look new.
func Reconcile(prev *State, current []Member, firstRun bool, now time.Time) ([]events.Event, *State, int) {
	next := prev.copy()
	ts := util.Timestamp(now)

	var evs []events.Event
	var skipped int
	observed := make(map[string]bool, len(current))

	for _, m := range current {
		// a record without an id cannot be diffed; skip it, keep the batch
		if m.ID == "" {
			skipped++
			continue
		}
		observed[m.ID] = true

		oldStatus, tracked := next.Statuses[m.ID]
		if !tracked {
			if !firstRun && !next.hasSubscribed(m.ID) {
				evs = append(evs, SubscribedEvent{Member: m})
				next.recordSubscribed(m.ID)
			}
		} else if oldStatus != m.Status {
			// Status transitions are a flat sequence of guards, not an
			// if/else chain. A well-formed source satisfies at most one,
			// but the structure does not enforce exclusivity.
			if m.Status == StatusFormer {
				evs = append(evs, CanceledEvent{Member: m, Timestamp: ts})
				next.recordCanceled(m.ID, ts)
			}
			if m.Status == StatusDeclined {
				evs = append(evs, DeclinedEvent{Member: m, Timestamp: ts})
				next.recordDeclined(m.ID, ts)
			}
			if m.Status == StatusActive && (oldStatus == StatusFormer || oldStatus == StatusDeclined) {
				evs = append(evs, ReactivatedEvent{Member: m, Timestamp: ts})
				next.recordReactivated(m.ID, ts)
			}
			if m.Status == StatusNone {
				evs = append(evs, ExpiredEvent{Member: m})
				next.recordExpired(m.ID)
			}
		}

		oldAcct := next.Linkages[m.ID]
		switch {
		case oldAcct == "" && m.LinkedAccount != "":
			if !next.hasConnected(m.ID, m.LinkedAccount) {
				evs = append(evs, ConnectedEvent{Member: m, LinkedAccount: m.LinkedAccount})
				next.recordConnected(m.ID, m.LinkedAccount)
			}
		case oldAcct != "" && m.LinkedAccount == "":
			// the disconnect carries the account that was just lost
			if !next.hasDisconnected(m.ID, oldAcct) {
				evs = append(evs, DisconnectedEvent{Member: m, LinkedAccount: oldAcct})
				next.recordDisconnected(m.ID, oldAcct)
			}
		case oldAcct != "" && m.LinkedAccount != "" && oldAcct != m.LinkedAccount:
			// an account swap is a disconnect followed by a connect, each
			// dedup-checked on its own
			if !next.hasDisconnected(m.ID, oldAcct) {
				evs = append(evs, DisconnectedEvent{Member: m, LinkedAccount: oldAcct})
				next.recordDisconnected(m.ID, oldAcct)
			}
			if !next.hasConnected(m.ID, m.LinkedAccount) {
				evs = append(evs, ConnectedEvent{Member: m, LinkedAccount: m.LinkedAccount})
				next.recordConnected(m.ID, m.LinkedAccount)
			}
		}

		next.Statuses[m.ID] = m.Status
		if m.LinkedAccount == "" {
			delete(next.Linkages, m.ID)
		} else {
			next.Linkages[m.ID] = m.LinkedAccount
		}
	}

	// Members tracked previously but absent from this batch left the roster.
	// A still-linked account is reported lost, then the member is dropped
	// from the watermark maps. Dedup records survive removal so a replayed
	// member does not re-fire identity events.
	var removed []string
	for id := range next.Statuses {
		if !observed[id] {
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)

	for _, id := range removed {
		if acct := next.Linkages[id]; acct != "" && !next.hasDisconnected(id, acct) {
			evs = append(evs, DisconnectedEvent{Member: Member{ID: id}, LinkedAccount: acct})
			next.recordDisconnected(id, acct)
		}
		delete(next.Statuses, id)
		delete(next.Linkages, id)
	}

	return evs, next, skipped
}
