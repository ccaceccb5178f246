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
	"time"

	"github.com/uber/patronwatch-go/events"
	"github.com/uber/patronwatch-go/util"
)

// An EventListener handles events given to it by the Watcher. HandleEvent
// should be thread safe.
type EventListener interface {
	HandleEvent(events.Event)
}

// The ListenerFunc type is an adapter to allow the use of ordinary functions
// as EventListeners.
type ListenerFunc func(events.Event)

// HandleEvent calls f(e).
func (f ListenerFunc) HandleEvent(e events.Event) {
	f(e)
}

// A SubscribedEvent is sent when a member id not previously tracked shows up
// in a refresh. It is suppressed on the first refresh of a cold start and
// for ids still in the subscribed set.
type SubscribedEvent struct {
	Member Member `json:"member"`
}

// A CanceledEvent is sent when a tracked member's status changes to former.
type CanceledEvent struct {
	Member    Member         `json:"member"`
	Timestamp util.Timestamp `json:"timestamp"`
}

// A DeclinedEvent is sent when a tracked member's status changes to declined.
type DeclinedEvent struct {
	Member    Member         `json:"member"`
	Timestamp util.Timestamp `json:"timestamp"`
}

// A ReactivatedEvent is sent when a member that was former or declined
// becomes active again.
type ReactivatedEvent struct {
	Member    Member         `json:"member"`
	Timestamp util.Timestamp `json:"timestamp"`
}

// An ExpiredEvent is sent when a tracked member's status changes to none.
type ExpiredEvent struct {
	Member Member `json:"member"`
}

// A ConnectedEvent is sent when a member gains a linked external account it
// did not have on the previous refresh.
type ConnectedEvent struct {
	Member        Member `json:"member"`
	LinkedAccount string `json:"linkedAccount"`
}

// A DisconnectedEvent is sent when a member loses its linked external
// account. LinkedAccount carries the account that was just lost, which for a
// member removed from the roster is the last one observed.
type DisconnectedEvent struct {
	Member        Member `json:"member"`
	LinkedAccount string `json:"linkedAccount"`
}

// A RefreshEvent is sent at the end of every successful refresh with
// aggregates of the work done.
type RefreshEvent struct {
	Duration    time.Duration `json:"duration"`
	NumMembers  int           `json:"numMembers"`
	NumEvents   int           `json:"numEvents"`
	NumSkipped  int           `json:"numSkipped"`
	OldChecksum uint32        `json:"oldChecksum"`
	Checksum    uint32        `json:"checksum"`
}

// RefreshErrorOp names the operation of a refresh that failed.
type RefreshErrorOp string

const (
	// FetchOp as a RefreshErrorOp indicates the fetch from the source failed;
	// the refresh was aborted and the state is unchanged.
	FetchOp RefreshErrorOp = "fetch"

	// SaveOp as a RefreshErrorOp indicates persisting the state failed; the
	// in-memory state remains authoritative and is retried on the next flush.
	SaveOp RefreshErrorOp = "save"

	// LoadOp as a RefreshErrorOp indicates reading persisted state at startup
	// failed; the watcher starts cold.
	LoadOp RefreshErrorOp = "load"
)

// A RefreshErrorEvent is sent when part of a refresh fails. Errors never stop
// the schedule; the next refresh proceeds normally.
type RefreshErrorEvent struct {
	Op  RefreshErrorOp `json:"op"`
	Err error          `json:"err"`
}
