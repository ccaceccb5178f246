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
	"bytes"
	"fmt"
	"sort"

	"github.com/dgryski/go-farm"
	"github.com/uber/patronwatch-go/util"
)

// State is the durable memory carried between refreshes. Statuses and
// Linkages hold the last observed value of each diffed dimension per member
// id. The remaining maps track which events have already been signaled so
// they are not emitted again: Subscribed is the set of ids a subscribed event
// fired for that was not since retracted by a cancel, decline or expiry;
// CanceledAt, DeclinedAt and ReactivatedAt stamp the most recent such event
// (informational, these kinds may re-fire); Connected and Disconnected
// record the linked account of the most recent linkage event per id.
//
// A State is serialized to JSON as-is by the state store. Reconcile treats
// it as a value: it copies the previous state and returns an updated one,
// never mutating its input.
type State struct {
	Statuses      map[string]Status         `json:"statuses"`
	Linkages      map[string]string         `json:"linkages"`
	Subscribed    map[string]bool           `json:"subscribed"`
	CanceledAt    map[string]util.Timestamp `json:"canceledAt"`
	DeclinedAt    map[string]util.Timestamp `json:"declinedAt"`
	ReactivatedAt map[string]util.Timestamp `json:"reactivatedAt"`
	Connected     map[string]string         `json:"connected"`
	Disconnected  map[string]string         `json:"disconnected"`
}

// NewState returns an empty State with all maps allocated. Unmarshaling JSON
// into a State returned by NewState leaves absent maps allocated, so loaded
// states are always safe to index.
func NewState() *State {
	return &State{
		Statuses:      make(map[string]Status),
		Linkages:      make(map[string]string),
		Subscribed:    make(map[string]bool),
		CanceledAt:    make(map[string]util.Timestamp),
		DeclinedAt:    make(map[string]util.Timestamp),
		ReactivatedAt: make(map[string]util.Timestamp),
		Connected:     make(map[string]string),
		Disconnected:  make(map[string]string),
	}
}

// copy returns a deep copy of the state.
func (s *State) copy() *State {
	c := NewState()
	for id, status := range s.Statuses {
		c.Statuses[id] = status
	}
	for id, acct := range s.Linkages {
		c.Linkages[id] = acct
	}
	for id := range s.Subscribed {
		c.Subscribed[id] = true
	}
	for id, ts := range s.CanceledAt {
		c.CanceledAt[id] = ts
	}
	for id, ts := range s.DeclinedAt {
		c.DeclinedAt[id] = ts
	}
	for id, ts := range s.ReactivatedAt {
		c.ReactivatedAt[id] = ts
	}
	for id, acct := range s.Connected {
		c.Connected[id] = acct
	}
	for id, acct := range s.Disconnected {
		c.Disconnected[id] = acct
	}
	return c
}

// NumMembers returns the number of members the state has a status for.
func (s *State) NumMembers() int {
	return len(s.Statuses)
}

// Checksum computes a fingerprint over the tracked statuses and linkages.
// Two states that would diff cleanly against the same batch produce the same
// checksum.
func (s *State) Checksum() uint32 {
	return farm.Fingerprint32([]byte(s.genChecksumString()))
}

// generates string to use when computing the checksum
func (s *State) genChecksumString() string {
	var strings sort.StringSlice

	for id, status := range s.Statuses {
		strings = append(strings, fmt.Sprintf("%s%s%s", id, status, s.Linkages[id]))
	}

	strings.Sort()

	buffer := bytes.NewBuffer([]byte{})
	for _, str := range strings {
		buffer.WriteString(str)
		buffer.WriteString(";")
	}

	return buffer.String()
}

// hasSubscribed reports whether a subscribed event for the id was already
// signaled and not since retracted.
func (s *State) hasSubscribed(id string) bool {
	return s.Subscribed[id]
}

// recordSubscribed marks the subscribed event as signaled. Subscribing
// clears any cancel or decline record, so the id holds at most one active
// membership disposition.
func (s *State) recordSubscribed(id string) {
	s.Subscribed[id] = true
	delete(s.CanceledAt, id)
	delete(s.DeclinedAt, id)
}

// recordCanceled stamps the cancel and retracts the subscribed and
// reactivated records.
func (s *State) recordCanceled(id string, ts util.Timestamp) {
	s.CanceledAt[id] = ts
	delete(s.DeclinedAt, id)
	delete(s.Subscribed, id)
	delete(s.ReactivatedAt, id)
}

// recordDeclined stamps the decline and retracts the subscribed and
// reactivated records.
func (s *State) recordDeclined(id string, ts util.Timestamp) {
	s.DeclinedAt[id] = ts
	delete(s.CanceledAt, id)
	delete(s.Subscribed, id)
	delete(s.ReactivatedAt, id)
}

// recordReactivated stamps the reactivation and clears the cancel and
// decline records it supersedes.
func (s *State) recordReactivated(id string, ts util.Timestamp) {
	s.ReactivatedAt[id] = ts
	delete(s.CanceledAt, id)
	delete(s.DeclinedAt, id)
}

// recordExpired retracts the subscribed record.
func (s *State) recordExpired(id string) {
	delete(s.Subscribed, id)
}

// hasConnected reports whether a connect of exactly this linked account was
// already signaled for the id.
func (s *State) hasConnected(id, acct string) bool {
	return s.Connected[id] == acct
}

// recordConnected marks the connect as signaled. An id is recorded as
// connected or disconnected, never both.
func (s *State) recordConnected(id, acct string) {
	s.Connected[id] = acct
	delete(s.Disconnected, id)
}

// hasDisconnected reports whether a disconnect of exactly this linked
// account was already signaled for the id.
func (s *State) hasDisconnected(id, acct string) bool {
	return s.Disconnected[id] == acct
}

// recordDisconnected marks the disconnect as signaled and clears any
// connect record.
func (s *State) recordDisconnected(id, acct string) {
	s.Disconnected[id] = acct
	delete(s.Connected, id)
}
