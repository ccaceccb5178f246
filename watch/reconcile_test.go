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
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/uber/patronwatch-go/events"
	"github.com/uber/patronwatch-go/util"
)

type ReconcileTestSuite struct {
	suite.Suite
	now time.Time
}

func (s *ReconcileTestSuite) SetupTest() {
	s.now = time.Unix(1500000000, 0)
}

func (s *ReconcileTestSuite) reconcile(prev *State, current []Member) ([]events.Event, *State) {
	evs, next, _ := Reconcile(prev, current, false, s.now)
	return evs, next
}

func member(id string, status Status, acct string) Member {
	return Member{ID: id, Status: status, LinkedAccount: acct}
}

func (s *ReconcileTestSuite) TestNewMemberSubscribes() {
	evs, next := s.reconcile(NewState(), []Member{member("A", StatusActive, "")})

	s.Require().Len(evs, 1)
	sub, ok := evs[0].(SubscribedEvent)
	s.Require().True(ok, "expected a subscribed event")
	s.Equal("A", sub.Member.ID)
	s.True(next.hasSubscribed("A"), "expected A in the subscribed set")
	s.Equal(StatusActive, next.Statuses["A"])
}

func (s *ReconcileTestSuite) TestFirstRunSuppressesSubscribed() {
	evs, next, skipped := Reconcile(NewState(), []Member{
		member("A", StatusActive, ""),
		member("B", StatusFormer, ""),
	}, true, s.now)

	s.Empty(evs, "expected no events on a cold start")
	s.Zero(skipped)
	s.Equal(2, next.NumMembers())
	s.False(next.hasSubscribed("A"), "no subscribed event fired, so no dedup record")
}

func (s *ReconcileTestSuite) TestSubscribedSetGuardsReplay() {
	prev := NewState()
	prev.recordSubscribed("A")

	evs, _ := s.reconcile(prev, []Member{member("A", StatusActive, "")})
	s.Empty(evs, "a replayed member must not re-fire subscribed")
}

func (s *ReconcileTestSuite) TestUnchangedStatusEmitsNothing() {
	_, prev := s.reconcile(NewState(), []Member{member("A", StatusActive, "")})

	evs, _ := s.reconcile(prev, []Member{member("A", StatusActive, "")})
	s.Empty(evs)
}

func (s *ReconcileTestSuite) TestCancel() {
	_, prev := s.reconcile(NewState(), []Member{member("A", StatusActive, "")})

	evs, next := s.reconcile(prev, []Member{member("A", StatusFormer, "")})

	s.Require().Len(evs, 1)
	_, ok := evs[0].(CanceledEvent)
	s.Require().True(ok, "expected a canceled event")
	s.False(next.hasSubscribed("A"), "cancel retracts the subscribed record")
	s.Contains(next.CanceledAt, "A")
}

func (s *ReconcileTestSuite) TestDecline() {
	_, prev := s.reconcile(NewState(), []Member{member("A", StatusActive, "")})

	evs, next := s.reconcile(prev, []Member{member("A", StatusDeclined, "")})

	s.Require().Len(evs, 1)
	_, ok := evs[0].(DeclinedEvent)
	s.Require().True(ok, "expected a declined event")
	s.Contains(next.DeclinedAt, "A")
	s.NotContains(next.Subscribed, "A")
}

func (s *ReconcileTestSuite) TestReactivateFromDeclined() {
	prev := NewState()
	prev.Statuses["B"] = StatusDeclined
	prev.recordDeclined("B", util.Timestamp(s.now))

	evs, next := s.reconcile(prev, []Member{member("B", StatusActive, "")})

	s.Require().Len(evs, 1)
	_, ok := evs[0].(ReactivatedEvent)
	s.Require().True(ok, "expected a reactivated event, not subscribed")
	s.NotContains(next.DeclinedAt, "B", "reactivation clears the decline stamp")
	s.Contains(next.ReactivatedAt, "B")
}

func (s *ReconcileTestSuite) TestReactivateFromFormer() {
	prev := NewState()
	prev.Statuses["A"] = StatusFormer

	evs, _ := s.reconcile(prev, []Member{member("A", StatusActive, "")})

	s.Require().Len(evs, 1)
	s.IsType(ReactivatedEvent{}, evs[0])
}

func (s *ReconcileTestSuite) TestNoneToActiveIsNotReactivation() {
	prev := NewState()
	prev.Statuses["A"] = StatusNone

	evs, _ := s.reconcile(prev, []Member{member("A", StatusActive, "")})
	s.Empty(evs, "active after none is neither subscribe nor reactivate")
}

func (s *ReconcileTestSuite) TestExpire() {
	prev := NewState()
	prev.Statuses["A"] = StatusActive
	prev.recordSubscribed("A")

	evs, next := s.reconcile(prev, []Member{member("A", StatusNone, "")})

	s.Require().Len(evs, 1)
	s.IsType(ExpiredEvent{}, evs[0])
	s.False(next.hasSubscribed("A"), "expiry retracts the subscribed record")
}

func (s *ReconcileTestSuite) TestCancelRefiresAcrossCycles() {
	prev := NewState()
	prev.Statuses["A"] = StatusActive
	prev.recordCanceled("A", util.Timestamp(s.now.Add(-time.Hour)))

	// A canceled before, came back, and cancels again: the event re-fires
	evs, _ := s.reconcile(prev, []Member{member("A", StatusFormer, "")})

	s.Require().Len(evs, 1)
	s.IsType(CanceledEvent{}, evs[0])
}

func (s *ReconcileTestSuite) TestConnect() {
	prev := NewState()
	prev.Statuses["A"] = StatusActive

	evs, next := s.reconcile(prev, []Member{member("A", StatusActive, "D1")})

	s.Require().Len(evs, 1)
	conn, ok := evs[0].(ConnectedEvent)
	s.Require().True(ok, "expected a connected event")
	s.Equal("D1", conn.LinkedAccount)
	s.Equal("D1", next.Linkages["A"])
	s.Equal("D1", next.Connected["A"])
}

func (s *ReconcileTestSuite) TestConnectDeduped() {
	prev := NewState()
	prev.Statuses["A"] = StatusActive
	prev.recordConnected("A", "D1")

	evs, _ := s.reconcile(prev, []Member{member("A", StatusActive, "D1")})
	s.Empty(evs, "the same connect must not be signaled twice")
}

func (s *ReconcileTestSuite) TestDisconnectCarriesPreviousAccount() {
	prev := NewState()
	prev.Statuses["A"] = StatusActive
	prev.Linkages["A"] = "D1"
	prev.recordConnected("A", "D1")

	evs, next := s.reconcile(prev, []Member{member("A", StatusActive, "")})

	s.Require().Len(evs, 1)
	disc, ok := evs[0].(DisconnectedEvent)
	s.Require().True(ok, "expected a disconnected event")
	s.Equal("D1", disc.LinkedAccount, "disconnect reports the account that was lost")
	s.NotContains(next.Linkages, "A")
	s.NotContains(next.Connected, "A")
	s.Equal("D1", next.Disconnected["A"])
}

func (s *ReconcileTestSuite) TestAccountSwap() {
	prev := NewState()
	prev.Statuses["A"] = StatusActive
	prev.Linkages["A"] = "D1"
	prev.recordConnected("A", "D1")

	evs, next := s.reconcile(prev, []Member{member("A", StatusActive, "D2")})

	s.Require().Len(evs, 2)
	disc, ok := evs[0].(DisconnectedEvent)
	s.Require().True(ok, "swap starts with a disconnect")
	s.Equal("D1", disc.LinkedAccount)
	conn, ok := evs[1].(ConnectedEvent)
	s.Require().True(ok, "swap ends with a connect")
	s.Equal("D2", conn.LinkedAccount)
	s.Equal("D2", next.Linkages["A"])
}

func (s *ReconcileTestSuite) TestCancelThenDisconnectOrder() {
	prev := NewState()
	prev.Statuses["A"] = StatusActive
	prev.Linkages["A"] = "D1"

	evs, _ := s.reconcile(prev, []Member{member("A", StatusFormer, "")})

	s.Require().Len(evs, 2)
	s.IsType(CanceledEvent{}, evs[0], "lifecycle before linkage")
	s.IsType(DisconnectedEvent{}, evs[1])
}

func (s *ReconcileTestSuite) TestRemovalDisconnects() {
	prev := NewState()
	prev.Statuses["A"] = StatusActive
	prev.Linkages["A"] = "D1"

	evs, next := s.reconcile(prev, nil)

	s.Require().Len(evs, 1)
	disc, ok := evs[0].(DisconnectedEvent)
	s.Require().True(ok, "expected a disconnected event for the removed member")
	s.Equal("A", disc.Member.ID)
	s.Equal("D1", disc.LinkedAccount)
	s.NotContains(next.Statuses, "A")
	s.NotContains(next.Linkages, "A")
}

func (s *ReconcileTestSuite) TestRemovalWithoutLinkageIsSilent() {
	prev := NewState()
	prev.Statuses["A"] = StatusActive

	evs, next := s.reconcile(prev, nil)

	s.Empty(evs)
	s.Zero(next.NumMembers())
}

func (s *ReconcileTestSuite) TestRemovalDisconnectsComeLast() {
	prev := NewState()
	prev.Statuses["B"] = StatusActive
	prev.Linkages["B"] = "D2"
	prev.Statuses["A"] = StatusActive
	prev.Linkages["A"] = "D1"

	evs, _ := s.reconcile(prev, []Member{member("C", StatusActive, "D3")})

	s.Require().Len(evs, 4)
	s.IsType(SubscribedEvent{}, evs[0])
	s.IsType(ConnectedEvent{}, evs[1])
	a, ok := evs[2].(DisconnectedEvent)
	s.Require().True(ok)
	s.Equal("A", a.Member.ID, "removed members are reported in sorted id order")
	b, ok := evs[3].(DisconnectedEvent)
	s.Require().True(ok)
	s.Equal("B", b.Member.ID)
}

func (s *ReconcileTestSuite) TestSubscribedDedupSurvivesRemoval() {
	prev := NewState()
	prev.Statuses["A"] = StatusActive
	prev.Linkages["A"] = "D1"
	prev.recordSubscribed("A")

	_, mid := s.reconcile(prev, nil)

	// A reappears: no second subscribed, but the linkage genuinely came
	// back after the removal disconnect, so connected fires again
	evs, _ := s.reconcile(mid, []Member{member("A", StatusActive, "D1")})

	s.Require().Len(evs, 1)
	s.IsType(ConnectedEvent{}, evs[0])
}

func (s *ReconcileTestSuite) TestIdempotence() {
	prev := NewState()
	prev.Statuses["A"] = StatusActive
	prev.Statuses["B"] = StatusDeclined
	current := []Member{
		member("A", StatusFormer, "D1"),
		member("B", StatusActive, ""),
		member("C", StatusActive, "D2"),
	}

	evs, mid := s.reconcile(prev, current)
	s.NotEmpty(evs)

	again, final := s.reconcile(mid, current)
	s.Empty(again, "a second reconcile of the same batch yields nothing")
	s.Equal(mid.Checksum(), final.Checksum())
	s.Equal(mid, final)
}

func (s *ReconcileTestSuite) TestPrevIsNotMutated() {
	prev := NewState()
	prev.Statuses["A"] = StatusActive

	s.reconcile(prev, []Member{member("A", StatusFormer, "D1"), member("B", StatusActive, "")})

	s.Equal(StatusActive, prev.Statuses["A"])
	s.NotContains(prev.Statuses, "B")
	s.Empty(prev.CanceledAt)
	s.Empty(prev.Connected)
}

func (s *ReconcileTestSuite) TestConnectedDisconnectedMutuallyExclusive() {
	prev := NewState()
	prev.Statuses["A"] = StatusActive
	batches := [][]Member{
		{member("A", StatusActive, "D1")},
		{member("A", StatusActive, "")},
		{member("A", StatusActive, "D2")},
		{},
		{member("A", StatusActive, "D2")},
	}

	state := prev
	for _, batch := range batches {
		_, state = s.reconcile(state, batch)
		for id := range state.Connected {
			s.NotContains(state.Disconnected, id,
				"an id may not be recorded as connected and disconnected at once")
		}
	}
}

func (s *ReconcileTestSuite) TestMalformedRecordSkipped() {
	evs, next, skipped := Reconcile(NewState(), []Member{
		{Status: StatusActive},
		member("A", StatusActive, ""),
	}, false, s.now)

	s.Equal(1, skipped)
	s.Require().Len(evs, 1, "the batch survives a malformed record")
	s.Equal(1, next.NumMembers())
}

func (s *ReconcileTestSuite) TestDescriptiveFieldsRideThrough() {
	current := []Member{{
		ID:          "A",
		Name:        "Ada",
		Email:       "ada@example.com",
		PledgeCents: 500,
		Status:      StatusActive,
	}}

	evs, _ := s.reconcile(NewState(), current)

	s.Require().Len(evs, 1)
	sub := evs[0].(SubscribedEvent)
	s.Equal("Ada", sub.Member.Name)
	s.Equal(500, sub.Member.PledgeCents)
}

func TestReconcileTestSuite(t *testing.T) {
	suite.Run(t, new(ReconcileTestSuite))
}
