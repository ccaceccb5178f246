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

package patronwatch

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/patronwatch-go/events"
	"github.com/uber/patronwatch-go/source/staticmembers"
	"github.com/uber/patronwatch-go/watch"
)

// seqSource serves one roster per fetch, repeating the last one.
type seqSource struct {
	sync.Mutex
	batches [][]watch.Member
	fetches int
}

func (s *seqSource) FetchAll() ([]watch.Member, error) {
	s.Lock()
	defer s.Unlock()

	i := s.fetches
	if i >= len(s.batches) {
		i = len(s.batches) - 1
	}
	s.fetches++

	batch := make([]watch.Member, len(s.batches[i]))
	copy(batch, s.batches[i])
	return batch, nil
}

type recordingListener struct {
	sync.Mutex
	events []events.Event
}

func (l *recordingListener) HandleEvent(event events.Event) {
	l.Lock()
	l.events = append(l.events, event)
	l.Unlock()
}

func (l *recordingListener) count(match func(events.Event) bool) int {
	l.Lock()
	defer l.Unlock()
	n := 0
	for _, event := range l.events {
		if match(event) {
			n++
		}
	}
	return n
}

func isReady(e events.Event) bool {
	_, ok := e.(events.Ready)
	return ok
}

func isSubscribed(e events.Event) bool {
	_, ok := e.(watch.SubscribedEvent)
	return ok
}

func isConnected(e events.Event) bool {
	_, ok := e.(watch.ConnectedEvent)
	return ok
}

func TestNewRequiresSource(t *testing.T) {
	_, err := New("c1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid options")
}

func TestLifecycle(t *testing.T) {
	pw, err := New("c1",
		Source(staticmembers.New(watch.Member{ID: "A", Status: watch.StatusActive})),
		Clock(clock.NewMock()),
	)
	require.NoError(t, err)

	assert.Equal(t, "c1", pw.Campaign())
	assert.False(t, pw.Ready())

	_, err = pw.Checksum()
	assert.Equal(t, ErrNotReady, err)
	_, err = pw.Members()
	assert.Equal(t, ErrNotReady, err)
	_, err = pw.MemberByLinkedAccount("D1")
	assert.Equal(t, ErrNotReady, err)

	require.NoError(t, pw.Start())
	require.NoError(t, pw.Start(), "starting twice is a no-op")

	require.Eventually(t, pw.Ready, 2*time.Second, time.Millisecond)
	assert.True(t, pw.Uptime() >= 0)

	members, err := pw.Members()
	require.NoError(t, err)
	assert.Len(t, members, 1)

	_, err = pw.Checksum()
	assert.NoError(t, err)

	pw.Stop()
	pw.Stop()
}

func TestDestroy(t *testing.T) {
	listener := &recordingListener{}
	pw, err := New("c1",
		Source(staticmembers.New()),
		Clock(clock.NewMock()),
	)
	require.NoError(t, err)
	pw.RegisterListener(listener)

	require.NoError(t, pw.Start())
	pw.Destroy()

	assert.True(t, pw.Destroyed())
	assert.Equal(t, ErrDestroyed, pw.Start())
	assert.Equal(t, 1, listener.count(func(e events.Event) bool {
		_, ok := e.(events.Destroyed)
		return ok
	}))
}

func TestEventsReachFacadeListeners(t *testing.T) {
	source := &seqSource{batches: [][]watch.Member{
		{},
		{{ID: "A", Status: watch.StatusActive, LinkedAccount: "D1"}},
	}}
	mock := clock.NewMock()
	listener := &recordingListener{}

	pw, err := New("c1",
		Source(source),
		StateFile(filepath.Join(t.TempDir(), "state.json")),
		Clock(mock),
	)
	require.NoError(t, err)
	pw.RegisterListener(listener)
	defer pw.Stop()

	require.NoError(t, pw.Start())
	require.Eventually(t, func() bool {
		return listener.count(isReady) == 1
	}, 2*time.Second, time.Millisecond)

	// advance to the next poll; the roster gained a linked member
	time.Sleep(10 * time.Millisecond)
	mock.Add(time.Minute)

	require.Eventually(t, func() bool {
		return listener.count(isSubscribed) == 1 && listener.count(isConnected) == 1
	}, 2*time.Second, time.Millisecond)

	member, err := pw.MemberByLinkedAccount("D1")
	require.NoError(t, err)
	assert.Equal(t, "A", member.ID)

	_, err = pw.MemberByLinkedAccount("D9")
	assert.Equal(t, ErrNoSuchLinkedAccount, err)
}

func TestStatePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	roster := []watch.Member{
		{ID: "A", Status: watch.StatusActive},
		{ID: "B", Status: watch.StatusActive},
	}

	first, err := New("c1",
		Source(staticmembers.New(roster...)),
		StateFile(path),
		Clock(clock.NewMock()),
	)
	require.NoError(t, err)
	require.NoError(t, first.Start())
	require.Eventually(t, first.Ready, 2*time.Second, time.Millisecond)
	first.Stop()

	// a second instance over the same state file knows the roster already
	listener := &recordingListener{}
	second, err := New("c1",
		Source(staticmembers.New(roster...)),
		StateFile(path),
		Clock(clock.NewMock()),
	)
	require.NoError(t, err)
	second.RegisterListener(listener)
	require.NoError(t, second.Start())
	require.Eventually(t, second.Ready, 2*time.Second, time.Millisecond)
	second.Stop()

	assert.Zero(t, listener.count(isSubscribed),
		"members adopted by the first instance must not fire on the second")
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("PATRONWATCH_ACCESS_TOKEN", "sekrit")
	t.Setenv("PATRONWATCH_CAMPAIGN", "c1")
	t.Setenv("PATRONWATCH_API_URL", "https://api.example.com/v2")
	t.Setenv("PATRONWATCH_POLL_INTERVAL", "30s")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "sekrit", cfg.AccessToken)
	assert.Equal(t, "c1", cfg.Campaign)
	assert.Equal(t, "https://api.example.com/v2", cfg.APIBaseURL)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 5*time.Minute, cfg.FlushInterval)
	assert.Equal(t, "./patronwatch-state.json", cfg.StateFile)
}
