package patronwatch

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/uber-common/bark"
	"github.com/uber/patronwatch-go/events"
	"github.com/uber/patronwatch-go/watch"
)

// noopStatsReporter is the default statter; it drops all stats.
type noopStatsReporter struct{}

func (noopStatsReporter) IncCounter(key string, tags bark.Tags, delta int64)       {}
func (noopStatsReporter) UpdateGauge(key string, tags bark.Tags, value int64)      {}
func (noopStatsReporter) RecordTimer(key string, tags bark.Tags, d time.Duration) {}

type statter struct {
	reporter bark.StatsReporter
	prefix   string
	keys     map[string]string
	mutex    sync.RWMutex
}

func newStatter(campaign string, reporter bark.StatsReporter, emitters ...events.EventRegistrar) *statter {
	s := &statter{
		reporter: reporter,
		prefix:   toStatsPrefix(campaign),
		keys:     make(map[string]string),
	}

	for _, emitter := range emitters {
		emitter.RegisterListener(s)
	}

	return s
}

func (s *statter) HandleEvent(event events.Event) {
	switch event := event.(type) {
	case watch.SubscribedEvent:
		s.reporter.IncCounter(s.key("member.subscribed"), nil, 1)

	case watch.CanceledEvent:
		s.reporter.IncCounter(s.key("member.canceled"), nil, 1)

	case watch.DeclinedEvent:
		s.reporter.IncCounter(s.key("member.declined"), nil, 1)

	case watch.ReactivatedEvent:
		s.reporter.IncCounter(s.key("member.reactivated"), nil, 1)

	case watch.ExpiredEvent:
		s.reporter.IncCounter(s.key("member.expired"), nil, 1)

	case watch.ConnectedEvent:
		s.reporter.IncCounter(s.key("linkage.connected"), nil, 1)

	case watch.DisconnectedEvent:
		s.reporter.IncCounter(s.key("linkage.disconnected"), nil, 1)

	case watch.RefreshEvent:
		s.reporter.RecordTimer(s.key("refresh"), nil, event.Duration)
		s.reporter.UpdateGauge(s.key("members"), nil, int64(event.NumMembers))
		s.reporter.UpdateGauge(s.key("checksum"), nil, int64(event.Checksum))
		if event.NumSkipped > 0 {
			s.reporter.IncCounter(s.key("refresh.skipped"), nil, int64(event.NumSkipped))
		}

	case watch.RefreshErrorEvent:
		s.reporter.IncCounter(s.key("refresh.error."+string(event.Op)), nil, 1)

	case events.Ready:
		s.reporter.IncCounter(s.key("ready"), nil, 1)
	}
}

func (s *statter) key(suffix string) string {
	s.mutex.RLock()
	key, ok := s.keys[suffix]
	s.mutex.RUnlock()

	if !ok {
		// Upgrade to RW, double-check.
		s.mutex.Lock()
		key, ok = s.keys[suffix]
		if !ok {
			key = s.prefix + suffix
			s.keys[suffix] = key
		}
		s.mutex.Unlock()
	}

	return key
}

// Transform a campaign id into a stats-compatible prefix.
func toStatsPrefix(campaign string) string {
	prefix := strings.Replace(campaign, ".", "_", -1)
	prefix = strings.Replace(prefix, ":", "_", -1)
	return fmt.Sprintf("patronwatch.%s.", prefix)
}
