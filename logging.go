package patronwatch

import (
	log "github.com/uber-common/bark"
	"github.com/uber/patronwatch-go/events"
	"github.com/uber/patronwatch-go/util"
	"github.com/uber/patronwatch-go/watch"
)

// eventLogger logs the domain events emitted by the watcher.
type eventLogger struct {
	logger log.Logger
}

func newEventLogger(logger log.Logger, emitters ...events.EventRegistrar) *eventLogger {
	l := &eventLogger{logger: logger}

	for _, emitter := range emitters {
		emitter.RegisterListener(l)
	}

	return l
}

func (l *eventLogger) HandleEvent(event events.Event) {
	switch event := event.(type) {
	case watch.SubscribedEvent:
		l.logger.WithFields(log.Fields{
			"member": event.Member.ID,
			"pledge": event.Member.PledgeCents,
		}).Info("member subscribed")

	case watch.CanceledEvent:
		l.logger.WithField("member", event.Member.ID).Info("member canceled pledge")

	case watch.DeclinedEvent:
		l.logger.WithField("member", event.Member.ID).Info("member charge declined")

	case watch.ReactivatedEvent:
		l.logger.WithField("member", event.Member.ID).Info("member reactivated pledge")

	case watch.ExpiredEvent:
		l.logger.WithField("member", event.Member.ID).Info("membership expired")

	case watch.ConnectedEvent:
		l.logger.WithFields(log.Fields{
			"member":        event.Member.ID,
			"linkedAccount": event.LinkedAccount,
		}).Info("member connected external account")

	case watch.DisconnectedEvent:
		l.logger.WithFields(log.Fields{
			"member":        event.Member.ID,
			"linkedAccount": event.LinkedAccount,
		}).Info("member disconnected external account")

	case watch.RefreshEvent:
		if event.OldChecksum != event.Checksum {
			l.logger.WithFields(log.Fields{
				"checksum":    event.Checksum,
				"oldChecksum": event.OldChecksum,
				"numMembers":  event.NumMembers,
				"numEvents":   event.NumEvents,
				"durationMs":  util.MS(event.Duration),
			}).Info("roster changed")
		}

	case watch.RefreshErrorEvent:
		l.logger.WithFields(log.Fields{
			"op":    event.Op,
			"error": event.Err,
		}).Warn("refresh error")

	case events.Ready:
		l.logger.Info("watcher ready")
	}
}
