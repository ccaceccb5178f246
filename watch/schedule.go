package watch

import (
	"time"

	"github.com/benbjohnson/clock"
)

// schedule runs what repeatedly until the stop channel is closed, waiting
// delayFn between runs. A run only starts after the previous one returned,
// so runs never overlap. The done channel is closed once the loop exits; no
// run starts after that.
func schedule(what func(), delayFn func() time.Duration, c clock.Clock) (stop chan bool, done <-chan bool) {
	stop = make(chan bool)
	d := make(chan bool)

	go func() {
		defer close(d)
		for {
			delay := delayFn()
			what()
			select {
			case <-c.After(delay):
			case <-stop:
				return
			}
		}
	}()

	return stop, d
}
