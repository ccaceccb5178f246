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
	"errors"
	"io/ioutil"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
	log "github.com/uber-common/bark"
	"github.com/uber/patronwatch-go/logging"
	"github.com/uber/patronwatch-go/source/campaignapi"
	"github.com/uber/patronwatch-go/statefile"
	"github.com/uber/patronwatch-go/watch"
)

// "Options" are modifier functions that configure/modify a real PatronWatch
// object.
//
// There are typically two types of runtime options you can provide: flags
// (functions that modify the object) and value options (functions that accept
// user-specific arguments and then return a function that modifies the
// object).
//
// For more information, see:
// http://commandcenter.blogspot.com/2014/01/self-referential-functions-and-design.html
type Option func(*PatronWatch) error

// applyOptions applies runtime configuration options to the specified
// PatronWatch instance.
func applyOptions(pw *PatronWatch, opts []Option) error {
	for _, option := range opts {
		err := option(pw)
		if err != nil {
			return err
		}
	}
	return nil
}

// checkOptions checks that the PatronWatch instance has been properly
// configured with all the required options.
func checkOptions(pw *PatronWatch) []error {
	errs := []error{}
	if pw.source == nil {
		errs = append(errs, errors.New("a membership source is required"))
	}
	return errs
}

// Runtime options

// Source sets the membership source the roster is fetched from.
func Source(s watch.Source) Option {
	return func(pw *PatronWatch) error {
		pw.source = s
		return nil
	}
}

// AccessToken fetches the roster from the campaign API reachable under
// baseURL, authenticating with the given token. It is a shorthand for
// Source(campaignapi.New(...)) bound to the watched campaign; when both are
// given the later option wins.
func AccessToken(token, baseURL string) Option {
	return func(pw *PatronWatch) error {
		if token == "" {
			return errors.New("access token is required")
		}
		if baseURL == "" {
			return errors.New("campaign API base URL is required")
		}
		pw.source = campaignapi.New(baseURL, token, pw.campaign)
		return nil
	}
}

// StateStore sets the store the watcher state is persisted to.
func StateStore(s watch.Store) Option {
	return func(pw *PatronWatch) error {
		pw.store = s
		return nil
	}
}

// StateFile persists the watcher state as a JSON document at the given path.
func StateFile(path string) Option {
	return StateStore(statefile.New(path))
}

// Logger sets the logger all packages log through.
func Logger(l log.Logger) Option {
	return func(pw *PatronWatch) error {
		pw.logger = l
		logging.SetLogger(l)
		return nil
	}
}

// Statter sets the reporter stats are emitted to.
func Statter(s log.StatsReporter) Option {
	return func(pw *PatronWatch) error {
		pw.statter = s
		return nil
	}
}

// Clock sets the clock driving the poll schedule and the flush timer.
// Useful in tests.
func Clock(c clock.Clock) Option {
	return func(pw *PatronWatch) error {
		if c == nil {
			return errors.New("clock is required")
		}
		pw.clock = c
		return nil
	}
}

// PollInterval sets how often the roster is fetched and diffed.
func PollInterval(d time.Duration) Option {
	return func(pw *PatronWatch) error {
		pw.pollInterval = d
		return nil
	}
}

// FlushInterval sets how often the state is persisted in between refreshes.
func FlushInterval(d time.Duration) Option {
	return func(pw *PatronWatch) error {
		pw.flushInterval = d
		return nil
	}
}

// Default options

// defaultLogger is the default logger that is used for PatronWatch if one is
// not provided by the user.
func defaultLogger(pw *PatronWatch) error {
	return Logger(log.NewLoggerFromLogrus(&logrus.Logger{
		Out: ioutil.Discard,
	}))(pw)
}

func defaultStatter(pw *PatronWatch) error {
	return Statter(noopStatsReporter{})(pw)
}

func defaultClock(pw *PatronWatch) error {
	return Clock(clock.New())(pw)
}

// defaultOptions are the default options/values when PatronWatch is created.
// They can be overridden at runtime.
var defaultOptions = []Option{
	defaultLogger,
	defaultStatter,
	defaultClock,
}
