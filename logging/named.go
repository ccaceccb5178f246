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

package logging

import (
	"github.com/uber-common/bark"
)

type logReceiver interface {
	Log(logName string, wantLevel Level, fields bark.Fields, msg []interface{})
	Logf(logName string, wantLevel Level, fields bark.Fields, format string, msg []interface{})
}

// namedLogger is a bark.Logger implementation that has a name. It forwards
// all log requests to a logReceiver, adding its own name in the process. The
// receiver decides whether the message is silenced.
type namedLogger struct {
	name      string
	forwardTo logReceiver
	fields    bark.Fields
}

func (l *namedLogger) Debug(args ...interface{}) { l.forwardTo.Log(l.name, Debug, l.fields, args) }
func (l *namedLogger) Info(args ...interface{})  { l.forwardTo.Log(l.name, Info, l.fields, args) }
func (l *namedLogger) Warn(args ...interface{})  { l.forwardTo.Log(l.name, Warn, l.fields, args) }
func (l *namedLogger) Error(args ...interface{}) { l.forwardTo.Log(l.name, Error, l.fields, args) }
func (l *namedLogger) Fatal(args ...interface{}) { l.forwardTo.Log(l.name, Fatal, l.fields, args) }
func (l *namedLogger) Panic(args ...interface{}) { l.forwardTo.Log(l.name, Panic, l.fields, args) }

func (l *namedLogger) Debugf(format string, args ...interface{}) {
	l.forwardTo.Logf(l.name, Debug, l.fields, format, args)
}

func (l *namedLogger) Infof(format string, args ...interface{}) {
	l.forwardTo.Logf(l.name, Info, l.fields, format, args)
}

func (l *namedLogger) Warnf(format string, args ...interface{}) {
	l.forwardTo.Logf(l.name, Warn, l.fields, format, args)
}

func (l *namedLogger) Errorf(format string, args ...interface{}) {
	l.forwardTo.Logf(l.name, Error, l.fields, format, args)
}

func (l *namedLogger) Fatalf(format string, args ...interface{}) {
	l.forwardTo.Logf(l.name, Fatal, l.fields, format, args)
}

func (l *namedLogger) Panicf(format string, args ...interface{}) {
	l.forwardTo.Logf(l.name, Panic, l.fields, format, args)
}

// WithField creates a new namedLogger that retains the name but has an
// updated copy of the fields.
func (l *namedLogger) WithField(key string, value interface{}) bark.Logger {
	newFields := make(map[string]interface{}, len(l.fields)+1)
	for k, v := range l.fields {
		newFields[k] = v
	}
	newFields[key] = value

	return &namedLogger{
		name:      l.name,
		forwardTo: l.forwardTo,
		fields:    newFields,
	}
}

// WithFields is like WithField for multiple fields. Fields passed here
// override previously defined fields with the same name.
func (l *namedLogger) WithFields(fields bark.LogFields) bark.Logger {
	other := fields.Fields()
	newFields := make(map[string]interface{}, len(l.fields)+len(other))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for k, v := range other {
		newFields[k] = v
	}

	return &namedLogger{
		name:      l.name,
		forwardTo: l.forwardTo,
		fields:    newFields,
	}
}

// WithError returns a new named logger with the error included as a field.
func (l *namedLogger) WithError(err error) bark.Logger {
	return l.WithField("error", err)
}

// Fields returns the fields the logger is bound to.
func (l *namedLogger) Fields() bark.Fields {
	return l.fields
}

// noLogger is a bark-compatible logger that does nothing with the log
// messages.
type noLogger struct{}

func (l noLogger) Debug(args ...interface{})                           {}
func (l noLogger) Debugf(format string, args ...interface{})           {}
func (l noLogger) Info(args ...interface{})                            {}
func (l noLogger) Infof(format string, args ...interface{})            {}
func (l noLogger) Warn(args ...interface{})                            {}
func (l noLogger) Warnf(format string, args ...interface{})            {}
func (l noLogger) Error(args ...interface{})                           {}
func (l noLogger) Errorf(format string, args ...interface{})           {}
func (l noLogger) Fatal(args ...interface{})                           {}
func (l noLogger) Fatalf(format string, args ...interface{})           {}
func (l noLogger) Panic(args ...interface{})                           {}
func (l noLogger) Panicf(format string, args ...interface{})           {}
func (l noLogger) WithField(key string, value interface{}) bark.Logger { return l }
func (l noLogger) WithFields(keyValues bark.LogFields) bark.Logger     { return l }
func (l noLogger) WithError(err error) bark.Logger                     { return l }
func (l noLogger) Fields() bark.Fields                                 { return nil }

// NoLogger is the default logger used by logging facilities when a logger is
// not passed.
var NoLogger = noLogger{}
