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

package events

import "sync"

// Event is an empty interface that is type switched when handled.
type Event interface{}

// An EventListener handles events emitted by a watcher. HandleEvent should be
// thread safe.
type EventListener interface {
	HandleEvent(event Event)
}

// EventEmitter describes an interface that can be used to emit events
type EventEmitter interface {
	EmitEvent(Event)
}

// EventRegistrar is an object that you can register EventListeners on.
type EventRegistrar interface {
	RegisterListener(EventListener)
	DeregisterListener(EventListener)
}

type baseEventRegistrar struct {
	lock      sync.RWMutex
	listeners []EventListener
}

// RegisterListener adds a listener to the registrar. Events emitted on this
// registrar will be invoked on the listener. Registering the same listener
// twice is a no-op.
func (a *baseEventRegistrar) RegisterListener(l EventListener) {
	if l == nil {
		// a nil listener would panic during event emission
		return
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	for _, listener := range a.listeners {
		if listener == l {
			return
		}
	}

	// the backing array is never changed after creation. This allows copying
	// the slice while locked but iterating while not locked, preventing
	// deadlocks when listeners are added/removed from within a handler
	listenersCopy := make([]EventListener, 0, len(a.listeners)+1)
	listenersCopy = append(listenersCopy, a.listeners...)
	listenersCopy = append(listenersCopy, l)

	a.listeners = listenersCopy
}

// DeregisterListener removes a listener from the registrar. Subsequent calls
// to EmitEvent will not cause HandleEvent to be called on this listener.
func (a *baseEventRegistrar) DeregisterListener(l EventListener) {
	a.lock.Lock()
	defer a.lock.Unlock()

	for i := range a.listeners {
		if a.listeners[i] == l {
			cpy := append([]EventListener(nil), a.listeners...)
			a.listeners = append(cpy[:i], cpy[i+1:]...)
			break
		}
	}
}

// AsyncEventEmitter is an implementation of both an EventRegistrar and
// EventEmitter that invokes every listener in its own goroutine.
type AsyncEventEmitter struct {
	baseEventRegistrar
}

// EmitEvent will send the event to all registered listeners
func (a *AsyncEventEmitter) EmitEvent(event Event) {
	a.lock.RLock()
	for _, listener := range a.listeners {
		go listener.HandleEvent(event)
	}
	a.lock.RUnlock()
}

// SyncEventEmitter is an implementation of both an EventRegistrar and
// EventEmitter that invokes listeners in the calling goroutine. Listeners
// therefore observe events in the exact order they were emitted.
type SyncEventEmitter struct {
	baseEventRegistrar
}

// EmitEvent will send the event to all registered listeners
func (a *SyncEventEmitter) EmitEvent(event Event) {
	a.lock.RLock()
	listeners := a.listeners
	a.lock.RUnlock()

	for _, listener := range listeners {
		listener.HandleEvent(event)
	}
}

// Ready is fired once the watcher completed its first successful refresh and
// its lookups reflect a live roster.
type Ready struct{}

// Destroyed is fired when the watcher has been destroyed and will not emit
// further events.
type Destroyed struct{}
