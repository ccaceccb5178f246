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

// Package staticmembers provides a membership source with a fixed roster,
// useful in tests and examples.
package staticmembers

import "github.com/uber/patronwatch-go/watch"

// Source returns the same roster on every fetch. It implements watch.Source.
type Source struct {
	members []watch.Member
}

// New creates a Source serving the given members.
func New(members ...watch.Member) *Source {
	return &Source{members: members}
}

// FetchAll returns a copy of the configured roster.
func (s *Source) FetchAll() ([]watch.Member, error) {
	members := make([]watch.Member, len(s.members))
	copy(members, s.members)
	return members, nil
}
