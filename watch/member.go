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

import "github.com/uber/patronwatch-go/util"

// Status is the membership status of a member as reported by the campaign
// API, reduced to a closed set of values.
type Status string

const (
	// StatusActive is a member with a live, paying pledge.
	StatusActive Status = "active"

	// StatusDeclined is a member whose last charge was declined.
	StatusDeclined Status = "declined"

	// StatusFormer is a member who canceled a previously live pledge.
	StatusFormer Status = "former"

	// StatusNone is a follower without a pledge, or an unknown status.
	StatusNone Status = "none"
)

// ParseStatus maps a raw status string from the campaign API onto the closed
// Status set. Unrecognized values map to StatusNone.
func ParseStatus(raw string) Status {
	switch raw {
	case "active_patron", string(StatusActive):
		return StatusActive
	case "declined_patron", string(StatusDeclined):
		return StatusDeclined
	case "former_patron", string(StatusFormer):
		return StatusFormer
	}
	return StatusNone
}

// A Member is a single membership record as observed on one fetch from the
// campaign API. ID is stable across fetches. LinkedAccount is the id of the
// external account tied to the membership, empty when none is linked. Only
// ID, Status and LinkedAccount participate in diffing; the remaining fields
// ride through to events untouched.
type Member struct {
	ID            string         `json:"id"`
	Name          string         `json:"name,omitempty"`
	Email         string         `json:"email,omitempty"`
	PledgeCents   int            `json:"pledgeCents,omitempty"`
	Status        Status         `json:"status"`
	LinkedAccount string         `json:"linkedAccount,omitempty"`
	Since         util.Timestamp `json:"since"`
	LastCharge    util.Timestamp `json:"lastCharge"`
}
