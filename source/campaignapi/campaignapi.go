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

// Package campaignapi fetches the membership roster of a campaign from the
// hosting platform's REST API. It handles bearer authentication, cursor
// pagination and extraction of the fields the watcher diffs on.
package campaignapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/uber/patronwatch-go/util"
	"github.com/uber/patronwatch-go/watch"
)

const defaultPageSize = 100

// Source fetches members of one campaign. It implements watch.Source.
type Source struct {
	baseURL  string
	token    string
	campaign string
	pageSize int
	client   *http.Client
}

// An Option configures a Source.
type Option func(*Source)

// HTTPClient sets the http client used for API calls.
func HTTPClient(c *http.Client) Option {
	return func(s *Source) {
		s.client = c
	}
}

// PageSize sets the number of records requested per page.
func PageSize(n int) Option {
	return func(s *Source) {
		s.pageSize = n
	}
}

// New creates a Source for the campaign reachable under baseURL,
// authenticating with the given access token.
func New(baseURL, token, campaign string, opts ...Option) *Source {
	s := &Source{
		baseURL:  baseURL,
		token:    token,
		campaign: campaign,
		pageSize: defaultPageSize,
		client:   &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.pageSize = util.SelectInt(s.pageSize, defaultPageSize)

	return s
}

// wire shapes of the members endpoint

type membersPage struct {
	Data  []memberRecord `json:"data"`
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

type memberRecord struct {
	ID         string `json:"id"`
	Attributes struct {
		FullName          string `json:"full_name"`
		Email             string `json:"email"`
		PatronStatus      string `json:"patron_status"`
		PledgeAmountCents int    `json:"pledge_amount_cents"`
		PledgeStart       string `json:"pledge_relationship_start"`
		LastChargeDate    string `json:"last_charge_date"`
	} `json:"attributes"`
	Relationships struct {
		SocialConnection struct {
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"social_connection"`
	} `json:"relationships"`
}

// FetchAll retrieves every member of the campaign, following pagination
// until the API reports no further page.
func (s *Source) FetchAll() ([]watch.Member, error) {
	var members []watch.Member

	next := s.firstPageURL()
	for next != "" {
		page, err := s.fetchPage(next)
		if err != nil {
			return nil, err
		}

		for _, record := range page.Data {
			members = append(members, toMember(record))
		}

		next = page.Links.Next
	}

	return members, nil
}

func (s *Source) firstPageURL() string {
	query := url.Values{}
	query.Set("page[count]", strconv.Itoa(s.pageSize))

	return fmt.Sprintf("%s/campaigns/%s/members?%s", s.baseURL, url.PathEscape(s.campaign), query.Encode())
}

func (s *Source) fetchPage(pageURL string) (*membersPage, error) {
	req, err := http.NewRequest("GET", pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	res, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		// keep a snippet of the body for diagnostics
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 256))
		return nil, fmt.Errorf("members request failed: %s: %s", res.Status, snippet)
	}

	var page membersPage
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("unexpected members payload: %v", err)
	}

	return &page, nil
}

func toMember(record memberRecord) watch.Member {
	return watch.Member{
		ID:            record.ID,
		Name:          record.Attributes.FullName,
		Email:         record.Attributes.Email,
		PledgeCents:   record.Attributes.PledgeAmountCents,
		Status:        watch.ParseStatus(record.Attributes.PatronStatus),
		LinkedAccount: record.Relationships.SocialConnection.Data.ID,
		Since:         parseTime(record.Attributes.PledgeStart),
		LastCharge:    parseTime(record.Attributes.LastChargeDate),
	}
}

func parseTime(raw string) util.Timestamp {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return util.Timestamp(util.TimeZero())
	}
	return util.Timestamp(t)
}
