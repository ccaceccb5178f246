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

package util

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMS(t *testing.T) {
	assert.Equal(t, int64(1000), MS(time.Second))
	assert.Equal(t, int64(1), MS(time.Millisecond))
	assert.Equal(t, int64(0), MS(time.Microsecond))
}

func TestTimeZero(t *testing.T) {
	assert.True(t, TimeZero().IsZero())
}

func TestSelectInt(t *testing.T) {
	assert.Equal(t, 5, SelectInt(5, 10))
	assert.Equal(t, 10, SelectInt(0, 10))
	assert.Equal(t, -1, SelectInt(-1, 10))
}

func TestSelectDuration(t *testing.T) {
	assert.Equal(t, time.Second, SelectDuration(time.Second, time.Minute))
	assert.Equal(t, time.Minute, SelectDuration(0, time.Minute))
}

func TestTimestampJSON(t *testing.T) {
	ts := Timestamp(time.Unix(1500000000, 0))

	data, err := json.Marshal(&ts)
	require.NoError(t, err)
	assert.Equal(t, "1500000000", string(data))

	var parsed Timestamp
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, int64(1500000000), time.Time(parsed).Unix())

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &parsed))
}
