// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package timeutil

import "time"

// TimeStamp is a Unix timestamp in seconds, stored as an integer column.
type TimeStamp int64

var mockNow time.Time

// TimeStampNow returns the current timestamp.
func TimeStampNow() TimeStamp {
	if !mockNow.IsZero() {
		return TimeStamp(mockNow.Unix())
	}
	return TimeStamp(time.Now().Unix())
}

// MockSet fixes the current time for tests. The returned function restores it.
func MockSet(t time.Time) func() {
	mockNow = t
	return func() { mockNow = time.Time{} }
}

// AsTime converts the timestamp to a time.Time in the local zone.
func (ts TimeStamp) AsTime() time.Time {
	return time.Unix(int64(ts), 0)
}

// IsZero reports whether the timestamp is unset.
func (ts TimeStamp) IsZero() bool {
	return ts == 0
}
