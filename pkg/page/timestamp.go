package page

import (
	"math"
	"time"
)

// Timestamp is an instant with microsecond resolution, stored as a signed
// count of microseconds since the Unix epoch. Timestamps are totally ordered
// by numeric comparison.
type Timestamp int64

const (
	// MinTimestamp is the smallest representable instant, used as the open
	// lower bound of a time range.
	MinTimestamp Timestamp = math.MinInt64

	// MaxTimestamp is the largest representable instant, used as the open
	// upper bound of a time range.
	MaxTimestamp Timestamp = math.MaxInt64
)

// TimestampFromTime converts a time.Time to a Timestamp, truncating to
// microsecond resolution.
func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp(t.UnixMicro())
}

// Now returns the current instant.
func Now() Timestamp {
	return TimestampFromTime(time.Now())
}

// Time converts the timestamp back to a time.Time in UTC.
func (t Timestamp) Time() time.Time {
	return time.UnixMicro(int64(t)).UTC()
}

// Before reports whether t is strictly earlier than other.
func (t Timestamp) Before(other Timestamp) bool {
	return t < other
}

// After reports whether t is strictly later than other.
func (t Timestamp) After(other Timestamp) bool {
	return t > other
}
