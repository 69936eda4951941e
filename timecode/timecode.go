// Package timecode handles CTA high-resolution timestamps.
//
// The acquisition system stamps events with two 32-bit counters: whole
// seconds since the TAI epoch and quarter-nanoseconds within the second.
// Conversions to time.Time round to whole nanoseconds; round trips through
// HighRes are exact at quarter-nanosecond resolution.
package timecode

import "time"

// Quarter-nanosecond scale factors.
const (
	QNSPerSecond = 4_000_000_000
	QNSPerNano   = 4
)

// HighRes is a CTA high-resolution timestamp: seconds since the TAI epoch
// plus quarter-nanoseconds within the second.
type HighRes struct {
	S   uint32 `msgpack:"s" json:"s"`
	QNS uint32 `msgpack:"qns" json:"qns"`
}

// IsZero returns true for the zero timestamp.
func (t HighRes) IsZero() bool {
	return t.S == 0 && t.QNS == 0
}

// Before reports whether t is strictly earlier than other.
func (t HighRes) Before(other HighRes) bool {
	if t.S != other.S {
		return t.S < other.S
	}
	return t.QNS < other.QNS
}

// Time converts to time.Time, rounding quarter-nanoseconds to the nearest
// whole nanosecond. The result is on the unix timeline; callers needing
// the TAI-UTC offset apply it downstream.
func (t HighRes) Time() time.Time {
	ns := (int64(t.QNS) + QNSPerNano/2) / QNSPerNano
	return time.Unix(int64(t.S), ns).UTC()
}

// FromTime converts a time.Time to a high-resolution timestamp.
// Sub-quarter-nanosecond precision does not exist in time.Time, so the
// conversion is exact.
func FromTime(t time.Time) HighRes {
	return HighRes{
		S:   uint32(t.Unix()),
		QNS: uint32(t.Nanosecond() * QNSPerNano),
	}
}

// String formats the timestamp as RFC 3339 with nanosecond precision.
func (t HighRes) String() string {
	return t.Time().Format(time.RFC3339Nano)
}
