package wire

import "time"

const sqlTimestampLayout = "2006-01-02 15:04:05"

// ParseEventTimestamp parses an event timestamp as read from the store.
// RFC3339 is tried first, then the space-separated SQL form. An unparsable
// value degrades to epoch zero instead of failing the whole response.
func ParseEventTimestamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse(sqlTimestampLayout, s); err == nil {
		return t
	}
	return time.Unix(0, 0).UTC()
}

// SplitTimestamp breaks a time into the seconds/nanos pair carried by
// CardTransactionHistory.
func SplitTimestamp(t time.Time) (int64, int32) {
	return t.Unix(), int32(t.Nanosecond())
}
