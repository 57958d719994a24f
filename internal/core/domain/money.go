package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Documents are shared with clients that store amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// timestampLayout matches the millisecond ISO-8601 form other clients write.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp formats t the way LastAction and spend dates are stored.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ParseTimestamp parses a stored LastAction or spend date.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
