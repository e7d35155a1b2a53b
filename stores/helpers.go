package stores

import (
	"time"

	"github.com/oarkflow/date"
)

// scanTime converts the timestamp representations the SQL drivers hand
// back (native time, RFC3339 text, raw bytes) into a time.Time. Returns
// the zero time for anything unparseable.
func scanTime(raw any) time.Time {
	switch v := raw.(type) {
	case time.Time:
		return v
	case string:
		if t, err := date.Parse(v); err == nil {
			return t
		}
	case []byte:
		if t, err := date.Parse(string(v)); err == nil {
			return t
		}
	}
	return time.Time{}
}
