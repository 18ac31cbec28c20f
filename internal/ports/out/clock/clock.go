package clock

import "time"

// Clock provides the current time to services and adapters.
type Clock interface {
	Now() time.Time
}

// Window returns the fixed UTC window of length d that contains t. Quotas and rate limits count
// per window, so every replica derives the same bounds.
func Window(t time.Time, d time.Duration) (start, end time.Time) {
	start = t.UTC().Truncate(d)
	return start, start.Add(d)
}
