// Package clock holds the production Clock.
package clock

import "time"

// SystemClock reads wall-clock time in UTC at microsecond precision, the resolution Postgres
// keeps for timestamptz, so stored values compare equal to the ones that were written.
type SystemClock struct{}

func NewSystemClock() SystemClock { return SystemClock{} }

func (SystemClock) Now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }
