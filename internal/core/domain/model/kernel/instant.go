package kernel

import "time"

// Precision is the temporal resolution orders are stored with.
const Precision = time.Second

// Instant truncates t to whole seconds. Every lifecycle timestamp passes through it
// so that comparisons in memory agree with what the store returns.
func Instant(t time.Time) time.Time {
	return t.Truncate(Precision)
}

// InstantPtr is Instant for optional timestamps.
func InstantPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := Instant(*t)
	return &v
}

// MomentBefore is the latest representable instant strictly before t.
func MomentBefore(t time.Time) time.Time {
	return Instant(t).Add(-Precision)
}

// IsDateOnly reports whether t carries no time of day in its own location.
func IsDateOnly(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}

// EndOfDay returns 23:59:59 of t's calendar date in t's location.
func EndOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 23, 59, 59, 0, t.Location())
}

// Clock supplies the current time. Handlers take one so tests can pin "now".
type Clock func() time.Time

// SystemClock is the wall clock truncated to store precision.
func SystemClock() time.Time {
	return Instant(time.Now())
}
