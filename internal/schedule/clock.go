package schedule

import "time"

// Clock supplies the current time. Expiry decisions and sweep alignment
// depend on it, so it is an interface to keep those paths deterministic
// in tests.
type Clock interface {
	Now() time.Time
}

// RealClock is the production Clock backed by the system time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
