package database

import "time"

// Clock abstracts time-related functions so expiry checks can be tested
// deterministically.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the actual time.
type RealClock struct{}

// Now returns the current UTC time.
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// MockClock implements Clock for testing purposes.
type MockClock struct {
	Current time.Time
}

// Now returns the mocked current time.
func (mc *MockClock) Now() time.Time {
	return mc.Current
}

// Advance moves the current time forward by the specified duration.
func (mc *MockClock) Advance(d time.Duration) {
	mc.Current = mc.Current.Add(d)
}
