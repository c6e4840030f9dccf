// Package lockout decides when repeated failed logins lock an account.
package lockout

import "time"

const (
	DefaultThreshold = 5
	DefaultDuration  = 30 * time.Minute
)

// Policy is stateless; the counter and lock time live on the user record.
type Policy struct {
	Threshold int
	Duration  time.Duration
}

func NewPolicy() Policy {
	return Policy{Threshold: DefaultThreshold, Duration: DefaultDuration}
}

// IsLocked reports whether lockedUntil is still in the future at now.
func (p Policy) IsLocked(lockedUntil *time.Time, now time.Time) bool {
	return lockedUntil != nil && now.Before(*lockedUntil)
}

// RegisterFailure returns the new failure count and, once the count reaches
// the threshold, the time the account stays locked until. The count is held
// at the threshold, so a failure after a lock expires locks again at once.
func (p Policy) RegisterFailure(attempts int, now time.Time) (int, *time.Time) {
	if attempts < 0 {
		attempts = 0
	}

	attempts++
	if attempts >= p.Threshold {
		until := now.Add(p.Duration)
		return p.Threshold, &until
	}
	return attempts, nil
}

// Reset is the state after a successful login.
func (p Policy) Reset() (int, *time.Time) {
	return 0, nil
}
