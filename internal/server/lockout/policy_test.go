package lockout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLocked(t *testing.T) {
	p := NewPolicy()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	assert.False(t, p.IsLocked(nil, now))
	assert.True(t, p.IsLocked(&future, now))
	assert.False(t, p.IsLocked(&past, now))
	assert.False(t, p.IsLocked(&now, now))
}

func TestRegisterFailure_LocksAtThreshold(t *testing.T) {
	p := NewPolicy()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	attempts := 0
	var until *time.Time
	for i := 1; i < DefaultThreshold; i++ {
		attempts, until = p.RegisterFailure(attempts, now)
		assert.Equal(t, i, attempts)
		assert.Nil(t, until)
	}

	attempts, until = p.RegisterFailure(attempts, now)
	assert.Equal(t, DefaultThreshold, attempts)
	require.NotNil(t, until)
	assert.Equal(t, now.Add(30*time.Minute), *until)
	assert.True(t, p.IsLocked(until, now.Add(29*time.Minute)))
	assert.False(t, p.IsLocked(until, now.Add(30*time.Minute)))
}

func TestRegisterFailure_AfterExpiredLockRelocks(t *testing.T) {
	p := NewPolicy()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	attempts, until := p.RegisterFailure(DefaultThreshold, now)
	assert.Equal(t, DefaultThreshold, attempts)
	require.NotNil(t, until)
	assert.Equal(t, now.Add(DefaultDuration), *until)
}

func TestRegisterFailure_NegativeCount(t *testing.T) {
	attempts, until := NewPolicy().RegisterFailure(-3, time.Now())
	assert.Equal(t, 1, attempts)
	assert.Nil(t, until)
}

func TestRegisterFailure_CustomPolicy(t *testing.T) {
	p := Policy{Threshold: 2, Duration: time.Hour}
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	attempts, until := p.RegisterFailure(1, now)
	assert.Equal(t, 2, attempts)
	require.NotNil(t, until)
	assert.Equal(t, now.Add(time.Hour), *until)
}

func TestReset(t *testing.T) {
	attempts, until := NewPolicy().Reset()
	assert.Zero(t, attempts)
	assert.Nil(t, until)
}
