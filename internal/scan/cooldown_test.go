package scan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownGuard_ArmAndExpire(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	guard := NewCooldownGuard().WithClock(func() time.Time { return now })

	assert.False(t, guard.Active("WV100"))
	assert.Zero(t, guard.Remaining("WV100"))

	guard.Arm("WV100", 5*time.Second)
	assert.True(t, guard.Active("WV100"))
	assert.Equal(t, 5*time.Second, guard.Remaining("WV100"))

	now = now.Add(3 * time.Second)
	assert.True(t, guard.Active("WV100"))
	assert.Equal(t, 2*time.Second, guard.Remaining("WV100"))

	now = now.Add(3 * time.Second)
	assert.False(t, guard.Active("WV100"))
	assert.Zero(t, guard.Remaining("WV100"))
}

func TestCooldownGuard_TimersArePerAsset(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	guard := NewCooldownGuard().WithClock(func() time.Time { return now })

	guard.Arm("WV100", 5*time.Second)
	guard.Arm("B200", 10*time.Second)

	now = now.Add(7 * time.Second)
	assert.False(t, guard.Active("WV100"))
	assert.True(t, guard.Active("B200"))
}

func TestCooldownGuard_RearmExtends(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	guard := NewCooldownGuard().WithClock(func() time.Time { return now })

	guard.Arm("WV100", 5*time.Second)
	now = now.Add(4 * time.Second)
	guard.Arm("WV100", 5*time.Second)
	now = now.Add(4 * time.Second)
	assert.True(t, guard.Active("WV100"))
}
