package users

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGlobalMultiplierApply(t *testing.T) {
	now := time.Now()

	var none *GlobalMultiplier
	assert.Equal(t, int64(100), none.Apply(100, now))

	active := &GlobalMultiplier{Factor: 2.0, Until: now.Add(time.Hour)}
	assert.Equal(t, int64(200), active.Apply(100, now))

	expired := &GlobalMultiplier{Factor: 2.0, Until: now.Add(-time.Minute)}
	assert.Equal(t, int64(100), expired.Apply(100, now))

	// Дробный множитель округляется вниз
	frac := &GlobalMultiplier{Factor: 1.5, Until: now.Add(time.Hour)}
	assert.Equal(t, int64(151), frac.Apply(101, now))
}

func TestProfileAccessors(t *testing.T) {
	p := &UserProfile{}
	assert.Equal(t, 0, p.Streak("attendance"))
	_, ok := p.LastActionAt("work")
	assert.False(t, ok)

	ts := time.Now()
	p.Streaks = map[string]int{"attendance": 4}
	p.LastAction = map[string]time.Time{"work": ts}

	assert.Equal(t, 4, p.Streak("attendance"))
	got, ok := p.LastActionAt("work")
	assert.True(t, ok)
	assert.Equal(t, ts, got)
}
