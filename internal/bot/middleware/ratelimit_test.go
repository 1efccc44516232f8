package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(3, 10*time.Second).WithClock(func() time.Time { return now })
	defer rl.Close()

	// Первые три команды проходят, четвёртая — нет
	assert.True(t, rl.Allow("u1", "work"))
	assert.True(t, rl.Allow("u1", "work"))
	assert.True(t, rl.Allow("u1", "work"))
	assert.False(t, rl.Allow("u1", "work"))

	// Другая команда того же пользователя не ограничена
	assert.True(t, rl.Allow("u1", "bet"))
	// Другой пользователь тоже
	assert.True(t, rl.Allow("u2", "work"))

	// После окна — снова можно
	now = now.Add(11 * time.Second)
	assert.True(t, rl.Allow("u1", "work"))
}

func TestRateLimiterSliding(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(3, 10*time.Second).WithClock(func() time.Time { return now })
	defer rl.Close()

	rl.Allow("u", "c")
	now = now.Add(4 * time.Second)
	rl.Allow("u", "c")
	rl.Allow("u", "c")
	assert.False(t, rl.Allow("u", "c"))

	// Через 7 секунд первая отметка протухла — один слот свободен
	now = now.Add(7 * time.Second)
	assert.True(t, rl.Allow("u", "c"))
	assert.False(t, rl.Allow("u", "c"))
}

// В любом окне шириной W допускается не более N команд.
func TestRateLimiterNeverExceedsLimit(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(1, 5).Draw(t, "limit")
		window := 10 * time.Second

		now := time.Unix(0, 0)
		rl := NewRateLimiter(limit, window).WithClock(func() time.Time { return now })
		defer rl.Close()

		var admitted []time.Time
		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			now = now.Add(time.Duration(rapid.Int64Range(0, 4000).Draw(t, "advance")) * time.Millisecond)
			if rl.Allow("u", "cmd") {
				admitted = append(admitted, now)
			}

			// Скользящее окно, заканчивающееся «сейчас»
			count := 0
			for _, ts := range admitted {
				if ts.After(now.Add(-window)) {
					count++
				}
			}
			if count > limit {
				t.Fatalf("в окне %v оказалось %d допусков при лимите %d", window, count, limit)
			}
		}
	})
}
