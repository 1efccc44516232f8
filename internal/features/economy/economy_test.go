package economy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var msk = time.FixedZone("MSK", 3*3600)

func TestNextDailyStreak(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, msk)

	t.Run("первый раз", func(t *testing.T) {
		streak, ok := NextDailyStreak(time.Time{}, false, now, msk, 0)
		require.True(t, ok)
		assert.Equal(t, 1, streak)
	})

	t.Run("вчера забирал — серия растёт", func(t *testing.T) {
		streak, ok := NextDailyStreak(now.AddDate(0, 0, -1), true, now, msk, 4)
		require.True(t, ok)
		assert.Equal(t, 5, streak)
	})

	t.Run("сегодня уже забирал", func(t *testing.T) {
		_, ok := NextDailyStreak(now.Add(-2*time.Hour), true, now, msk, 4)
		assert.False(t, ok)
	})

	t.Run("пропустил день — серия заново", func(t *testing.T) {
		streak, ok := NextDailyStreak(now.AddDate(0, 0, -3), true, now, msk, 9)
		require.True(t, ok)
		assert.Equal(t, 1, streak)
	})

	t.Run("граница суток в зоне приложения", func(t *testing.T) {
		// 23:50 вчера и 00:10 сегодня — разные дни, серия растёт
		late := time.Date(2026, 3, 9, 23, 50, 0, 0, msk)
		early := time.Date(2026, 3, 10, 0, 10, 0, 0, msk)
		streak, ok := NextDailyStreak(late, true, early, msk, 2)
		require.True(t, ok)
		assert.Equal(t, 3, streak)
	})
}

func TestActiveOf(t *testing.T) {
	now := time.Now()
	effects := []Effect{
		{Tag: "a", Kind: EffectWorkBoost, Factor: 2.0, ExpiresAt: now.Add(time.Hour)},
		{Tag: "b", Kind: EffectWorkBoost, Factor: 1.5, ExpiresAt: now.Add(time.Minute)},
		{Tag: "c", Kind: EffectWorkBoost, Factor: 3.0, ExpiresAt: now.Add(-time.Minute)}, // истёк
		{Tag: "d", Kind: EffectDailyBoost, Factor: 5.0, ExpiresAt: now.Add(time.Hour)},   // другой вид
	}

	assert.InDelta(t, 3.0, ActiveOf(effects, EffectWorkBoost, now), 1e-9)
	assert.InDelta(t, 5.0, ActiveOf(effects, EffectDailyBoost, now), 1e-9)
	assert.InDelta(t, 1.0, ActiveOf(nil, EffectWorkBoost, now), 1e-9)
}

func TestPrune(t *testing.T) {
	now := time.Now()
	effects := []Effect{
		{Tag: "alive", ExpiresAt: now.Add(time.Hour)},
		{Tag: "dead", ExpiresAt: now.Add(-time.Hour)},
	}
	alive := Prune(effects, now)
	require.Len(t, alive, 1)
	assert.Equal(t, "alive", alive[0].Tag)

	assert.Empty(t, Prune(nil, now))
}

func TestNormalizeJID(t *testing.T) {
	assert.Equal(t, "79001234567@s.whatsapp.net", normalizeJID("@79001234567"))
	assert.Equal(t, "79001234567@s.whatsapp.net", normalizeJID("79001234567"))
	assert.Equal(t, "79001234567@s.whatsapp.net", normalizeJID("79001234567@s.whatsapp.net"))
}

func TestShortJID(t *testing.T) {
	assert.Equal(t, "79001234567", shortJID("79001234567@s.whatsapp.net"))
	assert.Equal(t, "без-собаки", shortJID("без-собаки"))
}

func TestFormatWait(t *testing.T) {
	assert.Equal(t, "1 ч 12 мин", formatWait(72*time.Minute))
	assert.Equal(t, "35 мин", formatWait(35*time.Minute))
	assert.Equal(t, "40 сек", formatWait(40*time.Second))
}
