package club

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testClub() *Club {
	return &Club{
		Name:        "Лунный Свет",
		Reputation:  50,
		BaseRevenue: baseRevenuePerHour,
		Staff:       []Asset{{Name: "Бармен", Boost: 1.10, Upkeep: 300}},
		Equipment:   []Asset{{Name: "Светомузыка", Boost: 1.15, Upkeep: 200}},
	}
}

func TestMultiplier(t *testing.T) {
	c := testClub()
	// 1.0 · 1.15 · 1.10 · (0.5 + 1.5·50/100) = 1.265 · 1.25
	assert.InDelta(t, 1.15*1.10*1.25, c.Multiplier(), 1e-9)

	// Репутация двигает множитель
	c.Reputation = 100
	assert.InDelta(t, 1.15*1.10*2.0, c.Multiplier(), 1e-9)
	c.Reputation = 0
	assert.InDelta(t, 1.15*1.10*0.5, c.Multiplier(), 1e-9)
}

func TestPendingRevenue(t *testing.T) {
	now := time.Now()
	c := testClub()

	c.LastCollected = now.Add(-2 * time.Hour)
	got := c.PendingRevenue(now)
	want := int64(float64(2*baseRevenuePerHour) * c.Multiplier())
	assert.InDelta(t, want, got, 1) // floor может срезать единицу

	t.Run("накопление капится сутками", func(t *testing.T) {
		c.LastCollected = now.Add(-72 * time.Hour)
		capped := c.PendingRevenue(now)
		c.LastCollected = now.Add(-24 * time.Hour)
		day := c.PendingRevenue(now)
		assert.Equal(t, day, capped)
	})

	t.Run("сразу после сбора пусто", func(t *testing.T) {
		c.LastCollected = now
		assert.Equal(t, int64(0), c.PendingRevenue(now))
	})
}

func TestWeeklyUpkeep(t *testing.T) {
	c := testClub()
	assert.Equal(t, int64(500), c.WeeklyUpkeep())

	// Апгрейды содержания не требуют
	c.Upgrades = append(c.Upgrades, Asset{Name: "Ремонт зала", Boost: 1.2})
	assert.Equal(t, int64(500), c.WeeklyUpkeep())

	empty := &Club{}
	assert.Equal(t, int64(0), empty.WeeklyUpkeep())
}

func TestBumpReputation(t *testing.T) {
	c := &Club{Reputation: 98}
	c.BumpReputation(5)
	assert.Equal(t, 100, c.Reputation)

	c.Reputation = 3
	c.BumpReputation(-10)
	assert.Equal(t, 0, c.Reputation)
}

func TestHasAsset(t *testing.T) {
	assets := []Asset{{Name: "Бармен"}}
	assert.True(t, hasAsset(assets, "Бармен"))
	assert.False(t, hasAsset(assets, "Диджей"))
	assert.False(t, hasAsset(nil, "Бармен"))
}

func TestCatalogsSane(t *testing.T) {
	for _, catalog := range [][]Asset{staffCatalog, equipmentCatalog, upgradeCatalog} {
		for _, a := range catalog {
			assert.Greater(t, a.Boost, 1.0, a.Name)
			assert.Greater(t, a.Cost, int64(0), a.Name)
		}
	}
}
