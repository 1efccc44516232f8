package farm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCropByName(t *testing.T) {
	c, ok := CropByName("Морковь")
	require.True(t, ok)
	assert.Equal(t, int64(50), c.SeedCost)

	c, ok = CropByName("  клубника ")
	require.True(t, ok)
	assert.Equal(t, 3*time.Hour, c.GrowTime)

	_, ok = CropByName("баобаб")
	assert.False(t, ok)
}

func TestRipenPlots(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	plots := []Plot{
		{Crop: "морковь", PlantedAt: now.Add(-31 * time.Minute)}, // созрела
		{Crop: "морковь", PlantedAt: now.Add(-10 * time.Minute)}, // рано
		{Crop: "арбуз", PlantedAt: now.Add(-8 * time.Hour)},      // ровно на границе
		{Crop: "морковь", PlantedAt: now.Add(-2 * time.Hour), Ready: true},
		{Crop: "неизвестно", PlantedAt: now.Add(-100 * time.Hour)},
	}

	ripened := RipenPlots(plots, now)
	assert.Equal(t, 2, ripened)
	assert.True(t, plots[0].Ready)
	assert.False(t, plots[1].Ready)
	assert.True(t, plots[2].Ready)
	assert.True(t, plots[3].Ready) // уже была готова, не считается заново
	assert.False(t, plots[4].Ready)

	// Повторный проход ничего не добавляет
	assert.Equal(t, 0, RipenPlots(plots, now))
}

func TestPlotState(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	carrot, _ := CropByName("морковь")
	melon, _ := CropByName("арбуз")

	assert.Equal(t, "созрела ✅", plotState(Plot{Crop: "морковь", PlantedAt: now.Add(-time.Hour)}, carrot, now))
	assert.Equal(t, "созрела ✅", plotState(Plot{Crop: "морковь", Ready: true, PlantedAt: now}, carrot, now))
	assert.Equal(t, "ещё 20 мин", plotState(Plot{Crop: "морковь", PlantedAt: now.Add(-10 * time.Minute)}, carrot, now))
	assert.Equal(t, "ещё 5 ч 30 мин", plotState(Plot{Crop: "арбуз", PlantedAt: now.Add(-150 * time.Minute)}, melon, now))
}

func TestGrowLabel(t *testing.T) {
	assert.Equal(t, "30 мин", growLabel(30*time.Minute))
	assert.Equal(t, "8 ч", growLabel(8*time.Hour))
}

func TestCatalogSane(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range cropCatalog {
		require.False(t, seen[c.Name], c.Name)
		seen[c.Name] = true
		assert.Positive(t, c.SeedCost, c.Name)
		assert.Positive(t, c.Yield, c.Name)
		// Урожай должен окупать семена
		assert.Greater(t, c.SellPrice*int64(c.Yield), c.SeedCost, c.Name)
	}
}
