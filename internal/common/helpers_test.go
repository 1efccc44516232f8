package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPluralizeCoins(t *testing.T) {
	tests := []struct {
		n        int64
		expected string
	}{
		{1, "монета"},
		{2, "монеты"},
		{5, "монет"},
		{11, "монет"},
		{14, "монет"},
		{21, "монета"},
		{23, "монеты"},
		{100, "монет"},
		{111, "монет"},
		{-3, "монеты"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, PluralizeCoins(tt.n), "n=%d", tt.n)
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "2 350", FormatNumber(2350))
	assert.Equal(t, "1 000 001", FormatNumber(1000001))
	assert.Equal(t, "-12 000", FormatNumber(-12000))
}

func TestFormatOdds(t *testing.T) {
	assert.Equal(t, "1.50", FormatOdds(150))
	assert.Equal(t, "3.20", FormatOdds(320))
	assert.Equal(t, "12.05", FormatOdds(1205))
}

func TestDateKey(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	// 23:30 UTC — в Москве уже следующий день
	utc := time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-02", DateKey(utc, loc))
	assert.Equal(t, "2025-03-01", DateKey(utc, time.UTC))
}

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	utc := time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)
	sod := StartOfDay(utc, loc)
	assert.Equal(t, 0, sod.Hour())
	assert.Equal(t, 2, sod.Day())
}
