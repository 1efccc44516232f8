package attendance

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const validForm = `ОТЧЁТ О ПОСЕЩЕНИИ
Имя: Иван
Чем занимался: тренировка и растяжка
Дата рождения: 14 марта 1998`

func TestIsForm(t *testing.T) {
	assert.True(t, IsForm(validForm))
	assert.True(t, IsForm("отчёт о посещении\nимя: Петя"))
	assert.False(t, IsForm("просто сообщение"))
	// Заголовок без единой подписи поля — не форма
	assert.False(t, IsForm("отчёт о посещении и ничего больше"))
}

func TestParseFormValid(t *testing.T) {
	form, missing := ParseForm(validForm)
	require.Empty(t, missing)
	assert.Equal(t, "Иван", form.Name)
	assert.Equal(t, "тренировка и растяжка", form.Activity)
	assert.Equal(t, "14 марта 1998", form.Birthday)
}

func TestParseFormMissingFields(t *testing.T) {
	_, missing := ParseForm("ОТЧЁТ О ПОСЕЩЕНИИ\nИмя: Иван")
	assert.Equal(t, []string{"чем занимался"}, missing)

	// Слишком короткое значение считается отсутствующим
	_, missing = ParseForm("ОТЧЁТ О ПОСЕЩЕНИИ\nИмя: Я\nЧем занимался: бег и зал")
	assert.Equal(t, []string{"имя"}, missing)

	_, missing = ParseForm("ОТЧЁТ О ПОСЕЩЕНИИ")
	assert.Len(t, missing, 2)
}

func TestParseFormNoBirthday(t *testing.T) {
	form, missing := ParseForm("ОТЧЁТ О ПОСЕЩЕНИИ\nИмя: Иван\nЧем занимался: плавание в бассейне")
	require.Empty(t, missing)
	assert.Empty(t, form.Birthday)
}

func TestParseBirthdayFormats(t *testing.T) {
	tests := []struct {
		in          string
		day, month  int
		year        int
		display     string
	}{
		{"14 марта 1998", 14, 3, 1998, "14 марта 1998"},
		{"14 марта", 14, 3, 0, "14 марта"},
		{"марта 14, 1998", 14, 3, 1998, "14 марта 1998"},
		{"Март 14", 14, 3, 0, "14 марта"},
		{"14.03.1998", 14, 3, 1998, "14 марта 1998"},
		{"14/03", 14, 3, 0, "14 марта"},
		// Первая часть ≤ 12, вторая > 12 → день справа
		{"03/14", 14, 3, 0, "14 марта"},
		// Неоднозначное — день/месяц
		{"05.03", 5, 3, 0, "5 марта"},
		{"1998-03-14", 14, 3, 1998, "14 марта 1998"},
		{"29 февраля", 29, 2, 0, "29 февраля"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			bd, ok := ParseBirthday(tc.in)
			require.True(t, ok)
			assert.Equal(t, tc.day, bd.Day)
			assert.Equal(t, tc.month, bd.Month)
			assert.Equal(t, tc.year, bd.Year)
			assert.Equal(t, tc.display, bd.DisplayDate)
		})
	}
}

func TestParseBirthdayRejects(t *testing.T) {
	for _, in := range []string{
		"",
		"не дата",
		"32 марта",    // нет такого дня
		"31 апреля",   // в апреле 30 дней
		"30 февраля",
		"14 мартобря",
		"00.05",
		"13.13", // оба больше 12 быть месяцем не могут
	} {
		t.Run(in, func(t *testing.T) {
			_, ok := ParseBirthday(in)
			assert.False(t, ok)
		})
	}
}

// Round-trip: канонический вид дня и месяца разбирается в те же день и месяц.
func TestParseBirthdayRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		month := rapid.IntRange(1, 12).Draw(t, "month")
		day := rapid.IntRange(1, daysInMonth[month]).Draw(t, "day")

		bd, ok := ParseBirthday(fmt.Sprintf("%d %s", day, monthNames[month]))
		require.True(t, ok)
		require.Equal(t, day, bd.Day)
		require.Equal(t, month, bd.Month)

		again, ok := ParseBirthday(bd.DisplayDate)
		require.True(t, ok)
		require.Equal(t, bd.Day, again.Day)
		require.Equal(t, bd.Month, again.Month)
	})
}

// Сценарий наград: день 1 и 2 — по 700, с третьего дня серия ×1.5 → 1050.
func TestComputeRewardStreakScenario(t *testing.T) {
	base, bonus := int64(500), int64(200)

	r1, m1 := ComputeReward(base, bonus, true, 1, 3, 1.5)
	assert.Equal(t, int64(700), r1)
	assert.False(t, m1)

	r2, _ := ComputeReward(base, bonus, true, 2, 3, 1.5)
	assert.Equal(t, int64(700), r2)

	r3, m3 := ComputeReward(base, bonus, true, 3, 3, 1.5)
	assert.Equal(t, int64(1050), r3)
	assert.True(t, m3)
}

func TestComputeRewardNoImage(t *testing.T) {
	r, _ := ComputeReward(500, 200, false, 1, 3, 1.5)
	assert.Equal(t, int64(500), r)

	r, _ = ComputeReward(500, 200, false, 5, 3, 1.5)
	assert.Equal(t, int64(750), r)
}

func TestMissingFieldsReply(t *testing.T) {
	text := MissingFieldsReply([]string{"имя", "чем занимался"})
	assert.Contains(t, text, "• имя")
	assert.Contains(t, text, "• чем занимался")
}
