// birthday.go — разбор даты рождения из свободного текста
// последовательностью проб форматов.
package attendance

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Birthday — каноническая дата рождения. Год опционален.
type Birthday struct {
	Day         int    `json:"day"`
	Month       int    `json:"month"`
	Year        int    `json:"year,omitempty"`
	MonthName   string `json:"monthName"`
	DisplayDate string `json:"displayDate"`
}

// monthNames — родительный падеж для отображения ("14 марта").
var monthNames = [13]string{"",
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// monthLookup принимает именительный и родительный падежи,
// полные и усечённые формы.
var monthLookup = map[string]int{
	"январь": 1, "января": 1, "янв": 1,
	"февраль": 2, "февраля": 2, "фев": 2,
	"март": 3, "марта": 3, "мар": 3,
	"апрель": 4, "апреля": 4, "апр": 4,
	"май": 5, "мая": 5,
	"июнь": 6, "июня": 6, "июн": 6,
	"июль": 7, "июля": 7, "июл": 7,
	"август": 8, "августа": 8, "авг": 8,
	"сентябрь": 9, "сентября": 9, "сен": 9, "сент": 9,
	"октябрь": 10, "октября": 10, "окт": 10,
	"ноябрь": 11, "ноября": 11, "ноя": 11, "нояб": 11,
	"декабрь": 12, "декабря": 12, "дек": 12,
}

var daysInMonth = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

var (
	reMonthFirst = regexp.MustCompile(`^([а-яё]+)\s+(\d{1,2})(?:\s*,?\s*(\d{4}))?$`)
	reDayFirst   = regexp.MustCompile(`^(\d{1,2})\s+([а-яё]+)(?:\s+(\d{4}))?$`)
	reNumeric    = regexp.MustCompile(`^(\d{1,2})[./](\d{1,2})(?:[./](\d{4}))?$`)
	reISO        = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
)

// ParseBirthday пробует форматы по очереди:
// «марта 14[, 1998]», «14 марта [1998]», «14.03[.1998]» или «14/03»
// (если первая часть больше 12 — это день; иначе день/месяц),
// ISO «1998-03-14», «14 марта» без года. Невозможный день месяца
// отклоняет разбор целиком.
func ParseBirthday(raw string) (*Birthday, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return nil, false
	}

	if m := reMonthFirst.FindStringSubmatch(s); m != nil {
		if month, ok := monthLookup[m[1]]; ok {
			return makeBirthday(atoi(m[2]), month, atoi(m[3]))
		}
	}
	if m := reDayFirst.FindStringSubmatch(s); m != nil {
		if month, ok := monthLookup[m[2]]; ok {
			return makeBirthday(atoi(m[1]), month, atoi(m[3]))
		}
	}
	if m := reNumeric.FindStringSubmatch(s); m != nil {
		a, b := atoi(m[1]), atoi(m[2])
		day, month := disambiguate(a, b)
		return makeBirthday(day, month, atoi(m[3]))
	}
	if m := reISO.FindStringSubmatch(s); m != nil {
		return makeBirthday(atoi(m[3]), atoi(m[2]), atoi(m[1]))
	}
	return nil, false
}

// disambiguate решает, где день, а где месяц, в числовой записи:
// часть больше 12 может быть только днём; при неоднозначности
// считаем запись «день/месяц».
func disambiguate(a, b int) (day, month int) {
	switch {
	case a > 12:
		return a, b
	case b > 12:
		return b, a
	default:
		return a, b
	}
}

func makeBirthday(day, month, year int) (*Birthday, bool) {
	if month < 1 || month > 12 || day < 1 || day > daysInMonth[month] {
		return nil, false
	}

	b := &Birthday{Day: day, Month: month, Year: year, MonthName: monthNames[month]}
	if year > 0 {
		b.DisplayDate = fmt.Sprintf("%d %s %d", day, b.MonthName, year)
	} else {
		b.DisplayDate = fmt.Sprintf("%d %s", day, b.MonthName)
	}
	return b, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
