// teams.go — стартовый пул лиг и команд. Сила постоянна,
// форма стартует с 50 и дальше живёт своей жизнью в коллекции teams.
package betting

// defaultLeagues — чем выше сила, тем короче коэффициент.
var defaultLeagues = map[string][]Team{
	"РПЛ": {
		{Name: "Зенит", Strength: 88, Form: 50},
		{Name: "Краснодар", Strength: 84, Form: 50},
		{Name: "Спартак", Strength: 78, Form: 50},
		{Name: "ЦСКА", Strength: 80, Form: 50},
		{Name: "Динамо", Strength: 76, Form: 50},
		{Name: "Локомотив", Strength: 74, Form: 50},
		{Name: "Ростов", Strength: 66, Form: 50},
		{Name: "Рубин", Strength: 62, Form: 50},
		{Name: "Ахмат", Strength: 58, Form: 50},
		{Name: "Урал", Strength: 55, Form: 50},
	},
	"АПЛ": {
		{Name: "Манчестер Сити", Strength: 92, Form: 50},
		{Name: "Арсенал", Strength: 89, Form: 50},
		{Name: "Ливерпуль", Strength: 90, Form: 50},
		{Name: "Челси", Strength: 82, Form: 50},
		{Name: "Тоттенхэм", Strength: 79, Form: 50},
		{Name: "Манчестер Юнайтед", Strength: 77, Form: 50},
		{Name: "Ньюкасл", Strength: 75, Form: 50},
		{Name: "Астон Вилла", Strength: 73, Form: 50},
		{Name: "Вест Хэм", Strength: 67, Form: 50},
		{Name: "Эвертон", Strength: 63, Form: 50},
	},
	"Ла Лига": {
		{Name: "Реал Мадрид", Strength: 93, Form: 50},
		{Name: "Барселона", Strength: 90, Form: 50},
		{Name: "Атлетико", Strength: 84, Form: 50},
		{Name: "Атлетик", Strength: 77, Form: 50},
		{Name: "Реал Сосьедад", Strength: 74, Form: 50},
		{Name: "Бетис", Strength: 71, Form: 50},
		{Name: "Вильярреал", Strength: 72, Form: 50},
		{Name: "Валенсия", Strength: 66, Form: 50},
		{Name: "Севилья", Strength: 68, Form: 50},
		{Name: "Хетафе", Strength: 60, Form: 50},
	},
}

// marketLabels — подписи рынков для меню и купона.
var marketLabels = map[string]string{
	"HOME_WIN": "П1 (победа хозяев)",
	"AWAY_WIN": "П2 (победа гостей)",
	"DRAW":     "X (ничья)",
	"OVER15":   "ТБ 1.5",
	"UNDER15":  "ТМ 1.5",
	"OVER25":   "ТБ 2.5",
	"UNDER25":  "ТМ 2.5",
	"BTTS_YES": "Обе забьют — да",
	"BTTS_NO":  "Обе забьют — нет",
}
