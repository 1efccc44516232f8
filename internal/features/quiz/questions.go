// Package quiz — вопрос дня: один вопрос на всех, награда за верный ответ.
package quiz

import "strings"

// Question — вопрос из банка. Personal-вопросы не имеют правильного
// ответа: засчитывается любой непустой.
type Question struct {
	Text     string
	Answers  []string // варианты верного ответа (подстрока, без регистра)
	Personal bool
}

var questionBank = []Question{
	{Text: "Столица Австралии?", Answers: []string{"канберра"}},
	{Text: "Сколько планет в Солнечной системе?", Answers: []string{"8", "восемь"}},
	{Text: "Какой химический элемент обозначается Au?", Answers: []string{"золото"}},
	{Text: "В каком году человек впервые полетел в космос?", Answers: []string{"1961"}},
	{Text: "Самая длинная река в мире?", Answers: []string{"нил", "амазонка"}},
	{Text: "Кто написал «Мастера и Маргариту»?", Answers: []string{"булгаков"}},
	{Text: "Сколько струн у классической гитары?", Answers: []string{"6", "шесть"}},
	{Text: "Какой газ преобладает в атмосфере Земли?", Answers: []string{"азот"}},
	{Text: "Самое глубокое озеро планеты?", Answers: []string{"байкал"}},
	{Text: "Сколько минут в сутках?", Answers: []string{"1440"}},
	{Text: "Какая планета ближе всех к Солнцу?", Answers: []string{"меркурий"}},
	{Text: "Кто изобрёл периодическую таблицу элементов?", Answers: []string{"менделеев"}},
	{Text: "Столица Канады?", Answers: []string{"оттава"}},
	{Text: "Сколько костей у взрослого человека (примерно)?", Answers: []string{"206"}},
	{Text: "Какой океан самый большой?", Answers: []string{"тихий"}},
	{Text: "В каком городе находится Колизей?", Answers: []string{"рим"}},
	{Text: "Какая самая высокая гора на Земле?", Answers: []string{"эверест", "джомолунгма"}},
	{Text: "Сколько секунд в часе?", Answers: []string{"3600"}},
	{Text: "Кто написал «Войну и мир»?", Answers: []string{"толстой"}},
	{Text: "Какое животное самое быстрое на суше?", Answers: []string{"гепард"}},
	{Text: "Какой твой любимый фильм и почему?", Personal: true},
	{Text: "Расскажи о самом запомнившемся путешествии.", Personal: true},
	{Text: "Какая музыка играет у тебя чаще всего?", Personal: true},
	{Text: "Чему новому ты научился за последний месяц?", Personal: true},
	{Text: "Какое блюдо ты готовишь лучше всего?", Personal: true},
}

// MatchAnswer проверяет ответ на вопрос. Фактические вопросы —
// вхождение любого эталона без учёта регистра, личные — любой
// непустой текст.
func MatchAnswer(q Question, text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return false
	}
	if q.Personal {
		return true
	}
	for _, a := range q.Answers {
		if strings.Contains(text, a) {
			return true
		}
	}
	return false
}
