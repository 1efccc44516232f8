// Package attendance — отчёты о посещении: разбор формы из свободного
// текста, серии посещений и награды.
// form.go распознаёт и разбирает шаблонную форму отчёта.
package attendance

import "strings"

// Сигнатура формы: заголовок + обязательные подписи полей.
const formHeader = "отчёт о посещении"

// Обязательные поля и минимальные длины значений.
var requiredFields = []struct {
	Label  string
	MinLen int
}{
	{"имя", 2},
	{"чем занимался", 5},
}

const birthdayLabel = "дата рождения"

// Form — разобранный отчёт.
type Form struct {
	Name     string
	Activity string
	Birthday string // сырое значение, разбирается отдельно
}

// IsForm проверяет сигнатуру: заголовок и хотя бы одна подпись поля.
// Дешёвая проверка до полного разбора — хук зовётся на каждое сообщение.
func IsForm(text string) bool {
	lower := strings.ToLower(text)
	if !strings.Contains(lower, formHeader) {
		return false
	}
	for _, f := range requiredFields {
		if strings.Contains(lower, f.Label+":") {
			return true
		}
	}
	return false
}

// ParseForm разбирает форму построчно. missing перечисляет
// отсутствующие или слишком короткие обязательные поля.
func ParseForm(text string) (form *Form, missing []string) {
	fields := make(map[string]string)

	for _, line := range strings.Split(text, "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(label))
		fields[key] = strings.TrimSpace(value)
	}

	for _, f := range requiredFields {
		if len([]rune(fields[f.Label])) < f.MinLen {
			missing = append(missing, f.Label)
		}
	}
	if len(missing) > 0 {
		return nil, missing
	}

	return &Form{
		Name:     fields["имя"],
		Activity: fields["чем занимался"],
		Birthday: fields[birthdayLabel],
	}, nil
}
