// parser.go — разбор префиксных команд.
// Префиксы настраиваются (обычно "." "!" "/"), команда нечувствительна
// к регистру, аргументы делятся по пробелам.
package bot

import "strings"

// CommandParser парсит команды с настраиваемыми префиксами.
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser(prefixes []string) *CommandParser {
	if len(prefixes) == 0 {
		prefixes = []string{".", "!", "/"}
	}
	return &CommandParser{validPrefixes: prefixes}
}

// ParseCommand разбирает текст на команду, аргументы и «хвост».
// Возвращает (command, args, text, true) либо ok=false, если
// текст не начинается с известного префикса.
func (p *CommandParser) ParseCommand(raw string) (string, []string, string, bool) {
	raw = strings.TrimSpace(raw)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(raw, prefix) {
			raw = strings.TrimPrefix(raw, prefix)
			hasPrefix = true
			break
		}
	}

	if !hasPrefix {
		return "", nil, "", false
	}

	raw = strings.TrimSpace(raw)
	parts := strings.Fields(raw)

	if len(parts) == 0 {
		return "", nil, "", false
	}

	command := strings.ToLower(parts[0])
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	// Хвост — всё после команды одной строкой (для текстовых аргументов)
	text := strings.TrimSpace(strings.TrimPrefix(raw, parts[0]))

	return command, args, text, true
}
