// Package common — pluralize.go содержит вспомогательные функции
// для отображения сумм со знаком в истории транзакций.
package common

import "fmt"

// FormatSignedAmount создаёт строку вида "+100 монет" или "-50 монет".
// Знак «+» или «-» добавляется автоматически.
func FormatSignedAmount(amount int64) string {
	if amount >= 0 {
		return fmt.Sprintf("+%s %s", FormatNumber(amount), PluralizeCoins(amount))
	}
	return fmt.Sprintf("%s %s", FormatNumber(amount), PluralizeCoins(amount))
}
