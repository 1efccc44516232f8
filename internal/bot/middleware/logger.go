// Package middleware содержит промежуточные обработчики для логирования,
// восстановления после паники и rate-limiting.
package middleware

import (
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/whatsapp-bot/internal/messenger"
)

// LogMessage логирует входящее сообщение.
// Записывает: sender, chat, текст (первые 50 символов).
func LogMessage(msg *messenger.Message) {
	if msg == nil {
		return
	}

	text := msg.Text
	if len(text) > 50 {
		text = text[:50] + "..."
	}

	log.WithFields(log.Fields{
		"sender":  msg.SenderID,
		"chat":    msg.ChatID,
		"text":    text,
		"quoted":  msg.QuotedID,
		"time":    time.Now().Format("15:04:05"),
	}).Debug("Входящее сообщение")
}
