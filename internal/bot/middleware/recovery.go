package middleware

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// RecoverFromPanic гасит панику обработчика: процесс не падает,
// стек уходит в лог. onRecover (если задан) шлёт пользователю
// стандартное «произошла ошибка».
func RecoverFromPanic(pluginName string, onRecover func()) {
	if r := recover(); r != nil {
		log.WithFields(log.Fields{
			"component": "panic_recovery",
			"plugin":    pluginName,
			"panic":     fmt.Sprintf("%v", r),
			"stack":     string(debug.Stack()),
		}).Error("ПАНИКА в обработчике — восстановлено")
		if onRecover != nil {
			onRecover()
		}
	}
}
