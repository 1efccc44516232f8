// Package plugin определяет контракт между хостом и плагином:
// дескриптор (метаданные, команды, алиасы, фоновые задачи) и
// контекст, который хост передаёт в обработчики.
package plugin

import (
	"context"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/whatsapp-bot/internal/config"
	"serotonyl.ru/whatsapp-bot/internal/messenger"
	"serotonyl.ru/whatsapp-bot/internal/selection"
	"serotonyl.ru/whatsapp-bot/internal/store"
	"serotonyl.ru/whatsapp-bot/internal/users"
)

// Task — фоновая задача плагина по cron-расписанию (5 полей,
// часовой пояс приложения). Планировщик гарантирует не более
// одного одновременного запуска на (плагин, задача).
type Task struct {
	Name    string
	Cron    string
	Handler func(ctx context.Context, tc *TaskContext) error
}

// TaskContext — окружение фоновой задачи.
type TaskContext struct {
	Store     *store.Store
	Users     *users.Manager
	Messenger messenger.Messenger
	Config    *config.Config
	Log       *log.Entry
}

// Plugin — дескриптор плагина.
type Plugin struct {
	Name     string
	Version  string
	Commands []string          // основные команды
	Aliases  map[string]string // алиас → основная команда
	// OwnerOnly — команды плагина доступны только владельцу
	OwnerOnly bool
	// Run вызывается роутером на каждую команду плагина
	Run func(ctx context.Context, pc *Context) error
	// FreeText — опциональный хук на сообщения без префикса.
	// Возвращает true, если сообщение обработано (поглощено).
	FreeText func(ctx context.Context, pc *Context) (bool, error)
	// Tasks — фоновые задачи
	Tasks []Task
}

// Context — всё, что плагин получает на один вызов команды.
type Context struct {
	Msg     *messenger.Message
	Command string   // распознанная основная команда (lowercase)
	Args    []string // аргументы после команды
	Text    string   // остаток после команды одной строкой

	Messenger  messenger.Messenger
	Store      *store.Store
	Users      *users.Manager
	Selections *selection.Store
	Config     *config.Config
	Log        *log.Entry

	// Предикаты прав. Детали авторизации (env, пароль) — забота хоста.
	IsOwner func(jid string) bool
	IsAdmin func(jid string) bool
}

// Reply отвечает в чат исходного сообщения.
func (pc *Context) Reply(ctx context.Context, text string) (string, error) {
	return pc.Messenger.SendText(ctx, pc.Msg.ChatID, text)
}

// ReplyQuoted отвечает с цитированием исходного сообщения.
func (pc *Context) ReplyQuoted(ctx context.Context, text string) (string, error) {
	return pc.Messenger.Reply(ctx, pc.Msg.ChatID, pc.Msg.ID, text)
}

// React ставит реакцию на исходное сообщение.
func (pc *Context) React(ctx context.Context, emoji string) error {
	return pc.Messenger.React(ctx, pc.Msg.ChatID, pc.Msg.ID, emoji)
}

// SenderIsAdmin — прав ли отправитель (владелец считается админом).
func (pc *Context) SenderIsAdmin() bool {
	return pc.IsOwner(pc.Msg.SenderID) || pc.IsAdmin(pc.Msg.SenderID)
}
