// Package messenger определяет контракт транспорта WhatsApp.
// Сам сокет/загрузка медиа живут снаружи: плагинам доступна только
// эта возможность, транспортные кадры они не собирают никогда.
package messenger

import (
	"context"
	"time"
)

// Message — входящее сообщение в нормализованном виде.
type Message struct {
	ID         string    // id сообщения
	ChatID     string    // JID чата (группа или личка)
	SenderID   string    // JID отправителя
	SenderName string    // отображаемое имя
	Text       string    // текст сообщения
	HasImage   bool      // есть ли вложенная картинка
	QuotedID   string    // id процитированного сообщения (пусто — нет цитаты)
	IsGroup    bool      // сообщение из группового чата
	Timestamp  time.Time
}

// MediaKind — тип вложения.
type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
)

// Media — исходящее вложение с опциональной подписью.
type Media struct {
	Kind    MediaKind
	Mime    string
	Data    []byte
	Caption string
}

// Messenger — всё, что бот умеет делать с транспортом.
type Messenger interface {
	// SendText отправляет текст в чат, возвращает id отправленного сообщения.
	SendText(ctx context.Context, chatID, text string) (string, error)
	// Reply отправляет текст с цитированием сообщения quotedID.
	Reply(ctx context.Context, chatID, quotedID, text string) (string, error)
	// SendMedia отправляет вложение (первое — с подписью).
	SendMedia(ctx context.Context, chatID string, media Media) (string, error)
	// React ставит реакцию на сообщение.
	React(ctx context.Context, chatID, messageID, emoji string) error
	// GroupParticipants возвращает JIDы участников группы.
	GroupParticipants(ctx context.Context, chatID string) ([]string, error)
}
