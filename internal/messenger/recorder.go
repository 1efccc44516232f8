// recorder.go — Recorder записывает исходящие сообщения вместо
// отправки. Используется в тестах плагинов и роутера.
package messenger

import (
	"context"
	"fmt"
	"sync"
)

// Sent — одно записанное исходящее сообщение.
type Sent struct {
	ChatID   string
	QuotedID string
	Text     string
	Media    *Media
	Emoji    string
}

// Recorder — Messenger для тестов: ничего не шлёт, всё запоминает.
type Recorder struct {
	mu    sync.Mutex
	sent  []Sent
	seq   int
	Parts map[string][]string // участники групп для GroupParticipants
}

var _ Messenger = (*Recorder)(nil)

// NewRecorder создаёт пустой Recorder.
func NewRecorder() *Recorder {
	return &Recorder{Parts: make(map[string][]string)}
}

func (r *Recorder) nextID() string {
	r.seq++
	return fmt.Sprintf("msg-%d", r.seq)
}

func (r *Recorder) SendText(_ context.Context, chatID, text string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Sent{ChatID: chatID, Text: text})
	return r.nextID(), nil
}

func (r *Recorder) Reply(_ context.Context, chatID, quotedID, text string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Sent{ChatID: chatID, QuotedID: quotedID, Text: text})
	return r.nextID(), nil
}

func (r *Recorder) SendMedia(_ context.Context, chatID string, media Media) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := media
	r.sent = append(r.sent, Sent{ChatID: chatID, Text: media.Caption, Media: &m})
	return r.nextID(), nil
}

func (r *Recorder) React(_ context.Context, chatID, messageID, emoji string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Sent{ChatID: chatID, QuotedID: messageID, Emoji: emoji})
	return nil
}

func (r *Recorder) GroupParticipants(_ context.Context, chatID string) ([]string, error) {
	return r.Parts[chatID], nil
}

// All возвращает копию всех записанных сообщений.
func (r *Recorder) All() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sent, len(r.sent))
	copy(out, r.sent)
	return out
}

// Last возвращает последнее сообщение (nil, если ничего нет).
func (r *Recorder) Last() *Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return nil
	}
	s := r.sent[len(r.sent)-1]
	return &s
}

// Reset очищает записанное.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
