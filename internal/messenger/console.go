// console.go — консольный транспорт для локальной разработки:
// исходящее печатается в stdout, входящее читается из stdin.
// Боевой WhatsApp-транспорт подключается отдельным адаптером
// этого же интерфейса.
package messenger

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Console — Messenger поверх терминала.
type Console struct {
	mu  sync.Mutex
	out io.Writer
	seq int

	senderJID string
	chatJID   string
}

var _ Messenger = (*Console)(nil)

// NewConsole создаёт консольный транспорт. Все введённые строки
// приходят от senderJID в чат chatJID.
func NewConsole(senderJID, chatJID string) *Console {
	return &Console{out: os.Stdout, senderJID: senderJID, chatJID: chatJID}
}

func (c *Console) nextID() string {
	c.seq++
	return fmt.Sprintf("console-%d", c.seq)
}

func (c *Console) SendText(_ context.Context, chatID, text string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\n[→ %s]\n%s\n", chatID, text)
	return c.nextID(), nil
}

func (c *Console) Reply(_ context.Context, chatID, quotedID, text string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\n[→ %s, цитата %s]\n%s\n", chatID, quotedID, text)
	return c.nextID(), nil
}

func (c *Console) SendMedia(_ context.Context, chatID string, media Media) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\n[→ %s, медиа %s %d байт]\n%s\n", chatID, media.Kind, len(media.Data), media.Caption)
	return c.nextID(), nil
}

func (c *Console) React(_ context.Context, chatID, messageID, emoji string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\n[→ %s, реакция %s на %s]\n", chatID, emoji, messageID)
	return nil
}

func (c *Console) GroupParticipants(_ context.Context, _ string) ([]string, error) {
	return []string{c.senderJID}, nil
}

// Listen читает stdin построчно и отдаёт сообщения в канал.
// Строка вида "@msg-3 2" приходит как цитатный ответ на msg-3.
func (c *Console) Listen(ctx context.Context) <-chan *Message {
	updates := make(chan *Message)
	go func() {
		defer close(updates)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			text := scanner.Text()
			if text == "" {
				continue
			}
			msg := &Message{
				ChatID:    c.chatJID,
				SenderID:  c.senderJID,
				Text:      text,
				IsGroup:   true,
				Timestamp: time.Now(),
			}
			if len(text) > 1 && text[0] == '@' {
				if quoted, rest, ok := strings.Cut(text[1:], " "); ok {
					msg.QuotedID = quoted
					msg.Text = rest
				}
			}
			c.mu.Lock()
			msg.ID = c.nextID()
			c.mu.Unlock()

			select {
			case updates <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return updates
}

