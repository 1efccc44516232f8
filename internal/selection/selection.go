// Package selection хранит «ожидающие выбора» меню: сообщение с
// нумерованными пунктами, на которое пользователь отвечает цитатой
// с числом. Никаких скрытых корутин — только явные записи по id
// сообщения с автопротуханием.
package selection

import (
	"context"
	"sync"
	"time"
)

// Handler вызывается с выбранным номером (1..N).
type Handler func(ctx context.Context, choice int) error

// Entry — одно ожидающее меню.
type Entry struct {
	Type      string   // тип меню (bet_fixtures, shop, ...)
	Options   []string // подписи пунктов, длина задаёт допустимый диапазон
	Handler   Handler
	CreatedAt time.Time
}

// Store — in-process хранилище меню. Сбрасывается при рестарте,
// это приемлемо: меню короткоживущие.
type Store struct {
	mu      sync.Mutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewStore создаёт хранилище с заданным TTL.
func NewStore(ttl time.Duration) *Store {
	s := &Store{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	go s.cleanup()
	return s
}

// WithClock подменяет источник времени (для тестов).
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Put связывает id отправленного меню с обработчиком выбора.
func (s *Store) Put(messageID, typ string, options []string, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[messageID] = Entry{
		Type:      typ,
		Options:   options,
		Handler:   handler,
		CreatedAt: s.now(),
	}
}

// Lookup возвращает непросроченное меню по id сообщения.
// Просроченная запись удаляется лениво прямо здесь.
func (s *Store) Lookup(messageID string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[messageID]
	if !ok {
		return Entry{}, false
	}
	if s.now().Sub(e.CreatedAt) > s.ttl {
		delete(s.entries, messageID)
		return Entry{}, false
	}
	return e, true
}

// Delete удаляет меню (после успешного выбора).
func (s *Store) Delete(messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, messageID)
}

// Close останавливает фоновую горутину очистки.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// cleanup периодически выметает протухшие меню.
// Точность не гарантируется — протухание наблюдательное.
func (s *Store) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.mu.Lock()
			cutoff := s.now().Add(-s.ttl)
			for id, e := range s.entries {
				if e.CreatedAt.Before(cutoff) {
					delete(s.entries, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
