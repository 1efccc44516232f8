// Package store — тонкий фасад над PostgreSQL, дающий плагинам
// «документные» коллекции поверх JSONB-таблиц.
//
// Плагин НИКОГДА не открывает своё соединение: все коллекции живут
// на общем пуле pgxpool. Первое обращение к коллекции создаёт таблицу
// и объявленные индексы (идемпотентно).
package store

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/whatsapp-bot/internal/common"
)

// IndexSpec описывает индекс коллекции по полям документа.
type IndexSpec struct {
	Fields []string // пути полей (dot-path)
	Unique bool
	Desc   bool // последнее поле сортируется по убыванию
}

// Объявленные индексы коллекций. Бутстрап выполняется при первом
// обращении к коллекции, повторные запуски безопасны (IF NOT EXISTS).
var collectionIndexes = map[string][]IndexSpec{
	"users":            {{Fields: []string{"userId"}, Unique: true}},
	"transactions":     {{Fields: []string{"userId", "timestamp"}, Desc: true}},
	"fixtures":         {{Fields: []string{"matchId"}, Unique: true}, {Fields: []string{"status"}}},
	"bet_slips":        {{Fields: []string{"userId"}, Unique: true}},
	"bet_tickets":      {{Fields: []string{"userId"}}, {Fields: []string{"status"}}},
	"attendance":       {{Fields: []string{"userId", "date"}, Unique: true}},
	"birthdays":        {{Fields: []string{"userId"}, Unique: true}},
	"clubs":            {{Fields: []string{"name"}, Unique: true}, {Fields: []string{"ownerId"}, Unique: true}},
	"farms":            {{Fields: []string{"userId"}, Unique: true}},
	"daily_quiz":       {{Fields: []string{"date"}, Unique: true}},
	"xposter_accounts": {{Fields: []string{"username"}, Unique: true}},
	"banned":           {{Fields: []string{"userId"}, Unique: true}},
}

var tableNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Store раздаёт коллекции и владеет общим подключением к БД.
type Store struct {
	pool *pgxpool.Pool

	mu          sync.Mutex
	collections map[string]*Collection
	seqOnce     sync.Once
}

// New создаёт Store на готовом пуле соединений.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:        pool,
		collections: make(map[string]*Collection),
	}
}

// Collection возвращает коллекцию по имени. При первом обращении
// создаёт таблицу и индексы. Ошибка подключения не «глотается» —
// вызывающий получает ErrStoreUnavailable и обязан её обработать.
func (s *Store) Collection(ctx context.Context, name string) (*Collection, error) {
	if !tableNameRe.MatchString(name) {
		return nil, fmt.Errorf("недопустимое имя коллекции %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[name]; ok {
		return c, nil
	}

	c := &Collection{name: name, table: "wa_" + name, pool: s.pool}
	if err := c.bootstrap(ctx, collectionIndexes[name]); err != nil {
		return nil, fmt.Errorf("%w: бутстрап коллекции %s: %v", common.ErrStoreUnavailable, name, err)
	}

	s.collections[name] = c
	log.WithField("collection", name).Debug("Коллекция готова")
	return c, nil
}

// MustCollection — Collection для коллекций, подготовленных на старте.
// Паникует только при ошибке инициализации приложения, не в рантайме.
func (s *Store) MustCollection(ctx context.Context, name string) *Collection {
	c, err := s.Collection(ctx, name)
	if err != nil {
		panic(err)
	}
	return c
}

// NextSeq возвращает следующее значение монотонного счётчика.
// Используется для matchId: значения строго возрастают.
func (s *Store) NextSeq(ctx context.Context, name string) (int64, error) {
	if err := s.ensureSeqTable(ctx); err != nil {
		return 0, err
	}
	var v int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO wa_sequences (name, value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = wa_sequences.value + 1
		RETURNING value
	`, name).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("%w: счётчик %s: %v", common.ErrStoreUnavailable, name, err)
	}
	return v, nil
}

func (s *Store) ensureSeqTable(ctx context.Context) error {
	var err error
	s.seqOnce.Do(func() {
		_, err = s.pool.Exec(ctx, `
			CREATE TABLE IF NOT EXISTS wa_sequences (
				name TEXT PRIMARY KEY,
				value BIGINT NOT NULL
			)
		`)
	})
	return err
}

// Pool отдаёт общий пул для компонентов, которым нужны
// транзакции через несколько коллекций (UserManager).
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}
