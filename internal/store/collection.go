// collection.go — операции над одной JSONB-коллекцией.
// Все денежные и конкурентные мутации проходят через Mutate:
// чтение с блокировкой строки (FOR UPDATE) + запись в одной транзакции.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/whatsapp-bot/internal/common"
)

// Collection — обёртка над таблицей wa_<name>(id, doc JSONB).
type Collection struct {
	name  string
	table string
	pool  *pgxpool.Pool
}

// Name возвращает логическое имя коллекции.
func (c *Collection) Name() string { return c.name }

// bootstrap создаёт таблицу и объявленные индексы (идемпотентно).
func (c *Collection) bootstrap(ctx context.Context, indexes []IndexSpec) error {
	_, err := c.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			doc JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, c.table))
	if err != nil {
		return fmt.Errorf("создание таблицы: %w", err)
	}

	for i, idx := range indexes {
		exprs := make([]string, len(idx.Fields))
		for j, f := range idx.Fields {
			exprs[j] = "(" + jsonPath(f) + ")"
			if idx.Desc && j == len(idx.Fields)-1 {
				exprs[j] += " DESC"
			}
		}
		unique := ""
		if idx.Unique {
			unique = "UNIQUE "
		}
		stmt := fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS idx_%s_%d ON %s (%s)",
			unique, c.table, i, c.table, strings.Join(exprs, ", "))
		if _, err := c.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("создание индекса %d: %w", i, err)
		}
	}
	return nil
}

// FindOne находит первый документ по фильтру и декодирует его в out.
// Если ничего не найдено — common.ErrNoDocuments.
func (c *Collection) FindOne(ctx context.Context, filter Filter, out any) error {
	where, args := filter.compile(0)
	var raw []byte
	err := c.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT doc FROM %s WHERE %s LIMIT 1", c.table, where), args...,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.ErrNoDocuments
	}
	if err != nil {
		return c.wrap("FindOne", err)
	}
	return json.Unmarshal(raw, out)
}

// FindByID находит документ по первичному ключу.
func (c *Collection) FindByID(ctx context.Context, id string, out any) error {
	var raw []byte
	err := c.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT doc FROM %s WHERE id = $1", c.table), id,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.ErrNoDocuments
	}
	if err != nil {
		return c.wrap("FindByID", err)
	}
	return json.Unmarshal(raw, out)
}

// Find выбирает документы по фильтру в слайс outSlice (указатель на слайс).
// Выборка приходит одним JSONB-массивом — одна строка, один Scan.
func (c *Collection) Find(ctx context.Context, filter Filter, opts *FindOptions, outSlice any) error {
	where, args := filter.compile(0)
	query := fmt.Sprintf(
		"SELECT COALESCE(jsonb_agg(doc), '[]'::jsonb) FROM (SELECT doc FROM %s WHERE %s%s%s) sub",
		c.table, where, opts.orderBy(), opts.limit())

	var raw []byte
	if err := c.pool.QueryRow(ctx, query, args...).Scan(&raw); err != nil {
		return c.wrap("Find", err)
	}
	return json.Unmarshal(raw, outSlice)
}

// InsertOne вставляет документ с заданным id.
// Нарушение уникального индекса → common.ErrDuplicateKey.
func (c *Collection) InsertOne(ctx context.Context, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("кодирование документа: %w", err)
	}
	_, err = c.pool.Exec(ctx,
		fmt.Sprintf("INSERT INTO %s (id, doc) VALUES ($1, $2)", c.table), id, raw)
	if isUniqueViolation(err) {
		return common.ErrDuplicateKey
	}
	if err != nil {
		return c.wrap("InsertOne", err)
	}
	return nil
}

// UpsertOne вставляет документ или целиком заменяет существующий.
func (c *Collection) UpsertOne(ctx context.Context, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("кодирование документа: %w", err)
	}
	_, err = c.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, doc) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()
	`, c.table), id, raw)
	if err != nil {
		return c.wrap("UpsertOne", err)
	}
	return nil
}

// ReplaceOne заменяет существующий документ. Нет документа — ErrNoDocuments.
func (c *Collection) ReplaceOne(ctx context.Context, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("кодирование документа: %w", err)
	}
	tag, err := c.pool.Exec(ctx,
		fmt.Sprintf("UPDATE %s SET doc = $2, updated_at = NOW() WHERE id = $1", c.table), id, raw)
	if err != nil {
		return c.wrap("ReplaceOne", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNoDocuments
	}
	return nil
}

// UpdateOne применяет patch (поверхностное слияние с dot-path ключами)
// к документу. Чтение и запись — в одной транзакции с блокировкой строки.
func (c *Collection) UpdateOne(ctx context.Context, id string, patch map[string]any) error {
	return c.Mutate(ctx, id, func(raw []byte) (any, error) {
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		ApplyPatch(doc, patch)
		return doc, nil
	})
}

// Mutate выполняет атомарный read-modify-write документа.
// Строка блокируется FOR UPDATE: две конкурентные мутации одного id
// выполняются строго последовательно. fn получает текущий JSON
// и возвращает новое содержимое.
func (c *Collection) Mutate(ctx context.Context, id string, fn func(raw []byte) (any, error)) error {
	return c.MutateTxn(ctx, id, func(_ *Txn, raw []byte) (any, error) {
		return fn(raw)
	})
}

// Txn даёт колбэку MutateTxn возможность писать в другие коллекции
// в той же транзакции БД (кошелёк + журнал атомарно).
type Txn struct {
	tx pgx.Tx
}

// InsertOne вставляет документ в коллекцию c в рамках транзакции.
func (t *Txn) InsertOne(ctx context.Context, c *Collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("кодирование документа: %w", err)
	}
	_, err = t.tx.Exec(ctx,
		fmt.Sprintf("INSERT INTO %s (id, doc) VALUES ($1, $2)", c.table), id, raw)
	if isUniqueViolation(err) {
		return common.ErrDuplicateKey
	}
	if err != nil {
		return c.wrap("Txn.InsertOne", err)
	}
	return nil
}

// UpsertOne вставляет или заменяет документ в рамках транзакции.
func (t *Txn) UpsertOne(ctx context.Context, c *Collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("кодирование документа: %w", err)
	}
	_, err = t.tx.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, doc) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()
	`, c.table), id, raw)
	if err != nil {
		return c.wrap("Txn.UpsertOne", err)
	}
	return nil
}

// MutateTxn — как Mutate, но колбэк получает Txn для сопутствующих
// записей в другие коллекции той же транзакцией.
func (c *Collection) MutateTxn(ctx context.Context, id string, fn func(txn *Txn, raw []byte) (any, error)) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return c.wrap("MutateTxn", err)
	}
	defer tx.Rollback(ctx)

	var raw []byte
	err = tx.QueryRow(ctx,
		fmt.Sprintf("SELECT doc FROM %s WHERE id = $1 FOR UPDATE", c.table), id,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.ErrNoDocuments
	}
	if err != nil {
		return c.wrap("MutateTxn", err)
	}

	next, err := fn(&Txn{tx: tx}, raw)
	if err != nil {
		return err
	}

	nextRaw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("кодирование документа: %w", err)
	}
	if _, err := tx.Exec(ctx,
		fmt.Sprintf("UPDATE %s SET doc = $2, updated_at = NOW() WHERE id = $1", c.table),
		id, nextRaw); err != nil {
		return c.wrap("MutateTxn", err)
	}
	return tx.Commit(ctx)
}

// DeleteOne удаляет документ по id. Отсутствие документа — не ошибка.
func (c *Collection) DeleteOne(ctx context.Context, id string) error {
	_, err := c.pool.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = $1", c.table), id)
	if err != nil {
		return c.wrap("DeleteOne", err)
	}
	return nil
}

// CountDocuments возвращает число документов по фильтру.
func (c *Collection) CountDocuments(ctx context.Context, filter Filter) (int, error) {
	where, args := filter.compile(0)
	var n int
	err := c.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", c.table, where), args...,
	).Scan(&n)
	if err != nil {
		return 0, c.wrap("CountDocuments", err)
	}
	return n, nil
}

func (c *Collection) wrap(op string, err error) error {
	return fmt.Errorf("%w: %s.%s: %v", common.ErrStoreUnavailable, c.name, op, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
