// Package users — manager.go реализует денежные операции.
// Обновление кошелька и запись в журнал транзакций выполняются
// в одной транзакции БД с блокировкой строки пользователя (FOR UPDATE):
// два конкурентных RemoveMoney никогда не спишут больше, чем есть.
package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/whatsapp-bot/internal/common"
	"serotonyl.ru/whatsapp-bot/internal/store"
)

// ErrWalletPatch — попытка поменять кошелёк через UpdateUser.
var ErrWalletPatch = errors.New("кошелёк меняется только через AddMoney/RemoveMoney")

const multiplierDocID = "global_multiplier"

// Manager — единая точка всех операций с профилем и деньгами.
type Manager struct {
	users    *store.Collection
	txLog    *store.Collection
	settings *store.Collection

	startingBalance int64
}

// NewManager подготавливает коллекции users/transactions/plugin_settings.
func NewManager(ctx context.Context, st *store.Store, startingBalance int64) (*Manager, error) {
	users, err := st.Collection(ctx, "users")
	if err != nil {
		return nil, err
	}
	txLog, err := st.Collection(ctx, "transactions")
	if err != nil {
		return nil, err
	}
	settings, err := st.Collection(ctx, "plugin_settings")
	if err != nil {
		return nil, err
	}
	return &Manager{
		users:           users,
		txLog:           txLog,
		settings:        settings,
		startingBalance: startingBalance,
	}, nil
}

// InitUser создаёт профиль со стартовым балансом, если его ещё нет.
// Идемпотентна: повторный вызов ничего не меняет.
func (m *Manager) InitUser(ctx context.Context, userID string) error {
	profile := &UserProfile{
		UserID:    userID,
		Wallet:    m.startingBalance,
		CreatedAt: time.Now(),
	}
	err := m.users.InsertOne(ctx, userID, profile)
	if errors.Is(err, common.ErrDuplicateKey) {
		return nil
	}
	return err
}

// GetUser возвращает профиль, создавая его на лету при отсутствии.
func (m *Manager) GetUser(ctx context.Context, userID string) (*UserProfile, error) {
	var profile UserProfile
	err := m.users.FindByID(ctx, userID, &profile)
	if errors.Is(err, common.ErrNoDocuments) {
		if err := m.InitUser(ctx, userID); err != nil {
			return nil, err
		}
		err = m.users.FindByID(ctx, userID, &profile)
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateUser накладывает патч на профиль (dot-path поддерживается).
// Кошелёк и банк через патч менять нельзя.
func (m *Manager) UpdateUser(ctx context.Context, userID string, patch map[string]any) error {
	for key := range patch {
		if key == "wallet" || key == "bank" {
			return ErrWalletPatch
		}
	}
	if _, err := m.GetUser(ctx, userID); err != nil {
		return err
	}
	return m.users.UpdateOne(ctx, userID, patch)
}

// GetMoney возвращает только баланс кошелька.
func (m *Manager) GetMoney(ctx context.Context, userID string) (int64, error) {
	profile, err := m.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return profile.Wallet, nil
}

// AddMoney начисляет amount монет (amount > 0) и возвращает новый баланс.
// Активный глобальный множитель применяется к сумме.
// В той же транзакции пишется запись журнала с balanceAfter.
func (m *Manager) AddMoney(ctx context.Context, userID string, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}

	mult, err := m.GetGlobalMultiplier(ctx)
	if err != nil {
		// Множитель — бонусная механика: при сбое чтения начисляем без него
		log.WithError(err).Warn("Не удалось прочитать глобальный множитель")
		mult = nil
	}
	credited := mult.Apply(amount, time.Now())

	var newBalance int64
	err = m.mutateWallet(ctx, userID, func(txn *store.Txn, p *UserProfile) error {
		before := p.Wallet
		p.Wallet += credited
		newBalance = p.Wallet
		return m.appendTx(ctx, txn, &TxEntry{
			UserID:        userID,
			Sign:          SignCredit,
			Amount:        credited,
			Reason:        reason,
			BalanceBefore: before,
			BalanceAfter:  p.Wallet,
			Timestamp:     time.Now(),
		})
	})
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"amount":  credited,
		"reason":  reason,
	}).Debug("Начисление выполнено")
	return newBalance, nil
}

// RemoveMoney списывает amount монет. Нехватка — не ошибка:
// возвращается (false, nil), баланс не меняется.
func (m *Manager) RemoveMoney(ctx context.Context, userID string, amount int64, reason string) (bool, error) {
	if amount <= 0 {
		return false, common.ErrInvalidAmount
	}

	var ok bool
	err := m.mutateWallet(ctx, userID, func(txn *store.Txn, p *UserProfile) error {
		if p.Wallet < amount {
			ok = false
			return errSkipWrite
		}
		before := p.Wallet
		p.Wallet -= amount
		ok = true
		return m.appendTx(ctx, txn, &TxEntry{
			UserID:        userID,
			Sign:          SignDebit,
			Amount:        amount,
			Reason:        reason,
			BalanceBefore: before,
			BalanceAfter:  p.Wallet,
			Timestamp:     time.Now(),
		})
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Deposit перекладывает amount из кошелька в банк.
// Возвращает false при нехватке средств в кошельке.
func (m *Manager) Deposit(ctx context.Context, userID string, amount int64) (bool, error) {
	if amount <= 0 {
		return false, common.ErrInvalidAmount
	}
	var ok bool
	err := m.mutateWallet(ctx, userID, func(_ *store.Txn, p *UserProfile) error {
		if p.Wallet < amount {
			ok = false
			return errSkipWrite
		}
		p.Wallet -= amount
		p.Bank += amount
		ok = true
		return nil
	})
	return ok, err
}

// Withdraw перекладывает amount из банка в кошелёк.
func (m *Manager) Withdraw(ctx context.Context, userID string, amount int64) (bool, error) {
	if amount <= 0 {
		return false, common.ErrInvalidAmount
	}
	var ok bool
	err := m.mutateWallet(ctx, userID, func(_ *store.Txn, p *UserProfile) error {
		if p.Bank < amount {
			ok = false
			return errSkipWrite
		}
		p.Bank -= amount
		p.Wallet += amount
		ok = true
		return nil
	})
	return ok, err
}

// Transfer переводит монеты между пользователями.
// Списание и начисление — две последовательные операции менеджера;
// при неудаче начисления списание компенсируется.
func (m *Manager) Transfer(ctx context.Context, fromID, toID string, amount int64) error {
	if fromID == toID {
		return common.ErrSelfTransfer
	}
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	if _, err := m.GetUser(ctx, toID); err != nil {
		return err
	}

	ok, err := m.removeMoneyRaw(ctx, fromID, amount, ReasonTransferOut)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrInsufficientBalance
	}

	if _, err := m.addMoneyRaw(ctx, toID, amount, ReasonTransferIn); err != nil {
		// Возвращаем списанное отправителю
		if _, rbErr := m.addMoneyRaw(ctx, fromID, amount, "transfer_rollback"); rbErr != nil {
			log.WithError(rbErr).WithField("user_id", fromID).Error("Откат перевода не удался")
		}
		return err
	}
	return nil
}

// GetTransactions возвращает последние limit записей журнала пользователя.
func (m *Manager) GetTransactions(ctx context.Context, userID string, limit int) ([]*TxEntry, error) {
	var entries []*TxEntry
	err := m.txLog.Find(ctx,
		store.Filter{store.Eq("userId", userID)},
		&store.FindOptions{SortField: "timestamp", SortDesc: true, Limit: limit},
		&entries,
	)
	return entries, err
}

// GetTop возвращает n самых богатых пользователей (по кошельку).
func (m *Manager) GetTop(ctx context.Context, n int) ([]*UserProfile, error) {
	var profiles []*UserProfile
	err := m.users.Find(ctx, nil,
		&store.FindOptions{SortField: "wallet", SortDesc: true, SortNumeric: true, Limit: n},
		&profiles,
	)
	return profiles, err
}

// SetGlobalMultiplier включает глобальный множитель начислений до until.
func (m *Manager) SetGlobalMultiplier(ctx context.Context, factor float64, until time.Time) error {
	if factor <= 0 {
		return common.ErrInvalidAmount
	}
	return m.settings.UpsertOne(ctx, multiplierDocID, &GlobalMultiplier{Factor: factor, Until: until})
}

// GetGlobalMultiplier читает активный множитель (nil — множителя нет).
func (m *Manager) GetGlobalMultiplier(ctx context.Context) (*GlobalMultiplier, error) {
	var mult GlobalMultiplier
	err := m.settings.FindByID(ctx, multiplierDocID, &mult)
	if errors.Is(err, common.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mult, nil
}

// errSkipWrite — сигнал из mutateWallet-колбэка: запись не нужна,
// но это и не ошибка (например, нехватка средств).
var errSkipWrite = errors.New("skip write")

// mutateWallet — атомарная мутация профиля под блокировкой строки.
// Профиль создаётся на лету, если его ещё нет. Колбэк получает Txn:
// запись журнала ложится в ту же транзакцию, что и кошелёк.
func (m *Manager) mutateWallet(ctx context.Context, userID string, fn func(txn *store.Txn, p *UserProfile) error) error {
	if _, err := m.GetUser(ctx, userID); err != nil {
		return err
	}

	err := m.users.MutateTxn(ctx, userID, func(txn *store.Txn, raw []byte) (any, error) {
		var p UserProfile
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("декодирование профиля: %w", err)
		}
		if err := fn(txn, &p); err != nil {
			return nil, err
		}
		return &p, nil
	})
	if errors.Is(err, errSkipWrite) {
		return nil
	}
	return err
}

// appendTx пишет запись журнала в транзакции txn.
// Id — время с наносекундами: в пределах процесса коллизий нет.
func (m *Manager) appendTx(ctx context.Context, txn *store.Txn, entry *TxEntry) error {
	id := fmt.Sprintf("%s:%d", entry.UserID, entry.Timestamp.UnixNano())
	return txn.InsertOne(ctx, m.txLog, id, entry)
}

// addMoneyRaw/removeMoneyRaw — как AddMoney/RemoveMoney, но без
// глобального множителя (переводы и откаты идут 1:1).
func (m *Manager) addMoneyRaw(ctx context.Context, userID string, amount int64, reason string) (int64, error) {
	var newBalance int64
	err := m.mutateWallet(ctx, userID, func(txn *store.Txn, p *UserProfile) error {
		before := p.Wallet
		p.Wallet += amount
		newBalance = p.Wallet
		return m.appendTx(ctx, txn, &TxEntry{
			UserID: userID, Sign: SignCredit, Amount: amount, Reason: reason,
			BalanceBefore: before, BalanceAfter: p.Wallet, Timestamp: time.Now(),
		})
	})
	return newBalance, err
}

func (m *Manager) removeMoneyRaw(ctx context.Context, userID string, amount int64, reason string) (bool, error) {
	var ok bool
	err := m.mutateWallet(ctx, userID, func(txn *store.Txn, p *UserProfile) error {
		if p.Wallet < amount {
			ok = false
			return errSkipWrite
		}
		before := p.Wallet
		p.Wallet -= amount
		ok = true
		return m.appendTx(ctx, txn, &TxEntry{
			UserID: userID, Sign: SignDebit, Amount: amount, Reason: reason,
			BalanceBefore: before, BalanceAfter: p.Wallet, Timestamp: time.Now(),
		})
	})
	return ok, err
}
