// Package users — единый менеджер пользователей и денег.
// models.go описывает профиль и запись журнала транзакций.
//
// Кошелёк меняется ТОЛЬКО через AddMoney/RemoveMoney (и банковские
// перемещения), чтобы балансы сходились между всеми плагинами.
package users

import "time"

// UserProfile — документ пользователя в коллекции users.
// Создаётся лениво при первом обращении, никогда не удаляется.
type UserProfile struct {
	UserID  string `json:"userId"`  // WhatsApp JID
	Wallet  int64  `json:"wallet"`  // Кошелёк (неотрицательный)
	Bank    int64  `json:"bank"`    // Банковский счёт
	Profile map[string]any `json:"profile,omitempty"` // Произвольные поля профиля

	// Стрики по виду действия: attendance, daily, quiz ...
	Streaks        map[string]int `json:"streaks,omitempty"`
	LongestStreaks map[string]int `json:"longestStreaks,omitempty"`

	// Временные метки последнего действия по виду: work, daily, rob ...
	LastAction map[string]time.Time `json:"lastAction,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// TxEntry — запись журнала транзакций (append-only).
// balanceAfter всегда равен балансу сразу после операции.
type TxEntry struct {
	UserID        string    `json:"userId"`
	Sign          string    `json:"sign"` // credit | debit
	Amount        int64     `json:"amount"`
	Reason        string    `json:"reason"`
	BalanceBefore int64     `json:"balanceBefore"`
	BalanceAfter  int64     `json:"balanceAfter"`
	Timestamp     time.Time `json:"timestamp"`
}

// Знаки транзакций
const (
	SignCredit = "credit"
	SignDebit  = "debit"
)

// Типовые причины движения денег. Плагины могут добавлять свои.
const (
	ReasonDaily        = "daily_bonus"
	ReasonWork         = "work"
	ReasonTransferIn   = "transfer_in"
	ReasonTransferOut  = "transfer_out"
	ReasonBetStake     = "bet_stake"
	ReasonBetPayout    = "bet_payout"
	ReasonAttendance   = "attendance"
	ReasonQuiz         = "quiz_reward"
	ReasonClubRevenue  = "club_revenue"
	ReasonClubExpense  = "club_expense"
	ReasonFarmSeed     = "farm_seed"
	ReasonFarmSell     = "farm_sell"
	ReasonAdminGive    = "admin_give"
	ReasonAdminTake    = "admin_take"
	ReasonBankDeposit  = "bank_deposit"
	ReasonBankWithdraw = "bank_withdraw"
)

// GlobalMultiplier — активный глобальный множитель начислений.
// Применяется ко всем кредитам до момента Until.
type GlobalMultiplier struct {
	Factor float64   `json:"factor"`
	Until  time.Time `json:"until"`
}

// Active сообщает, действует ли множитель в момент now.
func (m *GlobalMultiplier) Active(now time.Time) bool {
	return m != nil && m.Factor > 0 && now.Before(m.Until)
}

// Apply применяет множитель к сумме начисления (с округлением вниз).
func (m *GlobalMultiplier) Apply(amount int64, now time.Time) int64 {
	if !m.Active(now) {
		return amount
	}
	return int64(float64(amount) * m.Factor)
}

// Streak возвращает текущий стрик по виду действия.
func (u *UserProfile) Streak(kind string) int {
	if u.Streaks == nil {
		return 0
	}
	return u.Streaks[kind]
}

// LongestStreak возвращает рекордный стрик по виду действия.
func (u *UserProfile) LongestStreak(kind string) int {
	if u.LongestStreaks == nil {
		return 0
	}
	return u.LongestStreaks[kind]
}

// LastActionAt возвращает время последнего действия вида kind.
func (u *UserProfile) LastActionAt(kind string) (time.Time, bool) {
	if u.LastAction == nil {
		return time.Time{}, false
	}
	t, ok := u.LastAction[kind]
	return t, ok
}
