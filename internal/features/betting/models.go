// Package betting — тотализатор: матчи с коэффициентами, купоны,
// экспрессы и их расчёт симулятором.
// models.go описывает документы коллекций fixtures, bet_slips и bet_tickets.
package betting

import (
	"time"

	"serotonyl.ru/whatsapp-bot/internal/scoring"
)

// Статусы матча. Переход upcoming → completed единственный и необратимый.
const (
	FixtureUpcoming  = "upcoming"
	FixtureCompleted = "completed"
)

// Статусы экспресса.
const (
	TicketPending = "pending"
	TicketWon     = "won"
	TicketLost    = "lost"
)

// Team — сторона матча. Форма живёт в коллекции teams и
// копируется в матч при генерации.
type Team struct {
	Name     string `json:"name"`
	Strength int    `json:"strength"` // 1..100, постоянная
	Form     int    `json:"form"`     // 0..100, плавает по результатам
}

// Fixture — документ коллекции fixtures (id = matchId).
type Fixture struct {
	MatchID     int64                      `json:"matchId"`
	League      string                     `json:"league"`
	Home        Team                       `json:"home"`
	Away        Team                       `json:"away"`
	Odds        map[scoring.Market]int64   `json:"odds"` // в центах
	Kickoff     time.Time                  `json:"kickoff"`
	Status      string                     `json:"status"`
	Result      *scoring.MatchResult       `json:"result,omitempty"`
	CreatedAt   time.Time                  `json:"createdAt"`
	CompletedAt *time.Time                 `json:"completedAt,omitempty"`
}

// Title — заголовок матча для меню и купона.
func (f *Fixture) Title() string {
	return f.Home.Name + " — " + f.Away.Name
}

// Selection — одна нога купона: матч, рынок и замороженный коэффициент.
type Selection struct {
	MatchID int64          `json:"matchId"`
	Market  scoring.Market `json:"market"`
	Odds    int64          `json:"odds"` // снимок на момент добавления
	Label   string         `json:"label"`
}

// Slip — черновик ставки (id = userId, один на пользователя).
type Slip struct {
	UserID     string      `json:"userId"`
	Selections []Selection `json:"selections"`
	Stake      int64       `json:"stake"`
	ShareCode  string      `json:"shareCode,omitempty"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// HasMatch сообщает, есть ли в купоне нога на этот матч.
func (s *Slip) HasMatch(matchID int64) bool {
	for _, sel := range s.Selections {
		if sel.MatchID == matchID {
			return true
		}
	}
	return false
}

// OddsList — коэффициенты ног по порядку.
func (s *Slip) OddsList() []int64 {
	out := make([]int64, len(s.Selections))
	for i, sel := range s.Selections {
		out[i] = sel.Odds
	}
	return out
}

// Ticket — размещённый экспресс (id = uuid).
// После размещения ноги и коэффициенты заморожены навсегда.
type Ticket struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId"`
	Selections      []Selection `json:"selections"`
	Stake           int64       `json:"stake"`
	TotalOdds       int64       `json:"totalOdds"`
	PotentialPayout int64       `json:"potentialPayout"`
	Status          string      `json:"status"`
	PlacedAt        time.Time   `json:"placedAt"`
	SettledAt       *time.Time  `json:"settledAt,omitempty"`
}

// MatchIDs — матчи, от которых зависит экспресс.
func (t *Ticket) MatchIDs() []int64 {
	out := make([]int64, len(t.Selections))
	for i, sel := range t.Selections {
		out[i] = sel.MatchID
	}
	return out
}

// EvaluateTicket — чистая функция расчёта экспресса по результатам
// матчей. complete=false, пока хотя бы один матч не сыгран; won имеет
// смысл только при complete.
func EvaluateTicket(selections []Selection, results map[int64]*scoring.MatchResult) (won, complete bool) {
	won = true
	for _, sel := range selections {
		res, ok := results[sel.MatchID]
		if !ok || res == nil {
			return false, false
		}
		if !scoring.SettleSelection(sel.Market, *res) {
			won = false
		}
	}
	return won, true
}
