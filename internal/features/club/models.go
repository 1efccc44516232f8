// Package club — клубы участников: персонал, оборудование, апгрейды,
// репутация и сбор выручки.
// models.go — документ клуба и чистые расчёты выручки и содержания.
package club

import (
	"time"

	"serotonyl.ru/whatsapp-bot/internal/scoring"
)

// Asset — нанятый сотрудник, купленное оборудование или апгрейд.
type Asset struct {
	Name   string  `json:"name"`
	Boost  float64 `json:"boost"`  // множитель выручки
	Cost   int64   `json:"cost"`   // цена покупки
	Upkeep int64   `json:"upkeep"` // еженедельное содержание
}

// Club — документ коллекции clubs (id = uuid).
// Имя и владелец уникальны: один клуб на человека.
type Club struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Balance     int64     `json:"balance"`    // касса клуба, может уйти в минус
	Reputation  int       `json:"reputation"` // 0..100
	BaseRevenue int64     `json:"baseRevenue"`
	Staff       []Asset   `json:"staff,omitempty"`
	Equipment   []Asset   `json:"equipment,omitempty"`
	Upgrades    []Asset   `json:"upgrades,omitempty"`
	// Касса в минусе после списания содержания. Личный кошелёк
	// владельца при этом не трогаем никогда.
	BankruptcyRisk bool      `json:"bankruptcyRisk"`
	LastCollected  time.Time `json:"lastCollected"`
	CreatedAt      time.Time `json:"createdAt"`
}

func boosts(assets []Asset) []float64 {
	out := make([]float64, len(assets))
	for i, a := range assets {
		out[i] = a.Boost
	}
	return out
}

// Multiplier — итоговый множитель выручки клуба.
func (c *Club) Multiplier() float64 {
	return scoring.RevenueMultiplier(1.0,
		boosts(c.Equipment), boosts(c.Staff), boosts(c.Upgrades), c.Reputation)
}

// PendingRevenue — накопленная выручка к моменту now: базовая ставка
// в час, не больше суток накопления, помноженная на множитель клуба.
func (c *Club) PendingRevenue(now time.Time) int64 {
	hours := now.Sub(c.LastCollected).Hours()
	if hours <= 0 {
		return 0
	}
	if hours > 24 {
		hours = 24
	}
	return scoring.ApplyMultiplier(int64(hours*float64(c.BaseRevenue)), c.Multiplier())
}

// WeeklyUpkeep — суммарное еженедельное содержание активов.
func (c *Club) WeeklyUpkeep() int64 {
	var total int64
	for _, a := range c.Staff {
		total += a.Upkeep
	}
	for _, a := range c.Equipment {
		total += a.Upkeep
	}
	return total
}

// BumpReputation сдвигает репутацию с клампом в [0, 100].
func (c *Club) BumpReputation(delta int) {
	c.Reputation += delta
	if c.Reputation < 0 {
		c.Reputation = 0
	}
	if c.Reputation > 100 {
		c.Reputation = 100
	}
}
