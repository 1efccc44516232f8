// Package economy — кошелёк, банк, ежедневный бонус, работа и переводы.
// effects.go — сумка активных эффектов пользователя (бусты с истечением).
package economy

import (
	"context"
	"errors"
	"time"

	"serotonyl.ru/whatsapp-bot/internal/common"
)

// Виды эффектов.
const (
	EffectWorkBoost  = "work_boost"  // множитель заработка .work
	EffectDailyBoost = "daily_boost" // множитель .daily
)

// Effect — один активный эффект.
type Effect struct {
	Tag       string    `json:"tag"`
	Kind      string    `json:"kind"`
	Factor    float64   `json:"factor"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// effectsDoc — документ коллекции effects (id = userId).
type effectsDoc struct {
	UserID  string   `json:"userId"`
	Effects []Effect `json:"effects"`
}

// ActiveOf отбирает эффекты вида kind, не истёкшие к моменту now,
// и возвращает произведение их множителей.
func ActiveOf(effects []Effect, kind string, now time.Time) float64 {
	factor := 1.0
	for _, e := range effects {
		if e.Kind == kind && now.Before(e.ExpiresAt) {
			factor *= e.Factor
		}
	}
	return factor
}

// Prune отбрасывает истёкшие эффекты.
func Prune(effects []Effect, now time.Time) []Effect {
	alive := effects[:0]
	for _, e := range effects {
		if now.Before(e.ExpiresAt) {
			alive = append(alive, e)
		}
	}
	return alive
}

// AddEffect вешает эффект на пользователя.
func (s *Service) AddEffect(ctx context.Context, userID string, e Effect) error {
	doc := effectsDoc{UserID: userID}
	err := s.effects.FindByID(ctx, userID, &doc)
	if err != nil && !errors.Is(err, common.ErrNoDocuments) {
		return err
	}
	doc.Effects = append(Prune(doc.Effects, time.Now()), e)
	return s.effects.UpsertOne(ctx, userID, doc)
}

// EffectFactor — действующий множитель вида kind для пользователя.
func (s *Service) EffectFactor(ctx context.Context, userID, kind string) (float64, error) {
	var doc effectsDoc
	err := s.effects.FindByID(ctx, userID, &doc)
	if errors.Is(err, common.ErrNoDocuments) {
		return 1.0, nil
	}
	if err != nil {
		return 1.0, err
	}
	return ActiveOf(doc.Effects, kind, time.Now()), nil
}

// SweepExpired чистит истёкшие эффекты у всех пользователей.
// Гоняется фоновой задачей раз в час.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	var docs []effectsDoc
	if err := s.effects.Find(ctx, nil, nil, &docs); err != nil {
		return 0, err
	}

	cleaned := 0
	now := time.Now()
	for _, doc := range docs {
		alive := Prune(doc.Effects, now)
		if len(alive) == len(doc.Effects) {
			continue
		}
		if len(alive) == 0 {
			if err := s.effects.DeleteOne(ctx, doc.UserID); err != nil {
				return cleaned, err
			}
		} else {
			if err := s.effects.UpsertOne(ctx, doc.UserID, effectsDoc{UserID: doc.UserID, Effects: alive}); err != nil {
				return cleaned, err
			}
		}
		cleaned++
	}
	return cleaned, nil
}
