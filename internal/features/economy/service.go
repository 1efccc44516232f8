// service.go — ежедневный бонус со стриком, работа с кулдауном
// и обёртки над менеджером денег.
package economy

import (
	"context"
	"math/rand"
	"time"

	"serotonyl.ru/whatsapp-bot/internal/common"
	"serotonyl.ru/whatsapp-bot/internal/config"
	"serotonyl.ru/whatsapp-bot/internal/scoring"
	"serotonyl.ru/whatsapp-bot/internal/store"
	"serotonyl.ru/whatsapp-bot/internal/users"
)

// Разброс заработка .work до эффектов.
const (
	workMin = 100
	workMax = 300
)

// Service — экономика: деньги идут только через users.Manager.
type Service struct {
	users   *users.Manager
	effects *store.Collection
	cfg     *config.Config
	now     func() time.Time
}

// NewService открывает коллекцию эффектов.
func NewService(ctx context.Context, st *store.Store, um *users.Manager, cfg *config.Config) (*Service, error) {
	effects, err := st.Collection(ctx, "effects")
	if err != nil {
		return nil, err
	}
	return &Service{users: um, effects: effects, cfg: cfg, now: time.Now}, nil
}

// DailyResult — итог .daily.
type DailyResult struct {
	Reward  int64
	Streak  int
	Balance int64
}

// NextDailyStreak — чистая логика стрика ежедневного бонуса:
// вчера забирал — серия растёт, сегодня уже забирал — ноль (отказ),
// иначе серия начинается заново.
func NextDailyStreak(last time.Time, hasLast bool, now time.Time, loc *time.Location, current int) (int, bool) {
	if !hasLast {
		return 1, true
	}
	today := common.DateKey(now, loc)
	lastDay := common.DateKey(last, loc)
	if lastDay == today {
		return 0, false
	}
	if lastDay == common.DateKey(now.AddDate(0, 0, -1), loc) {
		return current + 1, true
	}
	return 1, true
}

// Daily выдаёт ежедневный бонус. Повторный за день — (nil, nil).
func (s *Service) Daily(ctx context.Context, userID string) (*DailyResult, error) {
	profile, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	loc := s.cfg.Location()
	last, hasLast := profile.LastActionAt("daily")
	streak, ok := NextDailyStreak(last, hasLast, s.now(), loc, profile.Streak("daily"))
	if !ok {
		return nil, nil
	}

	reward := s.cfg.EconomyDailyBase
	m := scoring.StreakMultiplier(streak, s.cfg.AttendanceStreakMin, s.cfg.AttendanceStreakMulti)
	reward = scoring.ApplyMultiplier(reward, m)

	factor, err := s.EffectFactor(ctx, userID, EffectDailyBoost)
	if err != nil {
		return nil, err
	}
	reward = scoring.ApplyMultiplier(reward, factor)

	balance, err := s.users.AddMoney(ctx, userID, reward, users.ReasonDaily)
	if err != nil {
		return nil, err
	}

	longest := profile.LongestStreak("daily")
	if streak > longest {
		longest = streak
	}
	if err := s.users.UpdateUser(ctx, userID, map[string]any{
		"lastAction.daily":     s.now(),
		"streaks.daily":        streak,
		"longestStreaks.daily": longest,
	}); err != nil {
		return nil, err
	}

	return &DailyResult{Reward: reward, Streak: streak, Balance: balance}, nil
}

// WorkResult — итог .work.
type WorkResult struct {
	Earned  int64
	Balance int64
	Boosted bool
}

// Work — заработок со случайной суммой и кулдауном.
// До конца кулдауна возвращает (nil, остаток, nil).
func (s *Service) Work(ctx context.Context, userID string) (*WorkResult, time.Duration, error) {
	profile, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	if last, ok := profile.LastActionAt("work"); ok {
		elapsed := s.now().Sub(last)
		if elapsed < s.cfg.EconomyWorkCooldown {
			return nil, s.cfg.EconomyWorkCooldown - elapsed, nil
		}
	}

	earned := int64(workMin + rand.Intn(workMax-workMin+1))
	factor, err := s.EffectFactor(ctx, userID, EffectWorkBoost)
	if err != nil {
		return nil, 0, err
	}
	earned = scoring.ApplyMultiplier(earned, factor)

	balance, err := s.users.AddMoney(ctx, userID, earned, users.ReasonWork)
	if err != nil {
		return nil, 0, err
	}
	if err := s.users.UpdateUser(ctx, userID, map[string]any{
		"lastAction.work": s.now(),
	}); err != nil {
		return nil, 0, err
	}

	return &WorkResult{Earned: earned, Balance: balance, Boosted: factor > 1}, 0, nil
}
