// service.go — зачёт посещения: дедупликация по дню, серия, награда.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"serotonyl.ru/whatsapp-bot/internal/common"
	"serotonyl.ru/whatsapp-bot/internal/config"
	"serotonyl.ru/whatsapp-bot/internal/scoring"
	"serotonyl.ru/whatsapp-bot/internal/store"
	"serotonyl.ru/whatsapp-bot/internal/users"
)

const streakKey = "attendance"

// Record — документ коллекции attendance (id = userId:date).
type Record struct {
	UserID      string    `json:"userId"`
	Date        string    `json:"date"` // YYYY-MM-DD в зоне приложения
	Name        string    `json:"name"`
	Activity    string    `json:"activity"`
	HasImage    bool      `json:"hasImage"`
	Reward      int64     `json:"reward"`
	Streak      int       `json:"streak"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Result — итог зачтённого отчёта для ответа пользователю.
type Result struct {
	Reward     int64
	Streak     int
	Longest    int
	Multiplied bool
	Birthday   *Birthday
}

// Service начисляет посещения.
type Service struct {
	records   *store.Collection
	birthdays *store.Collection
	users     *users.Manager
	cfg       *config.Config
	now       func() time.Time
}

// NewService открывает коллекции attendance и birthdays.
func NewService(ctx context.Context, st *store.Store, um *users.Manager, cfg *config.Config) (*Service, error) {
	records, err := st.Collection(ctx, "attendance")
	if err != nil {
		return nil, err
	}
	birthdays, err := st.Collection(ctx, "birthdays")
	if err != nil {
		return nil, err
	}
	return &Service{records: records, birthdays: birthdays, users: um, cfg: cfg, now: time.Now}, nil
}

func recordID(userID, date string) string { return userID + ":" + date }

// ComputeReward — чистая формула награды: база + бонус за фото,
// умноженные на серийный множитель (floor).
func ComputeReward(base, imageBonus int64, hasImage bool, streak, streakMin int, factor float64) (int64, bool) {
	reward := base
	if hasImage {
		reward += imageBonus
	}
	m := scoring.StreakMultiplier(streak, streakMin, factor)
	return scoring.ApplyMultiplier(reward, m), m != 1.0
}

// Submit зачитывает отчёт. Повторная сдача за день — ошибка
// common.ErrDuplicateKey, вызывающий переводит её в вежливый ответ.
func (s *Service) Submit(ctx context.Context, userID string, form *Form, hasImage bool) (*Result, error) {
	loc := s.cfg.Location()
	now := s.now().In(loc)
	today := common.DateKey(now, loc)
	yesterday := common.DateKey(now.AddDate(0, 0, -1), loc)

	// Серия: вчера был отчёт — продолжаем, нет — начинаем заново
	streak := 1
	var prev Record
	err := s.records.FindByID(ctx, recordID(userID, yesterday), &prev)
	if err == nil {
		streak = prev.Streak + 1
	} else if !errors.Is(err, common.ErrNoDocuments) {
		return nil, err
	}

	reward, multiplied := ComputeReward(
		s.cfg.AttendanceBaseReward, s.cfg.AttendanceImageBonus, hasImage,
		streak, s.cfg.AttendanceStreakMin, s.cfg.AttendanceStreakMulti)

	rec := Record{
		UserID:      userID,
		Date:        today,
		Name:        form.Name,
		Activity:    form.Activity,
		HasImage:    hasImage,
		Reward:      reward,
		Streak:      streak,
		SubmittedAt: s.now(),
	}
	// Уникальный индекс (userId, date) отсекает повторную сдачу
	if err := s.records.InsertOne(ctx, recordID(userID, today), rec); err != nil {
		return nil, err
	}

	if _, err := s.users.AddMoney(ctx, userID, reward, users.ReasonAttendance); err != nil {
		return nil, err
	}

	longest, err := s.updateStreaks(ctx, userID, streak)
	if err != nil {
		return nil, err
	}

	res := &Result{Reward: reward, Streak: streak, Longest: longest, Multiplied: multiplied}

	// Дата рождения — бонусом: невалидная просто игнорируется
	if bd, ok := ParseBirthday(form.Birthday); ok {
		if err := s.birthdays.UpsertOne(ctx, userID, map[string]any{
			"userId":   userID,
			"birthday": bd,
		}); err != nil {
			return nil, err
		}
		res.Birthday = bd
	}
	return res, nil
}

// updateStreaks пишет текущую и рекордную серии в профиль.
func (s *Service) updateStreaks(ctx context.Context, userID string, streak int) (int, error) {
	profile, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	longest := profile.LongestStreak(streakKey)
	if streak > longest {
		longest = streak
	}
	err = s.users.UpdateUser(ctx, userID, map[string]any{
		"streaks." + streakKey:        streak,
		"longestStreaks." + streakKey: longest,
	})
	return longest, err
}

// Stats — сводка посещений пользователя.
func (s *Service) Stats(ctx context.Context, userID string) (total int, streak, longest int, err error) {
	total, err = s.records.CountDocuments(ctx, store.Filter{store.Eq("userId", userID)})
	if err != nil {
		return 0, 0, 0, err
	}
	profile, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return 0, 0, 0, err
	}
	return total, profile.Streak(streakKey), profile.LongestStreak(streakKey), nil
}

// MissingFieldsReply — структурный ответ про незаполненные поля.
func MissingFieldsReply(missing []string) string {
	text := "📝 Форма принята не полностью. Заполни поля:\n"
	for _, f := range missing {
		text += fmt.Sprintf("  • %s\n", f)
	}
	return text + "\nИ отправь форму ещё раз."
}
