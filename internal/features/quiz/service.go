package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"time"

	"serotonyl.ru/whatsapp-bot/internal/common"
	"serotonyl.ru/whatsapp-bot/internal/config"
	"serotonyl.ru/whatsapp-bot/internal/scoring"
	"serotonyl.ru/whatsapp-bot/internal/store"
	"serotonyl.ru/whatsapp-bot/internal/users"
)

const streakKey = "quiz"

// quizDay — документ коллекции daily_quiz, id = дата (2006-01-02).
// Один вопрос в день на всех; answered — кто уже ответил верно.
type quizDay struct {
	Date        string          `json:"date"`
	QuestionIdx int             `json:"questionIdx"`
	Answered    map[string]bool `json:"answered,omitempty"`
}

// Result — итог зачтённого ответа.
type Result struct {
	Correct    bool
	Already    bool
	Reward     int64
	Streak     int
	Multiplied bool
}

// Service — вопрос дня поверх коллекции daily_quiz.
type Service struct {
	days  *store.Collection
	users *users.Manager
	cfg   *config.Config
	now   func() time.Time
}

// NewService открывает коллекцию daily_quiz.
func NewService(ctx context.Context, st *store.Store, um *users.Manager, cfg *config.Config) (*Service, error) {
	days, err := st.Collection(ctx, "daily_quiz")
	if err != nil {
		return nil, err
	}
	return &Service{days: days, users: um, cfg: cfg, now: time.Now}, nil
}

// pickQuestion выбирает вопрос детерминированно по дате: все
// инстансы и повторные вставки сходятся на одном индексе.
func pickQuestion(dateKey string) int {
	h := fnv.New32a()
	h.Write([]byte(dateKey))
	return int(h.Sum32() % uint32(len(questionBank)))
}

// Today возвращает (создавая при необходимости) вопрос дня.
func (s *Service) Today(ctx context.Context) (Question, error) {
	key := common.DateKey(s.now(), s.cfg.Location())

	var day quizDay
	err := s.days.FindByID(ctx, key, &day)
	if errors.Is(err, common.ErrNoDocuments) {
		day = quizDay{Date: key, QuestionIdx: pickQuestion(key)}
		err = s.days.InsertOne(ctx, key, &day)
		if errors.Is(err, common.ErrDuplicateKey) {
			err = s.days.FindByID(ctx, key, &day)
		}
	}
	if err != nil {
		return Question{}, err
	}
	return questionBank[day.QuestionIdx], nil
}

// Answer проверяет ответ и при первом верном за день начисляет
// награду. Неверный ответ не тратит попытку.
func (s *Service) Answer(ctx context.Context, userID, text string) (*Result, error) {
	q, err := s.Today(ctx)
	if err != nil {
		return nil, err
	}
	if !MatchAnswer(q, text) {
		return &Result{}, nil
	}

	key := common.DateKey(s.now(), s.cfg.Location())
	already := false
	err = s.days.Mutate(ctx, key, func(raw []byte) (any, error) {
		var day quizDay
		if err := json.Unmarshal(raw, &day); err != nil {
			return nil, err
		}
		if day.Answered[userID] {
			already = true
			return &day, nil
		}
		if day.Answered == nil {
			day.Answered = make(map[string]bool)
		}
		day.Answered[userID] = true
		return &day, nil
	})
	if err != nil {
		return nil, err
	}
	if already {
		return &Result{Correct: true, Already: true}, nil
	}

	streak, err := s.advanceStreak(ctx, userID)
	if err != nil {
		return nil, err
	}

	m := scoring.StreakMultiplier(streak, s.cfg.AttendanceStreakMin, s.cfg.AttendanceStreakMulti)
	reward := scoring.ApplyMultiplier(s.cfg.QuizReward, m)
	if _, err := s.users.AddMoney(ctx, userID, reward, users.ReasonQuiz); err != nil {
		return nil, err
	}
	return &Result{Correct: true, Reward: reward, Streak: streak, Multiplied: m != 1.0}, nil
}

// advanceStreak продлевает или сбрасывает серию верных ответов.
func (s *Service) advanceStreak(ctx context.Context, userID string) (int, error) {
	profile, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	loc := s.cfg.Location()
	now := s.now()
	streak := 1
	if last, ok := profile.LastActionAt(streakKey); ok {
		yesterday := common.DateKey(now.AddDate(0, 0, -1), loc)
		if common.DateKey(last, loc) == yesterday {
			streak = profile.Streak(streakKey) + 1
		}
	}

	patch := map[string]any{
		"lastAction." + streakKey: now,
		"streaks." + streakKey:    streak,
	}
	if streak > profile.LongestStreak(streakKey) {
		patch["longestStreaks."+streakKey] = streak
	}
	if err := s.users.UpdateUser(ctx, userID, patch); err != nil {
		return 0, err
	}
	return streak, nil
}
