package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"serotonyl.ru/whatsapp-bot/internal/common"
	"serotonyl.ru/whatsapp-bot/internal/config"
	"serotonyl.ru/whatsapp-bot/internal/store"
	"serotonyl.ru/whatsapp-bot/internal/users"
)

// Ban — документ коллекции banned (id = userId).
type Ban struct {
	UserID   string    `json:"userId"`
	BannedBy string    `json:"bannedBy"`
	Reason   string    `json:"reason,omitempty"`
	BannedAt time.Time `json:"bannedAt"`
}

// Service — админ-операции. Реализует bot.BanChecker, поэтому
// создаётся при старте приложения и передаётся и роутеру, и плагину.
type Service struct {
	banned *store.Collection
	users  *users.Manager
	cfg    *config.Config
	auth   *authState
	now    func() time.Time
}

// NewService открывает коллекцию banned.
func NewService(ctx context.Context, st *store.Store, um *users.Manager, cfg *config.Config) (*Service, error) {
	banned, err := st.Collection(ctx, "banned")
	if err != nil {
		return nil, err
	}
	return &Service{banned: banned, users: um, cfg: cfg, auth: newAuthState(), now: time.Now}, nil
}

// IsBanned — проверка роутера на каждое сообщение.
func (s *Service) IsBanned(ctx context.Context, userID string) bool {
	var b Ban
	return s.banned.FindByID(ctx, userID, &b) == nil
}

var (
	errAlreadyBanned = errors.New("пользователь уже забанен")
	errNotBanned     = errors.New("пользователь не забанен")
)

// BanUser заносит пользователя в бан. Повторный бан — ошибка.
func (s *Service) BanUser(ctx context.Context, userID, by, reason string) error {
	err := s.banned.InsertOne(ctx, userID, &Ban{
		UserID:   userID,
		BannedBy: by,
		Reason:   reason,
		BannedAt: s.now(),
	})
	if errors.Is(err, common.ErrDuplicateKey) {
		return errAlreadyBanned
	}
	return err
}

// UnbanUser снимает бан.
func (s *Service) UnbanUser(ctx context.Context, userID string) error {
	var b Ban
	if err := s.banned.FindByID(ctx, userID, &b); err != nil {
		if errors.Is(err, common.ErrNoDocuments) {
			return errNotBanned
		}
		return err
	}
	return s.banned.DeleteOne(ctx, userID)
}

// ListBans возвращает активные баны (свежие первыми).
func (s *Service) ListBans(ctx context.Context) ([]Ban, error) {
	var bans []Ban
	opts := &store.FindOptions{SortField: "bannedAt", SortDesc: true, Limit: 20}
	if err := s.banned.Find(ctx, nil, opts, &bans); err != nil {
		return nil, err
	}
	return bans, nil
}

// Give начисляет пользователю деньги от имени админа.
func (s *Service) Give(ctx context.Context, userID string, amount int64) (int64, error) {
	return s.users.AddMoney(ctx, userID, amount, users.ReasonAdminGive)
}

// Take списывает деньги (не ниже нуля — сколько есть, столько и спишем).
func (s *Service) Take(ctx context.Context, userID string, amount int64) (int64, error) {
	ok, err := s.users.RemoveMoney(ctx, userID, amount, users.ReasonAdminTake)
	if err != nil {
		return 0, err
	}
	if !ok {
		balance, err := s.users.GetMoney(ctx, userID)
		if err != nil {
			return 0, err
		}
		if balance == 0 {
			return 0, nil
		}
		if _, err := s.users.RemoveMoney(ctx, userID, balance, users.ReasonAdminTake); err != nil {
			return 0, err
		}
		return balance, nil
	}
	return amount, nil
}

// SetMultiplier включает глобальный множитель начислений.
func (s *Service) SetMultiplier(ctx context.Context, factor float64, d time.Duration) error {
	if factor <= 0 || factor > 10 {
		return fmt.Errorf("множитель должен быть в диапазоне (0, 10]")
	}
	return s.users.SetGlobalMultiplier(ctx, factor, s.now().Add(d))
}

// Authorize проверяет пароль владельца и открывает сессию на 24 часа.
// Троттлинг: 3 неверных попытки в час.
func (s *Service) Authorize(userID, password string) error {
	if s.cfg.OwnerPasswordHash == "" {
		return fmt.Errorf("пароль владельца не настроен")
	}
	if s.auth.throttled(userID) {
		return fmt.Errorf("слишком много попыток, подожди час")
	}
	if !verifyArgon2id(password, s.cfg.OwnerPasswordHash) {
		s.auth.logAttempt(userID)
		return fmt.Errorf("неверный пароль")
	}
	s.auth.openSession(userID)
	return nil
}

// Authorized — есть ли у пользователя живая сессия владельца.
func (s *Service) Authorized(userID string) bool {
	return s.auth.hasSession(userID)
}
