// service.go — бизнес-логика купона: ноги, ставка, размещение, обмен.
package betting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/whatsapp-bot/internal/common"
	"serotonyl.ru/whatsapp-bot/internal/config"
	"serotonyl.ru/whatsapp-bot/internal/scoring"
	"serotonyl.ru/whatsapp-bot/internal/users"
)

// Service реализует операции тотализатора над репозиторием.
type Service struct {
	repo  *Repository
	users *users.Manager
	cfg   *config.Config
}

// NewService создаёт сервис тотализатора.
func NewService(repo *Repository, um *users.Manager, cfg *config.Config) *Service {
	return &Service{repo: repo, users: um, cfg: cfg}
}

// MarketLabel — человекочитаемая подпись рынка.
func MarketLabel(m scoring.Market) string {
	if l, ok := marketLabels[string(m)]; ok {
		return l
	}
	return string(m)
}

// AddSelection добавляет ногу в купон: коэффициент замораживается
// на момент добавления и дальше не меняется.
func (s *Service) AddSelection(ctx context.Context, userID string, matchID int64, market scoring.Market) (*Slip, error) {
	if !market.Valid() {
		return nil, fmt.Errorf("%w: неизвестный рынок %q", common.ErrFixtureNotFound, market)
	}

	f, err := s.repo.FixtureByMatchID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if f.Status != FixtureUpcoming {
		return nil, common.ErrFixtureNotFound
	}

	slip, err := s.repo.Slip(ctx, userID)
	if err != nil {
		return nil, err
	}
	if slip.HasMatch(matchID) {
		return nil, common.ErrDuplicateSelection
	}

	slip.Selections = append(slip.Selections, Selection{
		MatchID: matchID,
		Market:  market,
		Odds:    f.Odds[market],
		Label:   fmt.Sprintf("%s: %s", f.Title(), MarketLabel(market)),
	})
	if err := s.repo.SaveSlip(ctx, slip); err != nil {
		return nil, err
	}
	return slip, nil
}

// RemoveSelection убирает ногу по номеру (с единицы).
func (s *Service) RemoveSelection(ctx context.Context, userID string, index int) (*Slip, error) {
	slip, err := s.repo.Slip(ctx, userID)
	if err != nil {
		return nil, err
	}
	if index < 1 || index > len(slip.Selections) {
		return nil, common.ErrEmptySlip
	}
	slip.Selections = append(slip.Selections[:index-1], slip.Selections[index:]...)
	if err := s.repo.SaveSlip(ctx, slip); err != nil {
		return nil, err
	}
	return slip, nil
}

// SetStake выставляет ставку купона в пределах настроек.
func (s *Service) SetStake(ctx context.Context, userID string, stake int64) (*Slip, error) {
	if stake < s.cfg.BettingMinStake || stake > s.cfg.BettingMaxStake {
		return nil, common.ErrStakeOutOfRange
	}
	slip, err := s.repo.Slip(ctx, userID)
	if err != nil {
		return nil, err
	}
	slip.Stake = stake
	if err := s.repo.SaveSlip(ctx, slip); err != nil {
		return nil, err
	}
	return slip, nil
}

// Place размещает экспресс: списывает ставку, замораживает ноги в
// тикете и очищает купон. Нехватка денег — common.ErrInsufficientBalance.
func (s *Service) Place(ctx context.Context, userID string) (*Ticket, error) {
	slip, err := s.repo.Slip(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(slip.Selections) == 0 {
		return nil, common.ErrEmptySlip
	}
	if slip.Stake < s.cfg.BettingMinStake || slip.Stake > s.cfg.BettingMaxStake {
		return nil, common.ErrStakeOutOfRange
	}

	// Все матчи купона должны быть ещё не начаты
	for _, sel := range slip.Selections {
		f, err := s.repo.FixtureByMatchID(ctx, sel.MatchID)
		if err != nil {
			return nil, err
		}
		if f.Status != FixtureUpcoming {
			return nil, fmt.Errorf("%w: матч №%d уже сыгран", common.ErrFixtureNotFound, sel.MatchID)
		}
	}

	ok, err := s.users.RemoveMoney(ctx, userID, slip.Stake, users.ReasonBetStake)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrInsufficientBalance
	}

	odds := slip.OddsList()
	ticket := &Ticket{
		ID:              uuid.NewString(),
		UserID:          userID,
		Selections:      slip.Selections,
		Stake:           slip.Stake,
		TotalOdds:       scoring.TotalOdds(odds),
		PotentialPayout: scoring.PotentialPayout(slip.Stake, odds),
		Status:          TicketPending,
		PlacedAt:        time.Now(),
	}
	if err := s.repo.InsertTicket(ctx, ticket); err != nil {
		// Ставка уже списана — возвращаем, иначе деньги пропадут
		if _, refundErr := s.users.AddMoney(ctx, userID, slip.Stake, users.ReasonBetPayout); refundErr != nil {
			log.WithError(refundErr).WithField("user", userID).
				Error("Не удалось вернуть ставку после сбоя размещения")
		}
		return nil, err
	}

	if err := s.repo.DeleteSlip(ctx, userID); err != nil {
		log.WithError(err).WithField("user", userID).Warn("Купон не очистился после размещения")
	}
	return ticket, nil
}

// Clear очищает купон.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.repo.DeleteSlip(ctx, userID)
}

// Share выдаёт код обмена купоном.
func (s *Service) Share(ctx context.Context, userID string) (string, error) {
	slip, err := s.repo.Slip(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(slip.Selections) == 0 {
		return "", common.ErrEmptySlip
	}
	if slip.ShareCode == "" {
		slip.ShareCode = shortCode()
		if err := s.repo.SaveSlip(ctx, slip); err != nil {
			return "", err
		}
	}
	return slip.ShareCode, nil
}

// Load копирует чужой купон по коду обмена (ставка не копируется).
func (s *Service) Load(ctx context.Context, userID, code string) (*Slip, error) {
	src, err := s.repo.SlipByShareCode(ctx, strings.ToLower(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	slip := &Slip{UserID: userID, Selections: src.Selections}
	if err := s.repo.SaveSlip(ctx, slip); err != nil {
		return nil, err
	}
	return slip, nil
}

// shortCode — короткий код обмена из uuid (8 шестнадцатеричных знаков).
func shortCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
