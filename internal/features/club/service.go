// service.go — операции над клубом: создание, покупки, сбор выручки,
// еженедельное содержание.
package club

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/whatsapp-bot/internal/common"
	"serotonyl.ru/whatsapp-bot/internal/store"
	"serotonyl.ru/whatsapp-bot/internal/users"
)

// Service — бизнес-логика клубов.
type Service struct {
	clubs *store.Collection
	users *users.Manager
	now   func() time.Time
}

// NewService открывает коллекцию clubs.
func NewService(ctx context.Context, st *store.Store, um *users.Manager) (*Service, error) {
	clubs, err := st.Collection(ctx, "clubs")
	if err != nil {
		return nil, err
	}
	return &Service{clubs: clubs, users: um, now: time.Now}, nil
}

// ByOwner возвращает клуб владельца или common.ErrClubNotFound.
func (s *Service) ByOwner(ctx context.Context, ownerID string) (*Club, error) {
	var c Club
	err := s.clubs.FindOne(ctx, store.Filter{store.Eq("ownerId", ownerID)}, &c)
	if errors.Is(err, common.ErrNoDocuments) {
		return nil, common.ErrClubNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create открывает клуб: списывает цену, проверяет уникальность
// имени и «один клуб на владельца».
func (s *Service) Create(ctx context.Context, ownerID, name string) (*Club, error) {
	if _, err := s.ByOwner(ctx, ownerID); err == nil {
		return nil, common.ErrClubExists
	}
	var taken Club
	if err := s.clubs.FindOne(ctx, store.Filter{store.Eq("name", name)}, &taken); err == nil {
		return nil, common.ErrClubNameTaken
	}

	ok, err := s.users.RemoveMoney(ctx, ownerID, createCost, users.ReasonClubExpense)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrInsufficientBalance
	}

	c := &Club{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Name:          name,
		Reputation:    50,
		BaseRevenue:   baseRevenuePerHour,
		LastCollected: s.now(),
		CreatedAt:     s.now(),
	}
	if err := s.clubs.InsertOne(ctx, c.ID, c); err != nil {
		// Уникальный индекс сработал под гонкой — возвращаем взнос
		if _, refundErr := s.users.AddMoney(ctx, ownerID, createCost, users.ReasonClubRevenue); refundErr != nil {
			log.WithError(refundErr).WithField("owner", ownerID).Error("Не вернулся взнос за клуб")
		}
		if errors.Is(err, common.ErrDuplicateKey) {
			return nil, common.ErrClubNameTaken
		}
		return nil, err
	}
	return c, nil
}

// Buy списывает цену актива из кошелька владельца и кладёт актив в клуб.
func (s *Service) Buy(ctx context.Context, ownerID string, kind string, item Asset) (*Club, error) {
	c, err := s.ByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var owned []Asset
	switch kind {
	case "staff":
		owned = c.Staff
	case "equipment":
		owned = c.Equipment
	default:
		owned = c.Upgrades
	}
	if hasAsset(owned, item.Name) {
		return nil, common.ErrDuplicateKey
	}

	ok, err := s.users.RemoveMoney(ctx, ownerID, item.Cost, users.ReasonClubExpense)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrInsufficientBalance
	}

	err = s.mutate(ctx, c.ID, func(c *Club) error {
		switch kind {
		case "staff":
			c.Staff = append(c.Staff, item)
		case "equipment":
			c.Equipment = append(c.Equipment, item)
		default:
			c.Upgrades = append(c.Upgrades, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.ByOwner(ctx, ownerID)
}

// Collect забирает накопленную выручку в кошелёк владельца
// и поднимает репутацию на единицу.
func (s *Service) Collect(ctx context.Context, ownerID string) (int64, *Club, error) {
	c, err := s.ByOwner(ctx, ownerID)
	if err != nil {
		return 0, nil, err
	}

	revenue := c.PendingRevenue(s.now())
	if revenue <= 0 {
		return 0, c, nil
	}

	err = s.mutate(ctx, c.ID, func(c *Club) error {
		c.LastCollected = s.now()
		c.BumpReputation(1)
		return nil
	})
	if err != nil {
		return 0, nil, err
	}

	if _, err := s.users.AddMoney(ctx, ownerID, revenue, users.ReasonClubRevenue); err != nil {
		return 0, nil, err
	}

	c, err = s.ByOwner(ctx, ownerID)
	return revenue, c, err
}

// Top — клубы по репутации для билборда.
func (s *Service) Top(ctx context.Context, n int) ([]Club, error) {
	var out []Club
	err := s.clubs.Find(ctx, nil,
		&store.FindOptions{SortField: "reputation", SortNumeric: true, SortDesc: true, Limit: n},
		&out)
	return out, err
}

// ChargeUpkeep — еженедельное списание содержания со ВСЕХ клубов.
// Касса может уйти в минус: тогда ставится bankruptcyRisk и падает
// репутация, но личный кошелёк владельца не трогается.
func (s *Service) ChargeUpkeep(ctx context.Context) (int, error) {
	var clubs []Club
	if err := s.clubs.Find(ctx, nil, nil, &clubs); err != nil {
		return 0, err
	}

	charged := 0
	for _, c := range clubs {
		upkeep := c.WeeklyUpkeep()
		if upkeep == 0 {
			continue
		}
		err := s.mutate(ctx, c.ID, func(c *Club) error {
			c.Balance -= upkeep
			if c.Balance < 0 {
				c.BankruptcyRisk = true
				c.BumpReputation(-5)
			}
			return nil
		})
		if err != nil {
			log.WithError(err).WithField("club", c.Name).Error("Содержание не списалось")
			continue
		}
		charged++
	}
	return charged, nil
}

// DepositToClub пополняет кассу из кошелька владельца; выход из минуса
// снимает флаг риска банкротства.
func (s *Service) DepositToClub(ctx context.Context, ownerID string, amount int64) (*Club, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}
	c, err := s.ByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	ok, err := s.users.RemoveMoney(ctx, ownerID, amount, users.ReasonClubExpense)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrInsufficientBalance
	}

	err = s.mutate(ctx, c.ID, func(c *Club) error {
		c.Balance += amount
		if c.Balance >= 0 {
			c.BankruptcyRisk = false
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.ByOwner(ctx, ownerID)
}

// mutate — атомарное изменение документа клуба.
func (s *Service) mutate(ctx context.Context, clubID string, fn func(c *Club) error) error {
	return s.clubs.Mutate(ctx, clubID, func(raw []byte) (any, error) {
		var c Club
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		if err := fn(&c); err != nil {
			return nil, err
		}
		return &c, nil
	})
}
