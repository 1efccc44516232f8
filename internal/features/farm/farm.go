// Package farm — огород: посадка, созревание по крону, сбор и продажа.
package farm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"serotonyl.ru/whatsapp-bot/internal/common"
	"serotonyl.ru/whatsapp-bot/internal/store"
	"serotonyl.ru/whatsapp-bot/internal/users"
)

// Сколько грядок у одной фермы.
const maxPlots = 6

// Crop — культура из каталога. Баланс данных, не кода.
type Crop struct {
	Name      string        `json:"name"`
	Emoji     string        `json:"emoji"`
	SeedCost  int64         `json:"seedCost"`
	GrowTime  time.Duration `json:"-"`
	Yield     int           `json:"yield"`     // штук с грядки
	SellPrice int64         `json:"sellPrice"` // за штуку
}

var cropCatalog = []Crop{
	{Name: "морковь", Emoji: "🥕", SeedCost: 50, GrowTime: 30 * time.Minute, Yield: 5, SellPrice: 18},
	{Name: "картошка", Emoji: "🥔", SeedCost: 80, GrowTime: time.Hour, Yield: 6, SellPrice: 25},
	{Name: "клубника", Emoji: "🍓", SeedCost: 200, GrowTime: 3 * time.Hour, Yield: 8, SellPrice: 45},
	{Name: "арбуз", Emoji: "🍉", SeedCost: 500, GrowTime: 8 * time.Hour, Yield: 4, SellPrice: 220},
	{Name: "ананас", Emoji: "🍍", SeedCost: 1200, GrowTime: 24 * time.Hour, Yield: 3, SellPrice: 700},
}

// CropByName ищет культуру в каталоге (без учёта регистра).
func CropByName(name string) (Crop, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range cropCatalog {
		if c.Name == name {
			return c, true
		}
	}
	return Crop{}, false
}

// Plot — одна грядка.
type Plot struct {
	Crop      string    `json:"crop"`
	PlantedAt time.Time `json:"plantedAt"`
	Ready     bool      `json:"ready"`
}

// Farm — документ коллекции farms (id = userId).
type Farm struct {
	UserID    string         `json:"userId"`
	Plots     []Plot         `json:"plots,omitempty"`
	Inventory map[string]int `json:"inventory,omitempty"`
}

// RipenPlots помечает созревшие грядки. Чистая функция для крона.
// Возвращает число новых созревших.
func RipenPlots(plots []Plot, now time.Time) int {
	ripened := 0
	for i := range plots {
		if plots[i].Ready {
			continue
		}
		crop, ok := CropByName(plots[i].Crop)
		if !ok {
			continue
		}
		if !now.Before(plots[i].PlantedAt.Add(crop.GrowTime)) {
			plots[i].Ready = true
			ripened++
		}
	}
	return ripened
}

// Service — операции над фермами.
type Service struct {
	farms *store.Collection
	users *users.Manager
	now   func() time.Time
}

// NewService открывает коллекцию farms.
func NewService(ctx context.Context, st *store.Store, um *users.Manager) (*Service, error) {
	farms, err := st.Collection(ctx, "farms")
	if err != nil {
		return nil, err
	}
	return &Service{farms: farms, users: um, now: time.Now}, nil
}

// Farm возвращает ферму пользователя (пустую, если ещё не сажал).
func (s *Service) Farm(ctx context.Context, userID string) (*Farm, error) {
	var f Farm
	err := s.farms.FindByID(ctx, userID, &f)
	if errors.Is(err, common.ErrNoDocuments) {
		return &Farm{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Plant сажает культуру на свободную грядку, списывая цену семян.
func (s *Service) Plant(ctx context.Context, userID string, crop Crop) (*Farm, error) {
	f, err := s.Farm(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(f.Plots) >= maxPlots {
		return nil, errNoFreePlots
	}

	ok, err := s.users.RemoveMoney(ctx, userID, crop.SeedCost, users.ReasonFarmSeed)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrInsufficientBalance
	}

	f.Plots = append(f.Plots, Plot{Crop: crop.Name, PlantedAt: s.now()})
	if err := s.farms.UpsertOne(ctx, userID, f); err != nil {
		return nil, err
	}
	return f, nil
}

var errNoFreePlots = errors.New("нет свободных грядок")

// Harvest убирает созревшие грядки в инвентарь.
func (s *Service) Harvest(ctx context.Context, userID string) (map[string]int, error) {
	gathered := make(map[string]int)
	err := s.farms.Mutate(ctx, userID, func(raw []byte) (any, error) {
		var f Farm
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, err
		}
		RipenPlots(f.Plots, s.now())

		if f.Inventory == nil {
			f.Inventory = make(map[string]int)
		}
		remaining := f.Plots[:0]
		for _, p := range f.Plots {
			if !p.Ready {
				remaining = append(remaining, p)
				continue
			}
			crop, _ := CropByName(p.Crop)
			f.Inventory[p.Crop] += crop.Yield
			gathered[p.Crop] += crop.Yield
		}
		f.Plots = remaining
		return &f, nil
	})
	if errors.Is(err, common.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return gathered, nil
}

// SellAll продаёт весь инвентарь по каталожным ценам.
func (s *Service) SellAll(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := s.farms.Mutate(ctx, userID, func(raw []byte) (any, error) {
		var f Farm
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, err
		}
		for name, count := range f.Inventory {
			crop, ok := CropByName(name)
			if !ok {
				continue
			}
			total += crop.SellPrice * int64(count)
		}
		f.Inventory = nil
		return &f, nil
	})
	if errors.Is(err, common.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if total > 0 {
		if _, err := s.users.AddMoney(ctx, userID, total, users.ReasonFarmSell); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// RipenAll — кроновый проход: пометить созревшее у всех ферм.
func (s *Service) RipenAll(ctx context.Context) (int, error) {
	var farms []Farm
	if err := s.farms.Find(ctx, nil, nil, &farms); err != nil {
		return 0, err
	}

	total := 0
	now := s.now()
	for _, f := range farms {
		ripened := RipenPlots(f.Plots, now)
		if ripened == 0 {
			continue
		}
		if err := s.farms.UpsertOne(ctx, f.UserID, f); err != nil {
			return total, err
		}
		total += ripened
	}
	return total, nil
}
