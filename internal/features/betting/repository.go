// repository.go — доступ тотализатора к коллекциям fixtures,
// bet_slips, bet_tickets и teams.
package betting

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"serotonyl.ru/whatsapp-bot/internal/common"
	"serotonyl.ru/whatsapp-bot/internal/scoring"
	"serotonyl.ru/whatsapp-bot/internal/store"
)

// errAlreadySettled — матч/экспресс уже обработан, повторный расчёт не нужен.
var errAlreadySettled = errors.New("already settled")

// Repository инкапсулирует коллекции тотализатора.
type Repository struct {
	st       *store.Store
	fixtures *store.Collection
	slips    *store.Collection
	tickets  *store.Collection
	teams    *store.Collection
}

// NewRepository открывает коллекции (создаёт таблицы при первом запуске).
func NewRepository(ctx context.Context, st *store.Store) (*Repository, error) {
	fixtures, err := st.Collection(ctx, "fixtures")
	if err != nil {
		return nil, err
	}
	slips, err := st.Collection(ctx, "bet_slips")
	if err != nil {
		return nil, err
	}
	tickets, err := st.Collection(ctx, "bet_tickets")
	if err != nil {
		return nil, err
	}
	teams, err := st.Collection(ctx, "teams")
	if err != nil {
		return nil, err
	}
	return &Repository{st: st, fixtures: fixtures, slips: slips, tickets: tickets, teams: teams}, nil
}

func fixtureDocID(matchID int64) string { return strconv.FormatInt(matchID, 10) }

// NextMatchID выдаёт монотонный номер матча.
func (r *Repository) NextMatchID(ctx context.Context) (int64, error) {
	return r.st.NextSeq(ctx, "matchId")
}

// UpcomingFixtures — предстоящие матчи по возрастанию номера.
func (r *Repository) UpcomingFixtures(ctx context.Context, limit int) ([]Fixture, error) {
	var out []Fixture
	err := r.fixtures.Find(ctx,
		store.Filter{store.Eq("status", FixtureUpcoming)},
		&store.FindOptions{SortField: "matchId", SortNumeric: true, Limit: limit},
		&out)
	return out, err
}

// DueFixtures — предстоящие матчи, чьё время начала уже наступило.
func (r *Repository) DueFixtures(ctx context.Context, now time.Time) ([]Fixture, error) {
	var out []Fixture
	err := r.fixtures.Find(ctx,
		store.Filter{
			store.Eq("status", FixtureUpcoming),
			store.Lte("kickoff", now),
		},
		&store.FindOptions{SortField: "matchId", SortNumeric: true},
		&out)
	return out, err
}

// FixtureByMatchID возвращает матч или common.ErrFixtureNotFound.
func (r *Repository) FixtureByMatchID(ctx context.Context, matchID int64) (*Fixture, error) {
	var f Fixture
	err := r.fixtures.FindByID(ctx, fixtureDocID(matchID), &f)
	if errors.Is(err, common.ErrNoDocuments) {
		return nil, common.ErrFixtureNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// InsertFixture сохраняет новый матч.
func (r *Repository) InsertFixture(ctx context.Context, f *Fixture) error {
	return r.fixtures.InsertOne(ctx, fixtureDocID(f.MatchID), f)
}

// CompleteFixture переводит матч в completed ровно один раз.
// Уже сыгранный матч возвращает errAlreadySettled.
func (r *Repository) CompleteFixture(ctx context.Context, matchID int64, result *scoring.MatchResult, at time.Time) error {
	return r.fixtures.Mutate(ctx, fixtureDocID(matchID), func(raw []byte) (any, error) {
		var f Fixture
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, err
		}
		if f.Status != FixtureUpcoming {
			return nil, errAlreadySettled
		}
		f.Status = FixtureCompleted
		f.Result = result
		f.CompletedAt = &at
		return &f, nil
	})
}

// CountUpcoming — размер пула предстоящих матчей.
func (r *Repository) CountUpcoming(ctx context.Context) (int, error) {
	return r.fixtures.CountDocuments(ctx, store.Filter{store.Eq("status", FixtureUpcoming)})
}

// --- Купоны ---

// Slip возвращает купон пользователя (пустой, если его нет).
func (r *Repository) Slip(ctx context.Context, userID string) (*Slip, error) {
	var s Slip
	err := r.slips.FindByID(ctx, userID, &s)
	if errors.Is(err, common.ErrNoDocuments) {
		return &Slip{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSlip сохраняет купон целиком.
func (r *Repository) SaveSlip(ctx context.Context, s *Slip) error {
	s.UpdatedAt = time.Now()
	return r.slips.UpsertOne(ctx, s.UserID, s)
}

// DeleteSlip удаляет купон (после размещения или очистки).
func (r *Repository) DeleteSlip(ctx context.Context, userID string) error {
	return r.slips.DeleteOne(ctx, userID)
}

// SlipByShareCode ищет купон по коду обмена.
func (r *Repository) SlipByShareCode(ctx context.Context, code string) (*Slip, error) {
	var s Slip
	err := r.slips.FindOne(ctx, store.Filter{store.Eq("shareCode", code)}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// --- Экспрессы ---

// InsertTicket сохраняет размещённый экспресс.
func (r *Repository) InsertTicket(ctx context.Context, t *Ticket) error {
	return r.tickets.InsertOne(ctx, t.ID, t)
}

// PendingTickets — все нерассчитанные экспрессы.
func (r *Repository) PendingTickets(ctx context.Context) ([]Ticket, error) {
	var out []Ticket
	err := r.tickets.Find(ctx,
		store.Filter{store.Eq("status", TicketPending)}, nil, &out)
	return out, err
}

// TicketsByUser — экспрессы пользователя, свежие сверху.
func (r *Repository) TicketsByUser(ctx context.Context, userID string, limit int) ([]Ticket, error) {
	var out []Ticket
	err := r.tickets.Find(ctx,
		store.Filter{store.Eq("userId", userID)},
		&store.FindOptions{SortField: "placedAt", SortDesc: true, Limit: limit},
		&out)
	return out, err
}

// SettleTicket помечает экспресс выигранным или проигранным ровно один
// раз. Уже рассчитанный возвращает errAlreadySettled — выплату повторять
// нельзя.
func (r *Repository) SettleTicket(ctx context.Context, ticketID, status string, at time.Time) error {
	return r.tickets.Mutate(ctx, ticketID, func(raw []byte) (any, error) {
		var t Ticket
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		if t.Status != TicketPending {
			return nil, errAlreadySettled
		}
		t.Status = status
		t.SettledAt = &at
		return &t, nil
	})
}

// --- Команды ---

func teamDocID(league, name string) string { return league + "/" + name }

// AllTeams — все команды лиги.
func (r *Repository) AllTeams(ctx context.Context, league string) ([]Team, error) {
	var out []Team
	err := r.teams.Find(ctx, store.Filter{store.Eq("league", league)}, nil, &out)
	return out, err
}

// SeedTeam записывает команду, если её ещё нет.
func (r *Repository) SeedTeam(ctx context.Context, league string, t Team) error {
	err := r.teams.InsertOne(ctx, teamDocID(league, t.Name),
		map[string]any{"league": league, "name": t.Name, "strength": t.Strength, "form": t.Form})
	if errors.Is(err, common.ErrDuplicateKey) {
		return nil
	}
	return err
}

// UpdateTeamForm сдвигает форму команды с клампом в [0, 100].
func (r *Repository) UpdateTeamForm(ctx context.Context, league, name string, delta int) error {
	return r.teams.Mutate(ctx, teamDocID(league, name), func(raw []byte) (any, error) {
		var doc struct {
			League   string `json:"league"`
			Name     string `json:"name"`
			Strength int    `json:"strength"`
			Form     int    `json:"form"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		doc.Form = scoring.ClampForm(doc.Form + delta)
		return doc, nil
	})
}
