// simulator.go — движок матчей: по тику доигрывает наступившие матчи,
// рассчитывает экспрессы и пополняет пул предстоящих игр.
package betting

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"serotonyl.ru/whatsapp-bot/internal/plugin"
	"serotonyl.ru/whatsapp-bot/internal/scoring"
	"serotonyl.ru/whatsapp-bot/internal/users"
)

// Simulator выполняет один тик движка матчей.
type Simulator struct {
	repo  *Repository
	users *users.Manager
	floor int // минимум предстоящих матчей в пуле
	rng   *rand.Rand
	now   func() time.Time
}

// NewSimulator создаёт движок со своим генератором случайности.
func NewSimulator(repo *Repository, um *users.Manager, floor int) *Simulator {
	return &Simulator{
		repo:  repo,
		users: um,
		floor: floor,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:   time.Now,
	}
}

// Tick — один проход: доиграть, рассчитать, пополнить.
// Ошибка одного матча не останавливает остальные.
func (s *Simulator) Tick(ctx context.Context, tc *plugin.TaskContext) error {
	if err := s.seedTeams(ctx); err != nil {
		return fmt.Errorf("посев команд: %w", err)
	}

	completed, err := s.completeDue(ctx, tc)
	if err != nil {
		return err
	}
	if completed > 0 {
		if err := s.settlePending(ctx, tc); err != nil {
			return err
		}
	}
	return s.replenish(ctx, tc)
}

// seedTeams заполняет коллекцию команд при первом запуске.
func (s *Simulator) seedTeams(ctx context.Context) error {
	for league, teams := range defaultLeagues {
		for _, t := range teams {
			if err := s.repo.SeedTeam(ctx, league, t); err != nil {
				return err
			}
		}
	}
	return nil
}

// completeDue доигрывает матчи с наступившим временем начала.
func (s *Simulator) completeDue(ctx context.Context, tc *plugin.TaskContext) (int, error) {
	due, err := s.repo.DueFixtures(ctx, s.now())
	if err != nil {
		return 0, err
	}

	completed := 0
	for i := range due {
		f := &due[i]
		result := scoring.SimulateMatch(s.rng, f.Odds)

		err := s.repo.CompleteFixture(ctx, f.MatchID, &result, s.now())
		if err == errAlreadySettled {
			continue // параллельный тик успел раньше
		}
		if err != nil {
			tc.Log.WithError(err).WithField("match", f.MatchID).Error("Матч не доигрался")
			continue
		}
		completed++

		tc.Log.WithFields(map[string]any{
			"match": f.MatchID,
			"score": fmt.Sprintf("%d:%d", result.HomeGoals, result.AwayGoals),
		}).Info("Матч сыгран")

		s.applyFormDeltas(ctx, tc, f, &result)
	}
	return completed, nil
}

// applyFormDeltas двигает форму обеих команд по результату.
func (s *Simulator) applyFormDeltas(ctx context.Context, tc *plugin.TaskContext, f *Fixture, res *scoring.MatchResult) {
	drew := res.Outcome == scoring.OutcomeDraw
	homeDelta := scoring.FormDelta(res.Outcome == scoring.OutcomeHomeWin, drew)
	awayDelta := scoring.FormDelta(res.Outcome == scoring.OutcomeAwayWin, drew)

	if err := s.repo.UpdateTeamForm(ctx, f.League, f.Home.Name, homeDelta); err != nil {
		tc.Log.WithError(err).WithField("team", f.Home.Name).Warn("Форма не обновилась")
	}
	if err := s.repo.UpdateTeamForm(ctx, f.League, f.Away.Name, awayDelta); err != nil {
		tc.Log.WithError(err).WithField("team", f.Away.Name).Warn("Форма не обновилась")
	}
}

// settlePending рассчитывает экспрессы, все матчи которых сыграны.
// Расчёт идемпотентен: уже нерassчитанный тикет пропускается на
// уровне репозитория, выплата не задваивается.
func (s *Simulator) settlePending(ctx context.Context, tc *plugin.TaskContext) error {
	pending, err := s.repo.PendingTickets(ctx)
	if err != nil {
		return err
	}

	// Кэш результатов, чтобы не перечитывать один матч на каждый тикет
	results := make(map[int64]*scoring.MatchResult)

	for i := range pending {
		t := &pending[i]

		for _, matchID := range t.MatchIDs() {
			if _, seen := results[matchID]; seen {
				continue
			}
			f, err := s.repo.FixtureByMatchID(ctx, matchID)
			if err != nil {
				tc.Log.WithError(err).WithField("match", matchID).Error("Матч тикета не найден")
				results[matchID] = nil
				continue
			}
			if f.Status == FixtureCompleted {
				results[matchID] = f.Result
			} else {
				results[matchID] = nil
			}
		}

		won, complete := EvaluateTicket(t.Selections, results)
		if !complete {
			continue
		}

		status := TicketLost
		if won {
			status = TicketWon
		}
		err := s.repo.SettleTicket(ctx, t.ID, status, s.now())
		if err == errAlreadySettled {
			continue
		}
		if err != nil {
			tc.Log.WithError(err).WithField("ticket", t.ID).Error("Тикет не рассчитался")
			continue
		}

		if won {
			if _, err := s.users.AddMoney(ctx, t.UserID, t.PotentialPayout, users.ReasonBetPayout); err != nil {
				tc.Log.WithError(err).WithFields(map[string]any{
					"ticket": t.ID,
					"user":   t.UserID,
				}).Error("Выплата по тикету не прошла")
				continue
			}
		}

		tc.Log.WithFields(map[string]any{
			"ticket": t.ID,
			"status": status,
			"payout": t.PotentialPayout,
		}).Info("Экспресс рассчитан")
	}
	return nil
}

// replenish доливает пул предстоящих матчей до порога,
// используя только свободные команды.
func (s *Simulator) replenish(ctx context.Context, tc *plugin.TaskContext) error {
	n, err := s.repo.CountUpcoming(ctx)
	if err != nil {
		return err
	}
	if n >= s.floor {
		return nil
	}

	upcoming, err := s.repo.UpcomingFixtures(ctx, 0)
	if err != nil {
		return err
	}
	busy := busyTeams(upcoming)

	need := s.floor - n
	leagues := make([]string, 0, len(defaultLeagues))
	for league := range defaultLeagues {
		leagues = append(leagues, league)
	}
	sort.Strings(leagues)

	for _, league := range leagues {
		if need == 0 {
			break
		}
		teams, err := s.repo.AllTeams(ctx, league)
		if err != nil {
			return err
		}
		free := make([]Team, 0, len(teams))
		for _, t := range teams {
			if !busy[league+"/"+t.Name] {
				free = append(free, t)
			}
		}
		s.rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })

		for len(free) >= 2 && need > 0 {
			home, away := free[0], free[1]
			free = free[2:]
			busy[league+"/"+home.Name] = true
			busy[league+"/"+away.Name] = true

			if err := s.createFixture(ctx, tc, league, home, away); err != nil {
				return err
			}
			need--
		}
	}
	return nil
}

// busyTeams — занятые в предстоящих матчах команды ("лига/имя").
func busyTeams(upcoming []Fixture) map[string]bool {
	busy := make(map[string]bool, len(upcoming)*2)
	for _, f := range upcoming {
		busy[f.League+"/"+f.Home.Name] = true
		busy[f.League+"/"+f.Away.Name] = true
	}
	return busy
}

// createFixture генерирует матч со случайным началом в ближайшие 1–72 часа.
func (s *Simulator) createFixture(ctx context.Context, tc *plugin.TaskContext, league string, home, away Team) error {
	matchID, err := s.repo.NextMatchID(ctx)
	if err != nil {
		return err
	}

	kickoff := s.now().Add(time.Hour + time.Duration(s.rng.Int63n(int64(71*time.Hour))))
	f := &Fixture{
		MatchID:   matchID,
		League:    league,
		Home:      home,
		Away:      away,
		Odds:      scoring.ComputeOdds(s.rng, home.Strength, away.Strength, home.Form, away.Form),
		Kickoff:   kickoff,
		Status:    FixtureUpcoming,
		CreatedAt: s.now(),
	}
	if err := s.repo.InsertFixture(ctx, f); err != nil {
		return err
	}

	tc.Log.WithFields(map[string]any{
		"match":   matchID,
		"league":  league,
		"title":   f.Title(),
		"kickoff": kickoff.Format(time.RFC3339),
	}).Debug("Матч создан")
	return nil
}
