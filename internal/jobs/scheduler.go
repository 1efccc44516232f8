// Package jobs управляет фоновыми задачами плагинов (cron).
// scheduler.go регистрирует задачи из дескрипторов плагинов и
// гарантирует не более одного одновременного запуска на задачу.
package jobs

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/whatsapp-bot/internal/plugin"
	"serotonyl.ru/whatsapp-bot/internal/store"
)

// runRecord — запись о запуске задачи в коллекции task_runs.
// Хранится по одной на (плагин, задача), перезаписывается каждый запуск.
type runRecord struct {
	Plugin     string    `json:"plugin"`
	Task       string    `json:"task"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
}

// Scheduler управляет фоновыми задачами всех плагинов.
type Scheduler struct {
	cron *cron.Cron
	tc   *plugin.TaskContext
	runs *store.Collection

	mu      sync.Mutex
	running map[string]bool // "plugin/task" → выполняется сейчас
}

// NewScheduler создаёт планировщик в часовом поясе приложения.
func NewScheduler(tc *plugin.TaskContext) *Scheduler {
	loc := tc.Config.Location()

	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		tc:      tc,
		running: make(map[string]bool),
	}
}

// Register подключает все задачи плагина к расписанию.
// Задача с невалидным cron-выражением пропускается с ошибкой в лог,
// остальные задачи плагина регистрируются дальше.
func (s *Scheduler) Register(p *plugin.Plugin) {
	for _, t := range p.Tasks {
		task := t // копия для замыкания
		key := p.Name + "/" + task.Name

		_, err := s.cron.AddFunc(task.Cron, func() {
			s.runTask(key, p.Name, task)
		})
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"plugin": p.Name,
				"task":   task.Name,
				"cron":   task.Cron,
			}).Error("Невалидное cron-выражение, задача не зарегистрирована")
			continue
		}

		log.WithFields(log.Fields{
			"plugin": p.Name,
			"task":   task.Name,
			"cron":   task.Cron,
		}).Info("Фоновая задача зарегистрирована")
	}
}

// runTask выполняет один запуск задачи с защитой от наложения.
func (s *Scheduler) runTask(key, pluginName string, task plugin.Task) {
	s.mu.Lock()
	if s.running[key] {
		s.mu.Unlock()
		log.WithField("task", key).Warn("[CRON] Предыдущий запуск ещё выполняется, пропуск")
		return
	}
	s.running[key] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.running, key)
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	started := time.Now()
	log.WithField("task", key).Info("[CRON] Запуск задачи")

	err := s.safeRun(ctx, task)
	if err != nil {
		log.WithError(err).WithField("task", key).Error("[CRON] Задача завершилась с ошибкой")
	} else {
		log.WithFields(log.Fields{
			"task":     key,
			"duration": time.Since(started).Round(time.Millisecond),
		}).Info("[CRON] Задача выполнена")
	}

	s.recordRun(ctx, key, pluginName, task.Name, started, err)
}

// safeRun вызывает обработчик задачи, превращая панику в ошибку.
func (s *Scheduler) safeRun(ctx context.Context, task plugin.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"task":  task.Name,
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("[CRON] Паника в фоновой задаче")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return task.Handler(ctx, s.tc)
}

// recordRun пишет итог запуска в коллекцию task_runs.
func (s *Scheduler) recordRun(ctx context.Context, key, pluginName, taskName string, started time.Time, runErr error) {
	if s.tc.Store == nil {
		return
	}
	if s.runs == nil {
		col, err := s.tc.Store.Collection(ctx, "task_runs")
		if err != nil {
			log.WithError(err).Warn("[CRON] Коллекция task_runs недоступна")
			return
		}
		s.runs = col
	}

	rec := runRecord{
		Plugin:     pluginName,
		Task:       taskName,
		StartedAt:  started,
		FinishedAt: time.Now(),
		OK:         runErr == nil,
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if err := s.runs.UpsertOne(ctx, key, rec); err != nil {
		log.WithError(err).WithField("task", key).Warn("[CRON] Не удалось записать итог запуска")
	}
}

// Start запускает расписание.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.WithField("tz", s.tc.Config.AppTimezone).Info("Планировщик задач запущен")
}

// Stop останавливает планировщик и дожидается завершения текущих запусков.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
