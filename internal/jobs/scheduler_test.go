package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"serotonyl.ru/whatsapp-bot/internal/config"
	"serotonyl.ru/whatsapp-bot/internal/plugin"
)

func testScheduler() *Scheduler {
	return NewScheduler(&plugin.TaskContext{
		Config: &config.Config{AppTimezone: "Europe/Moscow"},
	})
}

func TestRunTaskSkipsOverlap(t *testing.T) {
	s := testScheduler()

	var runs int32
	entered := make(chan struct{})
	release := make(chan struct{})

	task := plugin.Task{
		Name: "slow",
		Handler: func(context.Context, *plugin.TaskContext) error {
			atomic.AddInt32(&runs, 1)
			close(entered)
			<-release
			return nil
		},
	}

	done := make(chan struct{})
	go func() {
		s.runTask("demo/slow", "demo", task)
		close(done)
	}()
	<-entered

	// Пока первый запуск висит, второй должен быть пропущен
	s.runTask("demo/slow", "demo", task)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))

	close(release)
	<-done

	// После завершения задача снова доступна
	released := plugin.Task{
		Name: "slow",
		Handler: func(context.Context, *plugin.TaskContext) error {
			atomic.AddInt32(&runs, 1)
			return nil
		},
	}
	s.runTask("demo/slow", "demo", released)
	assert.Equal(t, int32(2), atomic.LoadInt32(&runs))
}

func TestRunTaskRecoversPanic(t *testing.T) {
	s := testScheduler()

	task := plugin.Task{
		Name: "bad",
		Handler: func(context.Context, *plugin.TaskContext) error {
			panic("взрыв")
		},
	}

	assert.NotPanics(t, func() {
		s.runTask("demo/bad", "demo", task)
	})

	// Ключ освобождён, новый запуск возможен
	ran := false
	ok := plugin.Task{
		Name: "bad",
		Handler: func(context.Context, *plugin.TaskContext) error {
			ran = true
			return nil
		},
	}
	s.runTask("demo/bad", "demo", ok)
	assert.True(t, ran)
}

func TestRegisterRejectsBadCron(t *testing.T) {
	s := testScheduler()

	s.Register(&plugin.Plugin{
		Name: "demo",
		Tasks: []plugin.Task{
			{Name: "broken", Cron: "это не крон",
				Handler: func(context.Context, *plugin.TaskContext) error { return nil }},
			{Name: "ok", Cron: "*/5 * * * *",
				Handler: func(context.Context, *plugin.TaskContext) error { return nil }},
		},
	})

	// Валидная задача зарегистрирована несмотря на сломанную соседку
	assert.Len(t, s.cron.Entries(), 1)
}

func TestSchedulerStartStop(t *testing.T) {
	s := testScheduler()
	s.Start()
	stopDone := make(chan struct{})
	go func() {
		s.Stop()
		close(stopDone)
	}()
	select {
	case <-stopDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop не завершился")
	}
}
