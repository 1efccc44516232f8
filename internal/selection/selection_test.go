package selection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupBeforeAndAfterTTL(t *testing.T) {
	now := time.Now()
	s := NewStore(30 * time.Minute).WithClock(func() time.Time { return now })
	defer s.Close()

	called := 0
	s.Put("menu-1", "bet_fixtures", []string{"а", "б", "в"}, func(_ context.Context, choice int) error {
		called = choice
		return nil
	})

	// Через 29 минут меню ещё живо
	now = now.Add(29 * time.Minute)
	e, ok := s.Lookup("menu-1")
	require.True(t, ok)
	assert.Len(t, e.Options, 3)
	require.NoError(t, e.Handler(context.Background(), 2))
	assert.Equal(t, 2, called)

	// Через 31 минуту — нет
	now = now.Add(2 * time.Minute)
	_, ok = s.Lookup("menu-1")
	assert.False(t, ok)

	// И повторный Lookup тоже пуст (запись удалена лениво)
	_, ok = s.Lookup("menu-1")
	assert.False(t, ok)
}

func TestLookupUnknown(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()
	_, ok := s.Lookup("nope")
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()
	s.Put("m", "shop", []string{"x"}, func(context.Context, int) error { return nil })
	s.Delete("m")
	_, ok := s.Lookup("m")
	assert.False(t, ok)
}
