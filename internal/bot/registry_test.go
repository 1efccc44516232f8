package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/whatsapp-bot/internal/common"
	"serotonyl.ru/whatsapp-bot/internal/plugin"
)

func noopRun(context.Context, *plugin.Context) error { return nil }

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&plugin.Plugin{
		Name:     "betting",
		Commands: []string{"bet"},
		Aliases:  map[string]string{"ставка": "bet"},
		Run:      noopRun,
	}))

	p, cmd, ok := r.Resolve("BET")
	require.True(t, ok)
	assert.Equal(t, "betting", p.Name)
	assert.Equal(t, "bet", cmd)

	// Алиас ведёт к основной команде
	p, cmd, ok = r.Resolve("ставка")
	require.True(t, ok)
	assert.Equal(t, "betting", p.Name)
	assert.Equal(t, "bet", cmd)

	_, _, ok = r.Resolve("nope")
	assert.False(t, ok)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&plugin.Plugin{
		Name: "a", Commands: []string{"bet"}, Run: noopRun,
	}))

	err := r.Register(&plugin.Plugin{
		Name: "b", Commands: []string{"Bet"}, Run: noopRun,
	})
	assert.ErrorIs(t, err, common.ErrDuplicateCommand)

	err = r.Register(&plugin.Plugin{
		Name: "c", Commands: []string{"other"},
		Aliases: map[string]string{"bet": "other"}, Run: noopRun,
	})
	assert.ErrorIs(t, err, common.ErrDuplicateCommand)
}

func TestRegistryRejectsInvalid(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(&plugin.Plugin{Commands: []string{"x"}, Run: noopRun}))
	assert.Error(t, r.Register(&plugin.Plugin{Name: "x", Commands: []string{"x"}}))
}

func TestFreeTextPluginsOrder(t *testing.T) {
	r := NewRegistry()
	hook := func(context.Context, *plugin.Context) (bool, error) { return false, nil }
	require.NoError(t, r.Register(&plugin.Plugin{Name: "a", Commands: []string{"a"}, Run: noopRun, FreeText: hook}))
	require.NoError(t, r.Register(&plugin.Plugin{Name: "b", Commands: []string{"b"}, Run: noopRun}))
	require.NoError(t, r.Register(&plugin.Plugin{Name: "c", Commands: []string{"c"}, Run: noopRun, FreeText: hook}))

	fts := r.FreeTextPlugins()
	require.Len(t, fts, 2)
	assert.Equal(t, "a", fts[0].Name)
	assert.Equal(t, "c", fts[1].Name)
}
