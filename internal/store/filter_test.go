package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJSONPath(t *testing.T) {
	assert.Equal(t, "doc #>> '{userId}'", jsonPath("userId"))
	assert.Equal(t, "doc #>> '{profile,city}'", jsonPath("profile.city"))
}

func TestFilterCompile(t *testing.T) {
	f := Filter{Eq("status", "upcoming"), Lte("kickoff", time.Unix(100, 0))}
	where, args := f.compile(0)

	assert.Equal(t,
		"doc #>> '{status}' = $1 AND (doc #>> '{kickoff}')::timestamptz <= $2",
		where)
	assert.Len(t, args, 2)
}

func TestFilterCompileEmpty(t *testing.T) {
	where, args := Filter{}.compile(0)
	assert.Equal(t, "TRUE", where)
	assert.Empty(t, args)
}

func TestFilterCompileNumericCast(t *testing.T) {
	where, args := Filter{Gt("matchId", 42)}.compile(2)
	assert.Equal(t, "(doc #>> '{matchId}')::numeric > $3", where)
	assert.Equal(t, []any{int64(42)}, args)
}

func TestFindOptionsOrderBy(t *testing.T) {
	var nilOpts *FindOptions
	assert.Equal(t, "", nilOpts.orderBy())
	assert.Equal(t, "", nilOpts.limit())

	opts := &FindOptions{SortField: "timestamp", SortDesc: true, Limit: 10}
	assert.Equal(t, " ORDER BY doc #>> '{timestamp}' DESC", opts.orderBy())
	assert.Equal(t, " LIMIT 10", opts.limit())

	num := &FindOptions{SortField: "matchId", SortNumeric: true}
	assert.Equal(t, " ORDER BY (doc #>> '{matchId}')::numeric ASC", num.orderBy())
}

func TestApplyPatch(t *testing.T) {
	doc := map[string]any{
		"wallet": int64(100),
		"profile": map[string]any{
			"city": "Москва",
		},
	}

	ApplyPatch(doc, map[string]any{
		"wallet":        int64(200),
		"profile.name":  "Вася",
		"streaks.daily": 3,
		"profile.city":  nil,
	})

	assert.Equal(t, int64(200), doc["wallet"])
	profile := doc["profile"].(map[string]any)
	assert.Equal(t, "Вася", profile["name"])
	_, cityLeft := profile["city"]
	assert.False(t, cityLeft)
	streaks := doc["streaks"].(map[string]any)
	assert.Equal(t, 3, streaks["daily"])
}
