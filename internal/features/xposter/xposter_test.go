package xposter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountDue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	acc := &Account{Enabled: true, IntervalMinutes: 30, LastRunAt: now.Add(-31 * time.Minute)}

	assert.True(t, acc.Due(now))

	acc.LastRunAt = now.Add(-29 * time.Minute)
	assert.False(t, acc.Due(now))

	// Ровно на границе — пора
	acc.LastRunAt = now.Add(-30 * time.Minute)
	assert.True(t, acc.Due(now))

	acc.Enabled = false
	assert.False(t, acc.Due(now))

	// Новый аккаунт (нулевой lastRunAt) опрашивается сразу
	fresh := &Account{Enabled: true, IntervalMinutes: 30}
	assert.True(t, fresh.Due(now))
}

func TestRenderTemplate(t *testing.T) {
	msk := time.FixedZone("MSK", 3*3600)
	tw := &Tweet{
		ID:        "1801234567890",
		Text:      "Запуск прошёл успешно! #space #запуск",
		Author:    "nasa",
		CreatedAt: time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
		Likes:     1500,
		Retweets:  300,
		Replies:   42,
	}

	got := RenderTemplate("{author}|{id}|{likes}|{retweets}|{reply_count}|{created_at}|{hashtags}", tw, msk)
	assert.Equal(t, "nasa|1801234567890|1500|300|42|01.06.2025 12:30|#space #запуск", got)

	got = RenderTemplate(DefaultTemplate, tw, msk)
	assert.Contains(t, got, "@nasa")
	assert.Contains(t, got, "Запуск прошёл успешно!")
	assert.Contains(t, got, "https://x.com/nasa/status/1801234567890")
}

func TestTweetHashtags(t *testing.T) {
	tw := &Tweet{Text: "без хештегов"}
	assert.Equal(t, "", tw.Hashtags())

	tw.Text = "а тут #один и #ещё_один"
	assert.Equal(t, "#один #ещё_один", tw.Hashtags())
}

func TestTweetIDLess(t *testing.T) {
	assert.True(t, tweetIDLess("99", "100"))
	assert.True(t, tweetIDLess("100", "101"))
	assert.False(t, tweetIDLess("101", "100"))
	assert.False(t, tweetIDLess("100", "100"))
}

func TestSecretRoundTrip(t *testing.T) {
	encoded := hashSecret("моя-секретная-строка")
	require.NotEmpty(t, encoded)

	assert.True(t, verifySecret("моя-секретная-строка", encoded))
	assert.False(t, verifySecret("чужая-строка", encoded))
	assert.False(t, verifySecret("моя-секретная-строка", "не-хеш"))
}

func TestClientUserIDByUsername(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/users/by/username/nasa", r.URL.Path)
		assert.Equal(t, "Bearer token123", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":{"id":"11348282","name":"NASA","username":"NASA"}}`))
	}))
	defer srv.Close()

	c := &Client{base: srv.URL, http: srv.Client()}
	id, err := c.UserIDByUsername(context.Background(), "token123", "nasa")
	require.NoError(t, err)
	assert.Equal(t, "11348282", id)
}

func TestClientTweetsSince(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/users/11348282/tweets", r.URL.Path)
		assert.Equal(t, "1000", r.URL.Query().Get("since_id"))
		w.Write([]byte(`{
			"data": [
				{"id":"1002","text":"второй #tag","created_at":"2025-06-01T10:00:00Z",
				 "public_metrics":{"like_count":5,"retweet_count":1,"reply_count":0},
				 "attachments":{"media_keys":["3_777"]}},
				{"id":"1001","text":"первый","created_at":"2025-06-01T09:00:00Z",
				 "public_metrics":{"like_count":2,"retweet_count":0,"reply_count":1}}
			],
			"includes":{"media":[{"media_key":"3_777","type":"photo","url":"https://pbs.example/img.jpg"}]}
		}`))
	}))
	defer srv.Close()

	c := &Client{base: srv.URL, http: srv.Client()}
	tweets, err := c.TweetsSince(context.Background(), "tok", "11348282", "nasa", "1000")
	require.NoError(t, err)
	require.Len(t, tweets, 2)

	// По возрастанию id
	assert.Equal(t, "1001", tweets[0].ID)
	assert.Equal(t, "1002", tweets[1].ID)
	assert.Equal(t, "nasa", tweets[0].Author)
	assert.Equal(t, 5, tweets[1].Likes)
	assert.Equal(t, []string{"https://pbs.example/img.jpg"}, tweets[1].MediaURLs)
	assert.Empty(t, tweets[0].MediaURLs)
}

func TestClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := &Client{base: srv.URL, http: srv.Client()}
	_, err := c.UserIDByUsername(context.Background(), "tok", "nasa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "лимит")
}
