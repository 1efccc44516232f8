// Package xposter — автопостер: опрашивает X (Twitter) по аккаунтам
// и пересылает новые посты в целевой чат по шаблону.
package xposter

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultTemplate используется, пока пользователь не задал свой.
const DefaultTemplate = "🐦 @{author}:\n\n{text}\n\n❤️ {likes} 🔁 {retweets}\n{url}"

// Account — документ коллекции xposter_accounts, id = username
// (в нижнем регистре, уникальный индекс).
type Account struct {
	Username        string    `json:"username"`
	UserID          string    `json:"userId,omitempty"` // резолвится и кешируется при первом опросе
	TargetChatID    string    `json:"targetChatId"`
	IntervalMinutes int       `json:"intervalMinutes"`
	Template        string    `json:"template"`
	BearerToken     string    `json:"bearerToken"`
	SecretHash      string    `json:"secretHash,omitempty"` // argon2id от вебхук-секрета
	LastRunAt       time.Time `json:"lastRunAt"`
	LastPostedID    string    `json:"lastPostedId,omitempty"`
	Enabled         bool      `json:"enabled"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Due сообщает, пора ли опрашивать аккаунт.
func (a *Account) Due(now time.Time) bool {
	if !a.Enabled {
		return false
	}
	return now.Sub(a.LastRunAt) >= time.Duration(a.IntervalMinutes)*time.Minute
}

// Tweet — нормализованный пост из X API v2.
type Tweet struct {
	ID        string
	Text      string
	Author    string
	CreatedAt time.Time
	Likes     int
	Retweets  int
	Replies   int
	MediaURLs []string
}

// URL возвращает постоянную ссылку на пост.
func (t *Tweet) URL() string {
	return "https://x.com/" + t.Author + "/status/" + t.ID
}

var reHashtag = regexp.MustCompile(`#[\p{L}\d_]+`)

// Hashtags извлекает хештеги из текста поста.
func (t *Tweet) Hashtags() string {
	return strings.Join(reHashtag.FindAllString(t.Text, -1), " ")
}

// RenderTemplate подставляет поля поста в пользовательский шаблон.
// Поддерживаются {text} {author} {created_at} {likes} {retweets}
// {reply_count} {url} {id} {hashtags}.
func RenderTemplate(tmpl string, t *Tweet, loc *time.Location) string {
	r := strings.NewReplacer(
		"{text}", t.Text,
		"{author}", t.Author,
		"{created_at}", t.CreatedAt.In(loc).Format("02.01.2006 15:04"),
		"{likes}", strconv.Itoa(t.Likes),
		"{retweets}", strconv.Itoa(t.Retweets),
		"{reply_count}", strconv.Itoa(t.Replies),
		"{url}", t.URL(),
		"{id}", t.ID,
		"{hashtags}", t.Hashtags(),
	)
	return r.Replace(tmpl)
}

// tweetIDLess сравнивает id постов как числа произвольной длины.
// Snowflake-id монотонны, поэтому порядок по значению = порядок во времени.
func tweetIDLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
