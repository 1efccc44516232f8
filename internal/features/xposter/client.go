package xposter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"
)

const defaultAPIBase = "https://api.twitter.com"

// Максимальный размер скачиваемого медиа — 16 МБ (лимит WhatsApp).
const maxMediaBytes = 16 << 20

// Client — минимальный клиент X API v2: резолв пользователя,
// лента с указанного id, скачивание медиа.
type Client struct {
	base string
	http *http.Client
}

// NewClient создаёт клиент с разумными таймаутами.
func NewClient() *Client {
	return &Client{
		base: defaultAPIBase,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// UserIDByUsername резолвит числовой id по username.
// GET /2/users/by/username/{username}
func (c *Client) UserIDByUsername(ctx context.Context, token, username string) (string, error) {
	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
		Errors []apiError `json:"errors"`
	}
	u := c.base + "/2/users/by/username/" + url.PathEscape(username)
	if err := c.getJSON(ctx, token, u, &out); err != nil {
		return "", err
	}
	if out.Data.ID == "" {
		if len(out.Errors) > 0 {
			return "", fmt.Errorf("x api: %s", out.Errors[0].Detail)
		}
		return "", fmt.Errorf("x api: пользователь %s не найден", username)
	}
	return out.Data.ID, nil
}

// TweetsSince возвращает посты пользователя новее sinceID,
// отсортированные по возрастанию id. Ретвиты и ответы исключены.
func (c *Client) TweetsSince(ctx context.Context, token, userID, username, sinceID string) ([]*Tweet, error) {
	q := url.Values{}
	q.Set("max_results", "10")
	q.Set("exclude", "retweets,replies")
	q.Set("tweet.fields", "created_at,public_metrics,attachments")
	q.Set("expansions", "attachments.media_keys")
	q.Set("media.fields", "url,type,preview_image_url")
	if sinceID != "" {
		q.Set("since_id", sinceID)
	}

	var out struct {
		Data []struct {
			ID            string    `json:"id"`
			Text          string    `json:"text"`
			CreatedAt     time.Time `json:"created_at"`
			PublicMetrics struct {
				Likes    int `json:"like_count"`
				Retweets int `json:"retweet_count"`
				Replies  int `json:"reply_count"`
			} `json:"public_metrics"`
			Attachments struct {
				MediaKeys []string `json:"media_keys"`
			} `json:"attachments"`
		} `json:"data"`
		Includes struct {
			Media []struct {
				MediaKey        string `json:"media_key"`
				Type            string `json:"type"`
				URL             string `json:"url"`
				PreviewImageURL string `json:"preview_image_url"`
			} `json:"media"`
		} `json:"includes"`
		Errors []apiError `json:"errors"`
	}
	u := c.base + "/2/users/" + url.PathEscape(userID) + "/tweets?" + q.Encode()
	if err := c.getJSON(ctx, token, u, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 && len(out.Errors) > 0 {
		return nil, fmt.Errorf("x api: %s", out.Errors[0].Detail)
	}

	mediaByKey := make(map[string]string, len(out.Includes.Media))
	for _, m := range out.Includes.Media {
		switch {
		case m.URL != "":
			mediaByKey[m.MediaKey] = m.URL
		case m.PreviewImageURL != "":
			// у видео прямой ссылки нет, шлём превью
			mediaByKey[m.MediaKey] = m.PreviewImageURL
		}
	}

	tweets := make([]*Tweet, 0, len(out.Data))
	for _, d := range out.Data {
		t := &Tweet{
			ID:        d.ID,
			Text:      d.Text,
			Author:    username,
			CreatedAt: d.CreatedAt,
			Likes:     d.PublicMetrics.Likes,
			Retweets:  d.PublicMetrics.Retweets,
			Replies:   d.PublicMetrics.Replies,
		}
		for _, key := range d.Attachments.MediaKeys {
			if u, ok := mediaByKey[key]; ok {
				t.MediaURLs = append(t.MediaURLs, u)
			}
		}
		tweets = append(tweets, t)
	}
	sort.Slice(tweets, func(i, j int) bool { return tweetIDLess(tweets[i].ID, tweets[j].ID) })
	return tweets, nil
}

// DownloadMedia скачивает вложение поста.
func (c *Client) DownloadMedia(ctx context.Context, mediaURL string) (data []byte, mime string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("скачивание медиа: статус %d", resp.StatusCode)
	}
	data, err = io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) getJSON(ctx context.Context, token, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("x api: превышен лимит запросов")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("x api: статус %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
