package xposter

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"serotonyl.ru/whatsapp-bot/internal/common"
	"serotonyl.ru/whatsapp-bot/internal/config"
	"serotonyl.ru/whatsapp-bot/internal/messenger"
	"serotonyl.ru/whatsapp-bot/internal/store"
)

const minIntervalMinutes = 5

var (
	ErrAccountNotFound = errors.New("аккаунт не найден")
	ErrAccountExists   = errors.New("аккаунт уже добавлен")
)

// Service — CRUD аккаунтов и цикл опроса.
type Service struct {
	accounts *store.Collection
	client   *Client
	cfg      *config.Config
	now      func() time.Time
}

// NewService открывает коллекцию xposter_accounts.
func NewService(ctx context.Context, st *store.Store, cfg *config.Config) (*Service, error) {
	accounts, err := st.Collection(ctx, "xposter_accounts")
	if err != nil {
		return nil, err
	}
	return &Service{accounts: accounts, client: NewClient(), cfg: cfg, now: time.Now}, nil
}

// AddParams — поля нового аккаунта (команда или вебхук).
type AddParams struct {
	Username        string `json:"username"`
	TargetChatID    string `json:"targetChatId"`
	IntervalMinutes int    `json:"intervalMinutes"`
	Template        string `json:"template"`
	BearerToken     string `json:"bearerToken"`
	Secret          string `json:"secret"`
}

// Add регистрирует аккаунт для опроса.
func (s *Service) Add(ctx context.Context, p AddParams) (*Account, error) {
	username := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(p.Username), "@"))
	if username == "" {
		return nil, fmt.Errorf("username обязателен")
	}
	if p.TargetChatID == "" {
		return nil, fmt.Errorf("targetChatId обязателен")
	}
	if p.BearerToken == "" {
		return nil, fmt.Errorf("bearerToken обязателен")
	}
	if p.IntervalMinutes < minIntervalMinutes {
		p.IntervalMinutes = minIntervalMinutes
	}
	if p.Template == "" {
		p.Template = DefaultTemplate
	}

	acc := &Account{
		Username:        username,
		TargetChatID:    p.TargetChatID,
		IntervalMinutes: p.IntervalMinutes,
		Template:        p.Template,
		BearerToken:     p.BearerToken,
		Enabled:         true,
		CreatedAt:       s.now(),
	}
	if p.Secret != "" {
		acc.SecretHash = hashSecret(p.Secret)
	}

	err := s.accounts.InsertOne(ctx, username, acc)
	if errors.Is(err, common.ErrDuplicateKey) {
		return nil, ErrAccountExists
	}
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// Get возвращает аккаунт по username.
func (s *Service) Get(ctx context.Context, username string) (*Account, error) {
	username = strings.ToLower(strings.TrimPrefix(username, "@"))
	var acc Account
	err := s.accounts.FindByID(ctx, username, &acc)
	if errors.Is(err, common.ErrNoDocuments) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// List возвращает все аккаунты.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	var accounts []Account
	opts := &store.FindOptions{SortField: "username"}
	if err := s.accounts.Find(ctx, nil, opts, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Remove удаляет аккаунт.
func (s *Service) Remove(ctx context.Context, username string) error {
	if _, err := s.Get(ctx, username); err != nil {
		return err
	}
	return s.accounts.DeleteOne(ctx, strings.ToLower(strings.TrimPrefix(username, "@")))
}

// Configure меняет отдельные поля аккаунта (dot-patch).
func (s *Service) Configure(ctx context.Context, username string, patch map[string]any) error {
	acc, err := s.Get(ctx, username)
	if err != nil {
		return err
	}
	return s.accounts.UpdateOne(ctx, acc.Username, patch)
}

// SetEnabled включает/выключает опрос аккаунта.
func (s *Service) SetEnabled(ctx context.Context, username string, enabled bool) error {
	return s.Configure(ctx, username, map[string]any{"enabled": enabled})
}

// PollAll опрашивает все аккаунты. Ошибка одного аккаунта
// логируется и не мешает остальным.
func (s *Service) PollAll(ctx context.Context, msgr messenger.Messenger, logger *log.Entry) {
	accounts, err := s.List(ctx)
	if err != nil {
		logger.WithError(err).Error("Не удалось прочитать аккаунты автопостера")
		return
	}

	now := s.now()
	for i := range accounts {
		acc := &accounts[i]
		if !acc.Due(now) {
			continue
		}
		if err := s.pollAccount(ctx, acc, msgr); err != nil {
			logger.WithError(err).WithField("account", acc.Username).Error("Опрос аккаунта не удался")
		}
	}
}

// pollAccount — один проход по аккаунту: резолв id, выборка новых
// постов, отправка, сдвиг курсора.
func (s *Service) pollAccount(ctx context.Context, acc *Account, msgr messenger.Messenger) error {
	if acc.UserID == "" {
		id, err := s.client.UserIDByUsername(ctx, acc.BearerToken, acc.Username)
		if err != nil {
			return err
		}
		acc.UserID = id
		if err := s.accounts.UpdateOne(ctx, acc.Username, map[string]any{"userId": id}); err != nil {
			return err
		}
	}

	tweets, err := s.client.TweetsSince(ctx, acc.BearerToken, acc.UserID, acc.Username, acc.LastPostedID)
	if err != nil {
		return err
	}

	lastPosted := acc.LastPostedID
	for _, t := range tweets {
		if err := s.deliver(ctx, acc, t, msgr); err != nil {
			break // курсор сдвигаем только на отправленное
		}
		lastPosted = t.ID
	}

	patch := map[string]any{"lastRunAt": s.now()}
	if lastPosted != acc.LastPostedID {
		patch["lastPostedId"] = lastPosted
	}
	return s.accounts.UpdateOne(ctx, acc.Username, patch)
}

// deliver отправляет один пост: первое медиа с подписью,
// остальные без, при отсутствии медиа — просто текст.
func (s *Service) deliver(ctx context.Context, acc *Account, t *Tweet, msgr messenger.Messenger) error {
	caption := RenderTemplate(acc.Template, t, s.cfg.Location())

	if len(t.MediaURLs) == 0 {
		_, err := msgr.SendText(ctx, acc.TargetChatID, caption)
		return err
	}

	for i, mediaURL := range t.MediaURLs {
		data, mime, err := s.client.DownloadMedia(ctx, mediaURL)
		if err != nil {
			return err
		}
		m := messenger.Media{Kind: messenger.MediaImage, Mime: mime, Data: data}
		if i == 0 {
			m.Caption = caption
		}
		if _, err := msgr.SendMedia(ctx, acc.TargetChatID, m); err != nil {
			return err
		}
	}
	return nil
}

// Test шлёт последний пост аккаунта немедленно, без сдвига курсора.
func (s *Service) Test(ctx context.Context, username string, msgr messenger.Messenger) error {
	acc, err := s.Get(ctx, username)
	if err != nil {
		return err
	}
	if acc.UserID == "" {
		acc.UserID, err = s.client.UserIDByUsername(ctx, acc.BearerToken, acc.Username)
		if err != nil {
			return err
		}
	}
	tweets, err := s.client.TweetsSince(ctx, acc.BearerToken, acc.UserID, acc.Username, "")
	if err != nil {
		return err
	}
	if len(tweets) == 0 {
		return fmt.Errorf("у @%s нет постов", acc.Username)
	}
	return s.deliver(ctx, acc, tweets[len(tweets)-1], msgr)
}

// VerifySecret сверяет вебхук-секрет аккаунта.
func (s *Service) VerifySecret(acc *Account, secret string) bool {
	if acc.SecretHash == "" {
		return true
	}
	return verifySecret(secret, acc.SecretHash)
}

// --- секреты вебхука (argon2id, упрощённый формат соль$хеш) ---

func hashSecret(secret string) string {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return ""
	}
	hash := argon2.IDKey([]byte(secret), salt, 1, 64*1024, 2, 32)
	return base64.RawStdEncoding.EncodeToString(salt) + "$" + base64.RawStdEncoding.EncodeToString(hash)
}

func verifySecret(secret, encoded string) bool {
	saltB64, hashB64, ok := strings.Cut(encoded, "$")
	if !ok {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(saltB64)
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(hashB64)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(secret), salt, 1, 64*1024, 2, uint32(len(expected)))
	return subtle.ConstantTimeCompare(got, expected) == 1
}
