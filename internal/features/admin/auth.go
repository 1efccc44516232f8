// Package admin — баны, админ-начисления, глобальный множитель и
// авторизация владельца по паролю.
package admin

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"
)

const (
	maxAuthAttempts = 3
	attemptWindow   = time.Hour
	sessionTTL      = 24 * time.Hour
)

// authState — попытки и сессии авторизации (in-memory).
type authState struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	sessions map[string]time.Time // userID → истекает
	now      func() time.Time
}

func newAuthState() *authState {
	return &authState{
		attempts: make(map[string][]time.Time),
		sessions: make(map[string]time.Time),
		now:      time.Now,
	}
}

// throttled сообщает, исчерпал ли пользователь попытки за окно.
func (a *authState) throttled(userID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := a.now().Add(-attemptWindow)
	live := a.attempts[userID][:0]
	for _, t := range a.attempts[userID] {
		if t.After(cutoff) {
			live = append(live, t)
		}
	}
	a.attempts[userID] = live
	return len(live) >= maxAuthAttempts
}

func (a *authState) logAttempt(userID string) {
	a.mu.Lock()
	a.attempts[userID] = append(a.attempts[userID], a.now())
	a.mu.Unlock()
}

func (a *authState) openSession(userID string) {
	a.mu.Lock()
	a.sessions[userID] = a.now().Add(sessionTTL)
	a.mu.Unlock()
}

func (a *authState) hasSession(userID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	exp, ok := a.sessions[userID]
	return ok && a.now().Before(exp)
}

// verifyArgon2id проверяет пароль по хешу Argon2id.
// Формат хеша: $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		log.Error("Некорректный формат хеша Argon2id")
		return false
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}
	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хеша")
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Сравнение в постоянном времени (защита от timing attack)
	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1
}
