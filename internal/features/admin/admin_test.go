package admin

import (
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
)

func encodeArgon2id(password string, salt []byte, memory, iterations uint32, parallelism uint8) string {
	hash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, 32)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory, iterations, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash))
}

func TestVerifyArgon2id(t *testing.T) {
	salt := []byte("0123456789abcdef")
	encoded := encodeArgon2id("секрет123", salt, 65536, 3, 2)

	assert.True(t, verifyArgon2id("секрет123", encoded))
	assert.False(t, verifyArgon2id("секрет124", encoded))
	assert.False(t, verifyArgon2id("", encoded))
}

func TestVerifyArgon2idMalformed(t *testing.T) {
	assert.False(t, verifyArgon2id("pass", ""))
	assert.False(t, verifyArgon2id("pass", "plaintext"))
	assert.False(t, verifyArgon2id("pass", "$argon2id$v=19$m=65536,t=3,p=2$каша$тоже-каша"))
	assert.False(t, verifyArgon2id("pass", "$argon2id$v=19$bad-params$c2FsdA$aGFzaA"))
}

func TestAuthThrottle(t *testing.T) {
	a := newAuthState()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	const user = "79001234567@s.whatsapp.net"
	require.False(t, a.throttled(user))

	for i := 0; i < 3; i++ {
		a.logAttempt(user)
	}
	assert.True(t, a.throttled(user))

	// Другой пользователь не задет
	assert.False(t, a.throttled("79009999999@s.whatsapp.net"))

	// Через час окно очищается
	now = now.Add(61 * time.Minute)
	assert.False(t, a.throttled(user))
}

func TestAuthSession(t *testing.T) {
	a := newAuthState()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	const user = "79001234567@s.whatsapp.net"
	assert.False(t, a.hasSession(user))

	a.openSession(user)
	assert.True(t, a.hasSession(user))

	now = now.Add(23 * time.Hour)
	assert.True(t, a.hasSession(user))

	now = now.Add(2 * time.Hour)
	assert.False(t, a.hasSession(user))
}

func TestNormalizeJID(t *testing.T) {
	assert.Equal(t, "79001234567@s.whatsapp.net", normalizeJID("@79001234567"))
	assert.Equal(t, "79001234567@s.whatsapp.net", normalizeJID("79001234567@s.whatsapp.net"))
	assert.Equal(t, "79001234567", shortJID("79001234567@s.whatsapp.net"))
}
