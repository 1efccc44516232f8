// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- WhatsApp ---
	// JID владельца бота (формат 7900xxxxxxx@s.whatsapp.net)
	OwnerJID string `envconfig:"OWNER_JID" required:"true"`
	// JIDы админов через запятую
	AdminJIDsRaw string   `envconfig:"ADMIN_JIDS" default:""`
	AdminJIDs    []string `envconfig:"-"` // заполним вручную
	// Префиксы команд. Первый — основной, показывается в help.
	CommandPrefixes string `envconfig:"COMMAND_PREFIXES" default:".!/"`
	// ID группового чата, в котором бот работает (пусто = все группы)
	GroupJID string `envconfig:"GROUP_JID" default:""`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"whatsapp_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`

	// --- Bot runtime ---
	// Сколько сообщений обрабатываем параллельно. Иначе "go на каждое сообщение" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`

	// --- Admin ---
	// Argon2id-хеш пароля владельца (scripts/generate_hash.go)
	OwnerPasswordHash string `envconfig:"OWNER_PASSWORD_HASH" default:""`

	// --- Economy ---
	EconomyStartingBalance int64         `envconfig:"ECONOMY_STARTING_BALANCE" default:"1000"`
	EconomyCurrencyName    string        `envconfig:"ECONOMY_CURRENCY_NAME" default:"монеты"`
	EconomyDailyBase       int64         `envconfig:"ECONOMY_DAILY_BASE" default:"500"`
	EconomyWorkCooldown    time.Duration `envconfig:"ECONOMY_WORK_COOLDOWN" default:"1h"`

	// --- Attendance ---
	AttendanceBaseReward  int64   `envconfig:"ATTENDANCE_BASE_REWARD" default:"500"`
	AttendanceImageBonus  int64   `envconfig:"ATTENDANCE_IMAGE_BONUS" default:"200"`
	AttendanceStreakMin   int     `envconfig:"ATTENDANCE_STREAK_MIN" default:"3"`
	AttendanceStreakMulti float64 `envconfig:"ATTENDANCE_STREAK_MULTI" default:"1.5"`

	// --- Quiz ---
	QuizReward int64 `envconfig:"QUIZ_REWARD" default:"300"`

	// --- Betting ---
	BettingFixtureFloor int   `envconfig:"BETTING_FIXTURE_FLOOR" default:"15"`
	BettingMinStake     int64 `envconfig:"BETTING_MIN_STAKE" default:"10"`
	BettingMaxStake     int64 `envconfig:"BETTING_MAX_STAKE" default:"100000"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"3"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"10s"`

	// --- Selection context ---
	SelectionTTL time.Duration `envconfig:"SELECTION_TTL" default:"30m"`

	// --- AutoPoster webhook ---
	WebhookEnabled bool   `envconfig:"WEBHOOK_ENABLED" default:"true"`
	WebhookAddr    string `envconfig:"WEBHOOK_ADDR" default:":8090"`

	// --- Feature Flags ---
	FeatureBettingEnabled    bool `envconfig:"FEATURE_BETTING_ENABLED" default:"true"`
	FeatureClubEnabled       bool `envconfig:"FEATURE_CLUB_ENABLED" default:"true"`
	FeatureFarmEnabled       bool `envconfig:"FEATURE_FARM_ENABLED" default:"true"`
	FeatureQuizEnabled       bool `envconfig:"FEATURE_QUIZ_ENABLED" default:"true"`
	FeatureAttendanceEnabled bool `envconfig:"FEATURE_ATTENDANCE_ENABLED" default:"true"`
	FeatureXPosterEnabled    bool `envconfig:"FEATURE_XPOSTER_ENABLED" default:"false"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Prefixes возвращает префиксы команд по одному символу.
func (c *Config) Prefixes() []string {
	out := make([]string, 0, len(c.CommandPrefixes))
	for _, r := range c.CommandPrefixes {
		out = append(out, string(r))
	}
	return out
}

// Location возвращает часовой пояс приложения.
// Если загрузить не удалось — UTC+3 вручную.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.OwnerJID) == "" {
		return fmt.Errorf("OWNER_JID не задан")
	}
	if len(c.CommandPrefixes) == 0 {
		return fmt.Errorf("COMMAND_PREFIXES пуст")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("некорректные настройки rate limit")
	}
	if c.BettingFixtureFloor <= 0 {
		return fmt.Errorf("BETTING_FIXTURE_FLOOR должен быть > 0")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	cfg.AdminJIDs = parseCSV(cfg.AdminJIDsRaw)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseCSV(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
