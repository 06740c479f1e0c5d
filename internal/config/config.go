package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string

	DBDriver   string
	DBURL      string
	DBHost     string
	DBUser     string
	DBPass     string
	DBName     string
	DBPort     string
	SQLitePath string

	RedisURL string

	JWTSecret        string
	InternalAPIToken string

	NodeID int64

	Gamification GamificationConfig
	Leaderboard  LeaderboardConfig
}

type GamificationConfig struct {
	PointsPerLevel   int
	SymmetricUnlike  bool
	AchievementsFile string
}

type LeaderboardConfig struct {
	Limit            int
	RebuildOnRead    bool
	RebuildCron      string
	CacheTTL         time.Duration
	LockTTL          time.Duration
	HistoryCacheSize int
}

var defaults = map[string]any{
	"APP_ENV":                        "development",
	"PORT":                           "8080",
	"ALLOWED_ORIGINS":                "http://localhost:3000",
	"DB_DRIVER":                      "postgres",
	"DB_HOST":                        "localhost",
	"DB_USER":                        "postgres",
	"DB_NAME":                        "planetpulse",
	"DB_PORT":                        "5432",
	"SQLITE_PATH":                    "planetpulse.db",
	"JWT_SECRET":                     "",
	"INTERNAL_API_TOKEN":             "",
	"NODE_ID":                        1,
	"GAMIFICATION_POINTS_PER_LEVEL":  100,
	"GAMIFICATION_SYMMETRIC_UNLIKE":  false,
	"ACHIEVEMENTS_FILE":              "",
	"LEADERBOARD_LIMIT":              50,
	"LEADERBOARD_REBUILD_ON_READ":    true,
	"LEADERBOARD_REBUILD_CRON":       "@every 5m",
	"LEADERBOARD_CACHE_TTL":          "5m",
	"LEADERBOARD_LOCK_TTL":           "30s",
	"LEADERBOARD_HISTORY_CACHE_SIZE": 24,
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppEnv:         v.GetString("APP_ENV"),
		Port:           v.GetString("PORT"),
		AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),

		DBDriver:   v.GetString("DB_DRIVER"),
		DBURL:      v.GetString("DATABASE_URL"),
		DBHost:     v.GetString("DB_HOST"),
		DBUser:     v.GetString("DB_USER"),
		DBPass:     v.GetString("DB_PASS"),
		DBName:     v.GetString("DB_NAME"),
		DBPort:     v.GetString("DB_PORT"),
		SQLitePath: v.GetString("SQLITE_PATH"),

		RedisURL: v.GetString("REDIS_URL"),

		JWTSecret:        v.GetString("JWT_SECRET"),
		InternalAPIToken: v.GetString("INTERNAL_API_TOKEN"),

		NodeID: v.GetInt64("NODE_ID"),

		Gamification: GamificationConfig{
			PointsPerLevel:   v.GetInt("GAMIFICATION_POINTS_PER_LEVEL"),
			SymmetricUnlike:  v.GetBool("GAMIFICATION_SYMMETRIC_UNLIKE"),
			AchievementsFile: v.GetString("ACHIEVEMENTS_FILE"),
		},
		Leaderboard: LeaderboardConfig{
			Limit:            v.GetInt("LEADERBOARD_LIMIT"),
			RebuildOnRead:    v.GetBool("LEADERBOARD_REBUILD_ON_READ"),
			RebuildCron:      v.GetString("LEADERBOARD_REBUILD_CRON"),
			HistoryCacheSize: v.GetInt("LEADERBOARD_HISTORY_CACHE_SIZE"),
		},
	}

	var err error
	cfg.Leaderboard.CacheTTL, err = time.ParseDuration(v.GetString("LEADERBOARD_CACHE_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEADERBOARD_CACHE_TTL: %w", err)
	}
	cfg.Leaderboard.LockTTL, err = time.ParseDuration(v.GetString("LEADERBOARD_LOCK_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEADERBOARD_LOCK_TTL: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Gamification.PointsPerLevel <= 0 {
		return fmt.Errorf("GAMIFICATION_POINTS_PER_LEVEL must be positive, got %d", c.Gamification.PointsPerLevel)
	}
	if c.Leaderboard.Limit <= 0 {
		return fmt.Errorf("LEADERBOARD_LIMIT must be positive, got %d", c.Leaderboard.Limit)
	}
	if c.NodeID < 0 || c.NodeID > 1023 {
		return fmt.Errorf("NODE_ID must be between 0 and 1023, got %d", c.NodeID)
	}
	if c.AppEnv == "production" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
