package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	CORS        CORSConfig
	Log         LogConfig
	Stream      StreamConfig
	Leaderboard LeaderboardConfig
	Display     DisplayConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	TxTimeout    time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StreamConfig tunes the live fan-out transports.
type StreamConfig struct {
	KeepaliveInterval time.Duration
	SubscriberBuffer  int
	WebsocketEnabled  bool
}

// LeaderboardConfig governs standings limits and the optional read cache.
type LeaderboardConfig struct {
	Limit        int
	CacheEnabled bool
	CacheTTL     time.Duration
}

// DisplayConfig drives the terminal display client.
type DisplayConfig struct {
	ServerURL      string
	PollInterval   time.Duration
	RevealDuration time.Duration
	ResyncDelay    time.Duration
	ScrollInterval time.Duration
	RecentLimit    int
	Tracks         []string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		TxTimeout:    parseDuration(v.GetString("DB_TX_TIMEOUT"), 5*time.Second),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Stream = StreamConfig{
		KeepaliveInterval: parseDuration(v.GetString("STREAM_KEEPALIVE_INTERVAL"), 25*time.Second),
		SubscriberBuffer:  v.GetInt("STREAM_SUBSCRIBER_BUFFER"),
		WebsocketEnabled:  v.GetBool("ENABLE_WEBSOCKET_STREAM"),
	}

	cfg.Leaderboard = LeaderboardConfig{
		Limit:        v.GetInt("LEADERBOARD_LIMIT"),
		CacheEnabled: v.GetBool("ENABLE_LEADERBOARD_CACHE"),
		CacheTTL:     parseDuration(v.GetString("LEADERBOARD_CACHE_TTL"), 30*time.Second),
	}

	cfg.Display = DisplayConfig{
		ServerURL:      strings.TrimRight(v.GetString("DISPLAY_SERVER_URL"), "/"),
		PollInterval:   parseDuration(v.GetString("DISPLAY_POLL_INTERVAL"), 5*time.Second),
		RevealDuration: parseDuration(v.GetString("DISPLAY_REVEAL_DURATION"), 5500*time.Millisecond),
		ResyncDelay:    parseDuration(v.GetString("DISPLAY_RESYNC_DELAY"), time.Second),
		ScrollInterval: parseDuration(v.GetString("DISPLAY_SCROLL_INTERVAL"), 4*time.Second),
		RecentLimit:    v.GetInt("DISPLAY_RECENT_LIMIT"),
		Tracks:         splitAndTrim(v.GetString("DISPLAY_TRACKS")),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "festival_live")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_TX_TIMEOUT", "5s")

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STREAM_KEEPALIVE_INTERVAL", "25s")
	v.SetDefault("STREAM_SUBSCRIBER_BUFFER", 32)
	v.SetDefault("ENABLE_WEBSOCKET_STREAM", true)

	v.SetDefault("LEADERBOARD_LIMIT", 20)
	v.SetDefault("ENABLE_LEADERBOARD_CACHE", false)
	v.SetDefault("LEADERBOARD_CACHE_TTL", "30s")

	v.SetDefault("DISPLAY_SERVER_URL", "http://localhost:8080/api")
	v.SetDefault("DISPLAY_POLL_INTERVAL", "5s")
	v.SetDefault("DISPLAY_REVEAL_DURATION", "5500ms")
	v.SetDefault("DISPLAY_RESYNC_DELAY", "1s")
	v.SetDefault("DISPLAY_SCROLL_INTERVAL", "4s")
	v.SetDefault("DISPLAY_RECENT_LIMIT", 10)
	v.SetDefault("DISPLAY_TRACKS", "")
}

// isMissingFile reports whether viper failed because the explicit .env file is absent.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
