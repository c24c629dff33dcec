package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Operators OperatorsConfig `mapstructure:"operators"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	SQLite    SQLiteConfig    `mapstructure:"sqlite"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Reports   ReportsConfig   `mapstructure:"reports"`
	Log       LogConfig       `mapstructure:"log"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type OperatorsConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

type AuthConfig struct {
	Issuer          string        `mapstructure:"issuer"`
	AccountPrefix   string        `mapstructure:"account_prefix"`
	Skew            uint          `mapstructure:"skew"`
	Period          uint          `mapstructure:"period"`
	Digits          int           `mapstructure:"digits"`
	VerificationTTL time.Duration `mapstructure:"verification_ttl"`
}

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
)

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// NATSConfig enables event publishing when URL is set.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// MetricsConfig enables the /metrics endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type ReportsConfig struct {
	DedupeSize int `mapstructure:"dedupe_size"`
}

type LogConfig struct {
	Development bool `mapstructure:"development"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  sslMode,
	}, nil
}

// parseIDs reads numeric user ids separated by commas, spaces or semicolons.
func parseIDs(s string) ([]int64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})

	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid operator id %q: %w", f, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// LoadConfig reads path (if it exists), then the environment. A .env file
// in the working directory is loaded first and never overrides variables
// already set.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("auth.issuer", "AntiSpamBot")
	v.SetDefault("auth.account_prefix", "Admin_")
	v.SetDefault("auth.skew", 1)
	v.SetDefault("auth.period", 30)
	v.SetDefault("auth.digits", 6)
	v.SetDefault("auth.verification_ttl", "0s")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "antispam")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("sqlite.path", "data/antispam.db")
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("nats.subject_prefix", "antispam")
	v.SetDefault("reports.dedupe_size", 1024)
	v.SetDefault("log.development", false)

	// Enable environment variable support: auth.skew -> AUTH_SKEW
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	// operators.ids may come from the environment as a single string.
	// Parse it before Unmarshal, whose slice hook only splits on commas.
	if raw := v.GetString("OPERATORS_IDS"); raw != "" {
		ids, err := parseIDs(raw)
		if err != nil {
			return nil, err
		}
		v.Set("operators.ids", ids)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := applyLegacyEnv(v, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

func applyLegacyEnv(v *viper.Viper, config *Config) error {
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		config.Database = dbConfig
	}

	for _, key := range []string{"TELEGRAM_TOKEN", "BOT_TOKEN"} {
		if token := v.GetString(key); token != "" {
			config.Telegram.Token = token
			break
		}
	}

	if raw := v.GetString("ADMIN_IDS"); raw != "" {
		ids, err := parseIDs(raw)
		if err != nil {
			return fmt.Errorf("failed to parse ADMIN_IDS: %w", err)
		}
		config.Operators.IDs = ids
	}

	if redisURL := v.GetString("REDIS_URL"); redisURL != "" {
		config.Redis.URL = redisURL
	}

	if natsURL := v.GetString("NATS_URL"); natsURL != "" {
		config.NATS.URL = natsURL
	}

	return nil
}

// Validate reports the first setting that would keep the bot from running.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return errors.New("telegram token is required (TELEGRAM_TOKEN or BOT_TOKEN)")
	}
	if len(c.Operators.IDs) == 0 {
		return errors.New("at least one operator id is required (ADMIN_IDS)")
	}
	switch c.Storage.Driver {
	case DriverMemory, DriverPostgres, DriverSQLite, DriverRedis:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Auth.Digits != 6 && c.Auth.Digits != 8 {
		return fmt.Errorf("auth digits must be 6 or 8, got %d", c.Auth.Digits)
	}
	if c.Auth.Period == 0 {
		return errors.New("auth period must be positive")
	}
	if c.Auth.VerificationTTL < 0 {
		return errors.New("auth verification ttl must not be negative")
	}
	return nil
}
