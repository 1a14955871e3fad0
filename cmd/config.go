package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type Config struct {
	Env                  string        `mapstructure:"ENV"                    validate:"oneof=development test production"`
	HTTPPort             string        `mapstructure:"HTTP_PORT"              validate:"required,numeric"`
	DatabaseURL          string        `mapstructure:"DATABASE_URL"           validate:"required"`
	DBMaxConns           int32         `mapstructure:"DB_MAX_CONNS"           validate:"gte=1"`
	DBMinConns           int32         `mapstructure:"DB_MIN_CONNS"           validate:"gte=0,ltefield=DBMaxConns"`
	RedisURL             string        `mapstructure:"REDIS_URL"              validate:"omitempty,url"`
	OrderNumberPrefix    string        `mapstructure:"ORDER_NUMBER_PREFIX"`
	OrderNumberGenerator string        `mapstructure:"ORDER_NUMBER_GENERATOR" validate:"oneof=sequence dated"`
	OrderNumberSequence  string        `mapstructure:"ORDER_NUMBER_SEQUENCE"  validate:"required"`
	OrderNumberStart     int64         `mapstructure:"ORDER_NUMBER_START"     validate:"gte=1"`
	LockTTL              time.Duration `mapstructure:"LOCK_TTL"               validate:"gte=1s"`
	AuditCronSpec        string        `mapstructure:"AUDIT_CRON_SPEC"        validate:"required"`
	LogLevel             string        `mapstructure:"LOG_LEVEL"              validate:"oneof=trace debug info warn error"`
}

var configKeys = []string{
	"ENV",
	"HTTP_PORT",
	"DATABASE_URL",
	"DB_MAX_CONNS",
	"DB_MIN_CONNS",
	"REDIS_URL",
	"ORDER_NUMBER_PREFIX",
	"ORDER_NUMBER_GENERATOR",
	"ORDER_NUMBER_SEQUENCE",
	"ORDER_NUMBER_START",
	"LOCK_TTL",
	"AUDIT_CRON_SPEC",
	"LOG_LEVEL",
}

// LoadConfig reads the configuration from the environment, after loading .env from
// the working directory if there is one.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("ORDER_NUMBER_PREFIX", "ORD")
	v.SetDefault("ORDER_NUMBER_GENERATOR", "sequence")
	v.SetDefault("ORDER_NUMBER_SEQUENCE", "order_number_seq")
	v.SetDefault("ORDER_NUMBER_START", 1)
	v.SetDefault("LOCK_TTL", "30s")
	v.SetDefault("AUDIT_CRON_SPEC", "0 */5 * * * *")
	v.SetDefault("LOG_LEVEL", "info")

	// Unmarshal only sees environment variables that are bound.
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c Config) IsDev() bool {
	return c.Env == "development"
}

// NewLogger builds the process logger: JSON on stdout, or a console writer in
// development.
func NewLogger(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout)
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return logger.Level(level).With().Timestamp().Logger()
}
