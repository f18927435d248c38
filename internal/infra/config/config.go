package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию краулеров.
type AppConfig struct {
	AppEnv   string `envconfig:"APP_ENV" default:"prod"`
	TZOffset string `envconfig:"TZ_OFFSET" default:"+05:30"`

	API struct {
		URL string `envconfig:"RESULTS_API_URL" default:"https://supervillain.pythonanywhere.com/api"`
	} `envconfig:""`

	HTTP struct {
		UserAgent    string  `envconfig:"HTTP_USER_AGENT"`
		RetryMax     int     `envconfig:"HTTP_RETRY_MAX" default:"3"`
		PublisherRPS float64 `envconfig:"PUBLISHER_RPS" default:"0"`
	} `envconfig:""`

	RedisAddr  string        `envconfig:"REDIS_ADDR"`
	RunLockTTL time.Duration `envconfig:"RUN_LOCK_TTL" default:"10m"`

	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL"`

	OCR struct {
		Language string `envconfig:"OCR_LANGUAGE" default:"eng"`
	} `envconfig:""`

	SnapshotQuality int `envconfig:"SNAPSHOT_QUALITY" default:"60"`
}

// Parse читает .env (если есть) и окружение.
func Parse() (AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate проверяет значения, которые envconfig не может проверить сам.
func (c AppConfig) Validate() error {
	if c.API.URL == "" {
		return errors.New("RESULTS_API_URL is empty")
	}
	if c.HTTP.RetryMax < 0 {
		return fmt.Errorf("HTTP_RETRY_MAX must be >= 0, got %d", c.HTTP.RetryMax)
	}
	if c.HTTP.PublisherRPS < 0 {
		return fmt.Errorf("PUBLISHER_RPS must be >= 0, got %v", c.HTTP.PublisherRPS)
	}
	if c.SnapshotQuality < 1 || c.SnapshotQuality > 100 {
		return fmt.Errorf("SNAPSHOT_QUALITY must be within 1..100, got %d", c.SnapshotQuality)
	}
	if c.RedisAddr != "" && c.RunLockTTL <= 0 {
		return fmt.Errorf("RUN_LOCK_TTL must be positive, got %s", c.RunLockTTL)
	}
	return nil
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
