package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	LogLevel string

	DatabaseURI   string
	TelegramToken string

	RedisAddress  string
	RedisUsername string
	RedisPassword string

	HTTPAddress string
	APIToken    string

	MQTTBrokerURL   string
	MQTTTopicPrefix string

	AIAPIKey  string
	AIBaseURL string
	AIModel   string

	TickInterval   time.Duration
	HTTPTimeout    time.Duration
	AladhanBaseURL string
	QuranBaseURL   string
	GeocodeBaseURL string
}

func Load() (*Config, error) {
	// .env is optional; the environment wins when both are set.
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:          getEnvOrDefault("APP_ENV", "prod"),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		DatabaseURI:     os.Getenv("DATABASE_URI"),
		TelegramToken:   os.Getenv("TELEGRAM_TOKEN"),
		RedisAddress:    getEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
		RedisUsername:   os.Getenv("REDIS_USERNAME"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		HTTPAddress:     os.Getenv("HTTP_ADDRESS"),
		APIToken:        os.Getenv("API_TOKEN"),
		MQTTBrokerURL:   os.Getenv("MQTT_BROKER_URL"),
		MQTTTopicPrefix: getEnvOrDefault("MQTT_TOPIC_PREFIX", "nuhyi"),
		AIAPIKey:        os.Getenv("AI_API_KEY"),
		AIBaseURL:       getEnvOrDefault("AI_BASE_URL", "https://openrouter.ai/api/v1"),
		AIModel:         getEnvOrDefault("AI_MODEL", "openai/gpt-4o-mini"),
		TickInterval:    getDurationOrDefault("TICK_INTERVAL", 15*time.Second),
		HTTPTimeout:     getDurationOrDefault("HTTP_TIMEOUT", 10*time.Second),
		AladhanBaseURL:  getEnvOrDefault("ALADHAN_BASE_URL", "https://api.aladhan.com"),
		QuranBaseURL:    getEnvOrDefault("QURAN_BASE_URL", "https://api.alquran.cloud"),
		GeocodeBaseURL:  getEnvOrDefault("GEOCODE_BASE_URL", "https://api.bigdatacloud.net"),
	}
	return cfg, cfg.Validate()
}

// Validate reports missing required settings.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURI == "" {
		errs = append(errs, errors.New("DATABASE_URI is required"))
	}
	if c.TelegramToken == "" {
		errs = append(errs, errors.New("TELEGRAM_TOKEN is required"))
	}
	if c.HTTPAddress != "" && c.APIToken == "" {
		errs = append(errs, errors.New("API_TOKEN is required when HTTP_ADDRESS is set"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDev() bool {
	return c.AppEnv == "dev"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationOrDefault accepts Go durations ("30s") or plain seconds ("30").
func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return defaultValue
}
