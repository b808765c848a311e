// internal/config/config.go
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type DB struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Config struct {
	HTTPAddr    string
	LogLevel    string
	StoreDriver string
	DB          DB
	Redis       Redis
	AMQPURL     string

	AgentID     string
	StartURL    string
	BrowserBin  string
	Headless    bool
	UserDataDir string

	CheckConnectionsSpec string
	CheckMessagesSpec    string
	CycleInterval        time.Duration
}

// Load reads a .env file when present and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on OS environment variables")
	}
	return FromEnv()
}

func FromEnv() Config {
	return Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		StoreDriver: getenv("STORE_DRIVER", StoreMemory),
		DB: DB{
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Host:     getenv("DB_HOST", "localhost"),
			Port:     getenv("DB_PORT", "5432"),
			Name:     os.Getenv("DB_NAME"),
		},
		Redis: Redis{
			Addr:     getenv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getenvInt("REDIS_DB", 0),
		},
		AMQPURL:              os.Getenv("AMQP_URL"),
		AgentID:              getenv("AGENT_ID", "default"),
		StartURL:             getenv("START_URL", "https://www.linkedin.com/feed/"),
		BrowserBin:           os.Getenv("BROWSER_BIN"),
		Headless:             getenvBool("HEADLESS", false),
		UserDataDir:          os.Getenv("USER_DATA_DIR"),
		CheckConnectionsSpec: getenv("CHECK_CONNECTIONS_SPEC", "@every 30m"),
		CheckMessagesSpec:    getenv("CHECK_MESSAGES_SPEC", "@every 15m"),
		CycleInterval:        getenvDuration("CYCLE_INTERVAL", 5*time.Second),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getenvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
