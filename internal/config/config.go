package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int

	DatabaseURL string

	JWTSecret     []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	AdminEmail       string
	AdminPassword    string
	AdminName        string
	DisableAdminSeed bool

	KafkaBrokers     []string
	KafkaOCRTopic    string
	KafkaEventsTopic string

	ESURL      string
	ESUser     string
	ESPassword string

	LogLevel string
}

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v, using system environment", err)
	}

	return &Config{
		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:     []byte(os.Getenv("JWT_SECRET")),
		RefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
		AccessTTL:     EnvDurationDefault("JWT_EXPIRES_IN", 15*time.Minute),
		RefreshTTL:    EnvDurationDefault("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),

		AdminEmail:       EnvDefault("ADMIN_EMAIL", "admin@klinik.local"),
		AdminPassword:    EnvDefault("ADMIN_PASSWORD", "admin123"),
		AdminName:        EnvDefault("ADMIN_NAME", "Administrator"),
		DisableAdminSeed: EnvBoolDefault("DISABLE_ADMIN_SEED", false),

		KafkaBrokers:     CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaOCRTopic:    EnvDefault("KAFKA_OCR_TOPIC", "ocr_events"),
		KafkaEventsTopic: EnvDefault("KAFKA_EVENTS_TOPIC", "user_events"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),

		LogLevel: EnvDefault("LOG_LEVEL", "info"),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
