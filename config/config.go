// Package config loads server settings from the environment.
//
// A .env file is honored when present so local runs stay simple, but every
// value can also come from the real environment in deployment.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything main needs to wire the server together.
type Config struct {
	Host string
	Port string

	SeatLimit      int
	NoJoinDelay    time.Duration
	EmptyRoomDelay time.Duration
	EndGrace       time.Duration

	JWTSecret string
	StaticDir string

	// Postgres settings. Results recording is disabled when Host is empty.
	Postgres PostgresConfig

	// UseNgrok exposes the server through an ngrok tunnel instead of a
	// local listener.
	UseNgrok bool
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

// Load reads the optional .env file and builds a Config from the
// environment, falling back to sensible defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return Config{
		Host:           getEnv("HOST", ""),
		Port:           getEnv("PORT", "8080"),
		SeatLimit:      getEnvInt("SEAT_LIMIT", 2),
		NoJoinDelay:    getEnvDuration("NO_JOIN_DELAY", time.Minute),
		EmptyRoomDelay: getEnvDuration("EMPTY_ROOM_DELAY", 5*time.Minute),
		EndGrace:       getEnvDuration("END_GRACE", 2*time.Second),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		StaticDir:      getEnv("STATIC_DIR", "public"),
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", ""),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			DBName:   getEnv("POSTGRES_DB", "connectfour"),
		},
		UseNgrok: getEnvBool("USE_NGROK", false),
	}
}

// Addr returns the host:port pair the HTTP server should listen on.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using default %d", key, raw, fallback)
		return fallback
	}
	return value
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using default %s", key, raw, fallback)
		return fallback
	}
	return value
}

func getEnvBool(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using default %t", key, raw, fallback)
		return fallback
	}
	return value
}
