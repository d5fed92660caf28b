package utils

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type DatabaseConfig struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.PostgresHost +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" port=" + c.PostgresPort +
		" sslmode=disable TimeZone=UTC"
}

type ServerConfig struct {
	Port          string
	Environment   string
	AllowedOrigin string
}

// IsProduction controls the Secure flag on auth cookies.
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

type TokenConfig struct {
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	// MaxRefreshTokens caps live refresh-token records per user.
	MaxRefreshTokens int
}

type AdminConfig struct {
	Username string
	Password string
}

type Config struct {
	Database *DatabaseConfig
	Server   *ServerConfig
	Token    *TokenConfig
	Admin    *AdminConfig
}

func LoadConfig(dotenvPath string) (*Config, error) {
	if err := godotenv.Load(dotenvPath); err != nil {
		log.Printf("notice: %s not found, using system environment variables", dotenvPath)
	}

	dbCfg := &DatabaseConfig{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
	}
	serverCfg := &ServerConfig{
		Port:          getEnv("SERVER_PORT", "8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
	}

	accessTTL, err := ParseTTL(getEnv("ACCESS_TOKEN_EXPIRATION", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ACCESS_TOKEN_EXPIRATION: %w", err)
	}
	refreshTTL, err := ParseTTL(getEnv("REFRESH_TOKEN_EXPIRATION", "7d"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_TOKEN_EXPIRATION: %w", err)
	}
	maxTokens, err := strconv.Atoi(getEnv("MAX_REFRESH_TOKENS", "5"))
	if err != nil || maxTokens < 1 {
		return nil, fmt.Errorf("invalid MAX_REFRESH_TOKENS: %q", os.Getenv("MAX_REFRESH_TOKENS"))
	}

	tokenCfg := &TokenConfig{
		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
		MaxRefreshTokens:   maxTokens,
	}
	adminCfg := &AdminConfig{
		Username: os.Getenv("ADMIN_USERNAME"),
		Password: os.Getenv("ADMIN_PASSWORD"),
	}

	cfg := &Config{dbCfg, serverCfg, tokenCfg, adminCfg}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
