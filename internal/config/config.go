package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Match Settings
	MatchTimeoutMinutes int
	TimeoutPollSeconds  int
	RakePercent         int
	EloKFactor          int
	DefaultRating       int
	AllowFreeMatches    bool

	// Bonuses
	WelcomeBonus  float64
	ReferralBonus float64

	// Wallet
	MinimumDeposit    float64
	MinimumWithdrawal float64

	// Security
	JWTSecret         string
	SessionTimeoutMin int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/arena?sslmode=disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Match Settings
		MatchTimeoutMinutes: getEnvInt("MATCH_TIMEOUT_MINUTES", 15),
		TimeoutPollSeconds:  getEnvInt("TIMEOUT_POLL_SECONDS", 5),
		RakePercent:         getEnvInt("RAKE_PERCENT", 10),
		EloKFactor:          getEnvInt("ELO_K_FACTOR", 32),
		DefaultRating:       getEnvInt("DEFAULT_RATING", 1000),
		AllowFreeMatches:    getEnv("ALLOW_FREE_MATCHES", "true") == "true",

		// Bonuses
		WelcomeBonus:  getEnvFloat("WELCOME_BONUS", 10.0),
		ReferralBonus: getEnvFloat("REFERRAL_BONUS", 5.0),

		// Wallet
		MinimumDeposit:    getEnvFloat("MINIMUM_DEPOSIT", 50.0),
		MinimumWithdrawal: getEnvFloat("MINIMUM_WITHDRAWAL", 100.0),

		// Security
		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		SessionTimeoutMin: getEnvInt("SESSION_TIMEOUT_MINUTES", 30),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
