package config

import (
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	ServerPort string
	MongoURI   string
	MongoDB    string
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

func Load() *Config {
	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		MongoURI:   getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:    getEnv("MONGO_DB", "thrive"),
		JWTSecret:  getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:   time.Duration(getEnvInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
		BcryptCost: getEnvInt("BCRYPT_COST", bcrypt.DefaultCost),
	}
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}

	return n
}
