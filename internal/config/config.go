package config

import (
	"errors"
	"os"
	"strings"
)

// Config contains runtime configuration required by the service.
type Config struct {
	MongoURI   string
	MongoDB    string
	JWTSecret  string
	Port       string
	CORSOrigin string
	LogLevel   string
}

// Load reads required values from environment variables. A .env file,
// if present, has already been folded into the environment by main.
//
// Required: MONGO_URI, JWT_SECRET.
// Optional: MONGO_DB (site_analytics), PORT (8080), CORS_ORIGIN, LOG_LEVEL (info).
func Load() (Config, error) {
	mongoURI := strings.TrimSpace(os.Getenv("MONGO_URI"))
	if mongoURI == "" {
		return Config{}, errors.New("MONGO_URI required")
	}

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		return Config{}, errors.New("JWT_SECRET required")
	}

	mongoDB := strings.TrimSpace(os.Getenv("MONGO_DB"))
	if mongoDB == "" {
		mongoDB = "site_analytics"
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	logLevel := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevel == "" {
		logLevel = "info"
	}

	return Config{
		MongoURI:   mongoURI,
		MongoDB:    mongoDB,
		JWTSecret:  jwtSecret,
		Port:       port,
		CORSOrigin: strings.TrimSpace(os.Getenv("CORS_ORIGIN")),
		LogLevel:   logLevel,
	}, nil
}
