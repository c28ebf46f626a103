package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything read from the environment at startup. Handlers
// never read os.Getenv directly; they go through the accessor methods so tests
// can swap in a mock.
type Config struct {
	Port           string
	JWTSecret      string
	MongoURI       string
	MongoDatabase  string
	TMDBAPIKey     string
	UseSampleData  bool
	AllowedOrigins []string
	LogLevel       string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Error loading .env file: %v", err)
	}

	apiKey := os.Getenv("TMDB_API_KEY")

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "entertainhub"),
		TMDBAPIKey:    apiKey,
		// Decided once at startup: without a key the remote catalog serves
		// canned sample data instead of checking the key on every call.
		UseSampleData:  apiKey == "",
		AllowedOrigins: splitOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

func (c *Config) GetJWTSecret() string { return c.JWTSecret }

func (c *Config) GetServerPort() string { return c.Port }

func (c *Config) GetAllowedOrigins() []string { return c.AllowedOrigins }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
