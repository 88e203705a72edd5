package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	PostgresEnabled  bool

	MaxPages       int
	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int
	HTTPTimeoutMs  int

	FetchMode string // "http" or "browser"
	ChromeBin string

	RulesPath   string
	GeocoderURL string
	ViewingYear int

	// Proximity buffer in meters around a chosen point.
	ProximityBufferM float64

	CSVOutputPath string
	ServeAddr     string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "bolig_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", true),

		MaxPages:       getEnvInt("MAX_PAGES", 5),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 1000),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		HTTPTimeoutMs:  getEnvInt("HTTP_TIMEOUT_MS", 15000),

		FetchMode: getEnv("FETCH_MODE", "http"),
		ChromeBin: getEnv("CHROME_BIN", ""),

		RulesPath:   getEnv("RULES_PATH", ""),
		GeocoderURL: getEnv("GEOCODER_URL", "https://geocode.arcgis.com/arcgis/rest/services/World/GeocodeServer/findAddressCandidates"),
		ViewingYear: getEnvInt("VIEWING_YEAR", 2025),

		ProximityBufferM: float64(getEnvInt("PROXIMITY_BUFFER_M", 60)),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/listings.csv"),
		ServeAddr:     getEnv("SERVE_ADDR", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
