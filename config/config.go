package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Mode     string
	Port     string
	LogLevel string

	CatalogSource   string
	CatalogJSONPath string
	CatalogXLSXPath string
	CatalogRefresh  string
	ImportTarget    string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MongoURI string
	MongoDB  string

	SQLitePath string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	InsightCacheTTL int

	MarketplaceURL string
	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int
	PagesToScrape  int
	ChromeBin      string
	CSVOutputPath  string

	MapPadding  float64
	CORSOrigins []string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		Mode:     strings.ToLower(getEnv("MODE", "serve")),
		Port:     getEnv("PORT", "4000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CatalogSource:   strings.ToLower(getEnv("CATALOG_SOURCE", "json")),
		CatalogJSONPath: getEnv("CATALOG_JSON_PATH", "./data/db.json"),
		CatalogXLSXPath: getEnv("CATALOG_XLSX_PATH", "./data/farms.xlsx"),
		CatalogRefresh:  getEnv("CATALOG_REFRESH", ""),
		ImportTarget:    strings.ToLower(getEnv("IMPORT_TARGET", "postgres")),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "agri"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "agri123"),
		PostgresDB:       getEnv("POSTGRES_DB", "agriconnect"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "agriconnect"),

		SQLitePath: getEnv("SQLITE_PATH", "./data/shortlist.db"),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		InsightCacheTTL: getEnvInt("INSIGHT_CACHE_TTL_SEC", 300),

		MarketplaceURL: getEnv("MARKETPLACE_URL", ""),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 2000),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		PagesToScrape:  getEnvInt("PAGES_TO_SCRAPE", 2),
		ChromeBin:      getEnv("CHROME_BIN", ""),
		CSVOutputPath:  getEnv("CSV_OUTPUT_PATH", "./output/raw_farms.csv"),

		MapPadding:  getEnvFloat("MAP_PADDING", 60),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"*"}),
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

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
