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

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool

	// LocalBackupDir is used as the snapshot target when no S3 endpoint is
	// configured, so a run without object-store credentials still keeps its
	// audit trail.
	LocalBackupDir string

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int
	HTTPTimeoutMs  int

	City     string
	MaxPages int

	JudicialBaseURL  string
	AssetBankBaseURL string
	LandBankBaseURL  string
	OpenDataURL      string
	MetroBankBaseURL string

	ChromeBin string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "auction"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "auction123"),
		PostgresDB:       getEnv("POSTGRES_DB", "auction_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3Bucket:    getEnv("S3_BUCKET", "auction-backups"),
		S3UseSSL:    getEnvBool("S3_USE_SSL", true),

		LocalBackupDir: getEnv("LOCAL_BACKUP_DIR", "./backups"),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 1500),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		HTTPTimeoutMs:  getEnvInt("HTTP_TIMEOUT_MS", 20000),

		City:     getEnv("QUERY_CITY", "台北市"),
		MaxPages: getEnvInt("MAX_PAGES", 5),

		JudicialBaseURL:  getEnv("JUDICIAL_BASE_URL", "https://aomp.judicial.gov.tw"),
		AssetBankBaseURL: getEnv("ASSETBANK_BASE_URL", "https://www.assetbank.com.tw"),
		LandBankBaseURL:  getEnv("LANDBANK_BASE_URL", "https://www.landbank.com.tw"),
		OpenDataURL:      getEnv("OPENDATA_URL", "https://data.gov.tw/api/v2/rest/dataset/auctions"),
		MetroBankBaseURL: getEnv("METROBANK_BASE_URL", "https://house.metrobank.com.tw"),

		ChromeBin: getEnv("CHROME_BIN", ""),
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
