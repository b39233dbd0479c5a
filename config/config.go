package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// Example ENV equivalent:
//
//	ANBIMA_BASE_URL=https://www.anbima.com.br/informacoes/merc-sec-debentures/arqs/
//	ANBIMA_FILE_PREFIX=db
//	DOWNLOAD_DIR="Daily Prices"
//	OUTPUT_FILE=daily_prices_to_pbi.csv
//	NUM_DAYS=5
//	OUTPUT_HEADER=on_create
//	BUSINESS_CALENDAR=weekdays
//	HTTP_TIMEOUT=30s
//	FETCH_MAX_ATTEMPTS=1
//	FETCH_INITIAL_BACKOFF=1s
//	SERVER_PORT=8080
//	POSTGRES_ENABLED=false
type Config struct {
	Source   SourceConfig   // Where daily price files come from
	Batch    BatchConfig    // Local files produced by a run
	Fetch    FetchConfig    // HTTP client tuning
	Server   ServerConfig   // HTTP server configuration
	Postgres PostgresConfig // PostgreSQL connection settings
}

// SourceConfig describes the remote file location. A file URL is
// BaseURL + FilePrefix + yymmdd + ".txt".
type SourceConfig struct {
	BaseURL    string
	FilePrefix string
}

// BatchConfig holds the batch run settings.
//
// Fields:
//   - DownloadDir: directory receiving one YYYYMMDD.txt per business day.
//   - OutputFile: consolidated CSV the rows are appended to.
//   - NumDays: number of prior business days to fetch.
//   - OutputHeader: never | on_create | always.
//   - Calendar: weekdays | br.
type BatchConfig struct {
	DownloadDir  string
	OutputFile   string
	NumDays      int
	OutputHeader string
	Calendar     string
}

// FetchConfig tunes the download client.
type FetchConfig struct {
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
}

// ServerConfig holds HTTP server settings such as the port to listen on.
type ServerConfig struct {
	Port string // The TCP port the HTTP server will listen on (e.g., "8080")
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Enabled switches the database sink of the batch run on. The API mode
// always needs a database.
type PostgresConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Fatal exit:
//   - If required variables are missing or invalid, validateConfig() terminates the app.
func LoadConfig() {
	viper.SetDefault("ANBIMA_BASE_URL", "https://www.anbima.com.br/informacoes/merc-sec-debentures/arqs/")
	viper.SetDefault("ANBIMA_FILE_PREFIX", "db")

	viper.SetDefault("DOWNLOAD_DIR", "Daily Prices")
	viper.SetDefault("OUTPUT_FILE", "daily_prices_to_pbi.csv")
	viper.SetDefault("NUM_DAYS", 5)
	viper.SetDefault("OUTPUT_HEADER", "on_create")
	viper.SetDefault("BUSINESS_CALENDAR", "weekdays")

	viper.SetDefault("HTTP_TIMEOUT", "30s")
	viper.SetDefault("FETCH_MAX_ATTEMPTS", 1)
	viper.SetDefault("FETCH_INITIAL_BACKOFF", "1s")

	viper.SetDefault("SERVER_PORT", "8080")

	viper.SetDefault("POSTGRES_ENABLED", false)
	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "debpulse")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	viper.AutomaticEnv()

	AppConfig = Config{
		Source: SourceConfig{
			BaseURL:    viper.GetString("ANBIMA_BASE_URL"),
			FilePrefix: viper.GetString("ANBIMA_FILE_PREFIX"),
		},
		Batch: BatchConfig{
			DownloadDir:  viper.GetString("DOWNLOAD_DIR"),
			OutputFile:   viper.GetString("OUTPUT_FILE"),
			NumDays:      viper.GetInt("NUM_DAYS"),
			OutputHeader: viper.GetString("OUTPUT_HEADER"),
			Calendar:     viper.GetString("BUSINESS_CALENDAR"),
		},
		Fetch: FetchConfig{
			Timeout:        viper.GetDuration("HTTP_TIMEOUT"),
			MaxAttempts:    viper.GetInt("FETCH_MAX_ATTEMPTS"),
			InitialBackoff: viper.GetDuration("FETCH_INITIAL_BACKOFF"),
		},
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		Postgres: PostgresConfig{
			Enabled:  viper.GetBool("POSTGRES_ENABLED"),
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
	}

	AppConfig.Postgres.URL = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		AppConfig.Postgres.User,
		AppConfig.Postgres.Password,
		AppConfig.Postgres.Host,
		AppConfig.Postgres.Port,
		AppConfig.Postgres.DBName,
		AppConfig.Postgres.SSLMode,
	)

	validateConfig()
}

// validateConfig terminates the application when required variables are
// missing or hold values the batch cannot work with.
func validateConfig() {
	if problems := checkConfig(AppConfig); len(problems) > 0 {
		log.Fatalf("❌ Invalid or missing configuration: %v\n", problems)
	}
}

// checkConfig lists every missing or invalid setting of cfg.
func checkConfig(cfg Config) []string {
	var problems []string

	if cfg.Source.BaseURL == "" {
		problems = append(problems, "ANBIMA_BASE_URL")
	}
	if cfg.Batch.DownloadDir == "" {
		problems = append(problems, "DOWNLOAD_DIR")
	}
	if cfg.Batch.OutputFile == "" {
		problems = append(problems, "OUTPUT_FILE")
	}
	if cfg.Batch.NumDays < 0 {
		problems = append(problems, "NUM_DAYS (must be >= 0)")
	}
	switch cfg.Batch.OutputHeader {
	case "never", "on_create", "always":
	default:
		problems = append(problems, "OUTPUT_HEADER (never|on_create|always)")
	}
	switch cfg.Batch.Calendar {
	case "weekdays", "br":
	default:
		problems = append(problems, "BUSINESS_CALENDAR (weekdays|br)")
	}
	if cfg.Fetch.MaxAttempts < 1 {
		problems = append(problems, "FETCH_MAX_ATTEMPTS (must be >= 1)")
	}
	if cfg.Server.Port == "" {
		problems = append(problems, "SERVER_PORT")
	}
	if cfg.Postgres.Enabled {
		if cfg.Postgres.Host == "" {
			problems = append(problems, "POSTGRES_HOST")
		}
		if cfg.Postgres.Port == 0 {
			problems = append(problems, "POSTGRES_PORT")
		}
		if cfg.Postgres.User == "" {
			problems = append(problems, "POSTGRES_USER")
		}
		if cfg.Postgres.DBName == "" {
			problems = append(problems, "POSTGRES_DB")
		}
	}

	return problems
}
