package config

import (
	"fmt"
	"log"
	"time"
	_ "time/tzdata" // RESET_TIMEZONE must resolve on minimal images

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// It is composed of smaller structs that represent different concerns of the system,
// such as server settings, the ISS trade feed, the daily reset and the optional Postgres archive.
//
// Example ENV equivalent:
//
//	SERVER_PORT=8080
//	ISS_BASE_URL=https://iss.moex.com/iss
//	DEFAULT_BOARD=TQBR
//	ISS_PAGE_LIMIT=5000
//	RESET_AT=02:00
//	RESET_TIMEZONE=Europe/Moscow
//	ARCHIVE_ENABLED=false
//	WATCHLIST=LKOH,SBER
type Config struct {
	Server   ServerConfig   // HTTP server configuration
	ISS      ISSConfig      // Trade feed settings
	Reset    ResetConfig    // Daily tape reset
	Archive  ArchiveConfig  // Optional trade archive
	Postgres PostgresConfig // PostgreSQL connection settings (archive only)
	Log      LogConfig      // Logger settings
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          string // The TCP port the HTTP server will listen on (e.g., "8080")
	AdminToken    string // Required in X-Admin-Token for POST /api/v1/vwap/reset when set
	BatchParallel int    // Max concurrent tape refreshes for batch queries
	Watchlist     string // Comma-separated tickers warmed at startup and after each reset
}

// ISSConfig describes the MOEX ISS trade-history endpoint.
type ISSConfig struct {
	BaseURL      string
	Engine       string
	Market       string
	DefaultBoard string
	PageLimit    int
	Timeout      time.Duration // per page request
	// RefreshTimeout bounds one shared tape refresh, which outlives the request that started it.
	RefreshTimeout time.Duration
}

// ResetConfig controls the daily reset of every tracked tape.
type ResetConfig struct {
	Enabled  bool
	At       string // HH:MM in Timezone
	Timezone string
}

// ArchiveConfig toggles the write-only Postgres archive of fetched pages.
type ArchiveConfig struct {
	Enabled       bool
	RetentionDays int // Sessions older than this are purged after each reset; 0 keeps everything
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host: hostname of the database server.
//   - Port: port number of the database server (default 5432).
//   - User: username for authentication.
//   - Password: password for authentication.
//   - DBName: target database name.
//   - SSLMode: SSL mode (e.g., "disable", "require").
//   - URL: computed DSN used by database/sql to connect.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// LogConfig mirrors LOG_LEVEL and LOG_PRETTY.
type LogConfig struct {
	Level  string
	Pretty bool
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and read by cmd/main.go and app.InitializeApp.
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
//   - If required variables are missing or malformed, validateConfig() terminates the app
//     with a descriptive log message.
func LoadConfig() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("ADMIN_TOKEN", "")
	viper.SetDefault("BATCH_PARALLEL", 4)
	viper.SetDefault("WATCHLIST", "")

	viper.SetDefault("ISS_BASE_URL", "https://iss.moex.com/iss")
	viper.SetDefault("ISS_ENGINE", "stock")
	viper.SetDefault("ISS_MARKET", "shares")
	viper.SetDefault("DEFAULT_BOARD", "TQBR")
	viper.SetDefault("ISS_PAGE_LIMIT", 5000)
	viper.SetDefault("ISS_TIMEOUT", "15s")
	viper.SetDefault("ISS_REFRESH_TIMEOUT", "2m")

	viper.SetDefault("RESET_ENABLED", true)
	viper.SetDefault("RESET_AT", "02:00")
	viper.SetDefault("RESET_TIMEZONE", "Europe/Moscow")

	viper.SetDefault("ARCHIVE_ENABLED", false)
	viper.SetDefault("ARCHIVE_RETENTION_DAYS", 30)
	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "issvwap")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_PRETTY", false)

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port:          viper.GetString("SERVER_PORT"),
			AdminToken:    viper.GetString("ADMIN_TOKEN"),
			BatchParallel: viper.GetInt("BATCH_PARALLEL"),
			Watchlist:     viper.GetString("WATCHLIST"),
		},
		ISS: ISSConfig{
			BaseURL:        viper.GetString("ISS_BASE_URL"),
			Engine:         viper.GetString("ISS_ENGINE"),
			Market:         viper.GetString("ISS_MARKET"),
			DefaultBoard:   viper.GetString("DEFAULT_BOARD"),
			PageLimit:      viper.GetInt("ISS_PAGE_LIMIT"),
			Timeout:        viper.GetDuration("ISS_TIMEOUT"),
			RefreshTimeout: viper.GetDuration("ISS_REFRESH_TIMEOUT"),
		},
		Reset: ResetConfig{
			Enabled:  viper.GetBool("RESET_ENABLED"),
			At:       viper.GetString("RESET_AT"),
			Timezone: viper.GetString("RESET_TIMEZONE"),
		},
		Archive: ArchiveConfig{
			Enabled:       viper.GetBool("ARCHIVE_ENABLED"),
			RetentionDays: viper.GetInt("ARCHIVE_RETENTION_DAYS"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		Log: LogConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Pretty: viper.GetBool("LOG_PRETTY"),
		},
	}

	AppConfig.Postgres.URL = AppConfig.Postgres.DSN()

	validateConfig()
}

// DSN renders the PostgreSQL connection string used by database/sql.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User,
		p.Password,
		p.Host,
		p.Port,
		p.DBName,
		p.SSLMode,
	)
}

// missingFields lists the variables that are absent or invalid in cfg.
// Postgres fields are only required when the archive is enabled.
func missingFields(cfg Config) []string {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if cfg.ISS.BaseURL == "" {
		missing = append(missing, "ISS_BASE_URL")
	}
	if cfg.ISS.Engine == "" {
		missing = append(missing, "ISS_ENGINE")
	}
	if cfg.ISS.Market == "" {
		missing = append(missing, "ISS_MARKET")
	}
	if cfg.ISS.DefaultBoard == "" {
		missing = append(missing, "DEFAULT_BOARD")
	}
	if cfg.ISS.PageLimit <= 0 {
		missing = append(missing, "ISS_PAGE_LIMIT")
	}
	if cfg.ISS.Timeout <= 0 {
		missing = append(missing, "ISS_TIMEOUT")
	}
	if cfg.Reset.Enabled {
		if _, err := time.Parse("15:04", cfg.Reset.At); err != nil {
			missing = append(missing, "RESET_AT")
		}
		if _, err := time.LoadLocation(cfg.Reset.Timezone); err != nil {
			missing = append(missing, "RESET_TIMEZONE")
		}
	}
	if cfg.Archive.Enabled {
		if cfg.Postgres.Host == "" {
			missing = append(missing, "POSTGRES_HOST")
		}
		if cfg.Postgres.Port == 0 {
			missing = append(missing, "POSTGRES_PORT")
		}
		if cfg.Postgres.User == "" {
			missing = append(missing, "POSTGRES_USER")
		}
		if cfg.Postgres.DBName == "" {
			missing = append(missing, "POSTGRES_DB")
		}
		if cfg.Archive.RetentionDays < 0 {
			missing = append(missing, "ARCHIVE_RETENTION_DAYS")
		}
	}

	return missing
}

// validateConfig terminates the application if required variables are missing.
func validateConfig() {
	if missing := missingFields(AppConfig); len(missing) > 0 {
		log.Fatalf("❌ Missing or invalid environment variables: %v\n", missing)
	}
}
