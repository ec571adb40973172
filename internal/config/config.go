// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/algotrade/tradecal/internal/modules/calendar"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string `validate:"required"` // Base directory for databases and exports (always absolute)
	LogLevel string `validate:"oneof=trace debug info warn error"`
	Port     int    `validate:"min=1,max=65535"`
	DevMode  bool

	Market       string `validate:"required"`
	DateFormat   string `validate:"required"` // Go layout or strftime pattern
	MarketTiming calendar.MarketTiming
	AdhocClosed  []string // extra closures announced after the holiday list
	AdhocOpen    []string // extra sessions announced after the holiday list
	ExpiryDay    string   `validate:"oneof=Monday Tuesday Wednesday Thursday Friday"`

	NSE      NSEConfig
	Telegram TelegramConfig
	Sheets   SheetsConfig
	Archive  ArchiveConfig
	Schedule ScheduleConfig

	XLSXDir string // empty disables spreadsheet export

	ReportRetentionDays int `validate:"min=1"`
}

// NSEConfig holds the exchange feed settings
type NSEConfig struct {
	BaseURL        string  `validate:"required,url"`
	HolidaySegment string  `validate:"required"`
	HolidayFile    string  // YAML fallback used when the feed is unreachable
	RateLimit      float64 `validate:"gt=0"` // requests per second
	Indices        []string
	OptionSymbols  []string // option chains summarised in the session report
}

// TelegramConfig holds the Telegram bot credentials
type TelegramConfig struct {
	Token     string
	ChatID    string `validate:"required_with=Token"`
	Signature string // Go format string with one %s for the generation time
}

// Enabled reports whether Telegram delivery is configured
func (c TelegramConfig) Enabled() bool { return c.Token != "" && c.ChatID != "" }

// SheetsConfig holds Google Sheets delivery settings
type SheetsConfig struct {
	CredentialsFile string
	SpreadsheetID   string `validate:"required_with=CredentialsFile"`
	SheetName       string
}

// Enabled reports whether Sheets delivery is configured
func (c SheetsConfig) Enabled() bool { return c.CredentialsFile != "" && c.SpreadsheetID != "" }

// ArchiveConfig holds S3-compatible report archive settings
type ArchiveConfig struct {
	Bucket          string
	Region          string
	Endpoint        string // set for R2/MinIO, empty for AWS
	AccessKeyID     string
	SecretAccessKey string `validate:"required_with=AccessKeyID"`
	Prefix          string
}

// Enabled reports whether report archiving is configured
func (c ArchiveConfig) Enabled() bool { return c.Bucket != "" }

// ScheduleConfig holds cron expressions (with seconds) evaluated in the market time zone
type ScheduleConfig struct {
	HolidayRefresh string `validate:"required"`
	SessionReport  string `validate:"required"`
	CacheCleanup   string `validate:"required"`
	DatabaseCheck  string `validate:"required"`
	HistoryCleanup string `validate:"required"`
}

var validate = validator.New()

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("TRADECAL_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	defaults := calendar.DefaultMarketTiming()

	cfg := &Config{
		DataDir:    absDataDir,
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		Port:       getEnvAsInt("PORT", 8080),
		DevMode:    getEnvAsBool("DEV_MODE", false),
		Market:     getEnv("MARKET", "NSE"),
		DateFormat: calendar.LayoutFromStrftime(getEnv("DATE_FORMAT", calendar.DefaultLayout)),
		MarketTiming: calendar.MarketTiming{
			StartTime:  getEnv("MARKET_START", defaults.StartTime),
			CloseTime:  getEnv("MARKET_CLOSE", defaults.CloseTime),
			CutoffTime: getEnv("MARKET_CUTOFF", defaults.CutoffTime),
			TimeZone:   getEnv("MARKET_TZ", defaults.TimeZone),
		},
		AdhocClosed: getEnvAsList("ADHOC_MARKET_CLOSED"),
		AdhocOpen:   getEnvAsList("ADHOC_MARKET_OPEN"),
		ExpiryDay:   getEnv("EXPIRY_WEEKDAY", "Thursday"),
		NSE: NSEConfig{
			BaseURL:        strings.TrimRight(getEnv("NSE_BASE_URL", "https://www.nseindia.com"), "/"),
			HolidaySegment: getEnv("NSE_HOLIDAY_SEGMENT", "CM"),
			HolidayFile:    getEnv("HOLIDAY_FILE", ""),
			RateLimit:      getEnvAsFloat("NSE_RATE_LIMIT", 1),
			Indices:        getEnvAsListOr("NSE_INDICES", []string{"NIFTY 50", "NIFTY BANK", "NIFTY FINANCIAL SERVICES", "NIFTY MIDCAP SELECT"}),
			OptionSymbols:  getEnvAsListOr("NSE_OPTION_SYMBOLS", []string{"NIFTY", "BANKNIFTY"}),
		},
		Telegram: TelegramConfig{
			Token:     getEnv("TELEGRAM_TOKEN", ""),
			ChatID:    getEnv("TELEGRAM_CHAT_ID", ""),
			Signature: getEnv("TELEGRAM_SIGNATURE", ""),
		},
		Sheets: SheetsConfig{
			CredentialsFile: getEnv("GSHEET_CREDENTIALS_FILE", ""),
			SpreadsheetID:   getEnv("GSHEET_SPREADSHEET_ID", ""),
			SheetName:       getEnv("GSHEET_SHEET_NAME", "index"),
		},
		Archive: ArchiveConfig{
			Bucket:          getEnv("ARCHIVE_BUCKET", ""),
			Region:          getEnv("ARCHIVE_REGION", "auto"),
			Endpoint:        getEnv("ARCHIVE_ENDPOINT", ""),
			AccessKeyID:     getEnv("ARCHIVE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("ARCHIVE_SECRET_ACCESS_KEY", ""),
			Prefix:          getEnv("ARCHIVE_PREFIX", "reports/"),
		},
		Schedule: ScheduleConfig{
			HolidayRefresh: getEnv("SCHEDULE_HOLIDAY_REFRESH", "0 0 7 * * *"),
			SessionReport:  getEnv("SCHEDULE_SESSION_REPORT", "0 10 16 * * MON-SAT"),
			CacheCleanup:   getEnv("SCHEDULE_CACHE_CLEANUP", "0 30 3 * * *"),
			DatabaseCheck:  getEnv("SCHEDULE_DATABASE_CHECK", "0 0 4 * * SUN"),
			HistoryCleanup: getEnv("SCHEDULE_HISTORY_CLEANUP", "0 15 4 * * SUN"),
		},
		XLSXDir:             getEnv("XLSX_DIR", ""),
		ReportRetentionDays: getEnvAsInt("REPORT_RETENTION_DAYS", 180),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field formats and the market timing record
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := calendar.NewMarketSession(c.MarketTiming, nil); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ExpiryWeekday returns ExpiryDay as a time.Weekday
func (c *Config) ExpiryWeekday() time.Weekday {
	for wd := time.Monday; wd <= time.Friday; wd++ {
		if wd.String() == c.ExpiryDay {
			return wd
		}
	}
	return time.Thursday
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsListOr(key string, defaultValue []string) []string {
	if list := getEnvAsList(key); len(list) > 0 {
		return list
	}
	return defaultValue
}
