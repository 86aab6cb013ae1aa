package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the booking service.
type Config struct {
	HTTPPort          int
	SQLiteDSN         string
	AdminTokenHash    string
	CalendarWebAppURL string
	MailWebAppURL     string
	SheetTimeOffset   time.Duration
	ConflictWindow    int
	ExternalTimeout   time.Duration
	NotifyMaxAttempts int
	Timezone          string
	CompanyName       string
	CompanyEmail      string
	CompanyPhone      string
}

// Load parses configuration values from the current process environment.
//
// A .env file in the working directory is merged into the environment first
// when present. The loader applies defaults for optional fields while
// validating the values it does find; empty BOOKING_ADMIN_TOKEN_HASH,
// BOOKING_CALENDAR_WEBAPP_URL and BOOKING_MAIL_WEBAPP_URL are allowed and
// disable the corresponding feature.
func Load() (Config, error) {
	// Absent .env files are not an error; real deployments use the process
	// environment directly.
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:          8080,
		SQLiteDSN:         "file:bookings.db?_foreign_keys=on",
		SheetTimeOffset:   8 * time.Hour,
		ConflictWindow:    30,
		ExternalTimeout:   30 * time.Second,
		NotifyMaxAttempts: 3,
		Timezone:          "Asia/Ho_Chi_Minh",
		CompanyName:       "Bookings Team",
		CompanyEmail:      "bookings@example.com",
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("BOOKING_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "BOOKING_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("BOOKING_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	cfg.AdminTokenHash = strings.TrimSpace(os.Getenv("BOOKING_ADMIN_TOKEN_HASH"))
	cfg.CalendarWebAppURL = strings.TrimSpace(os.Getenv("BOOKING_CALENDAR_WEBAPP_URL"))
	cfg.MailWebAppURL = strings.TrimSpace(os.Getenv("BOOKING_MAIL_WEBAPP_URL"))

	if offsetValue := strings.TrimSpace(os.Getenv("BOOKING_SHEET_TIME_OFFSET")); offsetValue != "" {
		offset, err := time.ParseDuration(offsetValue)
		if err != nil {
			invalid = append(invalid, "BOOKING_SHEET_TIME_OFFSET")
		} else {
			cfg.SheetTimeOffset = offset
		}
	}

	if windowValue := strings.TrimSpace(os.Getenv("BOOKING_CONFLICT_WINDOW")); windowValue != "" {
		window, err := strconv.Atoi(windowValue)
		if err != nil || window <= 0 {
			invalid = append(invalid, "BOOKING_CONFLICT_WINDOW")
		} else {
			cfg.ConflictWindow = window
		}
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("BOOKING_EXTERNAL_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "BOOKING_EXTERNAL_TIMEOUT")
		} else {
			cfg.ExternalTimeout = timeout
		}
	}

	if attemptsValue := strings.TrimSpace(os.Getenv("BOOKING_NOTIFY_MAX_ATTEMPTS")); attemptsValue != "" {
		attempts, err := strconv.Atoi(attemptsValue)
		if err != nil || attempts <= 0 {
			invalid = append(invalid, "BOOKING_NOTIFY_MAX_ATTEMPTS")
		} else {
			cfg.NotifyMaxAttempts = attempts
		}
	}

	if tz := strings.TrimSpace(os.Getenv("BOOKING_TIMEZONE")); tz != "" {
		cfg.Timezone = tz
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		invalid = append(invalid, "BOOKING_TIMEZONE")
	}

	if name := strings.TrimSpace(os.Getenv("BOOKING_COMPANY_NAME")); name != "" {
		cfg.CompanyName = name
	}
	if email := strings.TrimSpace(os.Getenv("BOOKING_COMPANY_EMAIL")); email != "" {
		cfg.CompanyEmail = email
	}
	if phone := strings.TrimSpace(os.Getenv("BOOKING_COMPANY_PHONE")); phone != "" {
		cfg.CompanyPhone = phone
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid values for environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
