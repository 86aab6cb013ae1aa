package config

import (
	"strings"
	"testing"
	"time"
)

func clearBookingEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BOOKING_HTTP_PORT",
		"BOOKING_SQLITE_DSN",
		"BOOKING_ADMIN_TOKEN_HASH",
		"BOOKING_CALENDAR_WEBAPP_URL",
		"BOOKING_MAIL_WEBAPP_URL",
		"BOOKING_SHEET_TIME_OFFSET",
		"BOOKING_CONFLICT_WINDOW",
		"BOOKING_EXTERNAL_TIMEOUT",
		"BOOKING_NOTIFY_MAX_ATTEMPTS",
		"BOOKING_TIMEZONE",
		"BOOKING_COMPANY_NAME",
		"BOOKING_COMPANY_EMAIL",
		"BOOKING_COMPANY_PHONE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearBookingEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want 8080", cfg.HTTPPort)
	}
	if cfg.SQLiteDSN != "file:bookings.db?_foreign_keys=on" {
		t.Errorf("SQLiteDSN = %q", cfg.SQLiteDSN)
	}
	if cfg.AdminTokenHash != "" {
		t.Errorf("AdminTokenHash = %q, want empty", cfg.AdminTokenHash)
	}
	if cfg.SheetTimeOffset != 8*time.Hour {
		t.Errorf("SheetTimeOffset = %v, want 8h", cfg.SheetTimeOffset)
	}
	if cfg.ConflictWindow != 30 {
		t.Errorf("ConflictWindow = %d, want 30", cfg.ConflictWindow)
	}
	if cfg.ExternalTimeout != 30*time.Second {
		t.Errorf("ExternalTimeout = %v, want 30s", cfg.ExternalTimeout)
	}
	if cfg.NotifyMaxAttempts != 3 {
		t.Errorf("NotifyMaxAttempts = %d, want 3", cfg.NotifyMaxAttempts)
	}
	if cfg.Timezone != "Asia/Ho_Chi_Minh" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearBookingEnv(t)
	t.Setenv("BOOKING_HTTP_PORT", "9090")
	t.Setenv("BOOKING_SQLITE_DSN", "file:/tmp/test.db")
	t.Setenv("BOOKING_ADMIN_TOKEN_HASH", "$argon2id$v=19$m=65536,t=3,p=2$abc$def")
	t.Setenv("BOOKING_CALENDAR_WEBAPP_URL", "https://script.example.com/calendar")
	t.Setenv("BOOKING_MAIL_WEBAPP_URL", "https://script.example.com/mail")
	t.Setenv("BOOKING_SHEET_TIME_OFFSET", "7h")
	t.Setenv("BOOKING_CONFLICT_WINDOW", "50")
	t.Setenv("BOOKING_EXTERNAL_TIMEOUT", "10s")
	t.Setenv("BOOKING_NOTIFY_MAX_ATTEMPTS", "5")
	t.Setenv("BOOKING_TIMEZONE", "UTC")
	t.Setenv("BOOKING_COMPANY_NAME", "Acme Rooms")
	t.Setenv("BOOKING_COMPANY_EMAIL", "rooms@acme.test")
	t.Setenv("BOOKING_COMPANY_PHONE", "+84 28 0000 0000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Errorf("HTTPPort = %d, want 9090", cfg.HTTPPort)
	}
	if cfg.SQLiteDSN != "file:/tmp/test.db" {
		t.Errorf("SQLiteDSN = %q", cfg.SQLiteDSN)
	}
	if cfg.AdminTokenHash == "" {
		t.Error("AdminTokenHash should be populated")
	}
	if cfg.CalendarWebAppURL != "https://script.example.com/calendar" {
		t.Errorf("CalendarWebAppURL = %q", cfg.CalendarWebAppURL)
	}
	if cfg.MailWebAppURL != "https://script.example.com/mail" {
		t.Errorf("MailWebAppURL = %q", cfg.MailWebAppURL)
	}
	if cfg.SheetTimeOffset != 7*time.Hour {
		t.Errorf("SheetTimeOffset = %v, want 7h", cfg.SheetTimeOffset)
	}
	if cfg.ConflictWindow != 50 {
		t.Errorf("ConflictWindow = %d, want 50", cfg.ConflictWindow)
	}
	if cfg.ExternalTimeout != 10*time.Second {
		t.Errorf("ExternalTimeout = %v, want 10s", cfg.ExternalTimeout)
	}
	if cfg.NotifyMaxAttempts != 5 {
		t.Errorf("NotifyMaxAttempts = %d, want 5", cfg.NotifyMaxAttempts)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Timezone = %q, want UTC", cfg.Timezone)
	}
	if cfg.CompanyName != "Acme Rooms" || cfg.CompanyEmail != "rooms@acme.test" || cfg.CompanyPhone != "+84 28 0000 0000" {
		t.Errorf("company identity not applied: %+v", cfg)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "non numeric port", key: "BOOKING_HTTP_PORT", value: "eighty"},
		{name: "negative port", key: "BOOKING_HTTP_PORT", value: "-1"},
		{name: "bad offset", key: "BOOKING_SHEET_TIME_OFFSET", value: "8 hours"},
		{name: "zero window", key: "BOOKING_CONFLICT_WINDOW", value: "0"},
		{name: "bad timeout", key: "BOOKING_EXTERNAL_TIMEOUT", value: "soon"},
		{name: "zero attempts", key: "BOOKING_NOTIFY_MAX_ATTEMPTS", value: "0"},
		{name: "unknown timezone", key: "BOOKING_TIMEZONE", value: "Mars/Olympus"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearBookingEnv(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("Load accepted %s=%q", tc.key, tc.value)
			}
			if !strings.Contains(err.Error(), tc.key) {
				t.Errorf("error %q does not name %s", err, tc.key)
			}
		})
	}
}
