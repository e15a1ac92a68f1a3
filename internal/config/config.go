package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port           string
	AllowedOrigins []string

	DataDir     string
	StoreDriver string
	SQLitePath  string
	DatabaseURL string

	AdminUsername string
	AdminPassword string

	Timezone string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	WeddingDate     string
	WeddingLocation string
	BrideName       string
	GroomName       string

	WhatsAppEnabled    bool
	HostWhatsAppNumber string
	PhoneCountryCode   string

	LogLevel  string
	LogFormat string
}

// Store drivers
const (
	DriverSQLite   = "sqlite"
	DriverJSON     = "json"
	DriverPostgres = "postgres"
)

// LoadConfig loads configuration from .env, environment variables or defaults
func LoadConfig(envFiles ...string) *Config {
	if len(envFiles) == 0 {
		godotenv.Load()
	} else {
		godotenv.Load(envFiles...)
	}

	dataDir := getEnv("DATA_DIR", "data")
	smtpUser := getEnv("EMAIL_USER", "")

	return &Config{
		Port:           getEnv("PORT", "5000"),
		AllowedOrigins: parseList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),

		DataDir:     dataDir,
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverSQLite)),
		SQLitePath:  getEnv("SQLITE_PATH", filepath.Join(dataDir, "guests.db")),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		Timezone: getEnv("TIMEZONE", "Asia/Manila"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: smtpUser,
		SMTPPassword: getEnv("EMAIL_PASS", ""),
		MailFrom:     getEnv("MAIL_FROM", smtpUser),

		WeddingDate:     getEnv("WEDDING_DATE", ""),
		WeddingLocation: getEnv("WEDDING_LOCATION", ""),
		BrideName:       getEnv("BRIDE_NAME", "Bride"),
		GroomName:       getEnv("GROOM_NAME", "Groom"),

		WhatsAppEnabled:    getEnvBool("WHATSAPP_ENABLED", false),
		HostWhatsAppNumber: getEnv("HOST_WHATSAPP_NUMBER", ""),
		PhoneCountryCode:   getEnv("PHONE_COUNTRY_CODE", "63"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}
}

// Validate reports settings that cannot work together
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverSQLite, DriverJSON:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s store", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q: must be one of %s, %s, %s", c.StoreDriver, DriverSQLite, DriverJSON, DriverPostgres)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	if c.WhatsAppEnabled && c.HostWhatsAppNumber == "" {
		return fmt.Errorf("HOST_WHATSAPP_NUMBER is required when WHATSAPP_ENABLED is set")
	}
	return nil
}

// Location resolves the zone responses are stamped in
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// MailEnabled reports whether confirmation emails are actually sent
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.MailFrom != ""
}

// JSONStorePath is where the json driver keeps the guest list
func (c *Config) JSONStorePath() string {
	return filepath.Join(c.DataDir, "guests.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return b
}

func parseList(s string) []string {
	parts := strings.Split(s, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			list = append(list, p)
		}
	}
	return list
}
