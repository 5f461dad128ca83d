package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	ListenAddr    string
	LogLevel      string
	DataDir       string
	GuestListFile string
	ReceiptStore  string
	PublicBaseURL string

	CeremonyAt  time.Time
	CoupleNames string
	WeddingDate string

	EmailJSEndpoint   string
	EmailJSServiceID  string
	EmailJSTemplateID string
	EmailJSPublicKey  string
	SubmitTimeout     time.Duration
	SubmitRetries     int

	WhatsAppEnabled      bool
	WhatsAppDataDir      string
	WhatsAppNotifyNumber string
	WhatsAppCountryCode  string
}

// LoadConfig loads configuration from environment variables or defaults.
// Variables from a .env file in the working directory are loaded first and
// never override the real environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	loc, err := time.LoadLocation(getEnv("CEREMONY_TZ", "Asia/Colombo"))
	if err != nil {
		return nil, fmt.Errorf("invalid CEREMONY_TZ: %w", err)
	}
	ceremonyAt, err := time.ParseInLocation("2006-01-02T15:04:05", getEnv("CEREMONY_AT", "2026-05-09T09:00:00"), loc)
	if err != nil {
		return nil, fmt.Errorf("invalid CEREMONY_AT: %w", err)
	}

	submitTimeout, err := time.ParseDuration(getEnv("SUBMIT_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SUBMIT_TIMEOUT: %w", err)
	}
	submitRetries, err := strconv.Atoi(getEnv("SUBMIT_RETRIES", "0"))
	if err != nil || submitRetries < 0 {
		return nil, fmt.Errorf("invalid SUBMIT_RETRIES %q", os.Getenv("SUBMIT_RETRIES"))
	}

	dataDir := getEnv("DATA_DIR", "data")
	cfg := &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DataDir:       dataDir,
		GuestListFile: getEnv("GUEST_LIST_FILE", ""),
		ReceiptStore:  strings.ToLower(getEnv("RECEIPT_STORE", "json")),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080/"),

		CeremonyAt:  ceremonyAt,
		CoupleNames: getEnv("COUPLE_NAMES", "The Bride & The Groom"),
		WeddingDate: getEnv("WEDDING_DATE", ceremonyAt.Format("Monday, 2 January 2006")),

		EmailJSEndpoint:   getEnv("EMAILJS_ENDPOINT", ""),
		EmailJSServiceID:  getEnv("EMAILJS_SERVICE_ID", ""),
		EmailJSTemplateID: getEnv("EMAILJS_TEMPLATE_ID", ""),
		EmailJSPublicKey:  getEnv("EMAILJS_PUBLIC_KEY", ""),
		SubmitTimeout:     submitTimeout,
		SubmitRetries:     submitRetries,

		WhatsAppEnabled:      getBool("WHATSAPP_ENABLED", false),
		WhatsAppDataDir:      getEnv("WHATSAPP_DATA_DIR", dataDir),
		WhatsAppNotifyNumber: getEnv("WHATSAPP_NOTIFY_NUMBER", ""),
		WhatsAppCountryCode:  getEnv("WHATSAPP_COUNTRY_CODE", "94"),
	}

	switch cfg.ReceiptStore {
	case "json", "sqlite":
	default:
		return nil, fmt.Errorf("invalid RECEIPT_STORE %q (want json or sqlite)", cfg.ReceiptStore)
	}

	return cfg, nil
}

// EmailJSConfigured reports whether RSVPs can be forwarded
func (c *Config) EmailJSConfigured() bool {
	return c.EmailJSPublicKey != "" && c.EmailJSServiceID != "" && c.EmailJSTemplateID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return b
}
