package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Browser     BrowserConfig
	Scraper     ScraperConfig
	Credentials CredentialsConfig
	Spreadsheet SpreadsheetConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	Cache       CacheConfig
	Webhook     WebhookConfig
	Log         LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is the proxy URL for all browser traffic.
	Proxy string

	// UserAgent is sent on every request made by the session.
	UserAgent string

	// Stealth injects go-rod/stealth evasions into every document.
	Stealth bool // default: true

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string
}

// ScraperConfig controls the OpenCorporates lookup workflow.
type ScraperConfig struct {
	// BaseURL is the site root, with a trailing slash.
	BaseURL string // default: "https://opencorporates.com/"

	// States is the target state filter used to tell apart same-named
	// companies registered in different jurisdictions.
	States []string // default: ["Illinois"]

	// NavigationTimeout bounds a single page navigation.
	NavigationTimeout time.Duration // default: 30s

	// ResultsTimeout bounds the wait for search result blocks.
	ResultsTimeout time.Duration // default: 10s

	// OwnersTimeout bounds the wait for owner blocks on a company page.
	OwnersTimeout time.Duration // default: 10s

	// LoginTimeout bounds the wait for the sign-in form.
	LoginTimeout time.Duration // default: 20s
}

// CredentialsConfig holds the OpenCorporates account used to sign in.
// Values come from the environment or a .env file, never from source.
type CredentialsConfig struct {
	Email    string
	Password string
}

// Configured reports whether both email and password are set.
func (c CredentialsConfig) Configured() bool {
	return c.Email != "" && c.Password != ""
}

// SpreadsheetConfig names the batch run's input and output workbooks.
type SpreadsheetConfig struct {
	InputPath  string // default: "companies.xlsx"
	OutputPath string // default: "updated-companies.xlsx"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 0.5

	// Burst is the maximum burst size per API key.
	Burst int // default: 2
}

// CacheConfig controls the lookup cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached lookups.
	MaxEntries int // default: 5000

	// MaxAge is how long a cached lookup stays valid.
	MaxAge time.Duration // default: 24h
}

// WebhookConfig controls run notifications.
type WebhookConfig struct {
	// URL receives run.completed / run.failed events. Empty disables.
	URL string

	// Secret signs webhook bodies with HMAC-SHA256 when set.
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() *Config {
	loadDotEnv(".env")

	return &Config{
		Server: ServerConfig{
			Host: envOr("OWNERLOOKUP_HOST", "0.0.0.0"),
			Port: envIntOr("OWNERLOOKUP_PORT", 8080),
			Mode: envOr("OWNERLOOKUP_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("OWNERLOOKUP_HEADLESS", true),
			NoSandbox:  envBoolOr("OWNERLOOKUP_NO_SANDBOX", false),
			BrowserBin: os.Getenv("OWNERLOOKUP_BROWSER_BIN"),
			Proxy:      os.Getenv("OWNERLOOKUP_PROXY"),
			UserAgent:  envOr("OWNERLOOKUP_USER_AGENT", defaultUserAgent),
			Stealth:    envBoolOr("OWNERLOOKUP_STEALTH", true),
			BlockedResourceTypes: envSliceOr("OWNERLOOKUP_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
		},
		Scraper: ScraperConfig{
			BaseURL:           withTrailingSlash(envOr("OWNERLOOKUP_BASE_URL", "https://opencorporates.com/")),
			States:            envSliceOr("OWNERLOOKUP_STATES", []string{"Illinois"}),
			NavigationTimeout: envDurationOr("OWNERLOOKUP_NAV_TIMEOUT", 30*time.Second),
			ResultsTimeout:    envDurationOr("OWNERLOOKUP_RESULTS_TIMEOUT", 10*time.Second),
			OwnersTimeout:     envDurationOr("OWNERLOOKUP_OWNERS_TIMEOUT", 10*time.Second),
			LoginTimeout:      envDurationOr("OWNERLOOKUP_LOGIN_TIMEOUT", 20*time.Second),
		},
		Credentials: CredentialsConfig{
			Email:    os.Getenv("OPENCORPORATES_EMAIL"),
			Password: os.Getenv("OPENCORPORATES_PASSWORD"),
		},
		Spreadsheet: SpreadsheetConfig{
			InputPath:  envOr("OWNERLOOKUP_INPUT", "companies.xlsx"),
			OutputPath: envOr("OWNERLOOKUP_OUTPUT", "updated-companies.xlsx"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("OWNERLOOKUP_AUTH_ENABLED", true),
			APIKeys: envSliceOr("OWNERLOOKUP_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("OWNERLOOKUP_RATE_RPS", 0.5),
			Burst:             envIntOr("OWNERLOOKUP_RATE_BURST", 2),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("OWNERLOOKUP_CACHE_MAX_ENTRIES", 5000),
			MaxAge:     envDurationOr("OWNERLOOKUP_CACHE_MAX_AGE", 24*time.Hour),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("OWNERLOOKUP_WEBHOOK_URL"),
			Secret: os.Getenv("OWNERLOOKUP_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("OWNERLOOKUP_LOG_LEVEL", "info"),
			Format: envOr("OWNERLOOKUP_LOG_FORMAT", "text"),
		},
	}
}

// loadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load env file", "path", path, "error", err)
	}
}

func withTrailingSlash(u string) string {
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
