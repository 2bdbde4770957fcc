package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scrape    ScrapeConfig
	Store     StoreConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Webhook   WebhookConfig
	Log       LogConfig
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

	// DefaultProxy is the proxy URL for all browser traffic.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// BlockedResourceTypes lists resource types to block during scraping.
	// Stylesheets are deliberately not on the default list: layout drives
	// the lazy-load scroll math.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string
}

// ScrapeConfig controls the timing of the scrape run. The behavioral
// thresholds (low-yield limits, scroll iteration caps) are engine constants,
// not configuration; only delays and deadlines live here.
type ScrapeConfig struct {
	// NavigationTimeout is the deadline for a single page navigation.
	NavigationTimeout time.Duration // default: 20s

	// PageSettleDelay is the suspension after navigating to the next
	// listing page before extraction starts.
	PageSettleDelay time.Duration // default: 3s

	// ScrollSettleDelay is the suspension after each lazy-load scroll step.
	ScrollSettleDelay time.Duration // default: 3s

	// CardSettleDelay is the suspension after scrolling a card into view,
	// before the click is triggered.
	CardSettleDelay time.Duration // default: 500ms

	// CardDelay is the fixed pacing between consecutive card interactions.
	// This is a deliberate load-shedding measure against the target site.
	CardDelay time.Duration // default: 1s

	// DetailPollInterval and DetailPollTimeout bound the wait for the
	// detail panel to materialize after a card click. The timeout is soft:
	// expiry proceeds with whatever rendered, it does not fail the record.
	DetailPollInterval time.Duration // default: 500ms
	DetailPollTimeout  time.Duration // default: 10s

	// WatcherTTL bounds the ad-hoc insertion watcher's lifetime.
	WatcherTTL time.Duration // default: 30s

	// WatcherSettleDelay is the suspension between an observed insertion
	// and the re-extraction pass.
	WatcherSettleDelay time.Duration // default: 1500ms
}

// StoreConfig controls persistence.
type StoreConfig struct {
	// Path is the SQLite database file.
	Path string // default: "jobsift.db"

	// ExportDir is where CSV exports are written.
	ExportDir string // default: "."
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-identity API rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per identity.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per identity.
	Burst int // default: 10
}

// CacheConfig controls the detail-enrichment memo.
type CacheConfig struct {
	// MaxEntries is the maximum number of memoized detail extractions.
	MaxEntries int // default: 1000
}

// WebhookConfig controls run lifecycle event delivery.
type WebhookConfig struct {
	// URL receives run.completed / run.aborted / run.stopped events.
	// Empty disables delivery.
	URL string

	// Secret signs event bodies with HMAC-SHA256 when non-empty.
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("JOBSIFT_HOST", "0.0.0.0"),
			Port: envIntOr("JOBSIFT_PORT", 8080),
			Mode: envOr("JOBSIFT_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("JOBSIFT_HEADLESS", true),
			DefaultProxy: os.Getenv("JOBSIFT_PROXY"),
			NoSandbox:    envBoolOr("JOBSIFT_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("JOBSIFT_BROWSER_BIN"),
			BlockedResourceTypes: envSliceOr("JOBSIFT_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
		},
		Scrape: ScrapeConfig{
			NavigationTimeout:  envDurationOr("JOBSIFT_NAV_TIMEOUT", 20*time.Second),
			PageSettleDelay:    envDurationOr("JOBSIFT_PAGE_SETTLE", 3*time.Second),
			ScrollSettleDelay:  envDurationOr("JOBSIFT_SCROLL_SETTLE", 3*time.Second),
			CardSettleDelay:    envDurationOr("JOBSIFT_CARD_SETTLE", 500*time.Millisecond),
			CardDelay:          envDurationOr("JOBSIFT_CARD_DELAY", time.Second),
			DetailPollInterval: envDurationOr("JOBSIFT_DETAIL_POLL_INTERVAL", 500*time.Millisecond),
			DetailPollTimeout:  envDurationOr("JOBSIFT_DETAIL_POLL_TIMEOUT", 10*time.Second),
			WatcherTTL:         envDurationOr("JOBSIFT_WATCHER_TTL", 30*time.Second),
			WatcherSettleDelay: envDurationOr("JOBSIFT_WATCHER_SETTLE", 1500*time.Millisecond),
		},
		Store: StoreConfig{
			Path:      envOr("JOBSIFT_DB", "jobsift.db"),
			ExportDir: envOr("JOBSIFT_EXPORT_DIR", "."),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("JOBSIFT_AUTH_ENABLED", false),
			APIKeys: envSliceOr("JOBSIFT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("JOBSIFT_RATE_RPS", 5.0),
			Burst:             envIntOr("JOBSIFT_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("JOBSIFT_CACHE_MAX_ENTRIES", 1000),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("JOBSIFT_WEBHOOK_URL"),
			Secret: os.Getenv("JOBSIFT_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("JOBSIFT_LOG_LEVEL", "info"),
			Format: envOr("JOBSIFT_LOG_FORMAT", "json"),
		},
	}
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
