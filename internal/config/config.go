package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Remote bookmark service
	ServerURL      string        // ex: "https://bookmarks.domain.ext"
	Token          string        // optional bearer credential; overrides the stored one
	RequestTimeout time.Duration // per HTTP request (default: 15s)
	Profile        string        // state namespace, derived from the server host

	// Local control API
	ListenAddr      string        // ex: "127.0.0.1:7373"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Polling
	PollInterval       time.Duration // metadata cadence while visible and idle (default: 15s)
	PollBusyInterval   time.Duration // while server tasks are pending (default: 3s)
	PollHiddenInterval time.Duration // while hidden, 0 = paused (default: 2m)
	CacheTTL           time.Duration // conditional-fetch entries older than this are swept (default: 30m)
	CacheSweepInterval time.Duration // default: CacheTTL / 2

	// Query state
	StartURL string // optional URL whose query string seeds the initial query
	PinURL   bool   // mirror the query into StartURL on every change

	// Client state persistence
	StateFile string // YAML state file, used when RedisAddr is empty

	// Redis (optional)
	RedisAddr             string        // ex: "localhost:6379", empty = file state
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	MutationBurst     int // per-client burst for bookmark edits on the control API, 0 = unlimited
	MutationPerMinute int // refill rate for bookmark edits

	AllowedHosts []string // Host headers accepted by the control API, "*" for any
	AllowedCIDRS []string // restrict the control API to these networks (default: loopback)
	TrustProxy   bool     // true => trust X-Forwarded-For headers
}

func Load() *Config {
	serverURL := strings.TrimRight(requireEnv("MARKSYNC_SERVER_URL"), "/")

	cfg := &Config{
		ServerURL:      serverURL,
		Token:          getenv("MARKSYNC_TOKEN", ""),
		RequestTimeout: mustDuration("MARKSYNC_REQUEST_TIMEOUT", 15*time.Second),
		Profile:        getenv("MARKSYNC_PROFILE", profileFromURL(serverURL)),

		ListenAddr:      getenv("MARKSYNC_LISTEN_ADDR", "127.0.0.1:7373"),
		ShutdownTimeout: mustDuration("MARKSYNC_SHUTDOWN_TIMEOUT", 5*time.Second),

		LogLevel:  getenv("MARKSYNC_LOG_LEVEL", "info"),
		PrettyLog: mustBool("MARKSYNC_PRETTY_LOG", true),

		PollInterval:       mustDuration("MARKSYNC_POLL_INTERVAL", 15*time.Second),
		PollBusyInterval:   mustDuration("MARKSYNC_POLL_BUSY_INTERVAL", 3*time.Second),
		PollHiddenInterval: mustDuration("MARKSYNC_POLL_HIDDEN_INTERVAL", 2*time.Minute),
		CacheTTL:           mustDuration("MARKSYNC_CACHE_TTL", 30*time.Minute),

		StartURL: getenv("MARKSYNC_START_URL", ""),
		PinURL:   mustBool("MARKSYNC_PIN_URL", false),

		StateFile: getenv("MARKSYNC_STATE_FILE", defaultStateFile()),

		RedisAddr:             getenv("MARKSYNC_REDIS_ADDR", ""),
		RedisUser:             getenv("MARKSYNC_REDIS_USERNAME", ""),
		RedisPasswordRequired: mustBool("MARKSYNC_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("MARKSYNC_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("MARKSYNC_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 4),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		MutationBurst:     getenvInt("MARKSYNC_MUTATION_BURST", 30),
		MutationPerMinute: getenvInt("MARKSYNC_MUTATION_PER_MINUTE", 120),

		AllowedHosts: splitAndTrim(getenv("MARKSYNC_ALLOWED_HOSTS", "localhost,127.0.0.1,::1")),
		AllowedCIDRS: parseAllowedIPs(getenv("MARKSYNC_ALLOWED_CIDRS", "127.0.0.1/32,::1/128")),
		TrustProxy:   mustBool("MARKSYNC_TRUST_PROXY", false),
	}
	cfg.CacheSweepInterval = mustDuration("MARKSYNC_CACHE_SWEEP_INTERVAL", cfg.CacheTTL/2)

	if _, err := url.ParseRequestURI(cfg.ServerURL); err != nil {
		panic(fmt.Sprintf("❌ FATAL: MARKSYNC_SERVER_URL is not a valid URL: %s", cfg.ServerURL))
	}
	if cfg.RedisAddr != "" && cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: MARKSYNC_REDIS_PASSWORD is required when MARKSYNC_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	out := *c
	if out.Token != "" {
		out.Token = "***REDACTED***"
	}
	if out.RedisPassword != "" {
		out.RedisPassword = "***REDACTED***"
	}
	if out.RedisUser != "" {
		out.RedisUser = "***REDACTED***"
	}
	return out
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// profileFromURL names the state namespace after the server host.
// Examples: "https://bm.domain.ext/" -> "bm.domain.ext"
//
//	"http://10.0.0.2:3000" -> "10.0.0.2:3000"
func profileFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "default"
	}
	return strings.ToLower(u.Host)
}

func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".marksync-state.yaml"
	}
	return filepath.Join(dir, "marksync", "state.yaml")
}
