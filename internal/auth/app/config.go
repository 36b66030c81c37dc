package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/outta-ai/outta-auth/pkg/httpx"
)

// Member store drivers.
const (
	StoreMemory    = "memory"
	StoreSQLite    = "sqlite"
	StoreFirestore = "firestore"
)

type Config struct {
	BaseURL           string // Required: public URL of this service, used for the OAuth redirect URI
	TokenSecret       string // Required: cookie encryption secret (64 hex chars)
	TokenSecretHashed bool   // Optional: derive the cookie key as SHA-256 of TokenSecret
	PublicTokenSecret string // Required: session token signing secret (64 hex chars)

	GoogleClientID     string // Required
	GoogleClientSecret string // Required
	GoogleAuthURL      string // Optional: endpoint override for tests
	GoogleTokenURL     string // Optional: endpoint override for tests
	GoogleUserInfoURL  string // Optional: endpoint override for tests

	MemberStore         string // Optional: memory, sqlite or firestore (default: sqlite)
	MemberDatabaseFile  string // Optional: SQLite file (default: ./members.db)
	FirestoreProjectID  string // Required for firestore
	FirestoreDatabase   string // Optional: Firestore database id
	FirestoreCollection string // Optional: member collection (default: members)

	CORSAllowedOrigins []string // Optional: origins allowed to call the API with credentials
	RateLimits         httpx.RateLimits

	Env                 string        // Environment (dev, production) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 3001)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	ProviderTimeout     time.Duration // Identity provider request timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		BaseURL:           strings.TrimRight(os.Getenv("BASE_URL"), "/"),
		TokenSecret:       os.Getenv("TOKEN_SECRET"),
		TokenSecretHashed: getEnvBool("TOKEN_SECRET_HASHED"),
		PublicTokenSecret: os.Getenv("PUBLIC_TOKEN_SECRET"),

		GoogleClientID:     os.Getenv("GOOGLE_OAUTH_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_OAUTH_CLIENT_SECRET"),
		GoogleAuthURL:      os.Getenv("GOOGLE_OAUTH_AUTH_URL"),
		GoogleTokenURL:     os.Getenv("GOOGLE_OAUTH_TOKEN_URL"),
		GoogleUserInfoURL:  os.Getenv("GOOGLE_USERINFO_URL"),

		MemberStore:         getEnvOrDefault("MEMBER_STORE", StoreSQLite),
		MemberDatabaseFile:  getEnvOrDefault("MEMBER_DATABASE_FILE", "members.db"),
		FirestoreProjectID:  os.Getenv("FIRESTORE_PROJECT_ID"),
		FirestoreDatabase:   os.Getenv("FIRESTORE_DATABASE"),
		FirestoreCollection: os.Getenv("FIRESTORE_COLLECTION"),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		RateLimits:         httpx.RateLimitsFromEnv(),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 3001),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		ProviderTimeout:     getEnvDurationOrDefault("PROVIDER_TIMEOUT", 10*time.Second),
	}
}

// Production reports whether cookies must be Secure.
func (c Config) Production() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate checks everything the service needs before it starts serving.
// Provider credentials are checked separately by each provider's Config.
func (c Config) Validate() error {
	var errs []error

	if c.BaseURL == "" {
		errs = append(errs, errors.New("missing BASE_URL"))
	} else if u, err := url.Parse(c.BaseURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("invalid BASE_URL %q", c.BaseURL))
	}

	if c.TokenSecret == "" {
		errs = append(errs, errors.New("missing TOKEN_SECRET"))
	}
	if c.PublicTokenSecret == "" {
		errs = append(errs, errors.New("missing PUBLIC_TOKEN_SECRET"))
	}

	switch c.MemberStore {
	case StoreMemory, StoreSQLite:
	case StoreFirestore:
		if c.FirestoreProjectID == "" {
			errs = append(errs, errors.New("missing FIRESTORE_PROJECT_ID for MEMBER_STORE=firestore"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MEMBER_STORE %q", c.MemberStore))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	_, err := LoadKeys(c)
	return err
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}

func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are seconds.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
