package config

import (
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// DefaultSigningKey is a functional development key. Anything that boots with
// it logs a warning; production deployments override it via INKWELL_SIGNING_KEY.
const DefaultSigningKey = "insecure-dev-signing-key-change-me"

// Config holds the full application configuration. Loaded once at startup
// from the environment and treated as immutable; it is passed explicitly to
// the token service and password hasher rather than read as globals.
type Config struct {
	AppName string
	Address string

	// Persistence
	DSN string

	// Auth
	SigningKey           string
	SigningMethod        string
	TokenTTL             time.Duration // codec default for non-interactive issuance
	SessionTTL           time.Duration // interactive browser/API sessions
	CookieName           string
	RejectedRouteKey     string
	RejectedRouteDefault string
	BcryptCost           int

	// Startup
	BootstrapAdmin    bool
	AdminUsername     string
	AdminPassword     string
}

// Load reads configuration from the environment, applying defaults for every
// value so a bare `go run` works against a local sqlite file.
func Load() *Config {
	return &Config{
		AppName: getEnv("INKWELL_APP_NAME", "inkwell"),
		Address: getEnv("INKWELL_ADDRESS", ":8080"),

		DSN: getEnv("INKWELL_DSN", "file:inkwell.db?cache=shared&_pragma=foreign_keys(1)"),

		SigningKey:           getEnv("INKWELL_SIGNING_KEY", DefaultSigningKey),
		SigningMethod:        getEnv("INKWELL_SIGNING_METHOD", "HS256"),
		TokenTTL:             getDuration("INKWELL_TOKEN_TTL", 15*time.Minute),
		SessionTTL:           getDuration("INKWELL_SESSION_TTL", 30*time.Minute),
		CookieName:           getEnv("INKWELL_COOKIE_NAME", "access_token"),
		RejectedRouteKey:     getEnv("INKWELL_REJECTED_ROUTE_KEY", "rejected_route"),
		RejectedRouteDefault: getEnv("INKWELL_REJECTED_ROUTE_DEFAULT", "/posts"),
		BcryptCost:           getInt("INKWELL_BCRYPT_COST", bcrypt.DefaultCost),

		BootstrapAdmin: getBool("INKWELL_BOOTSTRAP_ADMIN", true),
		AdminUsername:  getEnv("INKWELL_ADMIN_USERNAME", "admin"),
		AdminPassword:  getEnv("INKWELL_ADMIN_PASSWORD", "admin"),
	}
}

// UsingDefaultSigningKey reports whether the insecure development key is active.
func (c *Config) UsingDefaultSigningKey() bool {
	return c.SigningKey == DefaultSigningKey
}

// auth.Config getters. The auth package consumes configuration through an
// interface so tests can supply fixtures without touching the environment.

func (c *Config) GetSigningKey() string    { return c.SigningKey }
func (c *Config) GetSigningMethod() string { return c.SigningMethod }

func (c *Config) GetTokenTTL() time.Duration   { return c.TokenTTL }
func (c *Config) GetSessionTTL() time.Duration { return c.SessionTTL }

func (c *Config) GetCookieName() string           { return c.CookieName }
func (c *Config) GetRejectedRouteKey() string     { return c.RejectedRouteKey }
func (c *Config) GetRejectedRouteDefault() string { return c.RejectedRouteDefault }

func (c *Config) GetBcryptCost() int { return c.BcryptCost }

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
