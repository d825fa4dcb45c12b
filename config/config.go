package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendRedis     = "redis"
	BackendFirestore = "firestore"
)

// Config is read once at startup and handed to every component that needs it.
type Config struct {
	Port           string
	AdminCode      string
	Env            string
	AllowedOrigins []string
	// Proxies allowed to set X-Forwarded-For. Empty means the socket peer is the client.
	TrustedProxies []string

	RateLimitMax    int64
	RateLimitWindow time.Duration

	StoreBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	FirebaseProjectID   string
	FirebaseCredentials string // path to a service account file
	FirebaseCredsJSON   string // inline service account JSON

	ShutdownTimeout time.Duration
}

// IsDevelopment reports whether stack traces may be exposed in error bodies.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}

	cfg := Config{
		Port:                getenv("PORT", "5000"),
		AdminCode:           os.Getenv("ADMIN_CODE"),
		Env:                 getenv("APP_ENV", "production"),
		AllowedOrigins:      splitList(getenv("ALLOWED_ORIGINS", "http://localhost:3000")),
		TrustedProxies:      splitList(os.Getenv("TRUSTED_PROXIES")),
		RateLimitMax:        int64(getenvInt("RATE_LIMIT_MAX", 100)),
		RateLimitWindow:     getenvDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		StoreBackend:        strings.ToLower(getenv("STORE_BACKEND", BackendRedis)),
		RedisAddr:           getenv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             getenvInt("REDIS_DB", 0),
		FirebaseProjectID:   os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseCredentials: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		FirebaseCredsJSON:   os.Getenv("FIREBASE_CREDENTIALS_JSON"),
		ShutdownTimeout:     getenvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.AdminCode == "" {
		return errors.New("ADMIN_CODE must be set")
	}
	switch c.StoreBackend {
	case BackendRedis:
	case BackendFirestore:
		if c.FirebaseProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID must be set for the firestore backend")
		}
	default:
		return errors.New("STORE_BACKEND must be redis or firestore")
	}
	for _, p := range c.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("TRUSTED_PROXIES: %q is not an IP or CIDR", p)
			}
		}
	}
	if c.RateLimitMax <= 0 || c.RateLimitWindow <= 0 {
		return errors.New("rate limit max and window must be positive")
	}
	return nil
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_MS"); val != "" {
		if ms, err := strconv.Atoi(val); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
