package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env         string        // application environment (development, production)
	Port        string        // HTTP port to listen on
	DBUser      string        // database username
	DBPass      string        // database password (optional)
	DBHost      string        // database host address
	DBPort      string        // database port number
	DBName      string        // database name
	DBMigrate   bool          // apply embedded migrations at startup
	JWTSecret   string        // secret used to sign session tokens
	TokenTTL    time.Duration // session token lifetime
	BcryptCost  int           // bcrypt cost for password hashing
	CORSOrigins []string      // origins allowed to call the API with credentials
	Mail        MailConfig
	Cache       ProfileCacheConfig
}

// defaultOrigins are always allowed; FRONTEND_URL is appended when set.
var defaultOrigins = []string{
	"http://localhost:3000",
	"https://my-app-rose-six.vercel.app",
}

// Load reads configuration values from the environment, after merging a
// .env file if one is present.  Every missing required variable is
// reported in the returned error.
func Load() (Config, error) {
	_ = godotenv.Load()

	var missing []error
	must := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, fmt.Errorf("missing required env var: %s", key))
		}
		return v
	}

	cfg := Config{
		Env:        envStr("APP_ENV", "development"),
		Port:       envStr("APP_PORT", envStr("PORT", "5000")),
		DBUser:     must("DB_USER"),
		DBPass:     os.Getenv("DB_PASS"),
		DBHost:     must("DB_HOST"),
		DBPort:     envStr("DB_PORT", "3306"),
		DBName:     must("DB_NAME"),
		DBMigrate:  envBool("DB_MIGRATE", true),
		JWTSecret:  must("JWT_SECRET"),
		TokenTTL:   envDur("TOKEN_TTL", 7*24*time.Hour),
		BcryptCost: envInt("BCRYPT_COST", 10),
		Mail:       LoadMailConfig(),
		Cache:      LoadProfileCacheConfig(),
	}
	cfg.CORSOrigins = append([]string{}, defaultOrigins...)
	if fe := strings.TrimSpace(os.Getenv("FRONTEND_URL")); fe != "" {
		cfg.CORSOrigins = append(cfg.CORSOrigins, fe)
	}
	if extra := envList("CORS_ALLOWED_ORIGINS"); len(extra) > 0 {
		cfg.CORSOrigins = append(cfg.CORSOrigins, extra...)
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		missing = append(missing, fmt.Errorf("BCRYPT_COST out of range: %d", cfg.BcryptCost))
	}
	if cfg.TokenTTL <= 0 {
		missing = append(missing, fmt.Errorf("TOKEN_TTL must be positive"))
	}
	if err := errors.Join(missing...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Production reports whether the service runs with production settings.
func (c Config) Production() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}

func envList(k string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(k), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
