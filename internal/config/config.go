package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Shared demo backend used when neither TENANTDESK_REMOTE_URL nor
// TENANTDESK_REMOTE_KEY is set.
const (
	DefaultRemoteURL = "http://localhost:54321"
	DefaultRemoteKey = "tenantdesk-demo-anon-key"
)

// dotenvFile is loaded, when present, before the environment is read.
var dotenvFile = ".env"

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Remote      RemoteConfig
	Cache       CacheConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Server      ServerConfig
	Owner       OwnerConfig
	Log         LogConfig
	SeedOnStart bool
}

// RemoteDriver names the remote backend selected by the configuration.
type RemoteDriver string

const (
	DriverDisabled RemoteDriver = "disabled"
	DriverREST     RemoteDriver = "rest"
	DriverPostgres RemoteDriver = "postgres"
)

// RemoteConfig holds remote store settings.
type RemoteConfig struct {
	URL         string
	Key         string //nolint:gosec // G117: remote access credential
	DatabaseURL string
	Disabled    bool
	Timeout     time.Duration
	MaxConns    int
}

// Driver reports which remote adapter to construct. A direct database URL
// wins over the REST endpoint.
func (c *RemoteConfig) Driver() RemoteDriver {
	switch {
	case c.Disabled:
		return DriverDisabled
	case c.DatabaseURL != "":
		return DriverPostgres
	case c.URL != "" && c.Key != "":
		return DriverREST
	default:
		return DriverDisabled
	}
}

// CacheConfig holds the local durable cache location.
type CacheConfig struct {
	Path string
}

// RedisConfig holds Redis connection settings. An empty Addr disables
// change events.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// Enabled reports whether a Redis address was configured.
func (c *RedisConfig) Enabled() bool { return c.Addr != "" }

// JWTConfig holds JWT authentication settings.
type JWTConfig struct {
	Secret     string //nolint:gosec // G117: JWT signing secret config
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// OwnerConfig is the platform owner credential.
type OwnerConfig struct {
	Email    string
	Password string //nolint:gosec // G117: owner credential config
}

// LogConfig selects the zerolog level and output format.
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Load reads configuration from environment variables, after applying a
// .env file from the working directory if one exists. Values already set in
// the environment win over the file.
// Defaults are safe for local development only. The HTTP service must also
// pass ValidateServer.
func Load() (*Config, error) {
	if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: %s: %w", dotenvFile, err)
	}

	remoteDisabled, err := getEnvBool("TENANTDESK_REMOTE_DISABLED", false)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	remoteTimeout, err := getEnvDuration("TENANTDESK_REMOTE_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("TENANTDESK_DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("TENANTDESK_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	accessTTL, err := getEnvDuration("TENANTDESK_JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	refreshTTL, err := getEnvDuration("TENANTDESK_JWT_REFRESH_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("TENANTDESK_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("TENANTDESK_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rps, err := getEnvFloat("TENANTDESK_RATE_LIMIT_RPS", 20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	burst, err := getEnvInt("TENANTDESK_RATE_LIMIT_BURST", 40)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	seedOnStart, err := getEnvBool("TENANTDESK_SEED_ON_START", true)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	remoteURL := os.Getenv("TENANTDESK_REMOTE_URL")
	remoteKey := os.Getenv("TENANTDESK_REMOTE_KEY")
	if remoteURL == "" && remoteKey == "" {
		remoteURL, remoteKey = DefaultRemoteURL, DefaultRemoteKey
	}

	cfg := &Config{
		Remote: RemoteConfig{
			URL:         remoteURL,
			Key:         remoteKey,
			DatabaseURL: getEnv("TENANTDESK_DATABASE_URL", ""),
			Disabled:    remoteDisabled,
			Timeout:     remoteTimeout,
			MaxConns:    dbMaxConns,
		},
		Cache: CacheConfig{
			Path: getEnv("TENANTDESK_CACHE_PATH", "./tenantdesk.db"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("TENANTDESK_REDIS_ADDR", ""),
			Password: getEnv("TENANTDESK_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:     getEnv("TENANTDESK_JWT_SECRET", ""),
			AccessTTL:  accessTTL,
			RefreshTTL: refreshTTL,
		},
		Server: ServerConfig{
			Addr:           getEnv("TENANTDESK_SERVER_ADDR", ":8080"),
			ReadTimeout:    readTimeout,
			WriteTimeout:   writeTimeout,
			CORSOrigins:    getEnvList("TENANTDESK_CORS_ORIGINS", []string{"http://localhost:5173"}),
			RateLimitRPS:   rps,
			RateLimitBurst: burst,
		},
		Owner: OwnerConfig{
			Email:    getEnv("TENANTDESK_OWNER_EMAIL", ""),
			Password: getEnv("TENANTDESK_OWNER_PASSWORD", ""),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("TENANTDESK_LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("TENANTDESK_LOG_FORMAT", "json")),
		},
		SeedOnStart: seedOnStart,
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks value bounds shared by every binary.
func (c *Config) validate() error {
	if c.Remote.Driver() == DriverREST && c.Remote.URL == DefaultRemoteURL {
		log.Warn().Msg("TENANTDESK_REMOTE_URL not set; using the shared demo backend")
	}

	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("TENANTDESK_REMOTE_TIMEOUT must be positive, got %s", c.Remote.Timeout)
	}
	if c.Remote.MaxConns < 1 {
		return fmt.Errorf("TENANTDESK_DB_MAX_CONNS must be >= 1, got %d", c.Remote.MaxConns)
	}
	if c.Cache.Path == "" {
		return errors.New("TENANTDESK_CACHE_PATH must not be empty")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("TENANTDESK_REDIS_DB must be >= 0, got %d", c.Redis.DB)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("TENANTDESK_LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}

	return nil
}

// ValidateServer checks the settings only the HTTP service needs.
func (c *Config) ValidateServer() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("TENANTDESK_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("TENANTDESK_JWT_SECRET must be at least 32 characters")
	}

	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("TENANTDESK_JWT_ACCESS_TTL must be positive, got %s", c.JWT.AccessTTL)
	}
	if c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("TENANTDESK_JWT_REFRESH_TTL must be positive, got %s", c.JWT.RefreshTTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("TENANTDESK_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("TENANTDESK_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.RateLimitRPS <= 0 {
		return fmt.Errorf("TENANTDESK_RATE_LIMIT_RPS must be positive, got %g", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("TENANTDESK_RATE_LIMIT_BURST must be >= 1, got %d", c.Server.RateLimitBurst)
	}

	// Either both owner fields or neither.
	if (c.Owner.Email == "") != (c.Owner.Password == "") {
		return errors.New("TENANTDESK_OWNER_EMAIL and TENANTDESK_OWNER_PASSWORD must be set together")
	}
	if c.Owner.Email == "" {
		log.Warn().Msg("no platform owner configured; tenant provisioning is unreachable")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
