package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName          = "HomePlanner"
	defaultAppEnv           = "development"
	defaultPort             = "8080"
	defaultLogLevel         = "info"
	defaultShutdownDelay    = 10 * time.Second
	defaultIdempotencyTTL   = 24 * time.Hour
	defaultAccessTokenTTL   = 30 * time.Minute
	defaultRefreshTokenTTL  = 14 * 24 * time.Hour
	defaultCalcCacheTTL     = 10 * time.Minute
	defaultCoupleInviteTTL  = 72 * time.Hour
	defaultAutoDebitHour    = 9
	defaultCalendarStore    = "postgres"
	defaultMongoDatabase    = "home_planner"
	defaultInviteBaseURL    = "http://localhost:5173"
	defaultLoginAttempts    = 5
	idemTTLSecondsEnvVar    = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar        = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar   = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar  = "SHUTDOWN_TIMEOUT"
	accessTTLEnvVar         = "ACCESS_TOKEN_TTL"
	refreshTTLEnvVar        = "REFRESH_TOKEN_TTL"
	calcCacheTTLEnvVar      = "CALC_CACHE_TTL"
	coupleInviteTTLEnvVar   = "COUPLE_INVITE_TTL"
	autoDebitHourEnvVar     = "AUTO_DEBIT_HOUR"
	loginAttemptsEnvVar     = "LOGIN_ATTEMPTS_PER_MINUTE"
	schedulerEnabledEnvVar  = "SCHEDULER_ENABLED"
	calendarStoreEnvVar     = "CALENDAR_STORE"
	developmentJWTSecret    = "dev-access-secret-change-me"
	developmentRefreshToken = "dev-refresh-secret-change-me"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName          string
	AppEnv           string
	Port             string
	LogLevel         string
	DatabaseURL      string
	RedisURL         string
	MongoURL         string
	MongoDatabase    string
	CalendarStore    string
	PolicyFile       string
	InviteBaseURL    string
	JWTSecret        string
	RefreshSecret    string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	ShutdownPeriod   time.Duration
	IdempotencyTTL   time.Duration
	CalcCacheTTL     time.Duration
	CoupleInviteTTL  time.Duration
	AutoDebitHour    int
	SchedulerEnabled bool
	LoginAttempts    int
	AdminUserIDs     []string
}

// Load reads configuration values from the environment and populates a Config instance.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		AppName:          getEnv("APP_NAME", defaultAppName),
		AppEnv:           strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:             getEnv("PORT", defaultPort),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		MongoURL:         os.Getenv("MONGO_URL"),
		MongoDatabase:    getEnv("MONGO_DATABASE", defaultMongoDatabase),
		CalendarStore:    strings.ToLower(getEnv(calendarStoreEnvVar, defaultCalendarStore)),
		PolicyFile:       os.Getenv("LENDING_POLICY_FILE"),
		InviteBaseURL:    strings.TrimRight(getEnv("INVITE_BASE_URL", defaultInviteBaseURL), "/"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		RefreshSecret:    os.Getenv("JWT_REFRESH_SECRET"),
		AccessTokenTTL:   defaultAccessTokenTTL,
		RefreshTokenTTL:  defaultRefreshTokenTTL,
		ShutdownPeriod:   defaultShutdownDelay,
		IdempotencyTTL:   defaultIdempotencyTTL,
		CalcCacheTTL:     defaultCalcCacheTTL,
		CoupleInviteTTL:  defaultCoupleInviteTTL,
		AutoDebitHour:    defaultAutoDebitHour,
		SchedulerEnabled: true,
		LoginAttempts:    defaultLoginAttempts,
		AdminUserIDs:     splitList(os.Getenv("ADMIN_USER_IDS")),
	}

	var err error
	if cfg.ShutdownPeriod, err = secondsOrDuration(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = secondsOrDuration(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.AccessTokenTTL, err = durationEnv(accessTTLEnvVar, cfg.AccessTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTokenTTL, err = durationEnv(refreshTTLEnvVar, cfg.RefreshTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.CalcCacheTTL, err = durationEnv(calcCacheTTLEnvVar, cfg.CalcCacheTTL); err != nil {
		return Config{}, err
	}
	if cfg.CoupleInviteTTL, err = durationEnv(coupleInviteTTLEnvVar, cfg.CoupleInviteTTL); err != nil {
		return Config{}, err
	}
	if cfg.AutoDebitHour, err = intEnv(autoDebitHourEnvVar, cfg.AutoDebitHour); err != nil {
		return Config{}, err
	}
	if cfg.AutoDebitHour < 0 || cfg.AutoDebitHour > 23 {
		return Config{}, fmt.Errorf("invalid %s: hour must be 0-23", autoDebitHourEnvVar)
	}
	if cfg.LoginAttempts, err = intEnv(loginAttemptsEnvVar, cfg.LoginAttempts); err != nil {
		return Config{}, err
	}
	if v := os.Getenv(schedulerEnabledEnvVar); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", schedulerEnabledEnvVar, err)
		}
		cfg.SchedulerEnabled = enabled
	}

	switch cfg.CalendarStore {
	case "postgres", "mongo", "memory":
	default:
		return Config{}, fmt.Errorf("invalid %s: %q", calendarStoreEnvVar, cfg.CalendarStore)
	}

	if cfg.IsDevelopment() {
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = developmentJWTSecret
		}
		if cfg.RefreshSecret == "" {
			cfg.RefreshSecret = developmentRefreshToken
		}
		return cfg, nil
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}
	if cfg.CalendarStore == "mongo" && cfg.MongoURL == "" {
		return Config{}, fmt.Errorf("MONGO_URL must be set when %s=mongo", calendarStoreEnvVar)
	}
	if cfg.JWTSecret == "" || cfg.RefreshSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET and JWT_REFRESH_SECRET must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDevelopment reports whether stores may fall back to in-memory implementations.
func (c Config) IsDevelopment() bool {
	switch c.AppEnv {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func secondsOrDuration(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	return durationEnv(durationKey, fallback)
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
