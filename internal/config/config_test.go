package config

import (
	"testing"
	"time"
)

func TestLoadDevelopmentDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWTSecret == "" || cfg.RefreshSecret == "" {
		t.Fatalf("expected development secrets to be filled in")
	}
	if cfg.AccessTokenTTL != defaultAccessTokenTTL {
		t.Fatalf("expected access ttl %s, got %s", defaultAccessTokenTTL, cfg.AccessTokenTTL)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %s", cfg.Address())
	}
}

func TestLoadProductionRequiresStores(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	if _, err := Load(); err == nil {
		t.Fatalf("expected missing DATABASE_URL error")
	}
}

func TestLoadDurationOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("IDEMPOTENCY_TTL_SECONDS", "90")
	t.Setenv("CALC_CACHE_TTL", "1m")
	t.Setenv("AUTO_DEBIT_HOUR", "6")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.IdempotencyTTL != 90*time.Second {
		t.Fatalf("expected 90s idempotency ttl, got %s", cfg.IdempotencyTTL)
	}
	if cfg.CalcCacheTTL != time.Minute {
		t.Fatalf("expected 1m cache ttl, got %s", cfg.CalcCacheTTL)
	}
	if cfg.AutoDebitHour != 6 {
		t.Fatalf("expected hour 6, got %d", cfg.AutoDebitHour)
	}
}

func TestLoadRejectsUnknownCalendarStore(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("CALENDAR_STORE", "sqlite")

	if _, err := Load(); err == nil {
		t.Fatalf("expected invalid calendar store error")
	}
}

func TestLoadAdminUserIDs(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("ADMIN_USER_IDS", " ops-1, ,ops-2 ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.AdminUserIDs) != 2 || cfg.AdminUserIDs[0] != "ops-1" || cfg.AdminUserIDs[1] != "ops-2" {
		t.Fatalf("unexpected admin ids %q", cfg.AdminUserIDs)
	}
}
