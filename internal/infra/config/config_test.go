package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")
	t.Setenv("ACCESS_TOKEN_SECRET", "a")
	t.Setenv("REFRESH_TOKEN_SECRET", "r")
	t.Setenv("MAGIC_LINK_SECRET", "m")
	t.Setenv("INVITE_TOKEN_SECRET", "i")
	t.Setenv("RESET_TOKEN_SECRET", "s")
	t.Setenv("WEB_CLIENT_URL", "https://app.example.com")
}

func TestLoad_Success(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_TTL", "2m")
	t.Setenv("REFRESH_TOKEN_TTL", "72h")
	t.Setenv("REFRESH_COOKIE_PATH", "/auth/refresh")
	t.Setenv("ALLOW_CREDENTIALS", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.AccessTokenTTL != 2*time.Minute {
		t.Fatalf("AccessTokenTTL want 2m, got %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 72*time.Hour {
		t.Fatalf("RefreshTokenTTL want 72h, got %v", cfg.RefreshTokenTTL)
	}
	if cfg.MagicLinkTTL != 5*time.Minute {
		t.Fatalf("MagicLinkTTL default want 5m, got %v", cfg.MagicLinkTTL)
	}
	if cfg.TokenStore != "postgres" {
		t.Fatalf("TokenStore default want postgres, got %q", cfg.TokenStore)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("MAGIC_LINK_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error due to missing MAGIC_LINK_SECRET, got nil")
	}
}

func TestLoad_RedisStoreNeedsAddress(t *testing.T) {
	setRequired(t)
	t.Setenv("TOKEN_STORE", "redis")

	if _, err := Load(); err == nil {
		t.Fatal("expected error due to missing REDIS_ADDRESS, got nil")
	}

	t.Setenv("REDIS_ADDRESS", "localhost:6379")
	if _, err := Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_BadTokenStore(t *testing.T) {
	setRequired(t)
	t.Setenv("TOKEN_STORE", "memcached")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown TOKEN_STORE, got nil")
	}
}
