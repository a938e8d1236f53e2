package config

import (
	"testing"
	"time"
)

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":18080")
	t.Setenv("GRPC_ADDR", ":19090")
	t.Setenv("DATABASE_TYPE", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/rollwise-test.db")
	t.Setenv("REDIS_ADDR", "127.0.0.1:6380")
	t.Setenv("CHECKIN_CODE_TTL", "2m")
	t.Setenv("IDENTITY_JWT_SECRET", "test-secret")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")

	cfg := Load()
	if cfg.HTTPAddr != ":18080" {
		t.Fatalf("expected HTTP_ADDR override, got %s", cfg.HTTPAddr)
	}
	if cfg.GRPCAddr != ":19090" {
		t.Fatalf("expected GRPC_ADDR override, got %s", cfg.GRPCAddr)
	}
	if !cfg.UseSQLite() || cfg.SQLitePath != "/tmp/rollwise-test.db" {
		t.Fatalf("expected sqlite at override path, got %s %s", cfg.DatabaseType, cfg.SQLitePath)
	}
	if cfg.RedisAddr != "127.0.0.1:6380" {
		t.Fatalf("expected REDIS_ADDR override, got %s", cfg.RedisAddr)
	}
	if cfg.CheckinCodeTTL != 2*time.Minute {
		t.Fatalf("expected CHECKIN_CODE_TTL 2m, got %s", cfg.CheckinCodeTTL)
	}
	if cfg.IdentityJWTSecret != "test-secret" {
		t.Fatalf("expected IDENTITY_JWT_SECRET override, got %s", cfg.IdentityJWTSecret)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("expected SHUTDOWN_TIMEOUT 3s, got %s", cfg.ShutdownTimeout)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("CHECKIN_CODE_TTL", "not-a-duration")

	cfg := Load()
	if cfg.UseSQLite() {
		t.Fatalf("expected postgres by default")
	}
	if cfg.CheckinCodeTTL != 15*time.Minute {
		t.Fatalf("expected default CHECKIN_CODE_TTL, got %s", cfg.CheckinCodeTTL)
	}
}
