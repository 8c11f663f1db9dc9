package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_DevelopmentDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() err=%v", err)
	}
	if cfg.Profile != ProfileDevelopment || cfg.Backend != BackendMock || cfg.Server.AuthMode != AuthModeDev {
		t.Fatalf("Load()=%+v, want development mock defaults", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fieldops.yaml")
	yml := `
backend: live
postgres:
  dsn: postgres://file/db
redis:
  addr: file:6379
  sessionTTL: 2h
storage:
  bucket: file-bucket
server:
  port: 9000
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	clearEnv(t)
	t.Setenv("FIELDOPS_PROFILE", "staging")
	t.Setenv("FIELDOPS_CONFIG_PATH", path)
	t.Setenv("REDIS_ADDR", "env:6379")
	t.Setenv("STORAGE_PATH_STYLE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() err=%v", err)
	}
	if cfg.Postgres.DSN != "postgres://file/db" || cfg.Redis.Addr != "env:6379" || cfg.Server.Port != 9000 {
		t.Fatalf("Load()=%+v, want file values with env override", cfg)
	}
	if cfg.Redis.SessionTTL != 2*time.Hour || !cfg.Storage.PathStyle {
		t.Fatalf("Load() ttl=%v pathStyle=%v", cfg.Redis.SessionTTL, cfg.Storage.PathStyle)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
}

func TestLoad_BadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_TTL", "forever")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "SESSION_TTL") {
		t.Fatalf("Load() err=%v, want SESSION_TTL error", err)
	}
}

func TestValidate_LiveRequiresEndpoints(t *testing.T) {
	t.Parallel()

	cfg := Defaults(ProfileProduction)
	cfg.Server.AuthMode = AuthModeDev
	err := cfg.Validate()
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("Validate() err=%v, want ErrInvalid", err)
	}
	for _, want := range []string{"DATABASE_URL", "REDIS_ADDR", "STORAGE_BUCKET", "dev auth mode"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("Validate() err=%q, missing %q", err, want)
		}
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"FIELDOPS_PROFILE", "FIELDOPS_CONFIG_PATH", "FIELDOPS_BACKEND", "DATABASE_URL",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "SESSION_TTL", "STORAGE_BUCKET",
		"STORAGE_REGION", "STORAGE_ENDPOINT", "STORAGE_PATH_STYLE", "PORT", "LOG_LEVEL",
		"LOG_FORMAT", "AUTH_MODE",
	} {
		t.Setenv(k, "")
	}
}
