package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"MODE", "HTTP_ADDR", "DB_DRIVER", "LOCK_DRIVER", "LOCK_TTL", "REDIS_DB", "PUBLIC_RATE_PER_MIN", "ENFORCE_TIME_LIMIT"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Mode != ModeOffline || c.HTTPAddr != ":8080" || c.DBDriver != "sqlite" {
		t.Fatalf("defaults: %+v", c)
	}
	if c.LockDriver != "local" || c.LockTTL != 10*time.Second || c.RedisDB != 0 {
		t.Fatalf("lock defaults: %+v", c)
	}
	if c.PublicRatePerMin != 30 || !c.EnforceTimeLimit || !c.EnableMetrics {
		t.Fatalf("misc defaults: %+v", c)
	}
	if !reflect.DeepEqual(c.CORSOrigins(), c.CORSOriginsOffline) {
		t.Fatalf("offline mode uses %v", c.CORSOrigins())
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("LOCK_DRIVER", "redis")
	t.Setenv("LOCK_TTL", "3")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("ENFORCE_TIME_LIMIT", "false")
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , ,https://b.example")
	t.Setenv("PUBLIC_RATE_PER_MIN", "not-a-number")

	c := FromEnv()
	if c.Mode != ModeOnline || c.LockDriver != "redis" || c.RedisDB != 2 {
		t.Fatalf("overrides: %+v", c)
	}
	if c.LockTTL != 3*time.Second {
		t.Fatalf("LockTTL = %v", c.LockTTL)
	}
	if c.EnforceTimeLimit {
		t.Fatal("ENFORCE_TIME_LIMIT=false ignored")
	}
	if want := []string{"https://a.example", "https://b.example"}; !reflect.DeepEqual(c.CORSOrigins(), want) {
		t.Fatalf("origins = %v", c.CORSOrigins())
	}
	if c.PublicRatePerMin != 30 {
		t.Fatalf("bad int should fall back, got %d", c.PublicRatePerMin)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("LOG_LEVEL=debug\nHTTP_ADDR=:9999\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")
	t.Setenv("HTTP_ADDR", ":7000")

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("LOG_LEVEL") })
	if c.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug from file", c.LogLevel)
	}
	if c.HTTPAddr != ":7000" {
		t.Fatalf("environment should win over file, got %q", c.HTTPAddr)
	}
}

func TestLoadSkipsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing file should be skipped, got %v", err)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.env")
	if err := os.WriteFile(path, []byte("BAD-KEY=1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("malformed .env accepted")
	}
}
