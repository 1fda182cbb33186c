package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr() != ":8080" {
		t.Errorf("Addr() = %q, want :8080", cfg.Addr())
	}
	if cfg.Data.TablePath != "interaction_df.gob" || cfg.Data.ModelPath != "svd_model.gob" {
		t.Errorf("unexpected data paths: %+v", cfg.Data)
	}
	if cfg.Preprocess.DeliveredStatus != "delivered" || cfg.Preprocess.MaxOrderCount != 5 {
		t.Errorf("unexpected preprocess defaults: %+v", cfg.Preprocess)
	}
	if cfg.Recommend.Limit != 5 {
		t.Errorf("Recommend.Limit = %d, want 5", cfg.Recommend.Limit)
	}
	if cfg.CacheEnabled() {
		t.Error("cache should be disabled without REDIS_URL")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("MODEL_FACTORS", "16")
	t.Setenv("PREPROCESS_EXCLUDE_PRODUCTS", "Pav 1pcs, Tea")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Redis.CacheTTL != 2*time.Minute {
		t.Errorf("CacheTTL = %v, want 2m", cfg.Redis.CacheTTL)
	}
	if !cfg.CacheEnabled() {
		t.Error("cache should be enabled")
	}
	if cfg.Model.Factors != 16 {
		t.Errorf("Factors = %d, want 16", cfg.Model.Factors)
	}
	want := []string{"Pav 1pcs", "Tea"}
	if !reflect.DeepEqual(cfg.Preprocess.ExcludeProducts, want) {
		t.Errorf("ExcludeProducts = %v, want %v", cfg.Preprocess.ExcludeProducts, want)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := "data:\n  source: postgres\nlogging:\n  format: console\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Data.Source != "postgres" {
		t.Errorf("Source = %q, want postgres", cfg.Data.Source)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Format = %q, want console", cfg.Logging.Format)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATA_SOURCE", "s3")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for unknown data source")
	}
}

func TestLoadRejectsOutOfRangeMaxOrderCount(t *testing.T) {
	t.Chdir(t.TempDir())

	for _, v := range []string{"0", "6"} {
		t.Setenv("PREPROCESS_MAX_ORDER_COUNT", v)
		if _, err := Load(); err == nil {
			t.Errorf("PREPROCESS_MAX_ORDER_COUNT=%s: expected validation error", v)
		}
	}

	t.Setenv("PREPROCESS_MAX_ORDER_COUNT", "3")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Preprocess.MaxOrderCount != 3 {
		t.Errorf("MaxOrderCount = %d, want 3", cfg.Preprocess.MaxOrderCount)
	}
}
