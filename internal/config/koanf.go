package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/actuallystonmai/order-recommender/internal/validation"
)

var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Data: DataConfig{
			TablePath:    "interaction_df.gob",
			TableCSVPath: "interaction_df.csv",
			ModelPath:    "svd_model.gob",
			Source:       "file",
		},
		Preprocess: PreprocessConfig{
			OrderItemsPath:  "accenture_order_items.csv",
			OrdersPath:      "accenture_sales_order.csv",
			OrderItemsURL:   "https://drive.google.com/uc?id=1t4Wu-j7sGrHWFdgpcq6QSb8UXWSRIBED",
			OrdersURL:       "https://drive.google.com/uc?id=1Y3NcEoLMn75wpaqL409oL3zRYxZx2Mt6",
			DeliveredStatus: "delivered",
			MaxOrderCount:   5,
			DownloadTimeout: 5 * time.Minute,
		},
		Model: ModelConfig{
			Factors:        100,
			Epochs:         20,
			LearningRate:   0.005,
			Regularization: 0.02,
			InitStdDev:     0.1,
			Seed:           42,
		},
		Recommend: RecommendConfig{
			Limit:            5,
			BatchConcurrency: 10,
		},
		Database: DatabaseConfig{
			URL:      "",
			PoolSize: 20,
		},
		Redis: RedisConfig{
			URL:      "",
			CacheTTL: 10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load configuration: defaults, then an optional YAML file, then env.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := splitListFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validation.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var envMappings = map[string]string{
	"port":              "server.port",
	"server_timeout":    "server.timeout",
	"shutdown_timeout":  "server.shutdown_timeout",
	"rate_limit_reqs":   "server.rate_limit_reqs",
	"rate_limit_window": "server.rate_limit_window",

	"data_table_path":     "data.table_path",
	"data_table_csv_path": "data.table_csv_path",
	"data_model_path":     "data.model_path",
	"data_source":         "data.source",

	"preprocess_order_items_path": "preprocess.order_items_path",
	"preprocess_orders_path":      "preprocess.orders_path",
	"preprocess_order_items_url":  "preprocess.order_items_url",
	"preprocess_orders_url":       "preprocess.orders_url",
	"preprocess_delivered_status": "preprocess.delivered_status",
	"preprocess_max_order_count":  "preprocess.max_order_count",
	"preprocess_exclude_products": "preprocess.exclude_products",
	"preprocess_download_timeout": "preprocess.download_timeout",
	"preprocess_publish":          "preprocess.publish",

	"model_factors":             "model.factors",
	"model_epochs":              "model.epochs",
	"model_learning_rate":       "model.learning_rate",
	"model_regularization":      "model.regularization",
	"model_init_std_dev":        "model.init_std_dev",
	"model_seed":                "model.seed",
	"model_retrain_on_mismatch": "model.retrain_on_mismatch",

	"recommend_limit":             "recommend.limit",
	"recommend_batch_concurrency": "recommend.batch_concurrency",

	"database_url": "database.url",
	"db_pool_size": "database.pool_size",
	"redis_url":    "redis.url",
	"cache_ttl":    "redis.cache_ttl",

	"log_level":  "logging.level",
	"log_format": "logging.format",
}

// envTransformFunc maps known env vars onto config keys. Anything else is
// dropped so unrelated process env never leaks into the config.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

var listFields = []string{"preprocess.exclude_products"}

// splitListFields turns comma separated env values into string slices.
func splitListFields(k *koanf.Koanf) error {
	for _, path := range listFields {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := []string{}
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}
