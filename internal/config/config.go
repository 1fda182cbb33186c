package config

import (
	"fmt"
	"time"
)

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Data       DataConfig       `koanf:"data"`
	Preprocess PreprocessConfig `koanf:"preprocess"`
	Model      ModelConfig      `koanf:"model"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Database   DatabaseConfig   `koanf:"database"`
	Redis      RedisConfig      `koanf:"redis"`
	Logging    LoggingConfig    `koanf:"logging"`
}

type ServerConfig struct {
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// Where the artifacts live. Source selects where the service reads the
// interaction table from.
type DataConfig struct {
	TablePath    string `koanf:"table_path" validate:"required"`
	TableCSVPath string `koanf:"table_csv_path"`
	ModelPath    string `koanf:"model_path" validate:"required"`
	Source       string `koanf:"source" validate:"oneof=file postgres"`
}

type PreprocessConfig struct {
	OrderItemsPath  string        `koanf:"order_items_path" validate:"required"`
	OrdersPath      string        `koanf:"orders_path" validate:"required"`
	OrderItemsURL   string        `koanf:"order_items_url"`
	OrdersURL       string        `koanf:"orders_url"`
	DeliveredStatus string        `koanf:"delivered_status" validate:"required"`
	MaxOrderCount   int           `koanf:"max_order_count" validate:"min=1,max=5"`
	ExcludeProducts []string      `koanf:"exclude_products"`
	DownloadTimeout time.Duration `koanf:"download_timeout" validate:"gt=0"`
	Publish         bool          `koanf:"publish"`
}

type ModelConfig struct {
	Factors           int     `koanf:"factors" validate:"min=1"`
	Epochs            int     `koanf:"epochs" validate:"min=1"`
	LearningRate      float64 `koanf:"learning_rate" validate:"gt=0"`
	Regularization    float64 `koanf:"regularization" validate:"gte=0"`
	InitStdDev        float64 `koanf:"init_std_dev" validate:"gte=0"`
	Seed              int64   `koanf:"seed"`
	RetrainOnMismatch bool    `koanf:"retrain_on_mismatch"`
}

type RecommendConfig struct {
	Limit            int `koanf:"limit" validate:"min=1,max=50"`
	BatchConcurrency int `koanf:"batch_concurrency" validate:"min=1"`
}

type DatabaseConfig struct {
	URL      string `koanf:"url"`
	PoolSize int    `koanf:"pool_size" validate:"min=1"`
}

type RedisConfig struct {
	URL      string        `koanf:"url"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// CacheEnabled reports whether a Redis URL was configured.
func (c *Config) CacheEnabled() bool {
	return c.Redis.URL != ""
}
