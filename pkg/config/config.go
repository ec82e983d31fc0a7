package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"FinScore/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Log         struct {
		Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format     string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output     string `yaml:"output" default:"stdout"`
		TimeFormat string `yaml:"time_format"`
	} `yaml:"log"`
	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors" default:"true"`
		RunRateLimit    struct {
			PerSecond float64 `yaml:"per_second" default:"0.1"`
			Burst     int     `yaml:"burst" default:"2"`
		} `yaml:"run_rate_limit"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Scoring struct {
		PLow         float64 `yaml:"p_low" default:"0.10" validate:"gte=0,lte=1"`
		PHigh        float64 `yaml:"p_high" default:"0.90" validate:"gte=0,lte=1,gtefield=PLow"`
		MinSamples   int     `yaml:"min_samples" default:"10" validate:"gte=1"`
		RevenueDrop  float64 `yaml:"revenue_drop" default:"-0.10"`
		RevenueBoost float64 `yaml:"revenue_boost" default:"0.10" validate:"gtefield=RevenueDrop"`
	} `yaml:"scoring"`
	Anomaly struct {
		EncodingDim        int     `yaml:"encoding_dim" default:"2" validate:"gte=1"`
		Epochs             int     `yaml:"epochs" default:"100" validate:"gte=1"`
		BatchSize          int     `yaml:"batch_size" default:"8" validate:"gte=1"`
		LearningRate       float64 `yaml:"learning_rate" default:"0.001" validate:"gt=0"`
		ValidationFraction float64 `yaml:"validation_fraction" default:"0.2" validate:"gt=0,lt=1"`
		ThresholdQuantile  float64 `yaml:"threshold_quantile" default:"0.95" validate:"gt=0,lte=1"`
		Seed               int64   `yaml:"seed" default:"42"`
		MinHealthy         int     `yaml:"min_healthy" default:"5" validate:"gte=2"`
		HealthyPLow        float64 `yaml:"healthy_p_low" default:"0.10" validate:"gte=0,lte=1"`
		HealthyPHigh       float64 `yaml:"healthy_p_high" default:"0.90" validate:"gte=0,lte=1,gtefield=HealthyPLow"`
		NatureConvention   string  `yaml:"nature_convention" default:"delta_up_bad" validate:"oneof=delta_up_bad delta_up_good"`
		Workers            int     `yaml:"workers" default:"4" validate:"gte=1"`
	} `yaml:"anomaly"`
	Cluster struct {
		MinCount int           `yaml:"min_count" default:"3" validate:"gte=1"`
		MaxSpan  time.Duration `yaml:"max_span" default:"4440h"`
		Padding  time.Duration `yaml:"padding" default:"120h"`
	} `yaml:"cluster"`
	Events struct {
		Tolerance   time.Duration `yaml:"tolerance" default:"2160h"`
		CatalogPath string        `yaml:"catalog_path"`
	} `yaml:"events"`
	Source struct {
		Type              string `yaml:"type" default:"clickhouse" validate:"oneof=clickhouse memory"`
		Table             string `yaml:"table" default:"indicators"`
		Path              string `yaml:"path"`
		PrecomputedScores bool   `yaml:"precomputed_scores"`
	} `yaml:"source"`
	ClickHouse struct {
		Host         string        `yaml:"host" default:"localhost"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"finscore"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		UseHTTP      bool          `yaml:"use_http"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
		StoreResults bool          `yaml:"store_results"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled          bool          `yaml:"enabled"`
		Brokers          []string      `yaml:"brokers"`
		AssessmentsTopic string        `yaml:"assessments_topic" default:"finscore.assessments"`
		AnomaliesTopic   string        `yaml:"anomalies_topic" default:"finscore.anomalies"`
		RequiredAcks     int           `yaml:"required_acks" default:"-1"`
		Compression      string        `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		MaxAttempts      int           `yaml:"max_attempts" default:"3"`
		BatchSize        int           `yaml:"batch_size" default:"100"`
		BatchBytes       int           `yaml:"batch_bytes" default:"1048576"`
		BatchTimeout     time.Duration `yaml:"batch_timeout" default:"50ms"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"kafka"`
	Cache struct {
		Enabled    bool          `yaml:"enabled" default:"true"`
		TTL        time.Duration `yaml:"ttl" default:"1h"`
		MaxEntries int           `yaml:"max_entries" default:"32"`
		Redis      struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"finscore:"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`
}

var validate = validator.New()

// Default returns a config with every default applied.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// LoadWithEnv loads a .env file when present, then the YAML file, then
// applies FINSCORE_* environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnv(c)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func applyEnv(c *Config) {
	if v := os.Getenv("FINSCORE_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("FINSCORE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("FINSCORE_SOURCE"); v != "" {
		c.Source.Type = v
	}
	if v := os.Getenv("FINSCORE_SOURCE_PATH"); v != "" {
		c.Source.Path = v
	}
	c.Anomaly.Workers = util.ParseIntDefault(os.Getenv("FINSCORE_WORKERS"), c.Anomaly.Workers)
	c.Server.Port = util.ParseIntDefault(os.Getenv("FINSCORE_PORT"), c.Server.Port)
	c.Server.RunRateLimit.PerSecond = util.ParseFloatDefault(os.Getenv("FINSCORE_RUN_RATE"), c.Server.RunRateLimit.PerSecond)
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	if v := os.Getenv("FINSCORE_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Anomaly.Seed = n
		}
	}
	if v := os.Getenv("FINSCORE_EVENTS"); v != "" {
		c.Events.CatalogPath = v
	}
	if v := os.Getenv("FINSCORE_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Source.Type == "memory" && c.Source.Path == "" {
		return fmt.Errorf("source.path is required for the memory source")
	}
	if c.Cluster.MaxSpan <= 0 {
		return fmt.Errorf("cluster.max_span must be positive")
	}
	if c.Events.Tolerance <= 0 {
		return fmt.Errorf("events.tolerance must be positive")
	}
	return nil
}
