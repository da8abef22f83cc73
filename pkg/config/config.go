package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Backend struct {
		Type         string        `yaml:"type"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Topic      string        `yaml:"topic"`
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Polymarket struct {
		DataAPIURL     string        `yaml:"data_api_url"`
		WebSocketURL   string        `yaml:"websocket_url"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		RatePerSecond  float64       `yaml:"rate_per_second"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"polymarket"`
	Collector struct {
		Interval         time.Duration `yaml:"interval"`
		LeaderboardLimit int           `yaml:"leaderboard_limit"`
		MinConsensus     int           `yaml:"min_consensus"`
		MinConviction    float64       `yaml:"min_conviction"`
		MaxSignals       int           `yaml:"max_signals"`
	} `yaml:"collector"`
	ARS struct {
		Preset         string `yaml:"preset"`
		TraderPoolSize int    `yaml:"trader_pool_size"`

		// Non-zero values override the preset field by field.
		OutlierStdThreshold float64 `yaml:"outlier_std_threshold"`
		MinSampleSize       int     `yaml:"min_sample_size"`
		BasePositionSize    float64 `yaml:"base_position_size"`
		MaxPositionSize     float64 `yaml:"max_position_size"`
		MinPositionSize     float64 `yaml:"min_position_size"`
		MaxDailyDrawdown    float64 `yaml:"max_daily_drawdown"`
		MaxTotalDrawdown    float64 `yaml:"max_total_drawdown"`
	} `yaml:"ars"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Handoff struct {
		Enabled  bool    `yaml:"enabled"`
		Queue    string  `yaml:"queue"`
		MinScore float64 `yaml:"min_score"`
	} `yaml:"handoff"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("POLYMARKET_DATA_API_URL"); v != "" {
		c.Polymarket.DataAPIURL = v
	}
	if v := os.Getenv("ARS_PRESET"); v != "" {
		c.ARS.Preset = v
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if c.Polymarket.DataAPIURL == "" {
		return fmt.Errorf("polymarket.data_api_url is required")
	}
	if c.ARS.TraderPoolSize < 1 {
		return fmt.Errorf("ars.trader_pool_size must be >= 1")
	}
	if c.Collector.MinConsensus < 2 {
		return fmt.Errorf("collector.min_consensus must be >= 2")
	}
	return nil
}
