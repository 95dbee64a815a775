package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"TradeGate/pkg/util"
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
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`
	Kafka struct {
		Brokers        []string `yaml:"brokers"`
		ProposalsTopic string   `yaml:"proposals_topic"`
		DecisionsTopic string   `yaml:"decisions_topic"`
		HaltTopic      string   `yaml:"halt_topic"`
		RequiredAcks   int      `yaml:"required_acks"`
		Compression    string   `yaml:"compression"`
		Producer       struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
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
	Gate struct {
		BaseThreshold     float64       `yaml:"base_threshold"`
		ThresholdFloor    float64       `yaml:"threshold_floor"`
		RelaxStep         float64       `yaml:"relax_step"`
		MinDailyTrades    int           `yaml:"min_daily_trades"`
		BaseSlippage      float64       `yaml:"base_slippage"`
		MaxSlippage       float64       `yaml:"max_slippage"`
		DefaultVolatility float64       `yaml:"default_volatility"`
		VolatilityDays    int           `yaml:"volatility_days"`
		SoftHaltDuration  time.Duration `yaml:"soft_halt_duration"`
		EvaluationTTL     time.Duration `yaml:"evaluation_ttl"`
		HighConfLevel     float64       `yaml:"high_conf_level"`
		InversionAccuracy float64       `yaml:"inversion_accuracy"`
		InversionDays     int           `yaml:"inversion_days"`
		DeclineStreak     int           `yaml:"decline_streak"`
		RepeatedErrors    int           `yaml:"repeated_errors"`
		AssetLockTTL      time.Duration `yaml:"asset_lock_ttl"`
	} `yaml:"gate"`
	PriceFeed struct {
		URL            string        `yaml:"url"`
		APIKey         string        `yaml:"api_key"`
		Assets         []string      `yaml:"assets"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"pricefeed"`
	Collaborators struct {
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"collaborators"`
	Queue struct {
		Workers    int           `yaml:"workers"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"queue"`
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

	c.ApplyGateDefaults()

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

	if v := os.Getenv("SERVER_PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("PRICEFEED_API_KEY"); v != "" {
		c.PriceFeed.APIKey = v
	}
	if v := os.Getenv("PRICEFEED_ASSETS"); v != "" {
		c.PriceFeed.Assets = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}

	return c, nil
}

// ApplyGateDefaults fills gate parameters left at zero values. The defaults
// match the calibration the source trading system ran with.
func (c *Config) ApplyGateDefaults() {
	g := &c.Gate
	if g.BaseThreshold == 0 {
		g.BaseThreshold = 0.25
	}
	if g.ThresholdFloor == 0 {
		g.ThresholdFloor = 0.22
	}
	if g.RelaxStep == 0 {
		g.RelaxStep = 0.01
	}
	if g.MinDailyTrades == 0 {
		g.MinDailyTrades = 5
	}
	if g.BaseSlippage == 0 {
		g.BaseSlippage = 0.0005
	}
	if g.MaxSlippage == 0 {
		g.MaxSlippage = 0.01
	}
	if g.DefaultVolatility == 0 {
		g.DefaultVolatility = 0.02
	}
	if g.VolatilityDays == 0 {
		g.VolatilityDays = 5
	}
	if g.SoftHaltDuration == 0 {
		g.SoftHaltDuration = 12 * time.Hour
	}
	if g.EvaluationTTL == 0 {
		g.EvaluationTTL = 10 * time.Minute
	}
	if g.HighConfLevel == 0 {
		g.HighConfLevel = 0.80
	}
	if g.InversionAccuracy == 0 {
		g.InversionAccuracy = 0.35
	}
	if g.InversionDays == 0 {
		g.InversionDays = 2
	}
	if g.DeclineStreak == 0 {
		g.DeclineStreak = 3
	}
	if g.RepeatedErrors == 0 {
		g.RepeatedErrors = 3
	}
	if g.AssetLockTTL == 0 {
		g.AssetLockTTL = 5 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.Redis.Host == "" {
		return fmt.Errorf("redis.host is required")
	}
	g := c.Gate
	if g.ThresholdFloor > g.BaseThreshold {
		return fmt.Errorf("gate.threshold_floor %.3f must not exceed gate.base_threshold %.3f", g.ThresholdFloor, g.BaseThreshold)
	}
	if g.BaseSlippage > g.MaxSlippage {
		return fmt.Errorf("gate.base_slippage %.5f must not exceed gate.max_slippage %.5f", g.BaseSlippage, g.MaxSlippage)
	}
	return nil
}
