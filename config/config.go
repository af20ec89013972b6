package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Server    ServerConfig    `mapstructure:"server"`
	Client    ClientConfig    `mapstructure:"client"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url" validate:"required,url"`
	Model       string        `mapstructure:"model" validate:"required"`
	Temperature float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type KnowledgeConfig struct {
	// SnapshotPath 为空时不做持久化
	SnapshotPath string `mapstructure:"snapshot_path"`
	// MaxFacts <= 0 表示不限制
	MaxFacts int  `mapstructure:"max_facts" validate:"gte=0"`
	Autosave bool `mapstructure:"autosave"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
	Name string `mapstructure:"name" validate:"required"`
}

type ClientConfig struct {
	URL          string        `mapstructure:"url" validate:"required,url"`
	Name         string        `mapstructure:"name" validate:"required"`
	Target       string        `mapstructure:"target" validate:"required"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	DialRetries  int           `mapstructure:"dial_retries" validate:"gte=0"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// Load 依次读取默认值、配置文件（可选）和 ECHOSAGE_* 环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ECHOSAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", DefaultBaseURL)
	v.SetDefault("llm.model", DefaultModel)
	v.SetDefault("llm.temperature", LLMTemperature)
	v.SetDefault("llm.timeout", "60s")

	v.SetDefault("knowledge.snapshot_path", "")
	v.SetDefault("knowledge.max_facts", 0)
	v.SetDefault("knowledge.autosave", false)

	v.SetDefault("server.addr", ":8008")
	v.SetDefault("server.name", "echosage-agent")

	v.SetDefault("client.url", "ws://127.0.0.1:8008/chat")
	v.SetDefault("client.name", "echosage-client")
	v.SetDefault("client.target", "echosage-agent")
	v.SetDefault("client.timeout", RequestTimeout.String())
	v.SetDefault("client.poll_interval", PollInterval.String())
	v.SetDefault("client.dial_retries", 3)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
