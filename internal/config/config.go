// Package config loads the typed process configuration from the
// environment, an optional .env file and bound command line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"github.com/spf13/viper"
)

type AIConfig struct {
	Adapter       string `mapstructure:"adapter" validate:"omitempty,oneof=openai ollama"`
	ChatURL       string `mapstructure:"chat_url"`
	ChatKey       string `mapstructure:"chat_key"`
	ExtractModel  string `mapstructure:"extract_model"`
	MaxTokens     int    `mapstructure:"max_tokens" validate:"gte=0"`
	MaxConcurrent int64  `mapstructure:"max_concurrent" validate:"gte=0"`
}

type GateConfig struct {
	KeyID    string `mapstructure:"key_id"`
	Password string `mapstructure:"password"`
	AnnieURL string `mapstructure:"annie_url" validate:"required,url"`
	YodieURL string `mapstructure:"yodie_url" validate:"required,url"`
}

type ResolverConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Calls   int           `mapstructure:"calls" validate:"gte=1"`
	Period  time.Duration `mapstructure:"period" validate:"gt=0"`
}

type AWSConfig struct {
	Region         string `mapstructure:"region"`
	Endpoint       string `mapstructure:"endpoint"`
	PublicEndpoint string `mapstructure:"public_endpoint"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	Bucket         string `mapstructure:"bucket"`
}

type RabbitMQConfig struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
}

// URL returns the AMQP connection string.
func (r RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", r.User, r.Password, r.Host, r.Port)
}

type Config struct {
	Debug     bool   `mapstructure:"debug"`
	LogFile   string `mapstructure:"log_file"`
	LogFormat string `mapstructure:"log_format" validate:"oneof=text json logfmt"`

	Extractors           string `mapstructure:"extractors"`
	AlignPolicy          string `mapstructure:"align_policy" validate:"oneof=substring token"`
	RequireEntitySubject bool   `mapstructure:"require_entity_subject"`

	AI       AIConfig       `mapstructure:"ai"`
	Gate     GateConfig     `mapstructure:"gate"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	AWS      AWSConfig      `mapstructure:"aws"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`

	Port         string `mapstructure:"port"`
	MasterAPIKey string `mapstructure:"master_api_key"`
}

var defaults = map[string]any{
	"debug":                  false,
	"log_file":               "",
	"log_format":             "text",
	"extractors":             "annie",
	"align_policy":           "substring",
	"require_entity_subject": false,

	"ai.adapter":        "",
	"ai.chat_url":       "",
	"ai.chat_key":       "",
	"ai.extract_model":  "",
	"ai.max_tokens":     2000,
	"ai.max_concurrent": 1,

	"gate.key_id":    "",
	"gate.password":  "",
	"gate.annie_url": "https://cloud-api.gate.ac.uk/process/annie-named-entity-recognizer",
	"gate.yodie_url": "https://cloud-api.gate.ac.uk/process/yodie-en",

	"resolver.enabled": true,
	"resolver.calls":   1,
	"resolver.period":  time.Second,

	"aws.region":          "",
	"aws.endpoint":        "",
	"aws.public_endpoint": "",
	"aws.access_key":      "",
	"aws.secret_key":      "",
	"aws.bucket":          "",

	"rabbitmq.user":     "guest",
	"rabbitmq.password": "guest",
	"rabbitmq.host":     "localhost",
	"rabbitmq.port":     "5672",

	"port":           "8080",
	"master_api_key": "",
}

// New returns a viper instance with every key defaulted and mapped to its
// environment variable (ai.chat_url -> AI_CHAT_URL).
func New() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.AlignPolicy = strings.ToLower(strings.TrimSpace(cfg.AlignPolicy))
	cfg.AI.Adapter = strings.ToLower(strings.TrimSpace(cfg.AI.Adapter))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
