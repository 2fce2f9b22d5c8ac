// Package config loads the CRM settings from a YAML file overlaid with
// CRM_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gartstein/crm/internal/crm/db"
	"gopkg.in/yaml.v3"
)

// PathEnv names the environment variable selecting the config file.
const PathEnv = "CRM_CONFIG"

// DefaultPath is read when PathEnv is unset.
const DefaultPath = "config/crm.yaml"

type Kafka struct {
	Brokers    []string `yaml:"brokers" env:"BROKERS" envSeparator:","`
	Topic      string   `yaml:"topic" env:"TOPIC"`
	GroupID    string   `yaml:"group_id" env:"GROUP_ID"`
	Partitions int      `yaml:"partitions" env:"PARTITIONS"`
}

type Config struct {
	GRPCPort int       `yaml:"grpc_port" env:"GRPC_PORT"`
	HTTPPort int       `yaml:"http_port" env:"HTTP_PORT"`
	AuthPort int       `yaml:"auth_port" env:"AUTH_PORT"`
	DB       db.Config `yaml:"db" envPrefix:"DB_"`
	Kafka    Kafka     `yaml:"kafka" envPrefix:"KAFKA_"`
	// JWTSecret signs actor tokens.
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
	// ResetSecret keys password reset tokens.
	ResetSecret  string        `yaml:"reset_secret" env:"RESET_SECRET"`
	ResetTimeout time.Duration `yaml:"reset_timeout" env:"RESET_TIMEOUT"`
	// ResetURL is the front-end page reset links point to.
	ResetURL string `yaml:"reset_url" env:"RESET_URL"`
	// MediaURL prefixes stored file references in responses.
	MediaURL string `yaml:"media_url" env:"MEDIA_URL"`
}

// Default returns the settings used for anything the file and the
// environment leave unset.
func Default() *Config {
	return &Config{
		GRPCPort: 50051,
		HTTPPort: 8080,
		AuthPort: 8081,
		DB: db.Config{
			Host:    "localhost",
			Port:    5432,
			User:    "crm",
			DBName:  "crm",
			SSLMode: "disable",
		},
		Kafka: Kafka{
			Brokers:    []string{"localhost:9092"},
			Topic:      "crm.events",
			GroupID:    "crm-notifier",
			Partitions: 3,
		},
		ResetTimeout: 72 * time.Hour,
		MediaURL:     "/media/",
	}
}

// Path returns the config file selected by PathEnv.
func Path() string {
	if p := os.Getenv(PathEnv); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads path over the defaults, then applies the environment. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "CRM_"}); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	if c.ResetSecret == "" {
		c.ResetSecret = c.JWTSecret
	}
	if len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers is required")
	}
	return nil
}
