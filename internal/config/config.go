package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/examsafe/examsafe/internal/pkg/ethaddr"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
		Mode string `yaml:"mode" env:"SERVER_MODE"`
	} `yaml:"server"`

	Ledger struct {
		Endpoint        string `yaml:"endpoint" env:"LEDGER_ENDPOINT"`
		ContractAddress string `yaml:"contract_address" env:"LEDGER_CONTRACT_ADDRESS"`
		TxTimeout       string `yaml:"tx_timeout" env:"LEDGER_TX_TIMEOUT"`
		PollInterval    string `yaml:"poll_interval" env:"LEDGER_POLL_INTERVAL"`
	} `yaml:"ledger"`

	Relayer struct {
		Endpoint       string `yaml:"endpoint" env:"RELAYER_ENDPOINT"`
		RequestTimeout string `yaml:"request_timeout" env:"RELAYER_REQUEST_TIMEOUT"`
	} `yaml:"relayer"`

	JWT struct {
		Secret            string `yaml:"secret" env:"JWT_SECRET"`
		SessionExpiration string `yaml:"session_expiration" env:"JWT_SESSION_EXPIRATION"`
		Issuer            string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Status struct {
		SuccessTTL string `yaml:"success_ttl" env:"STATUS_SUCCESS_TTL"`
		ErrorTTL   string `yaml:"error_ttl" env:"STATUS_ERROR_TTL"`
	} `yaml:"status"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	// Config file is optional; environment variables alone can carry a full
	// configuration.
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Server defaults
	config.Server.Port = "8080"
	config.Server.Mode = "development"

	// Ledger defaults
	config.Ledger.Endpoint = "http://localhost:8545"
	config.Ledger.TxTimeout = "2m"
	config.Ledger.PollInterval = "2s"

	// Relayer defaults
	config.Relayer.Endpoint = "http://localhost:8787"
	config.Relayer.RequestTimeout = "60s"

	// JWT defaults
	config.JWT.SessionExpiration = "1h"
	config.JWT.Issuer = "examsafe.app"

	// Status notification defaults
	config.Status.SuccessTTL = "2s"
	config.Status.ErrorTTL = "3s"

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Ledger.Endpoint == "" {
		return fmt.Errorf("ledger endpoint is required")
	}

	if config.Ledger.ContractAddress == "" {
		return fmt.Errorf("ledger contract address is required")
	}
	if !ethaddr.IsValid(config.Ledger.ContractAddress) {
		return fmt.Errorf("ledger contract address is not a valid address")
	}

	if config.Relayer.Endpoint == "" {
		return fmt.Errorf("relayer endpoint is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	for name, value := range map[string]string{
		"ledger tx_timeout":       config.Ledger.TxTimeout,
		"ledger poll_interval":    config.Ledger.PollInterval,
		"relayer request_timeout": config.Relayer.RequestTimeout,
		"jwt session_expiration":  config.JWT.SessionExpiration,
		"status success_ttl":      config.Status.SuccessTTL,
		"status error_ttl":        config.Status.ErrorTTL,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	return nil
}

// ParseDuration parses a configured duration, falling back to a default.
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return fallback
}
