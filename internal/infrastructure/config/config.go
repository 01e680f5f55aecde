package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported time-series database backends.
const (
	// BackendInfluxDB1 writes through the InfluxDB 1.x HTTP API using
	// host/port/username/password/database.
	BackendInfluxDB1 = "influxdb1"

	// BackendInfluxDB2 writes through the InfluxDB 2.x API using token/org/bucket.
	// The database name is used as the bucket name.
	BackendInfluxDB2 = "influxdb2"

	// BackendVictoriaMetrics writes InfluxDB line protocol to VictoriaMetrics.
	BackendVictoriaMetrics = "victoriametrics"
)

// Config is the root configuration structure for powerbridge and powermeter.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	MQTT    MQTTConfig    `yaml:"mqtt"`
	TSDB    TSDBConfig    `yaml:"tsdb"`
	Logging LoggingConfig `yaml:"logging"`
	Meter   MeterConfig   `yaml:"meter"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker MQTTBrokerConfig `yaml:"broker"`
	Auth   MQTTAuthConfig   `yaml:"auth"`
	QoS    int              `yaml:"qos"`

	// Topic is the subscription filter for power readings.
	Topic string `yaml:"topic"`

	// ConnectGrace is the delay in seconds between a failed initial
	// connection and process exit.
	ConnectGrace int `yaml:"connect_grace"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// TSDBConfig contains time-series database connection settings.
type TSDBConfig struct {
	Backend  string `yaml:"backend"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`

	// Token and Org are only used by the influxdb2 backend.
	Token string `yaml:"token"`
	Org   string `yaml:"org"`

	// WriteTimeout bounds a single point write in seconds. 0 means no timeout.
	WriteTimeout int `yaml:"write_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// MeterConfig contains settings for the SML meter reader.
type MeterConfig struct {
	// Device is the serial device path, or "-" for stdin.
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`

	// TopicPrefix is the topic under which current and total readings are published.
	TopicPrefix string `yaml:"topic_prefix"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (skipped when path is empty)
//  3. Variables from the .env file (POWERBRIDGE_ENV_FILE, default ".env"), if present
//  4. Environment variables (override file values)
//
// Environment variables follow the pattern: POWERBRIDGE_SECTION_KEY
// For example: POWERBRIDGE_MQTT_HOST, POWERBRIDGE_TSDB_DATABASE
//
// Parameters:
//   - path: Path to the YAML configuration file, or "" for defaults only
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If a file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	// Apply environment variable overrides
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads variables from the .env file into the process environment.
// Variables already set in the environment are not overwritten.
// A missing file is not an error.
func loadDotEnv() error {
	envFile := os.Getenv("POWERBRIDGE_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}

	if err := godotenv.Load(envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", envFile, err)
	}
	return nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			QoS:          0,
			Topic:        "resources/power/#",
			ConnectGrace: 5,
		},
		TSDB: TSDBConfig{
			Backend:  BackendInfluxDB1,
			Host:     "localhost",
			Port:     8086,
			Username: "root",
			Password: "root",
			Database: "resources",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Meter: MeterConfig{
			Device:      "/dev/ttyUSB0",
			Baud:        9600,
			TopicPrefix: "resources/power",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: POWERBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	// MQTT
	if v := os.Getenv("POWERBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("POWERBRIDGE_MQTT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("POWERBRIDGE_MQTT_PORT: %w", err)
		}
		cfg.MQTT.Broker.Port = port
	}
	if v := os.Getenv("POWERBRIDGE_MQTT_CLIENT_ID"); v != "" {
		cfg.MQTT.Broker.ClientID = v
	}
	if v := os.Getenv("POWERBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("POWERBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("POWERBRIDGE_MQTT_TOPIC"); v != "" {
		cfg.MQTT.Topic = v
	}

	// TSDB
	if v := os.Getenv("POWERBRIDGE_TSDB_BACKEND"); v != "" {
		cfg.TSDB.Backend = v
	}
	if v := os.Getenv("POWERBRIDGE_TSDB_HOST"); v != "" {
		cfg.TSDB.Host = v
	}
	if v := os.Getenv("POWERBRIDGE_TSDB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("POWERBRIDGE_TSDB_PORT: %w", err)
		}
		cfg.TSDB.Port = port
	}
	if v := os.Getenv("POWERBRIDGE_TSDB_USERNAME"); v != "" {
		cfg.TSDB.Username = v
	}
	if v := os.Getenv("POWERBRIDGE_TSDB_PASSWORD"); v != "" {
		cfg.TSDB.Password = v
	}
	if v := os.Getenv("POWERBRIDGE_TSDB_DATABASE"); v != "" {
		cfg.TSDB.Database = v
	}
	if v := os.Getenv("POWERBRIDGE_TSDB_TOKEN"); v != "" {
		cfg.TSDB.Token = v
	}
	if v := os.Getenv("POWERBRIDGE_TSDB_ORG"); v != "" {
		cfg.TSDB.Org = v
	}

	// Logging
	if v := os.Getenv("POWERBRIDGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Meter
	if v := os.Getenv("POWERBRIDGE_METER_DEVICE"); v != "" {
		cfg.Meter.Device = v
	}

	return nil
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Topic == "" {
		errs = append(errs, "mqtt.topic is required")
	}
	if c.MQTT.ConnectGrace < 0 {
		errs = append(errs, "mqtt.connect_grace must not be negative")
	}

	// TSDB validation
	switch c.TSDB.Backend {
	case BackendInfluxDB1, BackendVictoriaMetrics:
	case BackendInfluxDB2:
		if c.TSDB.Token == "" {
			errs = append(errs, "tsdb.token is required for the influxdb2 backend")
		}
		if c.TSDB.Org == "" {
			errs = append(errs, "tsdb.org is required for the influxdb2 backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("tsdb.backend %q is not one of %s, %s, %s",
			c.TSDB.Backend, BackendInfluxDB1, BackendInfluxDB2, BackendVictoriaMetrics))
	}
	if c.TSDB.Host == "" {
		errs = append(errs, "tsdb.host is required")
	}
	if c.TSDB.Port < 1 || c.TSDB.Port > 65535 {
		errs = append(errs, "tsdb.port must be between 1 and 65535")
	}
	if c.TSDB.Database == "" {
		errs = append(errs, "tsdb.database is required")
	}
	if c.TSDB.WriteTimeout < 0 {
		errs = append(errs, "tsdb.write_timeout must not be negative")
	}

	// Meter validation
	if c.Meter.Baud <= 0 {
		errs = append(errs, "meter.baud must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// URL returns the HTTP base URL of the time-series database.
func (c TSDBConfig) URL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// GetWriteTimeout returns the per-write timeout as a Duration (0 means none).
func (c TSDBConfig) GetWriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeout) * time.Second
}

// GetConnectGrace returns the delay before exiting after a failed connect.
func (c MQTTConfig) GetConnectGrace() time.Duration {
	return time.Duration(c.ConnectGrace) * time.Second
}
