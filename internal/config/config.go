package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all CLI configuration
type Config struct {
	// Server settings
	Protocol string
	Host     string
	Port     int
	Database string

	// Credentials
	Username string
	Password string

	// Request settings
	Timeout         time.Duration
	APIReadyTimeout int
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Protocol:        "http",
		Host:            "localhost",
		Port:            8529,
		Database:        "_system",
		Username:        "root",
		Timeout:         30 * time.Second,
		APIReadyTimeout: 30,
	}
}

// LoadFromEnvironment loads configuration from environment variables
func (c *Config) LoadFromEnvironment() {
	if protocol := os.Getenv("ARANGO_PROTOCOL"); protocol != "" {
		c.Protocol = protocol
	}

	if host := os.Getenv("ARANGO_HOST"); host != "" {
		c.Host = host
	}

	if port := os.Getenv("ARANGO_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Port = p
		}
	}

	if database := os.Getenv("ARANGO_DATABASE"); database != "" {
		c.Database = database
	}

	if username := os.Getenv("ARANGO_USERNAME"); username != "" {
		c.Username = username
	}

	if password := os.Getenv("ARANGO_PASSWORD"); password != "" {
		c.Password = password
	}

	if timeout := os.Getenv("ARANGO_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			c.Timeout = time.Duration(t) * time.Second
		}
	}

	if timeout := os.Getenv("ARANGO_READY_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			c.APIReadyTimeout = t
		}
	}
}

// BaseURL returns the server address the configuration points at
func (c *Config) BaseURL() string {
	return fmt.Sprintf("%s://%s:%d", c.Protocol, c.Host, c.Port)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Protocol != "http" && c.Protocol != "https" {
		return fmt.Errorf("protocol must be http or https, got: %s", c.Protocol)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got: %d", c.Port)
	}

	if c.Database == "" {
		return fmt.Errorf("database name cannot be empty")
	}

	if c.APIReadyTimeout <= 0 {
		return fmt.Errorf("API ready timeout must be positive, got: %d", c.APIReadyTimeout)
	}

	return nil
}
