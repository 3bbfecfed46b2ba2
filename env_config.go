// env_config.go: Environment variable support for Hestia store configuration
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agilira/go-errors"
)

// EnvConfig represents configuration loaded from environment variables.
type EnvConfig struct {
	// Core Configuration
	ValuesPath  string `env:"HESTIA_VALUES_PATH"`
	OverrideDir string `env:"HESTIA_OVERRIDE_DIR"`

	// Audit Configuration
	AuditEnabled       bool          `env:"HESTIA_AUDIT_ENABLED"`
	AuditOutputFile    string        `env:"HESTIA_AUDIT_OUTPUT_FILE"`
	AuditMinLevel      string        `env:"HESTIA_AUDIT_MIN_LEVEL"`
	AuditBufferSize    int           `env:"HESTIA_AUDIT_BUFFER_SIZE"`
	AuditFlushInterval time.Duration `env:"HESTIA_AUDIT_FLUSH_INTERVAL"`
}

// LoadConfigFromEnv loads store configuration from environment variables,
// applying defaults for everything unset. Useful for container deployments.
func LoadConfigFromEnv() (*Config, error) {
	config := &Config{}
	envConfig := &EnvConfig{}

	if err := loadEnvVars(envConfig); err != nil {
		return nil, errors.Wrap(err, ErrCodeInvalidConfig, "failed to load environment configuration")
	}

	if err := convertEnvToConfig(envConfig, config); err != nil {
		return nil, errors.Wrap(err, ErrCodeInvalidConfig, "failed to convert environment configuration")
	}

	return config.WithDefaults(), nil
}

// loadEnvVars loads environment variables into the EnvConfig struct
func loadEnvVars(envConfig *EnvConfig) error {
	envConfig.ValuesPath = os.Getenv("HESTIA_VALUES_PATH")
	envConfig.OverrideDir = os.Getenv("HESTIA_OVERRIDE_DIR")

	if auditStr := os.Getenv("HESTIA_AUDIT_ENABLED"); auditStr != "" {
		envConfig.AuditEnabled = parseEnvBool(auditStr)
	}

	envConfig.AuditOutputFile = os.Getenv("HESTIA_AUDIT_OUTPUT_FILE")
	envConfig.AuditMinLevel = os.Getenv("HESTIA_AUDIT_MIN_LEVEL")

	if bufferStr := os.Getenv("HESTIA_AUDIT_BUFFER_SIZE"); bufferStr != "" {
		buffer, err := strconv.Atoi(bufferStr)
		if err != nil || buffer <= 0 {
			return errors.New(ErrCodeInvalidConfig, "invalid HESTIA_AUDIT_BUFFER_SIZE value")
		}
		envConfig.AuditBufferSize = buffer
	}

	if flushStr := os.Getenv("HESTIA_AUDIT_FLUSH_INTERVAL"); flushStr != "" {
		duration, err := time.ParseDuration(flushStr)
		if err != nil {
			return errors.New(ErrCodeInvalidConfig, "invalid HESTIA_AUDIT_FLUSH_INTERVAL format")
		}
		envConfig.AuditFlushInterval = duration
	}

	return nil
}

// convertEnvToConfig converts EnvConfig to standard Config
func convertEnvToConfig(envConfig *EnvConfig, config *Config) error {
	if envConfig.ValuesPath != "" {
		config.ValuesPath = envConfig.ValuesPath
	}
	if envConfig.OverrideDir != "" {
		config.OverrideDir = envConfig.OverrideDir
	}

	if envConfig.AuditEnabled || envConfig.AuditOutputFile != "" {
		config.Audit = DefaultAuditConfig()
		config.Audit.Enabled = envConfig.AuditEnabled

		if envConfig.AuditOutputFile != "" {
			config.Audit.OutputFile = envConfig.AuditOutputFile
		}

		if envConfig.AuditMinLevel != "" {
			level, err := parseAuditLevel(envConfig.AuditMinLevel)
			if err != nil {
				return err
			}
			config.Audit.MinLevel = level
		}

		if envConfig.AuditBufferSize > 0 {
			config.Audit.BufferSize = envConfig.AuditBufferSize
		}

		if envConfig.AuditFlushInterval > 0 {
			config.Audit.FlushInterval = envConfig.AuditFlushInterval
		}
	}
	return nil
}

// parseAuditLevel parses audit level string to AuditLevel type
func parseAuditLevel(levelStr string) (AuditLevel, error) {
	switch strings.ToLower(levelStr) {
	case "info":
		return AuditInfo, nil
	case "warn", "warning":
		return AuditWarn, nil
	case "critical", "error":
		return AuditCritical, nil
	case "security":
		return AuditSecurity, nil
	default:
		return AuditInfo, errors.New(ErrCodeInvalidConfig, "invalid audit level")
	}
}

// parseEnvBool parses boolean values from environment variables.
// Supports: true/false, 1/0, yes/no, on/off, enabled/disabled
func parseEnvBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on", "enabled":
		return true
	case "false", "0", "no", "off", "disabled":
		return false
	default:
		return false
	}
}

// GetEnvWithDefault returns environment variable value or default if not set
func GetEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvDurationWithDefault returns environment variable as duration or default
func GetEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetEnvBoolWithDefault returns environment variable as bool or default
func GetEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return parseEnvBool(value)
	}
	return defaultValue
}
