package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures runtime configuration values for the reminder service.
type Config struct {
	HTTPPort     int
	DatabaseFile string
	SessionTTL   time.Duration
	LogLevel     string
}

// fileConfig mirrors Config for the optional YAML configuration file.
type fileConfig struct {
	HTTPPort     int    `yaml:"http_port"`
	DatabaseFile string `yaml:"database_file"`
	SessionTTL   string `yaml:"session_ttl"`
	LogLevel     string `yaml:"log_level"`
}

// Load builds the service configuration. Defaults come first, then the
// optional YAML file named by REMINDER_CONFIG_FILE, then REMINDER_* environment
// variables, which always win.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:     8080,
		DatabaseFile: "reminder.db",
		SessionTTL:   24 * time.Hour,
		LogLevel:     "info",
	}

	if path := strings.TrimSpace(os.Getenv("REMINDER_CONFIG_FILE")); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("REMINDER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "REMINDER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if path := strings.TrimSpace(os.Getenv("REMINDER_DATABASE_FILE")); path != "" {
		cfg.DatabaseFile = path
	}

	if ttlValue := strings.TrimSpace(os.Getenv("REMINDER_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "REMINDER_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if level := strings.TrimSpace(os.Getenv("REMINDER_LOG_LEVEL")); level != "" {
		normalized := strings.ToLower(level)
		switch normalized {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = normalized
		default:
			invalid = append(invalid, "REMINDER_LOG_LEVEL")
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}

	var parsed fileConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse configuration file %s: %w", path, err)
	}

	if parsed.HTTPPort > 0 {
		cfg.HTTPPort = parsed.HTTPPort
	}
	if trimmed := strings.TrimSpace(parsed.DatabaseFile); trimmed != "" {
		cfg.DatabaseFile = trimmed
	}
	if trimmed := strings.TrimSpace(parsed.SessionTTL); trimmed != "" {
		ttl, err := time.ParseDuration(trimmed)
		if err != nil || ttl <= 0 {
			return fmt.Errorf("configuration file %s has an invalid session_ttl value: %q", path, parsed.SessionTTL)
		}
		cfg.SessionTTL = ttl
	}
	if trimmed := strings.TrimSpace(parsed.LogLevel); trimmed != "" {
		normalized := strings.ToLower(trimmed)
		switch normalized {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = normalized
		default:
			return fmt.Errorf("configuration file %s has an invalid log_level value: %q", path, parsed.LogLevel)
		}
	}

	return nil
}
