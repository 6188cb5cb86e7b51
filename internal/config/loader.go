package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// fields that commonly carry account-specific values.
func expandSensitiveFields(cfg *Config) {
	cfg.AWS.Profile = expandEnvVars(cfg.AWS.Profile)
	cfg.AWS.Region = expandEnvVars(cfg.AWS.Region)
	cfg.Finch.ConfigPath = expandEnvVars(cfg.Finch.ConfigPath)
	cfg.Logging.File = expandEnvVars(cfg.Logging.File)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Finch.Binary == "" {
		cfg.Finch.Binary = "finch"
	}
	if cfg.Finch.Timeout == "" {
		cfg.Finch.Timeout = DefaultTimeout.String()
	}
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = "stdio"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = "loopback"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = 10
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = 7
	}
	if cfg.History.RetentionDays == 0 {
		cfg.History.RetentionDays = 30
	}
}

// applyEnvOverrides reads FINCH_MCP_* environment variables and overrides config values.
// FASTMCP_LOG_LEVEL is honoured for existing MCP client configurations.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FASTMCP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = normalizeLevel(v)
	}
	if v := os.Getenv("FINCH_MCP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = normalizeLevel(v)
	}
	if v := os.Getenv("FINCH_MCP_TRANSPORT"); v != "" {
		cfg.Server.Transport = strings.ToLower(v)
	}
	if v := os.Getenv("FINCH_MCP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FINCH_MCP_BINARY"); v != "" {
		cfg.Finch.Binary = v
	}
	if v := os.Getenv("FINCH_MCP_ENABLE_AWS_RESOURCE_WRITE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AWS.ResourceWrite = b
		}
	}
	if cfg.AWS.Region == "" {
		if v := os.Getenv("AWS_REGION"); v != "" {
			cfg.AWS.Region = v
		}
	}
}

// normalizeLevel accepts "warning" and "critical" as aliases.
func normalizeLevel(v string) string {
	switch l := strings.ToLower(v); l {
	case "warning":
		return "warn"
	case "critical":
		return "fatal"
	default:
		return l
	}
}
