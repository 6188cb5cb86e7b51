package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

const (
	DefaultPort    = 18790
	DefaultTimeout = 10 * time.Minute
)

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Finch: FinchConfig{
			Binary:  "finch",
			Timeout: DefaultTimeout.String(),
		},
		Server: ServerConfig{
			Transport: "stdio",
			Port:      DefaultPort,
			Bind:      "loopback",
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
			MaxSizeMB:    10,
			MaxBackups:   7,
		},
		History: HistoryConfig{
			RetentionDays: 30,
		},
	}
}

// FinchTimeout parses the configured finch timeout, falling back to the default.
func (c Config) FinchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Finch.Timeout)
	if err != nil || d <= 0 {
		return DefaultTimeout
	}
	return d
}

// ListenAddr returns the host:port the SSE transport binds to.
func (c Config) ListenAddr() string {
	host := "127.0.0.1"
	switch c.Server.Bind {
	case "lan":
		host = "0.0.0.0"
	case "custom":
		if c.Server.CustomBindHost != "" {
			host = c.Server.CustomBindHost
		}
	}
	return net.JoinHostPort(host, strconv.Itoa(c.Server.Port))
}
