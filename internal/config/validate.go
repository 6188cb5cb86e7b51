package config

import (
	"fmt"
	"slices"
	"time"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	// Finch
	if cfg.Finch.Timeout != "" {
		d, err := time.ParseDuration(cfg.Finch.Timeout)
		if err != nil {
			issues = append(issues, ValidationIssue{
				Path:    "finch.timeout",
				Message: fmt.Sprintf("invalid duration %q", cfg.Finch.Timeout),
			})
		} else if d <= 0 {
			issues = append(issues, ValidationIssue{
				Path:    "finch.timeout",
				Message: "must be positive",
			})
		}
	}

	// Server
	validTransports := []string{"stdio", "sse"}
	if cfg.Server.Transport != "" && !slices.Contains(validTransports, cfg.Server.Transport) {
		issues = append(issues, ValidationIssue{
			Path:    "server.transport",
			Message: fmt.Sprintf("must be one of %v, got %q", validTransports, cfg.Server.Transport),
		})
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "server.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Server.Port),
		})
	}

	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Server.Bind != "" && !slices.Contains(validBinds, cfg.Server.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "server.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Server.Bind),
		})
	}
	if cfg.Server.Bind == "custom" && cfg.Server.CustomBindHost == "" {
		issues = append(issues, ValidationIssue{
			Path:    "server.customBindHost",
			Message: "required when bind is custom",
		})
	}

	// Logging
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validConsoleStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	// Hooks
	for name, entries := range map[string][]HookEntry{
		"hooks.serverStart":   cfg.Hooks.ServerStart,
		"hooks.serverStop":    cfg.Hooks.ServerStop,
		"hooks.toolCallStart": cfg.Hooks.ToolCallStart,
		"hooks.toolCallEnd":   cfg.Hooks.ToolCallEnd,
	} {
		for i, h := range entries {
			if h.Command == "" {
				issues = append(issues, ValidationIssue{
					Path:    fmt.Sprintf("%s[%d].command", name, i),
					Message: "command is required",
				})
			}
		}
	}

	return issues
}
