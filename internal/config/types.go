package config

// Config is the root configuration for finch-mcp.
type Config struct {
	Finch   FinchConfig   `yaml:"finch,omitempty"`
	Server  ServerConfig  `yaml:"server,omitempty"`
	AWS     AWSConfig     `yaml:"aws,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
	Hooks   HooksConfig   `yaml:"hooks,omitempty"`
}

// FinchConfig controls how the finch CLI is invoked.
type FinchConfig struct {
	Binary     string `yaml:"binary,omitempty"`
	Timeout    string `yaml:"timeout,omitempty"`    // Go duration, e.g. "10m"
	ConfigPath string `yaml:"configPath,omitempty"` // finch.yaml, edited for ECR credential helpers
	SkipVM     bool   `yaml:"skipVm,omitempty"`     // do not start the VM before each call
}

// ServerConfig controls the MCP transport.
type ServerConfig struct {
	Transport      string   `yaml:"transport,omitempty"` // "stdio" | "sse"
	Port           int      `yaml:"port,omitempty"`
	Bind           string   `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string   `yaml:"customBindHost,omitempty"`
	BaseURL        string   `yaml:"baseUrl,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// AWSConfig controls ECR integration.
type AWSConfig struct {
	ResourceWrite bool   `yaml:"resourceWrite,omitempty"` // allow pushes and repository creation
	Region        string `yaml:"region,omitempty"`
	Profile       string `yaml:"profile,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
	MaxSizeMB    int    `yaml:"maxSizeMb,omitempty"`
	MaxBackups   int    `yaml:"maxBackups,omitempty"`
}

// HistoryConfig controls the invocation history store.
type HistoryConfig struct {
	Enabled       *bool  `yaml:"enabled,omitempty"`
	Path          string `yaml:"path,omitempty"`
	RetentionDays int    `yaml:"retentionDays,omitempty"`
}

// IsEnabled reports whether history recording is on. Unset means on.
func (h HistoryConfig) IsEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// HooksConfig defines event hooks.
type HooksConfig struct {
	ServerStart   []HookEntry `yaml:"serverStart,omitempty"`
	ServerStop    []HookEntry `yaml:"serverStop,omitempty"`
	ToolCallStart []HookEntry `yaml:"toolCallStart,omitempty"`
	ToolCallEnd   []HookEntry `yaml:"toolCallEnd,omitempty"`
}

// HookEntry defines a single hook action.
type HookEntry struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout,omitempty"` // milliseconds
}
