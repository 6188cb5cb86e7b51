package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "finch", cfg.Finch.Binary)
	assert.Equal(t, "10m0s", cfg.Finch.Timeout)
	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Equal(t, 18790, cfg.Server.Port)
	assert.Equal(t, "loopback", cfg.Server.Bind)
	assert.False(t, cfg.AWS.ResourceWrite)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "pretty", cfg.Logging.ConsoleStyle)
	assert.True(t, cfg.History.IsEnabled())
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 18790, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
finch:
  binary: /opt/finch/bin/finch
  timeout: 2m
server:
  transport: sse
  port: 9999
  bind: lan
  allowedOrigins:
    - http://localhost:3000
aws:
  resourceWrite: true
  region: eu-west-1
logging:
  level: debug
  consoleStyle: json
history:
  enabled: false
hooks:
  toolCallEnd:
    - command: "cat >> /tmp/finch-calls.jsonl"
      timeout: 500
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/finch/bin/finch", cfg.Finch.Binary)
	assert.Equal(t, 2*time.Minute, cfg.FinchTimeout())
	assert.Equal(t, "sse", cfg.Server.Transport)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "lan", cfg.Server.Bind)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.AWS.ResourceWrite)
	assert.Equal(t, "eu-west-1", cfg.AWS.Region)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.ConsoleStyle)
	assert.False(t, cfg.History.IsEnabled())
	require.Len(t, cfg.Hooks.ToolCallEnd, 1)
	assert.Equal(t, 500, cfg.Hooks.ToolCallEnd[0].Timeout)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{invalid yaml"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FINCH_MCP_PORT", "12345")
	t.Setenv("FINCH_MCP_LOG_LEVEL", "TRACE")
	t.Setenv("FINCH_MCP_TRANSPORT", "SSE")
	t.Setenv("FINCH_MCP_BINARY", "/usr/local/bin/finch")
	t.Setenv("FINCH_MCP_ENABLE_AWS_RESOURCE_WRITE", "true")
	t.Setenv("AWS_REGION", "us-west-2")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, 12345, cfg.Server.Port)
	assert.Equal(t, "trace", cfg.Logging.Level)
	assert.Equal(t, "sse", cfg.Server.Transport)
	assert.Equal(t, "/usr/local/bin/finch", cfg.Finch.Binary)
	assert.True(t, cfg.AWS.ResourceWrite)
	assert.Equal(t, "us-west-2", cfg.AWS.Region)
}

func TestLoadFastMCPLogLevel(t *testing.T) {
	t.Setenv("FASTMCP_LOG_LEVEL", "WARNING")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// FINCH_MCP_LOG_LEVEL wins when both are set
	t.Setenv("FINCH_MCP_LOG_LEVEL", "error")
	cfg, err = Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoadRegionFromFileBeatsEnv(t *testing.T) {
	t.Setenv("AWS_REGION", "us-west-2")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aws:\n  region: ap-south-1\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ap-south-1", cfg.AWS.Region)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_FINCH_PROFILE", "sandbox")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aws:\n  profile: ${TEST_FINCH_PROFILE}\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sandbox", cfg.AWS.Profile)
}

func TestExpandEnvVars_UnsetLeftAlone(t *testing.T) {
	assert.Equal(t, "${DEFINITELY_NOT_SET_FINCH_VAR}", expandEnvVars("${DEFINITELY_NOT_SET_FINCH_VAR}"))
}

func TestFinchTimeout_Fallback(t *testing.T) {
	cfg := Defaults()
	cfg.Finch.Timeout = "soon"
	assert.Equal(t, DefaultTimeout, cfg.FinchTimeout())

	cfg.Finch.Timeout = "-1s"
	assert.Equal(t, DefaultTimeout, cfg.FinchTimeout())
}

func TestListenAddr(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "127.0.0.1:18790", cfg.ListenAddr())

	cfg.Server.Bind = "lan"
	assert.Equal(t, "0.0.0.0:18790", cfg.ListenAddr())

	cfg.Server.Bind = "custom"
	cfg.Server.CustomBindHost = "10.0.0.5"
	cfg.Server.Port = 8080
	assert.Equal(t, "10.0.0.5:8080", cfg.ListenAddr())

	cfg.Server.CustomBindHost = "::1"
	assert.Equal(t, "[::1]:8080", cfg.ListenAddr())
}

func TestParseConfigPath(t *testing.T) {
	tests := []struct {
		input   string
		want    []string
		wantErr bool
	}{
		{"server.port", []string{"server", "port"}, false},
		{"aws.resourceWrite", []string{"aws", "resourceWrite"}, false},
		{"", nil, true},
		{"a..b", nil, true},
		{"__proto__.x", nil, true},
		{"x.constructor", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseConfigPath(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestGetSetValueAtPath(t *testing.T) {
	root := map[string]any{
		"server": map[string]any{
			"port": 18790,
		},
	}

	val, ok := GetValueAtPath(root, []string{"server", "port"})
	assert.True(t, ok)
	assert.Equal(t, 18790, val)

	_, ok = GetValueAtPath(root, []string{"server", "missing"})
	assert.False(t, ok)

	SetValueAtPath(root, []string{"server", "port"}, 9999)
	val, ok = GetValueAtPath(root, []string{"server", "port"})
	assert.True(t, ok)
	assert.Equal(t, 9999, val)

	SetValueAtPath(root, []string{"aws", "region"}, "us-east-1")
	val, ok = GetValueAtPath(root, []string{"aws", "region"})
	assert.True(t, ok)
	assert.Equal(t, "us-east-1", val)
}

func TestLoadRawAndSaveRaw(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	raw := map[string]any{
		"server": map[string]any{
			"port": 9999,
		},
	}

	require.NoError(t, SaveRaw(path, raw))

	loaded, err := LoadRaw(path)
	require.NoError(t, err)

	val, ok := GetValueAtPath(loaded, []string{"server", "port"})
	assert.True(t, ok)
	assert.Equal(t, 9999, val)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadRaw_MissingFile(t *testing.T) {
	raw, err := LoadRaw(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, raw)
}
