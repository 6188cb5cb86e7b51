package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soyeahso/finch-mcp/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("FINCH_MCP_HOME", t.TempDir())
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"FALSE", false},
		{"18790", 18790},
		{"1.5", 1.5},
		{"10m", "10m"},
		{"us-west-2", "us-west-2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseValue(tt.in), tt.in)
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "version", "status", "history", "config"} {
		assert.Contains(t, names, want)
	}

	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)
	for _, flag := range []string{"transport", "port", "enable-aws-resource-write", "autorestart"} {
		assert.NotNil(t, serve.Flags().Lookup(flag), flag)
	}
}

func TestConfigSetGetUnset(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, runCLI(t, "--config", cfgPath, "config", "set", "aws.region", "eu-west-1"))
	require.NoError(t, runCLI(t, "--config", cfgPath, "config", "set", "server.port", "19000"))

	raw, err := config.LoadRaw(cfgPath)
	require.NoError(t, err)
	val, ok := config.GetValueAtPath(raw, []string{"aws", "region"})
	require.True(t, ok)
	assert.Equal(t, "eu-west-1", val)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 19000, cfg.Server.Port)

	require.NoError(t, runCLI(t, "--config", cfgPath, "config", "get", "aws.region"))
	require.NoError(t, runCLI(t, "--config", cfgPath, "config", "unset", "aws.region"))
	assert.Error(t, runCLI(t, "--config", cfgPath, "config", "get", "aws.region"))
}

func TestConfigLine(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "config.yaml")
	line := configLine(missing)
	assert.Equal(t, "Config:  "+missing+" (not found, using defaults)", line)
	assert.Equal(t, 1, strings.Count(line, "Config:"))

	require.NoError(t, os.WriteFile(missing, []byte("server:\n  port: 18790\n"), 0o600))
	assert.Equal(t, "Config:  "+missing, configLine(missing))
}

func TestEnvFile_Missing(t *testing.T) {
	err := runCLI(t, "--env-file", filepath.Join(t.TempDir(), "nope.env"), "version")
	assert.Error(t, err)
}

func TestServe_InvalidTransport(t *testing.T) {
	err := runCLI(t, "--log-level", "silent", "serve", "--transport", "carrier-pigeon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestHistory_NoDatabase(t *testing.T) {
	assert.NoError(t, runCLI(t, "--log-level", "silent", "history"))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "finch version v1.4.0", firstLine("finch version v1.4.0\nbuild abc"))
	assert.Equal(t, "x", firstLine("x"))
}
