package finch

import (
	"context"
	"strings"
)

// Version runs "finch version".
func (c *Client) Version(ctx context.Context) VersionResult {
	out, err := c.runner.Run(ctx, "version")
	if err != nil {
		return VersionResult{Result: failure("Error getting version: %v", err)}
	}
	if !out.Success() {
		return VersionResult{Result: failure("Failed to get version: %s", out.ErrorText())}
	}
	return VersionResult{
		Result:  success("Successfully retrieved Finch version"),
		Version: strings.TrimSpace(out.Stdout),
	}
}

// Help runs "finch [command...] --help". An empty command gets top-level help.
func (c *Client) Help(ctx context.Context, command string) HelpResult {
	args := append(strings.Fields(command), "--help")
	out, err := c.runner.Run(ctx, args...)
	if err != nil {
		return HelpResult{Result: failure("Error getting help: %v", err)}
	}
	if !out.Success() {
		return HelpResult{Result: failure("Failed to get help: %s", out.ErrorText())}
	}

	msg := "Successfully retrieved Finch help"
	if command != "" {
		msg += " for " + command
	}
	return HelpResult{
		Result:   success("%s", msg),
		HelpText: strings.TrimSpace(out.Stdout),
	}
}
