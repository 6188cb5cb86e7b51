package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/soyeahso/finch-mcp/internal/config"
	"github.com/soyeahso/finch-mcp/internal/logging"
)

// DefaultCommandTimeout bounds a command hook that sets no timeout.
const DefaultCommandTimeout = 5 * time.Second

// CommandHandler returns a handler that runs command through sh -c with the
// JSON-encoded payload on stdin.
func CommandHandler(entry config.HookEntry, log *logging.Logger) Handler {
	timeout := DefaultCommandTimeout
	if entry.Timeout > 0 {
		timeout = time.Duration(entry.Timeout) * time.Millisecond
	}

	return func(ctx context.Context, p Payload) error {
		body, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding payload: %w", err)
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(ctx, "sh", "-c", entry.Command)
		cmd.Stdin = bytes.NewReader(body)
		cmd.WaitDelay = time.Second
		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		start := time.Now()
		if err := cmd.Run(); err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return fmt.Errorf("hook command %q: %w: %s", entry.Command, err, msg)
			}
			return fmt.Errorf("hook command %q: %w", entry.Command, err)
		}

		log.Debug().
			Str("event", p.Event).
			Str("command", entry.Command).
			Dur("duration", time.Since(start)).
			Msg("hook command finished")
		return nil
	}
}

// RegisterCommandHooks wires the configured shell hooks into the manager and
// returns the number registered.
func RegisterCommandHooks(m *Manager, cfg config.HooksConfig, log *logging.Logger) int {
	byEvent := map[string][]config.HookEntry{
		EventServerStart:   cfg.ServerStart,
		EventServerStop:    cfg.ServerStop,
		EventToolCallStart: cfg.ToolCallStart,
		EventToolCallEnd:   cfg.ToolCallEnd,
	}

	n := 0
	for _, event := range AllEvents {
		for i, entry := range byEvent[event] {
			if strings.TrimSpace(entry.Command) == "" {
				continue
			}
			m.On(event, fmt.Sprintf("command-%d", i), CommandHandler(entry, m.log))
			n++
		}
	}
	if n > 0 {
		log.Info().Int("count", n).Msg("command hooks registered")
	}
	return n
}
