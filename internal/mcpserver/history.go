package mcpserver

import (
	"context"

	"github.com/soyeahso/finch-mcp/internal/finch"
	"github.com/soyeahso/finch-mcp/internal/logging"
	"github.com/soyeahso/finch-mcp/internal/store"
)

type callerKey struct{}

// withCaller tags ctx with the tool or resource that triggered finch calls.
func withCaller(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, callerKey{}, name)
}

// CallerFrom returns the tool or resource name stored in ctx, if any.
func CallerFrom(ctx context.Context) string {
	name, _ := ctx.Value(callerKey{}).(string)
	return name
}

// HistoryObserver records every finch invocation in h, attributed to the
// tool or resource that caused it.
func HistoryObserver(h *store.HistoryStore, log *logging.Logger) finch.Observer {
	log = log.Sub("history")
	return func(ctx context.Context, out *finch.Output, err error) {
		args := make([]string, len(out.Args))
		for i, a := range out.Args {
			args[i] = logging.Redact(a)
		}
		inv := &store.Invocation{
			Tool:        CallerFrom(ctx),
			Args:        args,
			ExitCode:    out.ExitCode,
			StdoutBytes: len(out.Stdout),
			Stderr:      logging.Redact(out.Stderr),
			Duration:    out.Duration,
		}
		if err != nil {
			inv.Error = logging.Redact(err.Error())
		}
		// The call's context may already be cancelled; the record should still land.
		if rerr := h.Record(context.WithoutCancel(ctx), inv); rerr != nil {
			log.Warn().Err(rerr).Msg("recording invocation failed")
		}
	}
}
