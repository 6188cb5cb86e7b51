// Package hooks dispatches server and tool call lifecycle events to
// registered handlers.
package hooks

import (
	"context"
	"sync"

	"github.com/soyeahso/finch-mcp/internal/logging"
)

// Event names for the hook system.
const (
	EventServerStart   = "server_start"
	EventServerStop    = "server_stop"
	EventToolCallStart = "tool_call_start"
	EventToolCallEnd   = "tool_call_end"
)

// AllEvents lists all known hook event names.
var AllEvents = []string{
	EventServerStart,
	EventServerStop,
	EventToolCallStart,
	EventToolCallEnd,
}

// Payload is what a handler receives, and what command hooks read on stdin.
type Payload struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

// Handler handles one event. A returned error is logged and nothing more.
type Handler func(ctx context.Context, p Payload) error

type namedHandler struct {
	name    string
	handler Handler
}

// Manager holds handler registrations per event. Server lifecycle events are
// dispatched inline with Emit; tool call events go through Dispatch so a slow
// hook never delays the finch call that triggered it.
type Manager struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	inflight sync.WaitGroup
	log      *logging.Logger
}

// NewManager creates a hook manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		handlers: make(map[string][]namedHandler),
		log:      log.Sub("hooks"),
	}
}

// On registers a handler for the given event under a name used in logs.
func (m *Manager) On(event, name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], namedHandler{name: name, handler: handler})
	m.log.Debug().Str("event", event).Str("handler", name).Msg("hook registered")
}

func (m *Manager) snapshot(event string) []namedHandler {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]namedHandler(nil), m.handlers[event]...)
}

func (m *Manager) call(ctx context.Context, h namedHandler, p Payload) {
	if err := h.handler(ctx, p); err != nil {
		m.log.Warn().
			Err(err).
			Str("event", p.Event).
			Str("handler", h.name).
			Msg("hook handler error")
	}
}

// Emit runs every handler for event in registration order and returns when
// the last one does. A failing handler does not stop the rest.
func (m *Manager) Emit(ctx context.Context, event string, data map[string]any) {
	p := Payload{Event: event, Data: data}
	for _, h := range m.snapshot(event) {
		m.call(ctx, h, p)
	}
}

// Dispatch runs the handlers for event in the background, each in its own
// goroutine, and returns immediately. Handlers see ctx without its
// cancellation so they outlive the request that fired them; Wait drains them.
func (m *Manager) Dispatch(ctx context.Context, event string, data map[string]any) {
	handlers := m.snapshot(event)
	if len(handlers) == 0 {
		return
	}

	ctx = context.WithoutCancel(ctx)
	p := Payload{Event: event, Data: data}
	m.inflight.Add(len(handlers))
	for _, h := range handlers {
		go func(h namedHandler) {
			defer m.inflight.Done()
			m.call(ctx, h, p)
		}(h)
	}
}

// Wait blocks until every handler started by Dispatch has returned or ctx
// is done, whichever comes first.
func (m *Manager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
