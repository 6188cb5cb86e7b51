package finch

import (
	"runtime"

	"github.com/soyeahso/finch-mcp/internal/logging"
)

// Client maps operations onto finch invocations.
type Client struct {
	runner Runner
	log    *logging.Logger
	goos   string
}

// Option configures a Client.
type Option func(*Client)

// WithGOOS overrides the host OS used to decide whether a VM is needed.
func WithGOOS(goos string) Option {
	return func(c *Client) { c.goos = goos }
}

// NewClient creates a Client that runs finch through r.
func NewClient(r Runner, log *logging.Logger, opts ...Option) *Client {
	c := &Client{
		runner: r,
		log:    log.Sub("finch"),
		goos:   runtime.GOOS,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
