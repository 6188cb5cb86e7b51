// Package mcpserver exposes finch operations as MCP tools and resources.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/soyeahso/finch-mcp/internal/ecr"
	"github.com/soyeahso/finch-mcp/internal/finch"
	"github.com/soyeahso/finch-mcp/internal/hooks"
	"github.com/soyeahso/finch-mcp/internal/logging"
	"github.com/soyeahso/finch-mcp/internal/store"
)

// Name is the server name announced during initialization.
const Name = "finch_mcp_server"

const instructions = `Manage containers and images with the finch CLI.

Tools build, push, run, inspect and list containers and images. Creating ECR
repositories and pushing to ECR require the server to be started with
--enable-aws-resource-write.

This server is intended for development and prototyping only.`

// Options configures a Server.
type Options struct {
	Client  *finch.Client
	ECR     *ecr.Service
	Hooks   *hooks.Manager
	History *store.HistoryStore
	Log     *logging.Logger
	Version string

	// ReadOnly blocks operations that create or modify AWS resources.
	ReadOnly bool
	// SkipVM disables the VM check before each call.
	SkipVM bool
	// FinchConfigPath is the finch.yaml updated for the ECR credential helper.
	FinchConfigPath string
	// CheckInstalled reports whether finch can be executed.
	CheckInstalled func() error
}

// Server binds finch operations to an MCP server.
type Server struct {
	mcp     *server.MCPServer
	client  *finch.Client
	ecr     *ecr.Service
	hooks   *hooks.Manager
	history *store.HistoryStore
	log     *logging.Logger

	readOnly        bool
	skipVM          bool
	finchConfigPath string
	checkInstalled  func() error
}

// New creates a Server and registers every tool and resource.
func New(opts Options) *Server {
	log := opts.Log.Sub("mcp")
	if opts.Hooks == nil {
		opts.Hooks = hooks.NewManager(opts.Log)
	}
	if opts.CheckInstalled == nil {
		opts.CheckInstalled = func() error { return finch.Installed("finch") }
	}
	if opts.Version == "" {
		opts.Version = "0.0.0-dev"
	}

	s := &Server{
		mcp: server.NewMCPServer(Name, opts.Version,
			server.WithToolCapabilities(true),
			server.WithResourceCapabilities(false, true),
			server.WithInstructions(instructions),
			server.WithLogging(),
			server.WithRecovery(),
		),
		client:          opts.Client,
		ecr:             opts.ECR,
		hooks:           opts.Hooks,
		history:         opts.History,
		log:             log,
		readOnly:        opts.ReadOnly,
		skipVM:          opts.SkipVM,
		finchConfigPath: opts.FinchConfigPath,
		checkInstalled:  opts.CheckInstalled,
	}

	s.mcp.AddTools(s.tools()...)
	s.registerResources()

	log.Debug().Bool("readOnly", s.readOnly).Msg("mcp server configured")
	return s
}

// MCP returns the underlying mcp-go server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// ServeStdio serves MCP over stdin/stdout until the client disconnects or
// ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.log.Info().Msg("serving MCP over stdio")
	err := server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// envelope is any operation result carrying a status.
type envelope interface {
	OK() bool
}

func errorResult(format string, args ...any) finch.Result {
	return finch.Result{Status: finch.StatusError, Message: fmt.Sprintf(format, args...)}
}

func statusOf(env envelope) string {
	if env.OK() {
		return finch.StatusSuccess
	}
	return finch.StatusError
}

// render encodes an envelope as indented JSON.
func render(env envelope) (string, error) {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return string(data), nil
}

type toolFunc func(ctx context.Context, req mcp.CallToolRequest) envelope

// handle adapts an operation into a tool handler. The envelope becomes the
// text content and the result is flagged as an error when its status is.
func (s *Server) handle(name string, fn toolFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx = withCaller(ctx, name)
		start := time.Now()

		s.log.Info().Str("tool", name).Msg("tool call")
		s.hooks.Dispatch(ctx, hooks.EventToolCallStart, map[string]any{
			"tool":      name,
			"arguments": req.GetArguments(),
		})

		env := fn(ctx, req)
		status := statusOf(env)

		s.hooks.Dispatch(ctx, hooks.EventToolCallEnd, map[string]any{
			"tool":       name,
			"status":     status,
			"durationMs": time.Since(start).Milliseconds(),
		})

		var evt *zerolog.Event
		if status == finch.StatusError {
			evt = s.log.Warn()
		} else {
			evt = s.log.Info()
		}
		evt.Str("tool", name).Str("status", status).Dur("duration", time.Since(start)).Msg("tool done")

		text, err := render(env)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res := mcp.NewToolResultText(text)
		res.IsError = !env.OK()
		return res, nil
	}
}

// guard makes sure finch is usable: installed, with its VM running where
// the host needs one.
func (s *Server) guard(ctx context.Context) finch.Result {
	if res := s.installed(); !res.OK() {
		return res
	}
	return s.ensureVM(ctx)
}

func (s *Server) installed() finch.Result {
	if err := s.checkInstalled(); err != nil {
		return errorResult("%v", err)
	}
	return finch.Result{Status: finch.StatusSuccess, Message: "Finch is installed."}
}

func (s *Server) ensureVM(ctx context.Context) finch.Result {
	if s.skipVM {
		return finch.Result{Status: finch.StatusSuccess, Message: "VM check skipped."}
	}
	return s.client.EnsureVMRunning(ctx)
}

// prepareECR registers the ECR credential helper with finch. The VM is
// stopped when the config changed so the next start picks it up.
func (s *Server) prepareECR(ctx context.Context) finch.Result {
	res, changed := finch.ConfigureECR(s.finchConfigPath)
	if !res.OK() {
		return res
	}
	if changed && s.client.NeedsVM() {
		s.log.Info().Msg("ECR configuration changed, restarting VM")
		if stop := s.client.StopVM(ctx, true); !stop.OK() {
			s.log.Warn().Str("message", stop.Message).Msg("stopping VM failed")
		}
	}
	return res
}
