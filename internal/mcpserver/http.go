package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/cors"
)

const (
	sseEndpoint     = "/sse"
	messageEndpoint = "/message"
	healthEndpoint  = "/health"
)

// HTTPOptions configures the SSE transport.
type HTTPOptions struct {
	Addr           string
	BaseURL        string // defaults to http://<Addr>
	AllowedOrigins []string
}

// HTTPServer serves MCP over SSE next to a health endpoint.
type HTTPServer struct {
	srv  *http.Server
	sse  *server.SSEServer
	mcp  *Server
	addr string
}

// NewHTTPServer builds the SSE transport for s.
func (s *Server) NewHTTPServer(opts HTTPOptions) *HTTPServer {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "http://" + opts.Addr
	}

	sse := server.NewSSEServer(s.mcp,
		server.WithBaseURL(baseURL),
		server.WithSSEEndpoint(sseEndpoint),
		server.WithMessageEndpoint(messageEndpoint),
		server.WithKeepAlive(true),
		server.WithKeepAliveInterval(30*time.Second),
	)

	h := &HTTPServer{sse: sse, mcp: s, addr: opts.Addr}

	router := mux.NewRouter()
	router.Handle(sseEndpoint, sse.SSEHandler()).Methods(http.MethodGet)
	router.Handle(messageEndpoint, sse.MessageHandler()).Methods(http.MethodPost)
	router.HandleFunc(healthEndpoint, h.handleHealth).Methods(http.MethodGet)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	h.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return h
}

// defaultOrigins admits local pages on any port.
var defaultOrigins = []string{
	"http://localhost",
	"http://localhost:*",
	"http://127.0.0.1",
	"http://127.0.0.1:*",
}

// Handler returns the root HTTP handler.
func (h *HTTPServer) Handler() http.Handler { return h.srv.Handler }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (h *HTTPServer) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", h.addr, err)
	}
	h.mcp.log.Info().Str("addr", ln.Addr().String()).Msg("serving MCP over SSE")

	errCh := make(chan error, 1)
	go func() { errCh <- h.srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.sse.Shutdown(shutdownCtx); err != nil {
		h.mcp.log.Warn().Err(err).Msg("sse shutdown")
	}
	if err := h.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

func (h *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"server":   Name,
		"readOnly": h.mcp.readOnly,
	})
}
