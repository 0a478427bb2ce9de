// Package mcp exposes fixpoint over the Model Context Protocol so agent
// frameworks can drive idempotence checks: run a check, list the
// built-in transformations, and replay a recorded case. Command
// transformations are refused unless the server was started with exec
// allowed, since a connected agent would otherwise get arbitrary
// command execution for free.
package mcp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

const serverName = "fixpoint"

// Transport selects how the MCP server talks to its client.
type Transport string

const (
	// TransportStdio serves a single client over stdin/stdout.
	TransportStdio Transport = "stdio"

	// TransportSSE serves HTTP clients with server-sent events.
	TransportSSE Transport = "sse"
)

// DefaultMaxTrials caps the total trials a single run_check call may
// request. Agents retry freely; an uncapped server would let one bad
// prompt occupy it for hours.
const DefaultMaxTrials = 100000

// Server exposes the fixpoint tool set over MCP.
type Server struct {
	version   string
	allowExec bool
	maxTrials int
}

// Option configures a Server.
type Option func(*Server)

// WithExecAllowed permits run_check and replay_case to spawn external
// command transformations.
func WithExecAllowed() Option {
	return func(s *Server) {
		s.allowExec = true
	}
}

// WithMaxTrials overrides the per-call trial cap. Zero disables the cap.
func WithMaxTrials(n int) Option {
	return func(s *Server) {
		s.maxTrials = n
	}
}

// NewServer builds a Server advertising the given fixpoint version.
func NewServer(version string, opts ...Option) *Server {
	s := &Server{
		version:   version,
		maxTrials: DefaultMaxTrials,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) build() *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: s.version,
	}, &mcp.ServerOptions{})
	s.register(srv)
	return srv
}

// Run serves MCP over the chosen transport until ctx is cancelled or the
// transport fails. addr is only used by the SSE transport.
func (s *Server) Run(ctx context.Context, transport Transport, addr string) error {
	switch transport {
	case TransportStdio:
		logrus.WithFields(logrus.Fields{
			"transport":  TransportStdio,
			"allow_exec": s.allowExec,
		}).Info("starting MCP server")
		return s.build().Run(ctx, &mcp.StdioTransport{})

	case TransportSSE:
		srv := s.build()
		handler := mcp.NewSSEHandler(func(r *http.Request) *mcp.Server {
			return srv
		}, nil)
		logrus.WithFields(logrus.Fields{
			"transport":  TransportSSE,
			"addr":       addr,
			"allow_exec": s.allowExec,
		}).Info("starting MCP server")

		httpServer := &http.Server{Addr: addr, Handler: handler}
		go func() {
			<-ctx.Done()
			httpServer.Close()
		}()
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil

	default:
		return fmt.Errorf("unsupported transport: %s (supported: %s, %s)", transport, TransportStdio, TransportSSE)
	}
}
