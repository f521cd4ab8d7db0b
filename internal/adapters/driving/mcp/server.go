package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/topicnet/internal/core/domain"
)

// Version is reported to clients in the initialize handshake.
const Version = "0.1.0"

// maxRuns is how many reports the runs resources remember.
const maxRuns = 50

// Server exposes document splitting and topic search to MCP clients.
type Server struct {
	ports  *Ports
	server *mcp.Server

	mu   sync.Mutex
	runs []domain.RunReport
}

// NewServer registers the tools and resources. Ports must carry a split service.
func NewServer(ports *Ports) (*Server, error) {
	if ports == nil {
		return nil, fmt.Errorf("mcp: %w", ErrMissingSplitService)
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("mcp: %w", err)
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(&mcp.Implementation{Name: "topicnet", Version: Version}, nil),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves one client on stdin/stdout until ctx ends or the client leaves.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx ends.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr: addr,
		Handler: mcp.NewStreamableHTTPHandler(
			func(*http.Request) *mcp.Server { return s.server }, nil),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// record appends a finished run, dropping the oldest past maxRuns.
func (s *Server) record(report domain.RunReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, report)
	if extra := len(s.runs) - maxRuns; extra > 0 {
		s.runs = append(s.runs[:0:0], s.runs[extra:]...)
	}
}

// history returns a copy, oldest first.
func (s *Server) history() []domain.RunReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.RunReport(nil), s.runs...)
}

func (s *Server) run(id string) (domain.RunReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.runs) - 1; i >= 0; i-- {
		if s.runs[i].RunID == id {
			return s.runs[i], true
		}
	}
	return domain.RunReport{}, false
}
