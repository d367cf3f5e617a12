package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/ironsheep/gauge-reader/internal/archive"
	"github.com/ironsheep/gauge-reader/internal/gauge"
	"github.com/ironsheep/gauge-reader/internal/imaging"
	"github.com/ironsheep/gauge-reader/internal/publish"
	"github.com/ironsheep/gauge-reader/internal/review"
)

// Server handles MCP protocol communication
type Server struct {
	cache     *imaging.ImageCache
	pipeline  *gauge.Pipeline
	queue     *review.Queue
	archiver  archive.Archiver
	publisher *publish.Publisher
	version   string
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Option configures a Server.
type Option func(*Server)

// WithArchiver archives every reading taken through gauge_read.
func WithArchiver(a archive.Archiver) Option {
	return func(s *Server) { s.archiver = a }
}

// WithPublisher passes every reading taken through gauge_read to p.
func WithPublisher(p *publish.Publisher) Option {
	return func(s *Server) { s.publisher = p }
}

// WithVersion sets the version reported by initialize.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New creates a server reading gauges with pipeline. Uncertain readings are
// parked in queue until a client decides them with gauge_review_decide, so
// the pipeline should have been built with queue as its reviewer.
func New(pipeline *gauge.Pipeline, queue *review.Queue, opts ...Option) *Server {
	s := &Server{
		cache:    imaging.NewImageCache(),
		pipeline: pipeline,
		queue:    queue,
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run serves MCP on stdin and stdout until stdin closes.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one request per line from in and writes responses to out.
//
// Requests are handled concurrently: a gauge_read may wait for a human
// decision that arrives as a later gauge_review_decide call. Responses are
// therefore written in completion order, matched to requests by ID.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		encoder = json.NewEncoder(out)
	)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			continue
		}

		wg.Add(1)
		go func(req MCPRequest) {
			defer wg.Done()
			resp := s.handleRequest(ctx, &req)
			if resp == nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if err := encoder.Encode(resp); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
		}(req)
	}

	// Input is gone; abandon pending reviews so their reads can finish.
	cancel()
	wg.Wait()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "gauge-reader",
				"version": s.version,
			},
		},
	}
}
