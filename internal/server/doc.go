// Package server implements the MCP (Model Context Protocol) server for the
// gauge reader.
//
// The server exposes the reading pipeline, the review queue and a few
// diagnostic views over JSON-RPC 2.0, so an MCP client can read captures,
// answer review prompts and tune a profile.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Gauge Reading:
//   - gauge_read: Read a capture and label the result
//   - gauge_profile: Show the active profile in degrees
//
// Review:
//   - gauge_reviews_pending: List readings waiting for an operator
//   - gauge_review_decide: Accept or reject a pending reading
//
// Diagnostics:
//   - gauge_debug_edges: Canny edge map of a capture
//   - gauge_detect_lines: Line segments found in a capture
//   - image_load: Image metadata
//
// # Concurrency
//
// Each request runs in its own goroutine and responses may arrive out of
// order. This is what lets a gauge_read that is waiting for review be
// resolved by a later gauge_review_decide on the same connection. When
// stdin closes, pending reviews are cancelled and their readings resolve
// to bad.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(pipeline, queue, server.WithVersion(version))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
