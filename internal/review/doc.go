// Package review provides the human front-ends behind gauge.ReviewGate.
//
// Terminal asks on a console and is used by the watch loop. Queue parks
// each request until a decision arrives through Decide, which is how the
// MCP server lets a remote operator resolve readings.
//
// Both return as soon as the gate's context ends; an unanswered request is
// never resolved to accept.
package review
