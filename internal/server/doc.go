// Package server implements the MCP (Model Context Protocol) server for the
// nuclei counter.
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
//   - image_load: Load an image and report its metadata
//   - nuclei_methods: List the configured detection methods
//   - nuclei_count: Run the selected methods and return the export document,
//     optionally with base64 PNG overlays
//
// Images are decoded fresh for every call. Nothing is cached between
// requests, so a file changed on disk is always re-read.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A method that fails inside nuclei_count is not a tool error; it appears in
// the results with status "error".
package server
