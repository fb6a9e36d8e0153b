// Package server implements the MCP (Model Context Protocol) server for the
// autocrop tools.
//
// This package provides a JSON-RPC 2.0 server exposing alpha-trim
// capabilities: detecting the bounding box of non-transparent content in an
// image and cropping away the transparent padding around it.
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
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Trim Operations:
//   - image_content_bounds: Detect the content rectangle without cropping
//   - image_trim: Crop away transparent padding, return base64 PNG
//   - image_trim_preview: Original image with the detected rectangle drawn
//
// Content Analysis:
//   - image_content_colors: Dominant colors of the content region
//
// # Image Caching
//
// The server maintains an in-memory cache of decoded images keyed by
// locator (file path or URL), reused across tool calls for the lifetime of
// the process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with code
// -32000 (or standard JSON-RPC codes for malformed requests); the Go error
// string travels in the data field. A fully transparent image is not an
// error: image_trim returns it unchanged with trimmed=false.
//
// Diagnostics go to the configured zerolog logger (stderr by convention),
// never to stdout, which carries only the protocol.
package server
