// Package server implements the MCP (Model Context Protocol) server for
// vanishing point estimation.
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
//   - image_evict: Drop one image, or every image, from the cache
//
// Line Segments:
//   - image_detect_segments: Hough line segment detection
//
// Vanishing Points:
//   - image_vanishing_points: Detect segments, then extract vanishing points
//   - vanishing_points_from_segments: Extract vanishing points from given segments
//
// Detection runs on a processing frame downscaled to the configured width.
// Segment coordinates and finite vanishing points are mapped back to the
// original image before they are returned. Cluster indices in a result refer
// to the detected segment list in its original order.
//
// Every estimation seeds its own random source from the configured or
// requested seed, so repeated calls with the same input agree.
//
// # Error Handling
//
// Tool errors are returned as JSON-RPC error responses:
//   - -32602: unknown tool or invalid arguments
//   - -32000: tool execution failure (unreadable image and the like)
//
// # Metrics
//
// Tool calls and estimation rounds are recorded in Prometheus collectors
// registered with the default registry. The serve command exposes them when a
// metrics address is configured.
package server
