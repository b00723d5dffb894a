// Package server implements the MCP (Model Context Protocol) server for
// document scanning tools, plus an optional HTTP API over the same handlers.
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
// Document Scanning:
//   - image_detect_quad: Find the document and its corners
//   - image_rectify: Perspective-correct a quadrilateral into a page
//   - image_overlay_quad: Draw corners on the image for review
//   - image_convert_points: Normalized, pixel and display coordinates
//   - image_scan_document: Detect, rectify and OCR in one call
//   - image_scan_frames: Run the capture pipeline over a directory of frames
//
// OCR Operations:
//   - image_ocr_full: Extract all text
//   - image_ocr_region: Extract text from region
//
// Tools that take corners accept them in pixels or, with "normalized": true,
// in the detector's normalized space. When corners are omitted the document is
// detected first.
//
// # HTTP API
//
// When an HTTP address is configured, Handler serves:
//
//	GET  /healthz
//	POST /v1/detect         image body (raw or multipart "file")
//	POST /v1/rectify        image body, returns the page as PNG or JPEG
//	POST /v1/tools/{name}   JSON arguments, same as tools/call
//
// Query parameters of /v1/rectify mirror the image_rectify arguments; corners
// are given as corners=x,y,x,y,x,y,x,y in TL, TR, BR, BL order.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Over HTTP, unusable geometry and failed detection map to 422, unknown
// tools to 404 and malformed requests to 400.
//
// # Usage
//
//	srv, err := server.New(cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
