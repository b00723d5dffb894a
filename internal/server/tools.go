package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

var pointSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"x": map[string]interface{}{"type": "number"},
		"y": map[string]interface{}{"type": "number"},
	},
	"required": []string{"x", "y"},
}

// quadProperties describe explicit corners. Without them the tool detects the
// document itself.
func quadProperties() map[string]interface{} {
	return map[string]interface{}{
		"corners": map[string]interface{}{
			"type":        "object",
			"description": "Document corners. Omit to detect the document automatically.",
			"properties": map[string]interface{}{
				"top_left":     pointSchema,
				"top_right":    pointSchema,
				"bottom_left":  pointSchema,
				"bottom_right": pointSchema,
			},
			"required": []string{"top_left", "top_right", "bottom_left", "bottom_right"},
		},
		"normalized": map[string]interface{}{
			"type":        "boolean",
			"description": "Corners are normalized [0,1] coordinates instead of pixels. Default false",
			"default":     false,
		},
	}
}

func detectProperties() map[string]interface{} {
	return map[string]interface{}{
		"convention": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"bottom-left", "top-left"},
			"description": "Origin of normalized coordinates. Default from config (bottom-left)",
		},
		"min_size": map[string]interface{}{
			"type":        "number",
			"description": "Minimum document size as a fraction of the shorter image side",
		},
		"min_confidence": map[string]interface{}{
			"type":        "number",
			"description": "Minimum detection confidence (0-1)",
		},
		"edge_threshold": map[string]interface{}{
			"type":        "number",
			"description": "Gradient magnitude counted as an edge. Lower for low-contrast backgrounds",
		},
	}
}

func rectifyProperties() map[string]interface{} {
	return map[string]interface{}{
		"width": map[string]interface{}{
			"type":        "integer",
			"description": "Output width. Default: longer of the top and bottom edges",
		},
		"height": map[string]interface{}{
			"type":        "integer",
			"description": "Output height. Default: longer of the left and right edges",
		},
		"max_dimension": map[string]interface{}{
			"type":        "integer",
			"description": "Cap on the longer side of an automatically sized page",
		},
		"border": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"clamp", "transparent", "constant"},
			"description": "How to fill parts of the page outside the image. Default clamp",
		},
		"border_color": map[string]interface{}{
			"type":        "string",
			"description": "Hex color for the constant border, e.g. #FFFFFF",
		},
	}
}

func outputProperties() map[string]interface{} {
	return map[string]interface{}{
		"output_path": map[string]interface{}{
			"type":        "string",
			"description": "Save the result here; the format follows the extension (.png, .jpg, .bmp, .tif)",
		},
		"include_image": map[string]interface{}{
			"type":        "boolean",
			"description": "Return the result as base64 PNG. Default true unless output_path is set",
		},
		"preview_dimension": map[string]interface{}{
			"type":        "integer",
			"description": "Longest side of the returned image. Default 1024",
		},
	}
}

func merge(groups ...map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	for _, g := range groups {
		for k, v := range g {
			out[k] = v
		}
	}
	return out
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The decoded image is cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Document Scanning
		{
			Name:        "image_detect_quad",
			Description: "Find the dominant document (sheet, receipt, card) in a photo. Returns its four corners in normalized and pixel coordinates with a confidence score.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(
					map[string]interface{}{
						"path": pathProperty,
						"preview": map[string]interface{}{
							"type":        "boolean",
							"description": "Also return the image with the detected outline drawn on it",
							"default":     false,
						},
					},
					detectProperties(),
				),
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_rectify",
			Description: "Perspective-correct a quadrilateral region into an upright rectangular page. Corners default to the detected document.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(
					map[string]interface{}{"path": pathProperty},
					quadProperties(),
					rectifyProperties(),
					outputProperties(),
					detectProperties(),
				),
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_overlay_quad",
			Description: "Draw a quadrilateral outline with optional corner labels on an image, to check detected or supplied corners visually.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(
					map[string]interface{}{
						"path": pathProperty,
						"color": map[string]interface{}{
							"type":        "string",
							"description": "Outline color (#RRGGBB or #RRGGBBAA)",
						},
						"fill": map[string]interface{}{
							"type":        "string",
							"description": "Optional fill color, usually translucent (#RRGGBBAA)",
						},
						"line_width": map[string]interface{}{
							"type":        "integer",
							"description": "Outline width in pixels",
						},
						"labels": map[string]interface{}{
							"type":        "boolean",
							"description": "Label each corner with its coordinates",
						},
					},
					quadProperties(),
					outputProperties(),
					detectProperties(),
				),
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_convert_points",
			Description: "Convert points between normalized detector coordinates, image pixels and a display viewport.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Image whose size to use when width/height are omitted",
					},
					"width":  map[string]interface{}{"type": "number", "description": "Image width in pixels"},
					"height": map[string]interface{}{"type": "number", "description": "Image height in pixels"},
					"points": map[string]interface{}{
						"type":  "array",
						"items": pointSchema,
					},
					"direction": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"to_pixel", "to_normalized", "to_display"},
						"description": "Conversion to apply. Default to_pixel",
					},
					"convention": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"bottom-left", "top-left"},
						"description": "Origin of the normalized coordinates",
					},
					"viewport": map[string]interface{}{
						"type":        "object",
						"description": "Display layer for to_display",
						"properties": map[string]interface{}{
							"width":  map[string]interface{}{"type": "number"},
							"height": map[string]interface{}{"type": "number"},
							"gravity": map[string]interface{}{
								"type": "string",
								"enum": []string{"resize", "aspect-fill", "aspect-fit"},
							},
						},
						"required": []string{"width", "height"},
					},
				},
				"required": []string{"points"},
			},
		},
		{
			Name:        "image_scan_document",
			Description: "Scan a document photo in one step: detect the page, rectify it and optionally read its text.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(
					map[string]interface{}{
						"path": pathProperty,
						"ocr": map[string]interface{}{
							"type":        "boolean",
							"description": "Run OCR on the rectified page. Default from config",
						},
						"language": map[string]interface{}{
							"type":        "string",
							"description": "Tesseract language code(s), e.g. eng or eng+deu",
						},
					},
					detectProperties(),
					rectifyProperties(),
					outputProperties(),
				),
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_scan_frames",
			Description: "Run the capture pipeline over a directory of frames (e.g. extracted video frames) and save each rectified page.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(
					map[string]interface{}{
						"dir": map[string]interface{}{
							"type":        "string",
							"description": "Directory of frame images, processed in name order",
						},
						"output_dir": map[string]interface{}{
							"type":        "string",
							"description": "Where to save rectified pages (page_0001.png, ...)",
						},
						"format": map[string]interface{}{
							"type":        "string",
							"enum":        []string{"png", "jpg"},
							"description": "Format of saved pages. Default png",
						},
						"max_fps": map[string]interface{}{
							"type":        "number",
							"description": "Frames per second to process. Default unlimited",
						},
						"orientation": map[string]interface{}{
							"type":        "string",
							"enum":        []string{"up", "right", "down", "left"},
							"description": "Rotation needed to turn the frames upright",
						},
					},
					detectProperties(),
					rectifyProperties(),
				),
				"required": []string{"dir"},
			},
		},

		// OCR Operations
		{
			Name:        "image_ocr_full",
			Description: "Extract all text from an image, typically a rectified page.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code. Default from config (eng)",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_ocr_region",
			Description: "Extract text from a rectangular region of an image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty,
					"x1":       map[string]interface{}{"type": "integer", "description": "Left edge"},
					"y1":       map[string]interface{}{"type": "integer", "description": "Top edge"},
					"x2":       map[string]interface{}{"type": "integer", "description": "Right edge (exclusive)"},
					"y2":       map[string]interface{}{"type": "integer", "description": "Bottom edge (exclusive)"},
					"language": map[string]interface{}{"type": "string"},
				},
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
