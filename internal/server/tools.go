package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

// detectionProperties are the per-call detection overrides.
func detectionProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": pathProperty(),
		"processing_width": map[string]interface{}{
			"type":        "integer",
			"description": "Downscale the image to this width before detection, 0 to keep full size (default: from config, 640)",
		},
		"threshold": map[string]interface{}{
			"type":        "integer",
			"description": "Hough accumulator threshold (default: 120)",
		},
		"min_length": map[string]interface{}{
			"type":        "integer",
			"description": "Minimum segment length in pixels (default: 80)",
		},
		"max_gap": map[string]interface{}{
			"type":        "integer",
			"description": "Maximum gap bridged within one segment (default: 60)",
		},
		"max_segments": map[string]interface{}{
			"type":        "integer",
			"description": "Maximum segments returned (default: 200)",
		},
	}
}

// estimationProperties are the per-call MSAC overrides.
func estimationProperties() map[string]interface{} {
	return map[string]interface{}{
		"num_vanishing_points": map[string]interface{}{
			"type":        "integer",
			"description": "Number of vanishing points to extract (default: 2)",
		},
		"noise_threshold": map[string]interface{}{
			"type":        "number",
			"description": "Squared sine of the largest angular residual counted as an inlier (default: 0.03246)",
		},
		"max_iters": map[string]interface{}{
			"type":        "integer",
			"description": "Upper bound on hypotheses per round (default: 10000)",
		},
		"seed": map[string]interface{}{
			"type":        "integer",
			"description": "Random seed; equal seeds give equal results (default: from config)",
		},
	}
}

func merge(maps ...map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
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
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_evict",
			Description: "Drop a loaded image and its processing frames from the cache, or clear the whole cache.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"all": map[string]interface{}{
						"type":        "boolean",
						"description": "Clear every cached image; path is ignored (default: false)",
					},
				},
				"required": []string{},
			},
		},

		// Line Segments
		{
			Name:        "image_detect_segments",
			Description: "Detect straight line segments with a probabilistic Hough transform. Coordinates are in original image pixels.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": detectionProperties(),
				"required":   []string{"path"},
			},
		},

		// Vanishing Points
		{
			Name: "image_vanishing_points",
			Description: "Detect line segments in an image and extract vanishing points with MSAC. " +
				"Finite points are returned in original image pixels; points at infinity as calibrated unit directions.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(detectionProperties(), estimationProperties(), map[string]interface{}{
					"include_segments": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the detected segments the cluster indices refer to (default: false)",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "vanishing_points_from_segments",
			Description: "Extract vanishing points from caller-supplied line segments.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(estimationProperties(), map[string]interface{}{
					"segments": map[string]interface{}{
						"type":        "array",
						"description": "Line segments in pixel coordinates",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x1": map[string]interface{}{"type": "number"},
								"y1": map[string]interface{}{"type": "number"},
								"x2": map[string]interface{}{"type": "number"},
								"y2": map[string]interface{}{"type": "number"},
							},
							"required": []string{"x1", "y1", "x2", "y2"},
						},
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Image width, used for the default calibration",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Image height, used for the default calibration",
					},
					"calibration": map[string]interface{}{
						"type":        "array",
						"description": "Optional 3x3 camera matrix, row-major; replaces the default built from width and height",
						"items": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "number"},
						},
					},
				}),
				"required": []string{"segments"},
			},
		},
	}
}

// isKnownTool reports whether name is a defined tool.
func isKnownTool(name string) bool {
	for _, t := range GetToolDefinitions() {
		if t.Name == name {
			return true
		}
	}
	return false
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
