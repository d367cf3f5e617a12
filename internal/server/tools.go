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

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Gauge Reading
		{
			Name:        "gauge_read",
			Description: "Read the gauge in a captured image. Returns the value, the quality label (good or bad) and the needle observation. An uncertain reading waits for gauge_review_decide until the review timeout, then resolves to bad.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"previous_angle_deg": map[string]interface{}{
						"type":        "number",
						"description": "Optional needle angle of the previous reading, used to break ties between equally plausible needles",
					},
					"archive": map[string]interface{}{
						"type":        "boolean",
						"description": "Archive the annotated capture. Default true",
						"default":     true,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "gauge_profile",
			Description: "Describe the calibration in use: canonical resolution, pivot, reference axis, control points (degrees), out-of-range policy, quality thresholds and dead-zone size.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Review
		{
			Name:        "gauge_reviews_pending",
			Description: "List readings waiting for a human decision, oldest first, each with a thumbnail of the annotated capture.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"include_preview": map[string]interface{}{
						"type":        "boolean",
						"description": "Include base64 PNG thumbnails. Default true",
						"default":     true,
					},
				},
			},
		},
		{
			Name:        "gauge_review_decide",
			Description: "Accept or reject a pending reading. Accepted readings become good, rejected ones bad.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Review id from gauge_reviews_pending",
					},
					"decision": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"accept", "reject"},
						"description": "The verdict",
					},
				},
				"required": []string{"id", "decision"},
			},
		},

		// Diagnostics
		{
			Name:        "gauge_debug_edges",
			Description: "Run Canny edge detection and return the edge map as base64 PNG. With canonical=true the image is first normalized and masked exactly as the reader sees it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"canonical": map[string]interface{}{
						"type":        "boolean",
						"description": "Normalize and mask before edge detection. Default true",
						"default":     true,
					},
					"threshold_low": map[string]interface{}{
						"type":        "integer",
						"description": "Low hysteresis threshold (0-255). Default from the profile",
					},
					"threshold_high": map[string]interface{}{
						"type":        "integer",
						"description": "High hysteresis threshold (0-255). Default from the profile",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "gauge_detect_lines",
			Description: "Detect straight strokes with their length, angle, width and coverage. With canonical=true coordinates are canonical pixels of the normalized, masked image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"canonical": map[string]interface{}{
						"type":        "boolean",
						"description": "Normalize and mask before detection. Default true",
						"default":     true,
					},
					"min_length": map[string]interface{}{
						"type":        "integer",
						"description": "Minimum line length in pixels. Default from the profile",
					},
				},
				"required": []string{"path"},
			},
		},

		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and channel depth.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
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
