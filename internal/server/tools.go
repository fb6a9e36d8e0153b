package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperty is the locator argument every tool shares.
func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "File path or http(s) URL of the image",
	}
}

// strideProperty is the sampling stride argument of the scanning tools.
func strideProperty() map[string]interface{} {
	return map[string]interface{}{
		"type": "integer",
		"description": "Sampling stride: examine every Nth pixel. 1 = exhaustive scan (max accuracy), " +
			"larger values scan faster but may detect a looser box. Default 5. Values below 1 are treated as 1.",
		"default": 5,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image and return its dimensions, format, and whether it carries an alpha channel.",
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
			Description: "Get the width and height of an image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Trim Operations
		{
			Name: "image_content_bounds",
			Description: "Detect the bounding box of non-transparent content without cropping. " +
				"Reports the rectangle a trim would extract, or the full frame when the opaque-corner " +
				"short circuit fires or nothing visible is found.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty(),
					"stride": strideProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name: "image_trim",
			Description: "Strip transparent padding around the visible content and return the cropped " +
				"image as base64 PNG, with the crop rectangle and the share of area removed. Images whose " +
				"first and last pixel are already opaque come back unchanged.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty(),
					"stride": strideProperty(),
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor applied to the result (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name: "image_trim_preview",
			Description: "Return the original image with the detected content rectangle outlined and " +
				"labeled, to verify what a trim would keep before cropping.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty(),
					"stride": strideProperty(),
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Outline color as hex, e.g. #FF0000 or #FF000080. Default #FF0000",
						"default":     "#FF0000",
					},
				},
				"required": []string{"path"},
			},
		},

		// Content Analysis
		{
			Name: "image_content_colors",
			Description: "Extract the dominant colors of the non-transparent content inside the detected " +
				"bounding box. Perceptually near-identical colors are merged.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty(),
					"stride": strideProperty(),
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum palette size. Default 5",
						"default":     5,
					},
				},
				"required": []string{"path"},
			},
		},
	}
}
