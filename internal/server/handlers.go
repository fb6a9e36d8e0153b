package server

import (
	"encoding/json"
	"fmt"

	"github.com/mace-w/auto-crop/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_trim").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Debug().Err(err).Str("tool", params.Name).Msg("tool call failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Trim Operations
	case "image_content_bounds":
		return s.handleImageContentBounds(args)
	case "image_trim":
		return s.handleImageTrim(args)
	case "image_trim_preview":
		return s.handleImageTrimPreview(args)

	// Content Analysis
	case "image_content_colors":
		return s.handleImageContentColors(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// loadBuffer resolves a locator into the raw RGBA layout the trim core
// scans, going through the decode cache.
func (s *Server) loadBuffer(locator string) (*imaging.PixelBuffer, error) {
	img, err := s.cache.Load(locator)
	if err != nil {
		return nil, err
	}
	return imaging.ToPixelBuffer(img)
}

// effectiveStride applies the server default when a call omits the stride.
func (s *Server) effectiveStride(stride int) int {
	if stride == 0 {
		return s.stride
	}
	return imaging.ClampStride(stride)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Trim Operation Handlers ===

type imageContentBoundsArgs struct {
	Path   string `json:"path"`
	Stride int    `json:"stride"`
}

// ContentBoundsResponse reports the rectangle a trim would extract without
// performing the crop.
type ContentBoundsResponse struct {
	HasContent   bool `json:"has_content"`
	ShortCircuit bool `json:"short_circuit"`

	// Sampled extremes; only meaningful when HasContent is true and the
	// short circuit did not fire.
	MinX int `json:"min_x"`
	MinY int `json:"min_y"`
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`

	// Crop rectangle in original-image coordinates.
	RectX      int `json:"rect_x"`
	RectY      int `json:"rect_y"`
	RectWidth  int `json:"rect_width"`
	RectHeight int `json:"rect_height"`

	Stride int `json:"stride"`
}

func (s *Server) handleImageContentBounds(args json.RawMessage) (interface{}, error) {
	var a imageContentBoundsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	buf, err := s.loadBuffer(a.Path)
	if err != nil {
		return nil, err
	}
	stride := s.effectiveStride(a.Stride)

	// Same two stages as a trim, without deriving the crop. The rectangle
	// defaults to the full frame, which is what a trim returns for both
	// the short-circuit and the no-content outcome.
	resp := &ContentBoundsResponse{
		RectWidth:  buf.Width,
		RectHeight: buf.Height,
		Stride:     stride,
	}

	if imaging.CornersOpaque(buf) {
		resp.ShortCircuit = true
		resp.HasContent = true
		return resp, nil
	}

	bounds, err := imaging.ScanContentBounds(buf, stride)
	if err != nil {
		return nil, err
	}
	if bounds.HasContent {
		resp.HasContent = true
		resp.MinX = bounds.MinX
		resp.MinY = bounds.MinY
		resp.MaxX = bounds.MaxX
		resp.MaxY = bounds.MaxY
		resp.RectX = bounds.MinX
		resp.RectY = bounds.MinY
		resp.RectWidth = bounds.SpanWidth()
		resp.RectHeight = bounds.SpanHeight()
	}
	return resp, nil
}

type imageTrimArgs struct {
	Path   string  `json:"path"`
	Stride int     `json:"stride"`
	Scale  float64 `json:"scale"`
}

// TrimResponse is the result of an image_trim call. Image is omitted when
// the crop rectangle has zero area (the max-min span of single-row or
// single-column content), which cannot be encoded as PNG.
type TrimResponse struct {
	Trimmed        bool    `json:"trimmed"`
	HasContent     bool    `json:"has_content"`
	X              int     `json:"x"`
	Y              int     `json:"y"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	SavingsPercent float64 `json:"savings_percent"`
	Stride         int     `json:"stride"`

	Image *imaging.RenderResult `json:"image,omitempty"`
}

func (s *Server) handleImageTrim(args json.RawMessage) (interface{}, error) {
	var a imageTrimArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	buf, err := s.loadBuffer(a.Path)
	if err != nil {
		return nil, err
	}
	stride := s.effectiveStride(a.Stride)

	result, err := imaging.Autocrop(buf, stride)
	if err != nil {
		return nil, err
	}

	resp := &TrimResponse{
		Trimmed:        result.Trimmed,
		HasContent:     result.HasContent,
		X:              result.X,
		Y:              result.Y,
		Width:          result.Width,
		Height:         result.Height,
		SavingsPercent: result.SavingsPercent,
		Stride:         stride,
	}

	if result.Buffer.Width > 0 && result.Buffer.Height > 0 {
		rendered, err := imaging.Render(result.Buffer, a.Scale)
		if err != nil {
			return nil, err
		}
		resp.Image = rendered
	}
	return resp, nil
}

type imageTrimPreviewArgs struct {
	Path   string `json:"path"`
	Stride int    `json:"stride"`
	Color  string `json:"color"`
}

func (s *Server) handleImageTrimPreview(args json.RawMessage) (interface{}, error) {
	var a imageTrimPreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Color == "" {
		a.Color = "#FF0000"
	}
	buf, err := s.loadBuffer(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.BoundsPreview(buf, s.effectiveStride(a.Stride), a.Color)
}

// === Content Analysis Handlers ===

type imageContentColorsArgs struct {
	Path   string `json:"path"`
	Stride int    `json:"stride"`
	Count  int    `json:"count"`
}

func (s *Server) handleImageContentColors(args json.RawMessage) (interface{}, error) {
	var a imageContentColorsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Count == 0 {
		a.Count = 5
	}
	buf, err := s.loadBuffer(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.ContentColors(buf, s.effectiveStride(a.Stride), a.Count)
}
