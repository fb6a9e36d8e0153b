package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writePaddedPNG writes a 20x20 PNG that is transparent except for an
// opaque white block covering x,y in [10,20), and returns its path.
func writePaddedPNG(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	for y := 10; y < 20; y++ {
		for x := 10; x < 20; x++ {
			img.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
		}
	}
	return writePNG(t, img, "padded.png")
}

// writeOpaquePNG writes a fully opaque 16x16 red PNG and returns its path.
func writeOpaquePNG(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, color.NRGBA{255, 0, 0, 255})
		}
	}
	return writePNG(t, img, "opaque.png")
}

func writePNG(t *testing.T, img image.Image, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create fixture: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}
	return path
}

func TestExecuteTool_Unknown(t *testing.T) {
	s := newTestServer()

	_, err := s.executeTool("image_rotate", json.RawMessage(`{}`))
	if err == nil {
		t.Fatal("unknown tool should fail")
	}
	if !strings.Contains(err.Error(), "unknown tool") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExecuteTool_AllDefinedToolsAreDispatchable(t *testing.T) {
	s := newTestServer()

	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			// Empty args fail inside the handler (missing path), never at
			// the dispatch switch.
			_, err := s.executeTool(tool.Name, json.RawMessage(`{}`))
			if err != nil && strings.Contains(err.Error(), "unknown tool") {
				t.Errorf("defined tool %q is not dispatched", tool.Name)
			}
		})
	}
}

func TestHandleImageLoad(t *testing.T) {
	s := newTestServer()
	path := writePaddedPNG(t)

	result, err := s.executeTool("image_load", mustArgs(t, map[string]interface{}{"path": path}))
	if err != nil {
		t.Fatalf("image_load failed: %v", err)
	}

	text := mustMarshalJSON(result)
	if !strings.Contains(text, `"width": 20`) || !strings.Contains(text, `"height": 20`) {
		t.Errorf("unexpected image_load result: %s", text)
	}
}

func TestHandleImageDimensions(t *testing.T) {
	s := newTestServer()
	path := writeOpaquePNG(t)

	result, err := s.executeTool("image_dimensions", mustArgs(t, map[string]interface{}{"path": path}))
	if err != nil {
		t.Fatalf("image_dimensions failed: %v", err)
	}

	text := mustMarshalJSON(result)
	if !strings.Contains(text, `"width": 16`) {
		t.Errorf("unexpected image_dimensions result: %s", text)
	}
}

func TestHandleImageTrim(t *testing.T) {
	s := newTestServer()
	path := writePaddedPNG(t)

	result, err := s.executeTool("image_trim", mustArgs(t, map[string]interface{}{
		"path":   path,
		"stride": 1,
	}))
	if err != nil {
		t.Fatalf("image_trim failed: %v", err)
	}

	resp, ok := result.(*TrimResponse)
	if !ok {
		t.Fatalf("unexpected result type %T", result)
	}

	if !resp.Trimmed || !resp.HasContent {
		t.Fatalf("expected a trim, got %+v", resp)
	}
	if resp.X != 10 || resp.Y != 10 {
		t.Errorf("rect origin: got (%d,%d), want (10,10)", resp.X, resp.Y)
	}
	if resp.Width != 9 || resp.Height != 9 {
		t.Errorf("rect size: got %dx%d, want 9x9", resp.Width, resp.Height)
	}
	if resp.SavingsPercent <= 0 {
		t.Errorf("savings: got %v, want > 0", resp.SavingsPercent)
	}
	if resp.Stride != 1 {
		t.Errorf("stride: got %d, want 1", resp.Stride)
	}

	if resp.Image == nil {
		t.Fatal("expected an image payload")
	}
	raw, err := base64.StdEncoding.DecodeString(resp.Image.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	cropped, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("failed to decode PNG payload: %v", err)
	}
	if cropped.Bounds().Dx() != 9 || cropped.Bounds().Dy() != 9 {
		t.Errorf("payload dimensions: got %dx%d, want 9x9",
			cropped.Bounds().Dx(), cropped.Bounds().Dy())
	}

	// Content translated to origin
	_, _, _, a := cropped.At(0, 0).RGBA()
	if a == 0 {
		t.Error("pixel (0,0) of the crop should be opaque")
	}
}

func TestHandleImageTrim_OpaqueImageUnchanged(t *testing.T) {
	s := newTestServer()
	path := writeOpaquePNG(t)

	result, err := s.executeTool("image_trim", mustArgs(t, map[string]interface{}{"path": path}))
	if err != nil {
		t.Fatalf("image_trim failed: %v", err)
	}

	resp := result.(*TrimResponse)
	if resp.Trimmed {
		t.Error("opaque image should short-circuit, not trim")
	}
	if resp.Width != 16 || resp.Height != 16 {
		t.Errorf("rect should cover full frame, got %dx%d", resp.Width, resp.Height)
	}
	if resp.Image == nil {
		t.Error("the unchanged image should still be returned")
	}
	if resp.Stride != 5 {
		t.Errorf("omitted stride should use the server default, got %d", resp.Stride)
	}
}

func TestHandleImageContentBounds(t *testing.T) {
	s := newTestServer()
	path := writePaddedPNG(t)

	result, err := s.executeTool("image_content_bounds", mustArgs(t, map[string]interface{}{
		"path":   path,
		"stride": 1,
	}))
	if err != nil {
		t.Fatalf("image_content_bounds failed: %v", err)
	}

	resp, ok := result.(*ContentBoundsResponse)
	if !ok {
		t.Fatalf("unexpected result type %T", result)
	}

	if !resp.HasContent || resp.ShortCircuit {
		t.Fatalf("unexpected flags: %+v", resp)
	}
	if resp.MinX != 10 || resp.MinY != 10 || resp.MaxX != 19 || resp.MaxY != 19 {
		t.Errorf("extremes: got (%d,%d)-(%d,%d), want (10,10)-(19,19)",
			resp.MinX, resp.MinY, resp.MaxX, resp.MaxY)
	}
	if resp.RectWidth != 9 || resp.RectHeight != 9 {
		t.Errorf("rect size: got %dx%d, want 9x9", resp.RectWidth, resp.RectHeight)
	}
}

func TestHandleImageContentBounds_ShortCircuit(t *testing.T) {
	s := newTestServer()
	path := writeOpaquePNG(t)

	result, err := s.executeTool("image_content_bounds", mustArgs(t, map[string]interface{}{"path": path}))
	if err != nil {
		t.Fatalf("image_content_bounds failed: %v", err)
	}

	resp := result.(*ContentBoundsResponse)
	if !resp.ShortCircuit || !resp.HasContent {
		t.Errorf("opaque corners should short-circuit: %+v", resp)
	}
	if resp.RectWidth != 16 || resp.RectHeight != 16 {
		t.Errorf("rect should cover full frame, got %dx%d", resp.RectWidth, resp.RectHeight)
	}
}

func TestHandleImageTrimPreview(t *testing.T) {
	s := newTestServer()
	path := writePaddedPNG(t)

	result, err := s.executeTool("image_trim_preview", mustArgs(t, map[string]interface{}{
		"path":   path,
		"stride": 1,
	}))
	if err != nil {
		t.Fatalf("image_trim_preview failed: %v", err)
	}

	text := mustMarshalJSON(result)
	if !strings.Contains(text, `"rect_x": 10`) {
		t.Errorf("unexpected preview result: %s", text)
	}
}

func TestHandleImageContentColors(t *testing.T) {
	s := newTestServer()
	path := writePaddedPNG(t)

	result, err := s.executeTool("image_content_colors", mustArgs(t, map[string]interface{}{
		"path":   path,
		"stride": 1,
		"count":  3,
	}))
	if err != nil {
		t.Fatalf("image_content_colors failed: %v", err)
	}

	text := mustMarshalJSON(result)
	if !strings.Contains(text, `"has_content": true`) {
		t.Errorf("unexpected content colors result: %s", text)
	}
}

func TestHandleToolsCall(t *testing.T) {
	s := newTestServer()
	path := writePaddedPNG(t)

	params, _ := json.Marshal(ToolCallParams{
		Name:      "image_dimensions",
		Arguments: mustArgs(t, map[string]interface{}{"path": path}),
	})
	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  params,
	})

	if resp == nil || resp.Error != nil {
		t.Fatalf("tools/call failed: %+v", resp)
	}
}

func TestHandleToolsCall_MissingImage(t *testing.T) {
	s := newTestServer()

	params, _ := json.Marshal(ToolCallParams{
		Name:      "image_trim",
		Arguments: json.RawMessage(`{"path":"/nonexistent.png"}`),
	})
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: params})

	if resp == nil || resp.Error == nil {
		t.Fatal("expected a tool execution error")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("error code: got %d, want -32000", resp.Error.Code)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer()

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})

	if resp == nil || resp.Error == nil {
		t.Fatal("expected an invalid params error")
	}
	if resp.Error.Code != -32602 {
		t.Errorf("error code: got %d, want -32602", resp.Error.Code)
	}
}

func mustArgs(t *testing.T, v map[string]interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal args: %v", err)
	}
	return b
}
