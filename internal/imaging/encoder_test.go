package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image/png"
	"strings"
	"testing"
)

func decodeRendered(t *testing.T, r *RenderResult) *PixelBuffer {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(r.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}
	buf, err := ToPixelBuffer(img)
	if err != nil {
		t.Fatalf("failed to convert decoded PNG: %v", err)
	}
	return buf
}

func TestRender_RoundTrip(t *testing.T) {
	buf := newTransparentBuffer(6, 4)
	setOpaque(buf, 2, 1)

	result, err := Render(buf, 1.0)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if result.Width != 6 || result.Height != 4 {
		t.Errorf("dimensions: got %dx%d, want 6x4", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}

	decoded := decodeRendered(t, result)
	if decoded.Width != 6 || decoded.Height != 4 {
		t.Fatalf("decoded dimensions: got %dx%d, want 6x4", decoded.Width, decoded.Height)
	}
	if decoded.alphaAt(1*6+2) == 0 {
		t.Error("opaque pixel lost in round trip")
	}
	if decoded.alphaAt(0) != 0 {
		t.Error("transparent pixel became visible in round trip")
	}
}

func TestRender_Scale(t *testing.T) {
	buf := newTransparentBuffer(10, 10)
	setOpaque(buf, 0, 0)

	result, err := Render(buf, 2.0)
	if err != nil {
		t.Fatalf("Render with scale failed: %v", err)
	}
	if result.Width != 20 || result.Height != 20 {
		t.Errorf("scaled dimensions: got %dx%d, want 20x20", result.Width, result.Height)
	}
}

func TestRender_ZeroScaleKeepsSize(t *testing.T) {
	buf := newTransparentBuffer(10, 10)
	setOpaque(buf, 5, 5)

	result, err := Render(buf, 0)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if result.Width != 10 || result.Height != 10 {
		t.Errorf("dimensions: got %dx%d, want 10x10", result.Width, result.Height)
	}
}

func TestRender_EmptyBuffer(t *testing.T) {
	// A zero-area crop (the max-min span of a single-pixel image) cannot be
	// encoded as PNG.
	buf := &PixelBuffer{Width: 0, Height: 0, Pix: []uint8{}}

	_, err := Render(buf, 1.0)
	if !errors.Is(err, ErrInvalidImage) {
		t.Errorf("empty buffer should wrap ErrInvalidImage, got: %v", err)
	}
}

func TestRenderResult_DataURL(t *testing.T) {
	buf := newTransparentBuffer(2, 2)
	setOpaque(buf, 0, 0)

	result, err := Render(buf, 1.0)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	url := result.DataURL()
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("DataURL prefix: got %q", url)
	}
	if !strings.HasSuffix(url, result.ImageBase64) {
		t.Error("DataURL should end with the base64 payload")
	}
}

func TestToImage_SharesPixels(t *testing.T) {
	buf := newTransparentBuffer(3, 3)

	img, err := buf.ToImage()
	if err != nil {
		t.Fatalf("ToImage failed: %v", err)
	}

	buf.Pix[7] = 42
	if img.Pix[7] != 42 {
		t.Error("ToImage should wrap the buffer's pixel data without copying")
	}
	if img.Stride != 12 {
		t.Errorf("stride: got %d, want 12", img.Stride)
	}
}
