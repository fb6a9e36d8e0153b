package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// RenderResult contains a pixel buffer encoded for transport.
type RenderResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// DataURL formats the payload as a data URL suitable for direct embedding.
func (r *RenderResult) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", r.MimeType, r.ImageBase64)
}

// ToImage wraps the buffer's pixel data in an *image.NRGBA without copying.
// The returned image shares Pix with the buffer.
func (b *PixelBuffer) ToImage() (*image.NRGBA, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}, nil
}

// Render encodes a pixel buffer as base64 PNG, optionally rescaled. A scale
// of 1.0 (or 0, the unset default) keeps the original size. Zero-area
// buffers cannot be encoded and are rejected.
func Render(buf *PixelBuffer, scale float64) (*RenderResult, error) {
	img, err := buf.ToImage()
	if err != nil {
		return nil, err
	}

	var out image.Image = img
	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(buf.Width) * scale)
		newHeight := int(float64(buf.Height) * scale)
		out = imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)
	}

	return encodePNG(out)
}

// encodePNG produces the base64 PNG payload all image-returning tools share.
func encodePNG(img image.Image) (*RenderResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	bounds := img.Bounds()
	return &RenderResult{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
