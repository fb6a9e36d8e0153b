package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PreviewResult contains the original image with the detected content
// rectangle drawn over it, for visually verifying what a trim would keep.
type PreviewResult struct {
	RenderResult

	// Rectangle that a trim with the same stride would extract.
	RectX      int  `json:"rect_x"`
	RectY      int  `json:"rect_y"`
	RectWidth  int  `json:"rect_width"`
	RectHeight int  `json:"rect_height"`
	HasContent bool `json:"has_content"`

	// ShortCircuit is true when the opaque-corner heuristic decided the
	// frame needs no trim; the rectangle then covers the full frame.
	ShortCircuit bool `json:"short_circuit"`
}

// BoundsPreview runs the same two-stage detection as Autocrop but instead
// of cropping draws the resulting rectangle (outline plus a coordinate
// label) onto a copy of the image and returns it as base64 PNG.
func BoundsPreview(buf *PixelBuffer, stride int, outlineColorHex string) (*PreviewResult, error) {
	if err := buf.validate(); err != nil {
		return nil, err
	}
	stride = ClampStride(stride)

	outline, err := parseHexColor(outlineColorHex)
	if err != nil {
		outline = color.RGBA{255, 0, 0, 255} // Default: red
	}

	result := &PreviewResult{
		RectWidth:  buf.Width,
		RectHeight: buf.Height,
	}

	if CornersOpaque(buf) {
		result.ShortCircuit = true
		result.HasContent = true
	} else if b := scanBounds(buf, stride); b.HasContent {
		result.HasContent = true
		result.RectX = b.MinX
		result.RectY = b.MinY
		result.RectWidth = b.SpanWidth()
		result.RectHeight = b.SpanHeight()
	}
	// No content: the full-frame rect stands in, same as the trim contract.

	src, err := buf.ToImage()
	if err != nil {
		return nil, err
	}
	dst := image.NewNRGBA(src.Rect)
	copy(dst.Pix, src.Pix)

	drawRectOutline(dst, result.RectX, result.RectY, result.RectWidth, result.RectHeight, outline)
	label := fmt.Sprintf("%d,%d %dx%d", result.RectX, result.RectY, result.RectWidth, result.RectHeight)
	drawLabel(dst, result.RectX+2, result.RectY+12, label, outline)

	rendered, err := encodePNG(dst)
	if err != nil {
		return nil, err
	}
	result.RenderResult = *rendered

	return result, nil
}

// drawRectOutline draws a 1-pixel rectangle outline, clipped to the image.
// Degenerate (zero-extent) rectangles still get their edges drawn so the
// detected position stays visible.
func drawRectOutline(img *image.NRGBA, x, y, w, h int, c color.RGBA) {
	bounds := img.Bounds()
	set := func(px, py int) {
		if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
			img.SetNRGBA(px, py, color.NRGBA{c.R, c.G, c.B, c.A})
		}
	}
	for px := x; px <= x+w; px++ {
		set(px, y)
		set(px, y+h)
	}
	for py := y; py <= y+h; py++ {
		set(x, py)
		set(x+w, py)
	}
}

// drawLabel renders small text with the fixed 7x13 face. Labels that would
// start outside the image are skipped rather than clipped.
func drawLabel(img *image.NRGBA, x, y int, text string, c color.RGBA) {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.NRGBA{c.R, c.G, c.B, 255}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080"
func parseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}
