package imaging

import (
	"errors"
	"fmt"
	"sync"

	"github.com/anthonynsimon/bild/parallel"
)

// ErrInvalidImage indicates a pixel buffer that cannot be scanned: missing,
// zero-sized, or with a byte length inconsistent with its declared dimensions.
var ErrInvalidImage = errors.New("invalid image buffer")

// DefaultStride is the sampling stride used when callers pass no preference.
// Every 5th pixel is examined, trading a slightly loose bounding box for a
// 5x faster scan.
const DefaultStride = 5

// spanEndOffset controls how the crop span is derived from the min/max
// content coordinates: width = maxX - minX + spanEndOffset. Zero keeps the
// bare difference for compatibility with existing consumers, which
// under-sizes the crop by one pixel per axis (a single-pixel image trims to
// 0x0). Set to 1 to switch the whole package to the inclusive span.
const spanEndOffset = 0

// parallelScanMinRows is the image height above which the bounds scan is
// partitioned across goroutines. Below it the goroutine overhead outweighs
// the scan itself.
const parallelScanMinRows = 512

// PixelBuffer is a decoded RGBA image: Pix holds width*height 4-byte groups
// in raster order, red first, alpha last. The autocrop functions never
// mutate it.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// validate checks the PixelBuffer invariant before any scanning happens.
func (b *PixelBuffer) validate() error {
	if b == nil || len(b.Pix) == 0 {
		return fmt.Errorf("%w: empty buffer", ErrInvalidImage)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidImage, b.Width, b.Height)
	}
	if want := b.Width * b.Height * 4; len(b.Pix) != want {
		return fmt.Errorf("%w: %d bytes for %dx%d, want %d",
			ErrInvalidImage, len(b.Pix), b.Width, b.Height, want)
	}
	return nil
}

// alphaAt returns the alpha sample of the pixel at linear raster index i.
func (b *PixelBuffer) alphaAt(i int) uint8 {
	return b.Pix[i*4+3]
}

// ContentBounds is the running min/max rectangle of sampled pixels with
// non-zero alpha. HasContent is false iff no sampled pixel was visible;
// pixels skipped by the stride are never examined, so it is a statement
// about the sampled subset only.
type ContentBounds struct {
	MinX, MinY int
	MaxX, MaxY int
	HasContent bool
}

func newContentBounds(width, height int) ContentBounds {
	// Inverted extremes so the first hit always updates all four edges.
	return ContentBounds{MinX: width, MinY: height, MaxX: -1, MaxY: -1}
}

func (cb *ContentBounds) mark(x, y int) {
	cb.HasContent = true
	if x < cb.MinX {
		cb.MinX = x
	}
	if x > cb.MaxX {
		cb.MaxX = x
	}
	if y < cb.MinY {
		cb.MinY = y
	}
	if y > cb.MaxY {
		cb.MaxY = y
	}
}

// SpanWidth is the crop width derived from the sampled extremes. Note the
// spanEndOffset convention: this is one pixel short of the inclusive span.
func (cb ContentBounds) SpanWidth() int {
	return cb.MaxX - cb.MinX + spanEndOffset
}

// SpanHeight is the crop height counterpart of SpanWidth.
func (cb ContentBounds) SpanHeight() int {
	return cb.MaxY - cb.MinY + spanEndOffset
}

// merge folds another partial result into cb, taking the element-wise
// min/max. Used to combine per-partition results of the parallel scan.
func (cb *ContentBounds) merge(other ContentBounds) {
	if !other.HasContent {
		return
	}
	cb.HasContent = true
	if other.MinX < cb.MinX {
		cb.MinX = other.MinX
	}
	if other.MaxX > cb.MaxX {
		cb.MaxX = other.MaxX
	}
	if other.MinY < cb.MinY {
		cb.MinY = other.MinY
	}
	if other.MaxY > cb.MaxY {
		cb.MaxY = other.MaxY
	}
}

// TrimResult describes the outcome of an Autocrop call.
//
// When Trimmed is false, Buffer aliases the input buffer unchanged: either
// the corner heuristic decided the frame carries no transparent padding, or
// no sampled pixel was visible at all (HasContent distinguishes the two).
// When Trimmed is true, Buffer is a freshly allocated crop owned by the
// caller and the rectangle fields locate it within the original frame.
type TrimResult struct {
	Buffer *PixelBuffer

	// X, Y, Width, Height is the crop rectangle in original-image
	// coordinates. Full frame when no trim happened.
	X, Y          int
	Width, Height int

	Trimmed    bool
	HasContent bool

	// SavingsPercent is the share of the original area removed by the
	// trim, 0 when Trimmed is false.
	SavingsPercent float64
}

// ClampStride corrects a sampling stride to its minimum of 1. An invalid
// stride is silently fixed rather than rejected; the scan must never
// degenerate to zero pixels examined.
func ClampStride(stride int) int {
	if stride < 1 {
		return 1
	}
	return stride
}

// Autocrop computes the bounding box of non-transparent content in buf,
// sampling every stride-th pixel, and returns either the input buffer
// (nothing to trim, or nothing visible) or a new buffer cropped to that box
// with the content translated to the origin. The input is never mutated.
func Autocrop(buf *PixelBuffer, stride int) (*TrimResult, error) {
	if err := buf.validate(); err != nil {
		return nil, err
	}
	stride = ClampStride(stride)

	full := &TrimResult{
		Buffer: buf,
		Width:  buf.Width,
		Height: buf.Height,
	}

	// Stage 1: corner heuristic. Opaque first and last raster pixel means
	// the frame is assumed to carry no transparent padding. Deliberately
	// wrong for an opaque border around a transparent interior; see
	// CornersOpaque.
	if CornersOpaque(buf) {
		full.HasContent = true
		return full, nil
	}

	// Stage 2: sampled scan.
	bounds := scanBounds(buf, stride)
	if !bounds.HasContent {
		// Nothing visible at any sampled position. Not an error: the
		// caller gets the frame back as-is rather than an empty crop.
		return full, nil
	}
	full.HasContent = true

	cropW := bounds.SpanWidth()
	cropH := bounds.SpanHeight()

	out := extract(buf, bounds.MinX, bounds.MinY, cropW, cropH)
	savings := 100 * (1 - float64(cropW*cropH)/float64(buf.Width*buf.Height))

	return &TrimResult{
		Buffer:         out,
		X:              bounds.MinX,
		Y:              bounds.MinY,
		Width:          cropW,
		Height:         cropH,
		Trimmed:        true,
		HasContent:     true,
		SavingsPercent: savings,
	}, nil
}

// CornersOpaque reports whether both the first and the last raster pixel
// have non-zero alpha. This is the short-circuit heuristic: it assumes such
// an image is already free of transparent padding, which holds for typical
// product shots but not for an opaque ring around a transparent interior.
// That trade is intentional and must not be "fixed" here. Callers must
// validate the buffer first.
func CornersOpaque(buf *PixelBuffer) bool {
	last := buf.Width*buf.Height - 1
	return buf.alphaAt(0) != 0 && buf.alphaAt(last) != 0
}

// ScanContentBounds runs the sampled raster scan on its own, without
// deriving a crop. The short-circuit stage is not applied; this is the raw
// second stage, exposed for callers that only want the rectangle.
func ScanContentBounds(buf *PixelBuffer, stride int) (ContentBounds, error) {
	if err := buf.validate(); err != nil {
		return ContentBounds{}, err
	}
	return scanBounds(buf, ClampStride(stride)), nil
}

func scanBounds(buf *PixelBuffer, stride int) ContentBounds {
	if buf.Height >= parallelScanMinRows {
		return scanBoundsParallel(buf, stride)
	}
	return scanBoundsSerial(buf, stride)
}

func scanBoundsSerial(buf *PixelBuffer, stride int) ContentBounds {
	bounds := newContentBounds(buf.Width, buf.Height)
	n := buf.Width * buf.Height
	for i := 0; i < n; i += stride {
		if buf.alphaAt(i) != 0 {
			bounds.mark(i%buf.Width, i/buf.Width)
		}
	}
	return bounds
}

// scanBoundsParallel partitions the scan by row ranges and merges the
// per-partition rectangles. Each partition visits exactly the linear
// indices divisible by stride that the serial scan would, so the sampled
// set (and therefore the result) is identical.
func scanBoundsParallel(buf *PixelBuffer, stride int) ContentBounds {
	var mu sync.Mutex
	total := newContentBounds(buf.Width, buf.Height)

	parallel.Line(buf.Height, func(start, end int) {
		part := newContentBounds(buf.Width, buf.Height)
		begin := start * buf.Width
		if rem := begin % stride; rem != 0 {
			begin += stride - rem
		}
		limit := end * buf.Width
		for i := begin; i < limit; i += stride {
			if buf.alphaAt(i) != 0 {
				part.mark(i%buf.Width, i/buf.Width)
			}
		}
		mu.Lock()
		total.merge(part)
		mu.Unlock()
	})

	return total
}

// extract allocates a cropW x cropH buffer and copies the source region so
// that the pixel at (minX, minY) lands at (0,0), clipping to the new
// buffer's bounds. A zero-area crop yields an empty (but valid) buffer.
func extract(buf *PixelBuffer, minX, minY, cropW, cropH int) *PixelBuffer {
	out := &PixelBuffer{
		Width:  cropW,
		Height: cropH,
		Pix:    make([]uint8, cropW*cropH*4),
	}

	rowLen := cropW
	if max := buf.Width - minX; rowLen > max {
		rowLen = max
	}
	for y := 0; y < cropH; y++ {
		srcY := minY + y
		if srcY >= buf.Height {
			break
		}
		src := (srcY*buf.Width + minX) * 4
		dst := y * cropW * 4
		copy(out.Pix[dst:dst+rowLen*4], buf.Pix[src:src+rowLen*4])
	}
	return out
}
