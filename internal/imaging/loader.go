package imaging

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// fetchTimeout bounds how long a remote locator may take to respond.
const fetchTimeout = 30 * time.Second

// ImageCache provides thread-safe caching of decoded images so repeated
// tool calls against the same locator avoid redundant disk or network I/O.
//
// Images are keyed by the exact locator string; a relative and an absolute
// path to the same file are separate entries. Entries live until Evict or
// Clear, so long-running processes handling many images should clean up
// periodically.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
	client *http.Client
}

// NewImageCache creates an empty cache ready for concurrent use.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// Load returns the decoded image for a locator, fetching and decoding it on
// the first call. A locator is a file path or an http(s) URL. Supported
// formats: PNG, JPEG, GIF, BMP, TIFF, WebP. JPEG EXIF orientation is
// applied during decode.
func (c *ImageCache) Load(locator string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[locator]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	r, err := c.open(locator)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	c.mu.Lock()
	c.images[locator] = img
	c.mu.Unlock()

	return img, nil
}

// open resolves a locator to a byte stream.
func (c *ImageCache) open(locator string) (io.ReadCloser, error) {
	if isRemote(locator) {
		resp, err := c.client.Get(locator)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch image: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to fetch image: status %s", resp.Status)
		}
		return resp.Body, nil
	}

	f, err := os.Open(locator)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return f, nil
}

func isRemote(locator string) bool {
	return strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://")
}

// Clear removes all cached images, freeing the associated memory.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a single cached image by its locator. Unknown locators are
// ignored.
func (c *ImageCache) Evict(locator string) {
	c.mu.Lock()
	delete(c.images, locator)
	c.mu.Unlock()
}

// ToPixelBuffer flattens any decoded image into the raw RGBA layout the
// autocrop core scans: 4 bytes per pixel in raster order, alpha last.
// Premultiplied sources go through image/draw, so zero alpha stays zero and
// non-zero coverage stays non-zero, which is all the scan reads.
func ToPixelBuffer(img image.Image) (*PixelBuffer, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidImage, width, height)
	}

	// Fast path: an unpadded NRGBA image already has the layout.
	if n, ok := img.(*image.NRGBA); ok && n.Stride == width*4 && len(n.Pix) == width*height*4 {
		return &PixelBuffer{Width: width, Height: height, Pix: n.Pix}, nil
	}

	n := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(n, n.Bounds(), img, bounds.Min, draw.Src)
	return &PixelBuffer{Width: width, Height: height, Pix: n.Pix}, nil
}

// ImageInfo contains metadata about a loaded image.
type ImageInfo struct {
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Format        string `json:"format"`
	HasAlpha      bool   `json:"has_alpha"`
	FileSizeBytes int64  `json:"file_size_bytes,omitempty"`
}

// LoadImageInfo loads an image (caching it) and reports its dimensions,
// detected format, and whether its color model carries an alpha channel.
// File size is omitted for remote locators.
func LoadImageInfo(cache *ImageCache, locator string) (*ImageInfo, error) {
	img, err := cache.Load(locator)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	info := &ImageInfo{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: formatFromLocator(locator),
	}

	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		info.HasAlpha = true
	}

	if !isRemote(locator) {
		if stat, err := os.Stat(locator); err == nil {
			info.FileSizeBytes = stat.Size()
		}
	}

	return info, nil
}

// formatFromLocator guesses the format from the locator's extension. This
// is a hint for the caller, not a contents check.
func formatFromLocator(locator string) string {
	lower := strings.ToLower(locator)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "png"
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "jpeg"
	case strings.HasSuffix(lower, ".gif"):
		return "gif"
	case strings.HasSuffix(lower, ".bmp"):
		return "bmp"
	case strings.HasSuffix(lower, ".tif"), strings.HasSuffix(lower, ".tiff"):
		return "tiff"
	case strings.HasSuffix(lower, ".webp"):
		return "webp"
	default:
		return "unknown"
	}
}

// DimensionsResult contains just the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions is a lightweight alternative to LoadImageInfo when only the
// extents are needed.
func GetDimensions(cache *ImageCache, locator string) (*DimensionsResult, error) {
	img, err := cache.Load(locator)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &DimensionsResult{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
