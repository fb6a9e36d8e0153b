package imaging

import (
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// labMergeDistance is the perceptual (CIE Lab) distance under which two
// quantized colors are folded into one palette entry.
const labMergeDistance = 0.12

// quantizeStep groups nearby RGB values before counting, so anti-aliased
// gradients don't fragment the histogram.
const quantizeStep = 16

// ContentColor is one palette entry of the content region.
type ContentColor struct {
	Hex        string  `json:"hex"`        // "#RRGGBB"
	Percentage float64 `json:"percentage"` // share of visible sampled pixels (0-100)
}

// ContentColorsResult describes the visible content of an image as a small
// color palette, most common color first.
type ContentColorsResult struct {
	Colors        []ContentColor `json:"colors"`
	PixelsSampled int            `json:"pixels_sampled"`
	HasContent    bool           `json:"has_content"`
}

// ContentColors extracts the dominant colors of the non-transparent content
// inside the detected bounding box. The same sampling stride as the bounds
// scan is applied, fully transparent pixels are excluded, and perceptually
// near-identical colors are merged via Lab distance. count caps the palette
// size.
func ContentColors(buf *PixelBuffer, stride, count int) (*ContentColorsResult, error) {
	if err := buf.validate(); err != nil {
		return nil, err
	}
	stride = ClampStride(stride)
	if count < 1 {
		count = 5
	}

	bounds := scanBounds(buf, stride)
	if !bounds.HasContent {
		return &ContentColorsResult{Colors: []ContentColor{}}, nil
	}

	counts := make(map[colorful.Color]int)
	sampled := 0
	for y := bounds.MinY; y <= bounds.MaxY; y++ {
		for x := bounds.MinX; x <= bounds.MaxX; x += stride {
			i := (y*buf.Width + x) * 4
			if buf.Pix[i+3] == 0 {
				continue
			}
			counts[quantize(buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2])]++
			sampled++
		}
	}
	if sampled == 0 {
		return &ContentColorsResult{Colors: []ContentColor{}, HasContent: true}, nil
	}

	merged := mergeByLabDistance(counts)

	sort.Slice(merged, func(i, j int) bool {
		return counts[merged[i]] > counts[merged[j]]
	})
	if len(merged) > count {
		merged = merged[:count]
	}

	colors := make([]ContentColor, 0, len(merged))
	for _, c := range merged {
		colors = append(colors, ContentColor{
			Hex:        strings.ToUpper(c.Hex()),
			Percentage: float64(counts[c]) / float64(sampled) * 100,
		})
	}

	return &ContentColorsResult{
		Colors:        colors,
		PixelsSampled: sampled,
		HasContent:    true,
	}, nil
}

func quantize(r, g, b uint8) colorful.Color {
	q := func(v uint8) float64 {
		return float64(v/quantizeStep*quantizeStep) / 255.0
	}
	return colorful.Color{R: q(r), G: q(g), B: q(b)}
}

// mergeByLabDistance folds colors closer than labMergeDistance into the
// more frequent one, accumulating its count. Survivor order is undefined;
// callers sort afterwards.
func mergeByLabDistance(counts map[colorful.Color]int) []colorful.Color {
	all := make([]colorful.Color, 0, len(counts))
	for c := range counts {
		all = append(all, c)
	}
	// Most frequent first so survivors absorb their lesser neighbors.
	sort.Slice(all, func(i, j int) bool { return counts[all[i]] > counts[all[j]] })

	survivors := make([]colorful.Color, 0, len(all))
	for _, c := range all {
		absorbed := false
		for _, s := range survivors {
			if s.DistanceLab(c) < labMergeDistance {
				counts[s] += counts[c]
				absorbed = true
				break
			}
		}
		if !absorbed {
			survivors = append(survivors, c)
		}
	}
	return survivors
}
