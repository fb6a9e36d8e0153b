// Package imaging implements content-bounds autocropping for RGBA images.
//
// The core operation is Autocrop: given a raw RGBA pixel buffer, find the
// minimal axis-aligned bounding box of non-transparent content and return a
// new buffer cropped to it, so downstream consumers receive assets without
// transparent padding. Detection runs in two stages:
//
//  1. Corner short-circuit: if both the first and last raster pixel are
//     opaque, the frame is assumed to carry no padding and is returned
//     unchanged. This is a heuristic, not a proof; it trades correctness on
//     opaque-border/transparent-interior images for throughput on the
//     common case.
//
//  2. Sampled raster scan: every Nth pixel (the sampling stride) has its
//     alpha sample checked, and a running min/max rectangle accumulates the
//     hits. Larger strides scan faster but may produce a looser box, since
//     skipped pixels are never inspected.
//
// A fully transparent frame (at every sampled position) is not an error:
// the original buffer is returned unchanged, because cropping to an empty
// rectangle would destroy the asset.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with the origin at the top-left corner; X
// grows rightward, Y downward. Buffers are raster order (row-major), 4
// bytes per pixel, red first and alpha last.
//
// # Crop Span Convention
//
// The crop width/height is derived as max - min, not max - min + 1, so the
// result is one pixel narrower and shorter than the inclusive content span
// (a single visible pixel trims to an empty buffer). Existing consumers
// depend on this convention; the spanEndOffset constant is the single place
// to change if it is ever revised.
//
// # Collaborators
//
// ImageCache and ToPixelBuffer form the image-source side (decode a locator
// into the RGBA layout the scan requires); Render and BoundsPreview form
// the sink side (encode a buffer back into a transportable PNG payload).
// Neither is part of the detection contract.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The detection and crop functions
// are stateless and never mutate their input, so they can run concurrently
// on different (or the same) buffers.
package imaging
