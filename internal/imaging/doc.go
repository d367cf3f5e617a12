// Package imaging provides the image primitives used by the gauge reader.
//
// This package implements loading, canonical resizing and smoothing, Canny
// edge maps, annotation drawing and encoding. All operations work with
// standard Go image.Image types and use a coordinate system where (0,0) is at
// the top-left corner, X increases rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - Edge maps are indexed [y][x] relative to the image bounds minimum
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// never mutate their input and always return a new image, so they can be
// called concurrently on the same source image.
//
// # Libraries
//
//   - github.com/disintegration/imaging: Lanczos resizing, thumbnails, JPEG encoding
//   - github.com/anthonynsimon/bild: Gaussian smoothing and grayscale conversion
//   - github.com/lucasb-eyer/go-colorful: hex colour parsing for annotations
//   - golang.org/x/image: TIFF decoding and the bitmap font used for labels
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Empty or zero-sized images
//   - File I/O errors during image loading
//   - Encoding errors during image output
package imaging
