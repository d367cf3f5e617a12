package imaging

import (
	"image"
	"image/color"
	"math"
)

// EdgeDetectResult contains an edge image encoded as base64 PNG.
//
// White pixels (255) are edges, black pixels (0) are not.
type EdgeDetectResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	EdgePixels  int    `json:"edge_pixels"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EdgeDetect runs EdgeMap and renders the result as a PNG for inspection.
func EdgeDetect(img image.Image, thresholdLow, thresholdHigh int) (*EdgeDetectResult, error) {
	edges := EdgeMap(img, thresholdLow, thresholdHigh)
	out := EdgeImage(edges)

	encoded, err := EncodePNGBase64(out)
	if err != nil {
		return nil, err
	}

	return &EdgeDetectResult{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		EdgePixels:  CountEdges(edges),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// EdgeMap performs Canny-style edge detection and returns a [y][x] boolean
// map where true marks an edge pixel.
//
// Parameters:
//   - img: Source image (color or grayscale).
//   - thresholdLow: Low hysteresis threshold (0-255). Typical value: 50.
//   - thresholdHigh: High hysteresis threshold (0-255). Typical value: 150.
//
// # Algorithm
//
//  1. Grayscale conversion: ITU-R BT.601 luminance, scaled to [0,1]
//  2. Gaussian blur: 5x5 kernel to reduce noise
//  3. Gradient computation: Sobel operators, magnitude and direction
//  4. Non-maximum suppression: keep only local maxima across the edge, i.e.
//     along the gradient direction
//  5. Hysteresis thresholding: strong pixels are kept, weak pixels are kept
//     only when an 8-neighbour is strong
//
// Border pixels are never edges.
func EdgeMap(img image.Image, thresholdLow, thresholdHigh int) [][]bool {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	gray := grayPlane(img)
	blurred := gaussianBlur(gray, width, height)

	magnitude := make([][]float64, height)
	direction := make([][]float64, height)

	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	for y := 0; y < height; y++ {
		magnitude[y] = make([]float64, width)
		direction[y] = make([]float64, width)

		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					gx += blurred[py][px] * sobelX[ky+1][kx+1]
					gy += blurred[py][px] * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y][x] = math.Sqrt(gx*gx + gy*gy)
			direction[y][x] = math.Atan2(gy, gx)
		}
	}

	// Non-maximum suppression. Y grows downward, so a gradient pointing at
	// +45° runs towards (x+1, y+1).
	suppressed := make([][]float64, height)
	for y := 0; y < height; y++ {
		suppressed[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			if y == 0 || y == height-1 || x == 0 || x == width-1 {
				continue
			}

			angle := direction[y][x]
			mag := magnitude[y][x]

			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1 = magnitude[y][x-1]
				n2 = magnitude[y][x+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1 = magnitude[y+1][x+1]
				n2 = magnitude[y-1][x-1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1 = magnitude[y-1][x]
				n2 = magnitude[y+1][x]
			default:
				n1 = magnitude[y+1][x-1]
				n2 = magnitude[y-1][x+1]
			}

			if mag >= n1 && mag >= n2 {
				suppressed[y][x] = mag
			}
		}
	}

	lowThresh := float64(thresholdLow) / 255.0
	highThresh := float64(thresholdHigh) / 255.0

	edges := make([][]bool, height)
	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			val := suppressed[y][x]
			if val >= highThresh {
				edges[y][x] = true
			} else if val >= lowThresh {
				for ky := -1; ky <= 1 && !edges[y][x]; ky++ {
					for kx := -1; kx <= 1; kx++ {
						py := clamp(y+ky, 0, height-1)
						px := clamp(x+kx, 0, width-1)
						if suppressed[py][px] >= highThresh {
							edges[y][x] = true
							break
						}
					}
				}
			}
		}
	}

	return edges
}

// EdgeImage renders an edge map as a grayscale image anchored at (0,0).
func EdgeImage(edges [][]bool) *image.Gray {
	height := len(edges)
	width := 0
	if height > 0 {
		width = len(edges[0])
	}
	out := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if edges[y][x] {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// CountEdges returns the number of set pixels in an edge map.
func CountEdges(edges [][]bool) int {
	n := 0
	for _, row := range edges {
		for _, e := range row {
			if e {
				n++
			}
		}
	}
	return n
}

// grayPlane converts an image into [y][x] luminance values in [0,1].
func grayPlane(img image.Image) [][]float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	gray := make([][]float64, height)
	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < height; y++ {
			gray[y] = make([]float64, width)
			row := g.Pix[y*g.Stride : y*g.Stride+width]
			for x, v := range row {
				gray[y][x] = float64(v) / 255.0
			}
		}
		return gray
	}

	for y := 0; y < height; y++ {
		gray[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			rf := float64(r>>8) / 255.0
			gf := float64(g>>8) / 255.0
			bf := float64(b>>8) / 255.0
			gray[y][x] = 0.299*rf + 0.587*gf + 0.114*bf
		}
	}
	return gray
}

// gaussianBlur applies a 5x5 Gaussian blur (sigma ≈ 1.4, kernel sum 273).
// Border pixels use clamped (replicated) edge values.
func gaussianBlur(img [][]float64, width, height int) [][]float64 {
	kernel := [5][5]float64{
		{1, 4, 7, 4, 1},
		{4, 16, 26, 16, 4},
		{7, 26, 41, 26, 7},
		{4, 16, 26, 16, 4},
		{1, 4, 7, 4, 1},
	}
	kernelSum := 273.0

	result := make([][]float64, height)
	for y := 0; y < height; y++ {
		result[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var sum float64
			for ky := -2; ky <= 2; ky++ {
				for kx := -2; kx <= 2; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					sum += img[py][px] * kernel[ky+2][kx+2]
				}
			}
			result[y][x] = sum / kernelSum
		}
	}
	return result
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
