package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
)

// Tray icons, one per Status.
var (
	iconIdle     = createIcon(color.RGBA{R: 120, G: 144, B: 156, A: 255})
	iconChecking = createIcon(color.RGBA{R: 33, G: 150, B: 243, A: 255})
	iconReady    = createIcon(color.RGBA{R: 255, G: 179, B: 0, A: 255})
	iconError    = createIcon(color.RGBA{R: 229, G: 57, B: 53, A: 255})
)

const (
	iconSize     = 64
	ringOuter    = 28.0
	ringInner    = 19.0
	centerDot    = 9.0
	edgeSoftness = 1.0
)

// createIcon draws a ring with a center dot in c on a transparent 64x64
// canvas and returns it PNG encoded.
func createIcon(c color.Color) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	r, g, b, _ := c.RGBA()
	base := color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}

	const mid = (iconSize - 1) / 2.0
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			d := math.Hypot(float64(x)-mid, float64(y)-mid)
			cov := math.Max(ringCoverage(d), coverage(centerDot-d))
			if cov <= 0 {
				continue
			}
			px := base
			px.A = uint8(math.Round(cov * 255))
			img.SetNRGBA(x, y, px)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

// ringCoverage is the fraction of a pixel at distance d covered by the ring.
func ringCoverage(d float64) float64 {
	return math.Min(coverage(ringOuter-d), coverage(d-ringInner))
}

// coverage maps a signed distance from an edge to [0, 1].
func coverage(inside float64) float64 {
	return math.Max(0, math.Min(1, inside/edgeSoftness+0.5))
}
