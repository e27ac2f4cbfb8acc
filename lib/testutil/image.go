// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"image"
	"image/color"
	"math"
)

// Gradient returns a smooth w x h test image. JPEG reproduces it
// closely, so decoded copies can be compared with PSNR.
func Gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

// PSNR returns the peak signal-to-noise ratio in dB between two images
// of the same size, over the RGB channels. Identical images give +Inf;
// mismatched sizes give 0.
func PSNR(a, b image.Image) float64 {
	boundsA, boundsB := a.Bounds(), b.Bounds()
	if boundsA.Dx() != boundsB.Dx() || boundsA.Dy() != boundsB.Dy() {
		return 0
	}

	var sum float64
	for y := 0; y < boundsA.Dy(); y++ {
		for x := 0; x < boundsA.Dx(); x++ {
			r1, g1, b1, _ := a.At(boundsA.Min.X+x, boundsA.Min.Y+y).RGBA()
			r2, g2, b2, _ := b.At(boundsB.Min.X+x, boundsB.Min.Y+y).RGBA()
			for _, diff := range []float64{
				float64(r1>>8) - float64(r2>>8),
				float64(g1>>8) - float64(g2>>8),
				float64(b1>>8) - float64(b2>>8),
			} {
				sum += diff * diff
			}
		}
	}
	mse := sum / float64(boundsA.Dx()*boundsA.Dy()*3)
	if mse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(255*255/mse)
}
