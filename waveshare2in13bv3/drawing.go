// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveshare2in13bv3

import (
	"image"
	"image/draw"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Pack converts src into a frame buffer for the display geometry in opts.
// Rows are packed most significant bit first, a set bit is white and the row
// padding is white. src is read from its top left corner.
func Pack(opts *Opts, src image.Image) []byte {
	bounds := image.Rect(0, 0, opts.Width, opts.Height)
	return drawFrame(bounds, bounds, src, src.Bounds().Min)
}

// drawFrame renders src into a white frame of size bounds and packs it.
func drawFrame(bounds, dstRect image.Rectangle, src image.Image, srcPts image.Point) []byte {
	next := image1bit.NewVerticalLSB(bounds)
	draw.Src.Draw(next, bounds, &image.Uniform{image1bit.On}, image.Point{})
	draw.Src.Draw(next, dstRect.Intersect(bounds), src, srcPts)
	return packBits(next)
}

func packBits(img *image1bit.VerticalLSB) []byte {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	cols := (w + 7) / 8
	buf := make([]byte, BufferLen(w, h))

	for y := 0; y < h; y++ {
		row := buf[y*cols : (y+1)*cols]
		for x := 0; x < cols*8; x++ {
			if x >= w || bool(img.BitAt(x, y)) {
				row[x/8] |= 0x80 >> (x % 8)
			}
		}
	}

	return buf
}
