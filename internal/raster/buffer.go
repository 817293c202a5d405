package raster

import (
	"image"
	"math"
)

// FrameBuffer is the render target: an NRGBA image and a parallel z-buffer.
// Triangles write into Pix directly, so the finished frame needs no copy
// before encoding.
type FrameBuffer struct {
	Width  int
	Height int
	Pix    []uint8   // NRGBA interleaved, backing the image
	ZBuf   []float64 // depth per pixel, len = W*H, initialized to -inf

	img *image.NRGBA
}

// NewFrameBuffer allocates a transparent image and a -inf z-buffer.
func NewFrameBuffer(w, h int) *FrameBuffer {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	zbuf := make([]float64, w*h)
	for i := range zbuf {
		zbuf[i] = math.Inf(-1)
	}
	return &FrameBuffer{
		Width:  w,
		Height: h,
		Pix:    img.Pix,
		ZBuf:   zbuf,
		img:    img,
	}
}

// Image returns the backing image rasterization has been writing into.
func (fb *FrameBuffer) Image() *image.NRGBA {
	return fb.img
}
