package btf

import "fmt"

// Shape is the (height, width, channels) of a decoded image. Every
// member of a valid archive shares one Shape.
type Shape struct {
	Height   int
	Width    int
	Channels int
}

// String formats the shape as "512x512x3".
func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Height, s.Width, s.Channels)
}

func (s Shape) pixLen() int {
	return s.Height * s.Width * s.Channels
}

// Image is one decoded BTF sample: channel-last float32 samples in
// blue-green-red channel order, the layout vision tooling expects.
// Sources with 8-bit depth keep their 0-255 values, 16-bit sources are
// scaled into the same range, and float sources keep their values.
//
// Images are immutable once returned; every query decodes into a fresh
// buffer, so callers may read concurrently but must not write.
type Image struct {
	shape Shape
	pix   []float32
}

// Shape returns the image dimensions.
func (im *Image) Shape() Shape { return im.shape }

// Height returns the number of pixel rows.
func (im *Image) Height() int { return im.shape.Height }

// Width returns the number of pixel columns.
func (im *Image) Width() int { return im.shape.Width }

// Channels returns the number of channels per pixel.
func (im *Image) Channels() int { return im.shape.Channels }

// Pix returns the backing sample buffer in row-major channel-last
// order: sample (y, x, c) lives at index (y*Width+x)*Channels+c.
// The slice aliases the image and must be treated as read-only.
func (im *Image) Pix() []float32 { return im.pix }

// At returns the sample at row y, column x, channel c.
func (im *Image) At(y, x, c int) float32 {
	return im.pix[(y*im.shape.Width+x)*im.shape.Channels+c]
}
