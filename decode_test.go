package btf

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/btf/internal/container"
	"github.com/meigma/btf/internal/testutil"
)

func TestConvertImageNRGBA(t *testing.T) {
	t.Parallel()

	m := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	m.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	m.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 128})

	im := convertImage(m)
	assert.Equal(t, Shape{Height: 1, Width: 2, Channels: 3}, im.Shape())

	// Channel order flips to BGR; alpha is dropped without
	// premultiplication.
	assert.Equal(t, float32(30), im.At(0, 0, 0))
	assert.Equal(t, float32(20), im.At(0, 0, 1))
	assert.Equal(t, float32(10), im.At(0, 0, 2))
	assert.Equal(t, float32(50), im.At(0, 1, 0))
	assert.Equal(t, float32(100), im.At(0, 1, 1))
	assert.Equal(t, float32(200), im.At(0, 1, 2))
}

func TestConvertImageGray(t *testing.T) {
	t.Parallel()

	m := image.NewGray(image.Rect(0, 0, 2, 2))
	m.SetGray(1, 1, color.Gray{Y: 77})

	im := convertImage(m)
	assert.Equal(t, Shape{Height: 2, Width: 2, Channels: 1}, im.Shape())
	assert.Equal(t, float32(0), im.At(0, 0, 0))
	assert.Equal(t, float32(77), im.At(1, 1, 0))
}

func TestConvertImageGray16Scaled(t *testing.T) {
	t.Parallel()

	m := image.NewGray16(image.Rect(0, 0, 1, 1))
	m.SetGray16(0, 0, color.Gray16{Y: 0xFFFF})

	im := convertImage(m)
	assert.Equal(t, Shape{Height: 1, Width: 1, Channels: 1}, im.Shape())
	assert.InDelta(t, 255, im.At(0, 0, 0), 1e-3)
}

func TestConvertImageGenericPath(t *testing.T) {
	t.Parallel()

	// RGBA exercises the color-model fallback used by decoders that
	// return neither NRGBA nor Gray.
	m := image.NewRGBA(image.Rect(0, 0, 1, 1))
	m.SetRGBA(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	im := convertImage(m)
	assert.Equal(t, Shape{Height: 1, Width: 1, Channels: 3}, im.Shape())
	assert.InDelta(t, 30, im.At(0, 0, 0), 0.5)
	assert.InDelta(t, 20, im.At(0, 0, 1), 0.5)
	assert.InDelta(t, 10, im.At(0, 0, 2), 0.5)
}

func TestImageFromRawReordersChannels(t *testing.T) {
	t.Parallel()

	d := &container.RawDesc{
		Height: 1, Width: 2, Channels: 3,
		U8: []uint8{10, 20, 30, 40, 50, 60}, // two RGB pixels
	}
	im, err := imageFromRaw(d)
	require.NoError(t, err)
	assert.Equal(t, Shape{Height: 1, Width: 2, Channels: 3}, im.Shape())
	assert.Equal(t, []float32{30, 20, 10, 60, 50, 40}, im.Pix())
}

func TestImageFromRawStripsAlpha(t *testing.T) {
	t.Parallel()

	d := &container.RawDesc{
		Height: 1, Width: 1, Channels: 4,
		U8: []uint8{10, 20, 30, 128},
	}
	im, err := imageFromRaw(d)
	require.NoError(t, err)
	assert.Equal(t, Shape{Height: 1, Width: 1, Channels: 3}, im.Shape())
	assert.Equal(t, []float32{30, 20, 10}, im.Pix())
}

func TestImageFromRawFloatPassthrough(t *testing.T) {
	t.Parallel()

	d := &container.RawDesc{
		Height: 1, Width: 1, Channels: 3,
		Float: []float32{0.25, 1.5, 1000},
	}
	im, err := imageFromRaw(d)
	require.NoError(t, err)
	assert.Equal(t, []float32{1000, 1.5, 0.25}, im.Pix())
}

func TestImageFromRawGraySingleChannel(t *testing.T) {
	t.Parallel()

	d := &container.RawDesc{Height: 2, Width: 1, Channels: 1, U8: []uint8{7, 9}}
	im, err := imageFromRaw(d)
	require.NoError(t, err)
	assert.Equal(t, Shape{Height: 2, Width: 1, Channels: 1}, im.Shape())
	assert.Equal(t, []float32{7, 9}, im.Pix())
}

func TestImageFromRawRejectsOddChannels(t *testing.T) {
	t.Parallel()

	d := &container.RawDesc{Height: 1, Width: 1, Channels: 2, U8: []uint8{1, 2}}
	_, err := imageFromRaw(d)
	require.ErrorIs(t, err, ErrDecode)
}

func TestImageFromRawRejectsShortBuffer(t *testing.T) {
	t.Parallel()

	d := &container.RawDesc{Height: 2, Width: 2, Channels: 3, U8: []uint8{1, 2, 3}}
	_, err := imageFromRaw(d)
	require.ErrorIs(t, err, ErrDecode)
}

func TestConvertImageEXRFloatPassthrough(t *testing.T) {
	t.Parallel()

	m, err := decodeImageBytes(testutil.EXR(t, 1, 1, 2, 0.5, 0.125), ".exr")
	require.NoError(t, err)

	// HDR samples keep their values: nothing is clamped to 1.0 or
	// rescaled into the 0-255 range.
	im := convertImage(m)
	assert.Equal(t, Shape{Height: 1, Width: 1, Channels: 3}, im.Shape())
	assert.Equal(t, []float32{0.125, 0.5, 2}, im.Pix())
}

func TestDecodeImageBytesRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := decodeImageBytes([]byte("not an image"), ".png")
	require.Error(t, err)
}
