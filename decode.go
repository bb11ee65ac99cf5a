package btf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/mokiat/goexr/exr"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/meigma/btf/internal/container"
)

// scale16 maps 16-bit samples into the 8-bit value range.
const scale16 = 257

// decodeEntry produces the BGR channel-last image for one member.
func decodeEntry(e container.Entry, ext string) (*Image, error) {
	if e.IsRaw() {
		d, err := e.Raw()
		if err != nil {
			return nil, fmt.Errorf("%w: member %q: %w", ErrDecode, e.Name, err)
		}
		im, err := imageFromRaw(d)
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", e.Name, err)
		}
		return im, nil
	}

	data, err := e.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: member %q: %w", ErrDecode, e.Name, err)
	}
	m, err := decodeImageBytes(data, ext)
	if err != nil {
		return nil, fmt.Errorf("%w: member %q: %v", ErrDecode, e.Name, err)
	}
	return convertImage(m), nil
}

// probeShape determines a member's post-conversion shape as cheaply as
// the format allows: raw members from their descriptor, most image
// formats from a header-only decode, EXR by full decode.
func probeShape(e container.Entry, ext string) (Shape, error) {
	if e.IsRaw() {
		d, err := e.Raw()
		if err != nil {
			return Shape{}, fmt.Errorf("%w: member %q: %w", ErrDecode, e.Name, err)
		}
		c, err := outputChannels(d.Channels)
		if err != nil {
			return Shape{}, fmt.Errorf("member %q: %w", e.Name, err)
		}
		return Shape{Height: d.Height, Width: d.Width, Channels: c}, nil
	}

	data, err := e.Bytes()
	if err != nil {
		return Shape{}, fmt.Errorf("%w: member %q: %w", ErrDecode, e.Name, err)
	}
	if normalizeExt(ext) == ".exr" {
		m, err := decodeImageBytes(data, ext)
		if err != nil {
			return Shape{}, fmt.Errorf("%w: member %q: %v", ErrDecode, e.Name, err)
		}
		return convertImage(m).Shape(), nil
	}

	cfg, err := decodeImageConfig(data, ext)
	if err != nil {
		return Shape{}, fmt.Errorf("%w: member %q: %v", ErrDecode, e.Name, err)
	}
	c := 3
	if cfg.ColorModel == color.GrayModel || cfg.ColorModel == color.Gray16Model {
		c = 1
	}
	return Shape{Height: cfg.Height, Width: cfg.Width, Channels: c}, nil
}

func decodeImageBytes(data []byte, ext string) (image.Image, error) {
	r := bytes.NewReader(data)
	switch normalizeExt(ext) {
	case ".png":
		return png.Decode(r)
	case ".jpg", ".jpeg":
		return jpeg.Decode(r)
	case ".tif", ".tiff":
		return tiff.Decode(r)
	case ".bmp":
		return bmp.Decode(r)
	case ".exr":
		return exr.Decode(r)
	default:
		m, _, err := image.Decode(r)
		return m, err
	}
}

func decodeImageConfig(data []byte, ext string) (image.Config, error) {
	r := bytes.NewReader(data)
	switch normalizeExt(ext) {
	case ".png":
		return png.DecodeConfig(r)
	case ".jpg", ".jpeg":
		return jpeg.DecodeConfig(r)
	case ".tif", ".tiff":
		return tiff.DecodeConfig(r)
	case ".bmp":
		return bmp.DecodeConfig(r)
	default:
		cfg, _, err := image.DecodeConfig(r)
		return cfg, err
	}
}

func normalizeExt(ext string) string {
	return strings.ToLower(ext)
}

// convertImage lays a decoded image out channel-last in BGR order.
// Grayscale sources keep a single channel; every color source becomes
// three channels with alpha dropped. Integer sources map into the
// 0-255 range; EXR float samples pass through unscaled.
func convertImage(m image.Image) *Image {
	b := m.Bounds()
	h, w := b.Dy(), b.Dx()

	switch src := m.(type) {
	case *image.Gray:
		im := newImage(Shape{Height: h, Width: w, Channels: 1})
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				im.pix[y*w+x] = float32(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
		return im
	case *image.Gray16:
		im := newImage(Shape{Height: h, Width: w, Channels: 1})
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := src.Gray16At(b.Min.X+x, b.Min.Y+y).Y
				im.pix[y*w+x] = float32(v) / scale16
			}
		}
		return im
	case *image.NRGBA:
		im := newImage(Shape{Height: h, Width: w, Channels: 3})
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				o := src.PixOffset(b.Min.X+x, b.Min.Y+y)
				i := (y*w + x) * 3
				im.pix[i+0] = float32(src.Pix[o+2]) // B
				im.pix[i+1] = float32(src.Pix[o+1]) // G
				im.pix[i+2] = float32(src.Pix[o+0]) // R
			}
		}
		return im
	case *exr.RGBAImage:
		im := newImage(Shape{Height: h, Width: w, Channels: 3})
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := src.At(b.Min.X+x, b.Min.Y+y).(exr.RGBAColor)
				i := (y*w + x) * 3
				im.pix[i+0] = c.B
				im.pix[i+1] = c.G
				im.pix[i+2] = c.R
			}
		}
		return im
	default:
		im := newImage(Shape{Height: h, Width: w, Channels: 3})
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := color.NRGBA64Model.Convert(m.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
				i := (y*w + x) * 3
				im.pix[i+0] = float32(c.B) / scale16
				im.pix[i+1] = float32(c.G) / scale16
				im.pix[i+2] = float32(c.R) / scale16
			}
		}
		return im
	}
}

// imageFromRaw lays a packed pixel array out channel-last in BGR
// order. Packed arrays are stored RGB(A) like the image files; only
// the channel order changes here, sample values pass through.
func imageFromRaw(d *container.RawDesc) (*Image, error) {
	c, err := outputChannels(d.Channels)
	if err != nil {
		return nil, err
	}
	im := newImage(Shape{Height: d.Height, Width: d.Width, Channels: c})

	at := func(i int) float32 {
		if d.U8 != nil {
			return float32(d.U8[i])
		}
		return d.Float[i]
	}
	n := d.Height * d.Width
	if got := n * d.Channels; lenRaw(d) != got {
		return nil, fmt.Errorf("%w: raw member has %d samples, want %d", ErrDecode, lenRaw(d), got)
	}

	if d.Channels == 1 {
		for i := 0; i < n; i++ {
			im.pix[i] = at(i)
		}
		return im, nil
	}
	for i := 0; i < n; i++ {
		src := i * d.Channels
		dst := i * 3
		im.pix[dst+0] = at(src + 2) // B
		im.pix[dst+1] = at(src + 1) // G
		im.pix[dst+2] = at(src + 0) // R
	}
	return im, nil
}

// outputChannels maps a source channel count to the post-conversion
// count: grayscale stays single-channel, color becomes BGR with alpha
// stripped.
func outputChannels(c int) (int, error) {
	switch c {
	case 1:
		return 1, nil
	case 3, 4:
		return 3, nil
	default:
		return 0, fmt.Errorf("%w: unsupported channel count %d", ErrDecode, c)
	}
}

func lenRaw(d *container.RawDesc) int {
	if d.U8 != nil {
		return len(d.U8)
	}
	return len(d.Float)
}

func newImage(s Shape) *Image {
	return &Image{shape: s, pix: make([]float32, s.pixLen())}
}
