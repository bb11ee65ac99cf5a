// Package testutil builds BTF archive fixtures for tests: encoded
// images, zip/tar containers, and NumPy .npy/.npz payloads.
package testutil

import (
	"archive/tar"
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

// PNG encodes a w x h color PNG with every pixel set to px.
func PNG(t *testing.T, w, h int, px color.NRGBA) []byte {
	t.Helper()
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetNRGBA(x, y, px)
		}
	}
	return encodePNG(t, m)
}

// GrayPNG encodes a w x h grayscale PNG with every pixel set to v.
func GrayPNG(t *testing.T, w, h int, v uint8) []byte {
	t.Helper()
	m := image.NewGray(image.Rect(0, 0, w, h))
	for i := range m.Pix {
		m.Pix[i] = v
	}
	return encodePNG(t, m)
}

func encodePNG(t *testing.T, m image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, m))
	return buf.Bytes()
}

// WriteZip writes a zip container holding the given members into dir
// and returns its path.
func WriteZip(t *testing.T, dir, name string, members map[string][]byte) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, memberName := range sortedNames(members) {
		w, err := zw.Create(memberName)
		require.NoError(t, err)
		_, err = w.Write(members[memberName])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))
	return p
}

// WriteDir writes the members as plain files under a new subdirectory
// of dir and returns its path.
func WriteDir(t *testing.T, dir, name string, members map[string][]byte) string {
	t.Helper()
	root := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(root, 0o755))
	for memberName, data := range members {
		p := filepath.Join(root, filepath.FromSlash(memberName))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, data, 0o644))
	}
	return root
}

// WriteTar writes a compressed tar container into dir and returns its
// path. The compression is picked from the name suffix: .tar.gz/.tgz,
// .tar.zst, or .tar.sz.
func WriteTar(t *testing.T, dir, name string, members map[string][]byte) string {
	t.Helper()
	var inner bytes.Buffer
	tw := tar.NewWriter(&inner)
	for _, memberName := range sortedNames(members) {
		data := members[memberName]
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     memberName,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(data)),
		}))
		_, err := tw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())

	var buf bytes.Buffer
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		gw := gzip.NewWriter(&buf)
		_, err := gw.Write(inner.Bytes())
		require.NoError(t, err)
		require.NoError(t, gw.Close())
	case strings.HasSuffix(name, ".tar.zst"):
		zw, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		_, err = zw.Write(inner.Bytes())
		require.NoError(t, err)
		require.NoError(t, zw.Close())
	case strings.HasSuffix(name, ".tar.sz"):
		sw := snappy.NewBufferedWriter(&buf)
		_, err := sw.Write(inner.Bytes())
		require.NoError(t, err)
		require.NoError(t, sw.Close())
	default:
		t.Fatalf("unsupported tar fixture name %q", name)
	}

	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))
	return p
}

// EXR encodes a w x h single-part scanline OpenEXR image with float32
// B, G, R channels, no compression, and every pixel set to (r, g, b).
func EXR(t *testing.T, w, h int, r, g, b float32) []byte {
	t.Helper()

	le32 := func(buf *bytes.Buffer, v uint32) {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], v)
		buf.Write(tmp[:])
	}
	le64 := func(buf *bytes.Buffer, v uint64) {
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], v)
		buf.Write(tmp[:])
	}

	// Channel list entries must be sorted by name.
	var chlist bytes.Buffer
	for _, name := range []string{"B", "G", "R"} {
		chlist.WriteString(name)
		chlist.WriteByte(0)
		le32(&chlist, 2)                   // pixel type FLOAT
		chlist.Write([]byte{0, 0, 0, 0})   // pLinear + reserved
		le32(&chlist, 1)                   // xSampling
		le32(&chlist, 1)                   // ySampling
	}
	chlist.WriteByte(0)

	var box bytes.Buffer
	le32(&box, 0)
	le32(&box, 0)
	le32(&box, uint32(w-1))
	le32(&box, uint32(h-1))

	var one bytes.Buffer
	le32(&one, math.Float32bits(1))

	var buf bytes.Buffer
	buf.Write([]byte{0x76, 0x2f, 0x31, 0x01}) // magic
	le32(&buf, 2)                             // version, no flags

	attr := func(name, typ string, payload []byte) {
		buf.WriteString(name)
		buf.WriteByte(0)
		buf.WriteString(typ)
		buf.WriteByte(0)
		le32(&buf, uint32(len(payload)))
		buf.Write(payload)
	}
	attr("channels", "chlist", chlist.Bytes())
	attr("compression", "compression", []byte{0})
	attr("dataWindow", "box2i", box.Bytes())
	attr("displayWindow", "box2i", box.Bytes())
	attr("lineOrder", "lineOrder", []byte{0})
	attr("pixelAspectRatio", "float", one.Bytes())
	attr("screenWindowCenter", "v2f", make([]byte, 8))
	attr("screenWindowWidth", "float", one.Bytes())
	buf.WriteByte(0)

	// Scanline offset table, then one uncompressed block per row with
	// the channels laid out in header order.
	rowSize := 8 + w*3*4
	first := buf.Len() + 8*h
	for y := 0; y < h; y++ {
		le64(&buf, uint64(first+y*rowSize))
	}
	for y := 0; y < h; y++ {
		le32(&buf, uint32(y))
		le32(&buf, uint32(w*3*4))
		for _, v := range []float32{b, g, r} {
			for x := 0; x < w; x++ {
				le32(&buf, math.Float32bits(v))
			}
		}
	}
	return buf.Bytes()
}

func sortedNames(members map[string][]byte) []string {
	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NpyU8 encodes a C-ordered uint8 array in NumPy .npy format.
func NpyU8(t *testing.T, shape []int, data []uint8) []byte {
	t.Helper()
	return npy(t, "|u1", shape, data, len(data))
}

// NpyRaw encodes arbitrary sample bytes under the given dtype descr.
// Intended for malformed-payload fixtures; no sample count check.
func NpyRaw(t *testing.T, descr string, shape []int, raw []byte) []byte {
	t.Helper()
	n := 1
	for _, d := range shape {
		n *= d
	}
	return npy(t, descr, shape, raw, n)
}

// NpyF4 encodes a C-ordered little-endian float32 array in .npy format.
func NpyF4(t *testing.T, shape []int, data []float32) []byte {
	t.Helper()
	raw := make([]byte, 0, 4*len(data))
	for _, v := range data {
		raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(v))
	}
	return npy(t, "<f4", shape, raw, len(data))
}

// NpyF8 encodes a C-ordered little-endian float64 array in .npy format.
func NpyF8(t *testing.T, shape []int, data []float64) []byte {
	t.Helper()
	raw := make([]byte, 0, 8*len(data))
	for _, v := range data {
		raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(v))
	}
	return npy(t, "<f8", shape, raw, len(data))
}

// npy assembles the .npy v1.0 envelope: magic, header dict padded to a
// 64-byte boundary, then the raw samples.
func npy(t *testing.T, descr string, shape []int, raw []byte, n int) []byte {
	t.Helper()
	want := 1
	for _, d := range shape {
		want *= d
	}
	require.Equal(t, want, n, "fixture sample count must match shape")

	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = fmt.Sprintf("%d", d)
	}
	tuple := "(" + strings.Join(dims, ", ") + ")"
	if len(shape) == 1 {
		tuple = "(" + dims[0] + ",)"
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", descr, tuple)
	pad := 64 - (10+len(header)+1)%64
	header += strings.Repeat(" ", pad) + "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.WriteByte(1)
	buf.WriteByte(0)
	buf.WriteByte(byte(len(header)))
	buf.WriteByte(byte(len(header) >> 8))
	buf.WriteString(header)
	buf.Write(raw)
	return buf.Bytes()
}
