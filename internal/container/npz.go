package container

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/sbinet/npyio"
)

// Member names of the aggregate packed layout produced by
// np.savez(angles=..., images=...).
const (
	aggregateAnglesName = "angles.npy"
	aggregateImagesName = "images.npy"
)

// packedSource serves pre-decoded pixel arrays from a NumPy .npz
// container. Two layouts are accepted: one .npy member per angle whose
// key embeds the angle encoding, and the aggregate layout with an
// "angles" array (N x arity) plus an "images" array (N x H x W x C).
// Aggregate containers are decoded eagerly, mirroring np.load; the
// per-angle layout reads members lazily.
type packedSource struct {
	rc      *zip.ReadCloser // nil once the aggregate layout is decoded
	entries []Entry
}

func openPacked(path string, cfg Config) (*packedSource, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open npz %q: %v", ErrFormat, path, err)
	}

	byName := make(map[string]*zip.File)
	var members []*zip.File
	for _, f := range rc.File {
		if f.FileInfo().IsDir() || !isDataName(f.Name, ".npy") {
			continue
		}
		byName[f.Name] = f
		members = append(members, f)
	}

	if byName[aggregateAnglesName] != nil && byName[aggregateImagesName] != nil {
		defer rc.Close()
		entries, err := aggregateEntries(byName[aggregateAnglesName], byName[aggregateImagesName], cfg)
		if err != nil {
			return nil, err
		}
		return &packedSource{entries: entries}, nil
	}

	s := &packedSource{rc: rc}
	for _, f := range members {
		s.entries = append(s.entries, Entry{
			Name: f.Name,
			raw:  func() (*RawDesc, error) { return readRawMember(f) },
		})
	}
	return s, nil
}

func (s *packedSource) Entries() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for _, e := range s.entries {
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (s *packedSource) Close() error {
	s.entries = nil
	if s.rc == nil {
		return nil
	}
	err := s.rc.Close()
	s.rc = nil
	return err
}

// npyArray is a decoded .npy member before shape interpretation.
// Exactly one of u8, f32, f64 is set.
type npyArray struct {
	shape []int
	u8    []uint8
	f32   []float32
	f64   []float64
}

func (a *npyArray) length() int {
	switch {
	case a.u8 != nil:
		return len(a.u8)
	case a.f32 != nil:
		return len(a.f32)
	default:
		return len(a.f64)
	}
}

func readNpyMember(f *zip.File) (*npyArray, error) {
	r, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open npz member %q: %w", f.Name, err)
	}
	defer r.Close()

	nr, err := npyio.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: member %q: %v", ErrFormat, f.Name, err)
	}
	descr := nr.Header.Descr
	if descr.Fortran {
		return nil, fmt.Errorf("%w: member %q is Fortran-ordered", ErrFormat, f.Name)
	}
	if strings.HasPrefix(descr.Type, ">") {
		return nil, fmt.Errorf("%w: member %q is big-endian (%s)", ErrFormat, f.Name, descr.Type)
	}

	arr := &npyArray{shape: descr.Shape}
	switch {
	case strings.HasSuffix(descr.Type, "u1"):
		err = nr.Read(&arr.u8)
	case strings.HasSuffix(descr.Type, "f4"):
		err = nr.Read(&arr.f32)
	case strings.HasSuffix(descr.Type, "f8"):
		err = nr.Read(&arr.f64)
	default:
		return nil, fmt.Errorf("%w: member %q has unsupported dtype %s", ErrFormat, f.Name, descr.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read member %q: %v", ErrFormat, f.Name, err)
	}
	if want := shapeLen(arr.shape); arr.length() != want {
		return nil, fmt.Errorf("%w: member %q has %d samples, header says %d",
			ErrFormat, f.Name, arr.length(), want)
	}
	return arr, nil
}

// readRawMember reads one per-angle .npy member as an H x W (x C)
// pixel array.
func readRawMember(f *zip.File) (*RawDesc, error) {
	arr, err := readNpyMember(f)
	if err != nil {
		return nil, err
	}
	h, w, c, err := imageDims(arr.shape)
	if err != nil {
		return nil, fmt.Errorf("member %q: %w", f.Name, err)
	}
	return rawDesc(h, w, c, arr, 0, h*w*c), nil
}

// aggregateEntries synthesizes per-angle entries from the aggregate
// layout. Entry names re-encode each angle row so the regular name
// parser applies unchanged.
func aggregateEntries(anglesFile, imagesFile *zip.File, cfg Config) ([]Entry, error) {
	angles, err := readNpyMember(anglesFile)
	if err != nil {
		return nil, err
	}
	if len(angles.shape) != 2 {
		return nil, fmt.Errorf("%w: angles array has %d dimensions, want 2", ErrFormat, len(angles.shape))
	}
	n, arity := angles.shape[0], angles.shape[1]

	images, err := readNpyMember(imagesFile)
	if err != nil {
		return nil, err
	}
	if len(images.shape) < 3 || len(images.shape) > 4 {
		return nil, fmt.Errorf("%w: images array has %d dimensions, want 3 or 4", ErrFormat, len(images.shape))
	}
	if images.shape[0] != n {
		return nil, fmt.Errorf("%w: %d angle rows for %d images", ErrFormat, n, images.shape[0])
	}
	h, w, c, err := imageDims(images.shape[1:])
	if err != nil {
		return nil, err
	}

	stride := h * w * c
	sep := cfg.AngleSeparator
	if sep == "" {
		sep = " "
	}
	entries := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		row := make([]float64, arity)
		for j := 0; j < arity; j++ {
			row[j] = angles.floatAt(i*arity + j)
		}
		desc := rawDesc(h, w, c, images, i*stride, (i+1)*stride)
		entries = append(entries, Entry{
			Name: synthAngleName(row, sep) + ".npy",
			raw:  func() (*RawDesc, error) { return desc, nil },
		})
	}
	return entries, nil
}

// floatAt reads one sample of a float-typed array as float64.
func (a *npyArray) floatAt(i int) float64 {
	if a.f32 != nil {
		return float64(a.f32[i])
	}
	if a.f64 != nil {
		return a.f64[i]
	}
	return float64(a.u8[i])
}

// rawDesc builds a RawDesc over the [lo:hi) window of an array,
// converting f8 samples to f4. The window aliases the decoded array;
// callers treat it as read-only.
func rawDesc(h, w, c int, arr *npyArray, lo, hi int) *RawDesc {
	d := &RawDesc{Height: h, Width: w, Channels: c}
	switch {
	case arr.u8 != nil:
		d.U8 = arr.u8[lo:hi]
	case arr.f32 != nil:
		d.Float = arr.f32[lo:hi]
	default:
		d.Float = make([]float32, hi-lo)
		for i, v := range arr.f64[lo:hi] {
			d.Float[i] = float32(v)
		}
	}
	return d
}

// imageDims interprets a member shape as H x W (x C).
func imageDims(shape []int) (h, w, c int, err error) {
	switch len(shape) {
	case 2:
		return shape[0], shape[1], 1, nil
	case 3:
		return shape[0], shape[1], shape[2], nil
	default:
		return 0, 0, 0, fmt.Errorf("%w: pixel array has %d dimensions, want 2 or 3", ErrFormat, len(shape))
	}
}

func shapeLen(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// synthAngleName renders an angle row in the member-name encoding,
// tagging four-field tuples with the tl/pl/tv/pv convention.
func synthAngleName(vals []float64, sep string) string {
	tags := [...]string{"tl", "pl", "tv", "pv"}
	parts := make([]string, len(vals))
	for i, v := range vals {
		tag := ""
		if len(vals) == len(tags) {
			tag = tags[i]
		}
		parts[i] = tag + strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, sep)
}
