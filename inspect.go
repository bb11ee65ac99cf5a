package btf

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/btf/internal/container"
)

// MemberInfo describes one archive member.
type MemberInfo struct {
	// Name is the member's archive-internal name or key.
	Name string
	// Angle is the normalized angle condition parsed from Name.
	Angle Angle
	// Size is the stored payload size in bytes.
	Size int64
	// Digest is the content digest of the stored payload.
	Digest digest.Digest
}

// Summary describes an archive's members without decoding pixels.
type Summary struct {
	Path    string
	Shape   Shape
	Members []MemberInfo
}

// Inspect reads every member and summarizes the archive: the uniform
// image shape plus per-member sizes and content digests. Digests cover
// the stored payload (encoded image bytes, or the raw sample buffer
// serialized little-endian for packed members), so two captures can be
// compared without decoding a pixel.
func (a *Archive) Inspect() (*Summary, error) {
	s := &Summary{
		Path:    a.path,
		Shape:   a.shape,
		Members: make([]MemberInfo, 0, len(a.ordered)),
	}
	for _, m := range a.ordered {
		payload, err := memberPayload(m.entry)
		if err != nil {
			return nil, fmt.Errorf("inspect member %q: %w", m.name, err)
		}
		s.Members = append(s.Members, MemberInfo{
			Name:   m.name,
			Angle:  m.angle,
			Size:   int64(len(payload)),
			Digest: digest.FromBytes(payload),
		})
	}
	return s, nil
}

func memberPayload(e container.Entry) ([]byte, error) {
	if !e.IsRaw() {
		return e.Bytes()
	}
	d, err := e.Raw()
	if err != nil {
		return nil, err
	}
	if d.U8 != nil {
		return d.U8, nil
	}
	buf := make([]byte, 4*len(d.Float))
	for i, v := range d.Float {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf, nil
}
