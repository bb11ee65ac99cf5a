package btf

import (
	"math"
	"path"
	"strconv"
	"strings"
)

// anglePrecision is the normalization step for angle keys: 0.001
// degrees, the resolution of the ARIES four-axis capture stage. Values
// are rounded to this step before every insertion and lookup, so
// textual variants such as "15" and "15.0" produce the same key.
const anglePrecision = 1e-3

// DefaultAngleFields is the arity of the BTF angle convention:
// light zenith, light azimuth, view zenith, view azimuth.
const DefaultAngleFields = 4

// Angle is an ordered tuple of degrees identifying one capture
// condition. Angles compare by exact normalized value; no wrapping is
// performed, so 360.0 and 0.0 are distinct conditions.
type Angle []float64

// String formats the angle as "(20.25, 10, 11.5, 0)".
func (a Angle) String() string {
	parts := make([]string, len(a))
	for i, v := range a {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// normalized returns a copy of the angle with every value rounded to
// anglePrecision. Negative zero folds to zero.
func (a Angle) normalized() Angle {
	out := make(Angle, len(a))
	for i, v := range a {
		out[i] = normalizeDegrees(v)
	}
	return out
}

// key returns the canonical lookup key for the angle. The key is the
// normalized values rendered with exactly three decimals and joined by
// "/", so equality is exact on the normalized representation.
func (a Angle) key() string {
	var b strings.Builder
	for i, v := range a {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(strconv.FormatFloat(normalizeDegrees(v), 'f', 3, 64))
	}
	return b.String()
}

func normalizeDegrees(v float64) float64 {
	v = math.Round(v/anglePrecision) * anglePrecision
	if v == 0 {
		return 0
	}
	return v
}

// ParseAngles extracts an angle tuple from an archive member name.
//
// The directory part and extension are stripped, the remainder is split
// on sep, and each field has its leading alphabetic tag removed
// ("tl20.25" becomes "20.25") before parsing as a float. The first
// arity fields form the tuple; trailing fields are ignored, matching
// the capture tooling's naming convention.
//
// It returns the parsed tuple and true, or nil and false when the name
// does not yield at least arity valid degree fields. The function is
// pure; it performs no I/O and accepts both slash- and
// backslash-separated member paths.
func ParseAngles(name, sep string, arity int) (Angle, bool) {
	if arity <= 0 || sep == "" {
		return nil, false
	}
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	base = strings.TrimSuffix(base, path.Ext(base))

	fields := strings.Split(base, sep)
	if len(fields) < arity {
		return nil, false
	}

	angle := make(Angle, arity)
	for i, field := range fields[:arity] {
		v, err := strconv.ParseFloat(trimAngleTag(field), 64)
		if err != nil {
			return nil, false
		}
		angle[i] = v
	}
	return angle, true
}

// trimAngleTag strips the leading letter run from a field: "tl20.25"
// yields "20.25", an untagged "20.25" is returned unchanged.
func trimAngleTag(field string) string {
	i := 0
	for i < len(field) && isLetter(field[i]) {
		i++
	}
	return field[i:]
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
