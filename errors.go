package btf

import (
	"errors"

	"github.com/meigma/btf/internal/container"
)

// Errors re-exported from internal/container.
var (
	// ErrFormat is returned when a path cannot be parsed as a supported
	// container shape, or when a container holds no angle-tagged members.
	ErrFormat = container.ErrFormat
)

// Sentinel errors for archive construction and queries.
var (
	// ErrDuplicateAngle is returned when two members normalize to the
	// same angle condition. The source data is ambiguous; it is never
	// resolved silently.
	ErrDuplicateAngle = errors.New("btf: duplicate angle condition")

	// ErrShapeMismatch is returned when members decode to inconsistent
	// image dimensions or channel counts.
	ErrShapeMismatch = errors.New("btf: image shape mismatch")

	// ErrDecode is returned when a member's bytes cannot be decoded as
	// an image.
	ErrDecode = errors.New("btf: image decode")

	// ErrAngleNotFound is returned by Image when the queried angle
	// condition is not present in the archive.
	ErrAngleNotFound = errors.New("btf: angle condition not found")
)
