package btf

import (
	"fmt"
	"iter"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/btf/internal/container"
)

// Archive provides angle-indexed access to one BTF sample archive.
//
// Open builds the full index eagerly: every member name is parsed into
// an angle condition and every member is checked to decode to one
// uniform image shape. After construction the index is frozen; queries
// are a map lookup plus a single decode and may run concurrently, each
// decode using its own buffers.
type Archive struct {
	path    string
	cfg     config
	src     container.Source
	shape   Shape
	members map[string]*member
	ordered []*member // insertion order of the container listing
}

// member binds one container entry to its normalized angle condition.
type member struct {
	name  string
	angle Angle
	entry container.Entry
}

// Open opens the BTF archive at path and builds its angle index.
//
// The path may be a directory of image files, a .zip, .tar.gz,
// .tar.zst, or .tar.sz of image files, or a NumPy .npz container. A
// missing path wraps fs.ErrNotExist; an unrecognized container shape
// or an archive with no angle-tagged members is ErrFormat; duplicate
// angle conditions and non-uniform image shapes are ErrDuplicateAngle
// and ErrShapeMismatch. No partially-built Archive is ever returned:
// on any construction error the container is closed again.
func Open(path string, opts ...Option) (*Archive, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	src, err := container.Open(path, container.Config{
		FileExt:        cfg.fileExt,
		AngleSeparator: cfg.angleSep,
	})
	if err != nil {
		return nil, err
	}

	a := &Archive{
		path:    path,
		cfg:     cfg,
		src:     src,
		members: make(map[string]*member),
	}
	if err := a.buildIndex(); err != nil {
		src.Close()
		return nil, err
	}
	if err := a.validateShapes(); err != nil {
		src.Close()
		return nil, err
	}
	a.log().Debug("archive opened",
		"path", path, "members", len(a.ordered), "shape", a.shape.String())
	return a, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.cfg.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.cfg.logger
}

// buildIndex lists the container and fills the angle index. Members
// whose names do not parse are skipped; zero parseable members is
// fatal. Every duplicate condition is logged before the first
// collision is reported, so ambiguous captures show up whole.
func (a *Archive) buildIndex() error {
	var dupErr error
	for e, err := range a.src.Entries() {
		if err != nil {
			return fmt.Errorf("list members of %q: %w", a.path, err)
		}
		angle, ok := ParseAngles(e.Name, a.cfg.angleSep, a.cfg.angleFields)
		if !ok {
			a.log().Warn("skipping member without angle fields", "member", e.Name)
			continue
		}
		norm := angle.normalized()
		if prev, exists := a.members[norm.key()]; exists {
			a.log().Warn("duplicate angle condition",
				"condition", norm.String(), "member", e.Name, "existing", prev.name)
			if dupErr == nil {
				dupErr = fmt.Errorf("%w: %s in %q (members %q and %q)",
					ErrDuplicateAngle, norm, a.path, prev.name, e.Name)
			}
			continue
		}
		m := &member{name: e.Name, angle: norm, entry: e}
		a.members[norm.key()] = m
		a.ordered = append(a.ordered, m)
	}
	if dupErr != nil {
		return dupErr
	}
	if len(a.ordered) == 0 {
		return fmt.Errorf("%w: no angle-tagged members in %q", ErrFormat, a.path)
	}
	return nil
}

// validateShapes decodes the first member to establish the archive
// shape, then probes every remaining member against it on a bounded
// worker pool. Header-only probes are used where the format allows.
func (a *Archive) validateShapes() error {
	im, err := decodeEntry(a.ordered[0].entry, a.cfg.fileExt)
	if err != nil {
		return err
	}
	a.shape = im.Shape()

	g := new(errgroup.Group)
	g.SetLimit(a.cfg.validateConcurrency)
	for _, m := range a.ordered[1:] {
		g.Go(func() error {
			s, err := probeShape(m.entry, a.cfg.fileExt)
			if err != nil {
				return err
			}
			if s != a.shape {
				return fmt.Errorf("%w: member %q decodes to %s, want %s",
					ErrShapeMismatch, m.name, s, a.shape)
			}
			return nil
		})
	}
	return g.Wait()
}

// Path returns the archive path given to Open.
func (a *Archive) Path() string { return a.path }

// Len returns the number of angle conditions in the archive.
func (a *Archive) Len() int { return len(a.ordered) }

// ImageShape returns the uniform (height, width, channels) shape
// established at construction.
func (a *Archive) ImageShape() Shape { return a.shape }

// Angles returns an iterator over the archive's angle conditions in
// the container's listing order. The set is frozen at construction;
// the yielded tuples alias the index and must be treated as read-only.
func (a *Archive) Angles() iter.Seq[Angle] {
	return func(yield func(Angle) bool) {
		for _, m := range a.ordered {
			if !yield(m.angle) {
				return
			}
		}
	}
}

// Contains reports whether the angle condition is present in the
// archive. The values are normalized with the same rounding rule used
// at indexing.
func (a *Archive) Contains(angles ...float64) bool {
	_, ok := a.members[Angle(angles).key()]
	return ok
}

// Image returns the decoded image for the given angle condition,
// channel-last in BGR order.
//
// The input is normalized with the indexing rounding rule before
// lookup. An absent condition is ErrAngleNotFound and leaves the
// archive fully usable; a member that fails to decode is ErrDecode for
// that call only.
func (a *Archive) Image(angles ...float64) (*Image, error) {
	m, ok := a.members[Angle(angles).key()]
	if !ok {
		return nil, fmt.Errorf("%w: condition %s does not exist in %q",
			ErrAngleNotFound, Angle(angles).normalized(), a.path)
	}
	return decodeEntry(m.entry, a.cfg.fileExt)
}

// Close releases the underlying container. Close is idempotent;
// queries must not be issued after Close.
func (a *Archive) Close() error {
	if a.src == nil {
		return nil
	}
	err := a.src.Close()
	a.src = nil
	return err
}
