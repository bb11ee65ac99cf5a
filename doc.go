// Package btf provides read access to bidirectional texture function
// (BTF) sample archives: collections of images of a material captured
// under varying illumination and view angles, keyed by the angle
// quadruple (light zenith, light azimuth, view zenith, view azimuth)
// in degrees.
//
// An archive is one of:
//   - a directory of image files whose names embed the angles,
//   - a .zip (or .tar.gz, .tar.zst, .tar.sz) of such image files,
//   - a NumPy .npz container holding the same data as raw arrays.
//
// Image file names follow the capture convention
// "tl{deg} pl{deg} tv{deg} pv{deg}.{ext}", for example
// "tl20.25 pl10 tv11.5 pv0.exr"; the separator, extension, and angle
// arity are configurable.
//
// Opening an archive builds the full angle index eagerly and validates
// that every member decodes to one uniform image shape. Queries are a
// map lookup plus a single decode:
//
//	a, err := btf.Open("colorchecker.zip", btf.WithFileExt(".png"))
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	for angle := range a.Angles() {
//	    img, err := a.Image(angle...)
//	    ...
//	}
//
// Decoded images are channel-last float32 arrays in blue-green-red
// channel order, the layout expected by common vision tooling. Angle
// values are normalized to 0.001 degrees (the resolution of the
// capture stage) before use as keys, at indexing and lookup alike.
package btf
