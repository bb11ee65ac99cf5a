package btf

import "log/slog"

// defaultValidateConcurrency bounds the shape-validation workers when
// no WithValidateConcurrency option is set.
const defaultValidateConcurrency = 4

type config struct {
	fileExt             string
	angleSep            string
	angleFields         int
	validateConcurrency int
	logger              *slog.Logger
}

func defaultConfig() config {
	return config{
		fileExt:             ".exr",
		angleSep:            " ",
		angleFields:         DefaultAngleFields,
		validateConcurrency: defaultValidateConcurrency,
	}
}

// Option configures an Archive at Open.
type Option func(*config)

// WithFileExt sets the image file extension to index, including the
// dot (default ".exr"). The extension selects the decoder; members
// with other extensions are filtered out before parsing.
func WithFileExt(ext string) Option {
	return func(c *config) {
		c.fileExt = ext
	}
}

// WithAngleSeparator sets the token separating angle fields in member
// names (default " ").
func WithAngleSeparator(sep string) Option {
	return func(c *config) {
		c.angleSep = sep
	}
}

// WithAngleFields sets how many leading name fields form the angle
// tuple (default 4, the tl/pl/tv/pv convention).
func WithAngleFields(n int) Option {
	return func(c *config) {
		c.angleFields = n
	}
}

// WithValidateConcurrency sets the number of workers for the
// construction-time shape validation pass. Use 1 to force serial
// validation. Zero or negative uses the default (4).
func WithValidateConcurrency(n int) Option {
	return func(c *config) {
		if n <= 0 {
			n = defaultValidateConcurrency
		}
		c.validateConcurrency = n
	}
}

// WithLogger sets the logger for index-build diagnostics (skipped
// members, duplicate conditions). By default logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}
