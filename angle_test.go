package btf

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAngles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		sep   string
		arity int
		want  Angle
		ok    bool
	}{
		{
			name:  "capture convention",
			input: "tl20.25 pl10 tv11.5 pv0.exr",
			sep:   " ", arity: 4,
			want: Angle{20.25, 10, 11.5, 0}, ok: true,
		},
		{
			name:  "underscore separator",
			input: "tl20.25_pl10_tv11.5_pv0.exr",
			sep:   "_", arity: 4,
			want: Angle{20.25, 10, 11.5, 0}, ok: true,
		},
		{
			name:  "directory prefix stripped",
			input: "samples/run1/tl15 pl0 tv0 pv0.png",
			sep:   " ", arity: 4,
			want: Angle{15, 0, 0, 0}, ok: true,
		},
		{
			name:  "backslash path stripped",
			input: `samples\tl15 pl0 tv0 pv0.png`,
			sep:   " ", arity: 4,
			want: Angle{15, 0, 0, 0}, ok: true,
		},
		{
			name:  "untagged fields",
			input: "15.0 30.0 45.0 60.0.png",
			sep:   " ", arity: 4,
			want: Angle{15, 30, 45, 60}, ok: true,
		},
		{
			name:  "trailing fields ignored",
			input: "tl1 pl2 tv3 pv4 run7.exr",
			sep:   " ", arity: 4,
			want: Angle{1, 2, 3, 4}, ok: true,
		},
		{
			name:  "negative degrees",
			input: "tl-7.5 pl0 tv0 pv0.exr",
			sep:   " ", arity: 4,
			want: Angle{-7.5, 0, 0, 0}, ok: true,
		},
		{
			name:  "two-field convention",
			input: "az10.5_el20.npy",
			sep:   "_", arity: 2,
			want: Angle{10.5, 20}, ok: true,
		},
		{
			name:  "too few fields",
			input: "tl15 pl0 tv0.exr",
			sep:   " ", arity: 4,
		},
		{
			name:  "non-numeric field",
			input: "tl15 plfoo tv0 pv0.exr",
			sep:   " ", arity: 4,
		},
		{
			name:  "unrelated member",
			input: "README.md",
			sep:   " ", arity: 4,
		},
		{
			name:  "empty separator",
			input: "tl15 pl0 tv0 pv0.exr",
			sep:   "", arity: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseAngles(tt.input, tt.sep, tt.arity)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestAngleNormalization(t *testing.T) {
	t.Parallel()

	// Textual variants of the same degree value collapse to one key.
	assert.Equal(t, Angle{15, 0, 0, 0}.key(), Angle{15.0, 0.0, 0.0, 0.0}.key())
	assert.Equal(t, Angle{15.0004, 0, 0, 0}.key(), Angle{15.0001, 0, 0, 0}.key())

	// Differences at the stage resolution stay distinct.
	assert.NotEqual(t, Angle{15.001, 0, 0, 0}.key(), Angle{15.002, 0, 0, 0}.key())

	// No wrapping: a full turn is not the zero condition.
	assert.NotEqual(t, Angle{0, 0, 0, 0}.key(), Angle{360, 0, 0, 0}.key())

	// Negative zero folds to zero.
	assert.Equal(t, Angle{0}.key(), Angle{-0.0000001}.key())

	// Arity is part of the key.
	assert.NotEqual(t, Angle{15, 0}.key(), Angle{15, 0, 0, 0}.key())

	norm := Angle{15.0004, -0.0, 11.5}.normalized()
	assert.Equal(t, Angle{15, 0, 11.5}, norm)
}

func TestParseAnglesRoundTrip(t *testing.T) {
	t.Parallel()

	angles := []Angle{
		{0, 0, 0, 0},
		{15, 0, 0, 0},
		{20.25, 10, 11.5, 0},
		{45, 255, 0.001, 359.999},
	}
	for _, want := range angles {
		name := fmt.Sprintf("tl%v pl%v tv%v pv%v.exr", want[0], want[1], want[2], want[3])
		got, ok := ParseAngles(name, " ", 4)
		require.True(t, ok, "name %q", name)
		assert.Equal(t, want.key(), got.key(), "name %q", name)
		assert.Equal(t, want.normalized(), got.normalized())
	}
}

func TestAngleString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "(20.25, 10, 11.5, 0)", Angle{20.25, 10, 11.5, 0}.String())
}
