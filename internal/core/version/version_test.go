package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/core/version"
	"go.trai.ch/zerr"
)

func TestCondaCompare(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0", 0},
		{"1.0", "1.0.0", 0},
		{"1.2", "1.10", -1},
		{"1.0a1", "1.0", -1},
		{"1.0dev", "1.0a1", -1},
		{"1.0", "1.0.post1", -1},
		{"1!0.1", "2.0", 1},
		{"1.1_1", "1.1.1", 0},
		{"3.11.4", "3.9.18", 1},
		{"1.0+local", "1.0", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, version.Conda.Compare(tt.a, tt.b))
			assert.Equal(t, -tt.want, version.Conda.Compare(tt.b, tt.a))
		})
	}
}

func TestPEP440Compare(t *testing.T) {
	t.Parallel()

	ordered := []string{
		"1.0.dev1",
		"1.0a1",
		"1.0a2.dev1",
		"1.0a2",
		"1.0b1",
		"1.0rc1",
		"1.0",
		"1.0+abc",
		"1.0.post1",
		"1.1",
		"2.0",
		"1!0.5",
	}

	for i := range ordered {
		for j := range ordered {
			want := 0
			switch {
			case i < j:
				want = -1
			case i > j:
				want = 1
			}
			assert.Equal(t, want, version.PyPI.Compare(ordered[i], ordered[j]), "%s vs %s", ordered[i], ordered[j])
		}
	}

	assert.Equal(t, 0, version.PyPI.Compare("1.0", "1.0.0"))
	assert.Equal(t, 0, version.PyPI.Compare("v1.0", "1.0"))
}

func TestCondaConstraints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		constraint string
		version    string
		want       bool
	}{
		{"*", "0.1", true},
		{"", "0.1", true},
		{"1.2", "1.2.5", true},
		{"1.2", "1.3", false},
		{"1.2.*", "1.2", true},
		{"1.2*", "1.2.1", true},
		{"=1.2", "1.2.7", true},
		{"==1.2", "1.2.7", false},
		{"==1.2", "1.2.0", true},
		{">=1.0,<2", "1.9", true},
		{">=1.0,<2", "2.0", false},
		{"<1|>=3", "3.1", true},
		{"<1|>=3", "2", false},
		{"!=1.5", "1.5", false},
		{"!=1.5.*", "1.5.2", false},
		{">=1.2.*", "1.3", true},
	}

	for _, tt := range tests {
		t.Run(tt.constraint+"@"+tt.version, func(t *testing.T) {
			t.Parallel()
			c, err := version.Conda.Parse(tt.constraint)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Matches(tt.version))
		})
	}
}

func TestPyPIConstraints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		constraint string
		version    string
		want       bool
	}{
		{"==2.31.0", "2.31", true},
		{"2.31.0", "2.31.0", true},
		{"2.31", "2.31.1", false},
		{"~=1.4.2", "1.4.9", true},
		{"~=1.4.2", "1.5.0", false},
		{"~=1.4", "1.9", true},
		{"~=1.4", "2.0", false},
		{"==1.0.*", "1.0.5", true},
		{"==1.0.*", "1.1", false},
		{">=1.0,!=1.3", "1.3", false},
		{">1.0", "1.0.post1", false},
		{">1.0", "1.1.post1", true},
		{">1.0.post1", "1.0.post2", true},
		{">1.7", "1.7+local", false},
		{"<1.7", "1.7rc1", false},
		{"<1.7", "1.6rc1", true},
		{"<1.7rc2", "1.7rc1", true},
		{"<=1.7", "1.7+local", true},
		{"===1.0", "1.0", true},
		{" >= 1.0 , < 2 ", "1.5", true},
	}

	for _, tt := range tests {
		t.Run(tt.constraint+"@"+tt.version, func(t *testing.T) {
			t.Parallel()
			c, err := version.PyPI.Parse(tt.constraint)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Matches(tt.version))
		})
	}
}

func TestParseRejectsMalformedConstraints(t *testing.T) {
	t.Parallel()

	cases := []struct {
		scheme     version.Scheme
		constraint string
	}{
		{version.Conda, ">="},
		{version.Conda, ">=1.0,,<2"},
		{version.Conda, "~=1.2"},
		{version.Conda, ">=1.0 ; x"},
		{version.PyPI, "=1.0"},
		{version.PyPI, "<1|>2"},
		{version.PyPI, "~=1"},
		{version.PyPI, ">=banana"},
	}

	for _, tt := range cases {
		t.Run(tt.scheme.Name()+" "+tt.constraint, func(t *testing.T) {
			t.Parallel()
			_, err := tt.scheme.Parse(tt.constraint)
			require.Error(t, err)
			var zErr *zerr.Error
			require.ErrorAs(t, err, &zErr)
		})
	}
}

func TestPrerelease(t *testing.T) {
	t.Parallel()

	assert.True(t, version.PyPI.IsPrerelease("2.0b1"))
	assert.True(t, version.PyPI.IsPrerelease("2.0.dev3"))
	assert.False(t, version.PyPI.IsPrerelease("2.0.post1"))
	assert.False(t, version.PyPI.IsPrerelease("2.0"))

	c, err := version.PyPI.Parse(">=2.0b1")
	require.NoError(t, err)
	assert.True(t, c.MentionsPrerelease())

	c, err = version.PyPI.Parse(">=2.0")
	require.NoError(t, err)
	assert.False(t, c.MentionsPrerelease())
}
