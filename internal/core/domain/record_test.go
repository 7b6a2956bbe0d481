package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
)

func rec(eco domain.Ecosystem, name, version string, deps ...string) domain.ResolvedRecord {
	return domain.ResolvedRecord{
		Ecosystem: eco,
		Name:      domain.NewInternedString(name),
		Version:   domain.NewInternedString(version),
		Checksum:  "sha256:" + name + version,
		Depends:   domain.NewInternedStrings(deps),
	}
}

func TestResolvedGraph_Canonical(t *testing.T) {
	g := domain.ResolvedGraph{Records: []domain.ResolvedRecord{
		rec(domain.EcosystemPyPI, "requests", "2.31.0", "urllib3", "idna", "idna"),
		rec(domain.EcosystemConda, "python", "3.11.4"),
		rec(domain.EcosystemConda, "openssl", "3.1.0"),
	}}

	c := g.Canonical()
	require.Len(t, c.Records, 3)
	assert.Equal(t, "openssl", c.Records[0].Name.String())
	assert.Equal(t, "python", c.Records[1].Name.String())
	assert.Equal(t, "requests", c.Records[2].Name.String())
	assert.Equal(t, []string{"idna", "urllib3"}, domain.Strings(c.Records[2].Depends))

	// The input is left untouched.
	assert.Equal(t, "requests", g.Records[0].Name.String())
	assert.Len(t, g.Records[0].Depends, 3)
}

func TestResolvedGraph_Validate(t *testing.T) {
	ok := domain.ResolvedGraph{Records: []domain.ResolvedRecord{
		rec(domain.EcosystemConda, "python", "3.11.4"),
		rec(domain.EcosystemPyPI, "requests", "2.31.0"),
	}}
	require.NoError(t, ok.Validate())

	dup := domain.ResolvedGraph{Records: []domain.ResolvedRecord{
		rec(domain.EcosystemConda, "numpy", "1.26.0"),
		rec(domain.EcosystemPyPI, "numpy", "1.26.4"),
	}}
	err := dup.Validate()
	require.Error(t, err)

	zErr, isZerr := err.(*zerr.Error)
	require.True(t, isZerr, "expected *zerr.Error, got %T", err)
	assert.Equal(t, "numpy", zErr.Metadata()["package"])
}

func TestCompareGraphs(t *testing.T) {
	older := domain.ResolvedGraph{Records: []domain.ResolvedRecord{
		rec(domain.EcosystemConda, "a", "1.9"),
		rec(domain.EcosystemConda, "b", "2.0"),
	}}
	newer := domain.ResolvedGraph{Records: []domain.ResolvedRecord{
		rec(domain.EcosystemConda, "a", "1.10"),
		rec(domain.EcosystemConda, "b", "1.0"),
	}}

	assert.Equal(t, -1, domain.CompareGraphs(older, newer))
	assert.Equal(t, 1, domain.CompareGraphs(newer, older))
	assert.Equal(t, 0, domain.CompareGraphs(older, older))

	shorter := domain.ResolvedGraph{Records: older.Records[:1]}
	assert.Equal(t, -1, domain.CompareGraphs(shorter, older))
}

func TestSolveFailure(t *testing.T) {
	f := &domain.SolveFailure{
		Cell:      domain.CellKey{Environment: "default", Platform: domain.PlatformLinux64},
		Ecosystem: domain.EcosystemConda,
		Conflicts: []string{"root requires a >=2", "b 1.0 requires a <2"},
	}

	assert.ErrorIs(t, f, domain.ErrSolveFailed)
	assert.Contains(t, f.Error(), "default/linux-64")
	assert.Contains(t, f.Error(), "root requires a >=2; b 1.0 requires a <2")

	wrapped := &domain.SolveFailure{Cause: domain.ErrIndexFetch}
	assert.ErrorIs(t, wrapped, domain.ErrIndexFetch)
}

func TestLockDocument_ContentHash(t *testing.T) {
	doc := &domain.LockDocument{
		Version:             domain.LockFormatVersion,
		ManifestFingerprint: "abc",
		Cells: []domain.LockedCell{{
			Key:         domain.CellKey{Environment: "default", Platform: domain.PlatformLinux64},
			Fingerprint: "f1",
			Records:     []domain.ResolvedRecord{rec(domain.EcosystemConda, "python", "3.11.4")},
		}},
	}
	first := doc.ComputeContentHash()
	assert.Equal(t, first, doc.ComputeContentHash())

	doc.Cells[0].Records[0].Checksum = "sha256:other"
	assert.NotEqual(t, first, doc.ComputeContentHash())

	cell, ok := doc.Cell(domain.CellKey{Environment: "default", Platform: domain.PlatformLinux64})
	require.True(t, ok)
	assert.Equal(t, "f1", cell.Fingerprint)

	_, ok = doc.Cell(domain.CellKey{Environment: "default", Platform: domain.PlatformWin64})
	assert.False(t, ok)
}

func TestResolvedRecord_CheckPathSafe(t *testing.T) {
	ok := rec(domain.EcosystemConda, "foo", "1.2.post1")
	ok.Build = "py312h0_0"
	require.NoError(t, ok.CheckPathSafe())

	tests := []struct {
		name  string
		apply func(*domain.ResolvedRecord)
	}{
		{"build traversal", func(r *domain.ResolvedRecord) { r.Build = "x/../../../../../pwned" }},
		{"version separator", func(r *domain.ResolvedRecord) { r.Version = domain.NewInternedString("1.0/evil") }},
		{"name parent", func(r *domain.ResolvedRecord) { r.Name = domain.NewInternedString("..") }},
		{"windows separator", func(r *domain.ResolvedRecord) { r.Build = `h0\..\x` }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ok
			tt.apply(&r)
			err := r.CheckPathSafe()
			require.ErrorIs(t, err, domain.ErrUnsafeRecord)
			var zErr *zerr.Error
			assert.ErrorAs(t, err, &zErr)
		})
	}
}
