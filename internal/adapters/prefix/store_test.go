package prefix_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/prefix"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/engine/differ"
)

func record(eco domain.Ecosystem, name, ver string, deps ...string) domain.ResolvedRecord {
	return domain.ResolvedRecord{
		Ecosystem: eco,
		Name:      domain.NewInternedString(name),
		Version:   domain.NewInternedString(ver),
		Build:     "0",
		Checksum:  "sha256:" + name + ver,
		Depends:   domain.NewInternedStrings(deps),
	}
}

func artifactFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifact")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadPrefix_Missing(t *testing.T) {
	prefixDir := filepath.Join(t.TempDir(), "envs", "default")
	got, err := prefix.NewStore().ReadPrefix(prefixDir)
	require.NoError(t, err)
	assert.Equal(t, prefixDir, got.Path)
	assert.Empty(t, got.Packages)
}

func TestStore_InstallRelinkRemove(t *testing.T) {
	ctx := context.Background()
	s := prefix.NewStore()
	dir := t.TempDir()

	zlib := record(domain.EcosystemConda, "zlib", "1.3")
	app := record(domain.EcosystemPyPI, "app", "1.0", "zlib")
	links := []domain.LinkRef{{Name: "zlib", Checksum: zlib.Checksum}}

	require.NoError(t, s.Install(ctx, dir, domain.InstallOp(zlib, nil), artifactFile(t, "zlib")))
	require.NoError(t, s.Install(ctx, dir, domain.InstallOp(app, links), artifactFile(t, "app")))

	got, err := s.ReadPrefix(dir)
	require.NoError(t, err)
	require.Len(t, got.Packages, 2)
	assert.Equal(t, zlib.Identity(), got.Packages[0].Identity)
	assert.Equal(t, app.Identity(), got.Packages[1].Identity)
	assert.Equal(t, []string{"zlib"}, got.Packages[1].Depends)
	assert.Equal(t, links, got.Packages[1].LinkedAgainst)
	assert.FileExists(t, filepath.Join(dir, "pkgs", "conda-zlib-1.3-0"))

	newLinks := []domain.LinkRef{{Name: "zlib", Checksum: "sha256:other"}}
	require.NoError(t, s.Relink(ctx, dir, domain.RelinkOp(app, newLinks)))
	got, err = s.ReadPrefix(dir)
	require.NoError(t, err)
	assert.Equal(t, newLinks, got.Packages[1].LinkedAgainst)

	require.NoError(t, s.Remove(ctx, dir, domain.RemoveOp(zlib.Identity())))
	got, err = s.ReadPrefix(dir)
	require.NoError(t, err)
	require.Len(t, got.Packages, 1)
	assert.NoFileExists(t, filepath.Join(dir, "pkgs", "conda-zlib-1.3-0"))
}

func TestStore_RemoveNotInstalled(t *testing.T) {
	ctx := context.Background()
	s := prefix.NewStore()
	dir := t.TempDir()

	foo := record(domain.EcosystemConda, "foo", "1.1")
	err := s.Remove(ctx, dir, domain.RemoveOp(foo.Identity()))
	require.ErrorIs(t, err, domain.ErrPackageNotInstalled)

	require.NoError(t, s.Install(ctx, dir, domain.InstallOp(foo, nil), artifactFile(t, "foo")))
	other := record(domain.EcosystemConda, "foo", "1.2")
	err = s.Relink(ctx, dir, domain.RelinkOp(other, nil))
	require.ErrorIs(t, err, domain.ErrPackageNotInstalled)
}

func TestReadPrefix_CorruptRecord(t *testing.T) {
	dir := t.TempDir()
	meta := filepath.Join(dir, domain.MetaDirName)
	require.NoError(t, os.MkdirAll(meta, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(meta, "conda-foo.json"), []byte("{"), 0o600))

	_, err := prefix.NewStore().ReadPrefix(dir)
	require.ErrorIs(t, err, domain.ErrPrefixReadFailed)
}

func TestStore_ConvergesWithDiff(t *testing.T) {
	ctx := context.Background()
	s := prefix.NewStore()
	dir := t.TempDir()
	artifact := artifactFile(t, "payload")

	apply := func(records []domain.ResolvedRecord) {
		t.Helper()
		current, err := s.ReadPrefix(dir)
		require.NoError(t, err)
		for _, op := range differ.Diff(records, current) {
			switch op.Kind {
			case domain.OpInstall:
				require.NoError(t, s.Install(ctx, dir, op, artifact))
			case domain.OpRemove:
				require.NoError(t, s.Remove(ctx, dir, op))
			case domain.OpRelink:
				require.NoError(t, s.Relink(ctx, dir, op))
			}
		}
		after, err := s.ReadPrefix(dir)
		require.NoError(t, err)
		assert.Empty(t, differ.Diff(records, after))
	}

	apply([]domain.ResolvedRecord{
		record(domain.EcosystemConda, "python", "3.12.1", "zlib"),
		record(domain.EcosystemConda, "zlib", "1.2"),
		record(domain.EcosystemPyPI, "requests", "2.32.3", "python"),
	})
	apply([]domain.ResolvedRecord{
		record(domain.EcosystemConda, "python", "3.12.1", "zlib"),
		record(domain.EcosystemConda, "zlib", "1.3"),
	})
}

func TestStore_InstallRejectsRecordsEscapingPrefix(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	dir := filepath.Join(root, "envs", "default")

	evil := record(domain.EcosystemConda, "foo", "1.0")
	evil.Build = "x/../../../../../pwned"
	err := prefix.NewStore().Install(ctx, dir, domain.InstallOp(evil, nil), artifactFile(t, "evil"))
	require.ErrorIs(t, err, domain.ErrUnsafeRecord)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_RemoveRejectsFilesOutsidePrefix(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	dir := filepath.Join(root, "env")
	outside := filepath.Join(root, "keep")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o600))

	foo := record(domain.EcosystemConda, "foo", "1.0")
	meta := filepath.Join(dir, domain.MetaDirName)
	require.NoError(t, os.MkdirAll(meta, 0o750))
	body := `{"ecosystem": "conda", "name": "foo", "version": "1.0", "build": "0", ` +
		`"checksum": "` + foo.Checksum + `", "files": ["../keep"]}`
	require.NoError(t, os.WriteFile(filepath.Join(meta, "conda-foo.json"), []byte(body), 0o600))

	err := prefix.NewStore().Remove(ctx, dir, domain.RemoveOp(foo.Identity()))
	require.ErrorIs(t, err, domain.ErrUnsafeRecord)
	assert.FileExists(t, outside)
}
