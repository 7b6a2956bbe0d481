package domain

import "path/filepath"

const (
	// StrataDirName is the name of the internal workspace directory.
	StrataDirName = ".strata"

	// CacheDirName is the name of the cache directory.
	CacheDirName = "cache"

	// IndexDirName is the name of the package index cache directory.
	IndexDirName = "index"

	// PkgsDirName is the name of the artifact cache directory.
	PkgsDirName = "pkgs"

	// EnvsDirName is the name of the directory holding the installed prefixes.
	EnvsDirName = "envs"

	// MetaDirName is the name of the per-prefix directory holding installed package records.
	MetaDirName = "strata-meta"

	// ManifestFileName is the name of the project manifest.
	ManifestFileName = "strata.yaml"

	// LockFileName is the name of the lock document.
	LockFileName = "strata.lock"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultStrataPath returns the default root directory for strata metadata.
func DefaultStrataPath() string {
	return StrataDirName
}

// DefaultCachePath returns the default cache directory.
// It joins .strata and cache.
func DefaultCachePath() string {
	return filepath.Join(StrataDirName, CacheDirName)
}

// IndexCachePath returns the index cache directory below cacheDir.
func IndexCachePath(cacheDir string) string {
	return filepath.Join(cacheDir, IndexDirName)
}

// ArtifactCachePath returns the artifact cache directory below cacheDir.
func ArtifactCachePath(cacheDir string) string {
	return filepath.Join(cacheDir, PkgsDirName)
}

// EnvsPath returns the directory holding every installed prefix of the workspace at root.
func EnvsPath(root string) string {
	return filepath.Join(root, StrataDirName, EnvsDirName)
}

// PrefixPath returns the install prefix of environment env in the workspace at root.
func PrefixPath(root, env string) string {
	return filepath.Join(EnvsPath(root), env)
}

// LockPath returns the lock document path of the workspace at root.
func LockPath(root string) string {
	return filepath.Join(root, LockFileName)
}
