package domain

import "go.trai.ch/zerr"

var (
	// ErrManifest is returned when the manifest cannot be turned into a workspace.
	ErrManifest = zerr.New("invalid manifest")

	// ErrUnknownFeature is returned when an environment references a feature that is not declared.
	ErrUnknownFeature = zerr.New("environment references an undeclared feature")

	// ErrUnsupportedPlatform is returned when a platform identifier is not one of the supported platforms.
	ErrUnsupportedPlatform = zerr.New("unsupported platform")

	// ErrNoPlatforms is returned when an environment resolves to an empty platform set.
	ErrNoPlatforms = zerr.New("environment has no platforms")

	// ErrInvalidConstraint is returned when a version constraint cannot be parsed.
	ErrInvalidConstraint = zerr.New("invalid version constraint")

	// ErrConflictingSource is returned when two features pin the same package to different sources.
	ErrConflictingSource = zerr.New("conflicting source overrides")

	// ErrUnknownEcosystem is returned when an ecosystem name is not recognized.
	ErrUnknownEcosystem = zerr.New("unknown ecosystem")

	// ErrInvalidPackageName is returned when a dependency name is empty or malformed.
	ErrInvalidPackageName = zerr.New("invalid package name")

	// ErrManifestNotFound is returned when no manifest is found walking up from the working directory.
	ErrManifestNotFound = zerr.New("could not find strata.yaml")

	// ErrManifestReadFailed is returned when the manifest file cannot be read.
	ErrManifestReadFailed = zerr.New("failed to read manifest")

	// ErrManifestParseFailed is returned when the manifest file is not valid YAML.
	ErrManifestParseFailed = zerr.New("failed to parse manifest")

	// ErrUnknownEnvironment is returned when a command names an environment the workspace does not declare.
	ErrUnknownEnvironment = zerr.New("unknown environment")

	// ErrSolveFailed is the root of every per-cell solve failure.
	ErrSolveFailed = zerr.New("solve failed")

	// ErrUnsatisfiable is returned when the constraints of a cell admit no solution.
	ErrUnsatisfiable = zerr.New("constraints are unsatisfiable")

	// ErrPythonRequired is returned when a cell has pypi dependencies but no python interpreter.
	ErrPythonRequired = zerr.New("pypi dependencies require python in the conda dependencies")

	// ErrSolverStepLimit is returned when the solver gives up after exploring too many states.
	ErrSolverStepLimit = zerr.New("solver step limit exceeded")

	// ErrDuplicatePackage is returned when a cell graph contains two records with the same name.
	ErrDuplicatePackage = zerr.New("duplicate package in cell")

	// ErrNoSolverCandidates is returned when a candidate solver returns no graph.
	ErrNoSolverCandidates = zerr.New("solver returned no candidates")

	// ErrIndexFetch is returned when a package index cannot be fetched after all retries.
	ErrIndexFetch = zerr.New("failed to fetch package index")

	// ErrIndexParse is returned when a package index is not valid JSON.
	ErrIndexParse = zerr.New("failed to parse package index")

	// ErrLockCorrupted is returned when a lock document fails to parse or its content hash does not match.
	ErrLockCorrupted = zerr.New("lock document is corrupted")

	// ErrLockVersionUnsupported is returned when a lock document declares an unknown format version.
	ErrLockVersionUnsupported = zerr.New("unsupported lock document version")

	// ErrLockReadFailed is returned when the lock document cannot be read.
	ErrLockReadFailed = zerr.New("failed to read lock document")

	// ErrLockWriteFailed is returned when the lock document cannot be written.
	ErrLockWriteFailed = zerr.New("failed to write lock document")

	// ErrLockNotFresh is returned by lock --check when the lock document needs a re-solve.
	ErrLockNotFresh = zerr.New("lock document is out of date")

	// ErrLockMissing is returned when a frozen install finds no lock document.
	ErrLockMissing = zerr.New("no lock document found")

	// ErrCellNotLocked is returned when an install targets a cell the lock document does not contain.
	ErrCellNotLocked = zerr.New("cell is not present in the lock document")

	// ErrArtifactFetch is returned when an artifact cannot be downloaded.
	ErrArtifactFetch = zerr.New("failed to fetch artifact")

	// ErrChecksumMismatch is returned when a downloaded artifact does not match its locked checksum.
	ErrChecksumMismatch = zerr.New("artifact checksum mismatch")

	// ErrInvalidChecksum is returned when a locked checksum is not a valid digest.
	ErrInvalidChecksum = zerr.New("invalid checksum")

	// ErrInstallerOperation is returned when an install, remove or relink operation fails.
	ErrInstallerOperation = zerr.New("installer operation failed")

	// ErrInstallFailed is the root of the aggregated per-environment install failures.
	ErrInstallFailed = zerr.New("install failed")

	// ErrPrefixReadFailed is returned when the installed prefix records cannot be read.
	ErrPrefixReadFailed = zerr.New("failed to read prefix")

	// ErrPrefixWriteFailed is returned when a prefix record cannot be written.
	ErrPrefixWriteFailed = zerr.New("failed to write prefix record")

	// ErrPackageNotInstalled is returned when removing or relinking a package that is not installed.
	ErrPackageNotInstalled = zerr.New("package is not installed")

	// ErrUnsafeRecord is returned when a package name, version or build cannot be used as a path element,
	// or when a prefix path escapes its prefix.
	ErrUnsafeRecord = zerr.New("package record is not safe to install")

	// ErrCleanFailed is returned when the workspace directories cannot be removed.
	ErrCleanFailed = zerr.New("failed to clean workspace")
)
