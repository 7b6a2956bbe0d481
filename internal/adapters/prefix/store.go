// Package prefix installs artifacts into environment prefixes and keeps one JSON record per package.
package prefix

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/strata/internal/adapters/atomicfile"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.Installer    = (*Store)(nil)
	_ ports.PrefixReader = (*Store)(nil)
)

// packageRecord is the on-disk shape of an installed package.
type packageRecord struct {
	Ecosystem     string           `json:"ecosystem"`
	Name          string           `json:"name"`
	Version       string           `json:"version"`
	Build         string           `json:"build,omitempty"`
	Checksum      string           `json:"checksum,omitempty"`
	Depends       []string         `json:"depends,omitempty"`
	LinkedAgainst []domain.LinkRef `json:"linked-against,omitempty"`
	Files         []string         `json:"files,omitempty"`
}

// Store implements ports.Installer and ports.PrefixReader.
type Store struct{}

// NewStore creates a Store.
func NewStore() *Store {
	return &Store{}
}

// ReadPrefix returns the installed packages of prefix sorted by ecosystem and name.
func (s *Store) ReadPrefix(prefix string) (*domain.PrefixRecord, error) {
	out := &domain.PrefixRecord{Path: prefix}

	metaDir := filepath.Join(prefix, domain.MetaDirName)
	entries, err := os.ReadDir(metaDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return out, nil
		}
		return nil, zerr.With(errors.Join(domain.ErrPrefixReadFailed, err), "prefix", prefix)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		rec, err := readRecord(filepath.Join(metaDir, e.Name()))
		if err != nil {
			return nil, zerr.With(err, "prefix", prefix)
		}
		pkg, err := rec.toDomain()
		if err != nil {
			return nil, zerr.With(zerr.With(err, "prefix", prefix), "record", e.Name())
		}
		out.Packages = append(out.Packages, pkg)
	}
	slices.SortFunc(out.Packages, func(a, b domain.InstalledPackage) int {
		return cmp.Or(
			cmp.Compare(a.Identity.Ecosystem, b.Identity.Ecosystem),
			cmp.Compare(a.Identity.Name, b.Identity.Name),
		)
	})
	return out, nil
}

// Install links artifact into prefix and records op.Record as installed.
func (s *Store) Install(ctx context.Context, prefix string, op domain.Operation, artifact string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r := op.Record
	if err := r.CheckPathSafe(); err != nil {
		return zerr.With(err, "prefix", prefix)
	}
	rel := filepath.Join(domain.PkgsDirName, artifactName(r))
	dst, err := within(prefix, rel)
	if err != nil {
		return err
	}
	path, err := recordPath(prefix, r.Ecosystem, r.Name.String())
	if err != nil {
		return err
	}
	if err := link(artifact, dst); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to link artifact"), "artifact", artifact)
	}

	rec := packageRecord{
		Ecosystem:     r.Ecosystem.String(),
		Name:          r.Name.String(),
		Version:       r.Version.String(),
		Build:         r.Build,
		Checksum:      r.Checksum,
		Depends:       domain.Strings(r.Depends),
		LinkedAgainst: op.Links,
		Files:         []string{filepath.ToSlash(rel)},
	}
	return writeRecord(path, rec)
}

// Remove deletes the files and the record of op.Identity.
func (s *Store) Remove(ctx context.Context, prefix string, op domain.Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := recordPath(prefix, op.Identity.Ecosystem, op.Identity.Name)
	if err != nil {
		return err
	}
	rec, err := s.installed(path, op.Identity)
	if err != nil {
		return err
	}
	for _, f := range rec.Files {
		file, err := within(prefix, filepath.FromSlash(f))
		if err != nil {
			return err
		}
		if err := os.Remove(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return zerr.With(zerr.Wrap(err, "failed to remove file"), "file", f)
		}
	}
	if err := os.Remove(path); err != nil {
		return errors.Join(domain.ErrPrefixWriteFailed, err)
	}
	return nil
}

// Relink records op.Links as the dependency state of op.Identity.
func (s *Store) Relink(ctx context.Context, prefix string, op domain.Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := recordPath(prefix, op.Identity.Ecosystem, op.Identity.Name)
	if err != nil {
		return err
	}
	rec, err := s.installed(path, op.Identity)
	if err != nil {
		return err
	}
	rec.LinkedAgainst = op.Links
	return writeRecord(path, rec)
}

// installed reads the record at path and checks that it describes id.
func (s *Store) installed(path string, id domain.Identity) (packageRecord, error) {
	rec, err := readRecord(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return rec, zerr.With(zerr.Wrap(domain.ErrPackageNotInstalled, id.String()), "package", id.Name)
		}
		return rec, err
	}
	if rec.Version != id.Version || rec.Checksum != id.Checksum {
		return rec, zerr.With(zerr.With(zerr.Wrap(domain.ErrPackageNotInstalled, id.String()),
			"installed", rec.Name+"@"+rec.Version), "package", id.Name)
	}
	return rec, nil
}

func (r packageRecord) toDomain() (domain.InstalledPackage, error) {
	eco, err := domain.ParseEcosystem(r.Ecosystem)
	if err != nil {
		return domain.InstalledPackage{}, err
	}
	return domain.InstalledPackage{
		Identity: domain.Identity{
			Ecosystem: eco,
			Name:      r.Name,
			Version:   r.Version,
			Build:     r.Build,
			Checksum:  r.Checksum,
		},
		Depends:       r.Depends,
		LinkedAgainst: r.LinkedAgainst,
		Files:         r.Files,
	}, nil
}

func recordPath(prefix string, eco domain.Ecosystem, name string) (string, error) {
	if err := domain.CheckPathElement("name", name); err != nil {
		return "", zerr.With(err, "prefix", prefix)
	}
	return within(prefix, filepath.Join(domain.MetaDirName, eco.String()+"-"+name+".json"))
}

// within joins rel onto prefix and fails when the result is not below prefix.
func within(prefix, rel string) (string, error) {
	path := filepath.Join(prefix, rel)
	back, err := filepath.Rel(filepath.Clean(prefix), path)
	if err != nil || back == "." || back == ".." || filepath.IsAbs(back) ||
		strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", zerr.With(zerr.With(zerr.Wrap(domain.ErrUnsafeRecord, "path escapes prefix"), "prefix", prefix), "path", rel)
	}
	return path, nil
}

func artifactName(r domain.ResolvedRecord) string {
	name := r.Ecosystem.String() + "-" + r.Name.String() + "-" + r.Version.String()
	if r.Build != "" {
		name += "-" + r.Build
	}
	return name
}

func readRecord(path string) (packageRecord, error) {
	var rec packageRecord
	data, err := os.ReadFile(path) //nolint:gosec // path is built from the prefix layout
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return rec, err
		}
		return rec, zerr.With(errors.Join(domain.ErrPrefixReadFailed, err), "path", path)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, zerr.With(errors.Join(domain.ErrPrefixReadFailed, err), "path", path)
	}
	return rec, nil
}

func writeRecord(path string, rec packageRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.Join(domain.ErrPrefixWriteFailed, err)
	}
	if err := atomicfile.Write(path, append(data, '\n'), domain.FilePerm); err != nil {
		return zerr.With(errors.Join(domain.ErrPrefixWriteFailed, err), "path", path)
	}
	return nil
}

// link hard-links src to dst, copying when the filesystems differ.
func link(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), domain.DirPerm); err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.Link(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src) //nolint:gosec // artifact paths come from the artifact cache
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, domain.FilePerm) //nolint:gosec // see above
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
