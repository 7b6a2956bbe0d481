package lockbuilder

import (
	"bytes"
	"errors"
	"strconv"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// LockfileDTO is the on-disk shape of strata.lock.
type LockfileDTO struct {
	Version             int        `yaml:"version"`
	ManifestFingerprint string     `yaml:"manifest-fingerprint"`
	ContentHash         string     `yaml:"content-hash"`
	Cells               []*CellDTO `yaml:"cells"`
}

// CellDTO is one locked (environment, platform) pair.
type CellDTO struct {
	Environment string        `yaml:"environment"`
	Platform    string        `yaml:"platform"`
	Fingerprint string        `yaml:"fingerprint"`
	Packages    []*PackageDTO `yaml:"packages"`
}

// PackageDTO is one resolved record.
type PackageDTO struct {
	Ecosystem      string   `yaml:"ecosystem"`
	Name           string   `yaml:"name"`
	Version        string   `yaml:"version"`
	Build          string   `yaml:"build,omitempty"`
	Checksum       string   `yaml:"checksum,omitempty"`
	Source         string   `yaml:"source,omitempty"`
	RequiresPython string   `yaml:"requires-python,omitempty"`
	Depends        []string `yaml:"depends,omitempty"`
	Extras         []string `yaml:"extras,omitempty"`
}

// Encode renders doc as YAML. Equal documents always encode to equal bytes.
func Encode(doc *domain.LockDocument) ([]byte, error) {
	dto := LockfileDTO{
		Version:             doc.Version,
		ManifestFingerprint: doc.ManifestFingerprint,
		ContentHash:         doc.ContentHash,
		Cells:               make([]*CellDTO, 0, len(doc.Cells)),
	}
	for _, c := range doc.Cells {
		cell := &CellDTO{
			Environment: c.Key.Environment,
			Platform:    c.Key.Platform.String(),
			Fingerprint: c.Fingerprint,
			Packages:    make([]*PackageDTO, 0, len(c.Records)),
		}
		for _, r := range c.Records {
			cell.Packages = append(cell.Packages, &PackageDTO{
				Ecosystem:      r.Ecosystem.String(),
				Name:           r.Name.String(),
				Version:        r.Version.String(),
				Build:          r.Build,
				Checksum:       r.Checksum,
				Source:         r.Source,
				RequiresPython: r.RequiresPython,
				Depends:        domain.Strings(r.Depends),
				Extras:         r.Extras,
			})
		}
		dto.Cells = append(dto.Cells, cell)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&dto); err != nil {
		return nil, zerr.Wrap(err, "failed to encode lock document")
	}
	if err := enc.Close(); err != nil {
		return nil, zerr.Wrap(err, "failed to encode lock document")
	}
	return buf.Bytes(), nil
}

// Decode parses a lock document and verifies its version and content hash.
func Decode(data []byte) (*domain.LockDocument, error) {
	var dto LockfileDTO
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&dto); err != nil {
		return nil, errors.Join(domain.ErrLockCorrupted, err)
	}

	if dto.Version != domain.LockFormatVersion {
		return nil, errors.Join(domain.ErrLockVersionUnsupported,
			zerr.With(zerr.New("lock document declares version "+strconv.Itoa(dto.Version)),
				"supported", domain.LockFormatVersion))
	}

	doc := &domain.LockDocument{
		Version:             dto.Version,
		ManifestFingerprint: dto.ManifestFingerprint,
		ContentHash:         dto.ContentHash,
		Cells:               make([]domain.LockedCell, 0, len(dto.Cells)),
	}
	for _, c := range dto.Cells {
		if c == nil {
			return nil, errors.Join(domain.ErrLockCorrupted, zerr.New("empty cell entry"))
		}
		cell, err := decodeCell(c)
		if err != nil {
			return nil, errors.Join(domain.ErrLockCorrupted, err)
		}
		doc.Cells = append(doc.Cells, cell)
	}

	for i := 1; i < len(doc.Cells); i++ {
		if domain.CompareCellKeys(doc.Cells[i-1].Key, doc.Cells[i].Key) >= 0 {
			return nil, errors.Join(domain.ErrLockCorrupted,
				zerr.With(zerr.New("cells are not sorted"), "cell", doc.Cells[i].Key.String()))
		}
	}

	if got := doc.ComputeContentHash(); got != doc.ContentHash {
		return nil, errors.Join(domain.ErrLockCorrupted,
			zerr.With(zerr.With(zerr.New("content hash mismatch"), "expected", doc.ContentHash), "actual", got))
	}
	return doc, nil
}

func decodeCell(c *CellDTO) (domain.LockedCell, error) {
	platform, err := domain.ParsePlatform(c.Platform)
	if err != nil {
		return domain.LockedCell{}, err
	}
	cell := domain.LockedCell{
		Key:         domain.CellKey{Environment: c.Environment, Platform: platform},
		Fingerprint: c.Fingerprint,
		Records:     make([]domain.ResolvedRecord, 0, len(c.Packages)),
	}
	for _, p := range c.Packages {
		if p == nil || p.Name == "" || p.Version == "" {
			return domain.LockedCell{}, zerr.With(zerr.New("incomplete package entry"), "cell", cell.Key.String())
		}
		eco, err := domain.ParseEcosystem(p.Ecosystem)
		if err != nil {
			return domain.LockedCell{}, err
		}
		rec := domain.ResolvedRecord{
			Ecosystem:      eco,
			Name:           domain.NewInternedString(p.Name),
			Version:        domain.NewInternedString(p.Version),
			Build:          p.Build,
			Checksum:       p.Checksum,
			Source:         p.Source,
			RequiresPython: p.RequiresPython,
			Depends:        domain.NewInternedStrings(p.Depends),
			Extras:         p.Extras,
		}
		if err := rec.CheckPathSafe(); err != nil {
			return domain.LockedCell{}, zerr.With(err, "cell", cell.Key.String())
		}
		cell.Records = append(cell.Records, rec)
	}
	return cell, nil
}
