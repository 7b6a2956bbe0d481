package domain

import (
	"maps"
	"slices"
)

// IndexEntry is one installable artifact listed by a package index.
type IndexEntry struct {
	Name           string   `json:"name"`
	Version        string   `json:"version"`
	Build          string   `json:"build,omitempty"`
	BuildNumber    int      `json:"build_number,omitempty"`
	Depends        []string `json:"depends,omitempty"`
	SHA256         string   `json:"sha256"`
	URL            string   `json:"url"`
	RequiresPython string   `json:"requires_python,omitempty"`
	// Channel is the source the entry was read from. It is set by the index provider.
	Channel string `json:"-"`
	// Subdir is the index subdirectory the entry was read from, e.g. "linux-64" or "noarch".
	Subdir string `json:"-"`
}

// Checksum returns the entry digest in "sha256:<hex>" form.
func (e IndexEntry) Checksum() string {
	if e.SHA256 == "" {
		return ""
	}
	return "sha256:" + e.SHA256
}

// IndexRequest identifies the index of one ecosystem on one platform over a list of sources.
type IndexRequest struct {
	Ecosystem Ecosystem
	Platform  Platform
	Sources   []string
	// Attempts bounds the retries of a failing fetch. Zero means DefaultIndexRetries.
	Attempts int
}

// Index is a read-only view of the packages available to one ecosystem on one platform.
// It is shared between cells and must not be mutated after construction.
type Index struct {
	Ecosystem Ecosystem
	Platform  Platform
	packages  map[string][]IndexEntry
}

// NewIndex groups entries by normalized name.
func NewIndex(eco Ecosystem, platform Platform, entries []IndexEntry) *Index {
	idx := &Index{
		Ecosystem: eco,
		Platform:  platform,
		packages:  make(map[string][]IndexEntry),
	}
	for _, e := range entries {
		e.Name = NormalizeName(eco, e.Name)
		idx.packages[e.Name] = append(idx.packages[e.Name], e)
	}
	return idx
}

// Candidates returns every entry named name. The returned slice must not be modified.
func (i *Index) Candidates(name string) []IndexEntry {
	if i == nil {
		return nil
	}
	return i.packages[NormalizeName(i.Ecosystem, name)]
}

// Names returns the package names present in the index, sorted.
func (i *Index) Names() []string {
	if i == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(i.packages))
}

// Len returns the number of entries in the index.
func (i *Index) Len() int {
	n := 0
	for _, entries := range i.packages {
		n += len(entries)
	}
	return n
}
